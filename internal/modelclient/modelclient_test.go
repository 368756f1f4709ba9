package modelclient

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func writeTestPNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{uint8(x % 255), uint8(y % 255), 0, 255})
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
}

func TestGenerateSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req generateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Stream {
			t.Errorf("expected stream=false")
		}
		if len(req.Images) != 1 {
			t.Errorf("expected 1 image")
		}
		json.NewEncoder(w).Encode(generateResponse{Response: `{"alt_text":"ok"}`})
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "img.png")
	writeTestPNG(t, path, 100, 80)

	c := New(srv.URL, "llava")
	reply, err := c.Generate(context.Background(), path, "some page text")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if reply.Response != `{"alt_text":"ok"}` {
		t.Errorf("unexpected response: %q", reply.Response)
	}
}

func TestGenerateNonOKStatusIsModelError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "img.png")
	writeTestPNG(t, path, 50, 50)

	c := New(srv.URL, "llava")
	_, err := c.Generate(context.Background(), path, "")
	var modelErr *Error
	if err == nil {
		t.Fatalf("expected an error")
	}
	if !asError(err, &modelErr) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if modelErr.Kind != KindModel {
		t.Errorf("expected KindModel, got %v", modelErr.Kind)
	}
}

func asError(err error, target **Error) bool {
	if e, ok := err.(*Error); ok {
		*target = e
		return true
	}
	return false
}

func TestResizeDownscalesOversizedImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "big.png")
	writeTestPNG(t, path, 2000, 500)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	out, err := resizeForModel(path, data)
	if err != nil {
		t.Fatalf("resizeForModel failed: %v", err)
	}
	img, _, err := image.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode resized: %v", err)
	}
	b := img.Bounds()
	if b.Dx() > MaxImageDim || b.Dy() > MaxImageDim {
		t.Errorf("expected resized dims <= %d, got %dx%d", MaxImageDim, b.Dx(), b.Dy())
	}
}
