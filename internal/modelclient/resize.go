package modelclient

import (
	"bytes"
	"image"
	"image/jpeg"
	"image/png"
	"path/filepath"
	"strings"

	"golang.org/x/image/draw"
)

// resizeForModel mirrors _resize_image_for_model: down-scale to MaxImageDim
// preserving aspect when either dimension exceeds it, re-encoding JPEG at
// quality 85 for .jpg/.jpeg sources and PNG otherwise; if the on-disk bytes
// exceed MaxImageBytes, force a JPEG quality-80 re-encode of the (possibly
// down-scaled) image regardless of source format.
func resizeForModel(path string, data []byte) ([]byte, error) {
	isJPEG := strings.EqualFold(filepath.Ext(path), ".jpg") || strings.EqualFold(filepath.Ext(path), ".jpeg")

	needsResize := false
	img, _, err := image.Decode(bytes.NewReader(data))
	if err == nil {
		b := img.Bounds()
		needsResize = b.Dx() > MaxImageDim || b.Dy() > MaxImageDim
	}

	out := data
	src := img
	if needsResize && img != nil {
		scaled := scaleToFit(img, MaxImageDim)
		src = scaled
		var buf bytes.Buffer
		if isJPEG {
			if err := jpeg.Encode(&buf, scaled, &jpeg.Options{Quality: 85}); err != nil {
				return nil, err
			}
		} else {
			if err := png.Encode(&buf, scaled); err != nil {
				return nil, err
			}
		}
		out = buf.Bytes()
	}

	if len(data) > MaxImageBytes {
		decodeSrc := src
		if decodeSrc == nil {
			if d, _, derr := image.Decode(bytes.NewReader(out)); derr == nil {
				decodeSrc = d
			}
		}
		if decodeSrc != nil {
			var buf bytes.Buffer
			if err := jpeg.Encode(&buf, decodeSrc, &jpeg.Options{Quality: 80}); err == nil {
				out = buf.Bytes()
			}
		}
	}

	return out, nil
}

// scaleToFit resizes img so neither dimension exceeds maxDim, preserving
// aspect ratio, using the sharpest kernel golang.org/x/image/draw provides.
func scaleToFit(img image.Image, maxDim int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	scale := float64(maxDim) / float64(w)
	if hs := float64(maxDim) / float64(h); hs < scale {
		scale = hs
	}
	if scale >= 1.0 {
		return img
	}
	newW := int(float64(w) * scale)
	newH := int(float64(h) * scale)
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}
