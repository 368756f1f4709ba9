// Package modelclient implements the Model Client: it resizes an image to
// the vision-language model's limits, POSTs the fixed-shape generate
// request, and classifies network/timeout/server failures without ever
// aborting the caller's per-image loop.
package modelclient

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// MaxImageDim mirrors the materializer's render-size cap; together with
// MaxImageBytes it is the one place image size is gated before an image
// leaves the process.
const (
	MaxImageDim   = 1024
	MaxImageBytes = 4 * 1024 * 1024
)

// AltTextPrompt is the German prompt template sent with every image.
// "{context}" is substituted with up to 500 chars of the page's text.
const AltTextPrompt = `Du bist ein Assistent für barrierefreie PDF-Dokumente. Analysiere das folgende Bild und erzeuge NUR ein JSON-Objekt im Format:
{"bildtyp": "<foto|diagramm|tabelle|screenshot|icon|logo|karte|dekorativ>", "alt_text": "<2-4 Saetze, 150-350 Zeichen>", "ist_dekorativ": <bool>, "konfidenz": "<hoch|mittel|niedrig>"}

Regeln:
- Beginne den alt_text mit dem Bildtyp.
- Bei Diagrammen: nenne Trends und Extremwerte.
- Bei Screenshots: lies sichtbaren Text vor.
- Bei rein dekorativen Bildern: leerer alt_text und ist_dekorativ=true.
- Erfinde niemals Inhalte.
- Markiere unleserliche Bereiche als "teilweise nicht lesbar".

Kontext der Seite: {context}`

// Client talks to the configured vision-language model endpoint.
type Client struct {
	BaseURL string
	Model   string
	HTTP    *http.Client
}

// New returns a Client with a generous HTTP timeout for slow local models.
func New(baseURL, model string) *Client {
	return &Client{
		BaseURL: baseURL,
		Model:   model,
		HTTP:    &http.Client{Timeout: 300 * time.Second},
	}
}

// Reply is the model's raw {response, thinking} pair.
type Reply struct {
	Response string
	Thinking string
}

// Kind classifies a Generate failure.
type Kind string

const (
	KindNetwork Kind = "NetworkError"
	KindTimeout Kind = "ModelTimeout"
	KindModel   Kind = "ModelError"
)

// Error wraps a classified model-call failure; the orchestrator converts
// it directly into a fehler alt-text record instead of propagating it.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string { return fmt.Sprintf("modelclient: %s: %v", e.Kind, e.Err) }
func (e *Error) Unwrap() error { return e.Err }

type generateRequest struct {
	Model   string   `json:"model"`
	Prompt  string   `json:"prompt"`
	Images  []string `json:"images"`
	Stream  bool     `json:"stream"`
	Options options  `json:"options"`
}

type options struct {
	Temperature float64 `json:"temperature"`
	NumCtx      int     `json:"num_ctx"`
	NumPredict  int     `json:"num_predict"`
}

type generateResponse struct {
	Response string `json:"response"`
	Thinking string `json:"thinking"`
}

// Generate resizes imagePath to the model's limits, substitutes contextText
// into the prompt, and POSTs to {base}/api/generate. It never returns a bare
// Go error for a network/timeout/server failure: those come back as *Error
// so the caller can build a "fehler" alt-text record and continue.
func (c *Client) Generate(ctx context.Context, imagePath, contextText string) (*Reply, error) {
	b64, err := prepareImage(imagePath)
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Err: fmt.Errorf("preparing image: %w", err)}
	}

	ctxSnippet := contextText
	if r := []rune(ctxSnippet); len(r) > 500 {
		ctxSnippet = string(r[:500])
	}
	if ctxSnippet == "" {
		ctxSnippet = "(kein Textkontext verfügbar)"
	}
	prompt := replacePlaceholder(AltTextPrompt, "{context}", ctxSnippet)

	reqBody := generateRequest{
		Model:  c.Model,
		Prompt: prompt,
		Images: []string{b64},
		Stream: false,
		Options: options{
			Temperature: 0.3,
			NumCtx:      4096,
			NumPredict:  4000,
		},
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, &Error{Kind: KindModel, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		var netErr interface{ Timeout() bool }
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, &Error{Kind: KindTimeout, Err: err}
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, &Error{Kind: KindTimeout, Err: err}
		}
		return nil, &Error{Kind: KindNetwork, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 || len(body) == 0 {
		return nil, &Error{Kind: KindModel, Err: fmt.Errorf("status %d, %d bytes", resp.StatusCode, len(body))}
	}

	var gr generateResponse
	if err := json.Unmarshal(body, &gr); err != nil {
		return nil, &Error{Kind: KindModel, Err: fmt.Errorf("decoding reply: %w", err)}
	}
	return &Reply{Response: gr.Response, Thinking: gr.Thinking}, nil
}

func prepareImage(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	resized, err := resizeForModel(path, data)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(resized), nil
}

func replacePlaceholder(s, placeholder, value string) string {
	out := make([]byte, 0, len(s)+len(value))
	for i := 0; i < len(s); {
		if i+len(placeholder) <= len(s) && s[i:i+len(placeholder)] == placeholder {
			out = append(out, value...)
			i += len(placeholder)
			continue
		}
		out = append(out, s[i])
		i++
	}
	return string(out)
}
