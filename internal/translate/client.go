package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Translator is the external Banglish-to-Bangla model service. It takes raw
// text and returns translated text; everything else about it is opaque.
type Translator interface {
	Translate(ctx context.Context, text string) (string, error)
}

// HTTPTranslator calls the model service over HTTP.
type HTTPTranslator struct {
	url    string
	client *http.Client
}

func NewHTTPTranslator(url string, timeout time.Duration) *HTTPTranslator {
	return &HTTPTranslator{url: url, client: &http.Client{Timeout: timeout}}
}

type translateRequest struct {
	Text string `json:"text"`
}

type translateResponse struct {
	Success     bool   `json:"success"`
	Translation string `json:"translation"`
	Error       string `json:"error"`
}

func (t *HTTPTranslator) Translate(ctx context.Context, text string) (string, error) {
	body, err := json.Marshal(translateRequest{Text: text})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url+"/translate", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("translator request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("translator returned %d: %s", resp.StatusCode, string(b))
	}

	var out translateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("translator response: %w", err)
	}
	if !out.Success {
		return "", fmt.Errorf("translation failed: %s", out.Error)
	}
	return out.Translation, nil
}
