package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Completer is the external AI model wrapper: prompt in, reply out.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// HTTPCompleter calls a completion endpoint over HTTP with an API key.
type HTTPCompleter struct {
	url    string
	apiKey string
	client *http.Client
}

func NewHTTPCompleter(url, apiKey string, timeout time.Duration) *HTTPCompleter {
	return &HTTPCompleter{url: url, apiKey: apiKey, client: &http.Client{Timeout: timeout}}
}

type completeRequest struct {
	Prompt string `json:"prompt"`
}

type completeResponse struct {
	Reply string `json:"reply"`
	Error string `json:"error"`
}

func (h *HTTPCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(completeRequest{Prompt: prompt})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url+"/complete", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if h.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+h.apiKey)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("completion request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("completion endpoint returned %d: %s", resp.StatusCode, string(b))
	}

	var out completeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("completion response: %w", err)
	}
	if out.Error != "" {
		return "", fmt.Errorf("completion failed: %s", out.Error)
	}
	return out.Reply, nil
}
