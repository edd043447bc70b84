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

// PDFRenderer is the external rendering service: HTML in, binary document out.
type PDFRenderer interface {
	Render(ctx context.Context, htmlContent string) ([]byte, error)
}

// HTTPPDFRenderer calls the rendering service over HTTP.
type HTTPPDFRenderer struct {
	url    string
	client *http.Client
}

func NewHTTPPDFRenderer(url string, timeout time.Duration) *HTTPPDFRenderer {
	return &HTTPPDFRenderer{url: url, client: &http.Client{Timeout: timeout}}
}

type renderRequest struct {
	HTML string `json:"html"`
}

func (r *HTTPPDFRenderer) Render(ctx context.Context, htmlContent string) ([]byte, error) {
	body, err := json.Marshal(renderRequest{HTML: htmlContent})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url+"/render", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pdf renderer request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("pdf renderer returned %d: %s", resp.StatusCode, string(b))
	}
	return io.ReadAll(resp.Body)
}
