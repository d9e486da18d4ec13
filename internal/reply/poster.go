// Package reply posts messages to conversation threads on the upstream
// conversations API. This is the side-effecting action the admission
// pipeline protects.
package reply

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/ETAnderson/gatehouse/internal/retry"
)

type Poster struct {
	BaseURL string
	Token   string

	// HTTPClient defaults to a client with a 10s timeout.
	HTTPClient *http.Client
}

type messageBody struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Post sends text to the thread. A non-2xx response comes back as a
// *retry.HTTPError so the retry classifier can act on the status. The
// idempotency key is forwarded to the provider so a retried request
// that already landed server-side is not applied twice.
func (p Poster) Post(ctx context.Context, threadID string, text string, idempotencyKey string) error {
	body, err := json.Marshal(messageBody{Type: "MESSAGE", Text: text})
	if err != nil {
		return fmt.Errorf("encode reply: %w", err)
	}

	endpoint := p.BaseURL + "/conversations/" + url.PathEscape(threadID) + "/messages"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build reply request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.Token != "" {
		req.Header.Set("Authorization", "Bearer "+p.Token)
	}
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	resp, err := p.client().Do(req)
	if err != nil {
		return fmt.Errorf("post reply: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return &retry.HTTPError{StatusCode: resp.StatusCode, Body: string(snippet)}
	}

	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func (p Poster) client() *http.Client {
	if p.HTTPClient != nil {
		return p.HTTPClient
	}
	return &http.Client{Timeout: 10 * time.Second}
}
