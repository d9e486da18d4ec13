package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ETAnderson/gatehouse/internal/event"
)

// Enqueuer is the worker pool surface the webhook handler needs.
type Enqueuer interface {
	Enqueue(raw event.Raw) bool
}

// WebhookHandler accepts provider notifications (a single event object
// or an array of them), drops our own outbound traffic, and hands the
// rest to the admission queue. It acknowledges with 200 even when every
// event is a duplicate; the only non-2xx is 503 when the queue is full,
// which tells the provider to redeliver later.
type WebhookHandler struct {
	Queue  Enqueuer
	Logger *slog.Logger

	// SelfAppID, when set, drops events our own app produced so replies
	// do not trigger replies.
	SelfAppID string
}

const maxWebhookBody = 1 << 20 // 1 MiB

func (h WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":   "read_body_failed",
			"message": err.Error(),
		})
		return
	}

	events, err := decodeEvents(body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":   "invalid_payload",
			"message": err.Error(),
		})
		return
	}

	received := 0
	ignored := 0
	for _, raw := range events {
		if h.ignore(raw) {
			ignored++
			continue
		}
		if !h.Queue.Enqueue(raw) {
			// Backpressure: the provider will redeliver, and the
			// idempotency gate absorbs anything we already admitted.
			h.Logger.Warn("admission queue full, rejecting delivery",
				"received", received,
			)
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{
				"error":   "queue_full",
				"message": "admission queue is full, retry later",
			})
			return
		}
		received++
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"received": received,
		"ignored":  ignored,
	})
}

func (h WebhookHandler) ignore(raw event.Raw) bool {
	direction := raw.MessageDirection
	if direction == "" {
		direction = raw.Direction
	}
	if strings.EqualFold(strings.TrimSpace(direction), "OUTGOING") {
		return true
	}

	if h.SelfAppID == "" {
		return false
	}
	appID := string(raw.AppID)
	if appID == "" {
		appID = string(raw.SentByAppID)
	}
	return appID == h.SelfAppID
}

// decodeEvents accepts either a bare event object or an array of them.
func decodeEvents(body []byte) ([]event.Raw, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var events []event.Raw
		if err := json.Unmarshal(trimmed, &events); err != nil {
			return nil, err
		}
		return events, nil
	}

	var single event.Raw
	if err := json.Unmarshal(trimmed, &single); err != nil {
		return nil, err
	}
	return []event.Raw{single}, nil
}
