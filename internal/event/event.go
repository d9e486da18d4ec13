// Package event normalizes raw webhook payloads into a single typed
// record and derives the dedupe identity the admission gates key on.
package event

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMissingThreadID marks an event with no usable thread identity.
// Such events are dropped before any key is derived, so no idempotency
// record is ever written for them.
var ErrMissingThreadID = errors.New("event has no thread id")

// Raw mirrors the provider payload. Providers are inconsistent about
// field names and about whether ids are JSON strings or numbers, so
// every identifier is a FlexString and the aliased fields are all
// present; Normalize resolves the aliases in one place instead of
// scattering fallbacks through the pipeline.
type Raw struct {
	ID               FlexString `json:"id"`
	MessageID        FlexString `json:"messageId"`
	EventID          FlexString `json:"eventId"`
	SubscriptionType string     `json:"subscriptionType"`
	ObjectID         FlexString `json:"objectId"`
	OccurredAt       FlexInt64  `json:"occurredAt"`
	Timestamp        FlexInt64  `json:"timestamp"`
	AppID            FlexString `json:"appId"`
	SentByAppID      FlexString `json:"sentByAppId"`
	MessageDirection string     `json:"messageDirection"`
	Direction        string     `json:"direction"`
	ChangeFlag       string     `json:"changeFlag"`
}

// Event is the normalized record the pipeline operates on.
type Event struct {
	ThreadID         string
	MessageID        string // empty when the provider sent no usable id
	SubscriptionType string
	OccurredAtMs     int64
	AppID            string
	Direction        string
	ChangeFlag       string
}

// Normalize coerces a raw payload into an Event. Aliased fields resolve
// in a fixed priority order; missing fields coerce to empty/zero. The
// only hard requirement is a thread identity.
func Normalize(raw Raw) (Event, error) {
	threadID := strings.TrimSpace(string(raw.ObjectID))
	if threadID == "" {
		return Event{}, ErrMissingThreadID
	}

	messageID := firstNonEmpty(
		string(raw.MessageID),
		string(raw.EventID),
		string(raw.ID),
	)

	occurred := int64(raw.OccurredAt)
	if occurred == 0 {
		occurred = int64(raw.Timestamp)
	}

	return Event{
		ThreadID:         threadID,
		MessageID:        messageID,
		SubscriptionType: strings.TrimSpace(raw.SubscriptionType),
		OccurredAtMs:     occurred,
		AppID:            firstNonEmpty(string(raw.AppID), string(raw.SentByAppID)),
		Direction:        firstNonEmpty(raw.MessageDirection, raw.Direction),
		ChangeFlag:       strings.TrimSpace(raw.ChangeFlag),
	}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

// FlexString accepts a JSON string, number, or null.
type FlexString string

func (s *FlexString) UnmarshalJSON(b []byte) error {
	if len(b) == 0 || string(b) == "null" {
		*s = ""
		return nil
	}
	if b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = FlexString(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("expected string or number: %w", err)
	}
	*s = FlexString(n.String())
	return nil
}

// FlexInt64 accepts a JSON number, a numeric string, or null.
type FlexInt64 int64

func (i *FlexInt64) UnmarshalJSON(b []byte) error {
	if len(b) == 0 || string(b) == "null" {
		*i = 0
		return nil
	}
	raw := string(b)
	if b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		raw = strings.TrimSpace(v)
		if raw == "" {
			*i = 0
			return nil
		}
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fmt.Errorf("expected integer: %w", err)
	}
	*i = FlexInt64(v)
	return nil
}
