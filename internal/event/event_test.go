package event

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_ResolvesAliases(t *testing.T) {
	raw := Raw{
		ObjectID:         "T1",
		EventID:          "ev-9",
		Timestamp:        1700000000000,
		SentByAppID:      "app-7",
		Direction:        "INCOMING",
		SubscriptionType: "conversation.newMessage",
		ChangeFlag:       "NEW_MESSAGE",
	}

	ev, err := Normalize(raw)
	require.NoError(t, err)

	assert.Equal(t, "T1", ev.ThreadID)
	assert.Equal(t, "ev-9", ev.MessageID)
	assert.Equal(t, int64(1700000000000), ev.OccurredAtMs)
	assert.Equal(t, "app-7", ev.AppID)
	assert.Equal(t, "INCOMING", ev.Direction)
	assert.Equal(t, "NEW_MESSAGE", ev.ChangeFlag)
}

func TestNormalize_MessageIDPriority(t *testing.T) {
	raw := Raw{
		ObjectID:  "T1",
		ID:        "generic-id",
		EventID:   "event-id",
		MessageID: "message-id",
	}

	ev, err := Normalize(raw)
	require.NoError(t, err)
	assert.Equal(t, "message-id", ev.MessageID)
}

func TestNormalize_OccurredAtWinsOverTimestamp(t *testing.T) {
	raw := Raw{
		ObjectID:   "T1",
		OccurredAt: 2000,
		Timestamp:  1000,
	}

	ev, err := Normalize(raw)
	require.NoError(t, err)
	assert.Equal(t, int64(2000), ev.OccurredAtMs)
}

func TestNormalize_MissingThreadID(t *testing.T) {
	_, err := Normalize(Raw{MessageID: "m1"})
	assert.ErrorIs(t, err, ErrMissingThreadID)

	_, err = Normalize(Raw{ObjectID: "   "})
	assert.ErrorIs(t, err, ErrMissingThreadID)
}

func TestRaw_UnmarshalCoercesNumbersAndStrings(t *testing.T) {
	payload := `{
		"objectId": 123456,
		"messageId": 789,
		"occurredAt": "1700000000000",
		"appId": 42,
		"messageDirection": "INCOMING"
	}`

	var raw Raw
	require.NoError(t, json.Unmarshal([]byte(payload), &raw))

	assert.Equal(t, FlexString("123456"), raw.ObjectID)
	assert.Equal(t, FlexString("789"), raw.MessageID)
	assert.Equal(t, FlexInt64(1700000000000), raw.OccurredAt)
	assert.Equal(t, FlexString("42"), raw.AppID)
}

func TestRaw_UnmarshalNullsAndMissing(t *testing.T) {
	var raw Raw
	require.NoError(t, json.Unmarshal([]byte(`{"objectId":null,"occurredAt":null}`), &raw))

	assert.Equal(t, FlexString(""), raw.ObjectID)
	assert.Equal(t, FlexInt64(0), raw.OccurredAt)
}
