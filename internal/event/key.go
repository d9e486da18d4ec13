package event

import "strconv"

// dedupeBucketMs is the fallback-key time bucket. Ten seconds absorbs
// clock and delivery jitter between duplicate deliveries of the same
// logical event while still separating genuinely distinct events on the
// same thread.
const dedupeBucketMs = 10_000

// DedupeKey derives the stable identity used to detect redelivery.
//
// When the provider assigned a message id, that id alone identifies the
// logical event (strong key). Without one, the key falls back to the
// thread id, a 10-second bucket of the event timestamp, and the change
// flag. Redeliveries of one logical event always land on the same key;
// distinct events on the same thread more than a bucket apart do not.
func DedupeKey(e Event) string {
	if e.MessageID != "" {
		return "msg:" + e.MessageID
	}

	chg := e.ChangeFlag
	if chg == "" {
		chg = "-"
	}
	bucket := e.OccurredAtMs / dedupeBucketMs

	return "t:" + e.ThreadID + "|b10:" + strconv.FormatInt(bucket, 10) + "|chg:" + chg
}
