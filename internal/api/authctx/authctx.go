// Package authctx carries the authenticated operator subject on the
// request context so admin actions can attribute who triggered them.
package authctx

import "context"

type subjectKey struct{}

func WithSubject(ctx context.Context, subject string) context.Context {
	return context.WithValue(ctx, subjectKey{}, subject)
}

// Subject returns the authenticated subject, or "" when the request was
// not authenticated (dev bypass).
func Subject(ctx context.Context) string {
	v, _ := ctx.Value(subjectKey{}).(string)
	return v
}
