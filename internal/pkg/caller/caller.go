// Package caller carries the authenticated principal through a request context.
package caller

import "context"

type contextKey struct{}

// Anonymous is reported when no principal was attached, e.g. with auth disabled
// or from batch jobs.
const Anonymous = "anonymous"

func WithCaller(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, contextKey{}, username)
}

func FromContext(ctx context.Context) string {
	if v, ok := ctx.Value(contextKey{}).(string); ok && v != "" {
		return v
	}
	return Anonymous
}
