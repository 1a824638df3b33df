package core

import "context"

// Context keys for pipeline options
type contextKey string

const quietKey contextKey = "quiet"

// WithQuiet suppresses headers and progress lines for callers that own the output,
// such as the HTTP and MCP servers.
func WithQuiet(ctx context.Context) context.Context {
	return context.WithValue(ctx, quietKey, true)
}

// isQuiet returns whether headers should be suppressed from context
func isQuiet(ctx context.Context) bool {
	val := ctx.Value(quietKey)
	if val == nil {
		return false // default: show headers
	}
	quiet, ok := val.(bool)
	return ok && quiet
}
