// Package requestctx carries per-request values through the API's
// context chain: the correlation ID echoed in the X-Request-ID header
// and the arrival time that request latency is measured from.
package requestctx

import (
	"context"
	"time"
)

type key int

const (
	idKey key = iota
	arrivalKey
)

// WithRequestID attaches the request's correlation ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, idKey, id)
}

// RequestID returns the correlation ID, or "" when none was attached.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(idKey).(string)
	return id
}

// WithArrival records when the request entered the middleware chain.
func WithArrival(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, arrivalKey, t)
}

// Arrival returns the recorded arrival time, or the zero time when none
// was attached.
func Arrival(ctx context.Context) time.Time {
	t, _ := ctx.Value(arrivalKey).(time.Time)
	return t
}
