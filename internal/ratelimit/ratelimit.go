// Package ratelimit enforces a sliding-window quota per (scope, identity)
// pair, e.g. ("chat", "203.0.113.9"). The window slides continuously: a
// request counts against the quota until a full window has elapsed since it
// arrived.
package ratelimit

import (
	"context"
	"time"
)

const (
	// DefaultWindow and DefaultLimit match the product quota: 10 requests
	// per 60 seconds per caller.
	DefaultWindow = 60 * time.Second
	DefaultLimit  = 10
)

// Decision is the outcome of a quota check. Remaining is reported to the
// caller on rejection so it can back off; no retry-after is computed.
type Decision struct {
	Allowed   bool
	Remaining int
}

type Limiter interface {
	Allow(ctx context.Context, scope, identity string) (Decision, error)
}

func Key(scope, identity string) string {
	return "ratelimit:" + scope + ":" + identity
}
