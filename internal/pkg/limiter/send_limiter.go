/*
Package limiter provides the local flood guard for outbound chat messages.

It utilizes the Token Bucket algorithm (rate.Limiter) to cap how fast the chat form
can push messages onto the socket. Messages over the limit are dropped, never queued.
*/
package limiter

import (
	"time"

	"golang.org/x/time/rate"
)

// SendLimiter decides whether an outbound chat message may be sent now.
type SendLimiter struct {
	// limiter is the underlying token bucket.
	limiter *rate.Limiter
}

// NewSendLimiter creates a SendLimiter allowing perSecond messages with the given burst.
// A non-positive perSecond disables limiting.
func NewSendLimiter(perSecond float64, burst int) *SendLimiter {
	limit := rate.Limit(perSecond)
	if perSecond <= 0 {
		limit = rate.Inf
	}

	if burst < 1 {
		burst = 1
	}

	return &SendLimiter{
		limiter: rate.NewLimiter(limit, burst),
	}
}

// Allow reports whether a message may be sent at time now and consumes a token if so.
func (l *SendLimiter) Allow(now time.Time) bool {
	if l == nil {
		return true
	}
	return l.limiter.AllowN(now, 1)
}

// Unlimited reports whether the limiter lets everything through.
func (l *SendLimiter) Unlimited() bool {
	return l == nil || l.limiter.Limit() == rate.Inf
}
