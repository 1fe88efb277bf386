package covers

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/time/rate"
)

// Limiter is a token bucket shared by every cover lookup in the process.
type Limiter struct {
	limiter *rate.Limiter
	name    string
}

// NewLimiter allows tokens calls per period, refilled evenly, with a burst of
// tokens.
func NewLimiter(name string, tokens int, period time.Duration) *Limiter {
	if tokens < 1 {
		tokens = 1
	}
	if period <= 0 {
		period = time.Second
	}
	return &Limiter{
		limiter: rate.NewLimiter(rate.Every(period/time.Duration(tokens)), tokens),
		name:    name,
	}
}

// Wait blocks until a token is available or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	if err := l.limiter.Wait(ctx); err != nil {
		return errors.Wrapf(err, "rate limit wait for %s", l.name)
	}
	return nil
}

func (l *Limiter) Name() string {
	return l.name
}
