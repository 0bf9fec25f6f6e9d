package accounting

import (
	"context"
	"sync"

	"github.com/mediaserve/mediaserve/fs"
	"golang.org/x/time/rate"
)

// TokenBucket holds the global token bucket limiter
var TokenBucket tokenBucket

type tokenBucket struct {
	mu     sync.RWMutex // protects the token bucket variables
	bucket *rate.Limiter
	limit  fs.SizeSuffix
}

// make a new empty token bucket with the bandwidth given
func newTokenBucket(bandwidth, burst fs.SizeSuffix) *rate.Limiter {
	newTokenBucket := rate.NewLimiter(rate.Limit(bandwidth), int(burst))
	// empty the bucket
	newTokenBucket.AllowN(timeNow(), int(burst))
	return newTokenBucket
}

// StartTokenBucket starts the token bucket if necessary
func (tb *tokenBucket) StartTokenBucket(ctx context.Context) {
	ci := fs.GetConfig(ctx)
	if ci.BwLimit > 0 {
		tb.SetBwLimit(ci.BwLimit, ci.BwLimitBurst)
	}
}

// SetBwLimit sets the current bandwidth limit.  A bandwidth <= 0
// removes the limit.
func (tb *tokenBucket) SetBwLimit(bandwidth, burst fs.SizeSuffix) {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	if bandwidth > 0 {
		if burst <= 0 {
			burst = bandwidth
		}
		tb.bucket = newTokenBucket(bandwidth, burst)
		tb.limit = bandwidth
		fs.Logf(nil, "Bandwidth limit set to %s", bandwidth.ByteRateUnit())
	} else {
		tb.bucket = nil
		tb.limit = -1
		fs.Logf(nil, "Bandwidth limit reset to unlimited")
	}
}

// BwLimit returns the current bandwidth limit or -1 for unlimited
func (tb *tokenBucket) BwLimit() fs.SizeSuffix {
	tb.mu.RLock()
	defer tb.mu.RUnlock()
	if tb.bucket == nil {
		return -1
	}
	return tb.limit
}

// LimitBandwidth sleeps for the correct amount of time for the passage
// of n bytes according to the current bandwidth limit.
//
// It returns early with an error if ctx is cancelled while waiting.
func (tb *tokenBucket) LimitBandwidth(ctx context.Context, n int) error {
	tb.mu.RLock()
	bucket := tb.bucket
	tb.mu.RUnlock()
	if bucket == nil {
		return nil
	}
	// WaitN can't take more than the burst size in one go
	for n > 0 {
		chunk := n
		if burst := bucket.Burst(); chunk > burst {
			chunk = burst
		}
		if err := bucket.WaitN(ctx, chunk); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return err
		}
		n -= chunk
	}
	return nil
}
