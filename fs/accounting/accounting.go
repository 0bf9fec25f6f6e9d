// Package accounting providers an accounting and limiting writer
package accounting

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/mediaserve/mediaserve/fs"
)

// Account limits and accounts for one response body
//
// It wraps the sink a stream writes into so every chunk is counted in
// the stats and passes through the bandwidth limiter.
type Account struct {
	ctx   context.Context
	stats *StatsInfo
	out   io.Writer
	name  string
	start time.Time

	mu    sync.Mutex // protects the below
	bytes int64
	done  bool
}

// NewAccount makes an Account writing into out which is accounted in
// the global stats under name.
func NewAccount(ctx context.Context, out io.Writer, name string) *Account {
	return NewAccountStats(ctx, globalStats, out, name)
}

// NewAccountStats is like NewAccount but accounts into stats
func NewAccountStats(ctx context.Context, stats *StatsInfo, out io.Writer, name string) *Account {
	acc := &Account{
		ctx:   ctx,
		stats: stats,
		out:   out,
		name:  name,
		start: timeNow(),
	}
	stats.startStream()
	return acc
}

// Write bytes to the underlying writer, waiting for the bandwidth
// limiter first.
func (acc *Account) Write(p []byte) (n int, err error) {
	err = TokenBucket.LimitBandwidth(acc.ctx, len(p))
	if err != nil {
		return 0, err
	}
	n, err = acc.out.Write(p)
	acc.mu.Lock()
	acc.bytes += int64(n)
	acc.mu.Unlock()
	acc.stats.Bytes(int64(n))
	return n, err
}

// BytesWritten returns the number of bytes written so far
func (acc *Account) BytesWritten() int64 {
	acc.mu.Lock()
	defer acc.mu.Unlock()
	return acc.bytes
}

// Done marks the stream as finished.  aborted should be set if the
// client went away and err if the stream failed.
//
// It is safe to call Done more than once, only the first call counts.
func (acc *Account) Done(aborted bool, err error) {
	acc.mu.Lock()
	if acc.done {
		acc.mu.Unlock()
		return
	}
	acc.done = true
	n := acc.bytes
	acc.mu.Unlock()

	acc.stats.doneStream(aborted)
	if err != nil {
		acc.stats.Error(err)
	}
	dt := timeNow().Sub(acc.start)
	speed := 0.0
	if dt > 0 {
		speed = float64(n) / dt.Seconds()
	}
	switch {
	case err != nil:
		fs.Debugf(acc.name, "Stream failed after %s: %v", fs.SizeSuffix(n).ByteUnit(), err)
	case aborted:
		fs.Debugf(acc.name, "Stream aborted by client after %s", fs.SizeSuffix(n).ByteUnit())
	default:
		fs.Debugf(acc.name, "Stream finished: %s in %v (%s)", fs.SizeSuffix(n).ByteUnit(), dt, fs.SizeSuffix(speed).ByteRateUnit())
	}
}
