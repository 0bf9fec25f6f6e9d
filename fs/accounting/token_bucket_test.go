package accounting

import (
	"context"
	"testing"
	"time"

	"github.com/mediaserve/mediaserve/fs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenBucketUnlimited(t *testing.T) {
	var tb tokenBucket
	assert.Equal(t, fs.SizeSuffix(-1), tb.BwLimit())
	require.NoError(t, tb.LimitBandwidth(context.Background(), 1<<30))
}

func TestTokenBucketSetBwLimit(t *testing.T) {
	var tb tokenBucket
	tb.SetBwLimit(fs.SizeSuffix(fs.Mebi), fs.SizeSuffix(64*fs.Kibi))
	assert.Equal(t, fs.SizeSuffix(fs.Mebi), tb.BwLimit())
	assert.Equal(t, 64*1024, tb.bucket.Burst())

	// burst defaults to the bandwidth
	tb.SetBwLimit(fs.SizeSuffix(512*fs.Kibi), 0)
	assert.Equal(t, 512*1024, tb.bucket.Burst())

	tb.SetBwLimit(-1, 0)
	assert.Equal(t, fs.SizeSuffix(-1), tb.BwLimit())
	assert.Nil(t, tb.bucket)
}

func TestTokenBucketLimits(t *testing.T) {
	var tb tokenBucket
	// 1 MiB/s with a 4 KiB bucket, so 40 KiB takes about 40ms
	tb.SetBwLimit(fs.SizeSuffix(fs.Mebi), fs.SizeSuffix(4*fs.Kibi))
	start := time.Now()
	require.NoError(t, tb.LimitBandwidth(context.Background(), 40*1024))
	assert.True(t, time.Since(start) >= 30*time.Millisecond, "didn't wait for the limiter")
}

func TestTokenBucketCancel(t *testing.T) {
	var tb tokenBucket
	tb.SetBwLimit(fs.SizeSuffix(fs.Kibi), fs.SizeSuffix(fs.Kibi))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := tb.LimitBandwidth(ctx, 4096)
	assert.Equal(t, context.Canceled, err)
}

func TestStartTokenBucket(t *testing.T) {
	ctx, ci := fs.AddConfig(context.Background())
	ci.BwLimit = fs.SizeSuffix(2 * fs.Mebi)
	ci.BwLimitBurst = fs.SizeSuffix(fs.Mebi)
	var tb tokenBucket
	tb.StartTokenBucket(ctx)
	assert.Equal(t, fs.SizeSuffix(2*fs.Mebi), tb.BwLimit())
	assert.Equal(t, 1024*1024, tb.bucket.Burst())
}
