package accounting

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/mediaserve/mediaserve/fs"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountWrite(t *testing.T) {
	stats := NewStats()
	var out bytes.Buffer
	acc := NewAccountStats(context.Background(), stats, &out, "video")
	assert.Equal(t, int64(1), stats.Snapshot().Active)

	n, err := acc.Write([]byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	n, err = acc.Write([]byte(" world"))
	require.NoError(t, err)
	assert.Equal(t, 6, n)

	assert.Equal(t, "hello world", out.String())
	assert.Equal(t, int64(11), acc.BytesWritten())
	assert.Equal(t, int64(11), stats.GetBytes())

	acc.Done(false, nil)
	acc.Done(true, errors.New("ignored"))
	snap := stats.Snapshot()
	assert.Equal(t, int64(0), snap.Active)
	assert.Equal(t, int64(1), snap.Streams)
	assert.Equal(t, int64(0), snap.Aborted)
	assert.Equal(t, int64(0), snap.Errors)
}

type failWriter struct {
	n   int
	err error
}

func (w *failWriter) Write(p []byte) (int, error) {
	if len(p) > w.n {
		return w.n, w.err
	}
	w.n -= len(p)
	return len(p), nil
}

func TestAccountWriteError(t *testing.T) {
	stats := NewStats()
	acc := NewAccountStats(context.Background(), stats, &failWriter{n: 3, err: io.ErrClosedPipe}, "audio")
	n, err := acc.Write([]byte("hello"))
	assert.Equal(t, io.ErrClosedPipe, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, int64(3), acc.BytesWritten())

	acc.Done(true, nil)
	snap := stats.Snapshot()
	assert.Equal(t, int64(1), snap.Streams)
	assert.Equal(t, int64(1), snap.Aborted)
	assert.Equal(t, int64(0), snap.Errors)

	acc = NewAccountStats(context.Background(), stats, io.Discard, "audio")
	potato := errors.New("potato")
	acc.Done(false, potato)
	assert.Equal(t, int64(1), stats.GetErrors())
	assert.Equal(t, potato, stats.GetLastError())
}

func TestStatsString(t *testing.T) {
	stats := NewStats()
	stats.Bytes(2 * int64(fs.Mebi))
	stats.Head()
	_ = stats.Error(errors.New("potato"))
	assert.Nil(t, stats.Error(nil))
	out := stats.String()
	assert.Regexp(t, `Transferred:\s+2 MiB`, out)
	assert.Regexp(t, `Probes:\s+1\n`, out)
	assert.Regexp(t, `Errors:\s+1\n`, out)

	stats.ResetCounters()
	snap := stats.Snapshot()
	assert.Equal(t, int64(0), snap.Bytes)
	assert.Equal(t, int64(0), snap.Errors)
	assert.Equal(t, int64(0), snap.Heads)
}

func TestCollector(t *testing.T) {
	stats := NewStats()
	stats.Bytes(1234)
	stats.Head()
	stats.Head()
	acc := NewAccountStats(context.Background(), stats, io.Discard, "video")
	defer acc.Done(false, nil)

	c := NewCollectorStats(stats)
	assert.Equal(t, 6, testutil.CollectAndCount(c))

	expected := `
# HELP mediaserve_bytes_transferred_total Total body bytes written to clients
# TYPE mediaserve_bytes_transferred_total counter
mediaserve_bytes_transferred_total 1234
# HELP mediaserve_probes_total Total number of HEAD probes answered
# TYPE mediaserve_probes_total counter
mediaserve_probes_total 2
# HELP mediaserve_streams_active Number of response bodies currently streaming
# TYPE mediaserve_streams_active gauge
mediaserve_streams_active 1
`
	require.NoError(t, testutil.CollectAndCompare(c, strings.NewReader(expected),
		"mediaserve_bytes_transferred_total", "mediaserve_probes_total", "mediaserve_streams_active"))
}

func TestCountError(t *testing.T) {
	before := GlobalStats().GetErrors()
	err := errors.New("render failed")
	assert.Equal(t, err, fs.CountError(err))
	assert.Equal(t, before+1, GlobalStats().GetErrors())
	assert.Equal(t, err, GlobalStats().GetLastError())
}
