package accounting

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mediaserve/mediaserve/fs"
)

// timeNow is replaceable for tests
var timeNow = time.Now

var (
	// globalStats is the statistics counter for the process
	globalStats = NewStats()
)

func init() {
	// Set the function pointer up in fs
	fs.CountError = globalStats.Error
}

// GlobalStats returns the process wide stats
func GlobalStats() *StatsInfo {
	return globalStats
}

// StatsInfo accounts all streamed bodies
type StatsInfo struct {
	mu        sync.RWMutex
	bytes     int64 // body bytes written to clients
	errors    int64 // errors counted
	lastError error
	streams   int64 // streams finished
	aborted   int64 // streams the client went away from
	active    int64 // streams in progress
	heads     int64 // HEAD probes answered
	start     time.Time
}

// NewStats creates an initialised StatsInfo
func NewStats() *StatsInfo {
	return &StatsInfo{
		start: timeNow(),
	}
}

// Bytes adds n to the bytes transferred
func (s *StatsInfo) Bytes(n int64) {
	s.mu.Lock()
	s.bytes += n
	s.mu.Unlock()
}

// GetBytes returns the number of bytes transferred so far
func (s *StatsInfo) GetBytes() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bytes
}

// Error adds a single error into the stats, assigns lastError and
// returns it
func (s *StatsInfo) Error(err error) error {
	if err == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errors++
	s.lastError = err
	return err
}

// GetErrors reads the number of errors
func (s *StatsInfo) GetErrors() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.errors
}

// GetLastError returns the lastError
func (s *StatsInfo) GetLastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastError
}

// Head counts a HEAD probe
func (s *StatsInfo) Head() {
	s.mu.Lock()
	s.heads++
	s.mu.Unlock()
}

// startStream marks a stream as in progress
func (s *StatsInfo) startStream() {
	s.mu.Lock()
	s.active++
	s.mu.Unlock()
}

// doneStream marks a stream as finished
func (s *StatsInfo) doneStream(aborted bool) {
	s.mu.Lock()
	s.active--
	s.streams++
	if aborted {
		s.aborted++
	}
	s.mu.Unlock()
}

// Snapshot is a point in time copy of the stats
type Snapshot struct {
	Bytes   int64
	Errors  int64
	Streams int64
	Aborted int64
	Active  int64
	Heads   int64
	Elapsed time.Duration
}

// Snapshot returns a copy of the current stats
func (s *StatsInfo) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Bytes:   s.bytes,
		Errors:  s.errors,
		Streams: s.streams,
		Aborted: s.aborted,
		Active:  s.active,
		Heads:   s.heads,
		Elapsed: timeNow().Sub(s.start),
	}
}

// String convert the StatsInfo to a string for printing
func (s *StatsInfo) String() string {
	snap := s.Snapshot()
	speed := 0.0
	if snap.Elapsed > 0 {
		speed = float64(snap.Bytes) / snap.Elapsed.Seconds()
	}
	dtRounded := snap.Elapsed - (snap.Elapsed % (time.Second / 10))
	buf := &bytes.Buffer{}
	_, _ = fmt.Fprintf(buf, `
Transferred:   %10s (%s)
Streams:       %10d (%d aborted, %d active)
Probes:        %10d
Errors:        %10d
Elapsed time:  %10v
`,
		fs.SizeSuffix(snap.Bytes).ByteUnit(), fs.SizeSuffix(speed).ByteRateUnit(),
		snap.Streams, snap.Aborted, snap.Active,
		snap.Heads,
		snap.Errors,
		dtRounded)
	return buf.String()
}

// Log outputs the StatsInfo to the log
func (s *StatsInfo) Log(ctx context.Context) {
	fs.LogLevelPrintf(fs.GetConfig(ctx).StatsLogLevel, nil, "%v\n", s)
}

// ResetCounters sets the counters (bytes, streams, errors) back to 0
func (s *StatsInfo) ResetCounters() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bytes = 0
	s.errors = 0
	s.lastError = nil
	s.streams = 0
	s.aborted = 0
	s.heads = 0
	s.start = timeNow()
}

// StartStatsTicker logs the stats every --stats interval.
//
// It returns a function which stops the ticker.
func StartStatsTicker(ctx context.Context) func() {
	interval := fs.GetConfig(ctx).StatsInterval
	if interval <= 0 {
		return func() {}
	}
	ticker := time.NewTicker(interval)
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ticker.C:
				globalStats.Log(ctx)
			case <-done:
				ticker.Stop()
				return
			}
		}
	}()
	var once sync.Once
	return func() {
		once.Do(func() {
			close(done)
			wg.Wait()
		})
	}
}
