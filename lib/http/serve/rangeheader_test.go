package serve

import (
	"math"
	"net/http"
	"strconv"
	"testing"

	"github.com/mediaserve/mediaserve/fs"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mediaSize = 2836624

func TestNegotiate(t *testing.T) {
	for _, test := range []struct {
		in    string
		total int64
		want  Decision
	}{
		{"", 10, Decision{Kind: FullContent, From: 0, To: 9, Total: 10}},
		{"   ", 10, Decision{Kind: FullContent, From: 0, To: 9, Total: 10}},
		{"", 0, Decision{Kind: FullContent, From: 0, To: -1, Total: 0}},
		{"bytes=3-5", 10, Decision{Kind: PartialContent, From: 3, To: 5, Total: 10}},
		{"bytes=0-0", 10, Decision{Kind: PartialContent, From: 0, To: 0, Total: 10}},
		{"bytes=9-9", 10, Decision{Kind: PartialContent, From: 9, To: 9, Total: 10}},
		{"BYTES=1-2", 10, Decision{Kind: PartialContent, From: 1, To: 2, Total: 10}},
		{" bytes = 1 - 2 ", 10, Decision{Kind: PartialContent, From: 1, To: 2, Total: 10}},
		{"bytes=0-1", mediaSize, Decision{Kind: PartialContent, From: 0, To: 1, Total: mediaSize}},
		{"bytes=0-2836623", mediaSize, Decision{Kind: PartialContent, From: 0, To: 2836623, Total: mediaSize}},
		{"bytes=131072-2836623", mediaSize, Decision{Kind: PartialContent, From: 131072, To: 2836623, Total: mediaSize}},
		{"bytes=0-9999999", mediaSize, Decision{Kind: Unsatisfiable, From: 0, To: 9999999, Total: mediaSize}},
		// open ended ranges are bounded by the chunk size
		{"bytes=0-", mediaSize, Decision{Kind: PartialContent, From: 0, To: 1048576, Total: mediaSize}},
		{"bytes=2000000-", mediaSize, Decision{Kind: PartialContent, From: 2000000, To: 2836623, Total: mediaSize}},
		{"bytes=2836623-", mediaSize, Decision{Kind: PartialContent, From: 2836623, To: 2836623, Total: mediaSize}},
		{"bytes=2836624-", mediaSize, Decision{Kind: Unsatisfiable, From: 2836624, To: 2836623, Total: mediaSize}},
		{"bytes=0-", 0, Decision{Kind: Unsatisfiable, From: 0, To: -1, Total: 0}},
		// an end equal to the total length is let through
		{"bytes=0-10", 10, Decision{Kind: PartialContent, From: 0, To: 10, Total: 10}},
		{"bytes=0-11", 10, Decision{Kind: Unsatisfiable, From: 0, To: 11, Total: 10}},
		{"bytes=0-2836624", mediaSize, Decision{Kind: PartialContent, From: 0, To: 2836624, Total: mediaSize}},
		{"bytes=0-2836625", mediaSize, Decision{Kind: Unsatisfiable, From: 0, To: 2836625, Total: mediaSize}},
	} {
		what := test.in
		got, err := Negotiate(test.in, test.total)
		require.NoError(t, err, what)
		assert.Equal(t, test.want, got, what)
	}
}

func TestNegotiateMalformed(t *testing.T) {
	for _, test := range []string{
		"items=0-1",
		"xxxbytes=3-5",
		"bytes",
		"bytes0-1",
		"bytes=0-1=2",
		"bytes=a-1",
		"bytes=1-b",
		"bytes=-5",
		"bytes=-",
		"bytes=5-3",
		"bytes=+1-3",
		"bytes=1-+3",
		"bytes=0-1-2",
		"bytes=0-1,4-5",
		"bytes=99999999999999999999-",
	} {
		got, err := Negotiate(test, 10)
		require.Error(t, err, test)
		assert.True(t, errors.Is(err, ErrMalformedRange), test)
		assert.Equal(t, ErrMalformedRange, errors.Cause(err), test)
		assert.Equal(t, int64(10), got.Total, test)
		assert.Equal(t, Unsatisfiable, got.Kind, test)
		assert.Equal(t, int64(0), got.Length(), test)
	}
}

func TestNegotiatorChunkSize(t *testing.T) {
	n := Negotiator{ChunkSize: 100}
	got, err := n.Negotiate("bytes=10-", 1000)
	require.NoError(t, err)
	assert.Equal(t, Decision{Kind: PartialContent, From: 10, To: 110, Total: 1000}, got)

	// open windows never exceed one chunk beyond the start
	for _, start := range []int64{0, 1, 500, 899, 900, 950, 999} {
		got, err := n.Negotiate("bytes="+strconv.FormatInt(start, 10)+"-", 1000)
		require.NoError(t, err)
		assert.Equal(t, PartialContent, got.Kind)
		assert.Equal(t, minInt64(start+100, 999), got.To)
		assert.True(t, got.Length() <= 101)
	}

	// a chunk size near the int64 limit means no chunking
	for _, chunkSize := range []int64{math.MaxInt64, math.MaxInt64 - 1, int64(7 * fs.Exbi)} {
		got, err = Negotiator{ChunkSize: chunkSize}.Negotiate("bytes=5-", 100)
		require.NoError(t, err)
		assert.Equal(t, Decision{Kind: PartialContent, From: 5, To: 99, Total: 100}, got, "%d", chunkSize)

		got, err = Negotiator{ChunkSize: chunkSize}.Negotiate("bytes=100-", 100)
		require.NoError(t, err)
		assert.Equal(t, Unsatisfiable, got.Kind, "%d", chunkSize)
	}

	// zero means the default
	got, err = Negotiator{}.Negotiate("bytes=0-", 10*DefaultChunkSize)
	require.NoError(t, err)
	assert.Equal(t, int64(DefaultChunkSize), got.To)
}

func TestNegotiateIdempotent(t *testing.T) {
	first, err := Negotiate("bytes=131072-", mediaSize)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := Negotiate("bytes=131072-", mediaSize)
		require.NoError(t, err)
		assert.Equal(t, first, again)
		assert.Equal(t, first.ContentRange(), again.ContentRange())
	}
}

func TestDecision(t *testing.T) {
	for _, test := range []struct {
		d            Decision
		length       int64
		status       int
		contentRange string
		isErr        bool
		str          string
	}{
		{Decision{Kind: FullContent, From: 0, To: 9, Total: 10}, 10, http.StatusOK, "", false, "FullContent(0,9)"},
		{Decision{Kind: PartialContent, From: 0, To: 1, Total: mediaSize}, 2, http.StatusPartialContent, "bytes 0-1/2836624", false, "PartialContent(0,1)"},
		{Decision{Kind: PartialContent, From: 131072, To: 2836623, Total: mediaSize}, 2705552, http.StatusPartialContent, "bytes 131072-2836623/2836624", false, "PartialContent(131072,2836623)"},
		{Decision{Kind: Unsatisfiable, From: 0, To: 9999999, Total: mediaSize}, 0, http.StatusRequestedRangeNotSatisfiable, "bytes */2836624", true, "Unsatisfiable(0,9999999)"},
	} {
		assert.Equal(t, test.length, test.d.Length(), test.str)
		assert.Equal(t, test.status, test.d.StatusCode(), test.str)
		assert.Equal(t, test.contentRange, test.d.ContentRange(), test.str)
		assert.Equal(t, test.str, test.d.String())
		if test.isErr {
			assert.True(t, errors.Is(test.d.Err(), ErrRangeNotSatisfiable), test.str)
		} else {
			assert.NoError(t, test.d.Err(), test.str)
		}
	}
	assert.Equal(t, "Kind(7)", Kind(7).String())
}

func minInt64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
