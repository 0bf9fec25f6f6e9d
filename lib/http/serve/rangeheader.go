package serve

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Errors returned from range negotiation
var (
	ErrMalformedRange      = errors.New("range: header invalid")
	ErrRangeNotSatisfiable = errors.New("range: not satisfiable")
)

// Kind describes how a request should be answered
type Kind int

// Kinds of Decision
const (
	FullContent Kind = iota
	PartialContent
	Unsatisfiable
)

// String turns a Kind into a string
func (k Kind) String() string {
	switch k {
	case FullContent:
		return "FullContent"
	case PartialContent:
		return "PartialContent"
	case Unsatisfiable:
		return "Unsatisfiable"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Decision is the outcome of negotiating a Range header against a
// resource of Total bytes.
//
// For FullContent and PartialContent the window is [From, To] inclusive.
type Decision struct {
	Kind  Kind
	From  int64
	To    int64
	Total int64
}

// Length returns the number of bytes the body should carry
func (d Decision) Length() int64 {
	if d.Kind == Unsatisfiable {
		return 0
	}
	return d.To - d.From + 1
}

// StatusCode returns the HTTP status for the decision
func (d Decision) StatusCode() int {
	switch d.Kind {
	case PartialContent:
		return http.StatusPartialContent
	case Unsatisfiable:
		return http.StatusRequestedRangeNotSatisfiable
	}
	return http.StatusOK
}

// ContentRange returns the value of the Content-Range header or "" if
// none should be sent.
func (d Decision) ContentRange() string {
	switch d.Kind {
	case PartialContent:
		return fmt.Sprintf("%s %d-%d/%d", BytesUnit, d.From, d.To, d.Total)
	case Unsatisfiable:
		return fmt.Sprintf("%s */%d", BytesUnit, d.Total)
	}
	return ""
}

// Err returns ErrRangeNotSatisfiable for an Unsatisfiable decision and
// nil otherwise.
func (d Decision) Err() error {
	if d.Kind == Unsatisfiable {
		return errors.Wrapf(ErrRangeNotSatisfiable, "%s of %d bytes", d.String(), d.Total)
	}
	return nil
}

// String formats the decision into human readable form
func (d Decision) String() string {
	return fmt.Sprintf("%v(%d,%d)", d.Kind, d.From, d.To)
}

// Negotiator resolves Range headers into Decisions
type Negotiator struct {
	// ChunkSize bounds ranges with an open end. <= 0 means DefaultChunkSize.
	ChunkSize int64
}

// Negotiate resolves rangeHeader against a resource of totalLength
// bytes using DefaultChunkSize.
func Negotiate(rangeHeader string, totalLength int64) (Decision, error) {
	return Negotiator{}.Negotiate(rangeHeader, totalLength)
}

// Negotiate resolves rangeHeader against a resource of totalLength
// bytes.
//
// An empty header asks for the whole resource. Otherwise the header
// must be a single "bytes=start-[end]" range, anything else returns an
// error wrapping ErrMalformedRange.
//
// On error d is Unsatisfiable so it never describes a body.
//
// Note that an end equal to totalLength is accepted even though the last
// byte is totalLength-1. Only an end beyond totalLength is Unsatisfiable.
func (n Negotiator) Negotiate(rangeHeader string, totalLength int64) (d Decision, err error) {
	d.Total = totalLength
	rangeHeader = strings.TrimSpace(rangeHeader)
	if rangeHeader == "" {
		d.Kind = FullContent
		d.To = totalLength - 1
		return d, nil
	}
	start, end, hasEnd, err := parseRange(rangeHeader)
	if err != nil {
		d.Kind = Unsatisfiable
		return d, err
	}
	d.From = start
	if hasEnd {
		d.To = end
		if d.To > totalLength {
			d.Kind = Unsatisfiable
			return d, nil
		}
	} else {
		chunkSize := n.ChunkSize
		if chunkSize <= 0 {
			chunkSize = DefaultChunkSize
		}
		// compare before adding so huge chunk sizes can't overflow
		if chunkSize > totalLength-1-start {
			d.To = totalLength - 1
		} else {
			d.To = start + chunkSize
		}
		if d.From > d.To {
			d.Kind = Unsatisfiable
			return d, nil
		}
	}
	d.Kind = PartialContent
	return d, nil
}

// parseRange parses "bytes=start-[end]"
func parseRange(s string) (start, end int64, hasEnd bool, err error) {
	parts := strings.Split(s, "=")
	if len(parts) != 2 {
		return 0, 0, false, errors.Wrapf(ErrMalformedRange, "%q: expecting unit=range", s)
	}
	if unit := strings.TrimSpace(parts[0]); !strings.EqualFold(unit, BytesUnit) {
		return 0, 0, false, errors.Wrapf(ErrMalformedRange, "%q: unknown unit %q", s, unit)
	}
	spec := parts[1]
	if strings.ContainsRune(spec, ',') {
		return 0, 0, false, errors.Wrapf(ErrMalformedRange, "%q: multiple ranges aren't supported", s)
	}
	bounds := strings.Split(spec, "-")
	if len(bounds) != 2 {
		return 0, 0, false, errors.Wrapf(ErrMalformedRange, "%q: expecting start-end", s)
	}
	startString, endString := strings.TrimSpace(bounds[0]), strings.TrimSpace(bounds[1])
	if startString == "" {
		return 0, 0, false, errors.Wrapf(ErrMalformedRange, "%q: suffix ranges aren't supported", s)
	}
	start, err = parseOffset(startString)
	if err != nil {
		return 0, 0, false, errors.Wrapf(ErrMalformedRange, "%q: bad start: %v", s, err)
	}
	if endString == "" {
		return start, 0, false, nil
	}
	end, err = parseOffset(endString)
	if err != nil {
		return 0, 0, false, errors.Wrapf(ErrMalformedRange, "%q: bad end: %v", s, err)
	}
	if start > end {
		return 0, 0, false, errors.Wrapf(ErrMalformedRange, "%q: start after end", s)
	}
	return start, end, true, nil
}

// parseOffset parses a non-negative decimal byte offset
func parseOffset(s string) (int64, error) {
	if s[0] == '+' {
		return 0, errors.Errorf("invalid offset %q", s)
	}
	i, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, err
	}
	if i < 0 {
		return 0, errors.Errorf("negative offset %d", i)
	}
	return i, nil
}
