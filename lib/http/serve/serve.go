// Package serve answers HEAD and GET requests for media objects with
// support for single byte ranges.
package serve

import (
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/mediaserve/mediaserve/fs"
	"github.com/mediaserve/mediaserve/fs/accounting"
	"github.com/pkg/errors"
)

// Media is a finite, seekable media file which can be served
type Media interface {
	// String returns a description of the Media
	String() string
	// MimeType returns the Content-Type to serve the Media with
	MimeType() string
	// Size returns the total length in bytes
	Size() int64
	// ModTime returns the modification time
	ModTime() time.Time
	// Open returns a new read handle positioned at the start
	Open() (io.ReadSeekCloser, error)
}

// Options controls how Media is served
type Options struct {
	ChunkSize fs.SizeSuffix        // window for ranges with no end
	Stats     *accounting.StatsInfo // stats to account into, nil for the global stats
}

// DefaultOpt is the default values used for Options
var DefaultOpt = Options{
	ChunkSize: DefaultChunkSize,
}

// Object serves o via HEAD or GET
func Object(w http.ResponseWriter, r *http.Request, o Media, opt Options) {
	if r.Method != http.MethodHead && r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}
	stats := opt.Stats
	if stats == nil {
		stats = accounting.GlobalStats()
	}
	size := o.Size()
	h := w.Header()

	// Show that we accept ranges
	h.Set(AcceptRangesHeader, BytesUnit)
	if mimeType := o.MimeType(); mimeType != "" {
		h.Set(ContentTypeHeader, mimeType)
	}
	if modTime := o.ModTime(); !modTime.IsZero() {
		h.Set(LastModifiedHeader, modTime.UTC().Format(http.TimeFormat))
	}

	// A HEAD probe just reports the size
	if r.Method == http.MethodHead {
		h.Set(ContentLengthHeader, strconv.FormatInt(size, 10))
		stats.Head()
		return
	}

	negotiator := Negotiator{ChunkSize: int64(opt.ChunkSize)}
	decision, err := negotiator.Negotiate(r.Header.Get(RangeHeader), size)
	if err != nil {
		fs.Debugf(o, "Get request parse range request error: %v", err)
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	if decision.Kind == Unsatisfiable {
		fs.Debugf(o, "Get request: %v", decision.Err())
		h.Set(ContentRangeHeader, decision.ContentRange())
		w.WriteHeader(decision.StatusCode())
		return
	}

	in, err := openAt(o, decision.From)
	if err != nil {
		_ = stats.Error(err)
		code := http.StatusInternalServerError
		if errors.Is(err, os.ErrNotExist) {
			code = http.StatusNotFound
		}
		fs.Errorf(o, "Get request open error: %v", err)
		http.Error(w, http.StatusText(code), code)
		return
	}

	length := decision.Length()
	h.Set(ContentLengthHeader, strconv.FormatInt(length, 10))
	if contentRange := decision.ContentRange(); contentRange != "" {
		h.Set(ContentRangeHeader, contentRange)
	}
	w.WriteHeader(decision.StatusCode())

	acc := accounting.NewAccountStats(r.Context(), stats, w, o.String())
	n, err := Stream(in, length, acc)
	acc.Done(err == nil && n < length, err)
	if err != nil {
		fs.Errorf(o, "Didn't finish writing GET request (wrote %d/%d bytes): %v", n, length, err)
		return
	}
}

// openAt opens o and seeks to offset, closing the handle on error
func openAt(o Media, offset int64) (io.ReadSeekCloser, error) {
	in, err := o.Open()
	if err != nil {
		return nil, err
	}
	if offset > 0 {
		_, err = in.Seek(offset, io.SeekStart)
		if err != nil {
			_ = in.Close()
			return nil, errors.Wrap(err, "seek")
		}
	}
	return in, nil
}
