// Package resource maps route names to media files on disk
package resource

import (
	"io"
	"os"
	"time"

	"github.com/mediaserve/mediaserve/lib/http/serve"
	"github.com/pkg/errors"
)

// Check the interfaces are satisfied
var _ serve.Media = (*Resource)(nil)

// Resource is a snapshot of one media file taken by Registry.Lookup
type Resource struct {
	name     string
	path     string
	mimeType string
	size     int64
	modTime  time.Time
}

// String returns the route name
func (r *Resource) String() string {
	if r == nil {
		return "<nil>"
	}
	return r.name
}

// Name returns the route name
func (r *Resource) Name() string {
	return r.name
}

// Path returns the path of the file on disk
func (r *Resource) Path() string {
	return r.path
}

// MimeType returns the Content-Type the file is served with
func (r *Resource) MimeType() string {
	return r.mimeType
}

// Size returns the length of the file in bytes
func (r *Resource) Size() int64 {
	return r.size
}

// ModTime returns the modification time of the file
func (r *Resource) ModTime() time.Time {
	return r.modTime
}

// Open returns a new read handle on the file. The caller owns it and
// must close it.
func (r *Resource) Open() (io.ReadSeekCloser, error) {
	f, err := os.Open(r.path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", r.name)
	}
	return f, nil
}
