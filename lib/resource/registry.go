package resource

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/mediaserve/mediaserve/fs"
	"github.com/pkg/errors"
	cache "github.com/patrickmn/go-cache"
)

// ErrNotFound is returned by Lookup for unknown routes and missing files
var ErrNotFound = errors.New("media not found")

// IsNotFound returns true if err means the route or its file doesn't exist
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// Options for the Registry
type Options struct {
	StatCacheTTL time.Duration // how long to remember size and modtime, 0 for off
}

// DefaultOpt is the default values for Options
var DefaultOpt = Options{
	StatCacheTTL: 0,
}

// entry is a registered route
type entry struct {
	path     string
	mimeType string
}

// stat is the part of a Resource kept in the stat cache
type stat struct {
	size    int64
	modTime time.Time
}

// Registry holds the routes being served
//
// It is safe to call Lookup concurrently with itself and Register.
type Registry struct {
	opt     Options
	mu      sync.RWMutex
	entries map[string]entry
	stats   *cache.Cache // nil if not caching
}

// NewRegistry makes an empty Registry
func NewRegistry(opt Options) *Registry {
	r := &Registry{
		opt:     opt,
		entries: make(map[string]entry),
	}
	if opt.StatCacheTTL > 0 {
		r.stats = cache.New(opt.StatCacheTTL, 2*opt.StatCacheTTL)
	}
	return r
}

// Register serves the file at path under name.
//
// If mimeType is empty it is detected from the contents of the file,
// then from its extension.
//
// The name becomes a router path segment so it may not contain path
// or query separators or chi pattern characters.
func (r *Registry) Register(name, path, mimeType string) error {
	if name == "" || strings.ContainsAny(name, "/?#{}*") {
		return errors.Errorf("invalid media name %q", name)
	}
	fi, err := os.Stat(path)
	if err != nil {
		return errors.Wrapf(err, "media %q", name)
	}
	if fi.IsDir() {
		return errors.Errorf("media %q: %q is a directory", name, path)
	}
	if mimeType == "" {
		mimeType = DetectMimeType(path)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, found := r.entries[name]; found {
		return errors.Errorf("media %q registered twice", name)
	}
	r.entries[name] = entry{path: path, mimeType: mimeType}
	fs.Debugf(name, "Serving %q as %q", path, mimeType)
	return nil
}

// Lookup returns the current state of the file for the route name
func (r *Registry) Lookup(name string) (*Resource, error) {
	r.mu.RLock()
	e, found := r.entries[name]
	r.mu.RUnlock()
	if !found {
		return nil, errors.Wrapf(ErrNotFound, "no route %q", name)
	}
	st, err := r.stat(name, e.path)
	if err != nil {
		return nil, err
	}
	return &Resource{
		name:     name,
		path:     e.path,
		mimeType: e.mimeType,
		size:     st.size,
		modTime:  st.modTime,
	}, nil
}

// stat reads the size and modtime of path, using the cache if enabled
func (r *Registry) stat(name, path string) (st stat, err error) {
	if r.stats != nil {
		if x, found := r.stats.Get(name); found {
			return x.(stat), nil
		}
	}
	fi, err := os.Stat(path)
	if os.IsNotExist(err) {
		return st, errors.Wrapf(ErrNotFound, "%s: %q", name, path)
	} else if err != nil {
		return st, errors.Wrapf(err, "stat %s", name)
	}
	if fi.IsDir() {
		return st, errors.Errorf("%s: %q is a directory", name, path)
	}
	st = stat{size: fi.Size(), modTime: fi.ModTime()}
	if r.stats != nil {
		r.stats.Set(name, st, cache.DefaultExpiration)
	}
	return st, nil
}

// Names returns the registered route names in sorted order
func (r *Registry) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	r.mu.RUnlock()
	sort.Strings(names)
	return names
}

// DetectMimeType sniffs the content of the file at path, falling back
// to its extension
func DetectMimeType(path string) string {
	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		fs.Debugf(path, "Failed to detect mime type: %v", err)
	} else if !mtype.Is("application/octet-stream") {
		return mtype.String()
	}
	return fs.MimeTypeFromName(filepath.Base(path))
}
