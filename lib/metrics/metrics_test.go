package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/mediaserve/mediaserve/fs/accounting"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddleware(t *testing.T) {
	m := NewMetrics("mediaserve")
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/{name}", func(w http.ResponseWriter, r *http.Request) {
		if chi.URLParam(r, "name") == "missing" {
			http.Error(w, "Not Found", http.StatusNotFound)
			return
		}
		_, _ = io.WriteString(w, "hello")
	})

	for _, path := range []string{"/video", "/audio", "/missing", "/a/b"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest("GET", path, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Requests.WithLabelValues("/{name}", "GET", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues("/{name}", "GET", "404")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues("unmatched", "GET", "404")))
	assert.Equal(t, 3, testutil.CollectAndCount(m.Requests))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.Nil(t, m.Collectors())
	m.Observe("/video", "GET", 200, time.Second)
}

func TestHandler(t *testing.T) {
	stats := accounting.NewStats()
	stats.Bytes(2836624)
	m := NewMetrics("mediaserve")
	m.Observe("/video", "HEAD", 200, time.Millisecond)
	reg := NewRegistry(stats, m.Collectors()...)

	w := httptest.NewRecorder()
	Handler(reg).ServeHTTP(w, httptest.NewRequest("GET", Path, nil))
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "mediaserve_bytes_transferred_total 2.836624e+06")
	assert.Contains(t, body, `mediaserve_http_requests_total{code="200",method="HEAD",route="/video"} 1`)
	assert.Contains(t, body, "go_goroutines")
}
