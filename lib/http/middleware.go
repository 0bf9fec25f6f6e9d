package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/mediaserve/mediaserve/fs"
)

// RequestIDHeader carries the request id in requests and responses
const RequestIDHeader = "X-Request-Id"

// maxRequestIDLength limits the length of request ids passed in by clients
const maxRequestIDLength = 64

// MiddlewareRequestLogger instantiates middleware which gives every
// request an id and logs it at INFO level when it finishes
func MiddlewareRequestLogger() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(RequestIDHeader)
			if id == "" || len(id) > maxRequestIDLength {
				id = uuid.New().String()
			}
			w.Header().Set(RequestIDHeader, id)
			r = r.WithContext(context.WithValue(r.Context(), ctxKeyRequestID, id))

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				status := ww.Status()
				if status == 0 {
					status = http.StatusOK
				}
				fs.Infof(r.URL.Path, "%s %s %q %d %d bytes in %v%v%v%v",
					r.RemoteAddr, r.Method, r.Header.Get("Range"), status, ww.BytesWritten(), time.Since(start),
					fs.LogValueHide("request_id", id),
					fs.LogValueHide("status", status),
					fs.LogValueHide("bytes", ww.BytesWritten()),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}

// MiddlewareServerHeader instantiates middleware that sets the Server
// header unless it is empty
func MiddlewareServerHeader(server string) Middleware {
	return func(next http.Handler) http.Handler {
		if server == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Server", server)
			next.ServeHTTP(w, r)
		})
	}
}

var onlyOnceWarningAllowOrigin sync.Once

// MiddlewareCORS instantiates middleware that handles basic CORS protections
func MiddlewareCORS(allowOrigin string) Middleware {
	onlyOnceWarningAllowOrigin.Do(func() {
		if allowOrigin == "*" {
			fs.Logf(nil, "Warning: Allow origin set to *. This can cause serious security problems.")
		}
	})

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// skip cors for unix sockets
			if IsUnixSocket(r) {
				next.ServeHTTP(w, r)
				return
			}

			if allowOrigin != "" {
				w.Header().Add("Access-Control-Allow-Origin", allowOrigin)
				w.Header().Add("Access-Control-Allow-Headers", "Range, Content-Type")
				w.Header().Add("Access-Control-Allow-Methods", "GET, HEAD, OPTIONS")
				w.Header().Add("Access-Control-Expose-Headers", "Accept-Ranges, Content-Range, Content-Length")
			}

			next.ServeHTTP(w, r)
		})
	}
}

// MiddlewareStripPrefix instantiates middleware that removes the BaseURL from the path
func MiddlewareStripPrefix(prefix string) Middleware {
	return func(next http.Handler) http.Handler {
		stripPrefixHandler := http.StripPrefix(prefix, next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Allow OPTIONS on the root only
			if r.URL.Path == "/" && r.Method == "OPTIONS" {
				next.ServeHTTP(w, r)
				return
			}
			stripPrefixHandler.ServeHTTP(w, r)
		})
	}
}
