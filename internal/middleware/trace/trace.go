// Package trace tags each request with an ID, logs its start and end, and
// reports its outcome to an observer.
package trace

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	applog "expenseadvisor/internal/log"
)

// HeaderRequestID is read from trusted callers and echoed on every response.
const HeaderRequestID = "X-Request-ID"

const maxRequestIDLen = 64

type requestIDKey struct{}

// ObserveFunc receives the outcome of every traced request.
type ObserveFunc func(r *http.Request, status int, elapsed time.Duration)

// Middleware handles request tracing and logging
type Middleware struct {
	clientIP func(*http.Request) string
	observe  ObserveFunc
	// AcceptIncoming reuses a well-formed X-Request-ID sent by the caller.
	AcceptIncoming bool
}

// NewMiddleware creates a trace middleware. Both functions may be nil.
func NewMiddleware(clientIP func(*http.Request) string, observe ObserveFunc) *Middleware {
	return &Middleware{clientIP: clientIP, observe: observe}
}

func (m *Middleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		id := ""
		if m.AcceptIncoming {
			id = cleanRequestID(r.Header.Get(HeaderRequestID))
		}
		if id == "" {
			id = NewRequestID()
		}
		w.Header().Set(HeaderRequestID, id)

		ctx := context.WithValue(r.Context(), requestIDKey{}, id)
		logger := applog.FromContext(ctx).With(applog.FieldRequestID, id)
		ctx = applog.NewContext(ctx, logger)
		r = r.WithContext(ctx)

		ip := ""
		if m.clientIP != nil {
			ip = m.clientIP(r)
		}
		sl := applog.NewStructuredLogger(logger)
		sl.LogHTTPStart(ctx, r, ip)

		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		elapsed := time.Since(start)
		sl.LogHTTPEnd(ctx, r, sw.status, elapsed.Milliseconds(), ip)
		if m.observe != nil {
			m.observe(r, sw.status, elapsed)
		}
	})
}

// statusWriter remembers the first status code written.
type statusWriter struct {
	http.ResponseWriter
	status  int
	written bool
}

func (w *statusWriter) WriteHeader(code int) {
	if !w.written {
		w.status = code
		w.written = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	w.written = true
	return w.ResponseWriter.Write(b)
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// NewRequestID returns "req_" followed by a random UUID without dashes.
func NewRequestID() string {
	return "req_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// cleanRequestID keeps ids made of letters, digits, '-' and '_' up to
// maxRequestIDLen; anything else yields "".
func cleanRequestID(id string) string {
	if id == "" || len(id) > maxRequestIDLen {
		return ""
	}
	for _, c := range id {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
		default:
			return ""
		}
	}
	return id
}

// RequestID returns the ID assigned to the request carried by ctx.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
