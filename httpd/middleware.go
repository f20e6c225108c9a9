package httpd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/sheets-relay/sheets-relay/auth"
)

type contextKey string

const requestIDKey contextKey = "request-id"

// statusRecorder captures the response status for logging and metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	if r.status == 0 {
		r.status = status
	}

	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}

	return r.ResponseWriter.Write(b)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func (r *statusRecorder) code() int {
	if r.status == 0 {
		return http.StatusOK
	}

	return r.status
}

func (s *Server) recoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				w.Header().Set("Connection", "close")
				s.errorResponse(w, r, "Internal server error", fmt.Errorf("%v", err))
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// requestID tags the request with the incoming X-Request-Id if it is a UUID, or a new
// one otherwise, and echoes it in the response.
func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(r.Header.Get("X-Request-Id"))
		if err != nil {
			id = uuid.New()
		}

		w.Header().Set("X-Request-Id", id.String())

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id.String())))
	})
}

func requestIDOf(r *http.Request) string {
	if id, ok := r.Context().Value(requestIDKey).(string); ok {
		return id
	}

	return ""
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w}

		next.ServeHTTP(recorder, r)

		slog.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", recorder.code(),
			"duration", time.Since(start),
			"request", requestIDOf(r))
	})
}

// instrument must be the innermost middleware: the route pattern is only set on the
// request once the mux has matched it.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w}

		next.ServeHTTP(recorder, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}

		status := strconv.Itoa(recorder.code())

		s.metrics.requests.WithLabelValues(route, status).Inc()
		s.metrics.duration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// authenticated recovers the session credentials and rejects the request with 401 if
// there is no valid session or it carries no access token.
func (s *Server) authenticated(h func(http.ResponseWriter, *http.Request, auth.Credentials)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		credentials, err := s.sessions.Read(r)
		if err != nil {
			slog.Debug("rejected request", "path", r.URL.Path, "error", err)
			s.errorResponse(w, r, "Not authenticated", err)
			return
		}

		if err := credentials.Validate(); err != nil {
			s.errorResponse(w, r, "Not authenticated", err)
			return
		}

		h(w, r, *credentials)
	}
}
