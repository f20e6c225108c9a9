package httpd

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/sheets-relay/sheets-relay/auth"
	"github.com/sheets-relay/sheets-relay/remote"
)

// ValidationError is a client error reported as 400 with its message.
type ValidationError struct {
	Message string
}

func (e ValidationError) Error() string {
	return e.Message
}

func invalid(format string, args ...any) error {
	return ValidationError{
		Message: fmt.Sprintf(format, args...),
	}
}

// errorResponse maps err to a status and a {message, error} body. The message is used
// for remote and internal errors only: authentication and validation errors carry their
// own message.
func (s *Server) errorResponse(w http.ResponseWriter, r *http.Request, message string, err error) {
	var verr ValidationError
	var rerr *remote.Error

	switch {
	case errors.Is(err, auth.ErrTokenMissing):
		s.writeJSON(w, envelop{"message": "No access token available, please sign in again"}, http.StatusUnauthorized, nil)

	case errors.Is(err, auth.ErrUnauthenticated):
		s.writeJSON(w, envelop{"message": "Not authenticated"}, http.StatusUnauthorized, nil)

	case errors.As(err, &verr):
		s.writeJSON(w, envelop{"message": verr.Message}, http.StatusBadRequest, nil)

	case errors.As(err, &rerr):
		slog.Error(message, "request", requestIDOf(r), "service", rerr.Service, "op", rerr.Op, "status", rerr.Status, "error", rerr.Err)
		s.writeJSON(w, envelop{"message": message, "error": rerr.Message()}, http.StatusInternalServerError, nil)

	default:
		slog.Error(message, "request", requestIDOf(r), "error", err)
		s.writeJSON(w, envelop{"message": message, "error": err.Error()}, http.StatusInternalServerError, nil)
	}
}
