package httpd

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

var (
	errNoForwarder      = errors.New("workflow forwarder not configured")
	errNoServiceAccount = errors.New("service account not configured")
)

// webhookSheet reads a range with the service account token. The shared token is checked
// before anything else and an unset token rejects every request.
func (s *Server) webhookSheet(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	if !s.validWebhookToken(query.Get("webhookToken")) {
		slog.Warn("invalid webhook token", "request", requestIDOf(r), "remote", r.RemoteAddr)
		s.writeJSON(w, envelop{"error": "Invalid webhook token"}, http.StatusUnauthorized, nil)
		return
	}

	id := strings.TrimSpace(query.Get("spreadsheetId"))
	if id == "" {
		s.writeJSON(w, envelop{"error": "Missing required parameter: spreadsheetId"}, http.StatusBadRequest, nil)
		return
	}

	if s.service == nil {
		s.errorResponse(w, r, "Failed to read spreadsheet data", errNoServiceAccount)
		return
	}

	ctx := context.WithoutCancel(r.Context())
	area := rangeOf(r)

	reader, err := s.readers(ctx, s.service)
	if err != nil {
		s.errorResponse(w, r, "Failed to read spreadsheet data", err)
		return
	}

	rows, err := reader.ReadRange(ctx, id, area)
	if err != nil {
		s.errorResponse(w, r, "Failed to read spreadsheet data", err)
		return
	}

	s.writeJSON(w, records(id, area, rows), http.StatusOK, nil)
}

func (s *Server) validWebhookToken(token string) bool {
	expected := s.config.Webhook.Token
	if expected == "" || token == "" {
		return false
	}

	return subtle.ConstantTimeCompare([]byte(token), []byte(expected)) == 1
}

// webhookReceived logs the callback payload and acknowledges it.
func (s *Server) webhookReceived(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err != nil {
		s.errorResponse(w, r, "Invalid request", invalid("Request body too large"))
		return
	}

	var payload any
	if err := json.Unmarshal(body, &payload); err == nil {
		slog.Info("webhook received", "request", requestIDOf(r), "payload", payload)
	} else {
		slog.Info("webhook received", "request", requestIDOf(r), "body", string(body))
	}

	s.writeJSON(w, envelop{"message": "Webhook received"}, http.StatusOK, nil)
}
