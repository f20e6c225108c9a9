package httpd

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

const maxJSONBody = 1 << 20

type envelop map[string]any

func (*Server) writeJSON(w http.ResponseWriter, data envelop, status int, headers http.Header) {
	jsonBytes, err := json.MarshalIndent(data, "", "\t")
	if err != nil {
		slog.Error("unable to encode response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	for k, v := range headers {
		w.Header()[k] = v
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(jsonBytes)
}

// readJSON decodes the request body into dst. An empty body decodes as an empty object
// so that missing fields are reported as such.
func (*Server) readJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)

	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		var maxBytesError *http.MaxBytesError
		if errors.As(err, &maxBytesError) {
			return invalid("Request body too large")
		}

		return invalid("Invalid request body")
	}

	return nil
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
