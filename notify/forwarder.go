// Package notify forwards spreadsheet notifications to a workflow callback URL.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"reflect"
	"strings"
	"time"

	"github.com/sheets-relay/sheets-relay/remote"
)

const Source = "sheets-relay"

// ErrNoCallback is returned when the callback URL is blank.
var ErrNoCallback = fmt.Errorf("workflow callback URL not configured")

type Forwarder struct {
	client *http.Client
	now    func() time.Time
}

// NewForwarder returns a Forwarder using the supplied HTTP client, or http.DefaultClient
// if client is nil.
func NewForwarder(client *http.Client) *Forwarder {
	if client == nil {
		client = http.DefaultClient
	}

	return &Forwarder{
		client: client,
		now:    time.Now,
	}
}

// Forward sends a single GET to the callback URL with the spreadsheet id, a UTC timestamp,
// the source tag and every non-nil metadata entry as query parameters. The response body
// is returned decoded if it is JSON and as a string otherwise.
func (f *Forwarder) Forward(ctx context.Context, identifier, callbackURL string, metadata map[string]any) (any, error) {
	callbackURL = strings.TrimSpace(callbackURL)
	if callbackURL == "" {
		return nil, ErrNoCallback
	}

	target, err := Target(callbackURL, identifier, f.now(), metadata)
	if err != nil {
		return nil, err
	}

	rq, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, remote.Wrap("workflow", "forward", err)
	}

	slog.Debug("forwarding notification", "spreadsheet", identifier, "url", callbackURL)

	response, err := f.client.Do(rq)
	if err != nil {
		return nil, remote.Wrap("workflow", "forward", err)
	}

	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, remote.Wrap("workflow", "forward", err)
	}

	if response.StatusCode < 200 || response.StatusCode > 299 {
		return nil, &remote.Error{
			Service: "workflow",
			Op:      "forward",
			Status:  response.StatusCode,
			Err:     fmt.Errorf("%v %s", response.Status, strings.TrimSpace(string(body))),
		}
	}

	slog.Info("notification forwarded", "spreadsheet", identifier, "status", response.StatusCode)

	return decode(body), nil
}

// Target returns the callback URL with the notification query parameters merged into its
// query string.
func Target(callbackURL, identifier string, timestamp time.Time, metadata map[string]any) (string, error) {
	u, err := url.Parse(callbackURL)
	if err != nil {
		return "", fmt.Errorf("invalid callback URL (%w)", err)
	} else if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("invalid callback URL %q", callbackURL)
	}

	query := u.Query()
	query.Set("spreadsheetId", identifier)
	query.Set("timestamp", timestamp.UTC().Format(time.RFC3339))
	query.Set("source", Source)

	for k, v := range metadata {
		if s, ok := stringify(v); ok {
			query.Set(k, s)
		}
	}

	// a fragment is never sent to the server so it is dropped rather than left ahead of the query
	u.RawQuery = query.Encode()
	u.ForceQuery = false
	u.Fragment = ""
	u.RawFragment = ""

	return u.String(), nil
}

func stringify(v any) (string, bool) {
	if v == nil {
		return "", false
	}

	rv := reflect.ValueOf(v)

	switch rv.Kind() {
	case reflect.Map, reflect.Slice:
		if rv.IsNil() {
			return "", false
		}

		if bytes, err := json.Marshal(v); err == nil {
			return string(bytes), true
		}

	case reflect.Array, reflect.Struct:
		if bytes, err := json.Marshal(v); err == nil {
			return string(bytes), true
		}

	case reflect.Pointer:
		if rv.IsNil() {
			return "", false
		}

		return stringify(rv.Elem().Interface())
	}

	return fmt.Sprintf("%v", v), true
}

func decode(body []byte) any {
	var v any
	if err := json.Unmarshal(body, &v); err == nil {
		return v
	}

	return string(body)
}
