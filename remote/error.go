// Package remote defines the error returned when a call to Google Drive, Google Sheets
// or the workflow callback fails.
package remote

import (
	"errors"
	"fmt"
	"strings"

	"google.golang.org/api/googleapi"
)

// Error wraps a failed remote call. Service is "drive", "sheets", "oauth" or "workflow"
// and Op names the call e.g. "files.create".
type Error struct {
	Service string
	Op      string
	Status  int
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Service, e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Message returns the provider's own error message where one is available.
func (e *Error) Message() string {
	var gerr *googleapi.Error
	if errors.As(e.Err, &gerr) {
		if msg := strings.TrimSpace(gerr.Message); msg != "" {
			return msg
		}
	}

	if e.Err != nil {
		return e.Err.Error()
	}

	return e.Error()
}

// Wrap returns nil for a nil error, otherwise a *Error with the HTTP status code
// of a googleapi.Error if the cause is one.
func Wrap(service, op string, err error) error {
	if err == nil {
		return nil
	}

	e := &Error{
		Service: service,
		Op:      op,
		Err:     err,
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		e.Status = gerr.Code
	}

	return e
}

// MessageOf returns the provider message for a *Error anywhere in the chain, falling
// back to the error text.
func MessageOf(err error) string {
	var rerr *Error
	if errors.As(err, &rerr) {
		return rerr.Message()
	}

	if err != nil {
		return err.Error()
	}

	return ""
}
