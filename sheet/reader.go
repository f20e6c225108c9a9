// Package sheet reads spreadsheet values and converts them to header-keyed records.
package sheet

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/oauth2"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/sheets-relay/sheets-relay/remote"
)

const DefaultRange = "Sheet1"

type Reader struct {
	google *sheets.Service
}

// New returns a Sheets client authorised by the token source. Options are passed to
// the Google API client and are used to override the endpoint in tests.
func New(ctx context.Context, ts oauth2.TokenSource, opts ...option.ClientOption) (*Reader, error) {
	options := append([]option.ClientOption{option.WithTokenSource(ts)}, opts...)

	google, err := sheets.NewService(ctx, options...)
	if err != nil {
		return nil, fmt.Errorf("unable to create new Sheets client (%w)", err)
	}

	return &Reader{
		google: google,
	}, nil
}

// ReadRange returns the values in the range, defaulting to the whole of 'Sheet1'. A
// sheet without data returns an empty slice.
func (r *Reader) ReadRange(ctx context.Context, spreadsheetID, area string) ([][]any, error) {
	if strings.TrimSpace(area) == "" {
		area = DefaultRange
	}

	response, err := r.google.Spreadsheets.Values.Get(spreadsheetID, area).Context(ctx).Do()
	if err != nil {
		return nil, remote.Wrap("sheets", "values.get", err)
	}

	if len(response.Values) == 0 {
		return [][]any{}, nil
	}

	return response.Values, nil
}
