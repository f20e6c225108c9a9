package auth

import (
	"context"
	"fmt"
	"os"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// ServiceTokenSource returns a reusable token source for the service account in the
// credentials file at path. Tokens are obtained with the JWT bearer client-credential
// exchange and cached until they expire.
func ServiceTokenSource(ctx context.Context, path string, scopes ...string) (oauth2.TokenSource, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("service account credentials not configured")
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	credentials, err := google.CredentialsFromJSON(ctx, b, scopes...)
	if err != nil {
		return nil, fmt.Errorf("invalid service account credentials (%w)", err)
	}

	return oauth2.ReuseTokenSource(nil, credentials.TokenSource), nil
}
