// Package auth produces and carries the per-user Google credentials.
//
// A user signs in through the Google consent screen, the authorization code is
// exchanged for a token pair and a profile, and the result is sealed into a signed
// session cookie. Handlers recover the Credentials from the cookie and pass them
// explicitly to the store, sheet and upload packages.
package auth

import (
	"errors"
	"strings"

	"golang.org/x/oauth2"
)

var (
	ErrUnauthenticated = errors.New("not authenticated")
	ErrTokenMissing    = errors.New("no access token available")
	ErrInvalidState    = errors.New("invalid OAuth state")
)

// Credentials is the identity and token pair for one signed-in user.
type Credentials struct {
	SubjectID    string
	DisplayName  string
	Email        string
	AccessToken  string
	RefreshToken string
}

// User is the public part of Credentials, as returned by /auth/check.
type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email,omitempty"`
}

// Validate returns ErrTokenMissing if the session carries no access token.
func (c Credentials) Validate() error {
	if strings.TrimSpace(c.AccessToken) == "" {
		return ErrTokenMissing
	}

	return nil
}

// TokenSource returns a static token source for the access token. Tokens are not
// refreshed: an expired token surfaces as a remote error and the user signs in again.
func (c Credentials) TokenSource() oauth2.TokenSource {
	return oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken:  c.AccessToken,
		RefreshToken: c.RefreshToken,
		TokenType:    "Bearer",
	})
}

func (c Credentials) User() User {
	return User{
		ID:          c.SubjectID,
		DisplayName: c.DisplayName,
		Email:       c.Email,
	}
}

// Identity is the uploader identity forwarded to the workflow callback.
func (c Credentials) Identity() string {
	if c.Email != "" {
		return c.Email
	}

	return c.DisplayName
}
