package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/nacl/secretbox"
)

const (
	SessionCookie = "sheets_relay_session"
	StateCookie   = "sheets_relay_state"

	stateTTL = 10 * time.Minute
)

// Sessions issues and reads the signed session cookie. The cookie is an HS256 JWT with
// the profile in the clear and the token pair sealed with NaCl secretbox, so nothing is
// kept server side.
type Sessions struct {
	secret []byte
	key    [32]byte
	ttl    time.Duration
	secure bool
}

type claims struct {
	jwt.RegisteredClaims
	Name   string `json:"name,omitempty"`
	Email  string `json:"email,omitempty"`
	Tokens string `json:"tok"`
}

type tokens struct {
	AccessToken  string `json:"a"`
	RefreshToken string `json:"r,omitempty"`
}

func NewSessions(secret string, ttl time.Duration, secure bool) *Sessions {
	return &Sessions{
		secret: []byte(secret),
		key:    sha256.Sum256([]byte("sheets-relay/session/" + secret)),
		ttl:    ttl,
		secure: secure,
	}
}

// Issue sets the session cookie for the credentials.
func (s *Sessions) Issue(w http.ResponseWriter, c Credentials) error {
	token, err := s.encode(c, time.Now())
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.ttl.Seconds()),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})

	return nil
}

// Read returns the credentials in the request's session cookie, or ErrUnauthenticated
// if there is no cookie or it is invalid or expired.
func (s *Sessions) Read(r *http.Request) (*Credentials, error) {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil || cookie.Value == "" {
		return nil, ErrUnauthenticated
	}

	c, err := s.decode(cookie.Value)
	if err != nil {
		return nil, fmt.Errorf("%w (%v)", ErrUnauthenticated, err)
	}

	return c, nil
}

// Clear expires the session cookie.
func (s *Sessions) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// NewState generates an OAuth state value and stores it in a short-lived cookie.
func (s *Sessions) NewState(w http.ResponseWriter) string {
	state := uuid.NewString()

	http.SetCookie(w, &http.Cookie{
		Name:     StateCookie,
		Value:    state,
		Path:     "/auth",
		MaxAge:   int(stateTTL.Seconds()),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})

	return state
}

// CheckState verifies the callback state against the state cookie and clears the cookie.
func (s *Sessions) CheckState(w http.ResponseWriter, r *http.Request) error {
	cookie, err := r.Cookie(StateCookie)

	http.SetCookie(w, &http.Cookie{
		Name:   StateCookie,
		Value:  "",
		Path:   "/auth",
		MaxAge: -1,
	})

	if err != nil || cookie.Value == "" {
		return ErrInvalidState
	}

	state := r.URL.Query().Get("state")
	if subtle.ConstantTimeCompare([]byte(state), []byte(cookie.Value)) != 1 {
		return ErrInvalidState
	}

	return nil
}

func (s *Sessions) encode(c Credentials, now time.Time) (string, error) {
	sealed, err := s.seal(tokens{AccessToken: c.AccessToken, RefreshToken: c.RefreshToken})
	if err != nil {
		return "", err
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   c.SubjectID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
		Name:   c.DisplayName,
		Email:  c.Email,
		Tokens: sealed,
	})

	return token.SignedString(s.secret)
}

func (s *Sessions) decode(value string) (*Credentials, error) {
	cl := claims{}

	token, err := jwt.ParseWithClaims(value, &cl, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	} else if !token.Valid {
		return nil, errors.New("invalid session token")
	}

	t, err := s.unseal(cl.Tokens)
	if err != nil {
		return nil, err
	}

	return &Credentials{
		SubjectID:    cl.Subject,
		DisplayName:  cl.Name,
		Email:        cl.Email,
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
	}, nil
}

func (s *Sessions) seal(t tokens) (string, error) {
	b, err := json.Marshal(t)
	if err != nil {
		return "", err
	}

	var nonce [24]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return "", err
	}

	box := secretbox.Seal(nonce[:], b, &nonce, &s.key)

	return base64.RawURLEncoding.EncodeToString(box), nil
}

func (s *Sessions) unseal(sealed string) (*tokens, error) {
	box, err := base64.RawURLEncoding.DecodeString(sealed)
	if err != nil {
		return nil, err
	}

	if len(box) < 24+secretbox.Overhead {
		return nil, errors.New("sealed tokens too short")
	}

	var nonce [24]byte
	copy(nonce[:], box[:24])

	b, ok := secretbox.Open(nil, box[24:], &nonce, &s.key)
	if !ok {
		return nil, errors.New("unable to open sealed tokens")
	}

	var t tokens
	if err := json.Unmarshal(b, &t); err != nil {
		return nil, err
	}

	return &t, nil
}
