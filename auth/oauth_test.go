package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	"google.golang.org/api/option"

	"github.com/sheets-relay/sheets-relay/config"
	"github.com/sheets-relay/sheets-relay/remote"
)

func fakeGoogle(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()

	mux.HandleFunc("POST /token", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil || r.Form.Get("code") != "good-code" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "ya29.access-token",
			"refresh_token": "1//refresh-token",
			"token_type":    "Bearer",
			"expires_in":    3599,
		})
	})

	mux.HandleFunc("GET /oauth2/v2/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer ya29.access-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":    "104958204958",
			"name":  "Ada Lovelace",
			"email": "ada@example.com",
		})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return srv
}

func newTestProvider(t *testing.T, srv *httptest.Server) *Provider {
	t.Helper()

	p, err := NewProvider(config.Google{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		CallbackURL:  "http://localhost:3000/auth/google/callback",
	}, option.WithEndpoint(srv.URL+"/"))
	require.NoError(t, err)

	return p.WithEndpoint(oauth2.Endpoint{
		AuthURL:   srv.URL + "/auth",
		TokenURL:  srv.URL + "/token",
		AuthStyle: oauth2.AuthStyleInParams,
	})
}

func TestAuthCodeURL(t *testing.T) {
	p, err := NewProvider(config.Google{ClientID: "client-id", ClientSecret: "secret", CallbackURL: "http://localhost/cb"})
	require.NoError(t, err)

	u, err := url.Parse(p.AuthCodeURL("state-token"))
	require.NoError(t, err)

	q := u.Query()
	assert.Equal(t, "accounts.google.com", u.Host)
	assert.Equal(t, "state-token", q.Get("state"))
	assert.Equal(t, "offline", q.Get("access_type"))
	assert.Equal(t, "http://localhost/cb", q.Get("redirect_uri"))
	assert.Contains(t, q.Get("scope"), "https://www.googleapis.com/auth/drive")
	assert.Contains(t, q.Get("scope"), "https://www.googleapis.com/auth/spreadsheets")
}

func TestExchange(t *testing.T) {
	p := newTestProvider(t, fakeGoogle(t))

	c, err := p.Exchange(context.Background(), "good-code")
	require.NoError(t, err)

	assert.Equal(t, ada, *c)
}

func TestExchangeWithInvalidCode(t *testing.T) {
	p := newTestProvider(t, fakeGoogle(t))

	_, err := p.Exchange(context.Background(), "bad-code")

	var rerr *remote.Error
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, "oauth", rerr.Service)
}

func TestCredentials(t *testing.T) {
	assert.NoError(t, ada.Validate())
	assert.ErrorIs(t, Credentials{SubjectID: "x"}.Validate(), ErrTokenMissing)

	token, err := ada.TokenSource().Token()
	require.NoError(t, err)
	assert.Equal(t, ada.AccessToken, token.AccessToken)

	assert.Equal(t, "ada@example.com", ada.Identity())
	assert.Equal(t, "Ada Lovelace", Credentials{DisplayName: "Ada Lovelace"}.Identity())
}

func TestServiceTokenSourceWithoutCredentials(t *testing.T) {
	_, err := ServiceTokenSource(context.Background(), "")
	assert.Error(t, err)
}
