package auth

import (
	"context"
	"fmt"
	"os"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	goauth "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/sheets-relay/sheets-relay/config"
	"github.com/sheets-relay/sheets-relay/remote"
)

// Scopes requested on the consent screen: profile, email, Drive write and Sheets
// read/write.
var Scopes = []string{
	"openid",
	goauth.UserinfoProfileScope,
	goauth.UserinfoEmailScope,
	drive.DriveScope,
	sheets.SpreadsheetsScope,
}

// Provider wraps the Google OAuth2 client configuration.
type Provider struct {
	config  *oauth2.Config
	options []option.ClientOption
}

// NewProvider builds the OAuth2 configuration either from a downloaded client
// credentials JSON file or from the client ID/secret.
func NewProvider(cfg config.Google, opts ...option.ClientOption) (*Provider, error) {
	var conf *oauth2.Config

	if strings.TrimSpace(cfg.Credentials) != "" {
		b, err := os.ReadFile(cfg.Credentials)
		if err != nil {
			return nil, err
		}

		if conf, err = google.ConfigFromJSON(b, Scopes...); err != nil {
			return nil, err
		}
	} else {
		conf = &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     google.Endpoint,
			Scopes:       Scopes,
		}
	}

	if cfg.CallbackURL != "" {
		conf.RedirectURL = cfg.CallbackURL
	}

	return &Provider{
		config:  conf,
		options: opts,
	}, nil
}

// WithEndpoint overrides the OAuth2 token endpoint. Used by tests.
func (p *Provider) WithEndpoint(endpoint oauth2.Endpoint) *Provider {
	p.config.Endpoint = endpoint
	return p
}

// AuthCodeURL returns the consent redirect URL. Offline access and a forced consent
// prompt make Google return a refresh token.
func (p *Provider) AuthCodeURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// Exchange trades an authorization code for a token pair and fetches the user profile.
func (p *Provider) Exchange(ctx context.Context, code string) (*Credentials, error) {
	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, remote.Wrap("oauth", "token", err)
	}

	opts := append([]option.ClientOption{option.WithTokenSource(oauth2.StaticTokenSource(token))}, p.options...)
	svc, err := goauth.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create userinfo client (%w)", err)
	}

	info, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return nil, remote.Wrap("oauth", "userinfo.get", err)
	}

	return &Credentials{
		SubjectID:    info.Id,
		DisplayName:  info.Name,
		Email:        info.Email,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
	}, nil
}
