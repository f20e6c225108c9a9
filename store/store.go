// Package store wraps the Google Drive calls used to copy, upload and share
// spreadsheet files.
//
// A Client is created per request from the caller's token source; there is no shared
// Drive client.
package store

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/sheets-relay/sheets-relay/remote"
)

const (
	SpreadsheetMimeType = "application/vnd.google-apps.spreadsheet"
	DefaultName         = "Untitled Spreadsheet"
	DefaultDocsURL      = "https://docs.google.com"

	fileFields = "id, name, webViewLink, webContentLink"
)

// File describes a file in the remote store. IsPublic is only set by a successful
// SetPublicPermission in the upload flow, or by GetFile finding an 'anyone' permission.
type File struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ViewLink    string `json:"webViewLink"`
	ContentLink string `json:"webContentLink,omitempty"`
	IsPublic    bool   `json:"isPublic"`
	PublicLink  string `json:"publicUrl,omitempty"`
}

type Permission struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Role string `json:"role"`
}

type Client struct {
	drive   *drive.Service
	public  *http.Client
	docsURL string
}

type settings struct {
	endpoint   string
	docsURL    string
	httpClient *http.Client
}

type Option func(*settings)

// WithEndpoint overrides the Drive API base URL.
func WithEndpoint(url string) Option {
	return func(s *settings) {
		s.endpoint = url
	}
}

// WithDocsURL overrides the base URL used for public links and reachability checks.
func WithDocsURL(url string) Option {
	return func(s *settings) {
		s.docsURL = strings.TrimSuffix(url, "/")
	}
}

// WithHTTPClient sets the unauthenticated client used for reachability checks.
func WithHTTPClient(c *http.Client) Option {
	return func(s *settings) {
		s.httpClient = c
	}
}

// New returns a Drive client authorised by the token source.
func New(ctx context.Context, ts oauth2.TokenSource, opts ...Option) (*Client, error) {
	s := settings{
		docsURL:    DefaultDocsURL,
		httpClient: &http.Client{},
	}

	for _, opt := range opts {
		opt(&s)
	}

	options := []option.ClientOption{option.WithTokenSource(ts)}
	if s.endpoint != "" {
		options = append(options, option.WithEndpoint(s.endpoint))
	}

	service, err := drive.NewService(ctx, options...)
	if err != nil {
		return nil, fmt.Errorf("unable to create Drive client (%w)", err)
	}

	// ... never follow redirects: Google redirects public and private files alike
	public := *s.httpClient
	public.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}

	return &Client{
		drive:   service,
		public:  &public,
		docsURL: s.docsURL,
	}, nil
}

// PublicURL returns the edit URL shared with 'anyone with the link'.
func (c *Client) PublicURL(fileID string) string {
	return fmt.Sprintf("%s/spreadsheets/d/%s/edit", c.docsURL, fileID)
}

// Duplicate copies a file. The copy is named newName if given, otherwise 'Copy of '
// followed by the source file name.
func (c *Client) Duplicate(ctx context.Context, sourceID, newName string) (*File, error) {
	name := strings.TrimSpace(newName)
	if name == "" {
		name = "Copy of " + c.sourceName(ctx, sourceID)
	}

	f, err := c.drive.Files.Copy(sourceID, &drive.File{Name: name}).
		Fields(fileFields).
		SupportsAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return nil, remote.Wrap("drive", "files.copy", err)
	}

	slog.Info("copied file", "source", sourceID, "id", f.Id, "name", f.Name)

	return describe(f), nil
}

// sourceName is best effort and falls back to DefaultName.
func (c *Client) sourceName(ctx context.Context, fileID string) string {
	f, err := c.drive.Files.Get(fileID).Fields("name").SupportsAllDrives(true).Context(ctx).Do()
	if err != nil {
		slog.Warn("unable to retrieve source file name", "file", fileID, "error", remote.MessageOf(remote.Wrap("drive", "files.get", err)))
		return DefaultName
	}

	if strings.TrimSpace(f.Name) == "" {
		return DefaultName
	}

	return f.Name
}

// Create stores the content as a new file, converting it to a native spreadsheet in
// the same call.
func (c *Client) Create(ctx context.Context, content io.Reader, mimeType, name string) (*File, error) {
	metadata := drive.File{
		Name:     name,
		MimeType: SpreadsheetMimeType,
	}

	start := time.Now()
	f, err := c.drive.Files.Create(&metadata).
		Media(content, googleapi.ContentType(mimeType)).
		Fields(fileFields).
		SupportsAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return nil, remote.Wrap("drive", "files.create", err)
	}

	slog.Info("created file", "id", f.Id, "name", f.Name, "source-type", mimeType, "duration", time.Since(start))

	return describe(f), nil
}

// SetPublicPermission grants 'anyone with the link' write access without making the
// file discoverable.
func (c *Client) SetPublicPermission(ctx context.Context, fileID string) (*Permission, error) {
	c.logPermissions(ctx, fileID)

	permission := drive.Permission{
		Type:               "anyone",
		Role:               "writer",
		AllowFileDiscovery: false,
		ForceSendFields:    []string{"AllowFileDiscovery"},
	}

	p, err := c.drive.Permissions.Create(fileID, &permission).
		Fields("id, type, role").
		SupportsAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return nil, remote.Wrap("drive", "permissions.create", err)
	}

	slog.Info("set public permission", "file", fileID, "permission", p.Id, "role", p.Role)

	return &Permission{
		ID:   p.Id,
		Type: p.Type,
		Role: p.Role,
	}, nil
}

// logPermissions is a diagnostic pre-check only.
func (c *Client) logPermissions(ctx context.Context, fileID string) {
	list, err := c.listPermissions(ctx, fileID)
	if err != nil {
		slog.Warn("permission pre-check failed", "file", fileID, "error", remote.MessageOf(err))
		return
	}

	for _, p := range list {
		slog.Debug("existing permission", "file", fileID, "id", p.Id, "type", p.Type, "role", p.Role)
	}
}

func (c *Client) listPermissions(ctx context.Context, fileID string) ([]*drive.Permission, error) {
	list, err := c.drive.Permissions.List(fileID).
		Fields("permissions(id, type, role)").
		SupportsAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return nil, remote.Wrap("drive", "permissions.list", err)
	}

	return list.Permissions, nil
}

// VerifyPublicReachability fetches the public edit URL without credentials. Any status
// below 400 counts as reachable, redirects included; a transport failure is false.
func (c *Client) VerifyPublicReachability(ctx context.Context, fileID string) bool {
	url := c.PublicURL(fileID)

	rq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		slog.Warn("reachability check failed", "file", fileID, "error", err)
		return false
	}

	response, err := c.public.Do(rq)
	if err != nil {
		slog.Warn("reachability check failed", "file", fileID, "error", err)
		return false
	}

	defer response.Body.Close()
	io.Copy(io.Discard, io.LimitReader(response.Body, 64*1024))

	reachable := response.StatusCode < 400

	slog.Info("reachability check", "file", fileID, "status", response.StatusCode, "reachable", reachable)

	return reachable
}

// GetFile returns the file metadata. IsPublic reflects an existing 'anyone' permission;
// if the permissions cannot be listed it is false.
func (c *Client) GetFile(ctx context.Context, fileID string) (*File, error) {
	f, err := c.drive.Files.Get(fileID).Fields(fileFields).SupportsAllDrives(true).Context(ctx).Do()
	if err != nil {
		return nil, remote.Wrap("drive", "files.get", err)
	}

	file := describe(f)

	if list, err := c.listPermissions(ctx, fileID); err != nil {
		slog.Debug("unable to list permissions", "file", fileID, "error", remote.MessageOf(err))
	} else {
		for _, p := range list {
			if p.Type == "anyone" {
				file.IsPublic = true
				file.PublicLink = c.PublicURL(fileID)
				break
			}
		}
	}

	return file, nil
}

func describe(f *drive.File) *File {
	return &File{
		ID:          f.Id,
		Name:        f.Name,
		ViewLink:    f.WebViewLink,
		ContentLink: f.WebContentLink,
	}
}
