// Package upload implements the create, publicize and forward flow for an uploaded
// spreadsheet.
package upload

import (
	"context"
	"io"
	"log/slog"

	"github.com/dustin/go-humanize"
	"golang.org/x/oauth2"

	"github.com/sheets-relay/sheets-relay/notify"
	"github.com/sheets-relay/sheets-relay/remote"
	"github.com/sheets-relay/sheets-relay/store"
)

type Store interface {
	Create(ctx context.Context, content io.Reader, mimeType, name string) (*store.File, error)
	SetPublicPermission(ctx context.Context, fileID string) (*store.Permission, error)
	VerifyPublicReachability(ctx context.Context, fileID string) bool
	PublicURL(fileID string) string
}

type Forwarder interface {
	Forward(ctx context.Context, identifier, callbackURL string, metadata map[string]any) (any, error)
}

// Principal is the identity an upload is performed for: a signed-in user's credentials
// or the service account.
type Principal interface {
	TokenSource() oauth2.TokenSource
	Identity() string
}

type Flow struct {
	Stores      func(ctx context.Context, ts oauth2.TokenSource) (Store, error)
	Forwarder   Forwarder
	CallbackURL string
	Metrics     *Metrics
}

type Request struct {
	Content        io.Reader
	Size           int64
	MimeType       string
	Name           string
	SourceFilename string
	MakePublic     bool
}

type Result struct {
	File            *store.File
	PermissionError string
	Forwarding      Forwarding
}

type Forwarding struct {
	Success  bool   `json:"success"`
	Response any    `json:"response,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Run creates the spreadsheet, optionally makes it public and forwards a notification
// to the workflow callback. Only a failure to create the file is returned as an error:
// permission and forwarding failures are recorded in the result. Nothing is rolled back.
func (f *Flow) Run(ctx context.Context, principal Principal, rq Request) (*Result, error) {
	remoteStore, err := f.Stores(ctx, principal.TokenSource())
	if err != nil {
		f.Metrics.count(StageCreate, OutcomeFailed)
		return nil, err
	}

	slog.Info("uploading spreadsheet",
		"name", rq.Name,
		"source", rq.SourceFilename,
		"type", rq.MimeType,
		"size", humanize.Bytes(uint64(max(rq.Size, 0))),
		"user", principal.Identity())

	file, err := remoteStore.Create(ctx, rq.Content, rq.MimeType, rq.Name)
	if err != nil {
		f.Metrics.count(StageCreate, OutcomeFailed)
		slog.Warn("upload failed", "name", rq.Name, "error", remote.MessageOf(err))
		return nil, err
	}

	f.Metrics.count(StageCreate, OutcomeOK)

	result := Result{
		File: file,
	}

	if rq.MakePublic {
		f.publicize(ctx, remoteStore, &result)
	} else {
		f.Metrics.count(StagePublicize, OutcomeSkipped)
	}

	result.Forwarding = f.forward(ctx, remoteStore, principal, rq, file)

	return &result, nil
}

func (f *Flow) publicize(ctx context.Context, remoteStore Store, result *Result) {
	file := result.File

	if _, err := remoteStore.SetPublicPermission(ctx, file.ID); err != nil {
		f.Metrics.count(StagePublicize, OutcomeFailed)
		slog.Warn("unable to make spreadsheet public", "file", file.ID, "error", remote.MessageOf(err))

		file.IsPublic = false
		result.PermissionError = remote.MessageOf(err)
		return
	}

	f.Metrics.count(StagePublicize, OutcomeOK)

	file.IsPublic = true
	file.PublicLink = remoteStore.PublicURL(file.ID)

	if remoteStore.VerifyPublicReachability(ctx, file.ID) {
		f.Metrics.count(StageVerify, OutcomeOK)
	} else {
		f.Metrics.count(StageVerify, OutcomeFailed)
		slog.Warn("public link not reachable", "file", file.ID, "url", file.PublicLink)
	}
}

// The publicUrl metadata is always the sharing URL of the file, public or not. File.PublicLink
// is only set once the permission has been granted.
func (f *Flow) forward(ctx context.Context, remoteStore Store, principal Principal, rq Request, file *store.File) Forwarding {
	if f.CallbackURL == "" || f.Forwarder == nil {
		f.Metrics.count(StageForward, OutcomeSkipped)
		return Forwarding{
			Success: false,
			Error:   notify.ErrNoCallback.Error(),
		}
	}

	metadata := map[string]any{
		"fileName":         file.Name,
		"webViewLink":      file.ViewLink,
		"publicUrl":        remoteStore.PublicURL(file.ID),
		"uploadedBy":       principal.Identity(),
		"originalFileName": rq.SourceFilename,
		"isPublic":         file.IsPublic,
	}

	response, err := f.Forwarder.Forward(ctx, file.ID, f.CallbackURL, metadata)
	if err != nil {
		f.Metrics.count(StageForward, OutcomeFailed)
		slog.Warn("workflow notification failed", "file", file.ID, "error", remote.MessageOf(err))

		return Forwarding{
			Success: false,
			Error:   remote.MessageOf(err),
		}
	}

	f.Metrics.count(StageForward, OutcomeOK)

	return Forwarding{
		Success:  true,
		Response: response,
	}
}

var _ Forwarder = (*notify.Forwarder)(nil)
var _ Store = (*store.Client)(nil)
