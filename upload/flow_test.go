package upload

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/sheets-relay/sheets-relay/remote"
	"github.com/sheets-relay/sheets-relay/store"
)

type principal struct {
	identity string
}

func (p principal) TokenSource() oauth2.TokenSource {
	return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "ya29.test"})
}

func (p principal) Identity() string {
	return p.identity
}

type fakeStore struct {
	createErr     error
	permissionErr error
	reachable     bool

	calls   []string
	content string
}

func (s *fakeStore) Create(ctx context.Context, content io.Reader, mimeType, name string) (*store.File, error) {
	s.calls = append(s.calls, "create")

	if s.createErr != nil {
		return nil, s.createErr
	}

	b, _ := io.ReadAll(content)
	s.content = string(b)

	return &store.File{
		ID:       "1NeW",
		Name:     name,
		ViewLink: "https://docs.google.com/spreadsheets/d/1NeW/edit?usp=drivesdk",
	}, nil
}

func (s *fakeStore) SetPublicPermission(ctx context.Context, fileID string) (*store.Permission, error) {
	s.calls = append(s.calls, "permission")

	if s.permissionErr != nil {
		return nil, s.permissionErr
	}

	return &store.Permission{ID: "anyoneWithLink", Type: "anyone", Role: "writer"}, nil
}

func (s *fakeStore) VerifyPublicReachability(ctx context.Context, fileID string) bool {
	s.calls = append(s.calls, "verify")

	return s.reachable
}

func (s *fakeStore) PublicURL(fileID string) string {
	return "https://docs.google.com/spreadsheets/d/" + fileID + "/edit"
}

type fakeForwarder struct {
	err      error
	calls    int
	id       string
	url      string
	metadata map[string]any
}

func (f *fakeForwarder) Forward(ctx context.Context, identifier, callbackURL string, metadata map[string]any) (any, error) {
	f.calls++
	f.id = identifier
	f.url = callbackURL
	f.metadata = metadata

	if f.err != nil {
		return nil, f.err
	}

	return map[string]any{"ok": true}, nil
}

func newTestFlow(t *testing.T, s *fakeStore, f *fakeForwarder) (*Flow, *Metrics) {
	t.Helper()

	metrics, err := NewMetrics(prometheus.NewRegistry())
	require.NoError(t, err)

	flow := Flow{
		Stores: func(ctx context.Context, ts oauth2.TokenSource) (Store, error) {
			return s, nil
		},
		Forwarder:   f,
		CallbackURL: "https://n8n.example.com/webhook/abc",
		Metrics:     metrics,
	}

	return &flow, metrics
}

func request(public bool) Request {
	return Request{
		Content:        strings.NewReader("Name,Qty\nApples,3\n"),
		Size:           18,
		MimeType:       "text/csv",
		Name:           "Q1 Budget",
		SourceFilename: "q1-budget.csv",
		MakePublic:     public,
	}
}

func TestRunCreatedPublicForwarded(t *testing.T) {
	s := &fakeStore{reachable: true}
	f := &fakeForwarder{}
	flow, metrics := newTestFlow(t, s, f)

	result, err := flow.Run(context.Background(), principal{"ada@example.com"}, request(true))
	require.NoError(t, err)

	assert.Equal(t, []string{"create", "permission", "verify"}, s.calls)
	assert.Equal(t, "Name,Qty\nApples,3\n", s.content)

	assert.True(t, result.File.IsPublic)
	assert.Equal(t, "https://docs.google.com/spreadsheets/d/1NeW/edit", result.File.PublicLink)
	assert.Empty(t, result.PermissionError)
	assert.Equal(t, Forwarding{Success: true, Response: map[string]any{"ok": true}}, result.Forwarding)

	assert.Equal(t, 1, f.calls)
	assert.Equal(t, "1NeW", f.id)
	assert.Equal(t, "https://n8n.example.com/webhook/abc", f.url)
	assert.Equal(t, map[string]any{
		"fileName":         "Q1 Budget",
		"webViewLink":      "https://docs.google.com/spreadsheets/d/1NeW/edit?usp=drivesdk",
		"publicUrl":        "https://docs.google.com/spreadsheets/d/1NeW/edit",
		"uploadedBy":       "ada@example.com",
		"originalFileName": "q1-budget.csv",
		"isPublic":         true,
	}, f.metadata)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.stages.WithLabelValues(StageCreate, OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.stages.WithLabelValues(StagePublicize, OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.stages.WithLabelValues(StageForward, OutcomeOK)))
}

func TestRunCreatedPublicForwardFailed(t *testing.T) {
	s := &fakeStore{reachable: false}
	f := &fakeForwarder{err: &remote.Error{Service: "workflow", Op: "forward", Status: 404, Err: errors.New("404 Not Found workflow is not active")}}
	flow, metrics := newTestFlow(t, s, f)

	result, err := flow.Run(context.Background(), principal{"ada@example.com"}, request(true))
	require.NoError(t, err)

	assert.True(t, result.File.IsPublic, "unreachable public link should not clear IsPublic")
	assert.False(t, result.Forwarding.Success)
	assert.Equal(t, "404 Not Found workflow is not active", result.Forwarding.Error)
	assert.Nil(t, result.Forwarding.Response)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.stages.WithLabelValues(StageVerify, OutcomeFailed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.stages.WithLabelValues(StageForward, OutcomeFailed)))
}

func TestRunCreatedNotPublicForwarded(t *testing.T) {
	s := &fakeStore{permissionErr: &remote.Error{Service: "drive", Op: "permissions.create", Status: 403, Err: errors.New("Sharing is restricted")}}
	f := &fakeForwarder{}
	flow, _ := newTestFlow(t, s, f)

	result, err := flow.Run(context.Background(), principal{"ada@example.com"}, request(true))
	require.NoError(t, err)

	assert.Equal(t, []string{"create", "permission"}, s.calls)
	assert.False(t, result.File.IsPublic)
	assert.Empty(t, result.File.PublicLink)
	assert.Equal(t, "Sharing is restricted", result.PermissionError)
	assert.True(t, result.Forwarding.Success)
	assert.Equal(t, false, f.metadata["isPublic"])
	assert.Equal(t, "https://docs.google.com/spreadsheets/d/1NeW/edit", f.metadata["publicUrl"])
}

func TestRunCreatedNotPublicForwardFailed(t *testing.T) {
	s := &fakeStore{permissionErr: errors.New("permission denied")}
	f := &fakeForwarder{err: errors.New("connection refused")}
	flow, _ := newTestFlow(t, s, f)

	result, err := flow.Run(context.Background(), principal{"ada@example.com"}, request(true))
	require.NoError(t, err)

	assert.False(t, result.File.IsPublic)
	assert.Equal(t, "permission denied", result.PermissionError)
	assert.Equal(t, Forwarding{Success: false, Error: "connection refused"}, result.Forwarding)
}

func TestRunCreateFailed(t *testing.T) {
	cause := &remote.Error{Service: "drive", Op: "files.create", Status: 403, Err: errors.New("insufficient permissions")}
	s := &fakeStore{createErr: cause}
	f := &fakeForwarder{}
	flow, metrics := newTestFlow(t, s, f)

	result, err := flow.Run(context.Background(), principal{"ada@example.com"}, request(true))

	assert.Nil(t, result)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, []string{"create"}, s.calls)
	assert.Equal(t, 0, f.calls)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.stages.WithLabelValues(StageCreate, OutcomeFailed)))
}

func TestRunWithoutMakePublic(t *testing.T) {
	s := &fakeStore{}
	f := &fakeForwarder{}
	flow, metrics := newTestFlow(t, s, f)

	result, err := flow.Run(context.Background(), principal{"Ada Lovelace"}, request(false))
	require.NoError(t, err)

	assert.Equal(t, []string{"create"}, s.calls)
	assert.False(t, result.File.IsPublic)
	assert.Empty(t, result.File.PublicLink)
	assert.Equal(t, "Ada Lovelace", f.metadata["uploadedBy"])
	assert.Equal(t, false, f.metadata["isPublic"])
	assert.Equal(t, "https://docs.google.com/spreadsheets/d/1NeW/edit", f.metadata["publicUrl"])
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.stages.WithLabelValues(StagePublicize, OutcomeSkipped)))
}

func TestRunWithoutCallbackURL(t *testing.T) {
	s := &fakeStore{reachable: true}
	f := &fakeForwarder{}
	flow, _ := newTestFlow(t, s, f)
	flow.CallbackURL = ""

	result, err := flow.Run(context.Background(), principal{"ada@example.com"}, request(true))
	require.NoError(t, err)

	assert.Equal(t, 0, f.calls)
	assert.Equal(t, Forwarding{Success: false, Error: "workflow callback URL not configured"}, result.Forwarding)
}

func TestNewMetricsReusesRegisteredCounter(t *testing.T) {
	registry := prometheus.NewRegistry()

	m1, err := NewMetrics(registry)
	require.NoError(t, err)

	m2, err := NewMetrics(registry)
	require.NoError(t, err)

	m1.count(StageCreate, OutcomeOK)
	m2.count(StageCreate, OutcomeOK)

	assert.Equal(t, 2.0, testutil.ToFloat64(m1.stages.WithLabelValues(StageCreate, OutcomeOK)))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() { m.count(StageCreate, OutcomeOK) })
}
