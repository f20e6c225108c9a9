// Package httpd is the HTTP boundary: the OAuth sign-in routes, the session gated
// spreadsheet API and the shared-secret webhooks.
package httpd

import (
	"context"
	"fmt"
	"net/http"

	"github.com/justinas/alice"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/oauth2"

	"github.com/sheets-relay/sheets-relay/auth"
	"github.com/sheets-relay/sheets-relay/config"
	"github.com/sheets-relay/sheets-relay/sheet"
	"github.com/sheets-relay/sheets-relay/store"
	"github.com/sheets-relay/sheets-relay/upload"
)

type Provider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*auth.Credentials, error)
}

type Store interface {
	upload.Store
	Duplicate(ctx context.Context, sourceID, newName string) (*store.File, error)
	GetFile(ctx context.Context, fileID string) (*store.File, error)
}

type Reader interface {
	ReadRange(ctx context.Context, spreadsheetID, area string) ([][]any, error)
}

// Dependencies are the collaborators of the HTTP server. Stores and Readers are called
// once per request with the caller's token and return a fresh client.
type Dependencies struct {
	Provider  Provider
	Sessions  *auth.Sessions
	Stores    func(ctx context.Context, ts oauth2.TokenSource) (Store, error)
	Readers   func(ctx context.Context, ts oauth2.TokenSource) (Reader, error)
	Forwarder upload.Forwarder
	Service   oauth2.TokenSource
	Registry  *prometheus.Registry
}

type Server struct {
	config    *config.Config
	provider  Provider
	sessions  *auth.Sessions
	stores    func(ctx context.Context, ts oauth2.TokenSource) (Store, error)
	readers   func(ctx context.Context, ts oauth2.TokenSource) (Reader, error)
	forwarder upload.Forwarder
	service   oauth2.TokenSource
	flow      *upload.Flow
	registry  *prometheus.Registry
	metrics   *metrics
}

// DefaultDependencies returns the Google backed store and reader factories.
func DefaultDependencies() Dependencies {
	return Dependencies{
		Stores: func(ctx context.Context, ts oauth2.TokenSource) (Store, error) {
			c, err := store.New(ctx, ts)
			if err != nil {
				return nil, err
			}

			return c, nil
		},
		Readers: func(ctx context.Context, ts oauth2.TokenSource) (Reader, error) {
			r, err := sheet.New(ctx, ts)
			if err != nil {
				return nil, err
			}

			return r, nil
		},
	}
}

func New(cfg *config.Config, deps Dependencies) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("missing configuration")
	} else if deps.Provider == nil || deps.Sessions == nil {
		return nil, fmt.Errorf("missing OAuth provider or session manager")
	} else if deps.Stores == nil || deps.Readers == nil {
		return nil, fmt.Errorf("missing store or reader factory")
	}

	registry := deps.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}

	m, err := newMetrics(registry)
	if err != nil {
		return nil, err
	}

	stages, err := upload.NewMetrics(registry)
	if err != nil {
		return nil, err
	}

	s := Server{
		config:    cfg,
		provider:  deps.Provider,
		sessions:  deps.Sessions,
		stores:    deps.Stores,
		readers:   deps.Readers,
		forwarder: deps.Forwarder,
		service:   deps.Service,
		registry:  registry,
		metrics:   m,
	}

	s.flow = &upload.Flow{
		Stores: func(ctx context.Context, ts oauth2.TokenSource) (upload.Store, error) {
			c, err := s.stores(ctx, ts)
			if err != nil {
				return nil, err
			}

			return c, nil
		},
		Forwarder:   deps.Forwarder,
		CallbackURL: cfg.Webhook.WorkflowURL,
		Metrics:     stages,
	}

	return &s, nil
}

// Handler returns the routes wrapped in the panic recovery, request id, logging and
// instrumentation middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /auth/google", s.signIn)
	mux.HandleFunc("GET /auth/google/callback", s.callback)
	mux.HandleFunc("GET /auth/check", s.check)
	mux.HandleFunc("GET /auth/logout", s.logout)

	mux.HandleFunc("POST /api/sheets/copy", s.authenticated(s.copySheet))
	mux.HandleFunc("POST /api/sheets/upload", s.authenticated(s.uploadSheet))
	mux.HandleFunc("POST /api/sheets/send-to-n8n", s.authenticated(s.sendToWorkflow))
	mux.HandleFunc("GET /api/sheets/{id}", s.authenticated(s.getSheet))
	mux.HandleFunc("GET /api/sheets/{id}/data", s.authenticated(s.getSheetData))

	mux.HandleFunc("GET /webhook/sheet", s.webhookSheet)
	mux.HandleFunc("POST /webhook/n8n", s.webhookReceived)

	mux.HandleFunc("GET /healthz", s.healthz)
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{Registry: s.registry}))

	return alice.New(s.recoverPanic, s.requestID, s.logRequests, s.instrument).Then(mux)
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, envelop{"status": "ok"}, http.StatusOK, nil)
}
