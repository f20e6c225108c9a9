package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"time"

	"golang.org/x/net/netutil"
	"golang.org/x/oauth2"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/sheets/v4"

	"github.com/sheets-relay/sheets-relay/auth"
	"github.com/sheets-relay/sheets-relay/config"
	"github.com/sheets-relay/sheets-relay/httpd"
	"github.com/sheets-relay/sheets-relay/logging"
	"github.com/sheets-relay/sheets-relay/notify"
)

const shutdownTimeout = 15 * time.Second

var RunCmd = Run{
	port:           0,
	maxConnections: 0,
}

// Run serves the HTTP API until it is interrupted.
type Run struct {
	port           int
	maxConnections int
}

func (cmd *Run) Name() string {
	return "run"
}

func (cmd *Run) Description() string {
	return "Runs the HTTP server"
}

func (cmd *Run) Usage() string {
	return "[--port <port>] [--max-connections <N>]"
}

func (cmd *Run) Help() {
	fmt.Println()
	fmt.Printf("  Usage: %s [--debug] [--config <file>] run [options]\n", APP)
	fmt.Println()
	fmt.Println("  Runs the HTTP server until interrupted. The port and connection limit default to the")
	fmt.Println("  configuration file and the PORT and MAX_CONNECTIONS environment variables.")
	fmt.Println()

	helpOptions(cmd.FlagSet())

	fmt.Println()
	fmt.Println("  Examples:")
	fmt.Printf("    %s --debug run --port 8080\n", APP)
	fmt.Println()
}

func (cmd *Run) FlagSet() *flag.FlagSet {
	flagset := flag.NewFlagSet("run", flag.ExitOnError)

	flagset.IntVar(&cmd.port, "port", cmd.port, "HTTP port (overrides PORT)")
	flagset.IntVar(&cmd.maxConnections, "max-connections", cmd.maxConnections, "Maximum number of concurrent connections (0 is unlimited)")

	return flagset
}

func (cmd *Run) Execute(args ...any) error {
	options := args[0].(*Options)

	cfg, err := loadConfig(options)
	if err != nil {
		return err
	}

	if cmd.port != 0 {
		cfg.Port = cmd.port
	}

	if cmd.maxConnections != 0 {
		cfg.MaxConnections = cmd.maxConnections
	}

	logging.Configure(os.Stderr, cfg.Debug)

	if err := cfg.Validate(); err != nil {
		return err
	}

	server, err := cmd.server(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), signals()...)
	defer cancel()

	return cmd.serve(ctx, cfg, server.Handler())
}

func (cmd *Run) server(cfg *config.Config) (*httpd.Server, error) {
	provider, err := auth.NewProvider(cfg.Google)
	if err != nil {
		return nil, fmt.Errorf("unable to create OAuth provider (%w)", err)
	}

	var service oauth2.TokenSource
	if cfg.Google.ServiceAccount != "" {
		if service, err = auth.ServiceTokenSource(context.Background(), cfg.Google.ServiceAccount, sheets.SpreadsheetsReadonlyScope); err != nil {
			return nil, fmt.Errorf("unable to load service account (%w)", err)
		}
	} else {
		warnf("GOOGLE_SERVICE_ACCOUNT not configured - /webhook/sheet will fail")
	}

	if cfg.Webhook.Token == "" {
		warnf("WEBHOOK_TOKEN not configured - /webhook/sheet will reject all requests")
	}

	deps := httpd.DefaultDependencies()
	deps.Provider = provider
	deps.Sessions = auth.NewSessions(cfg.Session.Secret, cfg.Session.TTL, cfg.Session.Secure)
	deps.Forwarder = notify.NewForwarder(nil)
	deps.Service = service

	return httpd.New(cfg, deps)
}

// serve runs the HTTP server and the shutdown watcher in an errgroup. The listener is
// wrapped in a LimitListener if a connection limit is configured.
func (cmd *Run) serve(ctx context.Context, cfg *config.Config, handler http.Handler) error {
	listener, err := net.Listen("tcp", cfg.Address())
	if err != nil {
		return err
	}

	if cfg.MaxConnections > 0 {
		listener = netutil.LimitListener(listener, cfg.MaxConnections)
	}

	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		infof("listening on %v", listener.Addr())

		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}

		return nil
	})

	g.Go(func() error {
		<-ctx.Done()

		infof("shutting down")

		shutdown, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdown); err != nil {
			warnf("shutdown error (%v)", err)
			return err
		}

		return nil
	})

	return g.Wait()
}
