package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"filippo.io/csrf"
	"github.com/google/uuid"
	"github.com/klauspost/compress/gzhttp"
	"github.com/orionpulse/orionpulse/internal/agent"
	"github.com/orionpulse/orionpulse/internal/auth"
	"github.com/orionpulse/orionpulse/internal/config"
	"github.com/orionpulse/orionpulse/internal/copilot"
	httpmiddleware "github.com/orionpulse/orionpulse/internal/http"
	"github.com/orionpulse/orionpulse/internal/logger"
	"github.com/orionpulse/orionpulse/internal/server"
	"github.com/orionpulse/orionpulse/internal/store/backend"
	"github.com/orionpulse/orionpulse/internal/telemetry"
	"github.com/orionpulse/orionpulse/internal/workspace"
	"github.com/rs/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

type ServerCmd struct {
	// Server configuration
	Listen string `help:"HTTP server listen address" default:"0.0.0.0:8080" env:"ORIONPULSE_LISTEN"`
	Cert   string `help:"path to TLS cert file, serves cleartext HTTP/2 when empty" default:"" env:"ORIONPULSE_TLS_CERT"`
	Key    string `help:"path to TLS key file" default:"" env:"ORIONPULSE_TLS_KEY"`

	// CORS configuration
	CORSOrigins []string `help:"allowed CORS origins for API requests" default:"http://localhost:3000" env:"ORIONPULSE_CORS_ORIGINS"`

	// Authentication
	JWTSecret    string `help:"HS256 secret used to verify access tokens" env:"ORIONPULSE_JWT_SECRET"`
	NoAuth       bool   `help:"disable authentication for API endpoints (development only)" default:"false" env:"ORIONPULSE_NO_AUTH"`
	DevPrincipal string `help:"principal ID attached to every request when authentication is disabled" env:"ORIONPULSE_DEV_PRINCIPAL"`

	// Development and operational modes
	InsecureCookies  bool    `help:"omit the Secure attribute on cookies (plain HTTP development)" default:"false" env:"ORIONPULSE_INSECURE_COOKIES"`
	Tracing          bool    `help:"enable tracing" default:"false" env:"ORIONPULSE_TRACING"`
	TraceSampleRatio float64 `help:"fraction of traces to sample" default:"1" env:"ORIONPULSE_TRACE_SAMPLE_RATIO"`

	// Workspace configuration
	WorkspaceID          string `help:"default workspace hint" env:"ORIONPULSE_WORKSPACE_ID"`
	DefaultWorkspaceName string `help:"name of the workspace created on first use" default:"${default_workspace_name}" env:"ORIONPULSE_DEFAULT_WORKSPACE_NAME"`
	DefaultTerritories   string `help:"comma separated territories of the bootstrapped workspace" default:"MQ,GP,GF" env:"ORIONPULSE_DEFAULT_TERRITORIES"`

	// Agent configuration
	OpenAIAPIKey       string `help:"OpenAI API key" env:"OPENAI_API_KEY"`
	OpenAIAgentID      string `help:"OpenAI agent ID" env:"OPENAI_AGENT_ID"`
	OpenAIAPIBase      string `help:"OpenAI API base URL" default:"${default_openai_api_base}" env:"OPENAI_API_BASE"`
	SemanticConnection string `help:"dbt semantic layer connection name" default:"${default_semantic_connection}" env:"DBT_SEMANTIC_CONNECTION"`

	// Store configuration
	StoreType     string                `help:"store type (memory or postgres)" default:"memory" env:"ORIONPULSE_STORE_TYPE" enum:"memory,postgres"`
	PostgresStore backend.PostgresFlags `embed:"" prefix:"postgres-"`
}

// Config builds the application configuration from the command flags.
func (c *ServerCmd) Config() (config.Config, error) {
	cfg := config.Config{
		WorkspaceID:          strings.TrimSpace(c.WorkspaceID),
		DefaultWorkspaceName: c.DefaultWorkspaceName,
		DefaultTerritories:   config.ParseTerritories(c.DefaultTerritories),
		OpenAIAPIKey:         c.OpenAIAPIKey,
		OpenAIAgentID:        c.OpenAIAgentID,
		OpenAIAPIBase:        c.OpenAIAPIBase,
		SemanticConnection:   c.SemanticConnection,
		JWTSecret:            c.JWTSecret,
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *ServerCmd) Run(globals *Globals) error {
	log := logger.Setup(globals.Debug)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().Str("version", globals.Version).Bool("debug", globals.Debug).Msg("Starting server")

	cfg, err := c.Config()
	if err != nil {
		return err
	}

	// Setup telemetry if enabled
	if c.Tracing {
		log.Info().Float64("sample_ratio", c.TraceSampleRatio).Msg("Tracing is enabled")
		shutdown, err := telemetry.InitTelemetry(ctx, telemetry.Options{
			ServiceName: "orionpulse-server",
			Version:     globals.Version,
			SampleRatio: c.TraceSampleRatio,
		})
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialize telemetry, continuing without metrics")
			shutdown = func(ctx context.Context) error { return nil }
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("Failed to shutdown telemetry")
			}
		}()
	}

	stores, err := backend.Open(ctx, c.StoreType, c.PostgresStore)
	if err != nil {
		return err
	}
	defer stores.Close()

	authMiddleware, err := c.authMiddleware(cfg)
	if err != nil {
		return err
	}
	if c.NoAuth {
		log.Warn().Msg("Authentication is disabled (--no-auth). This should only be used in development!")
	}

	if !cfg.AgentConfigured() {
		log.Warn().Msg("OpenAI agent is not configured, copilot answers with a fixed message")
	}

	authorizer := auth.NewAuthorizer(stores.Workspaces, stores.Memberships)
	bootstrapper := workspace.NewBootstrapper(stores.Workspaces, cfg)
	resolver := workspace.NewResolver(authorizer, stores.Memberships, bootstrapper, cfg)

	api := server.NewServer(server.Deps{
		Resolver:        resolver,
		Ledger:          copilot.NewLedger(stores.Copilot),
		Agent:           agent.NewInvoker(cfg, stores.Connections),
		SyncJobs:        stores.SyncJobs,
		InsecureCookies: c.InsecureCookies,
	})

	mux := httpmiddleware.Chain(api.Handler(),
		logger.NewRequestLogger(log),
		httpmiddleware.ClientIPMiddleware(),
		authMiddleware,
	)

	// CSRF protection for non-API routes
	protection := csrf.New()
	apiCORS := withCORS(c.CORSOrigins, mux)
	protected := protection.Handler(mux)

	// API routes get CORS, everything else gets CSRF
	var handler http.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isAPIRoute(r.URL.Path) {
			apiCORS.ServeHTTP(w, r)
		} else {
			protected.ServeHTTP(w, r)
		}
	})
	handler = gzhttp.GzipHandler(handler)
	if c.Tracing {
		handler = otelhttp.NewHandler(handler, "orionpulse-server")
	}

	srv := configureHTTPServer(c.Listen, handler)

	errCh := make(chan error, 1)
	go func() {
		if c.Cert != "" || c.Key != "" {
			if err := checkTLSFiles(c.Cert, c.Key); err != nil {
				errCh <- err
				return
			}
			log.Info().Str("addr", c.Listen).Bool("auth", !c.NoAuth).Msg("Starting HTTPS server")
			errCh <- srv.ListenAndServeTLS(c.Cert, c.Key)
			return
		}

		// Cleartext HTTP/2 for deployments behind a TLS terminating proxy
		srv.Handler = h2c.NewHandler(srv.Handler, &http2.Server{})
		log.Info().Str("addr", c.Listen).Bool("auth", !c.NoAuth).Msg("Starting HTTP server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		log.Info().Msg("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (c *ServerCmd) authMiddleware(cfg config.Config) (httpmiddleware.Middleware, error) {
	if c.NoAuth {
		id := uuid.Nil
		if c.DevPrincipal != "" {
			parsed, err := uuid.Parse(c.DevPrincipal)
			if err != nil {
				return nil, fmt.Errorf("invalid dev principal %q: %w", c.DevPrincipal, err)
			}
			id = parsed
		}
		if id == uuid.Nil {
			return nil, errors.New("--dev-principal is required when authentication is disabled")
		}
		return auth.StaticMiddleware(&auth.Principal{ID: id}), nil
	}

	verifier, err := auth.NewVerifier(cfg.JWTSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to create token verifier (--jwt-secret or ORIONPULSE_JWT_SECRET): %w", err)
	}
	return verifier.Middleware(), nil
}

func checkTLSFiles(cert, key string) error {
	if cert == "" || key == "" {
		return errors.New("both TLS certificate and key are required (--cert and --key)")
	}
	if _, err := os.Stat(cert); err != nil {
		return fmt.Errorf("TLS certificate not found at %s: %w", cert, err)
	}
	if _, err := os.Stat(key); err != nil {
		return fmt.Errorf("TLS key not found at %s: %w", key, err)
	}
	return nil
}

// isAPIRoute returns true if the path is an API route that needs CORS instead of CSRF
func isAPIRoute(path string) bool {
	return strings.HasPrefix(path, "/api/")
}

// withCORS adds CORS support to the API handler.
func withCORS(allowedOrigins []string, h http.Handler) http.Handler {
	middleware := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", workspace.HeaderName},
		AllowCredentials: true, // Required for cookie-based authentication
		MaxAge:           int((2 * time.Hour).Seconds()),
	})
	return middleware.Handler(h)
}
