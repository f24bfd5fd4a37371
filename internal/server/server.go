package server

import (
	"net/http"

	"github.com/benbjohnson/clock"
	"github.com/go-playground/validator/v10"
	"github.com/orionpulse/orionpulse/internal/agent"
	"github.com/orionpulse/orionpulse/internal/copilot"
	"github.com/orionpulse/orionpulse/internal/store"
	"github.com/orionpulse/orionpulse/internal/workspace"
)

// Deps are the collaborators of the API server.
type Deps struct {
	Resolver *workspace.Resolver
	Ledger   *copilot.Ledger
	Agent    agent.Answerer
	SyncJobs store.SyncJobStore

	// InsecureCookies drops the Secure attribute from cookies, for plain HTTP development.
	InsecureCookies bool
}

// Server serves the dashboard API.
type Server struct {
	resolver        *workspace.Resolver
	ledger          *copilot.Ledger
	agent           agent.Answerer
	syncJobs        store.SyncJobStore
	insecureCookies bool

	validate *validator.Validate
	clock    clock.Clock
}

// NewServer creates a new API server.
func NewServer(deps Deps) *Server {
	return &Server{
		resolver:        deps.Resolver,
		ledger:          deps.Ledger,
		agent:           deps.Agent,
		syncJobs:        deps.SyncJobs,
		insecureCookies: deps.InsecureCookies,
		validate:        newValidator(),
		clock:           clock.New(),
	}
}

// WithClock replaces the clock used for sync job scheduling.
func (s *Server) WithClock(c clock.Clock) *Server {
	s.clock = c
	return s
}

// Handler returns the HTTP handler for the server. Authentication middleware
// must run before it so handlers can find the principal in the context.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Health check endpoint for load balancer
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	mux.HandleFunc("POST /api/copilot", s.handleCopilot)
	mux.HandleFunc("GET /api/workspace", s.handleWorkspace)
	mux.HandleFunc("POST /api/sync", s.handleEnqueueSync)
	mux.HandleFunc("GET /api/sync", s.handleListSync)

	return mux
}
