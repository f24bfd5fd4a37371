package agent

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/orionpulse/orionpulse/internal/config"
	"github.com/orionpulse/orionpulse/internal/models"
	"github.com/orionpulse/orionpulse/internal/store"
	"github.com/orionpulse/orionpulse/internal/store/memory"
	"github.com/stretchr/testify/require"
)

type failingConnections struct {
	store.ConnectionStore
}

func (failingConnections) ListConnections(context.Context, uuid.UUID, ...string) ([]*models.Connection, error) {
	return nil, store.ErrStorageUnavailable
}

type capturedRun struct {
	authorization string
	beta          string
	body          runRequest
}

func newAgentServer(t *testing.T, status int, response string) (*httptest.Server, *capturedRun, *atomic.Int32) {
	t.Helper()

	captured := &capturedRun{}
	calls := &atomic.Int32{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/agents/runs", r.URL.Path)

		captured.authorization = r.Header.Get("Authorization")
		captured.beta = r.Header.Get("OpenAI-Beta")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured.body))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(srv.Close)

	return srv, captured, calls
}

func configured(baseURL string) config.Config {
	return config.Config{
		OpenAIAPIKey:  "sk-test",
		OpenAIAgentID: "agent-123",
		OpenAIAPIBase: baseURL + "/v1",
	}
}

func TestInvokeNotConfigured(t *testing.T) {
	ctx := context.Background()
	turns := []models.Turn{{Role: models.EventRoleUser, Content: "Bonjour"}}

	for name, cfg := range map[string]config.Config{
		"nothing":      {},
		"no agent id":  {OpenAIAPIKey: "sk-test"},
		"no api key":   {OpenAIAgentID: "agent-123"},
		"blank values": {OpenAIAPIKey: "", OpenAIAgentID: ""},
	} {
		t.Run(name, func(t *testing.T) {
			inv := NewInvoker(cfg, nil)
			require.NotPanics(t, func() {
				require.Equal(t, MessageNotConfigured, inv.Invoke(ctx, turns, uuid.New()))
			})
		})
	}
}

func TestInvoke(t *testing.T) {
	ctx := context.Background()
	workspaceID := uuid.New()
	otherWorkspace := uuid.New()

	connections := memory.NewConnectionStore()
	for _, c := range []*models.Connection{
		{WorkspaceID: workspaceID, Provider: "meta_ads", ServerURL: "https://mcp.example/meta", Status: models.ConnectionOnline},
		{WorkspaceID: workspaceID, Provider: "ga4", ServerURL: "https://mcp.example/ga4", Status: models.ConnectionDegraded},
		{WorkspaceID: workspaceID, Provider: "hubspot", ServerURL: "https://mcp.example/hubspot", Status: models.ConnectionOffline},
		{WorkspaceID: workspaceID, Provider: "tiktok", ServerURL: "https://mcp.example/tiktok", Status: models.ConnectionUnknown},
		{WorkspaceID: otherWorkspace, Provider: "linkedin", ServerURL: "https://mcp.example/linkedin", Status: models.ConnectionOnline},
	} {
		require.NoError(t, connections.UpsertConnection(ctx, c))
	}

	t.Run("successful run", func(t *testing.T) {
		srv, captured, calls := newAgentServer(t, http.StatusOK,
			`{"output":[{"type":"message","content":[{"type":"output_text","text":" Réponse "}]}]}`)

		inv := NewInvoker(configured(srv.URL), connections)
		turns := []models.Turn{
			{Role: models.EventRoleUser, Content: "Bonjour"},
		}

		require.Equal(t, "Réponse", inv.Invoke(ctx, turns, workspaceID))
		require.EqualValues(t, 1, calls.Load())

		require.Equal(t, "Bearer sk-test", captured.authorization)
		require.Equal(t, "agents=v1", captured.beta)
		require.Equal(t, "agent-123", captured.body.AgentID)
		require.Equal(t, turns, captured.body.Input)
		require.Equal(t, workspaceID.String(), captured.body.Metadata["workspaceId"])

		require.ElementsMatch(t, []MCPServer{
			{Type: "mcp_server", ServerURL: "https://mcp.example/meta", Name: "meta_ads"},
			{Type: "mcp_server", ServerURL: "https://mcp.example/ga4", Name: "ga4"},
		}, captured.body.ToolResources.MCPServers)

		require.Equal(t, []SQLDatastore{
			{Type: "dbt_semantic_layer", Name: "orionpulse_semantic", Connection: "semantic-layer"},
		}, captured.body.ToolResources.SQLDatastores)
	})

	t.Run("non 2xx", func(t *testing.T) {
		srv, _, calls := newAgentServer(t, http.StatusBadGateway, `{"error":"upstream"}`)

		inv := NewInvoker(configured(srv.URL), connections)
		require.Equal(t, MessageUnavailable, inv.Invoke(ctx, nil, workspaceID))
		require.EqualValues(t, 1, calls.Load())
	})

	t.Run("undecodable body", func(t *testing.T) {
		srv, _, _ := newAgentServer(t, http.StatusOK, `not json`)

		inv := NewInvoker(configured(srv.URL), connections)
		require.Equal(t, MessageUnavailable, inv.Invoke(ctx, nil, workspaceID))
	})

	t.Run("empty answer", func(t *testing.T) {
		srv, _, _ := newAgentServer(t, http.StatusOK, `{"output":[]}`)

		inv := NewInvoker(configured(srv.URL), connections)
		require.Equal(t, MessageEmpty, inv.Invoke(ctx, nil, workspaceID))
	})

	t.Run("transport failure", func(t *testing.T) {
		srv, _, _ := newAgentServer(t, http.StatusOK, `{}`)
		url := srv.URL
		srv.Close()

		inv := NewInvoker(configured(url), connections)
		require.Equal(t, MessageUnavailable, inv.Invoke(ctx, nil, workspaceID))
	})

	t.Run("cancelled caller does not abort the call", func(t *testing.T) {
		srv, _, calls := newAgentServer(t, http.StatusOK,
			`{"result":[{"type":"message","content":[{"type":"text","text":"ok"}]}]}`)

		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		inv := NewInvoker(configured(srv.URL), connections)
		require.Equal(t, "ok", inv.Invoke(cancelled, nil, workspaceID))
		require.EqualValues(t, 1, calls.Load())
	})

	t.Run("semantic connection from config", func(t *testing.T) {
		srv, captured, _ := newAgentServer(t, http.StatusOK, `{}`)

		cfg := configured(srv.URL)
		cfg.SemanticConnection = "warehouse"
		NewInvoker(cfg, nil).Invoke(ctx, nil, workspaceID)

		require.Equal(t, "warehouse", captured.body.ToolResources.SQLDatastores[0].Connection)
		require.Empty(t, captured.body.ToolResources.MCPServers)
	})
}

func TestTools(t *testing.T) {
	ctx := context.Background()

	t.Run("lookup failure yields no tools", func(t *testing.T) {
		inv := NewInvoker(config.Config{}, failingConnections{})
		require.Empty(t, inv.Tools(ctx, uuid.New()))
	})

	t.Run("only the requested workspace", func(t *testing.T) {
		connections := memory.NewConnectionStore()
		mine, theirs := uuid.New(), uuid.New()
		require.NoError(t, connections.UpsertConnection(ctx, &models.Connection{WorkspaceID: theirs, Provider: "x", ServerURL: "https://x", Status: models.ConnectionOnline}))

		inv := NewInvoker(config.Config{}, connections)
		require.Empty(t, inv.Tools(ctx, mine))
		require.Len(t, inv.Tools(ctx, theirs), 1)
	})
}
