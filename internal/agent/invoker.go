// Package agent calls the hosted reasoning agent that answers copilot turns.
package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/orionpulse/orionpulse/internal/config"
	"github.com/orionpulse/orionpulse/internal/models"
	"github.com/orionpulse/orionpulse/internal/store"
	"github.com/orionpulse/orionpulse/internal/telemetry"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/oauth2"
)

// Fixed answers returned instead of an agent response.
const (
	MessageNotConfigured = "⚠️ L'agent OpenAI n'est pas configuré. Ajoutez OPENAI_API_KEY et OPENAI_AGENT_ID."
	MessageUnavailable   = "❌ Impossible de contacter OpenAI pour le moment. Réessayez plus tard."
	MessageEmpty         = "Je n'ai pas pu générer de réponse, pouvez-vous reformuler votre demande ?"
)

const (
	runsPath         = "/agents/runs"
	betaHeader       = "OpenAI-Beta"
	betaHeaderValue  = "agents=v1"
	semanticName     = "orionpulse_semantic"
	semanticType     = "dbt_semantic_layer"
	mcpServerType    = "mcp_server"
	maxErrorBodySize = 4 << 10
)

// ErrUnavailable is returned when the agent could not produce a response.
var ErrUnavailable = errors.New("agent unavailable")

// Answerer produces the assistant answer for a conversation window.
type Answerer interface {
	Invoke(ctx context.Context, turns []models.Turn, workspaceID uuid.UUID) string
}

// Invoker calls the agent runs API with workspace-scoped tool resources.
type Invoker struct {
	agentID            string
	runsURL            string
	semanticConnection string
	connections        store.ConnectionStore
	client             *http.Client
}

var _ Answerer = (*Invoker)(nil)

// NewInvoker creates an invoker. connections may be nil, in which case no
// MCP servers are offered to the agent. An invoker built from a config
// without an API key or agent ID always answers MessageNotConfigured.
func NewInvoker(cfg config.Config, connections store.ConnectionStore) *Invoker {
	cfg.ApplyDefaults()

	inv := &Invoker{
		agentID:            cfg.OpenAIAgentID,
		runsURL:            cfg.OpenAIAPIBase + runsPath,
		semanticConnection: cfg.SemanticConnection,
		connections:        connections,
	}

	if cfg.AgentConfigured() {
		base := &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
		inv.client = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
			AccessToken: cfg.OpenAIAPIKey,
			TokenType:   "Bearer",
		}))
	}

	return inv
}

// Invoke returns the agent answer for turns. It never fails: configuration
// gaps and agent errors are turned into fixed messages and logged.
// Cancelling ctx does not abort an in-flight call.
func (i *Invoker) Invoke(ctx context.Context, turns []models.Turn, workspaceID uuid.UUID) string {
	if i.client == nil {
		return MessageNotConfigured
	}

	ctx = context.WithoutCancel(ctx)
	metrics := telemetry.GetMetrics()
	started := time.Now()

	metrics.AgentInvocationsTotal.Add(ctx, 1)
	answer, err := i.run(ctx, turns, workspaceID)
	metrics.AgentInvocationDuration.Record(ctx, float64(time.Since(started).Milliseconds()))

	if err != nil {
		metrics.AgentInvocationErrorsTotal.Add(ctx, 1)
		zerolog.Ctx(ctx).Error().
			Err(err).
			Str("workspace_id", workspaceID.String()).
			Msg("Agent invocation failed")
		return MessageUnavailable
	}

	return answer
}

type runRequest struct {
	AgentID       string         `json:"agent_id"`
	Input         []models.Turn  `json:"input"`
	ToolResources toolResources  `json:"tool_resources"`
	Metadata      map[string]any `json:"metadata"`
}

type toolResources struct {
	MCPServers    []MCPServer    `json:"mcp_servers"`
	SQLDatastores []SQLDatastore `json:"sql_datastores"`
}

// MCPServer is a tool descriptor for a workspace connection.
type MCPServer struct {
	Type      string `json:"type"`
	ServerURL string `json:"server_url"`
	Name      string `json:"name"`
}

// SQLDatastore is a tool descriptor for the semantic layer.
type SQLDatastore struct {
	Type       string `json:"type"`
	Name       string `json:"name"`
	Connection string `json:"connection"`
}

func (i *Invoker) run(ctx context.Context, turns []models.Turn, workspaceID uuid.UUID) (string, error) {
	if turns == nil {
		turns = []models.Turn{}
	}

	payload := runRequest{
		AgentID: i.agentID,
		Input:   turns,
		ToolResources: toolResources{
			MCPServers: i.Tools(ctx, workspaceID),
			SQLDatastores: []SQLDatastore{{
				Type:       semanticType,
				Name:       semanticName,
				Connection: i.semanticConnection,
			}},
		},
		Metadata: map[string]any{"workspaceId": workspaceID.String()},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode run request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, i.runsURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create run request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(betaHeader, betaHeaderValue)

	resp, err := i.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return "", fmt.Errorf("%w: status %d: %s", ErrUnavailable, resp.StatusCode, bytes.TrimSpace(detail))
	}

	var run RunResponse
	if err := json.NewDecoder(resp.Body).Decode(&run); err != nil {
		return "", fmt.Errorf("%w: failed to decode run response: %w", ErrUnavailable, err)
	}

	return Normalize(&run), nil
}

// Tools returns the MCP servers the agent may use for workspaceID: the
// workspace's online or degraded connections. Lookup failures yield no tools.
func (i *Invoker) Tools(ctx context.Context, workspaceID uuid.UUID) []MCPServer {
	servers := []MCPServer{}
	if i.connections == nil {
		return servers
	}

	connections, err := i.connections.ListConnections(ctx, workspaceID, models.ConnectionOnline, models.ConnectionDegraded)
	if err != nil {
		zerolog.Ctx(ctx).Warn().
			Err(err).
			Str("workspace_id", workspaceID.String()).
			Msg("Failed to load MCP connections")
		return servers
	}

	for _, c := range connections {
		if c.WorkspaceID != workspaceID || !c.Usable() {
			continue
		}
		servers = append(servers, MCPServer{Type: mcpServerType, ServerURL: c.ServerURL, Name: c.Provider})
	}

	return servers
}
