// Package config holds the process-wide settings shared by the resolver,
// bootstrapper and agent invoker. It is built once at startup from CLI flags
// and environment variables and passed down explicitly.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

const (
	DefaultWorkspaceName      = "OrionPulse HQ"
	DefaultSemanticConnection = "semantic-layer"
	DefaultOpenAIAPIBase      = "https://api.openai.com/v1"
)

// DefaultTerritories is used when no territories are configured.
var DefaultTerritories = []string{"MQ", "GP", "GF"}

// Config is the explicit configuration value object.
type Config struct {
	// WorkspaceID is the configured default tenant hint. It is kept raw so a
	// malformed value is refused by the resolver instead of at startup.
	WorkspaceID string

	DefaultWorkspaceName string
	DefaultTerritories   []string

	OpenAIAPIKey       string
	OpenAIAgentID      string
	OpenAIAPIBase      string
	SemanticConnection string

	JWTSecret string
}

// ApplyDefaults applies default values to unset configuration fields.
func (c *Config) ApplyDefaults() {
	c.DefaultWorkspaceName = strings.TrimSpace(c.DefaultWorkspaceName)
	if c.DefaultWorkspaceName == "" {
		c.DefaultWorkspaceName = DefaultWorkspaceName
	}
	if len(c.DefaultTerritories) == 0 {
		c.DefaultTerritories = append([]string(nil), DefaultTerritories...)
	}
	if c.OpenAIAPIBase == "" {
		c.OpenAIAPIBase = DefaultOpenAIAPIBase
	}
	c.OpenAIAPIBase = strings.TrimRight(c.OpenAIAPIBase, "/")
	if c.SemanticConnection == "" {
		c.SemanticConnection = DefaultSemanticConnection
	}
	c.WorkspaceID = strings.TrimSpace(c.WorkspaceID)
}

// Validate checks that the configuration is usable.
// An absent agent key or ID is not an error; the invoker degrades to a fixed message.
func (c *Config) Validate() error {
	if c.OpenAIAPIBase != "" {
		u, err := url.Parse(c.OpenAIAPIBase)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid OpenAI API base %q", c.OpenAIAPIBase)
		}
	}
	if c.JWTSecret != "" && len(c.JWTSecret) < 32 {
		return errors.New("JWT secret must be at least 32 bytes (256 bits) for HMAC-SHA256")
	}
	return nil
}

// AgentConfigured reports whether both the agent API key and agent ID are set.
func (c *Config) AgentConfigured() bool {
	return c.OpenAIAPIKey != "" && c.OpenAIAgentID != ""
}

// DefaultWorkspace returns the configured default tenant hint, if any.
// ok is false when no hint is configured; err is set when the hint is not a uuid.
func (c *Config) DefaultWorkspace() (id uuid.UUID, ok bool, err error) {
	if c.WorkspaceID == "" {
		return uuid.Nil, false, nil
	}
	id, err = uuid.Parse(c.WorkspaceID)
	if err != nil {
		return uuid.Nil, true, fmt.Errorf("invalid workspace id %q: %w", c.WorkspaceID, err)
	}
	return id, true, nil
}

// ParseTerritories splits a comma separated territory list, trimming each
// entry and dropping empties. It returns nil when nothing remains.
func ParseTerritories(raw string) []string {
	var territories []string
	for part := range strings.SplitSeq(raw, ",") {
		if t := strings.TrimSpace(part); t != "" {
			territories = append(territories, t)
		}
	}
	return territories
}
