package provision

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

var ErrInvalidRegistry = errors.New("invalid connector registry")

// RegistryEntry describes an MCP connector that workspaces can use.
type RegistryEntry struct {
	Slug             string         `yaml:"slug"`
	Label            string         `yaml:"label"`
	Docs             string         `yaml:"docs,omitempty"`
	Transports       []string       `yaml:"transports"`
	DefaultServerURL string         `yaml:"defaultServerUrl,omitempty"`
	DefaultStatus    string         `yaml:"defaultStatus,omitempty"`
	Env              *EntryEnv      `yaml:"env,omitempty"`
	AuthVariables    []AuthVariable `yaml:"authVariables,omitempty"`
	Notes            []string       `yaml:"notes,omitempty"`
}

// EntryEnv names the environment variables that override an entry at sync time.
type EntryEnv struct {
	ServerURL  string `yaml:"serverUrl,omitempty" json:"serverUrl,omitempty"`
	Status     string `yaml:"status,omitempty" json:"status,omitempty"`
	AuthHeader string `yaml:"authHeader,omitempty" json:"authHeader,omitempty"`
}

// AuthVariable documents a credential a connector needs.
type AuthVariable struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
	Required    bool   `yaml:"required,omitempty" json:"required,omitempty"`
}

// LoadRegistry reads a connector registry from a YAML or JSON file.
func LoadRegistry(path string) ([]RegistryEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read registry: %w", err)
	}
	return ParseRegistry(data)
}

// ParseRegistry parses a registry document. JSON documents are accepted as
// they are valid YAML.
func ParseRegistry(data []byte) ([]RegistryEntry, error) {
	var entries []RegistryEntry
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&entries); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRegistry, err)
	}

	seen := make(map[string]struct{}, len(entries))
	for i, e := range entries {
		if strings.TrimSpace(e.Slug) == "" {
			return nil, fmt.Errorf("%w: entry %d has no slug", ErrInvalidRegistry, i)
		}
		key := strings.ToLower(e.Slug)
		if _, dup := seen[key]; dup {
			return nil, fmt.Errorf("%w: duplicate slug %q", ErrInvalidRegistry, e.Slug)
		}
		seen[key] = struct{}{}
	}

	return entries, nil
}

// Lookup finds an entry by slug, or by label when no slug matches. The match
// is case-insensitive.
func Lookup(entries []RegistryEntry, identifier string) (RegistryEntry, bool) {
	if identifier == "" {
		return RegistryEntry{}, false
	}
	for _, e := range entries {
		if strings.EqualFold(e.Slug, identifier) {
			return e, true
		}
	}
	for _, e := range entries {
		if strings.EqualFold(e.Label, identifier) {
			return e, true
		}
	}
	return RegistryEntry{}, false
}
