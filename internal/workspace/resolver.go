// Package workspace resolves every request to exactly one tenant workspace
// and bootstraps the default workspace on a fresh installation.
package workspace

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/orionpulse/orionpulse/internal/auth"
	"github.com/orionpulse/orionpulse/internal/config"
	"github.com/orionpulse/orionpulse/internal/models"
	"github.com/orionpulse/orionpulse/internal/store"
	"github.com/orionpulse/orionpulse/internal/telemetry"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/singleflight"
)

const (
	// HeaderName carries an explicit workspace hint.
	HeaderName = "X-OrionPulse-Workspace"

	// CookieName carries the workspace selected by an earlier request.
	CookieName = "orionpulse_workspace"
)

// Resolution sources, in precedence order.
const (
	SourceHeader     = "header"
	SourceCookie     = "cookie"
	SourceConfig     = "config"
	SourceMembership = "membership"
	SourceBootstrap  = "bootstrap"
)

// Request holds the per-request inputs used to resolve a workspace.
type Request struct {
	Principal  *auth.Principal
	HeaderHint string
	CookieHint string
}

// Resolution is the workspace a request is scoped to.
type Resolution struct {
	WorkspaceID uuid.UUID

	// Membership of the caller in the workspace. Nil only when the workspace
	// was produced by the bootstrapper on an installation without memberships.
	Membership *models.Membership

	Source string
}

// Resolver picks the workspace for a request. An explicit hint is never
// replaced by another workspace: it is either authorized or refused.
type Resolver struct {
	authz        *auth.Authorizer
	memberships  store.MembershipStore
	bootstrapper *Bootstrapper
	configHint   string

	group singleflight.Group
}

// NewResolver creates a resolver.
func NewResolver(authz *auth.Authorizer, memberships store.MembershipStore, bootstrapper *Bootstrapper, cfg config.Config) *Resolver {
	cfg.ApplyDefaults()
	return &Resolver{
		authz:        authz,
		memberships:  memberships,
		bootstrapper: bootstrapper,
		configHint:   cfg.WorkspaceID,
	}
}

// Resolve returns the workspace for req. Hints are tried in order (header,
// cookie, configured default) and the first present one must be authorized.
// Without hints the caller's oldest membership is used. When no memberships
// exist at all the default workspace is bootstrapped.
//
// Errors match auth.ErrUnauthenticated or auth.ErrForbidden when the request
// must be refused; any other error is a storage failure.
func (r *Resolver) Resolve(ctx context.Context, req Request) (*Resolution, error) {
	res, err := r.resolve(ctx, req)
	if err != nil {
		telemetry.GetMetrics().WorkspaceDenialsTotal.Add(ctx, 1)
		return nil, err
	}

	telemetry.GetMetrics().WorkspaceResolutionsTotal.Add(ctx, 1,
		metric.WithAttributes(attribute.String("source", res.Source)))

	zerolog.Ctx(ctx).Debug().
		Str("workspace_id", res.WorkspaceID.String()).
		Str("source", res.Source).
		Msg("Resolved workspace")

	return res, nil
}

func (r *Resolver) resolve(ctx context.Context, req Request) (*Resolution, error) {
	if req.Principal == nil {
		return nil, auth.ErrUnauthenticated
	}

	hints := []struct {
		source string
		value  string
	}{
		{SourceHeader, req.HeaderHint},
		{SourceCookie, req.CookieHint},
		{SourceConfig, r.configHint},
	}

	for _, hint := range hints {
		if hint.value == "" {
			continue
		}

		id, err := uuid.Parse(hint.value)
		if err != nil {
			return nil, fmt.Errorf("%w: malformed %s workspace hint", auth.ErrForbidden, hint.source)
		}

		m, err := r.authz.Authorize(ctx, id, req.Principal.ID)
		if err != nil {
			return nil, err
		}

		return &Resolution{WorkspaceID: id, Membership: m, Source: hint.source}, nil
	}

	memberships, err := r.memberships.ListByUser(ctx, req.Principal.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list memberships: %w", err)
	}
	if len(memberships) > 0 {
		return &Resolution{WorkspaceID: memberships[0].WorkspaceID, Membership: memberships[0], Source: SourceMembership}, nil
	}

	count, err := r.memberships.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count memberships: %w", err)
	}
	if count > 0 {
		return nil, fmt.Errorf("%w: %w", auth.ErrForbidden, auth.ErrNotMember)
	}

	// A cancelled caller must not fail the other requests sharing this bootstrap.
	v, err, _ := r.group.Do("bootstrap", func() (any, error) {
		return r.bootstrapper.EnsureDefault(context.WithoutCancel(ctx))
	})
	if err != nil {
		return nil, err
	}

	return &Resolution{WorkspaceID: v.(uuid.UUID), Source: SourceBootstrap}, nil
}
