package provision

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/orionpulse/orionpulse/internal/auth"
	"github.com/orionpulse/orionpulse/internal/config"
	"github.com/orionpulse/orionpulse/internal/models"
	"github.com/orionpulse/orionpulse/internal/store"
	"github.com/orionpulse/orionpulse/internal/workspace"
	"github.com/rs/zerolog/log"
)

var (
	ErrOperatorRequired = errors.New("operator ID is required")
	ErrEmailRequired    = errors.New("member email is required to create a principal")
	ErrInvalidRole      = errors.New("invalid membership role")
)

// Request describes a workspace to provision and its first member.
type Request struct {
	OperatorID    uuid.UUID
	MemberID      uuid.UUID // Defaults to OperatorID
	MemberEmail   string    // Required only when the member does not exist yet
	MemberRole    string    // Defaults to operator
	WorkspaceName string    // Defaults to the configured default workspace name
	Territories   []string  // Defaults to the configured default territories
}

// Result describes a provisioned workspace.
type Result struct {
	WorkspaceID uuid.UUID
	Slug        string
	MemberID    uuid.UUID
	Role        string
	Territories []string
	Bootstrap   bool // Provisioned without operator rights because no membership existed
}

// Onboarder provisions workspaces and their first member.
type Onboarder struct {
	workspaces  store.WorkspaceStore
	memberships store.MembershipStore
	principals  store.PrincipalStore
	name        string
	territories []string
	clock       clock.Clock
}

// NewOnboarder creates an onboarder. Defaults for the workspace name and
// territories come from cfg.
func NewOnboarder(workspaces store.WorkspaceStore, memberships store.MembershipStore, principals store.PrincipalStore, cfg config.Config) *Onboarder {
	cfg.ApplyDefaults()
	return &Onboarder{
		workspaces:  workspaces,
		memberships: memberships,
		principals:  principals,
		name:        cfg.DefaultWorkspaceName,
		territories: cfg.DefaultTerritories,
		clock:       clock.New(),
	}
}

// WithClock replaces the clock used for creation timestamps.
func (o *Onboarder) WithClock(c clock.Clock) *Onboarder {
	o.clock = c
	return o
}

// Onboard creates a new workspace and grants the member a role on it.
// The operator must hold the operator role on some workspace, unless no
// membership exists at all.
func (o *Onboarder) Onboard(ctx context.Context, req Request) (*Result, error) {
	if req.OperatorID == uuid.Nil {
		return nil, ErrOperatorRequired
	}
	if req.MemberID == uuid.Nil {
		req.MemberID = req.OperatorID
	}
	if req.MemberRole == "" {
		req.MemberRole = models.RoleOperator
	}
	if !models.ValidRole(req.MemberRole) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRole, req.MemberRole)
	}
	if strings.TrimSpace(req.WorkspaceName) == "" {
		req.WorkspaceName = o.name
	}
	if len(req.Territories) == 0 {
		req.Territories = o.territories
	}

	bootstrap, err := o.checkOperator(ctx, req.OperatorID)
	if err != nil {
		return nil, err
	}

	if err := o.ensurePrincipal(ctx, req.MemberID, req.MemberEmail); err != nil {
		return nil, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate workspace ID: %w", err)
	}

	now := o.clock.Now().UTC()
	ws := &models.Workspace{
		ID:          id,
		Name:        strings.TrimSpace(req.WorkspaceName),
		Slug:        workspace.NewSlug(req.WorkspaceName),
		Territories: req.Territories,
		CreatedAt:   now,
	}
	if err := o.workspaces.Create(ctx, ws); err != nil {
		return nil, fmt.Errorf("failed to create workspace: %w", err)
	}

	membership := &models.Membership{
		WorkspaceID: ws.ID,
		UserID:      req.MemberID,
		Role:        req.MemberRole,
		Territories: req.Territories,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := o.memberships.Upsert(ctx, membership); err != nil {
		return nil, fmt.Errorf("failed to assign membership: %w", err)
	}

	log.Info().
		Str("workspace_id", ws.ID.String()).
		Str("slug", ws.Slug).
		Str("member_id", req.MemberID.String()).
		Str("role", req.MemberRole).
		Strs("territories", req.Territories).
		Msg("Workspace provisioned")

	return &Result{
		WorkspaceID: ws.ID,
		Slug:        ws.Slug,
		MemberID:    req.MemberID,
		Role:        req.MemberRole,
		Territories: req.Territories,
		Bootstrap:   bootstrap,
	}, nil
}

// checkOperator returns true when provisioning is allowed only because no
// membership exists yet.
func (o *Onboarder) checkOperator(ctx context.Context, operatorID uuid.UUID) (bool, error) {
	ok, err := o.memberships.HasRole(ctx, operatorID, models.RoleOperator)
	if err != nil {
		return false, fmt.Errorf("failed to check operator role: %w", err)
	}
	if ok {
		return false, nil
	}

	count, err := o.memberships.Count(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to count memberships: %w", err)
	}
	if count == 0 {
		log.Warn().
			Str("operator_id", operatorID.String()).
			Msg("No membership exists, provisioning in bootstrap mode; verify operator rights afterwards")
		return true, nil
	}

	return false, fmt.Errorf("%w: user %s is not an operator on any workspace: %w", auth.ErrForbidden, operatorID, auth.ErrRoleRequired)
}

func (o *Onboarder) ensurePrincipal(ctx context.Context, id uuid.UUID, email string) error {
	_, err := o.principals.Get(ctx, id)
	if err == nil {
		return nil
	}
	if !errors.Is(err, store.ErrPrincipalNotFound) {
		return fmt.Errorf("failed to get principal: %w", err)
	}

	email = strings.TrimSpace(email)
	if email == "" {
		return fmt.Errorf("principal %s not found: %w", id, ErrEmailRequired)
	}

	localPart, _, _ := strings.Cut(email, "@")
	p := &models.Principal{
		ID:        id,
		Email:     email,
		FullName:  localPart,
		CreatedAt: o.clock.Now().UTC(),
	}
	if err := o.principals.Create(ctx, p); err != nil && !errors.Is(err, store.ErrPrincipalAlreadyExists) {
		return fmt.Errorf("failed to create principal: %w", err)
	}

	log.Info().Str("principal_id", id.String()).Str("email", email).Msg("Principal created")
	return nil
}
