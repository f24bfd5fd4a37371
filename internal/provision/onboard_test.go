package provision

import (
	"context"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/orionpulse/orionpulse/internal/auth"
	"github.com/orionpulse/orionpulse/internal/config"
	"github.com/orionpulse/orionpulse/internal/models"
	"github.com/orionpulse/orionpulse/internal/store"
	"github.com/orionpulse/orionpulse/internal/store/memory"
	"github.com/stretchr/testify/require"
)

type onboardFixture struct {
	workspaces  *memory.WorkspaceStore
	memberships *memory.MembershipStore
	principals  *memory.PrincipalStore
	onboarder   *Onboarder
	clock       *clock.Mock
}

func newOnboardFixture() *onboardFixture {
	mock := clock.NewMock()
	mock.Set(time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC))

	f := &onboardFixture{
		workspaces:  memory.NewWorkspaceStore(),
		memberships: memory.NewMembershipStore(),
		principals:  memory.NewPrincipalStore(),
		clock:       mock,
	}
	f.onboarder = NewOnboarder(f.workspaces, f.memberships, f.principals, config.Config{}).WithClock(mock)
	return f
}

func TestOnboard_BootstrapMode(t *testing.T) {
	ctx := context.Background()
	f := newOnboardFixture()
	operator := uuid.New()

	res, err := f.onboarder.Onboard(ctx, Request{OperatorID: operator, MemberEmail: "lea.martin@example.com"})
	require.NoError(t, err)
	require.True(t, res.Bootstrap)
	require.Equal(t, operator, res.MemberID)
	require.Equal(t, models.RoleOperator, res.Role)
	require.Equal(t, config.DefaultTerritories, res.Territories)

	ws, err := f.workspaces.Get(ctx, res.WorkspaceID)
	require.NoError(t, err)
	require.Equal(t, config.DefaultWorkspaceName, ws.Name)
	require.Regexp(t, `^orionpulse-hq-[0-9a-f]{8}$`, ws.Slug)
	require.Nil(t, ws.BootstrapKey)

	p, err := f.principals.Get(ctx, operator)
	require.NoError(t, err)
	require.Equal(t, "lea.martin", p.FullName)

	m, err := f.memberships.Get(ctx, res.WorkspaceID, operator)
	require.NoError(t, err)
	require.Equal(t, models.RoleOperator, m.Role)
}

func TestOnboard_OperatorProvisionsMember(t *testing.T) {
	ctx := context.Background()
	f := newOnboardFixture()
	operator := uuid.New()

	first, err := f.onboarder.Onboard(ctx, Request{OperatorID: operator, MemberEmail: "ops@example.com"})
	require.NoError(t, err)

	member := uuid.New()
	res, err := f.onboarder.Onboard(ctx, Request{
		OperatorID:    operator,
		MemberID:      member,
		MemberEmail:   "jean@example.com",
		MemberRole:    models.RoleMember,
		WorkspaceName: "Guadeloupe Retail",
		Territories:   []string{"GP"},
	})
	require.NoError(t, err)
	require.False(t, res.Bootstrap)
	require.NotEqual(t, first.WorkspaceID, res.WorkspaceID)
	require.Regexp(t, `^guadeloupe-retail-[0-9a-f]{8}$`, res.Slug)

	m, err := f.memberships.Get(ctx, res.WorkspaceID, member)
	require.NoError(t, err)
	require.Equal(t, models.RoleMember, m.Role)
	require.Equal(t, []string{"GP"}, m.Territories)
}

func TestOnboard_Rejections(t *testing.T) {
	ctx := context.Background()

	t.Run("non-operator once memberships exist", func(t *testing.T) {
		f := newOnboardFixture()
		_, err := f.onboarder.Onboard(ctx, Request{OperatorID: uuid.New(), MemberEmail: "ops@example.com"})
		require.NoError(t, err)

		_, err = f.onboarder.Onboard(ctx, Request{OperatorID: uuid.New(), MemberEmail: "x@example.com"})
		require.ErrorIs(t, err, auth.ErrForbidden)
		require.ErrorIs(t, err, auth.ErrRoleRequired)
	})

	t.Run("unknown member without email", func(t *testing.T) {
		f := newOnboardFixture()
		_, err := f.onboarder.Onboard(ctx, Request{OperatorID: uuid.New()})
		require.ErrorIs(t, err, ErrEmailRequired)

		_, err = f.workspaces.Oldest(ctx)
		require.ErrorIs(t, err, store.ErrWorkspaceNotFound)
	})

	t.Run("invalid role", func(t *testing.T) {
		f := newOnboardFixture()
		_, err := f.onboarder.Onboard(ctx, Request{OperatorID: uuid.New(), MemberRole: "owner"})
		require.ErrorIs(t, err, ErrInvalidRole)
	})

	t.Run("missing operator", func(t *testing.T) {
		f := newOnboardFixture()
		_, err := f.onboarder.Onboard(ctx, Request{})
		require.ErrorIs(t, err, ErrOperatorRequired)
	})
}

func TestOnboard_ExistingPrincipalNeedsNoEmail(t *testing.T) {
	ctx := context.Background()
	f := newOnboardFixture()
	operator := uuid.New()
	require.NoError(t, f.principals.Create(ctx, &models.Principal{ID: operator, Email: "ops@example.com", FullName: "Ops"}))

	_, err := f.onboarder.Onboard(ctx, Request{OperatorID: operator})
	require.NoError(t, err)

	p, err := f.principals.Get(ctx, operator)
	require.NoError(t, err)
	require.Equal(t, "Ops", p.FullName)
}
