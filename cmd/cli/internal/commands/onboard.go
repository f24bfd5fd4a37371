package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/orionpulse/orionpulse/internal/config"
	"github.com/orionpulse/orionpulse/internal/provision"
	"github.com/orionpulse/orionpulse/internal/store/backend"
)

type OnboardCmd struct {
	Operator      string `help:"Operator principal ID (uuid)" required:""`
	Member        string `help:"Member principal ID (uuid), defaults to the operator" default:""`
	MemberEmail   string `help:"Member email, required when the member does not exist yet" default:""`
	MemberRole    string `help:"Member role" default:"operator" enum:"admin,operator,member"`
	WorkspaceName string `help:"Workspace name, defaults to the default workspace name" default:""`
	Territories   string `help:"Comma separated territories, defaults to the default territories" default:""`

	Workspace WorkspaceFlags `embed:""`
	Store     StoreFlags     `embed:""`
}

func (o *OnboardCmd) Run(ctx context.Context) error {
	cfg, err := o.Workspace.Config()
	if err != nil {
		return err
	}

	stores, err := backend.Open(ctx, o.Store.StoreType, o.Store.PostgresStore)
	if err != nil {
		return err
	}
	defer stores.Close()

	onboarder := provision.NewOnboarder(stores.Workspaces, stores.Memberships, stores.Principals, cfg)
	return o.run(ctx, os.Stdout, onboarder)
}

func (o *OnboardCmd) run(ctx context.Context, out io.Writer, onboarder *provision.Onboarder) error {
	req, err := o.request()
	if err != nil {
		return err
	}

	res, err := onboarder.Onboard(ctx, req)
	if err != nil {
		return fmt.Errorf("onboarding failed: %w", err)
	}

	territories := strings.Join(res.Territories, ", ")
	if territories == "" {
		territories = "global"
	}

	if res.Bootstrap {
		fmt.Fprintln(out, "No membership existed: provisioned in bootstrap mode, verify operator rights.")
	}
	fmt.Fprintf(out, "Workspace provisioned: %s (%s)\n", res.WorkspaceID, res.Slug)
	fmt.Fprintf(out, "Member %s (%s) registered with territories [%s]\n", res.MemberID, res.Role, territories)
	return nil
}

func (o *OnboardCmd) request() (provision.Request, error) {
	operator, err := uuid.Parse(o.Operator)
	if err != nil {
		return provision.Request{}, fmt.Errorf("invalid operator %q: %w", o.Operator, err)
	}

	req := provision.Request{
		OperatorID:    operator,
		MemberEmail:   o.MemberEmail,
		MemberRole:    o.MemberRole,
		WorkspaceName: o.WorkspaceName,
		Territories:   config.ParseTerritories(o.Territories),
	}
	if o.Member != "" {
		member, err := uuid.Parse(o.Member)
		if err != nil {
			return provision.Request{}, fmt.Errorf("invalid member %q: %w", o.Member, err)
		}
		req.MemberID = member
	}
	return req, nil
}
