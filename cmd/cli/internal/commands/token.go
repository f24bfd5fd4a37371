package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/orionpulse/orionpulse/internal/auth"
)

type TokenCmd struct {
	Subject    string        `help:"Principal ID (uuid)" required:""`
	Email      string        `help:"Principal email" default:""`
	TTL        time.Duration `help:"Token lifetime" default:"1h"`
	SigningKey string        `help:"JWT signing key" required:"" env:"ORIONPULSE_JWT_SECRET"`
}

func (t *TokenCmd) Run(ctx context.Context) error {
	return t.run(os.Stdout, time.Now())
}

func (t *TokenCmd) run(out io.Writer, now time.Time) error {
	subject, err := uuid.Parse(t.Subject)
	if err != nil {
		return fmt.Errorf("invalid subject %q: %w", t.Subject, err)
	}

	token, err := auth.IssueToken(t.SigningKey, subject, t.Email, now, t.TTL)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(out, token)
	return err
}
