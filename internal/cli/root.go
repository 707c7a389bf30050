// Package cli implements linkctl, the operator command line for the link
// engine.
package cli

import (
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"squadlink/internal/linking/models"
	"squadlink/pkg/platform/audit"
	"squadlink/pkg/requestcontext"
)

// Engine is the part of the link service linkctl drives.
type Engine interface {
	ResolvePrimary(ctx context.Context, discordUserID string) (*models.ResolutionResult, error)
	FindAndFixMisassignedPrimaries(ctx context.Context) (*models.RemediationRun, error)
	DetectAnomalies(ctx context.Context, discordUserID string) ([]models.Anomaly, error)
	QueryAudit(ctx context.Context, q audit.Query) ([]*audit.Entry, error)
}

// Connector builds an Engine for one command run. The returned func releases
// its connections.
type Connector func(ctx context.Context) (Engine, func(), error)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Format  string
	ActorID string
	connect Connector
}

var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the linkctl root command.
func NewRootCommand(connect Connector) *cobra.Command {
	opts := &RootOptions{connect: connect}

	cmd := &cobra.Command{
		Use:   "linkctl",
		Short: "Operate the squadlink identity link engine",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ActorID, "actor", "linkctl", "actor id recorded in audit entries")

	cmd.AddCommand(newRemediateCommand(opts))
	cmd.AddCommand(newResolveCommand(opts))
	cmd.AddCommand(newVerifyCommand(opts))
	cmd.AddCommand(newAuditCommand(opts))
	return cmd
}

// withEngine connects, tags the context with the job actor and runs fn.
func (o *RootOptions) withEngine(cmd *cobra.Command, fn func(ctx context.Context, e Engine) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = requestcontext.WithActor(ctx, audit.ActorScheduledJob, o.ActorID)
	ctx = requestcontext.WithRequestID(ctx, "linkctl-"+uuid.NewString())

	engine, closeFn, err := o.connect(ctx)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer closeFn()
	return fn(ctx, engine)
}
