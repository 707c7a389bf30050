package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"squadlink/internal/linking/models"
	"squadlink/pkg/platform/audit"
)

// ErrAnomaliesFound makes verify exit non-zero when it reports anything.
var ErrAnomaliesFound = errors.New("anomalies found")

func newRemediateCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "remediate",
		Short: "Re-run primary election for every identity with more than one link",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withEngine(cmd, func(ctx context.Context, e Engine) error {
				run, err := e.FindAndFixMisassignedPrimaries(ctx)
				if err != nil {
					return err
				}
				out := newOutput(cmd, opts.Format)
				if out.json() {
					return out.writeJSON(run)
				}
				report := run.Report
				out.printf("scanned %d identities\n", report.Scanned)
				out.list("re-elected", run.Reelected)
				for _, f := range report.Findings {
					out.printf("SECURITY FINDING %s: primary link %s confidence %.2f below floor %.2f\n",
						f.DiscordUserID, f.LinkID, f.ConfidenceScore, f.Floor)
				}
				out.list("privilege check skipped", report.Skipped)
				out.list("busy, retry later", report.Conflicts)
				return nil
			})
		},
	}
}

func newResolveCommand(opts *RootOptions) *cobra.Command {
	var discordID string
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Run primary election for one identity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withEngine(cmd, func(ctx context.Context, e Engine) error {
				res, err := e.ResolvePrimary(ctx, discordID)
				if err != nil {
					return err
				}
				out := newOutput(cmd, opts.Format)
				if out.json() {
					return out.writeJSON(res)
				}
				printResolution(out, res)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&discordID, "discord-id", "", "Discord user ID")
	_ = cmd.MarkFlagRequired("discord-id")
	return cmd
}

func printResolution(out *output, res *models.ResolutionResult) {
	switch {
	case res.NoPrimary:
		out.printf("%s: no links, no primary\n", res.DiscordUserID)
	case res.Primary != nil:
		out.printf("%s: primary %s (confidence %.2f, source %s)\n",
			res.DiscordUserID, res.Primary.ID, res.Primary.ConfidenceScore, res.Primary.Source)
	}
	for _, f := range res.Flips {
		out.printf("  flipped %s: %t -> %t\n", f.LinkID, f.WasPrimary, f.IsPrimary)
	}
	if res.SecurityFinding != nil {
		out.printf("  SECURITY FINDING: confidence %.2f below floor %.2f\n",
			res.SecurityFinding.ConfidenceScore, res.SecurityFinding.Floor)
	}
	if res.SecurityCheckSkipped {
		out.printf("  privilege check skipped: guard unavailable\n")
	}
}

func newVerifyCommand(opts *RootOptions) *cobra.Command {
	var discordID string
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check an identity's links against its audit hash chain",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withEngine(cmd, func(ctx context.Context, e Engine) error {
				anomalies, err := e.DetectAnomalies(ctx, discordID)
				if err != nil {
					return err
				}
				out := newOutput(cmd, opts.Format)
				if out.json() {
					if err := out.writeJSON(map[string]any{"anomalies": anomalies}); err != nil {
						return err
					}
				} else if len(anomalies) == 0 {
					out.printf("%s: audit trail consistent\n", discordID)
				} else {
					for _, a := range anomalies {
						out.printf("%s: %s: %s\n", discordID, a.Kind, a.Detail)
					}
				}
				if len(anomalies) > 0 {
					return fmt.Errorf("%w: %d", ErrAnomaliesFound, len(anomalies))
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&discordID, "discord-id", "", "Discord user ID")
	_ = cmd.MarkFlagRequired("discord-id")
	return cmd
}

func newAuditCommand(opts *RootOptions) *cobra.Command {
	var (
		discordID string
		action    string
		since     time.Duration
		limit     int
	)
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "List audit entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withEngine(cmd, func(ctx context.Context, e Engine) error {
				q := audit.Query{
					TargetID: discordID,
					Action:   audit.ActionType(action),
					Limit:    limit,
				}
				if discordID != "" {
					q.TargetType = audit.TargetDiscordUser
				}
				if since > 0 {
					q.Since = time.Now().Add(-since)
				}
				entries, err := e.QueryAudit(ctx, q)
				if err != nil {
					return err
				}
				out := newOutput(cmd, opts.Format)
				if out.json() {
					return out.writeJSON(entries)
				}
				for _, en := range entries {
					out.printf("%s  #%d  %-16s %-8s %s/%s by %s:%s\n",
						en.CreatedAt.Format(time.RFC3339), en.Seq, en.ActionType, en.Severity,
						en.TargetType, en.TargetID, en.ActorType, en.ActorID)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&discordID, "discord-id", "", "only entries for this Discord user")
	cmd.Flags().StringVar(&action, "action", "", "only entries with this action type")
	cmd.Flags().DurationVar(&since, "since", 0, "only entries newer than this")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum entries")
	return cmd
}
