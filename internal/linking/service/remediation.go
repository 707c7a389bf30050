package service

import (
	"context"
	"slices"
	"strings"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"squadlink/internal/linking/models"
)

// FindAndFixMisassignedPrimaries re-runs the election for every identity
// holding more than one link.
//
// Identities are resolved concurrently; each takes only its own lock. An
// identity that stays locked through every retry is reported in Conflicts
// and left for the next pass. Any other error aborts the pass. Running the
// pass twice in a row yields an equal report and writes no new audit
// entries the second time; only Reelected differs.
func (s *Service) FindAndFixMisassignedPrimaries(ctx context.Context) (*models.RemediationRun, error) {
	ctx, span := s.tracer.Start(ctx, "linking.FindAndFixMisassignedPrimaries")
	defer span.End()

	ids, err := s.links.ListMultiLinkIdentities(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list identities failed")
		return nil, translate(err, "list multi-link identities")
	}

	var (
		mu     sync.Mutex
		run    = &models.RemediationRun{Report: models.RemediationReport{Scanned: len(ids)}}
		report = &run.Report
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, id := range ids {
		g.Go(func() error {
			result, err := s.ResolveWithRetry(gctx, id)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if isConflict(err) {
					report.Conflicts = append(report.Conflicts, id)
					return nil
				}
				return err
			}
			if result.Changed() {
				run.Reelected = append(run.Reelected, id)
			}
			if result.SecurityFinding != nil {
				report.Findings = append(report.Findings, *result.SecurityFinding)
			}
			if result.SecurityCheckSkipped {
				report.Skipped = append(report.Skipped, id)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "remediation aborted")
		s.logger.ErrorContext(ctx, "remediation pass aborted", "error", err)
		return nil, translate(err, "remediation pass")
	}

	slices.Sort(run.Reelected)
	slices.Sort(report.Skipped)
	slices.Sort(report.Conflicts)
	slices.SortFunc(report.Findings, func(a, b models.SecurityFinding) int {
		return strings.Compare(a.DiscordUserID, b.DiscordUserID)
	})

	s.metrics.IncRemediationRun()
	span.SetAttributes(
		attribute.Int("scanned", report.Scanned),
		attribute.Int("reelected", len(run.Reelected)),
		attribute.Int("findings", len(report.Findings)),
	)
	s.logger.InfoContext(ctx, "remediation pass complete",
		"scanned", report.Scanned,
		"reelected", len(run.Reelected),
		"findings", len(report.Findings),
		"skipped", len(report.Skipped),
		"conflicts", len(report.Conflicts),
	)
	return run, nil
}
