package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/apimesh/apimesh-engine/pkg/models"
	"github.com/apimesh/apimesh-engine/pkg/repositories"
)

// DedupService collapses duplicate operation groups: per group it selects a
// survivor under the requested strategy, merges every member's metadata into
// it, rewrites the survivor, and deletes the rest.
//
// Runs are a single synchronous pass with no internal parallelism and no
// cross-group transactionality. Survivor update and duplicate deletion are
// NOT atomic per group: a failure between the two can leave a group half
// applied. Re-running is safe (the merge is idempotent and deleting an
// already-removed record is a no-op), so callers recover by running again.
// Concurrent runs against the same store are not protected; invoke this as
// a low-frequency administrative batch and serialize externally if needed.
type DedupService interface {
	// Deduplicate processes all duplicate groups under the given strategy.
	// An empty strategy selects keep-newest; an unknown one fails before
	// any group is touched. With dryRun the full plan is computed and
	// reported but nothing is written.
	Deduplicate(ctx context.Context, strategy string, dryRun bool) (*models.DeduplicationReport, error)
}

type dedupService struct {
	operationRepo repositories.OperationRepository
	logger        *zap.Logger
}

// NewDedupService creates a new DedupService.
func NewDedupService(operationRepo repositories.OperationRepository, logger *zap.Logger) DedupService {
	return &dedupService{
		operationRepo: operationRepo,
		logger:        logger.Named("dedup-service"),
	}
}

var _ DedupService = (*dedupService)(nil)

func (s *dedupService) Deduplicate(ctx context.Context, strategy string, dryRun bool) (*models.DeduplicationReport, error) {
	strat, err := ParseStrategy(strategy)
	if err != nil {
		return nil, err
	}

	groups, err := s.operationRepo.GroupsByName(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load duplicate groups: %w", err)
	}

	report := &models.DeduplicationReport{
		DryRun:   dryRun,
		Strategy: string(strat),
	}
	report.Results.Details = make([]models.GroupDetail, 0, len(groups))

	s.logger.Info("Starting deduplication run",
		zap.String("strategy", string(strat)),
		zap.Bool("dry_run", dryRun),
		zap.Int("groups", len(groups)))

	for _, group := range groups {
		report.Results.Processed++

		detail, removedIDs, survivor, err := s.planGroup(group, strat)
		if err != nil {
			// A malformed group is skipped; the run continues.
			report.Results.Errors++
			s.logger.Warn("Skipping duplicate group",
				zap.String("group", group.Name),
				zap.Error(err))
			continue
		}

		if !dryRun {
			if err := s.applyGroup(ctx, survivor, removedIDs); err != nil {
				// Store failures are infrastructure errors: abort the rest
				// of the run, groups already applied stay applied.
				return nil, fmt.Errorf("failed to apply group %q: %w", group.Name, err)
			}
		}

		report.Results.Kept++
		report.Results.Removed += len(removedIDs)
		report.Results.Details = append(report.Results.Details, *detail)
	}

	s.logger.Info("Deduplication run complete",
		zap.String("strategy", string(strat)),
		zap.Bool("dry_run", dryRun),
		zap.Int("kept", report.Results.Kept),
		zap.Int("removed", report.Results.Removed),
		zap.Int("errors", report.Results.Errors))

	return report, nil
}

// planGroup selects the survivor and computes the merge for one group.
// It mutates only the in-memory survivor; persisting is the caller's call.
func (s *dedupService) planGroup(group *repositories.OperationGroup, strat Strategy) (*models.GroupDetail, []uuid.UUID, *models.Operation, error) {
	if len(group.Members) < 2 {
		return nil, nil, nil, fmt.Errorf("group %q has %d members", group.Name, len(group.Members))
	}

	survivor := selectSurvivor(group.Members, strat)

	merged, err := mergeGroup(survivor, group.Members)
	if err != nil {
		return nil, nil, nil, err
	}
	applyMergedFields(survivor, merged)

	detail := &models.GroupDetail{
		Group:          group.Name,
		Kept:           summarizeMember(survivor),
		MergedMetadata: merged.Metadata,
	}

	removedIDs := make([]uuid.UUID, 0, len(group.Members)-1)
	for _, m := range group.Members {
		if m.ID == survivor.ID {
			continue
		}
		removedIDs = append(removedIDs, m.ID)
		detail.Removed = append(detail.Removed, summarizeMember(m))
	}

	return detail, removedIDs, survivor, nil
}

// applyGroup persists one group's plan: survivor first, then the bulk
// delete. Deliberately not wrapped in a transaction (at-least-once
// semantics, see DedupService doc).
func (s *dedupService) applyGroup(ctx context.Context, survivor *models.Operation, removedIDs []uuid.UUID) error {
	now := time.Now()
	survivor.UpdatedAt = &now

	if err := s.operationRepo.Update(ctx, survivor); err != nil {
		return fmt.Errorf("update survivor %s: %w", survivor.ID, err)
	}

	deleted, err := s.operationRepo.DeleteMany(ctx, removedIDs)
	if err != nil {
		return fmt.Errorf("delete duplicates: %w", err)
	}
	if deleted != int64(len(removedIDs)) {
		// Tolerated: another run may have removed some already.
		s.logger.Debug("Bulk delete removed fewer records than planned",
			zap.Int64("deleted", deleted),
			zap.Int("planned", len(removedIDs)))
	}

	return nil
}
