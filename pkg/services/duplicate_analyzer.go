package services

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/apimesh/apimesh-engine/pkg/models"
	"github.com/apimesh/apimesh-engine/pkg/repositories"
)

// DuplicateAnalyzer reports duplicate operation groups without touching them.
// Callers typically run it before a deduplication pass to inspect what a
// live run would collapse.
type DuplicateAnalyzer interface {
	// Analyze groups all stored operations by name and reports every group
	// with more than one member, plus corpus-level totals. Pure read.
	Analyze(ctx context.Context) (*models.AnalysisReport, error)
}

type duplicateAnalyzer struct {
	operationRepo repositories.OperationRepository
	logger        *zap.Logger
}

// NewDuplicateAnalyzer creates a new DuplicateAnalyzer.
func NewDuplicateAnalyzer(operationRepo repositories.OperationRepository, logger *zap.Logger) DuplicateAnalyzer {
	return &duplicateAnalyzer{
		operationRepo: operationRepo,
		logger:        logger.Named("duplicate-analyzer"),
	}
}

var _ DuplicateAnalyzer = (*duplicateAnalyzer)(nil)

func (a *duplicateAnalyzer) Analyze(ctx context.Context) (*models.AnalysisReport, error) {
	total, err := a.operationRepo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count operations: %w", err)
	}

	groups, err := a.operationRepo.GroupsByName(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load duplicate groups: %w", err)
	}

	report := &models.AnalysisReport{
		TotalOperations: total,
		DuplicateGroups: make([]models.DuplicateGroup, 0, len(groups)),
	}

	for _, group := range groups {
		report.DuplicateGroups = append(report.DuplicateGroups, summarizeGroup(group))
		report.TotalDuplicates += len(group.Members) - 1
	}
	report.TotalGroups = len(groups)
	if total > 0 {
		report.PercentDuplicated = float64(report.TotalDuplicates) / float64(total)
	}

	a.logger.Debug("Duplicate analysis complete",
		zap.Int("total_operations", total),
		zap.Int("groups", report.TotalGroups),
		zap.Int("duplicates", report.TotalDuplicates))

	return report, nil
}

// summarizeGroup builds the per-group report entry: distinct categories,
// vendors and types, and members ordered import-first then most recently
// updated first.
func summarizeGroup(group *repositories.OperationGroup) models.DuplicateGroup {
	g := models.DuplicateGroup{
		Name:       group.Name,
		Count:      len(group.Members),
		Categories: distinctValues(group.Members, func(o *models.Operation) string { return o.Category }),
		Vendors:    distinctValues(group.Members, func(o *models.Operation) string { return o.Vendor }),
		Types:      distinctValues(group.Members, func(o *models.Operation) string { return o.Type }),
	}

	members := make([]*models.Operation, len(group.Members))
	copy(members, group.Members)
	sort.SliceStable(members, func(i, j int) bool {
		iImport := members[i].Source == models.SourceImport
		jImport := members[j].Source == models.SourceImport
		if iImport != jImport {
			return iImport
		}
		return members[i].EffectiveTime().After(members[j].EffectiveTime())
	})

	g.Members = make([]models.MemberSummary, 0, len(members))
	for _, m := range members {
		g.Members = append(g.Members, summarizeMember(m))
	}

	return g
}

func summarizeMember(o *models.Operation) models.MemberSummary {
	return models.MemberSummary{
		ID:        o.ID,
		Category:  o.Category,
		Vendor:    o.Vendor,
		Type:      o.Type,
		Source:    o.Source,
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}
}

// distinctValues collects non-empty distinct field values in first-seen order.
func distinctValues(members []*models.Operation, field func(*models.Operation) string) []string {
	seen := map[string]bool{}
	var values []string
	for _, m := range members {
		v := field(m)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		values = append(values, v)
	}
	return values
}
