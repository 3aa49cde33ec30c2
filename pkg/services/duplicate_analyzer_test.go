package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/apimesh/apimesh-engine/pkg/models"
)

func TestDuplicateAnalyzer_Analyze(t *testing.T) {
	base := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	ops := []*models.Operation{
		{ID: uuid.New(), Name: "GetCard", Type: models.OperationTypeQuery, Category: "cards", Vendor: "Acme", Source: models.SourceImport, CreatedAt: base},
		{ID: uuid.New(), Name: "GetCard", Type: models.OperationTypeQuery, Category: "payments", Vendor: "Acme", Source: models.SourceManual, CreatedAt: base.Add(time.Hour)},
		{ID: uuid.New(), Name: "GetCard", Type: models.OperationTypeMutation, Category: "cards", Vendor: "Globex", Source: models.SourceManual, CreatedAt: base.Add(2 * time.Hour)},
		{ID: uuid.New(), Name: "ListCards", Type: models.OperationTypeQuery, Source: models.SourceManual, CreatedAt: base},
		{ID: uuid.New(), Name: "ListCards", Type: models.OperationTypeQuery, Source: models.SourceManual, CreatedAt: base.Add(time.Minute)},
		{ID: uuid.New(), Name: "CreateCard", Type: models.OperationTypeMutation, Source: models.SourceManual, CreatedAt: base},
	}
	repo := &mockOperationRepo{ops: ops}
	analyzer := NewDuplicateAnalyzer(repo, zap.NewNop())

	report, err := analyzer.Analyze(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 6, report.TotalOperations)
	assert.Equal(t, 2, report.TotalGroups)
	assert.Equal(t, 3, report.TotalDuplicates)
	assert.InDelta(t, 0.5, report.PercentDuplicated, 0.0001)
	require.Len(t, report.DuplicateGroups, 2)

	// Groups come back in name order; CreateCard is a singleton and excluded.
	getCard := report.DuplicateGroups[0]
	assert.Equal(t, "GetCard", getCard.Name)
	assert.Equal(t, 3, getCard.Count)
	assert.Equal(t, []string{"cards", "payments"}, getCard.Categories)
	assert.Equal(t, []string{"Acme", "Globex"}, getCard.Vendors)
	assert.Equal(t, []string{"query", "mutation"}, getCard.Types)

	assert.Equal(t, "ListCards", report.DuplicateGroups[1].Name)
	assert.Equal(t, 2, report.DuplicateGroups[1].Count)
}

func TestDuplicateAnalyzer_MemberOrdering(t *testing.T) {
	base := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	imported := &models.Operation{
		ID: uuid.New(), Name: "GetCard", Type: models.OperationTypeQuery,
		Source: models.SourceImport, CreatedAt: base,
	}
	older := &models.Operation{
		ID: uuid.New(), Name: "GetCard", Type: models.OperationTypeQuery,
		Source: models.SourceManual, CreatedAt: base.Add(time.Hour),
	}
	newer := &models.Operation{
		ID: uuid.New(), Name: "GetCard", Type: models.OperationTypeQuery,
		Source: models.SourceManual, CreatedAt: base.Add(2 * time.Hour),
	}
	repo := &mockOperationRepo{ops: []*models.Operation{older, newer, imported}}
	analyzer := NewDuplicateAnalyzer(repo, zap.NewNop())

	report, err := analyzer.Analyze(context.Background())
	require.NoError(t, err)
	require.Len(t, report.DuplicateGroups, 1)

	// Import-sourced members first, then most recently updated first.
	members := report.DuplicateGroups[0].Members
	require.Len(t, members, 3)
	assert.Equal(t, imported.ID, members[0].ID)
	assert.Equal(t, newer.ID, members[1].ID)
	assert.Equal(t, older.ID, members[2].ID)
}

func TestDuplicateAnalyzer_EmptyStore(t *testing.T) {
	repo := &mockOperationRepo{}
	analyzer := NewDuplicateAnalyzer(repo, zap.NewNop())

	report, err := analyzer.Analyze(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, report.TotalOperations)
	assert.Equal(t, 0, report.TotalGroups)
	assert.Equal(t, 0, report.TotalDuplicates)
	assert.Zero(t, report.PercentDuplicated)
	assert.Empty(t, report.DuplicateGroups)
}

func TestDuplicateAnalyzer_NoDuplicates(t *testing.T) {
	base := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	repo := &mockOperationRepo{ops: []*models.Operation{
		{ID: uuid.New(), Name: "A", Type: models.OperationTypeQuery, Source: models.SourceManual, CreatedAt: base},
		{ID: uuid.New(), Name: "B", Type: models.OperationTypeQuery, Source: models.SourceManual, CreatedAt: base},
	}}
	analyzer := NewDuplicateAnalyzer(repo, zap.NewNop())

	report, err := analyzer.Analyze(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, report.TotalOperations)
	assert.Equal(t, 0, report.TotalGroups)
	assert.Zero(t, report.PercentDuplicated)
}

func TestDuplicateAnalyzer_CountError(t *testing.T) {
	repo := &mockOperationRepo{countErr: fmt.Errorf("connection refused")}
	analyzer := NewDuplicateAnalyzer(repo, zap.NewNop())

	_, err := analyzer.Analyze(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}
