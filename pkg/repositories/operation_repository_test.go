//go:build integration

package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apimesh/apimesh-engine/pkg/models"
	"github.com/apimesh/apimesh-engine/pkg/testhelpers"
)

// operationTestContext holds test dependencies for operation repository tests.
type operationTestContext struct {
	t    *testing.T
	repo OperationRepository
}

func setupOperationTest(t *testing.T) *operationTestContext {
	engineDB := testhelpers.GetEngineDB(t)
	tc := &operationTestContext{
		t:    t,
		repo: NewOperationRepository(engineDB.DB),
	}
	// Each test starts from an empty table.
	_, err := engineDB.DB.Exec(context.Background(), `DELETE FROM engine_operations`)
	require.NoError(t, err)
	return tc
}

func (tc *operationTestContext) create(name, source string, created time.Time) *models.Operation {
	op := &models.Operation{
		Name:      name,
		Type:      models.OperationTypeQuery,
		Source:    source,
		CreatedAt: created,
	}
	require.NoError(tc.t, tc.repo.Create(context.Background(), op))
	return op
}

func TestOperationRepository_CreateAndGet(t *testing.T) {
	tc := setupOperationTest(t)
	ctx := context.Background()

	op := &models.Operation{
		Name:        "GetCard",
		Type:        models.OperationTypeQuery,
		Category:    "cards",
		Vendor:      "Acme",
		Description: "Fetch one card",
		Query:       "query GetCard { card { id } }",
		Variables:   map[string]models.VariableDescriptor{"id": {Type: "ID"}},
		Tags:        []string{"core"},
		Required:    true,
		Source:      models.SourceImport,
		Embedding:   []float32{0.25, -0.5, 0.75},
	}
	require.NoError(t, tc.repo.Create(ctx, op))
	require.NotEqual(t, uuid.Nil, op.ID)

	loaded, err := tc.repo.GetByID(ctx, op.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, op.Name, loaded.Name)
	assert.Equal(t, op.Category, loaded.Category)
	assert.Equal(t, op.Tags, loaded.Tags)
	assert.Equal(t, "ID", loaded.Variables["id"].Type)
	assert.True(t, loaded.Required)
	assert.Equal(t, op.Embedding, loaded.Embedding)
}

func TestOperationRepository_GetByID_Missing(t *testing.T) {
	tc := setupOperationTest(t)

	loaded, err := tc.repo.GetByID(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestOperationRepository_GroupsByName(t *testing.T) {
	tc := setupOperationTest(t)
	base := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)

	tc.create("GetCard", models.SourceImport, base)
	tc.create("GetCard", models.SourceManual, base.Add(time.Hour))
	tc.create("ListCards", models.SourceManual, base)
	tc.create("ListCards", models.SourceManual, base.Add(time.Minute))
	tc.create("Unique", models.SourceManual, base)

	groups, err := tc.repo.GroupsByName(context.Background())
	require.NoError(t, err)
	require.Len(t, groups, 2)

	assert.Equal(t, "GetCard", groups[0].Name)
	require.Len(t, groups[0].Members, 2)
	assert.Equal(t, "ListCards", groups[1].Name)

	// Members come back in creation order with read-time sequence numbers.
	assert.True(t, groups[0].Members[0].CreatedAt.Before(groups[0].Members[1].CreatedAt))
	assert.Equal(t, 0, groups[0].Members[0].Seq)
	assert.Equal(t, 1, groups[0].Members[1].Seq)
	assert.Equal(t, 2, groups[1].Members[0].Seq)
}

func TestOperationRepository_DeleteMany(t *testing.T) {
	tc := setupOperationTest(t)
	base := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)

	a := tc.create("A", models.SourceManual, base)
	b := tc.create("B", models.SourceManual, base)
	tc.create("C", models.SourceManual, base)

	deleted, err := tc.repo.DeleteMany(context.Background(), []uuid.UUID{a.ID, b.ID, uuid.New()})
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	count, err := tc.repo.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestOperationRepository_ListFilter(t *testing.T) {
	tc := setupOperationTest(t)
	ctx := context.Background()
	base := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)

	cardOp := tc.create("GetCard", models.SourceImport, base)
	cardOp.Category = "cards"
	require.NoError(t, tc.repo.Update(ctx, cardOp))
	tc.create("GetUser", models.SourceManual, base)

	ops, err := tc.repo.List(ctx, OperationFilter{Category: "cards"})
	require.NoError(t, err)
	require.Len(t, ops, 1)
	assert.Equal(t, "GetCard", ops[0].Name)

	ops, err = tc.repo.List(ctx, OperationFilter{Source: models.SourceManual})
	require.NoError(t, err)
	require.Len(t, ops, 1)
	assert.Equal(t, "GetUser", ops[0].Name)
}
