package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apimesh/apimesh-engine/pkg/models"
)

func TestMergeGroup_RequiredIsSticky(t *testing.T) {
	a := &models.Operation{ID: uuid.New(), Name: "Op", Required: false}
	b := &models.Operation{ID: uuid.New(), Name: "Op", Required: true}
	c := &models.Operation{ID: uuid.New(), Name: "Op", Required: false}

	merged, err := mergeGroup(a, []*models.Operation{a, b, c})
	require.NoError(t, err)
	assert.True(t, merged.Required)
}

func TestMergeGroup_LongestDescriptionAndQueryWin(t *testing.T) {
	a := &models.Operation{ID: uuid.New(), Name: "Op", Description: "short", Query: "query Op { a }"}
	b := &models.Operation{ID: uuid.New(), Name: "Op", Description: "a much longer description", Query: "query Op { a b c }"}

	merged, err := mergeGroup(a, []*models.Operation{a, b})
	require.NoError(t, err)
	assert.Equal(t, "a much longer description", merged.Description)
	assert.Equal(t, "query Op { a b c }", merged.Query)
}

func TestMergeGroup_SurvivorValueKeptOnEqualLength(t *testing.T) {
	a := &models.Operation{ID: uuid.New(), Name: "Op", Description: "aaaa"}
	b := &models.Operation{ID: uuid.New(), Name: "Op", Description: "bbbb"}

	// Equal length never replaces the survivor's own value.
	merged, err := mergeGroup(a, []*models.Operation{a, b})
	require.NoError(t, err)
	assert.Equal(t, "aaaa", merged.Description)
}

func TestMergeGroup_EmptyMemberValuesIgnored(t *testing.T) {
	a := &models.Operation{ID: uuid.New(), Name: "Op", Description: "kept"}
	b := &models.Operation{ID: uuid.New(), Name: "Op"}

	merged, err := mergeGroup(a, []*models.Operation{a, b})
	require.NoError(t, err)
	assert.Equal(t, "kept", merged.Description)
}

func TestMergeGroup_TagUnionIncludesCategoriesAndVendors(t *testing.T) {
	a := &models.Operation{
		ID: uuid.New(), Name: "Op",
		Category: "cards", Vendor: "Acme Bank", Tags: []string{"core", "cards"},
	}
	b := &models.Operation{
		ID: uuid.New(), Name: "Op",
		Category: "payments", Vendor: "Globex", Tags: []string{"beta"},
	}

	merged, err := mergeGroup(a, []*models.Operation{a, b})
	require.NoError(t, err)

	// Union of member tags plus categories verbatim plus vendors normalized,
	// no duplicates.
	assert.Equal(t, []string{"core", "cards", "beta", "payments", "acme-bank", "globex"}, merged.Tags)
}

func TestMergeGroup_VariablesLaterMembersWin(t *testing.T) {
	a := &models.Operation{
		ID: uuid.New(), Name: "Op",
		Variables: map[string]models.VariableDescriptor{
			"id":    {Type: "ID", Description: "old"},
			"limit": {Type: "Int"},
		},
	}
	b := &models.Operation{
		ID: uuid.New(), Name: "Op",
		Variables: map[string]models.VariableDescriptor{
			"id":     {Type: "ID", Description: "new"},
			"cursor": {Type: "String"},
		},
	}

	merged, err := mergeGroup(a, []*models.Operation{a, b})
	require.NoError(t, err)
	assert.Len(t, merged.Variables, 3)
	assert.Equal(t, "new", merged.Variables["id"].Description)
	assert.Equal(t, "Int", merged.Variables["limit"].Type)
	assert.Equal(t, "String", merged.Variables["cursor"].Type)
}

func TestMergeGroup_MetadataSets(t *testing.T) {
	created := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
	a := &models.Operation{
		ID: uuid.New(), Name: "Op",
		Category: "cards", Vendor: "Acme", Source: models.SourceImport, CreatedAt: created,
	}
	b := &models.Operation{
		ID: uuid.New(), Name: "Op",
		Category: "cards", Vendor: "Globex", Source: models.SourceManual, CreatedAt: created.Add(time.Hour),
	}

	merged, err := mergeGroup(a, []*models.Operation{a, b})
	require.NoError(t, err)

	assert.Equal(t, []string{"cards"}, merged.Metadata.Categories)
	assert.Equal(t, []string{"Acme", "Globex"}, merged.Metadata.Vendors)
	require.Len(t, merged.Metadata.Sources, 2)
	assert.Equal(t, a.ID, merged.Metadata.Sources[0].ID)
	assert.Equal(t, models.SourceImport, merged.Metadata.Sources[0].Source)
	assert.Equal(t, created, merged.Metadata.Sources[0].CreatedAt)
	assert.Equal(t, b.ID, merged.Metadata.Sources[1].ID)
}

func TestMergeGroup_PrimaryFieldsFirstSeen(t *testing.T) {
	a := &models.Operation{ID: uuid.New(), Name: "Op"}
	b := &models.Operation{ID: uuid.New(), Name: "Op", Category: "payments", Vendor: "Globex"}

	// Survivor has no category or vendor; the first seen across the group
	// becomes primary.
	merged, err := mergeGroup(a, []*models.Operation{a, b})
	require.NoError(t, err)
	assert.Equal(t, "payments", merged.Category)
	assert.Equal(t, "Globex", merged.Vendor)
}

func TestMergeGroup_Errors(t *testing.T) {
	a := &models.Operation{ID: uuid.New(), Name: "Op"}
	b := &models.Operation{ID: uuid.New(), Name: "Op"}
	outsider := &models.Operation{ID: uuid.New(), Name: "Op"}
	unnamed := &models.Operation{ID: uuid.New()}

	_, err := mergeGroup(nil, []*models.Operation{a, b})
	assert.Error(t, err)

	_, err = mergeGroup(a, []*models.Operation{a})
	assert.Error(t, err)

	_, err = mergeGroup(a, []*models.Operation{a, nil})
	assert.Error(t, err)

	_, err = mergeGroup(a, []*models.Operation{a, unnamed})
	assert.Error(t, err)

	_, err = mergeGroup(outsider, []*models.Operation{a, b})
	assert.Error(t, err)
}

func TestApplyMergedFields_EmptyVariablesLeaveSurvivorAlone(t *testing.T) {
	survivor := &models.Operation{
		ID: uuid.New(), Name: "Op",
		Variables: map[string]models.VariableDescriptor{"id": {Type: "ID"}},
	}
	merged := &MergedFields{Description: "merged"}

	applyMergedFields(survivor, merged)
	assert.Equal(t, "merged", survivor.Description)
	assert.Len(t, survivor.Variables, 1)
}

func TestNormalizeVendorTag(t *testing.T) {
	assert.Equal(t, "acme-bank", normalizeVendorTag("Acme Bank"))
	assert.Equal(t, "acme-bank", normalizeVendorTag("  Acme   Bank  "))
	assert.Equal(t, "globex", normalizeVendorTag("Globex"))
	assert.Equal(t, "", normalizeVendorTag("   "))
}
