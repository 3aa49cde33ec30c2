package services

import (
	"fmt"
	"strings"

	"github.com/apimesh/apimesh-engine/pkg/models"
)

// MergedFields is the value a duplicate group collapses to: the complete set
// of fields to write onto the survivor. Computed as a pure function of the
// group so the merge is testable without a store and identical between dry
// and live runs.
type MergedFields struct {
	Category    string
	Vendor      string
	Description string
	Query       string
	Tags        []string
	Variables   map[string]models.VariableDescriptor
	Required    bool
	Metadata    models.OperationMetadata
}

// mergeGroup combines metadata from every member of a duplicate group into
// the fields the survivor should carry. Members must be in read order; the
// survivor must be one of them.
//
// Rules:
//   - categories/vendors: set of all distinct values, first-seen order
//   - description/query: longest non-empty wins, but only replaces the
//     survivor's own value when strictly longer
//   - tags: union of all tags, plus every category, plus every vendor
//     (vendors lower-cased with spaces replaced by hyphens)
//   - variables: shallow merge, later members win per key
//   - required: true if any member requires the operation
//   - metadata.sources: one provenance snapshot per member
func mergeGroup(survivor *models.Operation, members []*models.Operation) (*MergedFields, error) {
	if survivor == nil {
		return nil, fmt.Errorf("merge requires a survivor")
	}
	if len(members) < 2 {
		return nil, fmt.Errorf("merge requires at least two members, got %d", len(members))
	}

	survivorSeen := false
	for i, m := range members {
		if m == nil {
			return nil, fmt.Errorf("member %d is nil", i)
		}
		if m.Name == "" {
			return nil, fmt.Errorf("member %s has no name", m.ID)
		}
		if m.ID == survivor.ID {
			survivorSeen = true
		}
	}
	if !survivorSeen {
		return nil, fmt.Errorf("survivor %s is not a member of the group", survivor.ID)
	}

	merged := &MergedFields{
		Category:    survivor.Category,
		Vendor:      survivor.Vendor,
		Description: survivor.Description,
		Query:       survivor.Query,
		Required:    survivor.Required,
		Variables:   map[string]models.VariableDescriptor{},
	}

	var categories, vendors []string
	categorySeen := map[string]bool{}
	vendorSeen := map[string]bool{}

	var tags []string
	tagSeen := map[string]bool{}
	addTag := func(tag string) {
		if tag == "" || tagSeen[tag] {
			return
		}
		tagSeen[tag] = true
		tags = append(tags, tag)
	}

	for _, m := range members {
		if m.Category != "" && !categorySeen[m.Category] {
			categorySeen[m.Category] = true
			categories = append(categories, m.Category)
		}
		if m.Vendor != "" && !vendorSeen[m.Vendor] {
			vendorSeen[m.Vendor] = true
			vendors = append(vendors, m.Vendor)
		}

		// Longest non-empty description wins, strictly longer than the
		// survivor's own to overwrite it.
		if m.Description != "" && len(m.Description) > len(merged.Description) {
			merged.Description = m.Description
		}
		if m.Query != "" && len(m.Query) > len(merged.Query) {
			merged.Query = m.Query
		}

		for _, tag := range m.Tags {
			addTag(tag)
		}

		// Later members win per variable key.
		for name, descriptor := range m.Variables {
			merged.Variables[name] = descriptor
		}

		if m.Required {
			merged.Required = true
		}

		merged.Metadata.Sources = append(merged.Metadata.Sources, models.SourceRecord{
			ID:        m.ID,
			Category:  m.Category,
			Vendor:    m.Vendor,
			Source:    m.Source,
			CreatedAt: m.CreatedAt,
		})
	}

	for _, category := range categories {
		addTag(category)
	}
	for _, vendor := range vendors {
		addTag(normalizeVendorTag(vendor))
	}

	merged.Tags = tags
	merged.Metadata.Categories = categories
	merged.Metadata.Vendors = vendors

	// Primary fields follow the merged sets; an empty set leaves the
	// survivor's own value in place.
	if len(categories) > 0 {
		merged.Category = categories[0]
	}
	if len(vendors) > 0 {
		merged.Vendor = vendors[0]
	}

	return merged, nil
}

// applyMergedFields writes merged values onto the survivor.
// An empty merged variable map leaves the survivor's own variables alone.
func applyMergedFields(survivor *models.Operation, merged *MergedFields) {
	survivor.Category = merged.Category
	survivor.Vendor = merged.Vendor
	survivor.Description = merged.Description
	survivor.Query = merged.Query
	survivor.Tags = merged.Tags
	survivor.Required = merged.Required
	if len(merged.Variables) > 0 {
		survivor.Variables = merged.Variables
	}
	metadata := merged.Metadata
	survivor.Metadata = &metadata
}

// normalizeVendorTag lower-cases a vendor name and replaces whitespace runs
// with hyphens so it can live in the tag set.
func normalizeVendorTag(vendor string) string {
	return strings.Join(strings.Fields(strings.ToLower(vendor)), "-")
}
