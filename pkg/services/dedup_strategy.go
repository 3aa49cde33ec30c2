package services

import (
	"fmt"

	"github.com/apimesh/apimesh-engine/pkg/apperrors"
	"github.com/apimesh/apimesh-engine/pkg/models"
)

// Strategy selects which member of a duplicate group survives.
type Strategy string

const (
	// StrategyKeepNewest keeps the most recently updated member (default).
	StrategyKeepNewest Strategy = "keep-newest"
	// StrategyKeepOldest keeps the member created first.
	StrategyKeepOldest Strategy = "keep-oldest"
	// StrategyKeepImport keeps the newest import-sourced member, falling
	// back to keep-newest when no member came from an import.
	StrategyKeepImport Strategy = "keep-import"
)

// ParseStrategy validates a strategy name. The empty string selects the
// default. Unknown values are rejected before any group is processed.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case "":
		return StrategyKeepNewest, nil
	case StrategyKeepNewest, StrategyKeepOldest, StrategyKeepImport:
		return Strategy(s), nil
	default:
		return "", fmt.Errorf("%w: %q", apperrors.ErrInvalidStrategy, s)
	}
}

// selectSurvivor picks the surviving member of a group under the given
// strategy. Ties on the comparison key are broken by read order (lower Seq
// stays ahead), never by store iteration artifacts. Members must be
// non-empty.
func selectSurvivor(members []*models.Operation, strategy Strategy) *models.Operation {
	switch strategy {
	case StrategyKeepOldest:
		// Missing createdAt compares as the zero time, i.e. earliest.
		best := members[0]
		for _, m := range members[1:] {
			if m.CreatedAt.Before(best.CreatedAt) ||
				(m.CreatedAt.Equal(best.CreatedAt) && m.Seq < best.Seq) {
				best = m
			}
		}
		return best

	case StrategyKeepImport:
		var imports []*models.Operation
		for _, m := range members {
			if m.Source == models.SourceImport {
				imports = append(imports, m)
			}
		}
		if len(imports) > 0 {
			return newestOf(imports)
		}
		return newestOf(members)

	default: // StrategyKeepNewest
		return newestOf(members)
	}
}

// newestOf returns the member with the greatest effective time
// (updatedAt, falling back to createdAt). Ties go to the lower Seq.
func newestOf(members []*models.Operation) *models.Operation {
	best := members[0]
	for _, m := range members[1:] {
		mt, bt := m.EffectiveTime(), best.EffectiveTime()
		if mt.After(bt) || (mt.Equal(bt) && m.Seq < best.Seq) {
			best = m
		}
	}
	return best
}
