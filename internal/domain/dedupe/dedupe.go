// Package dedupe collapses repeated attempts and superseded categories down
// to the canonical set used for scoring.
//
// All functions return new slices; inputs are never reordered in place.
package dedupe

import (
	"sort"

	"github.com/google/uuid"
	"github.com/okian/edurank/internal/domain/model"
)

// LatestPerExam keeps exactly one completion per exam: the one with the
// latest SubmittedAt. The result is ordered by SubmittedAt descending.
// Completions that do not belong to an exam are ignored.
func LatestPerExam(completions []model.Completion) []model.Completion {
	exams := make([]model.Completion, 0, len(completions))
	for _, c := range completions {
		if c.IsExam() {
			exams = append(exams, c)
		}
	}
	return latestBy(exams, func(c model.Completion) uuid.UUID { return c.ExamID })
}

// LatestPerCategory keeps the most recently submitted completion per
// category, ordered by SubmittedAt descending.
func LatestPerCategory(completions []model.Completion) []model.Completion {
	cats := make([]model.Completion, 0, len(completions))
	for _, c := range completions {
		if c.CategoryID != uuid.Nil {
			cats = append(cats, c)
		}
	}
	return latestBy(cats, func(c model.Completion) uuid.UUID { return c.CategoryID })
}

// latestBy sorts a copy by SubmittedAt descending and keeps the first
// completion seen per key. Equal timestamps keep input order.
func latestBy(completions []model.Completion, key func(model.Completion) uuid.UUID) []model.Completion {
	sorted := make([]model.Completion, len(completions))
	copy(sorted, completions)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].SubmittedAt.After(sorted[j].SubmittedAt)
	})

	seen := make(map[uuid.UUID]struct{}, len(sorted))
	out := make([]model.Completion, 0, len(sorted))
	for _, c := range sorted {
		k := key(c)
		if _, exists := seen[k]; exists {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, c)
	}
	return out
}

// UniqueLevels drops categories superseded by a more recently updated
// category at the same level. The result is ordered by UpdatedAt
// descending; ties keep input order.
func UniqueLevels(categories []model.Category) []model.Category {
	sorted := make([]model.Category, len(categories))
	copy(sorted, categories)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].UpdatedAt.After(sorted[j].UpdatedAt)
	})

	seen := make(map[int]struct{}, len(sorted))
	out := make([]model.Category, 0, len(sorted))
	for _, c := range sorted {
		if _, exists := seen[c.Level]; exists {
			continue
		}
		seen[c.Level] = struct{}{}
		out = append(out, c)
	}
	return out
}

// ForCategories keeps the completions that reference one of categories.
func ForCategories(completions []model.Completion, categories []model.Category) []model.Completion {
	ids := make(map[uuid.UUID]struct{}, len(categories))
	for _, c := range categories {
		ids[c.ID] = struct{}{}
	}
	out := make([]model.Completion, 0, len(completions))
	for _, c := range completions {
		if _, ok := ids[c.CategoryID]; ok {
			out = append(out, c)
		}
	}
	return out
}

// CompletedLevels counts the distinct levels among categories that have at
// least one completion. categories are expected to be level-unique.
func CompletedLevels(categories []model.Category, completions []model.Completion) int {
	levelByCategory := make(map[uuid.UUID]int, len(categories))
	for _, c := range categories {
		levelByCategory[c.ID] = c.Level
	}
	levels := make(map[int]struct{}, len(categories))
	for _, c := range LatestPerCategory(completions) {
		if level, ok := levelByCategory[c.CategoryID]; ok {
			levels[level] = struct{}{}
		}
	}
	return len(levels)
}
