// Package scoring picks the representative completion per category and
// turns the picks into one score per unit, following the rules of the
// activity's game type.
package scoring

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/okian/edurank/internal/domain/dedupe"
	"github.com/okian/edurank/internal/domain/model"
)

// TimeTierCount is the number of level tiers a time-based activity must
// have completed before it counts as done or contributes to the overall
// activity score. It is fixed, not derived from the category count.
const TimeTierCount = 3

// Selection maps a category id to the completion chosen for it. Categories
// without a completion are absent.
type Selection map[uuid.UUID]model.Completion

// better reports whether a should be preferred over b.
type better func(a, b model.Completion) bool

// byScoreThenTime prefers the higher score and, among equal scores, the
// faster time.
func byScoreThenTime(a, b model.Completion) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return a.TimeCompletedSeconds < b.TimeCompletedSeconds
}

// byTime prefers the faster time; score is ignored.
func byTime(a, b model.Completion) bool {
	return a.TimeCompletedSeconds < b.TimeCompletedSeconds
}

// Eligible returns the level-unique categories of an activity, most
// recently updated first.
func Eligible(a model.Activity) []model.Category {
	return dedupe.UniqueLevels(a.Categories)
}

// SelectBest returns the chosen completion per category for one student.
// categories are reduced to one per level before selection, so callers may
// pass an activity's raw category list.
func SelectBest(gt model.GameType, categories []model.Category, completions []model.Completion) (Selection, error) {
	eligible := dedupe.UniqueLevels(categories)
	switch gt {
	case model.PointBased:
		return bestPerCategory(eligible, completions, byScoreThenTime), nil
	case model.TimeBased:
		return bestPerCategory(eligible, completions, byTime), nil
	case model.StageBased:
		if len(eligible) == 0 {
			return Selection{}, nil
		}
		return bestPerCategory(eligible[:1], completions, byScoreThenTime), nil
	default:
		return nil, fmt.Errorf("%w: %d", model.ErrUnknownGameType, int(gt))
	}
}

// StageCategory returns the single category a stage-based activity is
// scored on.
func StageCategory(categories []model.Category) (model.Category, error) {
	eligible := dedupe.UniqueLevels(categories)
	if len(eligible) == 0 {
		return model.Category{}, model.ErrNoEligibleCategory
	}
	return eligible[0], nil
}

// bestPerCategory keeps, per category, the first completion that no later
// completion beats. This matches a stable sort followed by taking the head.
func bestPerCategory(categories []model.Category, completions []model.Completion, prefer better) Selection {
	wanted := make(map[uuid.UUID]struct{}, len(categories))
	for _, c := range categories {
		wanted[c.ID] = struct{}{}
	}

	sel := make(Selection, len(categories))
	for _, c := range completions {
		if _, ok := wanted[c.CategoryID]; !ok {
			continue
		}
		current, exists := sel[c.CategoryID]
		if !exists || prefer(c, current) {
			sel[c.CategoryID] = c
		}
	}
	return sel
}
