package scoring

import (
	"fmt"

	"github.com/okian/edurank/internal/domain/dedupe"
	"github.com/okian/edurank/internal/domain/model"
)

// Evaluation is the scored view of one student's attempts at one activity.
type Evaluation struct {
	GameType   model.GameType
	Categories []model.Category
	Selection  Selection
	// Canonical holds the selected completions in category order.
	Canonical []model.Completion
	// Score is nil when nothing was selected.
	Score *float64
	// Done is the strict "fully completed" predicate used for counts.
	Done bool
	// CompletedLevels counts distinct eligible levels with any completion.
	CompletedLevels int
	// Contribution is this activity's share of the overall activity score.
	Contribution float64
}

// Evaluate runs selection and aggregation for one activity.
func Evaluate(a model.Activity, completions []model.Completion) (Evaluation, error) {
	categories := Eligible(a)
	sel, err := SelectBest(a.GameType, categories, completions)
	if err != nil {
		return Evaluation{}, err
	}
	score, err := Score(a.GameType, categories, sel)
	if err != nil {
		return Evaluation{}, err
	}
	done, err := IsDone(a.GameType, categories, completions)
	if err != nil {
		return Evaluation{}, err
	}
	contribution, err := Contribution(a.GameType, categories, sel)
	if err != nil {
		return Evaluation{}, err
	}
	return Evaluation{
		GameType:        a.GameType,
		Categories:      categories,
		Selection:       sel,
		Canonical:       inCategoryOrder(categories, sel),
		Score:           score,
		Done:            done,
		CompletedLevels: dedupe.CompletedLevels(categories, completions),
		Contribution:    contribution,
	}, nil
}

// Score combines a selection into the unit score.
//
//	point: sum of selected scores, missing categories add 0
//	time:  mean time in seconds over selected categories, lower is better
//	stage: the selected score of the stage category
//
// The result is nil when the selection is empty.
func Score(gt model.GameType, categories []model.Category, sel Selection) (*float64, error) {
	picked := inCategoryOrder(dedupe.UniqueLevels(categories), sel)
	switch gt {
	case model.PointBased:
		if len(picked) == 0 {
			return nil, nil
		}
		var sum float64
		for _, c := range picked {
			sum += c.Score
		}
		return &sum, nil
	case model.TimeBased:
		avg, ok := meanTime(picked)
		if !ok {
			return nil, nil
		}
		return &avg, nil
	case model.StageBased:
		if len(picked) == 0 {
			return nil, nil
		}
		score := picked[0].Score
		return &score, nil
	default:
		return nil, fmt.Errorf("%w: %d", model.ErrUnknownGameType, int(gt))
	}
}

// IsDone reports whether the student completed the whole unit: every
// eligible level for point and stage activities, exactly TimeTierCount
// levels for time activities.
func IsDone(gt model.GameType, categories []model.Category, completions []model.Completion) (bool, error) {
	eligible := dedupe.UniqueLevels(categories)
	completed := dedupe.CompletedLevels(eligible, completions)
	switch gt {
	case model.PointBased, model.StageBased:
		return len(eligible) > 0 && completed == len(eligible), nil
	case model.TimeBased:
		return completed == TimeTierCount, nil
	default:
		return false, fmt.Errorf("%w: %d", model.ErrUnknownGameType, int(gt))
	}
}

// Contribution is the activity's share of the overall activity score. Point
// and stage activities contribute their unit score (0 when unscored). A time
// activity contributes only with all TimeTierCount tiers selected, and then
// contributes the reciprocal of its mean time so that faster is larger.
func Contribution(gt model.GameType, categories []model.Category, sel Selection) (float64, error) {
	switch gt {
	case model.PointBased, model.StageBased:
		score, err := Score(gt, categories, sel)
		if err != nil || score == nil {
			return 0, err
		}
		return *score, nil
	case model.TimeBased:
		picked := inCategoryOrder(dedupe.UniqueLevels(categories), sel)
		if len(picked) != TimeTierCount {
			return 0, nil
		}
		avg, ok := meanTime(picked)
		if !ok || avg <= 0 {
			return 0, nil
		}
		return 1 / avg, nil
	default:
		return 0, fmt.Errorf("%w: %d", model.ErrUnknownGameType, int(gt))
	}
}

func meanTime(picked []model.Completion) (float64, bool) {
	if len(picked) == 0 {
		return 0, false
	}
	var total float64
	for _, c := range picked {
		total += c.TimeCompletedSeconds
	}
	return total / float64(len(picked)), true
}

func inCategoryOrder(categories []model.Category, sel Selection) []model.Completion {
	out := make([]model.Completion, 0, len(sel))
	for _, c := range categories {
		if picked, ok := sel[c.ID]; ok {
			out = append(out, picked)
		}
	}
	return out
}
