// Package performance builds the read models of the ranking engine: single
// unit leaderboards, teacher-scoped track rankings and the per-student
// performance summary that fuses both tracks.
//
// Functions here are pure. They take already-fetched snapshots and return new
// records; callers may compute per-student candidates concurrently and merge
// them with the Rank* functions, whose output depends only on sort keys.
package performance

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/okian/edurank/internal/domain/dedupe"
	"github.com/okian/edurank/internal/domain/model"
	"github.com/okian/edurank/internal/domain/ranking"
	"github.com/okian/edurank/internal/domain/scoring"
	"github.com/okian/edurank/internal/domain/types"
)

// UnitResult is one student's scored view of one unit.
type UnitResult struct {
	Candidate  ranking.Candidate
	Done       bool
	Categories []types.CategoryResult
}

// EvaluateUnit scores one student's completions against a unit.
func EvaluateUnit(u model.Unit, sc model.StudentCompletions) (UnitResult, error) {
	switch u.Kind {
	case model.UnitExam:
		return evaluateExam(u.Exam, sc), nil
	case model.UnitActivity:
		return evaluateActivity(u.Activity, sc)
	default:
		return UnitResult{}, fmt.Errorf("%w: unit kind %d", model.ErrInvariantViolation, int(u.Kind))
	}
}

func evaluateExam(e model.Exam, sc model.StudentCompletions) UnitResult {
	own := make([]model.Completion, 0, len(sc.Completions))
	for _, c := range sc.Completions {
		if c.ExamID == e.ID {
			own = append(own, c)
		}
	}
	canonical := dedupe.LatestPerExam(own)
	res := UnitResult{
		Candidate:  ranking.Candidate{Student: sc.Student, Completions: canonical},
		Categories: []types.CategoryResult{},
	}
	if len(canonical) > 0 {
		score := canonical[0].Score
		res.Candidate.Score = &score
		res.Done = true
	}
	return res
}

func evaluateActivity(a model.Activity, sc model.StudentCompletions) (UnitResult, error) {
	ev, err := scoring.Evaluate(a, sc.Completions)
	if err != nil {
		return UnitResult{}, err
	}
	categories := make([]types.CategoryResult, 0, len(ev.Categories))
	for _, c := range ev.Categories {
		cr := types.CategoryResult{CategoryID: c.ID, Name: c.Name, Level: c.Level}
		if picked, ok := ev.Selection[c.ID]; ok {
			v := types.NewCompletionView(picked)
			cr.Selected = &v
		}
		categories = append(categories, cr)
	}
	return UnitResult{
		Candidate: ranking.Candidate{
			Student:     sc.Student,
			Score:       ev.Score,
			Completions: ev.Canonical,
		},
		Done:       ev.Done,
		Categories: categories,
	}, nil
}

// RankUnitCandidates applies the sequential policy used by a single unit's
// leaderboard. Time-based activities additionally require TimeTierCount
// canonical completions to be ranked.
func RankUnitCandidates(u model.Unit, candidates []ranking.Candidate) (ranking.Result, error) {
	switch u.Kind {
	case model.UnitExam:
		return ranking.Sequential(candidates, ranking.HigherFirst), nil
	case model.UnitActivity:
		gt := u.Activity.GameType
		if !gt.Valid() {
			return ranking.Result{}, fmt.Errorf("%w: %d", model.ErrUnknownGameType, int(gt))
		}
		var opts []ranking.Option
		if gt == model.TimeBased {
			opts = append(opts, ranking.WithMinCompletions(scoring.TimeTierCount))
		}
		return ranking.Sequential(candidates, ranking.DirectionFor(gt), opts...), nil
	default:
		return ranking.Result{}, fmt.Errorf("%w: unit kind %d", model.ErrInvariantViolation, int(u.Kind))
	}
}

// RankUnit returns the unit leaderboard for a roster: ranked students
// first, then unranked students by name.
func RankUnit(u model.Unit, roster []model.StudentCompletions) ([]types.RankedEntry, error) {
	candidates := make([]ranking.Candidate, len(roster))
	for i, sc := range roster {
		res, err := EvaluateUnit(u, sc)
		if err != nil {
			return nil, err
		}
		candidates[i] = res.Candidate
	}
	result, err := RankUnitCandidates(u, candidates)
	if err != nil {
		return nil, err
	}
	return result.All(), nil
}

// SummarizeUnit reports one student's score, category breakdown and
// leaderboard rank for a unit. The student must be part of roster. A
// stage-based activity without any eligible category cannot be summarized.
func SummarizeUnit(u model.Unit, roster []model.StudentCompletions, studentID uuid.UUID) (types.UnitSummary, error) {
	if err := CheckSummarizable(u); err != nil {
		return types.UnitSummary{}, err
	}

	candidates := make([]ranking.Candidate, len(roster))
	var (
		own   UnitResult
		found bool
	)
	for i, sc := range roster {
		res, err := EvaluateUnit(u, sc)
		if err != nil {
			return types.UnitSummary{}, err
		}
		candidates[i] = res.Candidate
		if sc.Student.ID == studentID {
			own, found = res, true
		}
	}
	if !found {
		return types.UnitSummary{}, fmt.Errorf("%w: %s", model.ErrStudentNotFound, studentID)
	}

	result, err := RankUnitCandidates(u, candidates)
	if err != nil {
		return types.UnitSummary{}, err
	}
	return BuildUnitSummary(u, own, result), nil
}

// CheckSummarizable rejects units whose per-student score cannot be
// reported: a stage-based activity needs at least one eligible category.
func CheckSummarizable(u model.Unit) error {
	if u.Kind == model.UnitActivity && u.Activity.GameType == model.StageBased {
		if _, err := scoring.StageCategory(u.Activity.Categories); err != nil {
			return fmt.Errorf("activity %s: %w", u.Activity.ID, err)
		}
	}
	return nil
}

// BuildUnitSummary assembles a unit summary from a student's own result and
// the ranked roster.
func BuildUnitSummary(u model.Unit, own UnitResult, result ranking.Result) types.UnitSummary {
	summary := types.UnitSummary{
		UnitID:     u.ID(),
		UnitKind:   u.Kind.String(),
		StudentID:  own.Candidate.Student.ID,
		Done:       own.Done,
		Categories: own.Categories,
	}
	if u.Kind == model.UnitActivity {
		summary.GameType = u.Activity.GameType.String()
	}
	if e, ok := find(result, own.Candidate.Student.ID); ok {
		summary.Score = e.Score
		summary.Rank = e.Rank
	}
	return summary
}

func find(r ranking.Result, id uuid.UUID) (types.RankedEntry, bool) {
	for _, e := range r.Ranked {
		if e.StudentID == id {
			return e, true
		}
	}
	for _, e := range r.Unranked {
		if e.StudentID == id {
			return e, true
		}
	}
	return types.RankedEntry{}, false
}
