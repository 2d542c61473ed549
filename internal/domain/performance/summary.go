package performance

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/okian/edurank/internal/domain/model"
	"github.com/okian/edurank/internal/domain/ranking"
	"github.com/okian/edurank/internal/domain/scoring"
	"github.com/okian/edurank/internal/domain/types"
)

// ExamMetrics counts a student's exam-track results at now.
//
// CompletionPercent is available/total*100 rounded to two decimals and is
// undefined when no exam is assigned.
func ExamMetrics(snap model.StudentSnapshot, now time.Time) types.ExamMetrics {
	latest := make(map[uuid.UUID]model.Completion)
	for _, c := range assignedExamCompletions(snap) {
		latest[c.ExamID] = c
	}

	m := types.ExamMetrics{Total: len(snap.Exams), Completed: len(latest)}
	for _, e := range snap.Exams {
		available := e.AvailableAt(now)
		if available {
			m.Available++
		}
		c, completed := latest[e.ID]
		switch {
		case completed && c.Score >= e.PassingScore:
			m.Passed++
		case completed:
			m.Failed++
		case available:
			m.Expired++
		}
	}
	m.CompletionPercent = model.Percent(m.Available, m.Total)
	return m
}

// ActivityMetrics counts a student's activity-track results.
//
// CompletionPercent is completed levels over eligible categories across all
// assigned activities and is undefined when there are no categories.
func ActivityMetrics(snap model.StudentSnapshot) (types.ActivityMetrics, error) {
	m := types.ActivityMetrics{Total: len(snap.Activities)}
	for _, a := range snap.Activities {
		ev, err := scoring.Evaluate(a, snap.ActivityCompletions)
		if err != nil {
			return types.ActivityMetrics{}, fmt.Errorf("activity %s: %w", a.ID, err)
		}
		if ev.Done {
			m.Completed++
		}
		m.TotalCategories += len(ev.Categories)
		m.CompletedLevels += ev.CompletedLevels
	}
	m.CompletionPercent = model.Percent(m.CompletedLevels, m.TotalCategories)
	return m, nil
}

// WithTarget returns the ranking population for a summary: the target
// first, then every peer except the target itself.
func WithTarget(target model.StudentSnapshot, peers []model.StudentSnapshot) []model.StudentSnapshot {
	out := make([]model.StudentSnapshot, 0, len(peers)+1)
	out = append(out, target)
	for _, p := range peers {
		if p.Student.ID != target.Student.ID {
			out = append(out, p)
		}
	}
	return out
}

// Summarize computes the performance summary of target ranked against its
// peers. peers may or may not already contain target.
func Summarize(target model.StudentSnapshot, peers []model.StudentSnapshot, now time.Time) (types.PerformanceSummary, error) {
	roster := WithTarget(target, peers)
	exams, err := RankRoster(types.TrackExam, roster)
	if err != nil {
		return types.PerformanceSummary{}, err
	}
	activities, err := RankRoster(types.TrackActivity, roster)
	if err != nil {
		return types.PerformanceSummary{}, err
	}
	return Combine(target, exams, activities, now)
}

// Combine merges a student's identity, track metrics and track rankings
// into one summary. Raw completions are not carried over.
func Combine(target model.StudentSnapshot, exams, activities types.RosterRanking, now time.Time) (types.PerformanceSummary, error) {
	am, err := ActivityMetrics(target)
	if err != nil {
		return types.PerformanceSummary{}, err
	}
	em := ExamMetrics(target, now)

	id := target.Student.ID
	if e, ok := findInRoster(exams, id); ok {
		em.Rank, em.Score = e.Rank, e.Score
	}
	if e, ok := findInRoster(activities, id); ok {
		am.Rank, am.Score = e.Rank, e.Score
	}

	return types.PerformanceSummary{
		Identity:  types.NewIdentity(target.Student),
		TeacherID: target.Student.TeacherID,
		Exams:     em,
		Activity:  am,
	}, nil
}

func findInRoster(r types.RosterRanking, id uuid.UUID) (types.RankedEntry, bool) {
	return find(ranking.Result{Ranked: r.RankedStudents, Unranked: r.UnrankedStudents}, id)
}
