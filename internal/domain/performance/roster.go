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

// TrackCandidate computes a student's overall score on one track.
//
// Exam track: sum of the latest completion score of every assigned exam.
// Activity track: sum of every assigned activity's contribution, where a
// time activity adds 1/mean-time only once all tiers are done.
//
// The score is nil when the student has no completion on the track.
func TrackCandidate(track types.Track, snap model.StudentSnapshot) (ranking.Candidate, error) {
	switch track {
	case types.TrackExam:
		return examCandidate(snap), nil
	case types.TrackActivity:
		return activityCandidate(snap)
	default:
		return ranking.Candidate{}, fmt.Errorf("%w: track %q", model.ErrInvariantViolation, track)
	}
}

func examCandidate(snap model.StudentSnapshot) ranking.Candidate {
	canonical := assignedExamCompletions(snap)
	c := ranking.Candidate{Student: snap.Student, Completions: canonical}
	if len(canonical) == 0 {
		return c
	}
	var sum float64
	for _, comp := range canonical {
		sum += comp.Score
	}
	c.Score = &sum
	return c
}

func activityCandidate(snap model.StudentSnapshot) (ranking.Candidate, error) {
	c := ranking.Candidate{Student: snap.Student}
	var (
		sum    float64
		scored bool
	)
	for _, a := range snap.Activities {
		own := dedupe.ForCategories(snap.ActivityCompletions, a.Categories)
		ev, err := scoring.Evaluate(a, own)
		if err != nil {
			return ranking.Candidate{}, fmt.Errorf("activity %s: %w", a.ID, err)
		}
		if len(ev.Selection) > 0 {
			scored = true
		}
		sum += ev.Contribution
		c.Completions = append(c.Completions, ev.Canonical...)
	}
	if scored {
		c.Score = &sum
	}
	return c, nil
}

// assignedExamCompletions returns the latest completion per assigned exam.
func assignedExamCompletions(snap model.StudentSnapshot) []model.Completion {
	assigned := make(map[uuid.UUID]struct{}, len(snap.Exams))
	for _, e := range snap.Exams {
		assigned[e.ID] = struct{}{}
	}
	own := make([]model.Completion, 0, len(snap.ExamCompletions))
	for _, c := range snap.ExamCompletions {
		if _, ok := assigned[c.ExamID]; ok {
			own = append(own, c)
		}
	}
	return dedupe.LatestPerExam(own)
}

// RankTrack applies the competition policy to track candidates. Both
// tracks rank higher scores first.
func RankTrack(track types.Track, candidates []ranking.Candidate) types.RosterRanking {
	res := ranking.Competition(candidates, ranking.HigherFirst)
	return types.RosterRanking{
		Track:            track,
		RankedStudents:   res.Ranked,
		UnrankedStudents: res.Unranked,
	}
}

// RankRoster ranks a teacher's roster on one track.
func RankRoster(track types.Track, roster []model.StudentSnapshot) (types.RosterRanking, error) {
	candidates := make([]ranking.Candidate, len(roster))
	for i, snap := range roster {
		c, err := TrackCandidate(track, snap)
		if err != nil {
			return types.RosterRanking{}, err
		}
		candidates[i] = c
	}
	return RankTrack(track, candidates), nil
}
