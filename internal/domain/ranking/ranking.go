// Package ranking orders a roster of scored students.
//
// Two strategies exist and are kept apart on purpose:
//
//	Sequential  - a single unit's leaderboard; equal scores get consecutive ranks.
//	Competition - teacher-scoped overall rankings; equal scores share a rank
//	              and the next distinct score resumes at its position (1-2-2-4).
//
// Both are total: every candidate appears exactly once, ranked or unranked.
package ranking

import (
	"sort"
	"strings"

	"github.com/okian/edurank/internal/domain/model"
	"github.com/okian/edurank/internal/domain/types"
)

// Direction tells which end of the score range ranks first.
type Direction int

// Directions.
const (
	HigherFirst Direction = iota
	LowerFirst
)

// DirectionFor returns LowerFirst for time-based units.
func DirectionFor(gt model.GameType) Direction {
	if gt.LowerIsBetter() {
		return LowerFirst
	}
	return HigherFirst
}

// Candidate is one roster member entering a ranking.
type Candidate struct {
	Student     model.Student
	Score       *float64
	Completions []model.Completion
}

// Result partitions the candidates.
type Result struct {
	Ranked   []types.RankedEntry
	Unranked []types.RankedEntry
}

// All returns ranked entries followed by unranked ones.
func (r Result) All() []types.RankedEntry {
	out := make([]types.RankedEntry, 0, len(r.Ranked)+len(r.Unranked))
	out = append(out, r.Ranked...)
	return append(out, r.Unranked...)
}

// Len returns the number of partitioned candidates.
func (r Result) Len() int { return len(r.Ranked) + len(r.Unranked) }

type options struct {
	minCompletions int
}

// Option configures a ranking call.
type Option func(*options)

// WithMinCompletions moves candidates with fewer canonical completions
// than n to the unranked partition, keeping their score for display.
func WithMinCompletions(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.minCompletions = n
		}
	}
}

// Sequential ranks by sorted position with no tie sharing.
func Sequential(candidates []Candidate, dir Direction, opts ...Option) Result {
	scored, unranked := partition(candidates, dir, opts)
	ranked := make([]types.RankedEntry, len(scored))
	for i, c := range scored {
		ranked[i] = entry(c, i+1)
	}
	return Result{Ranked: ranked, Unranked: unranked}
}

// Competition ranks with shared ranks for equal consecutive scores.
func Competition(candidates []Candidate, dir Direction, opts ...Option) Result {
	scored, unranked := partition(candidates, dir, opts)
	ranked := make([]types.RankedEntry, len(scored))
	rank := 0
	for i, c := range scored {
		if i == 0 || *c.Score != *scored[i-1].Score {
			rank = i + 1
		}
		ranked[i] = entry(c, rank)
	}
	return Result{Ranked: ranked, Unranked: unranked}
}

// partition splits candidates into a stably sorted scored slice and a
// name-sorted unranked slice.
func partition(candidates []Candidate, dir Direction, opts []Option) ([]Candidate, []types.RankedEntry) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	var scored, rest []Candidate
	for _, c := range candidates {
		if c.Score == nil || len(c.Completions) < o.minCompletions {
			rest = append(rest, c)
			continue
		}
		scored = append(scored, c)
	}

	sortScored(scored, dir)
	sortByName(rest)

	unranked := make([]types.RankedEntry, len(rest))
	for i, c := range rest {
		unranked[i] = entry(c, 0)
	}
	return scored, unranked
}

// sortScored orders by score, keeping input order among equal scores.
func sortScored(scored []Candidate, dir Direction) {
	sort.SliceStable(scored, func(i, j int) bool {
		if dir == LowerFirst {
			return *scored[i].Score < *scored[j].Score
		}
		return *scored[i].Score > *scored[j].Score
	})
}

// sortByName orders unranked students by full name, case-insensitively,
// falling back to the exact name and then the id for determinism.
func sortByName(rest []Candidate) {
	sort.SliceStable(rest, func(i, j int) bool {
		a, b := rest[i].Student.FullName(), rest[j].Student.FullName()
		if la, lb := strings.ToLower(a), strings.ToLower(b); la != lb {
			return la < lb
		}
		if a != b {
			return a < b
		}
		return rest[i].Student.ID.String() < rest[j].Student.ID.String()
	})
}

// entry builds the output row; rank 0 means unranked.
func entry(c Candidate, rank int) types.RankedEntry {
	e := types.RankedEntry{
		StudentID: c.Student.ID,
		PublicID:  c.Student.PublicID,
		FullName:  c.Student.FullName(),
	}
	if c.Score != nil {
		score := *c.Score
		e.Score = &score
	}
	if rank > 0 {
		r := rank
		e.Rank = &r
	}
	if len(c.Completions) > 0 {
		e.Completions = types.NewCompletionViews(c.Completions)
	}
	return e
}
