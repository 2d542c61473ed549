package ranking_test

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/okian/edurank/internal/domain/model"
	"github.com/okian/edurank/internal/domain/ranking"
	"github.com/okian/edurank/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func score(v float64) *float64 { return &v }

func candidate(first, last string, s *float64, completions int) ranking.Candidate {
	cs := make([]model.Completion, completions)
	for i := range cs {
		cs[i] = model.Completion{ID: uuid.New(), CategoryID: uuid.New()}
	}
	return ranking.Candidate{
		Student:     model.Student{ID: uuid.New(), FirstName: first, LastName: last},
		Score:       s,
		Completions: cs,
	}
}

func ranks(entries []types.RankedEntry) []int {
	out := make([]int, len(entries))
	for i, e := range entries {
		if e.Rank == nil {
			out[i] = 0
			continue
		}
		out[i] = *e.Rank
	}
	return out
}

func names(entries []types.RankedEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.FullName
	}
	return out
}

func TestCompetition(t *testing.T) {
	Convey("Given scores 90, 90 and 80", t, func() {
		roster := []ranking.Candidate{
			candidate("A", "One", score(90), 1),
			candidate("B", "Two", score(90), 1),
			candidate("C", "Three", score(80), 1),
		}

		Convey("When ranking with the competition policy", func() {
			res := ranking.Competition(roster, ranking.HigherFirst)

			Convey("Then the tied pair shares rank 1 and the next rank is 3", func() {
				So(ranks(res.Ranked), ShouldResemble, []int{1, 1, 3})
				So(res.Unranked, ShouldBeEmpty)
			})
		})
	})

	Convey("Given scores 50, 70, 70, 70, 10", t, func() {
		roster := []ranking.Candidate{
			candidate("A", "A", score(50), 1),
			candidate("B", "B", score(70), 1),
			candidate("C", "C", score(70), 1),
			candidate("D", "D", score(70), 1),
			candidate("E", "E", score(10), 1),
		}

		Convey("Then ranks are 1-1-1-4-5", func() {
			res := ranking.Competition(roster, ranking.HigherFirst)
			So(ranks(res.Ranked), ShouldResemble, []int{1, 1, 1, 4, 5})
			So(names(res.Ranked)[3], ShouldEqual, "A A")
		})
	})

	Convey("Given time scores where lower is better", t, func() {
		roster := []ranking.Candidate{
			candidate("Slow", "X", score(30), 3),
			candidate("Fast", "X", score(10), 3),
			candidate("Also", "Fast", score(10), 3),
		}

		Convey("Then ascending order is used", func() {
			res := ranking.Competition(roster, ranking.LowerFirst)
			So(names(res.Ranked), ShouldResemble, []string{"Fast X", "Also Fast", "Slow X"})
			So(ranks(res.Ranked), ShouldResemble, []int{1, 1, 3})
		})
	})
}

func TestSequential(t *testing.T) {
	Convey("Given scores 90, 90 and 80 for one unit", t, func() {
		roster := []ranking.Candidate{
			candidate("First", "Tie", score(90), 1),
			candidate("Second", "Tie", score(90), 1),
			candidate("Low", "Score", score(80), 1),
		}

		Convey("When ranking sequentially", func() {
			res := ranking.Sequential(roster, ranking.HigherFirst)

			Convey("Then ranks are 1, 2, 3 with the tied pair in input order", func() {
				So(ranks(res.Ranked), ShouldResemble, []int{1, 2, 3})
				So(names(res.Ranked), ShouldResemble, []string{"First Tie", "Second Tie", "Low Score"})
			})
		})
	})

	Convey("Given a time-based unit where one student completed 2 of 3 tiers", t, func() {
		roster := []ranking.Candidate{
			candidate("Quick", "Partial", score(5), 2),
			candidate("Steady", "Full", score(20), 3),
		}

		Convey("When ranking with the three-completion gate", func() {
			res := ranking.Sequential(roster, ranking.LowerFirst, ranking.WithMinCompletions(3))

			Convey("Then the partial student is unranked despite the better average", func() {
				So(names(res.Ranked), ShouldResemble, []string{"Steady Full"})
				So(res.Unranked, ShouldHaveLength, 1)
				So(res.Unranked[0].FullName, ShouldEqual, "Quick Partial")
				So(res.Unranked[0].Rank, ShouldBeNil)
				So(*res.Unranked[0].Score, ShouldEqual, 5)
			})
		})
	})
}

func TestUnranked(t *testing.T) {
	Convey("Given unscored students in reverse name order", t, func() {
		roster := []ranking.Candidate{
			candidate("Ben", "Cruz", nil, 0),
			candidate("ana", "Cruz", nil, 0),
			candidate("Zed", "Able", score(1), 1),
		}

		Convey("When ranking with either policy", func() {
			results := []ranking.Result{
				ranking.Sequential(roster, ranking.HigherFirst),
				ranking.Competition(roster, ranking.HigherFirst),
			}

			Convey("Then unscored students follow scored ones by name", func() {
				for _, res := range results {
					all := res.All()
					So(names(all), ShouldResemble, []string{"Zed Able", "ana Cruz", "Ben Cruz"})
					So(all[1].Rank, ShouldBeNil)
					So(all[1].Score, ShouldBeNil)
				}
			})
		})
	})

	Convey("Given \"Ana Cruz\" and \"Ben Cruz\" without scores", t, func() {
		roster := []ranking.Candidate{candidate("Ben", "Cruz", nil, 0), candidate("Ana", "Cruz", nil, 0)}

		Convey("Then Ana sorts before Ben", func() {
			res := ranking.Competition(roster, ranking.HigherFirst)
			So(names(res.Unranked), ShouldResemble, []string{"Ana Cruz", "Ben Cruz"})
		})
	})
}

func TestTotality(t *testing.T) {
	Convey("Given rosters of many sizes with mixed scores", t, func() {
		for n := 0; n <= 25; n++ {
			roster := make([]ranking.Candidate, n)
			for i := range roster {
				var s *float64
				if i%3 != 0 {
					s = score(float64(i % 4))
				}
				roster[i] = candidate(fmt.Sprintf("S%02d", i), "X", s, i%4)
			}

			for _, res := range []ranking.Result{
				ranking.Sequential(roster, ranking.HigherFirst, ranking.WithMinCompletions(2)),
				ranking.Competition(roster, ranking.LowerFirst),
			} {
				seen := make(map[uuid.UUID]int)
				for _, e := range res.All() {
					seen[e.StudentID]++
				}
				So(res.Len(), ShouldEqual, n)
				So(seen, ShouldHaveLength, n)
				for _, c := range roster {
					So(seen[c.Student.ID], ShouldEqual, 1)
				}
			}
		}
	})
}

func TestDeterminism(t *testing.T) {
	Convey("Given the same roster ranked twice", t, func() {
		roster := []ranking.Candidate{
			candidate("A", "A", score(3), 1),
			candidate("B", "B", nil, 0),
			candidate("C", "C", score(3), 1),
			candidate("D", "D", score(9), 1),
		}

		Convey("Then the output is identical", func() {
			first := ranking.Competition(roster, ranking.HigherFirst)
			second := ranking.Competition(roster, ranking.HigherFirst)
			So(first, ShouldResemble, second)
			So(ranks(first.Ranked), ShouldResemble, []int{1, 2, 2})
		})
	})

	Convey("Given a direction derived from the game type", t, func() {
		So(ranking.DirectionFor(model.TimeBased), ShouldEqual, ranking.LowerFirst)
		So(ranking.DirectionFor(model.PointBased), ShouldEqual, ranking.HigherFirst)
	})
}
