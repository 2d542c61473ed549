package dedupe_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	dedupe "github.com/okian/edurank/internal/domain/dedupe"
	"github.com/okian/edurank/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

var base = time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)

func at(h int) time.Time { return base.Add(time.Duration(h) * time.Hour) }

func TestLatestPerExam(t *testing.T) {
	Convey("Given two completions of the same exam", t, func() {
		examID := uuid.New()
		early := model.Completion{ID: uuid.New(), ExamID: examID, Score: 70, SubmittedAt: at(0)}
		late := model.Completion{ID: uuid.New(), ExamID: examID, Score: 90, SubmittedAt: at(1)}
		input := []model.Completion{early, late}

		Convey("When deduplicating", func() {
			got := dedupe.LatestPerExam(input)

			Convey("Then the 11:00 completion with score 90 is canonical", func() {
				So(got, ShouldHaveLength, 1)
				So(got[0].ID, ShouldEqual, late.ID)
				So(got[0].Score, ShouldEqual, 90)
			})

			Convey("And the input order is untouched", func() {
				So(input[0].ID, ShouldEqual, early.ID)
				So(input[1].ID, ShouldEqual, late.ID)
			})
		})
	})

	Convey("Given completions across several exams and a category completion", t, func() {
		a, b := uuid.New(), uuid.New()
		input := []model.Completion{
			{ExamID: a, Score: 1, SubmittedAt: at(0)},
			{ExamID: b, Score: 2, SubmittedAt: at(3)},
			{ExamID: a, Score: 3, SubmittedAt: at(2)},
			{CategoryID: uuid.New(), Score: 4, SubmittedAt: at(5)},
		}

		Convey("When deduplicating", func() {
			got := dedupe.LatestPerExam(input)

			Convey("Then one completion per exam remains, newest first", func() {
				So(got, ShouldHaveLength, 2)
				So(got[0].ExamID, ShouldEqual, b)
				So(got[1].ExamID, ShouldEqual, a)
				So(got[1].Score, ShouldEqual, 3)
			})
		})
	})

	Convey("Given no completions", t, func() {
		Convey("Then the result is empty, not nil", func() {
			got := dedupe.LatestPerExam(nil)
			So(got, ShouldNotBeNil)
			So(got, ShouldBeEmpty)
		})
	})
}

func TestUniqueLevels(t *testing.T) {
	Convey("Given a revised category superseding an older one at the same level", t, func() {
		old := model.Category{ID: uuid.New(), Level: 1, UpdatedAt: at(0)}
		revised := model.Category{ID: uuid.New(), Level: 1, UpdatedAt: at(5)}
		second := model.Category{ID: uuid.New(), Level: 2, UpdatedAt: at(2)}

		Convey("When deduplicating by level", func() {
			got := dedupe.UniqueLevels([]model.Category{old, second, revised})

			Convey("Then only the most recently updated category per level survives", func() {
				So(got, ShouldHaveLength, 2)
				So(got[0].ID, ShouldEqual, revised.ID)
				So(got[1].ID, ShouldEqual, second.ID)
			})
		})
	})

	Convey("Given two categories at one level with equal timestamps", t, func() {
		first := model.Category{ID: uuid.New(), Level: 3, UpdatedAt: at(1)}
		other := model.Category{ID: uuid.New(), Level: 3, UpdatedAt: at(1)}

		Convey("Then the stable sort keeps the first in input order", func() {
			got := dedupe.UniqueLevels([]model.Category{first, other})
			So(got, ShouldHaveLength, 1)
			So(got[0].ID, ShouldEqual, first.ID)

			again := dedupe.UniqueLevels([]model.Category{first, other})
			So(again[0].ID, ShouldEqual, got[0].ID)
		})
	})

	Convey("Given zero categories", t, func() {
		Convey("Then no error is possible and the result is empty", func() {
			So(dedupe.UniqueLevels(nil), ShouldBeEmpty)
		})
	})
}

func TestForCategoriesAndCompletedLevels(t *testing.T) {
	Convey("Given eligible categories and completions including a superseded category", t, func() {
		c1 := model.Category{ID: uuid.New(), Level: 1}
		c2 := model.Category{ID: uuid.New(), Level: 2}
		c3 := model.Category{ID: uuid.New(), Level: 3}
		superseded := uuid.New()
		eligible := []model.Category{c1, c2, c3}
		completions := []model.Completion{
			{CategoryID: c1.ID, SubmittedAt: at(0)},
			{CategoryID: c1.ID, SubmittedAt: at(1)},
			{CategoryID: c3.ID, SubmittedAt: at(2)},
			{CategoryID: superseded, SubmittedAt: at(3)},
		}

		Convey("When restricting to eligible categories", func() {
			got := dedupe.ForCategories(completions, eligible)

			Convey("Then the superseded completion is dropped", func() {
				So(got, ShouldHaveLength, 3)
				for _, c := range got {
					So(c.CategoryID, ShouldNotEqual, superseded)
				}
			})
		})

		Convey("When counting completed levels", func() {
			Convey("Then repeated attempts count once per level", func() {
				So(dedupe.CompletedLevels(eligible, completions), ShouldEqual, 2)
			})
		})

		Convey("When taking the latest completion per category", func() {
			got := dedupe.LatestPerCategory(completions)

			Convey("Then each category appears once", func() {
				So(got, ShouldHaveLength, 3)
				So(got[0].CategoryID, ShouldEqual, superseded)
				So(got[2].CategoryID, ShouldEqual, c1.ID)
				So(got[2].SubmittedAt, ShouldEqual, at(1))
			})
		})
	})
}
