package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/okian/edurank/internal/adapters/repository"
	"github.com/okian/edurank/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type backend interface {
	repository.Store
	repository.Writer
	repository.Counter
}

type seeded struct {
	teacher  model.Teacher
	other    model.Teacher
	ana, ben model.Student
	exam     model.Exam
	activity model.Activity
	first    model.Completion
	retake   model.Completion
	tier     model.Completion
}

var base = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func seed(t *testing.T, ctx context.Context, w repository.Writer) seeded {
	t.Helper()
	s := seeded{
		teacher: model.Teacher{ID: uuid.New(), Name: "Ms. Frizzle"},
		other:   model.Teacher{ID: uuid.New(), Name: "Mr. Keating"},
	}
	s.ana = model.Student{ID: uuid.New(), PublicID: "S-001", FirstName: "Ana", LastName: "Cruz", TeacherID: s.teacher.ID}
	s.ben = model.Student{ID: uuid.New(), PublicID: "S-002", FirstName: "Ben", MiddleName: "J", LastName: "Cruz", TeacherID: s.teacher.ID}
	s.exam = model.Exam{
		ID: uuid.New(), Title: "Algebra", PassingScore: 60,
		Schedules: []model.Schedule{{StartAt: base, EndAt: base.Add(24 * time.Hour)}},
	}
	s.activity = model.Activity{ID: uuid.New(), Title: "Sprint", GameType: model.TimeBased}
	for level := 1; level <= 3; level++ {
		s.activity.Categories = append(s.activity.Categories, model.Category{
			ID: uuid.New(), Name: "tier", Level: level, UpdatedAt: base.Add(time.Duration(level) * time.Minute),
			Time: &model.TimeConfig{TargetSeconds: float64(10 * level)},
		})
	}
	s.first = model.Completion{ID: uuid.New(), StudentID: s.ana.ID, ExamID: s.exam.ID, Score: 70, SubmittedAt: base.Add(time.Hour)}
	s.retake = model.Completion{ID: uuid.New(), StudentID: s.ana.ID, ExamID: s.exam.ID, Score: 90, SubmittedAt: base.Add(2 * time.Hour)}
	s.tier = model.Completion{ID: uuid.New(), StudentID: s.ana.ID, CategoryID: s.activity.Categories[0].ID, TimeCompletedSeconds: 12.5, SubmittedAt: base.Add(30 * time.Minute)}

	require.NoError(t, w.AddTeacher(ctx, s.teacher))
	require.NoError(t, w.AddTeacher(ctx, s.other))
	require.NoError(t, w.AddStudent(ctx, s.ben))
	require.NoError(t, w.AddStudent(ctx, s.ana))
	require.NoError(t, w.AddExam(ctx, s.exam))
	require.NoError(t, w.AddActivity(ctx, s.activity))
	require.NoError(t, w.AssignExam(ctx, s.ana.ID, s.exam.ID))
	require.NoError(t, w.AssignExam(ctx, s.ana.ID, s.exam.ID))
	require.NoError(t, w.AssignActivity(ctx, s.ana.ID, s.activity.ID))
	require.NoError(t, w.AddCompletion(ctx, s.retake))
	require.NoError(t, w.AddCompletion(ctx, s.first))
	require.NoError(t, w.AddCompletion(ctx, s.tier))
	return s
}

func newSQLiteStore(t *testing.T, ctx context.Context) *repository.GormStore {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: gormlogger.Discard})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	store, err := repository.NewGormStore(ctx, db, repository.WithAutoMigrate(), repository.WithQueryTimeout(5*time.Second))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStores(t *testing.T) {
	ctx := context.Background()
	backends := map[string]func() backend{
		"memory": func() backend { return repository.NewMemStore() },
		"gorm":   func() backend { return newSQLiteStore(t, ctx) },
	}

	for name, build := range backends {
		Convey("Given a seeded "+name+" store", t, func() {
			store := build()
			s := seed(t, ctx, store)

			Convey("Then students resolve with their teacher", func() {
				got, err := store.Student(ctx, s.ben.ID)
				So(err, ShouldBeNil)
				So(got, ShouldResemble, s.ben)

				teacherID, err := store.TeacherOf(ctx, s.ana.ID)
				So(err, ShouldBeNil)
				So(teacherID, ShouldEqual, s.teacher.ID)

				_, err = store.Student(ctx, uuid.New())
				So(errors.Is(err, model.ErrStudentNotFound), ShouldBeTrue)
				So(errors.Is(err, model.ErrNotFound), ShouldBeTrue)
			})

			Convey("Then a roster is scoped to its teacher", func() {
				roster, err := store.Roster(ctx, s.teacher.ID)
				So(err, ShouldBeNil)
				So(roster, ShouldHaveLength, 2)

				empty, err := store.Roster(ctx, s.other.ID)
				So(err, ShouldBeNil)
				So(empty, ShouldBeEmpty)

				_, err = store.Roster(ctx, uuid.New())
				So(errors.Is(err, model.ErrTeacherNotFound), ShouldBeTrue)
			})

			Convey("Then units come back with their embedded metadata", func() {
				exam, err := store.Exam(ctx, s.exam.ID)
				So(err, ShouldBeNil)
				So(exam.Schedules, ShouldHaveLength, 1)
				So(exam.Schedules[0].StartAt.Equal(base), ShouldBeTrue)

				act, err := store.Activity(ctx, s.activity.ID)
				So(err, ShouldBeNil)
				So(act.GameType, ShouldEqual, model.TimeBased)
				So(act.Categories, ShouldHaveLength, 3)
				So(act.Categories[0].ActivityID, ShouldEqual, s.activity.ID)
				So(act.Categories[2].Time.TargetSeconds, ShouldEqual, 30)

				cats, err := store.EligibleCategories(ctx, s.activity.ID)
				So(err, ShouldBeNil)
				So(cats, ShouldHaveLength, 3)

				_, err = store.Exam(ctx, uuid.New())
				So(errors.Is(err, model.ErrExamNotFound), ShouldBeTrue)
				_, err = store.Activity(ctx, uuid.New())
				So(errors.Is(err, model.ErrActivityNotFound), ShouldBeTrue)
			})

			Convey("Then assignments are listed once", func() {
				exams, err := store.AssignedExams(ctx, s.ana.ID)
				So(err, ShouldBeNil)
				So(exams, ShouldHaveLength, 1)

				acts, err := store.AssignedActivities(ctx, s.ana.ID)
				So(err, ShouldBeNil)
				So(acts, ShouldHaveLength, 1)
				So(acts[0].Categories, ShouldHaveLength, 3)

				none, err := store.AssignedExams(ctx, s.ben.ID)
				So(err, ShouldBeNil)
				So(none, ShouldBeEmpty)
			})

			Convey("Then completions are filtered by scope and ordered by submission", func() {
				exam, err := store.Completions(ctx, model.ExamScope(s.exam.ID), s.ana.ID)
				So(err, ShouldBeNil)
				So(exam, ShouldHaveLength, 2)
				So(exam[0].ID, ShouldEqual, s.first.ID)
				So(exam[1].ID, ShouldEqual, s.retake.ID)

				act, err := store.Completions(ctx, model.ActivityScope(s.activity.ID), s.ana.ID)
				So(err, ShouldBeNil)
				So(act, ShouldHaveLength, 1)
				So(act[0].CategoryID, ShouldEqual, s.activity.Categories[0].ID)
				So(act[0].TimeCompletedSeconds, ShouldEqual, 12.5)

				all, err := store.Completions(ctx, model.AllExams(), s.ana.ID)
				So(err, ShouldBeNil)
				So(all, ShouldHaveLength, 2)

				acts, err := store.Completions(ctx, model.AllActivities(), s.ana.ID)
				So(err, ShouldBeNil)
				So(acts, ShouldHaveLength, 1)

				none, err := store.Completions(ctx, model.AllExams(), s.ben.ID)
				So(err, ShouldBeNil)
				So(none, ShouldBeEmpty)
			})

			Convey("Then bad completion lookups are classified", func() {
				_, err := store.Completions(ctx, model.ExamScope(uuid.New()), s.ana.ID)
				So(errors.Is(err, model.ErrExamNotFound), ShouldBeTrue)

				_, err = store.Completions(ctx, model.AllExams(), uuid.New())
				So(errors.Is(err, model.ErrStudentNotFound), ShouldBeTrue)

				_, err = store.Completions(ctx, model.Scope{}, s.ana.ID)
				So(errors.Is(err, repository.ErrInvalidScope), ShouldBeTrue)
				So(errors.Is(err, model.ErrInvariantViolation), ShouldBeTrue)
			})

			Convey("Then writers reject dangling references", func() {
				err := store.AddStudent(ctx, model.Student{ID: uuid.New(), PublicID: "S-404", FirstName: "X", LastName: "Y", TeacherID: uuid.New()})
				So(errors.Is(err, model.ErrTeacherNotFound), ShouldBeTrue)

				err = store.AssignExam(ctx, s.ana.ID, uuid.New())
				So(errors.Is(err, model.ErrExamNotFound), ShouldBeTrue)

				err = store.AddCompletion(ctx, model.Completion{ID: uuid.New(), StudentID: s.ana.ID, ExamID: s.exam.ID, CategoryID: uuid.New()})
				So(errors.Is(err, model.ErrInvariantViolation), ShouldBeTrue)
			})

			Convey("Then stats count the seeded rows", func() {
				st, err := store.Stats(ctx)
				So(err, ShouldBeNil)
				So(st, ShouldResemble, repository.Stats{Teachers: 2, Students: 2, Exams: 1, Activities: 1, Completions: 3})
			})
		})
	}
}

func TestMemStoreCopies(t *testing.T) {
	Convey("Given a memory store with an activity", t, func() {
		ctx := context.Background()
		store := repository.NewMemStore()
		s := seed(t, ctx, store)

		Convey("When a caller mutates a returned activity", func() {
			act, err := store.Activity(ctx, s.activity.ID)
			So(err, ShouldBeNil)
			act.Categories[0].Time.TargetSeconds = 999
			act.Categories = act.Categories[:1]

			Convey("Then the stored copy is unchanged", func() {
				again, err := store.Activity(ctx, s.activity.ID)
				So(err, ShouldBeNil)
				So(again.Categories, ShouldHaveLength, 3)
				So(again.Categories[0].Time.TargetSeconds, ShouldEqual, 10)
			})
		})

		Convey("When the same id is inserted twice", func() {
			err := store.AddTeacher(ctx, s.teacher)

			Convey("Then it is rejected", func() {
				So(errors.Is(err, repository.ErrDuplicate), ShouldBeTrue)
			})
		})
	})
}
