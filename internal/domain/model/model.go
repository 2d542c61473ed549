// Package model contains domain models passed between layers.
//
// Entities are read-only snapshots loaded by a collaborator. The engine never
// mutates them; derived records live in the types package.
package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Teacher owns one roster. Rankings never cross teachers.
type Teacher struct {
	ID   uuid.UUID
	Name string
}

// Student is a roster member of exactly one teacher.
type Student struct {
	ID         uuid.UUID
	PublicID   string
	FirstName  string
	MiddleName string
	LastName   string
	TeacherID  uuid.UUID
}

// FullName joins the non-empty name parts with single spaces.
func (s Student) FullName() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{s.FirstName, s.MiddleName, s.LastName} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// Schedule is one availability window of an exam.
type Schedule struct {
	StartAt time.Time
	EndAt   time.Time
}

// Exam is the exam-track unit. It has no categories; the exam itself is
// the scored scope.
type Exam struct {
	ID           uuid.UUID
	Title        string
	PassingScore float64
	Schedules    []Schedule
}

// AvailableAt reports whether at least one schedule has started by now.
func (e Exam) AvailableAt(now time.Time) bool {
	for _, s := range e.Schedules {
		if !s.StartAt.After(now) {
			return true
		}
	}
	return false
}

// PointConfig holds point-based category settings.
type PointConfig struct {
	MaxPoints float64
}

// TimeConfig holds time-trial category settings.
type TimeConfig struct {
	TargetSeconds float64
}

// StageConfig holds staged category settings.
type StageConfig struct {
	Stages int
}

// Category is a leveled tier of an activity. At most one of the
// type-specific configs is set, matching the owning activity's game type.
type Category struct {
	ID         uuid.UUID
	ActivityID uuid.UUID
	Name       string
	Level      int
	UpdatedAt  time.Time

	Point *PointConfig
	Time  *TimeConfig
	Stage *StageConfig
}

// Activity is the activity-track unit.
type Activity struct {
	ID         uuid.UUID
	Title      string
	GameType   GameType
	Categories []Category
}

// Completion is one attempt by a student at an exam or a category.
// Exactly one of ExamID and CategoryID is non-nil.
type Completion struct {
	ID                   uuid.UUID
	StudentID            uuid.UUID
	ExamID               uuid.UUID
	CategoryID           uuid.UUID
	Score                float64
	TimeCompletedSeconds float64
	SubmittedAt          time.Time
}

// IsExam reports whether the completion belongs to the exam track.
func (c Completion) IsExam() bool { return c.ExamID != uuid.Nil }

// StudentCompletions pairs a roster member with the raw completions
// fetched for one scoring scope.
type StudentCompletions struct {
	Student     Student
	Completions []Completion
}

// StudentSnapshot is everything the cross-track combiner needs for one student.
type StudentSnapshot struct {
	Student             Student
	Exams               []Exam
	Activities          []Activity
	ExamCompletions     []Completion
	ActivityCompletions []Completion
}
