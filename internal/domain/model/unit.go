package model

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// UnitKind distinguishes the two tracks.
type UnitKind int

// Unit kinds.
const (
	UnitExam UnitKind = iota + 1
	UnitActivity
)

func (k UnitKind) String() string {
	switch k {
	case UnitExam:
		return "exam"
	case UnitActivity:
		return "activity"
	default:
		return "unknown"
	}
}

// ParseUnitKind accepts "exam(s)" or "activity/activities".
func ParseUnitKind(s string) (UnitKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "exam", "exams":
		return UnitExam, nil
	case "activity", "activities":
		return UnitActivity, nil
	default:
		return 0, fmt.Errorf("unknown unit kind %q", s)
	}
}

// Unit is an exam or an activity.
type Unit struct {
	Kind     UnitKind
	Exam     Exam
	Activity Activity
}

// ExamUnit wraps an exam.
func ExamUnit(e Exam) Unit { return Unit{Kind: UnitExam, Exam: e} }

// ActivityUnit wraps an activity.
func ActivityUnit(a Activity) Unit { return Unit{Kind: UnitActivity, Activity: a} }

// ID returns the wrapped unit's id.
func (u Unit) ID() uuid.UUID {
	if u.Kind == UnitExam {
		return u.Exam.ID
	}
	return u.Activity.ID
}

// Title returns the wrapped unit's title.
func (u Unit) Title() string {
	if u.Kind == UnitExam {
		return u.Exam.Title
	}
	return u.Activity.Title
}

// ScopeKind selects which completions a fetch returns.
type ScopeKind int

// Scope kinds.
const (
	ScopeExam ScopeKind = iota + 1
	ScopeActivity
	ScopeAllExams
	ScopeAllActivities
)

// Scope narrows a completion fetch to one unit or one whole track.
type Scope struct {
	Kind   ScopeKind
	UnitID uuid.UUID
}

// ExamScope selects the completions of one exam.
func ExamScope(id uuid.UUID) Scope { return Scope{Kind: ScopeExam, UnitID: id} }

// ActivityScope selects the completions of one activity's categories.
func ActivityScope(id uuid.UUID) Scope { return Scope{Kind: ScopeActivity, UnitID: id} }

// AllExams selects every exam completion of a student.
func AllExams() Scope { return Scope{Kind: ScopeAllExams} }

// AllActivities selects every activity completion of a student.
func AllActivities() Scope { return Scope{Kind: ScopeAllActivities} }

// ScopeOf returns the completion scope of a unit.
func ScopeOf(u Unit) Scope {
	if u.Kind == UnitExam {
		return ExamScope(u.Exam.ID)
	}
	return ActivityScope(u.Activity.ID)
}
