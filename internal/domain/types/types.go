// Package types contains the derived records returned to callers. They are
// built fresh for every request and never persisted.
package types

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/okian/edurank/internal/domain/model"
)

// Track selects the exam or the activity side of a student's results.
type Track string

// Tracks.
const (
	TrackExam     Track = "exam"
	TrackActivity Track = "activity"
)

// ParseTrack validates a track name.
func ParseTrack(s string) (Track, error) {
	switch Track(strings.ToLower(strings.TrimSpace(s))) {
	case TrackExam:
		return TrackExam, nil
	case TrackActivity:
		return TrackActivity, nil
	default:
		return "", fmt.Errorf("unknown track %q", s)
	}
}

// CompletionView is the read shape of a canonical completion.
type CompletionView struct {
	ID                   uuid.UUID  `json:"id"`
	ExamID               *uuid.UUID `json:"exam_id,omitempty"`
	CategoryID           *uuid.UUID `json:"category_id,omitempty"`
	Score                float64    `json:"score"`
	TimeCompletedSeconds float64    `json:"time_completed_seconds"`
	SubmittedAt          time.Time  `json:"submitted_at"`
}

// NewCompletionView converts a completion.
func NewCompletionView(c model.Completion) CompletionView {
	v := CompletionView{
		ID:                   c.ID,
		Score:                c.Score,
		TimeCompletedSeconds: c.TimeCompletedSeconds,
		SubmittedAt:          c.SubmittedAt,
	}
	if c.ExamID != uuid.Nil {
		id := c.ExamID
		v.ExamID = &id
	}
	if c.CategoryID != uuid.Nil {
		id := c.CategoryID
		v.CategoryID = &id
	}
	return v
}

// NewCompletionViews converts a list of completions.
func NewCompletionViews(cs []model.Completion) []CompletionView {
	out := make([]CompletionView, len(cs))
	for i, c := range cs {
		out[i] = NewCompletionView(c)
	}
	return out
}

// RankedEntry is one row of a leaderboard. Rank is nil for unranked
// students. Score is nil when the student has nothing scored, and is kept
// for students held back by a minimum completion count.
type RankedEntry struct {
	StudentID   uuid.UUID        `json:"student_id"`
	PublicID    string           `json:"public_id"`
	FullName    string           `json:"full_name"`
	Score       *float64         `json:"score"`
	Rank        *int             `json:"rank"`
	Completions []CompletionView `json:"completions,omitempty"`
}

// RosterRanking is a teacher-scoped overall ranking for one track.
type RosterRanking struct {
	Track            Track         `json:"track"`
	RankedStudents   []RankedEntry `json:"ranked_students"`
	UnrankedStudents []RankedEntry `json:"unranked_students"`
}

// CategoryResult is one eligible category of a unit and the completion
// selected for it, if any.
type CategoryResult struct {
	CategoryID uuid.UUID       `json:"category_id"`
	Name       string          `json:"name"`
	Level      int             `json:"level"`
	Selected   *CompletionView `json:"selected"`
}

// UnitSummary is one student's result on one unit.
type UnitSummary struct {
	UnitID     uuid.UUID        `json:"unit_id"`
	UnitKind   string           `json:"unit_kind"`
	GameType   string           `json:"game_type,omitempty"`
	StudentID  uuid.UUID        `json:"student_id"`
	Score      *float64         `json:"score"`
	Rank       *int             `json:"rank"`
	Done       bool             `json:"done"`
	Categories []CategoryResult `json:"categories"`
}

// Identity carries the student fields copied into a summary.
type Identity struct {
	StudentID  uuid.UUID `json:"student_id"`
	PublicID   string    `json:"public_id"`
	FirstName  string    `json:"first_name"`
	MiddleName string    `json:"middle_name,omitempty"`
	LastName   string    `json:"last_name"`
	FullName   string    `json:"full_name"`
}

// NewIdentity copies identity fields from a student.
func NewIdentity(s model.Student) Identity {
	return Identity{
		StudentID:  s.ID,
		PublicID:   s.PublicID,
		FirstName:  s.FirstName,
		MiddleName: s.MiddleName,
		LastName:   s.LastName,
		FullName:   s.FullName(),
	}
}

// ExamMetrics is the exam-track half of a performance summary.
type ExamMetrics struct {
	Total             int          `json:"total"`
	Available         int          `json:"available"`
	Completed         int          `json:"completed"`
	Passed            int          `json:"passed"`
	Failed            int          `json:"failed"`
	Expired           int          `json:"expired"`
	CompletionPercent model.Metric `json:"completion_percent"`
	Rank              *int         `json:"rank"`
	Score             *float64     `json:"score"`
}

// ActivityMetrics is the activity-track half of a performance summary.
type ActivityMetrics struct {
	Total             int          `json:"total"`
	Completed         int          `json:"completed"`
	TotalCategories   int          `json:"total_categories"`
	CompletedLevels   int          `json:"completed_levels"`
	CompletionPercent model.Metric `json:"completion_percent"`
	Rank              *int         `json:"rank"`
	Score             *float64     `json:"score"`
}

// PerformanceSummary merges a student's identity with both tracks.
type PerformanceSummary struct {
	Identity
	TeacherID uuid.UUID       `json:"teacher_id"`
	Exams     ExamMetrics     `json:"exams"`
	Activity  ActivityMetrics `json:"activities"`
}
