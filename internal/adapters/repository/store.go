// Package repository defines the read contract the ranking engine fetches
// its snapshots through, plus an in-memory and a GORM implementation.
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/okian/edurank/internal/domain/model"
	"github.com/okian/edurank/pkg/metrics"
)

// Store provides read access to the entity graphs the engine scores.
//
// Every method returns an error satisfying errors.Is(err, model.ErrNotFound)
// when the referenced entity does not exist. Returned values are copies and
// may be used after the call without synchronization.
type Store interface {
	// Student returns one student.
	Student(ctx context.Context, studentID uuid.UUID) (model.Student, error)
	// Roster returns a teacher's students ordered by id.
	Roster(ctx context.Context, teacherID uuid.UUID) ([]model.Student, error)
	// TeacherOf resolves the teacher owning a student's roster.
	TeacherOf(ctx context.Context, studentID uuid.UUID) (uuid.UUID, error)

	// Exam returns one exam with its schedules.
	Exam(ctx context.Context, examID uuid.UUID) (model.Exam, error)
	// Activity returns one activity with its categories embedded.
	Activity(ctx context.Context, activityID uuid.UUID) (model.Activity, error)
	// AssignedExams returns the exams assigned to a student.
	AssignedExams(ctx context.Context, studentID uuid.UUID) ([]model.Exam, error)
	// AssignedActivities returns the activities assigned to a student.
	AssignedActivities(ctx context.Context, studentID uuid.UUID) ([]model.Activity, error)
	// EligibleCategories returns an activity's categories including
	// superseded ones; level deduplication is left to the engine.
	EligibleCategories(ctx context.Context, activityID uuid.UUID) ([]model.Category, error)

	// Completions returns a student's raw completions inside scope ordered
	// by submission time.
	Completions(ctx context.Context, scope model.Scope, studentID uuid.UUID) ([]model.Completion, error)
}

// Writer loads entity graphs into a store. It is used by fixtures, demo
// mode and tests; the engine itself never writes.
type Writer interface {
	AddTeacher(ctx context.Context, t model.Teacher) error
	AddStudent(ctx context.Context, s model.Student) error
	AddExam(ctx context.Context, e model.Exam) error
	AddActivity(ctx context.Context, a model.Activity) error
	AssignExam(ctx context.Context, studentID, examID uuid.UUID) error
	AssignActivity(ctx context.Context, studentID, activityID uuid.UUID) error
	AddCompletion(ctx context.Context, c model.Completion) error
}

// Stats summarizes store contents for the /stats endpoint.
type Stats struct {
	Teachers    int `json:"teachers"`
	Students    int `json:"students"`
	Exams       int `json:"exams"`
	Activities  int `json:"activities"`
	Completions int `json:"completions"`
}

// Counter is implemented by stores that can report their size.
type Counter interface {
	Stats(ctx context.Context) (Stats, error)
}

// observe records latency and failure of one store call.
func observe(op string, start time.Time, err error) {
	metrics.RecordRepositoryQuery(op, float64(time.Since(start).Microseconds())/1000, err)
}
