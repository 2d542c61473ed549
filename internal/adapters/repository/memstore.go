package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/okian/edurank/internal/domain/model"
)

// MemStore is an in-memory Store. Writers are used by fixtures and tests;
// readers return deep copies so callers never share slices with the store.
type MemStore struct {
	mu sync.RWMutex

	teachers    map[uuid.UUID]model.Teacher
	students    map[uuid.UUID]model.Student
	exams       map[uuid.UUID]model.Exam
	activities  map[uuid.UUID]model.Activity
	examsOf     map[uuid.UUID][]uuid.UUID
	activityOf  map[uuid.UUID][]uuid.UUID
	completions map[uuid.UUID][]model.Completion
	categoryOf  map[uuid.UUID]uuid.UUID
}

// NewMemStore returns an empty store.
func NewMemStore() *MemStore {
	return &MemStore{
		teachers:    make(map[uuid.UUID]model.Teacher),
		students:    make(map[uuid.UUID]model.Student),
		exams:       make(map[uuid.UUID]model.Exam),
		activities:  make(map[uuid.UUID]model.Activity),
		examsOf:     make(map[uuid.UUID][]uuid.UUID),
		activityOf:  make(map[uuid.UUID][]uuid.UUID),
		completions: make(map[uuid.UUID][]model.Completion),
		categoryOf:  make(map[uuid.UUID]uuid.UUID),
	}
}

// AddTeacher registers a teacher.
func (s *MemStore) AddTeacher(_ context.Context, t model.Teacher) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.teachers[t.ID]; ok {
		return fmt.Errorf("%w: teacher %s", ErrDuplicate, t.ID)
	}
	s.teachers[t.ID] = t
	return nil
}

// AddStudent registers a student on an existing teacher's roster.
func (s *MemStore) AddStudent(_ context.Context, st model.Student) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.teachers[st.TeacherID]; !ok {
		return fmt.Errorf("%w: %s", model.ErrTeacherNotFound, st.TeacherID)
	}
	if _, ok := s.students[st.ID]; ok {
		return fmt.Errorf("%w: student %s", ErrDuplicate, st.ID)
	}
	s.students[st.ID] = st
	return nil
}

// AddExam registers an exam.
func (s *MemStore) AddExam(_ context.Context, e model.Exam) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.exams[e.ID]; ok {
		return fmt.Errorf("%w: exam %s", ErrDuplicate, e.ID)
	}
	s.exams[e.ID] = copyExam(e)
	return nil
}

// AddActivity registers an activity and indexes its categories.
func (s *MemStore) AddActivity(_ context.Context, a model.Activity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.activities[a.ID]; ok {
		return fmt.Errorf("%w: activity %s", ErrDuplicate, a.ID)
	}
	a = copyActivity(a)
	for i := range a.Categories {
		a.Categories[i].ActivityID = a.ID
		s.categoryOf[a.Categories[i].ID] = a.ID
	}
	s.activities[a.ID] = a
	return nil
}

// AssignExam assigns an exam to a student. Repeated assignments are ignored.
func (s *MemStore) AssignExam(_ context.Context, studentID, examID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.students[studentID]; !ok {
		return fmt.Errorf("%w: %s", model.ErrStudentNotFound, studentID)
	}
	if _, ok := s.exams[examID]; !ok {
		return fmt.Errorf("%w: %s", model.ErrExamNotFound, examID)
	}
	s.examsOf[studentID] = appendUnique(s.examsOf[studentID], examID)
	return nil
}

// AssignActivity assigns an activity to a student. Repeated assignments are
// ignored.
func (s *MemStore) AssignActivity(_ context.Context, studentID, activityID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.students[studentID]; !ok {
		return fmt.Errorf("%w: %s", model.ErrStudentNotFound, studentID)
	}
	if _, ok := s.activities[activityID]; !ok {
		return fmt.Errorf("%w: %s", model.ErrActivityNotFound, activityID)
	}
	s.activityOf[studentID] = appendUnique(s.activityOf[studentID], activityID)
	return nil
}

// AddCompletion records an attempt. The referenced student and exam or
// category must exist.
func (s *MemStore) AddCompletion(_ context.Context, c model.Completion) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.students[c.StudentID]; !ok {
		return fmt.Errorf("%w: %s", model.ErrStudentNotFound, c.StudentID)
	}
	switch {
	case c.IsExam() && c.CategoryID != uuid.Nil:
		return fmt.Errorf("%w: completion %s references both an exam and a category", model.ErrInvariantViolation, c.ID)
	case c.IsExam():
		if _, ok := s.exams[c.ExamID]; !ok {
			return fmt.Errorf("%w: %s", model.ErrExamNotFound, c.ExamID)
		}
	default:
		if _, ok := s.categoryOf[c.CategoryID]; !ok {
			return fmt.Errorf("%w: category %s", model.ErrActivityNotFound, c.CategoryID)
		}
	}
	s.completions[c.StudentID] = append(s.completions[c.StudentID], c)
	return nil
}

// Student implements Store.
func (s *MemStore) Student(_ context.Context, studentID uuid.UUID) (_ model.Student, err error) {
	defer func(start time.Time) { observe("student", start, err) }(time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.students[studentID]
	if !ok {
		return model.Student{}, fmt.Errorf("%w: %s", model.ErrStudentNotFound, studentID)
	}
	return st, nil
}

// Roster implements Store.
func (s *MemStore) Roster(_ context.Context, teacherID uuid.UUID) (_ []model.Student, err error) {
	defer func(start time.Time) { observe("roster", start, err) }(time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.teachers[teacherID]; !ok {
		return nil, fmt.Errorf("%w: %s", model.ErrTeacherNotFound, teacherID)
	}
	out := make([]model.Student, 0)
	for _, st := range s.students {
		if st.TeacherID == teacherID {
			out = append(out, st)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}

// TeacherOf implements Store.
func (s *MemStore) TeacherOf(ctx context.Context, studentID uuid.UUID) (uuid.UUID, error) {
	st, err := s.Student(ctx, studentID)
	if err != nil {
		return uuid.Nil, err
	}
	return st.TeacherID, nil
}

// Exam implements Store.
func (s *MemStore) Exam(_ context.Context, examID uuid.UUID) (_ model.Exam, err error) {
	defer func(start time.Time) { observe("exam", start, err) }(time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.exams[examID]
	if !ok {
		return model.Exam{}, fmt.Errorf("%w: %s", model.ErrExamNotFound, examID)
	}
	return copyExam(e), nil
}

// Activity implements Store.
func (s *MemStore) Activity(_ context.Context, activityID uuid.UUID) (_ model.Activity, err error) {
	defer func(start time.Time) { observe("activity", start, err) }(time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.activities[activityID]
	if !ok {
		return model.Activity{}, fmt.Errorf("%w: %s", model.ErrActivityNotFound, activityID)
	}
	return copyActivity(a), nil
}

// AssignedExams implements Store.
func (s *MemStore) AssignedExams(_ context.Context, studentID uuid.UUID) (_ []model.Exam, err error) {
	defer func(start time.Time) { observe("assigned_exams", start, err) }(time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.students[studentID]; !ok {
		return nil, fmt.Errorf("%w: %s", model.ErrStudentNotFound, studentID)
	}
	ids := s.examsOf[studentID]
	out := make([]model.Exam, 0, len(ids))
	for _, id := range ids {
		out = append(out, copyExam(s.exams[id]))
	}
	return out, nil
}

// AssignedActivities implements Store.
func (s *MemStore) AssignedActivities(_ context.Context, studentID uuid.UUID) (_ []model.Activity, err error) {
	defer func(start time.Time) { observe("assigned_activities", start, err) }(time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.students[studentID]; !ok {
		return nil, fmt.Errorf("%w: %s", model.ErrStudentNotFound, studentID)
	}
	ids := s.activityOf[studentID]
	out := make([]model.Activity, 0, len(ids))
	for _, id := range ids {
		out = append(out, copyActivity(s.activities[id]))
	}
	return out, nil
}

// EligibleCategories implements Store.
func (s *MemStore) EligibleCategories(ctx context.Context, activityID uuid.UUID) ([]model.Category, error) {
	a, err := s.Activity(ctx, activityID)
	if err != nil {
		return nil, err
	}
	return a.Categories, nil
}

// Completions implements Store.
func (s *MemStore) Completions(_ context.Context, scope model.Scope, studentID uuid.UUID) (_ []model.Completion, err error) {
	defer func(start time.Time) { observe("completions", start, err) }(time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.completionsLocked(scope, studentID)
}

func (s *MemStore) completionsLocked(scope model.Scope, studentID uuid.UUID) ([]model.Completion, error) {
	if _, ok := s.students[studentID]; !ok {
		return nil, fmt.Errorf("%w: %s", model.ErrStudentNotFound, studentID)
	}

	var keep func(model.Completion) bool
	switch scope.Kind {
	case model.ScopeExam:
		if _, ok := s.exams[scope.UnitID]; !ok {
			return nil, fmt.Errorf("%w: %s", model.ErrExamNotFound, scope.UnitID)
		}
		keep = func(c model.Completion) bool { return c.ExamID == scope.UnitID }
	case model.ScopeActivity:
		if _, ok := s.activities[scope.UnitID]; !ok {
			return nil, fmt.Errorf("%w: %s", model.ErrActivityNotFound, scope.UnitID)
		}
		keep = func(c model.Completion) bool { return c.CategoryID != uuid.Nil && s.categoryOf[c.CategoryID] == scope.UnitID }
	case model.ScopeAllExams:
		keep = model.Completion.IsExam
	case model.ScopeAllActivities:
		keep = func(c model.Completion) bool { return c.CategoryID != uuid.Nil }
	default:
		return nil, fmt.Errorf("%w: kind %d", ErrInvalidScope, int(scope.Kind))
	}

	all := s.completions[studentID]
	out := make([]model.Completion, 0, len(all))
	for _, c := range all {
		if keep(c) {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].SubmittedAt.Before(out[j].SubmittedAt) })
	return out, nil
}

// Stats implements Counter.
func (s *MemStore) Stats(_ context.Context) (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := Stats{
		Teachers:   len(s.teachers),
		Students:   len(s.students),
		Exams:      len(s.exams),
		Activities: len(s.activities),
	}
	for _, cs := range s.completions {
		st.Completions += len(cs)
	}
	return st, nil
}

func appendUnique(ids []uuid.UUID, id uuid.UUID) []uuid.UUID {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}

func copyExam(e model.Exam) model.Exam {
	e.Schedules = append([]model.Schedule(nil), e.Schedules...)
	return e
}

func copyActivity(a model.Activity) model.Activity {
	cats := make([]model.Category, len(a.Categories))
	for i, c := range a.Categories {
		if c.Point != nil {
			p := *c.Point
			c.Point = &p
		}
		if c.Time != nil {
			t := *c.Time
			c.Time = &t
		}
		if c.Stage != nil {
			st := *c.Stage
			c.Stage = &st
		}
		cats[i] = c
	}
	a.Categories = cats
	return a
}

var (
	_ Store   = (*MemStore)(nil)
	_ Writer  = (*MemStore)(nil)
	_ Counter = (*MemStore)(nil)
)
