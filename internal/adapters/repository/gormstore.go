package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/okian/edurank/internal/domain/model"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// GormStore is a Store backed by a relational database through GORM.
// Postgres is the production driver; tests run it on SQLite.
type GormStore struct {
	db           *gorm.DB
	queryTimeout time.Duration
	autoMigrate  bool
}

// OpenPostgres connects to Postgres. verbose switches GORM's SQL logging
// from errors only to every statement.
func OpenPostgres(dsn string, verbose bool) (*gorm.DB, error) {
	level := gormlogger.Error
	if verbose {
		level = gormlogger.Info
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// NewGormStore wraps an open connection.
func NewGormStore(ctx context.Context, db *gorm.DB, opts ...Option) (*GormStore, error) {
	s := &GormStore{db: db}
	for _, opt := range opts {
		opt(s)
	}
	if s.autoMigrate {
		if err := s.Migrate(ctx); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Migrate creates or updates the schema.
func (s *GormStore) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(allRecords()...); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping checks connectivity.
func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *GormStore) conn(ctx context.Context) (*gorm.DB, context.CancelFunc) {
	if s.queryTimeout > 0 {
		ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
		return s.db.WithContext(ctx), cancel
	}
	return s.db.WithContext(ctx), func() {}
}

// notFound maps gorm.ErrRecordNotFound onto a domain kind.
func notFound(err error, kind error, id uuid.UUID) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s", kind, id)
	}
	return err
}

// Student implements Store.
func (s *GormStore) Student(ctx context.Context, studentID uuid.UUID) (_ model.Student, err error) {
	defer func(start time.Time) { observe("student", start, err) }(time.Now())
	db, cancel := s.conn(ctx)
	defer cancel()

	var rec studentRecord
	if err := db.Take(&rec, "id = ?", studentID).Error; err != nil {
		return model.Student{}, notFound(err, model.ErrStudentNotFound, studentID)
	}
	return rec.toModel(), nil
}

// Roster implements Store.
func (s *GormStore) Roster(ctx context.Context, teacherID uuid.UUID) (_ []model.Student, err error) {
	defer func(start time.Time) { observe("roster", start, err) }(time.Now())
	db, cancel := s.conn(ctx)
	defer cancel()

	var teacher teacherRecord
	if err := db.Take(&teacher, "id = ?", teacherID).Error; err != nil {
		return nil, notFound(err, model.ErrTeacherNotFound, teacherID)
	}
	var recs []studentRecord
	if err := db.Where("teacher_id = ?", teacherID).Order("id").Find(&recs).Error; err != nil {
		return nil, err
	}
	out := make([]model.Student, len(recs))
	for i, r := range recs {
		out[i] = r.toModel()
	}
	return out, nil
}

// TeacherOf implements Store.
func (s *GormStore) TeacherOf(ctx context.Context, studentID uuid.UUID) (uuid.UUID, error) {
	st, err := s.Student(ctx, studentID)
	if err != nil {
		return uuid.Nil, err
	}
	return st.TeacherID, nil
}

// Exam implements Store.
func (s *GormStore) Exam(ctx context.Context, examID uuid.UUID) (_ model.Exam, err error) {
	defer func(start time.Time) { observe("exam", start, err) }(time.Now())
	db, cancel := s.conn(ctx)
	defer cancel()

	var rec examRecord
	if err := preloadSchedules(db).Take(&rec, "id = ?", examID).Error; err != nil {
		return model.Exam{}, notFound(err, model.ErrExamNotFound, examID)
	}
	return rec.toModel(), nil
}

// Activity implements Store.
func (s *GormStore) Activity(ctx context.Context, activityID uuid.UUID) (_ model.Activity, err error) {
	defer func(start time.Time) { observe("activity", start, err) }(time.Now())
	db, cancel := s.conn(ctx)
	defer cancel()

	var rec activityRecord
	if err := preloadCategories(db).Take(&rec, "id = ?", activityID).Error; err != nil {
		return model.Activity{}, notFound(err, model.ErrActivityNotFound, activityID)
	}
	return rec.toModel()
}

// AssignedExams implements Store.
func (s *GormStore) AssignedExams(ctx context.Context, studentID uuid.UUID) (_ []model.Exam, err error) {
	defer func(start time.Time) { observe("assigned_exams", start, err) }(time.Now())
	db, cancel := s.conn(ctx)
	defer cancel()

	if err := s.requireStudent(db, studentID); err != nil {
		return nil, err
	}
	var recs []examRecord
	err = preloadSchedules(db).
		Select("exams.*").
		Joins("JOIN exam_assignments ON exam_assignments.exam_id = exams.id").
		Where("exam_assignments.student_id = ?", studentID).
		Order("exam_assignments.position").
		Find(&recs).Error
	if err != nil {
		return nil, err
	}
	out := make([]model.Exam, len(recs))
	for i, r := range recs {
		out[i] = r.toModel()
	}
	return out, nil
}

// AssignedActivities implements Store.
func (s *GormStore) AssignedActivities(ctx context.Context, studentID uuid.UUID) (_ []model.Activity, err error) {
	defer func(start time.Time) { observe("assigned_activities", start, err) }(time.Now())
	db, cancel := s.conn(ctx)
	defer cancel()

	if err := s.requireStudent(db, studentID); err != nil {
		return nil, err
	}
	var recs []activityRecord
	err = preloadCategories(db).
		Select("activities.*").
		Joins("JOIN activity_assignments ON activity_assignments.activity_id = activities.id").
		Where("activity_assignments.student_id = ?", studentID).
		Order("activity_assignments.position").
		Find(&recs).Error
	if err != nil {
		return nil, err
	}
	out := make([]model.Activity, 0, len(recs))
	for _, r := range recs {
		a, err := r.toModel()
		if err != nil {
			return nil, fmt.Errorf("activity %s: %w", r.ID, err)
		}
		out = append(out, a)
	}
	return out, nil
}

// EligibleCategories implements Store.
func (s *GormStore) EligibleCategories(ctx context.Context, activityID uuid.UUID) ([]model.Category, error) {
	a, err := s.Activity(ctx, activityID)
	if err != nil {
		return nil, err
	}
	return a.Categories, nil
}

// Completions implements Store.
func (s *GormStore) Completions(ctx context.Context, scope model.Scope, studentID uuid.UUID) (_ []model.Completion, err error) {
	defer func(start time.Time) { observe("completions", start, err) }(time.Now())
	db, cancel := s.conn(ctx)
	defer cancel()

	if err := s.requireStudent(db, studentID); err != nil {
		return nil, err
	}

	q := db.Model(&completionRecord{}).Where("student_id = ?", studentID)
	switch scope.Kind {
	case model.ScopeExam:
		if err := exists(db, &examRecord{}, scope.UnitID, model.ErrExamNotFound); err != nil {
			return nil, err
		}
		q = q.Where("exam_id = ?", scope.UnitID)
	case model.ScopeActivity:
		if err := exists(db, &activityRecord{}, scope.UnitID, model.ErrActivityNotFound); err != nil {
			return nil, err
		}
		q = q.Where("category_id IN (?)",
			db.Model(&categoryRecord{}).Select("id").Where("activity_id = ?", scope.UnitID))
	case model.ScopeAllExams:
		q = q.Where("exam_id IS NOT NULL")
	case model.ScopeAllActivities:
		q = q.Where("category_id IS NOT NULL")
	default:
		return nil, fmt.Errorf("%w: kind %d", ErrInvalidScope, int(scope.Kind))
	}

	var recs []completionRecord
	if err := q.Order("submitted_at").Order("id").Find(&recs).Error; err != nil {
		return nil, err
	}
	out := make([]model.Completion, len(recs))
	for i, r := range recs {
		out[i] = r.toModel()
	}
	return out, nil
}

// Stats implements Counter.
func (s *GormStore) Stats(ctx context.Context) (Stats, error) {
	db, cancel := s.conn(ctx)
	defer cancel()

	var st Stats
	for _, c := range []struct {
		table interface{}
		dst   *int
	}{
		{&teacherRecord{}, &st.Teachers},
		{&studentRecord{}, &st.Students},
		{&examRecord{}, &st.Exams},
		{&activityRecord{}, &st.Activities},
		{&completionRecord{}, &st.Completions},
	} {
		var n int64
		if err := db.Model(c.table).Count(&n).Error; err != nil {
			return Stats{}, err
		}
		*c.dst = int(n)
	}
	return st, nil
}

// AddTeacher implements Writer.
func (s *GormStore) AddTeacher(ctx context.Context, t model.Teacher) error {
	db, cancel := s.conn(ctx)
	defer cancel()
	return db.Create(&teacherRecord{ID: t.ID, Name: t.Name}).Error
}

// AddStudent implements Writer.
func (s *GormStore) AddStudent(ctx context.Context, st model.Student) error {
	db, cancel := s.conn(ctx)
	defer cancel()
	if err := exists(db, &teacherRecord{}, st.TeacherID, model.ErrTeacherNotFound); err != nil {
		return err
	}
	return db.Create(&studentRecord{
		ID:         st.ID,
		PublicID:   st.PublicID,
		FirstName:  st.FirstName,
		MiddleName: st.MiddleName,
		LastName:   st.LastName,
		TeacherID:  st.TeacherID,
	}).Error
}

// AddExam implements Writer.
func (s *GormStore) AddExam(ctx context.Context, e model.Exam) error {
	db, cancel := s.conn(ctx)
	defer cancel()
	rec := examRecord{ID: e.ID, Title: e.Title, PassingScore: e.PassingScore}
	for _, sc := range e.Schedules {
		rec.Schedules = append(rec.Schedules, scheduleRecord{ExamID: e.ID, StartAt: sc.StartAt, EndAt: sc.EndAt})
	}
	return db.Create(&rec).Error
}

// AddActivity implements Writer.
func (s *GormStore) AddActivity(ctx context.Context, a model.Activity) error {
	db, cancel := s.conn(ctx)
	defer cancel()
	rec := activityRecord{ID: a.ID, Title: a.Title, GameType: a.GameType.String()}
	for _, c := range a.Categories {
		c.ActivityID = a.ID
		rec.Categories = append(rec.Categories, newCategoryRecord(c))
	}
	return db.Create(&rec).Error
}

// AssignExam implements Writer.
func (s *GormStore) AssignExam(ctx context.Context, studentID, examID uuid.UUID) error {
	db, cancel := s.conn(ctx)
	defer cancel()
	if err := s.requireStudent(db, studentID); err != nil {
		return err
	}
	if err := exists(db, &examRecord{}, examID, model.ErrExamNotFound); err != nil {
		return err
	}
	var n int64
	if err := db.Model(&examAssignmentRecord{}).Where("student_id = ?", studentID).Count(&n).Error; err != nil {
		return err
	}
	rec := examAssignmentRecord{StudentID: studentID, ExamID: examID, Position: int(n)}
	return db.Where(examAssignmentRecord{StudentID: studentID, ExamID: examID}).FirstOrCreate(&rec).Error
}

// AssignActivity implements Writer.
func (s *GormStore) AssignActivity(ctx context.Context, studentID, activityID uuid.UUID) error {
	db, cancel := s.conn(ctx)
	defer cancel()
	if err := s.requireStudent(db, studentID); err != nil {
		return err
	}
	if err := exists(db, &activityRecord{}, activityID, model.ErrActivityNotFound); err != nil {
		return err
	}
	var n int64
	if err := db.Model(&activityAssignmentRecord{}).Where("student_id = ?", studentID).Count(&n).Error; err != nil {
		return err
	}
	rec := activityAssignmentRecord{StudentID: studentID, ActivityID: activityID, Position: int(n)}
	return db.Where(activityAssignmentRecord{StudentID: studentID, ActivityID: activityID}).FirstOrCreate(&rec).Error
}

// AddCompletion implements Writer.
func (s *GormStore) AddCompletion(ctx context.Context, c model.Completion) error {
	if c.IsExam() && c.CategoryID != uuid.Nil {
		return fmt.Errorf("%w: completion %s references both an exam and a category", model.ErrInvariantViolation, c.ID)
	}
	db, cancel := s.conn(ctx)
	defer cancel()
	if err := s.requireStudent(db, c.StudentID); err != nil {
		return err
	}
	rec := newCompletionRecord(c)
	return db.Create(&rec).Error
}

func (s *GormStore) requireStudent(db *gorm.DB, studentID uuid.UUID) error {
	return exists(db, &studentRecord{}, studentID, model.ErrStudentNotFound)
}

func exists(db *gorm.DB, table interface{}, id uuid.UUID, kind error) error {
	var n int64
	if err := db.Model(table).Where("id = ?", id).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", kind, id)
	}
	return nil
}

func preloadSchedules(db *gorm.DB) *gorm.DB {
	return db.Preload("Schedules", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("start_at").Order("id")
	})
}

func preloadCategories(db *gorm.DB) *gorm.DB {
	return db.Preload("Categories", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("level").Order("id")
	})
}

var (
	_ Store   = (*GormStore)(nil)
	_ Writer  = (*GormStore)(nil)
	_ Counter = (*GormStore)(nil)
)
