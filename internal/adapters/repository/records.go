package repository

import (
	"time"

	"github.com/google/uuid"
	"github.com/okian/edurank/internal/domain/model"
)

// GORM table records. They mirror the domain entities and convert with
// toModel; the domain package stays free of persistence tags.

type teacherRecord struct {
	ID   uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name string    `gorm:"size:200;not null"`
}

func (teacherRecord) TableName() string { return "teachers" }

type studentRecord struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	PublicID   string    `gorm:"size:64;not null;uniqueIndex"`
	FirstName  string    `gorm:"size:100;not null"`
	MiddleName string    `gorm:"size:100"`
	LastName   string    `gorm:"size:100;not null"`
	TeacherID  uuid.UUID `gorm:"type:uuid;not null;index"`
}

func (studentRecord) TableName() string { return "students" }

func (r studentRecord) toModel() model.Student {
	return model.Student{
		ID:         r.ID,
		PublicID:   r.PublicID,
		FirstName:  r.FirstName,
		MiddleName: r.MiddleName,
		LastName:   r.LastName,
		TeacherID:  r.TeacherID,
	}
}

type examRecord struct {
	ID           uuid.UUID        `gorm:"type:uuid;primaryKey"`
	Title        string           `gorm:"size:200;not null"`
	PassingScore float64          `gorm:"not null"`
	Schedules    []scheduleRecord `gorm:"foreignKey:ExamID"`
}

func (examRecord) TableName() string { return "exams" }

func (r examRecord) toModel() model.Exam {
	e := model.Exam{ID: r.ID, Title: r.Title, PassingScore: r.PassingScore}
	for _, s := range r.Schedules {
		e.Schedules = append(e.Schedules, model.Schedule{StartAt: s.StartAt.UTC(), EndAt: s.EndAt.UTC()})
	}
	return e
}

type scheduleRecord struct {
	ID      uint      `gorm:"primaryKey;autoIncrement"`
	ExamID  uuid.UUID `gorm:"type:uuid;not null;index"`
	StartAt time.Time `gorm:"not null"`
	EndAt   time.Time
}

func (scheduleRecord) TableName() string { return "exam_schedules" }

type activityRecord struct {
	ID         uuid.UUID        `gorm:"type:uuid;primaryKey"`
	Title      string           `gorm:"size:200;not null"`
	GameType   string           `gorm:"size:16;not null"`
	Categories []categoryRecord `gorm:"foreignKey:ActivityID"`
}

func (activityRecord) TableName() string { return "activities" }

func (r activityRecord) toModel() (model.Activity, error) {
	gt, err := model.ParseGameType(r.GameType)
	if err != nil {
		return model.Activity{}, err
	}
	a := model.Activity{ID: r.ID, Title: r.Title, GameType: gt}
	for _, c := range r.Categories {
		a.Categories = append(a.Categories, c.toModel())
	}
	return a, nil
}

// categoryRecord flattens the type-specific configs into nullable columns.
type categoryRecord struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	ActivityID    uuid.UUID `gorm:"type:uuid;not null;index"`
	Name          string    `gorm:"size:200"`
	Level         int       `gorm:"not null"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime:false;not null"`
	MaxPoints     *float64
	TargetSeconds *float64
	Stages        *int
}

func (categoryRecord) TableName() string { return "categories" }

func newCategoryRecord(c model.Category) categoryRecord {
	r := categoryRecord{ID: c.ID, ActivityID: c.ActivityID, Name: c.Name, Level: c.Level, UpdatedAt: c.UpdatedAt}
	if c.Point != nil {
		v := c.Point.MaxPoints
		r.MaxPoints = &v
	}
	if c.Time != nil {
		v := c.Time.TargetSeconds
		r.TargetSeconds = &v
	}
	if c.Stage != nil {
		v := c.Stage.Stages
		r.Stages = &v
	}
	return r
}

func (r categoryRecord) toModel() model.Category {
	c := model.Category{ID: r.ID, ActivityID: r.ActivityID, Name: r.Name, Level: r.Level, UpdatedAt: r.UpdatedAt.UTC()}
	if r.MaxPoints != nil {
		c.Point = &model.PointConfig{MaxPoints: *r.MaxPoints}
	}
	if r.TargetSeconds != nil {
		c.Time = &model.TimeConfig{TargetSeconds: *r.TargetSeconds}
	}
	if r.Stages != nil {
		c.Stage = &model.StageConfig{Stages: *r.Stages}
	}
	return c
}

type examAssignmentRecord struct {
	StudentID uuid.UUID `gorm:"type:uuid;primaryKey"`
	ExamID    uuid.UUID `gorm:"type:uuid;primaryKey"`
	Position  int       `gorm:"not null"`
}

func (examAssignmentRecord) TableName() string { return "exam_assignments" }

type activityAssignmentRecord struct {
	StudentID  uuid.UUID `gorm:"type:uuid;primaryKey"`
	ActivityID uuid.UUID `gorm:"type:uuid;primaryKey"`
	Position   int       `gorm:"not null"`
}

func (activityAssignmentRecord) TableName() string { return "activity_assignments" }

type completionRecord struct {
	ID                   uuid.UUID  `gorm:"type:uuid;primaryKey"`
	StudentID            uuid.UUID  `gorm:"type:uuid;not null;index"`
	ExamID               *uuid.UUID `gorm:"type:uuid;index"`
	CategoryID           *uuid.UUID `gorm:"type:uuid;index"`
	Score                float64
	TimeCompletedSeconds float64
	SubmittedAt          time.Time `gorm:"not null;index"`
}

func (completionRecord) TableName() string { return "completions" }

func newCompletionRecord(c model.Completion) completionRecord {
	r := completionRecord{
		ID:                   c.ID,
		StudentID:            c.StudentID,
		Score:                c.Score,
		TimeCompletedSeconds: c.TimeCompletedSeconds,
		SubmittedAt:          c.SubmittedAt,
	}
	if c.ExamID != uuid.Nil {
		id := c.ExamID
		r.ExamID = &id
	}
	if c.CategoryID != uuid.Nil {
		id := c.CategoryID
		r.CategoryID = &id
	}
	return r
}

func (r completionRecord) toModel() model.Completion {
	c := model.Completion{
		ID:                   r.ID,
		StudentID:            r.StudentID,
		Score:                r.Score,
		TimeCompletedSeconds: r.TimeCompletedSeconds,
		SubmittedAt:          r.SubmittedAt.UTC(),
	}
	if r.ExamID != nil {
		c.ExamID = *r.ExamID
	}
	if r.CategoryID != nil {
		c.CategoryID = *r.CategoryID
	}
	return c
}

func allRecords() []interface{} {
	return []interface{}{
		&teacherRecord{},
		&studentRecord{},
		&examRecord{},
		&scheduleRecord{},
		&activityRecord{},
		&categoryRecord{},
		&examAssignmentRecord{},
		&activityAssignmentRecord{},
		&completionRecord{},
	}
}
