// Package fixtures generates a deterministic demo roster: one teacher,
// exams with past and future schedules, one activity per game type and a
// spread of students whose attempts include retakes and superseded levels.
package fixtures

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/okian/edurank/internal/adapters/repository"
	"github.com/okian/edurank/internal/domain/model"
	"github.com/okian/edurank/pkg/logger"
)

// Ability bands, as fractions of a perfect result.
const (
	caseAverage = iota
	caseHigh
	caseLow
	caseElite
	caseStruggling
	caseWide
	abilityCases
)

const (
	examPassingScore = 60
	examMaxScore     = 100
	pointMaxPoints   = 100
	stageCount       = 5
	historyWindow    = 7 * 24 * time.Hour
)

var (
	firstNames  = []string{"Ada", "Ben", "Chloe", "Dev", "Elif", "Farah", "Gus", "Hana", "Ivo", "Jia", "Kofi", "Lena"}
	middleNames = []string{"", "", "", "Rae", "Lou", "Kim"}
	lastNames   = []string{"Okafor", "Lindqvist", "Moreau", "Tanaka", "Alvarez", "Novak", "Brennan", "Haddad"}
)

// Dataset describes what Generate wrote.
type Dataset struct {
	Teacher     model.Teacher
	Students    []model.Student
	Exams       []model.Exam
	Activities  []model.Activity
	Completions int
}

type generator struct {
	rng *rand.Rand
	now time.Time
	w   repository.Writer
	ds  Dataset
}

// Generate writes a demo dataset through w. The same options always
// produce the same ids, names and attempts.
func Generate(ctx context.Context, w repository.Writer, opts ...Option) (Dataset, error) {
	cfg := newConfig(opts...)
	if cfg.students < 0 {
		return Dataset{}, fmt.Errorf("negative student count %d", cfg.students)
	}
	log := cfg.logger
	if log == nil {
		log = logger.Get()
	}
	log.Info(ctx, "generating demo roster",
		logger.Int("students", cfg.students),
		logger.Any("seed", cfg.seed),
	)

	g := &generator{rng: rand.New(rand.NewSource(cfg.seed)), now: cfg.now, w: w}
	if err := g.run(ctx, cfg.students); err != nil {
		return Dataset{}, err
	}

	log.Info(ctx, "generated demo roster",
		logger.String("teacherID", g.ds.Teacher.ID.String()),
		logger.Int("students", len(g.ds.Students)),
		logger.Int("completions", g.ds.Completions),
	)
	return g.ds, nil
}

func (g *generator) run(ctx context.Context, students int) error {
	g.ds.Teacher = model.Teacher{ID: g.id(), Name: "Demo Teacher"}
	if err := g.w.AddTeacher(ctx, g.ds.Teacher); err != nil {
		return fmt.Errorf("add teacher: %w", err)
	}

	g.ds.Exams = []model.Exam{
		g.exam("Algebra I", -6*24*time.Hour),
		g.exam("Biology", -24*time.Hour),
		g.exam("Chemistry", 3*24*time.Hour),
	}
	for _, e := range g.ds.Exams {
		if err := g.w.AddExam(ctx, e); err != nil {
			return fmt.Errorf("add exam %s: %w", e.Title, err)
		}
	}

	g.ds.Activities = []model.Activity{g.pointActivity(), g.timeActivity(), g.stageActivity()}
	for _, a := range g.ds.Activities {
		if err := g.w.AddActivity(ctx, a); err != nil {
			return fmt.Errorf("add activity %s: %w", a.Title, err)
		}
	}

	for i := 0; i < students; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := g.student(ctx, i); err != nil {
			return err
		}
	}
	return nil
}

func (g *generator) student(ctx context.Context, index int) error {
	st := model.Student{
		ID:         g.id(),
		PublicID:   fmt.Sprintf("S-%04d", index+1),
		FirstName:  firstNames[g.rng.Intn(len(firstNames))],
		MiddleName: middleNames[g.rng.Intn(len(middleNames))],
		LastName:   lastNames[g.rng.Intn(len(lastNames))],
		TeacherID:  g.ds.Teacher.ID,
	}
	if err := g.w.AddStudent(ctx, st); err != nil {
		return fmt.Errorf("add student %s: %w", st.PublicID, err)
	}
	g.ds.Students = append(g.ds.Students, st)

	for _, e := range g.ds.Exams {
		if err := g.w.AssignExam(ctx, st.ID, e.ID); err != nil {
			return fmt.Errorf("assign exam: %w", err)
		}
	}
	for _, a := range g.ds.Activities {
		if err := g.w.AssignActivity(ctx, st.ID, a.ID); err != nil {
			return fmt.Errorf("assign activity: %w", err)
		}
	}

	ability := g.ability()
	for _, c := range g.attempts(st.ID, ability) {
		if err := g.w.AddCompletion(ctx, c); err != nil {
			return fmt.Errorf("add completion for %s: %w", st.PublicID, err)
		}
		g.ds.Completions++
	}
	return nil
}

// attempts draws one student's completions. Better students attempt more
// and score higher; some attempts are retaken.
func (g *generator) attempts(studentID uuid.UUID, ability float64) []model.Completion {
	var out []model.Completion

	for _, e := range g.ds.Exams {
		if !e.AvailableAt(g.now) || !g.chance(0.5+ability/2) {
			continue
		}
		for n := 1 + g.rng.Intn(2); n > 0; n-- {
			out = append(out, model.Completion{
				ID: g.id(), StudentID: studentID, ExamID: e.ID,
				Score:       math.Round(g.around(ability) * examMaxScore),
				SubmittedAt: g.submittedAt(),
			})
		}
	}

	for _, a := range g.ds.Activities {
		for _, c := range a.Categories {
			if !g.chance(0.2 + ability*0.7) {
				continue
			}
			for n := 1 + g.rng.Intn(2); n > 0; n-- {
				comp := model.Completion{ID: g.id(), StudentID: studentID, CategoryID: c.ID, SubmittedAt: g.submittedAt()}
				switch {
				case c.Point != nil:
					comp.Score = math.Round(g.around(ability) * c.Point.MaxPoints)
				case c.Time != nil:
					comp.TimeCompletedSeconds = math.Round(c.Time.TargetSeconds*(2-g.around(ability))*100) / 100
				case c.Stage != nil:
					comp.Score = math.Round(g.around(ability) * float64(c.Stage.Stages))
				}
				out = append(out, comp)
			}
		}
	}
	return out
}

func (g *generator) exam(title string, startOffset time.Duration) model.Exam {
	start := g.now.Add(startOffset)
	return model.Exam{
		ID:           g.id(),
		Title:        title,
		PassingScore: examPassingScore,
		Schedules:    []model.Schedule{{StartAt: start, EndAt: start.Add(48 * time.Hour)}},
	}
}

// pointActivity has three levels plus an older copy of level one that the
// engine must ignore.
func (g *generator) pointActivity() model.Activity {
	a := model.Activity{ID: g.id(), Title: "Number Sense", GameType: model.PointBased}
	for level := 1; level <= 3; level++ {
		a.Categories = append(a.Categories, g.category(a.ID, "Round", level, time.Hour,
			func(c *model.Category) { c.Point = &model.PointConfig{MaxPoints: pointMaxPoints} }))
	}
	a.Categories = append(a.Categories, g.category(a.ID, "Round (retired)", 1, 30*24*time.Hour,
		func(c *model.Category) { c.Point = &model.PointConfig{MaxPoints: pointMaxPoints / 2} }))
	return a
}

func (g *generator) timeActivity() model.Activity {
	a := model.Activity{ID: g.id(), Title: "Speed Drills", GameType: model.TimeBased}
	for level := 1; level <= 3; level++ {
		target := float64(15 + 15*level)
		a.Categories = append(a.Categories, g.category(a.ID, "Tier", level, time.Hour,
			func(c *model.Category) { c.Time = &model.TimeConfig{TargetSeconds: target} }))
	}
	return a
}

func (g *generator) stageActivity() model.Activity {
	a := model.Activity{ID: g.id(), Title: "Reading Ladder", GameType: model.StageBased}
	a.Categories = append(a.Categories, g.category(a.ID, "Ladder", 1, time.Hour,
		func(c *model.Category) { c.Stage = &model.StageConfig{Stages: stageCount} }))
	return a
}

func (g *generator) category(activityID uuid.UUID, name string, level int, age time.Duration, cfg func(*model.Category)) model.Category {
	c := model.Category{
		ID:         g.id(),
		ActivityID: activityID,
		Name:       fmt.Sprintf("%s %d", name, level),
		Level:      level,
		UpdatedAt:  g.now.Add(-age),
	}
	cfg(&c)
	return c
}

// ability draws a student's skill in [0.05, 1].
func (g *generator) ability() float64 {
	f := g.rng.Float64()
	switch g.rng.Intn(abilityCases) {
	case caseAverage:
		return 0.4 + f*0.3
	case caseHigh:
		return 0.7 + f*0.2
	case caseLow:
		return 0.1 + f*0.3
	case caseElite:
		return 0.9 + f*0.1
	case caseStruggling:
		return 0.05 + f*0.1
	default:
		return 0.05 + f*0.95
	}
}

// around perturbs ability by up to 15 points and clamps it to [0, 1].
func (g *generator) around(ability float64) float64 {
	v := ability + (g.rng.Float64()-0.5)*0.3
	return math.Max(0, math.Min(1, v))
}

func (g *generator) chance(p float64) bool {
	return g.rng.Float64() < p
}

// submittedAt returns a whole-second time inside the history window.
func (g *generator) submittedAt() time.Time {
	return g.now.Add(-time.Duration(g.rng.Int63n(int64(historyWindow/time.Second))) * time.Second)
}

func (g *generator) id() uuid.UUID {
	id, err := uuid.NewRandomFromReader(g.rng)
	if err != nil {
		// *rand.Rand reads never fail.
		panic(err)
	}
	return id
}
