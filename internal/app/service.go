// Package service provides the read-path business service that implements
// the dependencies required by the HTTP API.
//
// Each call fetches fresh snapshots through the repository, fans the
// per-student scoring out to the worker pool and merges the results with
// the pure engine in internal/domain/performance. Nothing derived is cached
// between calls.
package service

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/okian/edurank/internal/adapters/mq/queue"
	"github.com/okian/edurank/internal/adapters/mq/worker"
	"github.com/okian/edurank/internal/adapters/repository"
	"github.com/okian/edurank/internal/domain/model"
	"github.com/okian/edurank/internal/domain/performance"
	"github.com/okian/edurank/internal/domain/ranking"
	"github.com/okian/edurank/internal/domain/types"
	"github.com/okian/edurank/pkg/logger"
	"github.com/okian/edurank/pkg/metrics"
)

const (
	defaultQueueSize        = 10_000
	defaultFetchConcurrency = 16
	defaultMaxRosterSize    = 5_000
)

// Service implements the API dependencies for the ranking engine.
type Service struct {
	mu sync.RWMutex

	store repository.Store
	queue *queue.InMemoryQueue
	pool  *worker.Pool
	clock func() time.Time

	workerCount      int
	queueSize        int
	fetchConcurrency int
	maxRosterSize    int

	started bool
	logger  logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the repository snapshots are fetched from.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		s.store = store
	}
}

// WithClock overrides the time source used for schedule availability.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithWorkerCount sets the number of scoring workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the scoring job queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithFetchConcurrency bounds concurrent repository calls per request.
func WithFetchConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.fetchConcurrency = n
		}
	}
}

// WithMaxRosterSize caps the roster a single request may score.
func WithMaxRosterSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxRosterSize = n
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		clock:            time.Now,
		workerCount:      runtime.NumCPU() * 2,
		queueSize:        defaultQueueSize,
		fetchConcurrency: defaultFetchConcurrency,
		maxRosterSize:    defaultMaxRosterSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start creates the job queue and launches the worker pool. Calls made
// before Start score on the calling goroutine.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.store == nil {
		return ErrNoStore
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.logger.Info(ctx, "starting ranking service...")

	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.pool = worker.NewPool(s.workerCount, s.queue,
		worker.WithName("scoring-pool"),
		worker.WithLogger(s.logger),
	)
	s.pool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "ranking service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("fetchConcurrency", s.fetchConcurrency),
	)
	return nil
}

// Stop drains the worker pool and shuts the service down.
func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.logger.Info(ctx, "stopping ranking service...")

	if err := s.pool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "worker pool did not drain", logger.Error(err))
	}
	s.pool = nil
	s.queue = nil

	s.started = false
	s.logger.Info(ctx, "ranking service stopped")
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats(ctx context.Context) map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":          s.started,
		"workerCount":      s.workerCount,
		"queueSize":        s.queueSize,
		"fetchConcurrency": s.fetchConcurrency,
		"maxRosterSize":    s.maxRosterSize,
	}

	if s.started {
		queueLen := s.queue.Len(ctx)
		stats["queueLength"] = queueLen
		metrics.UpdateQueueSize(queueLen, s.queue.Cap())
		metrics.UpdateWorkerCount(s.pool.Size())
	}

	if c, ok := s.store.(repository.Counter); ok {
		st, err := c.Stats(ctx)
		if err != nil {
			s.loggerLocked().Warn(ctx, "store stats failed", logger.Error(err))
		} else {
			stats["store"] = st
		}
	}

	return stats
}

// RankUnit returns the leaderboard of one exam or activity over a
// teacher's roster, ranked students first.
func (s *Service) RankUnit(ctx context.Context, kind model.UnitKind, unitID, teacherID uuid.UUID) (entries []types.RankedEntry, err error) {
	defer s.track(ctx, "rank_unit", time.Now(), &err,
		logger.String("kind", kind.String()),
		logger.String("unitID", unitID.String()),
		logger.String("teacherID", teacherID.String()),
	)

	unit, err := s.loadUnit(ctx, kind, unitID)
	if err != nil {
		return nil, err
	}
	roster, err := s.unitRoster(ctx, unit, teacherID)
	if err != nil {
		return nil, err
	}

	pool := s.workers()
	candidates, err := worker.Map(ctx, pool, "rank-unit", len(roster), func(i int) (ranking.Candidate, error) {
		res, err := performance.EvaluateUnit(unit, roster[i])
		metrics.RecordStudentScored()
		return res.Candidate, err
	})
	if err != nil {
		return nil, err
	}

	result, err := performance.RankUnitCandidates(unit, candidates)
	if err != nil {
		return nil, err
	}
	metrics.RecordRankingPartition(len(result.Ranked), len(result.Unranked))
	return result.All(), nil
}

// SummarizeUnitForStudent reports a student's score, category breakdown
// and rank on one unit, ranked against the student's own roster.
func (s *Service) SummarizeUnitForStudent(ctx context.Context, kind model.UnitKind, unitID, studentID uuid.UUID) (summary types.UnitSummary, err error) {
	defer s.track(ctx, "summarize_unit", time.Now(), &err,
		logger.String("kind", kind.String()),
		logger.String("unitID", unitID.String()),
		logger.String("studentID", studentID.String()),
	)

	if s.store == nil {
		return types.UnitSummary{}, ErrNoStore
	}
	st, err := s.store.Student(ctx, studentID)
	if err != nil {
		return types.UnitSummary{}, err
	}
	unit, err := s.loadUnit(ctx, kind, unitID)
	if err != nil {
		return types.UnitSummary{}, err
	}
	if err := performance.CheckSummarizable(unit); err != nil {
		return types.UnitSummary{}, err
	}
	roster, err := s.unitRoster(ctx, unit, st.TeacherID)
	if err != nil {
		return types.UnitSummary{}, err
	}

	results, err := worker.Map(ctx, s.workers(), "summarize-unit", len(roster), func(i int) (performance.UnitResult, error) {
		res, err := performance.EvaluateUnit(unit, roster[i])
		metrics.RecordStudentScored()
		return res, err
	})
	if err != nil {
		return types.UnitSummary{}, err
	}

	candidates := make([]ranking.Candidate, len(results))
	own := -1
	for i, r := range results {
		candidates[i] = r.Candidate
		if r.Candidate.Student.ID == studentID {
			own = i
		}
	}
	if own < 0 {
		return types.UnitSummary{}, fmt.Errorf("%w: %s", model.ErrStudentNotFound, studentID)
	}

	result, err := performance.RankUnitCandidates(unit, candidates)
	if err != nil {
		return types.UnitSummary{}, err
	}
	return performance.BuildUnitSummary(unit, results[own], result), nil
}

// RankRoster ranks a teacher's roster on one track.
func (s *Service) RankRoster(ctx context.Context, teacherID uuid.UUID, track types.Track) (out types.RosterRanking, err error) {
	defer s.track(ctx, "rank_roster", time.Now(), &err,
		logger.String("teacherID", teacherID.String()),
		logger.String("track", string(track)),
	)

	students, err := s.roster(ctx, teacherID)
	if err != nil {
		return types.RosterRanking{}, err
	}
	if track != types.TrackExam && track != types.TrackActivity {
		return types.RosterRanking{}, fmt.Errorf("%w: track %q", model.ErrInvariantViolation, track)
	}
	snaps, err := s.snapshots(ctx, students, track)
	if err != nil {
		return types.RosterRanking{}, err
	}

	candidates, err := worker.Map(ctx, s.workers(), "rank-roster", len(snaps), func(i int) (ranking.Candidate, error) {
		c, err := performance.TrackCandidate(track, snaps[i])
		metrics.RecordStudentScored()
		return c, err
	})
	if err != nil {
		return types.RosterRanking{}, err
	}

	out = performance.RankTrack(track, candidates)
	metrics.RecordRankingPartition(len(out.RankedStudents), len(out.UnrankedStudents))
	return out, nil
}

// SummarizeStudent builds a student's performance summary ranked against a
// teacher's roster. A nil teacherID selects the student's own teacher.
func (s *Service) SummarizeStudent(ctx context.Context, studentID, teacherID uuid.UUID) (summary types.PerformanceSummary, err error) {
	defer s.track(ctx, "summarize_student", time.Now(), &err,
		logger.String("studentID", studentID.String()),
		logger.String("teacherID", teacherID.String()),
	)

	if s.store == nil {
		return types.PerformanceSummary{}, ErrNoStore
	}
	target, err := s.store.Student(ctx, studentID)
	if err != nil {
		return types.PerformanceSummary{}, err
	}
	if teacherID == uuid.Nil {
		if teacherID, err = s.store.TeacherOf(ctx, studentID); err != nil {
			return types.PerformanceSummary{}, err
		}
	}
	peers, err := s.roster(ctx, teacherID)
	if err != nil {
		return types.PerformanceSummary{}, err
	}

	students := make([]model.Student, 0, len(peers)+1)
	students = append(students, target)
	for _, p := range peers {
		if p.ID != target.ID {
			students = append(students, p)
		}
	}
	snaps, err := s.snapshots(ctx, students, types.TrackExam, types.TrackActivity)
	if err != nil {
		return types.PerformanceSummary{}, err
	}

	type pair struct{ exam, activity ranking.Candidate }
	pairs, err := worker.Map(ctx, s.workers(), "summarize-student", len(snaps), func(i int) (pair, error) {
		e, err := performance.TrackCandidate(types.TrackExam, snaps[i])
		if err != nil {
			return pair{}, err
		}
		a, err := performance.TrackCandidate(types.TrackActivity, snaps[i])
		metrics.RecordStudentScored()
		return pair{exam: e, activity: a}, err
	})
	if err != nil {
		return types.PerformanceSummary{}, err
	}

	exams := make([]ranking.Candidate, len(pairs))
	activities := make([]ranking.Candidate, len(pairs))
	for i, p := range pairs {
		exams[i], activities[i] = p.exam, p.activity
	}
	return performance.Combine(snaps[0],
		performance.RankTrack(types.TrackExam, exams),
		performance.RankTrack(types.TrackActivity, activities),
		s.clock(),
	)
}

// loadUnit fetches a unit; an activity's categories come from the
// eligible-category fetch.
func (s *Service) loadUnit(ctx context.Context, kind model.UnitKind, unitID uuid.UUID) (model.Unit, error) {
	if s.store == nil {
		return model.Unit{}, ErrNoStore
	}
	switch kind {
	case model.UnitExam:
		e, err := s.store.Exam(ctx, unitID)
		if err != nil {
			return model.Unit{}, err
		}
		return model.ExamUnit(e), nil
	case model.UnitActivity:
		a, err := s.store.Activity(ctx, unitID)
		if err != nil {
			return model.Unit{}, err
		}
		if a.Categories, err = s.store.EligibleCategories(ctx, unitID); err != nil {
			return model.Unit{}, err
		}
		return model.ActivityUnit(a), nil
	default:
		return model.Unit{}, fmt.Errorf("%w: unit kind %d", model.ErrInvariantViolation, int(kind))
	}
}

// roster fetches a teacher's students and enforces the size limit.
func (s *Service) roster(ctx context.Context, teacherID uuid.UUID) ([]model.Student, error) {
	if s.store == nil {
		return nil, ErrNoStore
	}
	students, err := s.store.Roster(ctx, teacherID)
	if err != nil {
		return nil, err
	}
	if len(students) > s.maxRosterSize {
		return nil, fmt.Errorf("%w: %d students, limit %d", ErrRosterTooLarge, len(students), s.maxRosterSize)
	}
	return students, nil
}

// unitRoster fetches every roster member's completions inside a unit.
func (s *Service) unitRoster(ctx context.Context, u model.Unit, teacherID uuid.UUID) ([]model.StudentCompletions, error) {
	students, err := s.roster(ctx, teacherID)
	if err != nil {
		return nil, err
	}
	scope := model.ScopeOf(u)
	out := make([]model.StudentCompletions, len(students))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.fetchConcurrency)
	for i, st := range students {
		i, st := i, st
		g.Go(func() error {
			cs, err := s.store.Completions(gctx, scope, st.ID)
			if err != nil {
				return err
			}
			out[i] = model.StudentCompletions{Student: st, Completions: cs}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// snapshots fetches the assigned units and completions of every student
// for the requested tracks, keeping input order.
func (s *Service) snapshots(ctx context.Context, students []model.Student, tracks ...types.Track) ([]model.StudentSnapshot, error) {
	out := make([]model.StudentSnapshot, len(students))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.fetchConcurrency)
	for i, st := range students {
		i, st := i, st
		g.Go(func() error {
			snap, err := s.snapshot(gctx, st, tracks)
			if err != nil {
				return err
			}
			out[i] = snap
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) snapshot(ctx context.Context, st model.Student, tracks []types.Track) (model.StudentSnapshot, error) {
	snap := model.StudentSnapshot{Student: st}
	var err error
	for _, t := range tracks {
		switch t {
		case types.TrackExam:
			if snap.Exams, err = s.store.AssignedExams(ctx, st.ID); err != nil {
				return snap, err
			}
			if snap.ExamCompletions, err = s.store.Completions(ctx, model.AllExams(), st.ID); err != nil {
				return snap, err
			}
		case types.TrackActivity:
			if snap.Activities, err = s.store.AssignedActivities(ctx, st.ID); err != nil {
				return snap, err
			}
			if snap.ActivityCompletions, err = s.store.Completions(ctx, model.AllActivities(), st.ID); err != nil {
				return snap, err
			}
		}
	}
	return snap, nil
}

// workers returns the running pool, or nil to score inline.
func (s *Service) workers() *worker.Pool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pool
}

func (s *Service) log() logger.Logger {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loggerLocked()
}

func (s *Service) loggerLocked() logger.Logger {
	if s.logger == nil {
		return logger.Get().Named("service")
	}
	return s.logger
}

// track records latency of one operation and logs its failure.
func (s *Service) track(ctx context.Context, op string, start time.Time, errp *error, fields ...logger.Field) {
	elapsed := time.Since(start)
	metrics.RecordRankingComputed(op, float64(elapsed.Microseconds())/1000)

	l := s.log()
	if err := *errp; err != nil {
		metrics.RecordErrorByComponent("service", op)
		l.Warn(ctx, op+" failed", append(fields, logger.Error(err))...)
		return
	}
	l.Debug(ctx, op+" completed", append(fields, logger.Duration("elapsed", elapsed))...)
}
