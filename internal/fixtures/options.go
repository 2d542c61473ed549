package fixtures

import (
	"time"

	"github.com/okian/edurank/pkg/logger"
)

const (
	defaultStudents = 25
	defaultSeed     = 1
)

type config struct {
	students int
	seed     int64
	now      time.Time
	logger   logger.Logger
}

// Option configures Generate.
type Option func(*config)

// WithStudents sets the roster size.
func WithStudents(n int) Option {
	return func(c *config) {
		c.students = n
	}
}

// WithSeed sets the random seed.
func WithSeed(seed int64) Option {
	return func(c *config) {
		c.seed = seed
	}
}

// WithNow anchors schedules and submission times. It defaults to the
// current time truncated to the hour.
func WithNow(now time.Time) Option {
	return func(c *config) {
		if !now.IsZero() {
			c.now = now
		}
	}
}

// WithLogger sets the logger; the global logger is used otherwise.
func WithLogger(l logger.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

func newConfig(opts ...Option) config {
	c := config{
		students: defaultStudents,
		seed:     defaultSeed,
		now:      time.Now().UTC().Truncate(time.Hour),
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}
