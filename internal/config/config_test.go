package config_test

import (
	"errors"
	"runtime"
	"testing"

	"github.com/okian/edurank/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.QueueSize, convey.ShouldEqual, 10_000)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU()*2)
			convey.So(cfg.StoreDriver, convey.ShouldEqual, config.DriverMemory)
			convey.So(cfg.MaxRosterSize, convey.ShouldEqual, 5_000)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given a valid config", t, func() {
		cfg := config.New()

		convey.Convey("When the postgres driver has no database url", func() {
			cfg.StoreDriver = config.DriverPostgres
			err := cfg.Validate()

			convey.Convey("Then validation fails with ErrInvalidConfig", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "database_url")
			})
		})

		convey.Convey("When the postgres driver has a database url", func() {
			cfg.StoreDriver = config.DriverPostgres
			cfg.DatabaseURL = "postgres://localhost/edurank"
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("When latency buckets increase", func() {
			cfg.MetricsLatencyBuckets = []float64{1, 5, 25}
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("When the driver is unknown", func() {
			cfg.StoreDriver = "mongo"
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When sizes are not positive", func() {
			for _, mutate := range []func(*config.Config){
				func(c *config.Config) { c.QueueSize = 0 },
				func(c *config.Config) { c.WorkerCount = -1 },
				func(c *config.Config) { c.FetchConcurrency = 0 },
				func(c *config.Config) { c.MaxRosterSize = 0 },
				func(c *config.Config) { c.DemoStudents = -5 },
				func(c *config.Config) { c.MetricsNamespace = "" },
				func(c *config.Config) { c.MetricsLatencyBuckets = []float64{10, 5} },
			} {
				c := config.New()
				mutate(c)
				convey.So(errors.Is(c.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
			}
		})
	})
}
