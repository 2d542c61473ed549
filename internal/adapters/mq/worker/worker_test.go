package worker_test

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/edurank/internal/adapters/mq/queue"
	"github.com/okian/edurank/internal/adapters/mq/worker"
	"github.com/okian/edurank/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func quietLogger() logger.Logger { return logger.New(io.Discard, logger.FormatText) }

func TestWorkerPool(t *testing.T) {
	convey.Convey("Given a started pool of 4 workers", t, func() {
		ctx := context.Background()
		q := queue.NewInMemoryQueue(queue.WithCapacity(64))
		pool := worker.NewPool(4, q, worker.WithName("test-pool"), worker.WithLogger(quietLogger()))
		pool.Start(ctx)
		pool.Start(ctx)
		convey.Reset(func() { _ = pool.Shutdown(ctx) })

		convey.So(pool.Size(), convey.ShouldEqual, 4)

		convey.Convey("When submitting jobs", func() {
			var ran atomic.Int64
			for i := 0; i < 100; i++ {
				err := pool.Submit(ctx, queue.Job{Name: "count", Run: func() error { ran.Add(1); return nil }})
				convey.So(err, convey.ShouldBeNil)
			}

			convey.Convey("Then shutdown drains every queued job", func() {
				convey.So(pool.Shutdown(ctx), convey.ShouldBeNil)
				convey.So(ran.Load(), convey.ShouldEqual, int64(100))
			})
		})

		convey.Convey("When mapping over indexes with out-of-order completion", func() {
			got, err := worker.Map(ctx, pool, "square", 20, func(i int) (int, error) {
				time.Sleep(time.Duration(20-i) * time.Millisecond / 10)
				return i * i, nil
			})

			convey.Convey("Then results are in index order", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(got, convey.ShouldHaveLength, 20)
				for i, v := range got {
					convey.So(v, convey.ShouldEqual, i*i)
				}
			})
		})

		convey.Convey("When several jobs fail", func() {
			errLow, errHigh := errors.New("low"), errors.New("high")
			_, err := worker.Map(ctx, pool, "fail", 10, func(i int) (int, error) {
				switch i {
				case 3:
					return 0, errLow
				case 7:
					return 0, errHigh
				}
				return i, nil
			})

			convey.Convey("Then the lowest index error is returned", func() {
				convey.So(errors.Is(err, errLow), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When a job panics", func() {
			_, err := worker.Map(ctx, pool, "panic", 3, func(i int) (int, error) {
				if i == 1 {
					panic("boom")
				}
				return i, nil
			})

			convey.Convey("Then the panic surfaces as an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "panicked")
			})
		})
	})
}

func TestWorkerBackpressure(t *testing.T) {
	convey.Convey("Given a pool whose queue holds a single job", t, func() {
		ctx := context.Background()
		q := queue.NewInMemoryQueue(queue.WithCapacity(1))
		pool := worker.NewPool(1, q, worker.WithLogger(quietLogger()))
		pool.Start(ctx)
		convey.Reset(func() { _ = pool.Shutdown(ctx) })

		release := make(chan struct{})
		blocker := queue.Job{Name: "block", Run: func() error { <-release; return nil }}
		convey.So(pool.Submit(ctx, blocker), convey.ShouldBeNil)
		convey.So(pool.Submit(ctx, queue.Job{Name: "fill", Run: func() error { return nil }}), convey.ShouldBeNil)

		convey.Convey("When the queue is full", func() {
			var ranInline atomic.Bool
			for i := 0; i < 5; i++ {
				err := pool.Submit(ctx, queue.Job{Name: "extra", Run: func() error { ranInline.Store(true); return nil }})
				convey.So(err, convey.ShouldBeNil)
			}
			close(release)

			convey.Convey("Then the overflow runs on the caller instead of being dropped", func() {
				convey.So(ranInline.Load(), convey.ShouldBeTrue)
			})
		})
	})
}

func TestPoolLifetime(t *testing.T) {
	convey.Convey("Given a pool started on a context that is then cancelled", t, func() {
		startCtx, cancel := context.WithCancel(context.Background())
		q := queue.NewInMemoryQueue(queue.WithCapacity(8))
		pool := worker.NewPool(2, q, worker.WithLogger(quietLogger()))
		pool.Start(startCtx)
		cancel()
		convey.Reset(func() { _ = pool.Shutdown(context.Background()) })

		convey.Convey("When mapping afterwards", func() {
			ctx, done := context.WithTimeout(context.Background(), 2*time.Second)
			defer done()
			got, err := worker.Map(ctx, pool, "after-cancel", 5, func(i int) (int, error) { return i + 1, nil })

			convey.Convey("Then the workers still serve the jobs", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(got, convey.ShouldResemble, []int{1, 2, 3, 4, 5})
			})
		})

		convey.Convey("When submitting after shutdown", func() {
			convey.So(pool.Shutdown(context.Background()), convey.ShouldBeNil)
			var ran atomic.Bool
			err := pool.Submit(context.Background(), queue.Job{Name: "late", Run: func() error { ran.Store(true); return nil }})

			convey.Convey("Then the job runs inline", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(ran.Load(), convey.ShouldBeTrue)
			})
		})
	})
}

func TestMapWithoutPool(t *testing.T) {
	convey.Convey("Given no pool", t, func() {
		convey.Convey("When mapping", func() {
			got, err := worker.Map(context.Background(), nil, "inline", 3, func(i int) (string, error) {
				return string(rune('a' + i)), nil
			})

			convey.Convey("Then jobs run inline in order", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(got, convey.ShouldResemble, []string{"a", "b", "c"})
			})
		})

		convey.Convey("When the context is cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			_, err := worker.Map(ctx, nil, "cancelled", 2, func(i int) (int, error) { return i, nil })

			convey.Convey("Then the context error is returned", func() {
				convey.So(errors.Is(err, context.Canceled), convey.ShouldBeTrue)
			})
		})
	})
}
