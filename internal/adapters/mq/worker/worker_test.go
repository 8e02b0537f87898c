package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	queue "github.com/okian/octagon/internal/adapters/mq/queue"
	worker "github.com/okian/octagon/internal/adapters/mq/worker"
	"github.com/okian/octagon/internal/domain/errs"
	logging "github.com/okian/octagon/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

// mockQueue hands jobs straight to whoever dequeues.
type mockQueue struct {
	jobs chan queue.Job
	full bool
	once sync.Once
}

func newMockQueue() *mockQueue {
	return &mockQueue{jobs: make(chan queue.Job, 10)}
}

func (mq *mockQueue) Enqueue(_ context.Context, j queue.Job) bool { //nolint:gocritic // hugeParam
	if mq.full {
		return false
	}
	mq.jobs <- j
	return true
}

func (mq *mockQueue) Dequeue(context.Context) <-chan queue.Job { return mq.jobs }

func (mq *mockQueue) Close() error {
	mq.once.Do(func() { close(mq.jobs) })
	return nil
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a running InMemoryWorker", t, func() {
		_ = logging.Init()

		q := newMockQueue()
		w := worker.NewInMemoryWorker(q, worker.WithName("test-worker"))
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go w.Run(ctx)

		convey.Convey("When a job is queued", func() {
			done := make(chan queue.Result, 1)
			q.jobs <- queue.Job{
				ID:   "job-1",
				Ctx:  context.Background(),
				Run:  func(context.Context) (any, error) { return 42, nil },
				Done: done,
			}

			convey.Convey("Then its result is delivered", func() {
				select {
				case r := <-done:
					convey.So(r.Err, convey.ShouldBeNil)
					convey.So(r.Value, convey.ShouldEqual, 42)
				case <-time.After(time.Second):
					convey.So("timeout", convey.ShouldBeEmpty)
				}
			})
		})

		convey.Convey("When a job fails", func() {
			done := make(chan queue.Result, 1)
			boom := errors.New("boom")
			q.jobs <- queue.Job{
				ID:   "job-2",
				Ctx:  context.Background(),
				Run:  func(context.Context) (any, error) { return nil, boom },
				Done: done,
			}

			convey.Convey("Then the error is delivered", func() {
				r := <-done
				convey.So(errors.Is(r.Err, boom), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When a job panics", func() {
			done := make(chan queue.Result, 1)
			q.jobs <- queue.Job{
				ID:   "job-3",
				Ctx:  context.Background(),
				Run:  func(context.Context) (any, error) { panic("bad tree") },
				Done: done,
			}

			convey.Convey("Then the worker survives and reports an upstream failure", func() {
				r := <-done
				convey.So(errors.Is(r.Err, errs.ErrUpstream), convey.ShouldBeTrue)

				next := make(chan queue.Result, 1)
				q.jobs <- queue.Job{ID: "job-4", Ctx: context.Background(), Run: func(context.Context) (any, error) { return "ok", nil }, Done: next}
				convey.So((<-next).Value, convey.ShouldEqual, "ok")
			})
		})

		convey.Convey("When the submitter is gone before the job starts", func() {
			gone, stop := context.WithCancel(context.Background())
			stop()
			ran := false
			done := make(chan queue.Result, 1)
			q.jobs <- queue.Job{
				ID:   "job-5",
				Ctx:  gone,
				Run:  func(context.Context) (any, error) { ran = true; return nil, nil },
				Done: done,
			}

			convey.Convey("Then the job is skipped", func() {
				r := <-done
				convey.So(errors.Is(r.Err, context.Canceled), convey.ShouldBeTrue)
				convey.So(ran, convey.ShouldBeFalse)
			})
		})

		convey.Convey("When the worker is shut down", func() {
			err := w.Shutdown(context.Background())
			convey.So(err, convey.ShouldBeNil)
		})
	})
}

func TestPool(t *testing.T) {
	convey.Convey("Given a started pool over a real queue", t, func() {
		_ = logging.Init()

		q := queue.NewInMemoryQueue(queue.WithCapacity(16))
		pool := worker.NewPool(4, q)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		pool.Start(ctx)

		convey.So(pool.Size(), convey.ShouldEqual, 4)

		convey.Convey("When many jobs are submitted concurrently", func() {
			var wg sync.WaitGroup
			results := make([]int, 32)
			for i := range results {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					v, err := worker.Do(context.Background(), pool, "square", func(context.Context) (int, error) {
						return i * i, nil
					})
					if err == nil {
						results[i] = v
					}
				}(i)
			}
			wg.Wait()

			convey.Convey("Then every result comes back to its submitter", func() {
				for i, v := range results {
					convey.So(v, convey.ShouldEqual, i*i)
				}
			})
		})

		convey.Convey("When the caller times out", func() {
			release := make(chan struct{})
			defer close(release)
			short, stop := context.WithTimeout(context.Background(), 20*time.Millisecond)
			defer stop()

			_, err := pool.Submit(short, "slow", func(context.Context) (any, error) {
				<-release
				return nil, nil
			})

			convey.Convey("Then the result is abandoned", func() {
				convey.So(errors.Is(err, context.DeadlineExceeded), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the pool is shut down", func() {
			err := pool.Shutdown(context.Background())
			convey.So(err, convey.ShouldBeNil)
			convey.So(q.IsClosed(), convey.ShouldBeTrue)

			_, err = pool.Submit(context.Background(), "late", func(context.Context) (any, error) { return nil, nil })
			convey.So(errors.Is(err, errs.ErrBusy), convey.ShouldBeTrue)
		})
	})

	convey.Convey("Given a queue that is full", t, func() {
		_ = logging.Init()

		q := newMockQueue()
		q.full = true
		pool := worker.NewPool(1, q)

		convey.Convey("Then submissions fail fast as busy", func() {
			_, err := pool.Submit(context.Background(), "predict", func(context.Context) (any, error) { return nil, nil })
			convey.So(errors.Is(err, errs.ErrBusy), convey.ShouldBeTrue)
		})
	})
}
