package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	service "github.com/okian/octagon/internal/app"
	"github.com/okian/octagon/internal/config"
	"github.com/okian/octagon/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func TestMain(m *testing.M) {
	if err := logger.Init(logger.WithOutput(os.Stderr), logger.WithLevel("error")); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func TestConfigFromEnvironment(t *testing.T) {
	convey.Convey("Given OCTAGON_ environment overrides", t, func() {
		t.Setenv("OCTAGON_ADDR", ":8080")
		t.Setenv("OCTAGON_QUEUE_SIZE", "1000")
		t.Setenv("OCTAGON_WORKER_COUNT", "4")

		convey.Convey("Then configuration should be loadable", func() {
			cfg, err := config.Load(context.Background())
			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
			convey.So(cfg.QueueSize, convey.ShouldEqual, 1000)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, 4)
		})
	})
}

func TestMux(t *testing.T) {
	convey.Convey("Given the server mux over a service that has not started", t, func() {
		ctx := context.Background()
		cfg := config.New()
		svc := service.New()
		mux := newMux(ctx, cfg, svc)

		serve := func(method, path, body string) *httptest.ResponseRecorder {
			req := httptest.NewRequest(method, path, strings.NewReader(body))
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)
			return rec
		}

		convey.Convey("Then health, stats and docs respond", func() {
			convey.So(serve(http.MethodGet, "/healthz", "").Code, convey.ShouldEqual, http.StatusOK)
			convey.So(serve(http.MethodGet, "/api-docs", "").Code, convey.ShouldEqual, http.StatusOK)
			convey.So(serve(http.MethodGet, "/openapi.yaml", "").Code, convey.ShouldEqual, http.StatusOK)

			rec := serve(http.MethodGet, "/stats", "")
			convey.So(rec.Code, convey.ShouldEqual, http.StatusOK)
			convey.So(rec.Body.String(), convey.ShouldContainSubstring, `"started":false`)
		})

		convey.Convey("Then predictions are refused as busy", func() {
			rec := serve(http.MethodPost, "/predict",
				`{"fighter_1":"Alpha","fighter_2":"Bravo","event_date":"2024-01-01","referee":""}`)
			convey.So(rec.Code, convey.ShouldEqual, http.StatusTooManyRequests)
		})
	})
}

func TestServiceMetricsUpdater(t *testing.T) {
	convey.Convey("Given the metrics updater", t, func() {
		svc := service.New(service.WithWorkerCount(3))

		convey.Convey("Then a single update does not need a started service", func() {
			convey.So(func() { updateServiceMetrics(svc) }, convey.ShouldNotPanic)
		})

		convey.Convey("Then the loop returns once the context is done", func() {
			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan struct{})
			go func() {
				startServiceMetricsUpdater(ctx, svc)
				close(done)
			}()
			cancel()

			select {
			case <-done:
			case <-time.After(time.Second):
				t.Fatal("metrics updater did not stop")
			}
		})
	})
}
