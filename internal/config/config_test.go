package config_test

import (
	"errors"
	"runtime"
	"testing"
	"time"

	"github.com/okian/octagon/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.QueueSize, convey.ShouldEqual, 1024)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU())
			convey.So(cfg.DatasetSource, convey.ShouldEqual, config.SourceCSV)
			convey.So(cfg.RequestTimeout(), convey.ShouldEqual, 5*time.Second)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given invalid settings", t, func() {
		cases := map[string]func(*config.Config){
			"empty addr":           func(c *config.Config) { c.Addr = "" },
			"zero queue":           func(c *config.Config) { c.QueueSize = 0 },
			"negative workers":     func(c *config.Config) { c.WorkerCount = -1 },
			"zero timeout":         func(c *config.Config) { c.RequestTimeoutMS = 0 },
			"zero search limit":    func(c *config.Config) { c.MaxSearchLimit = 0 },
			"negative rate":        func(c *config.Config) { c.RateLimitRPS = -1 },
			"missing winner model": func(c *config.Config) { c.WinnerModel = "" },
			"unknown source":       func(c *config.Config) { c.DatasetSource = "parquet" },
			"csv without bouts":    func(c *config.Config) { c.BoutsCSV = "" },
			"sql without dsn":      func(c *config.Config) { c.DatasetSource = config.SourceSQL },
		}

		for name, mutate := range cases {
			convey.Convey("When "+name, func() {
				cfg := config.New()
				mutate(cfg)

				convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		}

		convey.Convey("When the sql source is complete", func() {
			cfg := config.New()
			cfg.DatasetSource = config.SourceSQL
			cfg.SQLDSN = "file:ufc.db"

			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("When rate limiting is disabled", func() {
			cfg := config.New()
			cfg.RateLimitRPS = 0

			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}
