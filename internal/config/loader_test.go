package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/pitcrew/internal/config"
	. "github.com/smartystreets/goconvey/convey"
)

func TestLoad(t *testing.T) {
	ctx := context.Background()

	Convey("Given no file and no environment overrides", t, func() {
		cfg, err := config.Load(ctx)

		Convey("Then defaults are returned", func() {
			So(err, ShouldBeNil)
			So(cfg.LogLevel, ShouldEqual, "info")
			So(cfg.RatingWindowMax, ShouldEqual, 20)
		})
	})
}

func TestLoad_Env(t *testing.T) {
	ctx := context.Background()

	Convey("Given environment overrides", t, func(c C) {
		t.Setenv("PITCREW_LOG_LEVEL", "debug")
		t.Setenv("PITCREW_RATING_WINDOW_MAX", "30")

		cfg, err := config.Load(ctx)

		Convey("Then env beats defaults", func() {
			So(err, ShouldBeNil)
			So(cfg.LogLevel, ShouldEqual, "debug")
			So(cfg.RatingWindowMax, ShouldEqual, 30)
		})
	})

	Convey("Given an override that fails validation", t, func(c C) {
		t.Setenv("PITCREW_MISSING_SCHEDULE_FALLBACK", "sometimes")

		_, err := config.Load(ctx)

		Convey("Then loading fails fast", func() {
			So(err, ShouldWrap, config.ErrInvalidConfig)
		})
	})
}

func TestLoad_File(t *testing.T) {
	ctx := context.Background()

	Convey("Given a YAML configuration file", t, func(c C) {
		path := filepath.Join(t.TempDir(), "pitcrew.yaml")
		yaml := []byte(`
log_level: warn
metrics_addr: ":9191"
weights:
  skill: 0.5
  workload: 0.2
  performance: 0.2
  availability: 0.1
`)
		So(os.WriteFile(path, yaml, 0o600), ShouldBeNil)
		t.Setenv("PITCREW_CONFIG", path)

		Convey("When the file loads cleanly", func() {
			cfg, err := config.Load(ctx)

			Convey("Then file values layer over defaults", func() {
				So(err, ShouldBeNil)
				So(cfg.LogLevel, ShouldEqual, "warn")
				So(cfg.MetricsAddr, ShouldEqual, ":9191")
				So(cfg.Weights.Skill, ShouldAlmostEqual, 0.5)
				So(cfg.Weights.Validate(), ShouldBeNil)
			})
		})

		Convey("When env overrides the file", func() {
			t.Setenv("PITCREW_LOG_LEVEL", "error")

			cfg, err := config.Load(ctx)

			Convey("Then env wins", func() {
				So(err, ShouldBeNil)
				So(cfg.LogLevel, ShouldEqual, "error")
				So(cfg.MetricsAddr, ShouldEqual, ":9191")
			})
		})
	})

	Convey("Given a missing configuration file", t, func(c C) {
		t.Setenv("PITCREW_CONFIG", filepath.Join(t.TempDir(), "nope.yaml"))

		_, err := config.Load(ctx)

		Convey("Then loading fails with a load error", func() {
			So(err, ShouldWrap, config.ErrLoadConfig)
		})
	})
}
