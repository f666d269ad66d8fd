package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Octave-byte/cube-ranking/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

var configEnvVars = []string{
	"CUBERANK_CONFIG",
	"CUBERANK_LOG_LEVEL",
	"CUBERANK_INPUT_DRIVER",
	"CUBERANK_DATABASE_URL",
	"CUBERANK_OUTPUT_DIR",
	"CUBERANK_WORKER_COUNT",
	"CUBERANK_POPULATION_CAP",
	"CUBERANK_SHORT_WINDOW_DAYS",
	"CUBERANK_LONG_WINDOW_DAYS",
	"CUBERANK_STRICT",
	"CUBERANK_WEEKLY_FROM",
	"CUBERANK_HISTORY_START",
	"CUBERANK_SCHEDULE",
}

func clearConfigEnvVars() {
	for _, name := range configEnvVars {
		_ = os.Unsetenv(name)
	}
}

func createTempConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		defer clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldResemble, config.New())
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("CUBERANK_WORKER_COUNT", "16")
			_ = os.Setenv("CUBERANK_POPULATION_CAP", "500")
			_ = os.Setenv("CUBERANK_STRICT", "false")
			_ = os.Setenv("CUBERANK_WEEKLY_FROM", "2024-01-01")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 16)
				convey.So(cfg.PopulationCap, convey.ShouldEqual, 500)
				convey.So(cfg.Strict, convey.ShouldBeFalse)
				convey.So(cfg.WeeklyFrom, convey.ShouldEqual, "2024-01-01")
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			tmpFile := createTempConfigFile(t, `
worker_count: 24
output_dir: /tmp/cuberank
short_window_days: 30
long_window_days: 180
`)
			_ = os.Setenv("CUBERANK_CONFIG", tmpFile)
			_ = os.Setenv("CUBERANK_WORKER_COUNT", "32")

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 32)            // env
				convey.So(cfg.OutputDir, convey.ShouldEqual, "/tmp/cuberank") // file
				convey.So(cfg.ShortWindowDays, convey.ShouldEqual, 30)        // file
				convey.So(cfg.LongWindowDays, convey.ShouldEqual, 180)        // file
				convey.So(cfg.TopN, convey.ShouldEqual, 10)                   // default
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			_ = os.Setenv("CUBERANK_CONFIG", createTempConfigFile(t, `invalid: yaml: content: [`))

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("CUBERANK_CONFIG", "/non/existent/file.yaml")

			cfg, err := config.Load(ctx)
			convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			convey.So(cfg, convey.ShouldBeNil)
		})

		convey.Convey("When the postgres driver has no url", func() {
			_ = os.Setenv("CUBERANK_INPUT_DRIVER", "postgres")

			_, err := config.Load(ctx)

			convey.Convey("Then validation names the missing field", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "DatabaseURL")
			})
		})

		convey.Convey("When the long window is shorter than the short one", func() {
			_ = os.Setenv("CUBERANK_SHORT_WINDOW_DAYS", "90")
			_ = os.Setenv("CUBERANK_LONG_WINDOW_DAYS", "30")

			_, err := config.Load(ctx)
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			convey.So(err.Error(), convey.ShouldContainSubstring, "LongWindowDays")
		})

		convey.Convey("When values fail their rules", func() {
			cases := map[string]string{
				"CUBERANK_LOG_LEVEL":     "verbose",
				"CUBERANK_WORKER_COUNT":  "0",
				"CUBERANK_OUTPUT_DIR":    "",
				"CUBERANK_HISTORY_START": "01/01/2010",
				"CUBERANK_WEEKLY_FROM":   "last monday",
				"CUBERANK_SCHEDULE":      "every day",
			}
			for name, value := range cases {
				clearConfigEnvVars()
				_ = os.Setenv(name, value)
				_, err := config.Load(ctx)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			}
		})

		convey.Convey("When the history start is after the cutoff", func() {
			_ = os.Setenv("CUBERANK_HISTORY_START", "2015-01-01")

			_, err := config.Load(ctx)
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			convey.So(err.Error(), convey.ShouldContainSubstring, "competition_cutoff")
		})
	})
}
