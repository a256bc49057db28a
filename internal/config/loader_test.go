package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/tally/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

var configEnvVars = []string{
	"TALLY_CONFIG", "TALLY_ADDR", "TALLY_QUEUE_SIZE", "TALLY_WORKER_COUNT",
	"TALLY_STORE", "TALLY_DATABASE_DSN", "TALLY_SCORE_MIN", "TALLY_SCORE_MAX",
	"TALLY_ONE_ENTRY_PER_ROUND", "TALLY_CORS_ALLOWED_ORIGINS", "TALLY_SHUTDOWN_TIMEOUT",
	"TALLY_LOG_FORMAT", "TALLY_RECORDS_STORE", "TALLY_REDIS_DB",
}

func clearConfigEnvVars() {
	for _, k := range configEnvVars {
		_ = os.Unsetenv(k)
	}
}

func createTempConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tally.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		convey.Reset(clearConfigEnvVars)

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.Store, convey.ShouldEqual, config.StoreMemory)
				convey.So(cfg.CORSAllowedOrigins, convey.ShouldResemble, []string{"*"})
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("TALLY_ADDR", ":8080")
			_ = os.Setenv("TALLY_QUEUE_SIZE", "64")
			_ = os.Setenv("TALLY_WORKER_COUNT", "3")
			_ = os.Setenv("TALLY_SCORE_MIN", "-50")
			_ = os.Setenv("TALLY_SCORE_MAX", "500")
			_ = os.Setenv("TALLY_ONE_ENTRY_PER_ROUND", "true")
			_ = os.Setenv("TALLY_CORS_ALLOWED_ORIGINS", "http://a.test, http://b.test")
			_ = os.Setenv("TALLY_SHUTDOWN_TIMEOUT", "3s")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 64)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 3)
				convey.So(*cfg.ScoreMin, convey.ShouldEqual, -50)
				convey.So(*cfg.ScoreMax, convey.ShouldEqual, 500)
				convey.So(cfg.OneEntryPerRound, convey.ShouldBeTrue)
				convey.So(cfg.CORSAllowedOrigins, convey.ShouldResemble, []string{"http://a.test", "http://b.test"})
				convey.So(cfg.ShutdownTimeout, convey.ShouldEqual, 3*time.Second)
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			path := createTempConfigFile(t, `
# ledger backend
store: sql
database_driver: sqlite3
database_dsn: /tmp/tally-test.db
records_store: redis
redis_addr: "127.0.0.1:6380"
redis_db: 2
max_leaderboard_limit: 25
catalog_path: games.yaml
`)
			_ = os.Setenv("TALLY_CONFIG", path)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Store, convey.ShouldEqual, config.StoreSQL)
				convey.So(cfg.DatabaseDSN, convey.ShouldEqual, "/tmp/tally-test.db")
				convey.So(cfg.RecordsStore, convey.ShouldEqual, config.StoreRedis)
				convey.So(cfg.RedisAddr, convey.ShouldEqual, "127.0.0.1:6380")
				convey.So(cfg.RedisDB, convey.ShouldEqual, 2)
				convey.So(cfg.MaxLeaderboardLimit, convey.ShouldEqual, 25)
				convey.So(cfg.CatalogPath, convey.ShouldEqual, "games.yaml")
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			})

			convey.Convey("And environment variables are also set", func() {
				_ = os.Setenv("TALLY_REDIS_DB", "5")

				cfg, err := config.Load(ctx)

				convey.Convey("Then environment variables override file values", func() {
					convey.So(err, convey.ShouldBeNil)
					convey.So(cfg.RedisDB, convey.ShouldEqual, 5)
					convey.So(cfg.Store, convey.ShouldEqual, config.StoreSQL)
				})
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			path := createTempConfigFile(t, "store: [unterminated")
			_ = os.Setenv("TALLY_CONFIG", path)

			_, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("TALLY_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))

			_, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("TALLY_QUEUE_SIZE", "lots")

			_, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When the loaded config is invalid", func() {
			_ = os.Setenv("TALLY_LOG_FORMAT", "xml")

			_, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})
	})
}
