package app

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/yungbote/neurobridge-completion/internal/observability"
	"github.com/yungbote/neurobridge-completion/internal/platform/logger"
	"github.com/yungbote/neurobridge-completion/internal/utils"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	SwitchBackendEnv    = "env"
	SwitchBackendRedis  = "redis"
	SwitchBackendDB     = "db"
	SwitchBackendStatic = "static"
)

type Config struct {
	Port        string
	DBDriver    string
	SQLitePath  string
	AutoMigrate bool
	CORSOrigins []string

	SwitchBackend   string
	RedisAddr       string
	TrackingDefault bool

	Otel observability.OtelConfig
}

// LoadDotEnv reads a .env file when present. Variables already set win.
func LoadDotEnv(log *logger.Logger, paths ...string) {
	if err := godotenv.Load(paths...); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return
		}
		if log != nil {
			log.Warn("Failed to load .env file", "error", err)
		}
	}
}

func LoadConfig(log *logger.Logger) Config {
	serviceName := utils.GetEnv("OTEL_SERVICE_NAME", "completion", log)
	return Config{
		Port:        utils.GetEnv("PORT", "8080", log),
		DBDriver:    strings.ToLower(strings.TrimSpace(utils.GetEnv("DB_DRIVER", DriverPostgres, log))),
		SQLitePath:  utils.GetEnv("SQLITE_PATH", "completion.db", log),
		AutoMigrate: utils.GetEnvAsBool("DB_AUTOMIGRATE", true, log),
		CORSOrigins: splitList(utils.GetEnv("CORS_ALLOWED_ORIGINS", "", log)),

		SwitchBackend:   strings.ToLower(strings.TrimSpace(utils.GetEnv("SWITCH_BACKEND", SwitchBackendEnv, log))),
		RedisAddr:       utils.GetEnv("REDIS_ADDR", "", log),
		TrackingDefault: utils.GetEnvAsBool("COMPLETION_TRACKING_DEFAULT", false, log),

		Otel: observability.OtelConfig{
			Enabled:     utils.GetEnvAsBool("OTEL_ENABLED", false, log),
			ServiceName: serviceName,
			Environment: utils.GetEnv("OTEL_ENVIRONMENT", "development", log),
			Version:     utils.GetEnv("OTEL_SERVICE_VERSION", "", log),
			Endpoint:    utils.GetEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "", log),
			Headers:     observability.ParseHeaders(utils.GetEnv("OTEL_EXPORTER_OTLP_HEADERS", "", log)),
			Insecure:    utils.GetEnvAsBool("OTEL_EXPORTER_OTLP_INSECURE", false, log),
			SampleRatio: utils.GetEnvAsFloat("OTEL_TRACES_SAMPLER_ARG", 1.0, log),

			MetricInterval: time.Duration(utils.GetEnvAsInt("OTEL_METRIC_EXPORT_INTERVAL", 30000, log)) * time.Millisecond,
		},
	}
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
