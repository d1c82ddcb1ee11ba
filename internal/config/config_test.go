package config

import (
	"testing"
	"time"

	"github.com/riskibarqy/nleaderboard/internal/platform/logging"
)

func TestLoad_AppEnvValidation(t *testing.T) {
	t.Setenv("APP_ENV", "invalid")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for invalid APP_ENV")
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")
	t.Setenv("STORAGE_DRIVER", "")
	t.Setenv("REFRESH_MAX_WORKERS", "")
	t.Setenv("HISTORY_CHANGE_TOLERANCE", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.StorageDriver != StorageMemory {
		t.Fatalf("expected memory storage by default, got %q", cfg.StorageDriver)
	}
	if cfg.RefreshMaxWorkers != 8 {
		t.Fatalf("unexpected RefreshMaxWorkers: %d", cfg.RefreshMaxWorkers)
	}
	if cfg.HistoryChangeTolerance != 5*time.Second {
		t.Fatalf("unexpected HistoryChangeTolerance: %s", cfg.HistoryChangeTolerance)
	}
	if !cfg.MetricsEnabled {
		t.Fatalf("expected metrics enabled by default")
	}
	if cfg.UpstreamEnabled {
		t.Fatalf("expected upstream disabled by default")
	}
}

func TestLoad_StorageDriverValidation(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")

	t.Run("postgres", func(t *testing.T) {
		t.Setenv("STORAGE_DRIVER", " Postgres ")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if cfg.StorageDriver != StoragePostgres {
			t.Fatalf("unexpected storage driver: %q", cfg.StorageDriver)
		}
	})

	t.Run("unknown", func(t *testing.T) {
		t.Setenv("STORAGE_DRIVER", "sqlite")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for unknown STORAGE_DRIVER")
		}
	})
}

func TestLoad_UptraceRequiresDSNWhenEnabled(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "true")
	t.Setenv("UPTRACE_DSN", "")
	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when UPTRACE_ENABLED=true without UPTRACE_DSN")
	}
}

func TestLoad_UptraceDSNFromOTLPHeaders(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "true")
	t.Setenv("UPTRACE_DSN", "")
	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", `foo=bar, uptrace-dsn="https://token@api.uptrace.dev?grpc=4317"`)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.UptraceDSN != "https://token@api.uptrace.dev?grpc=4317" {
		t.Fatalf("unexpected UptraceDSN: %q", cfg.UptraceDSN)
	}
	if !cfg.DBTraceEnabled {
		t.Fatalf("expected DB tracing to follow UPTRACE_ENABLED")
	}
}

func TestLoad_UpstreamRequiresSteamID(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")
	t.Setenv("UPSTREAM_ENABLED", "true")
	t.Setenv("STEAM_ID", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when UPSTREAM_ENABLED=true without STEAM_ID")
	}
}

func TestLoad_UpstreamConfigParsing(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")
	t.Setenv("UPSTREAM_ENABLED", "true")
	t.Setenv("STEAM_ID", "76561198000000000")
	t.Setenv("UPSTREAM_TIMEOUT", "7s")
	t.Setenv("UPSTREAM_MAX_RETRIES", "3")
	t.Setenv("UPSTREAM_CIRCUIT_FAILURE_COUNT", "9")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.UpstreamSteamID != "76561198000000000" {
		t.Fatalf("unexpected UpstreamSteamID: %q", cfg.UpstreamSteamID)
	}
	if cfg.UpstreamTimeout != 7*time.Second {
		t.Fatalf("unexpected UpstreamTimeout: %s", cfg.UpstreamTimeout)
	}
	if cfg.UpstreamMaxRetries != 3 {
		t.Fatalf("unexpected UpstreamMaxRetries: %d", cfg.UpstreamMaxRetries)
	}
	if cfg.UpstreamCircuitFailureCount != 9 {
		t.Fatalf("unexpected UpstreamCircuitFailureCount: %d", cfg.UpstreamCircuitFailureCount)
	}
}

func TestLoad_WorkerValidation(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")

	t.Run("zero workers", func(t *testing.T) {
		t.Setenv("REFRESH_MAX_WORKERS", "0")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for REFRESH_MAX_WORKERS=0")
		}
	})

	t.Run("negative tolerance", func(t *testing.T) {
		t.Setenv("REFRESH_MAX_WORKERS", "")
		t.Setenv("HISTORY_CHANGE_TOLERANCE", "-1s")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for negative HISTORY_CHANGE_TOLERANCE")
		}
	})
}

func TestLoad_PprofDefaultsAddrWhenEnabled(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")
	t.Setenv("PPROF_ENABLED", "true")
	t.Setenv("PPROF_ADDR", "  ")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.PprofAddr != ":6060" {
		t.Fatalf("expected default pprof addr :6060, got %q", cfg.PprofAddr)
	}
}

func TestLoad_PyroscopeRequiresServerAddressWhenEnabled(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")
	t.Setenv("PYROSCOPE_ENABLED", "true")
	t.Setenv("PYROSCOPE_SERVER_ADDRESS", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when PYROSCOPE_ENABLED=true without PYROSCOPE_SERVER_ADDRESS")
	}
}

func TestLoad_PyroscopeAppNameDefaultsToServiceName(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")
	t.Setenv("APP_SERVICE_NAME", "nleaderboard-api-test")
	t.Setenv("PYROSCOPE_ENABLED", "true")
	t.Setenv("PYROSCOPE_SERVER_ADDRESS", "http://localhost:4040")
	t.Setenv("PYROSCOPE_APP_NAME", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.PyroscopeAppName != "nleaderboard-api-test" {
		t.Fatalf("unexpected pyroscope app name: %q", cfg.PyroscopeAppName)
	}
}

func TestLoad_CORSOriginsDefaultAndParsing(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")

	t.Run("default wildcard", func(t *testing.T) {
		t.Setenv("CORS_ALLOWED_ORIGINS", "")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if len(cfg.CORSAllowedOrigins) != 1 || cfg.CORSAllowedOrigins[0] != "*" {
			t.Fatalf("unexpected default CORS origins: %+v", cfg.CORSAllowedOrigins)
		}
	})

	t.Run("comma separated parsing", func(t *testing.T) {
		t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.example.com, http://localhost:5173 ")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "http://localhost:5173" {
			t.Fatalf("unexpected CORS origins: %+v", cfg.CORSAllowedOrigins)
		}
	})
}

func TestLoad_CacheConfigParsing(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")

	t.Run("defaults", func(t *testing.T) {
		t.Setenv("CACHE_ENABLED", "")
		t.Setenv("CACHE_TTL", "")
		t.Setenv("HISTORY_CACHE_TTL", "")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if !cfg.CacheEnabled {
			t.Fatalf("expected cache enabled by default")
		}
		if cfg.CacheTTL != time.Minute {
			t.Fatalf("unexpected CacheTTL: %s", cfg.CacheTTL)
		}
	})

	t.Run("history ttl wins over cache ttl", func(t *testing.T) {
		t.Setenv("CACHE_TTL", "30s")
		t.Setenv("HISTORY_CACHE_TTL", "2m")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if cfg.CacheTTL != 2*time.Minute {
			t.Fatalf("unexpected CacheTTL: %s", cfg.CacheTTL)
		}
	})

	t.Run("non-positive ttl", func(t *testing.T) {
		t.Setenv("HISTORY_CACHE_TTL", "0s")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for HISTORY_CACHE_TTL=0s")
		}
	})
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]logging.Level{
		"debug":   logging.LevelDebug,
		" WARN ":  logging.LevelWarn,
		"warning": logging.LevelWarn,
		"error":   logging.LevelError,
		"verbose": logging.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLogLevel(in); got != want {
			t.Fatalf("ParseLogLevel(%q) = %s, want %s", in, got, want)
		}
	}
}
