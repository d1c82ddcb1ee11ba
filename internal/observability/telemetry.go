package observability

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/pprof"
	"strings"
	"time"

	"github.com/grafana/pyroscope-go"
	"github.com/riskibarqy/nleaderboard/internal/config"
	"github.com/riskibarqy/nleaderboard/internal/platform/logging"
	"github.com/uptrace/uptrace-go/uptrace"
)

// Telemetry owns the process-wide exporters: Uptrace tracing, Pyroscope
// profiling and the pprof listener. Each part is optional.
type Telemetry struct {
	logger   *logging.Logger
	tracing  bool
	profiler *pyroscope.Profiler
	pprof    *http.Server
}

// Start enables whatever the config turns on. On error the parts already
// started are shut down.
func Start(cfg config.Config, logger *logging.Logger) (*Telemetry, error) {
	if logger == nil {
		logger = logging.Default()
	}
	t := &Telemetry{logger: logger}

	t.startTracing(cfg)
	if err := t.startProfiler(cfg); err != nil {
		_ = t.Shutdown(context.Background())
		return nil, fmt.Errorf("start pyroscope: %w", err)
	}
	t.startPprof(cfg)
	return t, nil
}

func (t *Telemetry) startTracing(cfg config.Config) {
	switch {
	case !cfg.UptraceEnabled:
		t.logger.Info("tracing disabled", "reason", "UPTRACE_ENABLED=false")
		return
	case strings.TrimSpace(cfg.UptraceDSN) == "":
		t.logger.Info("tracing disabled", "reason", "UPTRACE_DSN empty")
		return
	}

	uptrace.ConfigureOpentelemetry(
		uptrace.WithDSN(cfg.UptraceDSN),
		uptrace.WithServiceName(cfg.ServiceName),
		uptrace.WithServiceVersion(cfg.ServiceVersion),
		uptrace.WithDeploymentEnvironment(cfg.AppEnv),
	)
	t.tracing = true
	t.logger.Info("tracing enabled", "exporter", "uptrace", "service_name", cfg.ServiceName)
}

func (t *Telemetry) startProfiler(cfg config.Config) error {
	if !cfg.PyroscopeEnabled {
		return nil
	}

	profiler, err := pyroscope.Start(pyroscope.Config{
		ApplicationName:   cfg.PyroscopeAppName,
		ServerAddress:     cfg.PyroscopeServerAddress,
		AuthToken:         cfg.PyroscopeAuthToken,
		BasicAuthUser:     cfg.PyroscopeBasicAuthUser,
		BasicAuthPassword: cfg.PyroscopeBasicAuthPassword,
		UploadRate:        cfg.PyroscopeUploadRate,
		Tags: map[string]string{
			"env":     cfg.AppEnv,
			"service": cfg.ServiceName,
			"storage": cfg.StorageDriver,
			"cache":   fmt.Sprint(cfg.CacheEnabled),
		},
		// Codec decoding and board ranking are allocation heavy, so the
		// alloc profiles matter as much as CPU.
		ProfileTypes: []pyroscope.ProfileType{
			pyroscope.ProfileCPU,
			pyroscope.ProfileAllocObjects,
			pyroscope.ProfileAllocSpace,
			pyroscope.ProfileInuseSpace,
			pyroscope.ProfileGoroutines,
		},
	})
	if err != nil {
		return err
	}
	t.profiler = profiler
	t.logger.Info("profiling enabled", "server_address", cfg.PyroscopeServerAddress, "application", cfg.PyroscopeAppName)
	return nil
}

func (t *Telemetry) startPprof(cfg config.Config) {
	if !cfg.PprofEnabled {
		return
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	t.pprof = &http.Server{
		Addr:              cfg.PprofAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func(srv *http.Server) {
		t.logger.Info("pprof listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			t.logger.Error("pprof server failed", "error", err)
		}
	}(t.pprof)
}

// Shutdown stops every started part and flushes pending spans. It reports
// all failures, not just the first.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	if t == nil {
		return nil
	}

	var errs []error
	if t.pprof != nil {
		if err := t.pprof.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("stop pprof: %w", err))
		}
	}
	if t.profiler != nil {
		if err := t.profiler.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("stop pyroscope: %w", err))
		}
	}
	if t.tracing {
		if err := uptrace.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("flush traces: %w", err))
		}
	}
	return errors.Join(errs...)
}

// PprofAddr is empty when the pprof listener is off.
func (t *Telemetry) PprofAddr() string {
	if t == nil || t.pprof == nil {
		return ""
	}
	return t.pprof.Addr
}
