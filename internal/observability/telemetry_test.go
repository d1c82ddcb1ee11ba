package observability

import (
	"context"
	"testing"

	"github.com/riskibarqy/nleaderboard/internal/config"
	"github.com/riskibarqy/nleaderboard/internal/platform/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStart_EverythingDisabled(t *testing.T) {
	tel, err := Start(config.Config{ServiceName: "nleaderboard-api", AppEnv: config.EnvDev}, logging.NewNop())
	require.NoError(t, err)
	assert.False(t, tel.tracing)
	assert.Nil(t, tel.profiler)
	assert.Empty(t, tel.PprofAddr())
	require.NoError(t, tel.Shutdown(context.Background()))
}

func TestStart_TracingNeedsDSN(t *testing.T) {
	tel, err := Start(config.Config{UptraceEnabled: true, UptraceDSN: "  "}, nil)
	require.NoError(t, err)
	assert.False(t, tel.tracing)
	require.NoError(t, tel.Shutdown(context.Background()))
}

func TestStart_PprofListener(t *testing.T) {
	tel, err := Start(config.Config{PprofEnabled: true, PprofAddr: "127.0.0.1:0"}, logging.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:0", tel.PprofAddr())
	require.NoError(t, tel.Shutdown(context.Background()))
}

func TestTelemetry_NilShutdown(t *testing.T) {
	var tel *Telemetry
	assert.NoError(t, tel.Shutdown(context.Background()))
	assert.Empty(t, tel.PprofAddr())
}
