package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestDisabledProviders(t *testing.T) {
	ctx := context.Background()
	logger := zap.NewNop()

	t.Run("tracer", func(t *testing.T) {
		tp, err := NewTracerProvider(ctx, Config{Enabled: false, ServiceName: "inventory"}, logger)
		require.NoError(t, err)
		assert.False(t, tp.IsEnabled())
		assert.NotNil(t, tp.Tracer("test"))
		tp.EnableSpanProfiles()
		assert.NoError(t, tp.Shutdown(ctx))
	})

	t.Run("meter", func(t *testing.T) {
		mp, err := NewMeterProvider(ctx, MetricsConfig{Enabled: false}, logger)
		require.NoError(t, err)
		assert.NotNil(t, mp.Meter("test"))
		assert.NoError(t, mp.Shutdown(ctx))
	})

	t.Run("logs", func(t *testing.T) {
		lp, err := NewLoggerProvider(ctx, LogsConfig{Enabled: false})
		require.NoError(t, err)
		assert.Nil(t, lp.ZapCore(zapcore.InfoLevel))
		assert.NoError(t, lp.Shutdown(ctx))
	})

	t.Run("profiler", func(t *testing.T) {
		p, err := NewProfiler(ProfilerConfig{Enabled: false}, logger)
		require.NoError(t, err)
		assert.False(t, p.IsEnabled())
		assert.NoError(t, p.Stop())
		assert.NoError(t, p.Stop())
	})
}

func TestNewProfiler_RequiresAddress(t *testing.T) {
	_, err := NewProfiler(ProfilerConfig{Enabled: true, ApplicationName: "inventory"}, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server address is required")

	_, err = NewProfiler(ProfilerConfig{Enabled: true, ServerAddress: "http://localhost:4040"}, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "application name is required")
}

func TestSampler(t *testing.T) {
	assert.Contains(t, sampler(1).Description(), "AlwaysOnSampler")
	assert.Equal(t, "AlwaysOffSampler", sampler(0).Description())
	assert.Contains(t, sampler(0.5).Description(), "TraceIDRatioBased")
}

func TestLevelFilterCore(t *testing.T) {
	inner, logs := observer.New(zapcore.DebugLevel)
	core := &levelFilterCore{Core: inner, minLevel: zapcore.WarnLevel}
	logger := zap.New(core).With(zap.String("component", "test"))

	logger.Info("dropped")
	logger.Warn("kept")

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "kept", entry.Message)
	assert.Equal(t, "test", entry.ContextMap()["component"])
}

func TestRegisterDBTracing(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	t.Run("disabled is a no-op", func(t *testing.T) {
		require.NoError(t, RegisterDBTracing(db, DBTracingConfig{Enabled: false}, zap.NewNop()))
	})

	t.Run("enabled registers plugin and callbacks", func(t *testing.T) {
		core, logs := observer.New(zapcore.InfoLevel)
		cfg := DBTracingConfig{Enabled: true, DBSystem: "sqlite", SlowQueryThresh: time.Millisecond}
		require.NoError(t, RegisterDBTracing(db, cfg, zap.New(core)))
		assert.Equal(t, 1, logs.FilterMessage("Database tracing enabled").Len())

		var one int
		require.NoError(t, db.Raw("SELECT 1").Scan(&one).Error)
		assert.Equal(t, 1, one)
	})
}
