package telemetry

import (
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const queryStartKey = "telemetry:query_start"

// DBTracingConfig holds configuration for database spans.
type DBTracingConfig struct {
	Enabled         bool
	DBSystem        string
	LogFullSQL      bool
	SlowQueryThresh time.Duration
}

// RegisterDBTracing installs the otelgorm plugin and a callback that flags slow
// statements on the active span. Query variables are stripped unless LogFullSQL is set.
func RegisterDBTracing(db *gorm.DB, cfg DBTracingConfig, logger *zap.Logger) error {
	if !cfg.Enabled {
		logger.Debug("Database tracing disabled, skipping otelgorm registration")
		return nil
	}

	opts := []otelgorm.Option{otelgorm.WithDBName(cfg.DBSystem)}
	if !cfg.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	thresh := cfg.SlowQueryThresh
	if thresh <= 0 {
		thresh = 200 * time.Millisecond
	}
	if err := registerSlowQueryCallbacks(db, thresh); err != nil {
		return err
	}

	logger.Info("Database tracing enabled",
		zap.String("db_system", cfg.DBSystem),
		zap.Bool("log_full_sql", cfg.LogFullSQL),
		zap.Duration("slow_query_threshold", thresh),
	)
	return nil
}

func registerSlowQueryCallbacks(db *gorm.DB, thresh time.Duration) error {
	cb := db.Callback()
	after := slowQueryCallback(thresh)
	regs := []func() error{
		func() error { return cb.Create().Before("gorm:create").Register("telemetry:before_create", markQueryStart) },
		func() error { return cb.Query().Before("gorm:query").Register("telemetry:before_query", markQueryStart) },
		func() error { return cb.Update().Before("gorm:update").Register("telemetry:before_update", markQueryStart) },
		func() error { return cb.Delete().Before("gorm:delete").Register("telemetry:before_delete", markQueryStart) },
		func() error { return cb.Row().Before("gorm:row").Register("telemetry:before_row", markQueryStart) },
		func() error { return cb.Raw().Before("gorm:raw").Register("telemetry:before_raw", markQueryStart) },
		func() error { return cb.Create().After("gorm:create").Register("telemetry:slow_create", after) },
		func() error { return cb.Query().After("gorm:query").Register("telemetry:slow_query", after) },
		func() error { return cb.Update().After("gorm:update").Register("telemetry:slow_update", after) },
		func() error { return cb.Delete().After("gorm:delete").Register("telemetry:slow_delete", after) },
		func() error { return cb.Row().After("gorm:row").Register("telemetry:slow_row", after) },
		func() error { return cb.Raw().After("gorm:raw").Register("telemetry:slow_raw", after) },
	}
	for _, reg := range regs {
		if err := reg(); err != nil {
			return err
		}
	}
	return nil
}

func markQueryStart(db *gorm.DB) {
	db.InstanceSet(queryStartKey, time.Now())
}

func slowQueryCallback(thresh time.Duration) func(*gorm.DB) {
	return func(db *gorm.DB) {
		v, ok := db.InstanceGet(queryStartKey)
		if !ok || db.Statement.Context == nil {
			return
		}
		start, ok := v.(time.Time)
		if !ok {
			return
		}
		elapsed := time.Since(start)
		if elapsed < thresh {
			return
		}
		span := trace.SpanFromContext(db.Statement.Context)
		if !span.IsRecording() {
			return
		}
		span.SetAttributes(
			attribute.Bool("db.slow_query", true),
			attribute.Int64("db.duration_ms", elapsed.Milliseconds()),
		)
	}
}
