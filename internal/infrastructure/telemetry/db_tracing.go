package telemetry

import (
	"context"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingConfig controls the gorm tracing plugin
type DBTracingConfig struct {
	Enabled bool
	// LogFullSQL includes statement parameters in spans. Off in production;
	// sync payloads carry shop tokens and customer names.
	LogFullSQL      bool
	SlowQueryThresh time.Duration
	DBSystem        string
}

// DefaultDBTracingConfig returns the secure defaults: tracing off, query
// variables excluded, 200ms slow query threshold.
func DefaultDBTracingConfig() DBTracingConfig {
	return DBTracingConfig{
		Enabled:         false,
		LogFullSQL:      false,
		SlowQueryThresh: 200 * time.Millisecond,
		DBSystem:        "postgresql",
	}
}

// DBTracingPlugin registers otelgorm on a gorm DB and layers slow query
// detection and error marking on top of the otelgorm spans.
type DBTracingPlugin struct {
	config DBTracingConfig
	logger *zap.Logger
}

// NewDBTracingPlugin creates the plugin; call RegisterOtelGorm to attach it
func NewDBTracingPlugin(cfg DBTracingConfig, logger *zap.Logger) *DBTracingPlugin {
	return &DBTracingPlugin{
		config: cfg,
		logger: logger,
	}
}

// RegisterOtelGorm installs otelgorm plus the timing callbacks. Registering
// twice on the same DB errors on the duplicate callback names.
func (p *DBTracingPlugin) RegisterOtelGorm(db *gorm.DB) error {
	if !p.config.Enabled {
		p.logger.Debug("Database tracing disabled, skipping otelgorm registration")
		return nil
	}

	opts := []otelgorm.Option{
		otelgorm.WithDBName(p.config.DBSystem),
	}
	if !p.config.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}

	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}
	if err := p.registerTimingCallbacks(db); err != nil {
		return err
	}

	p.logger.Info("Database tracing enabled",
		zap.Bool("log_full_sql", p.config.LogFullSQL),
		zap.Duration("slow_query_threshold", p.config.SlowQueryThresh),
		zap.String("db_system", p.config.DBSystem),
	)

	return nil
}

// registerTimingCallbacks hooks every gorm operation: a before callback
// stamps the start time, an after callback annotates the active span.
func (p *DBTracingPlugin) registerTimingCallbacks(db *gorm.DB) error {
	before := func(db *gorm.DB) {
		if db.Statement.Context != nil {
			db.Statement.Context = WithQueryStartTime(db.Statement.Context)
		}
	}

	hooks := []func() error{
		func() error { return db.Callback().Create().Before("gorm:create").Register("db_tracing:before_create", before) },
		func() error { return db.Callback().Query().Before("gorm:query").Register("db_tracing:before_query", before) },
		func() error { return db.Callback().Update().Before("gorm:update").Register("db_tracing:before_update", before) },
		func() error { return db.Callback().Delete().Before("gorm:delete").Register("db_tracing:before_delete", before) },
		func() error { return db.Callback().Row().Before("gorm:row").Register("db_tracing:before_row", before) },
		func() error { return db.Callback().Raw().Before("gorm:raw").Register("db_tracing:before_raw", before) },
		func() error {
			return db.Callback().Create().After("gorm:create").Register("db_tracing:after_create", p.annotateSpan)
		},
		func() error {
			return db.Callback().Query().After("gorm:query").Register("db_tracing:after_query", p.annotateSpan)
		},
		func() error {
			return db.Callback().Update().After("gorm:update").Register("db_tracing:after_update", p.annotateSpan)
		},
		func() error {
			return db.Callback().Delete().After("gorm:delete").Register("db_tracing:after_delete", p.annotateSpan)
		},
		func() error { return db.Callback().Row().After("gorm:row").Register("db_tracing:after_row", p.annotateSpan) },
		func() error { return db.Callback().Raw().After("gorm:raw").Register("db_tracing:after_raw", p.annotateSpan) },
	}
	for _, register := range hooks {
		if err := register(); err != nil {
			return err
		}
	}

	return nil
}

// annotateSpan runs after each operation. It records rows affected and table
// name, marks real errors (not gorm.ErrRecordNotFound, which the
// repositories translate into domain sentinels), and flags slow queries.
func (p *DBTracingPlugin) annotateSpan(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil {
		return
	}

	span := trace.SpanFromContext(ctx)
	if span == nil || !span.IsRecording() {
		return
	}

	if db.Statement.RowsAffected >= 0 {
		span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))
	}
	if db.Statement.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", db.Statement.Table))
	}

	if db.Error != nil && db.Error != gorm.ErrRecordNotFound {
		span.SetStatus(codes.Error, db.Error.Error())
		span.RecordError(db.Error)
	}

	if startTime, ok := ctx.Value(queryStartTimeKey).(time.Time); ok {
		elapsed := time.Since(startTime)
		if elapsed > p.config.SlowQueryThresh {
			span.SetAttributes(
				attribute.Bool("db.slow_query", true),
				attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
			)
			span.AddEvent("slow_query_warning", trace.WithAttributes(
				attribute.Int64("duration_ms", elapsed.Milliseconds()),
				attribute.Int64("threshold_ms", p.config.SlowQueryThresh.Milliseconds()),
			))
		}
	}
}

type contextKey string

const queryStartTimeKey contextKey = "db_query_start_time"

// WithQueryStartTime stamps the context with the moment a query began
func WithQueryStartTime(ctx context.Context) context.Context {
	return context.WithValue(ctx, queryStartTimeKey, time.Now())
}
