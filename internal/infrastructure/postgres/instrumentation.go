package postgres

import (
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/wms-platform/shipment-service/pkg/logging"
	"github.com/wms-platform/shipment-service/pkg/metrics"
	"github.com/wms-platform/shipment-service/pkg/tracing"
)

const startedAtKey = "instrumentation:started_at"

// Instrumentation is a gorm plugin that traces, measures and logs every statement
type Instrumentation struct {
	logger        *logging.Logger
	metrics       *metrics.Metrics
	tracer        trace.Tracer
	slowThreshold time.Duration
}

// NewInstrumentation creates the plugin. A zero slowThreshold disables slow query warnings.
func NewInstrumentation(logger *logging.Logger, m *metrics.Metrics, slowThreshold time.Duration) *Instrumentation {
	return &Instrumentation{
		logger:        logger,
		metrics:       m,
		tracer:        otel.Tracer("postgres"),
		slowThreshold: slowThreshold,
	}
}

func (p *Instrumentation) Name() string {
	return "shipment:instrumentation"
}

func (p *Instrumentation) Initialize(db *gorm.DB) error {
	cb := db.Callback()
	if err := cb.Create().Before("gorm:create").Register("instrumentation:before_create", p.before("insert")); err != nil {
		return err
	}
	if err := cb.Create().After("gorm:create").Register("instrumentation:after_create", p.after("insert")); err != nil {
		return err
	}
	if err := cb.Query().Before("gorm:query").Register("instrumentation:before_query", p.before("select")); err != nil {
		return err
	}
	if err := cb.Query().After("gorm:query").Register("instrumentation:after_query", p.after("select")); err != nil {
		return err
	}
	if err := cb.Update().Before("gorm:update").Register("instrumentation:before_update", p.before("update")); err != nil {
		return err
	}
	if err := cb.Update().After("gorm:update").Register("instrumentation:after_update", p.after("update")); err != nil {
		return err
	}
	if err := cb.Delete().Before("gorm:delete").Register("instrumentation:before_delete", p.before("delete")); err != nil {
		return err
	}
	if err := cb.Delete().After("gorm:delete").Register("instrumentation:after_delete", p.after("delete")); err != nil {
		return err
	}
	if err := cb.Row().Before("gorm:row").Register("instrumentation:before_row", p.before("row")); err != nil {
		return err
	}
	if err := cb.Row().After("gorm:row").Register("instrumentation:after_row", p.after("row")); err != nil {
		return err
	}
	if err := cb.Raw().Before("gorm:raw").Register("instrumentation:before_raw", p.before("raw")); err != nil {
		return err
	}
	return cb.Raw().After("gorm:raw").Register("instrumentation:after_raw", p.after("raw"))
}

func (p *Instrumentation) before(operation string) func(*gorm.DB) {
	return func(db *gorm.DB) {
		if db.Statement == nil || db.Statement.Context == nil {
			return
		}
		ctx, _ := p.tracer.Start(db.Statement.Context, "postgres."+operation,
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(tracing.DatabaseSpanAttributes("postgresql", db.Name(), operation, db.Statement.Table)...),
		)
		db.Statement.Context = ctx
		db.InstanceSet(startedAtKey, time.Now())
	}
}

func (p *Instrumentation) after(operation string) func(*gorm.DB) {
	return func(db *gorm.DB) {
		if db.Statement == nil || db.Statement.Context == nil {
			return
		}
		ctx := db.Statement.Context
		span := trace.SpanFromContext(ctx)
		defer span.End()

		var duration time.Duration
		if v, ok := db.InstanceGet(startedAtKey); ok {
			if startedAt, ok := v.(time.Time); ok {
				duration = time.Since(startedAt)
			}
		}

		table := db.Statement.Table
		if table == "" {
			table = "raw"
		}
		err := db.Error
		success := err == nil || errors.Is(err, gorm.ErrRecordNotFound)
		rows := db.Statement.RowsAffected

		span.SetAttributes(
			attribute.String("db.sql.table", table),
			attribute.Int64("db.rows_affected", rows),
		)
		if success {
			span.SetStatus(codes.Ok, "")
		} else {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}

		if p.metrics != nil {
			p.metrics.RecordDBOperation(table, operation, success, duration)
		}
		if p.logger == nil {
			return
		}
		p.logger.DatabaseQuery(ctx, table, operation, duration, success, rows)
		if p.slowThreshold > 0 && duration > p.slowThreshold {
			p.logger.WithContext(ctx).Warn("Slow query",
				"table", table,
				"operation", operation,
				"durationMs", duration.Milliseconds(),
				"sql", db.Statement.SQL.String(),
			)
		}
	}
}
