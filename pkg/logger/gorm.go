package logger

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// maxSQLLength caps the statement text written per log entry.
const maxSQLLength = 1000

// GormConfig controls which database statements reach the log.
type GormConfig struct {
	// Level is one of silent, error, warn or info. Empty derives it from AppLevel.
	Level    string
	AppLevel string
	// SlowQuery marks statements taking longer as slow. Zero disables the check.
	SlowQuery time.Duration
	// HideParams logs statements with placeholders instead of bound values.
	HideParams bool
}

// GormLevel resolves the gorm log level for cfg. Query-by-query tracing is
// only on when the application itself logs at debug.
func GormLevel(cfg GormConfig) gormlogger.LogLevel {
	level := cfg.Level
	if level == "" {
		switch cfg.AppLevel {
		case "debug":
			level = "info"
		case "error", "fatal":
			level = "error"
		default:
			level = "warn"
		}
	}

	switch level {
	case "silent":
		return gormlogger.Silent
	case "error":
		return gormlogger.Error
	case "info":
		return gormlogger.Info
	default:
		return gormlogger.Warn
	}
}

// GormLogger writes gorm statements to zap, tagged with the request id.
type GormLogger struct {
	log        *zap.Logger
	level      gormlogger.LogLevel
	slow       time.Duration
	hideParams bool
}

var (
	_ gormlogger.Interface = (*GormLogger)(nil)
	_ gorm.ParamsFilter    = (*GormLogger)(nil)
)

// NewGormLogger creates a gorm logger backed by log.
func NewGormLogger(log *zap.Logger, cfg GormConfig) *GormLogger {
	return &GormLogger{
		log:        log.With(zap.String("component", "gorm")),
		level:      GormLevel(cfg),
		slow:       cfg.SlowQuery,
		hideParams: cfg.HideParams,
	}
}

// LogMode implements gormlogger.Interface
func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

func (l *GormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if l.level >= gormlogger.Info {
		WithContext(ctx, l.log).Sugar().Infof(msg, data...)
	}
}

func (l *GormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if l.level >= gormlogger.Warn {
		WithContext(ctx, l.log).Sugar().Warnf(msg, data...)
	}
}

func (l *GormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if l.level >= gormlogger.Error {
		WithContext(ctx, l.log).Sugar().Errorf(msg, data...)
	}
}

// ParamsFilter drops bound values so user emails stay out of the log.
func (l *GormLogger) ParamsFilter(_ context.Context, sql string, params ...interface{}) (string, []interface{}) {
	if l.hideParams {
		return sql, nil
	}
	return sql, params
}

// Trace implements gormlogger.Interface. Missing records are not errors here.
func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	failed := err != nil && !errors.Is(err, gorm.ErrRecordNotFound)
	slow := l.slow > 0 && elapsed > l.slow

	switch {
	case failed && l.level >= gormlogger.Error:
	case slow && l.level >= gormlogger.Warn:
	case l.level >= gormlogger.Info:
	default:
		return
	}

	sql, rows := fc()
	fields := []zap.Field{
		zap.Int64("rows", rows),
		zap.Duration("elapsed", elapsed),
	}
	if len(sql) > maxSQLLength {
		sql = sql[:maxSQLLength] + "..."
		fields = append(fields, zap.Bool("sql_truncated", true))
	}
	fields = append(fields, zap.String("sql", sql))

	log := WithContext(ctx, l.log)
	switch {
	case failed:
		log.Error("gorm query error", append(fields, zap.Error(err))...)
	case slow:
		log.Warn("gorm slow query", append(fields, zap.Duration("threshold", l.slow))...)
	default:
		log.Info("gorm query", fields...)
	}
}
