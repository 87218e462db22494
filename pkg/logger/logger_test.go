package logger

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestNewWithConfig(t *testing.T) {
	l, err := NewWithConfig(Config{
		Level:          "info",
		Format:         "json",
		OutputPath:     "stdout",
		ServiceName:    "user-pool-service",
		ServiceVersion: "test",
		Environment:    "test",
	})
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.False(t, l.Core().Enabled(zapcore.DebugLevel))
}

func TestWithContext_RequestID(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	base := zap.New(core)

	ctx, id := ContextWithRequestID(context.Background(), "")
	require.NotEmpty(t, id)
	assert.Equal(t, id, GetRequestID(ctx))

	WithContext(ctx, base).Info("hello")
	WithContext(context.Background(), base).Info("plain")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, id, entries[0].ContextMap()["request_id"])
	assert.NotContains(t, entries[1].ContextMap(), "request_id")
}

func TestGormLevel(t *testing.T) {
	tests := []struct {
		cfg  GormConfig
		want gormlogger.LogLevel
	}{
		{GormConfig{AppLevel: "debug"}, gormlogger.Info},
		{GormConfig{AppLevel: "info"}, gormlogger.Warn},
		{GormConfig{AppLevel: "error"}, gormlogger.Error},
		{GormConfig{Level: "silent", AppLevel: "debug"}, gormlogger.Silent},
		{GormConfig{Level: "info", AppLevel: "error"}, gormlogger.Info},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, GormLevel(tt.cfg), "%+v", tt.cfg)
	}
}

func TestGormLogger_Trace(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	gl := NewGormLogger(zap.New(core), GormConfig{Level: "warn", SlowQuery: 100 * time.Millisecond})

	sql := func() (string, int64) { return "SELECT * FROM users", 1 }

	gl.Trace(context.Background(), time.Now(), sql, nil)
	assert.Equal(t, 0, logs.Len(), "fast queries are not logged at warn level")

	gl.Trace(context.Background(), time.Now().Add(-time.Second), sql, nil)
	assert.Equal(t, 1, logs.FilterMessage("gorm slow query").Len())

	gl.Trace(context.Background(), time.Now(), sql, errors.New("boom"))
	assert.Equal(t, 1, logs.FilterMessage("gorm query error").Len())

	gl.Trace(context.Background(), time.Now(), sql, gorm.ErrRecordNotFound)
	assert.Equal(t, 2, logs.Len())

	silent := gl.LogMode(gormlogger.Silent)
	silent.Trace(context.Background(), time.Now(), sql, errors.New("boom"))
	assert.Equal(t, 2, logs.Len())

	verbose := gl.LogMode(gormlogger.Info)
	verbose.Trace(context.Background(), time.Now(), sql, nil)
	assert.Equal(t, 1, logs.FilterMessage("gorm query").Len())
}

func TestGormLogger_ParamsFilter(t *testing.T) {
	const stmt = "INSERT INTO users (name,email) VALUES (?,?)"

	hidden := NewGormLogger(zap.NewNop(), GormConfig{HideParams: true})
	sql, params := hidden.ParamsFilter(context.Background(), stmt, "Alice", "a@x.com")
	assert.Equal(t, stmt, sql)
	assert.Nil(t, params)

	shown := NewGormLogger(zap.NewNop(), GormConfig{})
	_, params = shown.ParamsFilter(context.Background(), stmt, "Alice", "a@x.com")
	assert.Equal(t, []interface{}{"Alice", "a@x.com"}, params)
}

func TestContextWithRequestID(t *testing.T) {
	tests := []struct {
		name string
		id   string
		keep bool
	}{
		{"uuid", "0b6f5a8e-3f0e-4a59-9d55-0e4c7d1f2a10", true},
		{"short token", "req-123", true},
		{"empty", "", false},
		{"too long", strings.Repeat("a", 65), false},
		{"newline", "abc\ninjected", false},
		{"spaces", "a b", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, id := ContextWithRequestID(context.Background(), tt.id)
			assert.Equal(t, id, GetRequestID(ctx))
			if tt.keep {
				assert.Equal(t, tt.id, id)
				return
			}
			assert.NotEqual(t, tt.id, id)
			_, err := uuid.Parse(id)
			assert.NoError(t, err)
		})
	}
}
