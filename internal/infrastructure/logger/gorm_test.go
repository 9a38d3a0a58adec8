package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func newObservedGormLogger(t *testing.T, zapLevel zapcore.Level, gormLevel gormlogger.LogLevel, opts ...GormLoggerOption) (*GormLogger, *observer.ObservedLogs) {
	t.Helper()
	core, recorded := observer.New(zapLevel)
	return NewGormLogger(zap.New(core), gormLevel, opts...), recorded
}

func TestNewGormLogger_Defaults(t *testing.T) {
	gormLog, _ := newObservedGormLogger(t, zapcore.InfoLevel, gormlogger.Info)

	assert.Equal(t, gormlogger.Info, gormLog.logLevel)
	assert.Equal(t, 200*time.Millisecond, gormLog.slowThreshold)
	assert.True(t, gormLog.ignoreNotFoundErr)
}

func TestNewGormLogger_Options(t *testing.T) {
	gormLog, _ := newObservedGormLogger(t, zapcore.InfoLevel, gormlogger.Info,
		WithSlowThreshold(500*time.Millisecond),
		WithIgnoreRecordNotFoundError(false),
	)

	assert.Equal(t, 500*time.Millisecond, gormLog.slowThreshold)
	assert.False(t, gormLog.ignoreNotFoundErr)
}

func TestGormLogger_LogMode_ReturnsClone(t *testing.T) {
	gormLog, _ := newObservedGormLogger(t, zapcore.InfoLevel, gormlogger.Info)

	lowered := gormLog.LogMode(gormlogger.Warn)

	assert.Equal(t, gormlogger.Info, gormLog.logLevel)
	cloned, ok := lowered.(*GormLogger)
	require.True(t, ok)
	assert.Equal(t, gormlogger.Warn, cloned.logLevel)
}

func TestGormLogger_Info(t *testing.T) {
	gormLog, recorded := newObservedGormLogger(t, zapcore.InfoLevel, gormlogger.Info)

	gormLog.Info(context.Background(), "migrating %s", "stock_movements")

	logs := recorded.All()
	require.Len(t, logs, 1)
	assert.Contains(t, logs[0].Message, "migrating stock_movements")
}

func TestGormLogger_Info_SuppressedWhenSilent(t *testing.T) {
	gormLog, recorded := newObservedGormLogger(t, zapcore.InfoLevel, gormlogger.Silent)

	gormLog.Info(context.Background(), "should not appear")

	assert.Empty(t, recorded.All())
}

func TestGormLogger_Warn(t *testing.T) {
	gormLog, recorded := newObservedGormLogger(t, zapcore.WarnLevel, gormlogger.Warn)

	gormLog.Warn(context.Background(), "retrying after %d conflicts", 3)

	logs := recorded.All()
	require.Len(t, logs, 1)
	assert.Contains(t, logs[0].Message, "retrying after 3 conflicts")
	assert.Equal(t, zapcore.WarnLevel, logs[0].Level)
}

func TestGormLogger_Error(t *testing.T) {
	gormLog, recorded := newObservedGormLogger(t, zapcore.ErrorLevel, gormlogger.Error)

	gormLog.Error(context.Background(), "connection lost")

	logs := recorded.All()
	require.Len(t, logs, 1)
	assert.Equal(t, zapcore.ErrorLevel, logs[0].Level)
}

func TestGormLogger_Trace_Error(t *testing.T) {
	gormLog, recorded := newObservedGormLogger(t, zapcore.ErrorLevel, gormlogger.Error)

	fc := func() (string, int64) {
		return "UPDATE warehouse_stock SET version = version + 1", 0
	}
	gormLog.Trace(context.Background(), time.Now(), fc, errors.New("deadlock detected"))

	logs := recorded.All()
	require.Len(t, logs, 1)
	assert.Contains(t, logs[0].Message, "SQL Error")
}

func TestGormLogger_Trace_RecordNotFoundIgnored(t *testing.T) {
	gormLog, recorded := newObservedGormLogger(t, zapcore.ErrorLevel, gormlogger.Error,
		WithIgnoreRecordNotFoundError(true))

	fc := func() (string, int64) {
		return "SELECT * FROM stock_alerts WHERE state = 'active'", 0
	}
	gormLog.Trace(context.Background(), time.Now(), fc, gormlogger.ErrRecordNotFound)

	assert.Empty(t, recorded.All())
}

func TestGormLogger_Trace_SlowQuery(t *testing.T) {
	gormLog, recorded := newObservedGormLogger(t, zapcore.WarnLevel, gormlogger.Warn,
		WithSlowThreshold(1*time.Nanosecond))

	begin := time.Now().Add(-1 * time.Second)
	fc := func() (string, int64) {
		return "SELECT * FROM stock_movements WHERE item_id = ?", 10
	}
	gormLog.Trace(context.Background(), begin, fc, nil)

	logs := recorded.All()
	require.Len(t, logs, 1)
	assert.Contains(t, logs[0].Message, "SLOW SQL")
}

func TestGormLogger_Trace_NormalQuery(t *testing.T) {
	gormLog, recorded := newObservedGormLogger(t, zapcore.DebugLevel, gormlogger.Info)

	fc := func() (string, int64) {
		return "SELECT * FROM warehouse_stock WHERE warehouse_id = ?", 5
	}
	gormLog.Trace(context.Background(), time.Now(), fc, nil)

	logs := recorded.All()
	require.Len(t, logs, 1)
	assert.Contains(t, logs[0].Message, "SQL Query")
}

func TestGormLogger_Trace_Silent(t *testing.T) {
	gormLog, recorded := newObservedGormLogger(t, zapcore.DebugLevel, gormlogger.Silent)

	fc := func() (string, int64) {
		return "SELECT 1", 1
	}
	gormLog.Trace(context.Background(), time.Now(), fc, nil)

	assert.Empty(t, recorded.All())
}

func TestGormLogger_Trace_IncludesActor(t *testing.T) {
	gormLog, recorded := newObservedGormLogger(t, zapcore.DebugLevel, gormlogger.Info)

	ctx := context.WithValue(context.Background(), ActorKey, "receiving-clerk")

	fc := func() (string, int64) {
		return "INSERT INTO stock_movements DEFAULT VALUES", 1
	}
	gormLog.Trace(ctx, time.Now(), fc, nil)

	logs := recorded.All()
	require.Len(t, logs, 1)

	found := false
	for _, field := range logs[0].Context {
		if field.Key == "actor" {
			found = true
			assert.Equal(t, "receiving-clerk", field.String)
		}
	}
	assert.True(t, found, "actor should be in log fields")
}

func TestMapGormLogLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected gormlogger.LogLevel
	}{
		{"silent", gormlogger.Silent},
		{"error", gormlogger.Error},
		{"warn", gormlogger.Warn},
		{"info", gormlogger.Info},
		{"debug", gormlogger.Info},
		{"unknown", gormlogger.Warn},
		{"", gormlogger.Warn},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			assert.Equal(t, tt.expected, MapGormLogLevel(tt.level))
		})
	}
}

func TestGormLoggerImplementsInterface(t *testing.T) {
	gormLog, _ := newObservedGormLogger(t, zapcore.InfoLevel, gormlogger.Info)

	var _ gormlogger.Interface = gormLog
}
