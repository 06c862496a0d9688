package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const defaultSlowQuery = 200 * time.Millisecond

// GormLogger sends gorm's query log to slog. Record-not-found and unique
// violations are expected outcomes here (duplicate votes and reactions),
// so they are logged at debug rather than error.
type GormLogger struct {
	log   *slog.Logger
	level logger.LogLevel
	slow  time.Duration
}

// NewGormLogger returns a slog-backed gorm logger at warn level.
func NewGormLogger(l *slog.Logger) *GormLogger {
	return &GormLogger{log: l, level: logger.Warn, slow: defaultSlowQuery}
}

func (g *GormLogger) LogMode(level logger.LogLevel) logger.Interface {
	clone := *g
	clone.level = level
	return &clone
}

func (g *GormLogger) Info(ctx context.Context, msg string, args ...any) {
	g.printf(ctx, logger.Info, slog.LevelInfo, msg, args...)
}

func (g *GormLogger) Warn(ctx context.Context, msg string, args ...any) {
	g.printf(ctx, logger.Warn, slog.LevelWarn, msg, args...)
}

func (g *GormLogger) Error(ctx context.Context, msg string, args ...any) {
	g.printf(ctx, logger.Error, slog.LevelError, msg, args...)
}

func (g *GormLogger) printf(ctx context.Context, min logger.LogLevel, level slog.Level, msg string, args ...any) {
	if g.level >= min {
		g.log.Log(ctx, level, fmt.Sprintf(msg, args...))
	}
}

// Trace logs failed and slow queries, and every query at info level.
func (g *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if g.level <= logger.Silent {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()
	attrs := []any{slog.String("sql", sql), slog.Int64("rows", rows), slog.Duration("elapsed", elapsed)}

	switch {
	case err != nil && (errors.Is(err, gorm.ErrRecordNotFound) || IsUniqueViolation(err)):
		g.log.DebugContext(ctx, "query rejected", append(attrs, slog.String("error", err.Error()))...)
	case err != nil && g.level >= logger.Error:
		g.log.ErrorContext(ctx, "query failed", append(attrs, slog.String("error", err.Error()))...)
	case g.slow > 0 && elapsed > g.slow && g.level >= logger.Warn:
		g.log.WarnContext(ctx, "slow query", attrs...)
	case g.level >= logger.Info:
		g.log.InfoContext(ctx, "query", attrs...)
	}
}
