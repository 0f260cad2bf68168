// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package log is a thin layer over go-ethereum's slog based logger.
// Package loggers are created once with WithContext and always write through
// the current root, so they follow later calls to Init or SetDefault.
package log

import (
	"context"
	"io"
	"log/slog"
	"os"

	ethlog "github.com/ethereum/go-ethereum/log"
	"github.com/mattn/go-isatty"
)

// Levels re-exported for callers configuring verbosity.
const (
	LevelTrace = ethlog.LevelTrace
	LevelDebug = ethlog.LevelDebug
	LevelInfo  = ethlog.LevelInfo
	LevelWarn  = ethlog.LevelWarn
	LevelError = ethlog.LevelError
	LevelCrit  = ethlog.LevelCrit
)

// LegacyLevelInfo is the default value of numeric verbosity flags.
const LegacyLevelInfo = 3

// Logger writes leveled, key/value annotated records.
type Logger interface {
	Trace(msg string, ctx ...any)
	Debug(msg string, ctx ...any)
	Info(msg string, ctx ...any)
	Warn(msg string, ctx ...any)
	Error(msg string, ctx ...any)
	Enabled(level slog.Level) bool
}

type ctxLogger struct {
	ctx []any
}

// WithContext returns a logger that prefixes every record with ctx.
func WithContext(ctx ...any) Logger {
	return &ctxLogger{ctx: ctx}
}

func (l *ctxLogger) merge(ctx []any) []any {
	if len(l.ctx) == 0 {
		return ctx
	}
	merged := make([]any, 0, len(l.ctx)+len(ctx))
	merged = append(merged, l.ctx...)
	return append(merged, ctx...)
}

func (l *ctxLogger) Trace(msg string, ctx ...any) { ethlog.Root().Trace(msg, l.merge(ctx)...) }
func (l *ctxLogger) Debug(msg string, ctx ...any) { ethlog.Root().Debug(msg, l.merge(ctx)...) }
func (l *ctxLogger) Info(msg string, ctx ...any)  { ethlog.Root().Info(msg, l.merge(ctx)...) }
func (l *ctxLogger) Warn(msg string, ctx ...any)  { ethlog.Root().Warn(msg, l.merge(ctx)...) }
func (l *ctxLogger) Error(msg string, ctx ...any) { ethlog.Root().Error(msg, l.merge(ctx)...) }

func (l *ctxLogger) Enabled(level slog.Level) bool {
	return ethlog.Root().Enabled(context.Background(), level)
}

// Info logs at info level on the root logger.
func Info(msg string, ctx ...any) { ethlog.Root().Info(msg, ctx...) }

// Warn logs at warn level on the root logger.
func Warn(msg string, ctx ...any) { ethlog.Root().Warn(msg, ctx...) }

// Error logs at error level on the root logger.
func Error(msg string, ctx ...any) { ethlog.Root().Error(msg, ctx...) }

// SetDefault replaces the root handler.
func SetDefault(h slog.Handler) {
	ethlog.SetDefault(ethlog.NewLogger(h))
}

// Init installs a root handler writing to w at the given legacy verbosity
// (0 crit ... 5 trace). Terminal output is colored when w is a tty.
func Init(w io.Writer, verbosity int, json bool) {
	lvl := ethlog.FromLegacyLevel(verbosity)
	if json {
		SetDefault(ethlog.JSONHandlerWithLevel(w, lvl))
		return
	}
	useColor := false
	if f, ok := w.(*os.File); ok {
		useColor = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	SetDefault(ethlog.NewTerminalHandlerWithLevel(w, lvl, useColor))
}

// Discard drops every record. It's the default until Init is called.
func Discard() {
	SetDefault(ethlog.DiscardHandler())
}
