// Copyright (C) 2025 sage-x-project
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later

package logging

import (
	"context"
	"io"
	"math/rand"
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// StructuredLogger is a zap-backed implementation of Logger. It keeps
// the JSON structured-entry shape the engine's log aggregation expects
// while delegating encoding, level filtering, and Fatal's process exit
// to zap.
type StructuredLogger struct {
	zl           *zap.Logger
	atomicLevel  zap.AtomicLevel
	samplingRate float64
	mu           sync.Mutex
}

// NewStructuredLogger creates a new structured logger writing JSON to
// stdout.
func NewStructuredLogger(level Level) *StructuredLogger {
	return NewStructuredLoggerWithOutput(level, os.Stdout)
}

// NewStructuredLoggerWithOutput creates a logger with custom output.
func NewStructuredLoggerWithOutput(level Level, output io.Writer) *StructuredLogger {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "timestamp"
	encoderCfg.MessageKey = "message"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	atomicLevel := zap.NewAtomicLevelAt(zapLevel(level))
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), zapcore.AddSync(output), atomicLevel)

	return &StructuredLogger{
		zl:           zap.New(core),
		atomicLevel:  atomicLevel,
		samplingRate: 1.0,
	}
}

// Debug logs a debug message, subject to SetSamplingRate.
func (l *StructuredLogger) Debug(ctx context.Context, msg string, fields ...Field) {
	l.mu.Lock()
	rate := l.samplingRate
	l.mu.Unlock()

	if rate < 1.0 && rand.Float64() > rate {
		return
	}
	l.zl.Debug(msg, toZapFields(ctx, fields)...)
}

// Info logs an informational message.
func (l *StructuredLogger) Info(ctx context.Context, msg string, fields ...Field) {
	l.zl.Info(msg, toZapFields(ctx, fields)...)
}

// Warn logs a warning message.
func (l *StructuredLogger) Warn(ctx context.Context, msg string, fields ...Field) {
	l.zl.Warn(msg, toZapFields(ctx, fields)...)
}

// Error logs an error message.
func (l *StructuredLogger) Error(ctx context.Context, msg string, fields ...Field) {
	l.zl.Error(msg, toZapFields(ctx, fields)...)
}

// Fatal logs a fatal message and exits; zap.Logger.Fatal calls
// os.Exit(1) after writing the entry.
func (l *StructuredLogger) Fatal(ctx context.Context, msg string, fields ...Field) {
	l.zl.Fatal(msg, toZapFields(ctx, fields)...)
}

// With creates a child logger with persistent fields.
func (l *StructuredLogger) With(fields ...Field) Logger {
	return &StructuredLogger{
		zl:           l.zl.With(toZapFieldsNoContext(fields)...),
		atomicLevel:  l.atomicLevel,
		samplingRate: l.samplingRate,
	}
}

// SetLevel sets the minimum log level.
func (l *StructuredLogger) SetLevel(level Level) {
	l.atomicLevel.SetLevel(zapLevel(level))
}

// SetSamplingRate sets the sampling rate for debug logs.
func (l *StructuredLogger) SetSamplingRate(rate float64) {
	if rate < 0.0 {
		rate = 0.0
	}
	if rate > 1.0 {
		rate = 1.0
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.samplingRate = rate
}

// zapLevel maps a Level onto its zapcore.Level.
func zapLevel(level Level) zapcore.Level {
	switch level {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelInfo:
		return zapcore.InfoLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	case LevelFatal:
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

// toZapFields converts context fields and call-site fields into zap
// fields, context first so explicit fields can still override them.
func toZapFields(ctx context.Context, fields []Field) []zap.Field {
	contextFields := extractContextFields(ctx)
	out := make([]zap.Field, 0, len(contextFields)+len(fields))
	for _, f := range contextFields {
		out = append(out, zap.Any(f.Key, f.Value))
	}
	out = append(out, toZapFieldsNoContext(fields)...)
	return out
}

func toZapFieldsNoContext(fields []Field) []zap.Field {
	out := make([]zap.Field, 0, len(fields))
	for _, f := range fields {
		out = append(out, zap.Any(f.Key, f.Value))
	}
	return out
}
