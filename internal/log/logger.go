/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package log provides centralized slog-based logging for gocanvas.
// Records go to a console handler (human-readable or JSON) and optionally to
// a rotating JSON file. Every record is enriched with the canvas document
// carried in its context.
package log

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"gocanvas/internal/version"

	lj "gopkg.in/natefinch/lumberjack.v2"
)

// Environment variables read by FromEnv.
const (
	EnvLevel  = "GCV_LOG_LEVEL"  // debug|info|warn|error
	EnvFormat = "GCV_LOG_FORMAT" // console|json
	EnvSource = "GCV_LOG_SOURCE" // true|false
	EnvFile   = "GCV_LOG_FILE"   // path of the rotated JSON log
)

// Rotation defaults for the log file.
const (
	defaultMaxSizeMB  = 10
	defaultMaxBackups = 3
	defaultMaxAgeDays = 28
)

// Options controls logger initialization. The zero value logs INFO and above
// to stderr in console format.
type Options struct {
	Level     string
	Format    string // "console" or "json"
	AddSource bool
	File      string // optional rotated JSON log file

	MaxSizeMB  int
	MaxBackups int

	// Output replaces stderr as the console destination.
	Output io.Writer
}

var current atomic.Pointer[slog.Logger]

// L returns the application logger. It is initialized from the environment
// on first use when Init has not been called.
func L() *slog.Logger {
	if l := current.Load(); l != nil {
		return l
	}
	Init(FromEnv())
	return current.Load()
}

// Init configures the application logger and installs it as slog.Default.
func Init(opts Options) {
	lvl := parseLevel(opts.Level)
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	handlers := []slog.Handler{withEnricher(newConsole(out, opts.Format, lvl, opts.AddSource))}
	if f := strings.TrimSpace(opts.File); f != "" {
		handlers = append(handlers, withEnricher(slog.NewJSONHandler(rotating(f, opts), &slog.HandlerOptions{Level: lvl, AddSource: opts.AddSource})))
	}

	logger := slog.New(fanOut(handlers...)).With(
		slog.String("app", "gocanvas"),
		slog.String("ver", version.Version),
		slog.Time("ts_init", time.Now()),
	)
	current.Store(logger)
	slog.SetDefault(logger)
}

func newConsole(w io.Writer, format string, lvl slog.Level, src bool) slog.Handler {
	if strings.EqualFold(strings.TrimSpace(format), "json") {
		return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl, AddSource: src})
	}
	return newConsoleHandler(w, lvl, src)
}

func rotating(path string, opts Options) io.Writer {
	w := &lj.Logger{
		Filename:   path,
		MaxSize:    defaultMaxSizeMB,
		MaxBackups: defaultMaxBackups,
		MaxAge:     defaultMaxAgeDays,
		Compress:   true,
	}
	if opts.MaxSizeMB > 0 {
		w.MaxSize = opts.MaxSizeMB
	}
	if opts.MaxBackups > 0 {
		w.MaxBackups = opts.MaxBackups
	}
	return w
}

// FromEnv builds Options from the GCV_LOG_* variables.
func FromEnv() Options {
	return Options{
		Level:     getenv(EnvLevel, "info"),
		Format:    getenv(EnvFormat, "console"),
		AddSource: strings.EqualFold(getenv(EnvSource, "false"), "true"),
		File:      os.Getenv(EnvFile),
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// WithComponent returns a logger with the component attribute pre-set.
func WithComponent(name string) *slog.Logger { return L().With(slog.String("component", name)) }

// WithOperation annotates the logger with an operation name.
func WithOperation(l *slog.Logger, op string) *slog.Logger { return l.With(slog.String("op", op)) }

type canvasKey struct{}

// ContextWithCanvas tags ctx with a canvas document name. Records logged with
// that context carry it as the "canvas" attribute.
func ContextWithCanvas(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, canvasKey{}, name)
}

func canvasFrom(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	v, ok := ctx.Value(canvasKey{}).(string)
	return v, ok && v != ""
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
