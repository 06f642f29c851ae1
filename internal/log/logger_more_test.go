/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package log

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	lj "gopkg.in/natefinch/lumberjack.v2"
)

func TestFromEnv(t *testing.T) {
	t.Setenv(EnvLevel, "warn")
	t.Setenv(EnvFormat, "json")
	t.Setenv(EnvSource, "TRUE")
	t.Setenv(EnvFile, "")

	opts := FromEnv()
	if opts.Level != "warn" || opts.Format != "json" || !opts.AddSource || opts.File != "" {
		t.Fatalf("FromEnv mismatch: %+v", opts)
	}
	if v := getenv("GCV_SURELY_UNSET_VAR", "fallback"); v != "fallback" {
		t.Fatalf("getenv fallback failed: %q", v)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestConsoleHandler_Format(t *testing.T) {
	var buf bytes.Buffer
	h := newConsoleHandler(&buf, slog.LevelWarn, false)
	ctx := context.Background()

	if h.Enabled(ctx, slog.LevelInfo) {
		t.Fatalf("info should not be enabled at warn level")
	}
	if !h.Enabled(ctx, slog.LevelError) {
		t.Fatalf("error should be enabled at warn level")
	}

	h2 := h.WithAttrs([]slog.Attr{slog.String("k", "v")}).WithGroup("grp")
	r := slog.NewRecord(time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC), slog.LevelError, "boom", 0)
	r.AddAttrs(
		slog.Int("n", 42),
		slog.Float64("pi", 3.14),
		slog.Float64("hundred", 100),
		slog.Bool("ok", true),
		slog.String("path", "my file.tar"),
		slog.Group("size", slog.Float64("w", 20), slog.Float64("h", 10)),
	)
	if err := h2.Handle(ctx, r); err != nil {
		t.Fatalf("handle error: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"2025-01-02T03:04:05Z ERR boom",
		" k=v",
		" grp.n=42",
		" grp.pi=3.14",
		" grp.hundred=100",
		" grp.ok=true",
		` grp.path="my file.tar"`,
		" grp.size.w=20 grp.size.h=10",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q: %q", want, out)
		}
	}
	if !strings.HasSuffix(out, "\n") || strings.Count(out, "\n") != 1 {
		t.Fatalf("expected exactly one line: %q", out)
	}
}

func TestFanOutRespectsLevels(t *testing.T) {
	var all, errsOnly bytes.Buffer
	h := fanOut(
		newConsoleHandler(&all, slog.LevelDebug, false),
		newConsoleHandler(&errsOnly, slog.LevelError, false),
	)
	l := slog.New(h)
	l.Debug("detail")
	l.Error("failure")

	if !strings.Contains(all.String(), "detail") || !strings.Contains(all.String(), "failure") {
		t.Fatalf("debug handler missed records: %q", all.String())
	}
	if strings.Contains(errsOnly.String(), "detail") || !strings.Contains(errsOnly.String(), "failure") {
		t.Fatalf("error handler got wrong records: %q", errsOnly.String())
	}
}

func TestRotatingAppliesOverrides(t *testing.T) {
	w, ok := rotating("app.log", Options{MaxSizeMB: 5}).(*lj.Logger)
	if !ok {
		t.Fatalf("rotating did not return a lumberjack logger")
	}
	if w.MaxSize != 5 || w.MaxBackups != defaultMaxBackups || w.MaxAge != defaultMaxAgeDays || !w.Compress {
		t.Fatalf("unexpected rotation settings: %+v", w)
	}
}
