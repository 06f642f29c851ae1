/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package log

import (
	"context"
	"errors"
	"log/slog"
)

// fanOut sends each record to every handler that accepts its level.
func fanOut(handlers ...slog.Handler) slog.Handler {
	if len(handlers) == 1 {
		return handlers[0]
	}
	return &multi{hs: handlers}
}

type multi struct{ hs []slog.Handler }

func (m *multi) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m.hs {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (m *multi) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range m.hs {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *multi) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &multi{hs: each(m.hs, func(h slog.Handler) slog.Handler { return h.WithAttrs(attrs) })}
}

func (m *multi) WithGroup(name string) slog.Handler {
	return &multi{hs: each(m.hs, func(h slog.Handler) slog.Handler { return h.WithGroup(name) })}
}

func each(hs []slog.Handler, f func(slog.Handler) slog.Handler) []slog.Handler {
	out := make([]slog.Handler, len(hs))
	for i, h := range hs {
		out[i] = f(h)
	}
	return out
}

// enrich copies the canvas document name from the context onto the record.
func withEnricher(h slog.Handler) slog.Handler { return &enrich{next: h} }

type enrich struct{ next slog.Handler }

func (e *enrich) Enabled(ctx context.Context, level slog.Level) bool {
	return e.next.Enabled(ctx, level)
}

func (e *enrich) Handle(ctx context.Context, r slog.Record) error {
	if name, ok := canvasFrom(ctx); ok {
		r = r.Clone()
		r.AddAttrs(slog.String("canvas", name))
	}
	return e.next.Handle(ctx, r)
}

func (e *enrich) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &enrich{next: e.next.WithAttrs(attrs)}
}

func (e *enrich) WithGroup(name string) slog.Handler { return &enrich{next: e.next.WithGroup(name)} }
