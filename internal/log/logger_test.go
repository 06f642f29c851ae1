/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package log

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// lastJSONLine decodes the last non-empty line of a JSON log.
func lastJSONLine(t *testing.T, data []byte) map[string]any {
	t.Helper()
	var last string
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		if s := strings.TrimSpace(sc.Text()); s != "" {
			last = s
		}
	}
	if last == "" {
		t.Fatalf("no log lines in %q", data)
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(last), &m); err != nil {
		t.Fatalf("decode %q: %v", last, err)
	}
	return m
}

func TestInitWritesRotatedJSONFile(t *testing.T) {
	fpath := filepath.Join(os.TempDir(), fmt.Sprintf("gcv_log_%d.json", time.Now().UnixNano()))
	t.Cleanup(func() {
		Init(Options{Level: "info", Format: "console"})
		_ = os.Remove(fpath)
	})
	var console bytes.Buffer
	Init(Options{Level: "debug", Format: "console", File: fpath, Output: &console})

	WithOperation(WithComponent("convert"), "read").Debug("element dropped", slog.String("element", "foreignObject"))

	data, err := os.ReadFile(fpath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	m := lastJSONLine(t, data)
	want := map[string]any{
		"app":       "gocanvas",
		"component": "convert",
		"op":        "read",
		"msg":       "element dropped",
		"element":   "foreignObject",
		"level":     "DEBUG",
	}
	for k, v := range want {
		if m[k] != v {
			t.Errorf("%s = %v, want %v", k, m[k], v)
		}
	}
	if _, ok := m["ver"].(string); !ok {
		t.Errorf("missing ver attr: %v", m)
	}
	if !strings.Contains(console.String(), "DBG element dropped") {
		t.Errorf("console output missing record: %q", console.String())
	}
}

// TestContextCanvasAttr verifies the enricher copies the canvas name from the
// context onto each record.
func TestContextCanvasAttr(t *testing.T) {
	var buf bytes.Buffer
	Init(Options{Level: "info", Format: "json", Output: &buf})
	t.Cleanup(func() { Init(Options{Level: "info", Format: "console"}) })

	ctx := ContextWithCanvas(context.Background(), "poster.tar")
	WithComponent("serializer").InfoContext(ctx, "saved")
	WithComponent("serializer").Info("no context")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), buf.String())
	}
	var first, second map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if err := json.Unmarshal([]byte(lines[1]), &second); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if first["canvas"] != "poster.tar" {
		t.Fatalf("canvas attr missing: %v", first)
	}
	if _, ok := second["canvas"]; ok {
		t.Fatalf("canvas attr should be absent without context: %v", second)
	}
}
