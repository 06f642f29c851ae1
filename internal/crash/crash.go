/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package crash turns a panic into a crash report and an autosave of the open
// canvas.
package crash

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"time"

	applog "gocanvas/internal/log"
	"gocanvas/internal/scene"
	"gocanvas/internal/serializer"
	"gocanvas/internal/storage"
	"gocanvas/internal/version"
)

// exitFn is used to allow testing of Recover without terminating the test process.
var exitFn = os.Exit

// Document is the open document a crash should rescue. Path is where it is
// normally saved; reports and autosaves go to its backups directory.
type Document struct {
	Path       string
	Canvas     *scene.Canvas
	Serializer *serializer.Serializer
}

// Recover captures a panic, logs it with the stack, writes a report file and
// autosaves the canvas of doc (if provided).
//
// Usage: defer crash.Recover(doc)
func Recover(doc *Document) {
	if r := recover(); r != nil {
		l := applog.WithComponent("crash")
		stack := debug.Stack()
		l.Error("panic recovered", slog.Any("panic", r), slog.String("stack", string(stack)))

		reportPath, _ := writeReport(doc, r, stack)
		if doc != nil && doc.Canvas != nil {
			if path, err := Autosave(doc); err != nil {
				l.Error("crash autosave failed", slog.Any("err", err))
			} else {
				l.Info("crash autosave written", slog.String("path", path))
			}
		}

		if _, err := fmt.Fprintf(os.Stderr, "A fatal error occurred. A crash report was saved to: %s\n", reportPath); err != nil {
			l.Error("failed to write crash message to stderr", slog.Any("err", err))
		}
		if _, err := fmt.Fprintf(os.Stderr, "Version: %s\nOS/Arch: %s/%s\n", version.String(), runtime.GOOS, runtime.GOARCH); err != nil {
			l.Error("failed to write version info to stderr", slog.Any("err", err))
		}
		exitFn(2)
	}
}

func reportDir(doc *Document) string {
	if doc != nil && doc.Path != "" {
		dir := storage.BackupDir(doc.Path)
		if err := os.MkdirAll(dir, 0o755); err == nil {
			return dir
		}
	}
	return os.TempDir()
}

// Autosave serializes the canvas of doc next to its backups without touching
// the document file itself, and returns the archive path.
func Autosave(doc *Document) (string, error) {
	name := "canvas"
	if doc.Path != "" {
		name = filepath.Base(doc.Path)
	}
	path := filepath.Join(reportDir(doc), fmt.Sprintf("%s.crash-%s.autosave", name, time.Now().Format("20060102-150405")))
	s := doc.Serializer
	if s == nil {
		s = serializer.New(nil, nil)
	}
	var buf bytes.Buffer
	// The canvas may be in any state after a panic.
	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("serialize after panic: %v", r)
			}
		}()
		return s.Serialize(context.Background(), doc.Canvas, &buf)
	}()
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("write autosave: %w", err)
	}
	return path, nil
}

func writeReport(doc *Document, panicVal any, stack []byte) (string, error) {
	stamp := time.Now().Format("20060102-150405")
	path := filepath.Join(reportDir(doc), fmt.Sprintf("crash-%s.log", stamp))

	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return path, err
	}
	defer func() {
		if err := f.Close(); err != nil {
			applog.WithComponent("crash").Error("failed to close crash report file", slog.Any("err", err), slog.String("path", path))
		}
	}()

	var buf bytes.Buffer
	_, _ = fmt.Fprintf(&buf, "gocanvas Crash Report\n")
	_, _ = fmt.Fprintf(&buf, "Timestamp: %s\n", time.Now().Format(time.RFC3339))
	_, _ = fmt.Fprintf(&buf, "Version: %s\n", version.String())
	_, _ = fmt.Fprintf(&buf, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	if doc != nil {
		_, _ = fmt.Fprintf(&buf, "Document: %s\n", doc.Path)
		if doc.Canvas != nil {
			_, _ = fmt.Fprintf(&buf, "Layers: %d\nObjects: %d\n", doc.Canvas.Layers.Len(), doc.Canvas.ObjectCount())
		}
	}
	_, _ = fmt.Fprintf(&buf, "\nPanic: %v\n\n", panicVal)
	_, _ = fmt.Fprintf(&buf, "Stack:\n%s\n", string(stack))

	if _, err := f.Write(buf.Bytes()); err != nil {
		return path, err
	}
	_ = f.Sync()
	return path, nil
}
