/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package serializer

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	applog "gocanvas/internal/log"
	"gocanvas/internal/scene"
	"gocanvas/internal/storage"
)

// SaveFile writes cv to path. The previous file is kept as a timestamped
// backup next to it.
func (s *Serializer) SaveFile(ctx context.Context, path string, cv *scene.Canvas) error {
	ctx = applog.ContextWithCanvas(ctx, filepath.Base(path))
	var buf bytes.Buffer
	if err := s.Serialize(ctx, cv, &buf); err != nil {
		return err
	}
	if err := storage.WriteDocument(path, buf.Bytes()); err != nil {
		return s.fail(ctx, "save", err)
	}
	return nil
}

// OpenFile reads the document at path into cv. When the file is missing or
// unreadable the newest backup is tried; the original error is returned if
// that fails too.
func (s *Serializer) OpenFile(ctx context.Context, path string, cv *scene.Canvas) error {
	ctx = applog.ContextWithCanvas(ctx, filepath.Base(path))
	err := s.openFile(ctx, path, cv)
	if err == nil {
		return nil
	}
	bak, berr := storage.LatestBackup(path)
	if berr != nil {
		return err
	}
	if s.openFile(ctx, bak, cv) != nil {
		return err
	}
	s.log().WarnContext(ctx, "document restored from backup", slog.String("path", path), slog.String("backup", bak), slog.Any("err", err))
	return nil
}

func (s *Serializer) openFile(ctx context.Context, path string, cv *scene.Canvas) error {
	f, err := os.Open(path)
	if err != nil {
		return s.fail(ctx, "open", fmt.Errorf("open document: %w", err))
	}
	defer func() { _ = f.Close() }()
	return s.Deserialize(ctx, f, cv)
}
