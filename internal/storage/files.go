/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
)

// ErrNotFound is returned when a file id is not in the store.
var ErrNotFound = errors.New("file not found")

// FileStore keeps binary assets (images and their renditions) keyed by an
// opaque id. Source files are original uploads; the others are derived
// renditions that may be regenerated.
type FileStore interface {
	Exists(ctx context.Context, id string) (bool, error)
	Open(ctx context.Context, id string) (io.ReadCloser, error)
	Add(ctx context.Context, id string, r io.Reader, isSource bool) error
}

// FileInfo describes a stored file.
type FileInfo struct {
	ID       string
	Size     int64
	IsSource bool
}

// ContentID returns the content-addressed id of data (hex sha256).
func ContentID(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// ReadAll reads the whole file id from s.
func ReadAll(ctx context.Context, s FileStore, id string) ([]byte, error) {
	rc, err := s.Open(ctx, id)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func validID(id string) error {
	if strings.TrimSpace(id) == "" {
		return errors.New("file id is required")
	}
	if strings.ContainsAny(id, "/\\") || id == "." || id == ".." {
		return fmt.Errorf("invalid file id %q", id)
	}
	return nil
}

type memFile struct {
	data     []byte
	isSource bool
}

// MemoryStore is a FileStore held in memory. It is safe for concurrent use.
type MemoryStore struct {
	mu    sync.RWMutex
	files map[string]memFile
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{files: map[string]memFile{}} }

func (m *MemoryStore) Exists(_ context.Context, id string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.files[id]
	return ok, nil
}

func (m *MemoryStore) Open(_ context.Context, id string) (io.ReadCloser, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	f, ok := m.files[id]
	if !ok {
		return nil, fmt.Errorf("open %s: %w", id, ErrNotFound)
	}
	return io.NopCloser(bytes.NewReader(f.data)), nil
}

// Add stores the content of r under id, replacing an existing file. A
// derived rendition never downgrades a stored source file.
func (m *MemoryStore) Add(_ context.Context, id string, r io.Reader, isSource bool) error {
	if err := validID(id); err != nil {
		return err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read %s: %w", id, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if old, ok := m.files[id]; ok && old.isSource {
		isSource = true
	}
	m.files[id] = memFile{data: data, isSource: isSource}
	return nil
}

// Remove deletes id; removing a missing file is not an error.
func (m *MemoryStore) Remove(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, id)
	return nil
}

// List returns the stored files ordered by id.
func (m *MemoryStore) List(_ context.Context) ([]FileInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]FileInfo, 0, len(m.files))
	for id, f := range m.files {
		out = append(out, FileInfo{ID: id, Size: int64(len(f.data)), IsSource: f.isSource})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
