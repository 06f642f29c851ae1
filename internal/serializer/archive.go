/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package serializer

import (
	"archive/tar"
	"archive/zip"
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"gocanvas/internal/storage"
)

var zipMagic = []byte("PK\x03\x04")

// maxEntrySize bounds a single archive entry.
const maxEntrySize = 512 << 20

// readArchive returns the regular files of a tar or zip archive keyed by
// their cleaned names.
func readArchive(r io.Reader) (map[string][]byte, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(len(zipMagic))
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("probe archive: %w", err)
	}
	if bytes.Equal(head, zipMagic) {
		return readZip(br)
	}
	return readTar(br)
}

func entryName(name string) (string, bool) {
	name = strings.TrimPrefix(path.Clean("/"+strings.ReplaceAll(name, "\\", "/")), "/")
	return name, name != "" && name != "."
}

func readTar(r io.Reader) (map[string][]byte, error) {
	out := map[string][]byte{}
	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read tar: %w", err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		name, ok := entryName(hdr.Name)
		if !ok {
			continue
		}
		data, err := readEntry(tr)
		if err != nil {
			return nil, fmt.Errorf("tar entry %s: %w", name, err)
		}
		out[name] = data
	}
}

func readZip(r io.Reader) (map[string][]byte, error) {
	buf, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read zip: %w", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(buf), int64(len(buf)))
	if err != nil {
		return nil, fmt.Errorf("open zip: %w", err)
	}
	out := map[string][]byte{}
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		name, ok := entryName(f.Name)
		if !ok {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("zip entry %s: %w", name, err)
		}
		data, err := readEntry(rc)
		_ = rc.Close()
		if err != nil {
			return nil, fmt.Errorf("zip entry %s: %w", name, err)
		}
		out[name] = data
	}
	return out, nil
}

func readEntry(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxEntrySize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxEntrySize {
		return nil, errors.New("entry too large")
	}
	return data, nil
}

// pendingAssets returns the root-level files of an archive other than the
// document itself.
func pendingAssets(entries map[string][]byte) map[string][]byte {
	out := make(map[string][]byte)
	for name, data := range entries {
		if name == DocumentEntry || path.Dir(name) != "." {
			continue
		}
		out[name] = data
	}
	return out
}

func sortedKeys(m map[string][]byte) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// overlayStore shows archive assets to the converter before they are
// committed to the real store.
type overlayStore struct {
	pending map[string][]byte
	next    storage.FileStore
}

func (o *overlayStore) Exists(ctx context.Context, id string) (bool, error) {
	if _, ok := o.pending[id]; ok {
		return true, nil
	}
	return o.next.Exists(ctx, id)
}

func (o *overlayStore) Open(ctx context.Context, id string) (io.ReadCloser, error) {
	if data, ok := o.pending[id]; ok {
		return io.NopCloser(bytes.NewReader(data)), nil
	}
	return o.next.Open(ctx, id)
}

func (o *overlayStore) Add(ctx context.Context, id string, r io.Reader, isSource bool) error {
	return o.next.Add(ctx, id, r, isSource)
}
