/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const (
	BackupsDirName = "backups"
	// MaxBackups is the number of backups kept per document.
	MaxBackups = 10
)

// BackupDir returns the backup directory used for the document at path.
func BackupDir(path string) string { return filepath.Join(filepath.Dir(path), BackupsDirName) }

// WriteDocument replaces the file at path with data transactionally: the
// previous content is copied to a timestamped backup, the new content is
// written to a temp file in the same directory and renamed over the target.
func WriteDocument(path string, data []byte) error {
	if strings.TrimSpace(path) == "" {
		return errors.New("document path is required")
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create document dir: %w", err)
	}
	if _, statErr := os.Stat(path); statErr == nil {
		bdir := BackupDir(path)
		if err := os.MkdirAll(bdir, 0o755); err != nil {
			return fmt.Errorf("ensure backups dir: %w", err)
		}
		stamp := time.Now().Format("20060102-150405.000")
		bpath := filepath.Join(bdir, fmt.Sprintf("%s.%s.bak", filepath.Base(path), stamp))
		if err := copyFile(path, bpath); err != nil {
			return fmt.Errorf("backup current document: %w", err)
		}
		pruneBackups(path)
	}

	temp := filepath.Join(dir, fmt.Sprintf(".%s.tmp-%d-%d", filepath.Base(path), os.Getpid(), rand.Int()))
	if err := writeFileSync(temp, data); err != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("write temp document: %w", err)
	}
	// Windows cannot rename over an existing file.
	if _, err := os.Stat(path); err == nil {
		_ = os.Remove(path)
	}
	if err := os.Rename(temp, path); err != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("replace document: %w", err)
	}
	return nil
}

// Backups returns the backups of the document at path, oldest first.
func Backups(path string) ([]string, error) {
	ents, err := os.ReadDir(BackupDir(path))
	if err != nil {
		return nil, fmt.Errorf("read backups dir: %w", err)
	}
	prefix := filepath.Base(path) + "."
	var out []string
	for _, e := range ents {
		name := e.Name()
		if strings.HasPrefix(name, prefix) && strings.HasSuffix(name, ".bak") {
			out = append(out, filepath.Join(BackupDir(path), name))
		}
	}
	// The timestamp in the name sorts lexicographically.
	sort.Strings(out)
	return out, nil
}

// LatestBackup returns the newest backup of the document at path.
func LatestBackup(path string) (string, error) {
	bs, err := Backups(path)
	if err != nil {
		return "", err
	}
	if len(bs) == 0 {
		return "", errors.New("no backups found")
	}
	return bs[len(bs)-1], nil
}

func pruneBackups(path string) {
	bs, err := Backups(path)
	if err != nil || len(bs) <= MaxBackups {
		return
	}
	for _, b := range bs[:len(bs)-MaxBackups] {
		_ = os.Remove(b)
	}
}

// writeFileSync writes data to a file and flushes it to disk.
func writeFileSync(path string, data []byte) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := f.Write(data); err != nil {
		return err
	}
	return f.Sync()
}

// copyFile copies src to dst, overwriting dst.
func copyFile(src, dst string) (err error) {
	sf, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sf.Close(); err == nil {
			err = cerr
		}
	}()
	df, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := df.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := io.Copy(df, sf); err != nil {
		return err
	}
	return df.Sync()
}
