/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteDocumentCreatesBackups(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc", "canvas.gcv")
	if err := WriteDocument(path, []byte("v1")); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if _, err := LatestBackup(path); err == nil {
		t.Fatalf("no backup expected after first write")
	}
	if err := WriteDocument(path, []byte("v2")); err != nil {
		t.Fatalf("second write: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil || string(b) != "v2" {
		t.Fatalf("read document: %q %v", b, err)
	}
	latest, err := LatestBackup(path)
	if err != nil {
		t.Fatalf("latest backup: %v", err)
	}
	b, _ = os.ReadFile(latest)
	if string(b) != "v1" {
		t.Fatalf("backup holds %q", b)
	}
	// No temp files left behind.
	ents, _ := os.ReadDir(filepath.Dir(path))
	for _, e := range ents {
		if strings.Contains(e.Name(), ".tmp-") {
			t.Fatalf("temp file left: %s", e.Name())
		}
	}
}

func TestBackupsArePruned(t *testing.T) {
	path := filepath.Join(t.TempDir(), "canvas.gcv")
	bdir := BackupDir(path)
	if err := os.MkdirAll(bdir, 0o755); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < MaxBackups+3; i++ {
		name := filepath.Join(bdir, "canvas.gcv.20200101-0000"+string(rune('a'+i))+".bak")
		if err := os.WriteFile(name, []byte("old"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(path, []byte("cur"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := WriteDocument(path, []byte("new")); err != nil {
		t.Fatal(err)
	}
	bs, err := Backups(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(bs) != MaxBackups {
		t.Fatalf("expected %d backups, got %d", MaxBackups, len(bs))
	}
}
