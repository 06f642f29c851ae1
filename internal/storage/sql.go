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
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gocanvas/internal/config"
	applog "gocanvas/internal/log"

	_ "github.com/jackc/pgx/v5/stdlib"
	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

type dialect int

const (
	dialectSQLite dialect = iota
	dialectPostgres
)

// SQLStore is a FileStore in a SQL database: an embedded SQLite file for
// single-user setups or a shared PostgreSQL server.
type SQLStore struct {
	db      *sql.DB
	dialect dialect
	log     *slog.Logger
}

// Open returns the file store selected by cfg. password is injected into the
// PostgreSQL DSN; it is ignored by the other drivers.
func Open(ctx context.Context, cfg config.StorageConfig, password string) (FileStore, func() error, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", "memory":
		return NewMemoryStore(), func() error { return nil }, nil
	case "sqlite":
		s, err := OpenSQLite(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case "postgres":
		dsn, err := cfg.PostgresDSN(password)
		if err != nil {
			return nil, nil, err
		}
		s, err := OpenPostgres(ctx, dsn)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// OpenSQLite opens or creates the file database at path, enables WAL mode and
// brings the schema up to date.
func OpenSQLite(path string) (*SQLStore, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "sqlite_open").With(slog.String("path", path))
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		l.Error("create db dir failed", slog.Any("err", err))
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	// Convert to forward slashes for the SQLite URI.
	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=busy_timeout(5000)", filepath.ToSlash(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		l.Error("sqlite open failed", slog.Any("err", err))
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		l.Error("enable WAL failed", slog.Any("err", err))
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if err := ensureMetaAndVersion(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure meta/version failed", slog.Any("err", err))
		return nil, err
	}
	if err := ensureFilesSchema(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure files schema failed", slog.Any("err", err))
		return nil, err
	}
	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		l.Error("run migrations failed", slog.Any("err", err))
		return nil, err
	}
	l.Info("file store ready")
	return &SQLStore{db: db, dialect: dialectSQLite, log: applog.WithComponent("storage")}, nil
}

// OpenPostgres connects through the pgx driver and applies the embedded
// migrations.
func OpenPostgres(ctx context.Context, dsn string) (*SQLStore, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "postgres_open")
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	pctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pctx); err != nil {
		_ = db.Close()
		l.Error("ping failed", slog.Any("err", err))
		return nil, fmt.Errorf("ping db: %w", err)
	}
	if err := applyMigrations(pctx, db); err != nil {
		_ = db.Close()
		l.Error("migrate failed", slog.Any("err", err))
		return nil, fmt.Errorf("migrate: %w", err)
	}
	l.Info("file store ready")
	return &SQLStore{db: db, dialect: dialectPostgres, log: applog.WithComponent("storage")}, nil
}

func (s *SQLStore) Close() error { return s.db.Close() }

// DB exposes the underlying handle, e.g. for maintenance queries.
func (s *SQLStore) DB() *sql.DB { return s.db }

// rebind rewrites ? placeholders to $n for PostgreSQL.
func (s *SQLStore) rebind(q string) string {
	if s.dialect != dialectPostgres {
		return q
	}
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *SQLStore) Exists(ctx context.Context, id string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT 1 FROM files WHERE id=?`), id).Scan(&one)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("query file %s: %w", id, err)
	}
	return true, nil
}

func (s *SQLStore) Open(ctx context.Context, id string) (io.ReadCloser, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT data FROM files WHERE id=?`), id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("open %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read file %s: %w", id, err)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// Add upserts the file. Once stored as a source, a file stays a source.
func (s *SQLStore) Add(ctx context.Context, id string, r io.Reader, isSource bool) error {
	if err := validID(id); err != nil {
		return err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read %s: %w", id, err)
	}
	now := time.Now().UTC().Format(time.RFC3339)
	q := `INSERT INTO files(id, is_source, size, data, created_at) VALUES(?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET data=excluded.data, size=excluded.size,
		is_source=(files.is_source OR excluded.is_source)`
	if _, err := s.db.ExecContext(ctx, s.rebind(q), id, isSource, len(data), data, now); err != nil {
		s.log.Error("store file failed", slog.String("id", id), slog.Any("err", err))
		return fmt.Errorf("store file %s: %w", id, err)
	}
	return nil
}

func (s *SQLStore) Remove(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM files WHERE id=?`), id); err != nil {
		return fmt.Errorf("delete file %s: %w", id, err)
	}
	return nil
}

func (s *SQLStore) List(ctx context.Context) ([]FileInfo, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, size, is_source FROM files ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	defer rows.Close()
	var out []FileInfo
	for rows.Next() {
		var fi FileInfo
		if err := rows.Scan(&fi.ID, &fi.Size, &fi.IsSource); err != nil {
			return nil, err
		}
		out = append(out, fi)
	}
	return out, rows.Err()
}
