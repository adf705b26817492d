/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	applog "github.com/JesseTheCatLover/Amish/internal/log"
	"github.com/JesseTheCatLover/Amish/internal/version"

	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

const (
	// DefaultIndexFile is used when no index path is configured.
	DefaultIndexFile = "amish-index.db"

	// schemaVersion tracks the local SQLite schema for the embedded index.
	// Bump this when you perform breaking schema changes and add migrations.
	schemaVersion = 2

	// timeLayout is fixed-width so stored timestamps sort lexically.
	timeLayout = "2006-01-02T15:04:05.000000000Z"
)

// InitOrOpenIndex ensures that the SQLite index exists at path, opens the database,
// enables WAL mode, and ensures the meta/version tables and the index schema exist.
// The returned *sql.DB is ready for use. Callers close it when no longer needed.
func InitOrOpenIndex(path string) (*sql.DB, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "index_init").With(
		slog.String("path", path),
	)
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("index path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			l.Error("create index dir failed", slog.Any("err", err))
			return nil, fmt.Errorf("create index dir: %w", err)
		}
	}

	// Use a URI with shared cache and set busy timeout. Convert to forward slashes for SQLite URI.
	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", filepath.ToSlash(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		l.Error("sqlite open failed", slog.Any("err", err))
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// Set reasonable connection pool limits for embedded usage.
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
	if err := ensureIndexSchema(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure index schema failed", slog.Any("err", err))
		return nil, err
	}
	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		l.Error("run migrations failed", slog.Any("err", err))
		return nil, err
	}

	l.Debug("index ready")
	return db, nil
}

// OpenOrRecoverIndex opens the index like InitOrOpenIndex. When the file cannot be opened
// or fails an integrity check, it is backed up next to itself, removed and recreated empty.
// It reports whether a recovery happened; the caller repopulates the index from the scripts.
func OpenOrRecoverIndex(ctx context.Context, path string) (*sql.DB, bool, error) {
	db, err := InitOrOpenIndex(path)
	if err == nil {
		if healthy(ctx, db) {
			return db, false, nil
		}
		_ = db.Close()
	}
	applog.WithComponent("storage").Warn("index unusable, recreating", slog.String("path", path), slog.Any("err", err))
	backupIndexFile(path)
	for _, p := range []string{path, path + "-wal", path + "-shm"} {
		if rmErr := os.Remove(p); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			return nil, false, fmt.Errorf("remove broken index: %w", rmErr)
		}
	}
	db, err = InitOrOpenIndex(path)
	if err != nil {
		return nil, false, fmt.Errorf("recreate index: %w", err)
	}
	return db, true, nil
}

func healthy(ctx context.Context, db *sql.DB) bool {
	var chk string
	if err := db.QueryRowContext(ctx, `PRAGMA quick_check;`).Scan(&chk); err != nil || !strings.EqualFold(strings.TrimSpace(chk), "ok") {
		return false
	}
	_, err := db.ExecContext(ctx, `SELECT 1 FROM entries LIMIT 1;`)
	return err == nil
}

// backupIndexFile copies the current index file into a timestamped backup in <dir>/backups.
func backupIndexFile(indexPath string) {
	data, err := os.ReadFile(indexPath)
	if err != nil {
		return
	}
	bdir := filepath.Join(filepath.Dir(indexPath), "backups")
	_ = os.MkdirAll(bdir, 0o755)
	stamp := time.Now().Format("20060102-150405")
	_ = os.WriteFile(filepath.Join(bdir, fmt.Sprintf("%s.%s.bak", filepath.Base(indexPath), stamp)), data, 0o644)
}

func ensureMetaAndVersion(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS version (
			id          INTEGER PRIMARY KEY CHECK(id=1),
			schema      INTEGER NOT NULL,
			app         TEXT,
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	now := time.Now().UTC().Format(time.RFC3339)
	appv := version.String()
	var curSchema int
	err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&curSchema)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		// fresh databases start at schema 1 and migrate forward
		if _, err := db.ExecContext(ctx, `INSERT INTO version (id, schema, app, created_at, updated_at) VALUES(1, 1, ?, ?, ?)`, appv, now, now); err != nil {
			return fmt.Errorf("insert version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read version: %w", err)
	default:
		if _, err := db.ExecContext(ctx, `UPDATE version SET app=?, updated_at=? WHERE id=1`, appv, now); err != nil {
			return fmt.Errorf("update version: %w", err)
		}
	}
	return nil
}

// SchemaVersion returns the schema version recorded in the index.
func SchemaVersion(ctx context.Context, db *sql.DB) (int, error) {
	var v int
	if err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&v); err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return v, nil
}

// runMigrations applies incremental schema migrations up to schemaVersion.
func runMigrations(ctx context.Context, db *sql.DB) error {
	cur, err := SchemaVersion(ctx, db)
	if err != nil {
		return err
	}
	for cur < schemaVersion {
		next := cur + 1
		var stmts []string
		switch next {
		case 2:
			// lookup indexes for search filters and run loading
			stmts = []string{
				`CREATE INDEX IF NOT EXISTS idx_entries_run_seq ON entries(run_id, seq);`,
				`CREATE INDEX IF NOT EXISTS idx_entries_main_key ON entries(main_key);`,
				`CREATE INDEX IF NOT EXISTS idx_entries_comp_key ON entries(comp_key);`,
				`CREATE INDEX IF NOT EXISTS idx_diagnostics_run ON diagnostics(run_id, seq);`,
			}
		}
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", next, err)
		}
		for _, q := range stmts {
			if _, err := tx.ExecContext(ctx, q); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("migration %d stmt failed: %w", next, err)
			}
		}
		if _, err := tx.ExecContext(ctx, `UPDATE version SET schema=?, updated_at=? WHERE id=1`, next, time.Now().UTC().Format(time.RFC3339)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d update version: %w", next, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migration %d commit: %w", next, err)
		}
		if next == 2 {
			// best-effort; the index works without it
			_, _ = db.ExecContext(ctx, `INSERT INTO fts_entries(fts_entries) VALUES('optimize')`)
		}
		cur = next
	}
	return nil
}

// ensureIndexSchema creates the index tables and FTS structures if they do not exist.
func ensureIndexSchema(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id          TEXT    PRIMARY KEY,
			created_at  TEXT    NOT NULL,
			language    TEXT    NOT NULL,
			entries     INTEGER NOT NULL,
			diagnostics INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS run_documents (
			run_id TEXT    NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			seq    INTEGER NOT NULL,
			name   TEXT    NOT NULL,
			PRIMARY KEY(run_id, seq)
		);`,
		// One row per resolved dialogue entry; comp_* columns are NULL for single-speaker lines.
		`CREATE TABLE IF NOT EXISTS entries (
			entry_id   INTEGER PRIMARY KEY,
			run_id     TEXT    NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			seq        INTEGER NOT NULL,
			document   TEXT    NOT NULL,
			line       INTEGER NOT NULL,
			main_key   TEXT    NOT NULL,
			main_anon  INTEGER NOT NULL,
			main_face  TEXT    NOT NULL,
			main_left  TEXT    NOT NULL,
			main_right TEXT    NOT NULL,
			comp_key   TEXT,
			comp_anon  INTEGER,
			comp_face  TEXT,
			comp_left  TEXT,
			comp_right TEXT,
			text       TEXT    NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS diagnostics (
			id       INTEGER PRIMARY KEY,
			run_id   TEXT    NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			seq      INTEGER NOT NULL,
			document TEXT    NOT NULL,
			line     INTEGER NOT NULL,
			kind     TEXT    NOT NULL,
			reason   TEXT    NOT NULL,
			text     TEXT    NOT NULL
		);`,

		// Contentless FTS5 index fed from entries via triggers.
		`CREATE VIRTUAL TABLE IF NOT EXISTS fts_entries USING fts5(
			speakers,
			text,
			content='',
			tokenize = 'unicode61'
		);`,

		// Script snapshots (zstd-compressed history of script text per document)
		`CREATE TABLE IF NOT EXISTS script_snapshots (
			id       INTEGER PRIMARY KEY,
			document TEXT    NOT NULL,
			ts       TEXT    NOT NULL,
			size     INTEGER NOT NULL,
			data     BLOB    NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_script_snapshots_doc_ts ON script_snapshots(document, ts);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("ensure index schema: %w", err)
		}
	}
	triggers := []string{
		`CREATE TRIGGER IF NOT EXISTS entries_ai AFTER INSERT ON entries BEGIN
			INSERT INTO fts_entries(rowid, speakers, text)
			VALUES (new.entry_id, new.main_key || ' ' || COALESCE(new.comp_key, ''), new.text);
		END;`,
		`CREATE TRIGGER IF NOT EXISTS entries_ad AFTER DELETE ON entries BEGIN
			INSERT INTO fts_entries(fts_entries, rowid, speakers, text)
			VALUES ('delete', old.entry_id, old.main_key || ' ' || COALESCE(old.comp_key, ''), old.text);
		END;`,
	}
	for _, q := range triggers {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("ensure fts triggers: %w", err)
		}
	}
	return nil
}
