/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/JesseTheCatLover/Amish/internal/script"

	"github.com/klauspost/compress/zstd"
)

// language=SQL
// dialect=SQLite
const insertScriptSnapshotSQL = `INSERT INTO script_snapshots(document, ts, size, data) VALUES (?, ?, ?, ?)`

// language=SQL
// dialect=SQLite
const selectLatestScriptSnapshotSQL = `SELECT ts, data FROM script_snapshots WHERE document = ? ORDER BY ts DESC, id DESC LIMIT 1`

// language=SQL
// dialect=SQLite
const listScriptSnapshotsSQL = `SELECT ts, size FROM script_snapshots WHERE document = ? ORDER BY ts DESC, id DESC LIMIT ?`

// language=SQL
// dialect=SQLite
const pruneOldScriptSnapshotsSQL = `DELETE FROM script_snapshots WHERE document = ? AND id NOT IN (
	SELECT id FROM script_snapshots WHERE document = ? ORDER BY ts DESC, id DESC LIMIT ?
)`

// ScriptSnapshot describes one stored version of a document.
type ScriptSnapshot struct {
	Document string
	TS       time.Time
	Size     int // uncompressed bytes
}

// EncodeAll/DecodeAll are safe for concurrent use on a shared coder.
var (
	coderOnce sync.Once
	zenc      *zstd.Encoder
	zdec      *zstd.Decoder
	coderErr  error
)

func coders() (*zstd.Encoder, *zstd.Decoder, error) {
	coderOnce.Do(func() {
		zenc, coderErr = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if coderErr != nil {
			return
		}
		zdec, coderErr = zstd.NewReader(nil)
	})
	return zenc, zdec, coderErr
}

// SaveScriptSnapshot stores the document text compressed with zstd, unless it equals the
// latest snapshot of the same document. It reports whether a row was written.
// The index is derived; this history is meant for authoring change tracking, not canonical storage.
func SaveScriptSnapshot(ctx context.Context, db *sql.DB, doc script.Document, ts time.Time) (bool, error) {
	prev, _, err := LatestScriptSnapshot(ctx, db, doc.Name)
	if err != nil {
		return false, err
	}
	if prev != nil && prev.Text == doc.Text {
		return false, nil
	}
	enc, _, err := coders()
	if err != nil {
		return false, fmt.Errorf("zstd: %w", err)
	}
	blob := enc.EncodeAll([]byte(doc.Text), nil)
	if _, err := db.ExecContext(ctx, insertScriptSnapshotSQL, doc.Name, ts.UTC().Format(timeLayout), len(doc.Text), blob); err != nil {
		return false, fmt.Errorf("insert snapshot: %w", err)
	}
	return true, nil
}

// LatestScriptSnapshot returns the latest stored version of the named document, or nil if none.
func LatestScriptSnapshot(ctx context.Context, db *sql.DB, name string) (*script.Document, time.Time, error) {
	var tsStr string
	var blob []byte
	err := db.QueryRowContext(ctx, selectLatestScriptSnapshotSQL, name).Scan(&tsStr, &blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, time.Time{}, nil
	}
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("latest snapshot: %w", err)
	}
	_, dec, err := coders()
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("zstd: %w", err)
	}
	raw, err := dec.DecodeAll(blob, nil)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("decompress snapshot of %s: %w", name, err)
	}
	ts, _ := time.Parse(timeLayout, tsStr)
	return &script.Document{Name: name, Text: string(raw)}, ts, nil
}

// ListScriptSnapshots returns up to limit most recent snapshots of the named document.
func ListScriptSnapshots(ctx context.Context, db *sql.DB, name string, limit int) ([]ScriptSnapshot, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.QueryContext(ctx, listScriptSnapshotsSQL, name, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []ScriptSnapshot
	for rows.Next() {
		var tsStr string
		s := ScriptSnapshot{Document: name}
		if err := rows.Scan(&tsStr, &s.Size); err != nil {
			return nil, err
		}
		s.TS, _ = time.Parse(timeLayout, tsStr)
		out = append(out, s)
	}
	return out, rows.Err()
}

// PruneScriptSnapshots keeps at most keepLast snapshots of the named document and deletes older ones.
func PruneScriptSnapshots(ctx context.Context, db *sql.DB, name string, keepLast int) (int64, error) {
	if keepLast <= 0 {
		return 0, nil
	}
	res, err := db.ExecContext(ctx, pruneOldScriptSnapshotsSQL, name, name, keepLast)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
