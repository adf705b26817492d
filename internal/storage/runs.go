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
	"time"

	applog "github.com/JesseTheCatLover/Amish/internal/log"
	"github.com/JesseTheCatLover/Amish/internal/script"

	"github.com/oklog/ulid/v2"
)

// ErrNoRuns is returned when the index holds no parse run.
var ErrNoRuns = errors.New("no parse runs indexed")

// Run is one parse of an ordered document set in one language.
type Run struct {
	ID          string
	CreatedAt   time.Time
	Language    script.Language
	Documents   []string
	Entries     []script.DialogueEntry
	Diagnostics []script.Error
}

// NewRun parses docs and wraps the result as an unsaved Run.
func NewRun(docs []script.Document, lang script.Language) Run {
	entries, diags := script.Parse(docs, lang)
	names := make([]string, len(docs))
	for i, d := range docs {
		names[i] = d.Name
	}
	return Run{Language: lang, Documents: names, Entries: entries, Diagnostics: diags}
}

// language=SQL
// dialect=SQLite
const insertRunSQL = `INSERT INTO runs(id, created_at, language, entries, diagnostics) VALUES (?, ?, ?, ?, ?)`

// language=SQL
// dialect=SQLite
const insertRunDocumentSQL = `INSERT INTO run_documents(run_id, seq, name) VALUES (?, ?, ?)`

// language=SQL
// dialect=SQLite
const insertEntrySQL = `INSERT INTO entries(run_id, seq, document, line,
	main_key, main_anon, main_face, main_left, main_right,
	comp_key, comp_anon, comp_face, comp_left, comp_right, text)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// language=SQL
// dialect=SQLite
const insertDiagnosticSQL = `INSERT INTO diagnostics(run_id, seq, document, line, kind, reason, text) VALUES (?, ?, ?, ?, ?, ?, ?)`

// language=SQL
// dialect=SQLite
const selectRunSQL = `SELECT id, created_at, language FROM runs WHERE id = ?`

// language=SQL
// dialect=SQLite
const selectLatestRunIDSQL = `SELECT id FROM runs ORDER BY created_at DESC, id DESC LIMIT 1`

// language=SQL
// dialect=SQLite
const selectRunDocumentsSQL = `SELECT name FROM run_documents WHERE run_id = ? ORDER BY seq`

// language=SQL
// dialect=SQLite
const selectEntriesSQL = `SELECT document, line,
	main_key, main_anon, main_face, main_left, main_right,
	comp_key, comp_anon, comp_face, comp_left, comp_right, text
FROM entries WHERE run_id = ? ORDER BY seq`

// language=SQL
// dialect=SQLite
const selectDiagnosticsSQL = `SELECT document, line, kind, reason, text FROM diagnostics WHERE run_id = ? ORDER BY seq`

// language=SQL
// dialect=SQLite
const pruneRunsSQL = `DELETE FROM runs WHERE id NOT IN (
	SELECT id FROM runs ORDER BY created_at DESC, id DESC LIMIT ?
)`

// SaveRun stores the run with its documents, entries and diagnostics in one transaction.
// A missing ID is assigned a ULID; a zero CreatedAt becomes now.
func SaveRun(ctx context.Context, db *sql.DB, run Run) (string, error) {
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}
	if run.ID == "" {
		run.ID = ulid.MustNew(ulid.Timestamp(run.CreatedAt), ulid.DefaultEntropy()).String()
	}
	l := applog.WithOperation(applog.WithComponent("storage"), "save_run").With(slog.String("run", run.ID))

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, insertRunSQL, run.ID, run.CreatedAt.UTC().Format(timeLayout), run.Language.String(), len(run.Entries), len(run.Diagnostics)); err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	for i, name := range run.Documents {
		if _, err := tx.ExecContext(ctx, insertRunDocumentSQL, run.ID, i, name); err != nil {
			return "", fmt.Errorf("insert run document: %w", err)
		}
	}
	ins, err := tx.PrepareContext(ctx, insertEntrySQL)
	if err != nil {
		return "", fmt.Errorf("prepare entry insert: %w", err)
	}
	defer ins.Close()
	for i, e := range run.Entries {
		var ck, cf, cl, cr sql.NullString
		var ca sql.NullBool
		if c := e.Companion; c != nil {
			ck = sql.NullString{String: string(c.Key), Valid: true}
			ca = sql.NullBool{Bool: c.IsAnonymous, Valid: true}
			cf = sql.NullString{String: string(c.Face), Valid: true}
			cl = sql.NullString{String: string(c.LeftHand), Valid: true}
			cr = sql.NullString{String: string(c.RightHand), Valid: true}
		}
		m := e.Main
		if _, err := ins.ExecContext(ctx, run.ID, i, e.Document, e.Line,
			string(m.Key), m.IsAnonymous, string(m.Face), string(m.LeftHand), string(m.RightHand),
			ck, ca, cf, cl, cr, e.Text); err != nil {
			return "", fmt.Errorf("insert entry %d: %w", i, err)
		}
	}
	for i, d := range run.Diagnostics {
		if _, err := tx.ExecContext(ctx, insertDiagnosticSQL, run.ID, i, d.Document, d.Line, d.Kind.String(), d.Reason, d.Text); err != nil {
			return "", fmt.Errorf("insert diagnostic %d: %w", i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	l.Info("run indexed", slog.Int("entries", len(run.Entries)), slog.Int("diagnostics", len(run.Diagnostics)))
	return run.ID, nil
}

// LatestRunID returns the id of the most recent run or ErrNoRuns.
func LatestRunID(ctx context.Context, db *sql.DB) (string, error) {
	var id string
	err := db.QueryRowContext(ctx, selectLatestRunIDSQL).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNoRuns
	}
	if err != nil {
		return "", fmt.Errorf("latest run: %w", err)
	}
	return id, nil
}

// LatestRun loads the most recent run in full, or returns ErrNoRuns.
func LatestRun(ctx context.Context, db *sql.DB) (Run, error) {
	id, err := LatestRunID(ctx, db)
	if err != nil {
		return Run{}, err
	}
	return LoadRun(ctx, db, id)
}

// LoadRun loads a run with its documents, entries and diagnostics.
func LoadRun(ctx context.Context, db *sql.DB, id string) (Run, error) {
	var run Run
	var created, lang string
	err := db.QueryRowContext(ctx, selectRunSQL, id).Scan(&run.ID, &created, &lang)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("run %s: %w", id, ErrNoRuns)
	}
	if err != nil {
		return Run{}, fmt.Errorf("load run %s: %w", id, err)
	}
	if run.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
		return Run{}, fmt.Errorf("run %s created_at: %w", id, err)
	}
	if run.Language, err = script.ParseLanguage(lang); err != nil {
		return Run{}, fmt.Errorf("run %s language: %w", id, err)
	}
	if run.Documents, err = loadRunDocuments(ctx, db, id); err != nil {
		return Run{}, err
	}
	if run.Entries, err = LoadRunEntries(ctx, db, id); err != nil {
		return Run{}, err
	}
	if run.Diagnostics, err = loadRunDiagnostics(ctx, db, id); err != nil {
		return Run{}, err
	}
	return run, nil
}

func loadRunDocuments(ctx context.Context, db *sql.DB, id string) ([]string, error) {
	rows, err := db.QueryContext(ctx, selectRunDocumentsSQL, id)
	if err != nil {
		return nil, fmt.Errorf("run documents: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

// LoadRunEntries returns the entries of a run in sequence order.
func LoadRunEntries(ctx context.Context, db *sql.DB, id string) ([]script.DialogueEntry, error) {
	rows, err := db.QueryContext(ctx, selectEntriesSQL, id)
	if err != nil {
		return nil, fmt.Errorf("run entries: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []script.DialogueEntry
	for rows.Next() {
		var (
			e              script.DialogueEntry
			mk, mf, ml, mr string
			ck, cf, cl, cr sql.NullString
			ca             sql.NullBool
		)
		if err := rows.Scan(&e.Document, &e.Line, &mk, &e.Main.IsAnonymous, &mf, &ml, &mr, &ck, &ca, &cf, &cl, &cr, &e.Text); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		e.Main.Key = script.SpeakerKey(mk)
		e.Main.Face = script.Expression(mf)
		e.Main.LeftHand = script.Gesture(ml)
		e.Main.RightHand = script.Gesture(mr)
		if ck.Valid {
			e.Companion = &script.CharacterState{
				Key:         script.SpeakerKey(ck.String),
				IsAnonymous: ca.Bool,
				Face:        script.Expression(cf.String),
				LeftHand:    script.Gesture(cl.String),
				RightHand:   script.Gesture(cr.String),
			}
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func loadRunDiagnostics(ctx context.Context, db *sql.DB, id string) ([]script.Error, error) {
	rows, err := db.QueryContext(ctx, selectDiagnosticsSQL, id)
	if err != nil {
		return nil, fmt.Errorf("run diagnostics: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []script.Error
	for rows.Next() {
		var d script.Error
		var kind string
		if err := rows.Scan(&d.Document, &d.Line, &kind, &d.Reason, &d.Text); err != nil {
			return nil, fmt.Errorf("scan diagnostic: %w", err)
		}
		if d.Kind, err = script.ParseErrorKind(kind); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// PruneRuns keeps at most keepLast runs and deletes older ones with their rows.
func PruneRuns(ctx context.Context, db *sql.DB, keepLast int) (int64, error) {
	if keepLast <= 0 {
		return 0, nil
	}
	res, err := db.ExecContext(ctx, pruneRunsSQL, keepLast)
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	return res.RowsAffected()
}
