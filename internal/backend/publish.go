/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package backend

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	applog "github.com/JesseTheCatLover/Amish/internal/log"
	"github.com/JesseTheCatLover/Amish/internal/storage"
)

// dialect=PostgreSQL
const upsertProjectSQL = `INSERT INTO projects(name) VALUES ($1)
ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
RETURNING id`

// dialect=PostgreSQL
const upsertRunSQL = `INSERT INTO runs(id, project_id, created_at, language, documents, entries, diagnostics)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (id) DO UPDATE SET
	project_id = EXCLUDED.project_id,
	created_at = EXCLUDED.created_at,
	language = EXCLUDED.language,
	documents = EXCLUDED.documents,
	entries = EXCLUDED.entries,
	diagnostics = EXCLUDED.diagnostics,
	published_at = now()`

// dialect=PostgreSQL
const insertEntrySQL = `INSERT INTO entries(run_id, seq, document, line,
	main_key, main_anon, main_face, main_left, main_right,
	comp_key, comp_anon, comp_face, comp_left, comp_right, text)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

// dialect=PostgreSQL
const insertDiagnosticSQL = `INSERT INTO diagnostics(run_id, seq, document, line, kind, reason, text)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

// PublishRun upserts the run under the named project. Publishing the same run again
// replaces its entries and diagnostics.
func PublishRun(ctx context.Context, db *sql.DB, project string, run storage.Run) error {
	project = strings.TrimSpace(project)
	if project == "" {
		return errors.New("project name is required")
	}
	if run.ID == "" {
		return errors.New("run has no id; save it to the index first")
	}
	l := applog.WithOperation(applog.WithComponent("backend"), "publish").With(
		slog.String("project", project), slog.String("run", run.ID))

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var projectID int64
	if err := tx.QueryRowContext(ctx, upsertProjectSQL, project).Scan(&projectID); err != nil {
		return fmt.Errorf("upsert project: %w", err)
	}
	docs := run.Documents
	if docs == nil {
		docs = []string{}
	}
	if _, err := tx.ExecContext(ctx, upsertRunSQL, run.ID, projectID, run.CreatedAt.UTC(), run.Language.String(), docs, len(run.Entries), len(run.Diagnostics)); err != nil {
		return fmt.Errorf("upsert run: %w", err)
	}
	for _, q := range []string{`DELETE FROM entries WHERE run_id = $1`, `DELETE FROM diagnostics WHERE run_id = $1`} {
		if _, err := tx.ExecContext(ctx, q, run.ID); err != nil {
			return fmt.Errorf("clear run rows: %w", err)
		}
	}
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
		if _, err := tx.ExecContext(ctx, insertEntrySQL, run.ID, i, e.Document, e.Line,
			string(m.Key), m.IsAnonymous, string(m.Face), string(m.LeftHand), string(m.RightHand),
			ck, ca, cf, cl, cr, e.Text); err != nil {
			return fmt.Errorf("insert entry %d: %w", i, err)
		}
	}
	for i, d := range run.Diagnostics {
		if _, err := tx.ExecContext(ctx, insertDiagnosticSQL, run.ID, i, d.Document, d.Line, d.Kind.String(), d.Reason, d.Text); err != nil {
			return fmt.Errorf("insert diagnostic %d: %w", i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	l.Info("run published", slog.Int("entries", len(run.Entries)))
	return nil
}
