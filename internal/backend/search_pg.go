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
	"strings"

	"github.com/JesseTheCatLover/Amish/internal/storage"
)

// ErrUnknownProject is returned when searching a project that was never published.
var ErrUnknownProject = errors.New("unknown project")

// SearchPG executes a search over the published entries of a project using tsvector and filters
// and returns results mapped to storage.SearchResult to ease parity checks.
// RunID defaults to the project's most recent run.
func SearchPG(ctx context.Context, db *sql.DB, project string, q storage.SearchQuery) ([]storage.SearchResult, error) {
	runID := strings.TrimSpace(q.RunID)
	if runID == "" {
		err := db.QueryRowContext(ctx, `SELECT r.id FROM runs r JOIN projects p ON p.id = r.project_id
			WHERE p.name = $1 ORDER BY r.created_at DESC, r.id DESC LIMIT 1`, project).Scan(&runID)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownProject, project)
		}
		if err != nil {
			return nil, fmt.Errorf("latest run: %w", err)
		}
	}

	var (
		args []any
		b    strings.Builder
	)
	// Helper to add parameter and return placeholder like $n
	place := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	b.WriteString("SELECT e.run_id, e.seq, e.document, e.line, e.main_key, e.comp_key, e.text ")
	b.WriteString("FROM entries e JOIN runs r ON r.id = e.run_id JOIN projects p ON p.id = r.project_id ")
	b.WriteString("WHERE p.name = " + place(project) + " AND e.run_id = " + place(runID) + " ")
	if text := strings.TrimSpace(q.Text); text != "" {
		b.WriteString(" AND e.search_vector @@ plainto_tsquery('simple', " + place(text) + ") ")
	}
	if s := strings.TrimSpace(q.Speaker); s != "" {
		p := place(s)
		b.WriteString(" AND (e.main_key = " + p + " OR e.comp_key = " + p + ") ")
	}
	if s := strings.TrimSpace(q.Document); s != "" {
		b.WriteString(" AND e.document = " + place(s) + " ")
	}
	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}
	b.WriteString(" ORDER BY e.seq ")
	b.WriteString(" LIMIT " + place(limit) + " OFFSET " + place(offset))

	rows, err := db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("search pg query: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []storage.SearchResult
	for rows.Next() {
		var r storage.SearchResult
		var comp sql.NullString
		if err := rows.Scan(&r.RunID, &r.Seq, &r.Document, &r.Line, &r.Speakers, &comp, &r.Text); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		if comp.Valid {
			r.Speakers += " & " + comp.String
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
