/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0.
 */
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// SearchQuery describes a search over indexed dialogue entries.
// Text uses SQLite FTS5 syntax (simple terms, phrases in quotes, AND/OR/NOT) and matches
// both the spoken text and the speaker keys. Speaker matches the main or companion key exactly.
// Document matches the document name exactly. RunID defaults to the latest run.
// Limit/Offset implement pagination; reasonable defaults applied if zero.
type SearchQuery struct {
	Text     string
	Speaker  string
	Document string
	RunID    string
	Limit    int
	Offset   int
}

// SearchResult represents a single matching entry.
type SearchResult struct {
	RunID    string
	Seq      int
	Document string
	Line     int
	Speakers string // "main" or "main & companion"
	Text     string
}

// Search performs full-text search with optional filters over the index.
// When q.Text is empty, it falls back to a plain scan with filters applied.
// An index without runs yields no results.
func Search(ctx context.Context, db *sql.DB, q SearchQuery) ([]SearchResult, error) {
	runID := strings.TrimSpace(q.RunID)
	if runID == "" {
		id, err := LatestRunID(ctx, db)
		if errors.Is(err, ErrNoRuns) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		runID = id
	}

	var args []any
	var sb strings.Builder
	const cols = "e.run_id, e.seq, e.document, e.line, e.main_key, e.comp_key, e.text\n"
	if text := strings.TrimSpace(q.Text); text != "" {
		sb.WriteString("SELECT " + cols)
		sb.WriteString("FROM fts_entries JOIN entries e ON fts_entries.rowid = e.entry_id\n")
		sb.WriteString("WHERE fts_entries MATCH ?\n")
		args = append(args, text)
	} else {
		sb.WriteString("SELECT " + cols)
		sb.WriteString("FROM entries e\nWHERE 1=1\n")
	}
	sb.WriteString(" AND e.run_id = ?\n")
	args = append(args, runID)
	if s := strings.TrimSpace(q.Speaker); s != "" {
		sb.WriteString(" AND (e.main_key = ? OR e.comp_key = ?)\n")
		args = append(args, s, s)
	}
	if s := strings.TrimSpace(q.Document); s != "" {
		sb.WriteString(" AND e.document = ?\n")
		args = append(args, s)
	}
	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}
	sb.WriteString("ORDER BY e.seq\n")
	sb.WriteString("LIMIT ? OFFSET ?")
	args = append(args, limit, offset)

	rows, err := db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	defer rows.Close()
	var out []SearchResult
	for rows.Next() {
		var r SearchResult
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
