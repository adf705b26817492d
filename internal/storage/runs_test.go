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
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/JesseTheCatLover/Amish/internal/script"
)

var sampleDocs = []script.Document{
	{Name: "intro.jdialogue", Text: `amish*: sad lefthand_wave <"Hi","سلام">
sara & amish: happy, righthand_point <"Look","ببین">
broken line
reza: <"Quiet night">`},
	{Name: "act1.jdialogue", Text: `sara: angry <"Enough">
sara & reza: a, b, c <"x">`},
}

func TestSaveRunAndLoadBack(t *testing.T) {
	db := openTestIndex(t)
	ctx := context.Background()
	run := NewRun(sampleDocs, script.Persian)
	if len(run.Entries) != 4 || len(run.Diagnostics) != 2 {
		t.Fatalf("unexpected parse result: %d entries, %d diagnostics", len(run.Entries), len(run.Diagnostics))
	}
	id, err := SaveRun(ctx, db, run)
	if err != nil {
		t.Fatalf("SaveRun: %v", err)
	}
	if len(id) != 26 {
		t.Fatalf("expected a ULID, got %q", id)
	}
	got, err := LatestRun(ctx, db)
	if err != nil {
		t.Fatalf("LatestRun: %v", err)
	}
	if got.ID != id || got.Language != script.Persian {
		t.Fatalf("unexpected run header %s %v", got.ID, got.Language)
	}
	if !reflect.DeepEqual(got.Documents, []string{"intro.jdialogue", "act1.jdialogue"}) {
		t.Fatalf("documents = %v", got.Documents)
	}
	if !reflect.DeepEqual(got.Entries, run.Entries) {
		t.Fatalf("entries differ after reload:\n got %v\nwant %v", got.Entries, run.Entries)
	}
	if !reflect.DeepEqual(got.Diagnostics, run.Diagnostics) {
		t.Fatalf("diagnostics differ after reload:\n got %v\nwant %v", got.Diagnostics, run.Diagnostics)
	}
	if !errors.Is(got.Diagnostics[1], script.ErrInvalidDualContent) {
		t.Fatalf("second diagnostic should be invalid dual content: %v", got.Diagnostics[1])
	}
}

func TestLatestRunEmptyIndex(t *testing.T) {
	db := openTestIndex(t)
	if _, err := LatestRun(context.Background(), db); !errors.Is(err, ErrNoRuns) {
		t.Fatalf("expected ErrNoRuns, got %v", err)
	}
	if _, err := LoadRun(context.Background(), db, "01NOPE"); !errors.Is(err, ErrNoRuns) {
		t.Fatalf("expected ErrNoRuns for unknown id, got %v", err)
	}
}

func TestLatestRunPicksNewest(t *testing.T) {
	db := openTestIndex(t)
	ctx := context.Background()
	old := NewRun(sampleDocs[:1], script.English)
	old.CreatedAt = time.Now().Add(-time.Hour)
	if _, err := SaveRun(ctx, db, old); err != nil {
		t.Fatalf("SaveRun old: %v", err)
	}
	newID, err := SaveRun(ctx, db, NewRun(sampleDocs[1:], script.English))
	if err != nil {
		t.Fatalf("SaveRun new: %v", err)
	}
	id, err := LatestRunID(ctx, db)
	if err != nil || id != newID {
		t.Fatalf("LatestRunID = %q (%v), want %q", id, err, newID)
	}
}

func TestPruneRunsCascades(t *testing.T) {
	db := openTestIndex(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		r := NewRun(sampleDocs, script.English)
		r.CreatedAt = time.Now().Add(time.Duration(i) * time.Minute)
		if _, err := SaveRun(ctx, db, r); err != nil {
			t.Fatalf("SaveRun: %v", err)
		}
	}
	n, err := PruneRuns(ctx, db, 1)
	if err != nil || n != 2 {
		t.Fatalf("PruneRuns = %d (%v), want 2", n, err)
	}
	var entries int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM entries`).Scan(&entries); err != nil {
		t.Fatal(err)
	}
	if entries != 4 {
		t.Fatalf("expected only the kept run's 4 entries, got %d", entries)
	}
	res, err := Search(ctx, db, SearchQuery{Text: "Enough"})
	if err != nil || len(res) != 1 {
		t.Fatalf("fts should hold only kept rows: %v (%v)", res, err)
	}
}

func TestSaveRunUnnamedLanguageIndex(t *testing.T) {
	db := openTestIndex(t)
	ctx := context.Background()
	lang, err := script.ParseLanguage("2")
	if err != nil {
		t.Fatal(err)
	}
	run := NewRun(sampleDocs, lang)
	id, err := SaveRun(ctx, db, run)
	if err != nil {
		t.Fatalf("SaveRun: %v", err)
	}
	got, err := LoadRun(ctx, db, id)
	if err != nil {
		t.Fatalf("LoadRun: %v", err)
	}
	if got.Language != lang {
		t.Fatalf("language = %v, want %v", got.Language, lang)
	}
	// index 2 has no text in the samples, so every line falls back to index 0
	if got.Entries[0].Text != "Hi" {
		t.Fatalf("fallback text = %q", got.Entries[0].Text)
	}
	if res, err := Search(ctx, db, SearchQuery{Text: "Quiet"}); err != nil || len(res) != 1 {
		t.Fatalf("search over run: %v %v", res, err)
	}
}
