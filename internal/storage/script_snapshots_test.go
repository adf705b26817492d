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
	"strings"
	"testing"
	"time"

	"github.com/JesseTheCatLover/Amish/internal/script"
)

func TestScriptSnapshotsRoundTripAndDedup(t *testing.T) {
	db := openTestIndex(t)
	ctx := context.Background()
	doc := script.Document{Name: "intro.jdialogue", Text: strings.Repeat(`amish: <"Hi","سلام">`+"\n", 200)}
	ts := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	saved, err := SaveScriptSnapshot(ctx, db, doc, ts)
	if err != nil || !saved {
		t.Fatalf("first save: %v %v", saved, err)
	}
	saved, err = SaveScriptSnapshot(ctx, db, doc, ts.Add(time.Minute))
	if err != nil || saved {
		t.Fatalf("unchanged text must not create a snapshot: %v %v", saved, err)
	}

	var stored int
	if err := db.QueryRowContext(ctx, `SELECT length(data) FROM script_snapshots`).Scan(&stored); err != nil {
		t.Fatal(err)
	}
	if stored >= len(doc.Text) {
		t.Fatalf("snapshot not compressed: %d >= %d", stored, len(doc.Text))
	}

	got, gotTS, err := LatestScriptSnapshot(ctx, db, doc.Name)
	if err != nil || got == nil {
		t.Fatalf("LatestScriptSnapshot: %v %v", got, err)
	}
	if got.Text != doc.Text || !gotTS.Equal(ts) {
		t.Fatalf("snapshot mismatch at %v", gotTS)
	}
	if none, _, err := LatestScriptSnapshot(ctx, db, "other.jdialogue"); err != nil || none != nil {
		t.Fatalf("expected no snapshot for other document: %v %v", none, err)
	}
}

func TestScriptSnapshotsListAndPrune(t *testing.T) {
	db := openTestIndex(t)
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		doc := script.Document{Name: "a.jdialogue", Text: strings.Repeat("x", i+1)}
		if _, err := SaveScriptSnapshot(ctx, db, doc, base.Add(time.Duration(i)*time.Minute)); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := SaveScriptSnapshot(ctx, db, script.Document{Name: "b.jdialogue", Text: "b"}, base); err != nil {
		t.Fatal(err)
	}
	list, err := ListScriptSnapshots(ctx, db, "a.jdialogue", 0)
	if err != nil || len(list) != 5 || list[0].Size != 5 {
		t.Fatalf("list: %+v (%v)", list, err)
	}
	n, err := PruneScriptSnapshots(ctx, db, "a.jdialogue", 2)
	if err != nil || n != 3 {
		t.Fatalf("prune = %d (%v), want 3", n, err)
	}
	if list, _ = ListScriptSnapshots(ctx, db, "b.jdialogue", 10); len(list) != 1 {
		t.Fatalf("prune must not touch other documents: %+v", list)
	}
	latest, _, _ := LatestScriptSnapshot(ctx, db, "a.jdialogue")
	if latest == nil || latest.Text != "xxxxx" {
		t.Fatalf("latest after prune: %+v", latest)
	}
}
