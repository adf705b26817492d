/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package runner steps through parsed dialogue entries one at a time and
// hands each entry to a Presenter.
package runner

import (
	"errors"
	"log/slog"
	"sync"

	applog "github.com/JesseTheCatLover/Amish/internal/log"
	"github.com/JesseTheCatLover/Amish/internal/script"
)

var (
	ErrNotStarted = errors.New("runner: not started")
	ErrFinished   = errors.New("runner: dialogue already ended")
)

// Presenter displays entries. End is called exactly once per run, after the
// last entry or immediately when there is nothing to show.
type Presenter interface {
	Show(script.DialogueEntry) error
	End() error
}

// Runner holds an ordered entry sequence and a cursor into it.
// It is safe for concurrent use.
type Runner struct {
	mu      sync.Mutex
	entries []script.DialogueEntry
	p       Presenter
	pos     int
	started bool
	ended   bool
}

// New parses docs in order and logs every skipped line.
func New(docs []script.Document, lang script.Language, p Presenter) *Runner {
	entries, diags := script.Parse(docs, lang)
	l := applog.WithOperation(applog.WithComponent("runner"), "parse")
	for _, d := range diags {
		applog.Diagnostic(l, d.Document, d.Line, d.Kind.String(), d.Reason, d.Text)
	}
	l.Debug("parsed dialogue", slog.Int("docs", len(docs)), slog.Int("entries", len(entries)), slog.Int("skipped", len(diags)))
	return FromEntries(entries, p)
}

// FromEntries wraps an already parsed sequence. The slice is copied.
func FromEntries(entries []script.DialogueEntry, p Presenter) *Runner {
	return &Runner{entries: append([]script.DialogueEntry(nil), entries...), p: p}
}

// Start rewinds to the first entry and shows it. An empty sequence ends at once.
func (r *Runner) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pos = 0
	r.started = true
	r.ended = false
	return r.showLocked()
}

// Next advances the cursor and shows the entry there, or ends the dialogue
// when the cursor moves past the last entry.
func (r *Runner) Next() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.started {
		return ErrNotStarted
	}
	if r.ended {
		return ErrFinished
	}
	r.pos++
	return r.showLocked()
}

// Back steps to the previous entry and shows it again. It reports false at
// the first entry or once the dialogue has ended.
func (r *Runner) Back() (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.started || r.ended || r.pos == 0 {
		return false, nil
	}
	r.pos--
	return true, r.showLocked()
}

func (r *Runner) showLocked() error {
	if r.pos < len(r.entries) {
		if r.p == nil {
			return nil
		}
		return r.p.Show(r.entries[r.pos])
	}
	r.ended = true
	if r.p == nil {
		return nil
	}
	return r.p.End()
}

// Current returns the entry under the cursor.
func (r *Runner) Current() (script.DialogueEntry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.started || r.ended || r.pos >= len(r.entries) {
		return script.DialogueEntry{}, false
	}
	return r.entries[r.pos], true
}

func (r *Runner) Done() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ended
}

// Position is the zero-based cursor index.
func (r *Runner) Position() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pos
}

func (r *Runner) Len() int { return len(r.entries) }

// Entries returns a copy of the sequence.
func (r *Runner) Entries() []script.DialogueEntry {
	return append([]script.DialogueEntry(nil), r.entries...)
}
