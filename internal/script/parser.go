/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package script

import (
	"bufio"
	"strings"
)

// byteOrderMark is dropped from the start of a document.
const byteOrderMark = "\ufeff"

// Parse parses documents in the given order and concatenates their entries.
// Memory starts fresh for every document. Skipped lines are reported as
// diagnostics; they never stop the parse.
//
// Example line:
//
//	amish*: sad lefthand_wave <"Hi","سلام">
func Parse(docs []Document, lang Language) ([]DialogueEntry, []Error) {
	var entries []DialogueEntry
	var errs []Error
	for _, d := range docs {
		e, de, _ := Continue(NewMemory(), d, lang)
		entries = append(entries, e...)
		errs = append(errs, de...)
	}
	return entries, errs
}

// ParseDocument parses a single document with fresh memory.
func ParseDocument(doc Document, lang Language) ([]DialogueEntry, []Error) {
	entries, errs, _ := Continue(NewMemory(), doc, lang)
	return entries, errs
}

// Continue parses doc starting from mem and returns the memory after the last
// line, so callers can deliberately carry speaker state across documents.
func Continue(mem ParseMemory, doc Document, lang Language) ([]DialogueEntry, []Error, ParseMemory) {
	entries := []DialogueEntry{}
	var errs []Error

	var norm Normalizer
	step := func(ll LogicalLine) {
		ln, lerr := MatchLine(ll.Text)
		if lerr != nil {
			lerr.Document = doc.Name
			lerr.Line = ll.Line
			errs = append(errs, *lerr)
			return
		}
		var entry DialogueEntry
		mem, entry = Resolve(mem, ln)
		entry.Text = SelectText(ln.Dialogue, lang)
		entry.Document = doc.Name
		entry.Line = ll.Line
		entries = append(entries, entry)
	}

	// Lines have no length limit.
	r := bufio.NewReader(strings.NewReader(strings.TrimPrefix(doc.Text, byteOrderMark)))
	lineNo := 0
	for {
		raw, err := r.ReadString('\n')
		if raw != "" || err == nil {
			lineNo++
			if ll, ok := norm.Feed(strings.TrimRight(raw, "\r\n"), lineNo); ok {
				step(ll)
			}
		}
		// a strings.Reader only fails with io.EOF
		if err != nil {
			break
		}
	}
	if ll, ok := norm.Flush(); ok {
		step(ll)
	}
	return entries, errs, mem
}
