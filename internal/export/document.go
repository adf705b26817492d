/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package export writes parsed dialogue as JSON, YAML or a PDF proof sheet.
package export

import (
	"github.com/JesseTheCatLover/Amish/internal/script"
	"github.com/JesseTheCatLover/Amish/internal/version"
)

const (
	// FormatName identifies export documents.
	FormatName = "amish.dialogue"
	// FormatVersion is bumped when the document layout changes incompatibly.
	FormatVersion = 1
)

// Document is the versioned export layout shared by all writers.
type Document struct {
	Format      string       `json:"format" yaml:"format"`
	Version     int          `json:"version" yaml:"version"`
	Generator   string       `json:"generator,omitempty" yaml:"generator,omitempty"`
	Language    string       `json:"language" yaml:"language"`
	Documents   []string     `json:"documents" yaml:"documents"`
	Entries     []Entry      `json:"entries" yaml:"entries"`
	Diagnostics []Diagnostic `json:"diagnostics" yaml:"diagnostics"`
}

type Character struct {
	Key         string `json:"key" yaml:"key"`
	IsAnonymous bool   `json:"isAnonymous" yaml:"isAnonymous"`
	Face        string `json:"face" yaml:"face"`
	LeftHand    string `json:"leftHand" yaml:"leftHand"`
	RightHand   string `json:"rightHand" yaml:"rightHand"`
}

type Entry struct {
	Seq       int        `json:"seq" yaml:"seq"`
	Document  string     `json:"document" yaml:"document"`
	Line      int        `json:"line" yaml:"line"`
	Main      Character  `json:"main" yaml:"main"`
	Companion *Character `json:"companion,omitempty" yaml:"companion,omitempty"`
	Text      string     `json:"text" yaml:"text"`
}

type Diagnostic struct {
	Document string `json:"document" yaml:"document"`
	Line     int    `json:"line" yaml:"line"`
	Kind     string `json:"kind" yaml:"kind"`
	Reason   string `json:"reason" yaml:"reason"`
	Text     string `json:"text" yaml:"text"`
}

// BuildDocument converts parse output into the export layout. docNames lists the
// parsed documents in order; entries keep their sequence numbers.
func BuildDocument(docNames []string, entries []script.DialogueEntry, diags []script.Error, lang script.Language) Document {
	doc := Document{
		Format:      FormatName,
		Version:     FormatVersion,
		Generator:   "amish " + version.String(),
		Language:    lang.String(),
		Documents:   append([]string{}, docNames...),
		Entries:     make([]Entry, 0, len(entries)),
		Diagnostics: make([]Diagnostic, 0, len(diags)),
	}
	for i, e := range entries {
		out := Entry{Seq: i, Document: e.Document, Line: e.Line, Main: character(e.Main), Text: e.Text}
		if e.Companion != nil {
			c := character(*e.Companion)
			out.Companion = &c
		}
		doc.Entries = append(doc.Entries, out)
	}
	for _, d := range diags {
		doc.Diagnostics = append(doc.Diagnostics, Diagnostic{
			Document: d.Document, Line: d.Line, Kind: d.Kind.String(), Reason: d.Reason, Text: d.Text,
		})
	}
	return doc
}

func character(s script.CharacterState) Character {
	return Character{
		Key:         string(s.Key),
		IsAnonymous: s.IsAnonymous,
		Face:        string(s.Face),
		LeftHand:    string(s.LeftHand),
		RightHand:   string(s.RightHand),
	}
}

// Speakers renders "main" or "main & companion" with anonymity markers as written in scripts.
func (e Entry) Speakers() string {
	s := speaker(e.Main)
	if e.Companion != nil {
		s += " & " + speaker(*e.Companion)
	}
	return s
}

func speaker(c Character) string {
	if c.IsAnonymous {
		return c.Key + "*"
	}
	return c.Key
}
