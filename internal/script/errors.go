/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package script

import (
	"errors"
	"fmt"
)

// Sentinel causes for skipped lines; match with errors.Is.
var (
	ErrGrammarMismatch    = errors.New("grammar mismatch")
	ErrInvalidDualContent = errors.New("invalid dual content")
)

// ErrorKind classifies a skipped line.
type ErrorKind int

const (
	GrammarMismatch ErrorKind = iota
	InvalidDualContent
)

func (k ErrorKind) String() string {
	switch k {
	case GrammarMismatch:
		return "grammar_mismatch"
	case InvalidDualContent:
		return "invalid_dual_content"
	default:
		return "unknown"
	}
}

// ParseErrorKind is the inverse of ErrorKind.String.
func ParseErrorKind(s string) (ErrorKind, error) {
	switch s {
	case "grammar_mismatch":
		return GrammarMismatch, nil
	case "invalid_dual_content":
		return InvalidDualContent, nil
	}
	return 0, fmt.Errorf("unknown diagnostic kind %q", s)
}

func (k ErrorKind) sentinel() error {
	if k == InvalidDualContent {
		return ErrInvalidDualContent
	}
	return ErrGrammarMismatch
}

// Error is a diagnostic for one skipped logical line. It never aborts a parse.
// Document is empty when the grammar was used outside of a document parse.
type Error struct {
	Document string
	Line     int // 1-based line where the logical line started
	Kind     ErrorKind
	Reason   string
	Text     string // offending normalized text
}

func (e Error) Error() string {
	return fmt.Sprintf("in file (%s) : line (%d) : %s: %s : skipping invalid line at : %s", e.Document, e.Line, e.Kind, e.Reason, e.Text)
}

func (e Error) Unwrap() error { return e.Kind.sentinel() }

func lineError(kind ErrorKind, text, format string, args ...any) *Error {
	return &Error{Kind: kind, Reason: fmt.Sprintf(format, args...), Text: text}
}
