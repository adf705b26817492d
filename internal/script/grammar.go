/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package script

import (
	"strings"
)

// Speaker is one side of a speaker block.
type Speaker struct {
	Key       SpeakerKey
	Anonymous bool
}

// Tokens holds the staging tokens of one speaker. Empty fields were not given
// on the line and carry over from memory.
type Tokens struct {
	Face      Expression
	LeftHand  Gesture
	RightHand Gesture
}

// Line is the grammar-level view of one logical line:
//
//	line          := [ speaker_block ":" ] content "<" dialogue_list ">"
//	speaker_block := name ["*"] [ "&" name ["*"] ]
//	content       := token { " " token }
//	token         := "lefthand_" ident | "righthand_" ident | face_ident
//
// Dual lines (speaker block with "&") split content on exactly one comma into
// main and companion halves.
type Line struct {
	Named     bool // speaker block present
	Main      Speaker
	Companion *Speaker

	MainTokens      Tokens
	CompanionTokens Tokens

	Dialogue string // raw comma-separated, quote-wrapped list
	Source   string
}

// IsDual reports whether the line names a companion.
func (l Line) IsDual() bool { return l.Companion != nil }

// MatchLine matches one normalized logical line against the grammar. The
// returned *Error carries kind, reason and text; position is left to the caller.
func MatchLine(text string) (Line, *Error) {
	s := strings.TrimSpace(text)
	ln := Line{Source: s}

	if !strings.HasSuffix(s, ">") {
		return Line{}, lineError(GrammarMismatch, s, "missing dialogue list")
	}
	open := strings.Index(s, "<")
	if open < 0 {
		return Line{}, lineError(GrammarMismatch, s, "missing '<'")
	}
	dialogue := s[open+1 : len(s)-1]
	if strings.Contains(dialogue, ">") {
		return Line{}, lineError(GrammarMismatch, s, "unexpected '>' inside dialogue list")
	}
	if strings.TrimSpace(dialogue) == "" {
		return Line{}, lineError(GrammarMismatch, s, "empty dialogue list")
	}
	ln.Dialogue = dialogue

	head := s[:open]
	content := head
	if i := strings.Index(head, ":"); i >= 0 {
		ln.Named = true
		content = head[i+1:]
		main, comp, err := parseSpeakerBlock(head[:i])
		if err != "" {
			return Line{}, lineError(GrammarMismatch, s, "%s", err)
		}
		ln.Main = main
		ln.Companion = comp
	}

	if ln.IsDual() {
		if n := strings.Count(content, ","); n != 1 {
			return Line{}, lineError(InvalidDualContent, s, "dual line content needs exactly one comma, found %d", n)
		}
		halves := strings.SplitN(content, ",", 2)
		var err string
		if ln.MainTokens, err = parseTokens(halves[0]); err != "" {
			return Line{}, lineError(GrammarMismatch, s, "%s", err)
		}
		if ln.CompanionTokens, err = parseTokens(halves[1]); err != "" {
			return Line{}, lineError(GrammarMismatch, s, "%s", err)
		}
		return ln, nil
	}

	toks, err := parseTokens(content)
	if err != "" {
		return Line{}, lineError(GrammarMismatch, s, "%s", err)
	}
	ln.MainTokens = toks
	return ln, nil
}

func parseSpeakerBlock(block string) (Speaker, *Speaker, string) {
	parts := strings.Split(block, "&")
	if len(parts) > 2 {
		return Speaker{}, nil, "more than one '&' in speaker block"
	}
	main, err := parseSpeaker(parts[0])
	if err != "" {
		return Speaker{}, nil, err
	}
	if len(parts) == 1 {
		return main, nil, ""
	}
	comp, err := parseSpeaker(parts[1])
	if err != "" {
		return Speaker{}, nil, err
	}
	return main, &comp, ""
}

func parseSpeaker(s string) (Speaker, string) {
	s = strings.TrimSpace(s)
	var sp Speaker
	if strings.HasSuffix(s, "*") {
		sp.Anonymous = true
		s = strings.TrimSuffix(s, "*")
	}
	key, err := ParseSpeakerKey(s)
	if err != nil {
		return Speaker{}, err.Error()
	}
	sp.Key = key
	return sp, ""
}

// parseTokens classifies whitespace-separated staging tokens. When a class
// repeats, the last token wins.
func parseTokens(content string) (Tokens, string) {
	var t Tokens
	for _, tok := range strings.Fields(content) {
		if strings.HasPrefix(tok, LeftHandPrefix) || strings.HasPrefix(tok, RightHandPrefix) {
			g, err := ParseGesture(tok)
			if err != nil {
				return Tokens{}, err.Error()
			}
			if g.IsLeft() {
				t.LeftHand = g
			} else {
				t.RightHand = g
			}
			continue
		}
		f, err := ParseExpression(tok)
		if err != nil {
			return Tokens{}, err.Error()
		}
		t.Face = f
	}
	return t, ""
}
