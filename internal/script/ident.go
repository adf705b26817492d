/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package script

import (
	"fmt"
	"strings"
	"unicode"
)

// Hand gesture token prefixes.
const (
	LeftHandPrefix  = "lefthand_"
	RightHandPrefix = "righthand_"
)

// SpeakerKey names a character, e.g. "amish".
type SpeakerKey string

// Expression names a face sprite, e.g. "sad".
type Expression string

// Gesture names a hand pose including its prefix, e.g. "lefthand_wave".
type Gesture string

// reserved characters never allowed inside a speaker name or face token.
const reserved = `:<>,*&"`

// ParseSpeakerKey validates a bare speaker name (without the anonymity marker).
func ParseSpeakerKey(s string) (SpeakerKey, error) {
	if err := checkWord(s); err != nil {
		return "", fmt.Errorf("speaker %q: %w", s, err)
	}
	return SpeakerKey(s), nil
}

// ParseExpression validates a face token. Hand prefixes are rejected so a
// malformed gesture is not silently taken for a face.
func ParseExpression(s string) (Expression, error) {
	if strings.HasPrefix(s, LeftHandPrefix) || strings.HasPrefix(s, RightHandPrefix) {
		return "", fmt.Errorf("face %q: hand gesture prefix", s)
	}
	if err := checkWord(s); err != nil {
		return "", fmt.Errorf("face %q: %w", s, err)
	}
	return Expression(s), nil
}

// ParseGesture validates a lefthand_/righthand_ token.
func ParseGesture(s string) (Gesture, error) {
	var rest string
	switch {
	case strings.HasPrefix(s, LeftHandPrefix):
		rest = s[len(LeftHandPrefix):]
	case strings.HasPrefix(s, RightHandPrefix):
		rest = s[len(RightHandPrefix):]
	default:
		return "", fmt.Errorf("gesture %q: missing hand prefix", s)
	}
	if rest == "" {
		return "", fmt.Errorf("gesture %q: empty name", s)
	}
	for _, r := range rest {
		if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return "", fmt.Errorf("gesture %q: invalid character %q", s, r)
		}
	}
	return Gesture(s), nil
}

// IsLeft reports whether g is a left-hand gesture.
func (g Gesture) IsLeft() bool { return strings.HasPrefix(string(g), LeftHandPrefix) }

func checkWord(s string) error {
	if s == "" {
		return fmt.Errorf("empty")
	}
	for _, r := range s {
		if unicode.IsSpace(r) || strings.ContainsRune(reserved, r) {
			return fmt.Errorf("invalid character %q", r)
		}
	}
	return nil
}
