/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package script

import "fmt"

// Defaults applied to a fresh or reset speaker slot.
const (
	DefaultKey       SpeakerKey = "amish"
	DefaultFace      Expression = "main"
	DefaultLeftHand  Gesture    = "lefthand_rest"
	DefaultRightHand Gesture    = "righthand_rest"
)

// Document is one named .jdialogue source. Name is only used in diagnostics
// and entry provenance.
type Document struct {
	Name string
	Text string
}

// CharacterState holds the fully resolved attributes of one speaker.
// Every field always carries a value; see DefaultState.
type CharacterState struct {
	Key         SpeakerKey `json:"key"`
	IsAnonymous bool       `json:"isAnonymous"`
	Face        Expression `json:"face"`
	LeftHand    Gesture    `json:"leftHand"`
	RightHand   Gesture    `json:"rightHand"`
}

// DefaultState returns the documented defaults for a speaker slot.
func DefaultState() CharacterState {
	return CharacterState{
		Key:       DefaultKey,
		Face:      DefaultFace,
		LeftHand:  DefaultLeftHand,
		RightHand: DefaultRightHand,
	}
}

func (c CharacterState) String() string {
	return fmt.Sprintf("%s [IsAnonymous:%t] (%s, %s, %s)", c.Key, c.IsAnonymous, c.Face, c.LeftHand, c.RightHand)
}

// DialogueEntry is one finished line of dialogue. Companion is nil unless the
// source line was a dual line. Entries are snapshots and never alias ParseMemory.
type DialogueEntry struct {
	Main      CharacterState  `json:"main"`
	Companion *CharacterState `json:"companion,omitempty"`
	Text      string          `json:"text"`

	// Source position (1-based line where the logical line started).
	Document string `json:"document,omitempty"`
	Line     int    `json:"line,omitempty"`
}

// IsDual reports whether the entry has a companion speaker.
func (e DialogueEntry) IsDual() bool { return e.Companion != nil }

func (e DialogueEntry) String() string {
	if e.Companion == nil {
		return fmt.Sprintf("%s -> %s", e.Main, e.Text)
	}
	return fmt.Sprintf("%s & %s -> %s", e.Main, *e.Companion, e.Text)
}

// ParseMemory is the running resolver state: the primary speaker slot and the
// companion slot used by dual lines.
type ParseMemory struct {
	Primary   CharacterState
	Companion CharacterState
}

// NewMemory returns a memory with both slots at their defaults.
func NewMemory() ParseMemory {
	return ParseMemory{Primary: DefaultState(), Companion: DefaultState()}
}
