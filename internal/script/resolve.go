/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package script

// Resolve applies one matched line to mem and returns the new memory together
// with the resolved entry (Text left empty; see SelectText).
//
// A change of the primary key resets both slots to defaults. On a dual line
// with an unchanged primary key, a change of the companion key resets only the
// companion slot. Tokens missing from the line carry over from the slot.
// Anonymity is re-derived from the "*" marker whenever a name is written and
// kept as-is when the line omits the speaker block.
func Resolve(mem ParseMemory, ln Line) (ParseMemory, DialogueEntry) {
	key := mem.Primary.Key
	if ln.Named {
		key = ln.Main.Key
	}
	if key != mem.Primary.Key {
		mem = NewMemory()
		mem.Primary.Key = key
	}
	if ln.Named {
		mem.Primary.IsAnonymous = ln.Main.Anonymous
	}
	mem.Primary = apply(mem.Primary, ln.MainTokens)

	if !ln.IsDual() {
		return mem, DialogueEntry{Main: mem.Primary}
	}

	comp := *ln.Companion
	if comp.Key != mem.Companion.Key {
		mem.Companion = DefaultState()
		mem.Companion.Key = comp.Key
	}
	mem.Companion.IsAnonymous = comp.Anonymous
	mem.Companion = apply(mem.Companion, ln.CompanionTokens)

	snap := mem.Companion
	return mem, DialogueEntry{Main: mem.Primary, Companion: &snap}
}

func apply(c CharacterState, t Tokens) CharacterState {
	if t.Face != "" {
		c.Face = t.Face
	}
	if t.LeftHand != "" {
		c.LeftHand = t.LeftHand
	}
	if t.RightHand != "" {
		c.RightHand = t.RightHand
	}
	return c
}
