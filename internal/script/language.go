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
	"strconv"
	"strings"

	"golang.org/x/text/language"
)

// Language is the position of a locale inside a line's dialogue list.
// Index 0 is the default and fallback language.
type Language int

const (
	English Language = iota
	Persian
)

var languageTags = []language.Tag{
	language.English,
	language.Persian,
}

var languageMatcher = language.NewMatcher(languageTags)

// Languages lists the supported languages in index order.
func Languages() []Language {
	out := make([]Language, len(languageTags))
	for i := range languageTags {
		out[i] = Language(i)
	}
	return out
}

// Tag returns the BCP 47 tag of l, or und when l is not a known language.
func (l Language) Tag() language.Tag {
	if l < 0 || int(l) >= len(languageTags) {
		return language.Und
	}
	return languageTags[l]
}

// String returns the language name, or the bare index for a language without
// a name, so that ParseLanguage(l.String()) == l for every l >= 0.
func (l Language) String() string {
	switch l {
	case English:
		return "english"
	case Persian:
		return "persian"
	default:
		return strconv.Itoa(int(l))
	}
}

// ParseLanguage accepts an index ("1"), a name ("persian") or a BCP 47 tag
// ("fa-IR"). Tags are matched against the supported set with at least high
// confidence.
func ParseLanguage(s string) (Language, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if v == "" {
		return English, nil
	}
	if n, err := strconv.Atoi(v); err == nil {
		if n < 0 {
			return 0, fmt.Errorf("language index %d is negative", n)
		}
		return Language(n), nil
	}
	switch v {
	case "english":
		return English, nil
	case "persian", "farsi":
		return Persian, nil
	}
	tag, err := language.Parse(v)
	if err != nil {
		return 0, fmt.Errorf("parse language %q: %w", s, err)
	}
	_, idx, conf := languageMatcher.Match(tag)
	if conf < language.High {
		return 0, fmt.Errorf("unsupported language %q", s)
	}
	return Language(idx), nil
}

// SelectText picks the entry for lang from a raw dialogue list such as
// `"Hi","سلام"`. An index outside the list silently falls back to index 0.
func SelectText(raw string, lang Language) string {
	parts := strings.Split(raw, ",")
	i := int(lang)
	if i < 0 || i >= len(parts) {
		i = 0
	}
	return strings.Trim(strings.TrimSpace(parts[i]), `"`)
}
