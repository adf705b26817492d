/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package script

import "strings"

// LogicalLine is a normalized, fully assembled script line.
type LogicalLine struct {
	Text string
	Line int // physical line the logical line started on
}

// Normalizer assembles physical lines into logical lines:
//   - "#" and "//" start a comment running to the end of the line
//   - blank and comment-only lines are dropped
//   - a trailing "\" continues the logical line on the next physical line
//   - the two characters `\n` become a real line break once the line is complete
//
// The zero value is ready to use.
type Normalizer struct {
	buf   strings.Builder
	start int
}

// Feed consumes one physical line. It returns the completed logical line and
// true, or false while nothing is ready (blank line or pending continuation).
func (n *Normalizer) Feed(raw string, lineNo int) (LogicalLine, bool) {
	frag := strings.TrimSpace(stripComment(raw))
	if frag == "" {
		return LogicalLine{}, false
	}
	if n.buf.Len() == 0 {
		n.start = lineNo
	}
	if strings.HasSuffix(frag, `\`) {
		n.buf.WriteString(strings.TrimSuffix(frag, `\`))
		n.buf.WriteByte(' ')
		return LogicalLine{}, false
	}
	n.buf.WriteString(frag)
	return n.take(), true
}

// Flush returns a continuation left pending at end of input, if any.
func (n *Normalizer) Flush() (LogicalLine, bool) {
	if n.buf.Len() == 0 {
		return LogicalLine{}, false
	}
	ll := n.take()
	ll.Text = strings.TrimSpace(ll.Text)
	if ll.Text == "" {
		return LogicalLine{}, false
	}
	return ll, true
}

// Pending reports whether a continued line is waiting for more input.
func (n *Normalizer) Pending() bool { return n.buf.Len() > 0 }

func (n *Normalizer) take() LogicalLine {
	ll := LogicalLine{Text: strings.ReplaceAll(n.buf.String(), `\n`, "\n"), Line: n.start}
	n.buf.Reset()
	n.start = 0
	return ll
}

func stripComment(s string) string {
	cut := len(s)
	if i := strings.Index(s, "#"); i >= 0 {
		cut = i
	}
	if i := strings.Index(s[:cut], "//"); i >= 0 {
		cut = i
	}
	return s[:cut]
}
