/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/JesseTheCatLover/Amish/internal/script"
)

func sampleDocument(t *testing.T, lang script.Language) Document {
	t.Helper()
	docs := []script.Document{{Name: "intro.jdialogue", Text: `amish*: sad lefthand_wave <"Hi","سلام">
sara & amish: happy, righthand_point <"Look","ببین">
not a dialogue line
reza: <"Quiet night">`}}
	entries, diags := script.Parse(docs, lang)
	return BuildDocument([]string{"intro.jdialogue"}, entries, diags, lang)
}

func TestBuildDocument(t *testing.T) {
	doc := sampleDocument(t, script.English)
	if doc.Format != FormatName || doc.Version != FormatVersion || doc.Language != "english" {
		t.Fatalf("unexpected header %+v", doc)
	}
	if len(doc.Entries) != 3 || len(doc.Diagnostics) != 1 {
		t.Fatalf("unexpected counts: %d entries, %d diagnostics", len(doc.Entries), len(doc.Diagnostics))
	}
	e := doc.Entries[1]
	if e.Seq != 1 || e.Line != 2 || e.Companion == nil || e.Companion.Key != "amish" || e.Main.Face != "happy" {
		t.Fatalf("unexpected dual entry %+v", e)
	}
	if e.Speakers() != "sara & amish" || doc.Entries[0].Speakers() != "amish*" {
		t.Fatalf("unexpected speakers %q / %q", e.Speakers(), doc.Entries[0].Speakers())
	}
	if doc.Diagnostics[0].Kind != "grammar_mismatch" || doc.Diagnostics[0].Line != 3 {
		t.Fatalf("unexpected diagnostic %+v", doc.Diagnostics[0])
	}
}

func TestWriteJSONValidates(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, sampleDocument(t, script.Persian)); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(buf.Bytes(), &raw); err != nil {
		t.Fatalf("output is not json: %v", err)
	}
	entries := raw["entries"].([]any)
	first := entries[0].(map[string]any)
	if first["text"] != "سلام" {
		t.Fatalf("unexpected text %v", first["text"])
	}
	main := first["main"].(map[string]any)
	if main["isAnonymous"] != true || main["leftHand"] != "lefthand_wave" {
		t.Fatalf("unexpected main %v", main)
	}
	if _, ok := first["companion"]; ok {
		t.Fatalf("single entries must omit companion")
	}
}

func TestWriteJSONRejectsInvalidDocument(t *testing.T) {
	doc := sampleDocument(t, script.English)
	doc.Entries[0].Main.LeftHand = "wave"
	var buf bytes.Buffer
	err := WriteJSON(&buf, doc)
	var ve *ValidationError
	if !errors.As(err, &ve) || len(ve.Problems) == 0 {
		t.Fatalf("expected validation error, got %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("invalid documents must not be written")
	}
}

func TestValidateJSONSchemaRules(t *testing.T) {
	if err := ValidateJSON([]byte(`{"format":"amish.dialogue"}`)); err == nil {
		t.Fatalf("missing fields should fail")
	}
	if err := ValidateJSON([]byte(`not json`)); err == nil {
		t.Fatalf("malformed json should fail")
	}
	if !json.Valid(Schema()) {
		t.Fatalf("embedded schema is not valid json")
	}
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	doc := sampleDocument(t, script.English)
	var buf bytes.Buffer
	if err := WriteYAML(&buf, doc); err != nil {
		t.Fatalf("WriteYAML: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"format: amish.dialogue", "isAnonymous: true", "leftHand: lefthand_wave", "kind: grammar_mismatch"} {
		if !strings.Contains(out, want) {
			t.Fatalf("yaml missing %q:\n%s", want, out)
		}
	}
	back, err := ReadYAML(strings.NewReader(out))
	if err != nil {
		t.Fatalf("ReadYAML: %v", err)
	}
	if len(back.Entries) != 3 || back.Entries[1].Companion == nil || back.Entries[1].Companion.Key != "amish" {
		t.Fatalf("yaml did not round trip: %+v", back.Entries)
	}
}

func TestWritePDFCreatesFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "exports", "proof.pdf")
	doc := sampleDocument(t, script.Persian)
	// enough rows to force a page break
	for i := 0; i < 120; i++ {
		e := doc.Entries[i%len(doc.Entries)]
		e.Seq = len(doc.Entries)
		doc.Entries = append(doc.Entries, e)
	}
	if err := WriteFile(out, FormatPDF, doc, PDFOptions{Title: "Intro"}); err != nil {
		t.Fatalf("WriteFile pdf: %v", err)
	}
	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read pdf: %v", err)
	}
	if !bytes.HasPrefix(b, []byte("%PDF-")) {
		t.Fatalf("output is not a pdf")
	}
	tmp, _ := filepath.Glob(filepath.Join(filepath.Dir(out), ".proof.pdf.*"))
	if len(tmp) != 0 {
		t.Fatalf("temporary files left behind: %v", tmp)
	}
}

func TestWritePDFEmbeddedFont(t *testing.T) {
	dir := t.TempDir()
	doc := sampleDocument(t, script.Persian)
	out := filepath.Join(dir, "proof.pdf")
	err := WriteFile(out, FormatPDF, doc, PDFOptions{FontFile: filepath.Join(dir, "missing.ttf")})
	if err == nil || !strings.Contains(err.Error(), "missing.ttf") {
		t.Fatalf("expected font load error, got %v", err)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Fatalf("no file should be written when the font fails: %v", err)
	}

	var font string
	for _, p := range []string{
		"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
		"/usr/share/fonts/TTF/DejaVuSans.ttf",
		"/Library/Fonts/Arial Unicode.ttf",
		`C:\Windows\Fonts\arial.ttf`,
	} {
		if _, err := os.Stat(p); err == nil {
			font = p
			break
		}
	}
	if font == "" {
		t.Skip("no TrueType font available")
	}
	if err := WriteFile(out, FormatPDF, doc, PDFOptions{Title: "گفتگو", FontFile: font}); err != nil {
		t.Fatalf("WriteFile with %s: %v", font, err)
	}
	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(b, []byte("/FontFile2")) {
		t.Fatalf("font not embedded")
	}
}

func TestFormats(t *testing.T) {
	for in, want := range map[string]Format{"JSON": FormatJSON, "yml": FormatYAML, "pdf": FormatPDF} {
		if got, err := ParseFormat(in); err != nil || got != want {
			t.Fatalf("ParseFormat(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseFormat("epub"); err == nil {
		t.Fatalf("expected error for unsupported format")
	}
	if f, err := FormatForPath("out/dialogue.yaml"); err != nil || f != FormatYAML {
		t.Fatalf("FormatForPath = %v, %v", f, err)
	}
	if _, err := FormatForPath("out/dialogue"); err == nil {
		t.Fatalf("expected error without extension")
	}
}

func TestWriteFileFailureLeavesNothing(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "bad.json")
	doc := sampleDocument(t, script.English)
	doc.Format = "other"
	if err := WriteFile(out, FormatJSON, doc, PDFOptions{}); err == nil {
		t.Fatalf("expected validation failure")
	}
	left, _ := os.ReadDir(dir)
	if len(left) != 0 {
		t.Fatalf("failed export left files: %v", left)
	}
}

func TestWriteJSONUnnamedLanguageIndex(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, sampleDocument(t, script.Language(3))); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	if !strings.Contains(buf.String(), `"language": "3"`) {
		t.Fatalf("language index not exported:\n%s", buf.String())
	}
	if err := ValidateJSON([]byte(`{"format":"amish.dialogue","version":1,"language":"klingon","documents":[],"entries":[],"diagnostics":[]}`)); err == nil {
		t.Fatalf("expected unknown language names to be rejected")
	}
}
