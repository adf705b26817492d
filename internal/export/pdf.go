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
	"fmt"
	"io"
	"strconv"

	"github.com/jung-kurt/gofpdf"
)

// PDFOptions controls the proof sheet layout. Units are points (pt).
//
// Without FontFile the sheet uses the core Helvetica font and text outside
// cp1252 (Persian among it) is replaced by the gofpdf translator. FontFile names
// a TrueType font that is embedded as UTF-8 and used for all text instead.
type PDFOptions struct {
	Title    string
	FontSize float64 // body size; 9 when zero
	Margin   float64 // page margin; 36 when zero
	FontFile string  // optional .ttf with the glyphs of the exported language
}

const utf8Family = "body"

// column widths on an A4 portrait page (595pt wide) minus margins
var pdfColumns = []struct {
	title string
	frac  float64
}{
	{"#", 0.07},
	{"Source", 0.17},
	{"Speakers", 0.16},
	{"Staging", 0.25},
	{"Text", 0.35},
}

// WritePDF renders one table row per entry: position, speakers, staging and text,
// followed by a list of skipped lines.
func WritePDF(w io.Writer, doc Document, opt PDFOptions) error {
	size := opt.FontSize
	if size <= 0 {
		size = 9
	}
	margin := opt.Margin
	if margin <= 0 {
		margin = 36
	}
	title := opt.Title
	if title == "" {
		title = "Dialogue proof"
	}

	pdf := gofpdf.NewCustom(&gofpdf.InitType{UnitStr: "pt", Size: gofpdf.SizeType{Wd: 595, Ht: 842}})
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(false, margin)
	family := "Helvetica"
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	if opt.FontFile != "" {
		pdf.AddUTF8Font(utf8Family, "", opt.FontFile)
		pdf.AddUTF8Font(utf8Family, "B", opt.FontFile)
		if err := pdf.Error(); err != nil {
			return fmt.Errorf("load font %s: %w", opt.FontFile, err)
		}
		family = utf8Family
		tr = func(s string) string { return s }
	}
	pdf.SetTitle(title, true)
	pdf.SetAuthor(doc.Generator, true)

	pageW, pageH := pdf.GetPageSize()
	usable := pageW - 2*margin
	widths := make([]float64, len(pdfColumns))
	for i, c := range pdfColumns {
		widths[i] = usable * c.frac
	}
	lineH := size * 1.3

	header := func() {
		pdf.SetFont(family, "B", size)
		pdf.SetFillColor(230, 230, 230)
		for i, c := range pdfColumns {
			pdf.CellFormat(widths[i], lineH, tr(c.title), "1", 0, "L", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont(family, "", size)
	}

	pdf.AddPage()
	pdf.SetFont(family, "B", size+5)
	pdf.CellFormat(usable, (size+5)*1.5, tr(title), "", 1, "L", false, 0, "")
	pdf.SetFont(family, "", size)
	pdf.CellFormat(usable, lineH, tr(fmt.Sprintf("%s v%d, language %s, %d entries, %d skipped lines",
		doc.Format, doc.Version, doc.Language, len(doc.Entries), len(doc.Diagnostics))), "", 1, "L", false, 0, "")
	pdf.Ln(lineH / 2)
	header()

	for _, e := range doc.Entries {
		cells := []string{
			strconv.Itoa(e.Seq),
			fmt.Sprintf("%s:%d", e.Document, e.Line),
			e.Speakers(),
			staging(e),
			e.Text,
		}
		lines := make([][][]byte, len(cells))
		rows := 1
		for i, c := range cells {
			lines[i] = pdf.SplitLines([]byte(tr(c)), widths[i]-4)
			if len(lines[i]) > rows {
				rows = len(lines[i])
			}
		}
		rowH := float64(rows) * lineH
		if pdf.GetY()+rowH > pageH-margin {
			pdf.AddPage()
			header()
		}
		x, y := pdf.GetXY()
		for i := range cells {
			pdf.Rect(x, y, widths[i], rowH, "D")
			for j, ln := range lines[i] {
				pdf.SetXY(x+2, y+float64(j)*lineH)
				pdf.CellFormat(widths[i]-4, lineH, string(ln), "", 0, "L", false, 0, "")
			}
			x += widths[i]
		}
		pdf.SetXY(margin, y+rowH)
	}

	if len(doc.Diagnostics) > 0 {
		if pdf.GetY()+3*lineH > pageH-margin {
			pdf.AddPage()
		}
		pdf.Ln(lineH)
		pdf.SetFont(family, "B", size+1)
		pdf.CellFormat(usable, lineH*1.2, tr("Skipped lines"), "", 1, "L", false, 0, "")
		pdf.SetFont(family, "", size)
		for _, d := range doc.Diagnostics {
			msg := fmt.Sprintf("%s:%d %s: %s | %s", d.Document, d.Line, d.Kind, d.Reason, d.Text)
			for _, ln := range pdf.SplitLines([]byte(tr(msg)), usable) {
				if pdf.GetY()+lineH > pageH-margin {
					pdf.AddPage()
				}
				pdf.CellFormat(usable, lineH, string(ln), "", 1, "L", false, 0, "")
			}
		}
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

func staging(e Entry) string {
	s := fmt.Sprintf("%s %s %s", e.Main.Face, e.Main.LeftHand, e.Main.RightHand)
	if e.Companion != nil {
		s += fmt.Sprintf(" / %s %s %s", e.Companion.Face, e.Companion.LeftHand, e.Companion.RightHand)
	}
	return s
}
