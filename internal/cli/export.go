/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package cli

import (
	"fmt"
	"log/slog"

	"github.com/JesseTheCatLover/Amish/internal/export"
	applog "github.com/JesseTheCatLover/Amish/internal/log"
	"github.com/JesseTheCatLover/Amish/internal/script"
	"github.com/spf13/cobra"
)

func (a *app) exportCmd() *cobra.Command {
	var (
		outPath  string
		format   string
		title    string
		fontFile string
	)
	cmd := &cobra.Command{
		Use:   "export [paths...]",
		Short: "Export parsed entries as JSON, YAML or a PDF proof sheet",
		Long:  "Parse scripts and write the result. The format follows --format, or the extension of -o. Without -o the document is written to stdout. PDF sheets show Persian text only when --font names a TrueType font that covers it.",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := resolveFormat(format, outPath)
			if err != nil {
				return err
			}
			docs, err := a.documents(args)
			if err != nil {
				return err
			}
			lang := a.language()
			entries, diags := script.Parse(docs, lang)
			logDiagnostics("export", diags)

			names := make([]string, len(docs))
			for i, d := range docs {
				names[i] = d.Name
			}
			doc := export.BuildDocument(names, entries, diags, lang)
			opt := export.PDFOptions{Title: title, FontFile: fontFile}

			if outPath == "" {
				return export.Write(cmd.OutOrStdout(), f, doc, opt)
			}
			if err := export.WriteFile(outPath, f, doc, opt); err != nil {
				return err
			}
			applog.WithComponent("export").Info("exported",
				slog.String("path", outPath),
				slog.String("format", string(f)),
				slog.Int("entries", len(entries)))
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d entries to %s\n", len(entries), outPath)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "Output file (default: stdout)")
	cmd.Flags().StringVarP(&format, "format", "f", "", "Output format: json, yaml or pdf")
	cmd.Flags().StringVar(&title, "title", "", "PDF title")
	cmd.Flags().StringVar(&fontFile, "font", "", "TrueType font embedded in the PDF. Without it the core Helvetica font is used, which cannot show Persian text")
	return cmd
}

func resolveFormat(flag, outPath string) (export.Format, error) {
	switch {
	case flag != "":
		return export.ParseFormat(flag)
	case outPath != "":
		return export.FormatForPath(outPath)
	default:
		return export.FormatJSON, nil
	}
}
