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

	"github.com/JesseTheCatLover/Amish/internal/script"
	"github.com/spf13/cobra"
)

func (a *app) parseCmd() *cobra.Command {
	var strict bool
	cmd := &cobra.Command{
		Use:   "parse [paths...]",
		Short: "Parse scripts and print the resolved entries",
		Long:  "Parse .jdialogue files or directories in order and print one resolved entry per line. Skipped lines are logged as warnings.",
		RunE: func(cmd *cobra.Command, args []string) error {
			docs, err := a.documents(args)
			if err != nil {
				return err
			}
			entries, diags := script.Parse(docs, a.language())
			logDiagnostics("parse", diags)

			out := cmd.OutOrStdout()
			for _, e := range entries {
				fmt.Fprintf(out, "%s:%d\t%s\n", e.Document, e.Line, e)
			}
			fmt.Fprintf(out, "%d entries, %d skipped lines\n", len(entries), len(diags))
			if strict && len(diags) > 0 {
				return fmt.Errorf("%d invalid lines", len(diags))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "Fail when any line is skipped")
	return cmd
}
