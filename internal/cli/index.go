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
	"time"

	applog "github.com/JesseTheCatLover/Amish/internal/log"
	"github.com/JesseTheCatLover/Amish/internal/storage"
	"github.com/spf13/cobra"
)

func (a *app) indexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index [paths...]",
		Short: "Parse scripts and store the run in the local index",
		Long:  "Parse scripts, snapshot each source and save the run to the SQLite index. Runs and snapshots beyond index.keep_snapshots are pruned.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			docs, err := a.documents(args)
			if err != nil {
				return err
			}
			db, err := a.openIndex(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			l := applog.WithOperation(applog.WithComponent("cli"), "index")
			keep := a.cfg.Index.KeepSnapshots
			now := time.Now()
			changed := 0
			for _, d := range docs {
				saved, err := storage.SaveScriptSnapshot(ctx, db, d, now)
				if err != nil {
					return err
				}
				if saved {
					changed++
				}
				if _, err := storage.PruneScriptSnapshots(ctx, db, d.Name, keep); err != nil {
					return err
				}
			}

			run := storage.NewRun(docs, a.language())
			run.CreatedAt = now
			logDiagnostics("index", run.Diagnostics)
			id, err := storage.SaveRun(ctx, db, run)
			if err != nil {
				return err
			}
			pruned, err := storage.PruneRuns(ctx, db, keep)
			if err != nil {
				return err
			}
			l.Debug("index updated", slog.String("run", id), slog.Int("changed_docs", changed), slog.Int64("pruned_runs", pruned))
			fmt.Fprintf(cmd.OutOrStdout(), "run %s: %d entries, %d skipped lines, %d changed documents\n",
				id, len(run.Entries), len(run.Diagnostics), changed)
			return nil
		},
	}
	cmd.AddCommand(a.historyCmd())
	return cmd
}

func (a *app) historyCmd() *cobra.Command {
	var (
		limit int
		show  bool
	)
	cmd := &cobra.Command{
		Use:   "history <document>",
		Short: "List stored snapshots of a script",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			db, err := a.openIndex(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			out := cmd.OutOrStdout()
			if show {
				doc, ts, err := storage.LatestScriptSnapshot(ctx, db, args[0])
				if err != nil {
					return err
				}
				if doc == nil {
					return fmt.Errorf("no snapshot of %q", args[0])
				}
				fmt.Fprintf(out, "# %s @ %s\n%s", doc.Name, ts.Format(time.RFC3339), doc.Text)
				return nil
			}
			snaps, err := storage.ListScriptSnapshots(ctx, db, args[0], limit)
			if err != nil {
				return err
			}
			for _, s := range snaps {
				fmt.Fprintf(out, "%s\t%d bytes\n", s.TS.Format(time.RFC3339), s.Size)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Max snapshots to list")
	cmd.Flags().BoolVar(&show, "show", false, "Print the text of the newest snapshot")
	return cmd
}
