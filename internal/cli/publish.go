/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package cli

import (
	"context"
	"fmt"

	"github.com/JesseTheCatLover/Amish/internal/backend"
	"github.com/JesseTheCatLover/Amish/internal/storage"
	"github.com/spf13/cobra"
)

func (a *app) publishCmd() *cobra.Command {
	var runID string
	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Publish an indexed run to the Postgres backend",
		Long:  "Copy the latest indexed run (or --run) into the configured backend project. Publishing the same run again replaces its rows.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			idx, err := a.openIndex(ctx)
			if err != nil {
				return err
			}
			defer idx.Close()

			var run storage.Run
			if runID == "" {
				run, err = storage.LatestRun(ctx, idx)
			} else {
				run, err = storage.LoadRun(ctx, idx, runID)
			}
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(ctx, a.cfg.Backend.Timeout())
			defer cancel()
			db, err := a.openBackend(ctx)
			if err != nil {
				return err
			}
			defer db.Close()
			if err := backend.PublishRun(ctx, db, a.cfg.Backend.Project, run); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "published run %s (%d entries) to project %s\n", run.ID, len(run.Entries), a.cfg.Backend.Project)
			return nil
		},
	}
	cmd.Flags().StringVar(&runID, "run", "", "Run id (default: latest)")
	return cmd
}
