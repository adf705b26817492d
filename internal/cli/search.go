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
	"strings"

	"github.com/JesseTheCatLover/Amish/internal/backend"
	"github.com/JesseTheCatLover/Amish/internal/storage"
	"github.com/spf13/cobra"
)

func (a *app) searchCmd() *cobra.Command {
	var (
		q      storage.SearchQuery
		remote bool
	)
	cmd := &cobra.Command{
		Use:   "search [text]",
		Short: "Search indexed dialogue",
		Long:  "Full-text search over the latest indexed run, or the run given by --run. With --remote the published project in Postgres is searched instead.",
		RunE: func(cmd *cobra.Command, args []string) error {
			q.Text = strings.Join(args, " ")
			var (
				res []storage.SearchResult
				err error
			)
			if remote {
				res, err = a.searchRemote(cmd.Context(), q)
			} else {
				res, err = a.searchLocal(cmd.Context(), q)
			}
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, r := range res {
				fmt.Fprintf(out, "%s:%d\t%s\t%s\n", r.Document, r.Line, r.Speakers, r.Text)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&q.Speaker, "speaker", "s", "", "Only entries spoken by this key (main or companion)")
	cmd.Flags().StringVar(&q.Document, "doc", "", "Only entries from this document")
	cmd.Flags().StringVar(&q.RunID, "run", "", "Run id (default: latest)")
	cmd.Flags().IntVarP(&q.Limit, "limit", "n", 50, "Max results")
	cmd.Flags().IntVar(&q.Offset, "offset", 0, "Skip this many results")
	cmd.Flags().BoolVar(&remote, "remote", false, "Search the Postgres backend")
	return cmd
}

func (a *app) searchLocal(ctx context.Context, q storage.SearchQuery) ([]storage.SearchResult, error) {
	db, err := a.openIndex(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	return storage.Search(ctx, db, q)
}

func (a *app) searchRemote(ctx context.Context, q storage.SearchQuery) ([]storage.SearchResult, error) {
	ctx, cancel := context.WithTimeout(ctx, a.cfg.Backend.Timeout())
	defer cancel()
	db, err := a.openBackend(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	return backend.SearchPG(ctx, db, a.cfg.Backend.Project, q)
}
