/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package cli implements the amish command line.
package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/JesseTheCatLover/Amish/internal/backend"
	"github.com/JesseTheCatLover/Amish/internal/config"
	"github.com/JesseTheCatLover/Amish/internal/crash"
	applog "github.com/JesseTheCatLover/Amish/internal/log"
	"github.com/JesseTheCatLover/Amish/internal/script"
	"github.com/JesseTheCatLover/Amish/internal/storage"
	"github.com/spf13/cobra"
)

// ErrNoSources is returned when neither arguments nor dialogue.sources name a script.
var ErrNoSources = errors.New("no script sources given (pass paths or set dialogue.sources)")

// app carries state shared by all subcommands of one invocation.
type app struct {
	configPath string
	lang       string
	logLevel   string

	cfg      config.AppConfig
	password string
	crash    *crash.Info
}

// NewRootCmd builds the command tree. Resolved script sources are recorded in
// info (when non-nil) so a crash report can name them.
func NewRootCmd(info *crash.Info) *cobra.Command {
	a := &app{crash: info}
	root := &cobra.Command{
		Use:           "amish",
		Short:         "Parse and play .jdialogue scripts",
		Long:          "Parses .jdialogue dialogue scripts into resolved entries, exports them, indexes them locally and publishes them to a shared Postgres backend.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd)
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "Config file (default: per-user config.yaml)")
	root.PersistentFlags().StringVarP(&a.lang, "lang", "l", "", "Dialogue language: index, name or tag (overrides dialogue.language)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn or error")

	root.AddCommand(
		a.parseCmd(),
		a.exportCmd(),
		a.indexCmd(),
		a.searchCmd(),
		a.publishCmd(),
		a.playCmd(),
		a.configCmd(),
		versionCmd(),
	)
	return root
}

// Execute runs the command tree with args and returns the process exit code.
func Execute(ctx context.Context, args []string, info *crash.Info) int {
	root := NewRootCmd(info)
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		applog.WithComponent("cli").Error("command failed", slog.Any("err", err))
		fmt.Fprintf(root.ErrOrStderr(), "error: %v\n", err)
		return 1
	}
	return 0
}

func (a *app) load(cmd *cobra.Command) error {
	cfg, pw, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.lang != "" {
		if _, err := script.ParseLanguage(a.lang); err != nil {
			return err
		}
		cfg.Dialogue.Language = a.lang
	}
	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
	}
	a.cfg = cfg
	a.password = pw

	opts := applog.Options{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		AddSource: cfg.Logging.Source,
		File:      cfg.Logging.File,
		Output:    cmd.ErrOrStderr(),
	}
	applog.Init(opts)
	applog.WithComponent("cli").Debug("config loaded",
		slog.String("cmd", cmd.Name()),
		slog.String("language", cfg.Dialogue.Language),
		slog.String("index", cfg.Index.Path))
	return nil
}

func (a *app) language() script.Language {
	// validated in load
	l, _ := a.cfg.Dialogue.ParsedLanguage()
	return l
}

// documents loads the scripts named by args, or by dialogue.sources when args is empty.
func (a *app) documents(args []string) ([]script.Document, error) {
	paths := args
	if len(paths) == 0 {
		paths = a.cfg.Dialogue.Sources
	}
	if len(paths) == 0 {
		return nil, ErrNoSources
	}
	if a.crash != nil {
		a.crash.Sources = append([]string(nil), paths...)
	}
	return storage.LoadDocuments(paths...)
}

func (a *app) openIndex(ctx context.Context) (*sql.DB, error) {
	db, recovered, err := storage.OpenOrRecoverIndex(ctx, a.cfg.Index.Path)
	if err != nil {
		return nil, err
	}
	if recovered {
		applog.WithComponent("index").Warn("index was corrupt and has been rebuilt", slog.String("path", a.cfg.Index.Path))
	}
	return db, nil
}

func (a *app) openBackend(ctx context.Context) (*sql.DB, error) {
	if a.cfg.Backend.DSN == "" {
		return nil, errors.New("backend.dsn is not configured")
	}
	return backend.OpenWithPassword(ctx, a.cfg.Backend.DSN, a.password)
}

// logDiagnostics reports every skipped line through the logger.
func logDiagnostics(op string, diags []script.Error) {
	l := applog.WithOperation(applog.WithComponent("cli"), op)
	for _, d := range diags {
		applog.Diagnostic(l, d.Document, d.Line, d.Kind.String(), d.Reason, d.Text)
	}
}
