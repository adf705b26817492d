/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/JesseTheCatLover/Amish/internal/config"
	"github.com/JesseTheCatLover/Amish/internal/crash"
	"github.com/JesseTheCatLover/Amish/internal/export"
)

type memStore map[string]string

func (m memStore) Get(service, key string) (string, error) { return m[service+"/"+key], nil }
func (m memStore) Set(service, key, value string) error {
	m[service+"/"+key] = value
	return nil
}
func (m memStore) Delete(service, key string) error {
	delete(m, service+"/"+key)
	return nil
}

const sampleScript = `# greeting
amish: sad <"one","یک">
<"two">
sara*: <"three">
not a dialogue line
`

type env struct {
	dir    string
	script string
	config string
	store  memStore
}

func newEnv(t *testing.T) env {
	t.Helper()
	dir := t.TempDir()
	e := env{
		dir:    dir,
		script: filepath.Join(dir, "intro.jdialogue"),
		config: filepath.Join(dir, "config.yaml"),
		store:  memStore{},
	}
	if err := os.WriteFile(e.script, []byte(sampleScript), 0o644); err != nil {
		t.Fatal(err)
	}
	for _, k := range []string{config.EnvLanguage, config.EnvSources, config.EnvPGDSN, config.EnvLogFile, config.EnvLogFormat} {
		t.Setenv(k, "")
	}
	t.Setenv(config.EnvIndexPath, filepath.Join(dir, "index.db"))
	t.Setenv(config.EnvLogLevel, "error")
	prev := config.SetSecretStore(e.store)
	t.Cleanup(func() { config.SetSecretStore(prev) })
	return e
}

func (e env) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := NewRootCmd(nil)
	root.SetArgs(append([]string{"--config", e.config}, args...))
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&out)
	root.SetErr(&errOut)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestParseCommand(t *testing.T) {
	e := newEnv(t)
	out, err := e.run(t, "", "parse", e.script)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !strings.Contains(out, "intro.jdialogue:2\t") || !strings.Contains(out, "3 entries, 1 skipped lines") {
		t.Fatalf("unexpected output:\n%s", out)
	}

	out, err = e.run(t, "", "--lang", "fa", "parse", e.script)
	if err != nil || !strings.Contains(out, "-> یک") {
		t.Fatalf("persian parse: %v\n%s", err, out)
	}

	if _, err := e.run(t, "", "parse", "--strict", e.script); err == nil {
		t.Fatalf("expected --strict to fail on skipped lines")
	}
}

func TestParseWithoutSources(t *testing.T) {
	e := newEnv(t)
	if _, err := e.run(t, "", "parse"); !errors.Is(err, ErrNoSources) {
		t.Fatalf("expected ErrNoSources, got %v", err)
	}
	t.Setenv(config.EnvSources, e.script)
	if _, err := e.run(t, "", "parse"); err != nil {
		t.Fatalf("sources from env: %v", err)
	}
}

func TestBadLanguageFlag(t *testing.T) {
	e := newEnv(t)
	if _, err := e.run(t, "", "--lang", "de", "parse", e.script); err == nil {
		t.Fatalf("expected unsupported language error")
	}
}

func TestExportCommand(t *testing.T) {
	e := newEnv(t)
	target := filepath.Join(e.dir, "out", "intro.json")
	if _, err := e.run(t, "", "export", "-o", target, e.script); err != nil {
		t.Fatalf("export: %v", err)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatal(err)
	}
	if err := export.ValidateJSON(data); err != nil {
		t.Fatalf("exported JSON invalid: %v", err)
	}

	out, err := e.run(t, "", "export", "--format", "yaml", e.script)
	if err != nil {
		t.Fatalf("yaml export: %v", err)
	}
	if !strings.Contains(out, export.FormatName) {
		t.Fatalf("yaml output lacks format name:\n%s", out)
	}

	if _, err := e.run(t, "", "export", "-o", filepath.Join(e.dir, "x.txt"), e.script); err == nil {
		t.Fatalf("expected error for unknown extension")
	}
}

func TestIndexSearchAndHistory(t *testing.T) {
	e := newEnv(t)
	out, err := e.run(t, "", "index", e.script)
	if err != nil {
		t.Fatalf("index: %v", err)
	}
	if !strings.Contains(out, "3 entries, 1 skipped lines, 1 changed documents") {
		t.Fatalf("unexpected index output: %s", out)
	}
	out, err = e.run(t, "", "index", e.script)
	if err != nil || !strings.Contains(out, "0 changed documents") {
		t.Fatalf("second index: %v %s", err, out)
	}

	out, err = e.run(t, "", "search", "three")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if !strings.Contains(out, "intro.jdialogue:4") || strings.Contains(out, "one") {
		t.Fatalf("unexpected search output: %s", out)
	}

	out, err = e.run(t, "", "search", "--speaker", "amish")
	if err != nil || strings.Count(out, "\n") != 2 {
		t.Fatalf("speaker search: %v %q", err, out)
	}

	out, err = e.run(t, "", "index", "history", "intro.jdialogue")
	if err != nil || strings.Count(out, "\n") != 1 {
		t.Fatalf("history: %v %q", err, out)
	}
	out, err = e.run(t, "", "index", "history", "--show", "intro.jdialogue")
	if err != nil || !strings.Contains(out, "not a dialogue line") {
		t.Fatalf("history --show: %v %q", err, out)
	}
}

func TestPublishWithoutBackend(t *testing.T) {
	e := newEnv(t)
	if _, err := e.run(t, "", "index", e.script); err != nil {
		t.Fatal(err)
	}
	if _, err := e.run(t, "", "publish"); err == nil || !strings.Contains(err.Error(), "backend.dsn") {
		t.Fatalf("expected missing dsn error, got %v", err)
	}
}

func TestPlayCommand(t *testing.T) {
	e := newEnv(t)
	out, err := e.run(t, "", "play", e.script)
	if err != nil {
		t.Fatalf("play: %v", err)
	}
	want := []string{
		"amish (sad, lefthand_rest, righthand_rest): one",
		"amish (sad, lefthand_rest, righthand_rest): two",
		"??? (main, lefthand_rest, righthand_rest): three",
		"-- end --",
	}
	if got := strings.Split(strings.TrimSpace(out), "\n"); strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("play output:\n%s", out)
	}

	out, err = e.run(t, "\nb\nq\n", "play", e.script)
	if err != nil {
		t.Fatalf("interactive play: %v", err)
	}
	if strings.Count(out, ": one") != 2 || strings.Contains(out, "-- end --") {
		t.Fatalf("interactive output:\n%s", out)
	}
}

func TestConfigCommands(t *testing.T) {
	e := newEnv(t)
	if _, err := e.run(t, "", "config", "init"); err != nil {
		t.Fatalf("config init: %v", err)
	}
	if _, err := e.run(t, "", "config", "init"); err == nil {
		t.Fatalf("second init without --force should fail")
	}
	out, err := e.run(t, "", "config", "show")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "anonymous_name:") || !strings.Contains(out, "# index.path overridden by "+config.EnvIndexPath) {
		t.Fatalf("unexpected config show:\n%s", out)
	}

	if _, err := e.run(t, "s3cret\n", "config", "set-password"); err != nil {
		t.Fatal(err)
	}
	if _, pw, _ := config.Load(e.config); pw != "s3cret" {
		t.Fatalf("password not stored, got %q", pw)
	}
	if _, err := e.run(t, "", "config", "forget-password"); err != nil {
		t.Fatal(err)
	}
	if len(e.store) != 0 {
		t.Fatalf("password not removed: %v", e.store)
	}
}

func TestVersionAndExecute(t *testing.T) {
	e := newEnv(t)
	out, err := e.run(t, "", "version")
	if err != nil || !strings.HasPrefix(out, "amish ") {
		t.Fatalf("version: %v %q", err, out)
	}
	info := &crash.Info{}
	if code := Execute(context.Background(), []string{"--config", e.config, "parse", e.script}, info); code != 0 {
		t.Fatalf("Execute exit code %d", code)
	}
	if len(info.Sources) != 1 || info.Sources[0] != e.script {
		t.Fatalf("sources not recorded: %v", info.Sources)
	}
	if code := Execute(context.Background(), []string{"--config", e.config, "nope"}, nil); code != 1 {
		t.Fatalf("unknown command exit code %d", code)
	}
}
