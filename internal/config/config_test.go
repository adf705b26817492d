/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
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

func useMemStore(t *testing.T) memStore {
	t.Helper()
	m := memStore{}
	prev := SetSecretStore(m)
	t.Cleanup(func() { SetSecretStore(prev) })
	return m
}

func missingPath(t *testing.T) string {
	return filepath.Join(t.TempDir(), "none.yaml")
}

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	useMemStore(t)
	cfg, pw, err := Load(missingPath(t))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if pw != "" {
		t.Fatalf("expected no password, got %q", pw)
	}
	if cfg.Dialogue.AnonymousName != "???" || cfg.Dialogue.Language != "english" || cfg.Index.KeepSnapshots != 20 {
		t.Fatalf("unexpected defaults: %#v", cfg)
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	store := useMemStore(t)
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Defaults()
	cfg.Dialogue.Language = "fa"
	cfg.Dialogue.Sources = []string{"scripts/intro", "scripts/act1.jdialogue"}
	cfg.Backend.DSN = "postgres://amish@localhost:5432/amish"
	if err := Save(path, cfg, "s3cret"); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	if store[keyringService+"/"+keyringPassword] != "s3cret" {
		t.Fatalf("password not stored in keyring")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read saved config: %v", err)
	}
	if string(b) == "" || strings.Contains(string(b), "s3cret") {
		t.Fatalf("password must not be written to disk:\n%s", b)
	}
	got, pw, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if pw != "s3cret" || got.Dialogue.Language != "fa" || len(got.Dialogue.Sources) != 2 || got.Backend.DSN != cfg.Backend.DSN {
		t.Fatalf("round trip mismatch: %#v pw=%q", got, pw)
	}
	if err := ForgetPassword(); err != nil {
		t.Fatalf("ForgetPassword() error: %v", err)
	}
	if _, pw, _ = Load(path); pw != "" {
		t.Fatalf("password should be gone, got %q", pw)
	}
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	useMemStore(t)
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("dialogue: [unclosed"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, _, err := Load(path); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestLoadRejectsUnknownLanguage(t *testing.T) {
	useMemStore(t)
	t.Setenv(EnvLanguage, "klingon")
	if _, _, err := Load(missingPath(t)); err == nil {
		t.Fatalf("expected language error")
	}
}

func TestEnvOverridesDialogueAndBackend(t *testing.T) {
	useMemStore(t)
	t.Setenv(EnvLanguage, "1")
	t.Setenv(EnvSources, "a"+string(os.PathListSeparator)+" b ")
	t.Setenv(EnvIndexPath, "/tmp/idx.db")
	t.Setenv(EnvPGDSN, "postgres://example.test/amish")
	t.Setenv(EnvBackendTimeoutMs, "250")
	cfg, _, err := Load(missingPath(t))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	lang, err := cfg.Dialogue.ParsedLanguage()
	if err != nil || lang.String() != "persian" {
		t.Fatalf("language = %v (%v)", lang, err)
	}
	if len(cfg.Dialogue.Sources) != 2 || cfg.Dialogue.Sources[1] != "b" {
		t.Fatalf("sources = %#v", cfg.Dialogue.Sources)
	}
	if cfg.Index.Path != "/tmp/idx.db" || cfg.Backend.DSN != "postgres://example.test/amish" {
		t.Fatalf("overrides not applied: %#v", cfg)
	}
	if cfg.Backend.Timeout() != 250*time.Millisecond {
		t.Fatalf("timeout = %v", cfg.Backend.Timeout())
	}
	if env, ok := EnvOverrideFor("backend.dsn"); !ok || env != EnvPGDSN {
		t.Fatalf("EnvOverrideFor(backend.dsn) = %q, %v", env, ok)
	}
	if _, ok := EnvOverrideFor("logging.file"); ok {
		t.Fatalf("logging.file should not be overridden")
	}
}

func TestMergeIncludesLogging(t *testing.T) {
	dst := Defaults()
	src := Defaults()
	src.Logging.Level = "DEBUG"
	src.Logging.Format = "json"
	src.Logging.Source = true
	src.Logging.File = "C:/tmp/amish.log"
	mergeInto(&dst, &src)
	if dst.Logging.Level != "debug" || dst.Logging.Format != "json" || !dst.Logging.Source || dst.Logging.File != "C:/tmp/amish.log" {
		t.Fatalf("logging fields not merged correctly: %#v", dst.Logging)
	}
}

func TestEnvOverridesLogging(t *testing.T) {
	useMemStore(t)
	t.Setenv(EnvLogLevel, "error")
	t.Setenv(EnvLogFormat, "json")
	t.Setenv(EnvLogSource, "1")
	t.Setenv(EnvLogFile, "X:/amish.log")
	cfg, _, err := Load(missingPath(t))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Logging.Level != "error" || cfg.Logging.Format != "json" || !cfg.Logging.Source || cfg.Logging.File != "X:/amish.log" {
		t.Fatalf("env overrides not applied to logging: %#v", cfg.Logging)
	}
}

func TestBackendTimeoutFallback(t *testing.T) {
	if (BackendConfig{}).Timeout() != 15*time.Second {
		t.Fatalf("zero timeout should fall back to default")
	}
}
