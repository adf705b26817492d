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
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/JesseTheCatLover/Amish/internal/script"
	"gopkg.in/yaml.v3"
)

// DialogueConfig selects the scripts and the language to show.
type DialogueConfig struct {
	// Language is a numeric index, a language name or a BCP 47 tag (see script.ParseLanguage).
	Language      string   `yaml:"language"`
	Sources       []string `yaml:"sources"`
	AnonymousName string   `yaml:"anonymous_name"`
}

type IndexConfig struct {
	Path          string `yaml:"path"`
	KeepSnapshots int    `yaml:"keep_snapshots"`
}

type BackendConfig struct {
	DSN       string `yaml:"dsn"`
	Project   string `yaml:"project"`
	TimeoutMs int    `yaml:"timeout_ms"`
	// Password is not stored on disk; it lives in the OS keychain.
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

// AppConfig is the user-editable configuration persisted to a YAML file in the user scope.
// Environment variables are treated as read-only overrides at runtime.
//
// config_version: bump when the structure changes in a backward-incompatible way.
type AppConfig struct {
	ConfigVersion int            `yaml:"config_version"`
	Dialogue      DialogueConfig `yaml:"dialogue"`
	Index         IndexConfig    `yaml:"index"`
	Backend       BackendConfig  `yaml:"backend"`
	Logging       LoggingConfig  `yaml:"logging"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		Dialogue:      DialogueConfig{Language: "english", AnonymousName: "???"},
		Index:         IndexConfig{Path: "amish-index.db", KeepSnapshots: 20},
		Backend:       BackendConfig{Project: "default", TimeoutMs: 15000},
		Logging:       LoggingConfig{Level: "info", Format: "console", Source: false, File: ""},
	}
}

// Env var names used as overrides.
const (
	EnvLanguage         = "AMISH_LANGUAGE"
	EnvSources          = "AMISH_SOURCES" // os.PathListSeparator separated
	EnvIndexPath        = "AMISH_INDEX_PATH"
	EnvPGDSN            = "AMISH_PG_DSN"
	EnvBackendProject   = "AMISH_PG_PROJECT"
	EnvBackendTimeoutMs = "AMISH_PG_TIMEOUT_MS"
	// EnvLogLevel Logging envs
	EnvLogLevel  = "AMISH_LOG_LEVEL"
	EnvLogFormat = "AMISH_LOG_FORMAT"
	EnvLogSource = "AMISH_LOG_SOURCE"
	EnvLogFile   = "AMISH_LOG_FILE"
)

// Service/keys for OS keyring.
const (
	keyringService  = "Amish"
	keyringPassword = "backend_password"
)

// secretStore abstracts keyring, so we can stub in tests.
var secretStore SecretStore = osKeyring{}

// SecretStore reads and writes secrets outside the config file.
type SecretStore interface {
	Get(service, key string) (string, error)
	Set(service, key, value string) error
	Delete(service, key string) error
}

// SetSecretStore swaps the keyring implementation and returns the previous one.
func SetSecretStore(s SecretStore) SecretStore {
	prev := secretStore
	secretStore = s
	return prev
}

// ConfigPath returns the per-user config file path.
func ConfigPath() (string, error) {
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" { // fallback
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "Amish")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "Amish")
	default: // linux and others
		base = filepath.Join(os.Getenv("HOME"), ".config", "amish")
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return filepath.Join(base, "config.yaml"), nil
}

// Load reads the config file at path (the per-user path when empty), applies defaults,
// and merges environment overrides. The backend password comes from the keyring and is
// returned separately. A missing file is not an error; a malformed one is.
func Load(path string) (AppConfig, string, error) {
	cfg := Defaults()
	if path == "" {
		p, err := ConfigPath()
		if err != nil {
			return cfg, "", err
		}
		path = p
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		var fileCfg AppConfig
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return cfg, "", fmt.Errorf("parse config %s: %w", path, err)
		}
		mergeInto(&cfg, &fileCfg)
	case !errors.Is(err, os.ErrNotExist):
		return cfg, "", fmt.Errorf("read config %s: %w", path, err)
	}
	applyEnvOverrides(&cfg)
	if _, err := script.ParseLanguage(cfg.Dialogue.Language); err != nil {
		return cfg, "", fmt.Errorf("config dialogue.language: %w", err)
	}
	// keyring may be unavailable on headless hosts; treat as no password
	pw, _ := secretStore.Get(keyringService, keyringPassword)
	return cfg, pw, nil
}

// Save writes the config YAML to path (the per-user path when empty) and persists the
// password into the OS keyring (if non-empty).
func Save(path string, cfg AppConfig, password string) error {
	if path == "" {
		p, err := ConfigPath()
		if err != nil {
			return err
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return err
	}
	if password != "" {
		if err := secretStore.Set(keyringService, keyringPassword, password); err != nil {
			return fmt.Errorf("store password: %w", err)
		}
	}
	return nil
}

// SetPassword stores the backend password in the keyring without touching the config file.
func SetPassword(password string) error {
	if password == "" {
		return errors.New("empty password")
	}
	if err := secretStore.Set(keyringService, keyringPassword, password); err != nil {
		return fmt.Errorf("store password: %w", err)
	}
	return nil
}

// ForgetPassword removes the backend password from the keyring.
func ForgetPassword() error {
	return secretStore.Delete(keyringService, keyringPassword)
}

// ParsedLanguage resolves the configured dialogue language.
func (d DialogueConfig) ParsedLanguage() (script.Language, error) {
	return script.ParseLanguage(d.Language)
}

// Timeout returns the backend timeout, falling back to the default for non-positive values.
func (b BackendConfig) Timeout() time.Duration {
	if b.TimeoutMs <= 0 {
		return time.Duration(Defaults().Backend.TimeoutMs) * time.Millisecond
	}
	return time.Duration(b.TimeoutMs) * time.Millisecond
}

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	if strings.TrimSpace(src.Dialogue.Language) != "" {
		dst.Dialogue.Language = strings.TrimSpace(src.Dialogue.Language)
	}
	if len(src.Dialogue.Sources) > 0 {
		dst.Dialogue.Sources = append([]string(nil), src.Dialogue.Sources...)
	}
	if src.Dialogue.AnonymousName != "" {
		dst.Dialogue.AnonymousName = src.Dialogue.AnonymousName
	}
	if strings.TrimSpace(src.Index.Path) != "" {
		dst.Index.Path = strings.TrimSpace(src.Index.Path)
	}
	if src.Index.KeepSnapshots != 0 {
		dst.Index.KeepSnapshots = src.Index.KeepSnapshots
	}
	if strings.TrimSpace(src.Backend.DSN) != "" {
		dst.Backend.DSN = strings.TrimSpace(src.Backend.DSN)
	}
	if strings.TrimSpace(src.Backend.Project) != "" {
		dst.Backend.Project = strings.TrimSpace(src.Backend.Project)
	}
	if src.Backend.TimeoutMs != 0 {
		dst.Backend.TimeoutMs = src.Backend.TimeoutMs
	}
	// logging
	if strings.TrimSpace(src.Logging.Level) != "" {
		dst.Logging.Level = strings.ToLower(strings.TrimSpace(src.Logging.Level))
	}
	if strings.TrimSpace(src.Logging.Format) != "" {
		dst.Logging.Format = strings.ToLower(strings.TrimSpace(src.Logging.Format))
	}
	dst.Logging.Source = src.Logging.Source
	if strings.TrimSpace(src.Logging.File) != "" {
		dst.Logging.File = strings.TrimSpace(src.Logging.File)
	}
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvLanguage)); v != "" {
		cfg.Dialogue.Language = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvSources)); v != "" {
		var srcs []string
		for _, p := range filepath.SplitList(v) {
			if p = strings.TrimSpace(p); p != "" {
				srcs = append(srcs, p)
			}
		}
		cfg.Dialogue.Sources = srcs
	}
	if v := strings.TrimSpace(os.Getenv(EnvIndexPath)); v != "" {
		cfg.Index.Path = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvPGDSN)); v != "" {
		cfg.Backend.DSN = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvBackendProject)); v != "" {
		cfg.Backend.Project = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvBackendTimeoutMs)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Backend.TimeoutMs = n
		}
	}
	// logging overrides
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		lv := strings.ToLower(v)
		cfg.Logging.Source = lv == "1" || lv == "true" || lv == "on" || lv == "yes"
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
}

var envKeys = map[string]string{
	"dialogue.language":  EnvLanguage,
	"dialogue.sources":   EnvSources,
	"index.path":         EnvIndexPath,
	"backend.dsn":        EnvPGDSN,
	"backend.project":    EnvBackendProject,
	"backend.timeout_ms": EnvBackendTimeoutMs,
	"logging.level":      EnvLogLevel,
	"logging.format":     EnvLogFormat,
	"logging.source":     EnvLogSource,
	"logging.file":       EnvLogFile,
}

// EnvOverrideFor returns the env var name if the field is overridden by environment variables.
func EnvOverrideFor(key string) (string, bool) {
	env, ok := envKeys[key]
	if !ok || os.Getenv(env) == "" {
		return "", false
	}
	return env, true
}
