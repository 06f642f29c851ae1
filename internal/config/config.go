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
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/zalando/go-keyring"
	"gopkg.in/yaml.v3"
)

// AppConfig is the user-editable configuration persisted to a YAML file in the user scope.
// Environment variables are treated as read-only overrides at runtime.
//
// config_version: bump when the structure changes in a backward-incompatible way.
// Unknown fields are ignored on unmarshal.

type HistoryConfig struct {
	MaxUndoSteps int  `yaml:"max_undo_steps"`
	Tracking     bool `yaml:"tracking"`
}

type CanvasConfig struct {
	ScreenDPI float64 `yaml:"screen_dpi"`
	MaxZoom   float64 `yaml:"max_zoom"`
}

type ColorConfig struct {
	// ProfilesDir holds RgbColorProfile.icm, CmykColorProfile.icm and
	// GrayscaleColorProfile.icm. Empty selects the built-in profiles.
	ProfilesDir string `yaml:"profiles_dir"`
}

type StorageConfig struct {
	Driver string `yaml:"driver"` // "memory" | "sqlite" | "postgres"
	Path   string `yaml:"path"`   // sqlite database file
	DSN    string `yaml:"dsn"`    // postgres DSN without password
	// The postgres password is not stored on disk; it lives in the OS keychain.
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
	// Rotation of the log file; zero keeps the logger defaults.
	MaxSizeMB  int `yaml:"max_size_mb"`
	MaxBackups int `yaml:"max_backups"`
}

type AppConfig struct {
	ConfigVersion int           `yaml:"config_version"`
	History       HistoryConfig `yaml:"history"`
	Canvas        CanvasConfig  `yaml:"canvas"`
	Color         ColorConfig   `yaml:"color"`
	Storage       StorageConfig `yaml:"storage"`
	Logging       LoggingConfig `yaml:"logging"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		History:       HistoryConfig{MaxUndoSteps: 50, Tracking: true},
		Canvas:        CanvasConfig{ScreenDPI: 96, MaxZoom: 16},
		Color:         ColorConfig{ProfilesDir: ""},
		Storage:       StorageConfig{Driver: "memory"},
		Logging:       LoggingConfig{Level: "info", Format: "console", Source: false, File: ""},
	}
}

// Env var names used as overrides.
const (
	EnvMaxUndoSteps   = "GCV_MAX_UNDO_STEPS"
	EnvHistoryTrack   = "GCV_HISTORY_TRACKING"
	EnvScreenDPI      = "GCV_SCREEN_DPI"
	EnvMaxZoom        = "GCV_MAX_ZOOM"
	EnvProfilesDir    = "GCV_PROFILES_DIR"
	EnvStorageDriver  = "GCV_STORAGE_DRIVER"
	EnvStoragePath    = "GCV_STORAGE_PATH"
	EnvStorageDSN     = "GCV_STORAGE_DSN"
	EnvStoragePasswd  = "GCV_STORAGE_PASSWORD"
	// EnvLogLevel Logging envs
	EnvLogLevel  = "GCV_LOG_LEVEL"
	EnvLogFormat = "GCV_LOG_FORMAT"
	EnvLogSource = "GCV_LOG_SOURCE"
	EnvLogFile   = "GCV_LOG_FILE"
)

// Service/keys for OS keyring.
const (
	keyringService  = "GoCanvas"
	keyringPassword = "storage_password"
)

// secretStore abstracts keyring, so we can stub in tests.
var secretStore SecretStore = osKeyring{}

type SecretStore interface {
	Get(service, key string) (string, error)
	Set(service, key, value string) error
	Delete(service, key string) error
}

// osKeyring implements SecretStore using the OS keyring via github.com/zalando/go-keyring.
type osKeyring struct{}

func (osKeyring) Get(service, key string) (string, error) { return keyring.Get(service, key) }
func (osKeyring) Set(service, key, value string) error    { return keyring.Set(service, key, value) }
func (osKeyring) Delete(service, key string) error        { return keyring.Delete(service, key) }

// ConfigPath returns the per-user config file path.
func ConfigPath() (string, error) {
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" { // fallback
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "GoCanvas")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "GoCanvas")
	default: // linux and others
		base = filepath.Join(os.Getenv("HOME"), ".config", "gocanvas")
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return filepath.Join(base, "config.yaml"), nil
}

// Load reads the user config file (if present), applies defaults, and merges environment overrides.
// It also loads the storage password from the keyring (not kept inside the struct; returned separately).
func Load() (AppConfig, string, error) {
	path, err := ConfigPath()
	if err != nil {
		return Defaults(), "", err
	}
	return LoadFrom(path)
}

// LoadFrom is Load with an explicit config file path.
func LoadFrom(path string) (AppConfig, string, error) {
	cfg := Defaults()
	if data, err := os.ReadFile(path); err == nil {
		var fileCfg AppConfig
		if err := yaml.Unmarshal(data, &fileCfg); err == nil {
			mergeInto(&cfg, &fileCfg)
		}
	}
	applyEnvOverrides(&cfg)
	pw := strings.TrimSpace(os.Getenv(EnvStoragePasswd))
	if pw == "" {
		pw, _ = secretStore.Get(keyringService, keyringPassword)
	}
	return cfg, pw, nil
}

// Save writes the user config YAML and persists the password into the OS keyring (if non-empty).
func Save(cfg AppConfig, password string) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveTo(path, cfg, password)
}

// SaveTo is Save with an explicit config file path.
func SaveTo(path string, cfg AppConfig, password string) error {
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
			return err
		}
	}
	return nil
}

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	if src.History.MaxUndoSteps > 0 {
		dst.History.MaxUndoSteps = src.History.MaxUndoSteps
	}
	// booleans: copy directly from src (file) so user preferences persist
	dst.History.Tracking = src.History.Tracking
	if src.Canvas.ScreenDPI > 0 {
		dst.Canvas.ScreenDPI = src.Canvas.ScreenDPI
	}
	if src.Canvas.MaxZoom > 0 {
		dst.Canvas.MaxZoom = src.Canvas.MaxZoom
	}
	if strings.TrimSpace(src.Color.ProfilesDir) != "" {
		dst.Color.ProfilesDir = strings.TrimSpace(src.Color.ProfilesDir)
	}
	if strings.TrimSpace(src.Storage.Driver) != "" {
		dst.Storage.Driver = strings.ToLower(strings.TrimSpace(src.Storage.Driver))
	}
	if strings.TrimSpace(src.Storage.Path) != "" {
		dst.Storage.Path = strings.TrimSpace(src.Storage.Path)
	}
	if strings.TrimSpace(src.Storage.DSN) != "" {
		dst.Storage.DSN = strings.TrimSpace(src.Storage.DSN)
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
	if src.Logging.MaxSizeMB > 0 {
		dst.Logging.MaxSizeMB = src.Logging.MaxSizeMB
	}
	if src.Logging.MaxBackups > 0 {
		dst.Logging.MaxBackups = src.Logging.MaxBackups
	}
}

func parseBool(v string) bool {
	lv := strings.ToLower(v)
	return lv == "1" || lv == "true" || lv == "on" || lv == "yes"
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvMaxUndoSteps)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.History.MaxUndoSteps = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvHistoryTrack)); v != "" {
		cfg.History.Tracking = parseBool(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvScreenDPI)); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			cfg.Canvas.ScreenDPI = f
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvMaxZoom)); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			cfg.Canvas.MaxZoom = f
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvProfilesDir)); v != "" {
		cfg.Color.ProfilesDir = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvStorageDriver)); v != "" {
		cfg.Storage.Driver = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvStoragePath)); v != "" {
		cfg.Storage.Path = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvStorageDSN)); v != "" {
		cfg.Storage.DSN = v
	}
	// logging overrides
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		cfg.Logging.Source = parseBool(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
}

// EnvOverrideFor returns the env var name if the field is overridden by environment variables.
func EnvOverrideFor(key string) (string, bool) {
	names := map[string]string{
		"history.max_undo_steps": EnvMaxUndoSteps,
		"history.tracking":       EnvHistoryTrack,
		"canvas.screen_dpi":      EnvScreenDPI,
		"canvas.max_zoom":        EnvMaxZoom,
		"color.profiles_dir":     EnvProfilesDir,
		"storage.driver":         EnvStorageDriver,
		"storage.path":           EnvStoragePath,
		"storage.dsn":            EnvStorageDSN,
		"logging.level":          EnvLogLevel,
		"logging.format":         EnvLogFormat,
		"logging.source":         EnvLogSource,
		"logging.file":           EnvLogFile,
	}
	if env, ok := names[key]; ok && os.Getenv(env) != "" {
		return env, true
	}
	return "", false
}

// PostgresDSN returns the configured DSN with password injected into the
// URL user info. DSNs in key=value form get a password=... pair appended.
func (s StorageConfig) PostgresDSN(password string) (string, error) {
	if password == "" {
		return s.DSN, nil
	}
	if strings.HasPrefix(s.DSN, "postgres://") || strings.HasPrefix(s.DSN, "postgresql://") {
		u, err := url.Parse(s.DSN)
		if err != nil {
			return "", err
		}
		user := ""
		if u.User != nil {
			user = u.User.Username()
		}
		u.User = url.UserPassword(user, password)
		return u.String(), nil
	}
	return strings.TrimSpace(s.DSN + " password=" + password), nil
}
