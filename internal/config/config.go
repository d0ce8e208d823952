// Package config loads claw-diary configuration. Config is read fresh on
// every invocation; a missing or malformed file silently yields defaults so
// a bad config can never break hook handling.
package config

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/0xbeekeeper/claw-diary/internal/pricing"
)

// Recording levels control how much detail is persisted per event.
const (
	LevelFull    = "full"    // everything, including sanitized tool args
	LevelSummary = "summary" // events without args or output previews
	LevelMinimal = "minimal" // session boundaries only
)

// Config holds all claw-diary configuration.
type Config struct {
	RecordingLevel string                        `toml:"recording_level" json:"recordingLevel"`
	DataDir        string                        `toml:"data_dir" json:"dataDir"`
	CustomPricing  map[string]pricing.ModelPrice `toml:"custom_pricing" json:"customPricing"`
	ViewerPort     int                           `toml:"viewer_port" json:"viewerPort"`
	RetentionDays  int                           `toml:"retention_days" json:"retentionDays"`
}

// Default returns config with sensible defaults.
func Default() Config {
	return Config{
		RecordingLevel: LevelFull,
		DataDir:        defaultDataDir(),
		ViewerPort:     7317,
		RetentionDays:  90,
	}
}

// Load reads config from the standard paths, falling back to defaults.
// config.toml wins over config.json when both exist.
func Load() Config {
	cfg := Default()

	for _, p := range configPaths() {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := decodeInto(p, &cfg); err != nil {
			log.Printf("warning: ignoring config %s: %v", p, err)
			cfg = Default()
			continue
		}
		break
	}

	if !validLevel(cfg.RecordingLevel) {
		cfg.RecordingLevel = LevelFull
	}
	cfg.DataDir = expandHome(cfg.DataDir)
	if cfg.DataDir == "" {
		cfg.DataDir = defaultDataDir()
	}
	return cfg
}

// Pricing returns the merged pricing table for this config.
func (c Config) Pricing() *pricing.Table {
	return pricing.NewTable(c.CustomPricing)
}

// ConfigDir returns the claw-diary config directory path.
// Uses $XDG_CONFIG_HOME/claw-diary if set, otherwise ~/.config/claw-diary.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "claw-diary")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "claw-diary")
}

func configPaths() []string {
	dir := ConfigDir()
	return []string{
		filepath.Join(dir, "config.toml"),
		filepath.Join(dir, "config.json"),
	}
}

func decodeInto(path string, cfg *Config) error {
	if strings.HasSuffix(path, ".json") {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		return json.Unmarshal(data, cfg)
	}
	_, err := toml.DecodeFile(path, cfg)
	return err
}

func defaultDataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "claw-diary")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "claw-diary")
}

func validLevel(level string) bool {
	switch level {
	case LevelFull, LevelSummary, LevelMinimal:
		return true
	}
	return false
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}

// CompressHome replaces the $HOME prefix with ~/ for display.
func CompressHome(path string) string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return path
	}
	if strings.HasPrefix(path, home+"/") {
		return "~/" + path[len(home)+1:]
	}
	if path == home {
		return "~"
	}
	return path
}
