package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// WriteDefault writes a starter config.toml. Returns the config file path.
// Skips if config.toml already exists.
func WriteDefault() (string, error) {
	dir := ConfigDir()
	path := filepath.Join(dir, "config.toml")

	if _, err := os.Stat(path); err == nil {
		return path, nil // already exists
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create config dir: %w", err)
	}

	content := fmt.Sprintf(`# claw-diary configuration
# recording_level: full | summary | minimal
recording_level = "full"
data_dir = %q
viewer_port = 7317
retention_days = 90

# Override or extend built-in model pricing ($ per million tokens):
# [custom_pricing."claude-opus-4-6"]
# input = 15.0
# output = 75.0
`, CompressHome(defaultDataDir()))

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write config: %w", err)
	}

	return path, nil
}
