// Package setup installs the clawdiary hook entries into the Claude Code
// settings file. Install and Uninstall are idempotent and always take a
// backup before touching an existing file.
package setup

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/0xbeekeeper/claw-diary/internal/config"
)

const commandPrefix = "clawdiary hook"

// hookEvents maps Claude Code lifecycle events to clawdiary hook points.
var hookEvents = []struct {
	event string
	point string
}{
	{"SessionStart", "session-start"},
	{"PreToolUse", "before"},
	{"PostToolUse", "after"},
	{"SessionEnd", "session-stop"},
}

// SettingsPath returns the path to ~/.claude/settings.json.
func SettingsPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("determine home directory: %w", err)
	}
	return filepath.Join(home, ".claude", "settings.json"), nil
}

// Install adds the four hook entries to the settings file at path.
// Idempotent: already-installed entries are left alone.
func Install(path string) error {
	settings, err := readSettings(path)
	if err != nil {
		return err
	}

	if isInstalled(settings) {
		fmt.Fprintf(os.Stderr, "clawdiary hooks already configured in %s\n", config.CompressHome(path))
		return nil
	}

	if err := backup(path); err != nil {
		return err
	}
	addHooks(settings)
	if err := writeSettings(path, settings); err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "clawdiary hooks installed in %s\n", config.CompressHome(path))
	return nil
}

// Uninstall removes every clawdiary hook entry from the settings file.
// Idempotent: a file without our entries is left untouched.
func Uninstall(path string) error {
	settings, err := readSettings(path)
	if err != nil {
		return err
	}

	if !hasAnyHook(settings) {
		fmt.Fprintf(os.Stderr, "clawdiary hooks not found in %s\n", config.CompressHome(path))
		return nil
	}

	if err := backup(path); err != nil {
		return err
	}
	removeHooks(settings)
	if err := writeSettings(path, settings); err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "clawdiary hooks removed from %s\n", config.CompressHome(path))
	return nil
}

// readSettings parses the settings file, treating a missing or empty file
// as an empty settings object.
func readSettings(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return make(map[string]any), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", config.CompressHome(path), err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return make(map[string]any), nil
	}

	var settings map[string]any
	if err := json.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("parse %s: %w", config.CompressHome(path), err)
	}
	return settings, nil
}

func writeSettings(path string, settings map[string]any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", config.CompressHome(path), err)
	}
	return nil
}

// backup copies the settings file to path.bak. No-op if it doesn't exist.
func backup(path string) error {
	src, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("backup: open %s: %w", config.CompressHome(path), err)
	}
	defer src.Close()

	dst, err := os.Create(path + ".bak")
	if err != nil {
		return fmt.Errorf("backup: create %s.bak: %w", config.CompressHome(path), err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("backup: copy: %w", err)
	}
	return dst.Close()
}

// isInstalled reports whether every lifecycle event has our hook entry.
func isInstalled(settings map[string]any) bool {
	hooksMap, ok := settings["hooks"].(map[string]any)
	if !ok {
		return false
	}
	for _, h := range hookEvents {
		if !eventHasHook(hooksMap, h.event) {
			return false
		}
	}
	return true
}

// hasAnyHook reports whether any lifecycle event has our hook entry.
func hasAnyHook(settings map[string]any) bool {
	hooksMap, ok := settings["hooks"].(map[string]any)
	if !ok {
		return false
	}
	for _, h := range hookEvents {
		if eventHasHook(hooksMap, h.event) {
			return true
		}
	}
	return false
}

// addHooks ensures every lifecycle event has an entry for its hook point.
func addHooks(settings map[string]any) {
	hooksMap, ok := settings["hooks"].(map[string]any)
	if !ok {
		hooksMap = make(map[string]any)
		settings["hooks"] = hooksMap
	}

	for _, h := range hookEvents {
		if eventHasHook(hooksMap, h.event) {
			continue
		}

		entry := map[string]any{
			"matcher": "",
			"hooks": []any{
				map[string]any{
					"type":    "command",
					"command": commandPrefix + " " + h.point,
				},
			},
		}

		eventArray, ok := hooksMap[h.event].([]any)
		if !ok {
			eventArray = []any{}
		}
		hooksMap[h.event] = append(eventArray, entry)
	}
}

// removeHooks strips our entries from every event, cleaning up arrays and
// the hooks map when they empty out. Foreign entries are preserved.
func removeHooks(settings map[string]any) {
	hooksMap, ok := settings["hooks"].(map[string]any)
	if !ok {
		return
	}

	for _, h := range hookEvents {
		eventArray, ok := hooksMap[h.event].([]any)
		if !ok {
			continue
		}

		var kept []any
		for _, entry := range eventArray {
			if !entryContainsHook(entry) {
				kept = append(kept, entry)
			}
		}

		if len(kept) == 0 {
			delete(hooksMap, h.event)
		} else {
			hooksMap[h.event] = kept
		}
	}

	if len(hooksMap) == 0 {
		delete(settings, "hooks")
	}
}

func eventHasHook(hooksMap map[string]any, event string) bool {
	eventArray, ok := hooksMap[event].([]any)
	if !ok {
		return false
	}
	for _, entry := range eventArray {
		if entryContainsHook(entry) {
			return true
		}
	}
	return false
}

// entryContainsHook checks one matcher entry for a clawdiary hook command.
func entryContainsHook(entry any) bool {
	entryMap, ok := entry.(map[string]any)
	if !ok {
		return false
	}
	hooks, ok := entryMap["hooks"].([]any)
	if !ok {
		return false
	}
	for _, hook := range hooks {
		hookMap, ok := hook.(map[string]any)
		if !ok {
			continue
		}
		if cmd, ok := hookMap["command"].(string); ok && strings.Contains(cmd, commandPrefix) {
			return true
		}
	}
	return false
}
