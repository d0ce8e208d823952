// Package test holds end-to-end tests that exercise the compiled binary
// the way the hook source and a user would: hooks fed over stdin, reports
// read from stdout.
package test

import (
	"flag"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// binary is the path to the compiled clawdiary binary, set by TestMain.
var binary string

func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		os.Exit(0)
	}

	tmpDir, err := os.MkdirTemp("", "clawdiary-integration-*")
	if err != nil {
		fmt.Fprintf(os.Stderr, "create temp dir: %v\n", err)
		os.Exit(1)
	}
	defer os.RemoveAll(tmpDir)

	binary = filepath.Join(tmpDir, "clawdiary")
	cmd := exec.Command("go", "build", "-o", binary, "./cmd/clawdiary")
	// Test working dir is test/, so go up one level to project root.
	cmd.Dir = ".."
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "build clawdiary binary: %v\n", err)
		os.Exit(1)
	}

	os.Exit(m.Run())
}

// run invokes the binary with stdin content and returns combined output.
func run(t *testing.T, dataDir, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := exec.Command(binary, append([]string{"--data-dir", dataDir}, args...)...)
	cmd.Env = append(os.Environ(), "XDG_CONFIG_HOME="+filepath.Join(dataDir, "xdg"))
	if stdin != "" {
		cmd.Stdin = strings.NewReader(stdin)
	}
	out, err := cmd.CombinedOutput()
	return string(out), err
}

func TestHookLifecycleToReport(t *testing.T) {
	dataDir := t.TempDir()

	steps := []struct {
		point   string
		payload string
	}{
		{"session-start", `{}`},
		{"before", `{"toolName":"Read","toolArgs":{"path":"main.go"}}`},
		{"after", `{"toolName":"Read","model":"claude-opus-4-6","result":{"success":true},"tokenUsage":{"input":1000,"output":500}}`},
		{"session-stop", `{}`},
	}
	for _, step := range steps {
		if out, err := run(t, dataDir, step.payload, "hook", step.point); err != nil {
			t.Fatalf("hook %s: %v\n%s", step.point, err, out)
		}
	}

	out, err := run(t, dataDir, "", "day", time.Now().Format("2006-01-02"))
	if err != nil {
		t.Fatalf("day: %v\n%s", err, out)
	}
	if !strings.Contains(out, "| Sessions | 1 |") {
		t.Errorf("report missing session count:\n%s", out)
	}
	if !strings.Contains(out, "$0.05") {
		t.Errorf("report missing the estimated cost:\n%s", out)
	}
}

func TestHookUnknownPointExitsNonZero(t *testing.T) {
	out, err := run(t, t.TempDir(), "{}", "hook", "resume")
	if err == nil {
		t.Fatalf("unknown hook point should exit non-zero, output:\n%s", out)
	}
}

func TestHookMalformedStdinStillSucceeds(t *testing.T) {
	dataDir := t.TempDir()

	if out, err := run(t, dataDir, "not json", "hook", "session-start"); err != nil {
		t.Fatalf("hook with malformed stdin: %v\n%s", err, out)
	}

	out, err := run(t, dataDir, "", "today")
	if err != nil {
		t.Fatalf("today: %v\n%s", err, out)
	}
	if !strings.Contains(out, "| Sessions | 1 |") {
		t.Errorf("session not recorded:\n%s", out)
	}
}

func TestSearchAcrossDays(t *testing.T) {
	dataDir := t.TempDir()

	if out, err := run(t, dataDir, `{"toolName":"Grep"}`, "hook", "before"); err != nil {
		t.Fatalf("hook before: %v\n%s", err, out)
	}

	out, err := run(t, dataDir, "", "search", "grep")
	if err != nil {
		t.Fatalf("search: %v\n%s", err, out)
	}
	if !strings.Contains(out, "1 matches") {
		t.Errorf("search output:\n%s", out)
	}
}

func TestStatsRuns(t *testing.T) {
	dataDir := t.TempDir()

	payload := `{"toolName":"Bash","model":"claude-sonnet-4-6","result":{"success":true},"tokenUsage":{"input":200,"output":100}}`
	if out, err := run(t, dataDir, payload, "hook", "after"); err != nil {
		t.Fatalf("hook after: %v\n%s", err, out)
	}
	// An after without a session is a no-op; record via before first.
	if out, err := run(t, dataDir, `{"toolName":"Bash"}`, "hook", "before"); err != nil {
		t.Fatalf("hook before: %v\n%s", err, out)
	}
	if out, err := run(t, dataDir, payload, "hook", "after"); err != nil {
		t.Fatalf("hook after: %v\n%s", err, out)
	}

	out, err := run(t, dataDir, "", "stats")
	if err != nil {
		t.Fatalf("stats: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Tool calls") {
		t.Errorf("stats output:\n%s", out)
	}
}
