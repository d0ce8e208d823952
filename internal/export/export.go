// Package export writes point-in-time snapshots of the recorded activity
// to markdown, HTML, or JSON files.
package export

import (
	"encoding/json"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/0xbeekeeper/claw-diary/internal/aggregate"
	"github.com/0xbeekeeper/claw-diary/internal/event"
	"github.com/0xbeekeeper/claw-diary/internal/narrative"
	"github.com/0xbeekeeper/claw-diary/internal/store"
)

// Supported snapshot formats.
const (
	FormatMarkdown = "markdown"
	FormatHTML     = "html"
	FormatJSON     = "json"
)

// snapshot is the JSON export shape: per-day summaries plus raw events.
type snapshot struct {
	GeneratedAt time.Time     `json:"generatedAt"`
	Days        []daySnapshot `json:"days"`
}

type daySnapshot struct {
	Summary aggregate.DailySummary `json:"summary"`
	Events  []event.Event          `json:"events"`
}

// Run exports every stored day to one snapshot file in destDir and returns
// the written path.
func Run(s *store.Store, destDir, format string, now time.Time) (string, error) {
	dates, err := s.Dates()
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}

	stamp := now.Format("20060102-150405")
	switch format {
	case FormatMarkdown:
		return writeMarkdown(s, dates, filepath.Join(destDir, "claw-diary-"+stamp+".md"))
	case FormatHTML:
		return writeHTML(s, dates, filepath.Join(destDir, "claw-diary-"+stamp+".html"), now)
	case FormatJSON:
		return writeJSON(s, dates, filepath.Join(destDir, "claw-diary-"+stamp+".json"), now)
	default:
		return "", fmt.Errorf("unknown export format %q (want markdown, html, or json)", format)
	}
}

func writeMarkdown(s *store.Store, dates []time.Time, path string) (string, error) {
	var b strings.Builder
	for i, date := range dates {
		if i > 0 {
			b.WriteString("\n---\n\n")
		}
		day, err := aggregate.SummarizeDay(s, date)
		if err != nil {
			return "", err
		}
		b.WriteString(narrative.RenderDay(day))
	}
	if b.Len() == 0 {
		b.WriteString("No recorded activity.\n")
	}

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	return path, nil
}

var htmlPage = template.Must(template.New("export").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>claw-diary export</title>
<style>
body { font-family: monospace; max-width: 72em; margin: 2em auto; }
pre { white-space: pre-wrap; }
</style>
</head>
<body>
<h1>claw-diary export</h1>
<p>Generated {{.GeneratedAt}}</p>
{{range .Days}}<pre>{{.}}</pre>
{{end}}</body>
</html>
`))

func writeHTML(s *store.Store, dates []time.Time, path string, now time.Time) (string, error) {
	var days []string
	for _, date := range dates {
		day, err := aggregate.SummarizeDay(s, date)
		if err != nil {
			return "", err
		}
		days = append(days, narrative.RenderDay(day))
	}

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create export: %w", err)
	}

	data := struct {
		GeneratedAt string
		Days        []string
	}{now.Format(time.RFC3339), days}

	if err := htmlPage.Execute(f, data); err != nil {
		f.Close()
		return "", fmt.Errorf("render export: %w", err)
	}
	return path, f.Close()
}

func writeJSON(s *store.Store, dates []time.Time, path string, now time.Time) (string, error) {
	snap := snapshot{GeneratedAt: now}
	for _, date := range dates {
		events, err := s.Load(date)
		if err != nil {
			return "", err
		}
		day := aggregate.Summarize(date, events)
		snap.Days = append(snap.Days, daySnapshot{Summary: day, Events: events})
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal export: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	return path, nil
}
