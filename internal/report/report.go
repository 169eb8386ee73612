// Package report renders a session's patient summary to a standalone
// HTML document on disk.
package report

import (
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pharmagen-dev/pharmagen/internal/chat"
	"github.com/pharmagen-dev/pharmagen/internal/diagnosis"
)

// ErrUnavailable is returned when no report can be produced: export is
// disabled or the session has no diagnosis yet.
var ErrUnavailable = errors.New("report: no report available")

const disclaimer = "This report is generated by an AI assistant for " +
	"informational purposes only and is not medical advice. Always " +
	"consult a licensed doctor before acting on it."

var reportTmpl = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>PharmaGEN Patient Report</title>
<style>
body { font-family: sans-serif; max-width: 48rem; margin: 2rem auto; color: #222; }
h1 { border-bottom: 2px solid #2a6f97; padding-bottom: .3rem; }
h2 { color: #2a6f97; margin-top: 1.5rem; }
.meta { color: #666; font-size: .85rem; }
.translated { margin-top: 2rem; padding: 1rem; background: #f1f6f9; white-space: pre-wrap; }
.disclaimer { margin-top: 2rem; padding: 1rem; background: #fff3cd; border: 1px solid #ffe69c; font-size: .85rem; }
</style>
</head>
<body>
<h1>PharmaGEN Patient Report</h1>
<p class="meta">Session {{.SessionID}} &middot; {{.Language}} &middot; generated {{.GeneratedAt}}</p>
{{range .Sections}}<h2>{{.Title}}</h2>
<p>{{.Body}}</p>
{{end}}{{if .TranslatedSummary}}<h2>Summary ({{.Language}})</h2>
<div class="translated">{{.TranslatedSummary}}</div>
{{end}}{{if .Disclaimer}}<div class="disclaimer">{{.Disclaimer}}</div>
{{end}}</body>
</html>
`))

type reportData struct {
	SessionID         string
	Language          string
	GeneratedAt       string
	Sections          []reportSection
	TranslatedSummary string
	Disclaimer        string
}

type reportSection struct {
	Title string
	Body  string
}

// Exporter writes patient reports into a fixed output directory.
type Exporter struct {
	enabled        bool
	outputDir      string
	showDisclaimer bool
	logger         *slog.Logger

	now func() time.Time
}

// NewExporter creates an Exporter. When enabled is false every Export
// call fails with ErrUnavailable.
func NewExporter(enabled bool, outputDir string, showDisclaimer bool, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{
		enabled:        enabled,
		outputDir:      outputDir,
		showDisclaimer: showDisclaimer,
		logger:         logger.With("component", "report"),
		now:            time.Now,
	}
}

// Export renders the session's report and returns the written file
// path. The session must have completed its diagnosis turn.
func (e *Exporter) Export(session *chat.Session) (string, error) {
	if !e.enabled || session == nil || session.DiagnosisEnglish == "" {
		return "", ErrUnavailable
	}

	if err := os.MkdirAll(e.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("report: create output dir: %w", err)
	}

	fields := diagnosis.Extract(session.DiagnosisEnglish)
	data := reportData{
		SessionID:   session.ID,
		Language:    session.Language,
		GeneratedAt: e.now().UTC().Format(time.RFC3339),
		Sections: []reportSection{
			{Title: "Symptoms", Body: session.SymptomsEnglish},
			{Title: "Allergies", Body: session.AllergiesEnglish},
			{Title: "Diagnosis", Body: fields.Diagnosis},
			{Title: "Medicine", Body: fields.Drug},
			{Title: "Dosage", Body: fields.Dosage},
			{Title: "Safety Notes", Body: fields.Safety},
		},
	}
	if session.LanguageCode != "" && session.LanguageCode != "en" {
		data.TranslatedSummary = session.TranslatedSummary
	}
	if e.showDisclaimer {
		data.Disclaimer = disclaimer
	}

	var b strings.Builder
	if err := reportTmpl.Execute(&b, data); err != nil {
		return "", fmt.Errorf("report: render: %w", err)
	}

	name := fmt.Sprintf("pharmagen_report_%s.html", e.now().UTC().Format("20060102_150405"))
	path := filepath.Join(e.outputDir, name)
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", fmt.Errorf("report: write %s: %w", path, err)
	}

	e.logger.Info("report written", "path", path, "session", session.ID)
	return path, nil
}
