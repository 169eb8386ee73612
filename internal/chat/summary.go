package chat

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/pharmagen-dev/pharmagen/internal/diagnosis"
)

// summarySection is one fixed block of the patient report. Sections are
// always rendered in declaration order.
type summarySection struct {
	Title string
	Body  string
}

// reportSections assembles the six fixed report sections from session
// state and extracted diagnosis fields, in their canonical order.
func reportSections(s *Session, fields diagnosis.Fields, useOriginal bool) []summarySection {
	symptoms := s.SymptomsEnglish
	allergies := s.AllergiesEnglish
	if useOriginal {
		symptoms = s.SymptomsOriginal
		allergies = s.AllergiesOriginal
	}
	return []summarySection{
		{Title: "Symptoms", Body: symptoms},
		{Title: "Allergies", Body: allergies},
		{Title: "Diagnosis", Body: fields.Diagnosis},
		{Title: "Medicine", Body: fields.Drug},
		{Title: "Dosage", Body: fields.Dosage},
		{Title: "Safety Notes", Body: fields.Safety},
	}
}

// buildEnglishSummary renders the canonical English report as Markdown
// bold-label lines.
func buildEnglishSummary(s *Session, fields diagnosis.Fields) string {
	var b strings.Builder
	b.WriteString("## Patient Report\n\n")
	for _, sec := range reportSections(s, fields, false) {
		fmt.Fprintf(&b, "**%s:** %s\n\n", sec.Title, sec.Body)
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}

// buildTranslatedSummary renders the report in the session language.
// Section titles are translated from English; symptom and allergy
// bodies reuse the user's original wording, diagnosis-derived bodies
// are translated from the extracted English text. Bodies equal to the
// not-found sentinel pass through untranslated. Title and body
// translations run concurrently since each is an independent gateway
// call.
func (e *Engine) buildTranslatedSummary(ctx context.Context, s *Session, fields diagnosis.Fields) string {
	sections := reportSections(s, fields, true)
	if s.LanguageCode == "" || s.LanguageCode == "en" {
		return renderTranslatedSections(sections)
	}

	english := reportSections(s, fields, false)
	out := make([]summarySection, len(sections))
	g, gctx := errgroup.WithContext(ctx)
	for i := range sections {
		i := i
		g.Go(func() error {
			out[i].Title = e.translator.Translate(gctx, sections[i].Title, "en", s.LanguageCode)
			return nil
		})
		g.Go(func() error {
			body := sections[i].Body
			// Symptoms and allergies already carry the user's wording.
			translate := i >= 2 && body != diagnosis.NotFound && body != ""
			if translate {
				body = e.translator.Translate(gctx, english[i].Body, "en", s.LanguageCode)
			}
			out[i].Body = body
			return nil
		})
	}
	_ = g.Wait()
	return renderTranslatedSections(out)
}

func renderTranslatedSections(sections []summarySection) string {
	var b strings.Builder
	for _, sec := range sections {
		fmt.Fprintf(&b, "### %s:\n%s\n\n", sec.Title, sec.Body)
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}
