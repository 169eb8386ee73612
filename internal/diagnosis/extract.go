// Package diagnosis builds the diagnosis prompt and extracts the four
// labeled fields from the model's reply. The extractor is a best-effort
// parser over untrusted, model-generated semi-structured text, not a
// schema-validated format: a missing section yields a sentinel, never
// an error.
package diagnosis

import (
	"fmt"
	"regexp"
	"strings"
)

// NotFound is the sentinel substituted for a section the model omitted.
const NotFound = "Not found"

// Section labels the model is instructed to emit, in order.
const (
	labelDiagnosis = "Diagnosis:"
	labelDrug      = "Proposed New Drug:"
	labelDosage    = "Hypothetical Dosage/Instructions:"
	labelSafety    = "Allergy/Safety Note:"
)

// Fields holds the four extracted diagnosis sections.
type Fields struct {
	Diagnosis string
	Drug      string
	Dosage    string
	Safety    string
}

var (
	diagnosisRe = regexp.MustCompile(`(?is)Diagnosis:(.*?)(?:Proposed New Drug:|Hypothetical Dosage/Instructions:|Allergy/Safety Note:|$)`)
	drugRe      = regexp.MustCompile(`(?is)Proposed New Drug:(.*?)(?:Hypothetical Dosage/Instructions:|Allergy/Safety Note:|$)`)
	dosageRe    = regexp.MustCompile(`(?is)Hypothetical Dosage/Instructions:(.*?)(?:Allergy/Safety Note:|$)`)
	safetyRe    = regexp.MustCompile(`(?is)Allergy/Safety Note:(.*)`)
)

// Extract parses the raw diagnosis block into its four sections. Label
// matching is case-insensitive; each section's body runs to the next
// recognized label or the end of text. Extraction is idempotent: the
// same block always yields the same four strings.
func Extract(block string) Fields {
	return Fields{
		Diagnosis: extractSection(diagnosisRe, block),
		Drug:      extractSection(drugRe, block),
		Dosage:    extractSection(dosageRe, block),
		Safety:    extractSection(safetyRe, block),
	}
}

func extractSection(re *regexp.Regexp, block string) string {
	m := re.FindStringSubmatch(block)
	if m == nil {
		return NotFound
	}
	body := strings.TrimSpace(m[1])
	if body == "" {
		return NotFound
	}
	return body
}

// Prompt builds the diagnosis generation request from the captured
// symptom and allergy text.
func Prompt(symptoms, allergies string) string {
	return fmt.Sprintf(`Based on the symptoms and allergies below, provide a concise medical assessment.

Symptoms: %s
Allergies: %s

Provide your response in this EXACT format with brief, clear information:

%s
[2-3 sentences about the likely condition]

%s
[2-3 sentences about a hypothetical drug name and how it works]

%s
[2-3 sentences about dosage, frequency, and how to take it]

%s
[2-3 sentences about safety considerations given the patient's allergies]

Keep each section brief and direct. No extra explanations or bullet point breakdowns.`,
		symptoms, allergies, labelDiagnosis, labelDrug, labelDosage, labelSafety)
}
