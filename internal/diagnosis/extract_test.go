package diagnosis

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

const sampleBlock = `Diagnosis:
Likely a tension headache brought on by stress. The pattern of pain suggests a benign cause.

Proposed New Drug:
Cephalexol, a hypothetical fast-acting analgesic that modulates tension receptors.

Hypothetical Dosage/Instructions:
One 200mg tablet every eight hours with water. Do not exceed three tablets per day.

Allergy/Safety Note:
No interaction expected with the reported allergies. Discontinue if dizziness occurs.`

func TestExtract_AllSections(t *testing.T) {
	f := Extract(sampleBlock)

	assert.Contains(t, f.Diagnosis, "tension headache")
	assert.Contains(t, f.Drug, "Cephalexol")
	assert.Contains(t, f.Dosage, "200mg")
	assert.Contains(t, f.Safety, "No interaction expected")

	// Bodies never bleed into the next section.
	assert.NotContains(t, f.Diagnosis, "Cephalexol")
	assert.NotContains(t, f.Drug, "200mg tablet")
}

func TestExtract_Idempotent(t *testing.T) {
	first := Extract(sampleBlock)
	second := Extract(sampleBlock)
	assert.Equal(t, first, second)
}

func TestExtract_MissingSafetySection(t *testing.T) {
	block := `Diagnosis:
Common cold.

Proposed New Drug:
Rhinostatin nasal spray.

Hypothetical Dosage/Instructions:
Two sprays per nostril twice daily.`

	f := Extract(block)

	assert.Equal(t, "Common cold.", f.Diagnosis)
	assert.Equal(t, "Rhinostatin nasal spray.", f.Drug)
	assert.Equal(t, "Two sprays per nostril twice daily.", f.Dosage)
	assert.Equal(t, NotFound, f.Safety)
}

func TestExtract_CaseInsensitiveLabels(t *testing.T) {
	block := "DIAGNOSIS: flu\n\nproposed new drug: Fluximab\n\nhypothetical dosage/instructions: daily\n\nallergy/safety note: none"

	f := Extract(block)

	assert.Equal(t, "flu", f.Diagnosis)
	assert.Equal(t, "Fluximab", f.Drug)
	assert.Equal(t, "daily", f.Dosage)
	assert.Equal(t, "none", f.Safety)
}

func TestExtract_EmptyBlock(t *testing.T) {
	f := Extract("")

	assert.Equal(t, NotFound, f.Diagnosis)
	assert.Equal(t, NotFound, f.Drug)
	assert.Equal(t, NotFound, f.Dosage)
	assert.Equal(t, NotFound, f.Safety)
}

func TestExtract_FreeformTextWithoutLabels(t *testing.T) {
	f := Extract("The patient should rest and drink fluids.")

	assert.Equal(t, NotFound, f.Diagnosis)
	assert.Equal(t, NotFound, f.Drug)
	assert.Equal(t, NotFound, f.Dosage)
	assert.Equal(t, NotFound, f.Safety)
}

func TestPrompt_CarriesInputsAndLabels(t *testing.T) {
	p := Prompt("fever and chills", "penicillin")

	assert.Contains(t, p, "Symptoms: fever and chills")
	assert.Contains(t, p, "Allergies: penicillin")

	// All four labels present, in order.
	iDiag := strings.Index(p, "Diagnosis:")
	iDrug := strings.Index(p, "Proposed New Drug:")
	iDose := strings.Index(p, "Hypothetical Dosage/Instructions:")
	iSafe := strings.Index(p, "Allergy/Safety Note:")
	assert.True(t, iDiag >= 0 && iDiag < iDrug && iDrug < iDose && iDose < iSafe)
}
