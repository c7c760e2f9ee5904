package extract

import (
	"context"
	"errors"
	"strings"
	"testing"
)

const sampleResponse = "```json\n" + `{
  "study_identification": {"title": "DVd in relapsed myeloma", "nct_number": "NCT01234567",},
  "patient_demographics": {"total_enrolled": 104, "median_age": 67},
  "treatment_regimens": [{"regimen_name": "DVd", "confidence_score": 0.9}],
  "efficacy_outcomes": {"overall_response_rate": {"value": 64}},
  "safety_profile": {"grade_3_4_aes": [{"event": "neutropenia", "percentage": 46}]}
}` + "\n```"

const sampleAbstract = "Daratumumab plus bortezomib and dexamethasone (DVd) was evaluated in 104 " +
	"patients with relapsed myeloma. Treatment response: ORR 64%, with grade 3-4 " +
	"adverse events of neutropenia in 46%. Efficacy, safety, and survival follow-up continue."

func TestExtractOne(t *testing.T) {
	backend := &mockBackend{name: "claude", text: sampleResponse}
	chain := &Chain{Backends: []Backend{backend}}

	rec := ExtractOne(context.Background(), chain, sampleAbstract)

	if rec.StudyIdentification.Title != "DVd in relapsed myeloma" {
		t.Errorf("Title = %q", rec.StudyIdentification.Title)
	}
	if rec.StudyIdentification.NCTNumber == nil || *rec.StudyIdentification.NCTNumber != "NCT01234567" {
		t.Errorf("NCTNumber = %v", rec.StudyIdentification.NCTNumber)
	}
	if rec.PatientDemographics.TotalEnrolled == nil || *rec.PatientDemographics.TotalEnrolled != 104 {
		t.Errorf("TotalEnrolled = %v", rec.PatientDemographics.TotalEnrolled)
	}
	if len(rec.TreatmentRegimens) != 1 || rec.TreatmentRegimens[0].RegimenName != "DVd" {
		t.Errorf("TreatmentRegimens = %v", rec.TreatmentRegimens)
	}
	if rec.ExtractionConfidence <= 0 || rec.ExtractionConfidence > 1 {
		t.Errorf("ExtractionConfidence = %v", rec.ExtractionConfidence)
	}
	if rec.SourceText != sampleAbstract {
		t.Error("SourceText should carry the input abstract")
	}
}

func TestExtractOneAppliesValidation(t *testing.T) {
	resp := `{"patient_demographics": {"median_age": 150, "total_enrolled": 40}}`
	chain := &Chain{Backends: []Backend{&mockBackend{name: "claude", text: resp}}}

	rec := ExtractOne(context.Background(), chain, "40 patients")

	if rec.PatientDemographics.MedianAge != nil {
		t.Errorf("MedianAge = %v, want nil after validation", rec.PatientDemographics.MedianAge)
	}
	var found bool
	for _, n := range rec.ProcessingNotes {
		if strings.Contains(n, "median_age") {
			found = true
		}
	}
	if !found {
		t.Errorf("missing validation note: %v", rec.ProcessingNotes)
	}
}

func TestExtractOneAllBackendsFail(t *testing.T) {
	chain := &Chain{Backends: []Backend{
		&mockBackend{name: "claude", err: errors.New("timeout")},
		&mockBackend{name: "openai", err: errors.New("refused")},
	}}

	rec := ExtractOne(context.Background(), chain, "some abstract")

	if rec.ExtractionConfidence != 0 {
		t.Errorf("ExtractionConfidence = %v, want 0", rec.ExtractionConfidence)
	}
	if len(rec.ProcessingNotes) == 0 {
		t.Fatal("ProcessingNotes is empty")
	}
	if !strings.Contains(rec.ProcessingNotes[0], "exhausted") {
		t.Errorf("notes = %v", rec.ProcessingNotes)
	}
	if len(rec.TreatmentRegimens) != 1 {
		t.Error("error record must still carry the sentinel regimen")
	}
}

func TestExtractOneGarbageResponse(t *testing.T) {
	// An unparseable response is not a failure: the repair parser absorbs
	// it and the pipeline produces a low-information record.
	chain := &Chain{Backends: []Backend{&mockBackend{name: "claude", text: "I cannot help with that."}}}

	rec := ExtractOne(context.Background(), chain, sampleAbstract)

	if rec.StudyIdentification.Title != placeholderTitle {
		t.Errorf("Title = %q, want placeholder", rec.StudyIdentification.Title)
	}
	if rec.ExtractionConfidence <= 0 {
		t.Error("confidence floor should keep overall confidence above zero")
	}
	if len(rec.TreatmentRegimens) != 1 {
		t.Error("sentinel regimen missing")
	}
}
