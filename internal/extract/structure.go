// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/meshintel/trial-engine/pkg/types"
)

// placeholderTitle stands in when extraction found no study title.
const placeholderTitle = "Untitled study"

// Structure builds the complete record from a validated mapping and its
// scores. It never fails: every field is read defensively, wrong dynamic
// shapes degrade to documented defaults with a note, and the invariants
// hold on every path (four scores populated, at least one regimen, adverse
// events canonical).
//
// warnings are prior audit notes (validator findings) carried into the
// record's processing_notes after the score summary.
func Structure(m map[string]any, scores types.ConfidenceScores, sourceText string, warnings []string) *types.ComprehensiveRecord {
	r := &reader{}

	rec := &types.ComprehensiveRecord{
		AbstractID:          uuid.NewString(),
		ExtractionTimestamp: time.Now().UTC(),

		StudyIdentification:    r.studyIdentification(m, scores),
		StudyDesign:            r.studyDesign(m, scores),
		PatientDemographics:    r.patientDemographics(m),
		DiseaseCharacteristics: r.diseaseCharacteristics(m),
		TreatmentHistory:       r.treatmentHistory(m),
		TreatmentRegimens:      r.treatmentRegimens(m),
		EfficacyOutcomes:       r.efficacyOutcomes(m),
		SafetyProfile:          r.safetyProfile(m),
		QualityOfLife:          r.qualityOfLife(m),
		StatisticalAnalysis:    r.statisticalAnalysis(m),

		ExtractionConfidence:      scores.OverallConfidence,
		DataCompletenessScore:     scores.DataCompleteness,
		ClinicalSignificanceScore: ClinicalSignificance(m),

		SourceText: sourceText,
	}

	rec.ProcessingNotes = append(rec.ProcessingNotes,
		fmt.Sprintf("extraction quality %.0f%%", scores.ExtractionQuality*100),
		fmt.Sprintf("data completeness %.0f%%", scores.DataCompleteness*100),
		fmt.Sprintf("source richness %.0f%%", scores.SourceRichness*100),
	)
	rec.ProcessingNotes = append(rec.ProcessingNotes, warnings...)
	rec.ProcessingNotes = append(rec.ProcessingNotes, r.notes...)

	return rec
}

// ErrorRecord synthesizes the terminal record for an abstract whose
// extraction failed outright: zero confidence everywhere, the sentinel
// regimen, and the failure reason in processing_notes.
func ErrorRecord(sourceText string, err error) *types.ComprehensiveRecord {
	return &types.ComprehensiveRecord{
		AbstractID:          uuid.NewString(),
		ExtractionTimestamp: time.Now().UTC(),
		StudyIdentification: types.StudyIdentification{Title: "Error in extraction"},
		StudyDesign:         types.StudyDesign{StudyType: types.StudyPhase2},
		DiseaseCharacteristics: types.DiseaseCharacteristics{
			Subtypes: []types.DiseaseSubtype{types.SubtypeRelapsedRefractory},
		},
		TreatmentRegimens: []types.TreatmentRegimen{sentinelRegimen()},
		SourceText:        sourceText,
		ProcessingNotes:   []string{fmt.Sprintf("extraction error: %v", err)},
	}
}

func sentinelRegimen() types.TreatmentRegimen {
	return types.TreatmentRegimen{RegimenName: "Unknown", Drugs: []map[string]any{}}
}

// reader accumulates degradation notes while pulling typed values out of the
// untyped mapping. Every accessor returns a safe default on a shape mismatch.
type reader struct {
	notes []string
}

func (r *reader) degraded(section, field string) {
	path := section
	if field != "" {
		path = section + "." + field
	}
	r.notes = append(r.notes, fmt.Sprintf("degraded field %s: unexpected shape, default substituted", path))
}

// section returns the named sub-mapping, or an empty one when absent or of
// the wrong shape.
func (r *reader) section(m map[string]any, name string) map[string]any {
	switch sec := m[name].(type) {
	case nil:
		return map[string]any{}
	case map[string]any:
		return sec
	default:
		r.degraded(name, "")
		return map[string]any{}
	}
}

func (r *reader) str(sec map[string]any, section, field string) *string {
	switch v := sec[field].(type) {
	case nil:
		return nil
	case string:
		if v == "" {
			return nil
		}
		return &v
	default:
		r.degraded(section, field)
		return nil
	}
}

func (r *reader) num(sec map[string]any, section, field string) *float64 {
	v := sec[field]
	if v == nil {
		return nil
	}
	n, ok := asNumber(v)
	if !ok {
		r.degraded(section, field)
		return nil
	}
	return &n
}

func (r *reader) count(sec map[string]any, section, field string) *int {
	n := r.num(sec, section, field)
	if n == nil {
		return nil
	}
	i := int(*n)
	return &i
}

func (r *reader) boolean(sec map[string]any, section, field string, def bool) bool {
	switch v := sec[field].(type) {
	case nil:
		return def
	case bool:
		return v
	default:
		r.degraded(section, field)
		return def
	}
}

func (r *reader) strs(sec map[string]any, section, field string) []string {
	switch v := sec[field].(type) {
	case nil:
		return nil
	case []any:
		var out []string
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		return []string{v}
	default:
		r.degraded(section, field)
		return nil
	}
}

func (r *reader) maps(sec map[string]any, section, field string) []map[string]any {
	switch v := sec[field].(type) {
	case nil:
		return nil
	case []any:
		var out []map[string]any
		for _, item := range v {
			if m, ok := item.(map[string]any); ok {
				out = append(out, m)
			}
		}
		return out
	case map[string]any:
		return []map[string]any{v}
	default:
		r.degraded(section, field)
		return nil
	}
}

func (r *reader) mapping(sec map[string]any, section, field string) map[string]any {
	switch v := sec[field].(type) {
	case nil:
		return nil
	case map[string]any:
		return v
	default:
		r.degraded(section, field)
		return nil
	}
}

// measurement accepts the documented object form and, as a degradation, a
// bare number rendered as {"value": n}.
func (r *reader) measurement(sec map[string]any, section, field string) types.Measurement {
	v := sec[field]
	if v == nil {
		return nil
	}
	if m, ok := v.(map[string]any); ok {
		return types.Measurement(m)
	}
	if n, ok := asNumber(v); ok {
		return types.Measurement{"value": n}
	}
	r.degraded(section, field)
	return nil
}

func (r *reader) floatMap(sec map[string]any, section, field string) map[string]float64 {
	switch v := sec[field].(type) {
	case nil:
		return nil
	case map[string]any:
		out := make(map[string]float64, len(v))
		for k, item := range v {
			if n, ok := asNumber(item); ok {
				out[k] = n
			}
		}
		return out
	default:
		r.degraded(section, field)
		return nil
	}
}

func (r *reader) events(sec map[string]any, field string) []types.AdverseEvent {
	return NormalizeEvents(sec[field])
}

// sectionScore is the filled-field ratio of a raw section mapping.
func sectionScore(sec map[string]any) float64 {
	if len(sec) == 0 {
		return 0.0
	}
	filled := 0
	for _, v := range sec {
		if v != nil {
			filled++
		}
	}
	return float64(filled) / float64(len(sec))
}

func (r *reader) studyIdentification(m map[string]any, scores types.ConfidenceScores) types.StudyIdentification {
	sec := r.section(m, "study_identification")
	title := placeholderTitle
	if t := r.str(sec, "study_identification", "title"); t != nil {
		title = *t
	}
	return types.StudyIdentification{
		Title:                 title,
		StudyAcronym:          r.str(sec, "study_identification", "study_acronym"),
		NCTNumber:             r.str(sec, "study_identification", "nct_number"),
		AbstractNumber:        r.str(sec, "study_identification", "abstract_number"),
		StudyGroup:            r.str(sec, "study_identification", "study_group"),
		PrincipalInvestigator: r.str(sec, "study_identification", "principal_investigator"),
		PublicationYear:       r.count(sec, "study_identification", "publication_year"),
		ConferenceName:        r.str(sec, "study_identification", "conference_name"),
		ConfidenceScore:       scores.ExtractionQuality,
	}
}

func (r *reader) studyDesign(m map[string]any, scores types.ConfidenceScores) types.StudyDesign {
	sec := r.section(m, "study_design")

	studyType := types.StudyPhase2
	if s := r.str(sec, "study_design", "study_type"); s != nil {
		if candidate := types.StudyType(*s); types.ValidStudyTypes[candidate] {
			studyType = candidate
		} else {
			r.degraded("study_design", "study_type")
		}
	}

	return types.StudyDesign{
		StudyType:            studyType,
		TrialPhase:           r.str(sec, "study_design", "trial_phase"),
		Randomized:           r.boolean(sec, "study_design", "randomized", false),
		Blinded:              r.boolean(sec, "study_design", "blinded", false),
		PlaceboControlled:    r.boolean(sec, "study_design", "placebo_controlled", false),
		Multicenter:          r.boolean(sec, "study_design", "multicenter", false),
		International:        r.boolean(sec, "study_design", "international", false),
		NumberOfArms:         r.count(sec, "study_design", "number_of_arms"),
		RandomizationRatio:   r.str(sec, "study_design", "randomization_ratio"),
		NumberOfCenters:      r.count(sec, "study_design", "number_of_centers"),
		Countries:            r.strs(sec, "study_design", "countries"),
		EnrollmentPeriod:     r.str(sec, "study_design", "enrollment_period"),
		FollowUpDuration:     r.num(sec, "study_design", "follow_up_duration"),
		DataCutoffDate:       r.str(sec, "study_design", "data_cutoff_date"),
		PrimaryEndpoints:     r.strs(sec, "study_design", "primary_endpoints"),
		SecondaryEndpoints:   r.strs(sec, "study_design", "secondary_endpoints"),
		ExploratoryEndpoints: r.strs(sec, "study_design", "exploratory_endpoints"),
		ConfidenceScore:      scores.ExtractionQuality,
	}
}

func (r *reader) patientDemographics(m map[string]any) types.PatientDemographics {
	sec := r.section(m, "patient_demographics")
	return types.PatientDemographics{
		TotalEnrolled:         r.count(sec, "patient_demographics", "total_enrolled"),
		EvaluablePatients:     r.count(sec, "patient_demographics", "evaluable_patients"),
		SafetyPopulation:      r.count(sec, "patient_demographics", "safety_population"),
		ITTPopulation:         r.count(sec, "patient_demographics", "itt_population"),
		MedianAge:             r.num(sec, "patient_demographics", "median_age"),
		MeanAge:               r.num(sec, "patient_demographics", "mean_age"),
		AgeRange:              r.str(sec, "patient_demographics", "age_range"),
		ElderlyPercentage:     r.num(sec, "patient_demographics", "elderly_percentage"),
		VeryElderlyPercentage: r.num(sec, "patient_demographics", "very_elderly_percentage"),
		MalePercentage:        r.num(sec, "patient_demographics", "male_percentage"),
		FemalePercentage:      r.num(sec, "patient_demographics", "female_percentage"),
		RaceDistribution:      r.floatMap(sec, "patient_demographics", "race_distribution"),
		ECOG0Percentage:       r.num(sec, "patient_demographics", "ecog_0_percentage"),
		ECOG1Percentage:       r.num(sec, "patient_demographics", "ecog_1_percentage"),
		ECOG2PlusPercentage:   r.num(sec, "patient_demographics", "ecog_2_plus_percentage"),
		KarnofskyMedian:       r.num(sec, "patient_demographics", "karnofsky_median"),
		FrailtyScoreHigh:      r.num(sec, "patient_demographics", "frailty_score_high"),
		ConfidenceScore:       sectionScore(sec),
	}
}

func (r *reader) diseaseCharacteristics(m map[string]any) types.DiseaseCharacteristics {
	sec := r.section(m, "disease_characteristics")

	var subtypes []types.DiseaseSubtype
	for _, s := range r.strs(sec, "disease_characteristics", "disease_subtypes") {
		if candidate := types.DiseaseSubtype(s); types.ValidDiseaseSubtypes[candidate] {
			subtypes = append(subtypes, candidate)
		}
	}
	if len(subtypes) == 0 {
		subtypes = []types.DiseaseSubtype{types.SubtypeRelapsedRefractory}
	}

	return types.DiseaseCharacteristics{
		Subtypes:     subtypes,
		DiseaseStage: r.str(sec, "disease_characteristics", "disease_stage"),

		HighRiskPercentage:      r.num(sec, "disease_characteristics", "high_risk_percentage"),
		StandardRiskPercentage:  r.num(sec, "disease_characteristics", "standard_risk_percentage"),
		UltraHighRiskPercentage: r.num(sec, "disease_characteristics", "ultra_high_risk_percentage"),

		CytogeneticAbnormalities: r.maps(sec, "disease_characteristics", "cytogenetic_abnormalities"),
		Del17pPercentage:         r.num(sec, "disease_characteristics", "del_17p_percentage"),
		T414Percentage:           r.num(sec, "disease_characteristics", "t_4_14_percentage"),
		T1416Percentage:          r.num(sec, "disease_characteristics", "t_14_16_percentage"),
		Amp1qPercentage:          r.num(sec, "disease_characteristics", "amp_1q_percentage"),

		ExtramedullaryDiseasePercentage: r.num(sec, "disease_characteristics", "extramedullary_disease_percentage"),
		PlasmaCellLeukemiaPercentage:    r.num(sec, "disease_characteristics", "plasma_cell_leukemia_percentage"),
		AmyloidosisPercentage:           r.num(sec, "disease_characteristics", "amyloidosis_percentage"),

		LDHElevatedPercentage:     r.num(sec, "disease_characteristics", "ldh_elevated_percentage"),
		Beta2MicroglobulinHigh:    r.num(sec, "disease_characteristics", "beta2_microglobulin_high"),
		AlbuminLowPercentage:      r.num(sec, "disease_characteristics", "albumin_low_percentage"),
		RenalImpairmentPercentage: r.num(sec, "disease_characteristics", "renal_impairment_percentage"),

		BiomarkerResults: r.maps(sec, "disease_characteristics", "biomarker_results"),
		ConfidenceScore:  sectionScore(sec),
	}
}

func (r *reader) treatmentHistory(m map[string]any) types.TreatmentHistory {
	sec := r.section(m, "treatment_history")
	return types.TreatmentHistory{
		LineOfTherapy:    r.str(sec, "treatment_history", "line_of_therapy"),
		TreatmentSetting: r.str(sec, "treatment_history", "treatment_setting"),

		MedianPriorTherapies:        r.num(sec, "treatment_history", "median_prior_therapies"),
		PriorTherapyRange:           r.str(sec, "treatment_history", "prior_therapy_range"),
		HeavilyPretreatedPercentage: r.num(sec, "treatment_history", "heavily_pretreated_percentage"),

		PriorTherapies:                   r.maps(sec, "treatment_history", "prior_therapies"),
		LenalidomideExposedPercentage:    r.num(sec, "treatment_history", "lenalidomide_exposed_percentage"),
		LenalidomideRefractoryPercentage: r.num(sec, "treatment_history", "lenalidomide_refractory_percentage"),
		PomalidomideExposedPercentage:    r.num(sec, "treatment_history", "pomalidomide_exposed_percentage"),
		BortezomibExposedPercentage:      r.num(sec, "treatment_history", "bortezomib_exposed_percentage"),
		CarfilzomibExposedPercentage:     r.num(sec, "treatment_history", "carfilzomib_exposed_percentage"),
		DaratumumabExposedPercentage:     r.num(sec, "treatment_history", "daratumumab_exposed_percentage"),
		DaratumumabRefractoryPercentage:  r.num(sec, "treatment_history", "daratumumab_refractory_percentage"),

		PriorAutologousSCTPercentage: r.num(sec, "treatment_history", "prior_autologous_sct_percentage"),
		PriorAllogeneicSCTPercentage: r.num(sec, "treatment_history", "prior_allogeneic_sct_percentage"),

		DoubleRefractoryPercentage: r.num(sec, "treatment_history", "double_refractory_percentage"),
		TripleRefractoryPercentage: r.num(sec, "treatment_history", "triple_refractory_percentage"),
		PentaRefractoryPercentage:  r.num(sec, "treatment_history", "penta_refractory_percentage"),

		TimeSinceDiagnosisMedian:   r.num(sec, "treatment_history", "time_since_diagnosis_median"),
		TimeSinceLastTherapyMedian: r.num(sec, "treatment_history", "time_since_last_therapy_median"),

		ConfidenceScore: sectionScore(sec),
	}
}

func (r *reader) treatmentRegimens(m map[string]any) []types.TreatmentRegimen {
	var regimens []types.TreatmentRegimen

	raw, ok := m["treatment_regimens"].([]any)
	if !ok && m["treatment_regimens"] != nil {
		r.degraded("treatment_regimens", "")
	}

	for _, item := range raw {
		sec, ok := item.(map[string]any)
		if !ok {
			continue
		}
		name := r.str(sec, "treatment_regimens", "regimen_name")
		if name == nil {
			continue
		}

		confidence := 0.0
		if c := r.num(sec, "treatment_regimens", "confidence_score"); c != nil {
			confidence = *c
		}

		regimens = append(regimens, types.TreatmentRegimen{
			RegimenName:    *name,
			ArmDesignation: r.str(sec, "treatment_regimens", "arm_designation"),
			IsNovelRegimen: r.boolean(sec, "treatment_regimens", "is_novel_regimen", false),

			Drugs:             r.maps(sec, "treatment_regimens", "drugs"),
			DrugClasses:       r.strs(sec, "treatment_regimens", "drug_classes"),
			MechanismOfAction: r.strs(sec, "treatment_regimens", "mechanism_of_action"),

			CycleLength:               r.count(sec, "treatment_regimens", "cycle_length"),
			TotalPlannedCycles:        r.count(sec, "treatment_regimens", "total_planned_cycles"),
			TreatmentUntilProgression: r.boolean(sec, "treatment_regimens", "treatment_until_progression", false),
			DoseReductionsAllowed:     r.boolean(sec, "treatment_regimens", "dose_reductions_allowed", true),
			GrowthFactorSupport:       r.str(sec, "treatment_regimens", "growth_factor_support"),
			Premedications:            r.strs(sec, "treatment_regimens", "premedications"),
			OutpatientAdministration:  r.boolean(sec, "treatment_regimens", "outpatient_administration", true),
			HospitalizationRequired:   r.boolean(sec, "treatment_regimens", "hospitalization_required", false),

			ConfidenceScore: confidence,
		})
	}

	if len(regimens) == 0 {
		regimens = []types.TreatmentRegimen{sentinelRegimen()}
	}
	return regimens
}

func (r *reader) efficacyOutcomes(m map[string]any) types.EfficacyOutcomes {
	sec := r.section(m, "efficacy_outcomes")
	return types.EfficacyOutcomes{
		OverallResponseRate:         r.measurement(sec, "efficacy_outcomes", "overall_response_rate"),
		CompleteResponseRate:        r.measurement(sec, "efficacy_outcomes", "complete_response_rate"),
		VeryGoodPartialResponseRate: r.measurement(sec, "efficacy_outcomes", "very_good_partial_response_rate"),
		PartialResponseRate:         r.measurement(sec, "efficacy_outcomes", "partial_response_rate"),
		StableDiseaseRate:           r.measurement(sec, "efficacy_outcomes", "stable_disease_rate"),
		ProgressiveDiseaseRate:      r.measurement(sec, "efficacy_outcomes", "progressive_disease_rate"),
		ClinicalBenefitRate:         r.measurement(sec, "efficacy_outcomes", "clinical_benefit_rate"),

		ProgressionFreeSurvival: r.measurement(sec, "efficacy_outcomes", "progression_free_survival"),
		OverallSurvival:         r.measurement(sec, "efficacy_outcomes", "overall_survival"),
		EventFreeSurvival:       r.measurement(sec, "efficacy_outcomes", "event_free_survival"),
		TimeToNextTreatment:     r.measurement(sec, "efficacy_outcomes", "time_to_next_treatment"),

		TimeToResponse:     r.measurement(sec, "efficacy_outcomes", "time_to_response"),
		DurationOfResponse: r.measurement(sec, "efficacy_outcomes", "duration_of_response"),
		TimeToProgression:  r.measurement(sec, "efficacy_outcomes", "time_to_progression"),

		MRDNegativeRate: r.measurement(sec, "efficacy_outcomes", "mrd_negative_rate"),
		MRDMethod:       r.str(sec, "efficacy_outcomes", "mrd_method"),
		StringentCRRate: r.measurement(sec, "efficacy_outcomes", "stringent_cr_rate"),

		SubgroupAnalyses: r.maps(sec, "efficacy_outcomes", "subgroup_analyses"),
		ConfidenceScore:  sectionScore(sec),
	}
}

func (r *reader) safetyProfile(m map[string]any) types.SafetyProfile {
	sec := r.section(m, "safety_profile")
	return types.SafetyProfile{
		SafetyPopulation: r.count(sec, "safety_profile", "safety_population"),

		MedianTreatmentDuration: r.num(sec, "safety_profile", "median_treatment_duration"),
		MedianCyclesReceived:    r.num(sec, "safety_profile", "median_cycles_received"),
		CompletionRate:          r.num(sec, "safety_profile", "completion_rate"),

		AnyGradeAEs:         r.events(sec, "any_grade_aes"),
		Grade34AEs:          r.events(sec, "grade_3_4_aes"),
		Grade5AEs:           r.events(sec, "grade_5_aes"),
		SeriousAEs:          r.events(sec, "serious_aes"),
		TreatmentRelatedAEs: r.events(sec, "treatment_related_aes"),

		HematologicAEs:        r.events(sec, "hematologic_aes"),
		Infections:            r.events(sec, "infections"),
		SecondaryMalignancies: r.events(sec, "secondary_malignancies"),

		DoseReductions:   r.mapping(sec, "safety_profile", "dose_reductions"),
		TreatmentDelays:  r.mapping(sec, "safety_profile", "treatment_delays"),
		Discontinuations: r.mapping(sec, "safety_profile", "discontinuations"),

		TreatmentRelatedDeaths: r.count(sec, "safety_profile", "treatment_related_deaths"),
		TotalDeaths:            r.count(sec, "safety_profile", "total_deaths"),

		ConfidenceScore: sectionScore(sec),
	}
}

func (r *reader) qualityOfLife(m map[string]any) *types.QualityOfLife {
	sec := r.section(m, "quality_of_life")
	if len(sec) == 0 {
		return nil
	}
	return &types.QualityOfLife{
		QoLInstruments:       r.strs(sec, "quality_of_life", "qol_instruments"),
		BaselineQoLScores:    r.floatMap(sec, "quality_of_life", "baseline_qol_scores"),
		QoLImprovementRate:   r.num(sec, "quality_of_life", "qol_improvement_rate"),
		SymptomReliefRate:    r.num(sec, "quality_of_life", "symptom_relief_rate"),
		TimeToQoLImprovement: r.num(sec, "quality_of_life", "time_to_qol_improvement"),
		ConfidenceScore:      sectionScore(sec),
	}
}

func (r *reader) statisticalAnalysis(m map[string]any) types.StatisticalAnalysis {
	sec := r.section(m, "statistical_analysis")
	return types.StatisticalAnalysis{
		PrimaryAnalysisMethod: r.str(sec, "statistical_analysis", "primary_analysis_method"),
		SignificanceLevel:     r.num(sec, "statistical_analysis", "significance_level"),
		PowerCalculation:      r.str(sec, "statistical_analysis", "power_calculation"),
		SampleSizeRationale:   r.str(sec, "statistical_analysis", "sample_size_rationale"),

		SurvivalAnalysisMethod: r.str(sec, "statistical_analysis", "survival_analysis_method"),
		CensoringDetails:       r.str(sec, "statistical_analysis", "censoring_details"),

		HazardRatios:    r.maps(sec, "statistical_analysis", "hazard_ratios"),
		PValues:         r.floatMap(sec, "statistical_analysis", "p_values"),
		ConfidenceScore: sectionScore(sec),
	}
}
