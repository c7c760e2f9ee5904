// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// StudyType categorizes the design of a clinical study.
type StudyType string

const (
	StudyPhase1        StudyType = "Phase 1"
	StudyPhase1_2      StudyType = "Phase 1/2"
	StudyPhase2        StudyType = "Phase 2"
	StudyPhase3        StudyType = "Phase 3"
	StudyRetrospective StudyType = "Retrospective"
	StudyRealWorld     StudyType = "Real-World Evidence"
	StudyMetaAnalysis  StudyType = "Meta-Analysis"
	StudyRegistry      StudyType = "Registry Study"
)

// ValidStudyTypes is the set of accepted StudyType values.
var ValidStudyTypes = map[StudyType]bool{
	StudyPhase1:        true,
	StudyPhase1_2:      true,
	StudyPhase2:        true,
	StudyPhase3:        true,
	StudyRetrospective: true,
	StudyRealWorld:     true,
	StudyMetaAnalysis:  true,
	StudyRegistry:      true,
}

// DiseaseSubtype classifies the myeloma population under study.
type DiseaseSubtype string

const (
	SubtypeNewlyDiagnosed       DiseaseSubtype = "Newly Diagnosed"
	SubtypeRelapsedRefractory   DiseaseSubtype = "Relapsed/Refractory"
	SubtypeHighRisk             DiseaseSubtype = "High-Risk"
	SubtypeElderly              DiseaseSubtype = "Elderly"
	SubtypeTransplantEligible   DiseaseSubtype = "Transplant Eligible"
	SubtypeTransplantIneligible DiseaseSubtype = "Transplant Ineligible"
	SubtypeSmoldering           DiseaseSubtype = "Smoldering"
)

// ValidDiseaseSubtypes is the set of accepted DiseaseSubtype values.
var ValidDiseaseSubtypes = map[DiseaseSubtype]bool{
	SubtypeNewlyDiagnosed:       true,
	SubtypeRelapsedRefractory:   true,
	SubtypeHighRisk:             true,
	SubtypeElderly:              true,
	SubtypeTransplantEligible:   true,
	SubtypeTransplantIneligible: true,
	SubtypeSmoldering:           true,
}

// AdverseEvent is the canonical form of one adverse-event entry: an event
// name and an optional rate. Every adverse-event field in SafetyProfile is
// either nil or a slice of these; no other shape reaches a final record.
type AdverseEvent struct {
	Event      string   `json:"event" yaml:"event"`
	Percentage *float64 `json:"percentage" yaml:"percentage"`
}

// Measurement holds a reported outcome such as an ORR or a median PFS.
// The backend reports these as free-form objects ({"value": 64, "ci": ...}
// or {"median": 13, "unit": "months"}), so the raw map is preserved.
type Measurement map[string]any

// StudyIdentification holds study identity and provenance fields.
type StudyIdentification struct {
	// Title is the full study title. Never empty: a placeholder is
	// substituted when extraction found none.
	Title string `json:"title" yaml:"title"`

	StudyAcronym          *string `json:"study_acronym" yaml:"study_acronym"`
	NCTNumber             *string `json:"nct_number" yaml:"nct_number"`
	AbstractNumber        *string `json:"abstract_number" yaml:"abstract_number"`
	StudyGroup            *string `json:"study_group" yaml:"study_group"`
	PrincipalInvestigator *string `json:"principal_investigator" yaml:"principal_investigator"`
	PublicationYear       *int    `json:"publication_year" yaml:"publication_year"`
	ConferenceName        *string `json:"conference_name" yaml:"conference_name"`

	ConfidenceScore float64 `json:"confidence_score" yaml:"confidence_score"`
}

// StudyDesign holds trial design characteristics.
type StudyDesign struct {
	StudyType         StudyType `json:"study_type" yaml:"study_type"`
	TrialPhase        *string   `json:"trial_phase" yaml:"trial_phase"`
	Randomized        bool      `json:"randomized" yaml:"randomized"`
	Blinded           bool      `json:"blinded" yaml:"blinded"`
	PlaceboControlled bool      `json:"placebo_controlled" yaml:"placebo_controlled"`
	Multicenter       bool      `json:"multicenter" yaml:"multicenter"`
	International     bool      `json:"international" yaml:"international"`

	NumberOfArms       *int     `json:"number_of_arms" yaml:"number_of_arms"`
	RandomizationRatio *string  `json:"randomization_ratio" yaml:"randomization_ratio"`
	NumberOfCenters    *int     `json:"number_of_centers" yaml:"number_of_centers"`
	Countries          []string `json:"countries" yaml:"countries"`

	EnrollmentPeriod  *string  `json:"enrollment_period" yaml:"enrollment_period"`
	FollowUpDuration  *float64 `json:"follow_up_duration" yaml:"follow_up_duration"`
	DataCutoffDate    *string  `json:"data_cutoff_date" yaml:"data_cutoff_date"`

	PrimaryEndpoints     []string `json:"primary_endpoints" yaml:"primary_endpoints"`
	SecondaryEndpoints   []string `json:"secondary_endpoints" yaml:"secondary_endpoints"`
	ExploratoryEndpoints []string `json:"exploratory_endpoints" yaml:"exploratory_endpoints"`

	ConfidenceScore float64 `json:"confidence_score" yaml:"confidence_score"`
}

// PatientDemographics holds patient population characteristics.
type PatientDemographics struct {
	TotalEnrolled     *int `json:"total_enrolled" yaml:"total_enrolled"`
	EvaluablePatients *int `json:"evaluable_patients" yaml:"evaluable_patients"`
	SafetyPopulation  *int `json:"safety_population" yaml:"safety_population"`
	ITTPopulation     *int `json:"itt_population" yaml:"itt_population"`

	MedianAge             *float64 `json:"median_age" yaml:"median_age"`
	MeanAge               *float64 `json:"mean_age" yaml:"mean_age"`
	AgeRange              *string  `json:"age_range" yaml:"age_range"`
	ElderlyPercentage     *float64 `json:"elderly_percentage" yaml:"elderly_percentage"`
	VeryElderlyPercentage *float64 `json:"very_elderly_percentage" yaml:"very_elderly_percentage"`

	MalePercentage   *float64           `json:"male_percentage" yaml:"male_percentage"`
	FemalePercentage *float64           `json:"female_percentage" yaml:"female_percentage"`
	RaceDistribution map[string]float64 `json:"race_distribution" yaml:"race_distribution"`

	ECOG0Percentage     *float64 `json:"ecog_0_percentage" yaml:"ecog_0_percentage"`
	ECOG1Percentage     *float64 `json:"ecog_1_percentage" yaml:"ecog_1_percentage"`
	ECOG2PlusPercentage *float64 `json:"ecog_2_plus_percentage" yaml:"ecog_2_plus_percentage"`
	KarnofskyMedian     *float64 `json:"karnofsky_median" yaml:"karnofsky_median"`
	FrailtyScoreHigh    *float64 `json:"frailty_score_high" yaml:"frailty_score_high"`

	ConfidenceScore float64 `json:"confidence_score" yaml:"confidence_score"`
}

// DiseaseCharacteristics holds disease stage, risk, and cytogenetics.
type DiseaseCharacteristics struct {
	// Subtypes always contains at least one entry; Relapsed/Refractory is
	// the fallback classification.
	Subtypes     []DiseaseSubtype `json:"disease_subtypes" yaml:"disease_subtypes"`
	DiseaseStage *string          `json:"disease_stage" yaml:"disease_stage"`

	HighRiskPercentage      *float64 `json:"high_risk_percentage" yaml:"high_risk_percentage"`
	StandardRiskPercentage  *float64 `json:"standard_risk_percentage" yaml:"standard_risk_percentage"`
	UltraHighRiskPercentage *float64 `json:"ultra_high_risk_percentage" yaml:"ultra_high_risk_percentage"`

	CytogeneticAbnormalities []map[string]any `json:"cytogenetic_abnormalities" yaml:"cytogenetic_abnormalities"`
	Del17pPercentage         *float64         `json:"del_17p_percentage" yaml:"del_17p_percentage"`
	T414Percentage           *float64         `json:"t_4_14_percentage" yaml:"t_4_14_percentage"`
	T1416Percentage          *float64         `json:"t_14_16_percentage" yaml:"t_14_16_percentage"`
	Amp1qPercentage          *float64         `json:"amp_1q_percentage" yaml:"amp_1q_percentage"`

	ExtramedullaryDiseasePercentage *float64 `json:"extramedullary_disease_percentage" yaml:"extramedullary_disease_percentage"`
	PlasmaCellLeukemiaPercentage    *float64 `json:"plasma_cell_leukemia_percentage" yaml:"plasma_cell_leukemia_percentage"`
	AmyloidosisPercentage           *float64 `json:"amyloidosis_percentage" yaml:"amyloidosis_percentage"`

	LDHElevatedPercentage      *float64 `json:"ldh_elevated_percentage" yaml:"ldh_elevated_percentage"`
	Beta2MicroglobulinHigh     *float64 `json:"beta2_microglobulin_high" yaml:"beta2_microglobulin_high"`
	AlbuminLowPercentage       *float64 `json:"albumin_low_percentage" yaml:"albumin_low_percentage"`
	RenalImpairmentPercentage  *float64 `json:"renal_impairment_percentage" yaml:"renal_impairment_percentage"`

	BiomarkerResults []map[string]any `json:"biomarker_results" yaml:"biomarker_results"`

	ConfidenceScore float64 `json:"confidence_score" yaml:"confidence_score"`
}

// TreatmentHistory holds prior therapy exposure and refractoriness.
type TreatmentHistory struct {
	LineOfTherapy    *string `json:"line_of_therapy" yaml:"line_of_therapy"`
	TreatmentSetting *string `json:"treatment_setting" yaml:"treatment_setting"`

	MedianPriorTherapies         *float64 `json:"median_prior_therapies" yaml:"median_prior_therapies"`
	PriorTherapyRange            *string  `json:"prior_therapy_range" yaml:"prior_therapy_range"`
	HeavilyPretreatedPercentage  *float64 `json:"heavily_pretreated_percentage" yaml:"heavily_pretreated_percentage"`

	PriorTherapies                   []map[string]any `json:"prior_therapies" yaml:"prior_therapies"`
	LenalidomideExposedPercentage    *float64         `json:"lenalidomide_exposed_percentage" yaml:"lenalidomide_exposed_percentage"`
	LenalidomideRefractoryPercentage *float64         `json:"lenalidomide_refractory_percentage" yaml:"lenalidomide_refractory_percentage"`
	PomalidomideExposedPercentage    *float64         `json:"pomalidomide_exposed_percentage" yaml:"pomalidomide_exposed_percentage"`
	BortezomibExposedPercentage      *float64         `json:"bortezomib_exposed_percentage" yaml:"bortezomib_exposed_percentage"`
	CarfilzomibExposedPercentage     *float64         `json:"carfilzomib_exposed_percentage" yaml:"carfilzomib_exposed_percentage"`
	DaratumumabExposedPercentage     *float64         `json:"daratumumab_exposed_percentage" yaml:"daratumumab_exposed_percentage"`
	DaratumumabRefractoryPercentage  *float64         `json:"daratumumab_refractory_percentage" yaml:"daratumumab_refractory_percentage"`

	PriorAutologousSCTPercentage *float64 `json:"prior_autologous_sct_percentage" yaml:"prior_autologous_sct_percentage"`
	PriorAllogeneicSCTPercentage *float64 `json:"prior_allogeneic_sct_percentage" yaml:"prior_allogeneic_sct_percentage"`

	DoubleRefractoryPercentage *float64 `json:"double_refractory_percentage" yaml:"double_refractory_percentage"`
	TripleRefractoryPercentage *float64 `json:"triple_refractory_percentage" yaml:"triple_refractory_percentage"`
	PentaRefractoryPercentage  *float64 `json:"penta_refractory_percentage" yaml:"penta_refractory_percentage"`

	TimeSinceDiagnosisMedian  *float64 `json:"time_since_diagnosis_median" yaml:"time_since_diagnosis_median"`
	TimeSinceLastTherapyMedian *float64 `json:"time_since_last_therapy_median" yaml:"time_since_last_therapy_median"`

	ConfidenceScore float64 `json:"confidence_score" yaml:"confidence_score"`
}

// TreatmentRegimen describes one treatment arm or regimen.
type TreatmentRegimen struct {
	// RegimenName is never empty; the sentinel "Unknown" regimen is
	// synthesized when extraction found no regimens.
	RegimenName    string  `json:"regimen_name" yaml:"regimen_name"`
	ArmDesignation *string `json:"arm_designation" yaml:"arm_designation"`
	IsNovelRegimen bool    `json:"is_novel_regimen" yaml:"is_novel_regimen"`

	Drugs             []map[string]any `json:"drugs" yaml:"drugs"`
	DrugClasses       []string         `json:"drug_classes" yaml:"drug_classes"`
	MechanismOfAction []string         `json:"mechanism_of_action" yaml:"mechanism_of_action"`

	CycleLength               *int     `json:"cycle_length" yaml:"cycle_length"`
	TotalPlannedCycles        *int     `json:"total_planned_cycles" yaml:"total_planned_cycles"`
	TreatmentUntilProgression bool     `json:"treatment_until_progression" yaml:"treatment_until_progression"`
	DoseReductionsAllowed     bool     `json:"dose_reductions_allowed" yaml:"dose_reductions_allowed"`
	GrowthFactorSupport       *string  `json:"growth_factor_support" yaml:"growth_factor_support"`
	Premedications            []string `json:"premedications" yaml:"premedications"`
	OutpatientAdministration  bool     `json:"outpatient_administration" yaml:"outpatient_administration"`
	HospitalizationRequired   bool     `json:"hospitalization_required" yaml:"hospitalization_required"`

	ConfidenceScore float64 `json:"confidence_score" yaml:"confidence_score"`
}

// EfficacyOutcomes holds response rates and survival endpoints.
type EfficacyOutcomes struct {
	OverallResponseRate         Measurement `json:"overall_response_rate" yaml:"overall_response_rate"`
	CompleteResponseRate        Measurement `json:"complete_response_rate" yaml:"complete_response_rate"`
	VeryGoodPartialResponseRate Measurement `json:"very_good_partial_response_rate" yaml:"very_good_partial_response_rate"`
	PartialResponseRate         Measurement `json:"partial_response_rate" yaml:"partial_response_rate"`
	StableDiseaseRate           Measurement `json:"stable_disease_rate" yaml:"stable_disease_rate"`
	ProgressiveDiseaseRate      Measurement `json:"progressive_disease_rate" yaml:"progressive_disease_rate"`
	ClinicalBenefitRate         Measurement `json:"clinical_benefit_rate" yaml:"clinical_benefit_rate"`

	ProgressionFreeSurvival Measurement `json:"progression_free_survival" yaml:"progression_free_survival"`
	OverallSurvival         Measurement `json:"overall_survival" yaml:"overall_survival"`
	EventFreeSurvival       Measurement `json:"event_free_survival" yaml:"event_free_survival"`
	TimeToNextTreatment     Measurement `json:"time_to_next_treatment" yaml:"time_to_next_treatment"`

	TimeToResponse     Measurement `json:"time_to_response" yaml:"time_to_response"`
	DurationOfResponse Measurement `json:"duration_of_response" yaml:"duration_of_response"`
	TimeToProgression  Measurement `json:"time_to_progression" yaml:"time_to_progression"`

	MRDNegativeRate Measurement `json:"mrd_negative_rate" yaml:"mrd_negative_rate"`
	MRDMethod       *string     `json:"mrd_method" yaml:"mrd_method"`
	StringentCRRate Measurement `json:"stringent_cr_rate" yaml:"stringent_cr_rate"`

	SubgroupAnalyses []map[string]any `json:"subgroup_analyses" yaml:"subgroup_analyses"`

	ConfidenceScore float64 `json:"confidence_score" yaml:"confidence_score"`
}

// SafetyProfile holds adverse-event and tolerability data. Every
// adverse-event slice is either nil (absent) or normalized to the canonical
// AdverseEvent form.
type SafetyProfile struct {
	SafetyPopulation *int `json:"safety_population" yaml:"safety_population"`

	MedianTreatmentDuration *float64 `json:"median_treatment_duration" yaml:"median_treatment_duration"`
	MedianCyclesReceived    *float64 `json:"median_cycles_received" yaml:"median_cycles_received"`
	CompletionRate          *float64 `json:"completion_rate" yaml:"completion_rate"`

	AnyGradeAEs         []AdverseEvent `json:"any_grade_aes" yaml:"any_grade_aes"`
	Grade34AEs          []AdverseEvent `json:"grade_3_4_aes" yaml:"grade_3_4_aes"`
	Grade5AEs           []AdverseEvent `json:"grade_5_aes" yaml:"grade_5_aes"`
	SeriousAEs          []AdverseEvent `json:"serious_aes" yaml:"serious_aes"`
	TreatmentRelatedAEs []AdverseEvent `json:"treatment_related_aes" yaml:"treatment_related_aes"`

	HematologicAEs        []AdverseEvent `json:"hematologic_aes" yaml:"hematologic_aes"`
	Infections            []AdverseEvent `json:"infections" yaml:"infections"`
	SecondaryMalignancies []AdverseEvent `json:"secondary_malignancies" yaml:"secondary_malignancies"`

	DoseReductions   map[string]any `json:"dose_reductions" yaml:"dose_reductions"`
	TreatmentDelays  map[string]any `json:"treatment_delays" yaml:"treatment_delays"`
	Discontinuations map[string]any `json:"discontinuations" yaml:"discontinuations"`

	TreatmentRelatedDeaths *int `json:"treatment_related_deaths" yaml:"treatment_related_deaths"`
	TotalDeaths            *int `json:"total_deaths" yaml:"total_deaths"`

	ConfidenceScore float64 `json:"confidence_score" yaml:"confidence_score"`
}

// QualityOfLife holds patient-reported outcomes. Nil on the record when the
// abstract reported none.
type QualityOfLife struct {
	QoLInstruments       []string           `json:"qol_instruments" yaml:"qol_instruments"`
	BaselineQoLScores    map[string]float64 `json:"baseline_qol_scores" yaml:"baseline_qol_scores"`
	QoLImprovementRate   *float64           `json:"qol_improvement_rate" yaml:"qol_improvement_rate"`
	SymptomReliefRate    *float64           `json:"symptom_relief_rate" yaml:"symptom_relief_rate"`
	TimeToQoLImprovement *float64           `json:"time_to_qol_improvement" yaml:"time_to_qol_improvement"`

	ConfidenceScore float64 `json:"confidence_score" yaml:"confidence_score"`
}

// StatisticalAnalysis holds statistical methodology and comparative results.
type StatisticalAnalysis struct {
	PrimaryAnalysisMethod *string  `json:"primary_analysis_method" yaml:"primary_analysis_method"`
	SignificanceLevel     *float64 `json:"significance_level" yaml:"significance_level"`
	PowerCalculation      *string  `json:"power_calculation" yaml:"power_calculation"`
	SampleSizeRationale   *string  `json:"sample_size_rationale" yaml:"sample_size_rationale"`

	SurvivalAnalysisMethod *string `json:"survival_analysis_method" yaml:"survival_analysis_method"`
	CensoringDetails       *string `json:"censoring_details" yaml:"censoring_details"`

	HazardRatios []map[string]any   `json:"hazard_ratios" yaml:"hazard_ratios"`
	PValues      map[string]float64 `json:"p_values" yaml:"p_values"`

	ConfidenceScore float64 `json:"confidence_score" yaml:"confidence_score"`
}

// ConfidenceScores holds the four independent quality metrics computed for
// each record. All four are always populated and lie in [0,1].
type ConfidenceScores struct {
	// ExtractionQuality expresses trust in the values that were extracted.
	ExtractionQuality float64 `json:"extraction_quality" yaml:"extraction_quality"`

	// DataCompleteness is the fraction of expected fields that were found.
	DataCompleteness float64 `json:"data_completeness" yaml:"data_completeness"`

	// SourceRichness estimates how much extractable information the source
	// text contains.
	SourceRichness float64 `json:"source_richness" yaml:"source_richness"`

	// OverallConfidence is the weighted combination of the other three.
	OverallConfidence float64 `json:"overall_confidence" yaml:"overall_confidence"`
}

// ComprehensiveRecord is the terminal output for one abstract: every section
// populated (with explicit defaults where extraction found nothing), all four
// confidence scores set, and an ordered audit log of corrections applied.
// Records are built once and never mutated afterward.
type ComprehensiveRecord struct {
	AbstractID          string    `json:"abstract_id" yaml:"abstract_id"`
	ExtractionTimestamp time.Time `json:"extraction_timestamp" yaml:"extraction_timestamp"`

	StudyIdentification    StudyIdentification    `json:"study_identification" yaml:"study_identification"`
	StudyDesign            StudyDesign            `json:"study_design" yaml:"study_design"`
	PatientDemographics    PatientDemographics    `json:"patient_demographics" yaml:"patient_demographics"`
	DiseaseCharacteristics DiseaseCharacteristics `json:"disease_characteristics" yaml:"disease_characteristics"`
	TreatmentHistory       TreatmentHistory       `json:"treatment_history" yaml:"treatment_history"`

	// TreatmentRegimens always has length >= 1.
	TreatmentRegimens []TreatmentRegimen `json:"treatment_regimens" yaml:"treatment_regimens"`

	EfficacyOutcomes    EfficacyOutcomes    `json:"efficacy_outcomes" yaml:"efficacy_outcomes"`
	SafetyProfile       SafetyProfile       `json:"safety_profile" yaml:"safety_profile"`
	QualityOfLife       *QualityOfLife      `json:"quality_of_life" yaml:"quality_of_life"`
	StatisticalAnalysis StatisticalAnalysis `json:"statistical_analysis" yaml:"statistical_analysis"`

	ExtractionConfidence      float64 `json:"extraction_confidence" yaml:"extraction_confidence"`
	DataCompletenessScore     float64 `json:"data_completeness_score" yaml:"data_completeness_score"`
	ClinicalSignificanceScore float64 `json:"clinical_significance_score" yaml:"clinical_significance_score"`

	SourceText string `json:"source_text" yaml:"source_text"`
	SourceFile string `json:"source_file,omitempty" yaml:"source_file,omitempty"`

	// ProcessingNotes records, in order, every correction and degradation
	// applied while building the record.
	ProcessingNotes []string `json:"processing_notes" yaml:"processing_notes"`
}
