// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"text/template"

	"github.com/meshintel/trial-engine/internal/httputil"
)

const (
	// DefaultClaudeModel is the primary extraction model.
	DefaultClaudeModel = "claude-3-5-sonnet-20241022"

	// DefaultOpenAIModel is the fallback extraction model.
	DefaultOpenAIModel = "gpt-4o"

	// DefaultMaxOutputTokens caps the model response size.
	DefaultMaxOutputTokens = 4000

	// DefaultTemperature keeps extraction near-deterministic.
	DefaultTemperature = 0.1
)

// extractionPromptTmpl is the prompt sent to the extraction backend for one
// abstract. It instructs the model to emit the full record structure as bare
// JSON using the exact schema field names.
var extractionPromptTmpl = template.Must(template.New("extraction").Parse(`You are an expert medical researcher specializing in oncology clinical trials. Extract structured data from this clinical trial abstract.

CRITICAL INSTRUCTIONS:
1. Return ONLY valid JSON - no explanatory text before or after
2. Use the exact field names specified below
3. For missing data, use null (not "Unknown" or empty strings)
4. For percentages, use numbers only (e.g., 64 not "64%")
5. Start your response with { and end with }

REQUIRED JSON STRUCTURE:
{
  "study_identification": {"title": "...", "study_acronym": null, "nct_number": null, "abstract_number": null, "study_group": null, "principal_investigator": null, "publication_year": null, "conference_name": null, "confidence_score": 0.9},
  "study_design": {"study_type": "Phase 2", "trial_phase": null, "randomized": false, "blinded": false, "placebo_controlled": false, "multicenter": false, "number_of_arms": null, "number_of_centers": null, "countries": [], "primary_endpoints": [], "secondary_endpoints": [], "confidence_score": 0.9},
  "patient_demographics": {"total_enrolled": null, "evaluable_patients": null, "median_age": null, "age_range": null, "male_percentage": null, "female_percentage": null, "ecog_0_percentage": null, "confidence_score": 0.9},
  "disease_characteristics": {"disease_subtypes": ["Relapsed/Refractory"], "disease_stage": null, "high_risk_percentage": null, "del_17p_percentage": null, "extramedullary_disease_percentage": null, "confidence_score": 0.9},
  "treatment_history": {"line_of_therapy": null, "median_prior_therapies": null, "lenalidomide_refractory_percentage": null, "triple_refractory_percentage": null, "prior_autologous_sct_percentage": null, "confidence_score": 0.9},
  "treatment_regimens": [{"regimen_name": "...", "arm_designation": null, "drugs": [{"name": "...", "dose": "..."}], "cycle_length": null, "treatment_until_progression": false, "confidence_score": 0.9}],
  "efficacy_outcomes": {"overall_response_rate": {"value": 64, "ci": null}, "complete_response_rate": null, "progression_free_survival": {"median": 13, "unit": "months"}, "overall_survival": null, "duration_of_response": null, "mrd_negative_rate": null, "confidence_score": 0.9},
  "safety_profile": {"safety_population": null, "grade_3_4_aes": [{"event": "neutropenia", "percentage": 46}], "serious_aes": null, "treatment_related_aes": null, "infections": null, "discontinuations": null, "treatment_related_deaths": null, "confidence_score": 0.9},
  "quality_of_life": null,
  "statistical_analysis": {"primary_analysis_method": null, "significance_level": null, "hazard_ratios": [], "p_values": {}, "confidence_score": 0.9}
}

For adverse event fields use null when the abstract reports nothing, otherwise a list of {"event": name, "percentage": number or null} objects.

Return ONLY the JSON object with extracted data.

ABSTRACT TEXT:
{{.Abstract}}
`))

// BuildPrompt renders the extraction prompt for one abstract.
func BuildPrompt(abstract string) (string, error) {
	var buf bytes.Buffer
	if err := extractionPromptTmpl.Execute(&buf, struct{ Abstract string }{Abstract: abstract}); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// API endpoints. Package-level vars for test substitution.
var (
	claudeAPIURL = "https://api.anthropic.com/v1/messages"
	openaiAPIURL = "https://api.openai.com/v1/chat/completions"
)

// ClaudeBackend submits extraction prompts to the Anthropic Messages API.
type ClaudeBackend struct {
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
	MaxRetries  int
	Client      *http.Client
}

func (c *ClaudeBackend) Name() string { return "claude" }

// claudeRequest is the request body for the Claude Messages API.
type claudeRequest struct {
	Model       string        `json:"model"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
	Messages    []chatMessage `json:"messages"`
}

// chatMessage is a single message in an API conversation.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// claudeResponse is the response body from the Claude Messages API.
type claudeResponse struct {
	Content []claudeContent `json:"content"`
}

// claudeContent is a content block in the Claude API response.
type claudeContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Submit posts the prompt to the Claude API and returns the raw text of the
// first text content block. Rate-limit responses are retried with backoff
// inside this single call.
func (c *ClaudeBackend) Submit(ctx context.Context, prompt string) (string, error) {
	model := c.Model
	if model == "" {
		model = DefaultClaudeModel
	}

	reqBody := claudeRequest{
		Model:       model,
		MaxTokens:   maxTokensOrDefault(c.MaxTokens),
		Temperature: c.Temperature,
		Messages: []chatMessage{
			{Role: "user", Content: prompt},
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, claudeAPIURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.APIKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := httputil.DoWithRetry(ctx, clientOrDefault(c.Client), req, c.MaxRetries)
	if err != nil {
		return "", fmt.Errorf("calling Claude API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("Claude API returned %d: %s", resp.StatusCode, string(body))
	}

	var cResp claudeResponse
	if err := json.NewDecoder(resp.Body).Decode(&cResp); err != nil {
		return "", fmt.Errorf("decoding Claude response: %w", err)
	}

	for _, block := range cResp.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}

	return "", fmt.Errorf("no text content in Claude API response")
}

// OpenAIBackend submits extraction prompts to the OpenAI chat completions
// API. It is the fallback when the primary backend is unreachable.
type OpenAIBackend struct {
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
	MaxRetries  int
	Client      *http.Client
}

func (o *OpenAIBackend) Name() string { return "openai" }

// openaiRequest is the request body for the chat completions API.
type openaiRequest struct {
	Model       string        `json:"model"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
	Messages    []chatMessage `json:"messages"`
}

// openaiResponse is the response body from the chat completions API.
type openaiResponse struct {
	Choices []openaiChoice `json:"choices"`
}

type openaiChoice struct {
	Message chatMessage `json:"message"`
}

// Submit posts the prompt to the OpenAI API and returns the first choice's
// message content.
func (o *OpenAIBackend) Submit(ctx context.Context, prompt string) (string, error) {
	model := o.Model
	if model == "" {
		model = DefaultOpenAIModel
	}

	reqBody := openaiRequest{
		Model:       model,
		MaxTokens:   maxTokensOrDefault(o.MaxTokens),
		Temperature: o.Temperature,
		Messages: []chatMessage{
			{Role: "user", Content: prompt},
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, openaiAPIURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.APIKey)

	resp, err := httputil.DoWithRetry(ctx, clientOrDefault(o.Client), req, o.MaxRetries)
	if err != nil {
		return "", fmt.Errorf("calling OpenAI API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("OpenAI API returned %d: %s", resp.StatusCode, string(body))
	}

	var oResp openaiResponse
	if err := json.NewDecoder(resp.Body).Decode(&oResp); err != nil {
		return "", fmt.Errorf("decoding OpenAI response: %w", err)
	}

	if len(oResp.Choices) == 0 {
		return "", fmt.Errorf("OpenAI API returned no choices")
	}

	return oResp.Choices[0].Message.Content, nil
}

func clientOrDefault(c *http.Client) *http.Client {
	if c != nil {
		return c
	}
	return http.DefaultClient
}

func maxTokensOrDefault(n int) int {
	if n > 0 {
		return n
	}
	return DefaultMaxOutputTokens
}
