package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "trial-engine/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// BackendName identifies an extraction backend.
type BackendName string

const (
	BackendClaude BackendName = "claude"
	BackendOpenAI BackendName = "openai"
)

// AIConfig holds shared settings for stages that call a Generative AI API.
type AIConfig struct {
	// Model is the AI model identifier (e.g. "claude-sonnet-4-5-20250929").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the AI API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxRetries is the number of retry attempts for rate-limited API calls (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// ExtractionConfig holds settings for the extraction stage.
type ExtractionConfig struct {
	HTTPConfig `yaml:",inline"`

	// Claude configures the primary backend.
	Claude AIConfig `json:"claude" yaml:"claude"`

	// OpenAI configures the fallback backend. Left empty, the fallback is
	// not registered and Claude runs alone.
	OpenAI AIConfig `json:"openai" yaml:"openai"`

	// BackendPriority orders the backends tried for each abstract. Each
	// backend gets exactly one attempt per abstract.
	BackendPriority []BackendName `json:"backend_priority" yaml:"backend_priority"`

	// MaxOutputTokens caps the model response size (default 4000).
	MaxOutputTokens int `json:"max_output_tokens" yaml:"max_output_tokens"`

	// Temperature is the sampling temperature (default 0.1).
	Temperature float64 `json:"temperature" yaml:"temperature"`
}

// BatchConfig holds settings for batch processing.
type BatchConfig struct {
	// ChunkSize is the number of abstracts processed per chunk (default 10).
	ChunkSize int `json:"chunk_size" yaml:"chunk_size"`
}

// IngestConfig holds settings for reading source abstracts.
type IngestConfig struct {
	// AbstractsDir is the directory scanned for abstract files
	// (.txt, .json, .csv).
	AbstractsDir string `json:"abstracts_dir" yaml:"abstracts_dir"`
}

// StoreConfig holds settings for the record store.
type StoreConfig struct {
	// Path is the SQLite database file (default "trial-engine.db").
	Path string `json:"path" yaml:"path"`

	// MaxResults is the default maximum number of query results (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// PipelineConfig groups all stage configurations for the pipeline.
type PipelineConfig struct {
	Extraction ExtractionConfig `json:"extraction" yaml:"extraction"`
	Batch      BatchConfig      `json:"batch" yaml:"batch"`
	Ingest     IngestConfig     `json:"ingest" yaml:"ingest"`
	Store      StoreConfig      `json:"store" yaml:"store"`
}
