package models

// AIProvider is the LLM vendor selected for a run.
type AIProvider string

const (
	ProviderGoogle AIProvider = "google"
	ProviderOllama AIProvider = "ollama"
)

// SpiderConfig parameterizes the crawl stage of a run.
type SpiderConfig struct {
	Keywords  string `json:"keywords" validate:"required"`
	Location  string `json:"location"`
	MaxJobs   int    `json:"max_jobs" validate:"gte=0"`
	Seniority int    `json:"seniority" validate:"gte=1,lte=6"`
}

// AIProviderConfig carries per-run LLM connection settings.
type AIProviderConfig struct {
	Model   string `json:"model" validate:"required"`
	BaseURL string `json:"base_url,omitempty"`
	APIKey  string `json:"api_key,omitempty"`
}

// SearchRequest is the full payload accepted at submit time (spec.md §6).
type SearchRequest struct {
	SpiderConfig     SpiderConfig     `json:"spider_config" validate:"required"`
	AIProviderConfig AIProviderConfig `json:"ai_provider_config" validate:"required"`
	AIProvider       AIProvider       `json:"ai_provider" validate:"required,oneof=google ollama"`
	UserCV           CandidateProfile `json:"user_cv" validate:"required"`
	Webhook          string           `json:"webhook" validate:"required,url"`
}
