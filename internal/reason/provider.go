// Package reason wraps the external reasoning capability consumed by the
// confidence engines. Providers must behave idempotently at
// temperature-zero determinism settings so aggregation runs are
// reproducible.
package reason

import (
	"context"

	"github.com/pkoval/credence/internal/model"
)

// Provider defines the interface for reasoning providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Assess produces a confidence estimate with a structured rationale
	// for a claim given its evidence context
	Assess(ctx context.Context, req AssessRequest) (*AssessResponse, error)

	// ExtractFeatures pulls structured evidence features out of raw text
	ExtractFeatures(ctx context.Context, text string) (*EvidenceFeatures, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// AssessRequest contains the input for a confidence assessment
type AssessRequest struct {
	// Claim is the canonical claim under assessment
	Claim string

	// EvidenceContext holds the evidence text spans, chronological order
	EvidenceContext []string

	// DimensionHints suggests assessment dimensions appropriate to the
	// domain. The provider may return a different dimension set: the set
	// of dimensions is determined per call, not fixed globally.
	DimensionHints []string

	// Domain tags the claim's domain (e.g. "research", "intelligence")
	Domain string

	// Model overrides the configured model (provider-specific)
	Model string

	// MaxTokens limits the response length
	MaxTokens int
}

// AssessResponse is the provider's structured assessment
type AssessResponse struct {
	// Score is the confidence point estimate in [0,1]
	Score float64

	// Rationale is the provider's reasoning
	Rationale string

	// Dimensions maps assessment dimension name -> score in [0,1].
	// The dimension set varies per call.
	Dimensions map[string]float64

	// Extraordinary marks a consensus-displacing claim
	Extraordinary bool

	// ContradictsConsensus marks a claim conflicting with strong
	// existing consensus
	ContradictsConsensus bool

	// Model is the model that produced the response
	Model string

	// TokensUsed tracks token consumption
	TokensUsed int
}

// EvidenceFeatures are structured features extracted from evidence text
type EvidenceFeatures struct {
	Quantitative           bool    `json:"quantitative"`
	Count                  int     `json:"count"`
	Percentage             float64 `json:"percentage"`
	Hedged                 bool    `json:"hedged"`
	IndependentOrigination bool    `json:"independent_origination"`
}

// Config holds reasoning provider configuration
type Config struct {
	// Provider name: "openai", "anthropic", "ollama", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI/Anthropic
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama)
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// MaxTokens for response generation
	MaxTokens int

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:  "", // Disabled by default
		Timeout:   30,
		MaxTokens: 1000,
	}
}

// ConfigFromModel converts model.ReasonerConfig to reason.Config
func ConfigFromModel(mc model.ReasonerConfig) Config {
	return Config{
		Provider:   mc.Provider,
		Model:      mc.Model,
		APIKey:     mc.APIKey,
		BaseURL:    mc.BaseURL,
		Timeout:    mc.Timeout,
		MaxTokens:  mc.MaxTokens,
		HTTPProxy:  mc.HTTPProxy,
		HTTPSProxy: mc.HTTPSProxy,
		NoProxy:    mc.NoProxy,
	}
}
