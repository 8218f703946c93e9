package model

// Config is the complete Credence configuration
type Config struct {
	Reasoner    ReasonerConfig    `yaml:"reasoner" json:"reasoner"`
	Engine      EngineConfig      `yaml:"engine" json:"engine"`
	Resolver    ResolverConfig    `yaml:"resolver" json:"resolver"`
	Roles       RolesConfig       `yaml:"roles" json:"roles"`
	Priors      []PopulationPrior `yaml:"priors" json:"priors"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" json:"concurrency"`
	Store       StoreConfig       `yaml:"store" json:"store"`
	Cache       CacheConfig       `yaml:"cache" json:"cache"`
}

// ReasonerConfig configures the external reasoning capability
type ReasonerConfig struct {
	Provider  string `yaml:"provider" json:"provider"` // openai, anthropic, ollama, "" (disabled)
	Model     string `yaml:"model" json:"model"`
	APIKey    string `yaml:"api_key" json:"-"`
	BaseURL   string `yaml:"base_url" json:"base_url"`
	Timeout   int    `yaml:"timeout" json:"timeout"` // seconds, per call
	MaxTokens int    `yaml:"max_tokens" json:"max_tokens"`

	MaxRetries        int     `yaml:"max_retries" json:"max_retries"`
	RequestsPerSecond float64 `yaml:"requests_per_second" json:"requests_per_second"`
	Burst             int     `yaml:"burst" json:"burst"`

	HTTPProxy  string `yaml:"http_proxy" json:"http_proxy"`
	HTTPSProxy string `yaml:"https_proxy" json:"https_proxy"`
	NoProxy    string `yaml:"no_proxy" json:"no_proxy"`
}

// EngineConfig holds the aggregation arithmetic parameters
type EngineConfig struct {
	// EvidenceStrength is the fixed pseudo-count constant one fully
	// confident, fully independent instance contributes.
	EvidenceStrength float64 `yaml:"evidence_strength" json:"evidence_strength"`

	// MinEvidence is the minimum instance count for the full dual-engine
	// method; below it aggregation falls back with a caveat.
	MinEvidence int `yaml:"min_evidence" json:"min_evidence"`

	// Cross-calibration parameters
	AdjustmentRate       float64 `yaml:"adjustment_rate" json:"adjustment_rate"`
	ConvergenceThreshold float64 `yaml:"convergence_threshold" json:"convergence_threshold"`
	MaxIterations        int     `yaml:"max_iterations" json:"max_iterations"`

	// ExtraordinaryDiscount multiplies contextual estimates for
	// consensus-displacing claims.
	ExtraordinaryDiscount float64 `yaml:"extraordinary_discount" json:"extraordinary_discount"`

	// ResolutionTolerance is the max allowed spread between low/medium/high
	// resolution estimates before a cluster is flagged for review.
	ResolutionTolerance float64 `yaml:"resolution_tolerance" json:"resolution_tolerance"`
}

// ResolverConfig tunes entity resolution
type ResolverConfig struct {
	// SimilarityThreshold is the adaptive-merge baseline in [0,1]
	SimilarityThreshold float64 `yaml:"similarity_threshold" json:"similarity_threshold"`
}

// RolesConfig is the predicate evidence-role table. Weaker predicates map
// to the stronger predicates they are evidence for (not equivalent to).
// Treated as configuration, not hardcoded logic.
type RolesConfig struct {
	// EvidenceFor maps weak predicate -> stronger predicates it supports
	EvidenceFor map[string][]string `yaml:"evidence_for" json:"evidence_for"`
}

// PopulationPrior seeds the Bayesian engine from population-level base
// rates for a domain/predicate pair. Explicitly passed, never ambient
// global state, so multiple domains can run concurrently.
type PopulationPrior struct {
	Domain    string  `yaml:"domain" json:"domain"`
	Predicate string  `yaml:"predicate" json:"predicate"`
	BaseRate  float64 `yaml:"base_rate" json:"base_rate"` // Mean of the base-rate distribution
	Variance  float64 `yaml:"variance" json:"variance"`   // Variance of the base-rate distribution
}

// ConcurrencyConfig bounds parallelism
type ConcurrencyConfig struct {
	ClusterWorkers int `yaml:"cluster_workers" json:"cluster_workers"`
}

// StoreConfig configures the downstream graph store
type StoreConfig struct {
	Path string `yaml:"path" json:"path"` // SQLite database path; empty = in-memory only
}

// CacheConfig configures reasoning-response caching
type CacheConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Dir     string `yaml:"dir" json:"dir"`         // Disk cache directory
	TTLDays int    `yaml:"ttl_days" json:"ttl_days"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Reasoner: ReasonerConfig{
			Provider:          "",
			Timeout:           30,
			MaxTokens:         1000,
			MaxRetries:        3,
			RequestsPerSecond: 2,
			Burst:             4,
		},
		Engine: EngineConfig{
			EvidenceStrength:      0.6,
			MinEvidence:           2,
			AdjustmentRate:        0.2,
			ConvergenceThreshold:  0.05,
			MaxIterations:         20,
			ExtraordinaryDiscount: 0.7,
			ResolutionTolerance:   0.25,
		},
		Resolver: ResolverConfig{
			SimilarityThreshold: 0.82,
		},
		Roles: RolesConfig{
			EvidenceFor: DefaultEvidenceRoles(),
		},
		Concurrency: ConcurrencyConfig{
			ClusterWorkers: 4,
		},
		Cache: CacheConfig{
			Enabled: true,
			TTLDays: 7,
		},
	}
}

// DefaultEvidenceRoles returns the built-in predicate evidence-role table.
// The table's completeness is an open design risk; deployments extend it
// via configuration.
func DefaultEvidenceRoles() map[string][]string {
	return map[string][]string{
		"cited":           {"influenced_by", "extends_work_of"},
		"cites":           {"influenced_by", "extends_work_of"},
		"referenced":      {"influenced_by"},
		"acknowledged":    {"influenced_by", "collaborated_with"},
		"co_authored":     {"collaborated_with"},
		"corresponded":    {"collaborated_with", "influenced_by"},
		"extends_work_of": {"influenced_by"},
	}
}
