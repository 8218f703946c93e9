package reason

import (
	"context"
	"sync"
)

// ScriptedProvider is a configurable deterministic provider for testing.
// Set the response fields to control what each method returns; call
// tracking supports assertions on request content and call counts.
type ScriptedProvider struct {
	AssessResponse  *AssessResponse
	AssessError     error
	FeaturesResponse *EvidenceFeatures
	FeaturesError   error

	// AssessFunc, when set, overrides AssessResponse/AssessError
	AssessFunc func(req AssessRequest) (*AssessResponse, error)

	// Call tracking for assertions
	mu            sync.Mutex
	AssessCalls   []AssessRequest
	FeaturesCalls []string
}

// NewScriptedProvider returns a provider with a neutral default assessment
func NewScriptedProvider() *ScriptedProvider {
	return &ScriptedProvider{
		AssessResponse: &AssessResponse{
			Score:     0.5,
			Rationale: "scripted assessment",
			Dimensions: map[string]float64{
				"relevance": 0.5,
				"coherence": 0.5,
			},
			Model: "scripted",
		},
		FeaturesResponse: &EvidenceFeatures{},
	}
}

// Name returns the provider name
func (p *ScriptedProvider) Name() string { return "scripted" }

// IsAvailable always reports true
func (p *ScriptedProvider) IsAvailable(ctx context.Context) bool { return true }

// Assess returns the scripted assessment
func (p *ScriptedProvider) Assess(ctx context.Context, req AssessRequest) (*AssessResponse, error) {
	p.mu.Lock()
	p.AssessCalls = append(p.AssessCalls, req)
	p.mu.Unlock()

	if p.AssessFunc != nil {
		return p.AssessFunc(req)
	}
	if p.AssessError != nil {
		return nil, p.AssessError
	}
	resp := *p.AssessResponse
	return &resp, nil
}

// ExtractFeatures returns the scripted features
func (p *ScriptedProvider) ExtractFeatures(ctx context.Context, text string) (*EvidenceFeatures, error) {
	p.mu.Lock()
	p.FeaturesCalls = append(p.FeaturesCalls, text)
	p.mu.Unlock()

	if p.FeaturesError != nil {
		return nil, p.FeaturesError
	}
	features := *p.FeaturesResponse
	return &features, nil
}
