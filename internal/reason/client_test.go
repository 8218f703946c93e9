package reason

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkoval/credence/internal/cache"
	"github.com/pkoval/credence/internal/model"
	"github.com/pkoval/credence/internal/worker"
)

func fastRetries(t *testing.T) {
	t.Helper()
	orig := retryBaseDelay
	retryBaseDelay = time.Millisecond
	t.Cleanup(func() { retryBaseDelay = orig })
}

func TestClient_RetrySucceedsAfterTransientFailures(t *testing.T) {
	fastRetries(t)

	calls := 0
	provider := NewScriptedProvider()
	provider.AssessFunc = func(req AssessRequest) (*AssessResponse, error) {
		calls++
		if calls < 3 {
			return nil, errors.New("transient")
		}
		return &AssessResponse{Score: 0.7}, nil
	}

	client := NewClient(provider, nil, nil, 3, nil)
	resp, err := client.Assess(context.Background(), AssessRequest{Claim: "c"})

	require.NoError(t, err)
	assert.InDelta(t, 0.7, resp.Score, 1e-9)
	assert.Equal(t, 3, calls)
}

func TestClient_ExhaustedRetriesWrapError(t *testing.T) {
	fastRetries(t)

	provider := NewScriptedProvider()
	provider.AssessError = errors.New("hard failure")

	client := NewClient(provider, nil, nil, 2, nil)
	_, err := client.Assess(context.Background(), AssessRequest{Claim: "c"})

	require.Error(t, err)
	var callErr *model.ReasoningCallError
	require.ErrorAs(t, err, &callErr)
	assert.Equal(t, "scripted", callErr.Provider)
	assert.Equal(t, 3, callErr.Attempts)
	assert.ErrorContains(t, err, "hard failure")
}

func TestClient_CancelledContextStopsRetrying(t *testing.T) {
	provider := NewScriptedProvider()
	provider.AssessError = errors.New("failing")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewClient(provider, nil, nil, 3, nil)
	_, err := client.Assess(ctx, AssessRequest{Claim: "c"})

	require.Error(t, err)
	var callErr *model.ReasoningCallError
	require.ErrorAs(t, err, &callErr)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClient_IdenticalRequestsHitCache(t *testing.T) {
	provider := NewScriptedProvider()
	provider.AssessResponse = &AssessResponse{Score: 0.8, Rationale: "cached"}

	responseCache := cache.NewMemoryCache(time.Minute, time.Minute)
	client := NewClient(provider, nil, responseCache, 1, nil)

	req := AssessRequest{Claim: "ent-a influenced_by ent-b", Domain: "research"}

	first, err := client.Assess(context.Background(), req)
	require.NoError(t, err)
	second, err := client.Assess(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first.Score, second.Score)
	assert.Equal(t, first.Rationale, second.Rationale)
	// Second call answered from cache, not the provider
	assert.Len(t, provider.AssessCalls, 1)
}

func TestClient_DifferentRequestsMissCache(t *testing.T) {
	provider := NewScriptedProvider()
	responseCache := cache.NewMemoryCache(time.Minute, time.Minute)
	client := NewClient(provider, nil, responseCache, 1, nil)

	_, err := client.Assess(context.Background(), AssessRequest{Claim: "claim one"})
	require.NoError(t, err)
	_, err = client.Assess(context.Background(), AssessRequest{Claim: "claim two"})
	require.NoError(t, err)

	assert.Len(t, provider.AssessCalls, 2)
}

func TestClient_ExtractFeaturesCached(t *testing.T) {
	provider := NewScriptedProvider()
	provider.FeaturesResponse = &EvidenceFeatures{Quantitative: true, Count: 42}

	responseCache := cache.NewMemoryCache(time.Minute, time.Minute)
	client := NewClient(provider, nil, responseCache, 1, nil)

	first, err := client.ExtractFeatures(context.Background(), "witnessed by 42 observers")
	require.NoError(t, err)
	second, err := client.ExtractFeatures(context.Background(), "witnessed by 42 observers")
	require.NoError(t, err)

	assert.Equal(t, 42, first.Count)
	assert.Equal(t, 42, second.Count)
	assert.Len(t, provider.FeaturesCalls, 1)
}

func TestClient_RateLimiterKeyedByProvider(t *testing.T) {
	provider := NewScriptedProvider()
	limiter := worker.NewLimiter(1, 1)

	client := NewClient(provider, limiter, nil, 1, nil)
	_, err := client.Assess(context.Background(), AssessRequest{Claim: "c"})
	require.NoError(t, err)

	// The call consumed the provider's token bucket
	assert.False(t, limiter.Allow("scripted"))
}
