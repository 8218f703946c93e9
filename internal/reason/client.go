package reason

import (
	"context"
	"encoding/json"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/pkoval/credence/internal/cache"
	"github.com/pkoval/credence/internal/model"
	"github.com/pkoval/credence/internal/worker"
)

// retryBaseDelay controls the base duration for exponential backoff on
// failed reasoning calls. Tests override this to avoid real sleeps.
var retryBaseDelay = 500 * time.Millisecond

const defaultMaxRetries = 3

// Client wraps a Provider with rate limiting, bounded exponential-backoff
// retry and response caching. Identical requests hit the cache, which
// together with temperature-zero providers makes calls idempotent.
type Client struct {
	provider   Provider
	limiter    *worker.Limiter
	cache      cache.Cache
	maxRetries int
	logger     *zap.Logger
}

// NewClient creates a reasoning client. limiter and responseCache may be
// nil to disable rate limiting or caching.
func NewClient(provider Provider, limiter *worker.Limiter, responseCache cache.Cache, maxRetries int, logger *zap.Logger) *Client {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		provider:   provider,
		limiter:    limiter,
		cache:      responseCache,
		maxRetries: maxRetries,
		logger:     logger,
	}
}

// Provider returns the wrapped provider
func (c *Client) Provider() Provider { return c.provider }

// Assess calls the provider's Assess with retry, rate limiting and caching
func (c *Client) Assess(ctx context.Context, req AssessRequest) (*AssessResponse, error) {
	key := cache.Key("assess", c.provider.Name(), req)
	if c.cache != nil {
		if data, found := c.cache.Get(key); found {
			var resp AssessResponse
			if err := json.Unmarshal(data, &resp); err == nil {
				return &resp, nil
			}
		}
	}

	var resp *AssessResponse
	err := c.withRetry(ctx, func(callCtx context.Context) error {
		r, err := c.provider.Assess(callCtx, req)
		if err != nil {
			return err
		}
		resp = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		if data, err := json.Marshal(resp); err == nil {
			_ = c.cache.Set(key, data, 0)
		}
	}
	return resp, nil
}

// ExtractFeatures calls the provider's ExtractFeatures with retry, rate
// limiting and caching
func (c *Client) ExtractFeatures(ctx context.Context, text string) (*EvidenceFeatures, error) {
	key := cache.Key("features", c.provider.Name(), text)
	if c.cache != nil {
		if data, found := c.cache.Get(key); found {
			var features EvidenceFeatures
			if err := json.Unmarshal(data, &features); err == nil {
				return &features, nil
			}
		}
	}

	var features *EvidenceFeatures
	err := c.withRetry(ctx, func(callCtx context.Context) error {
		f, err := c.provider.ExtractFeatures(callCtx, text)
		if err != nil {
			return err
		}
		features = f
		return nil
	})
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		if data, err := json.Marshal(features); err == nil {
			_ = c.cache.Set(key, data, 0)
		}
	}
	return features, nil
}

// withRetry runs call with per-attempt rate limiting and exponential
// backoff: base, 2x, 4x, ... After exhausting retries the last error is
// wrapped in a ReasoningCallError so callers can degrade gracefully.
func (c *Client) withRetry(ctx context.Context, call func(context.Context) error) error {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * retryBaseDelay
			c.logger.Debug("retrying reasoning call",
				zap.String("provider", c.provider.Name()),
				zap.Int("attempt", attempt),
				zap.Duration("backoff", backoff))
			select {
			case <-ctx.Done():
				return &model.ReasoningCallError{Provider: c.provider.Name(), Attempts: attempt, Err: ctx.Err()}
			case <-time.After(backoff):
			}
		}

		if c.limiter != nil {
			if err := c.limiter.Wait(ctx, c.provider.Name()); err != nil {
				return &model.ReasoningCallError{Provider: c.provider.Name(), Attempts: attempt + 1, Err: err}
			}
		}

		if err := call(ctx); err != nil {
			lastErr = err
			continue
		}
		return nil
	}

	return &model.ReasoningCallError{
		Provider: c.provider.Name(),
		Attempts: c.maxRetries + 1,
		Err:      lastErr,
	}
}
