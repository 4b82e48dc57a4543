package executor

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// RetryPolicy defines backoff behavior for chat-client calls. The zero
// value (or a nil pointer in Config) means a single attempt, preserving
// the executor's block-until-done semantics.
type RetryPolicy struct {
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	Jitter       bool
}

// DefaultRetryPolicy returns the policy hosts typically use for provider
// calls.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:   3,
		InitialDelay: 1 * time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
		Jitter:       true,
	}
}

// retryChat invokes fn with retry per policy, classifying each error.
// Non-retryable errors return immediately; "maybe" class errors get at
// most two attempts regardless of policy.
func retryChat(ctx context.Context, policy RetryPolicy, fn func(ctx context.Context) (ChatResponse, error)) (ChatResponse, error) {
	attempt := 0
	for {
		resp, err := fn(ctx)
		if err == nil {
			return resp, nil
		}
		if ctx.Err() != nil {
			return ChatResponse{}, err
		}

		class := ClassifyChatError(err)
		if class == RetryClassNonRetryable {
			return ChatResponse{}, err
		}
		if attempt >= policy.MaxRetries {
			return ChatResponse{}, &RetryExhaustedError{Err: err, Attempts: attempt}
		}
		if class == RetryClassMaybe && attempt >= 2 {
			return ChatResponse{}, &RetryExhaustedError{Err: err, Attempts: attempt}
		}

		delay := backoffDelay(policy, attempt)
		select {
		case <-ctx.Done():
			return ChatResponse{}, ctx.Err()
		case <-time.After(delay):
		}
		attempt++
	}
}

func backoffDelay(policy RetryPolicy, attempt int) time.Duration {
	multiplier := policy.Multiplier
	if multiplier <= 0 {
		multiplier = 2.0
	}
	delay := float64(policy.InitialDelay) * math.Pow(multiplier, float64(attempt))
	if policy.MaxDelay > 0 && delay > float64(policy.MaxDelay) {
		delay = float64(policy.MaxDelay)
	}
	if policy.Jitter {
		delay += rand.Float64() * 0.2 * delay
	}
	return time.Duration(delay)
}
