package nlpcloud

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/ajitpratap0/clinicalnlp/internal/metrics"
	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"
)

// AttemptFunc performs one upstream call and returns the raw 2xx body
type AttemptFunc func(ctx context.Context) ([]byte, error)

// WaitFunc blocks for d or until ctx is done
type WaitFunc func(ctx context.Context, d time.Duration) error

// RetryState tracks one logical call. It is never shared between calls.
type RetryState struct {
	Attempt     int           // retries performed so far
	MaxAttempts int           // retries allowed after the first call
	Delay       time.Duration // wait before the next retry
}

// RetryExecutor drives an attempt through a bounded exponential backoff.
// Only ServerError and NetworkOrTimeout failures are retried.
type RetryExecutor struct {
	maxRetries int
	baseDelay  time.Duration
	wait       WaitFunc
}

// NewRetryExecutor creates an executor. Negative maxRetries is treated as zero.
func NewRetryExecutor(maxRetries int, baseDelay time.Duration) *RetryExecutor {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if baseDelay <= 0 {
		baseDelay = DefaultBaseDelay
	}
	return &RetryExecutor{
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		wait:       waitContext,
	}
}

// WithWait returns a copy of the executor using wait instead of a real timer
func (r *RetryExecutor) WithWait(wait WaitFunc) *RetryExecutor {
	cp := *r
	cp.wait = wait
	return &cp
}

// MaxRetries returns the configured retry bound
func (r *RetryExecutor) MaxRetries() int {
	return r.maxRetries
}

// schedule yields base, 2*base, 4*base, ... with no jitter and no cap
func (r *RetryExecutor) schedule() *backoff.ExponentialBackOff {
	b := &backoff.ExponentialBackOff{
		InitialInterval:     r.baseDelay,
		RandomizationFactor: 0,
		Multiplier:          2,
		MaxInterval:         time.Duration(math.MaxInt64),
		MaxElapsedTime:      0,
		Stop:                backoff.Stop,
		Clock:               backoff.SystemClock,
	}
	b.Reset()
	return b
}

// Execute runs attempt until it succeeds, fails fatally, or retries run out.
// Every failure is returned as a *GatewayError.
func (r *RetryExecutor) Execute(ctx context.Context, task TaskKind, path string, attempt AttemptFunc) ([]byte, error) {
	sched := r.schedule()
	state := RetryState{MaxAttempts: r.maxRetries, Delay: sched.NextBackOff()}

	for {
		if err := ctx.Err(); err != nil {
			return nil, r.fail(task, path, state, KindNetworkOrTimeout, err)
		}

		start := time.Now()
		body, err := attempt(ctx)
		elapsed := time.Since(start)

		if err == nil {
			metrics.RecordUpstreamAttempt(string(task), metrics.OutcomeSuccess, float64(elapsed.Milliseconds()))
			log.Debug().
				Str("task", string(task)).
				Str("path", path).
				Int("attempt", state.Attempt+1).
				Int("body_bytes", len(body)).
				Dur("duration", elapsed).
				Msg("NLP Cloud call succeeded")
			return body, nil
		}

		metrics.RecordUpstreamAttempt(string(task), metrics.OutcomeFailure, float64(elapsed.Milliseconds()))
		kind := Classify(err)

		if kind == KindRateLimited {
			log.Warn().
				Str("task", string(task)).
				Str("path", path).
				Msg("NLP Cloud rate limit exceeded (HTTP 429). No retry will be attempted.")
			return nil, r.fail(task, path, state, kind, err)
		}

		if !kind.Retryable() || state.Attempt >= state.MaxAttempts {
			return nil, r.fail(task, path, state, kind, err)
		}

		// Cancellation during or before the wait stops the loop
		if ctx.Err() != nil {
			return nil, r.fail(task, path, state, kind, errors.Join(err, ctx.Err()))
		}

		log.Warn().
			Str("task", string(task)).
			Str("path", path).
			Str("kind", string(kind)).
			Int("attempt", state.Attempt+1).
			Int("max_retries", state.MaxAttempts).
			Dur("delay", state.Delay).
			Msg("Transient NLP Cloud failure, retrying")
		metrics.RecordUpstreamRetry(string(task), string(kind))

		if werr := r.wait(ctx, state.Delay); werr != nil {
			return nil, r.fail(task, path, state, kind, errors.Join(err, werr))
		}

		state.Attempt++
		state.Delay = sched.NextBackOff()
	}
}

func (r *RetryExecutor) fail(task TaskKind, path string, state RetryState, kind FailureKind, cause error) *GatewayError {
	metrics.RecordUpstreamFailure(string(task), string(kind))

	// The cause may describe a transport error but never carries a response body
	log.Error().
		Str("task", string(task)).
		Str("path", path).
		Str("kind", string(kind)).
		Int("attempts", state.Attempt+1).
		AnErr("cause", cause).
		Msg("NLP Cloud call failed")

	return newGatewayError(task, kind, cause)
}

func waitContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
