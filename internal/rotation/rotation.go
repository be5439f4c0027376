// Package rotation executes a task against an ordered pool of backend model
// identifiers with bounded retries: transient failures rotate to the next
// pool entry after an exponential backoff, non-retryable failures abort the
// call immediately.
package rotation

import (
	"context"
	"time"

	"github.com/mirandascomunicacaovisual-glitch/Gerador-de-logo-L2/internal/classify"
	"github.com/mirandascomunicacaovisual-glitch/Gerador-de-logo-L2/pkg/models"
)

const (
	// DefaultMaxAttempts bounds a single logical call.
	DefaultMaxAttempts = 3

	backoffBase = time.Second
)

// Sleeper waits for the given duration or until the context is done.
// Injectable so tests can observe backoff without waiting.
type Sleeper func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Operation is one attempt against a chosen model. The degraded flag is set
// for every attempt after the first so the prompt builder can shrink the
// payload.
type Operation[T any] func(ctx context.Context, model string, degraded bool) (T, error)

// Executor walks a model pool sequentially. There is never more than one
// in-flight attempt per call.
type Executor struct {
	pool        *models.ModelPool
	sleep       Sleeper
	maxAttempts int
}

// Config carries executor construction parameters. Zero values fall back to
// the defaults.
type Config struct {
	Pool        *models.ModelPool
	Sleep       Sleeper
	MaxAttempts int
}

func NewExecutor(cfg *Config) *Executor {
	e := &Executor{
		pool:        cfg.Pool,
		sleep:       cfg.Sleep,
		maxAttempts: cfg.MaxAttempts,
	}
	if e.pool == nil {
		e.pool = models.DefaultPool()
	}
	if e.sleep == nil {
		e.sleep = sleepContext
	}
	if e.maxAttempts <= 0 {
		e.maxAttempts = DefaultMaxAttempts
	}
	return e
}

// Pool exposes the executor's pool for callers that need the orderings.
func (e *Executor) Pool() *models.ModelPool { return e.pool }

// Execute runs op across the pool for the given task kind. Attempt i uses
// pool entry i (clamped to the last entry past the pool end) and is degraded
// for i > 0. On a retryable failure it waits backoffBase * 2^attempt before
// the next attempt; on an authentication-class or fatal failure it aborts
// with that error. The result is the first success or the final classified
// failure.
func Execute[T any](ctx context.Context, e *Executor, kind models.TaskKind, op Operation[T]) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; attempt < e.maxAttempts; attempt++ {
		model := e.pool.Pick(kind, attempt)
		if model == "" {
			return zero, models.ErrUnknownTask
		}

		res, err := op(ctx, model, attempt > 0)
		if err == nil {
			return res, nil
		}
		lastErr = err

		disposition := classify.ClassifyError(err)
		if !disposition.Retryable() || attempt == e.maxAttempts-1 {
			return zero, err
		}
		if serr := e.sleep(ctx, backoffBase<<attempt); serr != nil {
			return zero, serr
		}
	}
	return zero, lastErr
}
