package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Shivanand-hulikatti/event-ledger/internal/config"
	"github.com/Shivanand-hulikatti/event-ledger/internal/model"
	"github.com/cenkalti/backoff/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/Shivanand-hulikatti/event-ledger/internal/service"

// DefaultBudget is the retry budget used when none is configured.
var DefaultBudget = config.LedgerConfig{
	MaxAttempts:    5,
	InitialBackoff: 10 * time.Millisecond,
	MaxBackoff:     200 * time.Millisecond,
	Timeout:        5 * time.Second,
}

// unitRunner runs units of work under a bounded retry budget.
type unitRunner struct {
	tx     TxRunner
	budget config.LedgerConfig
	log    *slog.Logger
	tracer trace.Tracer
}

func newUnitRunner(tx TxRunner, budget config.LedgerConfig, log *slog.Logger) unitRunner {
	if budget.MaxAttempts == 0 {
		budget.MaxAttempts = DefaultBudget.MaxAttempts
	}
	if budget.InitialBackoff <= 0 {
		budget.InitialBackoff = DefaultBudget.InitialBackoff
	}
	if budget.MaxBackoff < budget.InitialBackoff {
		budget.MaxBackoff = max(DefaultBudget.MaxBackoff, budget.InitialBackoff)
	}
	if budget.Timeout <= 0 {
		budget.Timeout = DefaultBudget.Timeout
	}
	return unitRunner{tx: tx, budget: budget, log: log, tracer: otel.Tracer(tracerName)}
}

// run executes fn in a fresh unit of work per attempt.
//
// The unit is detached from the caller's cancellation: once started it runs
// to commit or rollback, bounded only by the operation timeout. Lost races
// (model.ErrConcurrentUpdate) are retried with exponential backoff; running
// out of attempts or time yields model.ErrTransientConflict. Every other
// error ends the loop immediately.
func (a unitRunner) run(ctx context.Context, name string, fn func(ctx context.Context) error, attrs ...attribute.KeyValue) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.budget.Timeout)
	defer cancel()

	ctx, span := a.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
	defer span.End()

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = a.budget.InitialBackoff
	b.MaxInterval = a.budget.MaxBackoff

	attempt := 0
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		attempt++
		err := a.tx.WithTx(ctx, fn)
		switch {
		case err == nil:
			return struct{}{}, nil
		case errors.Is(err, model.ErrConcurrentUpdate):
			a.log.Debug("unit of work lost a race, retrying",
				slog.String("op", name),
				slog.Int("attempt", attempt),
				slog.String("error", err.Error()),
			)
			return struct{}{}, err
		default:
			return struct{}{}, backoff.Permanent(err)
		}
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(a.budget.MaxAttempts),
		backoff.WithMaxElapsedTime(a.budget.Timeout),
	)
	span.SetAttributes(attribute.Int("ledger.attempts", attempt))

	if err == nil {
		return nil
	}
	if errors.Is(err, model.ErrConcurrentUpdate) || errors.Is(err, context.DeadlineExceeded) {
		span.SetStatus(codes.Error, "retry budget exhausted")
		a.log.Warn("unit of work gave up",
			slog.String("op", name),
			slog.Int("attempts", attempt),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("%w after %d attempt(s)", model.ErrTransientConflict, attempt)
	}
	if !isExpected(err) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		a.log.Error("unit of work failed",
			slog.String("op", name),
			slog.String("error", err.Error()),
		)
	}
	return err
}

// isExpected reports whether err is one of the outcomes callers handle.
func isExpected(err error) bool {
	for _, target := range []error{
		model.ErrNotFound,
		model.ErrForbidden,
		model.ErrEventFull,
		model.ErrAlreadyRegistered,
		model.ErrAlreadyCancelled,
		model.ErrCapacityTooLow,
		model.ErrTransientConflict,
		model.ErrValidation,
		model.ErrInvalidID,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
