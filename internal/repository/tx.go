// Package repository implements the PostgreSQL Event Store, Registration Store
// and query views. It uses pgx directly (no ORM).
//
// Every repository resolves its connection per call: inside a unit of work
// opened by Transactor.WithTx the call joins that transaction, otherwise it
// runs on the pool. This is what lets the ledger span both stores atomically.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Shivanand-hulikatti/event-ledger/internal/config"
	"github.com/Shivanand-hulikatti/event-ledger/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgreSQL error codes the stores translate.
const (
	codeUniqueViolation      = "23505"
	codeForeignKeyViolation  = "23503"
	codeCheckViolation       = "23514"
	codeInvalidText          = "22P02"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeLockNotAvailable     = "55P03"
)

type txKey struct{}

// dbtx is the subset of pgx shared by *pgxpool.Pool and pgx.Tx.
type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Transactor opens atomic units of work shared by all repositories on a pool.
type Transactor struct {
	pool *pgxpool.Pool
	opts pgx.TxOptions
}

// NewTransactor builds a Transactor using the given ledger isolation mode.
func NewTransactor(pool *pgxpool.Pool, isolation string) *Transactor {
	opts := pgx.TxOptions{IsoLevel: pgx.ReadCommitted}
	if isolation == config.IsolationSerializable {
		opts.IsoLevel = pgx.Serializable
	}
	return &Transactor{pool: pool, opts: opts}
}

// WithTx runs fn inside one transaction. Nested calls join the outer one.
// Lost races surface as model.ErrConcurrentUpdate so callers can retry.
func (t *Transactor) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if txFromContext(ctx) != nil {
		return fn(ctx)
	}

	tx, err := t.pool.BeginTx(ctx, t.opts)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	txCtx := context.WithValue(ctx, txKey{}, tx)
	if err := fn(txCtx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		if isRetryable(err) {
			return fmt.Errorf("commit transaction: %w", model.ErrConcurrentUpdate)
		}
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func txFromContext(ctx context.Context) pgx.Tx {
	tx, _ := ctx.Value(txKey{}).(pgx.Tx)
	return tx
}

func conn(ctx context.Context, pool *pgxpool.Pool) dbtx {
	if tx := txFromContext(ctx); tx != nil {
		return tx
	}
	return pool
}

func pgErrorCode(err error) (code, constraint string) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code, pgErr.ConstraintName
	}
	return "", ""
}

func isRetryable(err error) bool {
	code, _ := pgErrorCode(err)
	switch code {
	case codeSerializationFailure, codeDeadlockDetected, codeLockNotAvailable:
		return true
	}
	return false
}

// classify maps driver failures shared by every statement. Statement specific
// codes (unique, check, foreign key) are handled by the caller first.
func classify(op string, err error) error {
	if isRetryable(err) {
		return fmt.Errorf("%s: %w", op, model.ErrConcurrentUpdate)
	}
	if code, _ := pgErrorCode(err); code == codeInvalidText {
		return fmt.Errorf("%s: %w", op, model.ErrInvalidID)
	}
	return fmt.Errorf("%s: %w", op, err)
}
