package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the subset of database/sql methods shared by *sql.DB and *sql.Tx.
// Repositories run against either, so the invoice coordinator can compose
// catalog reads, stock decrements, numbering and the invoice insert into one
// transaction boundary.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// TxRunner runs a function inside a database transaction. The transaction is
// committed when fn returns nil and rolled back otherwise.
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(tx *sql.Tx) error) error
}

// TxManager is the database-backed TxRunner.
type TxManager struct {
	db *sql.DB
}

// NewTxManager creates a TxManager over the given pool.
func NewTxManager(db *sql.DB) *TxManager {
	return &TxManager{db: db}
}

// WithinTx begins a transaction, runs fn with it, and commits or rolls back.
// The error from fn is returned unchanged so callers can match sentinel
// errors raised inside the transaction.
func (m *TxManager) WithinTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// isUniqueViolation reports whether err is a Postgres unique-constraint
// violation, optionally restricted to a named constraint.
func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	if pgErr.Code != "23505" {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}
