package db

import (
	"context"
	"database/sql"
	"fmt"
)

// TxRunner executes fn inside one transaction. The transaction commits only
// when fn returns nil; any error rolls back every write made through tx.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error
}

type txRunner struct {
	db *sql.DB
}

func NewTxRunner(db *sql.DB) TxRunner {
	return &txRunner{db: db}
}

func (r *txRunner) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return Classify(fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return Classify(err)
	}

	if err := tx.Commit(); err != nil {
		return Classify(fmt.Errorf("commit tx: %w", err))
	}
	return nil
}
