package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/dtroode/otptasks-server/internal/model"
)

var _ model.Transactor = (*Transactor)(nil)

// Transactor opens read-committed transactions and binds the repositories
// to them.
type Transactor struct {
	db *Connection
}

func NewTransactor(db *Connection) *Transactor {
	return &Transactor{db: db}
}

// WithinTx commits when fn returns nil and rolls back on error or panic.
func (t *Transactor) WithinTx(ctx context.Context, fn func(ctx context.Context, stores model.Stores) error) error {
	txCtx, runHooks := model.WithCommitHooks(ctx)
	err := pgx.BeginTxFunc(ctx, t.db.Pool, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		return fn(txCtx, model.Stores{
			Users: NewUserRepository(tx),
			Tasks: NewTaskRepository(tx),
		})
	})
	if err != nil {
		return fmt.Errorf("transaction failed: %w", err)
	}
	runHooks()
	return nil
}
