package mocks

import (
	"context"

	"github.com/dtroode/otptasks-server/internal/model"
)

// Transactor runs callbacks against fixed stores and counts the outcomes.
type Transactor struct {
	Stores     model.Stores
	BeginErr   error
	Committed  int
	RolledBack int
}

func (t *Transactor) WithinTx(ctx context.Context, fn func(ctx context.Context, stores model.Stores) error) error {
	if t.BeginErr != nil {
		return t.BeginErr
	}
	txCtx, runHooks := model.WithCommitHooks(ctx)
	if err := fn(txCtx, t.Stores); err != nil {
		t.RolledBack++
		return err
	}
	t.Committed++
	runHooks()
	return nil
}
