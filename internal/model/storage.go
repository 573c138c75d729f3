package model

import (
	"context"
	"sync"
)

// Stores groups the stores bound to a single transaction.
type Stores struct {
	Users UserStore
	Tasks TaskStore
}

// Transactor runs fn inside one datastore transaction. The transaction is
// committed when fn returns nil and rolled back otherwise. Callbacks
// registered with AfterCommit on the ctx passed to fn run only after a
// successful commit.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, stores Stores) error) error
}

type commitHooksKey struct{}

type commitHooks struct {
	mu  sync.Mutex
	fns []func()
}

// WithCommitHooks returns a context collecting AfterCommit callbacks and a
// function running them in registration order.
func WithCommitHooks(ctx context.Context) (context.Context, func()) {
	hooks := &commitHooks{}
	run := func() {
		hooks.mu.Lock()
		fns := hooks.fns
		hooks.fns = nil
		hooks.mu.Unlock()

		for _, fn := range fns {
			fn()
		}
	}
	return context.WithValue(ctx, commitHooksKey{}, hooks), run
}

// AfterCommit defers fn until the enclosing transaction commits. Outside a
// transaction fn runs immediately.
func AfterCommit(ctx context.Context, fn func()) {
	hooks, ok := ctx.Value(commitHooksKey{}).(*commitHooks)
	if !ok {
		fn()
		return
	}
	hooks.mu.Lock()
	hooks.fns = append(hooks.fns, fn)
	hooks.mu.Unlock()
}
