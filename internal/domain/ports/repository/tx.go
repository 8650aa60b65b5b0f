package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

// Tx is an infra-defined transaction handle (pgx.Tx for Postgres).
// Repositories accept NoTX to run outside of a transaction.
type Tx interface{}

var NoTX interface{}

// TransactionManager runs fn inside a single database transaction and hands
// the transaction to repositories through tx. A returned error rolls back.
//
//	tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx Tx) error {
//		inserted, err := events.MarkProcessed(ctx, tx, ev)
//		...
//	})
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}

type afterCommitKey struct{}

type afterCommitHooks struct {
	fns []func(ctx context.Context)
}

// WithAfterCommit returns a ctx that collects AfterCommit callbacks and a
// func that runs them. Transaction managers call run only after a successful commit.
func WithAfterCommit(ctx context.Context) (txCtx context.Context, run func(ctx context.Context)) {
	h := &afterCommitHooks{}
	return context.WithValue(ctx, afterCommitKey{}, h), func(ctx context.Context) {
		for _, fn := range h.fns {
			fn(ctx)
		}
	}
}

// AfterCommit defers fn until the transaction carried by ctx commits.
// Outside WithTx it runs fn immediately.
func AfterCommit(ctx context.Context, fn func(ctx context.Context)) {
	if h, ok := ctx.Value(afterCommitKey{}).(*afterCommitHooks); ok {
		h.fns = append(h.fns, fn)
		return
	}
	fn(ctx)
}
