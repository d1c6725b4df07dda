package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

type Tx interface{}

var NoTX interface{}

// TransactionManager provides a thin abstraction to execute a function within a
// database transaction, passing the underlying transaction handle via `tx`.
//
// Keeps use-case interfaces clean (no driver transaction types leaking out)
// while letting repository methods that accept `tx Tx` detect a live
// transaction and run their statements on it. Repositories MUST gracefully
// accept a nil tx (non-transactional path).
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}
