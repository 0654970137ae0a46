// Package services holds the pieces shared by the command and query sides:
// the repository-level not-found sentinel and the transaction runner
// abstraction the use cases execute atomic work through.
package services

import (
	"context"
	"errors"
)

// ErrDatabaseItemNotFound is returned by repositories when a lookup matches
// no rows. Use cases translate it into the entity-specific business error.
var ErrDatabaseItemNotFound = errors.New("errDatabaseItemNotFound")

// TxRunner runs a function inside a single database transaction. Every
// repository call made with the context passed to fn joins that transaction.
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// TxRunnerFunc adapts a function to the TxRunner interface.
type TxRunnerFunc func(ctx context.Context, fn func(ctx context.Context) error) error

// WithinTx calls f(ctx, fn).
func (f TxRunnerFunc) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return f(ctx, fn)
}
