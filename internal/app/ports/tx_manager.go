package ports

import "context"

// TxManager runs fn with a context carrying the transaction. Repositories
// called with txCtx join it, so a save and its event append commit together.
type TxManager interface {
	RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error
}
