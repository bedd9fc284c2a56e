package transaction

import (
	"context"

	"github.com/xraph/splitledger/id"
)

// Store persists transactions. Create writes the transaction and all of its
// shares as one unit: a reader sees both or neither.
type Store interface {
	Create(ctx context.Context, t *Transaction) error
	Get(ctx context.Context, txID id.TransactionID) (*Transaction, error)
	List(ctx context.Context, groupID id.GroupID, opts ListOpts) ([]*Transaction, error)
}

// ListOpts filters a group's transactions. Results are newest first; a zero
// Limit means no limit.
type ListOpts struct {
	Kind   Kind
	Limit  int
	Offset int
}
