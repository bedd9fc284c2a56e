package splitledger

import "github.com/xraph/splitledger/types"

// Re-export common types so callers rarely need the types package.

// Money is re-exported from types package.
type Money = types.Money

// Entity is re-exported from types package.
type Entity = types.Entity

// Re-export Money constructors
var (
	RUB  = types.RUB
	USD  = types.USD
	EUR  = types.EUR
	Zero = types.Zero
	Sum  = types.Sum
)
