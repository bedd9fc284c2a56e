package splitledger

import "github.com/xraph/splitledger/id"

// ID is the identifier type for participants, groups and transactions.
type ID = id.ID

// Prefix identifies the entity type encoded in a TypeID.
type Prefix = id.Prefix
