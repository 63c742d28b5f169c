package sardis

import (
	"github.com/sardis-labs/core/types"
)

// Re-exported so importers of the root package rarely need the types
// subpackage import for everyday use.

// Money is re-exported from the types package.
type Money = types.Money

// Entity is re-exported from the types package.
type Entity = types.Entity

// Re-exported Money constructors.
var (
	USDC       = types.USDC
	MoneyZero  = types.Zero
	MoneyFromI = types.FromInt
	MoneySum   = types.Sum
)

// NewEntity is re-exported from the types package.
var NewEntity = types.NewEntity
