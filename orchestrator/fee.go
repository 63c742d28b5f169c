package orchestrator

import "github.com/sardis-labs/core/types"

// FeePricer computes the platform fee for a proposed payment. The
// default implementation is a flat fee per currency, configurable at
// construction; a conforming implementation may swap in a percentage or
// tiered pricer without changing the orchestrator.
type FeePricer interface {
	Fee(amount types.Money) types.Money
}

// FlatFeePricer charges a fixed amount per currency regardless of the
// payment size.
type FlatFeePricer struct {
	flat map[string]types.Money
}

// NewFlatFeePricer builds a pricer from a currency->flat-fee table.
func NewFlatFeePricer(flat map[string]types.Money) *FlatFeePricer {
	return &FlatFeePricer{flat: flat}
}

func (p *FlatFeePricer) Fee(amount types.Money) types.Money {
	if fee, ok := p.flat[amount.Currency]; ok {
		return fee
	}
	return types.Zero(amount.Currency)
}
