package policies

import (
	"context"

	"innkeep/internal/domain/property"
	"innkeep/internal/domain/shared/daterange"
)

type Quote struct {
	TotalCents int64
	Currency   string
}

// PricingPort is consulted for a quote during booking creation. Pricing
// logic itself lives outside this core.
type PricingPort interface {
	Quote(ctx context.Context, p *property.Property, span daterange.DateRange) (Quote, error)
}
