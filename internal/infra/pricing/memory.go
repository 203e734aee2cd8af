package pricing

import (
	"context"

	"innkeep/internal/app/policies"
	"innkeep/internal/domain/property"
	"innkeep/internal/domain/shared/daterange"
)

// FlatRate is a deterministic nightly-rate quoter used for local demos
// and tests. Real pricing lives outside this core.
type FlatRate struct {
	NightlyCents int64
	Currency     string
}

func NewFlatRate(nightlyCents int64) *FlatRate {
	if nightlyCents <= 0 {
		nightlyCents = 10000 // $100.00
	}
	return &FlatRate{NightlyCents: nightlyCents, Currency: "USD"}
}

func (f *FlatRate) Quote(ctx context.Context, p *property.Property, span daterange.DateRange) (policies.Quote, error) {
	nights := span.Nights()
	if nights < 1 {
		nights = 1
	}
	return policies.Quote{
		TotalCents: f.NightlyCents * int64(nights),
		Currency:   f.Currency,
	}, nil
}

var _ policies.PricingPort = (*FlatRate)(nil)
