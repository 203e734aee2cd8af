package inventory

import (
	"context"

	"innkeep/internal/domain/property"
	"innkeep/internal/domain/shared/daterange"
)

type RangeKind string

const (
	KindBooking RangeKind = "booking"
	KindBlock   RangeKind = "block"
)

type RangeState string

const (
	StateOccupied RangeState = "occupied"
	StateBlocked  RangeState = "blocked"
)

// Range is one half-open occupancy interval on a property. Rows of this
// shape back the storage-level exclusion constraint: no two of them may
// overlap within one property.
type Range struct {
	ID         string
	TenantID   string
	PropertyID property.PropertyID
	Kind       RangeKind
	Span       daterange.DateRange
	SourceID   string
}

func (r Range) State() RangeState {
	if r.Kind == KindBlock {
		return StateBlocked
	}
	return StateOccupied
}

type RangeRepository interface {
	// Insert adds an occupancy row. Overlap with an existing row surfaces
	// as *storerr.RangeExclusionError.
	Insert(ctx context.Context, r *Range) error
	// DeleteBySource removes the row owned by a booking or block,
	// immediately freeing the window.
	DeleteBySource(ctx context.Context, kind RangeKind, sourceID string) error
	// Overlapping returns every row on the property intersecting span.
	Overlapping(ctx context.Context, id property.PropertyID, span daterange.DateRange) ([]Range, error)
	BySource(ctx context.Context, kind RangeKind, sourceID string) (*Range, error)
}
