// Package calendar serves the inventory range index: a read-only
// projection of everything occupying a property's calendar.
package calendar

import (
	"context"
	"errors"
	"time"

	"innkeep/internal/app/handlers/support"
	"innkeep/internal/app/queries"
	"innkeep/internal/app/uow"
	domainproperty "innkeep/internal/domain/property"
	"innkeep/internal/domain/shared/daterange"
	"innkeep/internal/domain/shared/faults"
	"innkeep/internal/domain/shared/storerr"
)

const getRangesKey = "calendar.get_ranges"

// DefaultMaxWindowDays caps the queried window.
const DefaultMaxWindowDays = 365

type GetRangesQuery struct {
	Tenant     string    `validate:"required"`
	PropertyID string    `validate:"required"`
	From       time.Time `validate:"required"`
	To         time.Time `validate:"required"`
}

func (q GetRangesQuery) Key() string { return getRangesKey }

type RangeView struct {
	Kind     string `json:"kind"`
	State    string `json:"state"`
	Start    string `json:"start_date"`
	End      string `json:"end_date"`
	SourceID string `json:"source_id"`
}

type GetRangesResult struct {
	PropertyID string      `json:"property_id"`
	Ranges     []RangeView `json:"ranges"`
}

type GetRangesHandler struct {
	UoWFactory    uow.UoWFactory
	MaxWindowDays int
}

func (h *GetRangesHandler) Handle(ctx context.Context, q GetRangesQuery) (*GetRangesResult, error) {
	window, err := daterange.New(q.From, q.To)
	if err != nil {
		return nil, faults.BadWindow("to must be after from")
	}
	maxDays := h.MaxWindowDays
	if maxDays <= 0 {
		maxDays = DefaultMaxWindowDays
	}
	if window.Nights() > maxDays {
		return nil, faults.BadWindow("window exceeds %d days", maxDays)
	}

	unit, ctx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	prop, err := unit.Properties().ByID(ctx, q.Tenant, domainproperty.PropertyID(q.PropertyID))
	if err != nil {
		if errors.Is(err, storerr.ErrNotFound) {
			return nil, &faults.NotFoundError{Entity: "property"}
		}
		var transient *storerr.TransientError
		if errors.As(err, &transient) {
			return nil, &faults.UnavailableError{Err: err}
		}
		return nil, err
	}

	rows, err := unit.Ranges().Overlapping(ctx, prop.ID, window)
	if err != nil {
		var transient *storerr.TransientError
		if errors.As(err, &transient) {
			return nil, &faults.UnavailableError{Err: err}
		}
		return nil, err
	}

	out := &GetRangesResult{PropertyID: q.PropertyID, Ranges: make([]RangeView, 0, len(rows))}
	for _, row := range rows {
		out.Ranges = append(out.Ranges, RangeView{
			Kind:     string(row.Kind),
			State:    string(row.State()),
			Start:    row.Span.Start.Format(time.DateOnly),
			End:      row.Span.End.Format(time.DateOnly),
			SourceID: row.SourceID,
		})
	}
	return out, nil
}

var _ queries.Handler[GetRangesQuery, *GetRangesResult] = (*GetRangesHandler)(nil)
