package booking

import (
	"context"
	"errors"

	"innkeep/internal/app/handlers/support"
	"innkeep/internal/app/queries"
	"innkeep/internal/app/uow"
	domainproperty "innkeep/internal/domain/property"
	"innkeep/internal/domain/shared/faults"
	"innkeep/internal/domain/shared/storerr"
)

const (
	getBookingKey   = "booking.get"
	listBookingsKey = "booking.list_by_property"
)

type GetBookingQuery struct {
	Tenant    string `validate:"required"`
	BookingID string `validate:"required"`
}

func (q GetBookingQuery) Key() string { return getBookingKey }

type GetBookingHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *GetBookingHandler) Handle(ctx context.Context, q GetBookingQuery) (*BookingResult, error) {
	unit, ctx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	b, err := loadBooking(ctx, unit, q.Tenant, q.BookingID)
	if err != nil {
		return nil, err
	}
	return toResult(b), nil
}

type ListBookingsQuery struct {
	Tenant     string `validate:"required"`
	PropertyID string `validate:"required"`
}

func (q ListBookingsQuery) Key() string { return listBookingsKey }

type ListBookingsHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ListBookingsHandler) Handle(ctx context.Context, q ListBookingsQuery) ([]*BookingResult, error) {
	unit, ctx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	propID := domainproperty.PropertyID(q.PropertyID)
	if _, err := unit.Properties().ByID(ctx, q.Tenant, propID); err != nil {
		if errors.Is(err, storerr.ErrNotFound) {
			return nil, &faults.NotFoundError{Entity: "property"}
		}
		return nil, storageFault(err)
	}
	list, err := unit.Bookings().ListByProperty(ctx, q.Tenant, propID)
	if err != nil {
		return nil, storageFault(err)
	}
	out := make([]*BookingResult, 0, len(list))
	for _, b := range list {
		out = append(out, toResult(b))
	}
	return out, nil
}

var _ queries.Handler[GetBookingQuery, *BookingResult] = (*GetBookingHandler)(nil)
var _ queries.Handler[ListBookingsQuery, []*BookingResult] = (*ListBookingsHandler)(nil)
