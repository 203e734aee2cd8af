package booking

import (
	"context"
	"errors"
	"time"

	"innkeep/internal/app/outbox"
	"innkeep/internal/app/uow"
	domainbooking "innkeep/internal/domain/booking"
	"innkeep/internal/domain/shared/events"
	"innkeep/internal/domain/shared/faults"
	"innkeep/internal/domain/shared/storerr"
)

// BookingResult is the response shape shared by every booking command
// and query; the idempotency layer caches and replays it verbatim.
type BookingResult struct {
	BookingID          string     `json:"booking_id"`
	PropertyID         string     `json:"property_id"`
	GuestID            *string    `json:"guest_id"`
	CheckIn            string     `json:"check_in"`
	CheckOut           string     `json:"check_out"`
	Status             string     `json:"status"`
	QuotedTotalCents   int64      `json:"quoted_total_cents"`
	ConfirmedAt        *time.Time `json:"confirmed_at,omitempty"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`
	CancelledBy        string     `json:"cancelled_by,omitempty"`
	CancellationReason string     `json:"cancellation_reason,omitempty"`
	InternalNotes      string     `json:"internal_notes,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
}

func toResult(b *domainbooking.Booking) *BookingResult {
	res := &BookingResult{
		BookingID:          string(b.ID),
		PropertyID:         string(b.PropertyID),
		CheckIn:            b.Range.Start.Format(time.DateOnly),
		CheckOut:           b.Range.End.Format(time.DateOnly),
		Status:             string(b.Status),
		QuotedTotalCents:   b.QuotedTotalCents,
		ConfirmedAt:        b.ConfirmedAt,
		CancelledAt:        b.CancelledAt,
		CancelledBy:        b.CancelledBy,
		CancellationReason: b.CancellationReason,
		InternalNotes:      b.InternalNotes,
		CreatedAt:          b.CreatedAt,
	}
	if b.GuestID != nil {
		id := string(*b.GuestID)
		res.GuestID = &id
	}
	return res
}

func loadBooking(ctx context.Context, unit uow.UnitOfWork, tenantID, id string) (*domainbooking.Booking, error) {
	b, err := unit.Bookings().ByID(ctx, tenantID, domainbooking.BookingID(id))
	if err != nil {
		if errors.Is(err, storerr.ErrNotFound) {
			return nil, &faults.NotFoundError{Entity: "booking"}
		}
		return nil, storageFault(err)
	}
	return b, nil
}

func drainEvents(ctx context.Context, unit uow.UnitOfWork, encoder outbox.EventEncoder, rec interface {
	PendingEvents() []events.DomainEvent
	ClearEvents()
}) error {
	evs := rec.PendingEvents()
	rec.ClearEvents()
	return outbox.RecordDomainEvents(ctx, unit.Outbox(), encoder, evs)
}

func storageFault(err error) error {
	var transient *storerr.TransientError
	if errors.As(err, &transient) {
		return &faults.UnavailableError{Err: err}
	}
	return err
}
