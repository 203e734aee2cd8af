package booking

import (
	"context"
	"time"

	"github.com/google/uuid"

	"innkeep/internal/app/commands"
	"innkeep/internal/app/conflict"
	"innkeep/internal/app/handlers/support"
	"innkeep/internal/app/outbox"
	"innkeep/internal/app/uow"
	domainbooking "innkeep/internal/domain/booking"
	domaininventory "innkeep/internal/domain/inventory"
)

// Stay-progress commands share one handler: each transition mutates the
// aggregate, adjusts the inventory hold, and records events.

const (
	submitBookingKey   = "booking.submit"
	checkInBookingKey  = "booking.check_in"
	checkOutBookingKey = "booking.check_out"
	noShowBookingKey   = "booking.no_show"
)

type SubmitBookingCommand struct {
	Tenant    string `validate:"required"`
	BookingID string `validate:"required"`
}

func (c SubmitBookingCommand) Key() string { return submitBookingKey }

type CheckInBookingCommand struct {
	Tenant    string `validate:"required"`
	BookingID string `validate:"required"`
}

func (c CheckInBookingCommand) Key() string { return checkInBookingKey }

type CheckOutBookingCommand struct {
	Tenant    string `validate:"required"`
	BookingID string `validate:"required"`
}

func (c CheckOutBookingCommand) Key() string { return checkOutBookingKey }

type NoShowBookingCommand struct {
	Tenant    string `validate:"required"`
	BookingID string `validate:"required"`
}

func (c NoShowBookingCommand) Key() string { return noShowBookingKey }

type StayTransitionHandler struct {
	UoWFactory uow.UoWFactory
	Encoder    outbox.EventEncoder
}

func (h *StayTransitionHandler) HandleSubmit(ctx context.Context, cmd SubmitBookingCommand) (*BookingResult, error) {
	return h.apply(ctx, cmd.Tenant, cmd.BookingID, func(ctx context.Context, unit uow.UnitOfWork, b *domainbooking.Booking) error {
		if err := b.Submit(time.Now()); err != nil {
			return err
		}
		// The inquiry starts competing for the window here.
		return conflict.Reserve(ctx, unit, &domaininventory.Range{
			ID:         uuid.NewString(),
			TenantID:   b.TenantID,
			PropertyID: b.PropertyID,
			Kind:       domaininventory.KindBooking,
			Span:       b.Range,
			SourceID:   string(b.ID),
		})
	})
}

func (h *StayTransitionHandler) HandleCheckIn(ctx context.Context, cmd CheckInBookingCommand) (*BookingResult, error) {
	return h.apply(ctx, cmd.Tenant, cmd.BookingID, func(ctx context.Context, unit uow.UnitOfWork, b *domainbooking.Booking) error {
		return b.CheckIn(time.Now())
	})
}

func (h *StayTransitionHandler) HandleCheckOut(ctx context.Context, cmd CheckOutBookingCommand) (*BookingResult, error) {
	return h.apply(ctx, cmd.Tenant, cmd.BookingID, func(ctx context.Context, unit uow.UnitOfWork, b *domainbooking.Booking) error {
		if err := b.CheckOut(time.Now()); err != nil {
			return err
		}
		return conflict.Release(ctx, unit, domaininventory.KindBooking, string(b.ID))
	})
}

func (h *StayTransitionHandler) HandleNoShow(ctx context.Context, cmd NoShowBookingCommand) (*BookingResult, error) {
	return h.apply(ctx, cmd.Tenant, cmd.BookingID, func(ctx context.Context, unit uow.UnitOfWork, b *domainbooking.Booking) error {
		if err := b.MarkNoShow(time.Now()); err != nil {
			return err
		}
		return conflict.Release(ctx, unit, domaininventory.KindBooking, string(b.ID))
	})
}

func (h *StayTransitionHandler) apply(ctx context.Context, tenant, id string, fn func(context.Context, uow.UnitOfWork, *domainbooking.Booking) error) (*BookingResult, error) {
	unit, ctx, managed, err := support.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	committed := false
	if managed {
		defer func() {
			if !committed {
				_ = unit.Rollback(ctx)
			}
		}()
	}

	b, err := loadBooking(ctx, unit, tenant, id)
	if err != nil {
		return nil, err
	}
	if err := fn(ctx, unit, b); err != nil {
		return nil, err
	}
	if err := unit.Bookings().Save(ctx, b); err != nil {
		return nil, storageFault(err)
	}
	if err := drainEvents(ctx, unit, h.Encoder, b); err != nil {
		return nil, err
	}

	if managed {
		if err := unit.Commit(ctx); err != nil {
			return nil, storageFault(err)
		}
		committed = true
	}
	return toResult(b), nil
}

var _ commands.Handler[SubmitBookingCommand, *BookingResult] = commands.HandlerFunc[SubmitBookingCommand, *BookingResult]((&StayTransitionHandler{}).HandleSubmit)
