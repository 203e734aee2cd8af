package booking

import (
	"context"
	"net/http"
	"time"

	"innkeep/internal/app/commands"
	"innkeep/internal/app/conflict"
	"innkeep/internal/app/handlers/support"
	"innkeep/internal/app/middleware"
	"innkeep/internal/app/outbox"
	"innkeep/internal/app/uow"
	domainbooking "innkeep/internal/domain/booking"
	domaininventory "innkeep/internal/domain/inventory"
)

const cancelBookingKey = "booking.cancel"

type CancelBookingCommand struct {
	Tenant    string `validate:"required"`
	BookingID string `validate:"required"`
	Actor     string
	Reason    string
	IdemKey   string
}

func (c CancelBookingCommand) Key() string { return cancelBookingKey }

func (c CancelBookingCommand) TenantID() string { return c.Tenant }

func (c CancelBookingCommand) IdempotencyKey() string { return c.IdemKey }

func (c CancelBookingCommand) RequestPayload() any { return c }

func (c CancelBookingCommand) ResultPrototype() any { return &BookingResult{} }

func (c CancelBookingCommand) SuccessStatus() int { return http.StatusOK }

type CancelBookingHandler struct {
	UoWFactory uow.UoWFactory
	Encoder    outbox.EventEncoder
}

func (h *CancelBookingHandler) Handle(ctx context.Context, cmd CancelBookingCommand) (*BookingResult, error) {
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

	b, err := loadBooking(ctx, unit, cmd.Tenant, cmd.BookingID)
	if err != nil {
		return nil, err
	}

	if b.Status == domainbooking.StatusCancelled {
		if managed {
			if err := unit.Commit(ctx); err != nil {
				return nil, storageFault(err)
			}
			committed = true
		}
		return toResult(b), nil
	}

	if err := b.Cancel(cmd.Actor, cmd.Reason, time.Now()); err != nil {
		return nil, err
	}
	if err := conflict.Release(ctx, unit, domaininventory.KindBooking, string(b.ID)); err != nil {
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

var _ commands.Handler[CancelBookingCommand, *BookingResult] = (*CancelBookingHandler)(nil)
var _ middleware.IdempotentCommand = CancelBookingCommand{}
