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

const declineBookingKey = "booking.decline"

type DeclineBookingCommand struct {
	Tenant    string `validate:"required"`
	BookingID string `validate:"required"`
	Actor     string
	Reason    string `validate:"required"`
	IdemKey   string
}

func (c DeclineBookingCommand) Key() string { return declineBookingKey }

func (c DeclineBookingCommand) TenantID() string { return c.Tenant }

func (c DeclineBookingCommand) IdempotencyKey() string { return c.IdemKey }

func (c DeclineBookingCommand) RequestPayload() any { return c }

func (c DeclineBookingCommand) ResultPrototype() any { return &BookingResult{} }

func (c DeclineBookingCommand) SuccessStatus() int { return http.StatusOK }

type DeclineBookingHandler struct {
	UoWFactory uow.UoWFactory
	Encoder    outbox.EventEncoder
}

func (h *DeclineBookingHandler) Handle(ctx context.Context, cmd DeclineBookingCommand) (*BookingResult, error) {
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

	// Repeat decline of an already-declined booking is a no-op success.
	if b.Status == domainbooking.StatusDeclined {
		if managed {
			if err := unit.Commit(ctx); err != nil {
				return nil, storageFault(err)
			}
			committed = true
		}
		return toResult(b), nil
	}

	if err := b.Decline(cmd.Actor, cmd.Reason, time.Now()); err != nil {
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

var _ commands.Handler[DeclineBookingCommand, *BookingResult] = (*DeclineBookingHandler)(nil)
var _ middleware.IdempotentCommand = DeclineBookingCommand{}
