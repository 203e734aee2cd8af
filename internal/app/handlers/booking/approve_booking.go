package booking

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"innkeep/internal/app/commands"
	"innkeep/internal/app/conflict"
	"innkeep/internal/app/handlers/support"
	"innkeep/internal/app/middleware"
	"innkeep/internal/app/outbox"
	"innkeep/internal/app/uow"
	domainbooking "innkeep/internal/domain/booking"
	domaininventory "innkeep/internal/domain/inventory"
	"innkeep/internal/domain/shared/storerr"
)

const approveBookingKey = "booking.approve"

type ApproveBookingCommand struct {
	Tenant    string `validate:"required"`
	BookingID string `validate:"required"`
	Note      string
	IdemKey   string
}

func (c ApproveBookingCommand) Key() string { return approveBookingKey }

func (c ApproveBookingCommand) TenantID() string { return c.Tenant }

func (c ApproveBookingCommand) IdempotencyKey() string { return c.IdemKey }

func (c ApproveBookingCommand) RequestPayload() any { return c }

func (c ApproveBookingCommand) ResultPrototype() any { return &BookingResult{} }

func (c ApproveBookingCommand) SuccessStatus() int { return http.StatusOK }

type ApproveBookingHandler struct {
	UoWFactory uow.UoWFactory
	Encoder    outbox.EventEncoder
}

func (h *ApproveBookingHandler) Handle(ctx context.Context, cmd ApproveBookingCommand) (*BookingResult, error) {
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

	// Re-approving a confirmed booking succeeds without re-executing the
	// write; the caller gets the same confirmed_at back.
	if b.Status == domainbooking.StatusConfirmed {
		if managed {
			if err := unit.Commit(ctx); err != nil {
				return nil, storageFault(err)
			}
			committed = true
		}
		return toResult(b), nil
	}

	if b.Status == domainbooking.StatusRequested || b.Status == domainbooking.StatusUnderReview {
		// Reconciliation: the hold normally exists since creation, but a
		// half-applied earlier attempt may have lost it. Heal from the
		// evidence instead of failing.
		if err := h.ensureRange(ctx, unit, b); err != nil {
			return nil, err
		}
	}

	if err := b.Approve(cmd.Note, time.Now()); err != nil {
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

func (h *ApproveBookingHandler) ensureRange(ctx context.Context, unit uow.UnitOfWork, b *domainbooking.Booking) error {
	_, err := unit.Ranges().BySource(ctx, domaininventory.KindBooking, string(b.ID))
	if err == nil {
		return nil
	}
	if !errors.Is(err, storerr.ErrNotFound) {
		return storageFault(err)
	}
	return conflict.Reserve(ctx, unit, &domaininventory.Range{
		ID:         uuid.NewString(),
		TenantID:   b.TenantID,
		PropertyID: b.PropertyID,
		Kind:       domaininventory.KindBooking,
		Span:       b.Range,
		SourceID:   string(b.ID),
	})
}

var _ commands.Handler[ApproveBookingCommand, *BookingResult] = (*ApproveBookingHandler)(nil)
var _ middleware.IdempotentCommand = ApproveBookingCommand{}
