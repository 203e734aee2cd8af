package booking

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"innkeep/internal/app/commands"
	"innkeep/internal/app/conflict"
	"innkeep/internal/app/middleware"
	"innkeep/internal/app/outbox"
	"innkeep/internal/app/policies"
	"innkeep/internal/app/handlers/support"
	"innkeep/internal/app/uow"
	domainbooking "innkeep/internal/domain/booking"
	domainguest "innkeep/internal/domain/guest"
	domaininventory "innkeep/internal/domain/inventory"
	domainproperty "innkeep/internal/domain/property"
	"innkeep/internal/domain/shared/daterange"
	"innkeep/internal/domain/shared/faults"
	"innkeep/internal/domain/shared/storerr"
)

const createBookingKey = "booking.create"

type CreateBookingCommand struct {
	CommandID  string
	Tenant     string    `validate:"required"`
	PropertyID string    `validate:"required"`
	CheckIn    time.Time `validate:"required"`
	CheckOut   time.Time `validate:"required"`
	GuestID    string
	GuestEmail string `validate:"omitempty,email"`
	GuestName  string
	Inquiry    bool
	Notes      string
	IdemKey    string
}

func (c CreateBookingCommand) Key() string { return createBookingKey }

func (c CreateBookingCommand) TenantID() string { return c.Tenant }

func (c CreateBookingCommand) IdempotencyKey() string { return c.IdemKey }

// RequestPayload excludes CommandID so retried submissions fingerprint
// identically even though each request generates a fresh id.
func (c CreateBookingCommand) RequestPayload() any {
	c.CommandID = ""
	return c
}

func (c CreateBookingCommand) ResultPrototype() any { return &BookingResult{} }

func (c CreateBookingCommand) SuccessStatus() int { return http.StatusCreated }

type CreateBookingHandler struct {
	UoWFactory uow.UoWFactory
	Pricing    policies.PricingPort
	Encoder    outbox.EventEncoder
}

func (h *CreateBookingHandler) Handle(ctx context.Context, cmd CreateBookingCommand) (*BookingResult, error) {
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

	dr, err := daterange.New(cmd.CheckIn, cmd.CheckOut)
	if err != nil {
		return nil, faults.Invalid("check_out must be after check_in")
	}

	prop, err := unit.Properties().ByID(ctx, cmd.Tenant, domainproperty.PropertyID(cmd.PropertyID))
	if err != nil {
		if errors.Is(err, storerr.ErrNotFound) {
			return nil, &faults.NotFoundError{Entity: "property"}
		}
		return nil, storageFault(err)
	}

	guestID, err := h.resolveGuest(ctx, unit, cmd)
	if err != nil {
		return nil, err
	}

	quote := policies.Quote{}
	if h.Pricing != nil {
		quote, err = h.Pricing.Quote(ctx, prop, dr)
		if err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	b, err := domainbooking.NewBooking(domainbooking.CreateParams{
		ID:         domainbooking.BookingID(cmd.CommandID),
		TenantID:   cmd.Tenant,
		PropertyID: prop.ID,
		GuestID:    guestID,
		Range:      dr,
		Inquiry:    cmd.Inquiry,
		Quoted:     quote.TotalCents,
		Notes:      cmd.Notes,
		CreatedAt:  now,
	})
	if err != nil {
		return nil, err
	}

	if b.Status.Occupies() {
		if err := conflict.Reserve(ctx, unit, &domaininventory.Range{
			ID:         uuid.NewString(),
			TenantID:   cmd.Tenant,
			PropertyID: prop.ID,
			Kind:       domaininventory.KindBooking,
			Span:       dr,
			SourceID:   string(b.ID),
		}); err != nil {
			return nil, err
		}
	}

	if err := unit.Bookings().Save(ctx, b); err != nil {
		var fk *storerr.ForeignKeyError
		if errors.As(err, &fk) {
			return nil, faults.Invalid("guest reference is invalid: %s", fk.Constraint)
		}
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

func (h *CreateBookingHandler) resolveGuest(ctx context.Context, unit uow.UnitOfWork, cmd CreateBookingCommand) (*domainguest.GuestID, error) {
	switch {
	case cmd.GuestID != "":
		g, err := unit.Guests().ByID(ctx, cmd.Tenant, domainguest.GuestID(cmd.GuestID))
		if err != nil {
			if errors.Is(err, storerr.ErrNotFound) || errors.Is(err, domainguest.ErrGuestNotFound) {
				// An invalid optional reference is caller error, not a
				// storage blowup.
				return nil, faults.Invalid("guest %s does not exist in this tenant", cmd.GuestID)
			}
			return nil, storageFault(err)
		}
		return &g.ID, nil
	case cmd.GuestEmail != "":
		g, err := unit.Guests().FindOrCreateByEmail(ctx, cmd.Tenant, cmd.GuestEmail, cmd.GuestName)
		if err != nil {
			return nil, storageFault(err)
		}
		return &g.ID, nil
	default:
		// Guest linkage is optional; bookings proceed with it left null.
		return nil, nil
	}
}

var _ commands.Handler[CreateBookingCommand, *BookingResult] = (*CreateBookingHandler)(nil)
var _ middleware.IdempotentCommand = CreateBookingCommand{}
