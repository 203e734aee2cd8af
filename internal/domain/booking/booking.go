package booking

import (
	"context"
	"strings"
	"time"

	"innkeep/internal/domain/guest"
	"innkeep/internal/domain/property"
	"innkeep/internal/domain/shared/daterange"
	"innkeep/internal/domain/shared/events"
	"innkeep/internal/domain/shared/faults"
)

type BookingID string

type Status string

const (
	StatusInquiry     Status = "inquiry"
	StatusRequested   Status = "requested"
	StatusUnderReview Status = "under_review"
	StatusConfirmed   Status = "confirmed"
	StatusCheckedIn   Status = "checked_in"
	StatusCheckedOut  Status = "checked_out"
	StatusCancelled   Status = "cancelled"
	StatusDeclined    Status = "declined"
	StatusNoShow      Status = "no_show"
)

// Occupies reports whether a booking in this status holds inventory.
// An inquiry never blocks anyone; terminal and departed statuses free
// the window.
func (s Status) Occupies() bool {
	switch s {
	case StatusRequested, StatusUnderReview, StatusConfirmed, StatusCheckedIn:
		return true
	default:
		return false
	}
}

func (s Status) Terminal() bool {
	switch s {
	case StatusCancelled, StatusDeclined, StatusCheckedOut, StatusNoShow:
		return true
	default:
		return false
	}
}

type Booking struct {
	ID                 BookingID
	TenantID           string
	PropertyID         property.PropertyID
	GuestID            *guest.GuestID
	Range              daterange.DateRange
	Status             Status
	QuotedTotalCents   int64
	ConfirmedAt        *time.Time
	CancelledAt        *time.Time
	CancelledBy        string
	CancellationReason string
	InternalNotes      string
	CreatedAt          time.Time
	UpdatedAt          time.Time
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, tenantID string, id BookingID) (*Booking, error)
	Save(ctx context.Context, b *Booking) error
	ListByProperty(ctx context.Context, tenantID string, id property.PropertyID) ([]*Booking, error)
}

type CreateParams struct {
	ID         BookingID
	TenantID   string
	PropertyID property.PropertyID
	GuestID    *guest.GuestID
	Range      daterange.DateRange
	Inquiry    bool
	Quoted     int64
	Notes      string
	CreatedAt  time.Time
}

func NewBooking(params CreateParams) (*Booking, error) {
	if err := params.Range.Validate(); err != nil {
		return nil, faults.Invalid("check_out must be after check_in")
	}
	now := params.CreatedAt.UTC()
	status := StatusRequested
	if params.Inquiry {
		status = StatusInquiry
	}
	b := &Booking{
		ID:               params.ID,
		TenantID:         params.TenantID,
		PropertyID:       params.PropertyID,
		GuestID:          params.GuestID,
		Range:            params.Range,
		Status:           status,
		QuotedTotalCents: params.Quoted,
		InternalNotes:    params.Notes,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	b.Record(BookingRequested{BookingID: b.ID, PropertyID: b.PropertyID, Range: b.Range, Status: b.Status, At: now})
	return b, nil
}

func (b *Booking) transitionError(requested Status) error {
	return &faults.StateTransitionError{Current: string(b.Status), Requested: string(requested)}
}

// Submit promotes an inquiry into a requested booking. The caller must
// reserve inventory before committing: this is the point an inquiry
// starts competing for the window.
func (b *Booking) Submit(now time.Time) error {
	if b.Status != StatusInquiry {
		return b.transitionError(StatusRequested)
	}
	b.Status = StatusRequested
	b.UpdatedAt = now.UTC()
	return nil
}

func (b *Booking) StartReview(now time.Time) error {
	if b.Status != StatusRequested {
		return b.transitionError(StatusUnderReview)
	}
	b.Status = StatusUnderReview
	b.UpdatedAt = now.UTC()
	return nil
}

// Approve confirms the booking. Already-confirmed bookings are handled
// idempotently by the application layer before this is reached.
func (b *Booking) Approve(note string, now time.Time) error {
	if b.Status != StatusRequested && b.Status != StatusUnderReview {
		return b.transitionError(StatusConfirmed)
	}
	at := now.UTC()
	b.Status = StatusConfirmed
	if b.ConfirmedAt == nil {
		b.ConfirmedAt = &at
	}
	if note != "" {
		b.InternalNotes = appendNote(b.InternalNotes, note)
	}
	b.UpdatedAt = at
	b.Record(BookingConfirmed{BookingID: b.ID, PropertyID: b.PropertyID, Range: b.Range, At: at})
	return nil
}

func (b *Booking) Decline(actor, reason string, now time.Time) error {
	if strings.TrimSpace(reason) == "" {
		return faults.Invalid("decline requires a reason")
	}
	if b.Status != StatusRequested && b.Status != StatusUnderReview {
		return b.transitionError(StatusDeclined)
	}
	at := now.UTC()
	b.Status = StatusDeclined
	b.CancelledAt = &at
	b.CancelledBy = actor
	b.CancellationReason = reason
	b.UpdatedAt = at
	b.Record(BookingDeclined{BookingID: b.ID, PropertyID: b.PropertyID, Reason: reason, At: at})
	return nil
}

func (b *Booking) Cancel(actor, reason string, now time.Time) error {
	switch b.Status {
	case StatusRequested, StatusUnderReview, StatusConfirmed:
	default:
		return b.transitionError(StatusCancelled)
	}
	at := now.UTC()
	b.Status = StatusCancelled
	b.CancelledAt = &at
	b.CancelledBy = actor
	b.CancellationReason = reason
	b.UpdatedAt = at
	b.Record(BookingCancelled{BookingID: b.ID, PropertyID: b.PropertyID, Reason: reason, At: at})
	return nil
}

func (b *Booking) CheckIn(now time.Time) error {
	if b.Status != StatusConfirmed {
		return b.transitionError(StatusCheckedIn)
	}
	b.Status = StatusCheckedIn
	b.UpdatedAt = now.UTC()
	b.Record(CheckInCompleted{BookingID: b.ID, At: b.UpdatedAt})
	return nil
}

func (b *Booking) CheckOut(now time.Time) error {
	if b.Status != StatusCheckedIn {
		return b.transitionError(StatusCheckedOut)
	}
	b.Status = StatusCheckedOut
	b.UpdatedAt = now.UTC()
	b.Record(CheckOutCompleted{BookingID: b.ID, At: b.UpdatedAt})
	return nil
}

func (b *Booking) MarkNoShow(now time.Time) error {
	if b.Status != StatusConfirmed {
		return b.transitionError(StatusNoShow)
	}
	b.Status = StatusNoShow
	b.UpdatedAt = now.UTC()
	b.Record(NoShowRecorded{BookingID: b.ID, At: b.UpdatedAt})
	return nil
}

func appendNote(existing, note string) string {
	if existing == "" {
		return note
	}
	return existing + "\n" + note
}
