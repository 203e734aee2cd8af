package booking

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"innkeep/internal/domain/shared/daterange"
	"innkeep/internal/domain/shared/faults"
)

func newTestBooking(t *testing.T, inquiry bool) *Booking {
	t.Helper()
	span, err := daterange.New(
		time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)
	b, err := NewBooking(CreateParams{
		ID:         "bk-1",
		TenantID:   "tenant-a",
		PropertyID: "prop-1",
		Range:      span,
		Inquiry:    inquiry,
		CreatedAt:  time.Now(),
	})
	require.NoError(t, err)
	b.ClearEvents()
	return b
}

func TestNewBookingStartsRequested(t *testing.T) {
	b := newTestBooking(t, false)
	assert.Equal(t, StatusRequested, b.Status)
	assert.True(t, b.Status.Occupies())
}

func TestNewBookingInquiryDoesNotOccupy(t *testing.T) {
	b := newTestBooking(t, true)
	assert.Equal(t, StatusInquiry, b.Status)
	assert.False(t, b.Status.Occupies())
}

func TestSubmitPromotesInquiry(t *testing.T) {
	b := newTestBooking(t, true)
	require.NoError(t, b.Submit(time.Now()))
	assert.Equal(t, StatusRequested, b.Status)

	err := b.Submit(time.Now())
	var transition *faults.StateTransitionError
	require.True(t, errors.As(err, &transition))
	assert.Equal(t, string(StatusRequested), transition.Current)
}

func TestApproveFromRequestedAndUnderReview(t *testing.T) {
	b := newTestBooking(t, false)
	require.NoError(t, b.StartReview(time.Now()))
	require.NoError(t, b.Approve("looks good", time.Now()))
	assert.Equal(t, StatusConfirmed, b.Status)
	require.NotNil(t, b.ConfirmedAt)

	// Approve after a reconciliation keeps the original timestamp.
	first := *b.ConfirmedAt
	b.Status = StatusRequested
	require.NoError(t, b.Approve("", time.Now().Add(time.Hour)))
	assert.Equal(t, first, *b.ConfirmedAt)
}

func TestApproveRejectsTerminalStates(t *testing.T) {
	b := newTestBooking(t, false)
	require.NoError(t, b.Cancel("host", "plans changed", time.Now()))

	err := b.Approve("", time.Now())
	var transition *faults.StateTransitionError
	require.True(t, errors.As(err, &transition))
	assert.Equal(t, string(StatusCancelled), transition.Current)
	assert.Equal(t, string(StatusConfirmed), transition.Requested)
}

func TestDeclineRequiresReason(t *testing.T) {
	b := newTestBooking(t, false)
	err := b.Decline("host", "   ", time.Now())
	var invalid *faults.ValidationError
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, StatusRequested, b.Status)

	require.NoError(t, b.Decline("host", "dates unavailable", time.Now()))
	assert.Equal(t, StatusDeclined, b.Status)
	assert.Equal(t, "dates unavailable", b.CancellationReason)
	assert.True(t, b.Status.Terminal())
}

func TestCancelAllowedFromActiveStates(t *testing.T) {
	for _, status := range []Status{StatusRequested, StatusUnderReview, StatusConfirmed} {
		b := newTestBooking(t, false)
		b.Status = status
		require.NoError(t, b.Cancel("guest", "change of plans", time.Now()), "from %s", status)
		assert.Equal(t, StatusCancelled, b.Status)
		require.NotNil(t, b.CancelledAt)
	}
}

func TestCancelRejectedAfterCheckIn(t *testing.T) {
	b := newTestBooking(t, false)
	b.Status = StatusCheckedIn
	err := b.Cancel("guest", "too late", time.Now())
	var transition *faults.StateTransitionError
	require.True(t, errors.As(err, &transition))
}

func TestStayProgression(t *testing.T) {
	b := newTestBooking(t, false)
	require.NoError(t, b.Approve("", time.Now()))
	require.NoError(t, b.CheckIn(time.Now()))
	assert.True(t, b.Status.Occupies())
	require.NoError(t, b.CheckOut(time.Now()))
	assert.Equal(t, StatusCheckedOut, b.Status)
	assert.False(t, b.Status.Occupies())
}

func TestNoShowOnlyFromConfirmed(t *testing.T) {
	b := newTestBooking(t, false)
	err := b.MarkNoShow(time.Now())
	var transition *faults.StateTransitionError
	require.True(t, errors.As(err, &transition))

	require.NoError(t, b.Approve("", time.Now()))
	require.NoError(t, b.MarkNoShow(time.Now()))
	assert.Equal(t, StatusNoShow, b.Status)
	assert.False(t, b.Status.Occupies())
}

func TestTransitionsRecordEvents(t *testing.T) {
	b := newTestBooking(t, false)
	require.NoError(t, b.Approve("", time.Now()))
	require.NoError(t, b.CheckIn(time.Now()))

	names := make([]string, 0)
	for _, ev := range b.PendingEvents() {
		names = append(names, ev.EventName())
	}
	assert.Equal(t, []string{"booking.confirmed", "booking.checkin_completed"}, names)
}
