package gormstore

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	appoutbox "innkeep/internal/app/outbox"
	"innkeep/internal/app/uow"
	domainbooking "innkeep/internal/domain/booking"
	domainguest "innkeep/internal/domain/guest"
	domaininventory "innkeep/internal/domain/inventory"
	domainproperty "innkeep/internal/domain/property"
	"innkeep/internal/domain/shared/daterange"
	"innkeep/internal/domain/shared/storerr"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := Open(sqlite.Open(dsn))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, Migrate(db))
	return db
}

func beginUnit(t *testing.T, f *Factory) uow.UnitOfWork {
	t.Helper()
	unit, err := f.Begin(context.Background(), uow.TxOptions{})
	require.NoError(t, err)
	return unit
}

func mustSpan(t *testing.T, start, end string) daterange.DateRange {
	t.Helper()
	from, _ := time.Parse(time.DateOnly, start)
	to, _ := time.Parse(time.DateOnly, end)
	dr, err := daterange.New(from, to)
	require.NoError(t, err)
	return dr
}

func TestPropertyRoundTripIsTenantScoped(t *testing.T) {
	f := NewFactory(openTestDB(t))
	ctx := context.Background()

	unit := beginUnit(t, f)
	now := time.Now().UTC()
	require.NoError(t, unit.Properties().Save(ctx, &domainproperty.Property{
		ID: "prop-1", TenantID: "tenant-a", Name: "Barn Loft", CreatedAt: now, UpdatedAt: now,
	}))
	require.NoError(t, unit.Commit(ctx))

	unit = beginUnit(t, f)
	defer unit.Rollback(ctx)

	got, err := unit.Properties().ByID(ctx, "tenant-a", "prop-1")
	require.NoError(t, err)
	assert.Equal(t, "Barn Loft", got.Name)

	_, err = unit.Properties().ByID(ctx, "tenant-b", "prop-1")
	assert.ErrorIs(t, err, storerr.ErrNotFound)
}

func TestBookingRoundTrip(t *testing.T) {
	f := NewFactory(openTestDB(t))
	ctx := context.Background()

	span := mustSpan(t, "2026-09-10", "2026-09-14")
	confirmed := time.Now().UTC().Truncate(time.Second)
	unit := beginUnit(t, f)
	require.NoError(t, unit.Bookings().Save(ctx, &domainbooking.Booking{
		ID:          "bk-1",
		TenantID:    "tenant-a",
		PropertyID:  "prop-1",
		Range:       span,
		Status:      domainbooking.StatusConfirmed,
		ConfirmedAt: &confirmed,
		CreatedAt:   confirmed,
		UpdatedAt:   confirmed,
	}))
	require.NoError(t, unit.Commit(ctx))

	unit = beginUnit(t, f)
	defer unit.Rollback(ctx)
	got, err := unit.Bookings().ByID(ctx, "tenant-a", "bk-1")
	require.NoError(t, err)
	assert.Equal(t, domainbooking.StatusConfirmed, got.Status)
	assert.True(t, got.Range.Start.Equal(span.Start))
	require.NotNil(t, got.ConfirmedAt)
	assert.True(t, got.ConfirmedAt.Equal(confirmed))
	assert.Nil(t, got.GuestID)
}

func TestGuestFindOrCreateByEmail(t *testing.T) {
	f := NewFactory(openTestDB(t))
	ctx := context.Background()

	unit := beginUnit(t, f)
	first, err := unit.Guests().FindOrCreateByEmail(ctx, "tenant-a", "ada@example.com", "Ada")
	require.NoError(t, err)
	again, err := unit.Guests().FindOrCreateByEmail(ctx, "tenant-a", "ada@example.com", "ignored")
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, "Ada", again.Name)

	// Same email under another tenant is a distinct guest.
	other, err := unit.Guests().FindOrCreateByEmail(ctx, "tenant-b", "ada@example.com", "Ada")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, other.ID)
	require.NoError(t, unit.Commit(ctx))
}

func TestGuestByIDMissing(t *testing.T) {
	f := NewFactory(openTestDB(t))
	ctx := context.Background()
	unit := beginUnit(t, f)
	defer unit.Rollback(ctx)
	_, err := unit.Guests().ByID(ctx, "tenant-a", "nope")
	assert.ErrorIs(t, err, domainguest.ErrGuestNotFound)
}

func TestRangeOverlappingUsesHalfOpenPredicate(t *testing.T) {
	f := NewFactory(openTestDB(t))
	ctx := context.Background()

	unit := beginUnit(t, f)
	require.NoError(t, unit.Ranges().Insert(ctx, &domaininventory.Range{
		ID: uuid.NewString(), TenantID: "tenant-a", PropertyID: "prop-1",
		Kind: domaininventory.KindBooking, Span: mustSpan(t, "2026-09-10", "2026-09-14"), SourceID: "bk-1",
	}))
	require.NoError(t, unit.Commit(ctx))

	unit = beginUnit(t, f)
	defer unit.Rollback(ctx)

	rows, err := unit.Ranges().Overlapping(ctx, "prop-1", mustSpan(t, "2026-09-13", "2026-09-20"))
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	// Touching at the boundary is not overlap.
	rows, err = unit.Ranges().Overlapping(ctx, "prop-1", mustSpan(t, "2026-09-14", "2026-09-20"))
	require.NoError(t, err)
	assert.Empty(t, rows)

	rows, err = unit.Ranges().Overlapping(ctx, "prop-2", mustSpan(t, "2026-09-10", "2026-09-14"))
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestRangeDeleteBySource(t *testing.T) {
	f := NewFactory(openTestDB(t))
	ctx := context.Background()

	unit := beginUnit(t, f)
	require.NoError(t, unit.Ranges().Insert(ctx, &domaininventory.Range{
		ID: uuid.NewString(), TenantID: "tenant-a", PropertyID: "prop-1",
		Kind: domaininventory.KindBooking, Span: mustSpan(t, "2026-09-10", "2026-09-14"), SourceID: "bk-1",
	}))
	require.NoError(t, unit.Ranges().DeleteBySource(ctx, domaininventory.KindBooking, "bk-1"))
	_, err := unit.Ranges().BySource(ctx, domaininventory.KindBooking, "bk-1")
	assert.ErrorIs(t, err, storerr.ErrNotFound)
	require.NoError(t, unit.Commit(ctx))
}

func TestIdempotencyStoreRoundTrip(t *testing.T) {
	f := NewFactory(openTestDB(t))
	ctx := context.Background()

	unit := beginUnit(t, f)
	store := unit.Idempotency()

	rec, err := store.Find(ctx, "tenant-a", "booking.create", "POST", "key-1")
	require.NoError(t, err)
	assert.Nil(t, rec)

	saved := &uow.IdempotencyRecord{
		TenantID:       "tenant-a",
		Endpoint:       "booking.create",
		Method:         "POST",
		Key:            "key-1",
		RequestHash:    "abc",
		ResponseStatus: 201,
		ResponseBody:   []byte(`{"booking_id":"bk-1"}`),
		ExpiresAt:      time.Now().UTC().Add(time.Hour),
	}
	require.NoError(t, store.Save(ctx, saved))

	rec, err = store.Find(ctx, "tenant-a", "booking.create", "POST", "key-1")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "abc", rec.RequestHash)
	assert.Equal(t, 201, rec.ResponseStatus)
	require.NoError(t, unit.Commit(ctx))
}

func TestExpiredIdempotencyRecordIsUnseen(t *testing.T) {
	f := NewFactory(openTestDB(t))
	ctx := context.Background()

	unit := beginUnit(t, f)
	require.NoError(t, unit.Idempotency().Save(ctx, &uow.IdempotencyRecord{
		TenantID: "tenant-a", Endpoint: "booking.approve", Method: "POST", Key: "key-1",
		RequestHash: "old", ResponseStatus: 200, ResponseBody: []byte(`{}`),
		ExpiresAt: time.Now().UTC().Add(-time.Minute),
	}))
	require.NoError(t, unit.Commit(ctx))

	// The stale row reads as unseen and no longer occupies the tuple.
	unit = beginUnit(t, f)
	store := unit.Idempotency()
	rec, err := store.Find(ctx, "tenant-a", "booking.approve", "POST", "key-1")
	require.NoError(t, err)
	assert.Nil(t, rec)

	require.NoError(t, store.Save(ctx, &uow.IdempotencyRecord{
		TenantID: "tenant-a", Endpoint: "booking.approve", Method: "POST", Key: "key-1",
		RequestHash: "new", ResponseStatus: 200, ResponseBody: []byte(`{}`),
		ExpiresAt: time.Now().UTC().Add(time.Hour),
	}))
	require.NoError(t, unit.Commit(ctx))

	unit = beginUnit(t, f)
	rec, err = unit.Idempotency().Find(ctx, "tenant-a", "booking.approve", "POST", "key-1")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "new", rec.RequestHash)
	require.NoError(t, unit.Commit(ctx))
}

func TestDuplicateIdempotencyTupleMapsToDuplicateError(t *testing.T) {
	f := NewFactory(openTestDB(t))
	ctx := context.Background()

	unit := beginUnit(t, f)
	live := &uow.IdempotencyRecord{
		TenantID: "tenant-a", Endpoint: "booking.create", Method: "POST", Key: "key-1",
		RequestHash: "abc", ResponseStatus: 201, ResponseBody: []byte(`{}`),
		ExpiresAt: time.Now().UTC().Add(time.Hour),
	}
	require.NoError(t, unit.Idempotency().Save(ctx, live))
	require.NoError(t, unit.Commit(ctx))

	unit = beginUnit(t, f)
	err := unit.Idempotency().Save(ctx, live)
	var dup *storerr.DuplicateError
	require.ErrorAs(t, err, &dup)
	require.NoError(t, unit.Rollback(ctx))
}

func TestPurgeExpiredIdempotency(t *testing.T) {
	db := openTestDB(t)
	f := NewFactory(db)
	ctx := context.Background()

	unit := beginUnit(t, f)
	require.NoError(t, unit.Idempotency().Save(ctx, &uow.IdempotencyRecord{
		TenantID: "tenant-a", Endpoint: "booking.create", Method: "POST", Key: "old",
		ExpiresAt: time.Now().UTC().Add(-time.Minute),
	}))
	require.NoError(t, unit.Idempotency().Save(ctx, &uow.IdempotencyRecord{
		TenantID: "tenant-a", Endpoint: "booking.create", Method: "POST", Key: "fresh",
		ExpiresAt: time.Now().UTC().Add(time.Hour),
	}))
	require.NoError(t, unit.Commit(ctx))

	n, err := PurgeExpiredIdempotency(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestOutboxClaimSentFailedCycle(t *testing.T) {
	db := openTestDB(t)
	f := NewFactory(db)
	ctx := context.Background()

	unit := beginUnit(t, f)
	require.NoError(t, unit.Outbox().Add(ctx, appoutbox.EventRecord{
		ID:         "ev-1",
		Name:       "booking.confirmed",
		Payload:    []byte(`{"booking_id":"bk-1"}`),
		OccurredAt: time.Now().UTC(),
		Aggregate:  "bk-1",
	}))
	require.NoError(t, unit.Commit(ctx))

	relay := &OutboxStore{DB: db}
	claimed, err := relay.Claim(ctx, "worker-1")
	require.NoError(t, err)
	require.NotNil(t, claimed)
	assert.Equal(t, "ev-1", claimed.ID)

	// A claimed event is invisible to other workers.
	again, err := relay.Claim(ctx, "worker-2")
	require.NoError(t, err)
	assert.Nil(t, again)

	// A failed publish returns it to pending after the retry delay.
	require.NoError(t, relay.MarkFailed(ctx, claimed.ID, time.Now().UTC().Add(-time.Second), "broker down"))
	retried, err := relay.Claim(ctx, "worker-1")
	require.NoError(t, err)
	require.NotNil(t, retried)

	require.NoError(t, relay.MarkSent(ctx, retried.ID))
	done, err := relay.Claim(ctx, "worker-1")
	require.NoError(t, err)
	assert.Nil(t, done)
}

func TestRollbackDiscardsWrites(t *testing.T) {
	f := NewFactory(openTestDB(t))
	ctx := context.Background()

	unit := beginUnit(t, f)
	now := time.Now().UTC()
	require.NoError(t, unit.Properties().Save(ctx, &domainproperty.Property{
		ID: "prop-1", TenantID: "tenant-a", Name: "Gone", CreatedAt: now, UpdatedAt: now,
	}))
	require.NoError(t, unit.Rollback(ctx))

	unit = beginUnit(t, f)
	defer unit.Rollback(ctx)
	_, err := unit.Properties().ByID(ctx, "tenant-a", "prop-1")
	assert.ErrorIs(t, err, storerr.ErrNotFound)
}
