package conflict

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"

	"innkeep/internal/app/uow"
	"innkeep/internal/domain/inventory"
	"innkeep/internal/domain/property"
	"innkeep/internal/domain/shared/daterange"
	"innkeep/internal/domain/shared/faults"
	"innkeep/internal/infra/db/gormstore"
)

func newTestFactory(t *testing.T) *gormstore.Factory {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gormstore.Open(sqlite.Open(dsn))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, gormstore.Migrate(db))
	return gormstore.NewFactory(db)
}

func span(t *testing.T, start, end string) daterange.DateRange {
	t.Helper()
	from, err := time.Parse(time.DateOnly, start)
	require.NoError(t, err)
	to, err := time.Parse(time.DateOnly, end)
	require.NoError(t, err)
	dr, err := daterange.New(from, to)
	require.NoError(t, err)
	return dr
}

func reserveOne(t *testing.T, factory *gormstore.Factory, kind inventory.RangeKind, source string, dr daterange.DateRange) error {
	t.Helper()
	ctx := context.Background()
	unit, err := factory.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	err = Reserve(ctx, unit, &inventory.Range{
		ID:         uuid.NewString(),
		TenantID:   "tenant-a",
		PropertyID: property.PropertyID("prop-1"),
		Kind:       kind,
		Span:       dr,
		SourceID:   source,
	})
	if err != nil {
		require.NoError(t, unit.Rollback(ctx))
		return err
	}
	require.NoError(t, unit.Commit(ctx))
	return nil
}

func TestReserveRejectsOverlappingBooking(t *testing.T) {
	factory := newTestFactory(t)
	require.NoError(t, reserveOne(t, factory, inventory.KindBooking, "bk-1", span(t, "2026-09-10", "2026-09-14")))

	err := reserveOne(t, factory, inventory.KindBooking, "bk-2", span(t, "2026-09-12", "2026-09-16"))
	var conflict *faults.ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, faults.ConflictDoubleBooking, conflict.Type)
}

func TestReserveAllowsBackToBack(t *testing.T) {
	factory := newTestFactory(t)
	require.NoError(t, reserveOne(t, factory, inventory.KindBooking, "bk-1", span(t, "2026-09-10", "2026-09-14")))
	// [10,14) and [14,18): checkout day equals the next check-in day.
	require.NoError(t, reserveOne(t, factory, inventory.KindBooking, "bk-2", span(t, "2026-09-14", "2026-09-18")))
}

func TestReserveClassifiesBlockOverlap(t *testing.T) {
	factory := newTestFactory(t)
	require.NoError(t, reserveOne(t, factory, inventory.KindBlock, "blk-1", span(t, "2026-10-01", "2026-10-08")))

	err := reserveOne(t, factory, inventory.KindBooking, "bk-1", span(t, "2026-10-03", "2026-10-05"))
	var conflict *faults.ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, faults.ConflictInventoryOverlap, conflict.Type)
}

func TestBookingOverlapTakesPrecedenceOverBlock(t *testing.T) {
	factory := newTestFactory(t)
	require.NoError(t, reserveOne(t, factory, inventory.KindBlock, "blk-1", span(t, "2026-10-01", "2026-10-04")))
	require.NoError(t, reserveOne(t, factory, inventory.KindBooking, "bk-1", span(t, "2026-10-04", "2026-10-08")))

	// The request overlaps both; the booking wins the classification.
	err := reserveOne(t, factory, inventory.KindBooking, "bk-2", span(t, "2026-10-02", "2026-10-06"))
	var conflict *faults.ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, faults.ConflictDoubleBooking, conflict.Type)
}

func TestReleaseFreesWindowImmediately(t *testing.T) {
	factory := newTestFactory(t)
	dr := span(t, "2026-11-01", "2026-11-05")
	require.NoError(t, reserveOne(t, factory, inventory.KindBooking, "bk-1", dr))

	ctx := context.Background()
	unit, err := factory.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	require.NoError(t, Release(ctx, unit, inventory.KindBooking, "bk-1"))
	require.NoError(t, unit.Commit(ctx))

	require.NoError(t, reserveOne(t, factory, inventory.KindBooking, "bk-2", dr))
}

func TestProbeReportsWithoutWriting(t *testing.T) {
	factory := newTestFactory(t)
	dr := span(t, "2026-12-01", "2026-12-05")
	require.NoError(t, reserveOne(t, factory, inventory.KindBooking, "bk-1", dr))

	ctx := context.Background()
	unit, err := factory.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	defer func() { _ = unit.Rollback(ctx) }()

	err = Probe(ctx, unit, property.PropertyID("prop-1"), dr)
	var conflict *faults.ConflictError
	require.True(t, errors.As(err, &conflict))

	require.NoError(t, Probe(ctx, unit, property.PropertyID("prop-1"), span(t, "2027-01-01", "2027-01-05")))
}

func TestConcurrentReservationsAdmitExactlyOne(t *testing.T) {
	factory := newTestFactory(t)
	dr := span(t, "2026-09-10", "2026-09-14")

	const workers = 10
	results := make(chan error, workers)
	for i := 0; i < workers; i++ {
		go func(n int) {
			results <- reserveOne(t, factory, inventory.KindBooking, fmt.Sprintf("bk-%d", n), dr)
		}(i)
	}

	var won, conflicted int
	for i := 0; i < workers; i++ {
		err := <-results
		if err == nil {
			won++
			continue
		}
		var conflict *faults.ConflictError
		require.True(t, errors.As(err, &conflict), "unexpected error: %v", err)
		conflicted++
	}
	assert.Equal(t, 1, won)
	assert.Equal(t, workers-1, conflicted)
}
