package calendar_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"

	"innkeep/internal/app/conflict"
	calendarapp "innkeep/internal/app/handlers/calendar"
	"innkeep/internal/app/uow"
	"innkeep/internal/domain/inventory"
	domainproperty "innkeep/internal/domain/property"
	"innkeep/internal/domain/shared/daterange"
	"innkeep/internal/domain/shared/faults"
	"innkeep/internal/infra/db/gormstore"
)

type fixture struct {
	factory *gormstore.Factory
	handler *calendarapp.GetRangesHandler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gormstore.Open(sqlite.Open(dsn))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, gormstore.Migrate(db))

	factory := gormstore.NewFactory(db)
	ctx := context.Background()
	unit, err := factory.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	now := time.Now().UTC()
	require.NoError(t, unit.Properties().Save(ctx, &domainproperty.Property{
		ID:        "prop-1",
		TenantID:  "tenant-a",
		Name:      "Hillside Cabin",
		CreatedAt: now,
		UpdatedAt: now,
	}))
	require.NoError(t, unit.Commit(ctx))

	return &fixture{
		factory: factory,
		handler: &calendarapp.GetRangesHandler{UoWFactory: factory},
	}
}

func (f *fixture) reserve(t *testing.T, kind inventory.RangeKind, source, start, end string) {
	t.Helper()
	from, _ := time.Parse(time.DateOnly, start)
	to, _ := time.Parse(time.DateOnly, end)
	dr, err := daterange.New(from, to)
	require.NoError(t, err)
	ctx := context.Background()
	unit, err := f.factory.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	require.NoError(t, conflict.Reserve(ctx, unit, &inventory.Range{
		ID:         uuid.NewString(),
		TenantID:   "tenant-a",
		PropertyID: "prop-1",
		Kind:       kind,
		Span:       dr,
		SourceID:   source,
	}))
	require.NoError(t, unit.Commit(ctx))
}

func (f *fixture) query(tenant, prop, from, to string) (*calendarapp.GetRangesResult, error) {
	start, _ := time.Parse(time.DateOnly, from)
	end, _ := time.Parse(time.DateOnly, to)
	return f.handler.Handle(context.Background(), calendarapp.GetRangesQuery{
		Tenant:     tenant,
		PropertyID: prop,
		From:       start,
		To:         end,
	})
}

func TestRangesReturnedExactlyOnce(t *testing.T) {
	f := newFixture(t)
	f.reserve(t, inventory.KindBooking, "bk-1", "2026-09-10", "2026-09-14")
	f.reserve(t, inventory.KindBlock, "blk-1", "2026-09-20", "2026-09-25")

	res, err := f.query("tenant-a", "prop-1", "2026-09-01", "2026-09-30")
	require.NoError(t, err)
	require.Len(t, res.Ranges, 2)
	assert.Equal(t, "occupied", res.Ranges[0].State)
	assert.Equal(t, "bk-1", res.Ranges[0].SourceID)
	assert.Equal(t, "blocked", res.Ranges[1].State)
	assert.Equal(t, "blk-1", res.Ranges[1].SourceID)
}

func TestRangesWindowIntersectionOnly(t *testing.T) {
	f := newFixture(t)
	f.reserve(t, inventory.KindBooking, "bk-1", "2026-09-10", "2026-09-14")

	// Window ends exactly where the range starts: no intersection.
	res, err := f.query("tenant-a", "prop-1", "2026-09-01", "2026-09-10")
	require.NoError(t, err)
	assert.Empty(t, res.Ranges)

	// One shared night is enough.
	res, err = f.query("tenant-a", "prop-1", "2026-09-13", "2026-09-20")
	require.NoError(t, err)
	assert.Len(t, res.Ranges, 1)
}

func TestRangesRejectsInvertedWindow(t *testing.T) {
	f := newFixture(t)
	_, err := f.query("tenant-a", "prop-1", "2026-09-30", "2026-09-01")
	var invalid *faults.ValidationError
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, http.StatusBadRequest, invalid.HTTPStatus())
}

func TestRangesCapsWindowSpan(t *testing.T) {
	f := newFixture(t)
	_, err := f.query("tenant-a", "prop-1", "2026-01-01", "2028-01-01")
	var invalid *faults.ValidationError
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, http.StatusBadRequest, invalid.HTTPStatus())
}

func TestRangesCrossTenantIs404(t *testing.T) {
	f := newFixture(t)
	_, err := f.query("tenant-b", "prop-1", "2026-09-01", "2026-09-30")
	var notFound *faults.NotFoundError
	require.True(t, errors.As(err, &notFound))
}
