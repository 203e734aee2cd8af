package uow

import (
	"context"
	"time"

	"innkeep/internal/app/outbox"
	domainbooking "innkeep/internal/domain/booking"
	domainguest "innkeep/internal/domain/guest"
	domaininventory "innkeep/internal/domain/inventory"
	domainproperty "innkeep/internal/domain/property"
)

// UnitOfWork coordinates repositories inside one transaction boundary.
// Every mutation in the system runs inside exactly one of these.
type UnitOfWork interface {
	Properties() domainproperty.Repository
	Guests() domainguest.Directory
	Bookings() domainbooking.Repository
	Ranges() domaininventory.RangeRepository
	Blocks() domaininventory.BlockRepository
	Idempotency() IdempotencyStore
	Outbox() outbox.Outbox

	// SerializeProperty acquires the transaction-scoped advisory token
	// for a property, totally ordering conflict-sensitive writes within
	// it. Released automatically on commit or rollback. This reduces
	// wasted constraint-violation retries; the storage-level exclusion
	// constraint stays correct without it.
	SerializeProperty(ctx context.Context, id domainproperty.PropertyID) error

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// UoWFactory starts unit of work instances.
type UoWFactory interface {
	Begin(ctx context.Context, opts TxOptions) (UnitOfWork, error)
}

// TxOptions configure transaction boundaries.
type TxOptions struct {
	ReadOnly bool
	// Timeout bounds the transaction; an expired deadline rolls back and
	// surfaces as storage-unavailable, never a lock held indefinitely.
	Timeout time.Duration
}

// IdempotencyRecord caches the first response seen for a key tuple.
type IdempotencyRecord struct {
	TenantID       string
	Endpoint       string
	Method         string
	Key            string
	RequestHash    string
	ResponseStatus int
	ResponseBody   []byte
	ExpiresAt      time.Time
}

// IdempotencyStore persists records in the same transaction as the
// command they guard.
type IdempotencyStore interface {
	// Find returns nil when the tuple is unseen; expired records count
	// as unseen.
	Find(ctx context.Context, tenantID, endpoint, method, key string) (*IdempotencyRecord, error)
	Save(ctx context.Context, rec *IdempotencyRecord) error
}
