package gormstore

import (
	"context"
	"database/sql"
	"sync"

	"gorm.io/gorm"

	"innkeep/internal/app/outbox"
	"innkeep/internal/app/uow"
	domainbooking "innkeep/internal/domain/booking"
	domainguest "innkeep/internal/domain/guest"
	domaininventory "innkeep/internal/domain/inventory"
	domainproperty "innkeep/internal/domain/property"
)

// Factory starts transactional units of work over one gorm handle.
type Factory struct {
	db    *gorm.DB
	locks *lockTable
}

func NewFactory(db *gorm.DB) *Factory {
	return &Factory{db: db, locks: newLockTable()}
}

func (f *Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	var tx *gorm.DB
	if opts.ReadOnly && f.db.Dialector.Name() == "postgres" {
		tx = f.db.WithContext(ctx).Begin(&sql.TxOptions{ReadOnly: true})
	} else {
		tx = f.db.WithContext(ctx).Begin()
	}
	if tx.Error != nil {
		return nil, translate(tx.Error, "begin")
	}
	return &unit{tx: tx, factory: f}, nil
}

type unit struct {
	tx      *gorm.DB
	factory *Factory
	unlocks []func()
	done    bool
}

func (u *unit) Properties() domainproperty.Repository   { return &propertyRepo{tx: u.tx} }
func (u *unit) Guests() domainguest.Directory           { return &guestRepo{tx: u.tx} }
func (u *unit) Bookings() domainbooking.Repository      { return &bookingRepo{tx: u.tx} }
func (u *unit) Ranges() domaininventory.RangeRepository { return &rangeRepo{tx: u.tx} }
func (u *unit) Blocks() domaininventory.BlockRepository { return &blockRepo{tx: u.tx} }
func (u *unit) Idempotency() uow.IdempotencyStore       { return &idempotencyStore{tx: u.tx} }
func (u *unit) Outbox() outbox.Outbox                   { return &outboxStore{tx: u.tx} }

// SerializeProperty totally orders conflict-sensitive writes within one
// property. On Postgres this is a transaction-scoped advisory lock, so
// release happens with the transaction itself. Other dialects fall back
// to an in-process keyed mutex released on Commit or Rollback, which is
// only sound when every writer shares this process.
func (u *unit) SerializeProperty(ctx context.Context, id domainproperty.PropertyID) error {
	if u.tx.Dialector.Name() == "postgres" {
		err := u.tx.WithContext(ctx).
			Exec(`SELECT pg_advisory_xact_lock(hashtextextended(?, 0))`, string(id)).Error
		return translate(err, string(id))
	}
	u.unlocks = append(u.unlocks, u.factory.locks.lock(string(id)))
	return nil
}

func (u *unit) Commit(ctx context.Context) error {
	if u.done {
		return nil
	}
	u.done = true
	err := u.tx.Commit().Error
	u.release()
	return translate(err, "commit")
}

func (u *unit) Rollback(ctx context.Context) error {
	if u.done {
		return nil
	}
	u.done = true
	err := u.tx.Rollback().Error
	u.release()
	return translate(err, "rollback")
}

func (u *unit) release() {
	for i := len(u.unlocks) - 1; i >= 0; i-- {
		u.unlocks[i]()
	}
	u.unlocks = nil
}

// lockTable is the SQLite stand-in for advisory locks: one mutex per
// property key, never reclaimed. Fine for test-sized key sets.
type lockTable struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newLockTable() *lockTable {
	return &lockTable{locks: map[string]*sync.Mutex{}}
}

func (t *lockTable) lock(key string) (unlock func()) {
	t.mu.Lock()
	m, ok := t.locks[key]
	if !ok {
		m = &sync.Mutex{}
		t.locks[key] = m
	}
	t.mu.Unlock()
	m.Lock()
	return m.Unlock
}
