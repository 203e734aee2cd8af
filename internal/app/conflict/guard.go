// Package conflict implements the write-time overlap guard shared by
// bookings and availability blocks. Enforcement is two-layered: a cheap
// in-transaction pre-check plus the storage-level range-exclusion
// constraint. The constraint is the source of truth; the pre-check only
// rejects early.
package conflict

import (
	"context"
	"errors"

	"innkeep/internal/app/uow"
	"innkeep/internal/domain/inventory"
	"innkeep/internal/domain/property"
	"innkeep/internal/domain/shared/daterange"
	"innkeep/internal/domain/shared/faults"
	"innkeep/internal/domain/shared/storerr"
)

// Reserve claims an occupancy interval for a booking or block. It
// serializes writers on the property, pre-checks for overlap, inserts
// the range row, and classifies any constraint violation. Callers never
// see a raw storage error for an overlap.
func Reserve(ctx context.Context, unit uow.UnitOfWork, r *inventory.Range) error {
	if err := unit.SerializeProperty(ctx, r.PropertyID); err != nil {
		return wrapStorage(err)
	}
	rows, err := unit.Ranges().Overlapping(ctx, r.PropertyID, r.Span)
	if err != nil {
		return wrapStorage(err)
	}
	if conflictErr := classify(rows, r); conflictErr != nil {
		return conflictErr
	}
	err = unit.Ranges().Insert(ctx, r)
	if err == nil {
		return nil
	}
	var excl *storerr.RangeExclusionError
	if errors.As(err, &excl) {
		// The pre-check passed but a concurrent writer won the
		// constraint. Re-query to classify the winner.
		rows, qerr := unit.Ranges().Overlapping(ctx, r.PropertyID, r.Span)
		if qerr == nil {
			if conflictErr := classify(rows, r); conflictErr != nil {
				return conflictErr
			}
		}
		return &faults.ConflictError{Type: faults.ConflictDoubleBooking}
	}
	return wrapStorage(err)
}

// Release frees the interval owned by a booking or block.
func Release(ctx context.Context, unit uow.UnitOfWork, kind inventory.RangeKind, sourceID string) error {
	if err := unit.Ranges().DeleteBySource(ctx, kind, sourceID); err != nil {
		return wrapStorage(err)
	}
	return nil
}

// Probe reports the conflict that would occur if span were reserved on
// the property, without writing anything.
func Probe(ctx context.Context, unit uow.UnitOfWork, id property.PropertyID, span daterange.DateRange) error {
	rows, err := unit.Ranges().Overlapping(ctx, id, span)
	if err != nil {
		return wrapStorage(err)
	}
	if conflictErr := classify(rows, nil); conflictErr != nil {
		return conflictErr
	}
	return nil
}

// classify maps overlapping rows to a conflict type. Overlap with a
// booking takes precedence over overlap with a block when both exist.
func classify(rows []inventory.Range, self *inventory.Range) *faults.ConflictError {
	found := false
	for _, row := range rows {
		if self != nil && row.Kind == self.Kind && row.SourceID == self.SourceID {
			continue
		}
		if row.Kind == inventory.KindBooking {
			return &faults.ConflictError{Type: faults.ConflictDoubleBooking}
		}
		found = true
	}
	if found {
		return &faults.ConflictError{Type: faults.ConflictInventoryOverlap}
	}
	return nil
}

func wrapStorage(err error) error {
	var transient *storerr.TransientError
	if errors.As(err, &transient) {
		return &faults.UnavailableError{Err: err}
	}
	return err
}
