package inventory

import (
	"context"
	"time"

	"innkeep/internal/domain/property"
	"innkeep/internal/domain/shared/daterange"
	"innkeep/internal/domain/shared/events"
)

type BlockID string

// AvailabilityBlock is a manual hold on a property's calendar. Blocks
// compete for the same exclusion scope as bookings and are hard-deleted.
type AvailabilityBlock struct {
	ID         BlockID
	TenantID   string
	PropertyID property.PropertyID
	Span       daterange.DateRange
	Reason     string
	Active     bool
	CreatedAt  time.Time
	events.EventRecorder
}

type BlockRepository interface {
	ByID(ctx context.Context, tenantID string, id BlockID) (*AvailabilityBlock, error)
	Save(ctx context.Context, b *AvailabilityBlock) error
	Delete(ctx context.Context, tenantID string, id BlockID) error
}

func NewBlock(id BlockID, tenantID string, propertyID property.PropertyID, span daterange.DateRange, reason string, now time.Time) *AvailabilityBlock {
	b := &AvailabilityBlock{
		ID:         id,
		TenantID:   tenantID,
		PropertyID: propertyID,
		Span:       span,
		Reason:     reason,
		Active:     true,
		CreatedAt:  now.UTC(),
	}
	b.Record(BlockCreated{BlockID: b.ID, PropertyID: b.PropertyID, Span: b.Span, Reason: reason, At: b.CreatedAt})
	return b
}
