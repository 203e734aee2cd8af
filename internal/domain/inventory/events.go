package inventory

import (
	"time"

	"innkeep/internal/domain/property"
	"innkeep/internal/domain/shared/daterange"
)

type BlockCreated struct {
	BlockID    BlockID
	PropertyID property.PropertyID
	Span       daterange.DateRange
	Reason     string
	At         time.Time
}

func (e BlockCreated) EventName() string     { return "inventory.block_created" }
func (e BlockCreated) AggregateID() string   { return string(e.PropertyID) }
func (e BlockCreated) OccurredAt() time.Time { return e.At }

type BlockReleased struct {
	BlockID    BlockID
	PropertyID property.PropertyID
	Span       daterange.DateRange
	At         time.Time
}

func (e BlockReleased) EventName() string     { return "inventory.block_released" }
func (e BlockReleased) AggregateID() string   { return string(e.PropertyID) }
func (e BlockReleased) OccurredAt() time.Time { return e.At }
