package blocks

import (
	"context"
	"errors"
	"time"

	"innkeep/internal/app/commands"
	"innkeep/internal/app/conflict"
	"innkeep/internal/app/handlers/support"
	"innkeep/internal/app/outbox"
	"innkeep/internal/app/uow"
	domaininventory "innkeep/internal/domain/inventory"
	"innkeep/internal/domain/shared/faults"
	"innkeep/internal/domain/shared/storerr"
)

const deleteBlockKey = "block.delete"

type DeleteBlockCommand struct {
	Tenant  string `validate:"required"`
	BlockID string `validate:"required"`
}

func (c DeleteBlockCommand) Key() string { return deleteBlockKey }

type DeleteBlockResult struct {
	BlockID string `json:"block_id"`
	Deleted bool   `json:"deleted"`
}

type DeleteBlockHandler struct {
	UoWFactory uow.UoWFactory
	Encoder    outbox.EventEncoder
}

// Handle hard-deletes the block: the freed window is visible to every
// query the moment the transaction commits, no grace period.
func (h *DeleteBlockHandler) Handle(ctx context.Context, cmd DeleteBlockCommand) (*DeleteBlockResult, error) {
	unit, ctx, managed, err := support.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	committed := false
	if managed {
		defer func() {
			if !committed {
				_ = unit.Rollback(ctx)
			}
		}()
	}

	block, err := unit.Blocks().ByID(ctx, cmd.Tenant, domaininventory.BlockID(cmd.BlockID))
	if err != nil {
		if errors.Is(err, storerr.ErrNotFound) {
			return nil, &faults.NotFoundError{Entity: "block"}
		}
		return nil, wrapStorage(err)
	}

	if err := conflict.Release(ctx, unit, domaininventory.KindBlock, string(block.ID)); err != nil {
		return nil, err
	}
	if err := unit.Blocks().Delete(ctx, cmd.Tenant, block.ID); err != nil {
		return nil, wrapStorage(err)
	}

	block.Record(domaininventory.BlockReleased{BlockID: block.ID, PropertyID: block.PropertyID, Span: block.Span, At: time.Now().UTC()})
	evs := block.PendingEvents()
	block.ClearEvents()
	if err := outbox.RecordDomainEvents(ctx, unit.Outbox(), h.Encoder, evs); err != nil {
		return nil, err
	}

	if managed {
		if err := unit.Commit(ctx); err != nil {
			return nil, wrapStorage(err)
		}
		committed = true
	}
	return &DeleteBlockResult{BlockID: cmd.BlockID, Deleted: true}, nil
}

var _ commands.Handler[DeleteBlockCommand, *DeleteBlockResult] = (*DeleteBlockHandler)(nil)
