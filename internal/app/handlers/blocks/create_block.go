package blocks

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"innkeep/internal/app/commands"
	"innkeep/internal/app/conflict"
	"innkeep/internal/app/handlers/support"
	"innkeep/internal/app/middleware"
	"innkeep/internal/app/outbox"
	"innkeep/internal/app/uow"
	domaininventory "innkeep/internal/domain/inventory"
	domainproperty "innkeep/internal/domain/property"
	"innkeep/internal/domain/shared/daterange"
	"innkeep/internal/domain/shared/faults"
	"innkeep/internal/domain/shared/storerr"
)

const createBlockKey = "block.create"

type CreateBlockCommand struct {
	CommandID  string
	Tenant     string    `validate:"required"`
	PropertyID string    `validate:"required"`
	StartDate  time.Time `validate:"required"`
	EndDate    time.Time `validate:"required"`
	Reason     string    `validate:"required"`
	IdemKey    string
}

func (c CreateBlockCommand) Key() string { return createBlockKey }

func (c CreateBlockCommand) TenantID() string { return c.Tenant }

func (c CreateBlockCommand) IdempotencyKey() string { return c.IdemKey }

func (c CreateBlockCommand) RequestPayload() any {
	c.CommandID = ""
	return c
}

func (c CreateBlockCommand) ResultPrototype() any { return &BlockResult{} }

func (c CreateBlockCommand) SuccessStatus() int { return http.StatusCreated }

type BlockResult struct {
	BlockID    string `json:"block_id"`
	PropertyID string `json:"property_id"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
	Reason     string `json:"reason"`
	Active     bool   `json:"active"`
}

type CreateBlockHandler struct {
	UoWFactory uow.UoWFactory
	Encoder    outbox.EventEncoder
}

func (h *CreateBlockHandler) Handle(ctx context.Context, cmd CreateBlockCommand) (*BlockResult, error) {
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

	span, err := daterange.New(cmd.StartDate, cmd.EndDate)
	if err != nil {
		return nil, faults.Invalid("end_date must be after start_date")
	}

	prop, err := unit.Properties().ByID(ctx, cmd.Tenant, domainproperty.PropertyID(cmd.PropertyID))
	if err != nil {
		if errors.Is(err, storerr.ErrNotFound) {
			return nil, &faults.NotFoundError{Entity: "property"}
		}
		return nil, wrapStorage(err)
	}

	block := domaininventory.NewBlock(domaininventory.BlockID(cmd.CommandID), cmd.Tenant, prop.ID, span, cmd.Reason, time.Now())

	// Blocks and bookings compete for the same exclusion scope.
	if err := conflict.Reserve(ctx, unit, &domaininventory.Range{
		ID:         uuid.NewString(),
		TenantID:   cmd.Tenant,
		PropertyID: prop.ID,
		Kind:       domaininventory.KindBlock,
		Span:       span,
		SourceID:   string(block.ID),
	}); err != nil {
		return nil, err
	}

	if err := unit.Blocks().Save(ctx, block); err != nil {
		return nil, wrapStorage(err)
	}

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
	return toResult(block), nil
}

func toResult(b *domaininventory.AvailabilityBlock) *BlockResult {
	return &BlockResult{
		BlockID:    string(b.ID),
		PropertyID: string(b.PropertyID),
		StartDate:  b.Span.Start.Format(time.DateOnly),
		EndDate:    b.Span.End.Format(time.DateOnly),
		Reason:     b.Reason,
		Active:     b.Active,
	}
}

func wrapStorage(err error) error {
	var transient *storerr.TransientError
	if errors.As(err, &transient) {
		return &faults.UnavailableError{Err: err}
	}
	return err
}

var _ commands.Handler[CreateBlockCommand, *BlockResult] = (*CreateBlockHandler)(nil)
var _ middleware.IdempotentCommand = CreateBlockCommand{}
