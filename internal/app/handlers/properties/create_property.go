package properties

import (
	"context"
	"errors"
	"time"

	"innkeep/internal/app/commands"
	"innkeep/internal/app/handlers/support"
	"innkeep/internal/app/uow"
	domainproperty "innkeep/internal/domain/property"
	"innkeep/internal/domain/shared/faults"
	"innkeep/internal/domain/shared/storerr"
)

const createPropertyKey = "property.create"

type CreatePropertyCommand struct {
	CommandID string
	Tenant    string `validate:"required"`
	Name      string `validate:"required"`
}

func (c CreatePropertyCommand) Key() string { return createPropertyKey }

type PropertyResult struct {
	PropertyID string    `json:"property_id"`
	Name       string    `json:"name"`
	CreatedAt  time.Time `json:"created_at"`
}

type CreatePropertyHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *CreatePropertyHandler) Handle(ctx context.Context, cmd CreatePropertyCommand) (*PropertyResult, error) {
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

	now := time.Now().UTC()
	prop := &domainproperty.Property{
		ID:        domainproperty.PropertyID(cmd.CommandID),
		TenantID:  cmd.Tenant,
		Name:      cmd.Name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := unit.Properties().Save(ctx, prop); err != nil {
		var transient *storerr.TransientError
		if errors.As(err, &transient) {
			return nil, &faults.UnavailableError{Err: err}
		}
		return nil, err
	}

	if managed {
		if err := unit.Commit(ctx); err != nil {
			return nil, err
		}
		committed = true
	}
	return &PropertyResult{PropertyID: string(prop.ID), Name: prop.Name, CreatedAt: prop.CreatedAt}, nil
}

var _ commands.Handler[CreatePropertyCommand, *PropertyResult] = (*CreatePropertyHandler)(nil)
