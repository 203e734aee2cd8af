package property

import (
	"context"
	"time"
)

type PropertyID string

// Property is the tenant-scoped identity everything else hangs off.
// Full property management lives outside this core.
type Property struct {
	ID        PropertyID
	TenantID  string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Repository interface {
	// ByID is tenant-scoped: a property owned by another tenant is
	// indistinguishable from a missing one.
	ByID(ctx context.Context, tenantID string, id PropertyID) (*Property, error)
	Save(ctx context.Context, p *Property) error
}
