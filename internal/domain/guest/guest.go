package guest

import (
	"context"
	"errors"
	"time"
)

var ErrGuestNotFound = errors.New("guest: not found")

type GuestID string

// Guest is the minimal projection of the external guest directory this
// core links bookings against. CRM-style guest management is out of scope.
type Guest struct {
	ID        GuestID
	TenantID  string
	Email     string
	Name      string
	CreatedAt time.Time
}

// Directory is the collaborator port for guest lookups. Bookings keep a
// nullable link only; deleting a guest never blocks and clears the link.
type Directory interface {
	ByID(ctx context.Context, tenantID string, id GuestID) (*Guest, error)
	FindOrCreateByEmail(ctx context.Context, tenantID, email, name string) (*Guest, error)
}
