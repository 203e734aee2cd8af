package validation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"innkeep/internal/domain/shared/faults"
)

type sampleCommand struct {
	Tenant     string `validate:"required"`
	GuestEmail string `validate:"omitempty,email"`
}

func TestValidatePassesCleanStruct(t *testing.T) {
	v := New()
	require.NoError(t, v.Validate(context.Background(), sampleCommand{Tenant: "tenant-a"}))
}

func TestValidateMapsFailuresToValidationFault(t *testing.T) {
	v := New()
	err := v.Validate(context.Background(), sampleCommand{GuestEmail: "not-an-email"})
	var invalid *faults.ValidationError
	require.True(t, errors.As(err, &invalid))
	assert.Contains(t, invalid.Error(), "tenant")
	assert.Contains(t, invalid.Error(), "guest_email")
	assert.Equal(t, 422, invalid.HTTPStatus())
}
