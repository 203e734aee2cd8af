package validation

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	"innkeep/internal/domain/shared/faults"
)

// Playground adapts go-playground/validator to the command pipeline,
// mapping tag failures onto validation faults.
type Playground struct {
	v *validator.Validate
}

func New() *Playground {
	return &Playground{v: validator.New(validator.WithRequiredStructEnabled())}
}

func (p *Playground) Validate(ctx context.Context, message any) error {
	err := p.v.StructCtx(ctx, message)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fieldLabel(fe.Field())+" failed "+fe.Tag()+" validation")
	}
	return faults.Invalid("%s", strings.Join(parts, "; "))
}

func fieldLabel(name string) string {
	var b strings.Builder
	for i, r := range name {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r + ('a' - 'A'))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
