package authz

import (
	"context"
	"crypto/subtle"
	"fmt"

	pkgerrors "github.com/lowvoltmgr/lowvolt-backend/pkg/errors"
)

// Confirmer gates destructive or override operations behind an extra
// confirmation step. The site runs on a shared superintendent PIN today;
// the interface leaves room for per-user credentials later.
type Confirmer interface {
	Confirm(ctx context.Context, pin string) error
}

// StaticPIN compares against a single configured PIN.
type StaticPIN struct {
	pin string
}

// NewStaticPIN builds a Confirmer around the configured shared PIN.
func NewStaticPIN(pin string) (*StaticPIN, error) {
	if pin == "" {
		return nil, fmt.Errorf("admin pin required")
	}
	return &StaticPIN{pin: pin}, nil
}

func (s *StaticPIN) Confirm(_ context.Context, pin string) error {
	if subtle.ConstantTimeCompare([]byte(s.pin), []byte(pin)) != 1 {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid pin")
	}
	return nil
}
