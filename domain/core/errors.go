package core

import (
	"errors"
	"fmt"
)

// Layout validation errors. Structural and not-found failures carry
// coded AppErrors from internal/errors instead; these sentinels cover
// the pure-domain checks that run before any adapter is involved.
var (
	ErrEmptyLayout     = errors.New("layout has no columns")
	ErrDuplicateColumn = errors.New("duplicate column id")
)

func NewColumnError(columnID string, reason string) error {
	return fmt.Errorf("column %q: %s", columnID, reason)
}
