package tools

import (
	"context"
	"strings"
)

// Confirmation describes a side effect awaiting human approval. Action is the
// fully resolved operation (for example the exact command line).
type Confirmation struct {
	Title    string
	Action   string
	Question string
	Warning  string
}

// Confirmer blocks until a human approves or declines a side effect.
type Confirmer interface {
	Confirm(ctx context.Context, c Confirmation) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, c Confirmation) (bool, error)

// Confirm calls f.
func (f ConfirmFunc) Confirm(ctx context.Context, c Confirmation) (bool, error) {
	return f(ctx, c)
}

// DenyAll declines every confirmation. It is the default when no terminal is
// attached.
type DenyAll struct{}

// Confirm always declines.
func (DenyAll) Confirm(context.Context, Confirmation) (bool, error) {
	return false, nil
}

// IsAffirmative reports whether a typed answer approves: "yes" or "y", any case.
func IsAffirmative(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "yes", "y":
		return true
	default:
		return false
	}
}
