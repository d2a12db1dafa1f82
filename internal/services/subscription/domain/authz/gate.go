// Package authz decides whether a caller holds the contract's administrative
// authority.
//
// The gate is a pure read: it consults the stored authority through an
// AuthorityReader and never mutates state. Read failures are reported as
// STATE_READ_FAILED so callers can tell "not admin" apart from "could not
// tell".
package authz

import (
	"context"

	"github.com/fruitbox12/Subscription/internal/platform/errors"
	"github.com/fruitbox12/Subscription/internal/services/subscription/domain/principal"
)

// AuthorityReader reads the administrative authority state.
type AuthorityReader interface {
	IsContractAdmin(ctx context.Context, caller principal.ID) (bool, error)
}

// Gate answers authorization questions for admin commands.
type Gate struct {
	Authority AuthorityReader
}

// NewGate returns a gate backed by reader.
func NewGate(reader AuthorityReader) Gate {
	return Gate{Authority: reader}
}

// IsAuthorized reports whether caller is the contract admin.
func (g Gate) IsAuthorized(ctx context.Context, caller principal.ID) (bool, error) {
	if g.Authority == nil {
		return false, errors.New(errors.CodeStateRead, "authority reader is not configured")
	}
	ok, err := g.Authority.IsContractAdmin(ctx, caller)
	if err != nil {
		return false, errors.Wrap(errors.CodeStateRead, "read contract admin", err)
	}
	return ok, nil
}
