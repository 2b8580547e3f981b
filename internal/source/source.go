// Package source supplies raw items to the triage engine.
package source

import (
	"context"
	"errors"

	"github.com/mcao2/careops-triage/internal/triage"
)

// ErrTokenRejected is returned by Verify when the upstream refuses the token
var ErrTokenRejected = errors.New("source rejected the API token")

// Source fetches the current set of raw items
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]triage.Item, error)
}

// TokenVerifier is implemented by sources that authenticate upstream
type TokenVerifier interface {
	VerifyToken(ctx context.Context) (bool, error)
}

// Verify checks the source's credentials when it has any. Sources without
// credentials always pass.
func Verify(ctx context.Context, src Source) error {
	v, ok := src.(TokenVerifier)
	if !ok {
		return nil
	}
	valid, err := v.VerifyToken(ctx)
	if err != nil {
		return err
	}
	if !valid {
		return ErrTokenRejected
	}
	return nil
}

// Acknowledger is implemented by sources that can record an item as read upstream
type Acknowledger interface {
	MarkRead(ctx context.Context, id string) error
}
