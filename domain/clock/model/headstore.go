package model

import (
	"context"

	"github.com/kaspanet/merkleclock/domain/clock/frontier"
)

// HeadStore persists the frontier of a single clock.
type HeadStore interface {
	// Head returns the stored frontier, or an empty frontier if none was
	// stored yet.
	Head(ctx context.Context) (frontier.Frontier, error)

	// SetHead replaces the stored frontier.
	SetHead(ctx context.Context, head frontier.Frontier) error
}
