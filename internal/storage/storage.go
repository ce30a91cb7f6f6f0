package storage

import (
	"context"

	"github.com/jwebster45206/room-director/pkg/world"
)

// Store persists world snapshots between process runs.
type Store interface {
	// SaveWorld writes a snapshot under the given world name.
	SaveWorld(ctx context.Context, name string, state *world.State) error

	// LoadWorld returns the snapshot for the given name, or nil if none
	// exists.
	LoadWorld(ctx context.Context, name string) (*world.State, error)

	// DeleteWorld removes the snapshot for the given name.
	DeleteWorld(ctx context.Context, name string) error

	// Ping checks backend connectivity.
	Ping(ctx context.Context) error

	// Close releases the backend connection.
	Close() error
}
