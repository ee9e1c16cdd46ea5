// Package store provides the public factory for the gridbase storage
// engine while keeping implementation details internal.
package store

import (
	"github.com/mesh-intelligence/gridbase/internal/store"
	"github.com/mesh-intelligence/gridbase/pkg/types"
)

// NewBackend creates a detached engine. Call Attach with a Config to
// connect it.
//
// Example:
//
//	engine := store.NewBackend()
//	err := engine.Attach(types.Config{
//	    Backend: types.BackendSQLite,
//	    DataDir: ".gridbase",
//	})
//	defer engine.Detach()
func NewBackend() types.Engine {
	return store.NewBackend()
}
