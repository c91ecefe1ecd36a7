package glcontext

import (
	"github.com/google/uuid"

	"github.com/gogpu/glcontext/imagestore"
)

// ShareGroup is the sharing domain for images published by contexts.
//
// Contexts created with the same share group publish into one store,
// so an image created in one context can be imported by another.
// Images carry their own pixel copies and reference counts; they stay
// readable after every member context is destroyed.
type ShareGroup struct {
	id    uuid.UUID
	store *imagestore.Store
}

// NewShareGroup creates a share group with default store limits.
func NewShareGroup() *ShareGroup {
	return NewShareGroupWithConfig(imagestore.Config{})
}

// NewShareGroupWithConfig creates a share group with explicit store
// limits.
func NewShareGroupWithConfig(cfg imagestore.Config) *ShareGroup {
	return &ShareGroup{
		id:    uuid.New(),
		store: imagestore.NewStore(cfg),
	}
}

// ID returns the group identity, stable for the group's lifetime.
func (g *ShareGroup) ID() uuid.UUID {
	return g.id
}

// Store returns the image store backing the group.
func (g *ShareGroup) Store() *imagestore.Store {
	return g.store
}

// Stats returns the current store statistics.
func (g *ShareGroup) Stats() imagestore.StoreStats {
	return g.store.Stats()
}

// Close closes the group's store. Images already handed out stay
// readable until their last reference is released.
func (g *ShareGroup) Close() error {
	return g.store.Close()
}
