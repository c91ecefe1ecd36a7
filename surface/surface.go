// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package surface

import "github.com/gogpu/glcontext/pixbuf"

// Surface is the drawing surface abstraction consumed by rendering
// contexts.
//
// A Surface represents pixel storage owned by the window system layer. A
// context binds a surface's contents as texture storage; it never owns
// the surface and never outlives decisions the platform makes about it.
//
// Surfaces are NOT thread-safe. Each surface should be used from a single
// goroutine, or external synchronization must be used.
type Surface interface {
	// Width returns the surface width in pixels.
	Width() int

	// Height returns the surface height in pixels.
	Height() int

	// Format returns the surface pixel format.
	Format() pixbuf.Format

	// BackingBuffer returns the surface's current pixel storage.
	// The buffer is owned by the surface; callers must copy out of it
	// rather than retain it, as a resize replaces the storage.
	// Returns nil once the surface is closed.
	BackingBuffer() *pixbuf.Buffer

	// Valid reports whether the surface can still be drawn to and bound.
	// A closed surface is invalid forever.
	Valid() bool

	// Close releases the surface's resources.
	// After Close, the surface must not be used.
	// Close is idempotent; multiple calls are safe.
	Close() error
}

// ResizableSurface is an optional interface for surfaces that support
// resizing.
type ResizableSurface interface {
	Surface

	// Resize changes the surface dimensions, replacing the pixel storage.
	// Existing content is discarded.
	Resize(width, height int) error
}

// NotifyingSurface is an optional interface for surfaces that announce
// invalidation of their pixel storage.
//
// A surface's storage is invalidated when it is resized or closed.
// Contexts holding the surface as bound texture storage register a
// handler so the binding can be dropped before the storage disappears.
type NotifyingSurface interface {
	Surface

	// OnInvalidate registers a handler called whenever the surface's
	// current storage becomes invalid. The returned cancel function
	// removes the handler; it is safe to call more than once.
	OnInvalidate(fn func()) (cancel func())
}
