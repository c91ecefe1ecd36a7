// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package surface provides drawing surface abstractions for glcontext.
//
// Surface is the window system side of the context boundary: a pixel
// target owned by the platform layer that a rendering context can bind
// as texture storage. The context layer never creates window surfaces
// itself; it validates and consumes surfaces handed across the boundary.
//
// # Surface Types
//
//   - Pbuffer: an off-screen surface backed by CPU pixel storage. It is
//     the reference implementation used by tests and tools.
//   - Platform layers provide their own implementations (window, pixmap)
//     by satisfying the Surface interface.
//
// # Optional Capabilities
//
// Implementations advertise extra capabilities through optional
// interfaces:
//
//   - ResizableSurface: surfaces whose storage can be reallocated.
//   - NotifyingSurface: surfaces that announce invalidation (resize or
//     destruction) to registered handlers. Contexts use this to drop
//     texture bindings before the storage disappears.
//
// # Usage
//
//	s, err := surface.NewPbuffer(256, 256, pixbuf.FormatRGBA8)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer s.Close()
//
//	// Hand s to a rendering context for BindTexImage.
package surface
