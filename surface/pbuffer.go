// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package surface

import (
	"errors"

	"github.com/gogpu/glcontext/pixbuf"
)

// ErrSurfaceClosed is returned when operating on a closed surface.
var ErrSurfaceClosed = errors.New("surface: surface closed")

// Pbuffer is an off-screen surface backed by CPU pixel storage.
//
// It implements Surface, ResizableSurface and NotifyingSurface and is
// the reference surface for binding texture storage without a window
// system.
//
// Example:
//
//	s, _ := surface.NewPbuffer(256, 256, pixbuf.FormatRGBA8)
//	defer s.Close()
//
//	s.WritePixels(0, 0, 256, 256, pixels)
type Pbuffer struct {
	width  int
	height int
	format pixbuf.Format
	buf    *pixbuf.Buffer

	// invalidation handlers keyed by registration order
	handlers   map[uint64]func()
	nextHandle uint64

	// closed tracks if Close has been called
	closed bool
}

// NewPbuffer creates an off-screen surface with the given dimensions and
// format. Dimensions must be positive and the format must be valid.
func NewPbuffer(width, height int, format pixbuf.Format) (*Pbuffer, error) {
	buf, err := pixbuf.New(width, height, format)
	if err != nil {
		return nil, err
	}

	return &Pbuffer{
		width:    width,
		height:   height,
		format:   format,
		buf:      buf,
		handlers: make(map[uint64]func()),
	}, nil
}

// Width returns the surface width.
func (p *Pbuffer) Width() int {
	return p.width
}

// Height returns the surface height.
func (p *Pbuffer) Height() int {
	return p.height
}

// Format returns the surface pixel format.
func (p *Pbuffer) Format() pixbuf.Format {
	return p.format
}

// BackingBuffer returns the current pixel storage, or nil once closed.
func (p *Pbuffer) BackingBuffer() *pixbuf.Buffer {
	if p.closed {
		return nil
	}
	return p.buf
}

// Valid reports whether the surface is usable.
func (p *Pbuffer) Valid() bool {
	return !p.closed
}

// WritePixels writes tightly packed pixel rows into the rectangle
// (x, y, w, h). This stands in for rendering into the surface.
func (p *Pbuffer) WritePixels(x, y, w, h int, pix []byte) error {
	if p.closed {
		return ErrSurfaceClosed
	}
	return p.buf.WriteRect(x, y, w, h, pix)
}

// Fill sets every pixel of the surface to the given color.
func (p *Pbuffer) Fill(r, g, b, a uint8) error {
	if p.closed {
		return ErrSurfaceClosed
	}
	p.buf.Fill(r, g, b, a)
	return nil
}

// Resize replaces the pixel storage with a fresh buffer of the new
// dimensions. Registered invalidation handlers fire before the old
// storage is dropped; existing content is discarded.
func (p *Pbuffer) Resize(width, height int) error {
	if p.closed {
		return ErrSurfaceClosed
	}

	buf, err := pixbuf.New(width, height, p.format)
	if err != nil {
		return err
	}

	p.fireInvalidate()
	p.width = width
	p.height = height
	p.buf = buf
	return nil
}

// OnInvalidate registers a handler called when the surface storage is
// invalidated by Resize or Close. The returned cancel function removes
// the handler and is safe to call more than once.
func (p *Pbuffer) OnInvalidate(fn func()) (cancel func()) {
	if p.closed || fn == nil {
		return func() {}
	}

	p.nextHandle++
	id := p.nextHandle
	p.handlers[id] = fn

	return func() {
		delete(p.handlers, id)
	}
}

// fireInvalidate runs every registered handler. Handlers that deregister
// themselves while running are tolerated.
func (p *Pbuffer) fireInvalidate() {
	fns := make([]func(), 0, len(p.handlers))
	for _, fn := range p.handlers {
		fns = append(fns, fn)
	}
	for _, fn := range fns {
		fn()
	}
}

// Close invalidates and releases the surface.
// Close is idempotent; multiple calls are safe.
func (p *Pbuffer) Close() error {
	if p.closed {
		return nil
	}

	p.fireInvalidate()
	p.closed = true
	p.buf = nil
	p.handlers = nil
	return nil
}

// Compile-time interface checks.
var _ Surface = (*Pbuffer)(nil)
var _ ResizableSurface = (*Pbuffer)(nil)
var _ NotifyingSurface = (*Pbuffer)(nil)
