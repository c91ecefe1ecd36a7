package glcontext

import (
	"fmt"

	"github.com/gogpu/glcontext/pixbuf"
)

// SoftwareDriver keeps all texture level storage in CPU memory.
//
// It is the always-available fallback driver and the reference for
// driver semantics. Released level buffers are recycled through a pool
// keyed by size and format.
type SoftwareDriver struct {
	maxSize int
	pool    *pixbuf.Pool
}

// NewSoftwareDriver creates a software driver for the given profile.
func NewSoftwareDriver(p Profile) *SoftwareDriver {
	return &SoftwareDriver{
		maxSize: p.MaxTextureSize,
		pool:    pixbuf.NewPool(8),
	}
}

// Name returns "software".
func (d *SoftwareDriver) Name() string {
	return "software"
}

// CreateLevelStorage allocates a CPU buffer for one texture level.
func (d *SoftwareDriver) CreateLevelStorage(width, height int, format pixbuf.Format) (LevelStorage, error) {
	if width <= 0 || height <= 0 || width > d.maxSize || height > d.maxSize {
		return nil, fmt.Errorf("glcontext: software level %dx%d out of range: %w",
			width, height, pixbuf.ErrInvalidDimensions)
	}

	buf := d.pool.Get(width, height, format)
	if buf == nil {
		return nil, pixbuf.ErrInvalidFormat
	}

	Logger().Debug("software level storage created",
		"width", width, "height", height, "format", format.String())

	return &softwareLevelStorage{driver: d, buf: buf}, nil
}

// Close releases the driver. Pooled buffers are left to the GC.
func (d *SoftwareDriver) Close() error {
	return nil
}

// softwareLevelStorage is a CPU pixel buffer behind the LevelStorage
// interface.
type softwareLevelStorage struct {
	driver   *SoftwareDriver
	buf      *pixbuf.Buffer
	released bool
}

// Buffer returns the level pixels.
func (s *softwareLevelStorage) Buffer() *pixbuf.Buffer {
	return s.buf
}

// Upload writes tightly packed pixels into the rectangle.
func (s *softwareLevelStorage) Upload(x, y, w, h int, pix []byte) error {
	if s.released {
		return ErrStorageReleased
	}
	return s.buf.WriteRect(x, y, w, h, pix)
}

// Release returns the buffer to the driver pool.
func (s *softwareLevelStorage) Release() {
	if s.released {
		return
	}
	s.released = true
	s.driver.pool.Put(s.buf)
	s.buf = nil
}

// Compile-time interface checks.
var _ Driver = (*SoftwareDriver)(nil)
var _ LevelStorage = (*softwareLevelStorage)(nil)

// init registers the built-in software driver.
func init() {
	RegisterDriver("software", 10, func(p Profile) (Driver, error) {
		return NewSoftwareDriver(p), nil
	}, nil)
}
