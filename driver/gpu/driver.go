// Package gpu provides texture level storage backed by a GoGPU device.
//
// Every level keeps a CPU shadow of its pixels next to the logical
// device texture, so context readbacks and shared image snapshots are
// served without stalling the device queue. Device textures are tracked
// logically until the wgpu texture path is complete; uploads stop at
// the shadow and the descriptor records what the device allocation will
// look like.
//
// The driver is not registered automatically because it needs a device
// provider. Applications register it once a device exists:
//
//	gpu.Register(provider)
//	ctx, err := glcontext.New(glcontext.WithDriverName(gpu.DriverName))
package gpu

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/gogpu/glcontext"
	"github.com/gogpu/glcontext/pixbuf"
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
)

// DriverName is the registry name of the device driver.
const DriverName = "gpu"

// DriverPriority places the device driver above the software fallback.
const DriverPriority = 100

// DefaultLevelUsage is the usage every level texture is created with.
// Levels are copy sources for snapshots, copy destinations for uploads,
// and sampleable from shaders.
const DefaultLevelUsage = gputypes.TextureUsageCopySrc |
	gputypes.TextureUsageCopyDst |
	gputypes.TextureUsageTextureBinding

// Errors.
var (
	// ErrNilProvider is returned when a nil DeviceProvider is passed.
	ErrNilProvider = errors.New("gpu: nil device provider")

	// ErrDriverClosed is returned when allocating from a closed driver.
	ErrDriverClosed = errors.New("gpu: driver closed")

	// ErrUnsupportedFormat is returned for pixel formats with no device
	// texture equivalent.
	ErrUnsupportedFormat = errors.New("gpu: format has no device equivalent")
)

// Driver allocates texture level storage on a GoGPU device.
//
// The driver borrows its DeviceProvider and never destroys the device;
// the application owns the device lifecycle. Closing the driver only
// stops further allocations.
type Driver struct {
	provider      gpucontext.DeviceProvider
	surfaceFormat pixbuf.Format
	maxSize       int
	nextID        atomic.Uint64
	live          atomic.Int64
	closed        atomic.Bool
}

// New creates a device driver for the given profile.
//
// The provider's surface format determines the driver's preferred pixel
// format. Unknown surface formats fall back to RGBA8.
func New(provider gpucontext.DeviceProvider, p glcontext.Profile) (*Driver, error) {
	if provider == nil {
		return nil, ErrNilProvider
	}

	format, ok := pixbuf.FromGPUFormat(provider.SurfaceFormat())
	if !ok {
		format = pixbuf.FormatRGBA8
	}

	d := &Driver{
		provider:      provider,
		surfaceFormat: format,
		maxSize:       p.MaxTextureSize,
	}
	d.nextID.Store(1)

	glcontext.Logger().Debug("gpu driver created",
		"surface_format", format.String(), "max_size", p.MaxTextureSize)

	return d, nil
}

// Name returns "gpu".
func (d *Driver) Name() string {
	return DriverName
}

// SurfaceFormat returns the pixel format matching the provider's
// presentation surface. Textures in this format avoid a conversion on
// composition.
func (d *Driver) SurfaceFormat() pixbuf.Format {
	return d.surfaceFormat
}

// Provider returns the device provider the driver was created with.
func (d *Driver) Provider() gpucontext.DeviceProvider {
	return d.provider
}

// LiveStorage returns the number of level storages not yet released.
func (d *Driver) LiveStorage() int {
	return int(d.live.Load())
}

// CreateLevelStorage allocates one texture level on the device with a
// CPU shadow.
func (d *Driver) CreateLevelStorage(width, height int, format pixbuf.Format) (glcontext.LevelStorage, error) {
	if d.closed.Load() {
		return nil, ErrDriverClosed
	}
	if width <= 0 || height <= 0 || width > d.maxSize || height > d.maxSize {
		return nil, fmt.Errorf("gpu: level %dx%d out of range: %w",
			width, height, pixbuf.ErrInvalidDimensions)
	}

	deviceFormat, ok := format.GPUFormat()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}

	shadow, err := pixbuf.New(width, height, format)
	if err != nil {
		return nil, err
	}

	label := fmt.Sprintf("glctx-level-%d", d.nextID.Add(1)-1)

	// TODO: create the device texture through core once the wgpu texture
	// path is complete. Until then textureID and viewID stay zero and the
	// level is logical.
	s := &deviceStorage{
		driver: d,
		label:  label,
		desc:   levelDescriptor(label, width, height, deviceFormat),
		shadow: shadow,
	}
	d.live.Add(1)

	glcontext.Logger().Debug("gpu level storage created",
		"label", label, "width", width, "height", height,
		"format", format.String())

	return s, nil
}

// Flush polls the device so queued work makes progress. With wait set
// it blocks until the queue is idle.
func (d *Driver) Flush(wait bool) {
	if d.closed.Load() {
		return
	}
	d.provider.Device().Poll(wait)
}

// Close stops further allocations. The device itself is left to its
// owner. Close is idempotent.
func (d *Driver) Close() error {
	if d.closed.Swap(true) {
		return nil
	}
	if n := d.live.Load(); n > 0 {
		glcontext.Logger().Warn("gpu driver closed with live level storage",
			"count", n)
	}
	return nil
}

// levelDescriptor describes the device texture for one level.
func levelDescriptor(label string, width, height int, format gputypes.TextureFormat) gputypes.TextureDescriptor {
	return gputypes.TextureDescriptor{
		Label: label,
		Size: gputypes.Extent3D{
			Width:              uint32(width),
			Height:             uint32(height),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        format,
		Usage:         DefaultLevelUsage,
	}
}

// Register puts the device driver into the global registry at GPU
// priority. Contexts created afterwards prefer it over the software
// fallback. Registering a nil provider leaves the entry unavailable.
func Register(provider gpucontext.DeviceProvider) {
	glcontext.RegisterDriver(DriverName, DriverPriority,
		func(p glcontext.Profile) (glcontext.Driver, error) {
			return New(provider, p)
		},
		func() bool { return provider != nil })
}

// Compile-time interface check.
var _ glcontext.Driver = (*Driver)(nil)
