// Package pixbuf provides CPU-side pixel buffer management for glcontext.
//
// Buffers back texture levels, pbuffer surfaces, and shared image snapshots.
// The package supports the small set of uncompressed formats the context
// layer exposes and keeps the byte math for rows and whole images in one
// place.
package pixbuf

import "github.com/gogpu/gputypes"

// Format represents a pixel storage format.
type Format uint8

const (
	// FormatR8 is 8-bit single channel (1 byte per pixel).
	// Used for alpha and luminance style textures.
	FormatR8 Format = iota

	// FormatRGB8 is 24-bit RGB (3 bytes per pixel, no alpha).
	FormatRGB8

	// FormatRGBA8 is 32-bit RGBA (4 bytes per pixel).
	// This is the standard format for most operations.
	FormatRGBA8

	// FormatBGRA8 is 32-bit BGRA (4 bytes per pixel).
	// Common for window system surfaces and some GPU swapchains.
	FormatBGRA8

	// formatCount is the number of formats (for internal use).
	formatCount
)

// FormatInfo contains metadata about a pixel format.
type FormatInfo struct {
	// BytesPerPixel is the number of bytes per pixel.
	BytesPerPixel int

	// Channels is the number of color channels.
	Channels int

	// HasAlpha indicates if the format has an alpha channel.
	HasAlpha bool
}

// formatInfoTable contains metadata for each format.
var formatInfoTable = [formatCount]FormatInfo{
	FormatR8: {
		BytesPerPixel: 1,
		Channels:      1,
		HasAlpha:      false,
	},
	FormatRGB8: {
		BytesPerPixel: 3,
		Channels:      3,
		HasAlpha:      false,
	},
	FormatRGBA8: {
		BytesPerPixel: 4,
		Channels:      4,
		HasAlpha:      true,
	},
	FormatBGRA8: {
		BytesPerPixel: 4,
		Channels:      4,
		HasAlpha:      true,
	},
}

// Info returns the FormatInfo for this format.
func (f Format) Info() FormatInfo {
	if f >= formatCount {
		return FormatInfo{}
	}
	return formatInfoTable[f]
}

// BytesPerPixel returns the number of bytes per pixel for this format.
func (f Format) BytesPerPixel() int {
	return f.Info().BytesPerPixel
}

// Channels returns the number of color channels.
func (f Format) Channels() int {
	return f.Info().Channels
}

// HasAlpha returns true if this format has an alpha channel.
func (f Format) HasAlpha() bool {
	return f.Info().HasAlpha
}

// String returns a string representation of the format.
func (f Format) String() string {
	switch f {
	case FormatR8:
		return "R8"
	case FormatRGB8:
		return "RGB8"
	case FormatRGBA8:
		return "RGBA8"
	case FormatBGRA8:
		return "BGRA8"
	default:
		return "Unknown"
	}
}

// IsValid returns true if the format is a valid known format.
func (f Format) IsValid() bool {
	return f < formatCount
}

// RowBytes calculates the number of bytes needed for a row of the given width.
func (f Format) RowBytes(width int) int {
	return width * f.BytesPerPixel()
}

// ImageBytes calculates the total number of bytes needed for an image.
func (f Format) ImageBytes(width, height int) int {
	return f.RowBytes(width) * height
}

// GPUFormat returns the wgpu texture format corresponding to this format.
// The second result is false for formats with no direct GPU equivalent
// (RGB8 has no packed 24-bit texture format on modern backends).
func (f Format) GPUFormat() (gputypes.TextureFormat, bool) {
	switch f {
	case FormatR8:
		return gputypes.TextureFormatR8Unorm, true
	case FormatRGBA8:
		return gputypes.TextureFormatRGBA8Unorm, true
	case FormatBGRA8:
		return gputypes.TextureFormatBGRA8Unorm, true
	default:
		return gputypes.TextureFormatRGBA8Unorm, false
	}
}

// FromGPUFormat returns the pixbuf format corresponding to a wgpu texture
// format. The second result is false for unsupported GPU formats.
func FromGPUFormat(gf gputypes.TextureFormat) (Format, bool) {
	switch gf {
	case gputypes.TextureFormatR8Unorm:
		return FormatR8, true
	case gputypes.TextureFormatRGBA8Unorm:
		return FormatRGBA8, true
	case gputypes.TextureFormatBGRA8Unorm:
		return FormatBGRA8, true
	default:
		return FormatRGBA8, false
	}
}

// ParseFormat parses a format name such as "rgba8" or "BGRA8".
// The second result is false if the name is not recognized.
func ParseFormat(name string) (Format, bool) {
	switch name {
	case "r8", "R8":
		return FormatR8, true
	case "rgb8", "RGB8":
		return FormatRGB8, true
	case "rgba8", "RGBA8":
		return FormatRGBA8, true
	case "bgra8", "BGRA8":
		return FormatBGRA8, true
	default:
		return FormatRGBA8, false
	}
}
