package pixbuf

import (
	"errors"
	"image"
)

// Common errors for buffer operations.
var (
	// ErrInvalidDimensions is returned when width or height is non-positive.
	ErrInvalidDimensions = errors.New("pixbuf: invalid dimensions")

	// ErrInvalidFormat is returned when the format is not recognized.
	ErrInvalidFormat = errors.New("pixbuf: invalid format")

	// ErrInvalidStride is returned when stride is less than minimum required.
	ErrInvalidStride = errors.New("pixbuf: stride too small for width")

	// ErrDataTooSmall is returned when provided data is smaller than required.
	ErrDataTooSmall = errors.New("pixbuf: data buffer too small")

	// ErrOutOfBounds is returned when coordinates are outside buffer bounds.
	ErrOutOfBounds = errors.New("pixbuf: coordinates out of bounds")

	// ErrSizeMismatch is returned when two buffers disagree on dimensions
	// or format.
	ErrSizeMismatch = errors.New("pixbuf: buffer size or format mismatch")
)

// Buffer is a pixel buffer with a contiguous byte slice and row stride.
//
// Thread safety: Buffer is safe for concurrent read access. Write operations
// require external synchronization.
type Buffer struct {
	data   []byte
	width  int
	height int
	stride int
	format Format
}

// New creates a new buffer with the given dimensions and format.
// Returns an error if dimensions are invalid or format is unknown.
func New(width, height int, format Format) (*Buffer, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrInvalidDimensions
	}
	if !format.IsValid() {
		return nil, ErrInvalidFormat
	}

	stride := format.RowBytes(width)
	data := make([]byte, stride*height)

	return &Buffer{
		data:   data,
		width:  width,
		height: height,
		stride: stride,
		format: format,
	}, nil
}

// FromRaw creates a Buffer from existing data without copying.
// The caller must ensure data remains valid for the lifetime of the Buffer.
// Stride must be at least format.RowBytes(width).
func FromRaw(data []byte, width, height int, format Format, stride int) (*Buffer, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrInvalidDimensions
	}
	if !format.IsValid() {
		return nil, ErrInvalidFormat
	}

	minStride := format.RowBytes(width)
	if stride < minStride {
		return nil, ErrInvalidStride
	}

	requiredSize := stride * height
	if len(data) < requiredSize {
		return nil, ErrDataTooSmall
	}

	return &Buffer{
		data:   data[:requiredSize],
		width:  width,
		height: height,
		stride: stride,
		format: format,
	}, nil
}

// Clone creates a deep copy of the buffer.
func (b *Buffer) Clone() *Buffer {
	newData := make([]byte, len(b.data))
	copy(newData, b.data)

	return &Buffer{
		data:   newData,
		width:  b.width,
		height: b.height,
		stride: b.stride,
		format: b.format,
	}
}

// CopyInto copies the pixel contents of b into dst.
// Both buffers must agree on dimensions and format; strides may differ.
func (b *Buffer) CopyInto(dst *Buffer) error {
	if dst == nil {
		return ErrDataTooSmall
	}
	if dst.width != b.width || dst.height != b.height || dst.format != b.format {
		return ErrSizeMismatch
	}
	rowLen := b.format.RowBytes(b.width)
	for y := range b.height {
		copy(dst.data[y*dst.stride:y*dst.stride+rowLen], b.data[y*b.stride:y*b.stride+rowLen])
	}
	return nil
}

// Width returns the buffer width in pixels.
func (b *Buffer) Width() int {
	return b.width
}

// Height returns the buffer height in pixels.
func (b *Buffer) Height() int {
	return b.height
}

// Stride returns the number of bytes per row (including padding).
func (b *Buffer) Stride() int {
	return b.stride
}

// Format returns the pixel format.
func (b *Buffer) Format() Format {
	return b.format
}

// Bounds returns the buffer dimensions as (width, height).
func (b *Buffer) Bounds() (int, int) {
	return b.width, b.height
}

// Data returns the raw pixel data slice.
// Modifying this data will affect the buffer.
func (b *Buffer) Data() []byte {
	return b.data
}

// RowBytes returns a slice of the pixel data for row y.
// Returns nil if y is out of bounds.
func (b *Buffer) RowBytes(y int) []byte {
	if y < 0 || y >= b.height {
		return nil
	}
	start := y * b.stride
	end := start + b.format.RowBytes(b.width)
	return b.data[start:end]
}

// PixelOffset returns the byte offset of pixel (x, y) in the data slice.
// Returns -1 if coordinates are out of bounds.
func (b *Buffer) PixelOffset(x, y int) int {
	if x < 0 || x >= b.width || y < 0 || y >= b.height {
		return -1
	}
	return y*b.stride + x*b.format.BytesPerPixel()
}

// PixelBytes returns a slice of the raw bytes for pixel (x, y).
// Returns nil if coordinates are out of bounds.
func (b *Buffer) PixelBytes(x, y int) []byte {
	offset := b.PixelOffset(x, y)
	if offset < 0 {
		return nil
	}
	bpp := b.format.BytesPerPixel()
	return b.data[offset : offset+bpp]
}

// SetPixelBytes sets the raw bytes for pixel (x, y).
// Returns ErrOutOfBounds if coordinates are outside buffer bounds.
func (b *Buffer) SetPixelBytes(x, y int, pixel []byte) error {
	offset := b.PixelOffset(x, y)
	if offset < 0 {
		return ErrOutOfBounds
	}
	bpp := b.format.BytesPerPixel()
	copy(b.data[offset:offset+bpp], pixel)
	return nil
}

// GetRGBA returns the color at (x, y) as (r, g, b, a) in 0-255 range.
// For single channel formats, r=g=b=value and a=255.
// For formats without alpha, a=255.
// Returns (0,0,0,0) if coordinates are out of bounds.
func (b *Buffer) GetRGBA(x, y int) (r, g, bl, a uint8) {
	pixel := b.PixelBytes(x, y)
	if pixel == nil {
		return 0, 0, 0, 0
	}

	switch b.format {
	case FormatR8:
		v := pixel[0]
		return v, v, v, 255
	case FormatRGB8:
		return pixel[0], pixel[1], pixel[2], 255
	case FormatRGBA8:
		return pixel[0], pixel[1], pixel[2], pixel[3]
	case FormatBGRA8:
		return pixel[2], pixel[1], pixel[0], pixel[3]
	default:
		return 0, 0, 0, 0
	}
}

// SetRGBA sets the color at (x, y) from (r, g, b, a) in 0-255 range.
// For single channel formats, uses standard luminance weights.
// Returns ErrOutOfBounds if coordinates are outside buffer bounds.
func (b *Buffer) SetRGBA(x, y int, r, g, bl, a uint8) error {
	offset := b.PixelOffset(x, y)
	if offset < 0 {
		return ErrOutOfBounds
	}

	switch b.format {
	case FormatR8:
		// Standard luminance: 0.299*R + 0.587*G + 0.114*B
		gray := (int(r)*299 + int(g)*587 + int(bl)*114) / 1000
		b.data[offset] = byte(gray)
	case FormatRGB8:
		b.data[offset] = r
		b.data[offset+1] = g
		b.data[offset+2] = bl
	case FormatRGBA8:
		b.data[offset] = r
		b.data[offset+1] = g
		b.data[offset+2] = bl
		b.data[offset+3] = a
	case FormatBGRA8:
		b.data[offset] = bl
		b.data[offset+1] = g
		b.data[offset+2] = r
		b.data[offset+3] = a
	}

	return nil
}

// WriteRect copies tightly packed pixel rows from src into the rectangle
// (x, y, w, h). src must hold at least format.ImageBytes(w, h) bytes.
// Returns ErrOutOfBounds if the rectangle does not lie within the buffer.
func (b *Buffer) WriteRect(x, y, w, h int, src []byte) error {
	if w <= 0 || h <= 0 {
		return ErrInvalidDimensions
	}
	if x < 0 || y < 0 || x+w > b.width || y+h > b.height {
		return ErrOutOfBounds
	}
	rowLen := b.format.RowBytes(w)
	if len(src) < rowLen*h {
		return ErrDataTooSmall
	}

	bpp := b.format.BytesPerPixel()
	for row := range h {
		dstOff := (y+row)*b.stride + x*bpp
		copy(b.data[dstOff:dstOff+rowLen], src[row*rowLen:(row+1)*rowLen])
	}
	return nil
}

// ReadRect copies the rectangle (x, y, w, h) into dst as tightly packed
// rows. dst must hold at least format.ImageBytes(w, h) bytes.
// Returns ErrOutOfBounds if the rectangle does not lie within the buffer.
func (b *Buffer) ReadRect(x, y, w, h int, dst []byte) error {
	if w <= 0 || h <= 0 {
		return ErrInvalidDimensions
	}
	if x < 0 || y < 0 || x+w > b.width || y+h > b.height {
		return ErrOutOfBounds
	}
	rowLen := b.format.RowBytes(w)
	if len(dst) < rowLen*h {
		return ErrDataTooSmall
	}

	bpp := b.format.BytesPerPixel()
	for row := range h {
		srcOff := (y+row)*b.stride + x*bpp
		copy(dst[row*rowLen:(row+1)*rowLen], b.data[srcOff:srcOff+rowLen])
	}
	return nil
}

// Clear sets all pixels to zero (transparent black for RGBA formats).
func (b *Buffer) Clear() {
	clear(b.data)
}

// Fill sets all pixels to the given RGBA color.
func (b *Buffer) Fill(r, g, bl, a uint8) {
	for y := range b.height {
		for x := range b.width {
			_ = b.SetRGBA(x, y, r, g, bl, a)
		}
	}
}

// ToRGBA converts the buffer to a standard library RGBA image.
// The result is always a copy; the buffer is left untouched.
func (b *Buffer) ToRGBA() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, b.width, b.height))
	if b.format == FormatRGBA8 && b.stride == b.format.RowBytes(b.width) {
		copy(img.Pix, b.data)
		return img
	}
	for y := range b.height {
		for x := range b.width {
			r, g, bl, a := b.GetRGBA(x, y)
			off := img.PixOffset(x, y)
			img.Pix[off] = r
			img.Pix[off+1] = g
			img.Pix[off+2] = bl
			img.Pix[off+3] = a
		}
	}
	return img
}

// ByteSize returns the total size of the pixel data in bytes.
func (b *Buffer) ByteSize() int {
	return len(b.data)
}

// IsEmpty returns true if the buffer has zero dimensions.
func (b *Buffer) IsEmpty() bool {
	return b.width == 0 || b.height == 0
}
