package pixbuf

import (
	"image"
	"math"

	"golang.org/x/image/draw"
)

// MipLevelCount returns the number of mip levels for a base image of the
// given size, counting level 0. The chain ends when the largest dimension
// reaches 1 pixel. Returns 0 for non-positive dimensions.
func MipLevelCount(width, height int) int {
	if width <= 0 || height <= 0 {
		return 0
	}
	maxDim := max(width, height)
	return 1 + int(math.Floor(math.Log2(float64(maxDim))))
}

// MipSize returns the dimensions of the given mip level for a base image
// of the given size. Level 0 is the base size; each level halves both
// dimensions, clamping at 1 pixel.
func MipSize(width, height, level int) (int, int) {
	for range level {
		width = max(1, width/2)
		height = max(1, height/2)
	}
	return width, height
}

// NextMip creates a half-size version of src, the next level in a mip
// chain. RGBA8 buffers are resampled with a bilinear kernel; other formats
// use a 2x2 box filter.
func NextMip(src *Buffer) (*Buffer, error) {
	srcW, srcH := src.Bounds()
	dstW := max(1, srcW/2)
	dstH := max(1, srcH/2)

	dst, err := New(dstW, dstH, src.Format())
	if err != nil {
		return nil, err
	}

	if src.Format() == FormatRGBA8 {
		dv, sv := rgbaView(dst), rgbaView(src)
		draw.BiLinear.Scale(dv, dv.Bounds(), sv, sv.Bounds(), draw.Src, nil)
		return dst, nil
	}

	// Box filter: average 2x2 pixels into 1
	for dy := range dstH {
		for dx := range dstW {
			sx := dx * 2
			sy := dy * 2

			// Sample 2x2 region (handle odd dimensions)
			r0, g0, b0, a0 := src.GetRGBA(sx, sy)
			r1, g1, b1, a1 := src.GetRGBA(min(sx+1, srcW-1), sy)
			r2, g2, b2, a2 := src.GetRGBA(sx, min(sy+1, srcH-1))
			r3, g3, b3, a3 := src.GetRGBA(min(sx+1, srcW-1), min(sy+1, srcH-1))

			// Average the 4 pixels
			r := (uint16(r0) + uint16(r1) + uint16(r2) + uint16(r3)) / 4
			g := (uint16(g0) + uint16(g1) + uint16(g2) + uint16(g3)) / 4
			b := (uint16(b0) + uint16(b1) + uint16(b2) + uint16(b3)) / 4
			a := (uint16(a0) + uint16(a1) + uint16(a2) + uint16(a3)) / 4

			_ = dst.SetRGBA(dx, dy, byte(r), byte(g), byte(b), byte(a))
		}
	}

	return dst, nil
}

// rgbaView wraps an RGBA8 buffer as a standard library image without
// copying. The view shares the buffer's pixel storage.
func rgbaView(b *Buffer) *image.RGBA {
	return &image.RGBA{
		Pix:    b.data,
		Stride: b.stride,
		Rect:   image.Rect(0, 0, b.width, b.height),
	}
}
