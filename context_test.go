package glcontext

import (
	"errors"
	"sync"
	"testing"

	"github.com/gogpu/glcontext/imagestore"
	"github.com/gogpu/glcontext/pixbuf"
	"github.com/gogpu/glcontext/surface"
)

// newTestContext creates a context and destroys it at cleanup.
func newTestContext(t *testing.T, opts ...Option) *Context {
	t.Helper()
	ctx, err := New(opts...)
	if err != nil {
		t.Fatalf("New() = %v", err)
	}
	t.Cleanup(func() { ctx.Destroy() })
	return ctx
}

// solidPixels returns w*h tightly packed RGBA bytes of one color.
func solidPixels(w, h int, r, g, b, a uint8) []byte {
	pix := make([]byte, w*h*4)
	for i := 0; i < len(pix); i += 4 {
		pix[i], pix[i+1], pix[i+2], pix[i+3] = r, g, b, a
	}
	return pix
}

// levelPixel reads one pixel of a texture level through a shared image.
func levelPixel(t *testing.T, ctx *Context, target Target, name uint32, level, x, y int) (r, g, b, a uint8) {
	t.Helper()
	img, err := ctx.CreateSharedImage(target, name, level)
	if err != nil {
		t.Fatalf("CreateSharedImage(%v, %d, %d) = %v", target, name, level, err)
	}
	defer img.Release()
	buf, err := img.Clone()
	if err != nil {
		t.Fatalf("Clone() = %v", err)
	}
	return buf.GetRGBA(x, y)
}

// makeTexture creates a 2D texture with a solid level 0.
func makeTexture(t *testing.T, ctx *Context, name uint32, size int, r, g, b, a uint8) {
	t.Helper()
	if err := ctx.CreateTexture(Target2D, name); err != nil {
		t.Fatalf("CreateTexture(2D, %d) = %v", name, err)
	}
	pix := solidPixels(size, size, r, g, b, a)
	if err := ctx.TexImage(Target2D, name, 0, pixbuf.FormatRGBA8, size, size, pix); err != nil {
		t.Fatalf("TexImage(2D, %d, 0) = %v", name, err)
	}
}

func TestNew(t *testing.T) {
	ctx := newTestContext(t)
	if ctx.ID() == 0 {
		t.Error("ID() = 0, want nonzero")
	}
	if got := ctx.Profile().Name; got != "es2" {
		t.Errorf("Profile().Name = %q, want es2", got)
	}
	if got := ctx.Driver().Name(); got != "software" {
		t.Errorf("Driver().Name() = %q, want software", got)
	}
	if ctx.ShareGroup() == nil {
		t.Error("ShareGroup() = nil, want private group")
	}
	if ctx.Destroyed() {
		t.Error("Destroyed() = true for a fresh context")
	}
}

// TestNewWithOptions tests profile, named driver and group injection.
func TestNewWithOptions(t *testing.T) {
	group := NewShareGroup()
	defer group.Close()

	ctx := newTestContext(t,
		WithProfile(Profile2D()),
		WithDriverName("software"),
		WithShareGroup(group),
	)
	if got := ctx.Profile().Name; got != "2d" {
		t.Errorf("Profile().Name = %q, want 2d", got)
	}
	if ctx.ShareGroup() != group {
		t.Error("ShareGroup() did not return the injected group")
	}

	if err := ctx.Destroy(); err != nil {
		t.Fatalf("Destroy() = %v", err)
	}
	// Injected groups stay open after the context goes away.
	if got := group.Stats().ImageCount; got != 0 {
		t.Errorf("group ImageCount = %d, want 0", got)
	}
	if _, err := group.Store().Acquire(imagestore.Snapshot{}); errors.Is(err, imagestore.ErrStoreClosed) {
		t.Error("injected group store was closed by Destroy")
	}
}

func TestNewInvalidProfile(t *testing.T) {
	_, err := New(WithProfile(Profile{Name: "broken", MaxTextureSize: 1}))
	if !errors.Is(err, ErrInvalidProfile) {
		t.Errorf("New() = %v, want ErrInvalidProfile", err)
	}
}

func TestNewUnknownDriver(t *testing.T) {
	var notFound *DriverNotFoundError
	_, err := New(WithDriverName("ghost"))
	if !errors.As(err, &notFound) {
		t.Errorf("New() = %v, want DriverNotFoundError", err)
	}
}

// TestNewWithInjectedDriver tests that injected drivers are used but
// never owned.
func TestNewWithInjectedDriver(t *testing.T) {
	d := &mockDriver{name: "mock"}
	ctx := newTestContext(t, WithDriver(d))
	if ctx.Driver() != Driver(d) {
		t.Fatal("Driver() did not return the injected driver")
	}

	makeTexture(t, ctx, 7, 16, 255, 0, 0, 255)
	if d.live == 0 {
		t.Error("injected driver created no storage")
	}

	if err := ctx.Destroy(); err != nil {
		t.Fatalf("Destroy() = %v", err)
	}
	if d.live != 0 {
		t.Errorf("live storages after Destroy = %d, want 0", d.live)
	}
	if d.closed {
		t.Error("Destroy closed an injected driver")
	}
}

// TestDestroy tests that every operation fails on a destroyed context.
func TestDestroy(t *testing.T) {
	ctx := newTestContext(t)
	makeTexture(t, ctx, 7, 16, 255, 0, 0, 255)

	if err := ctx.Destroy(); err != nil {
		t.Fatalf("Destroy() = %v", err)
	}
	if !ctx.Destroyed() {
		t.Error("Destroyed() = false after Destroy")
	}
	if err := ctx.Destroy(); !errors.Is(err, ErrContextDestroyed) {
		t.Errorf("second Destroy() = %v, want ErrContextDestroyed", err)
	}

	pb, err := surface.NewPbuffer(16, 16, pixbuf.FormatRGBA8)
	if err != nil {
		t.Fatalf("NewPbuffer() = %v", err)
	}
	defer pb.Close()

	ops := []struct {
		name string
		op   func() error
	}{
		{"CreateTexture", func() error { return ctx.CreateTexture(Target2D, 8) }},
		{"DeleteTexture", func() error { return ctx.DeleteTexture(Target2D, 7) }},
		{"TexImage", func() error { return ctx.TexImage(Target2D, 7, 0, pixbuf.FormatRGBA8, 4, 4, nil) }},
		{"TexSubImage", func() error { return ctx.TexSubImage(Target2D, 7, 0, 0, 0, 1, 1, []byte{1, 2, 3, 4}) }},
		{"GenerateMipmaps", func() error { return ctx.GenerateMipmaps(Target2D, 7) }},
		{"ActiveTexture", func() error { return ctx.ActiveTexture(0) }},
		{"BindTexture", func() error { return ctx.BindTexture(Target2D, 7) }},
		{"BindTexImage", func() error { return ctx.BindTexImage(pb) }},
		{"ReleaseTexImage", func() error { return ctx.ReleaseTexImage(pb) }},
		{"ImportSharedImage", func() error { return ctx.ImportSharedImage(Target2D, 7, nil) }},
	}
	for _, tt := range ops {
		if err := tt.op(); !errors.Is(err, ErrContextDestroyed) {
			t.Errorf("%s after Destroy = %v, want ErrContextDestroyed", tt.name, err)
		}
	}

	if code := ctx.ValidateSharedImage(Target2D, 7, 0); code != InvalidState {
		t.Errorf("ValidateSharedImage after Destroy = %v, want InvalidState", code)
	}
	if _, err := ctx.CreateSharedImage(Target2D, 7, 0); !errors.Is(err, ErrContextDestroyed) {
		t.Errorf("CreateSharedImage after Destroy = %v, want ErrContextDestroyed", err)
	}
}

// TestCreateTexture tests name allocation rules per namespace.
func TestCreateTexture(t *testing.T) {
	ctx := newTestContext(t)

	if err := ctx.CreateTexture(Target2D, 7); err != nil {
		t.Fatalf("CreateTexture(2D, 7) = %v", err)
	}
	if err := ctx.CreateTexture(Target2D, 7); !errors.Is(err, ErrNameInUse) {
		t.Errorf("duplicate CreateTexture = %v, want ErrNameInUse", err)
	}
	if err := ctx.CreateTexture(Target2D, 0); !errors.Is(err, ErrDefaultTexture) {
		t.Errorf("CreateTexture(2D, 0) = %v, want ErrDefaultTexture", err)
	}
	if err := ctx.CreateTexture(TargetCubePosX, 9); !errors.Is(err, ErrInvalidTarget) {
		t.Errorf("CreateTexture(face, 9) = %v, want ErrInvalidTarget", err)
	}

	// Namespaces are independent: cube name 7 coexists with 2D name 7.
	if err := ctx.CreateTexture(TargetCube, 7); err != nil {
		t.Errorf("CreateTexture(Cube, 7) = %v", err)
	}
	if err := ctx.DeleteTexture(Target2D, 7); err != nil {
		t.Errorf("DeleteTexture(2D, 7) = %v", err)
	}
	if err := ctx.DeleteTexture(TargetCube, 7); err != nil {
		t.Errorf("DeleteTexture(Cube, 7) after 2D delete = %v", err)
	}
}

// TestDeleteTexture tests deletion rules.
func TestDeleteTexture(t *testing.T) {
	ctx := newTestContext(t)

	if err := ctx.DeleteTexture(Target2D, 42); !errors.Is(err, ErrInvalidName) {
		t.Errorf("DeleteTexture(2D, 42) = %v, want ErrInvalidName", err)
	}
	if err := ctx.DeleteTexture(Target2D, 0); !errors.Is(err, ErrDefaultTexture) {
		t.Errorf("DeleteTexture(2D, 0) = %v, want ErrDefaultTexture", err)
	}

	makeTexture(t, ctx, 7, 16, 255, 0, 0, 255)
	if err := ctx.DeleteTexture(Target2D, 7); err != nil {
		t.Fatalf("DeleteTexture(2D, 7) = %v", err)
	}
	if code := ctx.ValidateSharedImage(Target2D, 7, 0); code != InvalidName {
		t.Errorf("ValidateSharedImage after delete = %v, want InvalidName", code)
	}
}

// TestDeleteTextureResetsUnits tests that deleting a bound name drops
// the unit back to the default texture.
func TestDeleteTextureResetsUnits(t *testing.T) {
	ctx := newTestContext(t)
	makeTexture(t, ctx, 7, 16, 255, 0, 0, 255)

	if err := ctx.BindTexture(Target2D, 7); err != nil {
		t.Fatalf("BindTexture() = %v", err)
	}
	if err := ctx.DeleteTexture(Target2D, 7); err != nil {
		t.Fatalf("DeleteTexture() = %v", err)
	}

	// The unit now holds the default texture; binding a surface lands
	// on texture 0.
	pb, err := surface.NewPbuffer(8, 8, pixbuf.FormatRGBA8)
	if err != nil {
		t.Fatalf("NewPbuffer() = %v", err)
	}
	defer pb.Close()
	if err := pb.Fill(0, 255, 0, 255); err != nil {
		t.Fatalf("Fill() = %v", err)
	}
	if err := ctx.BindTexImage(pb); err != nil {
		t.Fatalf("BindTexImage() = %v", err)
	}
	if r, g, _, _ := levelPixel(t, ctx, Target2D, 0, 0, 3, 3); r != 0 || g != 255 {
		t.Errorf("default texture pixel = (%d, %d), want (0, 255)", r, g)
	}
}

// TestTexImage tests level specification rules.
func TestTexImage(t *testing.T) {
	ctx := newTestContext(t)
	if err := ctx.CreateTexture(Target2D, 7); err != nil {
		t.Fatalf("CreateTexture() = %v", err)
	}

	red := solidPixels(16, 16, 255, 0, 0, 255)
	if err := ctx.TexImage(Target2D, 7, 0, pixbuf.FormatRGBA8, 16, 16, red); err != nil {
		t.Fatalf("TexImage() = %v", err)
	}
	if r, _, _, _ := levelPixel(t, ctx, Target2D, 7, 0, 8, 8); r != 255 {
		t.Errorf("level pixel r = %d, want 255", r)
	}

	// The default texture accepts image data.
	if err := ctx.TexImage(Target2D, 0, 0, pixbuf.FormatRGBA8, 8, 8, nil); err != nil {
		t.Errorf("TexImage on default texture = %v", err)
	}
	// nil pixels leave the level zeroed.
	if r, g, b, a := levelPixel(t, ctx, Target2D, 0, 0, 0, 0); r|g|b|a != 0 {
		t.Errorf("zeroed level pixel = (%d,%d,%d,%d), want zeros", r, g, b, a)
	}

	tests := []struct {
		name     string
		op       func() error
		sentinel error
	}{
		{"object target", func() error {
			return ctx.TexImage(TargetCube, 7, 0, pixbuf.FormatRGBA8, 8, 8, nil)
		}, ErrInvalidTarget},
		{"unknown name", func() error {
			return ctx.TexImage(Target2D, 99, 0, pixbuf.FormatRGBA8, 8, 8, nil)
		}, ErrInvalidName},
		{"negative level", func() error {
			return ctx.TexImage(Target2D, 7, -1, pixbuf.FormatRGBA8, 8, 8, nil)
		}, ErrInvalidLevel},
		{"level past range", func() error {
			return ctx.TexImage(Target2D, 7, ctx.Profile().MaxLevels(), pixbuf.FormatRGBA8, 1, 1, nil)
		}, ErrInvalidLevel},
		{"zero width", func() error {
			return ctx.TexImage(Target2D, 7, 0, pixbuf.FormatRGBA8, 0, 8, nil)
		}, pixbuf.ErrInvalidDimensions},
		{"oversize", func() error {
			max := ctx.Profile().MaxTextureSize
			return ctx.TexImage(Target2D, 7, 0, pixbuf.FormatRGBA8, max+1, 8, nil)
		}, pixbuf.ErrInvalidDimensions},
		{"oversize for level", func() error {
			max := ctx.Profile().MaxTextureSize
			return ctx.TexImage(Target2D, 7, 1, pixbuf.FormatRGBA8, max, max, nil)
		}, pixbuf.ErrInvalidDimensions},
		{"short pixels", func() error {
			return ctx.TexImage(Target2D, 7, 0, pixbuf.FormatRGBA8, 8, 8, make([]byte, 16))
		}, pixbuf.ErrDataTooSmall},
	}
	for _, tt := range tests {
		if err := tt.op(); !errors.Is(err, tt.sentinel) {
			t.Errorf("%s: TexImage = %v, want %v", tt.name, err, tt.sentinel)
		}
	}
}

// TestTexImageCubeFace tests cube face specification.
func TestTexImageCubeFace(t *testing.T) {
	ctx := newTestContext(t)
	if err := ctx.CreateTexture(TargetCube, 9); err != nil {
		t.Fatalf("CreateTexture() = %v", err)
	}

	if err := ctx.TexImage(TargetCubePosX, 9, 0, pixbuf.FormatRGBA8, 8, 8, nil); err != nil {
		t.Fatalf("TexImage(face) = %v", err)
	}
	if err := ctx.TexImage(TargetCubeNegX, 9, 0, pixbuf.FormatRGBA8, 8, 4, nil); !errors.Is(err, pixbuf.ErrInvalidDimensions) {
		t.Errorf("non-square face = %v, want ErrInvalidDimensions", err)
	}
}

// TestTexSubImage tests partial updates.
func TestTexSubImage(t *testing.T) {
	ctx := newTestContext(t)
	makeTexture(t, ctx, 7, 16, 255, 0, 0, 255)

	green := solidPixels(4, 4, 0, 255, 0, 255)
	if err := ctx.TexSubImage(Target2D, 7, 0, 2, 2, 4, 4, green); err != nil {
		t.Fatalf("TexSubImage() = %v", err)
	}
	if _, g, _, _ := levelPixel(t, ctx, Target2D, 7, 0, 3, 3); g != 255 {
		t.Errorf("patched pixel g = %d, want 255", g)
	}
	if r, _, _, _ := levelPixel(t, ctx, Target2D, 7, 0, 10, 10); r != 255 {
		t.Errorf("untouched pixel r = %d, want 255", r)
	}

	if err := ctx.TexSubImage(Target2D, 7, 1, 0, 0, 1, 1, green); !errors.Is(err, ErrInvalidLevel) {
		t.Errorf("unspecified level = %v, want ErrInvalidLevel", err)
	}
	if err := ctx.TexSubImage(Target2D, 7, 0, 14, 14, 4, 4, green); !errors.Is(err, pixbuf.ErrOutOfBounds) {
		t.Errorf("out of bounds rect = %v, want ErrOutOfBounds", err)
	}
}

// TestActiveTexture tests unit selection bounds.
func TestActiveTexture(t *testing.T) {
	ctx := newTestContext(t)
	units := ctx.Profile().MaxTextureUnits

	if err := ctx.ActiveTexture(units - 1); err != nil {
		t.Errorf("ActiveTexture(%d) = %v", units-1, err)
	}
	if err := ctx.ActiveTexture(units); !errors.Is(err, ErrInvalidUnit) {
		t.Errorf("ActiveTexture(%d) = %v, want ErrInvalidUnit", units, err)
	}
	if err := ctx.ActiveTexture(-1); !errors.Is(err, ErrInvalidUnit) {
		t.Errorf("ActiveTexture(-1) = %v, want ErrInvalidUnit", err)
	}
}

// TestBindTexture tests unit binding rules.
func TestBindTexture(t *testing.T) {
	ctx := newTestContext(t)

	if err := ctx.BindTexture(Target2D, 0); err != nil {
		t.Errorf("BindTexture(2D, 0) = %v", err)
	}
	if err := ctx.BindTexture(Target2D, 42); !errors.Is(err, ErrInvalidName) {
		t.Errorf("BindTexture of unknown name = %v, want ErrInvalidName", err)
	}
	if err := ctx.BindTexture(TargetCubePosY, 0); !errors.Is(err, ErrInvalidTarget) {
		t.Errorf("BindTexture of face target = %v, want ErrInvalidTarget", err)
	}
}

// TestBindTexImage tests the bind and release cycle against a pbuffer.
func TestBindTexImage(t *testing.T) {
	ctx := newTestContext(t)
	makeTexture(t, ctx, 7, 16, 255, 0, 0, 255)
	if err := ctx.BindTexture(Target2D, 7); err != nil {
		t.Fatalf("BindTexture() = %v", err)
	}

	pb, err := surface.NewPbuffer(16, 16, pixbuf.FormatRGBA8)
	if err != nil {
		t.Fatalf("NewPbuffer() = %v", err)
	}
	defer pb.Close()
	if err := pb.Fill(0, 0, 255, 255); err != nil {
		t.Fatalf("Fill() = %v", err)
	}

	if err := ctx.BindTexImage(pb); err != nil {
		t.Fatalf("BindTexImage() = %v", err)
	}
	// The texture now reads the surface pixels.
	if _, _, b, _ := levelPixel(t, ctx, Target2D, 7, 0, 8, 8); b != 255 {
		t.Errorf("bound pixel b = %d, want 255", b)
	}

	if err := ctx.ReleaseTexImage(pb); err != nil {
		t.Fatalf("ReleaseTexImage() = %v", err)
	}
	// The displaced level content is back.
	if r, _, b, _ := levelPixel(t, ctx, Target2D, 7, 0, 8, 8); r != 255 || b != 0 {
		t.Errorf("restored pixel = (r=%d, b=%d), want (255, 0)", r, b)
	}
}

// TestBindTexImageErrors tests rejection of unusable surfaces.
func TestBindTexImageErrors(t *testing.T) {
	ctx := newTestContext(t)

	if err := ctx.BindTexImage(nil); !errors.Is(err, ErrInvalidSurface) {
		t.Errorf("BindTexImage(nil) = %v, want ErrInvalidSurface", err)
	}

	closed, err := surface.NewPbuffer(8, 8, pixbuf.FormatRGBA8)
	if err != nil {
		t.Fatalf("NewPbuffer() = %v", err)
	}
	closed.Close()
	if err := ctx.BindTexImage(closed); !errors.Is(err, ErrInvalidSurface) {
		t.Errorf("BindTexImage(closed) = %v, want ErrInvalidSurface", err)
	}

	pb, err := surface.NewPbuffer(8, 8, pixbuf.FormatRGBA8)
	if err != nil {
		t.Fatalf("NewPbuffer() = %v", err)
	}
	defer pb.Close()
	if err := ctx.BindTexImage(pb); err != nil {
		t.Fatalf("BindTexImage() = %v", err)
	}
	if err := ctx.BindTexImage(pb); !errors.Is(err, ErrSurfaceBound) {
		t.Errorf("double bind = %v, want ErrSurfaceBound", err)
	}

	other, err := surface.NewPbuffer(8, 8, pixbuf.FormatRGBA8)
	if err != nil {
		t.Fatalf("NewPbuffer() = %v", err)
	}
	defer other.Close()
	if err := ctx.ReleaseTexImage(other); !errors.Is(err, ErrInvalidSurface) {
		t.Errorf("release of unbound surface = %v, want ErrInvalidSurface", err)
	}
}

// TestBindTexImageReplacesSurface tests that binding a second surface
// to the same texture releases the first.
func TestBindTexImageReplacesSurface(t *testing.T) {
	ctx := newTestContext(t)
	makeTexture(t, ctx, 7, 8, 255, 0, 0, 255)
	if err := ctx.BindTexture(Target2D, 7); err != nil {
		t.Fatalf("BindTexture() = %v", err)
	}

	first, err := surface.NewPbuffer(8, 8, pixbuf.FormatRGBA8)
	if err != nil {
		t.Fatalf("NewPbuffer() = %v", err)
	}
	defer first.Close()
	first.Fill(0, 255, 0, 255)

	second, err := surface.NewPbuffer(4, 4, pixbuf.FormatRGBA8)
	if err != nil {
		t.Fatalf("NewPbuffer() = %v", err)
	}
	defer second.Close()
	second.Fill(0, 0, 255, 255)

	if err := ctx.BindTexImage(first); err != nil {
		t.Fatalf("BindTexImage(first) = %v", err)
	}
	if err := ctx.BindTexImage(second); err != nil {
		t.Fatalf("BindTexImage(second) = %v", err)
	}

	// The first surface is free again and the texture reads the second,
	// at the second surface's dimensions.
	if err := ctx.ReleaseTexImage(first); !errors.Is(err, ErrInvalidSurface) {
		t.Errorf("first surface still bound: %v", err)
	}
	img, err := ctx.CreateSharedImage(Target2D, 7, 0)
	if err != nil {
		t.Fatalf("CreateSharedImage() = %v", err)
	}
	if img.Width() != 4 || img.Height() != 4 {
		t.Errorf("bound level = %dx%d, want 4x4 from second surface", img.Width(), img.Height())
	}
	buf, err := img.Clone()
	if err != nil {
		t.Fatalf("Clone() = %v", err)
	}
	img.Release()
	if _, _, b, _ := buf.GetRGBA(2, 2); b != 255 {
		t.Errorf("bound pixel b = %d, want 255 from second surface", b)
	}

	// Releasing the second restores the original level.
	if err := ctx.ReleaseTexImage(second); err != nil {
		t.Fatalf("ReleaseTexImage(second) = %v", err)
	}
	if r, _, _, _ := levelPixel(t, ctx, Target2D, 7, 0, 4, 4); r != 255 {
		t.Errorf("restored pixel r = %d, want 255", r)
	}
}

// TestBindTexImageUnitSelection tests that the binding follows the
// active unit's bound texture.
func TestBindTexImageUnitSelection(t *testing.T) {
	ctx := newTestContext(t)
	makeTexture(t, ctx, 7, 8, 255, 0, 0, 255)

	// Unit 1 binds texture 7; unit 0 keeps the default texture.
	if err := ctx.ActiveTexture(1); err != nil {
		t.Fatalf("ActiveTexture(1) = %v", err)
	}
	if err := ctx.BindTexture(Target2D, 7); err != nil {
		t.Fatalf("BindTexture() = %v", err)
	}
	if err := ctx.ActiveTexture(0); err != nil {
		t.Fatalf("ActiveTexture(0) = %v", err)
	}

	pb, err := surface.NewPbuffer(8, 8, pixbuf.FormatRGBA8)
	if err != nil {
		t.Fatalf("NewPbuffer() = %v", err)
	}
	defer pb.Close()
	pb.Fill(0, 255, 0, 255)

	if err := ctx.BindTexImage(pb); err != nil {
		t.Fatalf("BindTexImage() = %v", err)
	}

	// The binding landed on the default texture, not on 7.
	if _, g, _, _ := levelPixel(t, ctx, Target2D, 0, 0, 4, 4); g != 255 {
		t.Errorf("default texture pixel g = %d, want 255", g)
	}
	if r, g, _, _ := levelPixel(t, ctx, Target2D, 7, 0, 4, 4); r != 255 || g != 0 {
		t.Errorf("texture 7 pixel = (%d, %d), want untouched red", r, g)
	}

	// Releasing drops the default texture's level: there was nothing
	// to restore.
	if err := ctx.ReleaseTexImage(pb); err != nil {
		t.Fatalf("ReleaseTexImage() = %v", err)
	}
	if code := ctx.ValidateSharedImage(Target2D, 0, 0); code != InvalidLevel {
		t.Errorf("ValidateSharedImage on default after release = %v, want InvalidLevel", code)
	}
}

// TestSurfaceInvalidationUnbinds tests that a resize or close of a
// bound notifying surface drops the binding and restores the level.
func TestSurfaceInvalidationUnbinds(t *testing.T) {
	t.Run("resize", func(t *testing.T) {
		ctx := newTestContext(t)
		makeTexture(t, ctx, 7, 8, 255, 0, 0, 255)
		ctx.BindTexture(Target2D, 7)

		pb, err := surface.NewPbuffer(8, 8, pixbuf.FormatRGBA8)
		if err != nil {
			t.Fatalf("NewPbuffer() = %v", err)
		}
		defer pb.Close()
		if err := ctx.BindTexImage(pb); err != nil {
			t.Fatalf("BindTexImage() = %v", err)
		}

		if err := pb.Resize(16, 16); err != nil {
			t.Fatalf("Resize() = %v", err)
		}
		if err := ctx.ReleaseTexImage(pb); !errors.Is(err, ErrInvalidSurface) {
			t.Errorf("binding survived resize: %v", err)
		}
		if r, _, _, _ := levelPixel(t, ctx, Target2D, 7, 0, 4, 4); r != 255 {
			t.Errorf("restored pixel r = %d, want 255", r)
		}
	})

	t.Run("close", func(t *testing.T) {
		ctx := newTestContext(t)
		makeTexture(t, ctx, 7, 8, 255, 0, 0, 255)
		ctx.BindTexture(Target2D, 7)

		pb, err := surface.NewPbuffer(8, 8, pixbuf.FormatRGBA8)
		if err != nil {
			t.Fatalf("NewPbuffer() = %v", err)
		}
		if err := ctx.BindTexImage(pb); err != nil {
			t.Fatalf("BindTexImage() = %v", err)
		}

		pb.Close()
		if err := ctx.ReleaseTexImage(pb); !errors.Is(err, ErrInvalidSurface) {
			t.Errorf("binding survived close: %v", err)
		}
		if r, _, _, _ := levelPixel(t, ctx, Target2D, 7, 0, 4, 4); r != 255 {
			t.Errorf("restored pixel r = %d, want 255", r)
		}
	})
}

// TestRespecifyOrphansBinding tests that TexImage over a bound level
// drops the binding and discards the displaced content.
func TestRespecifyOrphansBinding(t *testing.T) {
	ctx := newTestContext(t)
	makeTexture(t, ctx, 7, 8, 255, 0, 0, 255)
	ctx.BindTexture(Target2D, 7)

	pb, err := surface.NewPbuffer(8, 8, pixbuf.FormatRGBA8)
	if err != nil {
		t.Fatalf("NewPbuffer() = %v", err)
	}
	defer pb.Close()
	if err := ctx.BindTexImage(pb); err != nil {
		t.Fatalf("BindTexImage() = %v", err)
	}

	green := solidPixels(8, 8, 0, 255, 0, 255)
	if err := ctx.TexImage(Target2D, 7, 0, pixbuf.FormatRGBA8, 8, 8, green); err != nil {
		t.Fatalf("TexImage over bound level = %v", err)
	}

	if err := ctx.ReleaseTexImage(pb); !errors.Is(err, ErrInvalidSurface) {
		t.Errorf("binding survived respecification: %v", err)
	}
	// The new content stands; the pre-binding red is gone for good.
	if r, g, _, _ := levelPixel(t, ctx, Target2D, 7, 0, 4, 4); r != 0 || g != 255 {
		t.Errorf("respecified pixel = (%d, %d), want (0, 255)", r, g)
	}

	// The surface is free to bind again.
	if err := ctx.BindTexImage(pb); err != nil {
		t.Errorf("rebind after respecification = %v", err)
	}
}

// TestValidateSharedImage tests the check precedence: state, target,
// name, level.
func TestValidateSharedImage(t *testing.T) {
	ctx := newTestContext(t)
	makeTexture(t, ctx, 7, 16, 255, 0, 0, 255)

	flat := newTestContext(t, WithProfile(Profile2D()))

	tests := []struct {
		name   string
		ctx    *Context
		target Target
		tex    uint32
		level  int
		want   ErrorCode
	}{
		{"success", ctx, Target2D, 7, 0, Success},
		{"object target", ctx, TargetCube, 7, 0, InvalidTarget},
		{"invalid target", ctx, Target(99), 7, 0, InvalidTarget},
		{"bad target beats bad name", ctx, TargetCube, 999, 0, InvalidTarget},
		{"cube face without cube maps", flat, TargetCubePosX, 0, 0, InvalidTarget},
		{"unknown name", ctx, Target2D, 999, 0, InvalidName},
		{"bad name beats bad level", ctx, Target2D, 999, -1, InvalidName},
		{"default texture no level", ctx, Target2D, 0, 0, InvalidLevel},
		{"unspecified level", ctx, Target2D, 7, 1, InvalidLevel},
		{"negative level", ctx, Target2D, 7, -1, InvalidLevel},
		{"level past range", ctx, Target2D, 7, ctx.Profile().MaxLevels(), InvalidLevel},
	}
	for _, tt := range tests {
		if got := tt.ctx.ValidateSharedImage(tt.target, tt.tex, tt.level); got != tt.want {
			t.Errorf("%s: ValidateSharedImage(%v, %d, %d) = %v, want %v",
				tt.name, tt.target, tt.tex, tt.level, got, tt.want)
		}
	}
}

// TestValidateCubeSiblings tests cube completeness: the level must be
// present on all six faces with matching shape.
func TestValidateCubeSiblings(t *testing.T) {
	ctx := newTestContext(t)
	if err := ctx.CreateTexture(TargetCube, 9); err != nil {
		t.Fatalf("CreateTexture() = %v", err)
	}

	faces := CubeFaces()
	for _, face := range faces[:5] {
		if err := ctx.TexImage(face, 9, 0, pixbuf.FormatRGBA8, 8, 8, nil); err != nil {
			t.Fatalf("TexImage(%v) = %v", face, err)
		}
	}
	if code := ctx.ValidateSharedImage(TargetCubePosX, 9, 0); code != InvalidLevel {
		t.Errorf("five faces: ValidateSharedImage = %v, want InvalidLevel", code)
	}

	// Wrong shape on the sixth face keeps the set incomplete.
	if err := ctx.TexImage(faces[5], 9, 0, pixbuf.FormatRGBA8, 16, 16, nil); err != nil {
		t.Fatalf("TexImage(mismatched) = %v", err)
	}
	if code := ctx.ValidateSharedImage(TargetCubePosX, 9, 0); code != InvalidLevel {
		t.Errorf("mismatched sixth face: ValidateSharedImage = %v, want InvalidLevel", code)
	}

	// Matching shape completes the set; every face validates.
	if err := ctx.TexImage(faces[5], 9, 0, pixbuf.FormatRGBA8, 8, 8, nil); err != nil {
		t.Fatalf("TexImage(matching) = %v", err)
	}
	for _, face := range faces {
		if code := ctx.ValidateSharedImage(face, 9, 0); code != Success {
			t.Errorf("complete cube: ValidateSharedImage(%v) = %v, want Success", face, code)
		}
	}
}

// TestCreateSharedImage tests publication, pixel copies and dedup.
func TestCreateSharedImage(t *testing.T) {
	ctx := newTestContext(t)
	makeTexture(t, ctx, 7, 16, 255, 0, 0, 255)

	img, err := ctx.CreateSharedImage(Target2D, 7, 0)
	if err != nil {
		t.Fatalf("CreateSharedImage() = %v", err)
	}
	defer img.Release()

	if img.Width() != 16 || img.Height() != 16 {
		t.Errorf("image size = %dx%d, want 16x16", img.Width(), img.Height())
	}
	if got := img.RefCount(); got != 1 {
		t.Errorf("RefCount() = %d, want 1", got)
	}

	// Unmodified level publishes the same image again.
	again, err := ctx.CreateSharedImage(Target2D, 7, 0)
	if err != nil {
		t.Fatalf("CreateSharedImage() again = %v", err)
	}
	if again != img {
		t.Error("second CreateSharedImage returned a different image for unmodified level")
	}
	if got := img.RefCount(); got != 2 {
		t.Errorf("RefCount() after dedup = %d, want 2", got)
	}
	again.Release()
}

// TestShareCompleteLevel walks the full consumer flow against a 64x64
// texture: validate both levels, publish, publish again.
func TestShareCompleteLevel(t *testing.T) {
	ctx := newTestContext(t)
	makeTexture(t, ctx, 7, 64, 255, 255, 255, 255)

	if code := ctx.ValidateSharedImage(Target2D, 7, 0); code != Success {
		t.Errorf("ValidateSharedImage(2D, 7, 0) = %v, want Success", code)
	}
	if code := ctx.ValidateSharedImage(Target2D, 7, 1); code != InvalidLevel {
		t.Errorf("ValidateSharedImage(2D, 7, 1) = %v, want InvalidLevel", code)
	}

	img, err := ctx.CreateSharedImage(Target2D, 7, 0)
	if err != nil {
		t.Fatalf("CreateSharedImage() = %v", err)
	}
	defer img.Release()

	if got := img.RefCount(); got != 1 {
		t.Errorf("RefCount() = %d, want 1", got)
	}

	again, err := ctx.CreateSharedImage(Target2D, 7, 0)
	if err != nil {
		t.Fatalf("CreateSharedImage() again = %v", err)
	}
	defer again.Release()

	if again != img {
		t.Error("second CreateSharedImage returned a different image")
	}
	if got := img.RefCount(); got != 2 {
		t.Errorf("RefCount() = %d, want 2", got)
	}
}

// TestCopyOnShare tests that mutating the source level does not change
// a published image, and publishes a fresh image afterwards.
func TestCopyOnShare(t *testing.T) {
	ctx := newTestContext(t)
	makeTexture(t, ctx, 7, 16, 255, 0, 0, 255)

	img, err := ctx.CreateSharedImage(Target2D, 7, 0)
	if err != nil {
		t.Fatalf("CreateSharedImage() = %v", err)
	}
	defer img.Release()

	green := solidPixels(16, 16, 0, 255, 0, 255)
	if err := ctx.TexSubImage(Target2D, 7, 0, 0, 0, 16, 16, green); err != nil {
		t.Fatalf("TexSubImage() = %v", err)
	}

	buf, err := img.Clone()
	if err != nil {
		t.Fatalf("Clone() = %v", err)
	}
	if r, g, _, _ := buf.GetRGBA(8, 8); r != 255 || g != 0 {
		t.Errorf("published image changed after mutation: (%d, %d), want (255, 0)", r, g)
	}

	fresh, err := ctx.CreateSharedImage(Target2D, 7, 0)
	if err != nil {
		t.Fatalf("CreateSharedImage() after mutation = %v", err)
	}
	defer fresh.Release()
	if fresh == img {
		t.Error("mutated level published the stale image")
	}
	if _, g, _, _ := levelPixel(t, ctx, Target2D, 7, 0, 8, 8); g != 255 {
		t.Errorf("texture pixel g = %d, want 255", g)
	}
}

// TestSharedImageOutlivesContext tests that images survive Destroy.
func TestSharedImageOutlivesContext(t *testing.T) {
	ctx := newTestContext(t)
	makeTexture(t, ctx, 7, 16, 255, 0, 0, 255)

	img, err := ctx.CreateSharedImage(Target2D, 7, 0)
	if err != nil {
		t.Fatalf("CreateSharedImage() = %v", err)
	}
	if err := ctx.Destroy(); err != nil {
		t.Fatalf("Destroy() = %v", err)
	}

	if got := img.RefCount(); got != 1 {
		t.Errorf("RefCount() after Destroy = %d, want 1", got)
	}
	buf, err := img.Clone()
	if err != nil {
		t.Fatalf("Clone() after Destroy = %v", err)
	}
	if r, _, _, _ := buf.GetRGBA(8, 8); r != 255 {
		t.Errorf("pixel r = %d after Destroy, want 255", r)
	}
	if err := img.Release(); err != nil {
		t.Errorf("Release() = %v", err)
	}
}

// TestSharedImageSurvivesTextureDelete tests that deleting the source
// texture only forgets dedup entries.
func TestSharedImageSurvivesTextureDelete(t *testing.T) {
	ctx := newTestContext(t)
	makeTexture(t, ctx, 7, 16, 255, 0, 0, 255)

	img, err := ctx.CreateSharedImage(Target2D, 7, 0)
	if err != nil {
		t.Fatalf("CreateSharedImage() = %v", err)
	}
	defer img.Release()

	if err := ctx.DeleteTexture(Target2D, 7); err != nil {
		t.Fatalf("DeleteTexture() = %v", err)
	}
	if got := img.RefCount(); got != 1 {
		t.Errorf("RefCount() after delete = %d, want 1", got)
	}

	// A recreated texture with identical pixels is a different source;
	// publication must not dedup against the deleted one.
	makeTexture(t, ctx, 7, 16, 255, 0, 0, 255)
	fresh, err := ctx.CreateSharedImage(Target2D, 7, 0)
	if err != nil {
		t.Fatalf("CreateSharedImage() = %v", err)
	}
	defer fresh.Release()
	if fresh == img {
		t.Error("publication deduped against a deleted texture")
	}
}

// TestCreateSharedImageErrors tests the error sentinels behind each
// validation code.
func TestCreateSharedImageErrors(t *testing.T) {
	ctx := newTestContext(t)
	makeTexture(t, ctx, 7, 16, 255, 0, 0, 255)

	tests := []struct {
		name     string
		target   Target
		tex      uint32
		level    int
		sentinel error
		code     ErrorCode
	}{
		{"object target", TargetCube, 7, 0, ErrInvalidTarget, InvalidTarget},
		{"unknown name", Target2D, 999, 0, ErrInvalidName, InvalidName},
		{"unspecified level", Target2D, 7, 3, ErrInvalidLevel, InvalidLevel},
	}
	for _, tt := range tests {
		_, err := ctx.CreateSharedImage(tt.target, tt.tex, tt.level)
		if !errors.Is(err, tt.sentinel) {
			t.Errorf("%s: CreateSharedImage = %v, want %v", tt.name, err, tt.sentinel)
		}
		if got := CodeOf(err); got != tt.code {
			t.Errorf("%s: CodeOf = %v, want %v", tt.name, got, tt.code)
		}
	}

	// Failed publications allocate nothing.
	if got := ctx.ShareGroup().Stats().ImageCount; got != 0 {
		t.Errorf("ImageCount after failed publications = %d, want 0", got)
	}
}

// TestCreateSharedImageFromBoundSurface tests that surface backed
// levels publish the surface pixels and never dedup.
func TestCreateSharedImageFromBoundSurface(t *testing.T) {
	ctx := newTestContext(t)
	makeTexture(t, ctx, 7, 8, 255, 0, 0, 255)
	ctx.BindTexture(Target2D, 7)

	pb, err := surface.NewPbuffer(8, 8, pixbuf.FormatRGBA8)
	if err != nil {
		t.Fatalf("NewPbuffer() = %v", err)
	}
	defer pb.Close()
	pb.Fill(0, 0, 255, 255)
	if err := ctx.BindTexImage(pb); err != nil {
		t.Fatalf("BindTexImage() = %v", err)
	}

	first, err := ctx.CreateSharedImage(Target2D, 7, 0)
	if err != nil {
		t.Fatalf("CreateSharedImage() = %v", err)
	}
	defer first.Release()

	buf, err := first.Clone()
	if err != nil {
		t.Fatalf("Clone() = %v", err)
	}
	if _, _, b, _ := buf.GetRGBA(4, 4); b != 255 {
		t.Errorf("published pixel b = %d, want surface blue", b)
	}

	// The surface can change without the context noticing, so repeat
	// publications take fresh copies.
	pb.Fill(255, 255, 0, 255)
	second, err := ctx.CreateSharedImage(Target2D, 7, 0)
	if err != nil {
		t.Fatalf("CreateSharedImage() = %v", err)
	}
	defer second.Release()
	if second == first {
		t.Error("surface backed publication deduped across surface writes")
	}
	buf, err = second.Clone()
	if err != nil {
		t.Fatalf("Clone() = %v", err)
	}
	if r, g, _, _ := buf.GetRGBA(4, 4); r != 255 || g != 255 {
		t.Errorf("second publication = (%d, %d), want surface yellow", r, g)
	}
}

// TestImportSharedImage tests moving an image between contexts of one
// share group.
func TestImportSharedImage(t *testing.T) {
	group := NewShareGroup()
	defer group.Close()

	producer := newTestContext(t, WithShareGroup(group))
	consumer := newTestContext(t, WithShareGroup(group))

	makeTexture(t, producer, 7, 16, 255, 0, 0, 255)
	img, err := producer.CreateSharedImage(Target2D, 7, 0)
	if err != nil {
		t.Fatalf("CreateSharedImage() = %v", err)
	}
	defer img.Release()

	if err := consumer.CreateTexture(Target2D, 3); err != nil {
		t.Fatalf("CreateTexture() = %v", err)
	}
	if err := consumer.ImportSharedImage(Target2D, 3, img); err != nil {
		t.Fatalf("ImportSharedImage() = %v", err)
	}

	// The import is a borrow, not a retain.
	if got := img.RefCount(); got != 1 {
		t.Errorf("RefCount() after import = %d, want 1", got)
	}
	if r, _, _, _ := levelPixel(t, consumer, Target2D, 3, 0, 8, 8); r != 255 {
		t.Errorf("imported pixel r = %d, want 255", r)
	}

	// The import copied: mutating the consumer's texture leaves the
	// image alone.
	green := solidPixels(16, 16, 0, 255, 0, 255)
	if err := consumer.TexSubImage(Target2D, 3, 0, 0, 0, 16, 16, green); err != nil {
		t.Fatalf("TexSubImage() = %v", err)
	}
	buf, err := img.Clone()
	if err != nil {
		t.Fatalf("Clone() = %v", err)
	}
	if r, _, _, _ := buf.GetRGBA(8, 8); r != 255 {
		t.Errorf("image pixel r = %d after consumer mutation, want 255", r)
	}
}

// TestImportSharedImageErrors tests import rejections.
func TestImportSharedImageErrors(t *testing.T) {
	ctx := newTestContext(t)
	if err := ctx.CreateTexture(Target2D, 3); err != nil {
		t.Fatalf("CreateTexture() = %v", err)
	}

	if err := ctx.ImportSharedImage(Target2D, 3, nil); !errors.Is(err, ErrImageReleased) {
		t.Errorf("import of nil image = %v, want ErrImageReleased", err)
	}

	makeTexture(t, ctx, 7, 8, 255, 0, 0, 255)
	img, err := ctx.CreateSharedImage(Target2D, 7, 0)
	if err != nil {
		t.Fatalf("CreateSharedImage() = %v", err)
	}

	if err := ctx.ImportSharedImage(Target2D, 99, img); !errors.Is(err, ErrInvalidName) {
		t.Errorf("import to unknown name = %v, want ErrInvalidName", err)
	}

	img.Release()
	if err := ctx.ImportSharedImage(Target2D, 3, img); !errors.Is(err, ErrImageReleased) {
		t.Errorf("import of released image = %v, want ErrImageReleased", err)
	}
}

// TestSharedImageBudget tests that store exhaustion surfaces as an
// allocation failure.
func TestSharedImageBudget(t *testing.T) {
	ctx := newTestContext(t, WithStoreConfig(imagestore.Config{MaxMemoryMB: 16}))

	// One 2048x2048 RGBA level is exactly the 16 MB budget.
	if err := ctx.CreateTexture(Target2D, 7); err != nil {
		t.Fatalf("CreateTexture() = %v", err)
	}
	if err := ctx.TexImage(Target2D, 7, 0, pixbuf.FormatRGBA8, 2048, 2048, nil); err != nil {
		t.Fatalf("TexImage() = %v", err)
	}

	img, err := ctx.CreateSharedImage(Target2D, 7, 0)
	if err != nil {
		t.Fatalf("CreateSharedImage() = %v", err)
	}
	defer img.Release()

	// A second, distinct snapshot does not fit.
	if err := ctx.TexSubImage(Target2D, 7, 0, 0, 0, 1, 1, []byte{1, 2, 3, 4}); err != nil {
		t.Fatalf("TexSubImage() = %v", err)
	}
	_, err = ctx.CreateSharedImage(Target2D, 7, 0)
	if !errors.Is(err, ErrAllocationFailed) {
		t.Fatalf("CreateSharedImage over budget = %v, want ErrAllocationFailed", err)
	}
	if got := CodeOf(err); got != AllocationFailed {
		t.Errorf("CodeOf = %v, want AllocationFailed", got)
	}
}

// TestGenerateMipmaps tests 2D mip chain derivation.
func TestGenerateMipmaps(t *testing.T) {
	ctx := newTestContext(t)
	makeTexture(t, ctx, 7, 64, 200, 100, 40, 255)

	if err := ctx.GenerateMipmaps(Target2D, 7); err != nil {
		t.Fatalf("GenerateMipmaps() = %v", err)
	}

	for level := 0; level <= 6; level++ {
		if code := ctx.ValidateSharedImage(Target2D, 7, level); code != Success {
			t.Errorf("level %d: ValidateSharedImage = %v, want Success", level, code)
		}
	}
	if code := ctx.ValidateSharedImage(Target2D, 7, 7); code != InvalidLevel {
		t.Errorf("level 7: ValidateSharedImage = %v, want InvalidLevel", code)
	}

	// Downscaling a solid color keeps the color at every level.
	img, err := ctx.CreateSharedImage(Target2D, 7, 6)
	if err != nil {
		t.Fatalf("CreateSharedImage(level 6) = %v", err)
	}
	defer img.Release()
	if img.Width() != 1 || img.Height() != 1 {
		t.Errorf("level 6 size = %dx%d, want 1x1", img.Width(), img.Height())
	}
	buf, err := img.Clone()
	if err != nil {
		t.Fatalf("Clone() = %v", err)
	}
	if r, g, b, _ := buf.GetRGBA(0, 0); r != 200 || g != 100 || b != 40 {
		t.Errorf("level 6 pixel = (%d, %d, %d), want (200, 100, 40)", r, g, b)
	}
}

// TestGenerateMipmapsCube tests cube chain derivation and the base
// completeness requirement.
func TestGenerateMipmapsCube(t *testing.T) {
	ctx := newTestContext(t)
	if err := ctx.CreateTexture(TargetCube, 9); err != nil {
		t.Fatalf("CreateTexture() = %v", err)
	}

	if err := ctx.GenerateMipmaps(TargetCube, 9); !errors.Is(err, ErrInvalidLevel) {
		t.Errorf("GenerateMipmaps without base = %v, want ErrInvalidLevel", err)
	}

	for _, face := range CubeFaces() {
		pix := solidPixels(8, 8, 10, 20, 30, 255)
		if err := ctx.TexImage(face, 9, 0, pixbuf.FormatRGBA8, 8, 8, pix); err != nil {
			t.Fatalf("TexImage(%v) = %v", face, err)
		}
	}
	if err := ctx.GenerateMipmaps(TargetCube, 9); err != nil {
		t.Fatalf("GenerateMipmaps() = %v", err)
	}

	for _, face := range CubeFaces() {
		for level := 0; level <= 3; level++ {
			if code := ctx.ValidateSharedImage(face, 9, level); code != Success {
				t.Errorf("%v level %d = %v, want Success", face, level, code)
			}
		}
	}
}

// TestGenerateMipmapsErrors tests target and base validation.
func TestGenerateMipmapsErrors(t *testing.T) {
	ctx := newTestContext(t)

	if err := ctx.GenerateMipmaps(TargetCubePosX, 0); !errors.Is(err, ErrInvalidTarget) {
		t.Errorf("GenerateMipmaps(face) = %v, want ErrInvalidTarget", err)
	}
	if err := ctx.GenerateMipmaps(Target2D, 42); !errors.Is(err, ErrInvalidName) {
		t.Errorf("GenerateMipmaps unknown name = %v, want ErrInvalidName", err)
	}
	if err := ctx.GenerateMipmaps(Target2D, 0); !errors.Is(err, ErrInvalidLevel) {
		t.Errorf("GenerateMipmaps without base = %v, want ErrInvalidLevel", err)
	}
}

// TestDriverAllocationFailure tests that driver failures surface as
// allocation errors.
func TestDriverAllocationFailure(t *testing.T) {
	d := &mockDriver{name: "mock", failAll: true}
	ctx := newTestContext(t, WithDriver(d))

	if err := ctx.CreateTexture(Target2D, 7); err != nil {
		t.Fatalf("CreateTexture() = %v", err)
	}
	err := ctx.TexImage(Target2D, 7, 0, pixbuf.FormatRGBA8, 8, 8, nil)
	if !errors.Is(err, ErrAllocationFailed) {
		t.Errorf("TexImage with failing driver = %v, want ErrAllocationFailed", err)
	}
	if got := CodeOf(err); got != AllocationFailed {
		t.Errorf("CodeOf = %v, want AllocationFailed", got)
	}
}

// TestContextConcurrency tests serialized operation under concurrent
// callers working on disjoint textures.
func TestContextConcurrency(t *testing.T) {
	ctx := newTestContext(t)

	const workers = 8
	const iterations = 25

	var wg sync.WaitGroup
	for w := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			name := uint32(100 + w)
			if err := ctx.CreateTexture(Target2D, name); err != nil {
				t.Errorf("CreateTexture(%d) = %v", name, err)
				return
			}
			pix := solidPixels(16, 16, uint8(w), 0, 0, 255)
			for range iterations {
				if err := ctx.TexImage(Target2D, name, 0, pixbuf.FormatRGBA8, 16, 16, pix); err != nil {
					t.Errorf("TexImage(%d) = %v", name, err)
					return
				}
				img, err := ctx.CreateSharedImage(Target2D, name, 0)
				if err != nil {
					t.Errorf("CreateSharedImage(%d) = %v", name, err)
					return
				}
				img.Release()
			}
		}()
	}
	wg.Wait()

	if got := ctx.ShareGroup().Stats().ImageCount; got != 0 {
		t.Errorf("ImageCount after workers = %d, want 0", got)
	}
}

// TestDestroyWithBoundSurface tests that destruction drops bindings
// and later surface events are ignored.
func TestDestroyWithBoundSurface(t *testing.T) {
	ctx := newTestContext(t)
	makeTexture(t, ctx, 7, 8, 255, 0, 0, 255)
	ctx.BindTexture(Target2D, 7)

	pb, err := surface.NewPbuffer(8, 8, pixbuf.FormatRGBA8)
	if err != nil {
		t.Fatalf("NewPbuffer() = %v", err)
	}
	defer pb.Close()
	if err := ctx.BindTexImage(pb); err != nil {
		t.Fatalf("BindTexImage() = %v", err)
	}

	if err := ctx.Destroy(); err != nil {
		t.Fatalf("Destroy() = %v", err)
	}
	if !pb.Valid() {
		t.Error("Destroy invalidated a surface it does not own")
	}
	// The invalidation handler was cancelled; this must not panic or
	// touch the dead context.
	if err := pb.Resize(16, 16); err != nil {
		t.Errorf("Resize() after Destroy = %v", err)
	}
}

// TestShareGroupStats tests store stats seen through the share group.
func TestShareGroupStats(t *testing.T) {
	ctx := newTestContext(t)
	makeTexture(t, ctx, 7, 16, 255, 0, 0, 255)

	img, err := ctx.CreateSharedImage(Target2D, 7, 0)
	if err != nil {
		t.Fatalf("CreateSharedImage() = %v", err)
	}
	defer img.Release()

	stats := ctx.ShareGroup().Stats()
	if stats.ImageCount != 1 {
		t.Errorf("ImageCount = %d, want 1", stats.ImageCount)
	}
	if want := uint64(16 * 16 * 4); stats.UsedBytes != want {
		t.Errorf("UsedBytes = %d, want %d", stats.UsedBytes, want)
	}
	if stats.String() == "" {
		t.Error("Stats().String() is empty")
	}
}
