package gpu

import (
	"sync/atomic"

	"github.com/gogpu/glcontext"
	"github.com/gogpu/glcontext/pixbuf"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/core"
)

// deviceStorage is one texture level on the device with a CPU shadow.
//
// The shadow is authoritative: uploads land there first and the device
// copy follows. textureID and viewID are zero while the texture is
// logical.
type deviceStorage struct {
	driver    *Driver
	label     string
	textureID core.TextureID
	viewID    core.TextureViewID
	desc      gputypes.TextureDescriptor
	shadow    *pixbuf.Buffer
	released  atomic.Bool
}

// Buffer returns the CPU shadow, or nil after release.
func (s *deviceStorage) Buffer() *pixbuf.Buffer {
	if s.released.Load() {
		return nil
	}
	return s.shadow
}

// Upload writes tightly packed pixel rows into the rectangle and
// schedules the device copy.
func (s *deviceStorage) Upload(x, y, w, h int, pix []byte) error {
	if s.released.Load() {
		return glcontext.ErrStorageReleased
	}
	if err := s.shadow.WriteRect(x, y, w, h, pix); err != nil {
		return err
	}

	// TODO: queue the device copy once core exposes texture writes.
	// The call takes the dirty rows from the shadow:
	//
	//	core.QueueWriteTexture(queue, &gputypes.ImageCopyTexture{
	//	    Texture:  uintptr(s.textureID.Raw()),
	//	    MipLevel: 0,
	//	    Origin:   gputypes.Origin3D{X: uint32(x), Y: uint32(y)},
	//	    Aspect:   gputypes.TextureAspectAll,
	//	}, rows, &gputypes.TextureDataLayout{
	//	    BytesPerRow:  uint32(s.shadow.Format().RowBytes(w)),
	//	    RowsPerImage: uint32(h),
	//	}, &gputypes.Extent3D{
	//	    Width: uint32(w), Height: uint32(h), DepthOrArrayLayers: 1,
	//	})

	return nil
}

// Release frees the level. Idempotent.
func (s *deviceStorage) Release() {
	if s.released.Swap(true) {
		return
	}

	// TODO: destroy the device texture here once it is created for real.
	s.shadow = nil
	s.driver.live.Add(-1)

	glcontext.Logger().Debug("gpu level storage released", "label", s.label)
}

// Label returns the debug label of the level texture.
func (s *deviceStorage) Label() string {
	return s.label
}

// Descriptor returns the device texture descriptor for the level.
func (s *deviceStorage) Descriptor() gputypes.TextureDescriptor {
	return s.desc
}

// TextureID returns the device texture handle. Zero while the texture
// is logical.
func (s *deviceStorage) TextureID() core.TextureID {
	return s.textureID
}

// ViewID returns the device texture view handle. Zero while the texture
// is logical.
func (s *deviceStorage) ViewID() core.TextureViewID {
	return s.viewID
}

// Compile-time interface check.
var _ glcontext.LevelStorage = (*deviceStorage)(nil)
