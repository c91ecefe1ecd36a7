// Package imagestore provides the shared image store for glcontext.
//
// A shared image is an immutable snapshot of a texture level that can
// outlive the context it was created from. Images are reference counted;
// the store tracks live images by their source so repeated shares of an
// unchanged level return the same image instead of a new copy.
package imagestore

import (
	"fmt"

	"github.com/gogpu/glcontext/pixbuf"
)

// SourceKey identifies the exact texture level version a shared image was
// snapshotted from. Two snapshots with equal keys are byte-identical, so
// the store may serve one image for both.
type SourceKey struct {
	// Owner is the id of the context owning the source texture.
	Owner uint64

	// Texture is the id of the source texture within the owner.
	Texture uint64

	// Face is the cube face index of the source level, 0 for 2D textures.
	Face uint8

	// Level is the mip level the snapshot was taken from.
	Level int

	// Revision is the source level's revision counter at snapshot time.
	// Any mutation of the level bumps it, ending dedup against older
	// snapshots.
	Revision uint64
}

// String returns a compact owner/texture/face/level@revision form.
func (k SourceKey) String() string {
	return fmt.Sprintf("%d/%d/%d/%d@%d", k.Owner, k.Texture, k.Face, k.Level, k.Revision)
}

// Snapshot describes a texture level to be shared. Pixels is borrowed for
// the duration of the Acquire call; the store copies the contents and
// never retains the buffer itself.
type Snapshot struct {
	Key    SourceKey
	Pixels *pixbuf.Buffer
}

// Image is a reference counted snapshot of a texture level.
//
// An Image is created with one reference held by the caller. Further
// references are added with Retain and every reference is returned with
// Release. When the last reference is released the pixel storage goes
// back to the store's pool and the image becomes unusable.
//
// Thread safety: all methods are safe for concurrent use.
type Image struct {
	id     uint64
	key    SourceKey
	store  *Store
	width  int
	height int
	format pixbuf.Format

	// Guarded by store.mu.
	refs     int64
	released bool
	buf      *pixbuf.Buffer
}

// ID returns the store-unique image id.
func (img *Image) ID() uint64 {
	return img.id
}

// Key returns the source key the image was snapshotted from.
func (img *Image) Key() SourceKey {
	return img.key
}

// Width returns the image width in pixels.
func (img *Image) Width() int {
	return img.width
}

// Height returns the image height in pixels.
func (img *Image) Height() int {
	return img.height
}

// Format returns the pixel format.
func (img *Image) Format() pixbuf.Format {
	return img.format
}

// RefCount returns the current reference count. Zero means the image has
// been fully released.
func (img *Image) RefCount() int64 {
	img.store.mu.RLock()
	defer img.store.mu.RUnlock()
	return img.refs
}

// Retain adds a reference. Returns ErrImageReleased if the image has
// already been fully released.
func (img *Image) Retain() error {
	return img.store.retain(img)
}

// Release drops one reference. When the count reaches zero the image's
// storage is recycled and the image must not be used again.
// Returns ErrImageReleased if called after the count already hit zero.
func (img *Image) Release() error {
	return img.store.release(img)
}

// CopyInto copies the image pixels into dst, which must match the image's
// dimensions and format. Returns ErrImageReleased after full release.
func (img *Image) CopyInto(dst *pixbuf.Buffer) error {
	img.store.mu.RLock()
	defer img.store.mu.RUnlock()
	if img.released {
		return ErrImageReleased
	}
	return img.buf.CopyInto(dst)
}

// Clone returns an independent copy of the image pixels.
// Returns ErrImageReleased after full release.
func (img *Image) Clone() (*pixbuf.Buffer, error) {
	img.store.mu.RLock()
	defer img.store.mu.RUnlock()
	if img.released {
		return nil, ErrImageReleased
	}
	return img.buf.Clone(), nil
}

// ByteSize returns the size of the image pixel data in bytes.
func (img *Image) ByteSize() int {
	return img.format.ImageBytes(img.width, img.height)
}
