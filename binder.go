package glcontext

import (
	"fmt"

	"github.com/gogpu/glcontext/internal/arena"
	"github.com/gogpu/glcontext/pixbuf"
	"github.com/gogpu/glcontext/surface"
)

// surfaceLevelStorage presents a bound surface's backing buffer as
// texture level storage. The surface keeps ownership; Release never
// touches it.
type surfaceLevelStorage struct {
	surf surface.Surface
}

func (s *surfaceLevelStorage) Buffer() *pixbuf.Buffer {
	return s.surf.BackingBuffer()
}

func (s *surfaceLevelStorage) Upload(x, y, w, h int, pix []byte) error {
	buf := s.surf.BackingBuffer()
	if buf == nil {
		return ErrStorageReleased
	}
	return buf.WriteRect(x, y, w, h, pix)
}

func (s *surfaceLevelStorage) Release() {}

var _ LevelStorage = (*surfaceLevelStorage)(nil)

// binding records one surface serving as level 0 storage of one 2D
// texture.
type binding struct {
	surf  surface.Surface
	tex   arena.Handle
	texID uint64

	// saved is the level content displaced by the binding, restored on
	// release. nil when level 0 was unspecified before binding.
	saved *texLevel

	// cancel removes the invalidation handler. nil for surfaces that
	// do not notify.
	cancel func()
}

// surfaceBinder tracks the live surface bindings of one context.
//
// A surface binds to at most one texture and a texture presents at
// most one surface, so both directions resolve uniquely.
type surfaceBinder struct {
	bound map[surface.Surface]*binding
}

func newSurfaceBinder() *surfaceBinder {
	return &surfaceBinder{bound: make(map[surface.Surface]*binding)}
}

func (b *surfaceBinder) get(surf surface.Surface) (*binding, bool) {
	bd, ok := b.bound[surf]
	return bd, ok
}

func (b *surfaceBinder) add(bd *binding) {
	b.bound[bd.surf] = bd
}

func (b *surfaceBinder) drop(surf surface.Surface) {
	delete(b.bound, surf)
}

// byTexture returns the binding presenting through the texture, or nil.
func (b *surfaceBinder) byTexture(texID uint64) *binding {
	for _, bd := range b.bound {
		if bd.texID == texID {
			return bd
		}
	}
	return nil
}

// all returns the current bindings. The slice is a copy, safe to
// iterate while bindings are detached.
func (b *surfaceBinder) all() []*binding {
	out := make([]*binding, 0, len(b.bound))
	for _, bd := range b.bound {
		out = append(out, bd)
	}
	return out
}

func (b *surfaceBinder) len() int {
	return len(b.bound)
}

// BindTexImage binds the surface as level 0 storage of the 2D texture
// bound to the active texture unit.
//
// The level content displaced by the binding is kept aside and comes
// back when the surface is released with ReleaseTexImage. Binding a
// surface that is already bound in this context fails with
// ErrSurfaceBound. If the target texture is already presenting another
// surface, that binding is released first.
//
// Surfaces that implement NotifyingSurface are watched: when their
// storage is invalidated by a resize or close, the binding is dropped
// and the displaced level restored.
func (c *Context) BindTexImage(surf surface.Surface) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkActive(); err != nil {
		return err
	}
	if surf == nil || !surf.Valid() {
		return ErrInvalidSurface
	}
	if w, h := surf.Width(), surf.Height(); w <= 0 || h <= 0 ||
		w > c.profile.MaxTextureSize || h > c.profile.MaxTextureSize {
		return fmt.Errorf("%w: surface %dx%d outside profile limit %d",
			ErrInvalidSurface, w, h, c.profile.MaxTextureSize)
	}
	if _, dup := c.binder.get(surf); dup {
		return ErrSurfaceBound
	}

	name := c.units[c.activeUnit].bound[Namespace2D]
	t, h, ok := c.registry.byName(Namespace2D, name)
	if !ok {
		return ErrInvalidName
	}

	if prev := c.binder.byTexture(t.id); prev != nil {
		c.detachBinding(prev, true)
	}

	bd := &binding{surf: surf, tex: h, texID: t.id}
	bd.saved = t.setLevel(0, 0, &texLevel{
		storage:  &surfaceLevelStorage{surf: surf},
		revision: c.nextRevision(),
	})
	if ns, ok := surf.(surface.NotifyingSurface); ok {
		bd.cancel = ns.OnInvalidate(c.invalidateFunc(surf))
	}
	c.binder.add(bd)

	Logger().Debug("surface bound as texture",
		"context", c.id, "texture", name, "unit", c.activeUnit,
		"width", surf.Width(), "height", surf.Height())
	return nil
}

// ReleaseTexImage releases a surface bound with BindTexImage and
// restores the texture level the binding displaced.
//
// Releasing a surface that is not bound in this context fails with
// ErrInvalidSurface.
func (c *Context) ReleaseTexImage(surf surface.Surface) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkActive(); err != nil {
		return err
	}
	if surf == nil {
		return ErrInvalidSurface
	}
	bd, ok := c.binder.get(surf)
	if !ok {
		return fmt.Errorf("%w: surface is not bound", ErrInvalidSurface)
	}
	c.detachBinding(bd, true)
	return nil
}

// detachBinding undoes one surface binding. With restore set the
// displaced level goes back into the texture; otherwise the texture is
// on its way out and the displaced storage is released.
func (c *Context) detachBinding(bd *binding, restore bool) {
	if bd.cancel != nil {
		bd.cancel()
		bd.cancel = nil
	}
	c.binder.drop(bd.surf)

	t, ok := c.registry.get(bd.tex)
	if !ok {
		if bd.saved != nil && bd.saved.storage != nil {
			bd.saved.storage.Release()
		}
		return
	}
	if restore {
		if bd.saved != nil {
			t.setLevel(0, 0, bd.saved)
		} else {
			t.dropLevel(0, 0)
		}
		return
	}
	t.dropLevel(0, 0)
	if bd.saved != nil && bd.saved.storage != nil {
		bd.saved.storage.Release()
	}
}

// orphanBinding drops the binding on a texture whose bound level is
// being respecified. The displaced level is discarded rather than
// restored, since the caller is about to install new storage over it.
func (c *Context) orphanBinding(texID uint64) {
	bd := c.binder.byTexture(texID)
	if bd == nil {
		return
	}
	if bd.cancel != nil {
		bd.cancel()
		bd.cancel = nil
	}
	c.binder.drop(bd.surf)
	if bd.saved != nil && bd.saved.storage != nil {
		bd.saved.storage.Release()
	}
	Logger().Debug("binding dropped by respecification",
		"context", c.id, "texture", bd.texID)
}

// detachAllBindings releases every binding without restoring levels.
// Used during context destruction, when the textures are going away.
func (c *Context) detachAllBindings() {
	for _, bd := range c.binder.all() {
		c.detachBinding(bd, false)
	}
}

// invalidateFunc builds the handler run when a bound surface announces
// that its storage is going away.
func (c *Context) invalidateFunc(surf surface.Surface) func() {
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.state != stateActive {
			return
		}
		bd, ok := c.binder.get(surf)
		if !ok {
			return
		}
		Logger().Warn("surface invalidated while bound",
			"context", c.id, "texture", bd.texID)
		c.detachBinding(bd, true)
	}
}
