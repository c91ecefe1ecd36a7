package glcontext

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gogpu/glcontext/imagestore"
	"github.com/gogpu/glcontext/internal/arena"
	"github.com/gogpu/glcontext/pixbuf"
)

// contextState tracks the context lifecycle.
type contextState uint8

const (
	stateActive contextState = iota
	stateDestroying
	stateDestroyed
)

// nextContextID hands out process-wide context IDs starting at 1.
var nextContextID atomic.Uint64

func init() {
	nextContextID.Store(1)
}

func newContextID() uint64 {
	return nextContextID.Add(1) - 1
}

// textureUnit is one texture binding slot of a context.
type textureUnit struct {
	// bound holds the bound texture name per namespace. Name 0 selects
	// the namespace default texture.
	bound [namespaceCount]uint32
}

// Context is a rendering context: a private texture namespace backed
// by a storage driver, able to present surfaces as texture storage and
// to publish texture levels as shared images.
//
// A Context is safe for concurrent use; operations are serialized
// internally. Images returned by CreateSharedImage are independent of
// the context and follow their own reference counts.
type Context struct {
	id      uint64
	profile Profile

	mu    sync.Mutex
	state contextState

	driver     Driver
	ownsDriver bool

	group     *ShareGroup
	ownsGroup bool
	store     *imagestore.Store

	registry *textureRegistry
	binder   *surfaceBinder

	units      []textureUnit
	activeUnit int

	revisions uint64
}

// New creates a context.
//
// Without options the context uses the ES2 profile, the highest
// priority available driver, and a private share group. Destroy
// releases everything the context created itself; injected drivers and
// share groups stay open.
func New(opts ...Option) (*Context, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.profile.Validate(); err != nil {
		return nil, err
	}

	driver := o.driver
	ownsDriver := false
	var err error
	switch {
	case driver != nil:
	case o.driverName != "":
		driver, err = globalDrivers.NewByName(o.driverName, o.profile)
		ownsDriver = true
	default:
		driver, err = globalDrivers.New(o.profile)
		ownsDriver = true
	}
	if err != nil {
		return nil, err
	}

	group := o.group
	ownsGroup := false
	if group == nil {
		group = NewShareGroupWithConfig(o.storeCfg)
		ownsGroup = true
	}

	c := &Context{
		id:         newContextID(),
		profile:    o.profile,
		driver:     driver,
		ownsDriver: ownsDriver,
		group:      group,
		ownsGroup:  ownsGroup,
		store:      group.Store(),
		registry:   newTextureRegistry(),
		binder:     newSurfaceBinder(),
		units:      make([]textureUnit, o.profile.MaxTextureUnits),
	}

	Logger().Info("context created",
		"context", c.id, "driver", driver.Name(),
		"profile", o.profile.Name, "group", group.ID().String())
	return c, nil
}

// ID returns the unique context ID.
func (c *Context) ID() uint64 {
	return c.id
}

// Profile returns the capability profile the context was created with.
func (c *Context) Profile() Profile {
	return c.profile
}

// ShareGroup returns the group the context publishes shared images to.
func (c *Context) ShareGroup() *ShareGroup {
	return c.group
}

// Driver returns the storage driver.
func (c *Context) Driver() Driver {
	return c.driver
}

// Destroyed reports whether Destroy has begun.
func (c *Context) Destroyed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state != stateActive
}

// Destroy tears the context down. Surface bindings are dropped, level
// storage is released, and the context's dedup entries leave the share
// group store. Shared images already published stay alive under their
// own references.
//
// Only the first call succeeds; later calls return ErrContextDestroyed.
func (c *Context) Destroy() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != stateActive {
		return ErrContextDestroyed
	}
	c.state = stateDestroying

	c.detachAllBindings()
	c.registry.each(func(_ arena.Handle, t *texture) bool {
		t.releaseAll()
		return true
	})
	c.store.ForgetOwner(c.id)

	var err error
	if c.ownsGroup {
		err = c.group.Close()
	}
	if c.ownsDriver {
		if cerr := c.driver.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}

	c.state = stateDestroyed
	Logger().Debug("context destroyed", "context", c.id)
	return err
}

// checkActive returns ErrContextDestroyed unless the context is live.
// Callers hold c.mu.
func (c *Context) checkActive() error {
	if c.state != stateActive {
		return ErrContextDestroyed
	}
	return nil
}

// nextRevision returns a fresh level revision, unique within the
// context and strictly increasing.
func (c *Context) nextRevision() uint64 {
	c.revisions++
	return c.revisions
}

// objectNamespace resolves an object target, Target2D or TargetCube,
// against the profile. Face targets are rejected: they address images
// of a cube texture, not the object itself.
func (c *Context) objectNamespace(target Target) (Namespace, error) {
	if target != Target2D && target != TargetCube {
		return 0, fmt.Errorf("%w: %v does not name a texture object",
			ErrInvalidTarget, target)
	}
	if !c.profile.SupportsTarget(target) {
		return 0, fmt.Errorf("%w: %v not supported by profile %q",
			ErrInvalidTarget, target, c.profile.Name)
	}
	ns, _ := target.Namespace()
	return ns, nil
}

// resolveImage resolves an image target and name to the texture and
// face index. Image targets are Target2D and the six cube faces;
// TargetCube addresses the whole object and is rejected here.
func (c *Context) resolveImage(target Target, name uint32) (*texture, int, error) {
	if !target.IsImageTarget() {
		return nil, 0, fmt.Errorf("%w: %v does not address a texture image",
			ErrInvalidTarget, target)
	}
	if !c.profile.SupportsTarget(target) {
		return nil, 0, fmt.Errorf("%w: %v not supported by profile %q",
			ErrInvalidTarget, target, c.profile.Name)
	}
	ns, _ := target.Namespace()
	t, _, ok := c.registry.byName(ns, name)
	if !ok {
		return nil, 0, ErrInvalidName
	}
	return t, int(target.FaceIndex()), nil
}

// CreateTexture creates a texture under the given name.
//
// The target selects the namespace: Target2D or TargetCube. Name 0 is
// reserved for the namespace default texture.
func (c *Context) CreateTexture(target Target, name uint32) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkActive(); err != nil {
		return err
	}
	ns, err := c.objectNamespace(target)
	if err != nil {
		return err
	}
	_, err = c.registry.create(ns, name)
	return err
}

// DeleteTexture deletes a texture and releases its level storage.
//
// Units binding the name fall back to the default texture. A surface
// bound to the texture is dropped without restoring the displaced
// level. Shared images published from the texture survive under their
// own references; only the store's dedup entries go away.
func (c *Context) DeleteTexture(target Target, name uint32) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkActive(); err != nil {
		return err
	}
	ns, err := c.objectNamespace(target)
	if err != nil {
		return err
	}
	t, _, ok := c.registry.byName(ns, name)
	if !ok {
		return ErrInvalidName
	}
	if t.isDefault {
		return ErrDefaultTexture
	}

	if bd := c.binder.byTexture(t.id); bd != nil {
		c.detachBinding(bd, false)
	}
	removed, err := c.registry.remove(ns, name)
	if err != nil {
		return err
	}
	removed.releaseAll()
	c.store.Forget(c.id, removed.id)

	for i := range c.units {
		if c.units[i].bound[ns] == name {
			c.units[i].bound[ns] = 0
		}
	}
	return nil
}

// ActiveTexture selects the texture unit targeted by BindTexture and
// BindTexImage.
func (c *Context) ActiveTexture(unit int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkActive(); err != nil {
		return err
	}
	if unit < 0 || unit >= len(c.units) {
		return fmt.Errorf("%w: unit %d of %d", ErrInvalidUnit, unit, len(c.units))
	}
	c.activeUnit = unit
	return nil
}

// BindTexture binds a texture name to the active unit.
//
// The name must exist; binding never creates textures. Name 0 selects
// the namespace default texture.
func (c *Context) BindTexture(target Target, name uint32) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkActive(); err != nil {
		return err
	}
	ns, err := c.objectNamespace(target)
	if err != nil {
		return err
	}
	if _, ok := c.registry.lookup(ns, name); !ok {
		return ErrInvalidName
	}
	c.units[c.activeUnit].bound[ns] = name
	return nil
}

// TexImage specifies the pixels of one texture level, allocating
// storage through the driver.
//
// Cube face levels must be square. The level must lie inside the
// profile's mip range and the dimensions inside the per level maximum.
// A nil pix leaves the level zeroed; otherwise pix must hold at least
// format.ImageBytes(width, height) tightly packed bytes.
//
// Respecifying a level that currently presents a bound surface drops
// that binding and discards the displaced content.
func (c *Context) TexImage(target Target, name uint32, level int, format pixbuf.Format, width, height int, pix []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkActive(); err != nil {
		return err
	}
	t, face, err := c.resolveImage(target, name)
	if err != nil {
		return err
	}
	if level < 0 || level >= c.profile.MaxLevels() {
		return fmt.Errorf("%w: level %d of %d", ErrInvalidLevel, level, c.profile.MaxLevels())
	}
	if !format.IsValid() {
		return pixbuf.ErrInvalidFormat
	}
	maxDim := max(1, c.profile.MaxTextureSize>>level)
	if width <= 0 || height <= 0 || width > maxDim || height > maxDim {
		return fmt.Errorf("%w: %dx%d at level %d (max %d)",
			pixbuf.ErrInvalidDimensions, width, height, level, maxDim)
	}
	if target.IsCubeFace() && width != height {
		return fmt.Errorf("%w: cube faces must be square, got %dx%d",
			pixbuf.ErrInvalidDimensions, width, height)
	}

	storage, err := c.driver.CreateLevelStorage(width, height, format)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrAllocationFailed, err)
	}
	if pix != nil {
		if err := storage.Upload(0, 0, width, height, pix); err != nil {
			storage.Release()
			return err
		}
	}

	if prev, ok := t.level(face, level); ok {
		if _, isSurf := prev.storage.(*surfaceLevelStorage); isSurf {
			c.orphanBinding(t.id)
		}
	}
	if prev := t.setLevel(face, level, &texLevel{storage: storage, revision: c.nextRevision()}); prev != nil {
		prev.storage.Release()
	}
	return nil
}

// TexSubImage overwrites a rectangle of an existing level. The level
// must have been specified first and the rectangle must lie inside it.
func (c *Context) TexSubImage(target Target, name uint32, level, x, y, width, height int, pix []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkActive(); err != nil {
		return err
	}
	t, face, err := c.resolveImage(target, name)
	if err != nil {
		return err
	}
	lvl, ok := t.level(face, level)
	if !ok {
		return fmt.Errorf("%w: level %d not specified", ErrInvalidLevel, level)
	}
	if err := lvl.storage.Upload(x, y, width, height, pix); err != nil {
		return err
	}
	lvl.revision = c.nextRevision()
	return nil
}

// GenerateMipmaps derives the full mip chain of a texture from its
// base level by downscaling.
//
// The target names the object, Target2D or TargetCube. Every face must
// have level 0 specified; cube faces must agree on dimensions and
// format. Levels below the base are replaced.
func (c *Context) GenerateMipmaps(target Target, name uint32) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkActive(); err != nil {
		return err
	}
	ns, err := c.objectNamespace(target)
	if err != nil {
		return err
	}
	t, _, ok := c.registry.byName(ns, name)
	if !ok {
		return ErrInvalidName
	}
	if !t.levelComplete(0) {
		return fmt.Errorf("%w: base level missing or mismatched across faces", ErrInvalidLevel)
	}

	for face := range t.faceCount() {
		if err := c.generateFaceMips(t, face); err != nil {
			return err
		}
	}
	return nil
}

// generateFaceMips rebuilds levels 1..n of one face from level 0.
func (c *Context) generateFaceMips(t *texture, face int) error {
	base, _ := t.level(face, 0)
	src := base.storage.Buffer()
	if src == nil {
		return fmt.Errorf("%w: base level storage unavailable", ErrInvalidLevel)
	}

	levels := pixbuf.MipLevelCount(src.Width(), src.Height())
	cur := src
	for lv := 1; lv < levels; lv++ {
		mip, err := pixbuf.NextMip(cur)
		if err != nil {
			return err
		}
		storage, err := c.driver.CreateLevelStorage(mip.Width(), mip.Height(), mip.Format())
		if err != nil {
			return fmt.Errorf("%w: %w", ErrAllocationFailed, err)
		}
		if err := storage.Upload(0, 0, mip.Width(), mip.Height(), mip.Data()); err != nil {
			storage.Release()
			return err
		}
		if prev := t.setLevel(face, lv, &texLevel{storage: storage, revision: c.nextRevision()}); prev != nil {
			prev.storage.Release()
		}
		cur = mip
	}
	return nil
}

// ValidateSharedImage checks whether a texture level could be
// published as a shared image, without publishing it.
//
// Success means CreateSharedImage would succeed right now: the context
// is live, the target addresses a single image and is supported by the
// profile, the name exists in the target namespace, and the level is
// specified, with all six cube siblings present and matching when the
// target is a cube face.
func (c *Context) ValidateSharedImage(target Target, name uint32, level int) ErrorCode {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _, _, code := c.resolveSharedImage(target, name, level)
	return code
}

// resolveSharedImage runs the shared image checks in precedence order:
// context state, then target, then name, then level.
func (c *Context) resolveSharedImage(target Target, name uint32, level int) (*texture, int, *texLevel, ErrorCode) {
	if c.state != stateActive {
		return nil, 0, nil, InvalidState
	}
	if !target.IsImageTarget() || !c.profile.SupportsTarget(target) {
		return nil, 0, nil, InvalidTarget
	}
	ns, _ := target.Namespace()
	t, _, ok := c.registry.byName(ns, name)
	if !ok {
		return nil, 0, nil, InvalidName
	}
	if level < 0 || level >= c.profile.MaxLevels() {
		return nil, 0, nil, InvalidLevel
	}
	face := int(target.FaceIndex())
	lvl, ok := t.level(face, level)
	if !ok {
		return nil, 0, nil, InvalidLevel
	}
	if !t.levelComplete(level) {
		return nil, 0, nil, InvalidLevel
	}
	return t, face, lvl, Success
}

// CreateSharedImage publishes a copy of a texture level into the share
// group and returns the image holding one reference.
//
// Pixels are copied at call time; later changes to the texture do not
// show through the image. Publishing the same unmodified level again
// returns the same image with its reference count raised. Callers
// release images they no longer need.
func (c *Context) CreateSharedImage(target Target, name uint32, level int) (*imagestore.Image, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, face, lvl, code := c.resolveSharedImage(target, name, level)
	if code != Success {
		return nil, c.sharedImageError(code, target, name, level)
	}

	// Snapshots of a surface backed level never dedup: the surface can
	// change without the context seeing a mutation.
	if _, isSurf := lvl.storage.(*surfaceLevelStorage); isSurf {
		lvl.revision = c.nextRevision()
	}

	key := imagestore.SourceKey{
		Owner:    c.id,
		Texture:  t.id,
		Face:     uint8(face),
		Level:    level,
		Revision: lvl.revision,
	}
	img, err := c.store.Acquire(imagestore.Snapshot{Key: key, Pixels: lvl.storage.Buffer()})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAllocationFailed, err)
	}
	Logger().Debug("shared image created",
		"context", c.id, "key", key.String(), "image", img.ID())
	return img, nil
}

// sharedImageError maps a validation code back to its sentinel error.
func (c *Context) sharedImageError(code ErrorCode, target Target, name uint32, level int) error {
	switch code {
	case InvalidState:
		return ErrContextDestroyed
	case InvalidTarget:
		return fmt.Errorf("%w: %v", ErrInvalidTarget, target)
	case InvalidName:
		return fmt.Errorf("%w: %d", ErrInvalidName, name)
	case InvalidLevel:
		return fmt.Errorf("%w: level %d", ErrInvalidLevel, level)
	default:
		return fmt.Errorf("glcontext: shared image validation failed: %v", code)
	}
}

// ImportSharedImage copies a shared image into level 0 of a texture.
//
// The image is borrowed for the duration of the call; its reference
// count is untouched. The texture keeps its own copy, so the caller
// may release the image immediately afterwards.
func (c *Context) ImportSharedImage(target Target, name uint32, img *imagestore.Image) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkActive(); err != nil {
		return err
	}
	if img == nil {
		return ErrImageReleased
	}
	t, face, err := c.resolveImage(target, name)
	if err != nil {
		return err
	}
	w, h := img.Width(), img.Height()
	if w > c.profile.MaxTextureSize || h > c.profile.MaxTextureSize {
		return fmt.Errorf("%w: image %dx%d exceeds profile limit %d",
			pixbuf.ErrInvalidDimensions, w, h, c.profile.MaxTextureSize)
	}
	if target.IsCubeFace() && w != h {
		return fmt.Errorf("%w: cube faces must be square, got %dx%d",
			pixbuf.ErrInvalidDimensions, w, h)
	}

	storage, err := c.driver.CreateLevelStorage(w, h, img.Format())
	if err != nil {
		return fmt.Errorf("%w: %w", ErrAllocationFailed, err)
	}
	buf, err := img.Clone()
	if err != nil {
		storage.Release()
		return fmt.Errorf("%w: %w", ErrImageReleased, err)
	}
	if err := storage.Upload(0, 0, w, h, buf.Data()); err != nil {
		storage.Release()
		return err
	}

	if prev, ok := t.level(face, 0); ok {
		if _, isSurf := prev.storage.(*surfaceLevelStorage); isSurf {
			c.orphanBinding(t.id)
		}
	}
	if prev := t.setLevel(face, 0, &texLevel{storage: storage, revision: c.nextRevision()}); prev != nil {
		prev.storage.Release()
	}
	Logger().Debug("shared image imported",
		"context", c.id, "image", img.ID(), "texture", name)
	return nil
}
