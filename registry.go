package glcontext

import "github.com/gogpu/glcontext/internal/arena"

// textureRegistry owns the texture objects of one context.
//
// Each namespace has its own name table, so a 2D texture and a cube
// texture may share a name without colliding. Name 0 of each namespace
// is the default texture. It exists from the start, cannot be created
// or deleted, and accepts image data like any other texture.
//
// Objects live in a generational arena. Handles held across deletes go
// stale instead of aliasing a recycled slot.
type textureRegistry struct {
	slots  *arena.Arena[texture]
	names  [namespaceCount]map[uint32]arena.Handle
	nextID uint64
}

func newTextureRegistry() *textureRegistry {
	r := &textureRegistry{slots: arena.New[texture]()}
	for ns := range r.names {
		h := r.slots.Insert(newTexture(r.newID(), Namespace(ns), 0, true))
		r.names[ns] = map[uint32]arena.Handle{0: h}
	}
	return r
}

// newID returns the next object ID. IDs start at 1 and are never
// reused within a registry.
func (r *textureRegistry) newID() uint64 {
	r.nextID++
	return r.nextID
}

// create adds a texture under the given name.
func (r *textureRegistry) create(ns Namespace, name uint32) (arena.Handle, error) {
	if name == 0 {
		return arena.Handle{}, ErrDefaultTexture
	}
	if _, exists := r.names[ns][name]; exists {
		return arena.Handle{}, ErrNameInUse
	}
	h := r.slots.Insert(newTexture(r.newID(), ns, name, false))
	r.names[ns][name] = h
	return h, nil
}

// remove deletes a texture and returns the removed object so the
// caller can release its level storage.
func (r *textureRegistry) remove(ns Namespace, name uint32) (texture, error) {
	if name == 0 {
		return texture{}, ErrDefaultTexture
	}
	h, ok := r.names[ns][name]
	if !ok {
		return texture{}, ErrInvalidName
	}
	delete(r.names[ns], name)
	t, _ := r.slots.Remove(h)
	return t, nil
}

// lookup resolves a name to its handle.
func (r *textureRegistry) lookup(ns Namespace, name uint32) (arena.Handle, bool) {
	h, ok := r.names[ns][name]
	return h, ok
}

// get dereferences a handle. The pointer is valid until the next
// insert into the registry.
func (r *textureRegistry) get(h arena.Handle) (*texture, bool) {
	return r.slots.Get(h)
}

// byName resolves a name directly to the texture object.
func (r *textureRegistry) byName(ns Namespace, name uint32) (*texture, arena.Handle, bool) {
	h, ok := r.names[ns][name]
	if !ok {
		return nil, arena.Handle{}, false
	}
	t, ok := r.slots.Get(h)
	return t, h, ok
}

// each visits every texture in the registry.
func (r *textureRegistry) each(fn func(h arena.Handle, t *texture) bool) {
	r.slots.Each(fn)
}

// count returns the number of live textures, defaults included.
func (r *textureRegistry) count() int {
	return r.slots.Len()
}
