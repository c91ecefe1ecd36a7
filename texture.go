package glcontext

import "github.com/gogpu/glcontext/pixbuf"

// cubeFaceCount is the number of faces of a cube map texture.
const cubeFaceCount = 6

// texLevel is one mip level of one texture face.
//
// The revision changes whenever the level pixels change. It feeds the
// shared image source key, so two snapshots of the same level dedup
// only while the pixels are untouched in between.
type texLevel struct {
	storage  LevelStorage
	revision uint64
}

// width returns the level width, or 0 when the storage is gone.
func (l *texLevel) width() int {
	if b := l.storage.Buffer(); b != nil {
		return b.Width()
	}
	return 0
}

// height returns the level height, or 0 when the storage is gone.
func (l *texLevel) height() int {
	if b := l.storage.Buffer(); b != nil {
		return b.Height()
	}
	return 0
}

// format returns the level pixel format.
func (l *texLevel) format() pixbuf.Format {
	if b := l.storage.Buffer(); b != nil {
		return b.Format()
	}
	return pixbuf.Format(0)
}

// texture is one named texture object inside a context namespace.
//
// 2D textures use face index 0 only. Cube textures keep a level map
// per face. Level maps are allocated lazily on first specification, so
// an unused default texture costs nothing.
type texture struct {
	id        uint64
	ns        Namespace
	name      uint32
	isDefault bool
	faces     [cubeFaceCount]map[int]*texLevel
}

func newTexture(id uint64, ns Namespace, name uint32, isDefault bool) texture {
	return texture{id: id, ns: ns, name: name, isDefault: isDefault}
}

// faceCount returns how many faces the texture addresses.
func (t *texture) faceCount() int {
	if t.ns == NamespaceCube {
		return cubeFaceCount
	}
	return 1
}

// level returns the level of a face, if it has been specified.
func (t *texture) level(face, level int) (*texLevel, bool) {
	if face < 0 || face >= cubeFaceCount || t.faces[face] == nil {
		return nil, false
	}
	l, ok := t.faces[face][level]
	return l, ok
}

// setLevel installs or replaces the level of a face.
// The previous level, if any, is returned so the caller can release
// its storage.
func (t *texture) setLevel(face, level int, l *texLevel) *texLevel {
	if t.faces[face] == nil {
		t.faces[face] = make(map[int]*texLevel)
	}
	prev := t.faces[face][level]
	t.faces[face][level] = l
	return prev
}

// dropLevel removes a level without releasing its storage.
// The removed level, if any, is returned.
func (t *texture) dropLevel(face, level int) *texLevel {
	if t.faces[face] == nil {
		return nil
	}
	prev := t.faces[face][level]
	delete(t.faces[face], level)
	return prev
}

// releaseAll releases every level storage and empties the level maps.
func (t *texture) releaseAll() {
	for face := range t.faces {
		for _, l := range t.faces[face] {
			if l.storage != nil {
				l.storage.Release()
			}
		}
		t.faces[face] = nil
	}
}

// eachLevel visits every specified level of every face.
func (t *texture) eachLevel(fn func(face, level int, l *texLevel)) {
	for face := range t.faces {
		for lv, l := range t.faces[face] {
			fn(face, lv, l)
		}
	}
}

// levelComplete reports whether the level is specified on every face
// the target addresses. For cube textures the siblings must agree on
// dimensions and format, so the six faces form one coherent image set.
func (t *texture) levelComplete(level int) bool {
	if t.ns != NamespaceCube {
		_, ok := t.level(0, level)
		return ok
	}

	var w, h int
	var format pixbuf.Format
	for face := range cubeFaceCount {
		l, ok := t.level(face, level)
		if !ok || l.storage == nil || l.storage.Buffer() == nil {
			return false
		}
		if face == 0 {
			w, h, format = l.width(), l.height(), l.format()
			continue
		}
		if l.width() != w || l.height() != h || l.format() != format {
			return false
		}
	}
	return true
}
