package glcontext

// Target identifies what a texture operation addresses: a whole texture
// object (Target2D, TargetCube) or a single cube face image.
type Target uint8

const (
	// Target2D addresses a two dimensional texture.
	Target2D Target = iota

	// TargetCube addresses a whole cube map texture. Image level
	// operations must address an individual face instead.
	TargetCube

	// TargetCubePosX addresses the positive X face of a cube map.
	TargetCubePosX

	// TargetCubeNegX addresses the negative X face of a cube map.
	TargetCubeNegX

	// TargetCubePosY addresses the positive Y face of a cube map.
	TargetCubePosY

	// TargetCubeNegY addresses the negative Y face of a cube map.
	TargetCubeNegY

	// TargetCubePosZ addresses the positive Z face of a cube map.
	TargetCubePosZ

	// TargetCubeNegZ addresses the negative Z face of a cube map.
	TargetCubeNegZ

	// targetCount is the number of targets (for internal use).
	targetCount
)

// String returns a string representation of the target.
func (t Target) String() string {
	switch t {
	case Target2D:
		return "2D"
	case TargetCube:
		return "Cube"
	case TargetCubePosX:
		return "Cube+X"
	case TargetCubeNegX:
		return "Cube-X"
	case TargetCubePosY:
		return "Cube+Y"
	case TargetCubeNegY:
		return "Cube-Y"
	case TargetCubePosZ:
		return "Cube+Z"
	case TargetCubeNegZ:
		return "Cube-Z"
	default:
		return "Unknown"
	}
}

// IsValid returns true if the target is a known target.
func (t Target) IsValid() bool {
	return t < targetCount
}

// IsCubeFace returns true if the target addresses a single cube face.
func (t Target) IsCubeFace() bool {
	return t >= TargetCubePosX && t <= TargetCubeNegZ
}

// IsImageTarget returns true if the target can address a texture level
// image: Target2D or a cube face. TargetCube addresses the whole object
// and is not an image target.
func (t Target) IsImageTarget() bool {
	return t == Target2D || t.IsCubeFace()
}

// FaceIndex returns the face slot for an image target: 0 for Target2D,
// 0 through 5 for cube faces in declaration order.
func (t Target) FaceIndex() uint8 {
	if t.IsCubeFace() {
		return uint8(t - TargetCubePosX)
	}
	return 0
}

// Namespace returns the name namespace the target belongs to. Cube faces
// share the cube texture's namespace. Returns false for invalid targets.
func (t Target) Namespace() (Namespace, bool) {
	switch {
	case t == Target2D:
		return Namespace2D, true
	case t == TargetCube || t.IsCubeFace():
		return NamespaceCube, true
	default:
		return Namespace2D, false
	}
}

// ParseTarget parses a target name such as "2d", "cube" or "cube+x".
// The second result is false if the name is not recognized.
func ParseTarget(name string) (Target, bool) {
	switch name {
	case "2d", "2D":
		return Target2D, true
	case "cube", "cubemap":
		return TargetCube, true
	case "cube+x":
		return TargetCubePosX, true
	case "cube-x":
		return TargetCubeNegX, true
	case "cube+y":
		return TargetCubePosY, true
	case "cube-y":
		return TargetCubeNegY, true
	case "cube+z":
		return TargetCubePosZ, true
	case "cube-z":
		return TargetCubeNegZ, true
	default:
		return Target2D, false
	}
}

// CubeFaces lists the six cube face targets in face index order.
func CubeFaces() [6]Target {
	return [6]Target{
		TargetCubePosX, TargetCubeNegX,
		TargetCubePosY, TargetCubeNegY,
		TargetCubePosZ, TargetCubeNegZ,
	}
}

// Namespace is a texture name namespace. Names are unique within a
// namespace; the same numeric name may exist independently in both.
type Namespace uint8

const (
	// Namespace2D holds 2D texture names.
	Namespace2D Namespace = iota

	// NamespaceCube holds cube map texture names.
	NamespaceCube

	// namespaceCount is the number of namespaces (for internal use).
	namespaceCount
)

// String returns a string representation of the namespace.
func (n Namespace) String() string {
	switch n {
	case Namespace2D:
		return "2D"
	case NamespaceCube:
		return "Cube"
	default:
		return "Unknown"
	}
}
