package glcontext

import (
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/gogpu/glcontext/pixbuf"
)

// Profile limit bounds.
const (
	// MinTextureSize is the smallest maximum texture size a profile may
	// declare.
	MinTextureSize = 64

	// MinTextureUnits is the smallest number of texture units a profile
	// may declare.
	MinTextureUnits = 2
)

// ErrInvalidProfile is returned when a profile fails validation.
var ErrInvalidProfile = errors.New("glcontext: invalid profile")

// Profile describes the capability envelope a context is created with.
//
// Profiles are value types fixed at context creation; a context never
// changes capabilities after New. The zero Profile is invalid, use one
// of the built-in constructors or LoadProfile.
type Profile struct {
	// Name identifies the profile in logs and tooling.
	Name string `toml:"name"`

	// MaxTextureSize is the maximum width and height of a texture level.
	MaxTextureSize int `toml:"max_texture_size"`

	// MaxTextureUnits is the number of texture units available to
	// ActiveTexture.
	MaxTextureUnits int `toml:"max_texture_units"`

	// CubeMaps enables cube map targets. Profiles without cube maps
	// reject TargetCube and all face targets.
	CubeMaps bool `toml:"cube_maps"`
}

// ES2Profile returns the default profile: 2D and cube map textures with
// ES2 class limits.
func ES2Profile() Profile {
	return Profile{
		Name:            "es2",
		MaxTextureSize:  4096,
		MaxTextureUnits: 8,
		CubeMaps:        true,
	}
}

// Profile2D returns a reduced profile supporting only 2D textures, for
// consumers that composite flat surfaces and never sample cube maps.
func Profile2D() Profile {
	return Profile{
		Name:            "2d",
		MaxTextureSize:  4096,
		MaxTextureUnits: 4,
		CubeMaps:        false,
	}
}

// Validate checks the profile limits.
func (p Profile) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidProfile)
	}
	if p.MaxTextureSize < MinTextureSize {
		return fmt.Errorf("%w: max_texture_size %d below minimum %d",
			ErrInvalidProfile, p.MaxTextureSize, MinTextureSize)
	}
	if p.MaxTextureUnits < MinTextureUnits {
		return fmt.Errorf("%w: max_texture_units %d below minimum %d",
			ErrInvalidProfile, p.MaxTextureUnits, MinTextureUnits)
	}
	return nil
}

// SupportsTarget reports whether the profile allows the target.
func (p Profile) SupportsTarget(t Target) bool {
	if !t.IsValid() {
		return false
	}
	if t == Target2D {
		return true
	}
	return p.CubeMaps
}

// MaxLevels returns the number of mip levels of a full-size texture,
// the exclusive upper bound for level arguments.
func (p Profile) MaxLevels() int {
	return pixbuf.MipLevelCount(p.MaxTextureSize, p.MaxTextureSize)
}

// LoadProfile reads a profile from a TOML file and validates it.
func LoadProfile(path string) (Profile, error) {
	var p Profile
	if _, err := toml.DecodeFile(path, &p); err != nil {
		return Profile{}, fmt.Errorf("glcontext: read profile %s: %w", path, err)
	}
	if err := p.Validate(); err != nil {
		return Profile{}, err
	}
	return p, nil
}

// Save writes the profile as a TOML file.
func (p Profile) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("glcontext: write profile %s: %w", path, err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(p); err != nil {
		return fmt.Errorf("glcontext: encode profile %s: %w", path, err)
	}
	return nil
}
