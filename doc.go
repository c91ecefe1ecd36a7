// Package glcontext provides a rendering context abstraction for Go.
//
// # Overview
//
// glcontext models the context boundary of a graphics driver: named
// textures in per-target namespaces, surfaces bound as texture storage,
// and texture levels published as shared images that outlive the
// context that made them. It is designed to integrate with the GoGPU
// ecosystem and ships with a pure Go software driver.
//
// # Quick Start
//
//	import (
//		"github.com/gogpu/glcontext"
//		"github.com/gogpu/glcontext/pixbuf"
//	)
//
//	ctx, err := glcontext.New()
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer ctx.Destroy()
//
//	// Specify a texture level and publish it.
//	ctx.CreateTexture(glcontext.Target2D, 7)
//	ctx.TexImage(glcontext.Target2D, 7, 0, pixbuf.FormatRGBA8, 64, 64, pixels)
//
//	img, err := ctx.CreateSharedImage(glcontext.Target2D, 7, 0)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer img.Release()
//
// # Surfaces as Textures
//
// A surface's pixel storage can serve as level 0 of a 2D texture:
//
//	pb, _ := surface.NewPbuffer(256, 256, pixbuf.FormatRGBA8)
//	ctx.BindTexture(glcontext.Target2D, 7)
//	ctx.BindTexImage(pb)
//	// ... the texture now reads the surface pixels ...
//	ctx.ReleaseTexImage(pb)
//
// The level content displaced by the binding comes back on release.
// Surfaces that announce invalidation (resize, close) are unbound
// automatically.
//
// # Sharing
//
// Contexts created in the same ShareGroup publish into one image
// store. Images are copies: mutating the source texture afterwards
// does not change them. They are reference counted and remain readable
// after every member context is destroyed.
//
// # Architecture
//
// The module is organized into:
//   - Public API: Context, Profile, Target, ShareGroup, Driver
//   - pixbuf: pixel buffer formats, pooling, downscaling
//   - surface: the surface abstraction and the Pbuffer implementation
//   - imagestore: the reference counted shared image store
//   - driver/gpu: level storage on a GoGPU device
//
// # Thread Safety
//
// Context methods are safe for concurrent use; operations are
// serialized per context. ShareGroup stores are safe for concurrent
// use across contexts. Surfaces are single goroutine objects.
package glcontext

// Version information
const (
	// Version is the current version of the library
	Version = "0.1.0"

	// VersionMajor is the major version
	VersionMajor = 0

	// VersionMinor is the minor version
	VersionMinor = 1

	// VersionPatch is the patch version
	VersionPatch = 0
)
