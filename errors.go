package glcontext

import "errors"

// ErrorCode is the closed result enum reported across the API dispatch
// boundary. ValidateSharedImage returns it directly; CodeOf derives it
// from any error produced by the other operations.
type ErrorCode uint8

const (
	// Success indicates the operation is valid.
	Success ErrorCode = iota

	// InvalidState indicates the context cannot perform the operation,
	// typically because it has been destroyed.
	InvalidState

	// InvalidSurface indicates a missing, closed or already bound surface.
	InvalidSurface

	// InvalidTarget indicates a target outside the context's profile or
	// one that cannot address the requested object.
	InvalidTarget

	// InvalidName indicates no texture with the given name exists in the
	// target's namespace, or the name cannot be used for the operation.
	InvalidName

	// InvalidLevel indicates a level outside the valid range, an
	// unspecified level, or a cube level whose sibling faces disagree.
	InvalidLevel

	// AllocationFailed indicates the operation was valid but storage for
	// it could not be obtained.
	AllocationFailed
)

// String returns the name of the error code.
func (c ErrorCode) String() string {
	switch c {
	case Success:
		return "Success"
	case InvalidState:
		return "InvalidState"
	case InvalidSurface:
		return "InvalidSurface"
	case InvalidTarget:
		return "InvalidTarget"
	case InvalidName:
		return "InvalidName"
	case InvalidLevel:
		return "InvalidLevel"
	case AllocationFailed:
		return "AllocationFailed"
	default:
		return "Unknown"
	}
}

// Sentinel errors returned by context operations. Every error a context
// returns wraps one of these, so callers can branch with errors.Is and
// dispatch layers can translate with CodeOf.
var (
	// ErrContextDestroyed is returned when operating on a destroyed
	// context, including a second Destroy.
	ErrContextDestroyed = errors.New("glcontext: context destroyed")

	// ErrInvalidSurface is returned for nil or closed surfaces.
	ErrInvalidSurface = errors.New("glcontext: invalid surface")

	// ErrSurfaceBound is returned when binding a surface that is already
	// bound to a texture of this context.
	ErrSurfaceBound = errors.New("glcontext: surface already bound")

	// ErrInvalidTarget is returned for unknown targets, targets excluded
	// by the profile, and targets that cannot address the operation.
	ErrInvalidTarget = errors.New("glcontext: invalid target")

	// ErrInvalidName is returned when no texture with the name exists in
	// the target's namespace.
	ErrInvalidName = errors.New("glcontext: no texture with that name")

	// ErrNameInUse is returned when creating a texture under a name that
	// already exists.
	ErrNameInUse = errors.New("glcontext: texture name already in use")

	// ErrDefaultTexture is returned when creating or deleting the
	// reserved default texture name 0.
	ErrDefaultTexture = errors.New("glcontext: name 0 is the default texture")

	// ErrInvalidLevel is returned for out of range, unspecified or
	// inconsistent texture levels.
	ErrInvalidLevel = errors.New("glcontext: invalid texture level")

	// ErrInvalidUnit is returned for texture units outside the profile's
	// range.
	ErrInvalidUnit = errors.New("glcontext: texture unit out of range")

	// ErrAllocationFailed is returned when storage could not be obtained
	// for an otherwise valid operation.
	ErrAllocationFailed = errors.New("glcontext: allocation failed")

	// ErrImageReleased is returned when importing a shared image whose
	// references have all been released.
	ErrImageReleased = errors.New("glcontext: shared image already released")
)

// CodeOf translates an operation error into the dispatch ErrorCode.
// nil maps to Success. Errors that carry no taxonomy sentinel report
// InvalidState.
func CodeOf(err error) ErrorCode {
	switch {
	case err == nil:
		return Success
	case errors.Is(err, ErrInvalidSurface), errors.Is(err, ErrSurfaceBound):
		return InvalidSurface
	case errors.Is(err, ErrInvalidTarget):
		return InvalidTarget
	case errors.Is(err, ErrInvalidName),
		errors.Is(err, ErrNameInUse),
		errors.Is(err, ErrDefaultTexture):
		return InvalidName
	case errors.Is(err, ErrInvalidLevel):
		return InvalidLevel
	case errors.Is(err, ErrAllocationFailed):
		return AllocationFailed
	default:
		return InvalidState
	}
}
