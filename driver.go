package glcontext

import (
	"errors"
	"sort"
	"sync"

	"github.com/gogpu/glcontext/pixbuf"
)

// Driver allocates texture level storage for a context.
//
// A driver instance belongs to the context it was created for and is
// called only from that context's goroutine. Implementations decide
// where pixels live: the software driver keeps them on the CPU, the gpu
// driver shadows them alongside device textures.
type Driver interface {
	// Name returns the driver's registry name.
	Name() string

	// CreateLevelStorage allocates storage for one texture level.
	CreateLevelStorage(width, height int, format pixbuf.Format) (LevelStorage, error)

	// Close releases driver resources. The context calls it once during
	// destruction of a driver it owns.
	Close() error
}

// LevelStorage is the pixel storage of a single texture level.
type LevelStorage interface {
	// Buffer returns the CPU-visible pixels of the level. The buffer is
	// owned by the storage; callers copy out of it rather than retain it.
	Buffer() *pixbuf.Buffer

	// Upload writes tightly packed pixel rows into the rectangle
	// (x, y, w, h).
	Upload(x, y, w, h int, pix []byte) error

	// Release frees the storage. The level must not be used afterwards.
	Release()
}

// DriverFactory creates a driver for a context with the given profile.
// Implementations should validate the profile and return descriptive
// errors.
type DriverFactory func(p Profile) (Driver, error)

// DriverEntry represents a registered driver.
type DriverEntry struct {
	// Name is the unique identifier for this driver.
	Name string

	// Priority determines selection order (higher = preferred).
	// Standard priorities:
	//   - 100: GPU drivers
	//   - 50: hardware-assisted software
	//   - 10: pure software drivers
	Priority int

	// Factory creates driver instances.
	Factory DriverFactory

	// Available reports if the driver is usable on this system.
	Available func() bool
}

// globalDrivers is the default registry.
var globalDrivers = &DriverRegistry{}

// DriverRegistry manages registered drivers.
//
// The registry enables alternative drivers to register themselves
// without requiring changes to the core library.
//
// Example registration:
//
//	func init() {
//	    glcontext.RegisterDriver("gpu", 100, gpuFactory, gpuAvailable)
//	}
type DriverRegistry struct {
	mu      sync.RWMutex
	entries map[string]*DriverEntry
}

// NewDriverRegistry creates a new empty registry.
// Most code should use the global registry via RegisterDriver.
func NewDriverRegistry() *DriverRegistry {
	return &DriverRegistry{
		entries: make(map[string]*DriverEntry),
	}
}

// RegisterDriver adds a driver to the global registry.
//
// If available is nil, the driver is assumed always available.
// Registering a name that already exists replaces the previous entry.
func RegisterDriver(name string, priority int, factory DriverFactory, available func() bool) {
	globalDrivers.Register(name, priority, factory, available)
}

// UnregisterDriver removes a driver from the global registry.
func UnregisterDriver(name string) {
	globalDrivers.Unregister(name)
}

// Drivers returns all registered driver names sorted by priority
// (highest first).
func Drivers() []string {
	return globalDrivers.List()
}

// AvailableDrivers returns names of all available drivers sorted by
// priority.
func AvailableDrivers() []string {
	return globalDrivers.Available()
}

// GetDriver returns information about a specific driver.
func GetDriver(name string) (*DriverEntry, bool) {
	return globalDrivers.Get(name)
}

// Register adds a driver to this registry.
func (r *DriverRegistry) Register(name string, priority int, factory DriverFactory, available func() bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.entries == nil {
		r.entries = make(map[string]*DriverEntry)
	}

	if available == nil {
		available = func() bool { return true }
	}

	r.entries[name] = &DriverEntry{
		Name:      name,
		Priority:  priority,
		Factory:   factory,
		Available: available,
	}
}

// Unregister removes a driver from this registry.
func (r *DriverRegistry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.entries, name)
}

// List returns all registered driver names sorted by priority.
func (r *DriverRegistry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.sortedNames(false)
}

// Available returns names of all available drivers sorted by priority.
func (r *DriverRegistry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.sortedNames(true)
}

// Get returns information about a specific driver.
func (r *DriverRegistry) Get(name string) (*DriverEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.entries[name]
	if !ok {
		return nil, false
	}

	// Return a copy to prevent modification
	entryCopy := *entry
	return &entryCopy, true
}

// New creates a driver using the best available entry.
func (r *DriverRegistry) New(p Profile) (Driver, error) {
	r.mu.RLock()
	available := r.sortedNames(true)
	r.mu.RUnlock()

	if len(available) == 0 {
		return nil, ErrNoDriverAvailable
	}

	// Try each available driver in priority order
	var lastErr error
	for _, name := range available {
		d, err := r.NewByName(name, p)
		if err == nil {
			return d, nil
		}
		lastErr = err
	}

	if lastErr != nil {
		return nil, lastErr
	}
	return nil, ErrNoDriverAvailable
}

// NewByName creates a driver using a specific entry.
func (r *DriverRegistry) NewByName(name string, p Profile) (Driver, error) {
	r.mu.RLock()
	entry, ok := r.entries[name]
	r.mu.RUnlock()

	if !ok {
		return nil, &DriverNotFoundError{Name: name}
	}

	if !entry.Available() {
		return nil, &DriverUnavailableError{Name: name}
	}

	return entry.Factory(p)
}

// sortedNames returns driver names sorted by priority (highest first).
// If onlyAvailable is true, filters to available drivers only.
// Must be called with lock held.
func (r *DriverRegistry) sortedNames(onlyAvailable bool) []string {
	if len(r.entries) == 0 {
		return nil
	}

	type entry struct {
		name     string
		priority int
	}

	entries := make([]entry, 0, len(r.entries))
	for name, e := range r.entries {
		if onlyAvailable && !e.Available() {
			continue
		}
		entries = append(entries, entry{name: name, priority: e.Priority})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].priority > entries[j].priority
	})

	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.name
	}
	return names
}

// Errors.
var (
	// ErrNoDriverAvailable is returned when no drivers are registered or
	// available on the current system.
	ErrNoDriverAvailable = errors.New("glcontext: no driver available")

	// ErrStorageReleased is returned when uploading to released level
	// storage.
	ErrStorageReleased = errors.New("glcontext: level storage released")
)

// DriverNotFoundError indicates a named driver is not registered.
type DriverNotFoundError struct {
	Name string
}

func (e *DriverNotFoundError) Error() string {
	return "glcontext: driver not found: " + e.Name
}

// DriverUnavailableError indicates a driver exists but is not available.
type DriverUnavailableError struct {
	Name string
}

func (e *DriverUnavailableError) Error() string {
	return "glcontext: driver unavailable: " + e.Name
}
