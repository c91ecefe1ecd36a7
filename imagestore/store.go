package imagestore

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gogpu/glcontext/pixbuf"
)

// Store errors.
var (
	// ErrBudgetExceeded is returned when an acquire would exceed the
	// store's memory budget.
	ErrBudgetExceeded = errors.New("imagestore: memory budget exceeded")

	// ErrStoreClosed is returned when acquiring from a closed store.
	ErrStoreClosed = errors.New("imagestore: store closed")

	// ErrImageReleased is returned when operating on a fully released image.
	ErrImageReleased = errors.New("imagestore: image already released")

	// ErrInvalidSnapshot is returned when a snapshot has no pixel data.
	ErrInvalidSnapshot = errors.New("imagestore: invalid snapshot")
)

// Default store limits.
const (
	// DefaultMaxMemoryMB is the default snapshot memory budget (256 MB).
	DefaultMaxMemoryMB = 256

	// MinMemoryMB is the minimum allowed memory budget (16 MB).
	MinMemoryMB = 16

	// DefaultPoolPerBucket is the default number of recycled buffers kept
	// per size/format bucket.
	DefaultPoolPerBucket = 8
)

// StoreStats contains image store usage statistics.
type StoreStats struct {
	// TotalBytes is the total memory budget in bytes.
	TotalBytes uint64

	// UsedBytes is the memory held by live images in bytes.
	UsedBytes uint64

	// AvailableBytes is the remaining memory budget.
	AvailableBytes uint64

	// ImageCount is the number of images tracked for dedup.
	ImageCount int

	// HitCount is the number of acquires served by an existing image.
	HitCount uint64

	// MissCount is the number of acquires that copied a new image.
	MissCount uint64

	// Utilization is the fraction of budget used (0.0 to 1.0).
	Utilization float64
}

// String returns a human-readable string of store stats.
func (s StoreStats) String() string {
	return fmt.Sprintf("ImageStore[%.1f%% used, %d/%d MB, %d images, %d hits, %d misses]",
		s.Utilization*100,
		s.UsedBytes/(1024*1024),
		s.TotalBytes/(1024*1024),
		s.ImageCount,
		s.HitCount,
		s.MissCount)
}

// Config holds configuration for creating a Store.
type Config struct {
	// MaxMemoryMB is the snapshot memory budget in megabytes.
	// Defaults to DefaultMaxMemoryMB if <= 0; values below MinMemoryMB
	// are raised to MinMemoryMB.
	MaxMemoryMB int

	// PoolPerBucket limits recycled buffers kept per size/format bucket.
	// Defaults to DefaultPoolPerBucket if <= 0.
	PoolPerBucket int
}

// Store tracks shared images created from texture level snapshots and
// enforces a memory budget over them.
//
// The store deduplicates by SourceKey: acquiring a snapshot of a level
// version that already has a live image returns that image with its
// count bumped instead of copying again.
//
// Store is safe for concurrent use.
type Store struct {
	mu sync.RWMutex

	budgetBytes uint64
	usedBytes   uint64

	entries map[SourceKey]*Image
	pool    *pixbuf.Pool

	nextID atomic.Uint64

	hitCount  uint64
	missCount uint64

	closed bool
}

// NewStore creates a new image store with the given configuration.
func NewStore(config Config) *Store {
	maxMB := config.MaxMemoryMB
	if maxMB <= 0 {
		maxMB = DefaultMaxMemoryMB
	}
	if maxMB < MinMemoryMB {
		maxMB = MinMemoryMB
	}

	perBucket := config.PoolPerBucket
	if perBucket <= 0 {
		perBucket = DefaultPoolPerBucket
	}

	s := &Store{
		budgetBytes: uint64(maxMB) * 1024 * 1024,
		entries:     make(map[SourceKey]*Image),
		pool:        pixbuf.NewPool(perBucket),
	}

	// Start ID generation at 1 (0 is invalid)
	s.nextID.Store(1)

	return s
}

// newID generates a unique image id.
func (s *Store) newID() uint64 {
	return s.nextID.Add(1) - 1
}

// Acquire returns a live image for the snapshot, copying the pixels only
// when no image for the same source version exists. The returned image
// carries one new reference owned by the caller.
//
// Returns ErrBudgetExceeded when copying would exceed the memory budget
// and ErrInvalidSnapshot when the snapshot carries no usable pixels.
func (s *Store) Acquire(snap Snapshot) (*Image, error) {
	if snap.Pixels == nil || snap.Pixels.IsEmpty() || !snap.Pixels.Format().IsValid() {
		return nil, ErrInvalidSnapshot
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	// Dedup: an image for this exact level version already exists.
	if img, ok := s.entries[snap.Key]; ok {
		img.refs++
		s.hitCount++
		return img, nil
	}

	// Tight size, not snap.Pixels.ByteSize: source buffers may carry
	// stride padding that the pooled copy will not.
	w, h := snap.Pixels.Bounds()
	required := uint64(snap.Pixels.Format().ImageBytes(w, h))
	if required > s.budgetBytes {
		return nil, fmt.Errorf("%w: snapshot size %d bytes exceeds total budget %d bytes",
			ErrBudgetExceeded, required, s.budgetBytes)
	}
	if s.usedBytes+required > s.budgetBytes {
		return nil, fmt.Errorf("%w: %d bytes used, %d requested, budget %d bytes",
			ErrBudgetExceeded, s.usedBytes, required, s.budgetBytes)
	}

	buf := s.pool.Get(w, h, snap.Pixels.Format())
	if buf == nil {
		return nil, ErrInvalidSnapshot
	}
	if err := snap.Pixels.CopyInto(buf); err != nil {
		s.pool.Put(buf)
		return nil, err
	}

	img := &Image{
		id:     s.newID(),
		key:    snap.Key,
		store:  s,
		width:  w,
		height: h,
		format: snap.Pixels.Format(),
		refs:   1,
		buf:    buf,
	}

	s.entries[snap.Key] = img
	s.usedBytes += required
	s.missCount++

	return img, nil
}

// retain adds a reference to img.
func (s *Store) retain(img *Image) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if img.released {
		return ErrImageReleased
	}
	img.refs++
	return nil
}

// release drops one reference from img, recycling its storage at zero.
func (s *Store) release(img *Image) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if img.released {
		return ErrImageReleased
	}

	img.refs--
	if img.refs > 0 {
		return nil
	}

	img.released = true
	if cur, ok := s.entries[img.key]; ok && cur == img {
		delete(s.entries, img.key)
	}
	s.usedBytes -= uint64(img.buf.ByteSize())
	s.pool.Put(img.buf)
	img.buf = nil

	return nil
}

// Forget drops dedup tracking for every image snapshotted from the given
// texture. Live images keep their pixels and references; they are simply
// no longer found by future acquires. Returns the number of entries
// dropped.
//
// Called when a texture is deleted or its owning context is destroyed.
func (s *Store) Forget(owner, texture uint64) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for k := range s.entries {
		if k.Owner == owner && k.Texture == texture {
			delete(s.entries, k)
			n++
		}
	}
	return n
}

// ForgetOwner drops dedup tracking for every image snapshotted from any
// texture of the given context. Returns the number of entries dropped.
func (s *Store) ForgetOwner(owner uint64) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for k := range s.entries {
		if k.Owner == owner {
			delete(s.entries, k)
			n++
		}
	}
	return n
}

// Stats returns current store statistics.
func (s *Store) Stats() StoreStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var utilization float64
	if s.budgetBytes > 0 {
		utilization = float64(s.usedBytes) / float64(s.budgetBytes)
	}

	return StoreStats{
		TotalBytes:     s.budgetBytes,
		UsedBytes:      s.usedBytes,
		AvailableBytes: s.budgetBytes - s.usedBytes,
		ImageCount:     len(s.entries),
		HitCount:       s.hitCount,
		MissCount:      s.missCount,
		Utilization:    utilization,
	}
}

// Close marks the store closed. Future acquires fail with ErrStoreClosed;
// live images remain usable and releasable. Close is idempotent.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	s.entries = nil
	return nil
}
