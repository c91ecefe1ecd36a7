package pixbuf

import "sync"

// Pool is a thread-safe pool for reusing Buffer instances.
//
// Pool groups buffers by their dimensions and format, allowing efficient
// reuse of identically-sized buffers. This reduces GC pressure for
// workloads that repeatedly snapshot or resize images of similar sizes.
//
// Thread safety: All methods are safe for concurrent use.
type Pool struct {
	mu      sync.Mutex
	buckets map[poolKey][]*Buffer
	maxSize int // max buffers per bucket
}

// poolKey identifies a bucket of identical buffer specifications.
type poolKey struct {
	width  int
	height int
	format Format
}

// NewPool creates a new buffer pool with the given maximum buffers per bucket.
// maxPerBucket limits how many buffers of each size/format are retained.
// A maxPerBucket of 0 means unlimited (use with caution).
func NewPool(maxPerBucket int) *Pool {
	return &Pool{
		buckets: make(map[poolKey][]*Buffer),
		maxSize: maxPerBucket,
	}
}

// Get retrieves a buffer from the pool or creates a new one.
// The returned buffer is guaranteed to have the specified dimensions and
// format. If a buffer is reused from the pool, it will be cleared.
// Returns nil for invalid dimensions or format.
func (p *Pool) Get(width, height int, format Format) *Buffer {
	key := poolKey{width: width, height: height, format: format}

	p.mu.Lock()
	bucket := p.buckets[key]
	var buf *Buffer

	if len(bucket) > 0 {
		// Pop from pool
		buf = bucket[len(bucket)-1]
		p.buckets[key] = bucket[:len(bucket)-1]
		p.mu.Unlock()

		// Clear buffer before reuse
		buf.Clear()
		return buf
	}
	p.mu.Unlock()

	// Create new buffer if pool is empty
	buf, err := New(width, height, format)
	if err != nil {
		return nil
	}
	return buf
}

// Put returns a buffer to the pool for reuse.
// The buffer will be cleared before being stored.
// If buf is nil or the pool bucket is at max capacity, the buffer is
// discarded.
func (p *Pool) Put(buf *Buffer) {
	if buf == nil {
		return
	}

	// Clear buffer data before returning to pool
	buf.Clear()

	key := poolKey{
		width:  buf.width,
		height: buf.height,
		format: buf.format,
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	bucket := p.buckets[key]

	// Check if bucket is at capacity
	if p.maxSize > 0 && len(bucket) >= p.maxSize {
		// Bucket full, discard buffer (GC will clean up)
		return
	}

	// Add to pool
	p.buckets[key] = append(bucket, buf)
}
