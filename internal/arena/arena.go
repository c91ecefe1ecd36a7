// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package arena provides generation-checked slot arenas for resource
// tracking.
//
// An Arena stores values in recyclable slots addressed by Handle, a
// (slot, generation) pair. Releasing a slot bumps its generation, so a
// stale Handle kept across a release never aliases the slot's next
// occupant; lookups with it simply miss.
package arena

import "fmt"

// Handle identifies a value stored in an Arena.
//
// The zero Handle is never valid; generations start at 1.
type Handle struct {
	slot uint32
	gen  uint32
}

// IsZero returns true for the zero Handle.
func (h Handle) IsZero() bool {
	return h.gen == 0
}

// String returns a compact slot.generation representation.
func (h Handle) String() string {
	return fmt.Sprintf("%d.%d", h.slot, h.gen)
}

// slot holds one arena entry. gen counts how many occupants the slot has
// seen; live marks whether the current occupant is still stored.
type slot[T any] struct {
	value T
	gen   uint32
	live  bool
}

// Arena is a slot arena with generation-checked handles.
//
// Thread safety: Arena is not safe for concurrent use. Callers that share
// an Arena across goroutines must provide their own synchronization.
type Arena[T any] struct {
	slots []slot[T]
	free  []uint32
	count int
}

// New creates an empty arena.
func New[T any]() *Arena[T] {
	return &Arena[T]{}
}

// Insert stores v and returns its handle.
func (a *Arena[T]) Insert(v T) Handle {
	if n := len(a.free); n > 0 {
		idx := a.free[n-1]
		a.free = a.free[:n-1]
		s := &a.slots[idx]
		s.value = v
		s.live = true
		a.count++
		return Handle{slot: idx, gen: s.gen}
	}

	a.slots = append(a.slots, slot[T]{value: v, gen: 1, live: true})
	a.count++
	return Handle{slot: uint32(len(a.slots) - 1), gen: 1}
}

// Get returns a pointer to the value for h, or false if h is stale or was
// never issued. The pointer is valid until the next Insert.
func (a *Arena[T]) Get(h Handle) (*T, bool) {
	if h.IsZero() || int(h.slot) >= len(a.slots) {
		return nil, false
	}
	s := &a.slots[h.slot]
	if !s.live || s.gen != h.gen {
		return nil, false
	}
	return &s.value, true
}

// Remove releases the slot for h and returns the removed value.
// Returns false if h is stale; the arena is unchanged in that case.
func (a *Arena[T]) Remove(h Handle) (T, bool) {
	var zero T
	if h.IsZero() || int(h.slot) >= len(a.slots) {
		return zero, false
	}
	s := &a.slots[h.slot]
	if !s.live || s.gen != h.gen {
		return zero, false
	}

	v := s.value
	s.value = zero
	s.live = false
	s.gen++
	a.free = append(a.free, h.slot)
	a.count--
	return v, true
}

// Len returns the number of live values.
func (a *Arena[T]) Len() int {
	return a.count
}

// Each calls fn for every live value. Iteration stops early when fn
// returns false. The arena must not be modified during iteration.
func (a *Arena[T]) Each(fn func(Handle, *T) bool) {
	for i := range a.slots {
		s := &a.slots[i]
		if !s.live {
			continue
		}
		if !fn(Handle{slot: uint32(i), gen: s.gen}, &s.value) {
			return
		}
	}
}
