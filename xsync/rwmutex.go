// Copyright The pushprof Authors
// SPDX-License-Identifier: Apache-2.0

// Package xsync provides thin wrappers around locking primitives in an
// effort towards better documenting the relationship between locks and
// the data they protect.
package xsync // import "github.com/pushprof/pushprof/xsync"

import "sync"

// RWMutex is a thin wrapper around sync.RWMutex that hides away the data
// it protects to ensure it's not accidentally accessed without actually
// holding the lock.
//
// The design is inspired by how Rust implements its locks: there is no
// direct reference to the guarded value, so every access has to go
// through RLock/WLock first, and the unlock functions invalidate the
// borrowed pointer. Given Go's weak type system this can't provide
// perfect safety, but it clearly communicates which resources are
// protected by which lock, and use-after-unlock crashes immediately in
// tests instead of racing silently.
type RWMutex[T any] struct {
	guarded T
	mutex   sync.RWMutex
}

// NewRWMutex creates a new read-write mutex guarding the given value.
func NewRWMutex[T any](guarded T) RWMutex[T] {
	return RWMutex[T]{
		guarded: guarded,
	}
}

// RLock locks the mutex for reading, returning a pointer to the protected
// data.
//
// The caller **must not** write to the data pointed to by the returned
// pointer and must not let the pointer escape the scope of the function
// where it was created, except for temporarily borrowing it to callees
// that don't save it anywhere.
func (mtx *RWMutex[T]) RLock() *T {
	mtx.mutex.RLock()
	return &mtx.guarded
}

// RUnlock unlocks the mutex after previously being locked by RLock.
//
// Pass a reference to the pointer returned from RLock here to ensure it
// is invalidated.
func (mtx *RWMutex[T]) RUnlock(ref **T) {
	*ref = nil
	mtx.mutex.RUnlock()
}

// WLock locks the mutex for writing, returning a pointer to the protected
// data. The same escape rules as for RLock apply.
func (mtx *RWMutex[T]) WLock() *T {
	mtx.mutex.Lock()
	return &mtx.guarded
}

// WUnlock unlocks the mutex after previously being locked by WLock.
//
// Pass a reference to the pointer returned from WLock here to ensure it
// is invalidated.
func (mtx *RWMutex[T]) WUnlock(ref **T) {
	*ref = nil
	mtx.mutex.Unlock()
}
