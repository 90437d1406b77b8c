// Copyright The pushprof Authors
// SPDX-License-Identifier: Apache-2.0

package pdata // import "github.com/pushprof/pushprof/export/internal/pdata"

// orderedSet is a set that keeps order of insertion. It backs the
// dictionary tables, which are index-addressed and deduplicated.
type orderedSet[T comparable] map[T]int32

// add adds an element to the set and returns its index.
func (os orderedSet[T]) add(key T) int32 {
	idx, _ := os.addWithCheck(key)
	return idx
}

func (os orderedSet[T]) addWithCheck(key T) (int32, bool) {
	if idx, exists := os[key]; exists {
		return idx, true
	}

	idx := int32(len(os))
	os[key] = idx
	return idx, false
}

// toSlice returns the elements of the set as a slice, in insertion order.
func (os orderedSet[T]) toSlice() []T {
	ret := make([]T, len(os))
	for key, idx := range os {
		ret[idx] = key
	}

	return ret
}
