// Copyright The pushprof Authors
// SPDX-License-Identifier: Apache-2.0

package profile // import "github.com/pushprof/pushprof/profile"

import "fmt"

// ValueType describes one value slot of a sample: a semantic metric name
// and its unit.
type ValueType struct {
	Name string
	Unit string
}

// accumKind selects how PushValue folds a (delta, count) pair into the
// slots of an accumulator.
type accumKind uint8

const (
	// accumTime: value slot += delta*count, count slot += count.
	accumTime accumKind = iota
	// accumSpace: value slot += delta, count slot += count. The delta
	// already totals the sampled bytes, so it is not scaled.
	accumSpace
	// accumCount: count slot += count, delta is ignored.
	accumCount
)

// accumulator binds a semantic metric name to its slot indices.
type accumulator struct {
	typ      MetricType
	kind     accumKind
	valueIdx int
	countIdx int // -1 if the metric has no count slot
}

// slotGroup declares the slots one metric type contributes.
type slotGroup struct {
	name  string // primary metric name, the PushValue lookup key
	slots []ValueType
	kind  accumKind
}

// slotGroups is keyed by MetricType; iteration happens in metricTypes
// declaration order.
var slotGroups = map[MetricType]slotGroup{
	CPU: {name: "cpu-time", kind: accumTime, slots: []ValueType{
		{Name: "cpu-time", Unit: "nanoseconds"},
		{Name: "cpu-samples", Unit: "count"},
	}},
	Wall: {name: "wall-time", kind: accumTime, slots: []ValueType{
		{Name: "wall-time", Unit: "nanoseconds"},
		{Name: "wall-samples", Unit: "count"},
	}},
	Exception: {name: "exception-samples", kind: accumCount, slots: []ValueType{
		{Name: "exception-samples", Unit: "count"},
	}},
	LockAcquire: {name: "lock-acquire-wait", kind: accumTime, slots: []ValueType{
		{Name: "lock-acquire-wait", Unit: "nanoseconds"},
		{Name: "lock-acquire", Unit: "count"},
	}},
	LockRelease: {name: "lock-release-hold", kind: accumTime, slots: []ValueType{
		{Name: "lock-release-hold", Unit: "nanoseconds"},
		{Name: "lock-release", Unit: "count"},
	}},
	Allocation: {name: "alloc-space", kind: accumSpace, slots: []ValueType{
		{Name: "alloc-space", Unit: "bytes"},
		{Name: "alloc-samples", Unit: "count"},
	}},
	Heap: {name: "heap-space", kind: accumSpace, slots: []ValueType{
		{Name: "heap-space", Unit: "bytes"},
	}},
}

// Schema is the immutable value slot layout derived from a metric type
// mask. Slot order follows the fixed declaration order (CPU, Wall,
// Exception, LockAcquire, LockRelease, Allocation, Heap); slot indices
// are stable for the lifetime of the owning Profile.
type Schema struct {
	types  MetricType
	slots  []ValueType
	byName map[string]accumulator
}

// NewSchema builds the slot layout for the given mask. The mask must be
// a non-empty subset of All.
func NewSchema(mask MetricType) (*Schema, error) {
	if !mask.Valid() {
		return nil, fmt.Errorf("metric type mask %#x: %w", uint8(mask), ErrSchema)
	}

	s := &Schema{
		types:  mask,
		byName: make(map[string]accumulator),
	}
	for _, mt := range metricTypes {
		if !mask.Has(mt) {
			continue
		}
		group := slotGroups[mt]
		acc := accumulator{
			typ:      mt,
			kind:     group.kind,
			valueIdx: len(s.slots),
			countIdx: -1,
		}
		if len(group.slots) > 1 {
			acc.countIdx = len(s.slots) + 1
		} else if group.kind == accumCount {
			// Single-slot counters accumulate into their only slot.
			acc.countIdx = acc.valueIdx
		}
		s.slots = append(s.slots, group.slots...)
		s.byName[group.name] = acc
	}
	if len(s.slots) == 0 {
		return nil, fmt.Errorf("mask %v yields no value slots: %w", mask, ErrSchema)
	}
	return s, nil
}

// Types returns the metric type mask the schema was built from.
func (s *Schema) Types() MetricType {
	return s.types
}

// NumSlots returns the length of the per-sample value array.
func (s *Schema) NumSlots() int {
	return len(s.slots)
}

// ValueTypes returns the slot descriptions in slot order.
func (s *Schema) ValueTypes() []ValueType {
	out := make([]ValueType, len(s.slots))
	copy(out, s.slots)
	return out
}

// lookup resolves a semantic metric name to its accumulator. Only the
// primary name of each enabled group resolves; names of disabled groups
// and unknown names both fail.
func (s *Schema) lookup(name string) (accumulator, bool) {
	acc, ok := s.byName[name]
	return acc, ok
}
