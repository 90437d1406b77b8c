// Copyright The pushprof Authors
// SPDX-License-Identifier: Apache-2.0

package profile // import "github.com/pushprof/pushprof/profile"

import (
	"fmt"
	"strings"
)

// MetricType is a bit-flag set selecting which measurement kinds a
// Profile carries value slots for. Multiple flags combine via bitwise OR.
type MetricType uint8

const (
	// CPU selects on-CPU time accounting.
	CPU MetricType = 1 << iota
	// Wall selects wall-clock time accounting.
	Wall
	// Exception selects exception occurrence counting.
	Exception
	// LockAcquire selects lock wait-time accounting.
	LockAcquire
	// LockRelease selects lock hold-time accounting.
	LockRelease
	// Allocation selects allocation size/count accounting.
	Allocation
	// Heap selects live heap size accounting.
	Heap

	// All is the full mask.
	All = CPU | Wall | Exception | LockAcquire | LockRelease | Allocation | Heap
)

// metricTypes lists all flags in declaration order. The slot layout of a
// Schema follows this order, so it must not be permuted: it is a wire
// format contract with the exporters.
var metricTypes = [...]MetricType{
	CPU, Wall, Exception, LockAcquire, LockRelease, Allocation, Heap,
}

var metricTypeNames = map[MetricType]string{
	CPU:         "cpu",
	Wall:        "wall",
	Exception:   "exception",
	LockAcquire: "lock-acquire",
	LockRelease: "lock-release",
	Allocation:  "allocation",
	Heap:        "heap",
}

// Valid reports whether t is a non-empty subset of All.
func (t MetricType) Valid() bool {
	return t != 0 && t&^All == 0
}

// Has reports whether all bits of other are set in t.
func (t MetricType) Has(other MetricType) bool {
	return t&other == other
}

func (t MetricType) String() string {
	if t == 0 {
		return "none"
	}
	if t == All {
		return "all"
	}
	var parts []string
	for _, mt := range metricTypes {
		if t.Has(mt) {
			parts = append(parts, metricTypeNames[mt])
		}
	}
	if rest := t &^ All; rest != 0 {
		parts = append(parts, "<unknown>")
	}
	return strings.Join(parts, "|")
}

// ParseMetricType parses a comma-separated list of metric type names,
// e.g. "cpu,wall" or "all", into a mask.
func ParseMetricType(s string) (MetricType, error) {
	var mask MetricType
	for _, name := range strings.Split(s, ",") {
		name = strings.TrimSpace(strings.ToLower(name))
		if name == "" {
			continue
		}
		if name == "all" {
			mask |= All
			continue
		}
		found := false
		for mt, mtName := range metricTypeNames {
			if name == mtName {
				mask |= mt
				found = true
				break
			}
		}
		if !found {
			return 0, fmt.Errorf("%w: unknown metric type %q", ErrSchema, name)
		}
	}
	if !mask.Valid() {
		return 0, fmt.Errorf("%w: no metric types selected", ErrSchema)
	}
	return mask, nil
}
