// Copyright The pushprof Authors
// SPDX-License-Identifier: Apache-2.0

package profile // import "github.com/pushprof/pushprof/profile"

import (
	"fmt"

	"github.com/pushprof/pushprof/intern"
)

// LabelKey identifies the semantic kind of a sample label. The set is
// closed: pushes with a key outside the enumeration are rejected, and
// the arity of the enumeration defines the per-sample label capacity.
type LabelKey uint8

const (
	ThreadID LabelKey = iota
	ThreadNativeID
	ThreadName
	TaskID
	TaskName
	SpanID
	LocalRootSpanID
	TraceType
	TraceResourceContainer
	ClassName
	LockName
	ExceptionType

	numLabelKeys
)

// MaxLabels is the per-sample label capacity. One sample can carry at
// most one label per enumerated key, so the enum arity is the bound.
const MaxLabels = int(numLabelKeys)

// labelKeyNames holds the wire names of the label keys, positionally
// aligned with the enumeration.
var labelKeyNames = [numLabelKeys]string{
	ThreadID:               "thread id",
	ThreadNativeID:         "thread native id",
	ThreadName:             "thread name",
	TaskID:                 "task id",
	TaskName:               "task name",
	SpanID:                 "span id",
	LocalRootSpanID:        "local root span id",
	TraceType:              "trace type",
	TraceResourceContainer: "trace resource container",
	ClassName:              "class name",
	LockName:               "lock name",
	ExceptionType:          "exception type",
}

// Valid reports whether k is part of the enumeration.
func (k LabelKey) Valid() bool {
	return k < numLabelKeys
}

func (k LabelKey) String() string {
	if !k.Valid() {
		return fmt.Sprintf("<invalid label key %d>", uint8(k))
	}
	return labelKeyNames[k]
}

// LabelKeys returns all enumerated keys in declaration order.
func LabelKeys() []LabelKey {
	keys := make([]LabelKey, numLabelKeys)
	for i := range keys {
		keys[i] = LabelKey(i)
	}
	return keys
}

// LabelKind selects which payload of a LabelEntry is set.
type LabelKind uint8

const (
	LabelKindString LabelKind = iota
	LabelKindInt
)

// LabelEntry is one key/value pair attached to a sample. Exactly one of
// Str and Num is meaningful, selected by Kind.
type LabelEntry struct {
	Key  LabelKey
	Kind LabelKind
	Str  intern.Ref
	Num  int64
}
