// Copyright The pushprof Authors
// SPDX-License-Identifier: Apache-2.0

package profile // import "github.com/pushprof/pushprof/profile"

import (
	"time"

	"github.com/pushprof/pushprof/intern"
)

// Frame is one stack location. Name and File reference the interner of
// the Profile that produced the frame and stay valid for the current
// generation only.
type Frame struct {
	Name    intern.Ref
	File    intern.Ref
	Address uint64
	Line    int64
}

// Sample is one committed measurement event: a leaf-first frame
// sequence, a label sequence and a value array aligned to the schema's
// slot indices. Identical samples flushed repeatedly within one
// generation are merged by summing their value arrays.
type Sample struct {
	Frames []Frame
	Labels []LabelEntry
	Values []int64
}

// Stats carries per-generation counters. They reset together with the
// generation.
type Stats struct {
	// SamplesCommitted counts successful FlushSample calls.
	SamplesCommitted uint64
	// SamplesMerged counts flushes folded into an existing identical
	// sample instead of appending a new one.
	SamplesMerged uint64
	// FramesTruncated counts frames replaced by truncation markers.
	FramesTruncated uint64
	// LabelsDropped counts label pushes rejected for capacity.
	LabelsDropped uint64
	// PushesRejected counts value pushes for disabled metric types.
	PushesRejected uint64
	// StringsInterned is the number of distinct interner entries at
	// snapshot time.
	StringsInterned uint64
}

// Generation is the self-contained snapshot handed to an exporter: the
// committed samples of one generation together with everything needed to
// serialize them. Strings is a copy of the interner table at snapshot
// time, so the refs inside Samples stay resolvable after the owning
// Profile resets.
type Generation struct {
	// Seq is the profile sequence number, stamped by whoever owns the
	// export cadence.
	Seq uint64

	Start time.Time
	End   time.Time

	Types      MetricType
	ValueTypes []ValueType
	Samples    []*Sample
	Strings    []string
	Stats      Stats
}

// LookupString resolves an interned ref against the snapshot's string
// table. Out-of-range refs resolve to "".
func (g *Generation) LookupString(ref intern.Ref) string {
	if ref < 0 || int(ref) >= len(g.Strings) {
		return ""
	}
	return g.Strings[ref]
}
