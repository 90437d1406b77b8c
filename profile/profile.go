// Copyright The pushprof Authors
// SPDX-License-Identifier: Apache-2.0

// Package profile implements the in-process sampling-profile aggregation
// engine: a push-based, bounded-memory accumulator for discrete runtime
// measurements (CPU time, wall time, allocations, lock contention,
// exceptions, heap size) that assembles them into a profile
// representation ready for periodic export.
//
// The push API runs on the profiler's sampling hot path. After warm-up
// no operation allocates, blocks or takes locks; everything is bounded
// by the configured capacity limits. A Profile must be used by exactly
// one producer at a time between Reset boundaries; concurrent access has
// to be serialized externally (see the export package's scheduler).
package profile // import "github.com/pushprof/pushprof/profile"

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/zeebo/xxh3"

	"github.com/pushprof/pushprof/intern"
)

// DefaultMaxFrames is the stack depth cap applied when the builder is
// not given one.
const DefaultMaxFrames = 64

// OpObserver is an instrumentation hook bracketing every mutating
// operation of a Profile, for external crash diagnostics. Implementations
// must be cheap and must not call back into the Profile.
type OpObserver interface {
	BeginSampleOp()
	EndSampleOp()
}

// sampleKey is the 128-bit identity of a committed sample's frame and
// label sequences, used to merge repeated identical samples.
type sampleKey struct {
	hi, lo uint64
}

// sampleBuffer is the fixed-capacity scratch area for one in-progress
// sample. It is sized once at construction and reused across samples via
// cursor reset.
type sampleBuffer struct {
	frames []Frame
	labels []LabelEntry
	values []int64

	curFrame int
	curLabel int

	// intended is the frame count announced by StartSample. It may
	// exceed the frame capacity; the difference drives truncation
	// accounting at flush time.
	intended int
	active   bool
}

// Profile owns one generation's interner, scratch buffer and committed
// sample collection, and exposes the push-based sample building API.
// Construct it with a Builder.
type Profile struct {
	schema    *Schema
	maxFrames int
	observer  OpObserver

	strings *intern.Table
	buf     sampleBuffer

	samples []*Sample
	index   map[sampleKey]int
	hashBuf []byte

	stats Stats
	start time.Time
}

// Builder validates a metric type mask and capacity limits, then
// constructs a Profile.
type Builder struct {
	mask      MetricType
	maxFrames int
	observer  OpObserver
}

// NewBuilder returns a builder with no types enabled and the default
// frame capacity.
func NewBuilder() *Builder {
	return &Builder{maxFrames: DefaultMaxFrames}
}

// AddType ORs t into the metric type mask.
func (b *Builder) AddType(t MetricType) *Builder {
	b.mask |= t & All
	return b
}

// SetMaxFrames caps the number of stored frames per sample.
func (b *Builder) SetMaxFrames(n int) *Builder {
	b.maxFrames = n
	return b
}

// SetObserver injects the operation bracketing hook. Nil disables it.
func (b *Builder) SetObserver(obs OpObserver) *Builder {
	b.observer = obs
	return b
}

// Build validates the configuration and constructs the Profile. The mask
// and capacity limits are immutable for the Profile's life.
func (b *Builder) Build() (*Profile, error) {
	if b.maxFrames < 1 {
		return nil, fmt.Errorf("max frames %d below 1: %w", b.maxFrames, ErrSchema)
	}
	schema, err := NewSchema(b.mask)
	if err != nil {
		return nil, err
	}

	p := &Profile{
		schema:    schema,
		maxFrames: b.maxFrames,
		observer:  b.observer,
		strings:   intern.NewTable(),
		buf: sampleBuffer{
			frames: make([]Frame, b.maxFrames),
			labels: make([]LabelEntry, MaxLabels),
			values: make([]int64, schema.NumSlots()),
		},
		index:   make(map[sampleKey]int),
		hashBuf: make([]byte, 0, 512),
		start:   time.Now(),
	}
	return p, nil
}

func (p *Profile) beginOp() {
	if p.observer != nil {
		p.observer.BeginSampleOp()
	}
}

func (p *Profile) endOp() {
	if p.observer != nil {
		p.observer.EndSampleOp()
	}
}

// Schema returns the immutable slot layout.
func (p *Profile) Schema() *Schema {
	return p.schema
}

// MaxFrames returns the per-sample frame capacity.
func (p *Profile) MaxFrames() int {
	return p.maxFrames
}

// NumSamples returns the number of distinct committed samples in the
// current generation.
func (p *Profile) NumSamples() int {
	return len(p.samples)
}

// StartSample clears the scratch buffer and begins a new sample.
// expectedFrames is the intended frame count of the stack about to be
// pushed; it may exceed the frame capacity, in which case the overflow
// is reported as a truncation marker at flush time. A sample already in
// progress is discarded.
func (p *Profile) StartSample(expectedFrames int) {
	p.beginOp()
	defer p.endOp()

	p.clearBuffers()
	p.buf.intended = expectedFrames
	p.buf.active = true
}

// PushFrame appends one stack location to the in-progress sample. Frames
// are pushed leaf-first (innermost frame first); exporters serialize in
// push order. Frames beyond the capacity limit are silently dropped, not
// stored: bounding memory is preferred over completeness of deep stacks.
func (p *Profile) PushFrame(name, file string, address uint64, line int64) {
	p.beginOp()
	defer p.endOp()

	if p.buf.curFrame >= p.maxFrames {
		return
	}
	p.buf.frames[p.buf.curFrame] = Frame{
		Name:    p.strings.Intern(name),
		File:    p.strings.Intern(file),
		Address: address,
		Line:    line,
	}
	p.buf.curFrame++
}

// PushLabelStr attaches a string-valued label to the in-progress sample.
func (p *Profile) PushLabelStr(key LabelKey, value string) error {
	p.beginOp()
	defer p.endOp()

	if !key.Valid() {
		return fmt.Errorf("pushing label %d: %w", uint8(key), ErrLabelKey)
	}
	if p.buf.curLabel >= len(p.buf.labels) {
		p.stats.LabelsDropped++
		return fmt.Errorf("pushing label %q: %w", key, ErrLabelCapacity)
	}
	p.buf.labels[p.buf.curLabel] = LabelEntry{
		Key:  key,
		Kind: LabelKindString,
		Str:  p.strings.Intern(value),
	}
	p.buf.curLabel++
	return nil
}

// PushLabelInt attaches an integer-valued label to the in-progress
// sample.
func (p *Profile) PushLabelInt(key LabelKey, value int64) error {
	p.beginOp()
	defer p.endOp()

	if !key.Valid() {
		return fmt.Errorf("pushing label %d: %w", uint8(key), ErrLabelKey)
	}
	if p.buf.curLabel >= len(p.buf.labels) {
		p.stats.LabelsDropped++
		return fmt.Errorf("pushing label %q: %w", key, ErrLabelCapacity)
	}
	p.buf.labels[p.buf.curLabel] = LabelEntry{
		Key:  key,
		Kind: LabelKindInt,
		Num:  value,
	}
	p.buf.curLabel++
	return nil
}

// PushValue folds a measurement into the in-progress sample's value
// array. metricName must be the primary name of an enabled metric group
// (e.g. "cpu-time"); pushes for disabled or unknown metrics fail with
// ErrMetricNotEnabled and leave all state unchanged. Time slots
// accumulate delta*count, space slots accumulate the raw delta, count
// slots accumulate count.
func (p *Profile) PushValue(metricName string, delta, count int64) error {
	p.beginOp()
	defer p.endOp()

	acc, ok := p.schema.lookup(metricName)
	if !ok {
		p.stats.PushesRejected++
		return fmt.Errorf("pushing %q: %w", metricName, ErrMetricNotEnabled)
	}
	switch acc.kind {
	case accumTime:
		p.buf.values[acc.valueIdx] += delta * count
	case accumSpace:
		p.buf.values[acc.valueIdx] += delta
	case accumCount:
		// The count slot below is the only slot.
	}
	if acc.countIdx >= 0 {
		p.buf.values[acc.countIdx] += count
	}
	return nil
}

// FlushSample commits the in-progress sample into the generation's
// collection and clears the scratch buffer. If more frames were intended
// than the capacity allows, a truncation marker frame describing the
// omission takes the last stored slot. Samples with identical frame and
// label sequences merge by summing their value arrays.
//
// The scratch buffer is cleared whether or not the commit succeeds, so
// the next StartSample always begins clean. Flushing without a preceding
// StartSample reports ErrNoActiveSample.
func (p *Profile) FlushSample() error {
	p.beginOp()
	defer p.endOp()
	defer p.clearBuffers()

	if !p.buf.active {
		return fmt.Errorf("flushing sample: %w", ErrNoActiveSample)
	}

	if p.buf.intended > p.maxFrames {
		if p.buf.curFrame == p.maxFrames {
			// Evict the last stored frame so the marker fits and the
			// stored count stays exactly maxFrames.
			p.buf.curFrame--
		}
		omitted := p.buf.intended - p.buf.curFrame
		p.stats.FramesTruncated += uint64(omitted)
		p.buf.frames[p.buf.curFrame] = Frame{
			Name: p.strings.Intern(truncationMarker(omitted)),
			File: 0,
		}
		p.buf.curFrame++
	}

	p.commit()
	return nil
}

func truncationMarker(omitted int) string {
	if omitted == 1 {
		return "<1 frame omitted>"
	}
	return fmt.Sprintf("<%d frames omitted>", omitted)
}

// commit merges the scratch buffer into the committed collection.
func (p *Profile) commit() {
	key := p.fingerprint()
	if idx, exists := p.index[key]; exists {
		values := p.samples[idx].Values
		for i, v := range p.buf.values {
			values[i] += v
		}
		p.stats.SamplesMerged++
		p.stats.SamplesCommitted++
		return
	}

	s := &Sample{
		Frames: append([]Frame(nil), p.buf.frames[:p.buf.curFrame]...),
		Labels: append([]LabelEntry(nil), p.buf.labels[:p.buf.curLabel]...),
		Values: append([]int64(nil), p.buf.values...),
	}
	p.index[key] = len(p.samples)
	p.samples = append(p.samples, s)
	p.stats.SamplesCommitted++
}

// fingerprint hashes the scratch buffer's frame and label sequences.
// Interned refs are per-generation stable, so hashing refs instead of
// string bytes keeps this cheap.
func (p *Profile) fingerprint() sampleKey {
	buf := p.hashBuf[:0]
	for i := range p.buf.curFrame {
		f := &p.buf.frames[i]
		buf = binary.LittleEndian.AppendUint32(buf, uint32(f.Name))
		buf = binary.LittleEndian.AppendUint32(buf, uint32(f.File))
		buf = binary.LittleEndian.AppendUint64(buf, f.Address)
		buf = binary.LittleEndian.AppendUint64(buf, uint64(f.Line))
	}
	buf = append(buf, 0xff)
	for i := range p.buf.curLabel {
		l := &p.buf.labels[i]
		buf = append(buf, byte(l.Key), byte(l.Kind))
		buf = binary.LittleEndian.AppendUint32(buf, uint32(l.Str))
		buf = binary.LittleEndian.AppendUint64(buf, uint64(l.Num))
	}
	p.hashBuf = buf

	h := xxh3.Hash128(buf)
	return sampleKey{hi: h.Hi, lo: h.Lo}
}

// clearBuffers resets the scratch buffer for reuse. Frame and label
// storage is kept; only the cursors and the value array are cleared.
func (p *Profile) clearBuffers() {
	clear(p.buf.values)
	p.buf.curFrame = 0
	p.buf.curLabel = 0
	p.buf.intended = 0
	p.buf.active = false
}

// Snapshot copies out the committed collection, the resolved string
// table and the generation stats without resetting. The caller that owns
// the export cadence stamps Seq and typically calls Reset right after,
// under the same exclusive access as the producer's pushes.
func (p *Profile) Snapshot() *Generation {
	p.beginOp()
	defer p.endOp()

	gen := &Generation{
		Start:      p.start,
		End:        time.Now(),
		Types:      p.schema.Types(),
		ValueTypes: p.schema.ValueTypes(),
		Samples:    append([]*Sample(nil), p.samples...),
		Strings:    p.strings.Strings(),
		Stats:      p.stats,
	}
	gen.Stats.StringsInterned = uint64(p.strings.Len())
	return gen
}

// Reset begins a new generation: committed samples, stats and the
// interner are cleared, the schema and capacity limits stay. Valid in
// any state, always succeeds. All interned refs and Samples handed out
// for the previous generation are invalidated unless they were copied
// via Snapshot.
func (p *Profile) Reset() {
	p.beginOp()
	defer p.endOp()

	p.samples = p.samples[:0]
	clear(p.index)
	p.strings.Reset()
	p.stats = Stats{}
	p.start = time.Now()
	p.clearBuffers()
}
