// Copyright The pushprof Authors
// SPDX-License-Identifier: Apache-2.0

package export // import "github.com/pushprof/pushprof/export"

import (
	"bytes"
	"fmt"
	"sync"

	gprofile "github.com/google/pprof/profile"
	"github.com/ianlancetaylor/demangle"
	"github.com/klauspost/compress/gzip"

	"github.com/pushprof/pushprof/profile"
)

// EncodeOptions controls the pprof serialization of a generation.
type EncodeOptions struct {
	// ProgramName is the file name of the synthetic mapping covering all
	// locations.
	ProgramName string

	// Demangle rewrites mangled native symbol names into their
	// human-readable form.
	Demangle bool
}

// locKey identifies a unique location within one encoded profile.
type locKey struct {
	name    string
	file    string
	address uint64
	line    int64
}

// funcKey identifies a unique function within one encoded profile.
type funcKey struct {
	name string
	file string
}

// Encode translates a generation into the pprof profile model. Frames
// keep their leaf-first order, string labels become Label entries and
// integer labels become NumLabel entries.
func Encode(gen *profile.Generation, opts EncodeOptions) (*gprofile.Profile, error) {
	if len(gen.ValueTypes) == 0 {
		return nil, fmt.Errorf("encoding generation %d: no value types", gen.Seq)
	}

	p := &gprofile.Profile{
		TimeNanos:     gen.Start.UnixNano(),
		DurationNanos: gen.End.Sub(gen.Start).Nanoseconds(),
		Period:        1,
	}
	for _, vt := range gen.ValueTypes {
		p.SampleType = append(p.SampleType, &gprofile.ValueType{
			Type: vt.Name,
			Unit: vt.Unit,
		})
	}
	p.PeriodType = &gprofile.ValueType{
		Type: gen.ValueTypes[0].Name,
		Unit: gen.ValueTypes[0].Unit,
	}

	m := &gprofile.Mapping{
		ID:           1,
		File:         opts.ProgramName,
		HasFunctions: true,
	}
	p.Mapping = []*gprofile.Mapping{m}

	locations := make(map[locKey]*gprofile.Location)
	functions := make(map[funcKey]*gprofile.Function)

	for _, s := range gen.Samples {
		if len(s.Values) != len(gen.ValueTypes) {
			return nil, fmt.Errorf("encoding generation %d: sample has %d values, schema has %d slots",
				gen.Seq, len(s.Values), len(gen.ValueTypes))
		}

		psample := &gprofile.Sample{
			Value: append([]int64(nil), s.Values...),
		}

		for _, frame := range s.Frames {
			name := gen.LookupString(frame.Name)
			if opts.Demangle {
				name = demangle.Filter(name)
			}
			file := gen.LookupString(frame.File)

			lk := locKey{name: name, file: file, address: frame.Address, line: frame.Line}
			loc, ok := locations[lk]
			if !ok {
				fk := funcKey{name: name, file: file}
				function, ok := functions[fk]
				if !ok {
					function = &gprofile.Function{
						ID:       uint64(len(functions)) + 1,
						Name:     name,
						Filename: file,
					}
					functions[fk] = function
					p.Function = append(p.Function, function)
				}

				loc = &gprofile.Location{
					ID:      uint64(len(locations)) + 1,
					Mapping: m,
					Address: frame.Address,
					Line: []gprofile.Line{{
						Function: function,
						Line:     frame.Line,
					}},
				}
				locations[lk] = loc
				p.Location = append(p.Location, loc)
			}
			psample.Location = append(psample.Location, loc)
		}

		for _, label := range s.Labels {
			switch label.Kind {
			case profile.LabelKindString:
				if psample.Label == nil {
					psample.Label = make(map[string][]string)
				}
				key := label.Key.String()
				psample.Label[key] = append(psample.Label[key], gen.LookupString(label.Str))
			case profile.LabelKindInt:
				if psample.NumLabel == nil {
					psample.NumLabel = make(map[string][]int64)
				}
				key := label.Key.String()
				psample.NumLabel[key] = append(psample.NumLabel[key], label.Num)
			}
		}

		p.Sample = append(p.Sample, psample)
	}

	return p, nil
}

var gzipWriterPool = sync.Pool{
	New: func() any {
		w, _ := gzip.NewWriterLevel(nil, gzip.BestSpeed)
		return w
	},
}

// Marshal encodes a generation and returns the gzipped serialized
// profile, ready for upload or writing to disk.
func Marshal(gen *profile.Generation, opts EncodeOptions) ([]byte, error) {
	p, err := Encode(gen, opts)
	if err != nil {
		return nil, err
	}

	var raw bytes.Buffer
	if err := p.WriteUncompressed(&raw); err != nil {
		return nil, fmt.Errorf("serializing generation %d: %w", gen.Seq, err)
	}

	var out bytes.Buffer
	gzWriter := gzipWriterPool.Get().(*gzip.Writer)
	defer gzipWriterPool.Put(gzWriter)
	gzWriter.Reset(&out)

	if _, err := gzWriter.Write(raw.Bytes()); err != nil {
		return nil, fmt.Errorf("compressing generation %d: %w", gen.Seq, err)
	}
	if err := gzWriter.Close(); err != nil {
		return nil, fmt.Errorf("compressing generation %d: %w", gen.Seq, err)
	}
	return out.Bytes(), nil
}
