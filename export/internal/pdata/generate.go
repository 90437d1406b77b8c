// Copyright The pushprof Authors
// SPDX-License-Identifier: Apache-2.0

// Package pdata translates finalized generations into OTLP profiles.
package pdata // import "github.com/pushprof/pushprof/export/internal/pdata"

import (
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/collector/pdata/pcommon"
	"go.opentelemetry.io/collector/pdata/pprofile"
	"go.opentelemetry.io/otel/attribute"

	semconv "go.opentelemetry.io/otel/semconv/v1.34.0"

	"github.com/pushprof/pushprof/profile"
)

// funcInfo identifies a unique function in the dictionary.
type funcInfo struct {
	nameIdx     int32
	fileNameIdx int32
}

// locationInfo identifies a unique location in the dictionary.
type locationInfo struct {
	address       uint64
	hasLine       bool
	lineNumber    int64
	functionIndex int32
}

// Generate builds an OTLP profiles payload out of one generation. All
// slots of the generation's schema become SampleType entries and labels
// are carried as sample attributes.
func Generate(gen *profile.Generation, scopeName, scopeVersion string,
	resourceAttrs map[string]string) (pprofile.Profiles, error) {
	profiles := pprofile.NewProfiles()
	dic := profiles.ProfilesDictionary()

	// Temporary helpers that will build the various tables in ProfilesDictionary.
	stringSet := make(orderedSet[string], 64)
	funcSet := make(orderedSet[funcInfo], 64)
	locationSet := make(orderedSet[locationInfo], 64)

	// By specification, the first element should be empty.
	stringSet.add("")
	dic.MappingTable().AppendEmpty()

	rp := profiles.ResourceProfiles().AppendEmpty()
	for key, value := range resourceAttrs {
		rp.Resource().Attributes().PutStr(key, value)
	}
	rp.SetSchemaUrl(semconv.SchemaURL)

	sp := rp.ScopeProfiles().AppendEmpty()
	sp.Scope().SetName(scopeName)
	sp.Scope().SetVersion(scopeVersion)
	sp.SetSchemaUrl(semconv.SchemaURL)

	prof := sp.Profiles().AppendEmpty()
	if err := setProfile(dic, stringSet, funcSet, locationSet, gen, prof); err != nil {
		return profiles, err
	}

	// Populate the ProfilesDictionary tables.
	funcTable := dic.FunctionTable()
	funcTable.EnsureCapacity(len(funcSet))
	for range funcSet {
		funcTable.AppendEmpty()
	}
	for v, idx := range funcSet {
		f := funcTable.At(int(idx))
		f.SetNameStrindex(v.nameIdx)
		f.SetFilenameStrindex(v.fileNameIdx)
	}

	stringTable := dic.StringTable()
	stringTable.EnsureCapacity(len(stringSet))
	for _, val := range stringSet.toSlice() {
		stringTable.Append(val)
	}

	return profiles, nil
}

// setProfile fills an OTLP profile with the samples of one generation.
func setProfile(
	dic pprofile.ProfilesDictionary,
	stringSet orderedSet[string],
	funcSet orderedSet[funcInfo],
	locationSet orderedSet[locationInfo],
	gen *profile.Generation,
	prof pprofile.Profile,
) error {
	for _, vt := range gen.ValueTypes {
		st := prof.SampleType().AppendEmpty()
		st.SetTypeStrindex(stringSet.add(vt.Name))
		st.SetUnitStrindex(stringSet.add(vt.Unit))
	}
	if len(gen.ValueTypes) > 0 {
		prof.SetPeriod(1)
		pt := prof.PeriodType()
		pt.SetTypeStrindex(stringSet.add(gen.ValueTypes[0].Name))
		pt.SetUnitStrindex(stringSet.add(gen.ValueTypes[0].Unit))
	}

	attrMgr := NewAttrTableManager(dic.AttributeTable())

	locationIndex := int32(prof.LocationIndices().Len())
	for _, s := range gen.Samples {
		if len(s.Values) != len(gen.ValueTypes) {
			return fmt.Errorf("generating profile %d: sample has %d values, schema has %d slots",
				gen.Seq, len(s.Values), len(gen.ValueTypes))
		}

		sample := prof.Sample().AppendEmpty()
		sample.SetLocationsStartIndex(locationIndex)
		sample.Value().Append(s.Values...)

		// Walk every frame of the sample, leaf first.
		for _, frame := range s.Frames {
			name := gen.LookupString(frame.Name)
			file := gen.LookupString(frame.File)

			locInfo := locationInfo{
				address: frame.Address,
			}
			if name != "" || file != "" {
				// Store symbolized frame information as a Line message.
				locInfo.hasLine = true
				locInfo.lineNumber = frame.Line
				locInfo.functionIndex = funcSet.add(funcInfo{
					nameIdx:     stringSet.add(name),
					fileNameIdx: stringSet.add(file),
				})
			}

			idx, exists := locationSet.addWithCheck(locInfo)
			if !exists {
				// Add a new Location to the dictionary.
				loc := dic.LocationTable().AppendEmpty()
				loc.SetAddress(locInfo.address)
				loc.SetMappingIndex(0)
				if locInfo.hasLine {
					line := loc.Line().AppendEmpty()
					line.SetLine(locInfo.lineNumber)
					line.SetFunctionIndex(locInfo.functionIndex)
				}
			}
			prof.LocationIndices().Append(idx)
		}

		for _, label := range s.Labels {
			appendLabel(attrMgr, sample, gen, label)
		}

		sample.SetLocationsLength(int32(len(s.Frames)))
		locationIndex += sample.LocationsLength()
	}

	log.Debugf("Reporting OTLP profile with %d samples", prof.Sample().Len())

	prof.SetTime(pcommon.NewTimestampFromTime(gen.Start))
	prof.SetDuration(pcommon.Timestamp(gen.End.Sub(gen.Start).Nanoseconds()))

	return nil
}

// appendLabel translates one label into a sample attribute. Thread id
// and name map onto their semantic convention keys, everything else is
// carried under a profile.context prefix.
func appendLabel(attrMgr *AttrTableManager, sample pprofile.Sample,
	gen *profile.Generation, label profile.LabelEntry) {
	var key attribute.Key
	switch label.Key {
	case profile.ThreadID:
		key = semconv.ThreadIDKey
	case profile.ThreadName:
		key = semconv.ThreadNameKey
	default:
		key = attribute.Key("profile.context." +
			strings.ReplaceAll(label.Key.String(), " ", "_"))
	}

	switch label.Kind {
	case profile.LabelKindInt:
		attrMgr.AppendInt(sample.AttributeIndices(), key, label.Num)
	case profile.LabelKindString:
		attrMgr.AppendOptionalString(sample.AttributeIndices(), key,
			gen.LookupString(label.Str))
	}
}
