// Copyright The pushprof Authors
// SPDX-License-Identifier: Apache-2.0

package pdata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pushprof/pushprof/profile"
)

func buildGeneration(t *testing.T) *profile.Generation {
	t.Helper()

	p, err := profile.NewBuilder().AddType(profile.CPU).Build()
	require.NoError(t, err)

	p.StartSample(2)
	p.PushFrame("main.work", "main.go", 0x1000, 42)
	p.PushFrame("main.main", "main.go", 0x2000, 10)
	require.NoError(t, p.PushThreadInfo(7, 7001, "worker"))
	require.NoError(t, p.PushTraceType("web"))
	require.NoError(t, p.PushCPUTime(1000, 1))
	require.NoError(t, p.FlushSample())

	p.StartSample(1)
	p.PushFrame("main.work", "main.go", 0x1000, 42)
	require.NoError(t, p.PushCPUTime(500, 1))
	require.NoError(t, p.FlushSample())

	return p.Snapshot()
}

func TestGenerate(t *testing.T) {
	gen := buildGeneration(t)

	profiles, err := Generate(gen, "pushprof", "v0.1.0",
		map[string]string{"service.name": "svc"})
	require.NoError(t, err)

	assert.Equal(t, 2, profiles.SampleCount())
	dic := profiles.ProfilesDictionary()

	// By specification, index zero of both tables is the empty element.
	require.Positive(t, dic.StringTable().Len())
	assert.Empty(t, dic.StringTable().At(0))
	require.Positive(t, dic.MappingTable().Len())

	rp := profiles.ResourceProfiles().At(0)
	val, ok := rp.Resource().Attributes().Get("service.name")
	require.True(t, ok)
	assert.Equal(t, "svc", val.Str())

	sp := rp.ScopeProfiles().At(0)
	assert.Equal(t, "pushprof", sp.Scope().Name())
	assert.Equal(t, "v0.1.0", sp.Scope().Version())

	prof := sp.Profiles().At(0)
	require.Equal(t, 2, prof.SampleType().Len())
	st := prof.SampleType().At(0)
	assert.Equal(t, "cpu-time", dic.StringTable().At(int(st.TypeStrindex())))
	assert.Equal(t, "nanoseconds", dic.StringTable().At(int(st.UnitStrindex())))

	// Both samples reference the shared location exactly once in the
	// dictionary.
	assert.Equal(t, 2, dic.LocationTable().Len())
	assert.Equal(t, 3, prof.LocationIndices().Len())

	first := prof.Sample().At(0)
	assert.Equal(t, int32(0), first.LocationsStartIndex())
	assert.Equal(t, int32(2), first.LocationsLength())
	second := prof.Sample().At(1)
	assert.Equal(t, int32(2), second.LocationsStartIndex())
	assert.Equal(t, int32(1), second.LocationsLength())

	// All location indices stay in table range.
	for i := 0; i < prof.LocationIndices().Len(); i++ {
		idx := prof.LocationIndices().At(i)
		assert.GreaterOrEqual(t, idx, int32(0))
		assert.Less(t, int(idx), dic.LocationTable().Len())
	}
}

func TestGenerateLabelAttributes(t *testing.T) {
	gen := buildGeneration(t)

	profiles, err := Generate(gen, "pushprof", "v0.1.0", nil)
	require.NoError(t, err)

	dic := profiles.ProfilesDictionary()
	sample := profiles.ResourceProfiles().At(0).
		ScopeProfiles().At(0).
		Profiles().At(0).
		Sample().At(0)

	attrs := map[string]any{}
	for i := 0; i < sample.AttributeIndices().Len(); i++ {
		a := dic.AttributeTable().At(int(sample.AttributeIndices().At(i)))
		attrs[a.Key()] = a.Value().AsRaw()
	}

	assert.Equal(t, int64(7), attrs["thread.id"])
	assert.Equal(t, "worker", attrs["thread.name"])
	assert.Equal(t, int64(7001), attrs["profile.context.thread_native_id"])
	assert.Equal(t, "web", attrs["profile.context.trace_type"])
}

func TestGenerateRejectsMismatchedValues(t *testing.T) {
	gen := buildGeneration(t)
	gen.Samples[0].Values = gen.Samples[0].Values[:1]

	_, err := Generate(gen, "pushprof", "v0.1.0", nil)
	assert.Error(t, err)
}
