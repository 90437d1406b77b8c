// Copyright The pushprof Authors
// SPDX-License-Identifier: Apache-2.0

package intern

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInternDeduplicates(t *testing.T) {
	tbl := NewTable()

	a := tbl.Intern("frobnicate")
	sizeAfterFirst := tbl.Len()
	b := tbl.Intern("frobnicate")

	assert.Equal(t, a, b)
	assert.Equal(t, sizeAfterFirst, tbl.Len())
	assert.Equal(t, "frobnicate", tbl.Resolve(a))
}

func TestZeroRefIsEmptyString(t *testing.T) {
	tbl := NewTable()

	assert.Equal(t, Ref(0), tbl.Intern(""))
	assert.Equal(t, "", tbl.Resolve(0))
	assert.Equal(t, 1, tbl.Len())
}

func TestResolveOutOfRange(t *testing.T) {
	tbl := NewTable()
	tbl.Intern("x")

	assert.Equal(t, "", tbl.Resolve(-1))
	assert.Equal(t, "", tbl.Resolve(1000))
}

func TestRefsAreStableWhileTableGrows(t *testing.T) {
	tbl := NewTable()

	first := tbl.Intern("pinned")
	for i := range 10000 {
		tbl.Intern(fmt.Sprintf("filler-%d", i))
	}

	assert.Equal(t, "pinned", tbl.Resolve(first))
}

func TestReset(t *testing.T) {
	tbl := NewTable()
	tbl.Intern("one")
	tbl.Intern("two")
	require.Equal(t, 3, tbl.Len())

	tbl.Reset()

	assert.Equal(t, 1, tbl.Len())
	assert.Equal(t, "", tbl.Resolve(0))

	// Previously issued refs now map to fresh content.
	r := tbl.Intern("three")
	assert.Equal(t, Ref(1), r)
	assert.Equal(t, "three", tbl.Resolve(r))
}

func TestStringsIsACopy(t *testing.T) {
	tbl := NewTable()
	r := tbl.Intern("kept")

	snapshot := tbl.Strings()
	tbl.Reset()
	tbl.Intern("replaced")

	require.Len(t, snapshot, 2)
	assert.Equal(t, "kept", snapshot[r])
}

func BenchmarkInternHit(b *testing.B) {
	tbl := NewTable()
	tbl.Intern("hot.function.name")

	b.ResetTimer()
	for range b.N {
		tbl.Intern("hot.function.name")
	}
}
