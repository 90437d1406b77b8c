// Copyright The pushprof Authors
// SPDX-License-Identifier: Apache-2.0

package profile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLabelKeySetIsClosedAndExhaustive(t *testing.T) {
	keys := LabelKeys()
	require.Len(t, keys, MaxLabels)

	seen := make(map[string]LabelKey, len(keys))
	for _, k := range keys {
		assert.True(t, k.Valid(), "key %d", k)

		name := k.String()
		assert.NotEmpty(t, name)
		_, dup := seen[name]
		assert.False(t, dup, "duplicate wire name %q", name)
		seen[name] = k
	}

	// The first key past the enumeration is rejected at the type level.
	assert.False(t, LabelKey(MaxLabels).Valid())
	assert.Contains(t, LabelKey(MaxLabels).String(), "invalid")
}

func TestLabelKeyWireNames(t *testing.T) {
	assert.Equal(t, "thread id", ThreadID.String())
	assert.Equal(t, "local root span id", LocalRootSpanID.String())
	assert.Equal(t, "exception type", ExceptionType.String())
}
