// Copyright The pushprof Authors
// SPDX-License-Identifier: Apache-2.0

package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAddJitter(t *testing.T) {
	base := 10 * time.Second

	for range 100 {
		d := AddJitter(base, 0.2)
		assert.GreaterOrEqual(t, d, 8*time.Second)
		assert.LessOrEqual(t, d, 12*time.Second)
	}
}

func TestAddJitterOutOfRange(t *testing.T) {
	base := 10 * time.Second

	assert.Equal(t, base, AddJitter(base, -0.1))
	assert.Equal(t, base, AddJitter(base, 1.1))
}

func TestHashStringIsStable(t *testing.T) {
	assert.Equal(t, HashString("runtime-id"), HashString("runtime-id"))
	assert.NotEqual(t, HashString("runtime-id"), HashString("runtime_id"))
}
