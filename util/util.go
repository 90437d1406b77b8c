// Copyright The pushprof Authors
// SPDX-License-Identifier: Apache-2.0

// Package util holds small helpers shared across packages.
package util // import "github.com/pushprof/pushprof/util"

import (
	"math/rand/v2"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/zeebo/xxh3"
)

// Void allows to use maps and channels as sets without paying for values.
type Void struct{}

// AddJitter adds +/- jitter (jitter is [0..1]) to baseDuration.
func AddJitter(baseDuration time.Duration, jitter float64) time.Duration {
	if jitter < 0.0 || jitter > 1.0 {
		log.Errorf("Jitter (%f) out of range [0..1].", jitter)
		return baseDuration
	}
	return time.Duration((1 + jitter - 2*jitter*rand.Float64()) * float64(baseDuration))
}

// HashString is a helper function for LRUs that use string as a key.
// Xxh3 turned out to be the fastest hash function for strings in the
// FreeLRU benchmarks.
func HashString(s string) uint32 {
	return uint32(xxh3.HashString(s))
}
