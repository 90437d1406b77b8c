// Copyright The pushprof Authors
// SPDX-License-Identifier: Apache-2.0

// Package periodiccaller allows periodic calls of functions.
package periodiccaller // import "github.com/pushprof/pushprof/periodiccaller"

import (
	"context"
	"time"

	"github.com/pushprof/pushprof/util"
)

// Start starts a timer that calls <callback> every <interval> until the
// <ctx> is canceled.
func Start(ctx context.Context, interval time.Duration, callback func()) func() {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				callback()
			case <-ctx.Done():
				return
			}
		}
	}()

	return ticker.Stop
}

// StartWithJitter starts a timer that calls <callback> every
// <baseDuration+jitter> until the <ctx> is canceled. <jitter>, [0..1],
// is used to add +/- jitter to <baseDuration> at every iteration of the
// timer.
func StartWithJitter(ctx context.Context, baseDuration time.Duration, jitter float64,
	callback func()) func() {
	ticker := time.NewTicker(util.AddJitter(baseDuration, jitter))
	go func() {
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				callback()
			case <-ctx.Done():
				return
			}
			ticker.Reset(util.AddJitter(baseDuration, jitter))
		}
	}()

	return ticker.Stop
}
