// Copyright The pushprof Authors
// SPDX-License-Identifier: Apache-2.0

package periodiccaller

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestStart tests periodic calling of a callback.
func TestStart(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Millisecond)
	defer cancel()

	var counter atomic.Int32
	done := make(chan struct{})

	stop := Start(ctx, 10*time.Millisecond, func() {
		if counter.Add(1) == 3 {
			close(done)
		}
	})
	defer stop()

	select {
	case <-done:
	case <-ctx.Done():
		assert.Fail(t, "expected at least 3 callback invocations")
	}
}

// TestStartStopsOnCancel verifies no callbacks happen after cancellation.
func TestStartStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var counter atomic.Int32
	stop := Start(ctx, 5*time.Millisecond, func() {
		counter.Add(1)
	})
	defer stop()

	time.Sleep(30 * time.Millisecond)
	cancel()
	// Allow an in-flight callback to finish.
	time.Sleep(20 * time.Millisecond)

	after := counter.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, counter.Load())
}

// TestStartWithJitter tests periodic calling with jitter.
func TestStartWithJitter(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	var counter atomic.Int32
	done := make(chan struct{})

	stop := StartWithJitter(ctx, 10*time.Millisecond, 0.2, func() {
		if counter.Add(1) == 2 {
			close(done)
		}
	})
	defer stop()

	select {
	case <-done:
	case <-ctx.Done():
		assert.Fail(t, "expected at least 2 jittered invocations")
	}
}
