// Copyright The pushprof Authors
// SPDX-License-Identifier: Apache-2.0

// Package export ships finalized profile generations out of the process.
// It provides the pprof encoder plus three sinks built on it (local
// files, the agent HTTP endpoint and an OTLP gRPC backend), and a
// scheduler that owns the snapshot/reset cadence of a profile.
//
// All sinks are single-shot per generation. A failed export drops the
// generation; retry policy stays with the embedding application.
package export // import "github.com/pushprof/pushprof/export"

import (
	"context"

	"github.com/pushprof/pushprof/profile"
)

// Exporter ships one finalized generation to its destination.
type Exporter interface {
	Export(ctx context.Context, gen *profile.Generation) error
}
