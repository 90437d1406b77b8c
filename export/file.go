// Copyright The pushprof Authors
// SPDX-License-Identifier: Apache-2.0

package export // import "github.com/pushprof/pushprof/export"

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"

	"github.com/pushprof/pushprof/metrics"
	"github.com/pushprof/pushprof/profile"
)

// Assert that we implement the full Exporter interface.
var _ Exporter = (*FileExporter)(nil)

// FileExporter writes each generation as <prefix>.<seq>.pprof into a
// directory. Intended as a debugging and demo sink.
type FileExporter struct {
	dir    string
	prefix string
	opts   EncodeOptions
}

func NewFileExporter(dir, prefix string, opts EncodeOptions) *FileExporter {
	return &FileExporter{
		dir:    dir,
		prefix: prefix,
		opts:   opts,
	}
}

func (e *FileExporter) Export(_ context.Context, gen *profile.Generation) error {
	data, err := Marshal(gen, e.opts)
	if err != nil {
		return err
	}

	path := filepath.Join(e.dir, fmt.Sprintf("%s.%d.pprof", e.prefix, gen.Seq))
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing generation %d: %w", gen.Seq, err)
	}

	metrics.Add(metrics.IDExportedBytes, metrics.MetricValue(len(data)))
	log.Debugf("Wrote %d samples to %s", len(gen.Samples), path)
	return nil
}
