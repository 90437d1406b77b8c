// Copyright The pushprof Authors
// SPDX-License-Identifier: Apache-2.0

package export // import "github.com/pushprof/pushprof/export"

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/pushprof/pushprof/metrics"
	"github.com/pushprof/pushprof/profile"
	"github.com/pushprof/pushprof/successfailurecounter"
	"github.com/pushprof/pushprof/util"
	"github.com/pushprof/pushprof/xsync"
)

type SchedulerConfig struct {
	// ReportInterval is the base cadence between exports. Each cycle the
	// next tick is re-armed with +/- 20% jitter.
	ReportInterval time.Duration

	// ExportTimeout bounds a single export of one generation.
	ExportTimeout time.Duration
}

// Scheduler owns the generation lifecycle of one profile: it serializes
// producer access, periodically snapshots and resets the profile, and
// hands the finalized generation to the exporter outside of the lock.
type Scheduler struct {
	cfg      SchedulerConfig
	exporter Exporter

	// prof guards the profile. Producers reach it through WithProfile,
	// the run loop takes the same lock for snapshot and reset.
	prof xsync.RWMutex[*profile.Profile]

	// seq numbers the exported generations, starting at zero.
	seq atomic.Uint64

	exportSuccess atomic.Uint64
	exportFailure atomic.Uint64

	// stopSignal is the stop signal for shutting down the run loop.
	stopSignal chan util.Void
	stopOnce   sync.Once
}

func NewScheduler(p *profile.Profile, exp Exporter, cfg SchedulerConfig) *Scheduler {
	return &Scheduler{
		cfg:        cfg,
		exporter:   exp,
		prof:       xsync.NewRWMutex(p),
		stopSignal: make(chan util.Void),
	}
}

// WithProfile runs fn with exclusive access to the profile. All sample
// production goes through here so pushes never race the snapshot.
func (s *Scheduler) WithProfile(fn func(p *profile.Profile)) {
	prof := s.prof.WLock()
	defer s.prof.WUnlock(&prof)
	fn(*prof)
}

// Start spawns the run loop. It returns immediately, the loop stops when
// ctx is canceled or Stop is called.
func (s *Scheduler) Start(ctx context.Context) {
	go func() {
		tick := time.NewTicker(s.cfg.ReportInterval)
		defer tick.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopSignal:
				return
			case <-tick.C:
				s.cycle(ctx)
				tick.Reset(util.AddJitter(s.cfg.ReportInterval, 0.2))
			}
		}
	}()
}

// Stop shuts down the run loop and flushes any committed samples.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopSignal)
		s.cycle(context.Background())
	})
}

// ExportStats returns the number of successful and failed export cycles.
func (s *Scheduler) ExportStats() (success, failure uint64) {
	return s.exportSuccess.Load(), s.exportFailure.Load()
}

// cycle snapshots one generation and exports it. Empty generations are
// skipped without consuming a sequence number.
func (s *Scheduler) cycle(ctx context.Context) {
	gen := s.snapshotAndReset()
	if gen == nil {
		return
	}

	sfc := successfailurecounter.New(&s.exportSuccess, &s.exportFailure)
	defer sfc.DefaultToFailure()

	ctx, cancel := context.WithTimeout(ctx, s.cfg.ExportTimeout)
	defer cancel()

	start := time.Now()
	if err := s.exporter.Export(ctx, gen); err != nil {
		log.Errorf("Exporting generation %d failed: %v", gen.Seq, err)
		metrics.Add(metrics.IDExportFailures, 1)
		return
	}
	sfc.ReportSuccess()

	metrics.AddSlice([]metrics.Metric{
		{ID: metrics.IDGenerationsExported, Value: 1},
		{ID: metrics.IDExportDurationMs,
			Value: metrics.MetricValue(time.Since(start).Milliseconds())},
		{ID: metrics.IDSamplesCommitted,
			Value: metrics.MetricValue(gen.Stats.SamplesCommitted)},
		{ID: metrics.IDSamplesMerged,
			Value: metrics.MetricValue(gen.Stats.SamplesMerged)},
		{ID: metrics.IDFramesTruncated,
			Value: metrics.MetricValue(gen.Stats.FramesTruncated)},
		{ID: metrics.IDLabelsDropped,
			Value: metrics.MetricValue(gen.Stats.LabelsDropped)},
		{ID: metrics.IDPushesRejected,
			Value: metrics.MetricValue(gen.Stats.PushesRejected)},
		{ID: metrics.IDStringsInterned,
			Value: metrics.MetricValue(gen.Stats.StringsInterned)},
	})
}

// snapshotAndReset finalizes the current generation under the write
// lock. Exporter I/O happens outside the lock so producers are never
// blocked on the network.
func (s *Scheduler) snapshotAndReset() *profile.Generation {
	prof := s.prof.WLock()
	defer s.prof.WUnlock(&prof)

	if (*prof).NumSamples() == 0 {
		return nil
	}

	gen := (*prof).Snapshot()
	(*prof).Reset()
	gen.Seq = s.seq.Add(1) - 1
	return gen
}
