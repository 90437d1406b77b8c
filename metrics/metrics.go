// Copyright The pushprof Authors
// SPDX-License-Identifier: Apache-2.0

// Package metrics buffers the profiler's self-metrics and reports them
// through OTel instruments. Providers hand in id/value pairs at any
// rate; the package deduplicates per one-second period and reports the
// previous period's buffer when the timestamp rolls over.
package metrics // import "github.com/pushprof/pushprof/metrics"

import (
	"context"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/pushprof/pushprof/vc"
)

var (
	// prevTimestamp holds the timestamp of the buffered metrics.
	prevTimestamp uint32

	// metricsBuffer buffers the metrics for the timestamp assigned to
	// prevTimestamp.
	metricsBuffer = make([]Metric, IDMax)

	// metricIDSet is a bitvector used for fast membership operations, to
	// avoid reporting the same metric ID multiple times in the same batch.
	metricIDSet = make([]uint64, 1+(IDMax/64))

	// nMetrics is the number of current entries in metricsBuffer.
	nMetrics int

	// mutex serializes the concurrent calls to AddSlice().
	mutex sync.Mutex

	// metricTypes is used in fallback checks, e.g. to avoid sending
	// counters with 0 values.
	metricTypes map[MetricID]MetricType

	// OTel metric instrumentation.
	meter = otel.Meter("github.com/pushprof/pushprof",
		metric.WithInstrumentationVersion(vc.Version()))
	counters = map[MetricID]metric.Int64Counter{}
	gauges   = map[MetricID]metric.Int64Gauge{}

	reporterImpl Reporter
)

// SetReporter installs an additional sink for reported metrics.
func SetReporter(r Reporter) {
	reporterImpl = r
}

func init() {
	defs := GetDefinitions()
	metricTypes = make(map[MetricID]MetricType, len(defs))
	for _, md := range defs {
		metricTypes[md.ID] = md.Type
		switch typ := md.Type; typ {
		case MetricTypeCounter:
			counter, err := meter.Int64Counter(md.Name,
				metric.WithDescription(md.Description),
				metric.WithUnit(md.Unit))
			if err != nil {
				log.Errorf("Creating Int64Counter: %v", err)
				continue
			}
			counters[md.ID] = counter
		case MetricTypeGauge:
			gauge, err := meter.Int64Gauge(md.Name,
				metric.WithDescription(md.Description),
				metric.WithUnit(md.Unit))
			if err != nil {
				log.Errorf("Creating Int64Gauge: %v", err)
				continue
			}
			gauges[md.ID] = gauge
		default:
			panic(fmt.Sprintf("Unknown metric type: %v", typ))
		}
	}
}

// report converts and reports collected metrics via OTel metrics.
func report() {
	ctx := context.Background()
	if reporterImpl != nil {
		ids := make([]uint32, nMetrics)
		values := make([]int64, nMetrics)

		for i := range nMetrics {
			ids[i] = uint32(metricsBuffer[i].ID)
			values[i] = int64(metricsBuffer[i].Value)
		}
		reporterImpl.ReportMetrics(prevTimestamp, ids, values)
	}
	for i := range nMetrics {
		m := metricsBuffer[i]
		switch metricTypes[m.ID] {
		case MetricTypeCounter:
			if counter, ok := counters[m.ID]; ok {
				counter.Add(ctx, int64(m.Value))
			}
		case MetricTypeGauge:
			if gauge, ok := gauges[m.ID]; ok {
				gauge.Record(ctx, int64(m.Value))
			}
		}
	}
	nMetrics = 0
	clear(metricIDSet)
}

// AddSlice takes a slice of metrics from a metric provider. The function
// buffers the metrics and returns immediately.
//
// Metrics are collected until the timestamp (second resolution) changes;
// the previous period's buffer is then reported with its own timestamp.
// Passing nil is allowed and only triggers the rollover check.
func AddSlice(newMetrics []Metric) {
	now := uint32(time.Now().Unix())

	mutex.Lock()
	defer mutex.Unlock()

	if prevTimestamp != now && nMetrics > 0 {
		report()
	}
	prevTimestamp = now

	for _, m := range newMetrics {
		if m.ID <= IDInvalid || m.ID >= IDMax {
			log.Errorf("Metric ID %d out of range [%d,%d] - needs investigation",
				m.ID, IDInvalid+1, IDMax-1)
			continue
		}

		if m.Value == 0 && metricTypes[m.ID] == MetricTypeCounter {
			continue
		}

		idx := m.ID / 64
		mask := uint64(1) << (m.ID % 64)
		if metricIDSet[idx]&mask > 0 {
			log.Warnf("Metric ID %d:%v reported multiple times", m.ID, m.Value)
			continue
		}

		if nMetrics >= len(metricsBuffer) {
			// Should not happen
			log.Errorf("AddSlice capped reporting to %d metrics - needs investigation",
				len(metricsBuffer))
			continue
		}

		metricIDSet[idx] |= mask
		metricsBuffer[nMetrics] = m
		nMetrics++
	}
}

// Add takes a single metric (id and value) from a metric provider. The
// function buffers the metric and returns immediately.
func Add(id MetricID, value MetricValue) {
	AddSlice([]Metric{{id, value}})
}
