// Copyright The pushprof Authors
// SPDX-License-Identifier: Apache-2.0

package metrics // import "github.com/pushprof/pushprof/metrics"

// MetricID is the type for metric IDs.
type MetricID uint16

// MetricValue is the type for metric values.
type MetricValue int64

// Metric is the type for a metric id/value pair.
type Metric struct {
	ID    MetricID
	Value MetricValue
}

// MetricType distinguishes counters from gauges.
type MetricType uint8

const (
	MetricTypeCounter MetricType = iota
	MetricTypeGauge
)

// MetricDefinition describes one self-metric of the profiler.
type MetricDefinition struct {
	ID          MetricID
	Type        MetricType
	Name        string
	Description string
	Unit        string
}

// Reporter receives the buffered metrics of one reporting period, in
// addition to the OTel instruments. Used by tests and embedders that
// ship self-metrics through their own channel.
type Reporter interface {
	ReportMetrics(timestamp uint32, ids []uint32, values []int64)
}
