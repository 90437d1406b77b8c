// Copyright The pushprof Authors
// SPDX-License-Identifier: Apache-2.0

package metrics // import "github.com/pushprof/pushprof/metrics"

// Metric IDs of the aggregation engine and its export path.
const (
	IDInvalid MetricID = iota

	// IDGenerationsExported counts profile generations shipped out.
	IDGenerationsExported
	// IDExportFailures counts export attempts that returned an error.
	IDExportFailures
	// IDExportedBytes counts serialized profile payload bytes.
	IDExportedBytes
	// IDExportDurationMs gauges the duration of the last export.
	IDExportDurationMs
	// IDSamplesCommitted counts flushed samples per generation.
	IDSamplesCommitted
	// IDSamplesMerged counts flushes merged into identical samples.
	IDSamplesMerged
	// IDFramesTruncated counts frames dropped to the stack depth cap.
	IDFramesTruncated
	// IDLabelsDropped counts label pushes rejected for capacity.
	IDLabelsDropped
	// IDPushesRejected counts value pushes for disabled metric types.
	IDPushesRejected
	// IDStringsInterned gauges distinct interner entries per generation.
	IDStringsInterned

	IDMax
)

// definitions is the static metric catalog. IDs are positional; keep the
// order aligned with the constants above.
var definitions = []MetricDefinition{
	{
		ID:          IDGenerationsExported,
		Type:        MetricTypeCounter,
		Name:        "pushprof.export.generations",
		Description: "Number of profile generations exported",
		Unit:        "1",
	},
	{
		ID:          IDExportFailures,
		Type:        MetricTypeCounter,
		Name:        "pushprof.export.failures",
		Description: "Number of failed profile exports",
		Unit:        "1",
	},
	{
		ID:          IDExportedBytes,
		Type:        MetricTypeCounter,
		Name:        "pushprof.export.bytes",
		Description: "Serialized profile payload bytes shipped",
		Unit:        "By",
	},
	{
		ID:          IDExportDurationMs,
		Type:        MetricTypeGauge,
		Name:        "pushprof.export.duration",
		Description: "Duration of the last profile export",
		Unit:        "ms",
	},
	{
		ID:          IDSamplesCommitted,
		Type:        MetricTypeCounter,
		Name:        "pushprof.profile.samples_committed",
		Description: "Samples flushed into the exported generation",
		Unit:        "1",
	},
	{
		ID:          IDSamplesMerged,
		Type:        MetricTypeCounter,
		Name:        "pushprof.profile.samples_merged",
		Description: "Samples merged into an identical committed sample",
		Unit:        "1",
	},
	{
		ID:          IDFramesTruncated,
		Type:        MetricTypeCounter,
		Name:        "pushprof.profile.frames_truncated",
		Description: "Frames replaced by truncation markers",
		Unit:        "1",
	},
	{
		ID:          IDLabelsDropped,
		Type:        MetricTypeCounter,
		Name:        "pushprof.profile.labels_dropped",
		Description: "Label pushes rejected for capacity",
		Unit:        "1",
	},
	{
		ID:          IDPushesRejected,
		Type:        MetricTypeCounter,
		Name:        "pushprof.profile.pushes_rejected",
		Description: "Value pushes for disabled metric types",
		Unit:        "1",
	},
	{
		ID:          IDStringsInterned,
		Type:        MetricTypeGauge,
		Name:        "pushprof.profile.strings_interned",
		Description: "Distinct interned strings in the exported generation",
		Unit:        "1",
	},
}

// GetDefinitions returns the static metric definitions.
func GetDefinitions() []MetricDefinition {
	defs := make([]MetricDefinition, len(definitions))
	copy(defs, definitions)
	return defs
}
