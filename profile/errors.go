// Copyright The pushprof Authors
// SPDX-License-Identifier: Apache-2.0

package profile // import "github.com/pushprof/pushprof/profile"

import "errors"

var (
	// ErrSchema is reported at construction time for an empty or unknown
	// metric type mask, or a frame capacity below 1.
	ErrSchema = errors.New("invalid profile schema")

	// ErrLabelCapacity is reported when a sample carries more labels than
	// the enumerated key set allows. Unlike deep stacks, this indicates a
	// caller bug rather than an expected condition.
	ErrLabelCapacity = errors.New("label capacity exceeded")

	// ErrLabelKey is reported for a label key outside the closed
	// enumeration.
	ErrLabelKey = errors.New("unknown label key")

	// ErrMetricNotEnabled is reported when a value is pushed for a metric
	// type that the Profile was not built with. Callers that push several
	// optional metric kinds per sampling callback routinely ignore it.
	ErrMetricNotEnabled = errors.New("metric type not enabled")

	// ErrNoActiveSample is reported by FlushSample when no StartSample
	// preceded it.
	ErrNoActiveSample = errors.New("no active sample")
)
