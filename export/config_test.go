// Copyright The pushprof Authors
// SPDX-License-Identifier: Apache-2.0

package export

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidateDefaults(t *testing.T) {
	cfg := &Config{
		Service: "test-service",
		Runtime: "go",
	}
	require.NoError(t, cfg.Validate())

	assert.NotEmpty(t, cfg.ProfilerVersion)
	assert.NotEmpty(t, cfg.RuntimeID)
	assert.Equal(t, 5*time.Second, cfg.GRPCConnectionTimeout)
	assert.Equal(t, 30*time.Second, cfg.UploadTimeout)
	assert.Equal(t, 60*time.Second, cfg.ReportInterval)
}

func TestConfigValidateRejects(t *testing.T) {
	tests := map[string]*Config{
		"missing service": {},
		"empty tag key": {
			Service: "svc",
			Tags:    map[string]string{"": "value"},
		},
		"empty tag value": {
			Service: "svc",
			Tags:    map[string]string{"key": ""},
		},
	}

	for name, cfg := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestConfigTagList(t *testing.T) {
	cfg := &Config{
		Service:         "svc",
		Env:             "prod",
		Version:         "1.2.3",
		Runtime:         "go",
		RuntimeVersion:  "1.25",
		ProfilerVersion: "v0.1.0",
		RuntimeID:       "abc-123",
		Tags:            map[string]string{"host": "box1"},
	}

	tags := cfg.TagList()
	assert.IsNonDecreasing(t, tags)
	assert.Contains(t, tags, "service:svc")
	assert.Contains(t, tags, "env:prod")
	assert.Contains(t, tags, "version:1.2.3")
	assert.Contains(t, tags, "runtime:go")
	assert.Contains(t, tags, "runtime_version:1.25")
	assert.Contains(t, tags, "profiler_version:v0.1.0")
	assert.Contains(t, tags, "runtime-id:abc-123")
	assert.Contains(t, tags, "host:box1")
}

func TestConfigTagListSkipsUnsetFields(t *testing.T) {
	cfg := &Config{Service: "svc"}

	for _, tag := range cfg.TagList() {
		assert.NotRegexp(t, ":$", tag)
	}
}
