// Copyright The pushprof Authors
// SPDX-License-Identifier: Apache-2.0

package export // import "github.com/pushprof/pushprof/export"

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/pushprof/pushprof/vc"
)

type Config struct {
	// Service is the service name attached to every upload.
	Service string

	// Env is the deployment environment, e.g. "prod" or "staging".
	Env string

	// Version is the version of the profiled service.
	Version string

	// Runtime names the profiled runtime and doubles as the profile
	// family of agent uploads.
	Runtime string

	// RuntimeVersion is the version of the profiled runtime.
	RuntimeVersion string

	// ProfilerVersion is stamped into tags and the OTLP scope version.
	// Defaults to the build version.
	ProfilerVersion string

	// RuntimeID uniquely identifies the profiled process. Defaults to a
	// fresh UUID.
	RuntimeID string

	// Tags are additional key:value pairs attached to every upload.
	// Keys and values must be non-empty.
	Tags map[string]string

	// AgentURL is the base URL of the agent for HTTP uploads.
	AgentURL string

	// CollAgentAddr defines the destination of the OTLP backend connection.
	CollAgentAddr string

	// DisableTLS disables secure communication with the OTLP backend.
	DisableTLS bool

	// MaxRPCMsgSize defines the maximum size of a gRPC message.
	MaxRPCMsgSize int

	// GRPCConnectionTimeout bounds the initial connection attempt.
	GRPCConnectionTimeout time.Duration

	// UploadTimeout bounds a single export of one generation.
	UploadTimeout time.Duration

	// ReportInterval is the base cadence of the export scheduler.
	ReportInterval time.Duration
}

// Validate fills in defaults and rejects malformed settings.
func (c *Config) Validate() error {
	if c.Service == "" {
		return fmt.Errorf("config: service name must not be empty")
	}
	for k, v := range c.Tags {
		if k == "" || v == "" {
			return fmt.Errorf("config: tag %q:%q must have a non-empty key and value", k, v)
		}
	}

	if c.ProfilerVersion == "" {
		c.ProfilerVersion = vc.Version()
	}
	if c.RuntimeID == "" {
		c.RuntimeID = uuid.NewString()
	}
	if c.GRPCConnectionTimeout == 0 {
		c.GRPCConnectionTimeout = 5 * time.Second
	}
	if c.UploadTimeout == 0 {
		c.UploadTimeout = 30 * time.Second
	}
	if c.ReportInterval == 0 {
		c.ReportInterval = 60 * time.Second
	}
	return nil
}

// TagList renders the well-known tags and the user tags as sorted
// "key:value" pairs.
func (c *Config) TagList() []string {
	tags := make([]string, 0, len(c.Tags)+7)
	for k, v := range c.Tags {
		tags = append(tags, k+":"+v)
	}

	addTag := func(key, value string) {
		if value != "" {
			tags = append(tags, key+":"+value)
		}
	}
	addTag("service", c.Service)
	addTag("env", c.Env)
	addTag("version", c.Version)
	addTag("runtime", c.Runtime)
	addTag("runtime_version", c.RuntimeVersion)
	addTag("profiler_version", c.ProfilerVersion)
	addTag("runtime-id", c.RuntimeID)

	sort.Strings(tags)
	return tags
}
