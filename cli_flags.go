// Copyright The pushprof Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/peterbourgon/ff/v3"
	log "github.com/sirupsen/logrus"
)

const (
	// Default values for CLI flags
	defaultArgSamplesPerSecond = 20
	defaultArgReportInterval   = 60 * time.Second
	defaultArgUploadTimeout    = 30 * time.Second
	defaultArgMaxFrames        = 64
	defaultArgProfileTypes     = "cpu,wall"
	defaultArgExporter         = "file"
	defaultArgOutputDir        = "."
)

// Help strings for command line arguments
var (
	agentURLHelp      = "Base URL of the agent accepting profile uploads, e.g. http://localhost:8126."
	collAgentAddrHelp = "The OTLP collection agent address in the format of host:port."
	disableTLSHelp    = "Disable encryption for data in transit."
	envHelp           = "Deployment environment attached to every upload."
	exporterHelp      = "Export sink: file, agent or otlp."
	maxFramesHelp     = "Maximum stack depth per sample. Deeper stacks are truncated " +
		"with an omission marker."
	outputDirHelp        = "Directory the file exporter writes profiles into."
	pprofHelp            = "Listening address (e.g. localhost:6060) to serve pprof information."
	profileTypesHelp     = "Comma-separated list of profile types to aggregate, or 'all'."
	reportIntervalHelp   = "Interval between profile exports."
	samplesPerSecondHelp = "Set the frequency (in Hz) of synthetic sample production."
	serviceHelp          = "Service name attached to every upload."
	serviceVersionHelp   = "Version of the profiled service."
	tagsHelp             = "Comma-separated list of key:value tags attached to every upload."
	uploadTimeoutHelp    = "Timeout for a single profile export."
	verboseModeHelp      = "Enable verbose logging and debugging capabilities."
	versionHelp          = "Show version."
)

// arguments holds the parsed CLI flags.
type arguments struct {
	agentURL         string
	collAgentAddr    string
	disableTLS       bool
	env              string
	exporter         string
	maxFrames        int
	outputDir        string
	pprofAddr        string
	profileTypes     string
	reportInterval   time.Duration
	samplesPerSecond int
	service          string
	serviceVersion   string
	tags             string
	uploadTimeout    time.Duration
	verboseMode      bool
	version          bool

	fs *flag.FlagSet
}

func parseArgs() (*arguments, error) {
	var args arguments

	fs := flag.NewFlagSet("pushprof", flag.ExitOnError)

	// Please keep the parameters ordered alphabetically in the source-code.
	fs.StringVar(&args.agentURL, "agent-url", "", agentURLHelp)

	fs.StringVar(&args.collAgentAddr, "collection-agent", "", collAgentAddrHelp)

	fs.BoolVar(&args.disableTLS, "disable-tls", false, disableTLSHelp)

	fs.StringVar(&args.env, "env", "", envHelp)
	fs.StringVar(&args.exporter, "exporter", defaultArgExporter, exporterHelp)

	fs.IntVar(&args.maxFrames, "max-frames", defaultArgMaxFrames, maxFramesHelp)

	fs.StringVar(&args.outputDir, "output-dir", defaultArgOutputDir, outputDirHelp)

	fs.StringVar(&args.pprofAddr, "pprof", "", pprofHelp)
	fs.StringVar(&args.profileTypes, "profile-types", defaultArgProfileTypes, profileTypesHelp)

	fs.DurationVar(&args.reportInterval, "report-interval", defaultArgReportInterval,
		reportIntervalHelp)

	fs.IntVar(&args.samplesPerSecond, "samples-per-second", defaultArgSamplesPerSecond,
		samplesPerSecondHelp)
	fs.StringVar(&args.service, "service", "pushprof-demo", serviceHelp)
	fs.StringVar(&args.serviceVersion, "service-version", "", serviceVersionHelp)

	fs.StringVar(&args.tags, "tags", "", tagsHelp)

	fs.DurationVar(&args.uploadTimeout, "upload-timeout", defaultArgUploadTimeout,
		uploadTimeoutHelp)

	fs.BoolVar(&args.verboseMode, "v", false, "Shorthand for -verbose.")
	fs.BoolVar(&args.verboseMode, "verbose", false, verboseModeHelp)
	fs.BoolVar(&args.version, "version", false, versionHelp)

	fs.Usage = func() {
		fs.PrintDefaults()
	}

	args.fs = fs

	return &args, ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("PUSHPROF"),
		ff.WithConfigFileFlag("config"),
		ff.WithConfigFileParser(ff.PlainParser),
		ff.WithIgnoreUndefined(true),
		ff.WithAllowMissingConfigFile(true),
	)
}

// parseTags splits a comma-separated key:value list.
func parseTags(s string) (map[string]string, error) {
	if s == "" {
		return nil, nil
	}
	tags := make(map[string]string)
	for _, pair := range strings.Split(s, ",") {
		key, value, ok := strings.Cut(pair, ":")
		if !ok || key == "" || value == "" {
			return nil, fmt.Errorf("malformed tag %q, expected key:value", pair)
		}
		tags[key] = value
	}
	return tags, nil
}

// dump logs the parsed arguments in debug mode.
func (args *arguments) dump() {
	dump := "Config dump:\n"
	args.fs.VisitAll(func(f *flag.Flag) {
		dump += fmt.Sprintf("%s: %v\n", f.Name, f.Value.String())
	})
	log.Debug(dump)
}
