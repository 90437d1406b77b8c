// Copyright The pushprof Authors
// SPDX-License-Identifier: Apache-2.0

// pushprof demo binary: aggregates synthetic profiling samples and ships
// them to the configured sink at a fixed cadence.
package main

import (
	"context"
	"fmt"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"time"

	//nolint:gosec
	_ "net/http/pprof"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/unix"

	"github.com/pushprof/pushprof/export"
	"github.com/pushprof/pushprof/metrics"
	"github.com/pushprof/pushprof/periodiccaller"
	"github.com/pushprof/pushprof/profile"
	"github.com/pushprof/pushprof/vc"
)

type exitCode int

const (
	exitSuccess exitCode = 0
	exitFailure exitCode = 1

	// Go 'flag' package calls os.Exit(2) on flag parse errors, if ExitOnError is set
	exitParseError exitCode = 2
)

func main() {
	os.Exit(int(mainWithExitCode()))
}

func mainWithExitCode() exitCode {
	args, err := parseArgs()
	if err != nil {
		return parseError("Failure to parse arguments: %v", err)
	}

	if args.version {
		fmt.Printf("%s\n", vc.Version())
		return exitSuccess
	}

	if args.verboseMode {
		log.SetLevel(log.DebugLevel)
		// Dump the arguments in debug mode.
		args.dump()
	}

	if args.samplesPerSecond <= 0 {
		return parseError("Invalid sampling frequency: %d", args.samplesPerSecond)
	}

	types, err := profile.ParseMetricType(args.profileTypes)
	if err != nil {
		return parseError("Failure to parse profile types: %v", err)
	}

	tags, err := parseTags(args.tags)
	if err != nil {
		return parseError("Failure to parse tags: %v", err)
	}

	// Context to drive the main goroutine and the scheduler run loop.
	mainCtx, mainCancel := signal.NotifyContext(context.Background(),
		unix.SIGINT, unix.SIGTERM, unix.SIGABRT)
	defer mainCancel()

	if args.pprofAddr != "" {
		go func() {
			//nolint:gosec
			if err = http.ListenAndServe(args.pprofAddr, nil); err != nil {
				log.Errorf("Serving pprof on %s failed: %s", args.pprofAddr, err)
			}
		}()
	}

	log.Infof("Starting pushprof %s (revision %s, build timestamp %s)",
		vc.Version(), vc.Revision(), vc.BuildTimestamp())

	cfg := &export.Config{
		Service:               args.service,
		Env:                   args.env,
		Version:               args.serviceVersion,
		Runtime:               "go",
		RuntimeVersion:        runtime.Version(),
		Tags:                  tags,
		AgentURL:              args.agentURL,
		CollAgentAddr:         args.collAgentAddr,
		DisableTLS:            args.disableTLS,
		MaxRPCMsgSize:         33554432, // 32 MiB
		UploadTimeout:         args.uploadTimeout,
		ReportInterval:        args.reportInterval,
		GRPCConnectionTimeout: 5 * time.Second,
	}
	if err = cfg.Validate(); err != nil {
		return failure("Failed to validate configuration: %v", err)
	}

	prof, err := profile.NewBuilder().
		AddType(types).
		SetMaxFrames(args.maxFrames).
		Build()
	if err != nil {
		return failure("Failed to build profile: %v", err)
	}

	encodeOpts := export.EncodeOptions{ProgramName: os.Args[0]}

	var exp export.Exporter
	switch args.exporter {
	case "file":
		exp = export.NewFileExporter(args.outputDir, args.service, encodeOpts)
	case "agent":
		if cfg.AgentURL == "" {
			return parseError("The agent exporter requires -agent-url")
		}
		exp = export.NewUploader(cfg, encodeOpts)
	case "otlp":
		if cfg.CollAgentAddr == "" {
			return parseError("The otlp exporter requires -collection-agent")
		}
		otlp, otlpErr := export.NewOTLP(cfg, "pushprof", vc.Version())
		if otlpErr != nil {
			return failure("Failed to create OTLP reporter: %v", otlpErr)
		}
		if otlpErr = otlp.Start(mainCtx); otlpErr != nil {
			return failure("Failed to connect to %s: %v", cfg.CollAgentAddr, otlpErr)
		}
		defer otlp.Stop()
		exp = otlp
	default:
		return parseError("Unknown exporter %q", args.exporter)
	}

	scheduler := export.NewScheduler(prof, exp, export.SchedulerConfig{
		ReportInterval: cfg.ReportInterval,
		ExportTimeout:  cfg.UploadTimeout,
	})
	scheduler.Start(mainCtx)
	defer scheduler.Stop()

	// Flush buffered self-metrics every second.
	defer periodiccaller.Start(mainCtx, 1*time.Second, func() {
		metrics.AddSlice(nil)
	})()

	g, driverCtx := errgroup.WithContext(mainCtx)
	g.Go(func() error {
		return runDriver(driverCtx, scheduler, types, args.samplesPerSecond)
	})

	// Block waiting for a signal to indicate the program should terminate.
	<-mainCtx.Done()

	log.Info("Stopping pushprof")
	if err = g.Wait(); err != nil {
		return failure("Driver failed: %v", err)
	}

	success, failed := scheduler.ExportStats()
	log.Infof("Exported %d generation(s), %d failed", success, failed)
	return exitSuccess
}

// fakeFrames is the symbol catalog of the synthetic workload.
var fakeFrames = []struct {
	name string
	file string
}{
	{"demo.handleRequest", "server.go"},
	{"demo.decodePayload", "codec.go"},
	{"demo.queryBackend", "backend.go"},
	{"demo.renderResponse", "render.go"},
	{"demo.acquireConn", "pool.go"},
	{"demo.main", "main.go"},
}

// runDriver produces synthetic samples at the configured frequency until
// ctx is canceled. It stands in for the runtime collectors that feed a
// real deployment.
func runDriver(ctx context.Context, scheduler *export.Scheduler,
	types profile.MetricType, samplesPerSecond int) error {
	period := time.Second / time.Duration(samplesPerSecond)
	periodNanos := period.Nanoseconds()

	tick := time.NewTicker(period)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-tick.C:
			scheduler.WithProfile(func(p *profile.Profile) {
				pushSyntheticSample(p, types, periodNanos)
			})
		}
	}
}

// pushSyntheticSample records one randomized sample covering the enabled
// metric types.
func pushSyntheticSample(p *profile.Profile, types profile.MetricType, periodNanos int64) {
	depth := 2 + rand.IntN(len(fakeFrames)-1)
	leaf := rand.IntN(len(fakeFrames))

	p.StartSample(depth)
	for i := range depth {
		f := fakeFrames[(leaf+i)%len(fakeFrames)]
		p.PushFrame(f.name, f.file, uint64(0x1000*(leaf+i+1)), int64(10*(i+1)))
	}

	_ = p.PushThreadInfo(int64(1+rand.IntN(4)), int64(7000+rand.IntN(4)), "")

	if types.Has(profile.CPU) {
		_ = p.PushCPUTime(periodNanos/2, 1)
	}
	if types.Has(profile.Wall) {
		_ = p.PushWallTime(periodNanos, 1)
	}
	if types.Has(profile.Exception) && rand.IntN(100) == 0 {
		_ = p.PushExceptionInfo("demo.TimeoutError", 1)
	}
	if types.Has(profile.LockAcquire) && rand.IntN(10) == 0 {
		_ = p.PushLockName("demo.poolLock")
		_ = p.PushLockAcquire(rand.Int64N(periodNanos), 1)
	}
	if types.Has(profile.LockRelease) && rand.IntN(10) == 0 {
		_ = p.PushLockRelease(rand.Int64N(periodNanos), 1)
	}
	if types.Has(profile.Allocation) {
		_ = p.PushAlloc(int64(1+rand.IntN(1<<16)), int64(1+rand.IntN(8)))
	}
	if types.Has(profile.Heap) && rand.IntN(50) == 0 {
		_ = p.PushHeap(int64(1 + rand.IntN(1<<24)))
	}

	if err := p.FlushSample(); err != nil {
		log.Debugf("Dropping sample: %v", err)
	}
}

func parseError(msg string, args ...any) exitCode {
	log.Errorf(msg, args...)
	return exitParseError
}

func failure(msg string, args ...any) exitCode {
	log.Errorf(msg, args...)
	return exitFailure
}
