// Copyright The pushprof Authors
// SPDX-License-Identifier: Apache-2.0

package export // import "github.com/pushprof/pushprof/export"

import (
	"context"
	"crypto/tls"
	"fmt"

	lru "github.com/elastic/go-freelru"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/collector/pdata/pprofile/pprofileotlp"
	semconv "go.opentelemetry.io/otel/semconv/v1.34.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/encoding/gzip"

	"github.com/pushprof/pushprof/export/internal/pdata"
	"github.com/pushprof/pushprof/profile"
	"github.com/pushprof/pushprof/util"
)

// runtimeMetadataCacheElements bounds the runtime metadata attached to
// every request.
const runtimeMetadataCacheElements = 128

// Assert that we implement the full Exporter interface.
var _ Exporter = (*OTLPReporter)(nil)

// OTLPReporter ships generations to an OTLP profiles backend over gRPC.
type OTLPReporter struct {
	cfg *Config

	// name is the ScopeProfile's name.
	name string

	// version is the ScopeProfile's version.
	version string

	// client for the connection to the receiver.
	client pprofileotlp.GRPCClient

	// grpcConn is the open connection to the receiver.
	grpcConn *grpc.ClientConn

	// runtimeMetadata stores metadata that is sent out with every request.
	runtimeMetadata *lru.SyncedLRU[string, string]
}

func NewOTLP(cfg *Config, name, version string) (*OTLPReporter, error) {
	runtimeMetadata, err := lru.NewSynced[string, string](
		runtimeMetadataCacheElements, util.HashString)
	if err != nil {
		return nil, err
	}

	return &OTLPReporter{
		cfg:             cfg,
		name:            name,
		version:         version,
		runtimeMetadata: runtimeMetadata,
	}, nil
}

// ReportRuntimeMetadata adds to and overwrites metadata attached as
// resource attributes to every request.
func (r *OTLPReporter) ReportRuntimeMetadata(metadataMap map[string]string) {
	for k, v := range metadataMap {
		r.runtimeMetadata.Add(k, v)
	}
}

// Start connects to the configured backend.
func (r *OTLPReporter) Start(ctx context.Context) error {
	grpcConn, err := setupGrpcConnection(ctx, r.cfg)
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", r.cfg.CollAgentAddr, err)
	}
	r.grpcConn = grpcConn
	r.client = pprofileotlp.NewGRPCClient(grpcConn)
	return nil
}

func (r *OTLPReporter) Stop() {
	if r.grpcConn == nil {
		return
	}
	if err := r.grpcConn.Close(); err != nil {
		log.Errorf("Closing gRPC connection failed: %v", err)
	}
}

func (r *OTLPReporter) Export(ctx context.Context, gen *profile.Generation) error {
	if r.client == nil {
		return fmt.Errorf("exporting generation %d: reporter not started", gen.Seq)
	}

	attrs := map[string]string{
		string(semconv.ServiceNameKey):       r.cfg.Service,
		string(semconv.ServiceVersionKey):    r.cfg.Version,
		string(semconv.ServiceInstanceIDKey): r.cfg.RuntimeID,
	}
	if r.cfg.Env != "" {
		attrs[string(semconv.DeploymentEnvironmentNameKey)] = r.cfg.Env
	}
	for _, k := range r.runtimeMetadata.Keys() {
		if v, ok := r.runtimeMetadata.Get(k); ok {
			attrs[k] = v
		}
	}

	profiles, err := pdata.Generate(gen, r.name, r.version, attrs)
	if err != nil {
		return err
	}

	req := pprofileotlp.NewExportRequestFromProfiles(profiles)

	ctx, cancel := context.WithTimeout(ctx, r.cfg.UploadTimeout)
	defer cancel()

	if _, err = r.client.Export(ctx, req, grpc.UseCompressor(gzip.Name)); err != nil {
		return fmt.Errorf("exporting generation %d: %w", gen.Seq, err)
	}

	log.Debugf("Exported %d samples of generation %d", len(gen.Samples), gen.Seq)
	return nil
}

// setupGrpcConnection sets up the gRPC connection to the backend.
func setupGrpcConnection(parent context.Context, c *Config) (*grpc.ClientConn, error) {
	//nolint:staticcheck
	opts := []grpc.DialOption{grpc.WithBlock(),
		grpc.WithDefaultCallOptions(
			grpc.MaxCallRecvMsgSize(c.MaxRPCMsgSize),
			grpc.MaxCallSendMsgSize(c.MaxRPCMsgSize)),
		grpc.WithReturnConnectionError(),
	}

	if c.DisableTLS {
		opts = append(opts, grpc.WithTransportCredentials(insecure.NewCredentials()))
	} else {
		opts = append(opts,
			grpc.WithTransportCredentials(credentials.NewTLS(&tls.Config{
				// Support only TLS1.3+ with valid CA certificates
				MinVersion:         tls.VersionTLS13,
				InsecureSkipVerify: false,
			})))
	}

	ctx, cancel := context.WithTimeout(parent, c.GRPCConnectionTimeout)
	defer cancel()
	//nolint:staticcheck
	return grpc.DialContext(ctx, c.CollAgentAddr, opts...)
}
