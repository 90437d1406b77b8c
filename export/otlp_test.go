// Copyright The pushprof Authors
// SPDX-License-Identifier: Apache-2.0

package export

import (
	"context"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/collector/pdata/pprofile/pprofileotlp"
	"google.golang.org/grpc"
)

type protoImpl struct {
	pprofileotlp.UnimplementedGRPCServer

	exportCount atomic.Int64
	sampleCount atomic.Int64
}

func (pi *protoImpl) Export(_ context.Context,
	req pprofileotlp.ExportRequest) (pprofileotlp.ExportResponse, error) {
	pi.exportCount.Add(1)
	pi.sampleCount.Add(int64(req.Profiles().SampleCount()))
	return pprofileotlp.NewExportResponse(), nil
}

func TestOTLPReporterExport(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	pi := &protoImpl{}
	s := grpc.NewServer()
	pprofileotlp.RegisterGRPCServer(s, pi)
	go func() {
		_ = s.Serve(lis)
	}()
	defer s.Stop()

	cfg := &Config{
		Service:               "svc",
		Runtime:               "go",
		CollAgentAddr:         lis.Addr().String(),
		DisableTLS:            true,
		MaxRPCMsgSize:         32 << 20, // 32 MiB
		GRPCConnectionTimeout: 5 * time.Second,
		UploadTimeout:         5 * time.Second,
	}
	require.NoError(t, cfg.Validate())

	r, err := NewOTLP(cfg, "pushprof", "v0.1.0")
	require.NoError(t, err)

	require.NoError(t, r.Start(context.Background()))
	defer r.Stop()

	r.ReportRuntimeMetadata(map[string]string{"host.name": "box1"})

	require.NoError(t, r.Export(context.Background(), testGeneration(t)))

	assert.Equal(t, int64(1), pi.exportCount.Load())
	assert.Equal(t, int64(2), pi.sampleCount.Load())
}

func TestOTLPReporterRequiresStart(t *testing.T) {
	cfg := &Config{Service: "svc", Runtime: "go"}
	require.NoError(t, cfg.Validate())

	r, err := NewOTLP(cfg, "pushprof", "v0.1.0")
	require.NoError(t, err)

	assert.Error(t, r.Export(context.Background(), testGeneration(t)))
}
