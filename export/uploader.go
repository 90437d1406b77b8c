// Copyright The pushprof Authors
// SPDX-License-Identifier: Apache-2.0

package export // import "github.com/pushprof/pushprof/export"

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/pushprof/pushprof/metrics"
	"github.com/pushprof/pushprof/profile"
)

// profilingEndpoint is the agent route accepting profile uploads.
const profilingEndpoint = "/profiling/v1/input"

// eventVersion is the version of the event.json format.
const eventVersion = "4"

// Assert that we implement the full Exporter interface.
var _ Exporter = (*Uploader)(nil)

// uploadEvent is the event.json part describing the attached profile.
type uploadEvent struct {
	Attachments []string `json:"attachments"`
	Tags        string   `json:"tags_profiler"`
	Start       string   `json:"start"`
	End         string   `json:"end"`
	Family      string   `json:"family"`
	Version     string   `json:"version"`
}

// Uploader ships generations to the agent profiling endpoint as a
// multipart POST of event.json plus the auto.pprof attachment. One shot
// per generation, a failed upload drops the generation.
type Uploader struct {
	cfg    *Config
	opts   EncodeOptions
	client *http.Client
}

func NewUploader(cfg *Config, opts EncodeOptions) *Uploader {
	return &Uploader{
		cfg:    cfg,
		opts:   opts,
		client: &http.Client{},
	}
}

func (u *Uploader) Export(ctx context.Context, gen *profile.Generation) error {
	data, err := Marshal(gen, u.opts)
	if err != nil {
		return err
	}

	tags := append(u.cfg.TagList(),
		"profile_seq:"+strconv.FormatUint(gen.Seq, 10))

	event := uploadEvent{
		Attachments: []string{"auto.pprof"},
		Tags:        strings.Join(tags, ","),
		Start:       gen.Start.UTC().Format(time.RFC3339Nano),
		End:         gen.End.UTC().Format(time.RFC3339Nano),
		Family:      u.cfg.Runtime,
		Version:     eventVersion,
	}

	body, contentType, err := buildMultipart(event, data)
	if err != nil {
		return fmt.Errorf("building upload for generation %d: %w", gen.Seq, err)
	}

	ctx, cancel := context.WithTimeout(ctx, u.cfg.UploadTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		u.cfg.AgentURL+profilingEndpoint, body)
	if err != nil {
		return fmt.Errorf("building upload for generation %d: %w", gen.Seq, err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := u.client.Do(req)
	if err != nil {
		return fmt.Errorf("uploading generation %d: %w", gen.Seq, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("uploading generation %d: agent returned %s", gen.Seq, resp.Status)
	}

	metrics.Add(metrics.IDExportedBytes, metrics.MetricValue(len(data)))
	log.Debugf("Uploaded %d samples of generation %d", len(gen.Samples), gen.Seq)
	return nil
}

// buildMultipart assembles the event.json and auto.pprof parts.
func buildMultipart(event uploadEvent, pprofData []byte) (*bytes.Buffer, string, error) {
	body := new(bytes.Buffer)
	mw := multipart.NewWriter(body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="event"; filename="event.json"`)
	header.Set("Content-Type", "application/json")
	eventPart, err := mw.CreatePart(header)
	if err != nil {
		return nil, "", err
	}
	if err = json.NewEncoder(eventPart).Encode(event); err != nil {
		return nil, "", err
	}

	pprofPart, err := mw.CreateFormFile("auto.pprof", "auto.pprof")
	if err != nil {
		return nil, "", err
	}
	if _, err = pprofPart.Write(pprofData); err != nil {
		return nil, "", err
	}

	if err = mw.Close(); err != nil {
		return nil, "", err
	}
	return body, mw.FormDataContentType(), nil
}
