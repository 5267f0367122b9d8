// Package channel submits manifests to the analysis backend and relays the
// backend's live progress stream as a sequence of events.
package channel

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/acheong08/depguardian/internal/errs"
	"github.com/acheong08/depguardian/internal/manifest"
)

// DefaultStreamTimeout bounds how long a run may stay in Streaming
const DefaultStreamTimeout = 10 * time.Minute

// File is a manifest selected for submission
type File struct {
	Name        string
	ContentType string
	Content     []byte
}

// ReadFile loads a manifest from disk
func ReadFile(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	name := filepath.Base(path)
	return File{Name: name, ContentType: manifest.ContentType(name, ""), Content: data}, nil
}

// Client talks to the analysis backend. It allows one run at a time.
type Client struct {
	BaseURL       string
	HTTPClient    *http.Client  // used for the upload request
	StreamClient  *http.Client  // used for the event stream; must not set a Timeout
	StreamTimeout time.Duration // 0 disables the stream deadline
	EventBuffer   int
	Logger        *slog.Logger

	// OnStateChange, when set, observes every state transition.
	OnStateChange func(State)

	active    atomic.Bool
	telemetry *telemetry
}

// NewClient creates a new backend client
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		StreamClient:  &http.Client{},
		StreamTimeout: DefaultStreamTimeout,
		EventBuffer:   64,
		Logger:        slog.Default(),
		telemetry:     newTelemetry(),
	}
}

// Instrument replaces the global otel providers for this client.
// Call it before the first Submit.
func (c *Client) Instrument(tp trace.TracerProvider, mp metric.MeterProvider) {
	c.telemetry = newTelemetryWith(tp, mp)
}

// Busy reports whether a run is in flight
func (c *Client) Busy() bool {
	return c.active.Load()
}

func (c *Client) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}

// upload posts the manifest as a single multipart form field "file".
// Only the status code matters; the body is discarded.
func (c *Client) upload(ctx context.Context, file File) error {
	body, contentType, err := multipartBody(file)
	if err != nil {
		return errs.Transport("channel.Upload", fmt.Errorf("failed to encode upload: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/run", body)
	if err != nil {
		return errs.Transport("channel.Upload", fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return errs.Transport("channel.Upload", fmt.Errorf("failed to upload %s: %w", file.Name, err))
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errs.Transport("channel.Upload", fmt.Errorf("HTTP %d", resp.StatusCode))
	}
	return nil
}

// openStream opens the server-sent event stream. The caller closes the body.
func (c *Client) openStream(ctx context.Context) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/stream", nil)
	if err != nil {
		return nil, errs.Transport("channel.Stream", fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	client := c.StreamClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, errs.Transport("channel.Stream", fmt.Errorf("failed to open stream: %w", err))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, errs.Transport("channel.Stream", fmt.Errorf("HTTP %d", resp.StatusCode))
	}
	return resp.Body, nil
}

func multipartBody(file File) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", mime.FormatMediaType("form-data", map[string]string{
		"name":     "file",
		"filename": filepath.Base(file.Name),
	}))
	header.Set("Content-Type", manifest.ContentType(file.Name, file.ContentType))

	part, err := w.CreatePart(header)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(file.Content); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}
