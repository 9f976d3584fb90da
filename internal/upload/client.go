// Package upload posts save files to the upload API.
//
// Two strategies exist. Archives (zip containers) are streamed unchanged.
// Plain-text saves are read fully, gzip-compressed and sent with
// Content-Encoding: gzip. Both authenticate with HTTP basic auth.
package upload

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/rakaly/rakaly-uploader/internal/ratelimit"
)

const (
	// DefaultEndpoint is the public upload API.
	DefaultEndpoint = "https://rakaly.com/api/upload"

	// HTTP client settings
	DefaultTimeout        = 2 * time.Minute
	dialTimeout           = 30 * time.Second
	tlsHandshakeTimeout   = 15 * time.Second
	responseHeaderTimeout = 60 * time.Second

	// maxErrorBody caps how much of a rejection body is kept.
	maxErrorBody = 64 << 10

	defaultUserAgent = "rakaly-uploader"
)

// Credential identifies the uploading account.
type Credential struct {
	Username string
	APIKey   string
}

// LogValue keeps the API key out of log records.
func (c Credential) LogValue() slog.Value {
	return slog.GroupValue(slog.String("username", c.Username))
}

// Options tunes the client. Zero values select defaults.
type Options struct {
	Timeout   time.Duration
	Limiter   *ratelimit.Limiter
	UserAgent string
}

// Client uploads save files to a single endpoint with fixed credentials.
type Client struct {
	http      *http.Client
	endpoint  *url.URL
	cred      Credential
	limiter   *ratelimit.Limiter
	userAgent string
	logger    *slog.Logger
}

// New creates a new upload client.
func New(logger *slog.Logger, endpoint string, cred Credential, opts Options) (*Client, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse endpoint: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("endpoint %q: scheme must be http or https", endpoint)
	}

	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   dialTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   tlsHandshakeTimeout,
		ResponseHeaderTimeout: responseHeaderTimeout,
		MaxIdleConns:          2,
		IdleConnTimeout:       90 * time.Second,
	}

	return &Client{
		http: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
		},
		endpoint:  u,
		cred:      cred,
		limiter:   opts.Limiter,
		userAgent: opts.UserAgent,
		logger:    logger,
	}, nil
}

// Endpoint returns the URL uploads are posted to.
func (c *Client) Endpoint() string {
	return c.endpoint.String()
}

// UploadArchive streams the file at path unchanged as application/zip.
func (c *Client) UploadArchive(ctx context.Context, path string) error {
	//#nosec G304 -- path comes from the watched directory
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("unable to open: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("unable to stat: %w", err)
	}
	size := info.Size()

	header := http.Header{}
	header.Set("Content-Type", "application/zip")
	return c.post(ctx, io.LimitReader(f, size), size, header)
}

// UploadCompressedText reads the file at path, compresses it and posts it
// with Content-Encoding: gzip.
func (c *Client) UploadCompressedText(ctx context.Context, path string) error {
	//#nosec G304 -- path comes from the watched directory
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("unable to read: %w", err)
	}

	compressed, err := Compress(data)
	if err != nil {
		return err
	}

	header := http.Header{}
	header.Set("Content-Encoding", "gzip")
	return c.post(ctx, bytes.NewReader(compressed), int64(len(compressed)), header)
}

// post sends one request. A 2xx response is success; anything else becomes
// a *RejectedError carrying the response body.
func (c *Client) post(ctx context.Context, body io.Reader, size int64, header http.Header) error {
	if err := c.limiter.Wait(ctx, c.endpoint.Host); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint.String(), body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.ContentLength = size
	for k, v := range header {
		req.Header[k] = v
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.SetBasicAuth(c.cred.Username, c.cred.APIKey)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	c.logger.Debug("upload response",
		"status", resp.StatusCode,
		"bytes", size,
		"elapsed", time.Since(start),
	)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
		return nil
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	return &RejectedError{StatusCode: resp.StatusCode, Body: decodeBody(raw)}
}
