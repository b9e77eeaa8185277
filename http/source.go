// Package http provides a jmod.ByteSource backed by HTTP range requests,
// so a remote JMOD file can be inspected without downloading it.
package http //nolint:revive // intentional naming for domain clarity

import (
	"context"
	"errors"
	"fmt"
	"io"
	nethttp "net/http"
	"strconv"
	"strings"
)

var (
	// ErrRangeUnsupported is returned when the server ignores range requests.
	ErrRangeUnsupported = errors.New("http: range requests not supported")

	// ErrSizeMismatch is returned when the remote size differs from the
	// size the caller expected, typically taken from a content descriptor.
	ErrSizeMismatch = errors.New("http: remote size does not match expected size")
)

// Source implements random access reads via HTTP range requests.
// It satisfies jmod.ByteSource (io.ReaderAt plus Size).
type Source struct {
	url                   string
	client                *nethttp.Client
	headers               nethttp.Header
	size                  int64
	expectedSize          int64
	etag                  string
	lastModified          string
	useConditionalHeaders bool
}

// Option configures a Source.
type Option func(*Source)

// WithClient sets the HTTP client used for requests.
func WithClient(client *nethttp.Client) Option {
	return func(s *Source) {
		s.client = client
	}
}

// WithHeader sets a single header on each request.
func WithHeader(key, value string) Option {
	return func(s *Source) {
		if s.headers == nil {
			s.headers = make(nethttp.Header)
		}
		s.headers.Set(key, value)
	}
}

// WithHeaders adds every header in h to each request.
func WithHeaders(h nethttp.Header) Option {
	return func(s *Source) {
		if s.headers == nil {
			s.headers = make(nethttp.Header)
		}
		for key, values := range h {
			for _, value := range values {
				s.headers.Add(key, value)
			}
		}
	}
}

// WithExpectedSize makes NewSource fail with ErrSizeMismatch unless the
// remote reports exactly n bytes. Values < 0 disable the check.
func WithExpectedSize(n int64) Option {
	return func(s *Source) {
		s.expectedSize = n
	}
}

// WithConditionalHeaders pins reads to the content seen at construction by
// sending If-Match or If-Unmodified-Since. A server-side change then fails
// reads instead of mixing bytes from two versions of the file.
func WithConditionalHeaders() Option {
	return func(s *Source) {
		s.useConditionalHeaders = true
	}
}

// NewSource creates a Source backed by HTTP range requests.
// It probes the remote to determine the content size.
func NewSource(ctx context.Context, url string, opts ...Option) (*Source, error) {
	s := &Source{
		url:          url,
		client:       nethttp.DefaultClient,
		expectedSize: -1,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.client == nil {
		s.client = nethttp.DefaultClient
	}

	if err := s.probe(ctx); err != nil {
		return nil, err
	}
	if s.expectedSize >= 0 && s.size != s.expectedSize {
		return nil, fmt.Errorf("%w: %s has %d bytes, want %d", ErrSizeMismatch, url, s.size, s.expectedSize)
	}
	return s, nil
}

// Size returns the total size of the remote content.
func (s *Source) Size() int64 {
	return s.size
}

// URL returns the remote location.
func (s *Source) URL() string {
	return s.url
}

// ReadAt reads data from the remote at the given offset using HTTP range requests.
func (s *Source) ReadAt(p []byte, off int64) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if off < 0 {
		return 0, fmt.Errorf("read at %d: negative offset", off)
	}
	if off >= s.size {
		return 0, io.EOF
	}

	end := off + int64(len(p)) - 1
	expected := len(p)
	if end >= s.size {
		end = s.size - 1
		expected = int(end - off + 1)
	}

	req, err := s.newRequest(context.Background(), nethttp.MethodGet)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Range", fmt.Sprintf("bytes=%d-%d", off, end))

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer drain(resp)

	switch resp.StatusCode {
	case nethttp.StatusPartialContent:
		// ok
	case nethttp.StatusRequestedRangeNotSatisfiable:
		return 0, io.EOF
	case nethttp.StatusOK:
		return 0, ErrRangeUnsupported
	default:
		return 0, fmt.Errorf("range request failed: %s", resp.Status)
	}

	n, err := io.ReadFull(resp.Body, p[:expected])
	if err != nil {
		return n, err
	}
	if expected < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// probe reads the first byte to learn the total size and validators.
func (s *Source) probe(ctx context.Context) error {
	req, err := s.newRequest(ctx, nethttp.MethodGet)
	if err != nil {
		return err
	}
	req.Header.Set("Range", "bytes=0-0")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer drain(resp)

	if resp.StatusCode != nethttp.StatusPartialContent {
		if resp.StatusCode == nethttp.StatusOK {
			return ErrRangeUnsupported
		}
		return fmt.Errorf("range probe failed: %s", resp.Status)
	}

	crange := resp.Header.Get("Content-Range")
	if crange == "" {
		return errors.New("range probe missing Content-Range")
	}
	size, err := parseContentRange(crange)
	if err != nil {
		return err
	}

	s.size = size
	s.etag = resp.Header.Get("ETag")
	s.lastModified = resp.Header.Get("Last-Modified")
	return nil
}

func (s *Source) newRequest(ctx context.Context, method string) (*nethttp.Request, error) {
	req, err := nethttp.NewRequestWithContext(ctx, method, s.url, nethttp.NoBody)
	if err != nil {
		return nil, err
	}
	for key, values := range s.headers {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	if req.Header.Get("Accept-Encoding") == "" {
		req.Header.Set("Accept-Encoding", "identity")
	}
	if s.useConditionalHeaders {
		if s.etag != "" && req.Header.Get("If-Match") == "" {
			req.Header.Set("If-Match", s.etag)
		} else if s.lastModified != "" && req.Header.Get("If-Unmodified-Since") == "" {
			req.Header.Set("If-Unmodified-Since", s.lastModified)
		}
	}
	return req, nil
}

func drain(resp *nethttp.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}

func parseContentRange(value string) (int64, error) {
	value = strings.TrimSpace(value)
	rest, ok := strings.CutPrefix(value, "bytes ")
	if !ok {
		return 0, fmt.Errorf("invalid Content-Range %q", value)
	}
	_, total, ok := strings.Cut(rest, "/")
	if !ok || total == "*" {
		return 0, fmt.Errorf("invalid Content-Range %q", value)
	}
	size, err := strconv.ParseInt(total, 10, 64)
	if err != nil || size < 0 {
		return 0, fmt.Errorf("invalid Content-Range %q", value)
	}
	return size, nil
}
