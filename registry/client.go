// Package registry distributes JMOD files as OCI blobs.
//
// A JMOD pushed with Client.Push is stored as a single blob addressed by its
// digest. Client.Open resolves a digest reference such as
// registry.example.com/jdk/java.base@sha256:... and reads the container
// lazily through HTTP range requests, so listing or extracting a few entries
// does not download the whole module.
package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	nethttp "net/http"

	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"oras.land/oras-go/v2/errdef"
	"oras.land/oras-go/v2/registry"
	"oras.land/oras-go/v2/registry/remote"
	"oras.land/oras-go/v2/registry/remote/auth"
	"oras.land/oras-go/v2/registry/remote/errcode"
	"oras.land/oras-go/v2/registry/remote/retry"

	"github.com/meigma/jmod"
	"github.com/meigma/jmod/cache"
	jmodhttp "github.com/meigma/jmod/http"
)

var (
	// ErrInvalidReference is returned when a reference cannot be parsed.
	ErrInvalidReference = errors.New("registry: invalid reference")

	// ErrDigestRequired is returned when Open is given a tag instead of a
	// digest. Blobs are only addressable by digest.
	ErrDigestRequired = errors.New("registry: reference must name a digest")

	// ErrNotFound is returned when the blob does not exist.
	ErrNotFound = errors.New("registry: not found")

	// ErrUnauthorized is returned when the registry rejects the credentials.
	ErrUnauthorized = errors.New("registry: unauthorized")

	// ErrForbidden is returned when access to the repository is denied.
	ErrForbidden = errors.New("registry: forbidden")
)

const defaultUserAgent = "jmod/1.0"

// Client pushes and opens JMOD blobs in OCI registries.
type Client struct {
	plainHTTP  bool
	userAgent  string
	credential auth.CredentialFunc
	base       *nethttp.Client
	cacheOpts  []cache.Option
	logger     *slog.Logger

	authClient *auth.Client
}

// New creates a Client with the given options.
func New(opts ...Option) *Client {
	c := &Client{
		userAgent: defaultUserAgent,
		base:      retry.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}

	// One auth client per Client so tokens are reused across requests.
	c.authClient = &auth.Client{
		Client: c.base,
		Cache:  auth.NewCache(),
		Credential: func(ctx context.Context, hostport string) (auth.Credential, error) {
			if c.credential == nil {
				return auth.EmptyCredential, nil
			}
			return c.credential(ctx, hostport)
		},
		Header: nethttp.Header{
			"User-Agent": []string{c.userAgent},
		},
	}
	return c
}

func (c *Client) log() *slog.Logger {
	if c.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.logger
}

// IsDigestReference reports whether s parses as a registry reference that
// names a digest.
func IsDigestReference(s string) bool {
	ref, err := registry.ParseReference(s)
	if err != nil {
		return false
	}
	return ref.ValidateReferenceAsDigest() == nil
}

func parseRef(s string) (registry.Reference, error) {
	ref, err := registry.ParseReference(s)
	if err != nil {
		return registry.Reference{}, fmt.Errorf("%w: %v", ErrInvalidReference, err)
	}
	return ref, nil
}

func (c *Client) repository(ref registry.Reference) (*remote.Repository, error) {
	repo, err := remote.NewRepository(ref.Registry + "/" + ref.Repository)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidReference, err)
	}
	repo.PlainHTTP = c.plainHTTP
	repo.Client = c.authClient
	return repo, nil
}

// BlobURL returns the URL a blob is served from.
func (c *Client) BlobURL(ref registry.Reference, dgst string) string {
	scheme := "https"
	if c.plainHTTP {
		scheme = "http"
	}
	return fmt.Sprintf("%s://%s/v2/%s/blobs/%s", scheme, ref.Host(), ref.Repository, dgst)
}

// Resolve returns the descriptor of the blob named by a digest reference.
func (c *Client) Resolve(ctx context.Context, reference string) (ocispec.Descriptor, error) {
	ref, err := parseRef(reference)
	if err != nil {
		return ocispec.Descriptor{}, err
	}
	if err := ref.ValidateReferenceAsDigest(); err != nil {
		return ocispec.Descriptor{}, fmt.Errorf("%w: %s", ErrDigestRequired, reference)
	}
	repo, err := c.repository(ref)
	if err != nil {
		return ocispec.Descriptor{}, err
	}

	desc, err := repo.Blobs().Resolve(ctx, ref.Reference)
	if err != nil {
		return ocispec.Descriptor{}, mapError(err)
	}
	return desc, nil
}

// OpenSource resolves a digest reference and returns a range-reading source
// over the blob together with its descriptor. The source size is checked
// against the descriptor.
func (c *Client) OpenSource(ctx context.Context, reference string) (*jmodhttp.Source, ocispec.Descriptor, error) {
	desc, err := c.Resolve(ctx, reference)
	if err != nil {
		return nil, ocispec.Descriptor{}, err
	}
	ref, err := parseRef(reference)
	if err != nil {
		return nil, ocispec.Descriptor{}, err
	}

	url := c.BlobURL(ref, desc.Digest.String())
	src, err := jmodhttp.NewSource(ctx, url,
		jmodhttp.WithClient(&nethttp.Client{Transport: authTransport{client: c.authClient}}),
		jmodhttp.WithExpectedSize(desc.Size),
		jmodhttp.WithConditionalHeaders(),
	)
	if err != nil {
		return nil, ocispec.Descriptor{}, fmt.Errorf("open blob %s: %w", reference, mapError(err))
	}
	c.log().Debug("resolved blob", "ref", reference, "size", desc.Size)
	return src, desc, nil
}

// Open resolves a digest reference and opens the blob as a JMOD archive.
// Reads go through an in-memory block cache.
func (c *Client) Open(ctx context.Context, reference string, opts ...jmod.Option) (*jmod.Archive, error) {
	src, _, err := c.OpenSource(ctx, reference)
	if err != nil {
		return nil, err
	}
	return jmod.OpenSource(cache.NewBlockSource(src, c.cacheOpts...), reference, opts...)
}

// Push uploads the archive file as a blob in the repository named by
// repoRef. Any tag or digest in repoRef is ignored. Pushing a blob the
// registry already has is a no-op. The returned descriptor is the one
// produced by Archive.Descriptor.
func (c *Client) Push(ctx context.Context, repoRef string, a *jmod.Archive) (ocispec.Descriptor, error) {
	ref, err := parseRef(repoRef)
	if err != nil {
		return ocispec.Descriptor{}, err
	}
	repo, err := c.repository(ref)
	if err != nil {
		return ocispec.Descriptor{}, err
	}

	desc, err := a.Descriptor()
	if err != nil {
		return ocispec.Descriptor{}, err
	}

	exists, err := repo.Blobs().Exists(ctx, desc)
	if err != nil {
		return ocispec.Descriptor{}, mapError(err)
	}
	if exists {
		c.log().Debug("blob already present", "repo", repoRef, "digest", desc.Digest.String())
		return desc, nil
	}

	content, err := a.Content()
	if err != nil {
		return ocispec.Descriptor{}, err
	}
	if err := repo.Blobs().Push(ctx, desc, content); err != nil {
		return ocispec.Descriptor{}, mapError(err)
	}
	c.log().Debug("pushed blob", "repo", repoRef, "digest", desc.Digest.String(), "size", desc.Size)
	return desc, nil
}

// DigestReference returns the reference that names desc in repoRef's
// repository.
func DigestReference(repoRef string, desc ocispec.Descriptor) (string, error) {
	ref, err := parseRef(repoRef)
	if err != nil {
		return "", err
	}
	ref.Reference = desc.Digest.String()
	return ref.String(), nil
}

// mapError converts ORAS and HTTP errors to the package sentinels.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, errdef.ErrNotFound) {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	if errors.Is(err, auth.ErrBasicCredentialNotFound) {
		return fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	var errResp *errcode.ErrorResponse
	if errors.As(err, &errResp) {
		switch errResp.StatusCode {
		case nethttp.StatusNotFound:
			return fmt.Errorf("%w: %v", ErrNotFound, err)
		case nethttp.StatusUnauthorized:
			return fmt.Errorf("%w: %v", ErrUnauthorized, err)
		case nethttp.StatusForbidden:
			return fmt.Errorf("%w: %v", ErrForbidden, err)
		}
	}
	return err
}

// authTransport sends range requests through the ORAS auth client so blob
// reads get the same challenge handling and token cache as API calls.
type authTransport struct {
	client *auth.Client
}

func (t authTransport) RoundTrip(req *nethttp.Request) (*nethttp.Response, error) {
	return t.client.Do(req)
}
