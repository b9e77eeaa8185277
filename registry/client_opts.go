package registry

import (
	"context"
	"log/slog"
	nethttp "net/http"

	"oras.land/oras-go/v2/registry/remote/auth"
	"oras.land/oras-go/v2/registry/remote/credentials"

	"github.com/meigma/jmod/cache"
)

// Option configures a Client.
type Option func(*Client)

// WithPlainHTTP enables plain HTTP (no TLS) for registries.
// This is useful for local development registries.
func WithPlainHTTP(enabled bool) Option {
	return func(c *Client) {
		c.plainHTTP = enabled
	}
}

// WithCredentialStore sets the credential store for authentication.
func WithCredentialStore(store credentials.Store) Option {
	return func(c *Client) {
		c.credential = func(ctx context.Context, hostport string) (auth.Credential, error) {
			return store.Get(ctx, hostport)
		}
	}
}

// WithDockerConfig reads credentials from ~/.docker/config.json.
// If the docker config cannot be loaded the client uses no credentials.
func WithDockerConfig() Option {
	return func(c *Client) {
		store, err := credentials.NewStoreFromDocker(credentials.StoreOptions{})
		if err != nil {
			return
		}
		WithCredentialStore(store)(c)
	}
}

// WithBasicAuth sets a static username and password for one registry host.
func WithBasicAuth(host, username, password string) Option {
	return func(c *Client) {
		c.credential = auth.StaticCredential(host, auth.Credential{
			Username: username,
			Password: password,
		})
	}
}

// WithUserAgent sets the User-Agent header for requests.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithHTTPClient sets the client the auth layer sends requests with.
// The default retries transient failures.
func WithHTTPClient(client *nethttp.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.base = client
		}
	}
}

// WithBlockCache configures the block cache Open wraps remote reads in.
func WithBlockCache(opts ...cache.Option) Option {
	return func(c *Client) {
		c.cacheOpts = append(c.cacheOpts, opts...)
	}
}

// WithLogger sets the logger for registry operations.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}
