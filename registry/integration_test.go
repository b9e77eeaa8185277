//go:build integration

package registry_test

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/meigma/jmod/registry"
)

// Run with: go test -tags=integration ./registry/...

var (
	registryOnce sync.Once
	registryAddr string
	registryErr  error
)

// getRegistry returns the address of a shared registry:2 container.
func getRegistry(tb testing.TB) string {
	tb.Helper()

	if os.Getenv("SKIP_DOCKER_TESTS") == "1" {
		tb.Skip("SKIP_DOCKER_TESTS is set")
	}

	registryOnce.Do(func() {
		registryAddr, registryErr = startRegistryContainer(context.Background())
	})
	if registryErr != nil {
		tb.Fatalf("start registry container: %v", registryErr)
	}
	return registryAddr
}

func startRegistryContainer(ctx context.Context) (string, error) {
	req := testcontainers.ContainerRequest{
		Image:        "registry:2",
		ExposedPorts: []string{"5000/tcp"},
		WaitingFor: wait.ForHTTP("/v2/").WithPort("5000/tcp").WithStatusCodeMatcher(func(status int) bool {
			return status >= 200 && status < 300
		}),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return "", fmt.Errorf("start registry container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return "", fmt.Errorf("resolve registry host: %w", err)
	}
	port, err := container.MappedPort(ctx, "5000/tcp")
	if err != nil {
		return "", fmt.Errorf("resolve registry port: %w", err)
	}
	return fmt.Sprintf("%s:%s", host, port.Port()), nil
}

func TestRegistryRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	addr := getRegistry(t)
	client := registry.New(registry.WithPlainHTTP(true))
	a := openTestArchive(t)

	repoRef := addr + "/jdk/java.test"
	desc, err := client.Push(ctx, repoRef, a)
	require.NoError(t, err)

	ref, err := registry.DigestReference(repoRef, desc)
	require.NoError(t, err)

	remote, err := client.Open(ctx, ref)
	require.NoError(t, err)
	defer remote.Close()

	assert.Equal(t, a.Len(), remote.Len())
	for e, err := range a.Entries() {
		require.NoError(t, err)
		want, err := a.ReadFile(e.Section(), e.Name())
		require.NoError(t, err)
		got, err := remote.ReadFile(e.Section(), e.Name())
		require.NoError(t, err)
		assert.Equal(t, want, got, e.Path())
	}

	d, err := remote.Digest()
	require.NoError(t, err)
	assert.Equal(t, desc.Digest, d)
}

func TestRegistryMissingBlob(t *testing.T) {
	t.Parallel()

	addr := getRegistry(t)
	client := registry.New(registry.WithPlainHTTP(true))
	a := openTestArchive(t)

	desc, err := a.Descriptor()
	require.NoError(t, err)
	ref, err := registry.DigestReference(addr+"/jdk/never-pushed", desc)
	require.NoError(t, err)

	_, err = client.Open(context.Background(), ref)
	assert.ErrorIs(t, err, registry.ErrNotFound)
}
