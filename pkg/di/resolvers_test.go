package di_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helm-commander/helmcommander/pkg/di"
	"github.com/helm-commander/helmcommander/pkg/k8s"
)

var errHandlerExecutionFailed = errors.New("handler execution failed")

func TestResolveClient_Success(t *testing.T) {
	t.Parallel()

	injector := do.New()
	expected := &k8s.Client{Timeout: 5 * time.Second}

	do.Provide(injector, func(do.Injector) (*k8s.Client, error) {
		return expected, nil
	})

	client, err := di.ResolveClient(injector)

	require.NoError(t, err)
	require.NotNil(t, client)
	assert.Equal(t, expected, client)
}

func TestResolveClient_Error(t *testing.T) {
	t.Parallel()

	injector := do.New()

	client, err := di.ResolveClient(injector)

	require.Error(t, err)
	assert.Nil(t, client)
	assert.Contains(t, err.Error(), "resolve cluster client dependency")
}

func TestResolveDoctorThresholds_Success(t *testing.T) {
	t.Parallel()

	injector := do.New()
	expected := di.DoctorThresholds{Stuck: 15 * time.Minute, RevisionBloat: 10}

	do.Provide(injector, func(do.Injector) (di.DoctorThresholds, error) {
		return expected, nil
	})

	thresholds, err := di.ResolveDoctorThresholds(injector)

	require.NoError(t, err)
	assert.Equal(t, expected, thresholds)
}

func TestResolveDoctorThresholds_Error(t *testing.T) {
	t.Parallel()

	injector := do.New()

	_, err := di.ResolveDoctorThresholds(injector)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "resolve doctor thresholds dependency")
}

func TestResolveRepoCacheConfig_Success(t *testing.T) {
	t.Parallel()

	injector := do.New()
	expected := di.RepoCacheConfig{CacheDir: "/tmp/cache", ConfigDir: "/tmp/config"}

	do.Provide(injector, func(do.Injector) (di.RepoCacheConfig, error) {
		return expected, nil
	})

	cfg, err := di.ResolveRepoCacheConfig(injector)

	require.NoError(t, err)
	assert.Equal(t, expected, cfg)
}

func TestResolveRepoCacheConfig_Error(t *testing.T) {
	t.Parallel()

	injector := do.New()

	_, err := di.ResolveRepoCacheConfig(injector)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "resolve repo cache config dependency")
}

func TestWithClient_Success(t *testing.T) {
	t.Parallel()

	injector := do.New()
	expected := &k8s.Client{Timeout: 5 * time.Second}

	do.Provide(injector, func(do.Injector) (*k8s.Client, error) {
		return expected, nil
	})

	handlerCalled := false
	handler := func(_ *cobra.Command, _ di.Injector, client *k8s.Client) error {
		handlerCalled = true
		assert.Equal(t, expected, client)

		return nil
	}

	wrapped := di.WithClient(handler)
	err := wrapped(&cobra.Command{}, injector)

	require.NoError(t, err)
	assert.True(t, handlerCalled, "handler should have been called")
}

func TestWithClient_HandlerError(t *testing.T) {
	t.Parallel()

	injector := do.New()
	do.Provide(injector, func(do.Injector) (*k8s.Client, error) {
		return &k8s.Client{}, nil
	})

	handler := func(_ *cobra.Command, _ di.Injector, _ *k8s.Client) error {
		return fmt.Errorf("handler failed: %w", errHandlerExecutionFailed)
	}

	wrapped := di.WithClient(handler)
	err := wrapped(&cobra.Command{}, injector)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "handler execution failed")
}

func TestWithClient_ResolveError(t *testing.T) {
	t.Parallel()

	injector := do.New()

	handler := func(_ *cobra.Command, _ di.Injector, _ *k8s.Client) error {
		return nil
	}

	wrapped := di.WithClient(handler)
	err := wrapped(&cobra.Command{}, injector)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "resolve cluster client dependency")
}
