package di_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/helm-commander/helmcommander/pkg/di"
)

const testKubeconfig = `
apiVersion: v1
kind: Config
clusters:
- cluster:
    server: https://example.invalid:6443
  name: test-cluster
contexts:
- context:
    cluster: test-cluster
    user: test-user
  name: test-context
current-context: test-context
users:
- name: test-user
  user:
    token: fake-token
`

func TestNewRuntime(t *testing.T) {
	t.Parallel()

	rt := di.NewRuntime(di.Options{})

	require.NotNil(t, rt, "expected runtime to be created")
}

func TestNewRuntime_ProvidesClient(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "kubeconfig")
	require.NoError(t, os.WriteFile(path, []byte(testKubeconfig), 0o600))

	rt := di.NewRuntime(di.Options{Kubeconfig: path})

	err := rt.Invoke(func(injector di.Injector) error {
		client, resolveErr := di.ResolveClient(injector)
		require.NoError(t, resolveErr, "expected client to be resolved")
		require.NotNil(t, client, "expected client to be non-nil")

		return nil
	})

	require.NoError(t, err, "expected invoke to succeed")
}

func TestNewRuntime_ProvidesDoctorThresholds_Defaults(t *testing.T) {
	t.Parallel()

	rt := di.NewRuntime(di.Options{})

	err := rt.Invoke(func(injector di.Injector) error {
		thresholds, resolveErr := di.ResolveDoctorThresholds(injector)
		require.NoError(t, resolveErr)
		require.Equal(t, 15*time.Minute, thresholds.Stuck)
		require.Equal(t, 10, thresholds.RevisionBloat)
		require.Equal(t, 24*time.Hour, thresholds.OrphanRetention)

		return nil
	})

	require.NoError(t, err)
}

func TestNewRuntime_ProvidesDoctorThresholds_Overrides(t *testing.T) {
	t.Parallel()

	rt := di.NewRuntime(di.Options{
		StuckThreshold:         5 * time.Minute,
		RevisionBloatThreshold: 3,
		OrphanRetention:        2 * time.Hour,
	})

	err := rt.Invoke(func(injector di.Injector) error {
		thresholds, resolveErr := di.ResolveDoctorThresholds(injector)
		require.NoError(t, resolveErr)
		require.Equal(t, 5*time.Minute, thresholds.Stuck)
		require.Equal(t, 3, thresholds.RevisionBloat)
		require.Equal(t, 2*time.Hour, thresholds.OrphanRetention)

		return nil
	})

	require.NoError(t, err)
}

func TestNewRuntime_ProvidesRepoCacheConfig(t *testing.T) {
	t.Parallel()

	rt := di.NewRuntime(di.Options{HelmCacheDir: "/tmp/cache", HelmConfigDir: "/tmp/config"})

	err := rt.Invoke(func(injector di.Injector) error {
		cfg, resolveErr := di.ResolveRepoCacheConfig(injector)
		require.NoError(t, resolveErr)
		require.Equal(t, "/tmp/cache", cfg.CacheDir)
		require.Equal(t, "/tmp/config", cfg.ConfigDir)

		return nil
	})

	require.NoError(t, err)
}
