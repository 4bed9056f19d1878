package di

import (
	"time"

	"github.com/samber/do/v2"

	"github.com/helm-commander/helmcommander/pkg/k8s"
	"github.com/helm-commander/helmcommander/pkg/repoindex"
)

// Dependency providers.

// Options configures the dependencies NewRuntime registers: the cluster
// connection and the Doctor Engine / Repo Resolver thresholds, each of
// which a command's flags and environment variables ultimately populate.
type Options struct {
	Kubeconfig string
	Context    string
	Timeout    time.Duration

	StuckThreshold         time.Duration
	RevisionBloatThreshold int
	OrphanRetention        time.Duration

	HelmCacheDir  string
	HelmConfigDir string
}

// DoctorThresholds carries the configurable limits the Doctor Engine's
// pending-stuck and revision-bloat checks compare against.
type DoctorThresholds struct {
	Stuck           time.Duration
	RevisionBloat   int
	OrphanRetention time.Duration
}

// RepoCacheConfig carries the local directories the Repo Resolver searches
// for Helm's repository index cache and repositories.yaml.
type RepoCacheConfig struct {
	CacheDir  string
	ConfigDir string
}

// NewRuntime constructs the shared runtime container used by the root
// command and by tests. It registers the cluster client and the
// Doctor/Repo Resolver thresholds, defaulted from opts.
func NewRuntime(opts Options) *Runtime {
	return New(
		provideClient(opts),
		provideDoctorThresholds(opts),
		provideRepoCacheConfig(opts),
	)
}

// provideClient registers the cluster client dependency with the injector.
func provideClient(opts Options) Module {
	return func(i Injector) error {
		do.Provide(i, func(Injector) (*k8s.Client, error) {
			timeout := opts.Timeout
			if timeout <= 0 {
				timeout = k8s.DefaultTimeout
			}

			return k8s.NewClient(opts.Kubeconfig, opts.Context, timeout)
		})

		return nil
	}
}

// provideDoctorThresholds registers the Doctor Engine's configurable
// thresholds, defaulting to a 15-minute stuck window, a 10-revision bloat
// limit, and a 24-hour orphaned-secret retention window when opts leaves
// them unset.
func provideDoctorThresholds(opts Options) Module {
	return func(i Injector) error {
		do.Provide(i, func(Injector) (DoctorThresholds, error) {
			stuck := opts.StuckThreshold
			if stuck <= 0 {
				stuck = 15 * time.Minute
			}

			bloat := opts.RevisionBloatThreshold
			if bloat <= 0 {
				bloat = 10
			}

			retention := opts.OrphanRetention
			if retention <= 0 {
				retention = 24 * time.Hour
			}

			return DoctorThresholds{Stuck: stuck, RevisionBloat: bloat, OrphanRetention: retention}, nil
		})

		return nil
	}
}

// provideRepoCacheConfig registers the Repo Resolver's local cache and
// config directories, falling back to Helm's own platform-specific
// defaults when opts leaves them unset.
func provideRepoCacheConfig(opts Options) Module {
	return func(i Injector) error {
		do.Provide(i, func(Injector) (RepoCacheConfig, error) {
			cacheDir := opts.HelmCacheDir
			if cacheDir == "" {
				cacheDir = repoindex.DefaultCacheDir()
			}

			configDir := opts.HelmConfigDir
			if configDir == "" {
				configDir = repoindex.DefaultConfigDir()
			}

			return RepoCacheConfig{CacheDir: cacheDir, ConfigDir: configDir}, nil
		})

		return nil
	}
}
