// Package store implements the Release Store: the label-indexed query
// layer that lists Helm releases without decoding every stored payload,
// selects each release's latest revision, and applies name/status filters.
package store

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"
	corev1 "k8s.io/api/core/v1"

	"github.com/helm-commander/helmcommander/pkg/herrors"
	"github.com/helm-commander/helmcommander/pkg/k8s"
	"github.com/helm-commander/helmcommander/pkg/release"
)

// Store fetches and filters Helm releases from a cluster. A release's
// revisions may be
// split across both storage drivers (Secrets and ConfigMaps); Store treats
// the driver as a per-object attribute and merges revisions from both
// regardless of which one produced them.
type Store struct {
	client *k8s.Client
}

// New builds a Store backed by client.
func New(client *k8s.Client) *Store {
	return &Store{client: client}
}

// Filters narrows a List call's results.
type Filters struct {
	// Regex, matched against name and chart_name (union match).
	Regex string
	// Only, one of "problematic"; empty means no status-bucket filter.
	Only string
	// Status, an exact (case-insensitive) status match.
	Status string
}

// storageObject is the common shape List/Get/History need from either a
// Secret or a ConfigMap: its Helm labels, creation time (used only to
// break version-label ties without a full payload decode), and object
// name.
type storageObject struct {
	kind      release.StorageKind
	labels    map[string]string
	name      string
	createdAt int64 // unix seconds, for deterministic tie-break ordering
	secret    *corev1.Secret
	configMap *corev1.ConfigMap
}

// listStorageObjects fetches both storage drivers' objects concurrently
// (they're independent read-only list calls against the same namespace)
// and merges the two fully-materialized slices once both complete.
func (s *Store) listStorageObjects(ctx context.Context, namespace, labelSelector string) ([]storageObject, error) {
	var (
		secrets    []corev1.Secret
		configMaps []corev1.ConfigMap
	)

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		var err error

		secrets, err = s.client.ListSecrets(groupCtx, namespace, labelSelector)

		return err
	})

	group.Go(func() error {
		var err error

		configMaps, err = s.client.ListConfigMaps(groupCtx, namespace, labelSelector)

		return err
	})

	if err := group.Wait(); err != nil {
		return nil, err
	}

	var objects []storageObject

	for i := range secrets {
		sec := &secrets[i]
		objects = append(objects, storageObject{
			kind:      release.StorageSecret,
			labels:    sec.Labels,
			name:      sec.Name,
			createdAt: sec.CreationTimestamp.Unix(),
			secret:    sec,
		})
	}

	for i := range configMaps {
		cm := &configMaps[i]
		objects = append(objects, storageObject{
			kind:      release.StorageConfigMap,
			labels:    cm.Labels,
			name:      cm.Name,
			createdAt: cm.CreationTimestamp.Unix(),
			configMap: cm,
		})
	}

	return objects, nil
}

func (o storageObject) decode() (release.HelmRelease, error) {
	if o.secret != nil {
		return release.DecodeSecret(o.secret)
	}

	return release.DecodeConfigMap(o.configMap)
}

func (o storageObject) quickMetadata() release.LabelMetadata {
	namespace := ""
	if o.secret != nil {
		namespace = o.secret.Namespace
	} else if o.configMap != nil {
		namespace = o.configMap.Namespace
	}

	return release.QuickMetadata(o.labels, namespace)
}

type groupKey struct {
	name      string
	namespace string
}

// preferred reports whether a should be selected over b when both belong
// to the same (name, namespace) group, per the latest-revision
// selection algorithm: highest version, ties broken by newer creation
// time, then lexicographically greater object name.
func preferred(a, b storageObject, aMeta, bMeta release.LabelMetadata) bool {
	if aMeta.Revision != bMeta.Revision {
		return aMeta.Revision > bMeta.Revision
	}

	if a.createdAt != b.createdAt {
		return a.createdAt > b.createdAt
	}

	return a.name > b.name
}

// group is one (name, namespace)'s aggregated storage objects: the winning
// (latest) object, every status seen across its revisions, and how many of
// those revisions came from each storage driver.
type group struct {
	winner         storageObject
	statuses       []release.Status
	secretCount    int
	configMapCount int
}

// groupAndSelect groups objects by (name, namespace) and returns, for each
// group, the winning object plus every status label seen in that group
// (used to compute the superseded-without-deployed pseudo-status) and a
// per-driver revision count.
func groupAndSelect(objects []storageObject) map[groupKey]group {
	type accum struct {
		winner    storageObject
		winnerSet bool
		winnerM   release.LabelMetadata
		statuses  []release.Status
		secrets   int
		configMap int
	}

	groups := make(map[groupKey]*accum)

	for _, obj := range objects {
		meta := obj.quickMetadata()
		if meta.Name == "" {
			continue
		}

		key := groupKey{name: meta.Name, namespace: meta.Namespace}

		acc, ok := groups[key]
		if !ok {
			acc = &accum{}
			groups[key] = acc
		}

		acc.statuses = append(acc.statuses, meta.Status)

		if obj.kind == release.StorageSecret {
			acc.secrets++
		} else {
			acc.configMap++
		}

		if !acc.winnerSet || preferred(obj, acc.winner, meta, acc.winnerM) {
			acc.winner = obj
			acc.winnerM = meta
			acc.winnerSet = true
		}
	}

	result := make(map[groupKey]group, len(groups))

	for key, acc := range groups {
		result[key] = group{
			winner:         acc.winner,
			statuses:       acc.statuses,
			secretCount:    acc.secrets,
			configMapCount: acc.configMap,
		}
	}

	return result
}

func hasDeployedRevision(statuses []release.Status) bool {
	for _, s := range statuses {
		if s == release.StatusDeployed {
			return true
		}
	}

	return false
}

// List returns the latest revision of every release visible in namespace
// (empty namespace lists cluster-wide), after applying filters, ordered by
// (namespace, name) ascending.
func (s *Store) List(ctx context.Context, namespace string, filters Filters) ([]release.HelmRelease, error) {
	objects, err := s.listStorageObjects(ctx, namespace, k8s.HelmSecretLabelSelector)
	if err != nil {
		return nil, err
	}

	groups := groupAndSelect(objects)

	var (
		releases   []release.HelmRelease
		superseded = map[groupKey]bool{}
	)

	for key, g := range groups {
		rel, decodeErr := g.winner.decode()
		if decodeErr != nil {
			// Per-item errors degrade: represent the release with status
			// unknown and a diagnostic note rather than dropping it or
			// aborting the listing.
			rel = release.HelmRelease{
				Name:        key.name,
				Namespace:   key.namespace,
				Status:      release.StatusUnknown,
				StorageKind: g.winner.kind,
				Description: fmt.Sprintf("decode failed: %v", decodeErr),
			}
		}

		if !hasDeployedRevision(g.statuses) {
			superseded[key] = true
		}

		releases = append(releases, rel)
	}

	if filters.Regex != "" {
		releases, err = filterByRegex(releases, filters.Regex)
		if err != nil {
			return nil, err
		}
	}

	if filters.Only != "" {
		releases = applyOnlyFilter(releases, filters.Only, superseded)
	}

	if filters.Status != "" {
		releases = filterByStatus(releases, filters.Status)
	}

	sort.Slice(releases, func(i, j int) bool {
		if releases[i].Namespace != releases[j].Namespace {
			return releases[i].Namespace < releases[j].Namespace
		}

		return releases[i].Name < releases[j].Name
	})

	return releases, nil
}

func filterByRegex(releases []release.HelmRelease, pattern string) ([]release.HelmRelease, error) {
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return nil, herrors.Wrap(herrors.ParseError, pattern, fmt.Errorf("compile filter regex: %w", err))
	}

	filtered := make([]release.HelmRelease, 0, len(releases))

	for _, r := range releases {
		if re.MatchString(r.Name) || re.MatchString(r.ChartName) {
			filtered = append(filtered, r)
		}
	}

	return filtered, nil
}

func applyOnlyFilter(releases []release.HelmRelease, only string, superseded map[groupKey]bool) []release.HelmRelease {
	if only != "problematic" {
		return releases
	}

	filtered := make([]release.HelmRelease, 0, len(releases))

	for _, r := range releases {
		key := groupKey{name: r.Name, namespace: r.Namespace}
		if release.ProblematicStatuses[r.Status] || superseded[key] {
			filtered = append(filtered, r)
		}
	}

	return filtered
}

func filterByStatus(releases []release.HelmRelease, status string) []release.HelmRelease {
	want := strings.ToLower(status)

	filtered := make([]release.HelmRelease, 0, len(releases))

	for _, r := range releases {
		if strings.ToLower(string(r.Status)) == want {
			filtered = append(filtered, r)
		}
	}

	return filtered
}

// Get returns the highest-revision HelmRelease matching name, or a
// NOT_FOUND error if no matching storage object exists.
func (s *Store) Get(ctx context.Context, name, namespace string) (release.HelmRelease, error) {
	selector := k8s.HelmSecretLabelSelector + ",name=" + name

	objects, err := s.listStorageObjects(ctx, namespace, selector)
	if err != nil {
		return release.HelmRelease{}, err
	}

	if len(objects) == 0 {
		return release.HelmRelease{}, herrors.New(herrors.NotFound, name, "no release found")
	}

	best := objects[0]
	bestMeta := best.quickMetadata()

	for _, obj := range objects[1:] {
		meta := obj.quickMetadata()
		if preferred(obj, best, meta, bestMeta) {
			best = obj
			bestMeta = meta
		}
	}

	return best.decode()
}

// History returns every revision of name, ordered by revision descending.
func (s *Store) History(ctx context.Context, name, namespace string) ([]release.HelmRelease, error) {
	selector := k8s.HelmSecretLabelSelector + ",name=" + name

	objects, err := s.listStorageObjects(ctx, namespace, selector)
	if err != nil {
		return nil, err
	}

	revisions := make([]release.HelmRelease, 0, len(objects))

	for _, obj := range objects {
		rel, decodeErr := obj.decode()
		if decodeErr != nil {
			// Per-item errors degrade, as in List: the revision stays in
			// the history with status unknown and a diagnostic note.
			meta := obj.quickMetadata()
			rel = release.HelmRelease{
				Name:              meta.Name,
				Namespace:         meta.Namespace,
				Revision:          meta.Revision,
				Status:            release.StatusUnknown,
				StorageKind:       obj.kind,
				StorageObjectName: obj.name,
				Description:       fmt.Sprintf("decode failed: %v", decodeErr),
			}
		}

		revisions = append(revisions, rel)
	}

	sort.Slice(revisions, func(i, j int) bool {
		return revisions[i].Revision > revisions[j].Revision
	})

	return revisions, nil
}

// Summary is one release group's latest revision plus the aggregate
// history facts the Doctor Engine's checks need without re-listing or
// re-decoding every revision themselves.
type Summary struct {
	Release             release.HelmRelease
	RevisionCount       int
	HasDeployedRevision bool
	SecretCount         int
	ConfigMapCount      int
}

// Summaries returns one Summary per release group visible in namespace
// (empty namespace scans cluster-wide). Unlike List, a release whose
// winning revision fails to decode is skipped rather than represented
// with a synthetic unknown-status entry, since the Doctor Engine's checks
// need real chart/status data to reason about, not a placeholder.
func (s *Store) Summaries(ctx context.Context, namespace string) ([]Summary, error) {
	objects, err := s.listStorageObjects(ctx, namespace, k8s.HelmSecretLabelSelector)
	if err != nil {
		return nil, err
	}

	groups := groupAndSelect(objects)

	summaries := make([]Summary, 0, len(groups))

	for _, g := range groups {
		rel, decodeErr := g.winner.decode()
		if decodeErr != nil {
			continue
		}

		summaries = append(summaries, Summary{
			Release:             rel,
			RevisionCount:       len(g.statuses),
			HasDeployedRevision: hasDeployedRevision(g.statuses),
			SecretCount:         g.secretCount,
			ConfigMapCount:      g.configMapCount,
		})
	}

	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].Release.Namespace != summaries[j].Release.Namespace {
			return summaries[i].Release.Namespace < summaries[j].Release.Namespace
		}

		return summaries[i].Release.Name < summaries[j].Release.Name
	})

	return summaries, nil
}
