// Package repoindex implements the Repo Resolver and Update Checker: it
// scans Helm's local repository cache (never the network) to find which
// configured repo carries a given chart, and to work out whether a newer
// version is available than the one a release is running.
package repoindex

import (
	"os"
	"path/filepath"

	"github.com/Masterminds/semver/v3"
	"helm.sh/helm/v3/pkg/repo"

	"github.com/helm-commander/helmcommander/pkg/release"
)

// Config carries the local directories a Resolver searches.
type Config struct {
	CacheDir  string
	ConfigDir string
}

// ChartRef identifies the chart a release was installed from. Digest is
// rarely populated: Helm's release record carries chart name/version/app
// version but no separate content digest, so it is left empty whenever a
// ChartRef is derived from a release and matching falls through to
// (version, app_version).
type ChartRef struct {
	Name       string
	Version    string
	AppVersion string
	Digest     string
}

// Match is one repo index entry found for a ChartRef.
type Match struct {
	RepoName   string
	RepoURL    string
	Version    string
	AppVersion string
	Digest     string
	URLs       []string
}

// Update is the Update Checker's verdict for one release.
type Update struct {
	ChartName          string
	CurrentVersion     string
	LatestVersion      string
	AppVersionCurrent  string
	AppVersionLatest   string
	Repo               string
	UpdateType         string
	IsUpgradeAvailable bool
}

// Update classification labels. Unknown covers both an unparsable version
// and the case where no matching repo entry was found at all.
const (
	UpdateTypeUpToDate = "up-to-date"
	UpdateTypeMajor    = "major"
	UpdateTypeMinor    = "minor"
	UpdateTypePatch    = "patch"
	UpdateTypeUnknown  = "unknown"
)

// Resolver searches a local Helm repository cache. It performs no network
// I/O; a stale or missing cache simply yields fewer matches.
type Resolver struct {
	cfg Config
}

// New builds a Resolver over cfg's cache and config directories.
func New(cfg Config) *Resolver {
	return &Resolver{cfg: cfg}
}

// Resolve returns every (repo, chart version entry) in the local cache
// whose name matches ref.Name and whose digest or (version, app version)
// matches ref, in the order the cache was scanned. A repositories.yaml or
// index file that is missing or unreadable is treated as contributing no
// matches rather than failing the whole resolution.
func (r *Resolver) Resolve(ref ChartRef) ([]Match, error) {
	var matches []Match

	for _, m := range r.allVersions(ref.Name) {
		if chartVersionMatches(ref, m) {
			matches = append(matches, m)
		}
	}

	return matches, nil
}

// allVersions returns every cached version of chartName across every
// configured repo, unfiltered, in the order the cache was scanned.
func (r *Resolver) allVersions(chartName string) []Match {
	repos := r.loadRepositories()

	var all []Match

	for _, entry := range repos {
		index := r.loadIndex(entry.Name)
		if index == nil {
			continue
		}

		versions, ok := index.Entries[chartName]
		if !ok {
			continue
		}

		for _, cv := range versions {
			if cv == nil {
				continue
			}

			all = append(all, Match{
				RepoName:   entry.Name,
				RepoURL:    entry.URL,
				Version:    cv.Version,
				AppVersion: cv.AppVersion,
				Digest:     cv.Digest,
				URLs:       cv.URLs,
			})
		}
	}

	return all
}

func chartVersionMatches(ref ChartRef, m Match) bool {
	if ref.Digest != "" && m.Digest != "" {
		return ref.Digest == m.Digest
	}

	return m.Version == ref.Version && m.AppVersion == ref.AppVersion
}

// CheckUpdate scans every cached version of rel's chart and reports the
// highest one found, classified against the release's current version.
func (r *Resolver) CheckUpdate(rel release.HelmRelease) (Update, error) {
	update := Update{
		ChartName:         rel.ChartName,
		CurrentVersion:    rel.ChartVersion,
		LatestVersion:     rel.ChartVersion,
		AppVersionCurrent: rel.AppVersion,
		AppVersionLatest:  rel.AppVersion,
		UpdateType:        UpdateTypeUnknown,
	}

	matches := r.allVersions(rel.ChartName)

	currentVer, currentErr := semver.NewVersion(rel.ChartVersion)

	var (
		best    *Match
		bestVer *semver.Version
	)

	for i := range matches {
		v, err := semver.NewVersion(matches[i].Version)
		if err != nil {
			continue
		}

		if best == nil || v.GreaterThan(bestVer) {
			best = &matches[i]
			bestVer = v
		}
	}

	if best == nil || currentErr != nil {
		return update, nil
	}

	update.Repo = best.RepoName
	update.LatestVersion = best.Version
	update.AppVersionLatest = best.AppVersion
	update.UpdateType = classifyUpdate(currentVer, bestVer)
	update.IsUpgradeAvailable = bestVer.GreaterThan(currentVer)

	return update, nil
}

func classifyUpdate(current, latest *semver.Version) string {
	if !latest.GreaterThan(current) {
		return UpdateTypeUpToDate
	}

	if latest.Major() != current.Major() {
		return UpdateTypeMajor
	}

	if latest.Minor() != current.Minor() {
		return UpdateTypeMinor
	}

	return UpdateTypePatch
}

// loadRepositories reads repositories.yaml, returning no entries (and no
// error) when the file is absent or fails to parse; a broken repo config
// degrades resolution rather than aborting it.
func (r *Resolver) loadRepositories() []*repo.Entry {
	path := filepath.Join(r.cfg.ConfigDir, "repositories.yaml")

	file, err := repo.LoadFile(path)
	if err != nil {
		return nil
	}

	return file.Repositories
}

// loadIndex reads <repoName>-index.yaml from the cache directory, returning
// nil when the file is missing or unreadable.
func (r *Resolver) loadIndex(repoName string) *repo.IndexFile {
	path := filepath.Join(r.cfg.CacheDir, repoName+"-index.yaml")

	if _, err := os.Stat(path); err != nil {
		return nil
	}

	index, err := repo.LoadIndexFile(path)
	if err != nil {
		return nil
	}

	return index
}
