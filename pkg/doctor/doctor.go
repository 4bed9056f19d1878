// Package doctor implements the Doctor Engine: a fixed set of independent
// diagnostic checks over every release and storage object visible in a
// namespace (or cluster-wide). Each check is self-contained and a
// failure in one must never prevent the others from running.
package doctor

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/helm-commander/helmcommander/pkg/di"
	"github.com/helm-commander/helmcommander/pkg/k8s"
	"github.com/helm-commander/helmcommander/pkg/release"
	"github.com/helm-commander/helmcommander/pkg/store"
)

// Severity is a finding's urgency, matching spec's fixed three-level scale.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warn"
	SeverityError   Severity = "error"
)

// Category is one of the fixed diagnostic kinds the Doctor Engine emits.
type Category string

const (
	CategoryStorageMixed       Category = "storage-mixed"
	CategoryFailed             Category = "failed"
	CategoryPendingStuck       Category = "pending-stuck"
	CategoryNoDeployedRevision Category = "no-deployed-revision"
	CategoryDuplicateChart     Category = "duplicate-chart"
	CategoryOrphanedSecret     Category = "orphaned-secret"
	CategoryRevisionBloat      Category = "revision-bloat"
)

// Finding is one diagnostic result.
type Finding struct {
	Category  Category
	Severity  Severity
	Subject   string
	Namespace string
	Message   string
}

// check is the common shape every diagnostic function shares: given the
// gathered summaries and client, produce findings or an error. A returned
// error never aborts Run; it is folded into an ERROR-severity finding
// instead.
type check func(ctx context.Context, client *k8s.Client, namespace string, summaries []store.Summary, thresholds di.DoctorThresholds) ([]Finding, error)

var checks = []struct {
	name Category
	fn   check
}{
	{CategoryStorageMixed, checkStorageMixed},
	{CategoryFailed, checkFailed},
	{CategoryPendingStuck, checkPendingStuck},
	{CategoryNoDeployedRevision, checkNoDeployedRevision},
	{CategoryDuplicateChart, checkDuplicateChart},
	{CategoryOrphanedSecret, checkOrphanedSecret},
	{CategoryRevisionBloat, checkRevisionBloat},
}

// Run executes every diagnostic check against namespace (empty scans
// cluster-wide) and returns their combined findings. A check whose own
// logic fails degrades to a single ERROR-severity finding for that check
// rather than aborting the others.
func Run(ctx context.Context, client *k8s.Client, st *store.Store, namespace string, thresholds di.DoctorThresholds) ([]Finding, error) {
	summaries, err := st.Summaries(ctx, namespace)
	if err != nil {
		return nil, fmt.Errorf("gather release summaries: %w", err)
	}

	var findings []Finding

	for _, c := range checks {
		results, checkErr := c.fn(ctx, client, namespace, summaries, thresholds)
		if checkErr != nil {
			findings = append(findings, Finding{
				Category: c.name,
				Severity: SeverityError,
				Message:  fmt.Sprintf("check failed: %v", checkErr),
			})

			continue
		}

		findings = append(findings, results...)
	}

	sort.SliceStable(findings, func(i, j int) bool {
		return findings[i].Category < findings[j].Category
	})

	return findings, nil
}

// checkStorageMixed flags when releases exist under both the Secret and
// ConfigMap storage drivers, mirroring a cluster-wide object count rather
// than a per-release one.
func checkStorageMixed(ctx context.Context, client *k8s.Client, namespace string, _ []store.Summary, _ di.DoctorThresholds) ([]Finding, error) {
	secrets, err := client.ListSecrets(ctx, namespace, k8s.HelmSecretLabelSelector)
	if err != nil {
		return nil, err
	}

	configMaps, err := client.ListConfigMaps(ctx, namespace, k8s.HelmSecretLabelSelector)
	if err != nil {
		return nil, err
	}

	if len(secrets) == 0 || len(configMaps) == 0 {
		return nil, nil
	}

	return []Finding{{
		Category: CategoryStorageMixed,
		Severity: SeverityWarning,
		Message: fmt.Sprintf(
			"releases exist under both storage drivers: %d secrets and %d configmaps",
			len(secrets), len(configMaps),
		),
	}}, nil
}

func checkFailed(_ context.Context, _ *k8s.Client, _ string, summaries []store.Summary, _ di.DoctorThresholds) ([]Finding, error) {
	var findings []Finding

	for _, s := range summaries {
		if s.Release.Status != release.StatusFailed {
			continue
		}

		findings = append(findings, Finding{
			Category:  CategoryFailed,
			Severity:  SeverityError,
			Subject:   s.Release.Name,
			Namespace: s.Release.Namespace,
			Message:   fmt.Sprintf("release %q is in FAILED state", s.Release.Name),
		})
	}

	return findings, nil
}

func checkPendingStuck(_ context.Context, _ *k8s.Client, _ string, summaries []store.Summary, thresholds di.DoctorThresholds) ([]Finding, error) {
	var findings []Finding

	for _, s := range summaries {
		if !release.PendingStatuses[s.Release.Status] {
			continue
		}

		if time.Since(s.Release.UpdatedAt) < thresholds.Stuck {
			continue
		}

		findings = append(findings, Finding{
			Category:  CategoryPendingStuck,
			Severity:  SeverityError,
			Subject:   s.Release.Name,
			Namespace: s.Release.Namespace,
			Message: fmt.Sprintf(
				"release %q has been stuck in %q since %s",
				s.Release.Name, s.Release.Status, s.Release.UpdatedAt.Format(time.RFC3339),
			),
		})
	}

	return findings, nil
}

func checkNoDeployedRevision(_ context.Context, _ *k8s.Client, _ string, summaries []store.Summary, _ di.DoctorThresholds) ([]Finding, error) {
	var findings []Finding

	for _, s := range summaries {
		if s.HasDeployedRevision {
			continue
		}

		findings = append(findings, Finding{
			Category:  CategoryNoDeployedRevision,
			Severity:  SeverityWarning,
			Subject:   s.Release.Name,
			Namespace: s.Release.Namespace,
			Message:   fmt.Sprintf("release %q has no revision with status deployed", s.Release.Name),
		})
	}

	return findings, nil
}

func checkDuplicateChart(_ context.Context, _ *k8s.Client, _ string, summaries []store.Summary, _ di.DoctorThresholds) ([]Finding, error) {
	type key struct {
		chart     string
		namespace string
	}

	names := map[key][]string{}

	for _, s := range summaries {
		if s.Release.Status != release.StatusDeployed {
			continue
		}

		k := key{chart: s.Release.ChartName, namespace: s.Release.Namespace}
		names[k] = append(names[k], s.Release.Name)
	}

	var findings []Finding

	for k, releaseNames := range names {
		if len(releaseNames) < 2 {
			continue
		}

		sort.Strings(releaseNames)

		findings = append(findings, Finding{
			Category:  CategoryDuplicateChart,
			Severity:  SeverityWarning,
			Namespace: k.namespace,
			Message: fmt.Sprintf(
				"chart %q deployed %d times in namespace %q: %v",
				k.chart, len(releaseNames), k.namespace, releaseNames,
			),
		})
	}

	return findings, nil
}

func checkOrphanedSecret(_ context.Context, _ *k8s.Client, _ string, summaries []store.Summary, thresholds di.DoctorThresholds) ([]Finding, error) {
	var findings []Finding

	for _, s := range summaries {
		if s.Release.StorageKind != release.StorageSecret {
			continue
		}

		if s.RevisionCount != 1 {
			continue
		}

		if s.Release.Status != release.StatusUninstalled {
			continue
		}

		if time.Since(s.Release.UpdatedAt) < thresholds.OrphanRetention {
			continue
		}

		findings = append(findings, Finding{
			Category:  CategoryOrphanedSecret,
			Severity:  SeverityWarning,
			Subject:   s.Release.Name,
			Namespace: s.Release.Namespace,
			Message: fmt.Sprintf(
				"uninstalled release %q has a single orphaned secret older than %s",
				s.Release.Name, thresholds.OrphanRetention,
			),
		})
	}

	return findings, nil
}

func checkRevisionBloat(_ context.Context, _ *k8s.Client, _ string, summaries []store.Summary, thresholds di.DoctorThresholds) ([]Finding, error) {
	var findings []Finding

	for _, s := range summaries {
		if s.RevisionCount <= thresholds.RevisionBloat {
			continue
		}

		findings = append(findings, Finding{
			Category:  CategoryRevisionBloat,
			Severity:  SeverityInfo,
			Subject:   s.Release.Name,
			Namespace: s.Release.Namespace,
			Message: fmt.Sprintf(
				"release %q has %d stored revisions, exceeding the %d-revision threshold",
				s.Release.Name, s.RevisionCount, thresholds.RevisionBloat,
			),
		})
	}

	return findings, nil
}
