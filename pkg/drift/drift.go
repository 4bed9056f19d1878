// Package drift implements the Drift Engine: a structural comparison of a
// release's stored rendered manifest against the live resources currently
// in the cluster, under a masking policy that strips server-managed fields
// neither side can meaningfully agree on.
package drift

import (
	"context"
	"fmt"
	"sort"

	"github.com/helm-commander/helmcommander/pkg/herrors"
	"github.com/helm-commander/helmcommander/pkg/k8s"
	"github.com/helm-commander/helmcommander/pkg/manifest"
	"github.com/helm-commander/helmcommander/pkg/release"
)

// Verdict classifies one resource's comparison outcome.
type Verdict string

const (
	VerdictUnchanged   Verdict = "unchanged"
	VerdictModified    Verdict = "modified"
	VerdictMissingLive Verdict = "missing_live"
	VerdictExtraLive   Verdict = "extra_live"
)

// Change is one differing path between the stored and live trees.
type Change struct {
	Path string
	Old  interface{}
	New  interface{}
}

// Entry is one resource's comparison result.
type Entry struct {
	APIVersion string
	Kind       string
	Namespace  string
	Name       string
	Verdict    Verdict
	Changes    []Change
	Note       string
}

// instanceLabel is the label Helm conventionally stamps on every resource
// a release owns; extra-live detection uses it to find live resources the
// stored manifest never mentions.
const instanceLabel = "app.kubernetes.io/instance"

// Diff compares rel's stored manifest against the live cluster, returning
// entries ordered by (namespace, kind, name). A resource whose live fetch
// fails with an invocation-aborting error (ClusterUnreachable, Timeout)
// stops the comparison and returns the entries gathered so far alongside
// the error; every other per-resource failure degrades to missing_live.
func Diff(ctx context.Context, client *k8s.Client, rel release.HelmRelease) ([]Entry, error) {
	resources := manifest.Parse(rel.ManifestText)

	entries := make([]Entry, 0, len(resources))
	stored := make(map[manifest.IdentityKey]bool, len(resources))

	for _, res := range resources {
		if res.Kind == "" || res.Name == "" {
			continue
		}

		identity := res.Identity(rel.Namespace)
		stored[identity] = true

		entry := Entry{
			APIVersion: res.APIVersion,
			Kind:       res.Kind,
			Namespace:  identity.Namespace,
			Name:       res.Name,
		}

		live, err := client.GetResource(ctx, res.APIVersion, res.Kind, identity.Namespace, res.Name)

		switch {
		case err == nil:
			entry.Verdict, entry.Changes = diffResource(res.Raw, live)
		case herrors.Is(err, herrors.NotFound):
			entry.Verdict = VerdictMissingLive
		case herrors.Is(err, herrors.AccessDenied):
			entry.Verdict = VerdictMissingLive
			entry.Note = "access denied fetching live resource"
		default:
			entries = append(entries, entry)

			return entries, fmt.Errorf("diff %s/%s %q: %w", res.APIVersion, res.Kind, res.Name, err)
		}

		entries = append(entries, entry)
	}

	entries = append(entries, detectExtraLive(ctx, client, rel, resources, stored)...)

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Namespace != entries[j].Namespace {
			return entries[i].Namespace < entries[j].Namespace
		}

		if entries[i].Kind != entries[j].Kind {
			return entries[i].Kind < entries[j].Kind
		}

		return entries[i].Name < entries[j].Name
	})

	return entries, nil
}

// diffResource masks both trees and computes a structural diff, returning
// unchanged with no changes when the masked trees are equal.
func diffResource(stored, live map[string]interface{}) (Verdict, []Change) {
	changes := diffMaps("", maskResource(stored), maskResource(live))
	if len(changes) == 0 {
		return VerdictUnchanged, nil
	}

	return VerdictModified, changes
}

// detectExtraLive is the best-effort step: for each distinct
// (apiVersion, kind, namespace) combination the stored manifest declares,
// list every live resource of that kind labeled as belonging to the
// release and report any whose name the stored manifest never mentions. A
// listing that fails (most often because the caller lacks list
// permission on that kind) is silently skipped rather than aborting
// detection for every other kind.
func detectExtraLive(
	ctx context.Context,
	client *k8s.Client,
	rel release.HelmRelease,
	resources []manifest.Resource,
	stored map[manifest.IdentityKey]bool,
) []Entry {
	type group struct {
		apiVersion string
		kind       string
		namespace  string
	}

	seen := map[group]bool{}

	var extra []Entry

	for _, res := range resources {
		if res.Kind == "" || manifest.IsClusterScoped(res.Kind) {
			continue
		}

		identity := res.Identity(rel.Namespace)
		g := group{apiVersion: res.APIVersion, kind: res.Kind, namespace: identity.Namespace}

		if seen[g] {
			continue
		}

		seen[g] = true

		objects, err := client.ListResources(ctx, g.apiVersion, g.kind, g.namespace, instanceLabel+"="+rel.Name)
		if err != nil {
			continue
		}

		for _, obj := range objects {
			name := nestedString(obj, "metadata", "name")
			if name == "" {
				continue
			}

			identity := manifest.IdentityKey{APIVersion: g.apiVersion, Kind: g.kind, Namespace: g.namespace, Name: name}
			if stored[identity] {
				continue
			}

			extra = append(extra, Entry{
				APIVersion: g.apiVersion,
				Kind:       g.kind,
				Namespace:  g.namespace,
				Name:       name,
				Verdict:    VerdictExtraLive,
				Note:       "live resource not present in stored manifest",
			})
		}
	}

	return extra
}

func nestedString(obj map[string]interface{}, path ...string) string {
	node := obj

	for i, key := range path {
		if i == len(path)-1 {
			value, _ := node[key].(string)

			return value
		}

		next, ok := node[key].(map[string]interface{})
		if !ok {
			return ""
		}

		node = next
	}

	return ""
}
