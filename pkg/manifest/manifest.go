// Package manifest parses the concatenated rendered YAML text stored on a
// Helm release revision into individual resources, and answers the
// identity and scoping questions the Owner Detector and Drift Engine both
// need: what apiVersion/kind/name/namespace does a document declare, and
// is that kind cluster-scoped.
package manifest

import (
	"strings"

	"sigs.k8s.io/yaml"

	"github.com/helm-commander/helmcommander/pkg/herrors"
)

// Resource is one parsed document from a rendered manifest: its identity
// fields plus the full decoded tree for deeper inspection (labels,
// annotations, spec).
type Resource struct {
	APIVersion string
	Kind       string
	Name       string
	Namespace  string
	Raw        map[string]interface{}
}

// ClusterScopedKinds are the kinds the Drift Engine (and, by extension,
// identity-key computation generally) treats as cluster-scoped: their
// namespace component is always empty regardless of what a document's
// metadata.namespace says.
var ClusterScopedKinds = map[string]bool{
	"Namespace":                true,
	"Node":                     true,
	"PersistentVolume":         true,
	"ClusterRole":              true,
	"ClusterRoleBinding":       true,
	"CustomResourceDefinition": true,
	"StorageClass":             true,
	"PriorityClass":            true,
}

// IsClusterScoped reports whether kind is one of the cluster-scoped kinds.
func IsClusterScoped(kind string) bool {
	return ClusterScopedKinds[kind]
}

// Parse splits manifestText into individual YAML documents and decodes
// each into a Resource. Empty documents and documents whose top-level
// kind or metadata.name is absent are discarded. A document that fails to parse as YAML is
// skipped rather than aborting the whole parse, consistent with per-item
// degrade semantics.
func Parse(manifestText string) []Resource {
	var resources []Resource

	for _, doc := range splitYAMLDocuments(manifestText) {
		var raw map[string]interface{}

		if err := yaml.Unmarshal([]byte(doc), &raw); err != nil {
			continue
		}

		if raw == nil {
			continue
		}

		kind, _ := raw["kind"].(string)
		apiVersion, _ := raw["apiVersion"].(string)

		name, namespace := "", ""
		if metadata, ok := raw["metadata"].(map[string]interface{}); ok {
			name, _ = metadata["name"].(string)
			namespace, _ = metadata["namespace"].(string)
		}

		resource := Resource{
			APIVersion: apiVersion,
			Kind:       kind,
			Name:       name,
			Namespace:  namespace,
			Raw:        raw,
		}

		if resource.Validate() != nil {
			continue
		}

		resources = append(resources, resource)
	}

	return resources
}

// splitYAMLDocuments splits a multi-document YAML string on the "---"
// document separator, discarding blank documents.
func splitYAMLDocuments(text string) []string {
	parts := strings.Split(text, "\n---")

	docs := make([]string, 0, len(parts))

	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			docs = append(docs, trimmed)
		}
	}

	return docs
}

// IdentityKey is the (apiVersion, kind, namespace, name) tuple that
// identifies a rendered resource across two manifest snapshots. Namespace
// is empty for cluster-scoped kinds.
type IdentityKey struct {
	APIVersion string
	Kind       string
	Namespace  string
	Name       string
}

// Identity computes r's identity key, inheriting fallbackNamespace when r
// omits metadata.namespace and its kind is not cluster-scoped.
func (r Resource) Identity(fallbackNamespace string) IdentityKey {
	if IsClusterScoped(r.Kind) {
		return IdentityKey{APIVersion: r.APIVersion, Kind: r.Kind, Name: r.Name}
	}

	namespace := r.Namespace
	if namespace == "" {
		namespace = fallbackNamespace
	}

	return IdentityKey{APIVersion: r.APIVersion, Kind: r.Kind, Namespace: namespace, Name: r.Name}
}

// Validate reports an INVARIANT_VIOLATION if r has no kind or name. Parse
// uses this to decide which documents to discard; it is also available to
// any other caller that builds a Resource by hand.
func (r Resource) Validate() error {
	if r.Kind == "" || r.Name == "" {
		return herrors.New(herrors.InvariantViolation, r.Name, "resource missing kind or name")
	}

	return nil
}
