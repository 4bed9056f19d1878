// Package owner implements the Owner Detector: it decides which controller
// actually manages a Helm release's resources, since a GitOps operator
// (Argo CD, Flux) or a distro's own controller (k3s) frequently drives Helm
// underneath a workflow the user never invokes directly.
package owner

import (
	"context"
	"strings"

	"github.com/helm-commander/helmcommander/pkg/k8s"
	"github.com/helm-commander/helmcommander/pkg/manifest"
	"github.com/helm-commander/helmcommander/pkg/release"
)

// ControllerType identifies the controller judged to own a release.
type ControllerType string

const (
	ControllerHelmNative   ControllerType = "helm-native"
	ControllerArgoCD       ControllerType = "argo-cd"
	ControllerFluxCD       ControllerType = "flux-cd"
	ControllerK3sHelmChart ControllerType = "k3s-helmchart"
	ControllerUnknown      ControllerType = "unknown"
)

// Confidence grades how certain a Verdict is.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Verdict is the Owner Detector's answer for one release.
type Verdict struct {
	Controller ControllerType
	Confidence Confidence
	Detail     string
}

const (
	argoInstanceLabel      = "argocd.argoproj.io/instance"
	argoTrackingAnnotation = "argocd.argoproj.io/tracking-id"

	fluxNameLabel  = "helm.toolkit.fluxcd.io/name"
	fluxCRDName    = "helmreleases.helm.toolkit.fluxcd.io"
	fluxAPIVersion = "helm.toolkit.fluxcd.io/v2beta1"
	fluxKind       = "HelmRelease"

	k3sCRDName    = "helmcharts.helm.cattle.io"
	k3sAPIVersion = "helm.cattle.io/v1"
	k3sKind       = "HelmChart"
	k3sNamespace  = "kube-system"

	managedByLabel = "app.kubernetes.io/managed-by"
)

// Detect judges which controller owns rel, walking the same priority chain
// regardless of which storage driver rel came from: Argo CD and Flux
// markers embedded in the rendered manifest, then live Flux and k3s CRD
// lookups, then a generic managed-by annotation, falling back to native
// Helm when nothing else matches. Each step is independent and returns on
// the first match; a step's own lookup failure (CRD not installed, API
// error) is treated as "no match" rather than aborting the chain, since a
// release with an unreachable GitOps CRD is still just as likely to be
// plain Helm.
func Detect(ctx context.Context, client *k8s.Client, rel release.HelmRelease) Verdict {
	resources := manifest.Parse(rel.ManifestText)

	if verdict, ok := detectArgoCD(resources); ok {
		return verdict
	}

	if verdict, ok := detectFluxCD(ctx, client, rel, resources); ok {
		return verdict
	}

	if verdict, ok := detectK3sHelmChart(ctx, client, rel); ok {
		return verdict
	}

	if verdict, ok := detectManagedByAnnotation(resources); ok {
		return verdict
	}

	return Verdict{
		Controller: ControllerHelmNative,
		Confidence: ConfidenceLow,
		Detail:     "no controller markers found; assuming direct Helm usage",
	}
}

func detectArgoCD(resources []manifest.Resource) (Verdict, bool) {
	for _, res := range resources {
		if instance, ok := metadataStringField(res.Raw, "labels", argoInstanceLabel); ok {
			return Verdict{
				Controller: ControllerArgoCD,
				Confidence: ConfidenceHigh,
				Detail:     "argocd.argoproj.io/instance=" + instance,
			}, true
		}

		if trackingID, ok := metadataStringField(res.Raw, "annotations", argoTrackingAnnotation); ok {
			return Verdict{
				Controller: ControllerArgoCD,
				Confidence: ConfidenceHigh,
				Detail:     "argocd.argoproj.io/tracking-id=" + trackingID,
			}, true
		}
	}

	return Verdict{}, false
}

func detectFluxCD(ctx context.Context, client *k8s.Client, rel release.HelmRelease, resources []manifest.Resource) (Verdict, bool) {
	for _, res := range resources {
		if name, ok := metadataStringField(res.Raw, "labels", fluxNameLabel); ok {
			return Verdict{
				Controller: ControllerFluxCD,
				Confidence: ConfidenceHigh,
				Detail:     "helm.toolkit.fluxcd.io/name=" + name,
			}, true
		}
	}

	if !crdInstalled(ctx, client, fluxCRDName) {
		return Verdict{}, false
	}

	found, err := client.ResourceExists(ctx, fluxAPIVersion, fluxKind, rel.Namespace, rel.Name)
	if err != nil || !found {
		return Verdict{}, false
	}

	return Verdict{
		Controller: ControllerFluxCD,
		Confidence: ConfidenceHigh,
		Detail:     "HelmRelease/" + rel.Name + " found in namespace " + rel.Namespace,
	}, true
}

func detectK3sHelmChart(ctx context.Context, client *k8s.Client, rel release.HelmRelease) (Verdict, bool) {
	if !crdInstalled(ctx, client, k3sCRDName) {
		return Verdict{}, false
	}

	found, err := client.ResourceExists(ctx, k3sAPIVersion, k3sKind, k3sNamespace, rel.Name)
	if err != nil || !found {
		return Verdict{}, false
	}

	return Verdict{
		Controller: ControllerK3sHelmChart,
		Confidence: ConfidenceHigh,
		Detail:     "HelmChart/" + rel.Name + " found in namespace " + k3sNamespace,
	}, true
}

func detectManagedByAnnotation(resources []manifest.Resource) (Verdict, bool) {
	for _, res := range resources {
		managedBy, ok := metadataStringField(res.Raw, "labels", managedByLabel)
		if !ok {
			managedBy, ok = metadataStringField(res.Raw, "annotations", managedByLabel)
		}

		if !ok || strings.EqualFold(managedBy, "helm") {
			continue
		}

		return Verdict{
			Controller: ControllerUnknown,
			Confidence: ConfidenceMedium,
			Detail:     managedByLabel + "=" + managedBy,
		}, true
	}

	return Verdict{}, false
}

// crdInstalled reports whether crdName is registered, treating any lookup
// error the same as "not installed" since neither case gives Detect a live
// CRD to query.
func crdInstalled(ctx context.Context, client *k8s.Client, crdName string) bool {
	exists, err := client.CRDExists(ctx, crdName)
	if err != nil {
		return false
	}

	return exists
}

// metadataStringField reads raw.metadata.<field>.<key> as a string.
func metadataStringField(raw map[string]interface{}, field, key string) (string, bool) {
	metadata, ok := raw["metadata"].(map[string]interface{})
	if !ok {
		return "", false
	}

	values, ok := metadata[field].(map[string]interface{})
	if !ok {
		return "", false
	}

	value, ok := values[key].(string)
	if !ok || value == "" {
		return "", false
	}

	return value, true
}
