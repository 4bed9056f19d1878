package release

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	corev1 "k8s.io/api/core/v1"

	"github.com/helm-commander/helmcommander/pkg/herrors"
)

// HelmSecretType is the type Helm v3 stamps on every Secret it uses as its
// default storage backend.
const HelmSecretType corev1.SecretType = "helm.sh/release.v1"

// DecodeSecret reconstructs a HelmRelease from a Secret, per the Secret
// pipeline. An object lacking the owner=helm label or the
// helm.sh/release.v1 type yields UNKNOWN_STORAGE; a payload that fails any
// decode stage yields CORRUPT_PAYLOAD; a payload missing required fields
// yields UNSUPPORTED_SCHEMA.
func DecodeSecret(secret *corev1.Secret) (HelmRelease, error) {
	if secret.Labels["owner"] != "helm" || secret.Type != HelmSecretType {
		return HelmRelease{}, herrors.New(herrors.UnknownStorage, secret.Name, "secret lacks Helm ownership markers")
	}

	raw, ok := secret.Data["release"]
	if !ok {
		return HelmRelease{}, herrors.New(herrors.UnknownStorage, secret.Name, "secret has no release data key")
	}

	decompressed, err := decodeSecretPayload(raw)
	if err != nil {
		return HelmRelease{}, herrors.Wrap(herrors.CorruptPayload, secret.Name, err)
	}

	payload, err := unmarshalPayload(decompressed)
	if err != nil {
		return HelmRelease{}, herrors.Wrap(herrors.CorruptPayload, secret.Name, err)
	}

	rel, err := mapPayload(payload)
	if err != nil {
		return HelmRelease{}, herrors.Wrap(herrors.UnsupportedSchema, secret.Name, err)
	}

	rel.StorageKind = StorageSecret
	rel.StorageObjectName = secret.Name

	if rel.Namespace == "" {
		rel.Namespace = secret.Namespace
	}

	return rel, nil
}

// DecodeConfigMap reconstructs a HelmRelease from a ConfigMap, per the
// ConfigMap pipeline.
func DecodeConfigMap(cm *corev1.ConfigMap) (HelmRelease, error) {
	if cm.Labels["owner"] != "helm" {
		return HelmRelease{}, herrors.New(herrors.UnknownStorage, cm.Name, "configmap lacks Helm ownership markers")
	}

	raw, ok := cm.Data["release"]
	if !ok {
		return HelmRelease{}, herrors.New(herrors.UnknownStorage, cm.Name, "configmap has no release data key")
	}

	decompressed, err := decodeConfigMapPayload(raw)
	if err != nil {
		return HelmRelease{}, herrors.Wrap(herrors.CorruptPayload, cm.Name, err)
	}

	payload, err := unmarshalPayload(decompressed)
	if err != nil {
		return HelmRelease{}, herrors.Wrap(herrors.CorruptPayload, cm.Name, err)
	}

	rel, err := mapPayload(payload)
	if err != nil {
		return HelmRelease{}, herrors.Wrap(herrors.UnsupportedSchema, cm.Name, err)
	}

	rel.StorageKind = StorageConfigMap
	rel.StorageObjectName = cm.Name

	if rel.Namespace == "" {
		rel.Namespace = cm.Namespace
	}

	return rel, nil
}

// mapPayload maps decoded release JSON onto a HelmRelease.
func mapPayload(payload *wirePayload) (HelmRelease, error) {
	if payload.Name == "" {
		return HelmRelease{}, fmt.Errorf("release JSON missing required field: name")
	}

	if payload.Chart == nil || payload.Chart.Metadata == nil || payload.Chart.Metadata.Name == "" {
		return HelmRelease{}, fmt.Errorf("release JSON missing required field: chart.metadata.name")
	}

	rel := HelmRelease{
		Name:      payload.Name,
		Namespace: payload.Namespace,
		Revision:  payload.Version,
	}

	rel.ChartName = payload.Chart.Metadata.Name
	rel.ChartVersion = payload.Chart.Metadata.Version
	rel.AppVersion = payload.Chart.Metadata.AppVersion

	if payload.Info != nil {
		rel.Status = Status(strings.ToLower(payload.Info.Status))
		rel.Description = payload.Info.Description
		rel.UpdatedAt = parseTimestamp(payload.Info.LastDeployed)
	} else {
		rel.Status = StatusUnknown
	}

	valuesUser := payload.Config
	if valuesUser == nil {
		valuesUser = map[string]interface{}{}
	}

	rel.ValuesUser = valuesUser
	rel.ValuesComputed = mergeMaps(chartValues(payload.Chart), valuesUser)
	rel.ManifestText = payload.Manifest
	rel.Hooks = mapHooks(payload.Hooks)

	return rel, nil
}

func chartValues(c *wireChart) map[string]interface{} {
	if c == nil || c.Values == nil {
		return map[string]interface{}{}
	}

	return c.Values
}

func mapHooks(hooks []wireHook) []Hook {
	mapped := make([]Hook, 0, len(hooks))

	for _, h := range hooks {
		mapped = append(mapped, Hook{
			Name:     h.Name,
			Kind:     h.Kind,
			Path:     h.Path,
			Manifest: h.Manifest,
			Events:   h.Events,
		})
	}

	return mapped
}

// mergeMaps recursively merges override on top of base, returning a new
// map, so a chart's default values and a release's recorded config produce
// the same effective values Helm computed at install/upgrade time.
func mergeMaps(base, override map[string]interface{}) map[string]interface{} {
	merged := make(map[string]interface{}, len(base))

	for k, v := range base {
		merged[k] = v
	}

	for k, v := range override {
		if baseVal, ok := merged[k]; ok {
			baseMap, baseIsMap := baseVal.(map[string]interface{})
			overrideMap, overrideIsMap := v.(map[string]interface{})

			if baseIsMap && overrideIsMap {
				merged[k] = mergeMaps(baseMap, overrideMap)
				continue
			}
		}

		merged[k] = v
	}

	return merged
}

func parseTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}

	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}

	return t
}

// LabelMetadata is the subset of a storage object's labels the fast path
// (QuickMetadata) and the Release Store's grouping logic both read.
type LabelMetadata struct {
	Name      string
	Namespace string
	Status    Status
	Revision  int
}

// QuickMetadata builds a LabelMetadata (name, status and revision from an
// object's labels, plus the given namespace) without decoding the release
// payload. This is the fast path. It carries no manifest, values or hooks;
// callers needing those fields must call DecodeSecret/DecodeConfigMap.
func QuickMetadata(labels map[string]string, namespace string) LabelMetadata {
	version, _ := strconv.Atoi(labels["version"])

	return LabelMetadata{
		Name:      labels["name"],
		Namespace: namespace,
		Status:    Status(strings.ToLower(labels["status"])),
		Revision:  version,
	}
}
