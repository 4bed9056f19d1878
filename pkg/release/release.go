// Package release reconstructs a structured Helm release from the storage
// object a cluster persists it in: a Secret (the default backend) or a
// ConfigMap (the legacy backend). See [DecodeSecret] and [DecodeConfigMap]
// for the full pipeline and
// [QuickMetadata] for the label-only fast path listings use.
package release

import (
	"time"
)

// StorageKind identifies which Kubernetes object type a release revision
// was read from.
type StorageKind string

const (
	StorageSecret    StorageKind = "secret"
	StorageConfigMap StorageKind = "configmap"
)

// Status is the release lifecycle status Helm itself records. Values
// mirror helm.sh/helm/v3/pkg/release.Status exactly (lowercased strings),
// reproduced as our own type so a release whose payload could not be
// decoded can still be represented with StatusUnknown without pulling in
// a decode-dependent SDK value.
type Status string

const (
	StatusUnknown         Status = "unknown"
	StatusDeployed        Status = "deployed"
	StatusUninstalled     Status = "uninstalled"
	StatusSuperseded      Status = "superseded"
	StatusFailed          Status = "failed"
	StatusUninstalling    Status = "uninstalling"
	StatusPendingInstall  Status = "pending-install"
	StatusPendingUpgrade  Status = "pending-upgrade"
	StatusPendingRollback Status = "pending-rollback"
)

// PendingStatuses is the set of statuses treated as "pending" for
// filter/doctor purposes.
var PendingStatuses = map[Status]bool{
	StatusPendingInstall:  true,
	StatusPendingUpgrade:  true,
	StatusPendingRollback: true,
}

// ProblematicStatuses is the set the only=problematic filter
// retains, excluding the derived superseded-without-deployed pseudo-status
// which pkg/store computes separately since it depends on a release's
// full history, not a single revision.
var ProblematicStatuses = map[Status]bool{
	StatusFailed:          true,
	StatusPendingInstall:  true,
	StatusPendingUpgrade:  true,
	StatusPendingRollback: true,
}

// HelmRelease is one revision of a release.
type HelmRelease struct {
	Name              string
	Namespace         string
	Revision          int
	Status            Status
	ChartName         string
	ChartVersion      string
	AppVersion        string
	UpdatedAt         time.Time
	Description       string
	ValuesUser        map[string]interface{}
	ValuesComputed    map[string]interface{}
	ManifestText      string
	Hooks             []Hook
	StorageKind       StorageKind
	StorageObjectName string
}

// Hook is one entry of a release's hooks array. Only the fields Helm
// Commander's read-only diagnostics need are kept; the rest of the
// decoded JSON for a hook is discarded rather than modeled, since it is not
// "open-shape payload, typed only where needed" design note.
type Hook struct {
	Name     string
	Kind     string
	Path     string
	Manifest string
	Events   []string
}

// IsComplete reports whether the release carries decoded payload data (a
// manifest, hooks or a chart name) rather than only fields that labels
// alone can supply.
func (r HelmRelease) IsComplete() bool {
	return r.ManifestText != "" || len(r.Hooks) > 0 || r.ChartName != ""
}
