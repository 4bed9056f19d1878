package release

import (
	"bytes"
	"compress/gzip"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
)

// gzipMagic is the two leading bytes of every gzip stream, used to detect
// whether a Secret's release payload still carries an extra base64 layer
// some client libraries fail to strip.
var gzipMagic = []byte{0x1f, 0x8b}

// decodeSecretPayload implements the Secret decode pipeline:
// base64 -> (detect/undo a possible second base64 layer) -> gzip -> UTF-8
// JSON text.
func decodeSecretPayload(raw []byte) ([]byte, error) {
	decoded, err := base64Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("base64 decode: %w", err)
	}

	if !bytes.HasPrefix(decoded, gzipMagic) {
		decoded, err = base64Decode(decoded)
		if err != nil {
			return nil, fmt.Errorf("base64 decode (second layer): %w", err)
		}
	}

	return gunzip(decoded)
}

// decodeConfigMapPayload implements the ConfigMap decode pipeline, from
// §4.2: ConfigMap data is a plain string, so the base64 layer Kubernetes
// itself would have stripped for a Secret is still present, on top of
// Helm's own base64 layer: base64 -> base64 -> gzip -> UTF-8 JSON text.
func decodeConfigMapPayload(raw string) ([]byte, error) {
	first, err := base64Decode([]byte(raw))
	if err != nil {
		return nil, fmt.Errorf("base64 decode (outer layer): %w", err)
	}

	second, err := base64Decode(first)
	if err != nil {
		return nil, fmt.Errorf("base64 decode (inner layer): %w", err)
	}

	return gunzip(second)
}

func base64Decode(data []byte) ([]byte, error) {
	decoded := make([]byte, base64.StdEncoding.DecodedLen(len(data)))

	n, err := base64.StdEncoding.Decode(decoded, data)
	if err != nil {
		return nil, err
	}

	return decoded[:n], nil
}

func gunzip(data []byte) ([]byte, error) {
	reader, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open gzip stream: %w", err)
	}
	defer reader.Close()

	decompressed, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read gzip stream: %w", err)
	}

	return decompressed, nil
}

// wirePayload mirrors the JSON shape Helm itself persists for a release,
// per Helm's own storage schema. It is intentionally a local, minimal type
// rather than helm.sh/helm/v3/pkg/release.Release: that upstream type's
// Chart field round-trips through a chart-archive-oriented codec built
// for packaging a chart, not for reading back the flat metadata+values
// shape Helm's storage layer writes. Decoding into this shape first and
// mapping the fields we need reads chart.metadata through a local struct
// (wireChartMetadata) and makes no assumption about the rest of
// chart.Chart's wire format.
type wirePayload struct {
	Name      string                 `json:"name"`
	Namespace string                 `json:"namespace"`
	Version   int                    `json:"version"`
	Info      *wireInfo              `json:"info"`
	Chart     *wireChart             `json:"chart"`
	Config    map[string]interface{} `json:"config"`
	Manifest  string                 `json:"manifest"`
	Hooks     []wireHook             `json:"hooks"`
}

type wireInfo struct {
	FirstDeployed string `json:"first_deployed"`
	LastDeployed  string `json:"last_deployed"`
	Deleted       string `json:"deleted"`
	Description   string `json:"description"`
	Status        string `json:"status"`
	Notes         string `json:"notes"`
}

type wireChart struct {
	Metadata *wireChartMetadata     `json:"metadata"`
	Values   map[string]interface{} `json:"values"`
}

type wireChartMetadata struct {
	Name       string `json:"name"`
	Version    string `json:"version"`
	AppVersion string `json:"appVersion"`
}

type wireHook struct {
	Name     string   `json:"name"`
	Kind     string   `json:"kind"`
	Path     string   `json:"path"`
	Manifest string   `json:"manifest"`
	Events   []string `json:"events"`
}

func unmarshalPayload(data []byte) (*wirePayload, error) {
	var payload wirePayload

	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("unmarshal release JSON: %w", err)
	}

	return &payload, nil
}
