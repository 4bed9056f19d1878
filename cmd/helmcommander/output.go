package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/gosuri/uitable"
	"sigs.k8s.io/yaml"
)

// renderStructured is the minimal json/yaml pass-through every command
// falls back to when --output is not table: a direct marshal of the
// result value, with no renaming or reshaping.
func renderStructured(w io.Writer, output string, value interface{}) error {
	switch output {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")

		return enc.Encode(value)
	case "yaml":
		raw, err := yaml.Marshal(value)
		if err != nil {
			return fmt.Errorf("marshal yaml output: %w", err)
		}

		_, err = w.Write(raw)

		return err
	default:
		return fmt.Errorf("unsupported output format %q", output)
	}
}

// newTable builds a wrapped, word-wrapping table, matching the rendering
// Helm's own CLI uses this same library for.
func newTable() *uitable.Table {
	table := uitable.New()
	table.MaxColWidth = 80
	table.Wrap = true

	return table
}
