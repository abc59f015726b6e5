package source

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/cgalavis/schemakit/schemaerr"
)

// YAML returns the YAML schema format. Documents have the same shape as the
// JSON variant; yaml.v3 rejects duplicate mapping keys on its own.
func YAML() Format { return yamlFormat{} }

type yamlFormat struct{}

func (yamlFormat) Name() string         { return "yaml" }
func (yamlFormat) Extensions() []string { return []string{".yaml", ".yml"} }

func (yamlFormat) Decode(data []byte, opt Options) (*Document, error) {
	var node any
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, schemaerr.Schema(schemaerr.CodeMalformedDocument).At("/").Wrap(err)
	}
	m := yamlAnyToStringMap(node)
	if m == nil {
		return nil, schemaerr.Schema(schemaerr.CodeMalformedDocument, "reason", "top-level value is not a mapping").At("/")
	}
	if opt.MaxDepth > 0 && depth(m) > opt.MaxDepth {
		return nil, schemaerr.Schema(schemaerr.CodeMaxDepth).At("/")
	}
	return FromMap(m)
}

func (yamlFormat) Sniff(data []byte) bool {
	var node any
	if err := yaml.Unmarshal(data, &node); err != nil {
		return false
	}
	m := yamlAnyToStringMap(node)
	return m != nil && plausibleVersion(m["version"])
}

// yamlAnyToStringMap converts YAML-decoded values (which may contain map[any]any)
// into JSON-like map[string]any recursively. Non-map roots return nil.
func yamlAnyToStringMap(v any) map[string]any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			out[k] = yamlNormalizeValue(vv)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			out[fmt.Sprint(k)] = yamlNormalizeValue(vv)
		}
		return out
	default:
		return nil
	}
}

func yamlNormalizeValue(v any) any {
	switch t := v.(type) {
	case map[string]any, map[any]any:
		return yamlAnyToStringMap(t)
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = yamlNormalizeValue(t[i])
		}
		return out
	default:
		return v
	}
}

func depth(v any) int {
	switch t := v.(type) {
	case map[string]any:
		d := 0
		for _, vv := range t {
			d = max(d, depth(vv))
		}
		return d + 1
	case []any:
		d := 0
		for _, vv := range t {
			d = max(d, depth(vv))
		}
		return d + 1
	default:
		return 0
	}
}
