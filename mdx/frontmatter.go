package mdx

import (
	"bytes"
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/adrg/frontmatter"
	"gopkg.in/yaml.v3"
)

var frontmatterFormats = []*frontmatter.Format{
	frontmatter.NewFormat("---", "---", yaml.Unmarshal),
	frontmatter.NewFormat("+++", "+++", toml.Unmarshal),
}

// parseFrontmatter splits source into its metadata block and the remaining
// body. Documents without a block yield an empty, non-nil map.
func parseFrontmatter(source []byte) (map[string]any, []byte, error) {
	meta := map[string]any{}
	body, err := frontmatter.Parse(bytes.NewReader(source), &meta, frontmatterFormats...)
	if err != nil {
		return nil, nil, fmt.Errorf("parse frontmatter: %w", err)
	}
	return normalizeMap(meta), body, nil
}

// normalizeMap rewrites nested maps so every level is map[string]any and
// therefore JSON encodable.
func normalizeMap(input map[string]any) map[string]any {
	out := make(map[string]any, len(input))
	for key, value := range input {
		out[key] = normalizeValue(value)
	}
	return out
}

func normalizeValue(value any) any {
	switch v := value.(type) {
	case map[string]any:
		return normalizeMap(v)
	case map[any]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[fmt.Sprint(key)] = normalizeValue(item)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = normalizeValue(item)
		}
		return out
	case []map[string]any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = normalizeMap(item)
		}
		return out
	default:
		return v
	}
}

// lineOffset counts the lines consumed ahead of body so positions reported
// against body can be mapped back onto the original document.
func lineOffset(source, body []byte) int {
	if len(body) > len(source) {
		return 0
	}
	return bytes.Count(source[:len(source)-len(body)], []byte("\n"))
}
