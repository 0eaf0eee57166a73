package template

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FilterFunc transforms one piped value (§4.2's fixed filter set).
type FilterFunc func(value any) (any, error)

// FilterRegistry resolves a filter name from a `{{ expr | name }}`
// pipeline, mirroring the provider registry's "interface the caller
// depends on, concrete map underneath" shape.
type FilterRegistry struct {
	filters map[string]FilterFunc
}

// NewFilterRegistry builds the registry with Visor's fixed filter set.
// projectRoot confines readfile (§4.2: "constrained to the project root;
// path traversal rejected").
func NewFilterRegistry(projectRoot string) *FilterRegistry {
	r := &FilterRegistry{filters: make(map[string]FilterFunc)}
	r.Register("parse_json", parseJSONFilter)
	r.Register("to_json", toJSONFilter)
	r.Register("unescape_newlines", unescapeNewlinesFilter)
	r.Register("safe_label", safeLabelFilter)
	r.Register("safe_label_list", safeLabelListFilter)
	r.Register("readfile", readFileFilter(projectRoot))
	return r
}

// Register adds or replaces a filter.
func (r *FilterRegistry) Register(name string, fn FilterFunc) {
	r.filters[name] = fn
}

// Get resolves a filter by name.
func (r *FilterRegistry) Get(name string) (FilterFunc, bool) {
	fn, ok := r.filters[name]
	return fn, ok
}

func parseJSONFilter(value any) (any, error) {
	s, ok := value.(string)
	if !ok {
		return value, nil
	}
	var decoded any
	if err := json.Unmarshal([]byte(s), &decoded); err != nil {
		return nil, fmt.Errorf("parse_json: %w", err)
	}
	return decoded, nil
}

func toJSONFilter(value any) (any, error) {
	encoded, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("to_json: %w", err)
	}
	return string(encoded), nil
}

func unescapeNewlinesFilter(value any) (any, error) {
	s, ok := value.(string)
	if !ok {
		return value, nil
	}
	return strings.ReplaceAll(s, `\n`, "\n"), nil
}

// safeLabelFilter reduces a string to the lowercase, dash-separated form
// most forge label APIs accept: letters, digits, and dashes only.
func safeLabelFilter(value any) (any, error) {
	s, ok := value.(string)
	if !ok {
		s = fmt.Sprintf("%v", value)
	}
	return sanitizeLabel(s), nil
}

func safeLabelListFilter(value any) (any, error) {
	items, ok := value.([]any)
	if !ok {
		return safeLabelFilter(value)
	}
	labels := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			s = fmt.Sprintf("%v", item)
		}
		labels = append(labels, sanitizeLabel(s))
	}
	return strings.Join(labels, ", "), nil
}

func sanitizeLabel(s string) string {
	var sb strings.Builder
	lastDash := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			sb.WriteRune(r)
			lastDash = false
		default:
			if !lastDash && sb.Len() > 0 {
				sb.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.Trim(sb.String(), "-")
}

// readFileFilter resolves value as a path relative to root and returns its
// contents, rejecting any path that escapes root — the same
// filepath.Clean-and-confine discipline the teacher applies to
// operator-supplied config paths (#nosec G304).
func readFileFilter(root string) FilterFunc {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		absRoot = root
	}
	absRoot = filepath.Clean(absRoot)

	return func(value any) (any, error) {
		rel, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("readfile: expected a string path, got %T", value)
		}

		resolved := filepath.Clean(filepath.Join(absRoot, rel))
		if resolved != absRoot && !strings.HasPrefix(resolved, absRoot+string(filepath.Separator)) {
			return nil, fmt.Errorf("readfile: path %q escapes the project root", rel)
		}

		data, err := os.ReadFile(resolved) // #nosec G304 -- resolved is confined to absRoot above
		if err != nil {
			return nil, fmt.Errorf("readfile: %w", err)
		}
		return string(data), nil
	}
}
