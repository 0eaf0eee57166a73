package memstore

import (
	"encoding/json"

	"github.com/tidwall/gjson"
)

// GetPath resolves a nested path (gjson syntax, e.g. "items.0.name") inside
// the value stored at key/namespace. Most stored values are already
// decoded Go values (maps, slices), in which case GetPath re-marshals them
// to JSON before querying — gjson only earns its keep over the pack's
// teacher stack when a provider stored a raw JSON string (e.g. an API
// response body) rather than a decoded value, so this helper accepts both.
func (s *Store) GetPath(namespace, key, path string) (any, bool) {
	value, ok := s.Get(namespace, key)
	if !ok {
		return nil, false
	}

	var raw string
	if text, ok := value.(string); ok {
		raw = text
	} else {
		encoded, err := json.Marshal(value)
		if err != nil {
			return nil, false
		}
		raw = string(encoded)
	}

	result := gjson.Get(raw, path)
	if !result.Exists() {
		return nil, false
	}
	return result.Value(), true
}
