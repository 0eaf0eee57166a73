package memstore

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/codcod/visor/internal/verrors"
)

// Format names the persisted-snapshot encoding (§4.3, §6).
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// Save writes the store's full contents to path in the given format,
// grounded on the teacher's #nosec G304 config-path discipline for
// operator-supplied file paths.
func (s *Store) Save(path string, format Format) error {
	cleanPath := filepath.Clean(path)

	switch format {
	case FormatCSV:
		return s.saveCSV(cleanPath)
	case FormatJSON, "":
		return s.saveJSON(cleanPath)
	default:
		return fmt.Errorf("memstore: unknown snapshot format %q", format)
	}
}

// Load merges what's recorded at path, in the given format, into the
// store's contents. Load is additive across namespaces already loaded in
// this process (it merges rather than wholesale-replacing the in-memory
// map), matching the teacher's defaulting style of "never discard state
// silently."
func (s *Store) Load(path string, format Format) error {
	cleanPath := filepath.Clean(path)

	switch format {
	case FormatCSV:
		return s.loadCSV(cleanPath)
	case FormatJSON, "":
		return s.loadJSON(cleanPath)
	default:
		return fmt.Errorf("memstore: unknown snapshot format %q", format)
	}
}

func (s *Store) saveJSON(path string) error {
	snapshot := s.GetAll()
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return verrors.New(verrors.KindConfigValidate, "memstore.Save", path, err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return verrors.NewConfigError("write", path, err)
	}
	return nil
}

func (s *Store) loadJSON(path string) error {
	data, err := os.ReadFile(path) // #nosec G304 -- operator-supplied memory-store snapshot path
	if err != nil {
		return verrors.NewConfigError("read", path, err)
	}

	var snapshot map[string]map[string]any
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return verrors.New(verrors.KindConfigParse, "memstore.Load", path, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for ns, entries := range snapshot {
		n := s.nsLocked(ns)
		for k, v := range entries {
			n[k] = v
		}
	}
	return nil
}

// csvHeader is the column order §6 specifies: "namespace,key,value,type".
var csvHeader = []string{"namespace", "key", "value", "type"}

func (s *Store) saveCSV(path string) error {
	f, err := os.Create(path) // #nosec G304 -- operator-supplied memory-store snapshot path
	if err != nil {
		return verrors.NewConfigError("write", path, err)
	}
	defer func() { _ = f.Close() }()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return err
	}

	snapshot := s.GetAll()
	for ns, entries := range snapshot {
		for key, value := range entries {
			row, err := encodeCSVRow(ns, key, value)
			if err != nil {
				return err
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
	}
	w.Flush()
	return w.Error()
}

func encodeCSVRow(ns, key string, value any) ([]string, error) {
	switch v := value.(type) {
	case []any:
		encoded, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		return []string{ns, key, string(encoded), "array"}, nil
	case string:
		return []string{ns, key, v, "string"}, nil
	case bool:
		return []string{ns, key, fmt.Sprintf("%t", v), "bool"}, nil
	case float64:
		return []string{ns, key, fmt.Sprintf("%g", v), "number"}, nil
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		return []string{ns, key, string(encoded), "json"}, nil
	}
}

func (s *Store) loadCSV(path string) error {
	f, err := os.Open(path) // #nosec G304 -- operator-supplied memory-store snapshot path
	if err != nil {
		return verrors.NewConfigError("read", path, err)
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	rows, err := r.ReadAll()
	if err != nil {
		return verrors.New(verrors.KindConfigParse, "memstore.Load", path, err)
	}
	if len(rows) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range rows[1:] { // skip header
		if len(row) != 4 {
			continue
		}
		ns, key, rawValue, kind := row[0], row[1], row[2], row[3]
		value, err := decodeCSVValue(rawValue, kind)
		if err != nil {
			return err
		}
		s.nsLocked(ns)[key] = value
	}
	return nil
}

func decodeCSVValue(raw, kind string) (any, error) {
	switch kind {
	case "array", "json":
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			return nil, err
		}
		return v, nil
	case "bool":
		return raw == "true", nil
	case "number":
		var f float64
		if _, err := fmt.Sscanf(raw, "%g", &f); err != nil {
			return nil, err
		}
		return f, nil
	default: // "string" and anything unrecognized
		return raw, nil
	}
}
