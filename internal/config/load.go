package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/codcod/visor/internal/verrors"
)

// Load reads and decodes a Document from a YAML file, applying defaults
// and validation, grounded on the teacher's LoadAdvancedConfig
// (internal/config/advanced.go: read → unmarshal → setDefaults →
// validate).
func Load(path string) (*Document, error) {
	cleanPath := filepath.Clean(path)

	data, err := os.ReadFile(cleanPath) // #nosec G304 -- path is operator-supplied config, same discipline as the teacher's LoadConfig
	if err != nil {
		return nil, verrors.NewConfigError("read", cleanPath, err)
	}

	return Decode(data)
}

// Decode parses YAML bytes into a normalized, defaulted, validated
// Document. Exposed separately from Load so callers embedding Visor can
// supply a config body from a source other than a file.
func Decode(data []byte) (*Document, error) {
	var raw rawDocument
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, verrors.New(verrors.KindConfigParse, "config.Decode", "", err)
	}

	doc, err := raw.decode()
	if err != nil {
		return nil, err
	}

	doc.setDefaults()

	if err := NewValidator().Validate(doc); err != nil {
		return nil, verrors.New(verrors.KindConfigValidate, "config.Decode", "", err)
	}

	return doc, nil
}

// setDefaults fills in zero-valued fields with the values §4.9 names as
// defaults, mirroring the teacher's AdvancedConfig.setDefaults.
func (d *Document) setDefaults() {
	if d.Version == "" {
		d.Version = "1.0"
	}
	if d.MaxParallelism <= 0 {
		d.MaxParallelism = DefaultMaxParallelism
	}
	if d.Memory.Storage == "" {
		d.Memory.Storage = "memory"
	}
	if d.Memory.Format == "" {
		d.Memory.Format = "json"
	}
	if d.Memory.Namespace == "" {
		d.Memory.Namespace = "default"
	}
	if d.Output.PRComment.Format == "" {
		d.Output.PRComment.Format = "markdown"
	}
	if d.Output.PRComment.GroupBy == "" {
		d.Output.PRComment.GroupBy = "check"
	}
	for id, check := range d.Checks {
		if check.MaxLoops <= 0 {
			check.MaxLoops = check.EffectiveMaxLoops()
			d.Checks[id] = check
		}
	}
}
