// Package config is the Configuration Model (§4.9/§6): a typed YAML
// document describing the pipeline, with the variant-field normalization
// (string-or-slice `depends_on`/`on`), `${{ env.NAME }}`/`${NAME}`
// expansion, defaulting, and validation the document needs before the
// planner and scheduler can consume it.
//
// Modeled on the teacher's internal/config/advanced.go (yaml.v3 unmarshal
// into a typed doc, setDefaults/validate()) and validator.go's pluggable
// ValidationRule, generalized from repository-health configuration to
// Visor's check-graph configuration.
package config

import "github.com/codcod/visor/internal/core"

// Document is the top-level config file (§4.9, §6), already normalized:
// depends_on/on variant fields resolved to []string, env references
// expanded, defaults applied. Decode produces a Document from raw YAML;
// nothing downstream re-parses the file.
type Document struct {
	Version           string
	Env               map[string]string
	AIProvider        string
	AIModel           string
	AITemperature     float64
	MaxParallelism    int
	Memory            MemoryConfig
	Checks            map[string]core.CheckConfig
	Output            OutputConfig
	FailIf            string
	FailureConditions map[string]core.FailureCondition
}

// DefaultMaxParallelism is applied when a Document doesn't set
// max_parallelism (§4.9: "default 3").
const DefaultMaxParallelism = 3

// MemoryConfig configures the Memory Store's optional file-backed
// persistence (§4.3, §6).
type MemoryConfig struct {
	Storage   string // "memory" | "file"
	File      string
	Format    string // "json" | "csv"
	Namespace string
	AutoLoad  bool
	AutoSave  bool
}

// OutputConfig configures report rendering (§6).
type OutputConfig struct {
	PRComment PRCommentConfig
}

// PRCommentConfig configures the `output.pr_comment` block (§6).
type PRCommentConfig struct {
	Format   string // "table" | "json" | "markdown" | "sarif"
	GroupBy  string // "check" | "category"
	Collapse bool
}
