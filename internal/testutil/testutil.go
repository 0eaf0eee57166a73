// Package testutil provides common testing utilities across all packages.
package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/codcod/visor/internal/core"
)

// CreateTempConfig writes the given YAML to a temp file and returns its path.
func CreateTempConfig(t testing.TB, configYAML string) string {
	t.Helper()
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(configYAML), 0600); err != nil {
		t.Fatalf("Failed to create test config file: %v", err)
	}
	return configPath
}

// Contains checks if a string is in a slice.
func Contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

// StandardTestConfig provides a consistent test configuration for benchmarks
// and tests, exercising the shapes config.Decode accepts: a command check, a
// script check depending on it, and a forEach check with on_finish.
const StandardTestConfig = `version: "1.0"
max_parallelism: 3
checks:
  lint:
    type: command
    exec: "golangci-lint run"
    tags: [go, static-analysis]
  summarize:
    type: script
    depends_on: lint
    transform_js: "return outputs.lint;"
  report:
    type: log
    depends_on: "lint|summarize"
    forEach: true
    on_finish:
      run: [lint]
`

// CheckConfigBuilder provides a fluent interface for building test
// core.CheckConfig values, mirroring the teacher's *Builder test helpers.
type CheckConfigBuilder struct {
	cfg core.CheckConfig
}

// NewCheckConfigBuilder creates a builder with sensible defaults.
func NewCheckConfigBuilder(id string) *CheckConfigBuilder {
	return &CheckConfigBuilder{
		cfg: core.CheckConfig{
			ID:   id,
			Type: "noop",
		},
	}
}

func (b *CheckConfigBuilder) WithType(t string) *CheckConfigBuilder {
	b.cfg.Type = t
	return b
}

func (b *CheckConfigBuilder) WithDependsOn(deps ...string) *CheckConfigBuilder {
	b.cfg.DependsOn = append(b.cfg.DependsOn, deps...)
	return b
}

func (b *CheckConfigBuilder) WithTags(tags ...string) *CheckConfigBuilder {
	b.cfg.Tags = append(b.cfg.Tags, tags...)
	return b
}

func (b *CheckConfigBuilder) WithForEach(forEach bool) *CheckConfigBuilder {
	b.cfg.ForEach = forEach
	return b
}

func (b *CheckConfigBuilder) WithTimeout(d time.Duration) *CheckConfigBuilder {
	b.cfg.Timeout = d
	return b
}

func (b *CheckConfigBuilder) WithIf(expr string) *CheckConfigBuilder {
	b.cfg.If = expr
	return b
}

func (b *CheckConfigBuilder) WithOnSuccess(action *core.RoutingAction) *CheckConfigBuilder {
	b.cfg.OnSuccess = action
	return b
}

func (b *CheckConfigBuilder) WithOnFail(action *core.RoutingAction) *CheckConfigBuilder {
	b.cfg.OnFail = action
	return b
}

func (b *CheckConfigBuilder) WithMaxLoops(n int) *CheckConfigBuilder {
	b.cfg.MaxLoops = n
	return b
}

// Build creates the final CheckConfig.
func (b *CheckConfigBuilder) Build() core.CheckConfig {
	return b.cfg
}

// IterationResultBuilder provides a fluent interface for building test
// core.IterationResult values.
type IterationResultBuilder struct {
	result core.IterationResult
}

// NewIterationResultBuilder creates a builder with sensible defaults.
func NewIterationResultBuilder(checkID string) *IterationResultBuilder {
	return &IterationResultBuilder{
		result: core.IterationResult{
			CheckID:    checkID,
			Success:    true,
			DurationMs: 100,
		},
	}
}

func (rb *IterationResultBuilder) WithSuccess(success bool) *IterationResultBuilder {
	rb.result.Success = success
	return rb
}

func (rb *IterationResultBuilder) WithIssue(file, ruleID, message string, severity core.Severity) *IterationResultBuilder {
	rb.result.Issues = append(rb.result.Issues, core.Issue{
		File:     file,
		RuleID:   ruleID,
		Message:  message,
		Severity: severity,
	})
	return rb
}

func (rb *IterationResultBuilder) WithOutput(v any) *IterationResultBuilder {
	rb.result.Output = v
	return rb
}

func (rb *IterationResultBuilder) WithError(msg string) *IterationResultBuilder {
	rb.result.Success = false
	rb.result.ErrorMessage = msg
	return rb
}

func (rb *IterationResultBuilder) WithBranchPath(path core.BranchPath) *IterationResultBuilder {
	rb.result.BranchPath = path
	return rb
}

// Build creates the final IterationResult.
func (rb *IterationResultBuilder) Build() core.IterationResult {
	return rb.result
}

// TestEnvironment provides a comprehensive test environment with common test
// utilities: temp directories for config files and memory-store snapshots.
type TestEnvironment struct {
	TempDir   string
	ConfigDir string
	MemoryDir string
	t         testing.TB
}

// NewTestEnvironment creates a new test environment with temporary directories.
func NewTestEnvironment(t testing.TB) *TestEnvironment {
	t.Helper()

	tempDir := t.TempDir()

	env := &TestEnvironment{
		TempDir:   tempDir,
		ConfigDir: filepath.Join(tempDir, "config"),
		MemoryDir: filepath.Join(tempDir, "memory"),
		t:         t,
	}

	if err := os.MkdirAll(env.ConfigDir, 0750); err != nil {
		t.Fatalf("Failed to create config directory: %v", err)
	}

	if err := os.MkdirAll(env.MemoryDir, 0750); err != nil {
		t.Fatalf("Failed to create memory directory: %v", err)
	}

	return env
}

// CreateConfig creates a test configuration file.
func (env *TestEnvironment) CreateConfig(filename, content string) string {
	env.t.Helper()

	configPath := filepath.Join(env.ConfigDir, filename)
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		env.t.Fatalf("Failed to create config file %s: %v", filename, err)
	}

	return configPath
}

// GetConfigPath returns the path to a config file.
func (env *TestEnvironment) GetConfigPath(filename string) string {
	return filepath.Join(env.ConfigDir, filename)
}

// GetMemoryPath returns the path to a memory-store snapshot file.
func (env *TestEnvironment) GetMemoryPath(filename string) string {
	return filepath.Join(env.MemoryDir, filename)
}

// NewTestLogger returns a core.Logger that discards everything, for tests
// that need to satisfy a Logger parameter without asserting on output.
func NewTestLogger() core.Logger {
	return &discardLogger{}
}

type discardLogger struct{}

func (d *discardLogger) Debug(msg string, fields ...core.Field) {}
func (d *discardLogger) Info(msg string, fields ...core.Field)  {}
func (d *discardLogger) Warn(msg string, fields ...core.Field)  {}
func (d *discardLogger) Error(msg string, fields ...core.Field) {}
func (d *discardLogger) Fatal(msg string, fields ...core.Field) {}

// FormatBranchPath is a small helper for assertion messages.
func FormatBranchPath(path core.BranchPath) string {
	return fmt.Sprintf("%v", path.Key())
}
