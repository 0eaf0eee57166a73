package provider

import (
	"context"
	"fmt"

	"github.com/codcod/visor/internal/core"
)

// ScriptProvider runs CheckConfig.Transform/TransformJS-shaped JS payloads
// through the Expression Sandbox and folds the returned value into a
// ReviewSummary, for pipelines whose check is pure data transformation
// rather than an external command or memory read/write (§4.4, §1
// expansion note: "script (sandboxed JS)").
type ScriptProvider struct {
	sandbox core.Sandbox
}

// NewScriptProvider constructs a ScriptProvider evaluating through sandbox.
func NewScriptProvider(sandbox core.Sandbox) *ScriptProvider {
	return &ScriptProvider{sandbox: sandbox}
}

func (p *ScriptProvider) Type() string { return "script" }

func (p *ScriptProvider) SupportedConfigKeys() []string {
	return []string{"transform", "transform_js"}
}

func (p *ScriptProvider) Execute(ctx context.Context, item core.WorkItem, cfg core.CheckConfig) (*core.ReviewSummary, error) {
	script := cfg.TransformJS
	if script == "" {
		script = cfg.Transform
	}
	if script == "" {
		return nil, fmt.Errorf("script provider: one of transform or transform_js is required")
	}

	scope := map[string]any{
		"outputs": unwrapOutputs(item.DependencyOutputs),
		"item":    item.IterationItem,
		"event":   item.Event,
	}

	value, err := p.sandbox.EvaluateScript(ctx, script, scope)
	if err != nil {
		return nil, err
	}

	return &core.ReviewSummary{Output: value}, nil
}
