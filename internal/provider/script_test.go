package provider

import (
	"context"
	"testing"

	"github.com/codcod/visor/internal/core"
	"github.com/codcod/visor/internal/sandbox"
)

func TestScriptProviderTransformJS(t *testing.T) {
	p := NewScriptProvider(sandbox.New(0))
	item := core.WorkItem{
		CheckID: "fan-out",
		DependencyOutputs: map[string]core.CheckOutput{
			"list-files": core.NewValueOutput([]any{"a.go", "b.go", "c.go"}),
		},
	}

	summary, err := p.Execute(context.Background(), item, core.CheckConfig{
		Type:        "script",
		TransformJS: "return outputs['list-files'].filter(f => f !== 'b.go');",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	files, ok := summary.Output.([]any)
	if !ok {
		t.Fatalf("got output %v (%T), want []any", summary.Output, summary.Output)
	}
	if len(files) != 2 {
		t.Fatalf("got %d files, want 2", len(files))
	}
}

func TestScriptProviderRequiresTransform(t *testing.T) {
	p := NewScriptProvider(sandbox.New(0))
	_, err := p.Execute(context.Background(), core.WorkItem{}, core.CheckConfig{Type: "script"})
	if err == nil {
		t.Fatal("expected an error when neither transform nor transform_js is set")
	}
}
