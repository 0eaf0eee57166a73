package provider

import (
	"context"
	"testing"

	"github.com/codcod/visor/internal/core"
)

func TestNoopProviderExecute(t *testing.T) {
	p := NewNoopProvider()
	if p.Type() != "noop" {
		t.Fatalf("got type %q, want noop", p.Type())
	}

	summary, err := p.Execute(context.Background(), core.WorkItem{CheckID: "check-a"}, core.CheckConfig{Type: "noop"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary == nil {
		t.Fatal("expected a non-nil summary")
	}
	if len(summary.Issues) != 0 {
		t.Fatalf("got %d issues, want 0", len(summary.Issues))
	}
}
