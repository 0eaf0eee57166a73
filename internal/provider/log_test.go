package provider

import (
	"context"
	"testing"

	"github.com/codcod/visor/internal/core"
)

func TestLogProviderExecute(t *testing.T) {
	p := NewLogProvider(nil)
	item := core.WorkItem{CheckID: "announce"}
	cfg := core.CheckConfig{Type: "log", Content: "pipeline started"}

	summary, err := p.Execute(context.Background(), item, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.Content != "pipeline started" {
		t.Fatalf("got content %q, want %q", summary.Content, "pipeline started")
	}
	if len(summary.Issues) != 0 {
		t.Fatalf("got %d issues, want 0", len(summary.Issues))
	}
}
