package provider

import (
	"context"

	"github.com/codcod/visor/internal/core"
)

// NoopProvider does nothing and reports no issues. Useful as a routing
// anchor node (a check whose only purpose is to gather dependents under
// one ID) or as a placeholder during pipeline authoring.
type NoopProvider struct{}

// NewNoopProvider constructs a NoopProvider.
func NewNoopProvider() *NoopProvider { return &NoopProvider{} }

func (p *NoopProvider) Type() string                  { return "noop" }
func (p *NoopProvider) SupportedConfigKeys() []string { return nil }

func (p *NoopProvider) Execute(_ context.Context, _ core.WorkItem, _ core.CheckConfig) (*core.ReviewSummary, error) {
	return &core.ReviewSummary{}, nil
}
