package provider

import (
	"context"

	"github.com/codcod/visor/internal/core"
)

// LogProvider renders CheckConfig.Content as a structured log line at
// info level. It never produces issues — it exists for pipelines that
// want a visible checkpoint (e.g. "on_finish: log summary") without
// invoking an external command.
type LogProvider struct {
	logger core.Logger
}

// NewLogProvider constructs a LogProvider writing through logger.
func NewLogProvider(logger core.Logger) *LogProvider {
	return &LogProvider{logger: logger}
}

func (p *LogProvider) Type() string                  { return "log" }
func (p *LogProvider) SupportedConfigKeys() []string { return []string{"content"} }

func (p *LogProvider) Execute(_ context.Context, item core.WorkItem, cfg core.CheckConfig) (*core.ReviewSummary, error) {
	msg := cfg.Content
	if p.logger != nil {
		p.logger.Info(msg, core.String("check", item.CheckID), core.String("branch", item.BranchPath.Key()))
	}
	return &core.ReviewSummary{Content: msg}, nil
}
