package provider

import (
	"context"
	"time"

	"github.com/codcod/visor/internal/core"
	"github.com/codcod/visor/internal/provider/commands"
)

// CommandProvider runs CheckConfig.Exec as a shell command and folds its
// exit status into a ReviewSummary, grounded on the teacher's
// internal/runner.RunCommand pipe-draining pattern but adapted to return
// a structured summary instead of streaming directly to stdout/a log file.
// When CheckConfig.TranscriptDir is set it additionally streams output
// live (teacher's OutputProcessor behavior, generalized from a
// per-repository log to a per-check-invocation one).
type CommandProvider struct {
	executor commands.CommandExecutor
}

// NewCommandProvider constructs a CommandProvider with a default 2-minute
// timeout, overridden per-check by CheckConfig.Timeout.
func NewCommandProvider() *CommandProvider {
	return &CommandProvider{executor: commands.NewOSCommandExecutor(commands.DefaultExecutorTimeout)}
}

func (p *CommandProvider) Type() string {
	return "command"
}

func (p *CommandProvider) SupportedConfigKeys() []string {
	return []string{"exec", "timeout", "transcript_dir"}
}

func (p *CommandProvider) Execute(ctx context.Context, item core.WorkItem, cfg core.CheckConfig) (*core.ReviewSummary, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = commands.DefaultExecutorTimeout
	}

	if cfg.TranscriptDir != "" {
		return p.executeWithTranscript(ctx, item, cfg, timeout)
	}

	result := p.executor.ExecuteWithTimeout(ctx, timeout, "sh", "-c", cfg.Exec)
	return toSummary(result), nil
}

func toSummary(result commands.CommandResult) *core.ReviewSummary {
	summary := &core.ReviewSummary{Content: result.Stdout}
	if result.ExitCode != 0 || result.Error != nil {
		msg := result.Stderr
		if msg == "" && result.Error != nil {
			msg = result.Error.Error()
		}
		summary.Issues = []core.Issue{{
			RuleID:   "command.nonzero_exit",
			Message:  msg,
			Severity: core.SeverityError,
			Category: core.CategoryLogic,
		}}
		summary.Error = msg
	}
	summary.Output = map[string]any{
		"exitCode": result.ExitCode,
		"stdout":   result.Stdout,
		"stderr":   result.Stderr,
	}
	return summary
}

func (p *CommandProvider) executeWithTranscript(ctx context.Context, item core.WorkItem, cfg core.CheckConfig, timeout time.Duration) (*core.ReviewSummary, error) {
	logFile, _, err := prepareTranscript(cfg.TranscriptDir, item.CheckID, cfg.Exec)
	if err != nil {
		return nil, err
	}
	if logFile != nil {
		defer func() { _ = logFile.Close() }()
	}

	out := &transcriptWriter{checkID: item.CheckID, logFile: logFile, isStderr: false}
	errw := &transcriptWriter{checkID: item.CheckID, logFile: logFile, isStderr: true}

	result := p.executor.ExecuteStreaming(ctx, timeout, cfg.Exec, out.writeLine, errw.writeLine)
	return toSummary(result), nil
}
