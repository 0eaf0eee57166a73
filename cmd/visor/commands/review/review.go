// Package review implements visor's sole operational command: run the
// configured check graph against one triggering event and report the
// result. Grounded on the teacher's cmd/repos/commands/health.go —
// Validate() then Execute(ctx) over a *Config struct, a default config
// path, timeout plumbing, and a structured-logger-scoped "operation".
package review

import (
	"context"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/codcod/visor/internal/aggregator"
	"github.com/codcod/visor/internal/config"
	"github.com/codcod/visor/internal/core"
	"github.com/codcod/visor/internal/memstore"
	"github.com/codcod/visor/internal/observability"
	"github.com/codcod/visor/internal/planner"
	"github.com/codcod/visor/internal/provider"
	"github.com/codcod/visor/internal/sandbox"
	"github.com/codcod/visor/internal/scheduler"
)

// Config holds review command's flags, mirroring the teacher's
// HealthConfig shape (a plain struct Validate()/Execute() close over).
type Config struct {
	ConfigPath string
	Event      string
	Checks     []string
	TagInclude []string
	TagExclude []string
	Format     string
	Verbose    bool
	Timeout    time.Duration
}

// NewCommand builds the `visor review` cobra command.
func NewCommand() *cobra.Command {
	cfg := &Config{}

	cmd := &cobra.Command{
		Use:   "review",
		Short: "Run the configured check graph against a triggering event",
		RunE: func(cmd *cobra.Command, _ []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			if configPath != "" {
				cfg.ConfigPath = configPath
			}
			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				cfg.Verbose = true
			}
			return run(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&cfg.Event, "event", "", "triggering event name (e.g. pull_request, issue_comment)")
	cmd.Flags().StringSliceVar(&cfg.Checks, "check", nil, "restrict execution to these checks and their dependencies (repeatable)")
	cmd.Flags().StringSliceVar(&cfg.TagInclude, "tag", nil, "only run checks carrying one of these tags (repeatable)")
	cmd.Flags().StringSliceVar(&cfg.TagExclude, "exclude-tag", nil, "never run checks carrying one of these tags (repeatable)")
	cmd.Flags().StringVar(&cfg.Format, "format", "", "output format: table|json|markdown|sarif (default table, or $VISOR_OUTPUT_FORMAT)")
	cmd.Flags().DurationVar(&cfg.Timeout, "timeout", 0, "overall run timeout (0 = no deadline beyond each check's own)")

	return cmd
}

// run wires config → registry/sandbox/memory/logger → planner → scheduler
// → aggregator → renderer, the same left-to-right shape as the teacher's
// HealthExecutor.Run.
func run(ctx context.Context, cfg *Config) error {
	runID := uuid.NewString()

	if cfg.ConfigPath == "" {
		cfg.ConfigPath = "visor.yaml"
	}
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	level := observability.LevelInfo
	if cfg.Verbose || envBool("VISOR_DEBUG") {
		level = observability.LevelDebug
	}
	if lvl := os.Getenv("VISOR_LOG_LEVEL"); lvl != "" {
		level = parseLevel(lvl)
	}
	logger := observability.NewStructuredLogger(level).WithPrefix("review").WithField("runId", runID)

	format := cfg.Format
	if format == "" {
		format = os.Getenv("VISOR_OUTPUT_FORMAT")
	}
	if format == "" {
		format = "table"
	}

	doc, err := config.Load(cfg.ConfigPath)
	if err != nil {
		logger.Error("failed to load config", core.String("path", cfg.ConfigPath), core.Error("error", err))
		os.Exit(1)
	}

	store := memstore.New()
	if doc.Memory.AutoLoad && doc.Memory.File != "" {
		if lerr := store.Load(doc.Memory.File, memstore.Format(doc.Memory.Format)); lerr != nil {
			logger.Warn("failed to load persisted memory", core.String("file", doc.Memory.File), core.Error("error", lerr))
		}
	}

	sb := sandbox.New(0)
	reg := provider.NewDefaultRegistry(store, sb, logger)

	filter := planner.TagFilter{Include: cfg.TagInclude, Exclude: cfg.TagExclude}
	plan, err := planner.Build(doc.Checks, cfg.Checks, filter, cfg.Event)
	if err != nil {
		logger.Error("failed to build plan", core.Error("error", err))
		os.Exit(1)
	}

	maxParallelism := doc.MaxParallelism
	eng := scheduler.New(reg, sb, store, logger, maxParallelism)

	report, err := eng.Run(ctx, doc.Checks, plan, cfg.Event)
	if err != nil {
		logger.Error("run failed", core.Error("error", err))
		os.Exit(2)
	}

	if doc.Memory.AutoSave && doc.Memory.File != "" {
		if serr := store.Save(doc.Memory.File, memstore.Format(doc.Memory.Format)); serr != nil {
			logger.Warn("failed to persist memory", core.String("file", doc.Memory.File), core.Error("error", serr))
		}
	}

	final := aggregator.Finalize(report, doc.Output.PRComment.GroupBy)
	if err := renderReport(final, format); err != nil {
		logger.Error("failed to render report", core.Error("error", err))
		os.Exit(2)
	}

	os.Exit(aggregator.ExitCode(final))
	return nil
}

func envBool(name string) bool {
	v := os.Getenv(name)
	if v == "" {
		return false
	}
	b, _ := strconv.ParseBool(v)
	return b
}

func parseLevel(s string) observability.Level {
	switch strings.ToLower(s) {
	case "debug":
		return observability.LevelDebug
	case "warn", "warning":
		return observability.LevelWarn
	case "error":
		return observability.LevelError
	default:
		return observability.LevelInfo
	}
}
