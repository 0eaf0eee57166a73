package core

import (
	"strings"
	"time"
)

// Logger is the structured logger interface every package logs through.
// Kept from the teacher's internal/observability contract.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	Fatal(msg string, fields ...Field)
}

// Field is a structured logging field.
type Field struct {
	Key   string
	Value interface{}
}

func String(key, value string) Field        { return Field{Key: key, Value: value} }
func Int(key string, value int) Field       { return Field{Key: key, Value: value} }
func Int64(key string, value int64) Field   { return Field{Key: key, Value: value} }
func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value}
}
func Error(key string, value error) Field { return Field{Key: key, Value: value} }
func Bool(key string, value bool) Field   { return Field{Key: key, Value: value} }
func Any(key string, value any) Field     { return Field{Key: key, Value: value} }

// Severity classifies an Issue's importance (§4.4).
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

// Category classifies an Issue's subject matter (§4.4).
type Category string

const (
	CategorySecurity      Category = "security"
	CategoryPerformance   Category = "performance"
	CategoryStyle         Category = "style"
	CategoryLogic         Category = "logic"
	CategoryDocumentation Category = "documentation"
)

// Issue is one finding reported by a provider (§4.4).
type Issue struct {
	File        string   `json:"file"`
	Line        int      `json:"line"`
	EndLine     int      `json:"endLine,omitempty"`
	RuleID      string   `json:"ruleId"`
	Message     string   `json:"message"`
	Severity    Severity `json:"severity"`
	Category    Category `json:"category"`
	Suggestion  string   `json:"suggestion,omitempty"`
	Replacement string   `json:"replacement,omitempty"`
	// CheckID names the check that produced this issue, stamped by the
	// scheduler independently of RuleID (§6/§4.8 "preserve per-check
	// grouping" — RuleID is the provider/condition's own identifier and
	// is not guaranteed to carry a check/<id> shape).
	CheckID string `json:"checkId,omitempty"`
}

// DedupKey is the tuple the aggregator dedups issues on (§4.8).
func (i Issue) DedupKey() string {
	return i.File + "\x1f" + itoa(i.Line) + "\x1f" + i.RuleID + "\x1f" + i.Message
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// SessionReuseMode tells a provider how to treat a carried-over session
// (§9 redesign note).
type SessionReuseMode string

const (
	SessionReuseClone  SessionReuseMode = "clone"
	SessionReuseAppend SessionReuseMode = "append"
)

// SessionHint is opaque at the scheduler boundary: the scheduler carries it
// from a parent check to a dependent without interpreting it.
type SessionHint struct {
	ParentSessionID string
	ReuseMode       SessionReuseMode
}

// ReviewSummary is the structured return of a provider (§4.4).
type ReviewSummary struct {
	Issues    []Issue `json:"issues"`
	Output    any     `json:"output,omitempty"`
	Content   string  `json:"content,omitempty"`
	Error     string  `json:"error,omitempty"`
	SessionID string  `json:"sessionId,omitempty"`
}

// OutputKind discriminates a CheckOutput (§9 redesign note).
type OutputKind int

const (
	OutputKindSummary OutputKind = iota
	OutputKindValue
	OutputKindError
)

// CheckOutput replaces the source's duck-typed "ReviewSummary or its
// .Output field, accessed indiscriminately" pattern with a tagged variant.
// Scheduler and aggregator code go through Unwrap rather than type-switching
// on ad-hoc shapes.
type CheckOutput struct {
	Kind    OutputKind
	Summary *ReviewSummary
	Value   any
	ErrKind string
	ErrMsg  string
}

// NewSummaryOutput wraps a provider's ReviewSummary.
func NewSummaryOutput(s *ReviewSummary) CheckOutput {
	return CheckOutput{Kind: OutputKindSummary, Summary: s}
}

// NewValueOutput wraps a bare value (e.g. a transform_js result).
func NewValueOutput(v any) CheckOutput {
	return CheckOutput{Kind: OutputKindValue, Value: v}
}

// NewErrorOutput wraps a recorded failure.
func NewErrorOutput(kind, msg string) CheckOutput {
	return CheckOutput{Kind: OutputKindError, ErrKind: kind, ErrMsg: msg}
}

// Unwrap normalizes a CheckOutput to the plain value expressions and
// templates should see via outputs[checkId].
func (c CheckOutput) Unwrap() any {
	switch c.Kind {
	case OutputKindSummary:
		if c.Summary == nil {
			return nil
		}
		if c.Summary.Output != nil {
			return c.Summary.Output
		}
		return map[string]any{
			"issues":  c.Summary.Issues,
			"content": c.Summary.Content,
		}
	case OutputKindValue:
		return c.Value
	case OutputKindError:
		return map[string]any{"error": c.ErrMsg, "kind": c.ErrKind}
	default:
		return nil
	}
}

// ForEachItems reports whether the unwrapped value is an array a forEach
// check can fan out over.
func (c CheckOutput) ForEachItems() ([]any, bool) {
	items, ok := c.Unwrap().([]any)
	return items, ok
}

// --- Routing & check configuration (§3) ---

// RetryPolicy bounds automatic re-attempts of a single provider invocation.
// Distinct from goto-based routing loops (§4.7 invariant).
type RetryPolicy struct {
	MaxAttempts int           `yaml:"max_attempts" json:"maxAttempts"`
	Backoff     time.Duration `yaml:"backoff" json:"backoff"`
}

// FailureCondition is one named entry of CheckConfig.FailureConditions.
type FailureCondition struct {
	Name          string   `yaml:"-" json:"name"`
	Condition     string   `yaml:"condition" json:"condition"`
	Message       string   `yaml:"message" json:"message"`
	Severity      Severity `yaml:"severity" json:"severity"`
	HaltExecution bool     `yaml:"halt_execution" json:"haltExecution"`
}

// RoutingAction is what to do after a WorkItem completes (§3).
type RoutingAction struct {
	Run       []string     `yaml:"run,omitempty" json:"run,omitempty"`
	RunJS     string       `yaml:"run_js,omitempty" json:"runJs,omitempty"`
	Goto      string       `yaml:"goto,omitempty" json:"goto,omitempty"`
	GotoJS    string       `yaml:"goto_js,omitempty" json:"gotoJs,omitempty"`
	GotoEvent string       `yaml:"goto_event,omitempty" json:"gotoEvent,omitempty"`
	Retry     *RetryPolicy `yaml:"retry,omitempty" json:"retry,omitempty"`
}

// IsZero reports whether the action has nothing to do.
func (r *RoutingAction) IsZero() bool {
	return r == nil || (len(r.Run) == 0 && r.RunJS == "" && r.Goto == "" && r.GotoJS == "")
}

// CheckConfig is one node in the pipeline (§3).
type CheckConfig struct {
	ID                string                      `yaml:"-" json:"id"`
	Type              string                      `yaml:"type" json:"type"`
	Tags              []string                    `yaml:"tags,omitempty" json:"tags,omitempty"`
	Group             string                      `yaml:"group,omitempty" json:"group,omitempty"`
	On                []string                    `yaml:"on,omitempty" json:"on,omitempty"`
	DependsOn         []string                    `yaml:"depends_on,omitempty" json:"dependsOn,omitempty"`
	If                string                      `yaml:"if,omitempty" json:"if,omitempty"`
	ForEach           bool                        `yaml:"forEach,omitempty" json:"forEach,omitempty"`
	Timeout           time.Duration               `yaml:"timeout,omitempty" json:"timeout,omitempty"`
	FailIf            string                      `yaml:"fail_if,omitempty" json:"failIf,omitempty"`
	FailureConditions map[string]FailureCondition `yaml:"failure_conditions,omitempty" json:"failureConditions,omitempty"`
	OnSuccess         *RoutingAction              `yaml:"on_success,omitempty" json:"onSuccess,omitempty"`
	OnFail            *RoutingAction              `yaml:"on_fail,omitempty" json:"onFail,omitempty"`
	OnFinish          *RoutingAction              `yaml:"on_finish,omitempty" json:"onFinish,omitempty"`
	ContinueOnFailure bool                        `yaml:"continue_on_failure,omitempty" json:"continueOnFailure,omitempty"`
	MaxLoops          int                         `yaml:"max_loops,omitempty" json:"maxLoops,omitempty"`
	Env               map[string]string           `yaml:"env,omitempty" json:"env,omitempty"`
	Retry             *RetryPolicy                `yaml:"retry,omitempty" json:"retry,omitempty"`

	// Provider-specific payload, kept opaque at this layer; each provider's
	// SupportedConfigKeys lists the subset it reads (§4.4).
	Prompt        string `yaml:"prompt,omitempty" json:"prompt,omitempty"`
	Schema        string `yaml:"schema,omitempty" json:"schema,omitempty"`
	Exec          string `yaml:"exec,omitempty" json:"exec,omitempty"`
	TranscriptDir string `yaml:"transcript_dir,omitempty" json:"transcriptDir,omitempty"`
	Content       string `yaml:"content,omitempty" json:"content,omitempty"`
	Operation     string `yaml:"operation,omitempty" json:"operation,omitempty"`
	Key           string `yaml:"key,omitempty" json:"key,omitempty"`
	Value         any    `yaml:"value,omitempty" json:"value,omitempty"`
	ValueJS       string `yaml:"value_js,omitempty" json:"valueJs,omitempty"`
	MemoryJS      string `yaml:"memory_js,omitempty" json:"memoryJs,omitempty"`
	Namespace     string `yaml:"namespace,omitempty" json:"namespace,omitempty"`
	Transform     string `yaml:"transform,omitempty" json:"transform,omitempty"`
	TransformJS   string `yaml:"transform_js,omitempty" json:"transformJs,omitempty"`
}

// DefaultMaxLoops is applied when a CheckConfig doesn't set MaxLoops (§3).
const DefaultMaxLoops = 10

// EffectiveMaxLoops returns the configured cap, or DefaultMaxLoops.
func (c *CheckConfig) EffectiveMaxLoops() int {
	if c.MaxLoops > 0 {
		return c.MaxLoops
	}
	return DefaultMaxLoops
}

// --- Execution-time types (§3) ---

// BranchStep is one (ancestorId, iterationIndex) hop of a WorkItem's
// branchPath (§4.6.1).
type BranchStep struct {
	AncestorID string
	Index      int
}

// BranchPath identifies a concrete forEach path through ancestors.
type BranchPath []BranchStep

// Key renders a BranchPath as a stable map key for branch-scoped lookups.
func (b BranchPath) Key() string {
	if len(b) == 0 {
		return ""
	}
	var sb strings.Builder
	for i, s := range b {
		if i > 0 {
			sb.WriteByte('/')
		}
		sb.WriteString(s.AncestorID)
		sb.WriteByte(':')
		sb.WriteString(itoa(s.Index))
	}
	return sb.String()
}

// WorkItem is one scheduled execution of a check in a concrete branch (§3).
type WorkItem struct {
	CheckID           string
	BranchPath        BranchPath
	LoopCount         int
	IterationItem     any
	HasIteration      bool
	DependencyOutputs map[string]CheckOutput
	Event             string
	Session           *SessionHint
}

// IterationResult is the result of a single provider invocation (§3).
type IterationResult struct {
	CheckID      string     `json:"checkId"`
	BranchPath   BranchPath `json:"branchPath,omitempty"`
	LoopIdx      int        `json:"loopIdx"`
	Success      bool       `json:"success"`
	Issues       []Issue    `json:"issues,omitempty"`
	Output       any        `json:"output,omitempty"`
	ErrorMessage string     `json:"errorMessage,omitempty"`
	DurationMs   int64      `json:"durationMs"`
	SessionID    string     `json:"sessionId,omitempty"`
	Skipped      bool       `json:"skipped,omitempty"`
	SkipReason   string     `json:"skipReason,omitempty"`
}

// CheckStats is per-check statistics (§3).
type CheckStats struct {
	CheckName             string  `json:"checkName"`
	TotalRuns              int     `json:"totalRuns"`
	SuccessfulRuns         int     `json:"successfulRuns"`
	FailedRuns             int     `json:"failedRuns"`
	Skipped                bool    `json:"skipped"`
	SkipReason             string  `json:"skipReason,omitempty"`
	IssuesFound            int     `json:"issuesFound"`
	TotalDuration          int64   `json:"totalDuration"`
	PerIterationDuration   []int64 `json:"perIterationDuration,omitempty"`
}

// HistoryMap is the append-only, per-check log of recorded outputs (§3).
type HistoryMap map[string][]IterationResult

// FailureConditionResult is one fired/evaluated failure condition (§6).
type FailureConditionResult struct {
	ConditionName string   `json:"conditionName"`
	Failed        bool     `json:"failed"`
	Severity      Severity `json:"severity"`
	Expression    string   `json:"expression"`
	Message       string   `json:"message"`
	HaltExecution bool     `json:"haltExecution"`
}

// ExecutionReport is the final artifact returned to the caller (§3, §6).
type ExecutionReport struct {
	Issues                []Issue                  `json:"issues"`
	Output                any                       `json:"output,omitempty"`
	Error                 string                    `json:"error,omitempty"`
	GroupedOutputs        map[string][]Issue        `json:"groupedOutputs,omitempty"`
	History               HistoryMap                `json:"history"`
	Checks                []CheckStats              `json:"checks"`
	TotalChecksConfigured int                       `json:"totalChecksConfigured"`
	TotalExecutions       int                       `json:"totalExecutions"`
	FailedExecutions      int                       `json:"failedExecutions"`
	SkippedChecks         int                       `json:"skippedChecks"`
	FailureConditions     []FailureConditionResult  `json:"failureConditions,omitempty"`
	Halted                bool                      `json:"halted,omitempty"`
}

// PRInfo is the input struct PR/issue ingestion is reduced to at this layer
// (§1: "PR/issue ingestion from source forges; treated as an input
// struct").
type PRInfo struct {
	Number      int               `json:"number,omitempty"`
	Title       string            `json:"title,omitempty"`
	Body        string            `json:"body,omitempty"`
	Author      string            `json:"author,omitempty"`
	Branch      string            `json:"branch,omitempty"`
	BaseBranch  string            `json:"baseBranch,omitempty"`
	Files       []string          `json:"files,omitempty"`
	EventName   string            `json:"eventName,omitempty"`
	EventAction string            `json:"eventAction,omitempty"`
	Labels      []string          `json:"labels,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// EnvMap is the dedicated scope-boundary value object for process env
// (§9: "never read process.env inside the sandbox").
type EnvMap map[string]string
