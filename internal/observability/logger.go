// Package observability provides structured logging and metrics for Visor's
// scheduler, providers, and CLI.
package observability

import (
	"fmt"
	"os"
	"time"

	"github.com/codcod/visor/internal/core"
	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
)

// Level mirrors logrus.Level so callers configuring verbosity don't need to
// import logrus directly.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func (l Level) logrusLevel() logrus.Level {
	switch l {
	case LevelDebug:
		return logrus.DebugLevel
	case LevelInfo:
		return logrus.InfoLevel
	case LevelWarn:
		return logrus.WarnLevel
	case LevelError:
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// colorTextFormatter renders logrus entries the way the teacher's
// color-coded StructuredLogger did, instead of logrus's default formatter.
type colorTextFormatter struct{}

func (colorTextFormatter) Format(e *logrus.Entry) ([]byte, error) {
	timestamp := e.Time.Format("2006-01-02 15:04:05")
	line := "[" + timestamp + "] [" + levelLabel(e.Level) + "]"
	if prefix, ok := e.Data["prefix"]; ok {
		line += " [" + toString(prefix) + "]"
	}
	line += " " + e.Message
	if len(e.Data) > 0 {
		line += " " + formatContextFields(withoutPrefix(e.Data))
	}

	colored := colorForLevel(e.Level)(line) + "\n"
	return []byte(colored), nil
}

func levelLabel(l logrus.Level) string {
	switch l {
	case logrus.DebugLevel:
		return "DEBUG"
	case logrus.InfoLevel:
		return "INFO"
	case logrus.WarnLevel:
		return "WARN"
	case logrus.ErrorLevel, logrus.FatalLevel, logrus.PanicLevel:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func colorForLevel(l logrus.Level) func(string, ...interface{}) string {
	switch l {
	case logrus.DebugLevel:
		return color.HiBlackString
	case logrus.InfoLevel:
		return color.CyanString
	case logrus.WarnLevel:
		return color.YellowString
	default:
		return color.RedString
	}
}

func withoutPrefix(data logrus.Fields) map[string]interface{} {
	out := make(map[string]interface{}, len(data))
	for k, v := range data {
		if k == "prefix" {
			continue
		}
		out[k] = v
	}
	return out
}

func toString(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// StructuredLogger wraps a logrus.Entry with the teacher's field-chaining
// API (WithField/WithFields/StartOperation) over core.Field instead of
// logrus's native variadic maps, so providers and the scheduler never
// import logrus directly.
type StructuredLogger struct {
	entry *logrus.Entry
}

// NewStructuredLogger creates a logger at the given verbosity, writing
// color-coded lines to stdout.
func NewStructuredLogger(level Level) *StructuredLogger {
	base := logrus.New()
	base.SetOutput(os.Stdout)
	base.SetLevel(level.logrusLevel())
	base.SetFormatter(colorTextFormatter{})
	return &StructuredLogger{entry: logrus.NewEntry(base)}
}

// WithPrefix creates a new logger tagged with a component prefix.
func (l *StructuredLogger) WithPrefix(prefix string) *StructuredLogger {
	return &StructuredLogger{entry: l.entry.WithField("prefix", prefix)}
}

// WithField adds a field to the logger context.
func (l *StructuredLogger) WithField(key string, value interface{}) *StructuredLogger {
	return &StructuredLogger{entry: l.entry.WithField(key, value)}
}

// WithFields adds multiple fields to the logger context.
func (l *StructuredLogger) WithFields(fields map[string]interface{}) *StructuredLogger {
	return &StructuredLogger{entry: l.entry.WithFields(logrus.Fields(fields))}
}

func (l *StructuredLogger) Debug(msg string, fields ...core.Field) {
	l.withLogFields(fields).Debug(msg)
}

func (l *StructuredLogger) Info(msg string, fields ...core.Field) {
	l.withLogFields(fields).Info(msg)
}

func (l *StructuredLogger) Warn(msg string, fields ...core.Field) {
	l.withLogFields(fields).Warn(msg)
}

func (l *StructuredLogger) Error(msg string, fields ...core.Field) {
	l.withLogFields(fields).Error(msg)
}

func (l *StructuredLogger) Fatal(msg string, fields ...core.Field) {
	l.withLogFields(fields).Fatal(msg)
}

func (l *StructuredLogger) withLogFields(fields []core.Field) *logrus.Entry {
	if len(fields) == 0 {
		return l.entry
	}
	data := make(logrus.Fields, len(fields))
	for _, f := range fields {
		data[f.Key] = f.Value
	}
	return l.entry.WithFields(data)
}

// StartOperation begins tracking a timed operation (provider invocation,
// sandbox evaluation, scheduler wave) and returns a logger scoped to it
// plus a func to call on completion.
func (l *StructuredLogger) StartOperation(name string) (*StructuredLogger, func()) {
	scoped := l.WithField("operation", name)
	start := time.Now()
	scoped.Debug("operation started")
	return scoped, func() {
		scoped.WithField("duration", time.Since(start)).Info("operation completed")
	}
}

func formatContextFields(fields map[string]interface{}) string {
	if len(fields) == 0 {
		return ""
	}
	result := "fields={"
	first := true
	for k, v := range fields {
		if !first {
			result += ", "
		}
		result += k + "=" + toDisplay(v)
		first = false
	}
	result += "}"
	return result
}

func toDisplay(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case error:
		return t.Error()
	default:
		return toStringer(t)
	}
}

func toStringer(v interface{}) string {
	type stringer interface{ String() string }
	if s, ok := v.(stringer); ok {
		return s.String()
	}
	return fmt.Sprint(v)
}

// CheckLogger scopes a StructuredLogger to one check ID, mirroring the
// teacher's CheckerLogger.
type CheckLogger struct {
	*StructuredLogger
	checkID string
}

// NewCheckLogger creates a logger scoped to a single check.
func NewCheckLogger(checkID string, base *StructuredLogger) *CheckLogger {
	return &CheckLogger{
		StructuredLogger: base.WithField("check", checkID),
		checkID:          checkID,
	}
}

// LogResult logs one iteration's outcome at the severity its success/issue
// count warrants.
func (l *CheckLogger) LogResult(r core.IterationResult) {
	fields := map[string]interface{}{
		"success":     r.Success,
		"issuesFound": len(r.Issues),
		"durationMs":  r.DurationMs,
		"loopIdx":     r.LoopIdx,
	}
	switch {
	case r.Skipped:
		l.WithFields(fields).Debug("check skipped: " + r.SkipReason)
	case !r.Success:
		l.WithFields(fields).Error("check failed: " + r.ErrorMessage)
	case len(r.Issues) > 0:
		l.WithFields(fields).Warn("check completed with issues")
	default:
		l.WithFields(fields).Info("check completed")
	}
}
