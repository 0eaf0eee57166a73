package sandbox

import (
	"context"
	"testing"
	"time"

	"github.com/codcod/visor/internal/core"
	"github.com/codcod/visor/internal/verrors"
)

func TestEvaluateArithmetic(t *testing.T) {
	s := New(0)
	got, err := s.Evaluate(context.Background(), "1 + 2 * 3", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n, ok := got.(int64); !ok || n != 7 {
		t.Fatalf("got %v (%T), want 7", got, got)
	}
}

func TestEvaluateScope(t *testing.T) {
	s := New(0)
	scope := map[string]any{"step": map[string]any{"value": 5}}
	got, err := s.Evaluate(context.Background(), "step.value > 3", scope)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != true {
		t.Fatalf("got %v, want true", got)
	}
}

func TestEvaluateAlways(t *testing.T) {
	s := New(0)
	got, err := s.Evaluate(context.Background(), "always()", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != true {
		t.Fatalf("got %v, want true", got)
	}
}

func TestEvaluateContainsString(t *testing.T) {
	s := New(0)
	got, err := s.Evaluate(context.Background(), `contains("hello world", "world")`, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != true {
		t.Fatalf("got %v, want true", got)
	}
}

func TestEvaluateStartsWith(t *testing.T) {
	s := New(0)
	got, err := s.Evaluate(context.Background(), `startsWith("internal/sandbox", "internal/")`, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != true {
		t.Fatalf("got %v, want true", got)
	}
}

func TestEvaluateHasIssue(t *testing.T) {
	s := New(0)
	scope := map[string]any{
		"issues": []core.Issue{
			{File: "a.go", RuleID: "lint.unused", Severity: core.SeverityWarning},
		},
	}
	got, err := s.Evaluate(context.Background(), `hasIssue(issues, "ruleId", "lint.unused")`, scope)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != true {
		t.Fatalf("got %v, want true", got)
	}
}

func TestEvaluateHasFileMatching(t *testing.T) {
	s := New(0)
	scope := map[string]any{
		"issues": []core.Issue{{File: "internal/core/types.go"}},
	}
	got, err := s.Evaluate(context.Background(), `hasFileMatching(issues, "internal/core/*.go")`, scope)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != true {
		t.Fatalf("got %v, want true", got)
	}
}

func TestEvaluateSyntaxError(t *testing.T) {
	s := New(0)
	_, err := s.Evaluate(context.Background(), "1 +", nil)
	if err == nil {
		t.Fatal("expected a syntax error")
	}
	if !verrors.Is(err, verrors.KindSandboxCompile) {
		t.Fatalf("got %v, want sandbox/compile_error", err)
	}
}

func TestEvaluateTimeout(t *testing.T) {
	s := New(5 * time.Millisecond)
	_, err := s.Evaluate(context.Background(), "while (true) {}", nil)
	if err == nil {
		t.Fatal("expected a timeout error")
	}
	if !verrors.Is(err, verrors.KindSandboxTimeout) {
		t.Fatalf("got %v, want sandbox/timeout", err)
	}
}

func TestEvaluateScriptReturn(t *testing.T) {
	s := New(0)
	got, err := s.EvaluateScript(context.Background(), "const x = 2; return x * 10;", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n, ok := got.(int64); !ok || n != 20 {
		t.Fatalf("got %v (%T), want 20", got, got)
	}
}

func TestEvaluateScriptLogDoesNotPanic(t *testing.T) {
	s := New(0)
	_, err := s.EvaluateScript(context.Background(), `log("diagnostic"); return 1;`, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
