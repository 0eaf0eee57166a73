package template

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/codcod/visor/internal/sandbox"
)

func newEngine(t *testing.T, root string) *Engine {
	t.Helper()
	if root == "" {
		root = t.TempDir()
	}
	return New(sandbox.New(0), root)
}

func TestRenderPlainText(t *testing.T) {
	e := newEngine(t, "")
	out, err := e.Render(context.Background(), "hello world", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "hello world" {
		t.Fatalf("got %q", out)
	}
}

func TestRenderExpression(t *testing.T) {
	e := newEngine(t, "")
	out, err := e.Render(context.Background(), "count: {{ count }}", map[string]any{"count": 3.0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "count: 3" {
		t.Fatalf("got %q", out)
	}
}

func TestRenderUndefinedVariableIsEmpty(t *testing.T) {
	e := newEngine(t, "")
	out, err := e.Render(context.Background(), "[{{ missing }}]", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "[]" {
		t.Fatalf("got %q, want []", out)
	}
}

func TestRenderFilterToJSON(t *testing.T) {
	e := newEngine(t, "")
	out, err := e.Render(context.Background(), "{{ item | to_json }}", map[string]any{
		"item": map[string]any{"a": 1.0},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != `{"a":1}` {
		t.Fatalf("got %q", out)
	}
}

func TestRenderFilterParseJSON(t *testing.T) {
	e := newEngine(t, "")
	out, err := e.Render(context.Background(), "{{ raw | parse_json }}", map[string]any{
		"raw": `{"x":"y"}`,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out == "" {
		t.Fatal("expected non-empty rendered map")
	}
}

func TestRenderFilterSafeLabel(t *testing.T) {
	e := newEngine(t, "")
	out, err := e.Render(context.Background(), "{{ title | safe_label }}", map[string]any{
		"title": "Needs Review!!",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "needs-review" {
		t.Fatalf("got %q, want needs-review", out)
	}
}

func TestRenderFilterSafeLabelList(t *testing.T) {
	e := newEngine(t, "")
	out, err := e.Render(context.Background(), "{{ labels | safe_label_list }}", map[string]any{
		"labels": []any{"Bug Fix", "P1!"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "bug-fix, p1" {
		t.Fatalf("got %q", out)
	}
}

func TestRenderFilterUnescapeNewlines(t *testing.T) {
	e := newEngine(t, "")
	out, err := e.Render(context.Background(), "{{ text | unescape_newlines }}", map[string]any{
		"text": `line1\nline2`,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "line1\nline2" {
		t.Fatalf("got %q", out)
	}
}

func TestRenderFilterChain(t *testing.T) {
	e := newEngine(t, "")
	out, err := e.Render(context.Background(), "{{ item | to_json | unescape_newlines }}", map[string]any{
		"item": "a\\nb",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out == "" {
		t.Fatal("expected non-empty output")
	}
}

func TestRenderIfElse(t *testing.T) {
	e := newEngine(t, "")
	tmpl := "{% if ok %}yes{% else %}no{% endif %}"

	out, err := e.Render(context.Background(), tmpl, map[string]any{"ok": true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "yes" {
		t.Fatalf("got %q, want yes", out)
	}

	out, err = e.Render(context.Background(), tmpl, map[string]any{"ok": false})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "no" {
		t.Fatalf("got %q, want no", out)
	}
}

func TestRenderIfElif(t *testing.T) {
	e := newEngine(t, "")
	tmpl := "{% if severity == \"critical\" %}CRIT{% elif severity == \"warning\" %}WARN{% else %}INFO{% endif %}"

	out, err := e.Render(context.Background(), tmpl, map[string]any{"severity": "warning"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "WARN" {
		t.Fatalf("got %q, want WARN", out)
	}
}

func TestRenderForLoop(t *testing.T) {
	e := newEngine(t, "")
	tmpl := "{% for issue in issues %}[{{ issue }}]{% endfor %}"

	out, err := e.Render(context.Background(), tmpl, map[string]any{
		"issues": []any{"a", "b", "c"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "[a][b][c]" {
		t.Fatalf("got %q", out)
	}
}

func TestRenderAssign(t *testing.T) {
	e := newEngine(t, "")
	tmpl := "{% assign total = count * 2 %}{{ total }}"

	out, err := e.Render(context.Background(), tmpl, map[string]any{"count": 5.0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "10" {
		t.Fatalf("got %q, want 10", out)
	}
}

func TestRenderAssignDoesNotLeakToParentScope(t *testing.T) {
	e := newEngine(t, "")
	scope := map[string]any{"count": 5.0}
	if _, err := e.Render(context.Background(), "{% assign total = count * 2 %}{{ total }}", scope); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := scope["total"]; ok {
		t.Fatal("expected Render to leave the caller's scope map untouched")
	}
}

func TestRenderReadfileWithinRoot(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "notes.txt"), []byte("hello"), 0600); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	e := newEngine(t, root)

	out, err := e.Render(context.Background(), `{{ "notes.txt" | readfile }}`, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "hello" {
		t.Fatalf("got %q, want hello", out)
	}
}

func TestRenderReadfileRejectsTraversal(t *testing.T) {
	root := t.TempDir()
	e := newEngine(t, root)

	_, err := e.Render(context.Background(), `{{ "../../etc/passwd" | readfile }}`, nil)
	if err == nil {
		t.Fatal("expected an error for a path-traversal readfile")
	}
}

func TestParseUnterminatedIf(t *testing.T) {
	if _, err := Parse("{% if x %}no end"); err == nil {
		t.Fatal("expected an error for an unterminated if")
	}
}

func TestParseUnterminatedFor(t *testing.T) {
	if _, err := Parse("{% for x in y %}no end"); err == nil {
		t.Fatal("expected an error for an unterminated for")
	}
}

func TestParseUnknownTag(t *testing.T) {
	if _, err := Parse("{% bogus %}"); err == nil {
		t.Fatal("expected an error for an unknown tag")
	}
}
