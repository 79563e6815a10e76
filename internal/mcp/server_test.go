package mcp

import (
	"context"
	"strings"
	"testing"

	"github.com/hargabyte/lens/internal/pipeline"
)

type mapReader struct {
	files map[string]string
}

func (r *mapReader) ReadFile(path string) (string, error) {
	return r.files[path], nil
}

func (r *mapReader) ReadRange(path string, start, end int) (string, error) {
	lines := strings.Split(r.files[path], "\n")
	if start >= len(lines) {
		return "", nil
	}
	if end > len(lines) {
		end = len(lines)
	}
	return strings.Join(lines[start:end], "\n"), nil
}

type fakeModel struct {
	answer string
	prompt string
}

func (m *fakeModel) Generate(_ context.Context, prompt string) (string, error) {
	m.prompt = prompt
	return m.answer, nil
}

func (m *fakeModel) ModelVersion() string { return "fake-model" }

func testReader() *mapReader {
	return &mapReader{files: map[string]string{
		"src/app.ts": "import { formatDate } from './utils';\n\nconst label = formatDate(new Date());\n",
	}}
}

func TestCallTool_Context(t *testing.T) {
	reader := testReader()
	pipe := pipeline.New(nil, reader, nil, nil, nil, pipeline.Options{})
	s := NewWithPipeline(pipe, reader, Config{})

	out, err := s.CallTool(context.Background(), "lens_context", map[string]interface{}{
		"file": "src/app.ts",
		"line": float64(3),
	})
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}

	if !strings.Contains(out, "document:") {
		t.Errorf("output missing document field:\n%s", out)
	}
	if !strings.Contains(out, "code_context") {
		t.Errorf("output missing context document:\n%s", out)
	}
	if !strings.Contains(out, "tokens:") || !strings.Contains(out, "trimmed:") {
		t.Errorf("output missing budget fields:\n%s", out)
	}
}

func TestCallTool_Explain(t *testing.T) {
	reader := testReader()
	model := &fakeModel{answer: "It formats the current date for display."}
	pipe := pipeline.New(nil, reader, nil, nil, model, pipeline.Options{})
	s := NewWithPipeline(pipe, reader, Config{})

	out, err := s.CallTool(context.Background(), "lens_explain", map[string]interface{}{
		"file":     "src/app.ts",
		"line":     float64(3),
		"question": "what does this label show?",
	})
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}

	if out != model.answer {
		t.Errorf("answer = %q, want %q", out, model.answer)
	}
	if !strings.Contains(model.prompt, "<instruction>\nwhat does this label show?\n</instruction>") {
		t.Errorf("prompt missing instruction:\n%s", model.prompt)
	}
	if !strings.Contains(model.prompt, "formatDate(new Date())") {
		t.Errorf("prompt missing selection:\n%s", model.prompt)
	}
}

func TestCallTool_ExplicitSelection(t *testing.T) {
	reader := testReader()
	pipe := pipeline.New(nil, reader, nil, nil, nil, pipeline.Options{})
	s := NewWithPipeline(pipe, reader, Config{})

	out, err := s.CallTool(context.Background(), "lens_context", map[string]interface{}{
		"file":      "src/app.ts",
		"line":      float64(1),
		"selection": "formatDate(new Date())",
	})
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	if !strings.Contains(out, "formatDate(new Date())") {
		t.Errorf("explicit selection not used:\n%s", out)
	}
}

func TestCallTool_UnknownTool(t *testing.T) {
	reader := testReader()
	pipe := pipeline.New(nil, reader, nil, nil, nil, pipeline.Options{})
	s := NewWithPipeline(pipe, reader, Config{})

	if _, err := s.CallTool(context.Background(), "lens_nope", map[string]interface{}{
		"file": "src/app.ts",
		"line": float64(1),
	}); err == nil {
		t.Error("expected error for unknown tool")
	}
}

func TestCallTool_ArgumentValidation(t *testing.T) {
	reader := testReader()
	pipe := pipeline.New(nil, reader, nil, nil, nil, pipeline.Options{})
	s := NewWithPipeline(pipe, reader, Config{})

	if _, err := s.CallTool(context.Background(), "lens_context", map[string]interface{}{
		"line": float64(1),
	}); err == nil {
		t.Error("expected error for missing file")
	}

	if _, err := s.CallTool(context.Background(), "lens_context", map[string]interface{}{
		"file": "src/app.ts",
	}); err == nil {
		t.Error("expected error for missing line")
	}

	if _, err := s.CallTool(context.Background(), "lens_context", map[string]interface{}{
		"file": "src/app.ts",
		"line": float64(0),
	}); err == nil {
		t.Error("expected error for 0-based line")
	}
}
