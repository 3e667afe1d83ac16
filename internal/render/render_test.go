package render

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mhoffs/sprintdeps/internal/config"
	"github.com/mhoffs/sprintdeps/internal/engine"
)

// reportFixture runs the real pipeline over a small corpus so renderers see
// representative findings, proposals, and layering.
func reportFixture(t *testing.T) *engine.Report {
	t.Helper()
	root := t.TempDir()
	records := map[string]string{
		"BUG-1.md": "---\nid: BUG-1\ntype: bug\npriority: 1\n---\n# Fix parser crash\n\n## Files\n- `a.go#parse`\n",
		"BUG-2.md": "---\nid: BUG-2\ntype: bug\npriority: 2\n---\n# Parser emits wrong span\n\n## Files\n- `a.go#parse`\n",
		"BUG-5.md": "---\nid: BUG-5\ntype: bug\n---\n# Waiting on missing work\n\n## Blocked By\n- BUG-6\n",
	}
	for name, content := range records {
		if err := os.WriteFile(filepath.Join(root, name), []byte(content), 0o644); err != nil {
			t.Fatalf("write record: %v", err)
		}
	}

	report, err := engine.New(config.Default(), root, nil).Analyze(engine.AnalyzeOptions{
		WithGraph: true,
		EmitEdges: true,
	})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	return report
}

func TestParseFormat(t *testing.T) {
	for _, raw := range []string{"text", "Graph", " structured "} {
		if _, err := ParseFormat(raw); err != nil {
			t.Errorf("ParseFormat(%q): %v", raw, err)
		}
	}
	if _, err := ParseFormat("csv"); err == nil {
		t.Error("ParseFormat should reject unknown selectors")
	}
}

func TestTextOutput(t *testing.T) {
	var buf bytes.Buffer
	if err := New(&buf).Text(reportFixture(t)); err != nil {
		t.Fatalf("Text: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"Corpus: 3 issues",
		"BROKEN_REFERENCE",
		"BUG-1 -> BUG-2",
		"rule=priority",
		"Target edge sets",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("text output missing %q:\n%s", want, out)
		}
	}
}

func TestGraphOutput(t *testing.T) {
	var buf bytes.Buffer
	if err := New(&buf).Graph(reportFixture(t)); err != nil {
		t.Fatalf("Graph: %v", err)
	}
	out := buf.String()

	if !strings.Contains(out, "wave 1") {
		t.Errorf("graph output missing wave header:\n%s", out)
	}
	if !strings.Contains(out, "BUG-5  <- BUG-6") {
		t.Errorf("graph output should annotate blockers:\n%s", out)
	}
}

func TestGraphWithoutLayering(t *testing.T) {
	report := reportFixture(t)
	report.Layering = nil

	if err := New(&bytes.Buffer{}).Graph(report); err == nil {
		t.Error("Graph without layering should error")
	}
}

func TestStructuredJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := New(&buf).Structured(reportFixture(t), false); err != nil {
		t.Fatalf("Structured: %v", err)
	}

	var decoded struct {
		Issues   int `json:"issues"`
		Findings []struct {
			Kind     string `json:"kind"`
			Severity string `json:"severity"`
		} `json:"findings"`
		Discovery struct {
			Proposals []struct {
				Blocker string `json:"blocker"`
				Blocked string `json:"blocked"`
			} `json:"proposals"`
		} `json:"discovery"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, buf.String())
	}
	if decoded.Issues != 3 {
		t.Errorf("issues = %d, want 3", decoded.Issues)
	}
	if len(decoded.Discovery.Proposals) != 1 || decoded.Discovery.Proposals[0].Blocker != "BUG-1" {
		t.Errorf("proposals = %+v, want BUG-1 blocking", decoded.Discovery.Proposals)
	}
}

func TestStructuredYAML(t *testing.T) {
	var buf bytes.Buffer
	if err := New(&buf).Structured(reportFixture(t), true); err != nil {
		t.Fatalf("Structured yaml: %v", err)
	}
	if !strings.Contains(buf.String(), "issues: 3") {
		t.Errorf("yaml output missing issue count:\n%s", buf.String())
	}
}

func TestRenderDispatch(t *testing.T) {
	report := reportFixture(t)
	for _, format := range []Format{FormatText, FormatGraph, FormatStructured} {
		var buf bytes.Buffer
		if err := New(&buf).Render(report, format, false); err != nil {
			t.Errorf("Render(%s): %v", format, err)
		}
		if buf.Len() == 0 {
			t.Errorf("Render(%s) produced no output", format)
		}
	}
}
