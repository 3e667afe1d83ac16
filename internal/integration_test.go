// Package internal holds integration tests that drive the full pipeline the
// way the CLI does: load a corpus from disk, discover proposals, validate
// the graph, and render every output format.
package internal

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mhoffs/sprintdeps/internal/analysis"
	"github.com/mhoffs/sprintdeps/internal/config"
	"github.com/mhoffs/sprintdeps/internal/engine"
	"github.com/mhoffs/sprintdeps/internal/graph"
	"github.com/mhoffs/sprintdeps/internal/render"
)

// sprintCorpus writes a small but representative corpus: an overlap pair,
// a declared chain with missing backlinks, and a completed blocker.
func sprintCorpus(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	records := map[string]string{
		"bugs/BUG-001.md": "---\nid: BUG-001\ntype: bug\npriority: 1\n---\n" +
			"# Parser drops trailing token\n\n## Files\n- `internal/parser/parse.go#scan`\n",
		"bugs/BUG-002.md": "---\nid: BUG-002\ntype: bug\npriority: 2\n---\n" +
			"# Parser misreports column\n\n## Files\n- `internal/parser/parse.go#scan`\n",
		"enh/ENH-003.md": "---\nid: ENH-003\ntype: enhancement\npriority: 2\n---\n" +
			"# Render header badges\n\n## Files\n- `internal/render/table.go#header`\n",
		"enh/ENH-004.md": "---\nid: ENH-004\ntype: enhancement\npriority: 2\n---\n" +
			"# Render footer totals\n\n## Files\n- `internal/render/table.go#footer`\n\n## Blocked By\n- ENH-003\n",
		"done/ENH-000.md": "---\nid: ENH-000\ntype: enhancement\nstatus: completed\n---\n" +
			"# Table layout groundwork\n\n## Blocks\n- ENH-003\n",
	}
	for name, content := range records {
		path := filepath.Join(root, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	return root
}

func TestPipelineEndToEnd(t *testing.T) {
	eng := engine.New(config.Default(), sprintCorpus(t), nil)

	report, err := eng.Analyze(engine.AnalyzeOptions{WithGraph: true, EmitEdges: true})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if report.Issues != 5 {
		t.Errorf("Issues = %d, want 5", report.Issues)
	}

	// The parser pair collides on one section; the render pair does not.
	if len(report.Discovery.Proposals) != 1 {
		t.Fatalf("Proposals = %+v, want exactly one", report.Discovery.Proposals)
	}
	p := report.Discovery.Proposals[0]
	if p.Blocker != "BUG-001" || p.Blocked != "BUG-002" || p.Classification != analysis.ClassHigh {
		t.Errorf("proposal = %+v, want HIGH BUG-001 -> BUG-002", p)
	}

	// ENH-004 declares ENH-003 as blocker without a backlink; ENH-000 blocks
	// ENH-003 without the mirror entry either.
	backlinks := 0
	for _, f := range report.Findings {
		if f.Kind == graph.KindMissingBacklink {
			backlinks++
		}
	}
	if backlinks != 2 {
		t.Errorf("missing-backlink findings = %d, want 2\n%+v", backlinks, report.Findings)
	}
	if report.HasCritical() {
		t.Errorf("corpus has no critical problems, findings: %+v", report.Findings)
	}

	// ENH-003 must schedule before ENH-004; the completed ENH-000 never
	// appears in a wave.
	waveOf := map[string]int{}
	for i, wave := range report.Layering.Waves {
		for _, id := range wave {
			waveOf[id] = i
		}
	}
	if _, scheduled := waveOf["ENH-000"]; scheduled {
		t.Error("completed issue should not be scheduled")
	}
	if waveOf["ENH-003"] >= waveOf["ENH-004"] {
		t.Errorf("ENH-003 (wave %d) must precede ENH-004 (wave %d)", waveOf["ENH-003"], waveOf["ENH-004"])
	}

	// Accepted proposals land in the handoff sets.
	if set, ok := report.EdgeSets["BUG-002"]; !ok || len(set.BlockedBy) != 1 || set.BlockedBy[0] != "BUG-001" {
		t.Errorf("EdgeSets = %+v, want BUG-002 blocked by BUG-001", report.EdgeSets)
	}
}

func TestPipelineRendersEveryFormat(t *testing.T) {
	eng := engine.New(config.Default(), sprintCorpus(t), nil)
	report, err := eng.Analyze(engine.AnalyzeOptions{WithGraph: true})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	var text bytes.Buffer
	if err := render.New(&text).Render(report, render.FormatText, false); err != nil {
		t.Fatalf("text render: %v", err)
	}
	if !strings.Contains(text.String(), "BUG-001 -> BUG-002") {
		t.Errorf("text output missing proposal:\n%s", text.String())
	}

	var asciiGraph bytes.Buffer
	if err := render.New(&asciiGraph).Render(report, render.FormatGraph, false); err != nil {
		t.Fatalf("graph render: %v", err)
	}
	if !strings.Contains(asciiGraph.String(), "wave 1") {
		t.Errorf("graph output missing waves:\n%s", asciiGraph.String())
	}

	var structured bytes.Buffer
	if err := render.New(&structured).Render(report, render.FormatStructured, false); err != nil {
		t.Fatalf("structured render: %v", err)
	}
	if !json.Valid(structured.Bytes()) {
		t.Errorf("structured output is not valid JSON:\n%s", structured.String())
	}
}

func TestPipelineScopeNarrowsProposals(t *testing.T) {
	cfg := config.Default()
	cfg.Scopes = map[string][]string{"render-work": {"ENH-003", "ENH-004"}}
	eng := engine.New(cfg, sprintCorpus(t), nil)

	report, err := eng.Analyze(engine.AnalyzeOptions{Scope: "render-work"})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	// The parser pair is out of scope; the render pair stays below the
	// dependency threshold, and its declared edge suppresses proposals anyway.
	if len(report.Discovery.Proposals) != 0 {
		t.Errorf("Proposals = %+v, want none in scope", report.Discovery.Proposals)
	}
}
