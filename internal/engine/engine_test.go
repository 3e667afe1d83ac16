package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mhoffs/sprintdeps/internal/config"
	sderrors "github.com/mhoffs/sprintdeps/internal/errors"
	"github.com/mhoffs/sprintdeps/internal/graph"
)

func writeRecord(t *testing.T, root, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(root, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write record: %v", err)
	}
}

// conflictCorpus holds two records colliding on the same file section, plus
// one record pointing at a missing blocker.
func conflictCorpus(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeRecord(t, root, "BUG-1.md", "---\nid: BUG-1\ntype: bug\npriority: 1\n---\n# Fix parser crash\n\n## Files\n- `a.go#parse`\n")
	writeRecord(t, root, "BUG-2.md", "---\nid: BUG-2\ntype: bug\npriority: 2\n---\n# Parser emits wrong span\n\n## Files\n- `a.go#parse`\n")
	writeRecord(t, root, "BUG-5.md", "---\nid: BUG-5\ntype: bug\n---\n# Depends on missing work\n\n## Blocked By\n- BUG-6\n")
	return root
}

func TestAnalyzeEndToEnd(t *testing.T) {
	eng := New(config.Default(), conflictCorpus(t), nil)

	report, err := eng.Analyze(AnalyzeOptions{WithGraph: true, EmitEdges: true})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if report.Issues != 3 {
		t.Errorf("Issues = %d, want 3", report.Issues)
	}
	if !report.HasCritical() {
		t.Error("broken reference should make the report critical")
	}

	if len(report.Discovery.Proposals) != 1 {
		t.Fatalf("Proposals = %v, want exactly one", report.Discovery.Proposals)
	}
	p := report.Discovery.Proposals[0]
	if p.Blocker != "BUG-1" || p.Blocked != "BUG-2" || p.Rule != "priority" {
		t.Errorf("proposal = %+v, want BUG-1 -> BUG-2 via priority", p)
	}

	if report.Layering == nil || len(report.Layering.Waves) == 0 {
		t.Fatal("WithGraph should produce a layering")
	}
	if set, ok := report.EdgeSets["BUG-2"]; !ok || len(set.BlockedBy) != 1 || set.BlockedBy[0] != "BUG-1" {
		t.Errorf("EdgeSets = %v, want BUG-2 blocked by BUG-1", report.EdgeSets)
	}
}

func TestValidateSkipsDiscovery(t *testing.T) {
	eng := New(config.Default(), conflictCorpus(t), nil)

	report, err := eng.Validate("")
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if report.Discovery != nil {
		t.Error("Validate should not run discovery")
	}

	var broken int
	for _, f := range report.Findings {
		if f.Kind == graph.KindBrokenReference {
			broken++
		}
	}
	if broken != 1 {
		t.Errorf("broken-reference findings = %d, want 1", broken)
	}
}

func TestAnalyzeUnknownScopeAborts(t *testing.T) {
	eng := New(config.Default(), conflictCorpus(t), nil)

	_, err := eng.Analyze(AnalyzeOptions{Scope: "sprint-99"})
	if err == nil {
		t.Fatal("unknown scope should abort")
	}
	if !sderrors.IsConfig(err) {
		t.Errorf("expected ConfigError, got %T", err)
	}
}

func TestAnalyzeScopeRestrictsDiscoveryNotValidation(t *testing.T) {
	cfg := config.Default()
	cfg.Scopes = map[string][]string{"sprint": {"BUG-5"}}
	eng := New(cfg, conflictCorpus(t), nil)

	report, err := eng.Analyze(AnalyzeOptions{Scope: "sprint"})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if len(report.Discovery.Proposals) != 0 {
		t.Errorf("out-of-scope pair should not be proposed, got %v", report.Discovery.Proposals)
	}
	if !report.HasCritical() {
		t.Error("validation must still cover the full corpus")
	}
}

func TestAnalyzeUnreadableRoot(t *testing.T) {
	eng := New(config.Default(), filepath.Join(t.TempDir(), "missing"), nil)

	_, err := eng.Analyze(AnalyzeOptions{})
	if err == nil {
		t.Fatal("missing root should abort")
	}
	if !sderrors.Is(err, sderrors.ErrCorpusUnreadable) {
		t.Errorf("expected ErrCorpusUnreadable, got %v", err)
	}
}
