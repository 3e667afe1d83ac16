package graph

import (
	"errors"
	"reflect"
	"testing"

	"github.com/mhoffs/sprintdeps/internal/issue"
)

// depIssue assembles an active issue with declared edges.
func depIssue(t *testing.T, id string, blockedBy, blocks []string) *issue.Issue {
	t.Helper()
	iss := issue.NewIssue(id)
	iss.Type = issue.TypeBug
	iss.Status = issue.StatusActive
	for _, b := range blockedBy {
		iss.BlockedBy[b] = true
	}
	for _, b := range blocks {
		iss.Blocks[b] = true
	}
	return iss
}

func snapshotOf(issues ...*issue.Issue) *issue.Snapshot {
	snap := &issue.Snapshot{Issues: make(map[string]*issue.Issue)}
	for _, iss := range issues {
		snap.Issues[iss.ID] = iss
	}
	return snap
}

func findingsOfKind(findings []Finding, kind Kind) []Finding {
	var out []Finding
	for _, f := range findings {
		if f.Kind == kind {
			out = append(out, f)
		}
	}
	return out
}

func TestValidateCleanCorpus(t *testing.T) {
	snap := snapshotOf(
		depIssue(t, "BUG-001", nil, []string{"BUG-002"}),
		depIssue(t, "BUG-002", []string{"BUG-001"}, nil),
	)

	findings := NewValidator(nil).Validate(snap)
	if len(findings) != 0 {
		t.Errorf("clean corpus should validate without findings, got %v", findings)
	}
	if HasCritical(findings) {
		t.Error("HasCritical on empty findings")
	}
}

func TestValidateBrokenReference(t *testing.T) {
	snap := snapshotOf(depIssue(t, "BUG-5", []string{"BUG-6"}, nil))

	findings := NewValidator(nil).Validate(snap)
	broken := findingsOfKind(findings, KindBrokenReference)
	if len(broken) != 1 {
		t.Fatalf("broken-reference findings = %v, want exactly one", broken)
	}
	f := broken[0]
	if f.Severity != SeverityCritical || f.Issue != "BUG-5" || f.Related[0] != "BUG-6" {
		t.Errorf("finding = %+v, want CRITICAL BUG-5 -> BUG-6", f)
	}
	if !HasCritical(findings) {
		t.Error("broken reference should gate the run")
	}
}

func TestValidateMissingBacklink(t *testing.T) {
	snap := snapshotOf(
		depIssue(t, "A-001", []string{"B-002"}, nil),
		depIssue(t, "B-002", nil, nil),
	)

	findings := NewValidator(nil).Validate(snap)
	if len(findings) != 1 {
		t.Fatalf("findings = %v, want exactly one", findings)
	}
	f := findings[0]
	if f.Kind != KindMissingBacklink || f.Issue != "A-001" || f.Related[0] != "B-002" {
		t.Errorf("finding = %+v, want MISSING_BACKLINK (A-001, B-002)", f)
	}
	if f.Severity != SeverityWarning || !f.AutoFixable {
		t.Errorf("missing backlink should be an auto-fixable warning, got %+v", f)
	}
}

func TestValidateMirrorBacklink(t *testing.T) {
	snap := snapshotOf(
		depIssue(t, "A-001", nil, []string{"B-002"}),
		depIssue(t, "B-002", nil, nil),
	)

	findings := NewValidator(nil).Validate(snap)
	backlinks := findingsOfKind(findings, KindMissingBacklink)
	if len(backlinks) != 1 || backlinks[0].Issue != "B-002" {
		t.Errorf("blocks without blocked_by should flag the blocked side, got %v", backlinks)
	}
}

func TestValidateCycleReportedOnce(t *testing.T) {
	// Three-node loop with mirrored backlinks so only the cycle surfaces.
	snap := snapshotOf(
		depIssue(t, "C-A", []string{"C-C"}, []string{"C-B"}),
		depIssue(t, "C-B", []string{"C-A"}, []string{"C-C"}),
		depIssue(t, "C-C", []string{"C-B"}, []string{"C-A"}),
	)

	findings := NewValidator(nil).Validate(snap)
	cycles := findingsOfKind(findings, KindCycle)
	if len(cycles) != 1 {
		t.Fatalf("cycle findings = %v, want exactly one", cycles)
	}

	f := cycles[0]
	if f.Severity != SeverityCritical {
		t.Errorf("cycle severity = %s, want CRITICAL", f.Severity)
	}
	members := map[string]bool{}
	for _, id := range f.Related {
		members[id] = true
	}
	if len(members) != 3 || !members["C-A"] || !members["C-B"] || !members["C-C"] {
		t.Errorf("cycle members = %v, want {C-A, C-B, C-C}", f.Related)
	}
	if f.Related[0] != "C-A" {
		t.Errorf("cycle should be rotated to its smallest id, got %v", f.Related)
	}
}

func TestValidateSelfReference(t *testing.T) {
	snap := snapshotOf(depIssue(t, "BUG-001", []string{"BUG-001"}, nil))

	findings := NewValidator(nil).Validate(snap)
	selfs := findingsOfKind(findings, KindSelfReference)
	if len(selfs) != 1 || selfs[0].Severity != SeverityCritical {
		t.Errorf("self reference should be one CRITICAL finding, got %v", findings)
	}
	if len(findingsOfKind(findings, KindCycle)) != 0 {
		t.Errorf("self reference should not double-report as a cycle, got %v", findings)
	}
}

func TestValidateStaleReference(t *testing.T) {
	done := depIssue(t, "BUG-001", nil, []string{"BUG-002"})
	done.Status = issue.StatusCompleted
	snap := snapshotOf(done, depIssue(t, "BUG-002", []string{"BUG-001"}, nil))

	findings := NewValidator(nil).Validate(snap)
	stale := findingsOfKind(findings, KindStaleReference)
	if len(stale) != 1 {
		t.Fatalf("stale findings = %v, want exactly one", stale)
	}
	if stale[0].Severity != SeverityInfo || stale[0].Issue != "BUG-002" {
		t.Errorf("stale finding = %+v, want INFO for BUG-002", stale[0])
	}
	if HasCritical(findings) {
		t.Error("stale reference alone should not gate the run")
	}
}

func TestValidateRedundantEdge(t *testing.T) {
	// A -> B -> C declared, plus a direct A -> C.
	snap := snapshotOf(
		depIssue(t, "R-A", nil, []string{"R-B", "R-C"}),
		depIssue(t, "R-B", []string{"R-A"}, []string{"R-C"}),
		depIssue(t, "R-C", []string{"R-A", "R-B"}, nil),
	)

	findings := NewValidator(nil).Validate(snap)
	redundant := findingsOfKind(findings, KindRedundantEdge)
	if len(redundant) != 1 {
		t.Fatalf("redundant findings = %v, want exactly one", redundant)
	}
	f := redundant[0]
	if f.Issue != "R-C" || f.Related[0] != "R-A" || f.Severity != SeverityInfo {
		t.Errorf("finding = %+v, want INFO R-A -> R-C", f)
	}
}

func TestValidateSurfacesParseFailures(t *testing.T) {
	snap := snapshotOf(depIssue(t, "BUG-001", nil, nil))
	snap.Failures = []issue.ParseFailure{{Path: "bad.md", Err: errors.New("missing frontmatter")}}

	findings := NewValidator(nil).Validate(snap)
	parse := findingsOfKind(findings, KindParseError)
	if len(parse) != 1 || parse[0].Severity != SeverityWarning {
		t.Errorf("parse failure should surface as a WARNING finding, got %v", findings)
	}
}

func TestLayersChain(t *testing.T) {
	snap := snapshotOf(
		depIssue(t, "W-A", nil, []string{"W-B"}),
		depIssue(t, "W-B", []string{"W-A"}, []string{"W-C"}),
		depIssue(t, "W-C", []string{"W-B"}, nil),
		depIssue(t, "W-D", nil, nil),
	)

	layering := Layers(snap, nil)
	want := [][]string{{"W-A", "W-D"}, {"W-B"}, {"W-C"}}
	if !reflect.DeepEqual(layering.Waves, want) {
		t.Errorf("Waves = %v, want %v", layering.Waves, want)
	}
	if len(layering.Unscheduled) != 0 {
		t.Errorf("Unscheduled = %v, want empty", layering.Unscheduled)
	}
}

func TestLayersCompletedBlockerResolved(t *testing.T) {
	done := depIssue(t, "W-A", nil, []string{"W-B"})
	done.Status = issue.StatusCompleted
	snap := snapshotOf(done, depIssue(t, "W-B", []string{"W-A"}, nil))

	layering := Layers(snap, nil)
	if !reflect.DeepEqual(layering.Waves, [][]string{{"W-B"}}) {
		t.Errorf("Waves = %v, want [[W-B]]", layering.Waves)
	}
}

func TestLayersScopeFilter(t *testing.T) {
	snap := snapshotOf(
		depIssue(t, "W-A", nil, []string{"W-B"}),
		depIssue(t, "W-B", []string{"W-A"}, nil),
	)

	layering := Layers(snap, map[string]bool{"W-B": true})
	if !reflect.DeepEqual(layering.Waves, [][]string{{"W-B"}}) {
		t.Errorf("out-of-scope blocker should count as resolved, got %v", layering.Waves)
	}
}

func TestLayersCycleUnscheduled(t *testing.T) {
	snap := snapshotOf(
		depIssue(t, "C-A", []string{"C-B"}, nil),
		depIssue(t, "C-B", []string{"C-A"}, nil),
		depIssue(t, "W-C", nil, nil),
	)

	layering := Layers(snap, nil)
	if !reflect.DeepEqual(layering.Waves, [][]string{{"W-C"}}) {
		t.Errorf("Waves = %v, want [[W-C]]", layering.Waves)
	}
	if !reflect.DeepEqual(layering.Unscheduled, []string{"C-A", "C-B"}) {
		t.Errorf("Unscheduled = %v, want [C-A C-B]", layering.Unscheduled)
	}
}
