package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mhoffs/sprintdeps/internal/issue"
	"github.com/mhoffs/sprintdeps/internal/logging"
)

// Severity ranks a finding. CRITICAL findings gate the exit status.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityWarning  Severity = "WARNING"
	SeverityInfo     Severity = "INFO"
)

// Kind identifies the class of consistency violation.
type Kind string

const (
	KindBrokenReference Kind = "BROKEN_REFERENCE"
	KindMissingBacklink Kind = "MISSING_BACKLINK"
	KindCycle           Kind = "CYCLE"
	KindStaleReference  Kind = "STALE_REFERENCE"
	KindSelfReference   Kind = "SELF_REFERENCE"
	KindRedundantEdge   Kind = "REDUNDANT_EDGE"
	KindParseError      Kind = "PARSE_ERROR"
)

// Finding is one consistency violation. Validation reports; it never fixes.
type Finding struct {
	Kind        Kind     `json:"kind" yaml:"kind"`
	Severity    Severity `json:"severity" yaml:"severity"`
	Issue       string   `json:"issue" yaml:"issue"`
	Related     []string `json:"related,omitempty" yaml:"related,omitempty"`
	Message     string   `json:"message" yaml:"message"`
	AutoFixable bool     `json:"auto_fixable" yaml:"auto_fixable"`
}

// Validator runs the structural checks over the full corpus, independent of
// any analysis scope: backlink and staleness checks must see out-of-scope
// and completed issues.
type Validator struct {
	log *logging.Logger
}

// NewValidator creates a validator.
func NewValidator(log *logging.Logger) *Validator {
	if log == nil {
		log = logging.NopLogger()
	}
	return &Validator{log: log.WithPhase("validate")}
}

// Validate runs every check and returns findings in a deterministic order:
// by issue id, then kind. Parse failures recorded at load time surface here
// as PARSE_ERROR findings so one report covers the whole run.
func (v *Validator) Validate(snap *issue.Snapshot) []Finding {
	g := Build(snap)

	cycleFindings := v.checkCycles(g)
	inCycle := make(map[string]bool)
	for _, f := range cycleFindings {
		for _, id := range f.Related {
			inCycle[id] = true
		}
	}

	var findings []Finding
	findings = append(findings, v.checkParseFailures(snap)...)
	findings = append(findings, v.checkReferences(snap)...)
	findings = append(findings, v.checkBacklinks(snap)...)
	findings = append(findings, cycleFindings...)
	findings = append(findings, v.checkRedundantEdges(g, inCycle)...)

	sort.SliceStable(findings, func(i, j int) bool {
		if findings[i].Issue != findings[j].Issue {
			return findings[i].Issue < findings[j].Issue
		}
		return findings[i].Kind < findings[j].Kind
	})

	v.log.Info("validation complete", "findings", len(findings))
	return findings
}

// HasCritical reports whether any finding is CRITICAL.
func HasCritical(findings []Finding) bool {
	for _, f := range findings {
		if f.Severity == SeverityCritical {
			return true
		}
	}
	return false
}

func (v *Validator) checkParseFailures(snap *issue.Snapshot) []Finding {
	var findings []Finding
	for _, fail := range snap.Failures {
		findings = append(findings, Finding{
			Kind:     KindParseError,
			Severity: SeverityWarning,
			Issue:    fail.ID,
			Message:  fmt.Sprintf("record %s skipped: %v", fail.Path, fail.Err),
		})
	}
	return findings
}

// checkReferences covers broken targets, self-references, and stale links
// in one pass over both declared edge sets.
func (v *Validator) checkReferences(snap *issue.Snapshot) []Finding {
	var findings []Finding
	for _, id := range snap.IDs() {
		iss := snap.Get(id)
		for _, set := range []map[string]bool{iss.BlockedBy, iss.Blocks} {
			for _, target := range issue.SortedKeys(set) {
				if target == id {
					findings = append(findings, Finding{
						Kind:     KindSelfReference,
						Severity: SeverityCritical,
						Issue:    id,
						Message:  fmt.Sprintf("%s declares a dependency on itself", id),
					})
					continue
				}
				if snap.Get(target) == nil {
					findings = append(findings, Finding{
						Kind:     KindBrokenReference,
						Severity: SeverityCritical,
						Issue:    id,
						Related:  []string{target},
						Message:  fmt.Sprintf("%s references %s, which does not exist", id, target),
					})
				}
			}
		}

		// Stale links only apply to active issues waiting on finished work.
		if !iss.Active() {
			continue
		}
		for _, blockerID := range issue.SortedKeys(iss.BlockedBy) {
			blocker := snap.Get(blockerID)
			if blocker != nil && !blocker.Active() {
				findings = append(findings, Finding{
					Kind:     KindStaleReference,
					Severity: SeverityInfo,
					Issue:    id,
					Related:  []string{blockerID},
					Message:  fmt.Sprintf("%s is blocked by completed issue %s; consider removing the link", id, blockerID),
				})
			}
		}
	}
	return findings
}

// checkBacklinks verifies both mirror directions: a blocked_by entry needs
// the blocker's blocks to list the declarer, and vice versa.
func (v *Validator) checkBacklinks(snap *issue.Snapshot) []Finding {
	var findings []Finding
	for _, id := range snap.IDs() {
		iss := snap.Get(id)
		for _, blockerID := range issue.SortedKeys(iss.BlockedBy) {
			blocker := snap.Get(blockerID)
			if blocker == nil || blockerID == id {
				continue
			}
			if !blocker.Blocks[id] {
				findings = append(findings, Finding{
					Kind:        KindMissingBacklink,
					Severity:    SeverityWarning,
					Issue:       id,
					Related:     []string{blockerID},
					Message:     fmt.Sprintf("%s is blocked by %s, but %s does not list %s in Blocks", id, blockerID, blockerID, id),
					AutoFixable: true,
				})
			}
		}
		for _, blockedID := range issue.SortedKeys(iss.Blocks) {
			blocked := snap.Get(blockedID)
			if blocked == nil || blockedID == id {
				continue
			}
			if !blocked.BlockedBy[id] {
				findings = append(findings, Finding{
					Kind:        KindMissingBacklink,
					Severity:    SeverityWarning,
					Issue:       blockedID,
					Related:     []string{id},
					Message:     fmt.Sprintf("%s blocks %s, but %s does not list %s in Blocked By", id, blockedID, blockedID, id),
					AutoFixable: true,
				})
			}
		}
	}
	return findings
}

// checkCycles runs a DFS with an on-stack marker over every component and
// reconstructs each cycle through the parent chain. Cycles are normalized
// by rotating to their smallest id, so the same loop is reported exactly
// once no matter where traversal entered it.
func (v *Validator) checkCycles(g *Graph) []Finding {
	visited := make([]bool, g.Len())
	onStack := make([]bool, g.Len())
	parent := make([]int, g.Len())
	for i := range parent {
		parent[i] = -1
	}

	seen := make(map[string]bool)
	var findings []Finding

	var dfs func(node int)
	dfs = func(node int) {
		visited[node] = true
		onStack[node] = true
		for _, next := range g.Blocked(node) {
			if !visited[next] {
				parent[next] = node
				dfs(next)
				continue
			}
			if !onStack[next] {
				continue
			}
			// Back edge: walk parents from node back to next.
			cycle := []int{node}
			for cur := node; cur != next; {
				cur = parent[cur]
				cycle = append(cycle, cur)
			}
			// Reverse into traversal order, rotate to smallest id.
			for l, r := 0, len(cycle)-1; l < r; l, r = l+1, r-1 {
				cycle[l], cycle[r] = cycle[r], cycle[l]
			}
			ids := normalizeCycle(g, cycle)
			key := strings.Join(ids, ">")
			if seen[key] {
				continue
			}
			seen[key] = true
			findings = append(findings, Finding{
				Kind:     KindCycle,
				Severity: SeverityCritical,
				Issue:    ids[0],
				Related:  ids,
				Message:  fmt.Sprintf("dependency cycle: %s", strings.Join(append(ids, ids[0]), " -> ")),
			})
		}
		onStack[node] = false
	}

	for i := 0; i < g.Len(); i++ {
		if !visited[i] {
			dfs(i)
		}
	}
	return findings
}

// normalizeCycle rotates a cycle so it starts at its smallest id.
func normalizeCycle(g *Graph, cycle []int) []string {
	start := 0
	for i := range cycle {
		if g.ids[cycle[i]] < g.ids[cycle[start]] {
			start = i
		}
	}
	ids := make([]string, 0, len(cycle))
	for i := range cycle {
		ids = append(ids, g.ids[cycle[(start+i)%len(cycle)]])
	}
	return ids
}

// checkRedundantEdges reports declared edges already implied by a longer
// declared path, the suggest-only analogue of transitive reduction. Edges
// touching a cycle are skipped; inside a loop every edge looks implied, and
// the cycle finding already covers the real problem.
func (v *Validator) checkRedundantEdges(g *Graph, inCycle map[string]bool) []Finding {
	var findings []Finding
	for from := 0; from < g.Len(); from++ {
		if inCycle[g.ids[from]] {
			continue
		}
		for _, to := range g.Blocked(from) {
			if inCycle[g.ids[to]] {
				continue
			}
			if g.reachable(from, to, from, to) {
				findings = append(findings, Finding{
					Kind:     KindRedundantEdge,
					Severity: SeverityInfo,
					Issue:    g.ids[to],
					Related:  []string{g.ids[from]},
					Message:  fmt.Sprintf("%s -> %s is implied by a longer dependency path", g.ids[from], g.ids[to]),
				})
			}
		}
	}
	return findings
}
