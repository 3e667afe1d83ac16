package graph

import (
	"sort"

	"github.com/mhoffs/sprintdeps/internal/issue"
)

// Layering is the wave schedule: each wave holds issues whose in-scope
// blockers are all resolved by earlier waves. Issues that can never be
// scheduled (cycle members and their dependents) land in Unscheduled.
type Layering struct {
	Waves       [][]string `json:"waves" yaml:"waves"`
	Unscheduled []string   `json:"unscheduled,omitempty" yaml:"unscheduled,omitempty"`
}

// Layers computes Kahn-style waves over the active, in-scope issues.
// A blocker that is completed, out of scope, or absent from the corpus
// counts as resolved. Ties inside a wave break by id order so the schedule
// is reproducible.
func Layers(snap *issue.Snapshot, scope map[string]bool) Layering {
	inLayer := func(iss *issue.Issue) bool {
		if iss == nil || !iss.Active() {
			return false
		}
		return scope == nil || scope[iss.ID]
	}

	// Unresolved in-degree per scheduled issue.
	pending := make(map[string]int)
	dependents := make(map[string][]string) // blocker id -> blocked ids
	for _, id := range snap.IDs() {
		iss := snap.Get(id)
		if !inLayer(iss) {
			continue
		}
		pending[id] = 0
		for blockerID := range iss.BlockedBy {
			if blockerID == id || !inLayer(snap.Get(blockerID)) {
				continue
			}
			pending[id]++
			dependents[blockerID] = append(dependents[blockerID], id)
		}
	}

	var layering Layering
	scheduled := make(map[string]bool, len(pending))
	for len(scheduled) < len(pending) {
		var wave []string
		for id, degree := range pending {
			if degree == 0 && !scheduled[id] {
				wave = append(wave, id)
			}
		}
		if len(wave) == 0 {
			break // remaining issues sit on a cycle
		}
		sort.Strings(wave)
		layering.Waves = append(layering.Waves, wave)
		for _, id := range wave {
			scheduled[id] = true
			for _, blocked := range dependents[id] {
				pending[blocked]--
			}
		}
	}

	for id := range pending {
		if !scheduled[id] {
			layering.Unscheduled = append(layering.Unscheduled, id)
		}
	}
	sort.Strings(layering.Unscheduled)

	return layering
}
