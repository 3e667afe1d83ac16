package render

import (
	"fmt"
	"strings"

	"github.com/mhoffs/sprintdeps/internal/engine"
	"github.com/mhoffs/sprintdeps/internal/issue"
)

// Graph writes the ASCII wave layering: one row per wave, issues that can
// start together on the same row, arrows marking the declared blockers each
// issue waits on.
func (r *Renderer) Graph(report *engine.Report) error {
	layering := report.Layering
	if layering == nil {
		return fmt.Errorf("report carries no layering")
	}
	snap := report.Snapshot()

	fmt.Fprintf(r.w, "%s\n\n", r.styles.header.Render("Execution waves"))
	for i, wave := range layering.Waves {
		fmt.Fprintf(r.w, "%s\n", r.styles.header.Render(fmt.Sprintf("wave %d", i+1)))
		for _, id := range wave {
			fmt.Fprintf(r.w, "  %s%s\n", id, blockerSuffix(snap, id))
		}
		if i < len(layering.Waves)-1 {
			fmt.Fprintf(r.w, "  %s\n", r.styles.muted.Render("|"))
			fmt.Fprintf(r.w, "  %s\n", r.styles.muted.Render("v"))
		}
	}

	if len(layering.Unscheduled) > 0 {
		fmt.Fprintf(r.w, "\n%s\n", r.styles.critical.Render("unschedulable (cycle)"))
		for _, id := range layering.Unscheduled {
			fmt.Fprintf(r.w, "  %s%s\n", id, blockerSuffix(snap, id))
		}
	}
	return nil
}

func blockerSuffix(snap *issue.Snapshot, id string) string {
	iss := snap.Get(id)
	if iss == nil || len(iss.BlockedBy) == 0 {
		return ""
	}
	return fmt.Sprintf("  <- %s", strings.Join(issue.SortedKeys(iss.BlockedBy), ", "))
}
