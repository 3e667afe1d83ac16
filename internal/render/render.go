// Package render turns a report into tabular, graph, or structured output.
// Rendering is read-only; nothing here touches the snapshot.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/mhoffs/sprintdeps/internal/analysis"
	"github.com/mhoffs/sprintdeps/internal/engine"
	sderrors "github.com/mhoffs/sprintdeps/internal/errors"
	"github.com/mhoffs/sprintdeps/internal/graph"
)

// Format selects an output renderer.
type Format string

const (
	FormatText       Format = "text"
	FormatGraph      Format = "graph"
	FormatStructured Format = "structured"
)

// ValidFormats returns the accepted --format values.
func ValidFormats() []string {
	return []string{string(FormatText), string(FormatGraph), string(FormatStructured)}
}

// ParseFormat validates a format selector.
func ParseFormat(raw string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(raw)))
	switch f {
	case FormatText, FormatGraph, FormatStructured:
		return f, nil
	}
	return "", sderrors.Wrapf(sderrors.ErrInvalidFormat, "%q (valid: %s)", raw, strings.Join(ValidFormats(), ", "))
}

// Renderer writes reports to one output. Styling degrades to plain text when
// the writer is not a terminal, so piped output stays clean.
type Renderer struct {
	w      io.Writer
	styles styleSet
}

type styleSet struct {
	header   lipgloss.Style
	critical lipgloss.Style
	warning  lipgloss.Style
	info     lipgloss.Style
	high     lipgloss.Style
	medium   lipgloss.Style
	muted    lipgloss.Style
}

// New creates a renderer for the given writer.
func New(w io.Writer) *Renderer {
	lr := lipgloss.NewRenderer(w)
	return &Renderer{
		w: w,
		styles: styleSet{
			header:   lr.NewStyle().Bold(true),
			critical: lr.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
			warning:  lr.NewStyle().Foreground(lipgloss.Color("11")),
			info:     lr.NewStyle().Foreground(lipgloss.Color("12")),
			high:     lr.NewStyle().Foreground(lipgloss.Color("9")),
			medium:   lr.NewStyle().Foreground(lipgloss.Color("11")),
			muted:    lr.NewStyle().Faint(true),
		},
	}
}

// Render writes the report in the selected format.
func (r *Renderer) Render(report *engine.Report, format Format, yamlOut bool) error {
	switch format {
	case FormatGraph:
		return r.Graph(report)
	case FormatStructured:
		return r.Structured(report, yamlOut)
	default:
		return r.Text(report)
	}
}

// Text writes the flat tabular summary: findings first, then proposals and
// parallel-safe pairs when discovery ran.
func (r *Renderer) Text(report *engine.Report) error {
	fmt.Fprintf(r.w, "%s\n", r.styles.header.Render(fmt.Sprintf("Corpus: %d issues", report.Issues)))
	if report.Scope != "" {
		fmt.Fprintf(r.w, "Scope: %s\n", report.Scope)
	}
	fmt.Fprintln(r.w)

	r.renderFindings(report.Findings)
	if report.Discovery != nil {
		r.renderDiscovery(report.Discovery)
	}
	if report.EdgeSets != nil {
		r.renderEdgeSets(report)
	}
	return nil
}

func (r *Renderer) renderFindings(findings []graph.Finding) {
	fmt.Fprintf(r.w, "%s\n", r.styles.header.Render(fmt.Sprintf("Findings (%d)", len(findings))))
	if len(findings) == 0 {
		fmt.Fprintf(r.w, "  %s\n\n", r.styles.muted.Render("none"))
		return
	}
	for _, f := range findings {
		badge := r.severityStyle(f.Severity).Render(string(f.Severity))
		fix := ""
		if f.AutoFixable {
			fix = r.styles.muted.Render(" [auto-fixable]")
		}
		fmt.Fprintf(r.w, "  %-24s %-18s %s%s\n", badge, f.Kind, f.Message, fix)
	}
	fmt.Fprintln(r.w)
}

func (r *Renderer) renderDiscovery(res *analysis.Result) {
	fmt.Fprintf(r.w, "%s\n", r.styles.header.Render(fmt.Sprintf("Dependency proposals (%d)", len(res.Proposals))))
	if len(res.Proposals) == 0 {
		fmt.Fprintf(r.w, "  %s\n", r.styles.muted.Render("none"))
	}
	for _, p := range res.Proposals {
		badge := r.classStyle(p.Classification).Render(string(p.Classification))
		fmt.Fprintf(r.w, "  %-18s %s -> %s  score=%.2f  rule=%s (%.2f)  files=%s\n",
			badge, p.Blocker, p.Blocked, p.Score, p.Rule, p.Confidence,
			strings.Join(p.SharedFiles, ","))
	}
	fmt.Fprintln(r.w)

	fmt.Fprintf(r.w, "%s\n", r.styles.header.Render(fmt.Sprintf("Parallel-safe pairs (%d)", len(res.ParallelSafe))))
	if len(res.ParallelSafe) == 0 {
		fmt.Fprintf(r.w, "  %s\n", r.styles.muted.Render("none"))
	}
	for _, ps := range res.ParallelSafe {
		fmt.Fprintf(r.w, "  %s | %s  score=%.2f  files=%s\n",
			ps.IssueA, ps.IssueB, ps.Score, strings.Join(ps.SharedFiles, ","))
	}
	fmt.Fprintln(r.w)
}

func (r *Renderer) renderEdgeSets(report *engine.Report) {
	fmt.Fprintf(r.w, "%s\n", r.styles.header.Render(fmt.Sprintf("Target edge sets (%d)", len(report.EdgeSets))))
	snap := report.Snapshot()
	for _, id := range snap.IDs() {
		set, ok := report.EdgeSets[id]
		if !ok {
			continue
		}
		fmt.Fprintf(r.w, "  %s\n    blocked_by: %s\n    blocks: %s\n",
			id, strings.Join(set.BlockedBy, ", "), strings.Join(set.Blocks, ", "))
	}
	fmt.Fprintln(r.w)
}

func (r *Renderer) severityStyle(sev graph.Severity) lipgloss.Style {
	switch sev {
	case graph.SeverityCritical:
		return r.styles.critical
	case graph.SeverityWarning:
		return r.styles.warning
	default:
		return r.styles.info
	}
}

func (r *Renderer) classStyle(class analysis.Classification) lipgloss.Style {
	switch class {
	case analysis.ClassHigh:
		return r.styles.high
	case analysis.ClassMedium:
		return r.styles.medium
	default:
		return r.styles.muted
	}
}
