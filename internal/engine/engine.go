// Package engine wires the one-shot pipeline: load a frozen snapshot,
// validate the declared graph, and optionally discover new dependency
// proposals. Each run is a pure batch over one snapshot.
package engine

import (
	"github.com/mhoffs/sprintdeps/internal/analysis"
	"github.com/mhoffs/sprintdeps/internal/config"
	"github.com/mhoffs/sprintdeps/internal/graph"
	"github.com/mhoffs/sprintdeps/internal/issue"
	"github.com/mhoffs/sprintdeps/internal/logging"
)

// Report is the complete outcome of one run.
type Report struct {
	Scope     string                   `json:"scope,omitempty" yaml:"scope,omitempty"`
	Issues    int                      `json:"issues" yaml:"issues"`
	Findings  []graph.Finding          `json:"findings" yaml:"findings"`
	Discovery *analysis.Result         `json:"discovery,omitempty" yaml:"discovery,omitempty"`
	Layering  *graph.Layering          `json:"layering,omitempty" yaml:"layering,omitempty"`
	EdgeSets  map[string]issue.EdgeSet `json:"edge_sets,omitempty" yaml:"edge_sets,omitempty"`

	snapshot *issue.Snapshot
}

// Snapshot exposes the loaded corpus for renderers that need issue details.
func (r *Report) Snapshot() *issue.Snapshot {
	return r.snapshot
}

// HasCritical reports whether the run found gating problems.
func (r *Report) HasCritical() bool {
	return graph.HasCritical(r.Findings)
}

// Engine runs analysis pipelines against a corpus root.
type Engine struct {
	cfg  *config.Config
	root string
	log  *logging.Logger
}

// New creates an engine. root overrides cfg.Corpus.Root when non-empty.
func New(cfg *config.Config, root string, log *logging.Logger) *Engine {
	if log == nil {
		log = logging.NopLogger()
	}
	if root == "" {
		root = cfg.Corpus.Root
	}
	return &Engine{cfg: cfg, root: root, log: log}
}

// AnalyzeOptions controls the analyze pipeline.
type AnalyzeOptions struct {
	Scope     string
	WithGraph bool // compute the wave layering
	EmitEdges bool // include target edge sets for every proposal
}

// Analyze runs discovery plus validation. Scope restricts the discovery and
// layering focus only; validation always covers the full corpus.
func (e *Engine) Analyze(opts AnalyzeOptions) (*Report, error) {
	scopeSet, err := e.cfg.ResolveScope(opts.Scope)
	if err != nil {
		return nil, err
	}

	snap, err := e.load()
	if err != nil {
		return nil, err
	}

	report := &Report{
		Scope:    opts.Scope,
		Issues:   snap.Len(),
		Findings: graph.NewValidator(e.log).Validate(snap),
		snapshot: snap,
	}

	report.Discovery = analysis.NewEngine(e.cfg, e.log).Discover(snap, scopeSet)
	if opts.WithGraph {
		layering := graph.Layers(snap, scopeSet)
		report.Layering = &layering
	}
	if opts.EmitEdges {
		report.EdgeSets = analysis.TargetEdgeSets(snap, report.Discovery.Proposals)
	}

	return report, nil
}

// Validate runs the structural checks only, no discovery.
func (e *Engine) Validate(scope string) (*Report, error) {
	// Scope does not narrow validation, but an unknown name is still a
	// configuration mistake and must abort.
	if _, err := e.cfg.ResolveScope(scope); err != nil {
		return nil, err
	}

	snap, err := e.load()
	if err != nil {
		return nil, err
	}

	return &Report{
		Scope:    scope,
		Issues:   snap.Len(),
		Findings: graph.NewValidator(e.log).Validate(snap),
		snapshot: snap,
	}, nil
}

func (e *Engine) load() (*issue.Snapshot, error) {
	loader := issue.NewLoader(e.root, e.cfg.Analysis.EffectiveWorkers(), e.log)
	return loader.Load()
}
