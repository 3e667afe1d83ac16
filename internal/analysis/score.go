package analysis

import (
	"github.com/mhoffs/sprintdeps/internal/config"
	"github.com/mhoffs/sprintdeps/internal/issue"
)

// Classification bands a conflict score. The 0.4/0.7 boundaries are contract
// values the proposal cut-off and reporting depend on.
type Classification string

const (
	ClassHigh   Classification = "HIGH"
	ClassMedium Classification = "MEDIUM"
	ClassLow    Classification = "LOW"
)

// Score is the conflict assessment for one candidate pair.
type Score struct {
	Pair           Pair
	SharedFiles    []string
	OverlapRatio   float64
	SectionRatio   float64
	Value          float64 // weighted sum, clamped to [0,1]
	Classification Classification
}

// Scorer computes conflict scores. It is a pure function of two issues and
// their shared-file evidence; safe for concurrent use.
type Scorer struct {
	fileWeight    float64
	sectionWeight float64
	depThreshold  float64
	highThreshold float64
}

// NewScorer builds a scorer from scoring configuration.
func NewScorer(cfg config.ScoringConfig) *Scorer {
	return &Scorer{
		fileWeight:    cfg.FileWeight,
		sectionWeight: cfg.SectionWeight,
		depThreshold:  cfg.DependencyThreshold,
		highThreshold: cfg.HighConflictThreshold,
	}
}

// Score assesses one candidate pair. A pair with no shared files scores zero.
func (s *Scorer) Score(a, b *issue.Issue, ov *Overlap) Score {
	sc := Score{
		Pair:        ov.Pair,
		SharedFiles: ov.SharedFiles,
	}
	if len(ov.SharedFiles) == 0 {
		sc.Classification = ClassLow
		return sc
	}

	sc.OverlapRatio = ov.Ratio
	sc.SectionRatio = sectionOverlapRatio(a, b, ov.SharedFiles)

	sc.Value = s.fileWeight*sc.OverlapRatio + s.sectionWeight*sc.SectionRatio
	if sc.Value > 1 {
		sc.Value = 1
	}
	if sc.Value < 0 {
		sc.Value = 0
	}

	sc.Classification = s.Classify(sc.Value)
	return sc
}

// Classify bands a score value.
func (s *Scorer) Classify(value float64) Classification {
	switch {
	case value >= s.highThreshold:
		return ClassHigh
	case value >= s.depThreshold:
		return ClassMedium
	default:
		return ClassLow
	}
}

// Proposable reports whether a score clears the dependency threshold.
func (s *Scorer) Proposable(value float64) bool {
	return value >= s.depThreshold
}

// sectionOverlapRatio is the fraction of shared files on which the two
// issues collide at the section level. Declared sections collide when the
// sets intersect; a side that declares no sections references the whole
// file and collides with anything.
func sectionOverlapRatio(a, b *issue.Issue, shared []string) float64 {
	if len(shared) == 0 {
		return 0
	}
	matched := 0
	for _, path := range shared {
		if sectionsCollide(a.Files[path], b.Files[path]) {
			matched++
		}
	}
	return float64(matched) / float64(len(shared))
}

func sectionsCollide(sa, sb map[string]bool) bool {
	if len(sa) == 0 || len(sb) == 0 {
		return true
	}
	for s := range sa {
		if sb[s] {
			return true
		}
	}
	return false
}
