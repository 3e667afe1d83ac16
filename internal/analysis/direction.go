package analysis

import (
	"github.com/mhoffs/sprintdeps/internal/issue"
)

// Decision orients a scored pair: Blocker must land before Blocked.
type Decision struct {
	Blocker    string
	Blocked    string
	Rule       string
	Confidence float64
}

// directionRule examines a pair and either decides the direction or defers
// to the next rule by returning ok=false.
type directionRule struct {
	name       string
	confidence float64
	decide     func(a, b *issue.Issue) (blocker, blocked *issue.Issue, ok bool)
}

// directionRules is the ordered tie-break chain. The id-order fallback always
// decides, so resolution is total; its reduced confidence marks decisions
// made on naming alone.
var directionRules = []directionRule{
	{
		name:       "priority",
		confidence: 0.9,
		decide: func(a, b *issue.Issue) (*issue.Issue, *issue.Issue, bool) {
			switch {
			case a.Priority < b.Priority:
				return a, b, true
			case b.Priority < a.Priority:
				return b, a, true
			default:
				return nil, nil, false
			}
		},
	},
	{
		name:       "modification-type",
		confidence: 0.75,
		decide: func(a, b *issue.Issue) (*issue.Issue, *issue.Issue, bool) {
			switch {
			case a.ModType < b.ModType:
				return a, b, true
			case b.ModType < a.ModType:
				return b, a, true
			default:
				return nil, nil, false
			}
		},
	},
	{
		name:       "id-order",
		confidence: 0.5,
		decide: func(a, b *issue.Issue) (*issue.Issue, *issue.Issue, bool) {
			if a.ID < b.ID {
				return a, b, true
			}
			return b, a, true
		},
	},
}

// ResolveDirection applies the tie-break chain to a pair and returns the
// first rule's decision. Deterministic: the same pair always yields the same
// (blocker, blocked, rule) triple regardless of argument order.
func ResolveDirection(a, b *issue.Issue) Decision {
	// Normalize argument order so every rule sees a stable input.
	if a.ID > b.ID {
		a, b = b, a
	}
	for _, rule := range directionRules {
		if blocker, blocked, ok := rule.decide(a, b); ok {
			return Decision{
				Blocker:    blocker.ID,
				Blocked:    blocked.ID,
				Rule:       rule.name,
				Confidence: rule.confidence,
			}
		}
	}
	// Unreachable: the id-order fallback always decides.
	return Decision{Blocker: a.ID, Blocked: b.ID, Rule: "id-order", Confidence: 0.5}
}
