package analysis

import (
	"sort"
	"sync"

	"github.com/mhoffs/sprintdeps/internal/config"
	"github.com/mhoffs/sprintdeps/internal/issue"
	"github.com/mhoffs/sprintdeps/internal/logging"
)

// Proposal is a candidate new dependency edge discovered from overlap.
type Proposal struct {
	Blocker        string         `json:"blocker" yaml:"blocker"`
	Blocked        string         `json:"blocked" yaml:"blocked"`
	Score          float64        `json:"score" yaml:"score"`
	Classification Classification `json:"classification" yaml:"classification"`
	Rule           string         `json:"rule" yaml:"rule"`
	Confidence     float64        `json:"confidence" yaml:"confidence"`
	SharedFiles    []string       `json:"shared_files" yaml:"shared_files"`
}

// ParallelSafe is a scheduling hint: the pair shares files but scores below
// the dependency threshold, so the two issues can proceed concurrently.
type ParallelSafe struct {
	IssueA      string   `json:"issue_a" yaml:"issue_a"`
	IssueB      string   `json:"issue_b" yaml:"issue_b"`
	Score       float64  `json:"score" yaml:"score"`
	SharedFiles []string `json:"shared_files" yaml:"shared_files"`
}

// Result is the discovery output for one run.
type Result struct {
	Proposals    []Proposal     `json:"proposals" yaml:"proposals"`
	ParallelSafe []ParallelSafe `json:"parallel_safe" yaml:"parallel_safe"`
}

// Engine runs the discovery path: overlap index, pair scoring, direction
// resolution. It never mutates the snapshot.
type Engine struct {
	scorer  *Scorer
	workers int
	log     *logging.Logger
}

// NewEngine builds a discovery engine from configuration.
func NewEngine(cfg *config.Config, log *logging.Logger) *Engine {
	if log == nil {
		log = logging.NopLogger()
	}
	return &Engine{
		scorer:  NewScorer(cfg.Scoring),
		workers: cfg.Analysis.EffectiveWorkers(),
		log:     log.WithPhase("discover"),
	}
}

// Discover scores every candidate pair in the snapshot and splits the
// results into dependency proposals and parallel-safe observations. A nil
// scope means the whole corpus. Output ordering is deterministic: proposals
// by descending score then pair id, observations by pair id.
func (e *Engine) Discover(snap *issue.Snapshot, scope map[string]bool) *Result {
	index := BuildOverlapIndex(snap, scope)
	pairs := index.Pairs()

	scores := e.scoreAll(snap, index, pairs)

	res := &Result{}
	for _, sc := range scores {
		a, b := snap.Get(sc.Pair.A), snap.Get(sc.Pair.B)

		// Pairs with a declared edge are already ordered: nothing to
		// propose, and no parallel-safe hint either.
		if declaredEdge(a, b) {
			continue
		}

		if e.scorer.Proposable(sc.Value) {
			dec := ResolveDirection(a, b)
			res.Proposals = append(res.Proposals, Proposal{
				Blocker:        dec.Blocker,
				Blocked:        dec.Blocked,
				Score:          sc.Value,
				Classification: sc.Classification,
				Rule:           dec.Rule,
				Confidence:     dec.Confidence,
				SharedFiles:    sc.SharedFiles,
			})
			continue
		}

		res.ParallelSafe = append(res.ParallelSafe, ParallelSafe{
			IssueA:      sc.Pair.A,
			IssueB:      sc.Pair.B,
			Score:       sc.Value,
			SharedFiles: sc.SharedFiles,
		})
	}

	sort.Slice(res.Proposals, func(i, j int) bool {
		if res.Proposals[i].Score != res.Proposals[j].Score {
			return res.Proposals[i].Score > res.Proposals[j].Score
		}
		if res.Proposals[i].Blocker != res.Proposals[j].Blocker {
			return res.Proposals[i].Blocker < res.Proposals[j].Blocker
		}
		return res.Proposals[i].Blocked < res.Proposals[j].Blocked
	})
	sort.Slice(res.ParallelSafe, func(i, j int) bool {
		if res.ParallelSafe[i].IssueA != res.ParallelSafe[j].IssueA {
			return res.ParallelSafe[i].IssueA < res.ParallelSafe[j].IssueA
		}
		return res.ParallelSafe[i].IssueB < res.ParallelSafe[j].IssueB
	})

	e.log.Info("discovery complete",
		"candidate_pairs", len(pairs),
		"proposals", len(res.Proposals),
		"parallel_safe", len(res.ParallelSafe))

	return res
}

// scoreAll shards pair scoring across workers. Scoring is a pure function
// over the frozen snapshot, so shards share no mutable state; each worker
// writes its own slice region.
func (e *Engine) scoreAll(snap *issue.Snapshot, index OverlapIndex, pairs []Pair) []Score {
	scores := make([]Score, len(pairs))

	workers := e.workers
	if workers > len(pairs) {
		workers = len(pairs)
	}
	if workers <= 1 {
		for i, pair := range pairs {
			scores[i] = e.scorer.Score(snap.Get(pair.A), snap.Get(pair.B), index[pair])
		}
		return scores
	}

	var wg sync.WaitGroup
	chunk := (len(pairs) + workers - 1) / workers
	for start := 0; start < len(pairs); start += chunk {
		end := min(start+chunk, len(pairs))
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for i := start; i < end; i++ {
				pair := pairs[i]
				scores[i] = e.scorer.Score(snap.Get(pair.A), snap.Get(pair.B), index[pair])
			}
		}(start, end)
	}
	wg.Wait()

	return scores
}

// declaredEdge reports whether an edge already exists between the two issues
// in either direction; such pairs never produce proposals.
func declaredEdge(a, b *issue.Issue) bool {
	return a.BlockedBy[b.ID] || a.Blocks[b.ID] || b.BlockedBy[a.ID] || b.Blocks[a.ID]
}

// TargetEdgeSets expresses accepted proposals as final per-issue edge sets,
// merged with what each record already declares. Sets, not appends: applying
// the same proposal twice yields identical output.
func TargetEdgeSets(snap *issue.Snapshot, accepted []Proposal) map[string]issue.EdgeSet {
	extraBlockedBy := make(map[string][]string)
	extraBlocks := make(map[string][]string)
	for _, p := range accepted {
		extraBlockedBy[p.Blocked] = append(extraBlockedBy[p.Blocked], p.Blocker)
		extraBlocks[p.Blocker] = append(extraBlocks[p.Blocker], p.Blocked)
	}

	sets := make(map[string]issue.EdgeSet)
	for id := range extraBlockedBy {
		if iss := snap.Get(id); iss != nil {
			sets[id] = issue.EdgeSetFor(iss, extraBlockedBy[id], extraBlocks[id])
		}
	}
	for id := range extraBlocks {
		if _, done := sets[id]; done {
			continue
		}
		if iss := snap.Get(id); iss != nil {
			sets[id] = issue.EdgeSetFor(iss, extraBlockedBy[id], extraBlocks[id])
		}
	}
	return sets
}
