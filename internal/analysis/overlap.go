// Package analysis discovers undeclared dependencies between issues by
// file and section overlap: an inverted file index yields candidate pairs,
// a scorer classifies each pair, and a direction resolver orients the edge.
package analysis

import (
	"sort"

	"github.com/mhoffs/sprintdeps/internal/issue"
)

// Pair is an unordered issue pair, normalized so A sorts before B.
type Pair struct {
	A string
	B string
}

// MakePair normalizes two ids into a Pair. The ids must differ.
func MakePair(x, y string) Pair {
	if x > y {
		x, y = y, x
	}
	return Pair{A: x, B: y}
}

// Overlap is the shared-file evidence for one candidate pair.
type Overlap struct {
	Pair        Pair
	SharedFiles []string // sorted
	Ratio       float64  // |files(A) ∩ files(B)| / |files(A) ∪ files(B)|
}

// OverlapIndex maps candidate pairs to their overlap evidence. Pairs with
// zero shared files never appear.
type OverlapIndex map[Pair]*Overlap

// BuildOverlapIndex inverts the snapshot into per-file issue buckets and
// generates candidate pairs only within buckets of size >= 2, so the cross
// product stays proportional to actual contention rather than corpus size.
// Only active issues inside the scope participate; a nil scope means all.
func BuildOverlapIndex(snap *issue.Snapshot, scope map[string]bool) OverlapIndex {
	buckets := make(map[string][]string)
	for id, iss := range snap.Issues {
		if !iss.Active() {
			continue
		}
		if scope != nil && !scope[id] {
			continue
		}
		for path := range iss.Files {
			buckets[path] = append(buckets[path], id)
		}
	}

	index := make(OverlapIndex)
	for path, ids := range buckets {
		if len(ids) < 2 {
			continue
		}
		sort.Strings(ids)
		for i := 0; i < len(ids); i++ {
			for j := i + 1; j < len(ids); j++ {
				pair := MakePair(ids[i], ids[j])
				ov := index[pair]
				if ov == nil {
					ov = &Overlap{Pair: pair}
					index[pair] = ov
				}
				ov.SharedFiles = append(ov.SharedFiles, path)
			}
		}
	}

	for pair, ov := range index {
		sort.Strings(ov.SharedFiles)
		ov.Ratio = overlapRatio(snap.Get(pair.A), snap.Get(pair.B), len(ov.SharedFiles))
	}

	return index
}

// Pairs returns the candidate pairs in sorted order for deterministic
// sharding and reporting.
func (idx OverlapIndex) Pairs() []Pair {
	pairs := make([]Pair, 0, len(idx))
	for pair := range idx {
		pairs = append(pairs, pair)
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].A != pairs[j].A {
			return pairs[i].A < pairs[j].A
		}
		return pairs[i].B < pairs[j].B
	})
	return pairs
}

// overlapRatio is |∩| / |∪| over the two issues' file sets. Symmetric by
// construction.
func overlapRatio(a, b *issue.Issue, shared int) float64 {
	union := len(a.Files) + len(b.Files) - shared
	if union == 0 {
		return 0
	}
	return float64(shared) / float64(union)
}
