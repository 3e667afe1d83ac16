package issue

// EdgeSet is the final declared dependency edges for one issue after accepted
// proposals are merged with what the record already declares.
type EdgeSet struct {
	BlockedBy []string `json:"blocked_by" yaml:"blocked_by"`
	Blocks    []string `json:"blocks" yaml:"blocks"`
}

// EdgeSetWriter persists computed edge sets back to wherever issue records
// live. The analysis pipeline itself never writes records; callers that want
// persistence supply an implementation.
type EdgeSetWriter interface {
	// WriteEdgeSets applies the given per-issue edge sets. Keys are issue
	// ids; implementations decide how to merge into existing records.
	WriteEdgeSets(sets map[string]EdgeSet) error
}

// EdgeSetFor computes the merged edge set for an issue: its declared edges
// plus any additions, returned sorted for stable output.
func EdgeSetFor(iss *Issue, extraBlockedBy, extraBlocks []string) EdgeSet {
	blockedBy := make(map[string]bool, len(iss.BlockedBy)+len(extraBlockedBy))
	for id := range iss.BlockedBy {
		blockedBy[id] = true
	}
	for _, id := range extraBlockedBy {
		blockedBy[id] = true
	}

	blocks := make(map[string]bool, len(iss.Blocks)+len(extraBlocks))
	for id := range iss.Blocks {
		blocks[id] = true
	}
	for _, id := range extraBlocks {
		blocks[id] = true
	}

	return EdgeSet{
		BlockedBy: SortedKeys(blockedBy),
		Blocks:    SortedKeys(blocks),
	}
}
