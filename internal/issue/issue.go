// Package issue defines the work-item model and the corpus loader.
// An analysis run operates on a frozen Snapshot produced here; nothing in
// the pipeline mutates loaded issues.
package issue

import (
	"sort"
)

// Type classifies an issue. The set is closed; anything else is a parse failure.
type Type string

const (
	TypeBug         Type = "bug"
	TypeFeature     Type = "feature"
	TypeEnhancement Type = "enhancement"
)

// ValidTypes returns the closed set of issue types.
func ValidTypes() []Type {
	return []Type{TypeBug, TypeFeature, TypeEnhancement}
}

// Status is the lifecycle state of an issue.
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

// ModType is the modification category inferred from record content.
// The zero value is ModStructural; the declaration order is the precedence
// order used by direction resolution (structural > infrastructure > enhancement).
type ModType int

const (
	ModStructural ModType = iota
	ModInfrastructure
	ModEnhancement
)

// String returns the string representation of the modification type.
func (m ModType) String() string {
	switch m {
	case ModStructural:
		return "structural"
	case ModInfrastructure:
		return "infrastructure"
	case ModEnhancement:
		return "enhancement"
	default:
		return "unknown"
	}
}

// Issue is one loaded work-item record. Files maps a referenced path to the
// set of section identifiers declared for it; an empty set means the whole
// file. BlockedBy and Blocks hold declared edge targets by id.
type Issue struct {
	ID       string
	Title    string
	Type     Type
	Priority int // lower = more urgent
	Status   Status
	ModType  ModType

	Files     map[string]map[string]bool
	BlockedBy map[string]bool
	Blocks    map[string]bool

	// SourcePath is the record file this issue was loaded from, kept for
	// findings and reporting only.
	SourcePath string
}

// NewIssue returns an Issue with initialized set fields.
func NewIssue(id string) *Issue {
	return &Issue{
		ID:        id,
		Files:     make(map[string]map[string]bool),
		BlockedBy: make(map[string]bool),
		Blocks:    make(map[string]bool),
	}
}

// AddFile records a file reference with an optional section identifier.
// Repeated calls accumulate sections; a sectionless reference never clears
// sections recorded earlier.
func (i *Issue) AddFile(path, section string) {
	if path == "" {
		return
	}
	if i.Files[path] == nil {
		i.Files[path] = make(map[string]bool)
	}
	if section != "" {
		i.Files[path][section] = true
	}
}

// FileList returns the referenced file paths in sorted order.
func (i *Issue) FileList() []string {
	return SortedKeys(mapKeysToBool(i.Files))
}

// Sections returns the declared section identifiers for path, sorted.
// An empty result means the issue references the whole file.
func (i *Issue) Sections(path string) []string {
	return SortedKeys(i.Files[path])
}

// Active reports whether the issue is not completed.
func (i *Issue) Active() bool {
	return i.Status != StatusCompleted
}

// ParseFailure records a record that could not be loaded. One bad record
// never aborts the batch; failures travel with the snapshot instead.
type ParseFailure struct {
	Path string // record file, relative to the corpus root
	ID   string // declared id when one was readable, otherwise empty
	Err  error
}

// Snapshot is a frozen, read-only view of the corpus for one analysis run.
type Snapshot struct {
	Issues   map[string]*Issue
	Failures []ParseFailure
}

// Get returns the issue with the given id, or nil.
func (s *Snapshot) Get(id string) *Issue {
	return s.Issues[id]
}

// IDs returns all loaded issue ids in sorted order.
func (s *Snapshot) IDs() []string {
	ids := make([]string, 0, len(s.Issues))
	for id := range s.Issues {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of loaded issues.
func (s *Snapshot) Len() int {
	return len(s.Issues)
}

// SortedKeys returns the keys of a set in sorted order.
func SortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func mapKeysToBool(m map[string]map[string]bool) map[string]bool {
	out := make(map[string]bool, len(m))
	for k := range m {
		out[k] = true
	}
	return out
}
