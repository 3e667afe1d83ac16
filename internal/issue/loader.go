package issue

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	sderrors "github.com/mhoffs/sprintdeps/internal/errors"
	"github.com/mhoffs/sprintdeps/internal/logging"
)

// Loader reads a directory tree of markdown issue records into a Snapshot.
// The full corpus is always loaded regardless of any analysis scope, because
// backlink and staleness checks must see out-of-scope and completed issues.
type Loader struct {
	root    string
	workers int
	log     *logging.Logger
}

// NewLoader creates a loader for the given corpus root. workers controls
// per-record parse fan-out; values below 1 mean sequential.
func NewLoader(root string, workers int, log *logging.Logger) *Loader {
	if log == nil {
		log = logging.NopLogger()
	}
	return &Loader{root: root, workers: workers, log: log.WithPhase("load")}
}

// Load parses every record under the root. Malformed records become
// ParseFailure entries on the snapshot; only an unreadable root aborts.
func (l *Loader) Load() (*Snapshot, error) {
	info, err := os.Stat(l.root)
	if err != nil || !info.IsDir() {
		return nil, sderrors.NewConfigError("corpus root is not a readable directory", sderrors.ErrCorpusUnreadable).
			WithKey("corpus.root").
			WithValue(l.root)
	}

	paths, err := l.collectRecordPaths()
	if err != nil {
		return nil, sderrors.NewConfigError("failed to walk corpus root", sderrors.ErrCorpusUnreadable).
			WithKey("corpus.root").
			WithValue(l.root)
	}

	parsed := l.parseAll(paths)

	// Merge in sorted path order so duplicate-id resolution (first record
	// wins) is deterministic regardless of parse scheduling.
	snap := &Snapshot{Issues: make(map[string]*Issue, len(parsed))}
	for _, path := range paths {
		res := parsed[path]
		if res.err != nil {
			snap.Failures = append(snap.Failures, ParseFailure{Path: path, ID: res.id, Err: res.err})
			continue
		}
		if prev, exists := snap.Issues[res.issue.ID]; exists {
			snap.Failures = append(snap.Failures, ParseFailure{
				Path: path,
				ID:   res.issue.ID,
				Err:  sderrors.Wrapf(sderrors.ErrDuplicateID, "already declared by %s", prev.SourcePath),
			})
			continue
		}
		snap.Issues[res.issue.ID] = res.issue
	}

	l.log.Info("corpus loaded",
		"root", l.root,
		"issues", len(snap.Issues),
		"parse_failures", len(snap.Failures))

	return snap, nil
}

func (l *Loader) collectRecordPaths() ([]string, error) {
	var paths []string
	err := filepath.WalkDir(l.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() {
			if path != l.root && strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(name, ".md") || strings.HasPrefix(name, ".") {
			return nil
		}
		rel, relErr := filepath.Rel(l.root, path)
		if relErr != nil {
			return relErr
		}
		paths = append(paths, rel)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}

type parseResult struct {
	issue *Issue
	id    string
	err   error
}

// parseAll fans record parsing out across workers. Records are independent
// and results merge into a path-keyed map, so ordering does not matter here.
func (l *Loader) parseAll(paths []string) map[string]parseResult {
	results := make(map[string]parseResult, len(paths))

	workers := l.workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(paths) {
		workers = len(paths)
	}
	if workers <= 1 {
		for _, path := range paths {
			results[path] = l.parseRecord(path)
		}
		return results
	}

	jobs := make(chan string)
	var mu sync.Mutex
	var wg sync.WaitGroup

	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				res := l.parseRecord(path)
				mu.Lock()
				results[path] = res
				mu.Unlock()
			}
		}()
	}
	for _, path := range paths {
		jobs <- path
	}
	close(jobs)
	wg.Wait()

	return results
}

// frontmatter is the typed metadata block at the top of a record.
// Priority is read untyped so both `priority: 2` and `priority: P2` parse;
// the leading P is tolerated and stripped.
type frontmatter struct {
	ID       string `yaml:"id"`
	Type     string `yaml:"type"`
	Priority any    `yaml:"priority"`
	Status   string `yaml:"status"`
}

var (
	// Record section headers: ## Files, ## Blocked By, ## Blocks.
	filesSectionRe     = regexp.MustCompile(`(?sm)^##\s*Files\s*$(.*?)(?:^##|^---|\z)`)
	blockedBySectionRe = regexp.MustCompile(`(?sm)^##\s*Blocked\s+By\s*$(.*?)(?:^##|^---|\z)`)
	blocksSectionRe    = regexp.MustCompile(`(?sm)^##\s*Blocks\s*$(.*?)(?:^##|^---|\z)`)

	// Bullet entries: - `path#section` or - ISSUE-ID (backticks optional).
	bulletRe = regexp.MustCompile("(?m)^\\s*[-*]\\s*`?([^`\\s][^`]*?)`?\\s*$")

	// Title from the first level-1 heading.
	titleRe = regexp.MustCompile(`(?m)^#\s+(.+?)\s*$`)

	// Path-like tokens in backticks anywhere in the body: must contain a
	// slash or a dot-extension to count as a file reference.
	inlinePathRe = regexp.MustCompile("`([A-Za-z0-9_][A-Za-z0-9_./#-]*(?:/[A-Za-z0-9_.#-]+|\\.[A-Za-z0-9]+[A-Za-z0-9_#-]*))`")
)

func (l *Loader) parseRecord(relPath string) parseResult {
	data, err := os.ReadFile(filepath.Join(l.root, relPath))
	if err != nil {
		return parseResult{err: sderrors.Wrap(err, "failed to read record")}
	}

	meta, body, err := splitFrontmatter(string(data))
	if err != nil {
		return parseResult{err: err}
	}

	var fm frontmatter
	if err := yaml.Unmarshal([]byte(meta), &fm); err != nil {
		return parseResult{err: sderrors.Wrap(sderrors.ErrRecordMalformed, err.Error())}
	}

	if strings.TrimSpace(fm.ID) == "" {
		return parseResult{err: sderrors.Wrap(sderrors.ErrRecordMalformed, "frontmatter is missing id")}
	}

	iss := NewIssue(strings.TrimSpace(fm.ID))
	iss.SourcePath = relPath

	iss.Type, err = parseType(fm.Type)
	if err != nil {
		return parseResult{id: iss.ID, err: err}
	}
	iss.Status, err = parseStatus(fm.Status)
	if err != nil {
		return parseResult{id: iss.ID, err: err}
	}
	iss.Priority, err = parsePriority(fm.Priority)
	if err != nil {
		return parseResult{id: iss.ID, err: err}
	}

	if m := titleRe.FindStringSubmatch(body); len(m) == 2 {
		iss.Title = m[1]
	}

	for _, entry := range sectionBullets(filesSectionRe, body) {
		path, section := splitFileRef(entry)
		iss.AddFile(path, section)
	}
	for _, entry := range sectionBullets(blockedBySectionRe, body) {
		iss.BlockedBy[entry] = true
	}
	for _, entry := range sectionBullets(blocksSectionRe, body) {
		iss.Blocks[entry] = true
	}

	// Path-like tokens elsewhere in the body contribute file references only.
	// Section identifiers come from the Files section alone.
	for _, m := range inlinePathRe.FindAllStringSubmatch(stripLinkSections(body), -1) {
		path, _ := splitFileRef(m[1])
		iss.AddFile(path, "")
	}

	iss.ModType = inferModType(iss.Title + " " + body)

	return parseResult{issue: iss, id: iss.ID}
}

// splitFrontmatter separates the leading YAML block from the markdown body.
func splitFrontmatter(content string) (meta, body string, err error) {
	trimmed := strings.TrimPrefix(content, "\ufeff")
	if !strings.HasPrefix(trimmed, "---\n") && !strings.HasPrefix(trimmed, "---\r\n") {
		return "", "", sderrors.ErrMissingFrontmatter
	}
	rest := trimmed[strings.Index(trimmed, "\n")+1:]
	endIdx := strings.Index(rest, "\n---")
	if endIdx < 0 {
		return "", "", sderrors.Wrap(sderrors.ErrRecordMalformed, "unterminated frontmatter block")
	}
	meta = rest[:endIdx]
	body = rest[endIdx+len("\n---"):]
	if nl := strings.Index(body, "\n"); nl >= 0 {
		body = body[nl+1:]
	} else {
		body = ""
	}
	return meta, body, nil
}

func sectionBullets(sectionRe *regexp.Regexp, body string) []string {
	m := sectionRe.FindStringSubmatch(body)
	if len(m) < 2 {
		return nil
	}
	var entries []string
	for _, bm := range bulletRe.FindAllStringSubmatch(m[1], -1) {
		entry := strings.TrimSpace(bm[1])
		if entry != "" {
			entries = append(entries, entry)
		}
	}
	return entries
}

// splitFileRef splits a `path#section` reference. A bare path has no section.
func splitFileRef(ref string) (path, section string) {
	if idx := strings.Index(ref, "#"); idx >= 0 {
		return strings.TrimSpace(ref[:idx]), strings.TrimSpace(ref[idx+1:])
	}
	return strings.TrimSpace(ref), ""
}

// stripLinkSections removes the structured sections before harvesting inline
// path tokens, so Files/Blocked By/Blocks entries are not double-counted and
// issue ids are never mistaken for paths.
func stripLinkSections(body string) string {
	out := filesSectionRe.ReplaceAllString(body, "")
	out = blockedBySectionRe.ReplaceAllString(out, "")
	out = blocksSectionRe.ReplaceAllString(out, "")
	return out
}

func parseType(raw string) (Type, error) {
	t := Type(strings.ToLower(strings.TrimSpace(raw)))
	for _, valid := range ValidTypes() {
		if t == valid {
			return t, nil
		}
	}
	return "", sderrors.Wrapf(sderrors.ErrRecordMalformed, "invalid type %q", raw)
}

func parseStatus(raw string) (Status, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch s {
	case "", string(StatusActive):
		return StatusActive, nil
	case string(StatusCompleted):
		return StatusCompleted, nil
	default:
		return "", sderrors.Wrapf(sderrors.ErrRecordMalformed, "invalid status %q", raw)
	}
}

// defaultPriority is assigned when a record declares none; mid-scale so
// undeclared records neither dominate nor trail explicit priorities.
const defaultPriority = 3

func parsePriority(raw any) (int, error) {
	switch v := raw.(type) {
	case nil:
		return defaultPriority, nil
	case int:
		if v < 0 {
			return 0, sderrors.Wrapf(sderrors.ErrRecordMalformed, "invalid priority %d", v)
		}
		return v, nil
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return defaultPriority, nil
		}
		s = strings.TrimPrefix(strings.TrimPrefix(s, "P"), "p")
		p, err := strconv.Atoi(s)
		if err != nil || p < 0 {
			return 0, sderrors.Wrapf(sderrors.ErrRecordMalformed, "invalid priority %q", v)
		}
		return p, nil
	default:
		return 0, sderrors.Wrapf(sderrors.ErrRecordMalformed, "invalid priority %v", raw)
	}
}

var (
	structuralKeywords = []string{
		"refactor", "rename", "restructure", "interface", "schema", "migrat", "redesign",
	}
	infrastructureKeywords = []string{
		"build", "ci", "deploy", "dependency", "dependencies", "upgrade", "tooling", "pipeline", "makefile",
	}
)

// inferModType classifies a record by content keywords. Structural markers
// take precedence over infrastructure ones; everything else is enhancement.
func inferModType(content string) ModType {
	lower := strings.ToLower(content)
	for _, kw := range structuralKeywords {
		if strings.Contains(lower, kw) {
			return ModStructural
		}
	}
	for _, kw := range infrastructureKeywords {
		if containsWord(lower, kw) {
			return ModInfrastructure
		}
	}
	return ModEnhancement
}

// containsWord matches kw on word boundaries so short infrastructure markers
// ("ci") do not fire inside ordinary words.
func containsWord(content, kw string) bool {
	re := regexp.MustCompile(fmt.Sprintf(`\b%s\b`, regexp.QuoteMeta(kw)))
	return re.MatchString(content)
}
