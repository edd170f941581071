// Package ledger tracks which output files tessera generated and the
// hashes they were generated from. The ledger is what lets a later run
// tell "I wrote this" apart from "the user edited this".
package ledger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	orderedmap "github.com/wk8/go-ordered-map/v2"
	"go.uber.org/zap"
)

const (
	// DefaultPath is where the ledger lives relative to the working
	// directory.
	DefaultPath = ".tessera/ledger.json"

	// Version is written into every saved ledger.
	Version uint8 = 0
)

// Entry is one tracked file. Implementations carry whatever extra fields
// they need; the ledger itself only keys on path and compares hashes.
type Entry interface {
	EntryPath() string
	EntryHash() string
}

// FileStatus describes one output path relative to the ledger and the
// inputs about to be rendered. The zero value means "not tracked".
type FileStatus struct {
	Tracked         bool
	FileExists      bool
	UserModified    bool
	TemplateChanged bool
	SchemeChanged   bool
}

// doc is the on-disk shape. Files serialize as an array, not a map, so
// entry order in the saved document never depends on map iteration.
type doc[E Entry] struct {
	Version uint8 `json:"version"`
	Files   []E   `json:"files"`
}

// Ledger is an ordered set of tracked files keyed by output path. Loaded
// once per run and saved once at the end; never written mid-run.
type Ledger[E Entry] struct {
	fs    billy.Filesystem
	path  string
	files *orderedmap.OrderedMap[string, E]
}

// Open loads the ledger at path, or starts an empty one when none exists
// yet. A missing ledger is loud: every file in the output directory is
// untracked and will be overwritten by default.
func Open[E Entry](fs billy.Filesystem, path string, log *zap.Logger) (*Ledger[E], error) {
	l := &Ledger[E]{
		fs:    fs,
		path:  path,
		files: orderedmap.New[string, E](),
	}

	content, err := util.ReadFile(fs, path)
	if os.IsNotExist(err) {
		log.Warn("ledger not found, generating new one (all files untracked! all files in the output directory will be OVERWRITTEN by newly rendered templates by default!)",
			zap.String("path", path))
		return l, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read `%s`: %w", filepath.Base(path), err)
	}

	var d doc[E]
	if err := json.Unmarshal(content, &d); err != nil {
		return nil, fmt.Errorf("failed to parse `%s`: %w", filepath.Base(path), err)
	}
	for _, f := range d.Files {
		l.files.Set(f.EntryPath(), f)
	}
	return l, nil
}

// Save writes the ledger back, creating its parent directory if needed.
func (l *Ledger[E]) Save() error {
	dir := filepath.Dir(l.path)
	if dir != "." {
		if err := l.fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create `%s` dir: %w", dir, err)
		}
	}

	d := doc[E]{Version: Version, Files: l.Entries()}
	content, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize ledger: %w", err)
	}
	if err := util.WriteFile(l.fs, l.path, content, 0o644); err != nil {
		return fmt.Errorf("failed to write `%s`: %w", l.path, err)
	}
	return nil
}

// Get returns the entry tracked for path.
func (l *Ledger[E]) Get(path string) (E, bool) {
	return l.files.Get(path)
}

// Insert tracks an entry, replacing any previous entry for the same path.
// Reports whether an entry was replaced.
func (l *Ledger[E]) Insert(e E) bool {
	_, existed := l.files.Get(e.EntryPath())
	l.files.Set(e.EntryPath(), e)
	return existed
}

// Remove untracks a path. Reports whether it was tracked.
func (l *Ledger[E]) Remove(path string) bool {
	_, existed := l.files.Get(path)
	if existed {
		l.files.Delete(path)
	}
	return existed
}

// Len returns the number of tracked files.
func (l *Ledger[E]) Len() int { return l.files.Len() }

// Entries returns all tracked entries in insertion order.
func (l *Ledger[E]) Entries() []E {
	out := make([]E, 0, l.files.Len())
	for pair := l.files.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Value)
	}
	return out
}

// Orphans returns tracked paths that are not in the rendered set: files a
// previous run generated but the current template and scheme inputs no
// longer produce.
func (l *Ledger[E]) Orphans(rendered map[string]struct{}) []string {
	var out []string
	for pair := l.files.Oldest(); pair != nil; pair = pair.Next() {
		if _, ok := rendered[pair.Key]; !ok {
			out = append(out, pair.Key)
		}
	}
	return out
}
