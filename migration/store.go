package migration

import (
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/ifrcgo/translatte/catalog"
)

// File is the content of a migration file.
type File struct {
	Parent  string   `json:"parent,omitempty"`
	Actions []Action `json:"actions"`
}

// Validate rejects files that add the same identity twice.
func (f File) Validate() error {
	added := make(map[string]bool)
	for _, a := range f.Actions {
		if err := a.Validate(); err != nil {
			return err
		}
		if a.Kind != KindAdd {
			continue
		}
		if added[a.Identity()] {
			return fmt.Errorf("duplicate add of %q", a.Identity())
		}
		added[a.Identity()] = true
	}
	return nil
}

// Entry is a migration file found in a store.
type Entry struct {
	Name     string
	Sequence Sequence
}

// Named is a migration file with its name.
type Named struct {
	Name string
	File
}

// Store reads and writes migration files in a directory.
type Store struct {
	FS    afero.Fs
	Dir   string
	Width int
}

// NewStore returns a store rooted at dir.
func NewStore(fs afero.Fs, dir string, width int) *Store {
	if width <= 0 {
		width = DefaultWidth
	}
	return &Store{FS: fs, Dir: dir, Width: width}
}

// Path returns the path of a migration file.
func (s *Store) Path(name string) string {
	return path.Join(s.Dir, name)
}

// List returns the well-formed migration files in chain order. Anything
// else in the directory is ignored. A missing directory is an empty chain.
func (s *Store) List() ([]Entry, error) {
	infos, err := afero.ReadDir(s.FS, s.Dir)
	if err != nil {
		if exists, _ := afero.DirExists(s.FS, s.Dir); !exists {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", s.Dir, err)
	}

	var entries []Entry
	for _, info := range infos {
		if info.IsDir() {
			continue
		}
		seq, err := ParseName(info.Name())
		if err != nil {
			continue
		}
		entries = append(entries, Entry{Name: info.Name(), Sequence: seq})
	}

	SortEntries(entries)
	return entries, nil
}

// SortEntries orders entries by sequence, falling back to the file name.
func SortEntries(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if c := entries[i].Sequence.Compare(entries[j].Sequence); c != 0 {
			return c < 0
		}
		return entries[i].Name < entries[j].Name
	})
}

// Read parses and validates one migration file.
func (s *Store) Read(name string) (*File, error) {
	p := s.Path(name)
	data, err := afero.ReadFile(s.FS, p)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", p, err)
	}

	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", p, err)
	}
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", p, err)
	}
	return &f, nil
}

// ReadAll reads the given entries in order.
func (s *Store) ReadAll(entries []Entry) ([]Named, error) {
	files := make([]Named, 0, len(entries))
	for _, e := range entries {
		f, err := s.Read(e.Name)
		if err != nil {
			return nil, err
		}
		files = append(files, Named{Name: e.Name, File: *f})
	}
	return files, nil
}

// Write stores a migration file, creating the directory if needed.
func (s *Store) Write(name string, f File) error {
	if f.Actions == nil {
		f.Actions = []Action{}
	}
	if err := s.FS.MkdirAll(s.Dir, 0755); err != nil {
		return fmt.Errorf("creating %s: %w", s.Dir, err)
	}
	data, err := catalog.MarshalJSON(f)
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", name, err)
	}
	p := s.Path(name)
	if err := afero.WriteFile(s.FS, p, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", p, err)
	}
	return nil
}

// Remove deletes a migration file.
func (s *Store) Remove(name string) error {
	if err := s.FS.Remove(s.Path(name)); err != nil {
		return fmt.Errorf("removing %s: %w", s.Path(name), err)
	}
	return nil
}

// NextName returns the file name for a migration created at now, following
// the last entry of the chain.
func (s *Store) NextName(entries []Entry, now time.Time) string {
	var last Sequence
	if len(entries) > 0 {
		last = entries[len(entries)-1].Sequence
	}
	return last.Next(now).FileName(s.Width)
}

// After returns the entries that follow name in the chain. An empty name
// selects every entry.
func After(entries []Entry, name string) ([]Entry, error) {
	if name == "" {
		return entries, nil
	}
	name = strings.TrimSuffix(name, Extension) + Extension
	for i, e := range entries {
		if e.Name == name {
			return entries[i+1:], nil
		}
	}
	return nil, fmt.Errorf("migration %q not found", name)
}

// Range returns the entries from "from" to "to", both inclusive.
func Range(entries []Entry, from, to string) ([]Entry, error) {
	from = strings.TrimSuffix(from, Extension) + Extension
	to = strings.TrimSuffix(to, Extension) + Extension

	start, end := -1, -1
	for i, e := range entries {
		if e.Name == from {
			start = i
		}
		if e.Name == to {
			end = i
		}
	}
	if start < 0 {
		return nil, fmt.Errorf("migration %q not found", from)
	}
	if end < 0 {
		return nil, fmt.Errorf("migration %q not found", to)
	}
	if end < start {
		return nil, fmt.Errorf("migration %q comes before %q", to, from)
	}
	return entries[start : end+1], nil
}

// Files drops the names of a chain.
func Files(named []Named) []File {
	files := make([]File, len(named))
	for i, n := range named {
		files[i] = n.File
	}
	return files
}
