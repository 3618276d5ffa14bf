// Package catalog implements the multi-language string catalog: one row per
// (namespace, key, language) carrying the value and the MD5 checksum of the
// source string it was derived from.
//
// A catalog snapshot is stored as JSON:
//
//	{
//	    "last_migration": "000012-1700000000000.json",
//	    "strings": [
//	        { "namespace": "login", "key": "header", "language": "en", "value": "Login", "hash": "..." }
//	    ]
//	}
//
// Rows are always written sorted by namespace, key and language so that
// snapshots are reproducible byte for byte.
package catalog

import (
	"bytes"
	"crypto/md5"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/spf13/afero"
)

// SourceLanguage is the default source language.
const SourceLanguage = "en"

// ---------------------------------------------------------------------------
// Types
// ---------------------------------------------------------------------------

// Entry is a single catalog row.
type Entry struct {
	Namespace string `json:"namespace"`
	Key       string `json:"key"`
	Language  string `json:"language"`
	Value     string `json:"value"`
	Hash      string `json:"hash"`
}

// Snapshot is the on-disk catalog.
type Snapshot struct {
	LastMigration string  `json:"last_migration,omitempty"`
	Strings       []Entry `json:"strings"`
}

// ---------------------------------------------------------------------------
// Hashing and identity
// ---------------------------------------------------------------------------

// Hash computes the MD5 hex digest of a string value.
func Hash(s string) string {
	return fmt.Sprintf("%x", md5.Sum([]byte(s)))
}

// ID returns the row identity "namespace:key:language".
func (e Entry) ID() string {
	return ID(e.Namespace, e.Key, e.Language)
}

// ID builds a row identity.
func ID(namespace, key, language string) string {
	return namespace + ":" + key + ":" + language
}

// Sort orders entries by namespace, key and language in place.
func Sort(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Namespace != b.Namespace {
			return a.Namespace < b.Namespace
		}
		if a.Key != b.Key {
			return a.Key < b.Key
		}
		return a.Language < b.Language
	})
}

// Languages returns the sorted set of languages present in entries.
func Languages(entries []Entry) []string {
	seen := make(map[string]bool)
	var langs []string
	for _, e := range entries {
		if !seen[e.Language] {
			seen[e.Language] = true
			langs = append(langs, e.Language)
		}
	}
	sort.Strings(langs)
	return langs
}

// Filter returns the entries written in the given language.
func Filter(entries []Entry, language string) []Entry {
	var out []Entry
	for _, e := range entries {
		if e.Language == language {
			out = append(out, e)
		}
	}
	return out
}

// Union merges catalogs; later rows override earlier ones with the same
// identity. The result is sorted.
func Union(catalogs ...[]Entry) []Entry {
	byID := make(map[string]Entry)
	for _, c := range catalogs {
		for _, e := range c {
			byID[e.ID()] = e
		}
	}
	out := make([]Entry, 0, len(byID))
	for _, e := range byID {
		out = append(out, e)
	}
	Sort(out)
	return out
}

// ---------------------------------------------------------------------------
// Loading and saving
// ---------------------------------------------------------------------------

// LoadSnapshot reads a snapshot file.
func LoadSnapshot(fs afero.Fs, path string) (*Snapshot, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if s.Strings == nil {
		s.Strings = []Entry{}
	}
	return &s, nil
}

// SaveSnapshot writes a snapshot with its strings sorted.
func SaveSnapshot(fs afero.Fs, path string, s Snapshot) error {
	strs := make([]Entry, len(s.Strings))
	copy(strs, s.Strings)
	Sort(strs)
	s.Strings = strs

	data, err := MarshalJSON(s)
	if err != nil {
		return fmt.Errorf("marshaling snapshot: %w", err)
	}
	if err := fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", path, err)
	}
	if err := afero.WriteFile(fs, path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// MarshalJSON encodes v with two-space indentation, no HTML escaping and a
// trailing newline. Every JSON file the tool writes goes through it.
func MarshalJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
