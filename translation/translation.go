// Package translation reads the source-language translation files kept next
// to the application code.
//
// The expected file format is:
//
//	{
//	    "namespace": "login",
//	    "strings": {
//	        "header": "Login",
//	        "submit": "Submit"
//	    }
//	}
//
// Key order is preserved as written in the file.
package translation

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"

	"github.com/ifrcgo/translatte/diff"
	"github.com/ifrcgo/translatte/keyset"
)

// File is a parsed translation file.
type File struct {
	Path      string
	Namespace string
	Strings   map[string]string
	// keys preserves the original key order from the file.
	keys []string
}

// String is one string of a translation file.
type String struct {
	Path      string
	Namespace string
	Key       string
	Value     string
}

// ID returns "namespace:key".
func (s String) ID() string {
	return keyset.Concat(s.Namespace, s.Key)
}

// ParseFile reads and parses a translation file.
func ParseFile(fs afero.Fs, path string) (*File, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	f.Path = path
	return f, nil
}

// Parse parses translation file data.
func Parse(data []byte) (*File, error) {
	var raw struct {
		Namespace string          `json:"namespace"`
		Strings   json.RawMessage `json:"strings"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}

	f := &File{
		Namespace: raw.Namespace,
		Strings:   make(map[string]string),
	}

	if len(raw.Strings) > 0 && string(raw.Strings) != "null" {
		om, err := parseOrderedStringMap(raw.Strings)
		if err != nil {
			return nil, fmt.Errorf("parsing strings: %w", err)
		}
		f.keys = om.keys
		f.Strings = om.values
	}

	return f, nil
}

// orderedMap preserves insertion order of a string->string JSON object.
type orderedMap struct {
	keys   []string
	values map[string]string
}

func parseOrderedStringMap(data []byte) (*orderedMap, error) {
	dec := json.NewDecoder(strings.NewReader(string(data)))

	t, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := t.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("expected {, got %v", t)
	}

	om := &orderedMap{values: make(map[string]string)}

	for dec.More() {
		kt, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := kt.(string)
		if !ok {
			return nil, fmt.Errorf("expected string key, got %T", kt)
		}

		vt, err := dec.Token()
		if err != nil {
			return nil, err
		}
		value, ok := vt.(string)
		if !ok {
			return nil, fmt.Errorf("expected string value for key %q, got %T", key, vt)
		}

		// A repeated key keeps its first position and its last value.
		if _, seen := om.values[key]; !seen {
			om.keys = append(om.keys, key)
		}
		om.values[key] = value
	}

	return om, nil
}

// Keys returns the keys in file order.
func (f *File) Keys() []string {
	if len(f.keys) > 0 {
		return f.keys
	}

	keys := make([]string, 0, len(f.Strings))
	for k := range f.Strings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Flatten lists the strings of files in file and key order.
func Flatten(files []*File) []String {
	var out []String
	for _, f := range files {
		for _, k := range f.Keys() {
			out = append(out, String{Path: f.Path, Namespace: f.Namespace, Key: k, Value: f.Strings[k]})
		}
	}
	return out
}

// Items converts strings for the diff generator.
func Items(strs []String) []diff.Item {
	items := make([]diff.Item, len(strs))
	for i, s := range strs {
		items[i] = diff.Item{Namespace: s.Namespace, Key: s.Key, Value: s.Value}
	}
	return items
}

// ---------------------------------------------------------------------------
// Discovery
// ---------------------------------------------------------------------------

// Glob expands patterns into a sorted, de-duplicated list of files.
//
// Patterns use filepath.Match syntax. A "**" path element matches any
// number of directories, as in "app/src/**/i18n.json".
func Glob(fs afero.Fs, patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var paths []string
	for _, pattern := range patterns {
		matches, err := glob(fs, filepath.ToSlash(pattern))
		if err != nil {
			return nil, fmt.Errorf("matching %q: %w", pattern, err)
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				paths = append(paths, m)
			}
		}
	}
	sort.Strings(paths)
	return paths, nil
}

func glob(fs afero.Fs, pattern string) ([]string, error) {
	idx := strings.Index(pattern, "**")
	if idx < 0 {
		return afero.Glob(fs, pattern)
	}

	base := strings.TrimSuffix(pattern[:idx], "/")
	if base == "" {
		base = "."
	}
	rest := strings.TrimPrefix(pattern[idx+2:], "/")
	restParts := len(strings.Split(rest, "/"))

	var matches []string
	err := afero.Walk(fs, base, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if info.IsDir() {
			return nil
		}
		parts := strings.Split(filepath.ToSlash(path), "/")
		if len(parts) < restParts {
			return nil
		}
		tail := strings.Join(parts[len(parts)-restParts:], "/")
		ok, err := filepath.Match(rest, tail)
		if err != nil {
			return err
		}
		if ok {
			matches = append(matches, path)
		}
		return nil
	})
	return matches, err
}

// ReadFiles reads every file matched by patterns.
func ReadFiles(fs afero.Fs, patterns []string) ([]*File, error) {
	paths, err := Glob(fs, patterns)
	if err != nil {
		return nil, err
	}

	files := make([]*File, 0, len(paths))
	for _, p := range paths {
		f, err := ParseFile(fs, p)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, nil
}

// ---------------------------------------------------------------------------
// Lint
// ---------------------------------------------------------------------------

// Problem is a lint finding.
type Problem struct {
	Path    string
	Message string
}

// Lint reports files without a namespace and strings defined more than once.
func Lint(files []*File) []Problem {
	var problems []Problem
	for _, f := range files {
		if f.Namespace == "" {
			problems = append(problems, Problem{Path: f.Path, Message: "missing namespace"})
		}
	}
	for _, d := range keyset.Duplicates(Flatten(files), String.ID) {
		problems = append(problems, Problem{
			Path:    d.Path,
			Message: fmt.Sprintf("duplicate string %q", d.ID()),
		})
	}
	return problems
}
