// Package apply replays migrations against a multi-language catalog.
//
// The source language carries the authored strings: adds and value updates
// compute a fresh hash. Every other language only moves existing
// translations around. Their values and hashes are copied from the server
// catalog (or from the working catalog when the server has nothing), so a
// translation keeps the hash of the source string it was made from and
// stale translations stay detectable.
package apply

import (
	"sort"

	"github.com/ifrcgo/translatte/catalog"
	"github.com/ifrcgo/translatte/migration"
)

// Options configures a replay.
type Options struct {
	// SourceLanguage defaults to "en".
	SourceLanguage string
	// Languages are the translation languages to produce.
	Languages []string
}

func (o Options) source() string {
	if o.SourceLanguage == "" {
		return catalog.SourceLanguage
	}
	return o.SourceLanguage
}

// languages returns the source language first, then every other language
// requested or present in entries, sorted.
func (o Options) languages(entries []catalog.Entry) []string {
	src := o.source()
	seen := map[string]bool{src: true}
	var others []string
	add := func(lang string) {
		if lang != "" && !seen[lang] {
			seen[lang] = true
			others = append(others, lang)
		}
	}
	for _, l := range o.Languages {
		add(l)
	}
	for _, e := range entries {
		add(e.Language)
	}
	sort.Strings(others)
	return append([]string{src}, others...)
}

// Result is the output of a replay.
type Result struct {
	Strings     []catalog.Entry
	Diagnostics []migration.Diagnostic
}

// Apply runs one migration's actions against current. server is the
// catalog translations are copied from. Neither input is modified.
func Apply(current, server []catalog.Entry, actions []migration.Action, opts Options) Result {
	serverIdx := make(map[string]catalog.Entry, len(server))
	for _, e := range server {
		serverIdx[e.ID()] = e
	}

	byLang := make(map[string]map[string]catalog.Entry)
	for _, e := range current {
		if byLang[e.Language] == nil {
			byLang[e.Language] = make(map[string]catalog.Entry)
		}
		byLang[e.Language][e.ID()] = e
	}

	var res Result
	src := opts.source()
	for _, lang := range opts.languages(current) {
		p := newPass(lang, lang == src, byLang[lang], serverIdx)
		for _, a := range actions {
			p.run(a)
		}
		res.Strings = append(res.Strings, p.layer()...)
		res.Diagnostics = append(res.Diagnostics, p.diags...)
	}

	if res.Strings == nil {
		res.Strings = []catalog.Entry{}
	}
	catalog.Sort(res.Strings)
	return res
}

// Chain applies files in order, threading each output into the next call,
// then fills placeholders for every language.
func Chain(current, server []catalog.Entry, files []migration.File, opts Options) Result {
	var res Result
	state := current
	for _, f := range files {
		r := Apply(state, server, f.Actions, opts)
		state = r.Strings
		res.Diagnostics = append(res.Diagnostics, r.Diagnostics...)
	}

	langs := opts.languages(state)
	res.Strings = FillPlaceholders(state, langs[1:], opts.source())
	return res
}

// FillPlaceholders adds an empty row, carrying the source hash, for every
// source string that has no row in one of languages. The result is sorted.
func FillPlaceholders(entries []catalog.Entry, languages []string, source string) []catalog.Entry {
	if source == "" {
		source = catalog.SourceLanguage
	}

	out := make([]catalog.Entry, len(entries))
	copy(out, entries)

	have := make(map[string]bool, len(entries))
	for _, e := range entries {
		have[e.ID()] = true
	}

	sources := catalog.Filter(entries, source)
	seen := make(map[string]bool)
	for _, lang := range languages {
		if lang == source || seen[lang] {
			continue
		}
		seen[lang] = true
		for _, s := range sources {
			id := catalog.ID(s.Namespace, s.Key, lang)
			if have[id] {
				continue
			}
			out = append(out, catalog.Entry{
				Namespace: s.Namespace,
				Key:       s.Key,
				Language:  lang,
				Value:     "",
				Hash:      s.Hash,
			})
		}
	}

	catalog.Sort(out)
	return out
}
