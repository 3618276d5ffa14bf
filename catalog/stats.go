package catalog

// Coverage summarizes one language of a catalog against the source
// language.
type Coverage struct {
	Language string
	// Total is the number of source strings.
	Total int
	// Translated rows carry the current source hash.
	Translated int
	// Stale rows have a value translated from an older source text.
	Stale int
	// Untranslated counts empty rows and source strings with no row.
	Untranslated int
	// Orphaned rows have no source string.
	Orphaned int
}

// Percent returns the share of up to date translations.
func (c Coverage) Percent() int {
	if c.Total == 0 {
		return 100
	}
	return c.Translated * 100 / c.Total
}

// Stats computes the coverage of each language. When languages is empty
// every non-source language present in entries is reported.
func Stats(entries []Entry, source string, languages []string) []Coverage {
	if source == "" {
		source = SourceLanguage
	}
	if len(languages) == 0 {
		for _, l := range Languages(entries) {
			if l != source {
				languages = append(languages, l)
			}
		}
	}

	sources := make(map[string]string)
	for _, e := range Filter(entries, source) {
		sources[stringKey(e)] = e.Hash
	}

	byLang := make(map[string]map[string]Entry)
	for _, e := range entries {
		if e.Language == source {
			continue
		}
		if byLang[e.Language] == nil {
			byLang[e.Language] = make(map[string]Entry)
		}
		byLang[e.Language][stringKey(e)] = e
	}

	out := make([]Coverage, 0, len(languages))
	for _, lang := range languages {
		c := Coverage{Language: lang, Total: len(sources)}
		rows := byLang[lang]
		for k, hash := range sources {
			row, ok := rows[k]
			switch {
			case !ok || row.Value == "":
				c.Untranslated++
			case row.Hash == hash:
				c.Translated++
			default:
				c.Stale++
			}
		}
		for k := range rows {
			if _, ok := sources[k]; !ok {
				c.Orphaned++
			}
		}
		out = append(out, c)
	}
	return out
}

// stringKey identifies a string across languages.
func stringKey(e Entry) string {
	return e.Namespace + ":" + e.Key
}
