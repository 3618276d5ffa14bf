// Package i18n translates translatte's own messages.
//
// It wraps the gotext library to provide simple T() and N() functions.
// Translations are embedded in the binary via //go:embed and loaded at
// startup via Init().
//
// Usage:
//
//	i18n.Init("")  // auto-detect from LANGUAGE/LC_ALL/LC_MESSAGES/LANG
//	log.Info(i18n.T("Migration written"))
//	fmt.Printf(i18n.N("%d problem found", "%d problems found", n), n)
package i18n

import (
	"embed"
	"io/fs"
	"os"
	"sort"
	"strings"

	"github.com/leonelquinteros/gotext"
	"golang.org/x/text/language"
)

// locales embeds the translation files.
// Directory structure: locales/{lang}/LC_MESSAGES/translatte.po
//
//go:embed all:locales
var locales embed.FS

// domain is the gettext domain name.
const domain = "translatte"

// fallback is the language messages are written in.
const fallback = "en"

// po is the gotext locale object used for translations.
var po *gotext.Locale

// Init selects the message language. If lang is empty, it auto-detects
// from the environment variables LANGUAGE, LC_ALL, LC_MESSAGES, LANG
// (in that order, matching GNU gettext behavior). The requested language is
// matched against the embedded ones, so "es_AR" picks "es".
//
// Init should be called once at program startup, before any T() or N() calls.
func Init(lang string) {
	if lang == "" {
		lang = detectLanguage()
	}
	lang = match(lang, Available())

	if lang == fallback {
		po = nil
		return
	}
	po = gotext.NewLocaleFSWithPath(lang, locales, "locales")
	po.AddDomain(domain)
	po.SetDomain(domain)
}

// Available lists the embedded message languages, fallback included.
func Available() []string {
	langs := []string{fallback}
	entries, err := fs.ReadDir(locales, "locales")
	if err != nil {
		return langs
	}
	for _, e := range entries {
		if e.IsDir() && e.Name() != fallback {
			langs = append(langs, e.Name())
		}
	}
	sort.Strings(langs[1:])
	return langs
}

// match picks the best of available for the requested language. available
// must start with the fallback.
func match(requested string, available []string) string {
	tag, err := language.Parse(strings.ReplaceAll(requested, "_", "-"))
	if err != nil {
		return fallback
	}
	tags := make([]language.Tag, len(available))
	for i, a := range available {
		tags[i] = language.Make(a)
	}
	_, idx, conf := language.NewMatcher(tags).Match(tag)
	if conf == language.No {
		return fallback
	}
	return available[idx]
}

// T translates a string. If no translation is available, returns the
// original string unchanged (standard gettext passthrough behavior).
func T(msgid string) string {
	if po == nil {
		return msgid
	}
	return po.Get(msgid)
}

// N translates a string with plural forms. The singular form is used
// when n == 1, the plural form otherwise (exact rules depend on the
// target language's plural formula).
func N(singular, plural string, n int) string {
	if po == nil {
		if n == 1 {
			return singular
		}
		return plural
	}
	return po.GetN(singular, plural, n)
}

// detectLanguage reads environment variables to determine the user's
// preferred language, following GNU gettext conventions.
func detectLanguage() string {
	// GNU gettext priority: LANGUAGE > LC_ALL > LC_MESSAGES > LANG
	for _, env := range []string{"LANGUAGE", "LC_ALL", "LC_MESSAGES", "LANG"} {
		if val := os.Getenv(env); val != "" {
			// LANGUAGE can be a colon-separated list; take the first
			if env == "LANGUAGE" {
				val, _, _ = strings.Cut(val, ":")
			}
			// Strip encoding suffix (e.g. "fr_FR.UTF-8" -> "fr_FR")
			if idx := strings.IndexByte(val, '.'); idx >= 0 {
				val = val[:idx]
			}
			// "C" and "POSIX" mean no translation
			if val == "C" || val == "POSIX" || val == "" {
				continue
			}
			return val
		}
	}
	return fallback
}
