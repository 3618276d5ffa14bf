// Package config loads the .translatte.yaml project file and the remote
// server settings taken from the environment.
//
// A project file looks like:
//
//	source_lang: en
//	languages: [es, fr, ar]
//	migrations_dir: translationMigrations
//	translations:
//	  - app/src/**/i18n.json
//	ordinal_width: 6
//
// Every key is optional. When no project file exists the defaults are used.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/ifrcgo/translatte/catalog"
	"github.com/ifrcgo/translatte/migration"
)

// FileName is the default project file name.
const FileName = ".translatte.yaml"

// Defaults used for keys missing from the project file.
const (
	DefaultMigrationsDir = "translationMigrations"
	DefaultTranslations  = "app/src/**/i18n.json"
)

// Project is the parsed project file.
type Project struct {
	// SourceLang is the language the application strings are written in.
	SourceLang string `yaml:"source_lang,omitempty"`
	// Languages lists the translation languages, source language excluded.
	Languages []string `yaml:"languages,omitempty"`
	// MigrationsDir holds the migration files, relative to Root.
	MigrationsDir string `yaml:"migrations_dir,omitempty"`
	// Translations are glob patterns for translation files, relative to Root.
	Translations []string `yaml:"translations,omitempty"`
	// OrdinalWidth is the zero padding of migration ordinals.
	OrdinalWidth int `yaml:"ordinal_width,omitempty"`

	// Root is the project directory. Not read from the file.
	Root string `yaml:"-"`
}

// Default returns the configuration used when no project file exists.
func Default(root string) *Project {
	p := &Project{Root: root}
	p.applyDefaults()
	return p
}

func (p *Project) applyDefaults() {
	if p.SourceLang == "" {
		p.SourceLang = catalog.SourceLanguage
	}
	if p.MigrationsDir == "" {
		p.MigrationsDir = DefaultMigrationsDir
	}
	if len(p.Translations) == 0 {
		p.Translations = []string{DefaultTranslations}
	}
	if p.OrdinalWidth == 0 {
		p.OrdinalWidth = migration.DefaultWidth
	}
	if p.Root == "" {
		p.Root = "."
	}
}

// Load reads the project file at path. An empty path means FileName inside
// root, and in that case a missing file yields the defaults. An explicitly
// named file must exist.
func Load(fs afero.Fs, root, path string) (*Project, error) {
	explicit := path != ""
	if !explicit {
		path = filepath.Join(root, FileName)
	}

	data, err := afero.ReadFile(fs, path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return Default(root), nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	p.Root = root
	p.applyDefaults()
	return p, nil
}

// Parse decodes and validates project file data. Unknown keys are rejected.
func Parse(data []byte) (*Project, error) {
	p := &Project{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(p); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing: %w", err)
	}
	p.applyDefaults()
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate checks language codes and numeric settings.
func (p *Project) Validate() error {
	if err := ValidateLanguage(p.SourceLang); err != nil {
		return fmt.Errorf("source_lang: %w", err)
	}
	seen := make(map[string]bool, len(p.Languages))
	for _, lang := range p.Languages {
		if err := ValidateLanguage(lang); err != nil {
			return fmt.Errorf("languages: %w", err)
		}
		if lang == p.SourceLang {
			return fmt.Errorf("languages: %q is the source language", lang)
		}
		if seen[lang] {
			return fmt.Errorf("languages: %q is listed twice", lang)
		}
		seen[lang] = true
	}
	if p.OrdinalWidth < 0 {
		return fmt.Errorf("ordinal_width must be positive, got %d", p.OrdinalWidth)
	}
	return nil
}

// ValidateLanguage reports whether code is a well-formed BCP 47 tag.
// Well-formed tags with subtags missing from the registry are accepted,
// since servers commonly use private codes such as "np".
func ValidateLanguage(code string) error {
	if code == "" {
		return errors.New("empty language code")
	}
	if _, err := language.Parse(code); err != nil {
		var verr language.ValueError
		if errors.As(err, &verr) {
			return nil
		}
		return fmt.Errorf("invalid language code %q: %w", code, err)
	}
	return nil
}

// MigrationsPath returns the migrations directory resolved against Root.
func (p *Project) MigrationsPath() string {
	return p.resolve(p.MigrationsDir)
}

// TranslationPatterns returns the translation globs resolved against Root.
func (p *Project) TranslationPatterns() []string {
	out := make([]string, len(p.Translations))
	for i, pattern := range p.Translations {
		out[i] = p.resolve(pattern)
	}
	return out
}

func (p *Project) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(p.Root, path)
}
