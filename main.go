// Command translatte keeps application strings and their translations in step
// through a chain of migration files.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/ifrcgo/translatte/config"
	"github.com/ifrcgo/translatte/i18n"
	"github.com/ifrcgo/translatte/logger"
	"github.com/ifrcgo/translatte/migration"
)

// Version information (set via -ldflags during build)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// app carries the state shared by every command.
type app struct {
	fs  afero.Fs
	now func() time.Time

	// global flags
	rootDir    string
	configPath string
	logLevel   string
	logFormat  string
	uiLang     string

	proj *config.Project
	log  *slog.Logger
	out  io.Writer
}

func newApp(fs afero.Fs) *app {
	return &app{fs: fs, now: time.Now, log: logger.Discard(), out: io.Discard}
}

// setup runs before every command except version.
func (a *app) setup(cmd *cobra.Command) error {
	i18n.Init(a.uiLang)
	a.out = cmd.OutOrStdout()

	log, err := logger.New(cmd.ErrOrStderr(), logger.Options{
		Level:   a.logLevel,
		Format:  a.logFormat,
		NoColor: os.Getenv("NO_COLOR") != "",
	})
	if err != nil {
		return err
	}
	a.log = log

	proj, err := config.Load(a.fs, a.rootDir, a.configPath)
	if err != nil {
		return err
	}
	a.proj = proj
	a.log.Debug("configuration loaded",
		"root", proj.Root,
		"source", proj.SourceLang,
		"languages", proj.Languages,
		"migrations", proj.MigrationsPath())
	return nil
}

func (a *app) store() *migration.Store {
	return migration.NewStore(a.fs, a.proj.MigrationsPath(), a.proj.OrdinalWidth)
}

// ---------------------------------------------------------------------------
// Root command
// ---------------------------------------------------------------------------

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "translatte",
		Short: "Translation migrations for application strings",
		Long: `translatte keeps application strings and their translations in step.

Source strings live in translation files next to the code. Every change to
them is recorded as a migration file: strings added, removed, updated or
renamed. Migrations are merged, exported and applied to a multi-language
catalog, where source edits mark translations as stale and new strings get
empty placeholders in every language.

Commands:
  status               Show migrations and translation coverage
  lint                 Check translation files for duplicate strings
  generate-migration   Record the changes since the last migration
  list-migrations      List migration files in order
  merge-migrations     Squash a range of migrations into one
  export-migrations    Merge pending migrations into a single file
  apply-migrations     Apply pending migrations to a catalog snapshot
  push-migration       Apply a migration to the translation server
  pull-strings         Download every language from the translation server`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	// Global persistent flags, inherited by all subcommands
	root.PersistentFlags().StringVar(&a.rootDir, "root", ".", "Project root directory")
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "Project file (default <root>/"+config.FileName+")")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&a.logFormat, "log-format", logger.FormatText, "Log format: text, json")
	root.PersistentFlags().StringVar(&a.uiLang, "lang", "", "Language of translatte's own messages")

	root.AddCommand(
		newStatusCmd(a),
		newLintCmd(a),
		newGenerateCmd(a),
		newListCmd(a),
		newMergeCmd(a),
		newExportCmd(a),
		newApplyCmd(a),
		newPushCmd(a),
		newPullCmd(a),
		newVersionCmd(),
	)

	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	a := newApp(afero.NewOsFs())
	err := newRootCmd(a).ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", i18n.T("Error"), err)
		os.Exit(1)
	}
}

// nothingToDo turns migration.ErrNothingToDo into success.
func (a *app) nothingToDo(err error) error {
	if errors.Is(err, migration.ErrNothingToDo) {
		a.log.Info(i18n.T("Nothing to do"))
		return nil
	}
	return err
}

func (a *app) logDiagnostics(diags []migration.Diagnostic) {
	for _, d := range diags {
		a.log.Warn(i18n.T("Soft conflict"),
			"code", d.Code,
			"language", d.Language,
			"action", d.Action.String(),
			"detail", d.Message)
	}
}

// ---------------------------------------------------------------------------
// version (display version information)
// ---------------------------------------------------------------------------

func newVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display version, commit hash, and build date.`,
		// Skips project setup, so version works anywhere.
		PersistentPreRun: func(cmd *cobra.Command, args []string) {},
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "translatte version %s\n", version)
			fmt.Fprintf(out, "  commit:    %s\n", commit)
			fmt.Fprintf(out, "  built:     %s\n", date)
		},
	}

	return cmd
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// parseLanguages splits a comma-separated language list, dropping blanks,
// duplicates and the source language.
func parseLanguages(list []string, source string) ([]string, error) {
	seen := make(map[string]bool)
	var langs []string
	for _, item := range list {
		for _, lang := range strings.Split(item, ",") {
			lang = strings.TrimSpace(lang)
			if lang == "" || lang == source || seen[lang] {
				continue
			}
			if err := config.ValidateLanguage(lang); err != nil {
				return nil, err
			}
			seen[lang] = true
			langs = append(langs, lang)
		}
	}
	return langs, nil
}

// languages returns the --languages flag value, or the project languages
// when the flag is not set.
func (a *app) languages(flag []string) ([]string, error) {
	if len(flag) == 0 {
		return a.proj.Languages, nil
	}
	return parseLanguages(flag, a.proj.SourceLang)
}

// selectRange picks the inclusive range from..to of the chain. An empty
// bound means the first or last migration.
func selectRange(entries []migration.Entry, from, to string) ([]migration.Entry, error) {
	if len(entries) == 0 {
		return nil, migration.ErrNoMigrations
	}
	if from == "" {
		from = entries[0].Name
	}
	if to == "" {
		to = entries[len(entries)-1].Name
	}
	sel, err := migration.Range(entries, from, to)
	if err != nil {
		return nil, err
	}
	if len(sel) < 2 {
		return nil, fmt.Errorf("%w: range %s..%s has %d", migration.ErrNotEnoughMigrations, from, to, len(sel))
	}
	return sel, nil
}

// normalizeName adds the .json extension to a migration name if missing.
func normalizeName(name string) string {
	if name == "" {
		return ""
	}
	return strings.TrimSuffix(filepath.Base(name), migration.Extension) + migration.Extension
}
