package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"github.com/ifrcgo/translatte/catalog"
	"github.com/ifrcgo/translatte/i18n"
	"github.com/ifrcgo/translatte/migration"
)

// ANSI colors
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[0;31m"
	colorGreen  = "\033[0;32m"
	colorYellow = "\033[1;33m"
)

// ---------------------------------------------------------------------------
// status (read-only: migration chain + per-language coverage)
// ---------------------------------------------------------------------------

func newStatusCmd(a *app) *cobra.Command {
	var (
		snapshot string
		langs    []string
		noColor  bool
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show migrations and translation coverage",
		Long: `Show the migration chain and, given a catalog snapshot, how many strings
of each language are translated, stale or missing.

A translation is stale when it was made for an older source text. Does not
modify any files.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runStatus(snapshot, langs, noColor)
		},
	}

	cmd.Flags().StringVar(&snapshot, "snapshot", "", "Catalog snapshot to report coverage for")
	cmd.Flags().StringSliceVar(&langs, "languages", nil, "Languages to report (default: project file, then snapshot)")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable colored progress bars")

	return cmd
}

func (a *app) runStatus(snapshot string, langFlag []string, noColor bool) error {
	entries, err := a.store().List()
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s %s\n", i18n.T("Migrations directory:"), a.proj.MigrationsPath())
	fmt.Fprintf(a.out, i18n.N("%d migration", "%d migrations", len(entries))+"\n", len(entries))
	if len(entries) > 0 {
		fmt.Fprintf(a.out, "%s %s\n", i18n.T("Last migration:"), entries[len(entries)-1].Name)
	}

	if snapshot == "" {
		return nil
	}
	langs, err := a.languages(langFlag)
	if err != nil {
		return err
	}
	snap, err := catalog.LoadSnapshot(a.fs, snapshot)
	if err != nil {
		return err
	}
	if snap.LastMigration != "" {
		if pending, err := migration.After(entries, snap.LastMigration); err == nil && len(pending) > 0 {
			a.log.Warn(i18n.T("Snapshot is behind the migration chain"),
				"last_migration", snap.LastMigration,
				"pending", len(pending))
		}
	}

	stats := catalog.Stats(snap.Strings, a.proj.SourceLang, langs)
	fmt.Fprintln(a.out)
	fmt.Fprintf(a.out, "%-8s %-22s %-10s %-8s %-8s %s\n",
		i18n.T("Lang"), i18n.T("Name"), i18n.T("Done"), i18n.T("Stale"), i18n.T("Missing"), i18n.T("Progress"))
	fmt.Fprintln(a.out, strings.Repeat("─", 76))
	for _, c := range stats {
		fmt.Fprintf(a.out, "%-8s %-22s %-10d %-8d %-8d %s\n",
			c.Language, truncate(languageName(c.Language), 22), c.Translated, c.Stale, c.Untranslated,
			progressBar(c.Percent(), 20, !noColor))
		if c.Orphaned > 0 {
			a.log.Warn(i18n.T("Translations without a source string"), "language", c.Language, "count", c.Orphaned)
		}
	}
	fmt.Fprintln(a.out, strings.Repeat("─", 76))
	if len(stats) > 0 {
		fmt.Fprintf(a.out, "%s %d\n", i18n.T("Source strings:"), stats[0].Total)
	}
	return nil
}

// languageName returns the native name of a language, or the code itself
// when it is not known.
func languageName(code string) string {
	tag, err := language.Parse(code)
	if err != nil {
		return code
	}
	if name := display.Self.Name(tag); name != "" {
		return name
	}
	return code
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// progressBar renders percent as a bar of width cells followed by the
// number. Red below 50%, yellow below 100%, green when complete.
func progressBar(percent, width int, color bool) string {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	filled := percent * width / 100
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	if color {
		c := colorGreen
		switch {
		case percent < 50:
			c = colorRed
		case percent < 100:
			c = colorYellow
		}
		bar = c + bar + colorReset
	}
	return fmt.Sprintf("%s %3d%%", bar, percent)
}
