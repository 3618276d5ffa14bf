package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ifrcgo/translatte/apply"
	"github.com/ifrcgo/translatte/catalog"
	"github.com/ifrcgo/translatte/config"
	"github.com/ifrcgo/translatte/diff"
	"github.com/ifrcgo/translatte/i18n"
	"github.com/ifrcgo/translatte/merge"
	"github.com/ifrcgo/translatte/migration"
	"github.com/ifrcgo/translatte/remote"
	"github.com/ifrcgo/translatte/translation"
)

// ---------------------------------------------------------------------------
// lint
// ---------------------------------------------------------------------------

func newLintCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "lint",
		Short: "Check translation files for duplicate strings",
		Long: `Read every translation file and report strings defined more than once
(same namespace and key) and files without a namespace.

Exits with a non-zero status when a problem is found.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runLint()
		},
	}
}

func (a *app) readTranslations() ([]*translation.File, []translation.Problem, error) {
	files, err := translation.ReadFiles(a.fs, a.proj.TranslationPatterns())
	if err != nil {
		return nil, nil, err
	}
	return files, translation.Lint(files), nil
}

func (a *app) runLint() error {
	files, problems, err := a.readTranslations()
	if err != nil {
		return err
	}
	for _, p := range problems {
		fmt.Fprintf(a.out, "%s: %s\n", p.Path, p.Message)
	}
	if len(problems) > 0 {
		return fmt.Errorf(i18n.N("%d problem found", "%d problems found", len(problems)), len(problems))
	}
	a.log.Info(i18n.T("Translation files are valid"),
		"files", len(files),
		"strings", len(translation.Flatten(files)))
	return nil
}

// ---------------------------------------------------------------------------
// generate-migration
// ---------------------------------------------------------------------------

func newGenerateCmd(a *app) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "generate-migration",
		Short: "Record the changes since the last migration",
		Long: `Merge the stored migrations into the catalog they describe, compare it
with the current translation files and write the difference as a new
migration file.

Renames are detected when a string keeps its value and changes only its
namespace or only its key.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.nothingToDo(a.runGenerate(dryRun))
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the migration instead of writing it")

	return cmd
}

// chain reads every stored migration and merges them.
func (a *app) chain(entries []migration.Entry) ([]migration.Action, error) {
	named, err := a.store().ReadAll(entries)
	if err != nil {
		return nil, err
	}
	merged, diags, err := merge.Merge(migration.Files(named))
	if err != nil {
		return nil, err
	}
	a.logDiagnostics(diags)
	return merged, nil
}

func (a *app) runGenerate(dryRun bool) error {
	store := a.store()
	entries, err := store.List()
	if err != nil {
		return err
	}

	merged, err := a.chain(entries)
	if err != nil {
		return err
	}
	previous, err := diff.Baseline(merged)
	if err != nil {
		return err
	}

	files, problems, err := a.readTranslations()
	if err != nil {
		return err
	}
	if len(problems) > 0 {
		for _, p := range problems {
			a.log.Error(p.Message, "file", p.Path)
		}
		return errors.New(i18n.T("translation files have problems, run lint for details"))
	}

	actions := diff.Generate(previous, translation.Items(translation.Flatten(files)))
	if len(actions) == 0 {
		return migration.ErrNothingToDo
	}

	f := migration.File{Actions: actions}
	if len(entries) > 0 {
		f.Parent = entries[len(entries)-1].Name
	}
	name := store.NextName(entries, a.now())

	if dryRun {
		return a.print(f)
	}
	if err := store.Write(name, f); err != nil {
		return err
	}
	a.log.Info(i18n.T("Migration written"), "name", name, "actions", len(actions))
	return nil
}

// ---------------------------------------------------------------------------
// list-migrations
// ---------------------------------------------------------------------------

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list-migrations",
		Short: "List migration files in order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := a.store().List()
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				a.log.Info(i18n.T("No migration files found"), "dir", a.proj.MigrationsPath())
				return nil
			}
			for _, e := range entries {
				fmt.Fprintln(a.out, e.Name)
			}
			return nil
		},
	}
}

// ---------------------------------------------------------------------------
// merge-migrations
// ---------------------------------------------------------------------------

func newMergeCmd(a *app) *cobra.Command {
	var (
		from   string
		to     string
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "merge-migrations",
		Short: "Squash a range of migrations into one",
		Long: `Merge the migrations from --from to --to (inclusive) into a single file.

The result replaces the --to file and keeps the parent of the --from file;
the other files of the range are deleted. Without --from or --to the range
starts at the first or ends at the last migration.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runMerge(from, to, dryRun)
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "First migration of the range")
	cmd.Flags().StringVar(&to, "to", "", "Last migration of the range")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the merged migration instead of writing it")

	return cmd
}

func (a *app) runMerge(from, to string, dryRun bool) error {
	store := a.store()
	entries, err := store.List()
	if err != nil {
		return err
	}
	sel, err := selectRange(entries, from, to)
	if err != nil {
		return err
	}

	named, err := store.ReadAll(sel)
	if err != nil {
		return err
	}
	merged, diags, err := merge.Merge(migration.Files(named))
	if err != nil {
		return err
	}
	a.logDiagnostics(diags)

	f := migration.File{Parent: named[0].Parent, Actions: merged}
	last := sel[len(sel)-1].Name

	if dryRun {
		return a.print(f)
	}
	if err := store.Write(last, f); err != nil {
		return err
	}
	for _, e := range sel[:len(sel)-1] {
		if err := store.Remove(e.Name); err != nil {
			return err
		}
	}
	a.log.Info(i18n.T("Migrations merged"), "into", last, "files", len(sel), "actions", len(merged))
	return nil
}

// ---------------------------------------------------------------------------
// export-migrations
// ---------------------------------------------------------------------------

func newExportCmd(a *app) *cobra.Command {
	var (
		lastApplied string
		outputDir   string
	)

	cmd := &cobra.Command{
		Use:   "export-migrations",
		Short: "Merge pending migrations into a single file",
		Long: `Merge every migration after --last-applied-migration and write the
result to --output-dir. The file takes the name of the last pending
migration and records the last applied one as its parent.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.nothingToDo(a.runExport(lastApplied, outputDir))
		},
	}

	cmd.Flags().StringVar(&lastApplied, "last-applied-migration", "", "Last migration already applied (empty: none)")
	cmd.Flags().StringVar(&outputDir, "output-dir", "", "Directory to write the exported migration to")
	_ = cmd.MarkFlagRequired("output-dir")

	return cmd
}

func (a *app) runExport(lastApplied, outputDir string) error {
	entries, err := a.store().List()
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return migration.ErrNoMigrations
	}
	lastApplied = normalizeName(lastApplied)
	pending, err := migration.After(entries, lastApplied)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		return migration.ErrNothingToDo
	}

	merged, err := a.chain(pending)
	if err != nil {
		return err
	}

	name := pending[len(pending)-1].Name
	out := migration.NewStore(a.fs, outputDir, a.proj.OrdinalWidth)
	if err := out.Write(name, migration.File{Parent: lastApplied, Actions: merged}); err != nil {
		return err
	}
	a.log.Info(i18n.T("Migrations exported"), "path", out.Path(name), "files", len(pending), "actions", len(merged))
	return nil
}

// ---------------------------------------------------------------------------
// apply-migrations
// ---------------------------------------------------------------------------

func newApplyCmd(a *app) *cobra.Command {
	var (
		sources     []string
		destination string
		langs       []string
		dryRun      bool
	)

	cmd := &cobra.Command{
		Use:   "apply-migrations",
		Short: "Apply pending migrations to a catalog snapshot",
		Long: `Load the catalog from one or more --source snapshots, apply every
migration after their last_migration and write the result to
--destination.

Source language edits keep translations but leave them with a stale hash.
Every source string gets an empty placeholder in each language that has no
translation for it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runApply(sources, destination, langs, dryRun)
		},
	}

	cmd.Flags().StringArrayVar(&sources, "source", nil, "Catalog snapshot to start from (repeatable)")
	cmd.Flags().StringVar(&destination, "destination", "", "Snapshot file to write")
	cmd.Flags().StringSliceVar(&langs, "languages", nil, "Languages to fill (default from project file)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the snapshot instead of writing it")
	_ = cmd.MarkFlagRequired("destination")

	return cmd
}

// loadSources reads the snapshots and checks they were taken at the same
// migration.
func (a *app) loadSources(paths []string) (string, []catalog.Entry, error) {
	var (
		last     string
		catalogs [][]catalog.Entry
	)
	for i, p := range paths {
		s, err := catalog.LoadSnapshot(a.fs, p)
		if err != nil {
			return "", nil, err
		}
		if i > 0 && s.LastMigration != last {
			return "", nil, fmt.Errorf("%s: last_migration %q differs from %q in %s", p, s.LastMigration, last, paths[0])
		}
		last = s.LastMigration
		catalogs = append(catalogs, s.Strings)
	}
	return last, catalog.Union(catalogs...), nil
}

func (a *app) runApply(sources []string, destination string, langFlag []string, dryRun bool) error {
	langs, err := a.languages(langFlag)
	if err != nil {
		return err
	}
	last, current, err := a.loadSources(sources)
	if err != nil {
		return err
	}

	store := a.store()
	entries, err := store.List()
	if err != nil {
		return err
	}
	pending, err := migration.After(entries, last)
	if err != nil {
		return err
	}
	named, err := store.ReadAll(pending)
	if err != nil {
		return err
	}

	res := apply.Chain(current, current, migration.Files(named), apply.Options{
		SourceLanguage: a.proj.SourceLang,
		Languages:      langs,
	})
	a.logDiagnostics(res.Diagnostics)

	snap := catalog.Snapshot{LastMigration: last, Strings: res.Strings}
	if len(pending) > 0 {
		snap.LastMigration = pending[len(pending)-1].Name
	}

	if dryRun {
		return a.print(snap)
	}
	if err := catalog.SaveSnapshot(a.fs, destination, snap); err != nil {
		return err
	}
	a.log.Info(i18n.T("Snapshot written"),
		"path", destination,
		"migrations", len(pending),
		"strings", len(snap.Strings),
		"last_migration", snap.LastMigration)
	return nil
}

// ---------------------------------------------------------------------------
// push-migration
// ---------------------------------------------------------------------------

func newPushCmd(a *app) *cobra.Command {
	var (
		langs  []string
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "push-migration <name>",
		Short: "Apply a migration to the translation server",
		Long: `Fetch the strings of every language from the translation server, apply
one migration to them and post the resulting changes back.

The server is configured through TRANSLATTE_API_URL, TRANSLATTE_API_TOKEN,
TRANSLATTE_TIMEOUT and TRANSLATTE_MAX_CONCURRENT, read from the environment
or from <root>/.env.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.nothingToDo(a.runPush(cmd, args[0], langs, dryRun))
		},
	}

	cmd.Flags().StringSliceVar(&langs, "languages", nil, "Languages to update (default from project file)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the server actions instead of posting them")

	return cmd
}

func (a *app) remote() (*remote.Client, error) {
	cfg, err := config.LoadRemote(filepath.Join(a.rootDir, ".env"))
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return remote.New(cfg.URL, cfg.Token, cfg.Timeout, cfg.MaxConcurrent), nil
}

func (a *app) runPush(cmd *cobra.Command, name string, langFlag []string, dryRun bool) error {
	langs, err := a.languages(langFlag)
	if err != nil {
		return err
	}
	f, err := a.store().Read(normalizeName(name))
	if err != nil {
		return err
	}
	client, err := a.remote()
	if err != nil {
		return err
	}

	all := append([]string{a.proj.SourceLang}, langs...)
	before, err := client.FetchAll(cmd.Context(), all)
	if err != nil {
		return err
	}
	a.log.Debug("strings fetched", "languages", len(all), "strings", len(before))

	res := apply.Apply(before, before, f.Actions, apply.Options{
		SourceLanguage: a.proj.SourceLang,
		Languages:      langs,
	})
	a.logDiagnostics(res.Diagnostics)

	batches := remote.BuildActions(before, res.Strings)
	if remote.Count(batches) == 0 {
		return migration.ErrNothingToDo
	}
	if dryRun {
		return a.print(batches)
	}
	if err := client.PostAll(cmd.Context(), batches); err != nil {
		return err
	}
	a.log.Info(i18n.T("Migration pushed"), "name", normalizeName(name), "languages", len(batches), "actions", remote.Count(batches))
	return nil
}

// ---------------------------------------------------------------------------
// pull-strings
// ---------------------------------------------------------------------------

func newPullCmd(a *app) *cobra.Command {
	var (
		output        string
		langs         []string
		lastMigration string
	)

	cmd := &cobra.Command{
		Use:   "pull-strings",
		Short: "Download every language from the translation server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runPull(cmd, output, langs, lastMigration)
		},
	}

	cmd.Flags().StringVar(&output, "output", "", "Snapshot file to write")
	cmd.Flags().StringSliceVar(&langs, "languages", nil, "Languages to download (default from project file)")
	cmd.Flags().StringVar(&lastMigration, "last-migration", "", "Migration the server is known to be at")
	_ = cmd.MarkFlagRequired("output")

	return cmd
}

func (a *app) runPull(cmd *cobra.Command, output string, langFlag []string, lastMigration string) error {
	langs, err := a.languages(langFlag)
	if err != nil {
		return err
	}
	client, err := a.remote()
	if err != nil {
		return err
	}

	strs, err := client.FetchAll(cmd.Context(), append([]string{a.proj.SourceLang}, langs...))
	if err != nil {
		return err
	}
	snap := catalog.Snapshot{LastMigration: normalizeName(lastMigration), Strings: strs}
	if err := catalog.SaveSnapshot(a.fs, output, snap); err != nil {
		return err
	}
	a.log.Info(i18n.T("Snapshot written"), "path", output, "strings", len(strs))
	return nil
}

// print writes v as indented JSON to the command output.
func (a *app) print(v any) error {
	data, err := catalog.MarshalJSON(v)
	if err != nil {
		return err
	}
	_, err = a.out.Write(data)
	return err
}
