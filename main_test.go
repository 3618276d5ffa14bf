package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ifrcgo/translatte/catalog"
	"github.com/ifrcgo/translatte/migration"
	"github.com/ifrcgo/translatte/remote"
)

const (
	first  = "000001-1700000000001.json"
	second = "000002-1700000000002.json"
)

// run executes the command line against fs with the clock at ts.
func run(t *testing.T, fs afero.Fs, ts int64, args ...string) (string, error) {
	t.Helper()
	a := newApp(fs)
	a.now = func() time.Time { return time.UnixMilli(ts) }

	var out, errOut bytes.Buffer
	root := newRootCmd(a)
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append([]string{"--root", "/repo", "--lang", "en", "--log-format", "json"}, args...))
	err := root.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, fs afero.Fs, path, body string) {
	t.Helper()
	require.NoError(t, afero.WriteFile(fs, path, []byte(body), 0644))
}

// project writes two translation files, generates the first migration,
// then renames and edits strings and generates the second.
func project(t *testing.T) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/repo/app/src/common/i18n.json", `{"namespace":"common","strings":{"ok":"OK","cancel":"Cancel"}}`)
	writeFile(t, fs, "/repo/app/src/home/i18n.json", `{"namespace":"home","strings":{"title":"Home"}}`)
	_, err := run(t, fs, 1700000000001, "generate-migration")
	require.NoError(t, err)

	writeFile(t, fs, "/repo/app/src/common/i18n.json", `{"namespace":"common","strings":{"ok":"Okay","cancel":"Cancel"}}`)
	writeFile(t, fs, "/repo/app/src/home/i18n.json", `{"namespace":"dashboard","strings":{"title":"Home"}}`)
	_, err = run(t, fs, 1700000000002, "generate-migration")
	require.NoError(t, err)
	return fs
}

func readMigration(t *testing.T, fs afero.Fs, dir, name string) *migration.File {
	t.Helper()
	f, err := migration.NewStore(fs, dir, 0).Read(name)
	require.NoError(t, err)
	return f
}

func TestGenerateMigration(t *testing.T) {
	fs := project(t)

	f1 := readMigration(t, fs, "/repo/translationMigrations", first)
	assert.Equal(t, "", f1.Parent)
	assert.Equal(t, []migration.Action{
		migration.Add("common", "cancel", "Cancel"),
		migration.Add("common", "ok", "OK"),
		migration.Add("home", "title", "Home"),
	}, f1.Actions)

	f2 := readMigration(t, fs, "/repo/translationMigrations", second)
	assert.Equal(t, first, f2.Parent)
	assert.Equal(t, []migration.Action{
		migration.Update("common", "ok", migration.UpdateOptions{NewValue: migration.Ptr("Okay")}),
		migration.Update("home", "title", migration.UpdateOptions{NewNamespace: migration.Ptr("dashboard")}),
	}, f2.Actions)

	out, err := run(t, fs, 1700000000003, "list-migrations")
	require.NoError(t, err)
	assert.Equal(t, first+"\n"+second+"\n", out)
}

func TestGenerateMigrationNothingToDo(t *testing.T) {
	fs := project(t)

	_, err := run(t, fs, 1700000000003, "generate-migration")
	require.NoError(t, err)

	entries, err := migration.NewStore(fs, "/repo/translationMigrations", 0).List()
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestGenerateMigrationDryRun(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/repo/app/src/i18n.json", `{"namespace":"common","strings":{"ok":"OK"}}`)

	out, err := run(t, fs, 1700000000001, "generate-migration", "--dry-run")
	require.NoError(t, err)
	assert.JSONEq(t, `{"actions":[{"action":"add","namespace":"common","key":"ok","value":"OK"}]}`, out)

	exists, err := afero.DirExists(fs, "/repo/translationMigrations")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestGenerateMigrationRejectsDuplicates(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/repo/app/src/a/i18n.json", `{"namespace":"common","strings":{"ok":"OK"}}`)
	writeFile(t, fs, "/repo/app/src/b/i18n.json", `{"namespace":"common","strings":{"ok":"Okay"}}`)

	_, err := run(t, fs, 1700000000001, "generate-migration")
	assert.ErrorContains(t, err, "run lint")

	out, err := run(t, fs, 1700000000001, "lint")
	assert.ErrorContains(t, err, "2 problems found")
	assert.Contains(t, out, `/repo/app/src/a/i18n.json: duplicate string "common:ok"`)
}

func TestMergeMigrations(t *testing.T) {
	fs := project(t)

	_, err := run(t, fs, 1700000000003, "merge-migrations", "--from", first, "--to", "000002-1700000000002")
	require.NoError(t, err)

	entries, err := migration.NewStore(fs, "/repo/translationMigrations", 0).List()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, second, entries[0].Name)

	f := readMigration(t, fs, "/repo/translationMigrations", second)
	assert.Equal(t, "", f.Parent)
	assert.Equal(t, []migration.Action{
		migration.Add("common", "cancel", "Cancel"),
		migration.Add("common", "ok", "Okay"),
		migration.Add("dashboard", "title", "Home"),
	}, f.Actions)

	_, err = run(t, fs, 1700000000004, "merge-migrations")
	assert.ErrorIs(t, err, migration.ErrNotEnoughMigrations)
}

func TestExportMigrations(t *testing.T) {
	fs := project(t)

	_, err := run(t, fs, 1700000000003, "export-migrations", "--last-applied-migration", first, "--output-dir", "/export")
	require.NoError(t, err)

	f := readMigration(t, fs, "/export", second)
	assert.Equal(t, first, f.Parent)
	assert.Len(t, f.Actions, 2)

	_, err = run(t, fs, 1700000000003, "export-migrations", "--last-applied-migration", second, "--output-dir", "/export2")
	require.NoError(t, err)
	exists, err := afero.DirExists(fs, "/export2")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestApplyMigrations(t *testing.T) {
	fs := project(t)

	_, err := run(t, fs, 1700000000003, "apply-migrations", "--destination", "/repo/strings.json", "--languages", "es")
	require.NoError(t, err)

	snap, err := catalog.LoadSnapshot(fs, "/repo/strings.json")
	require.NoError(t, err)
	assert.Equal(t, second, snap.LastMigration)

	okHash := catalog.Hash("Okay")
	assert.Equal(t, []catalog.Entry{
		{Namespace: "common", Key: "cancel", Language: "en", Value: "Cancel", Hash: catalog.Hash("Cancel")},
		{Namespace: "common", Key: "cancel", Language: "es", Value: "", Hash: catalog.Hash("Cancel")},
		{Namespace: "common", Key: "ok", Language: "en", Value: "Okay", Hash: okHash},
		{Namespace: "common", Key: "ok", Language: "es", Value: "", Hash: okHash},
		{Namespace: "dashboard", Key: "title", Language: "en", Value: "Home", Hash: catalog.Hash("Home")},
		{Namespace: "dashboard", Key: "title", Language: "es", Value: "", Hash: catalog.Hash("Home")},
	}, snap.Strings)
}

func TestApplyMigrationsFromSnapshot(t *testing.T) {
	fs := project(t)
	require.NoError(t, catalog.SaveSnapshot(fs, "/repo/base.json", catalog.Snapshot{
		LastMigration: first,
		Strings: []catalog.Entry{
			{Namespace: "common", Key: "cancel", Language: "en", Value: "Cancel", Hash: catalog.Hash("Cancel")},
			{Namespace: "common", Key: "ok", Language: "en", Value: "OK", Hash: catalog.Hash("OK")},
			{Namespace: "home", Key: "title", Language: "en", Value: "Home", Hash: catalog.Hash("Home")},
		},
	}))
	require.NoError(t, catalog.SaveSnapshot(fs, "/repo/es.json", catalog.Snapshot{
		LastMigration: first,
		Strings: []catalog.Entry{
			{Namespace: "common", Key: "ok", Language: "es", Value: "Vale", Hash: catalog.Hash("OK")},
			{Namespace: "home", Key: "title", Language: "es", Value: "Inicio", Hash: catalog.Hash("Home")},
		},
	}))

	_, err := run(t, fs, 1700000000003, "apply-migrations",
		"--source", "/repo/base.json", "--source", "/repo/es.json", "--destination", "/repo/out.json")
	require.NoError(t, err)

	snap, err := catalog.LoadSnapshot(fs, "/repo/out.json")
	require.NoError(t, err)
	assert.Equal(t, second, snap.LastMigration)
	assert.Contains(t, snap.Strings, catalog.Entry{Namespace: "common", Key: "ok", Language: "es", Value: "Vale", Hash: catalog.Hash("OK")})
	assert.Contains(t, snap.Strings, catalog.Entry{Namespace: "dashboard", Key: "title", Language: "es", Value: "Inicio", Hash: catalog.Hash("Home")})
	assert.Contains(t, snap.Strings, catalog.Entry{Namespace: "common", Key: "cancel", Language: "es", Value: "", Hash: catalog.Hash("Cancel")})
	assert.Len(t, snap.Strings, 6)
}

func TestApplyMigrationsRejectsMixedSources(t *testing.T) {
	fs := project(t)
	require.NoError(t, catalog.SaveSnapshot(fs, "/repo/a.json", catalog.Snapshot{LastMigration: first}))
	require.NoError(t, catalog.SaveSnapshot(fs, "/repo/b.json", catalog.Snapshot{LastMigration: second}))

	_, err := run(t, fs, 1700000000003, "apply-migrations",
		"--source", "/repo/a.json", "--source", "/repo/b.json", "--destination", "/repo/out.json")
	assert.ErrorContains(t, err, "last_migration")
}

type fakeServer struct {
	mu      sync.Mutex
	strings map[string][]remote.ServerString
	posted  map[string][]remote.ServerAction
}

func (f *fakeServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	parts := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/v2/language/"), "/"), "/")
	w.Header().Set("Content-Type", "application/json")
	if r.Method == http.MethodPost {
		var body struct {
			Actions []remote.ServerAction `json:"actions"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.posted[parts[0]] = body.Actions
		_, _ = w.Write([]byte(`{}`))
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"code": parts[0], "strings": f.strings[parts[0]]})
}

func TestPushMigrationAndPullStrings(t *testing.T) {
	fs := project(t)
	srv := &fakeServer{
		strings: map[string][]remote.ServerString{
			"en": {{Key: "ok", PageName: "common", Value: "OK", Hash: catalog.Hash("OK")}},
			"es": {{Key: "ok", PageName: "common", Value: "Vale", Hash: catalog.Hash("OK")}},
		},
		posted: make(map[string][]remote.ServerAction),
	}
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	t.Setenv("TRANSLATTE_API_URL", ts.URL)
	t.Setenv("TRANSLATTE_API_TOKEN", "secret")

	out, err := run(t, fs, 1700000000003, "push-migration", second, "--languages", "es", "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, `"action": "set"`)
	assert.Empty(t, srv.posted)

	_, err = run(t, fs, 1700000000003, "push-migration", "000002-1700000000002", "--languages", "es")
	require.NoError(t, err)
	assert.Equal(t, map[string][]remote.ServerAction{
		"en": {{Action: remote.ActionSet, Key: "ok", PageName: "common", Value: "Okay", Hash: catalog.Hash("Okay")}},
	}, srv.posted)

	_, err = run(t, fs, 1700000000003, "pull-strings", "--output", "/repo/pulled.json", "--languages", "es", "--last-migration", second)
	require.NoError(t, err)
	snap, err := catalog.LoadSnapshot(fs, "/repo/pulled.json")
	require.NoError(t, err)
	assert.Equal(t, second, snap.LastMigration)
	assert.Len(t, snap.Strings, 2)
}

func TestPushMigrationRequiresServer(t *testing.T) {
	fs := project(t)
	t.Setenv("TRANSLATTE_API_URL", "")
	t.Setenv("TRANSLATTE_API_TOKEN", "")

	_, err := run(t, fs, 1700000000003, "push-migration", second)
	assert.ErrorContains(t, err, "not configured")
}

func TestVersion(t *testing.T) {
	out, err := run(t, afero.NewMemMapFs(), 0, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "translatte version dev")
}

func TestParseLanguages(t *testing.T) {
	got, err := parseLanguages([]string{"es, fr", "", "en", "es", "ar"}, "en")
	require.NoError(t, err)
	assert.Equal(t, []string{"es", "fr", "ar"}, got)

	_, err = parseLanguages([]string{"not a tag"}, "en")
	assert.Error(t, err)
}

func TestSelectRange(t *testing.T) {
	entries := []migration.Entry{
		{Name: first, Sequence: migration.Sequence{Ordinal: 1, Timestamp: 1700000000001}},
		{Name: second, Sequence: migration.Sequence{Ordinal: 2, Timestamp: 1700000000002}},
		{Name: "000003-1700000000003.json", Sequence: migration.Sequence{Ordinal: 3, Timestamp: 1700000000003}},
	}

	sel, err := selectRange(entries, "", "")
	require.NoError(t, err)
	assert.Len(t, sel, 3)

	sel, err = selectRange(entries, second, "")
	require.NoError(t, err)
	assert.Equal(t, entries[1:], sel)

	_, err = selectRange(entries, second, second)
	assert.ErrorIs(t, err, migration.ErrNotEnoughMigrations)

	_, err = selectRange(nil, "", "")
	assert.ErrorIs(t, err, migration.ErrNoMigrations)

	_, err = selectRange(entries, "000003-1700000000003", first)
	assert.ErrorContains(t, err, "comes before")
}

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "", normalizeName(""))
	assert.Equal(t, first, normalizeName("000001-1700000000001"))
	assert.Equal(t, first, normalizeName("translationMigrations/"+first))
}

func TestStatus(t *testing.T) {
	fs := project(t)
	_, err := run(t, fs, 1700000000003, "apply-migrations", "--destination", "/repo/strings.json", "--languages", "es")
	require.NoError(t, err)

	out, err := run(t, fs, 1700000000003, "status", "--snapshot", "/repo/strings.json", "--languages", "es,fr", "--no-color")
	require.NoError(t, err)
	assert.Contains(t, out, "2 migrations")
	assert.Contains(t, out, "Last migration: "+second)
	assert.Contains(t, out, "español")
	assert.Contains(t, out, "français")
	assert.Contains(t, out, "Source strings: 3")
}

func TestProgressBar(t *testing.T) {
	tests := []struct {
		name    string
		percent int
		color   bool
		want    string
	}{
		{"clamps below zero", -10, true, colorRed + "░░░░" + colorReset + "   0%"},
		{"mid range uses yellow", 50, true, colorYellow + "██░░" + colorReset + "  50%"},
		{"clamps above hundred", 120, true, colorGreen + "████" + colorReset + " 100%"},
		{"plain", 75, false, "███░  75%"},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, progressBar(tc.percent, 4, tc.color), tc.name)
	}
}

func TestLanguageName(t *testing.T) {
	assert.Equal(t, "español", languageName("es"))
	assert.Equal(t, "!!", languageName("!!"))
	assert.Equal(t, "abcdefg…", truncate("abcdefghij", 8))
	assert.Equal(t, "short", truncate("short", 8))
}
