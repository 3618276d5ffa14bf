package translation

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ifrcgo/translatte/diff"
)

func writeFile(t *testing.T, fs afero.Fs, path, body string) {
	t.Helper()
	require.NoError(t, afero.WriteFile(fs, path, []byte(body), 0644))
}

func TestParsePreservesKeyOrder(t *testing.T) {
	f, err := Parse([]byte(`{"namespace":"login","strings":{"zeta":"Z","alpha":"A","mid":"M"}}`))
	require.NoError(t, err)
	assert.Equal(t, "login", f.Namespace)
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, f.Keys())
	assert.Equal(t, "A", f.Strings["alpha"])
}

func TestParseErrors(t *testing.T) {
	_, err := Parse([]byte(`{`))
	assert.ErrorContains(t, err, "parsing JSON")

	_, err = Parse([]byte(`{"namespace":"n","strings":{"k":1}}`))
	assert.ErrorContains(t, err, `expected string value for key "k"`)

	_, err = Parse([]byte(`{"namespace":"n","strings":["k"]}`))
	assert.ErrorContains(t, err, "expected {")

	f, err := Parse([]byte(`{"namespace":"n"}`))
	require.NoError(t, err)
	assert.Empty(t, f.Keys())
}

func TestGlobAndReadFiles(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/repo/app/src/views/Login/i18n.json", `{"namespace":"login","strings":{"header":"Login"}}`)
	writeFile(t, fs, "/repo/app/src/views/Home/components/Hero/i18n.json", `{"namespace":"hero","strings":{"title":"Hero"}}`)
	writeFile(t, fs, "/repo/app/src/views/Home/other.json", `{}`)
	writeFile(t, fs, "/repo/app/src/i18n.json", `{"namespace":"common","strings":{"ok":"OK"}}`)

	paths, err := Glob(fs, []string{"/repo/app/src/**/i18n.json", "/repo/app/src/i18n.json"})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"/repo/app/src/i18n.json",
		"/repo/app/src/views/Home/components/Hero/i18n.json",
		"/repo/app/src/views/Login/i18n.json",
	}, paths)

	files, err := ReadFiles(fs, []string{"/repo/app/src/views/*/i18n.json"})
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "login", files[0].Namespace)
	assert.Equal(t, "/repo/app/src/views/Login/i18n.json", files[0].Path)

	none, err := Glob(fs, []string{"/missing/**/i18n.json"})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestFlattenAndItems(t *testing.T) {
	a, err := Parse([]byte(`{"namespace":"a","strings":{"y":"Y","x":"X"}}`))
	require.NoError(t, err)
	a.Path = "a.json"

	strs := Flatten([]*File{a})
	assert.Equal(t, []String{
		{Path: "a.json", Namespace: "a", Key: "y", Value: "Y"},
		{Path: "a.json", Namespace: "a", Key: "x", Value: "X"},
	}, strs)
	assert.Equal(t, []diff.Item{{Namespace: "a", Key: "y", Value: "Y"}, {Namespace: "a", Key: "x", Value: "X"}}, Items(strs))
}

func TestLintReportsDuplicatesRegardlessOfValue(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/src/one/i18n.json", `{"namespace":"shared","strings":{"title":"Title","same":"S"}}`)
	writeFile(t, fs, "/src/two/i18n.json", `{"namespace":"shared","strings":{"title":"Other title","same":"S","unique":"U"}}`)
	writeFile(t, fs, "/src/three/i18n.json", `{"strings":{"k":"v"}}`)

	files, err := ReadFiles(fs, []string{"/src/**/i18n.json"})
	require.NoError(t, err)

	problems := Lint(files)
	assert.Equal(t, []Problem{
		{Path: "/src/three/i18n.json", Message: "missing namespace"},
		{Path: "/src/one/i18n.json", Message: `duplicate string "shared:same"`},
		{Path: "/src/two/i18n.json", Message: `duplicate string "shared:same"`},
		{Path: "/src/one/i18n.json", Message: `duplicate string "shared:title"`},
		{Path: "/src/two/i18n.json", Message: `duplicate string "shared:title"`},
	}, problems)
}
