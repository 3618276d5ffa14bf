package migration

import (
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNameAndFileName(t *testing.T) {
	seq, err := ParseName("000004-1700000000123.json")
	require.NoError(t, err)
	assert.Equal(t, Sequence{Ordinal: 4, Timestamp: 1700000000123}, seq)
	assert.Equal(t, "000004-1700000000123.json", seq.FileName(6))
	assert.Equal(t, "004-1700000000123.json", seq.FileName(3))
	assert.Equal(t, "000004-1700000000123.json", seq.FileName(0))

	for _, bad := range []string{"xyz-1700000000000.json", "000001-1700000000000", "000001.json", "1-2.json.bak", "a000001-1.json"} {
		_, err := ParseName(bad)
		assert.Error(t, err, bad)
	}
}

func TestSequenceCompareAndNext(t *testing.T) {
	a := Sequence{Ordinal: 9, Timestamp: 5}
	b := Sequence{Ordinal: 10, Timestamp: 1}
	assert.Equal(t, -1, a.Compare(b))
	assert.Equal(t, 1, b.Compare(a))
	assert.Equal(t, 0, a.Compare(a))
	assert.Equal(t, -1, Sequence{Ordinal: 1, Timestamp: 1}.Compare(Sequence{Ordinal: 1, Timestamp: 2}))

	now := time.UnixMilli(1700000000999)
	assert.Equal(t, Sequence{Ordinal: 11, Timestamp: 1700000000999}, b.Next(now))
}

func TestStoreListIgnoresMalformedNames(t *testing.T) {
	fs := afero.NewMemMapFs()
	names := []string{
		"000003-1700000000003.json",
		"000001-1700000000001.json",
		"000005-1700000000005.json",
		"000002-1700000000002.json",
		"000004-1700000000004.json",
		"xyz-1700000000006.json",
		"000007-1700000000007",
		"migration.json",
		"README.md",
	}
	for _, n := range names {
		require.NoError(t, afero.WriteFile(fs, "/migrations/"+n, []byte(`{"actions":[]}`), 0644))
	}
	require.NoError(t, fs.MkdirAll("/migrations/000008-1700000000008.json", 0755))

	store := NewStore(fs, "/migrations", 6)
	entries, err := store.List()
	require.NoError(t, err)

	var got []string
	for _, e := range entries {
		got = append(got, e.Name)
	}
	assert.Equal(t, []string{
		"000001-1700000000001.json",
		"000002-1700000000002.json",
		"000003-1700000000003.json",
		"000004-1700000000004.json",
		"000005-1700000000005.json",
	}, got)
}

func TestStoreListOrdersByOrdinalNotText(t *testing.T) {
	fs := afero.NewMemMapFs()
	for _, n := range []string{"10-1700000000010.json", "9-1700000000009.json"} {
		require.NoError(t, afero.WriteFile(fs, "/m/"+n, []byte(`{"actions":[]}`), 0644))
	}
	entries, err := NewStore(fs, "/m", 0).List()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "9-1700000000009.json", entries[0].Name)
}

func TestStoreListMissingDir(t *testing.T) {
	entries, err := NewStore(afero.NewMemMapFs(), "/nope", 6).List()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestStoreWriteReadRemove(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := NewStore(fs, "/m", 6)

	name := store.NextName(nil, time.UnixMilli(1700000000000))
	assert.Equal(t, "000001-1700000000000.json", name)

	f := File{Actions: []Action{Add("login", "header", "Login")}}
	require.NoError(t, store.Write(name, f))

	entries, err := store.List()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "000002-1700000000500.json", store.NextName(entries, time.UnixMilli(1700000000500)))

	named, err := store.ReadAll(entries)
	require.NoError(t, err)
	require.Len(t, named, 1)
	assert.Equal(t, f.Actions, named[0].Actions)
	assert.Empty(t, named[0].Parent)
	assert.Len(t, Files(named), 1)

	require.NoError(t, store.Remove(name))
	_, err = store.Read(name)
	assert.Error(t, err)
}

func TestStoreReadRejectsInvalidFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	body := `{"actions":[{"action":"add","namespace":"a","key":"b","value":"1"},{"action":"add","namespace":"a","key":"b","value":"2"}]}`
	require.NoError(t, afero.WriteFile(fs, "/m/000001-1.json", []byte(body), 0644))

	_, err := NewStore(fs, "/m", 6).Read("000001-1.json")
	assert.ErrorContains(t, err, "duplicate add")
}

func TestAfterAndRange(t *testing.T) {
	entries := []Entry{{Name: "01-1.json"}, {Name: "02-2.json"}, {Name: "03-3.json"}, {Name: "04-4.json"}}

	after, err := After(entries, "02-2")
	require.NoError(t, err)
	assert.Equal(t, entries[2:], after)

	all, err := After(entries, "")
	require.NoError(t, err)
	assert.Len(t, all, 4)

	_, err = After(entries, "09-9.json")
	assert.Error(t, err)

	r, err := Range(entries, "02-2.json", "04-4")
	require.NoError(t, err)
	assert.Equal(t, entries[1:], r)

	_, err = Range(entries, "04-4.json", "02-2.json")
	assert.ErrorContains(t, err, "comes before")

	_, err = Range(entries, "01-1.json", "missing.json")
	assert.Error(t, err)
}
