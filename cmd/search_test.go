package cmd

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fastjson"
	"go.uber.org/zap"

	"github.com/gnolang/tgrep/internal/query"
	"github.com/gnolang/tgrep/internal/sink"
	"github.com/gnolang/tgrep/search"
)

func writeDocs(t *testing.T, dir string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("the Unix command line\fUnix"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.json"), []byte(`{"pages": [["no", "match"], ["Unix", "shell"]]}`), 0o644))
}

func testConfig(expr string) search.Config {
	config := search.DefaultConfig()
	config.Query = expr
	config.Context = 1
	return config
}

func TestRunSearch_Terminal(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeDocs(t, dir)

	var buf bytes.Buffer
	n, err := runSearch(context.Background(), zap.NewNop(), testConfig("(= Unix)"), []string{dir},
		searchOutput{w: &buf, compact: true})
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	a := filepath.Join(dir, "a.txt")
	b := filepath.Join(dir, "b.json")
	expected := a + ":0:1: the Unix command\n" +
		a + ":1:0: line Unix\n" +
		b + ":1:0: match Unix shell\n"
	assert.Equal(t, expected, buf.String())
}

func TestRunSearch_JSON(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeDocs(t, dir)

	var buf bytes.Buffer
	n, err := runSearch(context.Background(), zap.NewNop(), testConfig("(within 0 Unix shell)"), []string{dir},
		searchOutput{w: &buf, json: true})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	v, err := fastjson.ParseBytes(buf.Bytes())
	require.NoError(t, err)
	records := v.GetArray()
	require.Len(t, records, 1)
	assert.Equal(t, "shell", string(records[0].GetStringBytes("context_after")))
}

func TestRunSearch_DefaultCSV(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeDocs(t, dir)

	n, err := runSearch(context.Background(), zap.NewNop(), testConfig("(= Unix)"), []string{dir},
		searchOutput{csv: true})
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	f, err := os.Open(filepath.Join(dir, defaultCSVName))
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	assert.Len(t, rows, 4)
	assert.Equal(t, "matched_token", rows[0][3])
}

func TestRunSearch_SQLiteOutput(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeDocs(t, dir)
	out := filepath.Join(t.TempDir(), "matches.db")

	config := testConfig("(= Unix)")
	config.Output = out
	n, err := runSearch(context.Background(), zap.NewNop(), config, []string{dir}, searchOutput{path: out})
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.FileExists(t, out)

	db, err := sink.OpenSQLite(out, "reader")
	require.NoError(t, err)
	defer db.Close()
	got, err := db.Records("reader")
	require.NoError(t, err)
	assert.Empty(t, got, "rows belong to the search run, not the reader")
}

func TestRunSearch_Errors(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeDocs(t, dir)
	var buf bytes.Buffer

	_, err := runSearch(context.Background(), zap.NewNop(), testConfig(""), []string{dir}, searchOutput{w: &buf})
	assert.Error(t, err)

	_, err = runSearch(context.Background(), zap.NewNop(), testConfig("(within a b c)"), []string{dir}, searchOutput{w: &buf})
	assert.ErrorIs(t, err, query.ErrArgument)

	// a broken document is reported after the others are written
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{"), 0o644))
	n, err := runSearch(context.Background(), zap.NewNop(), testConfig("(= Unix)"), []string{dir}, searchOutput{w: &buf})
	assert.Error(t, err)
	assert.Equal(t, 3, n)
}

func TestDefaultCSVPath(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	assert.Equal(t, filepath.Join(dir, defaultCSVName), defaultCSVPath(dir))
	assert.Equal(t, filepath.Join(dir, defaultCSVName), defaultCSVPath(filepath.Join(dir, "doc.txt")))
}

func TestInitConfigurationFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "custom.yaml")
	got, err := initConfigurationFile(path)
	require.NoError(t, err)
	assert.Equal(t, path, got)

	config, err := search.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, search.DefaultConfig(), config)
}
