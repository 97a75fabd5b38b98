package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkarlsen/emtab/internal/ir"
)

// execute runs the root command with the given args and returns its combined
// stdout plus the execution error.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCompileCommandText(t *testing.T) {
	out, err := execute(t, "compile", "testdata/demo.yaml")
	require.NoError(t, err)

	assert.Contains(t, out, "compiled demo")
}

func TestCompileCommandJSON(t *testing.T) {
	out, err := execute(t, "--format", "json", "compile", "testdata/demo.yaml")
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Empty(t, resp.Diagnostics)
}

func TestCompileCommandWritesCanonicalOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tables.json")

	_, err := execute(t, "compile", "testdata/demo.yaml", "-o", path)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	compiled, err := ir.UnmarshalCanonical(data)
	require.NoError(t, err)
	assert.Equal(t, "demo", compiled.Model)
	assert.NotNil(t, compiled.Table("trade_links"))
	assert.NotNil(t, compiled.Table("emission_caps"))
}

func TestCompileCommandOutputDeterministic(t *testing.T) {
	dir := t.TempDir()
	p1 := filepath.Join(dir, "a.json")
	p2 := filepath.Join(dir, "b.json")

	_, err := execute(t, "compile", "testdata/demo.yaml", "-o", p1)
	require.NoError(t, err)
	_, err = execute(t, "compile", "testdata/demo.yaml", "-o", p2)
	require.NoError(t, err)

	d1, err := os.ReadFile(p1)
	require.NoError(t, err)
	d2, err := os.ReadFile(p2)
	require.NoError(t, err)
	assert.Equal(t, d1, d2)
}

func TestCompileCommandReferenceFailure(t *testing.T) {
	out, err := execute(t, "compile", "testdata/bad_reference.yaml")
	require.Error(t, err)

	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, ErrCodeCompile)
	assert.Contains(t, out, "E101")
}

func TestCompileCommandMissingFile(t *testing.T) {
	out, err := execute(t, "compile", "testdata/nope.yaml")
	require.Error(t, err)

	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, ErrCodeLoad)
}

func TestCompileAndListRuns(t *testing.T) {
	db := filepath.Join(t.TempDir(), "emtab.db")

	out, err := execute(t, "compile", "testdata/demo.yaml", "--store", db)
	require.NoError(t, err)
	assert.Contains(t, out, "run ")

	listing, err := execute(t, "runs", "--store", db)
	require.NoError(t, err)
	assert.Contains(t, listing, "demo")
}

func TestRunsCommandEmptyStore(t *testing.T) {
	db := filepath.Join(t.TempDir(), "emtab.db")

	out, err := execute(t, "runs", "--store", db)
	require.NoError(t, err)
	assert.Contains(t, out, "no runs recorded")
}

func TestValidateCommandAcceptsCompiledOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tables.json")
	_, err := execute(t, "compile", "testdata/demo.yaml", "-o", path)
	require.NoError(t, err)

	out, err := execute(t, "validate", path)
	require.NoError(t, err)
	assert.Contains(t, out, "valid: demo")
}

func TestValidateCommandRejectsWidePivot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tables.json")
	doc := `{"model":"m","regions":["north"],"years":[2020],"tables":[` +
		`{"name":"demand","keys":[],"numeric":[],"time_series":false,` +
		`"rows":[{"commodity":"heat","2020":1}]}]}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	out, err := execute(t, "validate", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "E121")
}

func TestValidateCommandRejectsMalformedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tables.json")
	require.NoError(t, os.WriteFile(path, []byte("{nope"), 0o644))

	_, err := execute(t, "validate", path)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRootRejectsUnknownFormat(t *testing.T) {
	_, err := execute(t, "--format", "xml", "compile", "testdata/demo.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "xml")
}

func TestGetExitCodeDefaultsToFailure(t *testing.T) {
	assert.Equal(t, ExitFailure, GetExitCode(assert.AnError))
	assert.Equal(t, ExitCommandError, GetExitCode(&ExitError{Code: ExitCommandError}))
}
