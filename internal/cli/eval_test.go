package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/codd/internal/testutil"
)

func TestEval_Sample(t *testing.T) {
	out, err := execute(t, "", "eval", "E ? salary > 85000 # name")
	require.NoError(t, err)
	assert.Equal(t, "+------+\n| name |\n+------+\n| Dave |\n+------+\n", out)
}

func TestEval_Sequence(t *testing.T) {
	out, err := execute(t, "", "eval", "E # [name salary] $ salary- ^ 1")
	require.NoError(t, err)
	assert.Equal(t, "+------+--------+\n| name | salary |\n+------+--------+\n| Dave | 90000  |\n+------+--------+\n", out)
}

func TestEval_Scalar(t *testing.T) {
	out, err := execute(t, "", "eval", "--scalar", "+. E.salary")
	require.NoError(t, err)
	assert.Equal(t, "330000\n", out)
}

func TestEval_FilesAndAliases(t *testing.T) {
	dir := t.TempDir()
	people := testutil.WriteFile(t, dir, "people.csv", "name,dept\nAnn,x\nBen,y\n")
	depts := testutil.WriteFile(t, dir, "d.csv", "dept,title\nx,Ops\n")

	out, err := execute(t, "", "eval", "people * Depts # [name title]", people, "--as", "Depts="+depts, "--no-sample")
	require.NoError(t, err)
	assert.Contains(t, out, "| Ann  | Ops   |")
	assert.NotContains(t, out, "Ben")
}

func TestEval_GenKey(t *testing.T) {
	path := testutil.WriteFile(t, t.TempDir(), "items.csv", "name\napple\napple\n")

	out, err := execute(t, "", "--format", "json", "eval", "#. items", "--scalar", path, "--genkey", "item")
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"ok","data":{"kind":"scalar","value":2}}`, out)
}

func TestEval_Stdin(t *testing.T) {
	out, err := execute(t, "name\nAnn\n", "eval", "stdin # name", "-", "--no-sample")
	require.NoError(t, err)
	assert.Contains(t, out, "| Ann  |")
}

func TestEval_JSON(t *testing.T) {
	out, err := execute(t, "", "--format", "json", "eval", "E ? name = \"Bob\" # [name salary]")
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	data := resp.Data.(map[string]any)
	assert.Equal(t, "relation", data["kind"])
	assert.Equal(t, []any{"name", "salary"}, data["attributes"])
	assert.Equal(t, []any{map[string]any{"name": "Bob", "salary": float64(60000)}}, data["tuples"])
}

func TestEval_QueryErrors(t *testing.T) {
	tests := []struct {
		name string
		expr string
		code string
	}{
		{"lex", `E ? name = "open`, ErrCodeLex},
		{"parse", "E ?", ErrCodeParse},
		{"exec", "Nope", ErrCodeExec},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, "", "--format", "json", "eval", tt.expr)
			require.Error(t, err)
			assert.Equal(t, ExitFailure, GetExitCode(err))

			var resp CLIResponse
			require.NoError(t, json.Unmarshal([]byte(out), &resp))
			assert.Equal(t, "error", resp.Status)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
		})
	}
}

func TestEval_TextError(t *testing.T) {
	out, err := execute(t, "", "eval", "Nope")
	require.Error(t, err)
	assert.Equal(t, "Error [E103]: unknown relation: \"Nope\"\n", out)
}

func TestEval_MaxTuples(t *testing.T) {
	_, err := execute(t, "", "eval", "(E # name) * (D # dept_name) * (Phone # phone)", "--max-tuples", "10")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "more than the limit of 10")
}

func TestEval_MissingFile(t *testing.T) {
	out, err := execute(t, "", "eval", "E", filepath.Join(t.TempDir(), "none.csv"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E002]: file not found")
}

func TestEval_BadAlias(t *testing.T) {
	_, err := execute(t, "", "eval", "E", "--as", "nopath")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestEval_MissingArgs(t *testing.T) {
	_, err := execute(t, "", "eval")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires at least 1 arg")
}

func TestCheck(t *testing.T) {
	out, err := execute(t, "", "check", "high := E ? salary > 70000  # [name  salary]")
	require.NoError(t, err)
	assert.Equal(t, "high := E ? salary > 70000 # [name salary]\n", out)

	out, err = execute(t, "", "--format", "json", "check", "E # name")
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"ok","data":{"valid":true,"canonical":"E # name"}}`, out)
}

func TestCheck_Error(t *testing.T) {
	out, err := execute(t, "", "--format", "json", "check", "E ?")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeParse, resp.Error.Code)
	assert.Contains(t, resp.Error.Details, "line")
}
