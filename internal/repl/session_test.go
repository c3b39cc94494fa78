package repl

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/codd/internal/engine"
	"github.com/roach88/codd/internal/model"
	"github.com/roach88/codd/internal/sample"
	"github.com/roach88/codd/internal/store"
	"github.com/roach88/codd/internal/testutil"
	"github.com/roach88/codd/internal/workspace"
)

func newTestSession(t *testing.T) (*Session, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	s := NewSession(nil, &out,
		WithIDGenerator(testutil.NewFixedIDGenerator("session-1")),
		WithColor(false),
	)
	return s, &out
}

// run handles each line and returns everything printed.
func run(s *Session, out *bytes.Buffer, lines ...string) string {
	out.Reset()
	for _, line := range lines {
		s.HandleLine(line)
	}
	return out.String()
}

func TestNewSession_ID(t *testing.T) {
	s, _ := newTestSession(t)
	assert.Equal(t, "session-1", s.ID)
	assert.NotNil(t, s.Env)
}

func TestNewSession_DefaultIDIsUUIDv7(t *testing.T) {
	s := NewSession(nil, &bytes.Buffer{})
	require.Len(t, s.ID, 36)
	assert.Equal(t, byte('7'), s.ID[14])
}

func TestHandleLine_Query(t *testing.T) {
	s, out := newTestSession(t)
	sample.Load(s.Env)

	got := run(s, out, "E ? salary > 85000 # name")
	assert.Equal(t, "+------+\n| name |\n+------+\n| Dave |\n+------+\n\n", got)
}

func TestHandleLine_Assignment(t *testing.T) {
	s, out := newTestSession(t)
	sample.Load(s.Env)

	run(s, out, "high := E ? salary > 70000")
	rel, err := s.Env.Lookup("high")
	require.NoError(t, err)
	assert.Equal(t, 2, rel.Len())
}

func TestHandleLine_ErrorsArePrinted(t *testing.T) {
	s, out := newTestSession(t)

	tests := []struct {
		line string
		want string
	}{
		{"X ? a = 1", `Error: unknown relation: "X"`},
		{"E ?", "Error: parse error"},
		{`E ? name = "open`, "Error: lex error"},
	}
	for _, tt := range tests {
		got := run(s, out, tt.line)
		assert.True(t, strings.HasPrefix(got, tt.want), "%q printed %q", tt.line, got)
	}
}

func TestHandleLine_BlankAndQuit(t *testing.T) {
	s, out := newTestSession(t)

	assert.False(t, s.HandleLine("   "))
	assert.Empty(t, out.String())
	assert.True(t, s.HandleLine(`\quit`))
	assert.True(t, s.HandleLine(`\q`))
	assert.True(t, s.HandleLine(`\QUIT`))
}

func TestCommand_Unknown(t *testing.T) {
	s, out := newTestSession(t)
	assert.Equal(t, "Unknown command: \\bogus\n", run(s, out, `\bogus`))
}

func TestCommand_Help(t *testing.T) {
	s, out := newTestSession(t)
	got := run(s, out, `\help`)
	assert.Contains(t, got, `\load`)
	assert.Contains(t, got, `\save`)
}

func TestCommand_LoadSample(t *testing.T) {
	s, out := newTestSession(t)

	got := run(s, out, `\load`)
	assert.Equal(t, "Loaded: E (Employee), D (Department), Phone, ContractorPay\n", got)
	assert.Equal(t, []string{"ContractorPay", "D", "E", "Phone"}, s.Env.Names())
}

func TestCommand_LoadCSV(t *testing.T) {
	dir := t.TempDir()
	path := testutil.WriteFile(t, dir, "users.csv", "name,age\nAnn,30\nBen,41\n")

	s, out := newTestSession(t)
	got := run(s, out, `\load `+path)
	assert.Equal(t, "Loaded users: 2 tuples, attrs: [age name]\n", got)

	rel, err := s.Env.Lookup("users")
	require.NoError(t, err)
	assert.Equal(t, 2, rel.Len())
}

func TestCommand_LoadCSVWithAliasAndGenKey(t *testing.T) {
	dir := t.TempDir()
	path := testutil.WriteFile(t, dir, "data.csv", "name\nAlice\nAlice\n")

	s, out := newTestSession(t)
	got := run(s, out, `\load `+path+` --as=MyData --genkey=row`)
	assert.Contains(t, got, "Loaded MyData: 2 tuples")
	assert.False(t, s.Env.Contains("data"))

	rel, err := s.Env.Lookup("MyData")
	require.NoError(t, err)
	assert.Equal(t, model.NewHeading("name", "row_id"), rel.Heading())
}

func TestCommand_LoadErrors(t *testing.T) {
	dir := t.TempDir()
	ws := filepath.Join(dir, "ws.codd")
	require.NoError(t, workspace.Save(ws, sample.Relations()))
	csv := testutil.WriteFile(t, dir, "a.csv", "x\n1\n")

	tests := []struct {
		name string
		line string
		want string
	}{
		{"missing file", `\load /nonexistent/file.csv`, "Error: file not found: /nonexistent/file.csv\n"},
		{"alias on workspace", `\load ` + ws + ` --as=X`, "Error: --as cannot be used with workspace files\n"},
		{"genkey on workspace", `\load ` + ws + ` --genkey=k`, "Error: --genkey can only be used with CSV files\n"},
		{"table on csv", `\load ` + csv + ` t`, "Error: a table name can only follow a SQLite database path\n"},
		{"unknown option", `\load ` + csv + ` --bogus`, "Error: unknown option --bogus\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, out := newTestSession(t)
			assert.Equal(t, tt.want, run(s, out, tt.line))
			assert.Zero(t, s.Env.Len())
		})
	}
}

func TestCommand_SaveRequiresPath(t *testing.T) {
	s, out := newTestSession(t)
	assert.Equal(t, "Error: \\save requires a filename (no previous save)\n", run(s, out, `\save`))
}

func TestCommand_SaveReusesLastPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ws.codd")
	s, out := newTestSession(t)
	run(s, out, `\load`)

	assert.Equal(t, "Saved workspace to "+path+"\n", run(s, out, `\save `+path))
	assert.Equal(t, path, s.LastSavePath)

	run(s, out, `\drop D`)
	assert.Equal(t, "Saved workspace to "+path+"\n", run(s, out, `\save`))

	rels, err := workspace.Load(path)
	require.NoError(t, err)
	assert.NotContains(t, rels, "D")
}

func TestCommand_SaveLoadWorkspaceRoundTrip(t *testing.T) {
	dir := t.TempDir()
	csv := testutil.WriteFile(t, dir, "prices.csv", "item,price\napple,1.50\npear,0.75\n")
	path := filepath.Join(dir, "ws.codd")

	s1, out1 := newTestSession(t)
	run(s1, out1, `\load `+csv, `\save `+path)

	s2, out2 := newTestSession(t)
	got := run(s2, out2, `\load `+path)
	assert.Equal(t, "Loaded workspace: prices\n", got)
	assert.Equal(t, path, s2.LastSavePath)

	want, err := s1.Env.Lookup("prices")
	require.NoError(t, err)
	have, err := s2.Env.Lookup("prices")
	require.NoError(t, err)
	assert.True(t, want.Equal(have))
}

func TestCommand_SaveLoadSQLiteRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "env.db")

	s1, out1 := newTestSession(t)
	run(s1, out1, `\load`)
	assert.Equal(t, "Saved 4 relations to "+path+"\n", run(s1, out1, `\save `+path))

	s2, out2 := newTestSession(t)
	got := run(s2, out2, `\load `+path)
	assert.Equal(t, "Loaded database: ContractorPay, D, E, Phone\n", got)
	for name, rel := range sample.Relations() {
		have, err := s2.Env.Lookup(name)
		require.NoError(t, err)
		assert.True(t, rel.Equal(have), name)
	}
}

func TestCommand_LoadSQLiteTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain.sqlite")
	st, err := store.Open(path)
	require.NoError(t, err)
	_, err = st.DB().Exec(`
		CREATE TABLE people (id INTEGER, name TEXT);
		INSERT INTO people VALUES (1, 'Ann'), (2, 'Ben');
	`)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	s, out := newTestSession(t)
	assert.Equal(t, "Loaded database: folks\n", run(s, out, `\load `+path+` people --as=folks`))
	rel, err := s.Env.Lookup("folks")
	require.NoError(t, err)
	assert.Equal(t, 2, rel.Len())

	s, out = newTestSession(t)
	assert.Equal(t, "Loaded database: people\n", run(s, out, `\load `+path))
}

func TestCommand_Drop(t *testing.T) {
	s, out := newTestSession(t)
	s.Env.Bind("R", model.Empty(model.NewHeading("a")))

	assert.Equal(t, "Dropped R\n", run(s, out, `\drop R`))
	assert.False(t, s.Env.Contains("R"))
	assert.Equal(t, "Error: unknown relation: nope\n", run(s, out, `\drop nope`))
	assert.Equal(t, "Error: \\drop requires a relation name\n", run(s, out, `\drop`))
}

func TestCommand_Env(t *testing.T) {
	s, out := newTestSession(t)
	assert.Equal(t, "(no relations loaded)\n", run(s, out, `\env`))

	s.Env.Bind("R", model.MustFromTuples(model.TupleOf(model.P("a", model.Int(1)))))
	assert.Equal(t, "  R: 1 tuples, attrs: [a]\n", run(s, out, `\env`))
}

func TestCommand_Calc(t *testing.T) {
	s, out := newTestSession(t)
	run(s, out, `\load`)

	assert.Equal(t, "5\n", run(s, out, `\calc #. E`))
	assert.Equal(t, "330000\n", run(s, out, `\calc +. E.salary`))
	assert.Equal(t, "Error: \\calc requires an expression\n", run(s, out, `\calc`))
}

func TestSession_EngineOptions(t *testing.T) {
	var out bytes.Buffer
	s := NewSession(nil, &out,
		WithColor(false),
		WithEngineOptions(engine.WithMaxTuples(10)),
	)
	run(s, &out, `\load`)

	got := run(s, &out, "(E # name) * (D # dept_name) * (Phone # phone)")
	assert.Equal(t, "Error: * produced 30 tuples, more than the limit of 10\n\n", got)
}

func TestRun_Scanner(t *testing.T) {
	s, out := newTestSession(t)
	in := strings.NewReader("\\load\nE ? salary > 85000 # name\n\\quit\nE\n")

	require.NoError(t, s.Run(context.Background(), in))
	got := out.String()
	assert.True(t, strings.HasPrefix(got, Banner+"Session session-1\n"))
	assert.Contains(t, got, "| Dave |")
	assert.NotContains(t, got, "Alice", "lines after \\quit must not run")
}

func TestRun_EOF(t *testing.T) {
	s, out := newTestSession(t)
	require.NoError(t, s.Run(context.Background(), strings.NewReader("\\env\n")))
	assert.Contains(t, out.String(), "(no relations loaded)")
}

func TestRun_CanceledContext(t *testing.T) {
	s, _ := newTestSession(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Run(ctx, strings.NewReader("\\load\n")), context.Canceled)
}
