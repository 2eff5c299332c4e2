package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/tarmac-project/crossdb"
	"github.com/tarmac-project/crossdb/engine"
	"github.com/tarmac-project/crossdb/engine/mock"
)

type harness struct {
	eng      *mock.Engine
	library  string
	unloaded int
	out      bytes.Buffer
	errOut   bytes.Buffer
}

func newHarness() *harness {
	return &harness{eng: mock.New()}
}

func (h *harness) open(library string) (engine.Engine, func() error, error) {
	h.library = library
	return h.eng, func() error { h.unloaded++; return nil }, nil
}

func (h *harness) run(t *testing.T, args ...string) error {
	t.Helper()
	return newApp(h.open, &h.out, &h.errOut).Run(t.Context(), append([]string{"crossdb"}, args...))
}

func (h *harness) ops() []string {
	var ops []string
	for _, c := range h.eng.Calls {
		ops = append(ops, c.Op+" "+c.SQL)
	}
	return ops
}

func TestQuery_CSV(t *testing.T) {
	t.Parallel()

	h := newHarness()
	h.eng.On("SELECT id, name FROM users").
		ReturnColumns(mock.Col("id", engine.CodeInt), mock.Col("name", engine.CodeVChar)).
		ReturnRows([]any{1, "ada"}, []any{2, "grace"})

	if err := h.run(t, "query", "--format", "csv", "SELECT id, name FROM users"); err != nil {
		t.Fatalf("query returned error: %v", err)
	}

	want := "id,name\n1,ada\n2,grace\n"
	if h.out.String() != want {
		t.Fatalf("unexpected output: want %q got %q", want, h.out.String())
	}
	if h.unloaded != 1 || h.eng.LiveResults() != 0 {
		t.Fatalf("resources not released: unloaded=%d live=%d", h.unloaded, h.eng.LiveResults())
	}
	if h.eng.Calls[0].Op != mock.OpOpen || h.eng.Calls[0].SQL != crossdb.MemoryPath {
		t.Fatalf("expected an in-memory open, got %+v", h.eng.Calls[0])
	}
}

func TestQuery_OutputFile(t *testing.T) {
	t.Parallel()

	h := newHarness()
	h.eng.On("SELECT 1 AS n").
		ReturnColumns(mock.Col("n", engine.CodeInt)).
		ReturnRows([]any{1})

	out := filepath.Join(t.TempDir(), "rows.json")
	if err := h.run(t, "query", "-o", out, "SELECT 1 AS n"); err != nil {
		t.Fatalf("query returned error: %v", err)
	}

	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !bytes.Contains(b, []byte(`"n": 1`)) {
		t.Fatalf("unexpected json file: %s", b)
	}
}

func TestQuery_Errors(t *testing.T) {
	t.Parallel()

	tt := []struct {
		name    string
		args    []string
		wantErr error
	}{
		{name: "missing sql", args: []string{"query"}, wantErr: errMissingSQL},
		{name: "query failure", args: []string{"query", "bad"}, wantErr: crossdb.ErrQuery},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			h := newHarness()
			h.eng.On("bad").ReturnError(12, "syntax error")
			if err := h.run(t, tc.args...); !errors.Is(err, tc.wantErr) {
				t.Fatalf("unexpected error: want %v got %v", tc.wantErr, err)
			}
		})
	}
}

func TestExec_Transaction(t *testing.T) {
	t.Parallel()

	h := newHarness()
	h.eng.On("INSERT INTO t VALUES (1)").ReturnAffected(1, 7)

	if err := h.run(t, "exec", "--tx", "INSERT INTO t VALUES (1)", "DELETE FROM t"); err != nil {
		t.Fatalf("exec returned error: %v", err)
	}

	want := []string{
		mock.OpOpen + " " + crossdb.MemoryPath,
		mock.OpBegin + " ",
		mock.OpExec + " INSERT INTO t VALUES (1)",
		mock.OpExec + " DELETE FROM t",
		mock.OpCommit + " ",
		mock.OpClose + " ",
	}
	if got := h.ops(); !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected calls: want %v got %v", want, got)
	}
	if h.out.String() != "affected=1 insert_id=7\naffected=0 insert_id=0\n" {
		t.Fatalf("unexpected output: %q", h.out.String())
	}
}

func TestExec_RollbackOnError(t *testing.T) {
	t.Parallel()

	h := newHarness()
	h.eng.On("bad").ReturnError(3, "constraint")

	err := h.run(t, "exec", "--tx", "INSERT INTO t VALUES (1)", "bad")
	var qe *crossdb.QueryError
	if !errors.As(err, &qe) || qe.Code != 3 {
		t.Fatalf("expected the query error, got %v", err)
	}

	ops := h.ops()
	if ops[len(ops)-2] != mock.OpRollback+" " {
		t.Fatalf("expected a rollback before close, got %v", ops)
	}
}

func TestConfigFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "crossdb.toml")
	body := `
[database]
path = "/srv/crossdb/app"
library = "/opt/crossdb/libcrossdb.so"
statement_cache = 4

[logger]
console_level = "debug"
`
	if err := os.WriteFile(cfgPath, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	h := newHarness()
	if err := h.run(t, "--config", cfgPath, "exec", "CREATE TABLE t (id INT)"); err != nil {
		t.Fatalf("exec returned error: %v", err)
	}
	if h.library != "/opt/crossdb/libcrossdb.so" {
		t.Fatalf("unexpected library: %q", h.library)
	}
	if h.eng.Calls[0].SQL != "/srv/crossdb/app" {
		t.Fatalf("unexpected path: %q", h.eng.Calls[0].SQL)
	}
	if !bytes.Contains(h.errOut.Bytes(), []byte("Opened database")) {
		t.Fatalf("expected debug logging on stderr, got %q", h.errOut.String())
	}

	h = newHarness()
	if err := h.run(t, "--config", cfgPath, "--db", crossdb.MemoryPath, "--log-level", "error", "exec", "SELECT 1"); err != nil {
		t.Fatalf("exec returned error: %v", err)
	}
	if h.eng.Calls[0].SQL != crossdb.MemoryPath {
		t.Fatalf("flag must override the config file: %q", h.eng.Calls[0].SQL)
	}
	if h.errOut.Len() != 0 {
		t.Fatalf("expected no logging at error level, got %q", h.errOut.String())
	}
}
