package crossdb

import (
	"errors"
	"testing"

	"github.com/tarmac-project/crossdb/engine"
	"github.com/tarmac-project/crossdb/engine/mock"
)

func TestResult_Iteration(t *testing.T) {
	t.Parallel()

	m, c := openScripted(t,
		[]mock.Column{mock.Col("id", engine.CodeInt), mock.Col("name", engine.CodeVChar)},
		[]any{1, "a"},
		[]any{2, "b"},
		[]any{3, nil},
	)

	res, err := c.Query(testQuery)
	if err != nil {
		t.Fatalf("Query returned error: %v", err)
	}

	if res.ColumnCount() != 2 || res.RowCount() != 3 {
		t.Fatalf("counters mismatch: columns %d rows %d", res.ColumnCount(), res.RowCount())
	}

	var ids []Value
	var shared *Columns
	for res.Next() {
		row := res.Row()
		if row.Len() != res.ColumnCount() {
			t.Fatalf("row length mismatch: want %d got %d", res.ColumnCount(), row.Len())
		}
		if shared == nil {
			shared = row.Columns()
		} else if shared != row.Columns() {
			t.Fatalf("rows must share one Columns instance")
		}
		ids = append(ids, row.Get(0))
	}
	if err := res.Err(); err != nil {
		t.Fatalf("Err returned %v", err)
	}
	if len(ids) != 3 || ids[2] != Int32(3) {
		t.Fatalf("ids mismatch: got %v", ids)
	}
	if m.LiveResults() != 0 {
		t.Fatalf("exhausted result must be released")
	}
	if res.Next() {
		t.Fatalf("Next after exhaustion must be false")
	}
}

func TestResult_CloseIsIdempotent(t *testing.T) {
	t.Parallel()

	m, c := openScripted(t, []mock.Column{mock.Col("id", engine.CodeInt)}, []any{1}, []any{2})

	res, err := c.Query(testQuery)
	if err != nil {
		t.Fatalf("Query returned error: %v", err)
	}
	if !res.Next() {
		t.Fatalf("expected a row")
	}
	row := res.Row()

	for i := 0; i < 3; i++ {
		if err := res.Close(); err != nil {
			t.Fatalf("Close returned error: %v", err)
		}
	}
	if m.Freed != 1 {
		t.Fatalf("free count mismatch: want 1 got %d", m.Freed)
	}
	if res.Next() {
		t.Fatalf("Next after Close must be false")
	}
	if row.Get(0) != Int32(1) {
		t.Fatalf("row must remain readable after Close, got %v", row.Get(0))
	}
}

func TestResult_All(t *testing.T) {
	t.Parallel()

	m, c := openScripted(t, []mock.Column{mock.Col("id", engine.CodeBigInt)}, []any{1}, []any{2}, []any{3})

	res, err := c.Query(testQuery)
	if err != nil {
		t.Fatalf("Query returned error: %v", err)
	}

	n := 0
	for row, err := range res.All() {
		if err != nil {
			t.Fatalf("All yielded error: %v", err)
		}
		n++
		if row.Get(0) == Int64(2) {
			break
		}
	}
	if n != 2 {
		t.Fatalf("row count mismatch: want 2 got %d", n)
	}
	if m.LiveResults() != 0 {
		t.Fatalf("breaking out of All must release the result")
	}
}

func TestResult_RowsYieldsDecodeError(t *testing.T) {
	t.Parallel()

	_, c := openScripted(t, []mock.Column{mock.Col("v", engine.CodeVChar)}, []any{"ok"}, []any{[]byte{0xff}})

	res, err := c.Query(testQuery)
	if err != nil {
		t.Fatalf("Query returned error: %v", err)
	}
	rows, err := res.Rows()
	if !errors.Is(err, ErrEncoding) {
		t.Fatalf("want %v got %v", ErrEncoding, err)
	}
	if rows != nil {
		t.Fatalf("expected no rows on error, got %d", len(rows))
	}
}

func TestResult_QueryError(t *testing.T) {
	t.Parallel()

	m := mock.New()
	m.On("SELECT * FROM missing").ReturnError(1001, "table not found")

	c, err := OpenMemory(m)
	if err != nil {
		t.Fatalf("OpenMemory returned error: %v", err)
	}
	defer c.Close()

	_, err = c.Query("SELECT * FROM missing")
	if !errors.Is(err, ErrQuery) {
		t.Fatalf("want %v got %v", ErrQuery, err)
	}

	var qe *QueryError
	if !errors.As(err, &qe) {
		t.Fatalf("expected *QueryError, got %T", err)
	}
	if qe.Code != 1001 || qe.Message != "table not found" {
		t.Fatalf("query error mismatch: got %+v", qe)
	}
	if m.LiveResults() != 0 {
		t.Fatalf("failed result must be released")
	}
}
