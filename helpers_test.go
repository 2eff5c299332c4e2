package crossdb

import (
	"errors"
	"testing"

	"github.com/tarmac-project/crossdb/engine/mock"
)

const testQuery = "SELECT * FROM t"

func openScripted(t *testing.T, cols []mock.Column, rows ...[]any) (*mock.Engine, *Conn) {
	t.Helper()

	m := mock.New()
	m.On(testQuery).ReturnColumns(cols...).ReturnRows(rows...)

	c, err := OpenMemory(m)
	if err != nil {
		t.Fatalf("OpenMemory returned error: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return m, c
}

func firstRow(t *testing.T, c *Conn) (*Row, error) {
	t.Helper()

	res, err := c.Query(testQuery)
	if err != nil {
		t.Fatalf("Query returned error: %v", err)
	}
	defer res.Close()

	if !res.Next() {
		return nil, res.Err()
	}
	return res.Row(), nil
}

func expectContractPanic(t *testing.T, fn func()) {
	t.Helper()

	defer func() {
		r := recover()
		err, ok := r.(error)
		if !ok || !errors.Is(err, ErrContractViolation) {
			t.Fatalf("expected contract violation panic, got %v", r)
		}
	}()
	fn()
}
