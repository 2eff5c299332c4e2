package crossdb

import (
	"iter"
	"sync"

	"github.com/tarmac-project/crossdb/engine"
)

// Result is a cursor over the rows of one execution. It owns the engine
// result handle and releases it on Close or once the rows are exhausted.
// A Result is not safe for concurrent use, though its Conn may close it
// from another goroutine.
type Result struct {
	conn    *Conn
	eng     engine.Engine
	handle  engine.Result
	meta    engine.Meta
	columns *Columns

	rowCount     uint64
	affectedRows uint64
	insertID     uint64

	mu     sync.Mutex
	row    *Row
	err    error
	closed bool
}

// newResult takes ownership of h. The handle is freed before returning an
// error, or when a contract violation panics.
func newResult(eng engine.Engine, h engine.Result) (res *Result, err error) {
	owned := false
	defer func() {
		if !owned {
			eng.FreeResult(h)
		}
	}()

	st := eng.Status(h)
	if st.Code != engine.CodeOK {
		return nil, &QueryError{Code: st.Code, Message: eng.ErrMsg(h)}
	}

	cols, err := newColumns(eng, st.Meta, st.ColumnCount)
	if err != nil {
		return nil, err
	}

	owned = true
	return &Result{
		eng:          eng,
		handle:       h,
		meta:         st.Meta,
		columns:      cols,
		rowCount:     st.RowCount,
		affectedRows: st.AffectedRows,
		insertID:     st.InsertID,
	}, nil
}

// Next advances to the next row. It returns false when the rows are
// exhausted or decoding failed; check Err to tell them apart.
func (r *Result) Next() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed || r.err != nil {
		return false
	}

	h, ok := r.eng.FetchRow(r.handle)
	if !ok {
		r.row = nil
		r.release()
		return false
	}

	done := false
	defer func() {
		if !done {
			r.release()
		}
	}()

	values := make([]Value, r.columns.Len())
	for i := range values {
		v, err := decodeValue(r.eng, r.meta, h, i, r.columns.DataType(i))
		if err != nil {
			r.err = err
			r.row = nil
			return false
		}
		values[i] = v
	}

	r.row = &Row{columns: r.columns, values: values}
	done = true
	return true
}

// Row returns the row read by the last successful Next.
func (r *Result) Row() *Row { return r.row }

// Err returns the error that stopped iteration, if any.
func (r *Result) Err() error { return r.err }

// All iterates over the remaining rows. A decoding error is yielded once
// with a nil row. The result is closed when iteration stops.
func (r *Result) All() iter.Seq2[*Row, error] {
	return func(yield func(*Row, error) bool) {
		defer r.Close()
		for r.Next() {
			if !yield(r.row, nil) {
				return
			}
		}
		if r.err != nil {
			yield(nil, r.err)
		}
	}
}

// Rows drains the result into a slice.
func (r *Result) Rows() ([]*Row, error) {
	var rows []*Row
	for row, err := range r.All() {
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Close releases the engine result. It is safe to call more than once.
func (r *Result) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.release()
	return nil
}

// abandon releases the result on behalf of its closing connection.
func (r *Result) abandon() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.row = nil
	r.err = ErrClosed
	r.release()
}

func (r *Result) release() {
	if r.closed {
		return
	}
	r.closed = true
	r.eng.FreeResult(r.handle)
	if r.conn != nil {
		r.conn.forgetResult(r)
	}
}

// Columns returns the column metadata shared by every row.
func (r *Result) Columns() *Columns { return r.columns }

// ColumnCount returns the number of columns.
func (r *Result) ColumnCount() int { return r.columns.Len() }

// RowCount returns the number of rows the engine reported for the execution.
func (r *Result) RowCount() uint64 { return r.rowCount }

// AffectedRows returns the number of rows changed by the execution.
func (r *Result) AffectedRows() uint64 { return r.affectedRows }

// InsertID returns the last inserted row id reported by the engine.
func (r *Result) InsertID() uint64 { return r.insertID }
