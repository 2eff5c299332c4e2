package hostdb

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/tarmac-project/crossdb/engine"
)

// ErrInvalidData is returned when query data is not a JSON array of objects.
var ErrInvalidData = errors.New("query data is not a JSON array of objects")

type column struct {
	name string
	code uint32
}

type result struct {
	code     uint16
	msg      string
	affected uint64
	insertID uint64
	columns  []column
	rows     [][]any
	cursor   int
}

// decodeRows converts the host's JSON rows into typed cells. Column order
// follows names; a column's type is inferred from its non-null values.
func decodeRows(names []string, data []byte) (*result, error) {
	var objects []map[string]any
	if len(bytes.TrimSpace(data)) > 0 {
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&objects); err != nil {
			return nil, errors.Join(ErrInvalidData, err)
		}
	}

	res := &result{
		columns: make([]column, len(names)),
		rows:    make([][]any, len(objects)),
	}
	for i := range objects {
		res.rows[i] = make([]any, len(names))
	}

	for c, name := range names {
		code := engine.CodeNull
		for _, obj := range objects {
			code = widen(code, inferCode(obj[name]))
		}
		res.columns[c] = column{name: name, code: code}

		for r, obj := range objects {
			cell, err := convert(obj[name], code)
			if err != nil {
				return nil, fmt.Errorf("%w: column %q row %d: %w", ErrInvalidData, name, r, err)
			}
			res.rows[r][c] = cell
		}
	}
	return res, nil
}

func inferCode(v any) uint32 {
	switch t := v.(type) {
	case nil:
		return engine.CodeNull
	case bool:
		return engine.CodeBool
	case string:
		return engine.CodeVChar
	case json.Number:
		if _, err := t.Int64(); err == nil {
			return engine.CodeBigInt
		}
		return engine.CodeDouble
	default:
		// Nested objects and arrays surface as their JSON text.
		return engine.CodeVChar
	}
}

// widen merges the type seen so far with the type of another value.
func widen(have, next uint32) uint32 {
	switch {
	case next == engine.CodeNull || have == next:
		return have
	case have == engine.CodeNull:
		return next
	case have == engine.CodeBigInt && next == engine.CodeDouble,
		have == engine.CodeDouble && next == engine.CodeBigInt:
		return engine.CodeDouble
	default:
		return engine.CodeVChar
	}
}

func convert(v any, code uint32) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch code {
	case engine.CodeBigInt:
		return v.(json.Number).Int64()
	case engine.CodeDouble:
		return v.(json.Number).Float64()
	case engine.CodeBool:
		return v.(bool), nil
	}

	// VChar, possibly holding mixed values.
	switch t := v.(type) {
	case string:
		return []byte(t), nil
	case json.Number:
		return []byte(t.String()), nil
	case bool:
		return []byte(fmt.Sprint(t)), nil
	default:
		return json.Marshal(t)
	}
}

func (e *Engine) cell(meta engine.Meta, row engine.Row, col int) any {
	r := e.result(engine.Result(meta))
	return r.rows[int(row)-1][col]
}

// ColumnName implements engine.Cells.
func (e *Engine) ColumnName(meta engine.Meta, col int) []byte {
	return []byte(e.result(engine.Result(meta)).columns[col].name)
}

// ColumnType implements engine.Cells.
func (e *Engine) ColumnType(meta engine.Meta, col int) uint32 {
	return e.result(engine.Result(meta)).columns[col].code
}

// IsNull implements engine.Cells.
func (e *Engine) IsNull(meta engine.Meta, row engine.Row, col int) bool {
	return e.cell(meta, row, col) == nil
}

// ColumnInt implements engine.Cells.
func (e *Engine) ColumnInt(meta engine.Meta, row engine.Row, col int) int32 {
	v := e.ColumnInt64(meta, row, col)
	if v > math.MaxInt32 || v < math.MinInt32 {
		return 0
	}
	return int32(v)
}

// ColumnInt64 implements engine.Cells.
func (e *Engine) ColumnInt64(meta engine.Meta, row engine.Row, col int) int64 {
	switch v := e.cell(meta, row, col).(type) {
	case int64:
		return v
	case float64:
		return int64(v)
	case bool:
		if v {
			return 1
		}
	}
	return 0
}

// ColumnFloat implements engine.Cells.
func (e *Engine) ColumnFloat(meta engine.Meta, row engine.Row, col int) float32 {
	return float32(e.ColumnDouble(meta, row, col))
}

// ColumnDouble implements engine.Cells.
func (e *Engine) ColumnDouble(meta engine.Meta, row engine.Row, col int) float64 {
	switch v := e.cell(meta, row, col).(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	}
	return 0
}

// ColumnBool implements engine.Cells.
func (e *Engine) ColumnBool(meta engine.Meta, row engine.Row, col int) int32 {
	if v, ok := e.cell(meta, row, col).(bool); ok && v {
		return 1
	}
	return 0
}

// ColumnStr implements engine.Cells.
func (e *Engine) ColumnStr(meta engine.Meta, row engine.Row, col int) []byte {
	b, _ := e.cell(meta, row, col).([]byte)
	return b
}

// ColumnBlob implements engine.Cells.
func (e *Engine) ColumnBlob(meta engine.Meta, row engine.Row, col int) ([]byte, int) {
	b := e.ColumnStr(meta, row, col)
	return b, len(b)
}

// ColumnInet implements engine.Cells. The host never reports INET columns.
func (e *Engine) ColumnInet(engine.Meta, engine.Row, int) engine.Inet { return engine.Inet{} }

// ColumnMac implements engine.Cells. The host never reports MAC columns.
func (e *Engine) ColumnMac(engine.Meta, engine.Row, int) engine.Mac { return engine.Mac{} }
