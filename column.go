package crossdb

import (
	"fmt"
	"iter"
	"unicode/utf8"

	"github.com/tarmac-project/crossdb/engine"
)

// Column describes one result column.
type Column struct {
	Name     string
	DataType DataType
}

// Columns is the ordered column metadata of a result. It is built once per
// result and shared, read-only, by every Row of that result.
type Columns struct {
	cols []Column
}

func newColumns(cells engine.Cells, meta engine.Meta, count int) (*Columns, error) {
	cols := make([]Column, count)
	for i := range cols {
		name := cells.ColumnName(meta, i)
		if !utf8.Valid(name) {
			return nil, fmt.Errorf("%w: column %d name", ErrEncoding, i)
		}
		cols[i] = Column{
			Name:     string(name),
			DataType: dataTypeFromCode(cells.ColumnType(meta, i)),
		}
	}
	return &Columns{cols: cols}, nil
}

// NewColumns builds a column set from explicit metadata.
func NewColumns(cols ...Column) *Columns {
	return &Columns{cols: append([]Column(nil), cols...)}
}

// Len returns the number of columns.
func (c *Columns) Len() int { return len(c.cols) }

// Name returns the name of column i.
func (c *Columns) Name(i int) string { return c.cols[i].Name }

// DataType returns the declared type of column i.
func (c *Columns) DataType(i int) DataType { return c.cols[i].DataType }

// Column returns column i.
func (c *Columns) Column(i int) Column { return c.cols[i] }

// Index returns the position of the first column named name, or -1.
func (c *Columns) Index(name string) int {
	for i, col := range c.cols {
		if col.Name == name {
			return i
		}
	}
	return -1
}

// All iterates over (name, type) pairs in engine order.
func (c *Columns) All() iter.Seq2[string, DataType] {
	return func(yield func(string, DataType) bool) {
		for _, col := range c.cols {
			if !yield(col.Name, col.DataType) {
				return
			}
		}
	}
}

// Names returns the column names in engine order.
func (c *Columns) Names() []string {
	names := make([]string, len(c.cols))
	for i, col := range c.cols {
		names[i] = col.Name
	}
	return names
}
