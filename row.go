package crossdb

import "fmt"

// Row is one decoded result row. Its values line up with its Columns.
type Row struct {
	columns *Columns
	values  []Value
}

// NewRow pairs values with columns. It panics when the lengths differ.
func NewRow(columns *Columns, values []Value) *Row {
	if len(values) != columns.Len() {
		panic(fmt.Sprintf("crossdb: %d values for %d columns", len(values), columns.Len()))
	}
	return &Row{columns: columns, values: values}
}

// Len returns the number of values in the row.
func (r *Row) Len() int { return len(r.values) }

// Columns returns the column metadata shared by every row of the result.
func (r *Row) Columns() *Columns { return r.columns }

// Values returns the row's values in column order.
func (r *Row) Values() []Value { return r.values }

// Get returns the value at position i. It panics when i is out of range.
func (r *Row) Get(i int) Value {
	if i < 0 || i >= len(r.values) {
		panic(fmt.Sprintf("crossdb: column index %d out of range [0,%d)", i, len(r.values)))
	}
	return r.values[i]
}

// TryGet returns the value at position i, or false when i is out of range.
func (r *Row) TryGet(i int) (Value, bool) {
	if i < 0 || i >= len(r.values) {
		return nil, false
	}
	return r.values[i], true
}

// GetByName returns the value of the first column named name. It panics
// when no column has that name.
func (r *Row) GetByName(name string) Value {
	v, ok := r.TryGetByName(name)
	if !ok {
		panic(fmt.Sprintf("crossdb: no column named %q", name))
	}
	return v
}

// TryGetByName returns the value of the first column named name.
func (r *Row) TryGetByName(name string) (Value, bool) {
	i := r.columns.Index(name)
	if i < 0 {
		return nil, false
	}
	return r.values[i], true
}
