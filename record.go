package crossdb

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"reflect"
	"sync"
)

// ErrConversion is returned when a value cannot be stored in a record field.
var ErrConversion = errors.New("cannot convert value")

// RowMap walks a row as a map of column name to value, in column order.
// Each NextKey is paired with the following NextValue.
type RowMap struct {
	row *Row
	pos int
}

// Map returns a fresh RowMap positioned at the first column.
func (r *Row) Map() *RowMap { return &RowMap{row: r} }

// NextKey returns the name of the next column, or false once every column
// has been visited.
func (m *RowMap) NextKey() (string, bool) {
	if m.pos >= m.row.Len() {
		return "", false
	}
	return m.row.columns.Name(m.pos), true
}

// NextValue returns the value paired with the last key and advances. Reading
// past the last column returns ErrNoMoreColumns.
func (m *RowMap) NextValue() (Value, error) {
	if m.pos >= m.row.Len() {
		return nil, ErrNoMoreColumns
	}
	v := m.row.values[m.pos]
	m.pos++
	return v, nil
}

// Remaining reports how many columns are left.
func (m *RowMap) Remaining() int { return m.row.Len() - m.pos }

// RowUnmarshaler is implemented by records that decode themselves from a row.
type RowUnmarshaler interface {
	UnmarshalRow(m *RowMap) error
}

// Decode maps r onto a new T. T is a struct, a pointer to a struct, or a
// type whose pointer implements RowUnmarshaler.
func Decode[T any](r *Row) (T, error) {
	var out T
	if err := r.Scan(&out); err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

// Collect drains res, decoding every row into T. The result is closed on return.
func Collect[T any](res *Result) ([]T, error) {
	defer res.Close()

	var out []T
	for res.Next() {
		v, err := Decode[T](res.Row())
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if err := res.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Scan maps the row onto dst, which must be a non-nil pointer to a struct or
// implement RowUnmarshaler. Struct fields match columns by `db` tag, else by
// case-insensitive field name. Columns without a field are ignored.
func (r *Row) Scan(dst any) error {
	if u, ok := dst.(RowUnmarshaler); ok {
		return u.UnmarshalRow(r.Map())
	}

	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("crossdb: scan destination must be a non-nil pointer, got %T", dst)
	}
	rv = rv.Elem()
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			rv.Set(reflect.New(rv.Type().Elem()))
		}
		if u, ok := rv.Interface().(RowUnmarshaler); ok {
			return u.UnmarshalRow(r.Map())
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return fmt.Errorf("crossdb: cannot decode a row into %s", rv.Type())
	}

	p := planFor(rv.Type())
	seen := make([]bool, len(p.fields))

	m := r.Map()
	for {
		key, ok := m.NextKey()
		if !ok {
			break
		}
		v, err := m.NextValue()
		if err != nil {
			return err
		}
		i, ok := p.byName[toLowerASCII(key)]
		if !ok || seen[i] {
			continue
		}
		seen[i] = true
		f := p.fields[i]
		if err := assign(fieldByPathAlloc(rv, f.path), v); err != nil {
			return fmt.Errorf("column %q into field %s: %w", key, f.name, err)
		}
	}

	for i, f := range p.fields {
		if !seen[i] && f.required {
			return fmt.Errorf("%w: %s", ErrMissingField, f.name)
		}
	}
	return nil
}

type fieldPlan struct {
	name     string
	path     []int
	required bool
}

type recordPlan struct {
	fields []fieldPlan
	byName map[string]int
}

var planCache sync.Map // reflect.Type -> *recordPlan

func planFor(rt reflect.Type) *recordPlan {
	if v, ok := planCache.Load(rt); ok {
		return v.(*recordPlan)
	}
	p := buildPlan(rt)
	v, _ := planCache.LoadOrStore(rt, p)
	return v.(*recordPlan)
}

func buildPlan(rt reflect.Type) *recordPlan {
	p := &recordPlan{byName: make(map[string]int)}

	var walk func(t reflect.Type, base []int)
	walk = func(t reflect.Type, base []int) {
		for i := 0; i < t.NumField(); i++ {
			sf := t.Field(i)
			if !sf.IsExported() && !sf.Anonymous {
				continue
			}
			name, inline, omit := parseTag(sf.Tag.Get("db"))
			if omit {
				continue
			}
			path := append(append([]int(nil), base...), i)

			ft := sf.Type
			if !sf.IsExported() && ft.Kind() == reflect.Pointer {
				continue
			}
			if inline || (sf.Anonymous && name == "") {
				et := ft
				if et.Kind() == reflect.Pointer {
					et = et.Elem()
				}
				if et.Kind() == reflect.Struct && !isLeafStruct(et) {
					walk(et, path)
					continue
				}
			}
			if !sf.IsExported() {
				continue
			}
			if name == "" {
				name = sf.Name
			}
			key := toLowerASCII(name)
			if _, dup := p.byName[key]; dup {
				continue
			}
			p.byName[key] = len(p.fields)
			p.fields = append(p.fields, fieldPlan{
				name:     sf.Name,
				path:     path,
				required: ft.Kind() != reflect.Pointer && ft.Kind() != reflect.Interface,
			})
		}
	}
	walk(rt, nil)
	return p
}

// parseTag supports "-", "col", ",inline" and "col,inline".
func parseTag(tag string) (name string, inline bool, omit bool) {
	if tag == "-" {
		return "", false, true
	}
	start := 0
	for i := 0; i <= len(tag); i++ {
		if i == len(tag) || tag[i] == ',' {
			part := tag[start:i]
			if part == "inline" {
				inline = true
			} else if part != "" && name == "" {
				name = part
			}
			start = i + 1
		}
	}
	return name, inline, false
}

var bigIntType = reflect.TypeOf(big.Int{})

func isLeafStruct(t reflect.Type) bool { return t == bigIntType }

// fieldByPathAlloc walks path, allocating nil embedded pointers on the way.
func fieldByPathAlloc(root reflect.Value, path []int) reflect.Value {
	v := root
	for _, i := range path {
		if v.Kind() == reflect.Pointer {
			if v.IsNil() {
				v.Set(reflect.New(v.Type().Elem()))
			}
			v = v.Elem()
		}
		v = v.Field(i)
	}
	return v
}

func assign(dst reflect.Value, v Value) error {
	if _, ok := v.(Null); ok {
		switch dst.Kind() {
		case reflect.Pointer, reflect.Interface:
			dst.SetZero()
			return nil
		}
		return fmt.Errorf("%w: NULL into non-optional %s", ErrConversion, dst.Type())
	}

	switch dst.Kind() {
	case reflect.Pointer:
		elem := reflect.New(dst.Type().Elem())
		if err := assign(elem.Elem(), v); err != nil {
			return err
		}
		dst.Set(elem)
		return nil
	case reflect.Interface:
		nv := reflect.ValueOf(Native(v))
		if !nv.Type().AssignableTo(dst.Type()) {
			return fmt.Errorf("%w: %s into %s", ErrConversion, v.Kind(), dst.Type())
		}
		dst.Set(nv)
		return nil
	}

	switch v := v.(type) {
	case Int8:
		return assignSigned(dst, int64(v), true)
	case Int16:
		return assignSigned(dst, int64(v), true)
	case Int32:
		return assignSigned(dst, int64(v), true)
	case Int64:
		return assignSigned(dst, int64(v), true)
	case Timestamp:
		return assignSigned(dst, int64(v), false)
	case Uint32:
		return assignUnsigned(dst, uint64(v))
	case Uint64:
		return assignUnsigned(dst, uint64(v))
	case Float32:
		return assignFloat(dst, float64(v))
	case Float64:
		return assignFloat(dst, float64(v))
	case Text:
		if dst.Kind() != reflect.String {
			return fmt.Errorf("%w: Text into %s", ErrConversion, dst.Type())
		}
		dst.SetString(string(v))
		return nil
	case Bool:
		if dst.Kind() != reflect.Bool {
			return fmt.Errorf("%w: Bool into %s", ErrConversion, dst.Type())
		}
		dst.SetBool(bool(v))
		return nil
	case Binary, Inet, Mac:
		return fmt.Errorf("%w: bridging %s values into records", ErrUnimplemented, v.Kind())
	default:
		return fmt.Errorf("%w: %T", ErrConversion, v)
	}
}

func assignSigned(dst reflect.Value, n int64, numeric bool) error {
	switch dst.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if dst.OverflowInt(n) {
			return fmt.Errorf("%w: %d overflows %s", ErrConversion, n, dst.Type())
		}
		dst.SetInt(n)
		return nil
	}
	if !numeric {
		return fmt.Errorf("%w: Timestamp into %s", ErrConversion, dst.Type())
	}
	switch dst.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if n < 0 || dst.OverflowUint(uint64(n)) {
			return fmt.Errorf("%w: %d overflows %s", ErrConversion, n, dst.Type())
		}
		dst.SetUint(uint64(n))
		return nil
	case reflect.Float32, reflect.Float64:
		dst.SetFloat(float64(n))
		return nil
	case reflect.Struct:
		if dst.Type() == bigIntType {
			dst.Addr().Interface().(*big.Int).SetInt64(n)
			return nil
		}
	}
	return fmt.Errorf("%w: integer into %s", ErrConversion, dst.Type())
}

func assignUnsigned(dst reflect.Value, n uint64) error {
	switch dst.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if n > math.MaxInt64 || dst.OverflowInt(int64(n)) {
			return fmt.Errorf("%w: %d overflows %s", ErrConversion, n, dst.Type())
		}
		dst.SetInt(int64(n))
		return nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if dst.OverflowUint(n) {
			return fmt.Errorf("%w: %d overflows %s", ErrConversion, n, dst.Type())
		}
		dst.SetUint(n)
		return nil
	case reflect.Float32, reflect.Float64:
		dst.SetFloat(float64(n))
		return nil
	case reflect.Struct:
		if dst.Type() == bigIntType {
			dst.Addr().Interface().(*big.Int).SetUint64(n)
			return nil
		}
	}
	return fmt.Errorf("%w: unsigned integer into %s", ErrConversion, dst.Type())
}

func assignFloat(dst reflect.Value, f float64) error {
	switch dst.Kind() {
	case reflect.Float32, reflect.Float64:
		if dst.OverflowFloat(f) {
			return fmt.Errorf("%w: %g overflows %s", ErrConversion, f, dst.Type())
		}
		dst.SetFloat(f)
		return nil
	}
	return fmt.Errorf("%w: float into %s", ErrConversion, dst.Type())
}

func toLowerASCII(s string) string {
	for i := 0; i < len(s); i++ {
		if c := s[i]; 'A' <= c && c <= 'Z' {
			b := []byte(s)
			for j := i; j < len(b); j++ {
				if 'A' <= b[j] && b[j] <= 'Z' {
					b[j] += 'a' - 'A'
				}
			}
			return string(b)
		}
	}
	return s
}
