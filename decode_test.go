package crossdb

import (
	"errors"
	"net/netip"
	"reflect"
	"testing"

	"github.com/tarmac-project/crossdb/engine"
	"github.com/tarmac-project/crossdb/engine/mock"
)

func TestDecodeValue(t *testing.T) {
	t.Parallel()

	tt := []struct {
		name string
		code uint32
		raw  any
		want Value
	}{
		{"tinyint", engine.CodeTinyInt, 18, Int8(18)},
		{"tinyint negative", engine.CodeTinyInt, -5, Int8(-5)},
		{"smallint", engine.CodeSmallInt, 300, Int16(300)},
		{"int", engine.CodeInt, 1, Int32(1)},
		{"bigint", engine.CodeBigInt, int64(1) << 40, Int64(1 << 40)},
		{"utinyint", engine.CodeUTinyInt, 200, Uint32(200)},
		{"usmallint", engine.CodeUSmallInt, 60000, Uint32(60000)},
		{"uint", engine.CodeUInt, uint32(4000000000), Uint32(4000000000)},
		{"ubigint", engine.CodeUBigInt, uint64(1<<63 + 5), Uint64(1<<63 + 5)},
		{"float", engine.CodeFloat, float32(1.5), Float32(1.5)},
		{"double", engine.CodeDouble, 2.25, Float64(2.25)},
		{"timestamp", engine.CodeTimestamp, int64(1700000000000000), Timestamp(1700000000000000)},
		{"char", engine.CodeChar, "ab", Text("ab")},
		{"vchar", engine.CodeVChar, "Alex", Text("Alex")},
		{"vchar empty", engine.CodeVChar, "", Text("")},
		{"binary", engine.CodeBinary, []byte{1, 2, 3}, Binary{1, 2, 3}},
		{"vbinary", engine.CodeVBinary, []byte{9}, Binary{9}},
		{"bool true", engine.CodeBool, true, Bool(true)},
		{"bool false", engine.CodeBool, false, Bool(false)},
		{"bool non-one", engine.CodeBool, 2, Bool(false)},
		{"mac", engine.CodeMac, engine.Mac{0xde, 0xad, 0xbe, 0xef, 0, 1}, Mac{0xde, 0xad, 0xbe, 0xef, 0, 1}},
		{"null type", engine.CodeNull, 7, Null{}},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, c := openScripted(t, []mock.Column{mock.Col("v", tc.code)}, []any{tc.raw})
			row, err := firstRow(t, c)
			if err != nil {
				t.Fatalf("decode returned error: %v", err)
			}
			if got := row.Get(0); !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("value mismatch: want %#v got %#v", tc.want, got)
			}
			if row.Get(0).Kind() != tc.want.Kind() {
				t.Fatalf("kind mismatch: want %s got %s", tc.want.Kind(), row.Get(0).Kind())
			}
		})
	}
}

func TestDecodeValue_NullForEveryType(t *testing.T) {
	t.Parallel()

	for code := engine.CodeNull; code <= engine.CodeMax; code++ {
		dt := DataType(code)
		t.Run(dt.String(), func(t *testing.T) {
			t.Parallel()

			_, c := openScripted(t, []mock.Column{mock.Col("v", code)}, []any{nil})
			row, err := firstRow(t, c)
			if err != nil {
				t.Fatalf("decode returned error: %v", err)
			}
			if _, ok := row.Get(0).(Null); !ok {
				t.Fatalf("want Null got %#v", row.Get(0))
			}
		})
	}
}

func TestDecodeValue_MixedRow(t *testing.T) {
	t.Parallel()

	_, c := openScripted(t,
		[]mock.Column{
			mock.Col("id", engine.CodeInt),
			mock.Col("name", engine.CodeVChar),
			mock.Col("age", engine.CodeTinyInt),
		},
		[]any{1, "Alex", 18},
	)

	row, err := firstRow(t, c)
	if err != nil {
		t.Fatalf("decode returned error: %v", err)
	}

	want := []Value{Int32(1), Text("Alex"), Int8(18)}
	if !reflect.DeepEqual(row.Values(), want) {
		t.Fatalf("values mismatch: want %v got %v", want, row.Values())
	}
	if row.Get(0) != Int32(1) {
		t.Fatalf("Get(0) mismatch: want 1 got %v", row.Get(0))
	}
	if row.GetByName("name") != Text("Alex") {
		t.Fatalf("GetByName mismatch: want Alex got %v", row.GetByName("name"))
	}
}

func TestDecodeValue_NullOverridesVChar(t *testing.T) {
	t.Parallel()

	_, c := openScripted(t, []mock.Column{mock.Col("name", engine.CodeVChar)}, []any{nil})
	row, err := firstRow(t, c)
	if err != nil {
		t.Fatalf("decode returned error: %v", err)
	}
	if row.Get(0) != (Null{}) {
		t.Fatalf("want Null got %#v", row.Get(0))
	}
}

func TestDecodeValue_BinaryLength(t *testing.T) {
	t.Parallel()

	buf := []byte{1, 2, 3, 4, 5, 6, 7}
	tt := []struct {
		name string
		cell mock.Blob
		want Value
	}{
		{"zero length", mock.Blob{Data: buf, Len: 0}, Null{}},
		{"negative length", mock.Blob{Data: buf, Len: -1}, Null{}},
		{"five bytes", mock.Blob{Data: buf, Len: 5}, Binary{1, 2, 3, 4, 5}},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, c := openScripted(t, []mock.Column{mock.Col("b", engine.CodeBinary)}, []any{tc.cell})
			row, err := firstRow(t, c)
			if err != nil {
				t.Fatalf("decode returned error: %v", err)
			}
			if !reflect.DeepEqual(row.Get(0), tc.want) {
				t.Fatalf("value mismatch: want %#v got %#v", tc.want, row.Get(0))
			}
		})
	}
}

func TestDecodeValue_BinaryIsCopied(t *testing.T) {
	t.Parallel()

	buf := []byte{1, 2, 3}
	_, c := openScripted(t, []mock.Column{mock.Col("b", engine.CodeVBinary)}, []any{buf})
	row, err := firstRow(t, c)
	if err != nil {
		t.Fatalf("decode returned error: %v", err)
	}

	buf[0] = 42
	if got := row.Get(0).(Binary); got[0] != 1 {
		t.Fatalf("decoded binary aliases engine memory: %v", got)
	}
}

func TestDecodeValue_InetFamilies(t *testing.T) {
	t.Parallel()

	var v6 [16]byte
	copy(v6[:], netip.MustParseAddr("2001:db8::").AsSlice())

	tt := []struct {
		name string
		inet engine.Inet
		want netip.Prefix
	}{
		{"ipv4", engine.Inet{Mask: 24, Family: 4, Addr: [16]byte{192, 168, 1, 0}}, netip.MustParsePrefix("192.168.1.0/24")},
		{"ipv6", engine.Inet{Mask: 32, Family: 6, Addr: v6}, netip.MustParsePrefix("2001:db8::/32")},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, c := openScripted(t, []mock.Column{mock.Col("addr", engine.CodeInet)}, []any{tc.inet})
			row, err := firstRow(t, c)
			if err != nil {
				t.Fatalf("decode returned error: %v", err)
			}
			got, ok := row.Get(0).(Inet)
			if !ok {
				t.Fatalf("want Inet got %#v", row.Get(0))
			}
			if got.Prefix != tc.want {
				t.Fatalf("prefix mismatch: want %s got %s", tc.want, got.Prefix)
			}
			if got.Bits() != tc.want.Bits() {
				t.Fatalf("prefix length mismatch: want %d got %d", tc.want.Bits(), got.Bits())
			}
		})
	}
}

func TestDecodeValue_UnknownInetFamilyPanics(t *testing.T) {
	t.Parallel()

	m, c := openScripted(t,
		[]mock.Column{mock.Col("addr", engine.CodeInet)},
		[]any{engine.Inet{Mask: 8, Family: 5}},
	)

	res, err := c.Query(testQuery)
	if err != nil {
		t.Fatalf("Query returned error: %v", err)
	}
	expectContractPanic(t, func() { res.Next() })

	if m.LiveResults() != 0 {
		t.Fatalf("result handle leaked after contract violation")
	}
}

func TestDecodeValue_UnknownTypeCodePanics(t *testing.T) {
	t.Parallel()

	m, c := openScripted(t, []mock.Column{mock.Col("v", 99)}, []any{1})
	expectContractPanic(t, func() { _, _ = c.Query(testQuery) })

	if m.LiveResults() != 0 {
		t.Fatalf("result handle leaked after contract violation")
	}
}

func TestDecodeValue_Errors(t *testing.T) {
	t.Parallel()

	tt := []struct {
		name    string
		code    uint32
		raw     any
		wantErr error
	}{
		{"invalid utf8", engine.CodeVChar, []byte{0xff, 0xfe}, ErrEncoding},
		{"json", engine.CodeJSON, "{}", ErrUnimplemented},
		{"array", engine.CodeArray, "[]", ErrUnimplemented},
		{"max", engine.CodeMax, 0, ErrUnimplemented},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			m, c := openScripted(t, []mock.Column{mock.Col("v", tc.code)}, []any{tc.raw})
			row, err := firstRow(t, c)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("want %v got %v", tc.wantErr, err)
			}
			if row != nil {
				t.Fatalf("expected no row on error, got %v", row)
			}
			if m.LiveResults() != 0 {
				t.Fatalf("result handle leaked after decode error")
			}
		})
	}
}

func TestColumns_InvalidNameEncoding(t *testing.T) {
	t.Parallel()

	m, c := openScripted(t, []mock.Column{mock.Col("\xff", engine.CodeInt)}, []any{1})
	_, err := c.Query(testQuery)
	if !errors.Is(err, ErrEncoding) {
		t.Fatalf("want %v got %v", ErrEncoding, err)
	}
	if m.LiveResults() != 0 {
		t.Fatalf("result handle leaked after metadata error")
	}
}

func TestDataTypeString(t *testing.T) {
	t.Parallel()

	tt := map[DataType]string{
		TypeNull:  "NULL",
		TypeInt:   "INT",
		TypeVChar: "VCHAR",
		TypeInet:  "INET",
		TypeMax:   "MAX",
		200:       "UNKNOWN",
	}
	for dt, want := range tt {
		if got := dt.String(); got != want {
			t.Fatalf("String mismatch: want %q got %q", want, got)
		}
	}
}

func TestValueString(t *testing.T) {
	t.Parallel()

	tt := []struct {
		v    Value
		want string
	}{
		{Null{}, "NULL"},
		{Int8(-3), "-3"},
		{Uint64(18446744073709551615), "18446744073709551615"},
		{Float64(2.5), "2.5"},
		{Text("hi"), "hi"},
		{Binary{0xca, 0xfe}, "0xcafe"},
		{Bool(true), "true"},
		{Inet{netip.MustParsePrefix("10.0.0.0/8")}, "10.0.0.0/8"},
		{Mac{0xde, 0xad, 0xbe, 0xef, 0, 1}, "de:ad:be:ef:00:01"},
	}
	for _, tc := range tt {
		if got := tc.v.String(); got != tc.want {
			t.Fatalf("String mismatch for %s: want %q got %q", tc.v.Kind(), tc.want, got)
		}
	}
}
