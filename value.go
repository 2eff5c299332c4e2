package crossdb

import (
	"encoding/hex"
	"net"
	"net/netip"
	"strconv"
)

// Kind identifies the variant held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindInt8
	KindInt16
	KindInt32
	KindInt64
	KindUint32
	KindUint64
	KindFloat32
	KindFloat64
	KindTimestamp
	KindText
	KindBinary
	KindBool
	KindInet
	KindMac
)

var kindNames = [...]string{
	KindNull:      "Null",
	KindInt8:      "Int8",
	KindInt16:     "Int16",
	KindInt32:     "Int32",
	KindInt64:     "Int64",
	KindUint32:    "Uint32",
	KindUint64:    "Uint64",
	KindFloat32:   "Float32",
	KindFloat64:   "Float64",
	KindTimestamp: "Timestamp",
	KindText:      "Text",
	KindBinary:    "Binary",
	KindBool:      "Bool",
	KindInet:      "Inet",
	KindMac:       "Mac",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Unknown"
}

// Value is a decoded cell. The set of implementations is closed.
type Value interface {
	Kind() Kind
	String() string
	value()
}

type (
	// Null is a cell the engine reported as null.
	Null struct{}

	Int8    int8
	Int16   int16
	Int32   int32
	Int64   int64
	Uint32  uint32
	Uint64  uint64
	Float32 float32
	Float64 float64

	// Timestamp is the engine's opaque 64-bit time encoding.
	Timestamp int64

	// Text is character data, copied out of engine memory.
	Text string

	// Binary is a byte payload, copied out of engine memory.
	Binary []byte

	Bool bool

	// Inet is an IPv4 or IPv6 network with its prefix length.
	Inet struct{ netip.Prefix }

	// Mac is a 6-byte hardware address.
	Mac [6]byte
)

func (Null) Kind() Kind      { return KindNull }
func (Int8) Kind() Kind      { return KindInt8 }
func (Int16) Kind() Kind     { return KindInt16 }
func (Int32) Kind() Kind     { return KindInt32 }
func (Int64) Kind() Kind     { return KindInt64 }
func (Uint32) Kind() Kind    { return KindUint32 }
func (Uint64) Kind() Kind    { return KindUint64 }
func (Float32) Kind() Kind   { return KindFloat32 }
func (Float64) Kind() Kind   { return KindFloat64 }
func (Timestamp) Kind() Kind { return KindTimestamp }
func (Text) Kind() Kind      { return KindText }
func (Binary) Kind() Kind    { return KindBinary }
func (Bool) Kind() Kind      { return KindBool }
func (Inet) Kind() Kind      { return KindInet }
func (Mac) Kind() Kind       { return KindMac }

func (Null) String() string        { return "NULL" }
func (v Int8) String() string      { return strconv.FormatInt(int64(v), 10) }
func (v Int16) String() string     { return strconv.FormatInt(int64(v), 10) }
func (v Int32) String() string     { return strconv.FormatInt(int64(v), 10) }
func (v Int64) String() string     { return strconv.FormatInt(int64(v), 10) }
func (v Uint32) String() string    { return strconv.FormatUint(uint64(v), 10) }
func (v Uint64) String() string    { return strconv.FormatUint(uint64(v), 10) }
func (v Float32) String() string   { return strconv.FormatFloat(float64(v), 'g', -1, 32) }
func (v Float64) String() string   { return strconv.FormatFloat(float64(v), 'g', -1, 64) }
func (v Timestamp) String() string { return strconv.FormatInt(int64(v), 10) }
func (v Text) String() string      { return string(v) }
func (v Binary) String() string    { return "0x" + hex.EncodeToString(v) }
func (v Bool) String() string      { return strconv.FormatBool(bool(v)) }
func (v Inet) String() string      { return v.Prefix.String() }
func (v Mac) String() string       { return net.HardwareAddr(v[:]).String() }

func (Null) value()      {}
func (Int8) value()      {}
func (Int16) value()     {}
func (Int32) value()     {}
func (Int64) value()     {}
func (Uint32) value()    {}
func (Uint64) value()    {}
func (Float32) value()   {}
func (Float64) value()   {}
func (Timestamp) value() {}
func (Text) value()      {}
func (Binary) value()    {}
func (Bool) value()      {}
func (Inet) value()      {}
func (Mac) value()       {}

// Native returns the Go value held by v: nil for Null, the underlying
// builtin type for scalars, netip.Prefix for Inet and net.HardwareAddr for Mac.
func Native(v Value) any {
	switch v := v.(type) {
	case Int8:
		return int8(v)
	case Int16:
		return int16(v)
	case Int32:
		return int32(v)
	case Int64:
		return int64(v)
	case Uint32:
		return uint32(v)
	case Uint64:
		return uint64(v)
	case Float32:
		return float32(v)
	case Float64:
		return float64(v)
	case Timestamp:
		return int64(v)
	case Text:
		return string(v)
	case Binary:
		return []byte(v)
	case Bool:
		return bool(v)
	case Inet:
		return v.Prefix
	case Mac:
		return net.HardwareAddr(v[:])
	default:
		return nil
	}
}
