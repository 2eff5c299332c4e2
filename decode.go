package crossdb

import (
	"fmt"
	"net/netip"
	"unicode/utf8"

	"github.com/tarmac-project/crossdb/engine"
)

const (
	familyV4 = 4
	familyV6 = 6
)

// decodeValue converts one engine cell into a Value according to the
// column's declared type. A null cell decodes to Null for every type.
// Unknown Inet families panic with a *ContractError.
func decodeValue(cells engine.Cells, meta engine.Meta, row engine.Row, col int, dt DataType) (Value, error) {
	if dt == TypeNull || cells.IsNull(meta, row, col) {
		return Null{}, nil
	}

	switch dt {
	case TypeTinyInt:
		return Int8(cells.ColumnInt(meta, row, col)), nil
	case TypeSmallInt:
		return Int16(cells.ColumnInt(meta, row, col)), nil
	case TypeInt:
		return Int32(cells.ColumnInt(meta, row, col)), nil
	case TypeBigInt:
		return Int64(cells.ColumnInt64(meta, row, col)), nil
	case TypeUTinyInt, TypeUSmallInt, TypeUInt:
		return Uint32(uint32(cells.ColumnInt(meta, row, col))), nil
	case TypeUBigInt:
		return Uint64(uint64(cells.ColumnInt64(meta, row, col))), nil
	case TypeFloat:
		return Float32(cells.ColumnFloat(meta, row, col)), nil
	case TypeDouble:
		return Float64(cells.ColumnDouble(meta, row, col)), nil
	case TypeTimestamp:
		return Timestamp(cells.ColumnInt64(meta, row, col)), nil
	case TypeChar, TypeVChar:
		b := cells.ColumnStr(meta, row, col)
		if !utf8.Valid(b) {
			return nil, fmt.Errorf("%w: column %d", ErrEncoding, col)
		}
		return Text(b), nil
	case TypeBinary, TypeVBinary:
		b, n := cells.ColumnBlob(meta, row, col)
		if n <= 0 {
			return Null{}, nil
		}
		if n > len(b) {
			return nil, &ContractError{What: "binary length", Value: uint32(n)}
		}
		return Binary(append([]byte(nil), b[:n]...)), nil
	case TypeBool:
		return Bool(cells.ColumnBool(meta, row, col) == 1), nil
	case TypeInet:
		return decodeInet(cells.ColumnInet(meta, row, col)), nil
	case TypeMac:
		return Mac(cells.ColumnMac(meta, row, col)), nil
	case TypeJSON, TypeArray, TypeMax:
		return nil, fmt.Errorf("%w: decoding %s column %d", ErrUnimplemented, dt, col)
	default:
		panic(&ContractError{What: "type code", Value: uint32(dt)})
	}
}

func decodeInet(in engine.Inet) Inet {
	var addr netip.Addr
	switch in.Family {
	case familyV4:
		addr = netip.AddrFrom4([4]byte(in.Addr[:4]))
	case familyV6:
		addr = netip.AddrFrom16(in.Addr)
	default:
		panic(&ContractError{What: "address family", Value: uint32(in.Family)})
	}
	return Inet{netip.PrefixFrom(addr, int(in.Mask))}
}
