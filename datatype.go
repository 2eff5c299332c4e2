package crossdb

import "github.com/tarmac-project/crossdb/engine"

// DataType is a column type declared by the engine.
type DataType uint8

// Declared column types, numbered as the engine numbers them.
const (
	TypeNull DataType = iota
	TypeTinyInt
	TypeSmallInt
	TypeInt
	TypeBigInt
	TypeUTinyInt
	TypeUSmallInt
	TypeUInt
	TypeUBigInt
	TypeFloat
	TypeDouble
	TypeTimestamp
	TypeChar
	TypeBinary
	TypeVChar
	TypeVBinary
	TypeBool
	TypeInet
	TypeMac
	TypeJSON
	TypeArray
	TypeMax
)

var dataTypeNames = [...]string{
	TypeNull:      "NULL",
	TypeTinyInt:   "TINYINT",
	TypeSmallInt:  "SMALLINT",
	TypeInt:       "INT",
	TypeBigInt:    "BIGINT",
	TypeUTinyInt:  "UTINYINT",
	TypeUSmallInt: "USMALLINT",
	TypeUInt:      "UINT",
	TypeUBigInt:   "UBIGINT",
	TypeFloat:     "FLOAT",
	TypeDouble:    "DOUBLE",
	TypeTimestamp: "TIMESTAMP",
	TypeChar:      "CHAR",
	TypeBinary:    "BINARY",
	TypeVChar:     "VCHAR",
	TypeVBinary:   "VBINARY",
	TypeBool:      "BOOL",
	TypeInet:      "INET",
	TypeMac:       "MAC",
	TypeJSON:      "JSON",
	TypeArray:     "ARRAY",
	TypeMax:       "MAX",
}

func (t DataType) String() string {
	if int(t) < len(dataTypeNames) {
		return dataTypeNames[t]
	}
	return "UNKNOWN"
}

// dataTypeFromCode maps an engine type code. Unknown codes panic with a
// *ContractError.
func dataTypeFromCode(code uint32) DataType {
	if code > engine.CodeMax {
		panic(&ContractError{What: "type code", Value: code})
	}
	return DataType(code)
}
