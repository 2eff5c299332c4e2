package engine

import "errors"

// Type codes reported by the engine for each column (xdb_type_t).
const (
	CodeNull uint32 = iota
	CodeTinyInt
	CodeSmallInt
	CodeInt
	CodeBigInt
	CodeUTinyInt
	CodeUSmallInt
	CodeUInt
	CodeUBigInt
	CodeFloat
	CodeDouble
	CodeTimestamp
	CodeChar
	CodeBinary
	CodeVChar
	CodeVBinary
	CodeBool
	CodeInet
	CodeMac
	CodeJSON
	CodeArray
	CodeMax
)

// CodeOK is the error code of a successful result.
const CodeOK uint16 = 0

var (
	// ErrOpen is returned when the engine cannot open a database.
	ErrOpen = errors.New("engine failed to open database")

	// ErrNoResult is returned when the engine produced no result handle.
	ErrNoResult = errors.New("engine returned no result")
)

// Conn is an opaque engine connection handle.
type Conn uintptr

// Stmt is an opaque prepared statement handle.
type Stmt uintptr

// Result is an opaque result handle.
type Result uintptr

// Row is an opaque handle to the current row of a result.
type Row uintptr

// Meta is an opaque handle to the column metadata of a result.
type Meta uint64

// Status is the fixed header of a result, read once after execution.
type Status struct {
	// Code is CodeOK on success, an engine error number otherwise.
	Code uint16

	// ColumnCount is the number of columns described by Meta.
	ColumnCount int

	// RowCount is the number of rows produced by a query.
	RowCount uint64

	// AffectedRows is the number of rows changed by a statement.
	AffectedRows uint64

	// InsertID is the last inserted row id, when the engine reports one.
	InsertID uint64

	// Meta addresses the column metadata for Cells accessors.
	Meta Meta
}

// Inet mirrors the engine's fixed network address record.
type Inet struct {
	Mask   uint8
	Family uint8
	Addr   [16]byte
}

// Mac mirrors the engine's fixed hardware address record.
type Mac [6]byte

// Connections covers connection lifecycle and transaction control.
type Connections interface {
	Open(path string) (Conn, error)
	Close(conn Conn)
	Begin(conn Conn) error
	Commit(conn Conn) error
	Rollback(conn Conn) error
}

// Statements covers statement preparation and parameter binding.
// Parameter positions start at 1.
type Statements interface {
	Prepare(conn Conn, sql string) (Stmt, error)
	ClearBindings(stmt Stmt) error
	BindInt(stmt Stmt, pos int, v int32) error
	BindInt64(stmt Stmt, pos int, v int64) error
	BindFloat(stmt Stmt, pos int, v float32) error
	BindDouble(stmt Stmt, pos int, v float64) error
	BindText(stmt Stmt, pos int, v string) error
	StmtExec(stmt Stmt) (Result, error)
	CloseStmt(stmt Stmt)
}

// Results covers execution and result traversal. An error from Exec or
// StmtExec means no result handle exists; engine-reported failures are
// carried by Status.Code and ErrMsg on a live handle.
type Results interface {
	Exec(conn Conn, sql string) (Result, error)
	Status(res Result) Status
	ErrMsg(res Result) string
	FetchRow(res Result) (Row, bool)
	FreeResult(res Result)
}

// Cells reads column metadata and raw cell values. Byte slices returned by
// ColumnName, ColumnStr and ColumnBlob may alias engine memory that is only
// valid until the next FetchRow or FreeResult on the same result.
type Cells interface {
	ColumnName(meta Meta, col int) []byte
	ColumnType(meta Meta, col int) uint32
	IsNull(meta Meta, row Row, col int) bool
	ColumnInt(meta Meta, row Row, col int) int32
	ColumnInt64(meta Meta, row Row, col int) int64
	ColumnFloat(meta Meta, row Row, col int) float32
	ColumnDouble(meta Meta, row Row, col int) float64
	ColumnBool(meta Meta, row Row, col int) int32
	// ColumnStr returns the bytes preceding the NUL terminator.
	ColumnStr(meta Meta, row Row, col int) []byte
	// ColumnBlob returns the payload together with the engine-reported
	// length; a non-positive length means no payload.
	ColumnBlob(meta Meta, row Row, col int) ([]byte, int)
	ColumnInet(meta Meta, row Row, col int) Inet
	ColumnMac(meta Meta, row Row, col int) Mac
}

// Engine is the complete contract the client consumes.
type Engine interface {
	Connections
	Statements
	Results
	Cells
}
