//go:build darwin || freebsd || linux || netbsd

package xdb

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/ebitengine/purego"
	"github.com/tarmac-project/crossdb/engine"
)

// cResult mirrors xdb_res_t.
type cResult struct {
	LenType      uint32
	ErrCode      uint16
	Status       uint16
	MetaLen      uint32
	ColCount     uint16
	StmtType     uint8
	_            uint8
	RowCount     uint64
	AffectedRows uint64
	InsertID     uint64
	ColMeta      uint64
	RowData      uint64
	DataLen      uint64
}

// cInet mirrors xdb_inet_t.
type cInet struct {
	Mask   uint8
	Family uint8
	Addr   [16]uint8
}

// Library is a loaded CrossDB shared library. It implements engine.Engine.
type Library struct {
	handle uintptr

	open     func(path string) uintptr
	close    func(conn uintptr)
	exec     func(conn uintptr, sql string) uintptr
	errmsg   func(res uintptr) uintptr
	fetchRow func(res uintptr) uintptr
	freeRes  func(res uintptr)

	prepare       func(conn uintptr, sql string) uintptr
	bindInt       func(stmt uintptr, id uint16, v int32) int32
	bindInt64     func(stmt uintptr, id uint16, v int64) int32
	bindFloat     func(stmt uintptr, id uint16, v float32) int32
	bindDouble    func(stmt uintptr, id uint16, v float64) int32
	bindStr2      func(stmt uintptr, id uint16, v string, n int32) int32
	clearBindings func(stmt uintptr) int32
	stmtExec      func(stmt uintptr) uintptr
	stmtClose     func(stmt uintptr)

	begin    func(conn uintptr) int32
	commit   func(conn uintptr) int32
	rollback func(conn uintptr) int32

	columnType   func(meta uint64, col uint16) uint32
	columnName   func(meta uint64, col uint16) uintptr
	columnInt    func(meta uint64, row uintptr, col uint16) int32
	columnInt64  func(meta uint64, row uintptr, col uint16) int64
	columnFloat  func(meta uint64, row uintptr, col uint16) float32
	columnDouble func(meta uint64, row uintptr, col uint16) float64
	columnStr    func(meta uint64, row uintptr, col uint16) uintptr
	columnBlob   func(meta uint64, row uintptr, col uint16, n *int32) uintptr
	columnNull   func(meta uint64, row uintptr, col uint16) bool
	columnBool   func(meta uint64, row uintptr, col uint16) int32
	columnInet   func(meta uint64, row uintptr, col uint16) uintptr
	columnMac    func(meta uint64, row uintptr, col uint16) uintptr
}

// Ensure Library satisfies the engine contract at compile time.
var _ engine.Engine = (*Library)(nil)

// Load opens the shared library at path and binds the xdb_* functions.
func Load(path string) (lib *Library, err error) {
	h, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil {
		return nil, errors.Join(ErrLoad, err)
	}

	// RegisterLibFunc panics on missing symbols.
	defer func() {
		if r := recover(); r != nil {
			_ = purego.Dlclose(h)
			lib, err = nil, fmt.Errorf("%w: %v", ErrLoad, r)
		}
	}()

	l := &Library{handle: h}
	l.register()
	return l, nil
}

func (l *Library) register() {
	h := l.handle
	purego.RegisterLibFunc(&l.open, h, "xdb_open")
	purego.RegisterLibFunc(&l.close, h, "xdb_close")
	purego.RegisterLibFunc(&l.exec, h, "xdb_exec")
	purego.RegisterLibFunc(&l.errmsg, h, "xdb_errmsg")
	purego.RegisterLibFunc(&l.fetchRow, h, "xdb_fetch_row")
	purego.RegisterLibFunc(&l.freeRes, h, "xdb_free_result")
	purego.RegisterLibFunc(&l.prepare, h, "xdb_stmt_prepare")
	purego.RegisterLibFunc(&l.bindInt, h, "xdb_bind_int")
	purego.RegisterLibFunc(&l.bindInt64, h, "xdb_bind_int64")
	purego.RegisterLibFunc(&l.bindFloat, h, "xdb_bind_float")
	purego.RegisterLibFunc(&l.bindDouble, h, "xdb_bind_double")
	purego.RegisterLibFunc(&l.bindStr2, h, "xdb_bind_str2")
	purego.RegisterLibFunc(&l.clearBindings, h, "xdb_clear_bindings")
	purego.RegisterLibFunc(&l.stmtExec, h, "xdb_stmt_exec")
	purego.RegisterLibFunc(&l.stmtClose, h, "xdb_stmt_close")
	purego.RegisterLibFunc(&l.begin, h, "xdb_begin")
	purego.RegisterLibFunc(&l.commit, h, "xdb_commit")
	purego.RegisterLibFunc(&l.rollback, h, "xdb_rollback")
	purego.RegisterLibFunc(&l.columnType, h, "xdb_column_type")
	purego.RegisterLibFunc(&l.columnName, h, "xdb_column_name")
	purego.RegisterLibFunc(&l.columnInt, h, "xdb_column_int")
	purego.RegisterLibFunc(&l.columnInt64, h, "xdb_column_int64")
	purego.RegisterLibFunc(&l.columnFloat, h, "xdb_column_float")
	purego.RegisterLibFunc(&l.columnDouble, h, "xdb_column_double")
	purego.RegisterLibFunc(&l.columnStr, h, "xdb_column_str")
	purego.RegisterLibFunc(&l.columnBlob, h, "xdb_column_blob")
	purego.RegisterLibFunc(&l.columnNull, h, "xdb_column_null")
	purego.RegisterLibFunc(&l.columnBool, h, "xdb_column_bool")
	purego.RegisterLibFunc(&l.columnInet, h, "xdb_column_inet")
	purego.RegisterLibFunc(&l.columnMac, h, "xdb_column_mac")
}

// Unload closes the shared library. Handles obtained from it must not be used afterwards.
func (l *Library) Unload() error {
	return purego.Dlclose(l.handle)
}

// Open implements engine.Connections.
func (l *Library) Open(path string) (engine.Conn, error) {
	p := l.open(path)
	if p == 0 {
		return 0, fmt.Errorf("%w: %s", engine.ErrOpen, path)
	}
	return engine.Conn(p), nil
}

// Close implements engine.Connections.
func (l *Library) Close(conn engine.Conn) { l.close(uintptr(conn)) }

// Begin implements engine.Connections.
func (l *Library) Begin(conn engine.Conn) error {
	return retError(ErrTransaction, "xdb_begin", l.begin(uintptr(conn)))
}

// Commit implements engine.Connections.
func (l *Library) Commit(conn engine.Conn) error {
	return retError(ErrTransaction, "xdb_commit", l.commit(uintptr(conn)))
}

// Rollback implements engine.Connections.
func (l *Library) Rollback(conn engine.Conn) error {
	return retError(ErrTransaction, "xdb_rollback", l.rollback(uintptr(conn)))
}

// Prepare implements engine.Statements.
func (l *Library) Prepare(conn engine.Conn, sql string) (engine.Stmt, error) {
	p := l.prepare(uintptr(conn), sql)
	if p == 0 {
		return 0, ErrPrepare
	}
	return engine.Stmt(p), nil
}

// ClearBindings implements engine.Statements.
func (l *Library) ClearBindings(stmt engine.Stmt) error {
	return retError(ErrBind, "xdb_clear_bindings", l.clearBindings(uintptr(stmt)))
}

// BindInt implements engine.Statements.
func (l *Library) BindInt(stmt engine.Stmt, pos int, v int32) error {
	return retError(ErrBind, "xdb_bind_int", l.bindInt(uintptr(stmt), uint16(pos), v))
}

// BindInt64 implements engine.Statements.
func (l *Library) BindInt64(stmt engine.Stmt, pos int, v int64) error {
	return retError(ErrBind, "xdb_bind_int64", l.bindInt64(uintptr(stmt), uint16(pos), v))
}

// BindFloat implements engine.Statements.
func (l *Library) BindFloat(stmt engine.Stmt, pos int, v float32) error {
	return retError(ErrBind, "xdb_bind_float", l.bindFloat(uintptr(stmt), uint16(pos), v))
}

// BindDouble implements engine.Statements.
func (l *Library) BindDouble(stmt engine.Stmt, pos int, v float64) error {
	return retError(ErrBind, "xdb_bind_double", l.bindDouble(uintptr(stmt), uint16(pos), v))
}

// BindText implements engine.Statements.
func (l *Library) BindText(stmt engine.Stmt, pos int, v string) error {
	return retError(ErrBind, "xdb_bind_str2", l.bindStr2(uintptr(stmt), uint16(pos), v, int32(len(v))))
}

// StmtExec implements engine.Statements.
func (l *Library) StmtExec(stmt engine.Stmt) (engine.Result, error) {
	p := l.stmtExec(uintptr(stmt))
	if p == 0 {
		return 0, engine.ErrNoResult
	}
	return engine.Result(p), nil
}

// CloseStmt implements engine.Statements.
func (l *Library) CloseStmt(stmt engine.Stmt) { l.stmtClose(uintptr(stmt)) }

// Exec implements engine.Results.
func (l *Library) Exec(conn engine.Conn, sql string) (engine.Result, error) {
	p := l.exec(uintptr(conn), sql)
	if p == 0 {
		return 0, engine.ErrNoResult
	}
	return engine.Result(p), nil
}

// Status implements engine.Results.
func (l *Library) Status(res engine.Result) engine.Status {
	// res is a C-owned xdb_res_t.
	r := (*cResult)(unsafe.Pointer(uintptr(res)))
	return engine.Status{
		Code:         r.ErrCode,
		ColumnCount:  int(r.ColCount),
		RowCount:     r.RowCount,
		AffectedRows: r.AffectedRows,
		InsertID:     r.InsertID,
		Meta:         engine.Meta(r.ColMeta),
	}
}

// ErrMsg implements engine.Results.
func (l *Library) ErrMsg(res engine.Result) string {
	return string(cBytes(l.errmsg(uintptr(res))))
}

// FetchRow implements engine.Results.
func (l *Library) FetchRow(res engine.Result) (engine.Row, bool) {
	p := l.fetchRow(uintptr(res))
	return engine.Row(p), p != 0
}

// FreeResult implements engine.Results.
func (l *Library) FreeResult(res engine.Result) { l.freeRes(uintptr(res)) }

// ColumnName implements engine.Cells.
func (l *Library) ColumnName(meta engine.Meta, col int) []byte {
	return cBytes(l.columnName(uint64(meta), uint16(col)))
}

// ColumnType implements engine.Cells.
func (l *Library) ColumnType(meta engine.Meta, col int) uint32 {
	return l.columnType(uint64(meta), uint16(col))
}

// IsNull implements engine.Cells.
func (l *Library) IsNull(meta engine.Meta, row engine.Row, col int) bool {
	return l.columnNull(uint64(meta), uintptr(row), uint16(col))
}

// ColumnInt implements engine.Cells.
func (l *Library) ColumnInt(meta engine.Meta, row engine.Row, col int) int32 {
	return l.columnInt(uint64(meta), uintptr(row), uint16(col))
}

// ColumnInt64 implements engine.Cells.
func (l *Library) ColumnInt64(meta engine.Meta, row engine.Row, col int) int64 {
	return l.columnInt64(uint64(meta), uintptr(row), uint16(col))
}

// ColumnFloat implements engine.Cells.
func (l *Library) ColumnFloat(meta engine.Meta, row engine.Row, col int) float32 {
	return l.columnFloat(uint64(meta), uintptr(row), uint16(col))
}

// ColumnDouble implements engine.Cells.
func (l *Library) ColumnDouble(meta engine.Meta, row engine.Row, col int) float64 {
	return l.columnDouble(uint64(meta), uintptr(row), uint16(col))
}

// ColumnBool implements engine.Cells.
func (l *Library) ColumnBool(meta engine.Meta, row engine.Row, col int) int32 {
	return l.columnBool(uint64(meta), uintptr(row), uint16(col))
}

// ColumnStr implements engine.Cells.
func (l *Library) ColumnStr(meta engine.Meta, row engine.Row, col int) []byte {
	return cBytes(l.columnStr(uint64(meta), uintptr(row), uint16(col)))
}

// ColumnBlob implements engine.Cells.
func (l *Library) ColumnBlob(meta engine.Meta, row engine.Row, col int) ([]byte, int) {
	var n int32
	p := l.columnBlob(uint64(meta), uintptr(row), uint16(col), &n)
	if p == 0 || n <= 0 {
		return nil, int(n)
	}
	// p points into C-owned row memory; the GC never moves it.
	return unsafe.Slice((*byte)(unsafe.Pointer(p)), int(n)), int(n)
}

// ColumnInet implements engine.Cells.
func (l *Library) ColumnInet(meta engine.Meta, row engine.Row, col int) engine.Inet {
	p := l.columnInet(uint64(meta), uintptr(row), uint16(col))
	if p == 0 {
		return engine.Inet{}
	}
	// p points into C-owned row memory; the GC never moves it.
	in := (*cInet)(unsafe.Pointer(p))
	return engine.Inet{Mask: in.Mask, Family: in.Family, Addr: in.Addr}
}

// ColumnMac implements engine.Cells.
func (l *Library) ColumnMac(meta engine.Meta, row engine.Row, col int) engine.Mac {
	p := l.columnMac(uint64(meta), uintptr(row), uint16(col))
	if p == 0 {
		return engine.Mac{}
	}
	// p points into C-owned row memory; the GC never moves it.
	return *(*engine.Mac)(unsafe.Pointer(p))
}

// cBytes returns the bytes before the NUL terminator at p, aliasing library memory.
// p must be C-owned; vet's unsafe.Pointer warnings here are expected.
func cBytes(p uintptr) []byte {
	if p == 0 {
		return nil
	}
	n := 0
	for *(*byte)(unsafe.Pointer(p + uintptr(n))) != 0 {
		n++
	}
	if n == 0 {
		return []byte{}
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(p)), n)
}
