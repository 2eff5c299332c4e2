package mock

import (
	"fmt"
	"sync"

	"github.com/tarmac-project/crossdb/engine"
)

// Operation names recorded in Calls.
const (
	OpOpen     = "OPEN"
	OpClose    = "CLOSE"
	OpExec     = "EXEC"
	OpPrepare  = "PREPARE"
	OpStmtExec = "STMT_EXEC"
	OpBegin    = "BEGIN"
	OpCommit   = "COMMIT"
	OpRollback = "ROLLBACK"
)

// Column describes a scripted result column.
type Column struct {
	Name string
	Code uint32
}

// Col is shorthand for a Column literal.
func Col(name string, code uint32) Column { return Column{Name: name, Code: code} }

// Blob is a scripted binary cell whose reported length may differ from the
// backing buffer. Len <= 0 reports no payload.
type Blob struct {
	Data []byte
	Len  int
}

// Script is the configured outcome for one SQL text.
type Script struct {
	Columns      []Column
	Rows         [][]any
	Code         uint16
	Message      string
	AffectedRows uint64
	InsertID     uint64
}

// ScriptBuilder configures a Script with a fluent API.
type ScriptBuilder struct {
	m   *Engine
	sql string
}

// ReturnColumns sets the result columns.
func (b *ScriptBuilder) ReturnColumns(cols ...Column) *ScriptBuilder {
	b.update(func(s *Script) { s.Columns = append([]Column(nil), cols...) })
	return b
}

// ReturnRows appends rows of raw cell values. A nil cell is reported as null.
func (b *ScriptBuilder) ReturnRows(rows ...[]any) *ScriptBuilder {
	b.update(func(s *Script) { s.Rows = append(s.Rows, rows...) })
	return b
}

// ReturnAffected sets the affected row count and insert id.
func (b *ScriptBuilder) ReturnAffected(rows, insertID uint64) *ScriptBuilder {
	b.update(func(s *Script) {
		s.AffectedRows = rows
		s.InsertID = insertID
	})
	return b
}

// ReturnError makes execution report an engine error.
func (b *ScriptBuilder) ReturnError(code uint16, msg string) *Engine {
	b.update(func(s *Script) {
		s.Code = code
		s.Message = msg
	})
	return b.m
}

func (b *ScriptBuilder) update(fn func(*Script)) {
	b.m.mu.Lock()
	defer b.m.mu.Unlock()
	s := b.m.scripts[b.sql]
	fn(&s)
	b.m.scripts[b.sql] = s
}

// Call records an operation performed against the mock.
type Call struct {
	Op  string
	SQL string
}

type stmtState struct {
	sql    string
	binds  map[int]any
	closed bool
}

type resultState struct {
	script Script
	cursor int
	freed  bool
}

// Engine is a scripted, in-memory engine.Engine.
type Engine struct {
	mu      sync.Mutex
	scripts map[string]Script
	prepErr map[string]error
	conns   map[engine.Conn]bool
	stmts   map[engine.Stmt]*stmtState
	results map[engine.Result]*resultState
	next    uintptr

	// Calls stores a history of operations for assertions.
	Calls []Call

	// Prepares counts successful prepares per SQL text.
	Prepares map[string]int

	// StmtCloses counts statement releases per SQL text.
	StmtCloses map[string]int

	// DoubleCloses counts releases of already released statements.
	DoubleCloses int

	// Freed counts released results.
	Freed int

	// LastBindings holds the parameters of the latest execution per SQL text.
	LastBindings map[string]map[int]any
}

// Ensure Engine satisfies the engine contract at compile time.
var _ engine.Engine = (*Engine)(nil)

// New creates an empty mock engine.
func New() *Engine {
	return &Engine{
		scripts:      make(map[string]Script),
		prepErr:      make(map[string]error),
		conns:        make(map[engine.Conn]bool),
		stmts:        make(map[engine.Stmt]*stmtState),
		results:      make(map[engine.Result]*resultState),
		Prepares:     make(map[string]int),
		StmtCloses:   make(map[string]int),
		LastBindings: make(map[string]map[int]any),
	}
}

// On configures the outcome of executing sql, directly or prepared.
func (m *Engine) On(sql string) *ScriptBuilder {
	return &ScriptBuilder{m: m, sql: sql}
}

// FailPrepare makes preparing sql fail with err.
func (m *Engine) FailPrepare(sql string, err error) *Engine {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prepErr[sql] = err
	return m
}

// OpenStatements reports how many prepared statements are not yet released.
func (m *Engine) OpenStatements() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, s := range m.stmts {
		if !s.closed {
			n++
		}
	}
	return n
}

// LiveResults reports how many results are not yet released.
func (m *Engine) LiveResults() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, r := range m.results {
		if !r.freed {
			n++
		}
	}
	return n
}

func (m *Engine) handle() uintptr {
	m.next++
	return m.next
}

func (m *Engine) record(op, sql string) {
	m.Calls = append(m.Calls, Call{Op: op, SQL: sql})
}

// Open implements engine.Connections.
func (m *Engine) Open(path string) (engine.Conn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record(OpOpen, path)
	c := engine.Conn(m.handle())
	m.conns[c] = true
	return c, nil
}

// Close implements engine.Connections.
func (m *Engine) Close(conn engine.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record(OpClose, "")
	delete(m.conns, conn)
}

// Begin implements engine.Connections.
func (m *Engine) Begin(engine.Conn) error { return m.tx(OpBegin) }

// Commit implements engine.Connections.
func (m *Engine) Commit(engine.Conn) error { return m.tx(OpCommit) }

// Rollback implements engine.Connections.
func (m *Engine) Rollback(engine.Conn) error { return m.tx(OpRollback) }

func (m *Engine) tx(op string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record(op, "")
	return nil
}

// Prepare implements engine.Statements.
func (m *Engine) Prepare(_ engine.Conn, sql string) (engine.Stmt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record(OpPrepare, sql)
	if err, ok := m.prepErr[sql]; ok {
		return 0, err
	}
	s := engine.Stmt(m.handle())
	m.stmts[s] = &stmtState{sql: sql, binds: make(map[int]any)}
	m.Prepares[sql]++
	return s, nil
}

func (m *Engine) stmt(s engine.Stmt) *stmtState {
	st, ok := m.stmts[s]
	if !ok || st.closed {
		panic(fmt.Sprintf("mock: use of released statement %d", s))
	}
	return st
}

// ClearBindings implements engine.Statements.
func (m *Engine) ClearBindings(s engine.Stmt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stmt(s).binds = make(map[int]any)
	return nil
}

func (m *Engine) bind(s engine.Stmt, pos int, v any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if pos < 1 {
		return fmt.Errorf("mock: invalid parameter position %d", pos)
	}
	m.stmt(s).binds[pos] = v
	return nil
}

// BindInt implements engine.Statements.
func (m *Engine) BindInt(s engine.Stmt, pos int, v int32) error { return m.bind(s, pos, v) }

// BindInt64 implements engine.Statements.
func (m *Engine) BindInt64(s engine.Stmt, pos int, v int64) error { return m.bind(s, pos, v) }

// BindFloat implements engine.Statements.
func (m *Engine) BindFloat(s engine.Stmt, pos int, v float32) error { return m.bind(s, pos, v) }

// BindDouble implements engine.Statements.
func (m *Engine) BindDouble(s engine.Stmt, pos int, v float64) error { return m.bind(s, pos, v) }

// BindText implements engine.Statements.
func (m *Engine) BindText(s engine.Stmt, pos int, v string) error { return m.bind(s, pos, v) }

// StmtExec implements engine.Statements.
func (m *Engine) StmtExec(s engine.Stmt) (engine.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := m.stmt(s)
	m.record(OpStmtExec, st.sql)
	binds := make(map[int]any, len(st.binds))
	for k, v := range st.binds {
		binds[k] = v
	}
	m.LastBindings[st.sql] = binds
	return m.newResult(st.sql), nil
}

// CloseStmt implements engine.Statements.
func (m *Engine) CloseStmt(s engine.Stmt) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.stmts[s]
	if !ok {
		return
	}
	if st.closed {
		m.DoubleCloses++
		return
	}
	st.closed = true
	m.StmtCloses[st.sql]++
}

// Exec implements engine.Results.
func (m *Engine) Exec(_ engine.Conn, sql string) (engine.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record(OpExec, sql)
	return m.newResult(sql), nil
}

func (m *Engine) newResult(sql string) engine.Result {
	r := engine.Result(m.handle())
	m.results[r] = &resultState{script: m.scripts[sql]}
	return r
}

func (m *Engine) result(r engine.Result) *resultState {
	rs, ok := m.results[r]
	if !ok || rs.freed {
		panic(fmt.Sprintf("mock: use of released result %d", r))
	}
	return rs
}

// Status implements engine.Results.
func (m *Engine) Status(r engine.Result) engine.Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	rs := m.result(r)
	return engine.Status{
		Code:         rs.script.Code,
		ColumnCount:  len(rs.script.Columns),
		RowCount:     uint64(len(rs.script.Rows)),
		AffectedRows: rs.script.AffectedRows,
		InsertID:     rs.script.InsertID,
		Meta:         engine.Meta(r),
	}
}

// ErrMsg implements engine.Results.
func (m *Engine) ErrMsg(r engine.Result) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.result(r).script.Message
}

// FetchRow implements engine.Results.
func (m *Engine) FetchRow(r engine.Result) (engine.Row, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rs := m.result(r)
	if rs.cursor >= len(rs.script.Rows) {
		return 0, false
	}
	rs.cursor++
	return engine.Row(rs.cursor), true
}

// FreeResult implements engine.Results.
func (m *Engine) FreeResult(r engine.Result) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rs := m.result(r)
	rs.freed = true
	m.Freed++
}

func (m *Engine) column(meta engine.Meta, col int) Column {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.result(engine.Result(meta)).script.Columns[col]
}

func (m *Engine) cell(meta engine.Meta, row engine.Row, col int) any {
	m.mu.Lock()
	defer m.mu.Unlock()
	rs := m.result(engine.Result(meta))
	if int(row) != rs.cursor {
		panic(fmt.Sprintf("mock: row %d read after advancing to %d", row, rs.cursor))
	}
	return rs.script.Rows[row-1][col]
}

// ColumnName implements engine.Cells.
func (m *Engine) ColumnName(meta engine.Meta, col int) []byte {
	return []byte(m.column(meta, col).Name)
}

// ColumnType implements engine.Cells.
func (m *Engine) ColumnType(meta engine.Meta, col int) uint32 {
	return m.column(meta, col).Code
}

// IsNull implements engine.Cells.
func (m *Engine) IsNull(meta engine.Meta, row engine.Row, col int) bool {
	return m.cell(meta, row, col) == nil
}

// ColumnInt implements engine.Cells.
func (m *Engine) ColumnInt(meta engine.Meta, row engine.Row, col int) int32 {
	return int32(toInt64(m.cell(meta, row, col)))
}

// ColumnInt64 implements engine.Cells.
func (m *Engine) ColumnInt64(meta engine.Meta, row engine.Row, col int) int64 {
	return toInt64(m.cell(meta, row, col))
}

// ColumnFloat implements engine.Cells.
func (m *Engine) ColumnFloat(meta engine.Meta, row engine.Row, col int) float32 {
	return float32(toFloat64(m.cell(meta, row, col)))
}

// ColumnDouble implements engine.Cells.
func (m *Engine) ColumnDouble(meta engine.Meta, row engine.Row, col int) float64 {
	return toFloat64(m.cell(meta, row, col))
}

// ColumnBool implements engine.Cells.
func (m *Engine) ColumnBool(meta engine.Meta, row engine.Row, col int) int32 {
	return int32(toInt64(m.cell(meta, row, col)))
}

// ColumnStr implements engine.Cells.
func (m *Engine) ColumnStr(meta engine.Meta, row engine.Row, col int) []byte {
	switch v := m.cell(meta, row, col).(type) {
	case string:
		return []byte(v)
	case []byte:
		return v
	default:
		return nil
	}
}

// ColumnBlob implements engine.Cells.
func (m *Engine) ColumnBlob(meta engine.Meta, row engine.Row, col int) ([]byte, int) {
	switch v := m.cell(meta, row, col).(type) {
	case Blob:
		return v.Data, v.Len
	case []byte:
		return v, len(v)
	case string:
		return []byte(v), len(v)
	default:
		return nil, 0
	}
}

// ColumnInet implements engine.Cells.
func (m *Engine) ColumnInet(meta engine.Meta, row engine.Row, col int) engine.Inet {
	v, _ := m.cell(meta, row, col).(engine.Inet)
	return v
}

// ColumnMac implements engine.Cells.
func (m *Engine) ColumnMac(meta engine.Meta, row engine.Row, col int) engine.Mac {
	v, _ := m.cell(meta, row, col).(engine.Mac)
	return v
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case int:
		return int64(n)
	case int8:
		return int64(n)
	case int16:
		return int64(n)
	case int32:
		return int64(n)
	case int64:
		return n
	case uint:
		return int64(n)
	case uint8:
		return int64(n)
	case uint16:
		return int64(n)
	case uint32:
		return int64(n)
	case uint64:
		return int64(n)
	case bool:
		if n {
			return 1
		}
		return 0
	default:
		return 0
	}
}

func toFloat64(v any) float64 {
	switch n := v.(type) {
	case float32:
		return float64(n)
	case float64:
		return n
	default:
		return float64(toInt64(v))
	}
}
