package hostdb

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/tarmac-project/crossdb/engine"
	"github.com/tarmac-project/crossdb/guest"
	sdkproto "github.com/tarmac-project/protobuf-go/sdk"
	proto "github.com/tarmac-project/protobuf-go/sdk/sql"
)

const (
	capabilityName = "sql"
	fnExec         = "exec"
	fnQuery        = "query"

	hostStatusOK       = int32(200)
	hostStatusPartial  = int32(206)
	hostStatusBadInput = int32(400)
	hostStatusMissing  = int32(404)
	hostStatusError    = int32(500)
)

var (
	// ErrInvalidQuery indicates an empty SQL query.
	ErrInvalidQuery = errors.New("query is invalid")

	// ErrMarshalRequest wraps failures while encoding the request payload.
	ErrMarshalRequest = errors.New("failed to marshal request")

	// ErrUnmarshalResponse wraps failures while decoding the host response.
	ErrUnmarshalResponse = errors.New("failed to unmarshal response")

	// ErrBindUnsupported is returned when binding parameters; the host
	// capability only accepts complete SQL text.
	ErrBindUnsupported = errors.New("parameter binding is not supported by the host")
)

// Config controls how an Engine interacts with the host runtime.
type Config struct {
	// SDKConfig provides the runtime namespace used for host calls.
	SDKConfig guest.RuntimeConfig

	// HostCall overrides the waPC host function used for SQL operations.
	HostCall guest.HostCall
}

// Engine implements engine.Engine over the Tarmac host SQL capability.
type Engine struct {
	runtime  guest.RuntimeConfig
	hostCall guest.HostCall

	mu      sync.Mutex
	next    uintptr
	stmts   map[engine.Stmt]string
	results map[engine.Result]*result
}

// Ensure Engine satisfies the engine contract at compile time.
var _ engine.Engine = (*Engine)(nil)

// New creates a host-backed engine.
func New(config Config) (*Engine, error) {
	return &Engine{
		runtime:  config.SDKConfig.WithDefaults(),
		hostCall: guest.ResolveHostCall(config.HostCall),
		stmts:    make(map[engine.Stmt]string),
		results:  make(map[engine.Result]*result),
	}, nil
}

func (e *Engine) handle() uintptr {
	e.next++
	return e.next
}

// Open implements engine.Connections. The host owns the database, so path
// only labels the connection.
func (e *Engine) Open(string) (engine.Conn, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return engine.Conn(e.handle()), nil
}

// Close implements engine.Connections.
func (e *Engine) Close(engine.Conn) {}

// Begin implements engine.Connections.
func (e *Engine) Begin(conn engine.Conn) error { return e.control(conn, "BEGIN") }

// Commit implements engine.Connections.
func (e *Engine) Commit(conn engine.Conn) error { return e.control(conn, "COMMIT") }

// Rollback implements engine.Connections.
func (e *Engine) Rollback(conn engine.Conn) error { return e.control(conn, "ROLLBACK") }

func (e *Engine) control(_ engine.Conn, sql string) error {
	res, err := e.exec(sql)
	if err != nil {
		return err
	}
	if res.code != engine.CodeOK {
		return fmt.Errorf("%w: %s", guest.ErrHostError, res.msg)
	}
	return nil
}

// Prepare implements engine.Statements. The text is kept and sent on each execution.
func (e *Engine) Prepare(_ engine.Conn, sql string) (engine.Stmt, error) {
	if strings.TrimSpace(sql) == "" {
		return 0, ErrInvalidQuery
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	s := engine.Stmt(e.handle())
	e.stmts[s] = sql
	return s, nil
}

// ClearBindings implements engine.Statements.
func (e *Engine) ClearBindings(engine.Stmt) error { return nil }

// BindInt implements engine.Statements.
func (e *Engine) BindInt(engine.Stmt, int, int32) error { return ErrBindUnsupported }

// BindInt64 implements engine.Statements.
func (e *Engine) BindInt64(engine.Stmt, int, int64) error { return ErrBindUnsupported }

// BindFloat implements engine.Statements.
func (e *Engine) BindFloat(engine.Stmt, int, float32) error { return ErrBindUnsupported }

// BindDouble implements engine.Statements.
func (e *Engine) BindDouble(engine.Stmt, int, float64) error { return ErrBindUnsupported }

// BindText implements engine.Statements.
func (e *Engine) BindText(engine.Stmt, int, string) error { return ErrBindUnsupported }

// StmtExec implements engine.Statements.
func (e *Engine) StmtExec(stmt engine.Stmt) (engine.Result, error) {
	e.mu.Lock()
	sql, ok := e.stmts[stmt]
	e.mu.Unlock()
	if !ok {
		return 0, fmt.Errorf("%w: unknown statement %d", ErrInvalidQuery, stmt)
	}
	return e.Exec(0, sql)
}

// CloseStmt implements engine.Statements.
func (e *Engine) CloseStmt(stmt engine.Stmt) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.stmts, stmt)
}

// Exec implements engine.Results. Row-returning statements go to the host
// query function, everything else to exec.
func (e *Engine) Exec(_ engine.Conn, sql string) (engine.Result, error) {
	var (
		res *result
		err error
	)
	if returnsRows(sql) {
		res, err = e.query(sql)
	} else {
		res, err = e.exec(sql)
	}
	if err != nil {
		return 0, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	h := engine.Result(e.handle())
	e.results[h] = res
	return h, nil
}

var rowKeywords = []string{"SELECT", "SHOW", "DESCRIBE", "DESC", "EXPLAIN", "WITH", "PRAGMA"}

// returnsRows classifies sql by its leading keyword.
func returnsRows(sql string) bool {
	fields := strings.Fields(sql)
	if len(fields) == 0 {
		return false
	}
	head := strings.ToUpper(strings.TrimLeft(fields[0], "("))
	for _, kw := range rowKeywords {
		if head == kw {
			return true
		}
	}
	return false
}

func (e *Engine) exec(query string) (*result, error) {
	if query == "" {
		return nil, ErrInvalidQuery
	}

	req := &proto.SQLExec{Query: []byte(query)}
	b, err := req.MarshalVT()
	if err != nil {
		return nil, errors.Join(ErrMarshalRequest, err)
	}

	respBytes, callErr := e.hostCall(e.runtime.Namespace, capabilityName, fnExec, b)
	if callErr != nil && len(respBytes) == 0 {
		return nil, errors.Join(guest.ErrHostCall, callErr)
	}

	var resp proto.SQLExecResponse
	if unmarshalErr := resp.UnmarshalVT(respBytes); unmarshalErr != nil {
		return nil, unmarshalError(callErr, unmarshalErr)
	}

	res, err := statusResult(resp.GetStatus(), callErr)
	if err != nil || res != nil {
		return res, err
	}

	return &result{
		affected: uint64(resp.GetRowsAffected()),
		insertID: uint64(resp.GetLastInsertId()),
	}, nil
}

func (e *Engine) query(query string) (*result, error) {
	if query == "" {
		return nil, ErrInvalidQuery
	}

	req := &proto.SQLQuery{Query: []byte(query)}
	b, err := req.MarshalVT()
	if err != nil {
		return nil, errors.Join(ErrMarshalRequest, err)
	}

	respBytes, callErr := e.hostCall(e.runtime.Namespace, capabilityName, fnQuery, b)
	if callErr != nil && len(respBytes) == 0 {
		return nil, errors.Join(guest.ErrHostCall, callErr)
	}

	var resp proto.SQLQueryResponse
	if unmarshalErr := resp.UnmarshalVT(respBytes); unmarshalErr != nil {
		return nil, unmarshalError(callErr, unmarshalErr)
	}

	res, err := statusResult(resp.GetStatus(), callErr)
	if err != nil || res != nil {
		return res, err
	}

	return decodeRows(resp.GetColumns(), resp.GetData())
}

func unmarshalError(callErr, unmarshalErr error) error {
	if callErr != nil {
		return errors.Join(
			guest.ErrHostCall,
			callErr,
			guest.ErrHostResponseInvalid,
			ErrUnmarshalResponse,
			unmarshalErr,
		)
	}
	return errors.Join(guest.ErrHostResponseInvalid, ErrUnmarshalResponse, unmarshalErr)
}

// statusResult maps a host status onto a failed result. It returns nil, nil
// for success and an error when the response itself is unusable.
func statusResult(status *sdkproto.Status, callErr error) (*result, error) {
	if status == nil {
		if callErr != nil {
			return nil, errors.Join(guest.ErrHostCall, callErr, guest.ErrHostResponseInvalid)
		}
		return nil, guest.ErrHostResponseInvalid
	}

	code := status.GetCode()
	switch code {
	case hostStatusOK, hostStatusPartial:
		return nil, nil
	case hostStatusBadInput, hostStatusMissing, hostStatusError:
		msg := fmt.Sprintf("host status %d", code)
		if detail := status.GetStatus(); detail != "" {
			msg = fmt.Sprintf("%s: %s", msg, detail)
		}
		if callErr != nil {
			msg = fmt.Sprintf("%s (%v)", msg, callErr)
		}
		return &result{code: uint16(code), msg: msg}, nil
	default:
		statusErr := fmt.Errorf("unexpected host status code %d", code)
		if callErr != nil {
			return nil, errors.Join(guest.ErrHostCall, callErr, guest.ErrHostResponseInvalid, statusErr)
		}
		return nil, errors.Join(guest.ErrHostResponseInvalid, statusErr)
	}
}

func (e *Engine) result(h engine.Result) *result {
	e.mu.Lock()
	defer e.mu.Unlock()
	r, ok := e.results[h]
	if !ok {
		panic(fmt.Sprintf("hostdb: use of released result %d", h))
	}
	return r
}

// Status implements engine.Results.
func (e *Engine) Status(h engine.Result) engine.Status {
	r := e.result(h)
	return engine.Status{
		Code:         r.code,
		ColumnCount:  len(r.columns),
		RowCount:     uint64(len(r.rows)),
		AffectedRows: r.affected,
		InsertID:     r.insertID,
		Meta:         engine.Meta(h),
	}
}

// ErrMsg implements engine.Results.
func (e *Engine) ErrMsg(h engine.Result) string { return e.result(h).msg }

// FetchRow implements engine.Results.
func (e *Engine) FetchRow(h engine.Result) (engine.Row, bool) {
	r := e.result(h)
	if r.cursor >= len(r.rows) {
		return 0, false
	}
	r.cursor++
	return engine.Row(r.cursor), true
}

// FreeResult implements engine.Results.
func (e *Engine) FreeResult(h engine.Result) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.results, h)
}
