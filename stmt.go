package crossdb

import (
	"errors"
	"sync"
	"time"

	"github.com/tarmac-project/crossdb/engine"
)

// Stmt is a prepared statement. Statements returned by Conn.PrepareCached
// belong to the connection's statement cache and are closed when evicted.
type Stmt struct {
	conn   *Conn
	handle engine.Stmt
	sql    string
	cached bool

	mu     sync.Mutex
	closed bool
}

// SQL returns the statement text.
func (s *Stmt) SQL() string { return s.sql }

// Query executes the statement with positional args and returns its rows.
func (s *Stmt) Query(args ...any) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.conn.check(); err != nil {
		return nil, err
	}
	if s.closed {
		return nil, ErrStmtClosed
	}

	if err := s.bind(args); err != nil {
		return nil, err
	}

	start := time.Now()
	h, err := s.conn.eng.StmtExec(s.handle)
	if err != nil {
		err = errors.Join(ErrQuery, err)
		s.conn.failed(s.sql, err)
		return nil, err
	}
	s.conn.inst.observe(time.Since(start).Seconds())

	res, err := s.conn.track(h)
	if err != nil {
		s.conn.failed(s.sql, err)
		return nil, err
	}
	return res, nil
}

// Exec executes the statement with positional args, discarding any rows.
func (s *Stmt) Exec(args ...any) (ExecResult, error) {
	res, err := s.Query(args...)
	if err != nil {
		return ExecResult{}, err
	}
	defer res.Close()
	return ExecResult{AffectedRows: res.AffectedRows(), InsertID: res.InsertID()}, nil
}

func (s *Stmt) bind(args []any) error {
	if err := s.conn.eng.ClearBindings(s.handle); err != nil {
		return errors.Join(ErrBind, err)
	}
	for i, arg := range args {
		if err := bindParam(s.conn.eng, s.handle, i+1, arg); err != nil {
			return err
		}
	}
	return nil
}

// Close releases an uncached statement. Closing a cached statement is a
// no-op; the cache releases it on eviction.
func (s *Stmt) Close() error {
	if s.cached {
		return nil
	}
	s.release()
	s.conn.forgetStmt(s)
	return nil
}

func (s *Stmt) release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.conn.eng.CloseStmt(s.handle)
}
