package crossdb

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/tarmac-project/crossdb/engine"
	"github.com/tarmac-project/crossdb/stmtcache"
)

const (
	// MemoryPath opens an in-memory database.
	MemoryPath = ":memory:"

	// DefaultStatementCacheCapacity is used when Config leaves it unset.
	DefaultStatementCacheCapacity = 32
)

// Config controls how a Conn is opened.
type Config struct {
	// Engine is the engine implementation to open the database with.
	Engine engine.Engine

	// Path is the database location. If empty, MemoryPath is used.
	Path string

	// StatementCacheCapacity bounds the prepared statement cache. If zero,
	// DefaultStatementCacheCapacity is used.
	StatementCacheCapacity int

	// Logger receives debug and error records. If nil, logging is discarded.
	Logger *slog.Logger

	// Instruments are optional metric handles.
	Instruments Instruments
}

// ExecResult reports the outcome of a statement that does not return rows.
type ExecResult struct {
	AffectedRows uint64
	InsertID     uint64
}

// Conn is an open database connection with its own statement cache.
type Conn struct {
	eng    engine.Engine
	handle engine.Conn
	path   string
	cache  *stmtcache.Cache[*Stmt]
	log    *slog.Logger
	inst   Instruments

	mu      sync.Mutex
	closed  bool
	stmts   map[*Stmt]struct{}
	results map[*Result]struct{}
}

// Open opens the database described by cfg.
func Open(cfg Config) (*Conn, error) {
	if cfg.Engine == nil {
		return nil, ErrNilEngine
	}
	if cfg.Path == "" {
		cfg.Path = MemoryPath
	}
	if cfg.StatementCacheCapacity == 0 {
		cfg.StatementCacheCapacity = DefaultStatementCacheCapacity
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	c := &Conn{
		eng:  cfg.Engine,
		path: cfg.Path,
		log:  cfg.Logger.With("db", cfg.Path),
		inst: cfg.Instruments,

		stmts:   make(map[*Stmt]struct{}),
		results: make(map[*Result]struct{}),
	}

	cache, err := stmtcache.New(stmtcache.Config[*Stmt]{
		Capacity:  cfg.StatementCacheCapacity,
		Release:   c.evict,
		Hits:      cfg.Instruments.CacheHits,
		Misses:    cfg.Instruments.CacheMisses,
		Evictions: cfg.Instruments.CacheEvictions,
		Entries:   cfg.Instruments.CacheEntries,
	})
	if err != nil {
		return nil, err
	}
	c.cache = cache

	h, err := cfg.Engine.Open(cfg.Path)
	if err != nil {
		return nil, errors.Join(engine.ErrOpen, err)
	}
	c.handle = h

	c.log.Debug("opened database")
	return c, nil
}

// OpenMemory opens an in-memory database on eng with default settings.
func OpenMemory(eng engine.Engine) (*Conn, error) {
	return Open(Config{Engine: eng, Path: MemoryPath})
}

func (c *Conn) evict(sql string, s *Stmt) {
	c.log.Debug("releasing cached statement", "sql", sql)
	s.release()
}

func (c *Conn) failed(sql string, err error) {
	c.inst.queryError()
	c.log.Error("query failed", "sql", sql, "error", err)
}

func (c *Conn) check() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	return nil
}

// Query executes sql and returns its rows.
func (c *Conn) Query(sql string) (*Result, error) {
	if err := c.check(); err != nil {
		return nil, err
	}

	start := time.Now()
	h, err := c.eng.Exec(c.handle, sql)
	if err != nil {
		err = errors.Join(ErrQuery, err)
		c.failed(sql, err)
		return nil, err
	}
	c.inst.observe(time.Since(start).Seconds())

	res, err := c.track(h)
	if err != nil {
		c.failed(sql, err)
		return nil, err
	}
	return res, nil
}

// track wraps h in a Result owned by c. Results still open when c closes
// are released by Close.
func (c *Conn) track(h engine.Result) (*Result, error) {
	res, err := newResult(c.eng, h)
	if err != nil {
		return nil, err
	}
	res.conn = c

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		_ = res.Close()
		return nil, ErrClosed
	}
	c.results[res] = struct{}{}
	c.mu.Unlock()
	return res, nil
}

func (c *Conn) forgetResult(r *Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.results, r)
}

func (c *Conn) forgetStmt(s *Stmt) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.stmts, s)
}

// Exec executes sql, discarding any rows.
func (c *Conn) Exec(sql string) (ExecResult, error) {
	res, err := c.Query(sql)
	if err != nil {
		return ExecResult{}, err
	}
	defer res.Close()
	return ExecResult{AffectedRows: res.AffectedRows(), InsertID: res.InsertID()}, nil
}

// Prepare prepares sql outside the statement cache. The caller owns the
// returned statement and must Close it.
func (c *Conn) Prepare(sql string) (*Stmt, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	s, err := c.prepare(sql, false)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		s.release()
		return nil, ErrClosed
	}
	c.stmts[s] = struct{}{}
	c.mu.Unlock()
	return s, nil
}

// PrepareCached returns the cached statement for sql, preparing it on a
// miss. The statement stays owned by the cache; once evicted it reports
// ErrStmtClosed.
func (c *Conn) PrepareCached(sql string) (*Stmt, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	return c.cache.GetOrCreate(sql, func(sql string) (*Stmt, error) {
		return c.prepare(sql, true)
	})
}

func (c *Conn) prepare(sql string, cached bool) (*Stmt, error) {
	h, err := c.eng.Prepare(c.handle, sql)
	if err != nil {
		c.log.Debug("prepare failed", "sql", sql, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrPrepare, err)
	}
	c.log.Debug("prepared statement", "sql", sql, "cached", cached)
	return &Stmt{conn: c, handle: h, sql: sql, cached: cached}, nil
}

// Begin starts a transaction.
func (c *Conn) Begin() error { return c.tx(c.eng.Begin) }

// Commit commits the current transaction.
func (c *Conn) Commit() error { return c.tx(c.eng.Commit) }

// Rollback aborts the current transaction.
func (c *Conn) Rollback() error { return c.tx(c.eng.Rollback) }

func (c *Conn) tx(fn func(engine.Conn) error) error {
	if err := c.check(); err != nil {
		return err
	}
	if err := fn(c.handle); err != nil {
		return errors.Join(ErrQuery, err)
	}
	return nil
}

// SetStatementCacheCapacity resizes the statement cache, releasing least
// recently used statements immediately when shrinking. Zero is rejected.
func (c *Conn) SetStatementCacheCapacity(n int) error {
	evicted, err := c.cache.Resize(n)
	if err != nil {
		return err
	}
	if evicted > 0 {
		c.log.Debug("statement cache resized", "capacity", n, "evicted", evicted)
	}
	return nil
}

// StatementCacheCapacity returns the statement cache capacity.
func (c *Conn) StatementCacheCapacity() int { return c.cache.Capacity() }

// CachedStatements returns the cached SQL texts from least to most recently used.
func (c *Conn) CachedStatements() []string { return c.cache.Keys() }

// ClearStatementCache releases every cached statement.
func (c *Conn) ClearStatementCache() { c.cache.Clear() }

// Path returns the database location.
func (c *Conn) Path() string { return c.path }

// Close releases open results and statements, cached or not, and closes the
// connection. Results left open report ErrClosed. It is safe to call more
// than once.
func (c *Conn) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	results, stmts := c.results, c.stmts
	c.results, c.stmts = map[*Result]struct{}{}, map[*Stmt]struct{}{}
	c.mu.Unlock()

	for r := range results {
		r.abandon()
	}
	for s := range stmts {
		s.release()
	}
	c.cache.Clear()
	c.eng.Close(c.handle)
	c.log.Debug("closed database", "results", len(results), "statements", len(stmts))
	return nil
}
