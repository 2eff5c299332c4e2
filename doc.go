/*
Package crossdb is a typed client for the CrossDB embedded database engine.

A Conn wraps an engine.Engine implementation: the native library through
package xdb, the Tarmac host SQL capability through package hostdb, or the
scripted engine in engine/mock for tests.

	conn, err := crossdb.Open(crossdb.Config{Engine: eng, Path: "./data"})
	if err != nil {
	  return err
	}
	defer conn.Close()

	res, err := conn.Query("SELECT id, name FROM student")
	if err != nil {
	  return err
	}
	for res.Next() {
	  row := res.Row()
	  fmt.Println(row.Get(0), row.GetByName("name"))
	}
	if err := res.Err(); err != nil {
	  return err
	}

Cells are decoded into Value variants by declared column type. Text and
binary payloads are copied out of engine memory, so rows stay valid after the
result is closed. Decode, Row.Scan and Collect map rows onto structs by `db`
tag or case-insensitive field name.

Prepared statements obtained with PrepareCached are kept in a per-connection
least-recently-used cache keyed by SQL text. Evicted statements are released
exactly once and afterwards report ErrStmtClosed.

Engine type codes or address families outside the known set panic with a
*ContractError, which matches ErrContractViolation.
*/
package crossdb
