/*
Package hostdb implements the crossdb engine contract over the Tarmac host
SQL capability, so a WebAssembly guest can use the typed client without
loading a native library.

Statements are sent as text. Queries whose leading keyword returns rows
(SELECT, SHOW, DESCRIBE, EXPLAIN, WITH, PRAGMA) go to the host "query"
function; everything else goes to "exec". The host answers queries with a
JSON array of objects, and column types are inferred from the values:
integers become BIGINT, other numbers DOUBLE, booleans BOOL and strings
VARCHAR. Mixed columns fall back to VARCHAR.

Parameter binding is not available; Bind calls return ErrBindUnsupported.

	eng, err := hostdb.New(hostdb.Config{})
	if err != nil {
		return err
	}
	conn, err := crossdb.Open(crossdb.Config{Engine: eng})
*/
package hostdb
