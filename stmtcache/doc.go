/*
Package stmtcache provides a bounded least-recently-used cache of prepared
statements keyed by SQL text.

The cache is the single owner of the values it holds. Every value that leaves
the cache, through eviction on insert, Resize or Clear, is passed to
Config.Release exactly once. SQL text is only ever used as an opaque key.

	c, _ := stmtcache.New(stmtcache.Config[*Stmt]{
	  Capacity: 32,
	  Release:  func(_ string, s *Stmt) { s.Close() },
	})
	stmt, err := c.GetOrCreate(sql, prepare)
*/
package stmtcache
