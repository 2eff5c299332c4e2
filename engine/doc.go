/*
Package engine defines the boundary between the typed client and the CrossDB
embedded engine.

The engine is reached only through opaque handles (connections, statements,
results, rows and column metadata) and raw cell accessors. The interfaces in
this package mirror the xdb_* C API one call at a time and carry no logic of
their own; decoding, row assembly and statement caching live in the parent
crossdb package.

Implementations:

  - xdb binds the native libcrossdb shared library.
  - hostdb forwards execution to the Tarmac host SQL capability.
  - engine/mock is a scripted in-memory engine for tests.
*/
package engine
