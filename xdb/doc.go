/*
Package xdb binds the CrossDB shared library without cgo.

Load opens libcrossdb with purego and registers the xdb_* entry points. The
returned *Library implements engine.Engine and is passed to crossdb.Open:

	lib, err := xdb.Load(xdb.DefaultLibrary())
	if err != nil {
	  return err
	}
	conn, err := crossdb.Open(crossdb.Config{Engine: lib, Path: "./school"})

Result headers are read through a Go mirror of xdb_res_t. Pointers returned
by the library for strings and blobs are exposed as slices over library
memory; they are valid until the next xdb_fetch_row or xdb_free_result on the
same result.

Loading is available on darwin, freebsd, linux and netbsd. Elsewhere Load
returns ErrUnsupportedPlatform.
*/
package xdb
