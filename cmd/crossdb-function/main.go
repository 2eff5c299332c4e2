// Command crossdb-function is a Tarmac WebAssembly function. It runs the SQL
// text it receives against the host database and answers with the rows as
// JSON.
package main

import (
	"github.com/tarmac-project/crossdb/guest"
)

func main() {
	f := &function{}
	g, err := guest.New(guest.Config{Handler: f.Handler})
	if err != nil {
		return
	}
	if err := f.setup(g.Config(), nil); err != nil {
		return
	}
}
