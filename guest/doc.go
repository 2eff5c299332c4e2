/*
Package guest provides the waPC entry point and runtime configuration for
running crossdb inside a Tarmac WebAssembly function.

New registers the function handler. RuntimeConfig is shared by the
host-backed components (hostdb, logging, metrics) so every host call is
scoped to the same namespace. DefaultNamespace is used when a namespace is
not explicitly provided.
*/
package guest
