//go:build !(darwin || freebsd || linux || netbsd)

package xdb

import "github.com/tarmac-project/crossdb/engine"

// Library is unavailable on this platform.
type Library struct {
	engine.Engine
}

// Load always returns ErrUnsupportedPlatform on this platform.
func Load(string) (*Library, error) {
	return nil, ErrUnsupportedPlatform
}

// Unload is a no-op on this platform.
func (*Library) Unload() error { return nil }
