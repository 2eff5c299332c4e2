package xdb

import (
	"errors"
	"fmt"
	"runtime"
)

var (
	// ErrUnsupportedPlatform is returned by Load where dynamic loading is unavailable.
	ErrUnsupportedPlatform = errors.New("xdb: native library loading is not supported on " + runtime.GOOS)

	// ErrLoad wraps failures while opening the shared library.
	ErrLoad = errors.New("xdb: failed to load library")

	// ErrPrepare is returned when the library returns no statement.
	ErrPrepare = errors.New("xdb: failed to prepare statement")

	// ErrBind is returned when the library rejects a parameter.
	ErrBind = errors.New("xdb: failed to bind parameter")

	// ErrTransaction is returned when begin, commit or rollback fails.
	ErrTransaction = errors.New("xdb: transaction call failed")
)

// DefaultLibrary returns the conventional shared library name for the
// current platform.
func DefaultLibrary() string {
	switch runtime.GOOS {
	case "darwin":
		return "libcrossdb.dylib"
	case "windows":
		return "crossdb.dll"
	default:
		return "libcrossdb.so"
	}
}

func retError(base error, what string, ret int32) error {
	if ret == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s returned %d", base, what, ret)
}
