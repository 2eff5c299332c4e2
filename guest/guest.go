package guest

import (
	"fmt"

	wapc "github.com/wapc/wapc-guest-tinygo"
)

// DefaultNamespace is used when no explicit namespace is provided.
const DefaultNamespace = "tarmac"

var (
	// ErrHandlerNil is returned when the provided function handler is nil.
	ErrHandlerNil = fmt.Errorf("function handler cannot be nil")
)

// HostCall is the waPC host function signature shared by host-backed components.
type HostCall func(namespace, capability, function string, payload []byte) ([]byte, error)

// Config provides configuration options for guest initialization.
type Config struct {
	// Namespace controls the function namespace to use for host callbacks.
	// If empty, DefaultNamespace is used.
	Namespace string

	// Handler is the function registered as the WebAssembly entry point.
	Handler func([]byte) ([]byte, error)
}

// RuntimeConfig carries configuration used when creating host-backed
// components such as hostdb engines, log handlers and metric instruments.
type RuntimeConfig struct {
	// Namespace is the function namespace used to scope host interactions.
	Namespace string
}

// WithDefaults returns a copy with DefaultNamespace filled in when unset.
func (r RuntimeConfig) WithDefaults() RuntimeConfig {
	if r.Namespace == "" {
		r.Namespace = DefaultNamespace
	}
	return r
}

// Guest represents the initialized runtime with a registered waPC handler.
type Guest struct {
	runtime RuntimeConfig
	handler func([]byte) ([]byte, error)
}

// New initializes the guest and registers the handler with waPC.
func New(config Config) (*Guest, error) {
	if config.Handler == nil {
		return nil, ErrHandlerNil
	}

	g := &Guest{
		runtime: RuntimeConfig{Namespace: config.Namespace}.WithDefaults(),
		handler: config.Handler,
	}

	wapc.RegisterFunction("handler", g.handler)

	return g, nil
}

// Config returns the current runtime configuration snapshot.
func (g *Guest) Config() RuntimeConfig { return g.runtime }

// ResolveHostCall returns hc, or the waPC host call when hc is nil.
func ResolveHostCall(hc HostCall) HostCall {
	if hc == nil {
		return wapc.HostCall
	}
	return hc
}
