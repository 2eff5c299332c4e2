package logging

import (
	"bytes"
	"context"
	"log/slog"
	"sync"

	"github.com/tarmac-project/crossdb/guest"
)

const capabilityName = "logging"

// LevelTrace sits below slog.LevelDebug and maps to the host Trace function.
const LevelTrace = slog.Level(-8)

// Client exposes convenience helpers for sending log entries to the host runtime.
type Client interface {
	Info(message string)
	Warn(message string)
	Error(message string)
	Debug(message string)
	Trace(message string)
}

// Config controls how a Client or Handler interacts with the host runtime.
type Config struct {
	// SDKConfig provides the runtime namespace used for host calls.
	SDKConfig guest.RuntimeConfig

	// HostCall overrides the waPC host function used for logging operations.
	HostCall guest.HostCall

	// Level is the minimum level a Handler forwards. Defaults to slog.LevelInfo.
	Level slog.Leveler
}

// client implements Client using the configured host call entrypoint.
type client struct {
	runtime  guest.RuntimeConfig
	hostCall guest.HostCall
}

// New creates a Client that emits logs through the configured host capability.
func New(cfg Config) (Client, error) {
	return newClient(cfg), nil
}

func newClient(cfg Config) *client {
	return &client{
		runtime:  cfg.SDKConfig.WithDefaults(),
		hostCall: guest.ResolveHostCall(cfg.HostCall),
	}
}

func (c *client) Info(message string)  { c.log("Info", message) }
func (c *client) Warn(message string)  { c.log("Warn", message) }
func (c *client) Error(message string) { c.log("Error", message) }
func (c *client) Debug(message string) { c.log("Debug", message) }
func (c *client) Trace(message string) { c.log("Trace", message) }

func (c *client) log(fn string, message string) {
	_, _ = c.hostCall(c.runtime.Namespace, capabilityName, fn, []byte(message))
}

// Handler is a slog.Handler that forwards records to the host logging
// capability, formatted as logfmt text without the time and level fields.
type Handler struct {
	client *client
	level  slog.Leveler
	text   slog.Handler
	buf    *bytes.Buffer
	mu     *sync.Mutex
}

var _ slog.Handler = (*Handler)(nil)

// NewHandler creates a Handler. Use it as the logger of a crossdb.Conn
// running inside a WebAssembly guest.
func NewHandler(cfg Config) (*Handler, error) {
	level := cfg.Level
	if level == nil {
		level = slog.LevelInfo
	}
	buf := &bytes.Buffer{}
	return &Handler{
		client: newClient(cfg),
		level:  level,
		buf:    buf,
		mu:     &sync.Mutex{},
		text: slog.NewTextHandler(buf, &slog.HandlerOptions{
			Level: LevelTrace,
			ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
				if len(groups) == 0 && (a.Key == slog.TimeKey || a.Key == slog.LevelKey) {
					return slog.Attr{}
				}
				return a
			},
		}),
	}, nil
}

// Enabled implements slog.Handler.
func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle implements slog.Handler.
func (h *Handler) Handle(ctx context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.buf.Reset()
	if err := h.text.Handle(ctx, r); err != nil {
		return err
	}
	msg := string(bytes.TrimSuffix(h.buf.Bytes(), []byte("\n")))

	switch {
	case r.Level >= slog.LevelError:
		h.client.Error(msg)
	case r.Level >= slog.LevelWarn:
		h.client.Warn(msg)
	case r.Level >= slog.LevelInfo:
		h.client.Info(msg)
	case r.Level >= slog.LevelDebug:
		h.client.Debug(msg)
	default:
		h.client.Trace(msg)
	}
	return nil
}

// WithAttrs implements slog.Handler.
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	c.text = h.text.WithAttrs(attrs)
	return &c
}

// WithGroup implements slog.Handler.
func (h *Handler) WithGroup(name string) slog.Handler {
	c := *h
	c.text = h.text.WithGroup(name)
	return &c
}
