package hostmock

import (
	"bytes"
	"errors"
	"testing"
)

var errMock = errors.New("mock error")

func TestHostCall(t *testing.T) {
	t.Parallel()

	ok := func() []byte { return []byte("ok") }

	tt := []struct {
		name       string
		cfg        Config
		namespace  string
		capability string
		function   string
		payload    []byte
		want       []byte
		wantErr    error
	}{
		{
			name: "routed response",
			cfg: Config{
				ExpectedNamespace:  "tarmac",
				ExpectedCapability: "sql",
				ExpectedFunction:   "query",
				Response:           ok,
			},
			namespace: "tarmac", capability: "sql", function: "query",
			want: []byte("ok"),
		},
		{
			name:      "blank expectations match anything",
			cfg:       Config{Response: ok},
			namespace: "x", capability: "y", function: "z",
			want: []byte("ok"),
		},
		{
			name:      "custom failure",
			cfg:       Config{Fail: true, Error: errMock},
			namespace: "tarmac", capability: "sql", function: "exec",
			wantErr: errMock,
		},
		{
			name:      "default failure",
			cfg:       Config{Fail: true},
			namespace: "tarmac", capability: "sql", function: "exec",
			wantErr: ErrOperationFailed,
		},
		{
			name:      "no response",
			cfg:       Config{ExpectedFunction: "exec"},
			namespace: "tarmac", capability: "sql", function: "exec",
		},
		{
			name: "payload rejected",
			cfg: Config{
				PayloadValidator: func(p []byte) error {
					if string(p) != "valid" {
						return errMock
					}
					return nil
				},
				Response: ok,
			},
			namespace: "tarmac", capability: "sql", function: "exec",
			payload: []byte("invalid"),
			wantErr: errMock,
		},
		{
			name:      "unexpected namespace",
			cfg:       Config{ExpectedNamespace: "tarmac", Response: ok},
			namespace: "other", capability: "sql", function: "exec",
			wantErr: ErrUnexpectedNamespace,
		},
		{
			name:      "unexpected capability",
			cfg:       Config{ExpectedCapability: "sql", Response: ok},
			namespace: "tarmac", capability: "kv", function: "exec",
			wantErr: ErrUnexpectedCapability,
		},
		{
			name:      "unexpected function",
			cfg:       Config{ExpectedFunction: "exec", Response: ok},
			namespace: "tarmac", capability: "sql", function: "query",
			wantErr: ErrUnexpectedFunction,
		},
		{
			name: "handler by function",
			cfg: Config{
				Handlers: map[string]Handler{
					"query": func(p []byte) ([]byte, error) { return append([]byte("q:"), p...), nil },
				},
				Response: ok,
			},
			namespace: "tarmac", capability: "sql", function: "query",
			payload: []byte("x"),
			want:    []byte("q:x"),
		},
		{
			name: "missing handler",
			cfg: Config{
				Handlers: map[string]Handler{
					"query": func([]byte) ([]byte, error) { return nil, nil },
				},
			},
			namespace: "tarmac", capability: "sql", function: "exec",
			wantErr: ErrUnexpectedFunction,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			mock, err := New(tc.cfg)
			if err != nil {
				t.Fatalf("New returned error: %v", err)
			}

			got, err := mock.HostCall(tc.namespace, tc.capability, tc.function, tc.payload)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("unexpected error: want %v got %v", tc.wantErr, err)
			}
			if !bytes.Equal(got, tc.want) {
				t.Fatalf("unexpected response: want %q got %q", tc.want, got)
			}
		})
	}
}

func TestCallsAreRecorded(t *testing.T) {
	t.Parallel()

	mock, _ := New(Config{})
	payload := []byte("abc")
	_, _ = mock.HostCall("tarmac", "sql", "exec", payload)
	_, _ = mock.HostCall("tarmac", "sql", "query", nil)
	payload[0] = 'z'

	calls := mock.Calls()
	if len(calls) != 2 {
		t.Fatalf("unexpected call count: want 2 got %d", len(calls))
	}
	if string(calls[0].Payload) != "abc" {
		t.Fatalf("payload not copied: got %q", calls[0].Payload)
	}
	fns := mock.Functions()
	if fns[0] != "exec" || fns[1] != "query" {
		t.Fatalf("unexpected functions: got %v", fns)
	}
}
