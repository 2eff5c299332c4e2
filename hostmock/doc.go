/*
Package hostmock provides a pretend Tarmac host for waPC calls.

It lets tests check exactly what a component sends to the host, with no host
running. Use it to check routing (namespace, capability, function), inspect
protobuf payloads, and script responses or host failures.

# Quick start

	m, _ := hostmock.New(hostmock.Config{
	  ExpectedNamespace:  "tarmac",
	  ExpectedCapability: "sql",
	  ExpectedFunction:   "query",
	  PayloadValidator: func(p []byte) error {
	    var req proto.SQLQuery
	    return req.UnmarshalVT(p)
	  },
	  Response: func() []byte { return encoded },
	})

	eng, _ := hostdb.New(hostdb.Config{HostCall: m.HostCall})

# Scripting a conversation

A database client talks to more than one function, so route by name:

	m, _ := hostmock.New(hostmock.Config{
	  ExpectedCapability: "sql",
	  Handlers: map[string]hostmock.Handler{
	    "exec":  func(p []byte) ([]byte, error) { return execOK, nil },
	    "query": func(p []byte) ([]byte, error) { return rows, nil },
	  },
	})

# Behavior

  - Every call is recorded first; Calls and Functions return what was seen.
  - If Fail is true, HostCall returns Error, or ErrOperationFailed when Error is nil.
  - Expected fields left blank match anything.
  - PayloadValidator runs when set.
  - Handlers, when set, answer per function name. Otherwise Response provides
    the return bytes, or nil when unset.
*/
package hostmock
