package metrics

import (
	"errors"
	"reflect"
	"testing"

	"github.com/tarmac-project/crossdb"
	"github.com/tarmac-project/crossdb/engine"
	"github.com/tarmac-project/crossdb/engine/mock"
	"github.com/tarmac-project/crossdb/guest"
	"github.com/tarmac-project/crossdb/hostmock"
	proto "github.com/tarmac-project/protobuf-go/sdk/metrics"
)

func TestNew(t *testing.T) {
	t.Parallel()

	customHostCall := func(string, string, string, []byte) ([]byte, error) {
		return nil, nil
	}

	tt := []struct {
		name        string
		namespace   string
		hostCall    guest.HostCall
		wantNS      string
		wantHostPtr uintptr
	}{
		{
			name:      "custom namespace",
			namespace: "custom",
			wantNS:    "custom",
		},
		{
			name:        "default namespace with override",
			hostCall:    customHostCall,
			wantNS:      guest.DefaultNamespace,
			wantHostPtr: reflect.ValueOf(customHostCall).Pointer(),
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			c, err := New(Config{SDKConfig: guest.RuntimeConfig{Namespace: tc.namespace}, HostCall: tc.hostCall})
			if err != nil {
				t.Fatalf("New returned error: %v", err)
			}
			if c.runtime.Namespace != tc.wantNS {
				t.Fatalf("namespace mismatch: want %q got %q", tc.wantNS, c.runtime.Namespace)
			}
			if tc.wantHostPtr != 0 {
				if got := reflect.ValueOf(c.hostCall).Pointer(); got != tc.wantHostPtr {
					t.Fatalf("hostcall pointer mismatch: want %v got %v", tc.wantHostPtr, got)
				}
			}
		})
	}
}

func TestMetricNames(t *testing.T) {
	t.Parallel()

	c, _ := New(Config{HostCall: func(string, string, string, []byte) ([]byte, error) { return nil, nil }})

	tt := []struct {
		name    string
		metric  string
		wantErr error
	}{
		{name: "plain", metric: "requests_total"},
		{name: "colon", metric: "crossdb:queries"},
		{name: "empty", metric: "", wantErr: ErrInvalidMetricName},
		{name: "whitespace", metric: " \n\t ", wantErr: ErrInvalidMetricName},
		{name: "dash", metric: "query-errors", wantErr: ErrInvalidMetricName},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, errC := c.NewCounter(tc.metric)
			_, errG := c.NewGauge(tc.metric)
			_, errH := c.NewHistogram(tc.metric)
			for _, err := range []error{errC, errG, errH} {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("unexpected error: want %v got %v", tc.wantErr, err)
				}
			}
		})
	}
}

func TestEmit(t *testing.T) {
	t.Parallel()

	m, _ := hostmock.New(hostmock.Config{ExpectedNamespace: "tarmac", ExpectedCapability: capabilityName})
	c, _ := New(Config{HostCall: m.HostCall})

	counter, _ := c.NewCounter("hits")
	gauge, _ := c.NewGauge("entries")
	hist, _ := c.NewHistogram("latency")

	counter.Inc()
	gauge.Inc()
	gauge.Dec()
	hist.Observe(0.25)

	want := []string{fnCounter, fnGauge, fnGauge, fnHistogram}
	if got := m.Functions(); !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected functions: want %v got %v", want, got)
	}

	calls := m.Calls()
	var ctr proto.MetricsCounter
	if err := ctr.UnmarshalVT(calls[0].Payload); err != nil || ctr.GetName() != "hits" {
		t.Fatalf("counter payload: %v %q", err, ctr.GetName())
	}
	var g proto.MetricsGauge
	if err := g.UnmarshalVT(calls[2].Payload); err != nil || g.GetAction() != actionDec {
		t.Fatalf("gauge payload: %v %q", err, g.GetAction())
	}
	var h proto.MetricsHistogram
	if err := h.UnmarshalVT(calls[3].Payload); err != nil || h.GetValue() != 0.25 {
		t.Fatalf("histogram payload: %v %v", err, h.GetValue())
	}
}

func TestEmitIgnoresHostFailure(t *testing.T) {
	t.Parallel()

	m, _ := hostmock.New(hostmock.Config{Fail: true})
	c, _ := New(Config{HostCall: m.HostCall})
	counter, _ := c.NewCounter("hits")
	counter.Inc()

	if n := len(m.Calls()); n != 1 {
		t.Fatalf("expected one attempted call, got %d", n)
	}
}

func TestNewInstruments(t *testing.T) {
	t.Parallel()

	m, _ := hostmock.New(hostmock.Config{ExpectedCapability: capabilityName})
	c, _ := New(Config{HostCall: m.HostCall})

	inst, err := c.NewInstruments("crossdb")
	if err != nil {
		t.Fatalf("NewInstruments returned error: %v", err)
	}

	eng := mock.New()
	eng.On("SELECT 1").ReturnColumns(mock.Col("n", engine.CodeInt)).ReturnRows([]any{1})
	conn, err := crossdb.Open(crossdb.Config{Engine: eng, StatementCacheCapacity: 1, Instruments: inst})
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	defer conn.Close()

	if _, err := conn.PrepareCached("SELECT 1"); err != nil {
		t.Fatalf("PrepareCached returned error: %v", err)
	}
	if _, err := conn.PrepareCached("SELECT 1"); err != nil {
		t.Fatalf("PrepareCached returned error: %v", err)
	}

	names := map[string]int{}
	for _, call := range m.Calls() {
		switch call.Function {
		case fnCounter:
			var p proto.MetricsCounter
			_ = p.UnmarshalVT(call.Payload)
			names[p.GetName()]++
		case fnGauge:
			var p proto.MetricsGauge
			_ = p.UnmarshalVT(call.Payload)
			names[p.GetName()]++
		}
	}
	want := map[string]int{
		"crossdb_stmt_cache_misses":  1,
		"crossdb_stmt_cache_hits":    1,
		"crossdb_stmt_cache_entries": 1,
	}
	if !reflect.DeepEqual(names, want) {
		t.Fatalf("unexpected metrics: want %v got %v", want, names)
	}
}

func TestNewInstrumentsInvalidPrefix(t *testing.T) {
	t.Parallel()

	c, _ := New(Config{HostCall: func(string, string, string, []byte) ([]byte, error) { return nil, nil }})
	if _, err := c.NewInstruments("bad prefix"); !errors.Is(err, ErrInvalidMetricName) {
		t.Fatalf("expected ErrInvalidMetricName, got %v", err)
	}
}
