package metrics

import (
	"errors"
	"regexp"

	"github.com/tarmac-project/crossdb"
	"github.com/tarmac-project/crossdb/guest"
	proto "github.com/tarmac-project/protobuf-go/sdk/metrics"
)

const (
	capabilityName = "metrics"
	fnCounter      = "counter"
	fnGauge        = "gauge"
	fnHistogram    = "histogram"
	actionInc      = "inc"
	actionDec      = "dec"
)

var (
	// ErrInvalidMetricName indicates a metric name that does not match the supported format.
	ErrInvalidMetricName = errors.New("metric name is invalid")

	isMetricNameValid = regexp.MustCompile(`^[a-zA-Z0-9_:]+$`)
)

// Client defines the metrics capability interface.
type Client interface {
	NewCounter(name string) (*Counter, error)
	NewGauge(name string) (*Gauge, error)
	NewHistogram(name string) (*Histogram, error)
}

// Config controls how a Client instance interacts with the host runtime.
type Config struct {
	// SDKConfig provides the runtime namespace used for host calls.
	SDKConfig guest.RuntimeConfig

	// HostCall overrides the waPC host function used for metrics operations.
	HostCall guest.HostCall
}

// HostMetrics is the metrics capability client implementation.
type HostMetrics struct {
	runtime  guest.RuntimeConfig
	hostCall guest.HostCall
}

var _ Client = (*HostMetrics)(nil)

type marshaler interface {
	MarshalVT() ([]byte, error)
}

// metric is the shared part of every handle. Sends are best effort.
type metric struct {
	name      string
	namespace string
	hostCall  guest.HostCall
}

func (m metric) send(fn string, msg marshaler) {
	payload, err := msg.MarshalVT()
	if err != nil {
		return
	}
	_, _ = m.hostCall(m.namespace, capabilityName, fn, payload)
}

// Counter is a named counter metric handle.
type Counter struct{ metric }

// Gauge is a named gauge metric handle.
type Gauge struct{ metric }

// Histogram is a named histogram metric handle.
type Histogram struct{ metric }

// New creates a metrics client with namespace defaults and optional host-call override.
func New(config Config) (*HostMetrics, error) {
	return &HostMetrics{
		runtime:  config.SDKConfig.WithDefaults(),
		hostCall: guest.ResolveHostCall(config.HostCall),
	}, nil
}

func (c *HostMetrics) metric(name string) (metric, error) {
	if !isMetricNameValid.MatchString(name) {
		return metric{}, ErrInvalidMetricName
	}
	return metric{name: name, namespace: c.runtime.Namespace, hostCall: c.hostCall}, nil
}

// NewCounter creates a named counter metric handle.
func (c *HostMetrics) NewCounter(name string) (*Counter, error) {
	m, err := c.metric(name)
	if err != nil {
		return nil, err
	}
	return &Counter{m}, nil
}

// NewGauge creates a named gauge metric handle.
func (c *HostMetrics) NewGauge(name string) (*Gauge, error) {
	m, err := c.metric(name)
	if err != nil {
		return nil, err
	}
	return &Gauge{m}, nil
}

// NewHistogram creates a named histogram metric handle.
func (c *HostMetrics) NewHistogram(name string) (*Histogram, error) {
	m, err := c.metric(name)
	if err != nil {
		return nil, err
	}
	return &Histogram{m}, nil
}

// Inc increments the counter by one.
func (c *Counter) Inc() { c.send(fnCounter, &proto.MetricsCounter{Name: c.name}) }

// Inc increments the gauge by one.
func (g *Gauge) Inc() { g.send(fnGauge, &proto.MetricsGauge{Name: g.name, Action: actionInc}) }

// Dec decrements the gauge by one.
func (g *Gauge) Dec() { g.send(fnGauge, &proto.MetricsGauge{Name: g.name, Action: actionDec}) }

// Observe records a value for the histogram.
func (h *Histogram) Observe(value float64) {
	h.send(fnHistogram, &proto.MetricsHistogram{Name: h.name, Value: value})
}

// NewInstruments creates the host metrics for a crossdb connection. Metric
// names are prefix followed by an underscore and the metric suffix.
func (c *HostMetrics) NewInstruments(prefix string) (crossdb.Instruments, error) {
	var (
		inst crossdb.Instruments
		errs []error
	)
	counter := func(suffix string) crossdb.Counter {
		m, err := c.NewCounter(prefix + "_" + suffix)
		if err != nil {
			errs = append(errs, err)
			return nil
		}
		return m
	}

	inst.CacheHits = counter("stmt_cache_hits")
	inst.CacheMisses = counter("stmt_cache_misses")
	inst.CacheEvictions = counter("stmt_cache_evictions")
	inst.QueryErrors = counter("query_errors")

	if g, err := c.NewGauge(prefix + "_stmt_cache_entries"); err != nil {
		errs = append(errs, err)
	} else {
		inst.CacheEntries = g
	}
	if h, err := c.NewHistogram(prefix + "_query_duration_seconds"); err != nil {
		errs = append(errs, err)
	} else {
		inst.QueryDuration = h
	}

	if err := errors.Join(errs...); err != nil {
		return crossdb.Instruments{}, err
	}
	return inst, nil
}
