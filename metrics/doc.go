/*
Package metrics creates custom metrics through the Tarmac host runtime.

Counter, Gauge and Histogram handles send protobuf payloads over waPC host
calls. Inc, Dec and Observe are best effort and return no errors; marshal or
host-call failures are dropped.

NewInstruments bundles the handles a crossdb connection reports to:

	m, _ := metrics.New(metrics.Config{})
	inst, err := m.NewInstruments("crossdb")
	if err != nil {
		return err
	}
	conn, err := crossdb.Open(crossdb.Config{Engine: eng, Instruments: inst})
*/
package metrics
