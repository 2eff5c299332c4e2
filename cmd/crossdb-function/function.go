package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tarmac-project/crossdb"
	"github.com/tarmac-project/crossdb/guest"
	"github.com/tarmac-project/crossdb/hostdb"
	"github.com/tarmac-project/crossdb/internal/export"
	"github.com/tarmac-project/crossdb/logging"
	"github.com/tarmac-project/crossdb/metrics"
)

const metricPrefix = "crossdb_function"

var (
	errEmptyPayload = errors.New("payload must contain SQL text")
	errNotReady     = errors.New("function is not set up")
)

type function struct {
	conn *crossdb.Conn
	log  *slog.Logger
}

// setup wires the host-backed engine, logger and metrics for the runtime
// namespace. A nil hc uses the waPC host.
func (f *function) setup(rt guest.RuntimeConfig, hc guest.HostCall) error {
	h, err := logging.NewHandler(logging.Config{SDKConfig: rt, HostCall: hc})
	if err != nil {
		return fmt.Errorf("could not create log handler: %w", err)
	}

	m, err := metrics.New(metrics.Config{SDKConfig: rt, HostCall: hc})
	if err != nil {
		return fmt.Errorf("could not create metrics client: %w", err)
	}
	inst, err := m.NewInstruments(metricPrefix)
	if err != nil {
		return fmt.Errorf("could not create instruments: %w", err)
	}

	eng, err := hostdb.New(hostdb.Config{SDKConfig: rt, HostCall: hc})
	if err != nil {
		return fmt.Errorf("could not create engine: %w", err)
	}

	f.log = slog.New(h)
	f.conn, err = crossdb.Open(crossdb.Config{
		Engine:      eng,
		Logger:      f.log,
		Instruments: inst,
	})
	return err
}

// Handler runs the SQL text in payload. Statements that return rows answer
// with a JSON array of objects; others answer with the affected row count.
func (f *function) Handler(payload []byte) ([]byte, error) {
	if f.conn == nil {
		return nil, errNotReady
	}
	sql := strings.TrimSpace(string(payload))
	if sql == "" {
		return nil, errEmptyPayload
	}

	res, err := f.conn.Query(sql)
	if err != nil {
		return nil, err
	}
	if res.ColumnCount() == 0 {
		defer res.Close()
		f.log.Info("statement executed", "sql", sql, "affected", res.AffectedRows())
		return fmt.Appendf(nil, `{"affected_rows":%d,"insert_id":%d}`, res.AffectedRows(), res.InsertID()), nil
	}

	set, err := export.Read(res)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := export.Write(context.Background(), &buf, export.FormatJSON, set); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
