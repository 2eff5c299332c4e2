package export

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/tarmac-project/crossdb"
)

type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatCSV   Format = "csv"
	FormatXLSX  Format = "xlsx"
)

var formats = []Format{FormatTable, FormatJSON, FormatCSV, FormatXLSX}

// ErrFormat is returned for an output format that is not implemented.
var ErrFormat = errors.New("output format not implemented")

// ParseFormat validates a format name. An empty name falls back to the
// extension of output, then to FormatTable.
func ParseFormat(name, output string) (Format, error) {
	if name == "" {
		name = strings.TrimPrefix(filepath.Ext(output), ".")
	}
	if name == "" {
		return FormatTable, nil
	}
	f := Format(strings.ToLower(name))
	if !slices.Contains(formats, f) {
		return "", fmt.Errorf("%w: %s", ErrFormat, name)
	}
	return f, nil
}

// ResultSet is a fully read query result.
type ResultSet struct {
	Columns []crossdb.Column
	Rows    []*crossdb.Row
}

// Read drains res into a ResultSet and closes it.
func Read(res *crossdb.Result) (*ResultSet, error) {
	defer res.Close()

	set := &ResultSet{}
	for i := range res.ColumnCount() {
		set.Columns = append(set.Columns, res.Columns().Column(i))
	}

	rows, err := res.Rows()
	if err != nil {
		return nil, err
	}
	set.Rows = rows
	return set, nil
}

func (s *ResultSet) headers() []string {
	h := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		h[i] = c.Name
	}
	return h
}

// Write renders set to w in the given format.
func Write(ctx context.Context, w io.Writer, format Format, set *ResultSet) error {
	switch format {
	case FormatTable:
		return writeTable(w, set)
	case FormatJSON:
		return writeJSON(w, set)
	case FormatCSV:
		return writeCSV(w, set)
	case FormatXLSX:
		return writeExcel(ctx, w, set)
	}
	return fmt.Errorf("%w: %s", ErrFormat, format)
}

func cellText(v crossdb.Value) string {
	if v.Kind() == crossdb.KindNull {
		return ""
	}
	return v.String()
}

func writeTable(w io.Writer, set *ResultSet) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(set.headers(), "\t"))
	for _, row := range set.Rows {
		cells := make([]string, row.Len())
		for i, v := range row.Values() {
			cells[i] = v.String()
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	return tw.Flush()
}

func writeCSV(w io.Writer, set *ResultSet) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(set.headers()); err != nil {
		return err
	}
	for _, row := range set.Rows {
		rec := make([]string, row.Len())
		for i, v := range row.Values() {
			rec[i] = cellText(v)
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// jsonValue keeps values JSON can carry natively and renders the rest as text.
func jsonValue(v crossdb.Value) any {
	switch v.Kind() {
	case crossdb.KindBinary, crossdb.KindInet, crossdb.KindMac:
		return v.String()
	}
	return crossdb.Native(v)
}

func writeJSON(w io.Writer, set *ResultSet) error {
	out := make([]map[string]any, len(set.Rows))
	for r, row := range set.Rows {
		obj := make(map[string]any, row.Len())
		for i, v := range row.Values() {
			obj[set.Columns[i].Name] = jsonValue(v)
		}
		out[r] = obj
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
