package export

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/tarmac-project/crossdb"
	"github.com/xuri/excelize/v2"
)

const sheetName = "Results"

// Styles are int because excelize.File.NewStyle() returns style index
type Styles struct {
	Number int
	Header int
}

func NewStyles(f *excelize.File) (*Styles, error) {
	decimalPlaces := 2
	numberStyle, err := f.NewStyle(&excelize.Style{
		NumFmt:        0,
		DecimalPlaces: &decimalPlaces,
	})
	if err != nil {
		return nil, err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	if err != nil {
		return nil, err
	}

	return &Styles{Number: numberStyle, Header: headerStyle}, nil
}

func isNumeric(t crossdb.DataType) bool {
	switch t {
	case crossdb.TypeTinyInt, crossdb.TypeSmallInt, crossdb.TypeInt, crossdb.TypeBigInt,
		crossdb.TypeUTinyInt, crossdb.TypeUSmallInt, crossdb.TypeUInt, crossdb.TypeUBigInt,
		crossdb.TypeFloat, crossdb.TypeDouble:
		return true
	}
	return false
}

func excelValue(v crossdb.Value) any {
	switch v.Kind() {
	case crossdb.KindNull:
		return nil
	case crossdb.KindBinary, crossdb.KindInet, crossdb.KindMac:
		return v.String()
	}
	return crossdb.Native(v)
}

func writeExcel(ctx context.Context, w io.Writer, set *ResultSet) error {
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			slog.ErrorContext(ctx, "Error closing workbook", "error", err)
		}
	}()

	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return err
	}

	widths, err := writeSheet(f, set)
	if err != nil {
		return err
	}

	for i, width := range widths {
		colName, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(sheetName, colName, colName, width); err != nil {
			return err
		}
	}
	freezeHeader(f)

	_, err = f.WriteTo(w)
	return err
}

func writeSheet(f *excelize.File, set *ResultSet) ([]float64, error) {
	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		return nil, err
	}

	styles, err := NewStyles(f)
	if err != nil {
		return nil, err
	}

	widths := make([]float64, len(set.Columns))
	headers := make([]any, len(set.Columns))
	for i, c := range set.Columns {
		headers[i] = excelize.Cell{Value: c.Name, StyleID: styles.Header}
		widths[i] = float64(len(c.Name)) + 2
	}
	if err := sw.SetRow("A1", headers); err != nil {
		return nil, err
	}

	for r, row := range set.Rows {
		cells := make([]any, row.Len())
		for i, v := range row.Values() {
			val := excelValue(v)
			if isNumeric(set.Columns[i].DataType) && val != nil {
				cells[i] = excelize.Cell{Value: val, StyleID: styles.Number}
			} else {
				cells[i] = val
			}
			widths[i] = max(widths[i], float64(len(cellText(v)))+2)
		}

		cell, _ := excelize.CoordinatesToCellName(1, r+2)
		if err := sw.SetRow(cell, cells); err != nil {
			return nil, err
		}
	}

	if len(set.Rows) > 0 && len(set.Columns) > 0 {
		lastCell, _ := excelize.CoordinatesToCellName(len(set.Columns), len(set.Rows)+1)
		enabled := true
		err = sw.AddTable(&excelize.Table{
			Range:          fmt.Sprintf("A1:%s", lastCell),
			Name:           "Query",
			StyleName:      "TableStyleMedium2",
			ShowRowStripes: &enabled,
		})
		if err != nil {
			return nil, err
		}
	}

	return widths, sw.Flush()
}

func freezeHeader(f *excelize.File) {
	_ = f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}
