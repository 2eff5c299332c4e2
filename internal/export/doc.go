// Package export renders query results as an aligned text table, JSON,
// CSV or an XLSX workbook.
package export
