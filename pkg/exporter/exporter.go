// Package exporter produces CSV and XLSX downloads of the asset register.
package exporter

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
	"github.com/tealeg/xlsx/v3"
)

// ExportOptions defines the scope and ordering of an export
type ExportOptions struct {
	UserID int64 // owner filter; ignored when All is set
	All    bool  // export every asset, not just the user's own
	SortBy string
}

// Columns lists the export header row, in output order.
var Columns = []string{
	"ID", "Name", "Category", "Department", "Cost", "Date Purchased",
	"Serial Number", "Manufacturer", "Model Number", "Created By", "Created At",
}

// sortColumns whitelists the caller-facing sort keys.
var sortColumns = map[string]string{
	"id":             "id",
	"name":           "name",
	"cost":           "cost",
	"date_purchased": "date_purchased",
	"created_at":     "created_at",
}

// AssetRow is one flattened export row.
type AssetRow struct {
	ID            int64
	Name          string
	Category      string
	Department    string
	Cost          float64
	DatePurchased time.Time
	SerialNumber  string
	Manufacturer  string
	ModelNumber   string
	CreatedBy     string
	CreatedAt     time.Time
}

func (r AssetRow) strings() []string {
	return []string{
		strconv.FormatInt(r.ID, 10),
		r.Name,
		r.Category,
		r.Department,
		strconv.FormatFloat(r.Cost, 'f', 2, 64),
		r.DatePurchased.Format("2006-01-02"),
		r.SerialNumber,
		r.Manufacturer,
		r.ModelNumber,
		r.CreatedBy,
		r.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// Filename names the download after the export date
func Filename(format string, now time.Time) string {
	return fmt.Sprintf("assets-export-%s.%s", now.UTC().Format("2006-01-02"), format)
}

// FetchRows loads the export rows. Nullable relations come back as empty
// strings so every row has a value for every column.
func FetchRows(ctx context.Context, db *pgxpool.Pool, opts ExportOptions) ([]AssetRow, error) {
	sortCol, ok := sortColumns[opts.SortBy]
	if !ok {
		sortCol = "created_at"
	}

	sqlStr := `
		SELECT a.id, a.name,
		       COALESCE(c.name, ''), COALESCE(d.name, ''),
		       a.cost, a.date_purchased,
		       COALESCE(a.serial_number, ''), COALESCE(a.manufacturer, ''), COALESCE(a.model_number, ''),
		       COALESCE(u.full_name, u.email), a.created_at
		FROM assets a
		LEFT JOIN categories c ON a.category_id = c.id
		LEFT JOIN departments d ON a.department_id = d.id
		LEFT JOIN users u ON a.created_by = u.id`
	args := []interface{}{}
	if !opts.All {
		sqlStr += " WHERE a.created_by = $1"
		args = append(args, opts.UserID)
	}
	sqlStr += " ORDER BY a." + pq.QuoteIdentifier(sortCol)

	rows, err := db.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("export query failed: %w", err)
	}
	defer rows.Close()

	out := []AssetRow{}
	for rows.Next() {
		var r AssetRow
		if err := rows.Scan(&r.ID, &r.Name, &r.Category, &r.Department,
			&r.Cost, &r.DatePurchased, &r.SerialNumber, &r.Manufacturer,
			&r.ModelNumber, &r.CreatedBy, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("export scan failed: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// WriteCSV writes the header and rows as CSV
func WriteCSV(w io.Writer, rows []AssetRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write(r.strings()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX writes the header and rows as a single-sheet workbook
func WriteXLSX(w io.Writer, rows []AssetRow) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Assets")
	if err != nil {
		return err
	}

	header := sheet.AddRow()
	for _, col := range Columns {
		header.AddCell().SetString(col)
	}

	for _, r := range rows {
		row := sheet.AddRow()
		row.AddCell().SetInt64(r.ID)
		row.AddCell().SetString(r.Name)
		row.AddCell().SetString(r.Category)
		row.AddCell().SetString(r.Department)
		row.AddCell().SetFloatWithFormat(r.Cost, "0.00")
		row.AddCell().SetString(r.DatePurchased.Format("2006-01-02"))
		row.AddCell().SetString(r.SerialNumber)
		row.AddCell().SetString(r.Manufacturer)
		row.AddCell().SetString(r.ModelNumber)
		row.AddCell().SetString(r.CreatedBy)
		row.AddCell().SetString(r.CreatedAt.UTC().Format(time.RFC3339))
	}

	return file.Write(w)
}
