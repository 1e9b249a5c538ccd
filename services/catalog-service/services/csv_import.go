package services

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/oemparts/storefront/services/catalog-service/models"
	"github.com/oemparts/storefront/services/common/sku"
)

var requiredColumns = []string{"sku", "description", "price", "stock_qty"}

// ErrMissingHeader is returned when the CSV lacks a header row or one of the
// required columns.
var ErrMissingHeader = errors.New("CSV must include a header row with sku, description, price and stock_qty")

type parsedCSV struct {
	rows       []models.ImportRow
	errors     []models.ImportRowError
	duplicates []string
	total      int
}

// parseCatalogCSV reads a catalog CSV. Column order is free; header names are
// case-insensitive. When a SKU appears more than once the last row wins.
func parseCatalogCSV(r io.Reader, validate *validator.Validate) (*parsedCSV, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	headers, err := reader.Read()
	if err != nil {
		return nil, ErrMissingHeader
	}
	index := make(map[string]int, len(headers))
	for i, h := range headers {
		index[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			return nil, ErrMissingHeader
		}
	}

	out := &parsedCSV{}
	position := make(map[string]int)
	dupSeen := make(map[string]bool)
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			out.total++
			out.errors = append(out.errors, models.ImportRowError{Line: line, Error: "Failed to parse CSV row"})
			continue
		}
		if isBlankRecord(record) {
			continue
		}
		out.total++

		row, rowErr := toImportRow(record, index, line)
		if rowErr == nil {
			if verr := validate.Struct(row); verr != nil {
				rowErr = verr
			}
		}
		if rowErr != nil {
			out.errors = append(out.errors, models.ImportRowError{Line: line, SKU: row.SKU, Error: rowErr.Error()})
			continue
		}

		if i, ok := position[row.SKU]; ok {
			if !dupSeen[row.SKU] {
				dupSeen[row.SKU] = true
				out.duplicates = append(out.duplicates, row.SKU)
			}
			out.rows[i] = row
			continue
		}
		position[row.SKU] = len(out.rows)
		out.rows = append(out.rows, row)
	}
	return out, nil
}

func toImportRow(record []string, index map[string]int, line int) (models.ImportRow, error) {
	field := func(name string) string {
		i, ok := index[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	row := models.ImportRow{
		Line:         line,
		SKU:          NormalizeSKU(field("sku")),
		Description:  field("description"),
		Manufacturer: field("manufacturer"),
		Active:       true,
	}
	if raw := field("sku"); raw != "" && !sku.IsCanonical(raw) {
		row.SKU = strings.ToUpper(raw)
		return row, fmt.Errorf("invalid sku %q: only letters, digits, '-' and '_' are allowed", raw)
	}

	price, err := strconv.ParseFloat(field("price"), 64)
	if err != nil {
		return row, fmt.Errorf("invalid price %q", field("price"))
	}
	row.Price = price

	stock, err := strconv.Atoi(field("stock_qty"))
	if err != nil {
		return row, fmt.Errorf("invalid stock_qty %q", field("stock_qty"))
	}
	row.StockQty = stock

	if raw := field("active"); raw != "" {
		active, err := parseActive(raw)
		if err != nil {
			return row, err
		}
		row.Active = active
	}
	return row, nil
}

func parseActive(raw string) (bool, error) {
	switch strings.ToLower(raw) {
	case "yes", "y":
		return true, nil
	case "no", "n":
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid active %q", raw)
	}
	return v, nil
}

func isBlankRecord(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
