// Package parser turns pasted free text into bulk-order rows.
//
// Each non-blank line is split on one delimiter, chosen per line in the order
// tab, comma, semicolon, pipe, space. The first field is the SKU and the
// second the quantity; anything after that is ignored. Lines that do not
// yield a SKU and an integer quantity in 1..models.MaxQuantity are dropped,
// never reported as errors, so Parse cannot fail.
package parser

import (
	"strconv"
	"strings"

	"github.com/oemparts/storefront/services/bulkorder-service/models"
)

var delimiters = []string{"\t", ",", ";", "|"}

var newlines = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// Parse returns the rows in input order.
func Parse(rawText string) []models.BulkRow {
	rows, _ := ParseWithReport(rawText)
	return rows
}

// ParseWithReport is Parse plus an account of every skipped line.
func ParseWithReport(rawText string) ([]models.BulkRow, models.ParseReport) {
	report := models.ParseReport{DroppedLines: []models.DroppedLine{}}
	rows := []models.BulkRow{}
	if rawText == "" {
		return rows, report
	}

	for i, line := range strings.Split(newlines.Replace(rawText), "\n") {
		report.TotalLines++
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			report.BlankLines++
			continue
		}

		row, reason := parseLine(trimmed)
		if reason != "" {
			report.DroppedLines = append(report.DroppedLines, models.DroppedLine{
				Line:   i + 1,
				Text:   trimmed,
				Reason: reason,
			})
			continue
		}
		rows = append(rows, row)
	}

	report.ParsedRows = len(rows)
	return rows, report
}

func parseLine(line string) (models.BulkRow, models.DropReason) {
	fields := splitFields(line)
	if len(fields) < 2 {
		return models.BulkRow{}, models.DropTooFewFields
	}

	sku := models.NormalizeSKU(fields[0])
	if sku == "" {
		return models.BulkRow{}, models.DropEmptySKU
	}

	qty, err := strconv.Atoi(fields[1])
	if err != nil {
		return models.BulkRow{}, models.DropInvalidQty
	}
	if qty <= 0 {
		return models.BulkRow{}, models.DropNonPositiveQty
	}
	if qty > models.MaxQuantity {
		return models.BulkRow{}, models.DropQtyTooLarge
	}

	return models.NewBulkRow(sku, qty), ""
}

// splitFields splits on the line's delimiter and trims each field. Runs of
// spaces count as one delimiter in the space fallback.
func splitFields(line string) []string {
	var parts []string
	for _, d := range delimiters {
		if strings.Contains(line, d) {
			parts = strings.Split(line, d)
			break
		}
	}
	if parts == nil {
		return strings.Fields(line)
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
