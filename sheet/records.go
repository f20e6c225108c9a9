package sheet

import (
	"fmt"
	"strings"
)

// ToRecords converts rows to records keyed by the header row. The header row defines
// the column count: short rows are padded with nil and cells beyond the header are
// dropped. Where a column name is repeated the rightmost column wins.
func ToRecords(rows [][]any) []map[string]any {
	records := []map[string]any{}
	if len(rows) < 2 {
		return records
	}

	header := make([]string, len(rows[0]))
	for i, v := range rows[0] {
		header[i] = clean(v)
	}

	for _, row := range rows[1:] {
		record := make(map[string]any, len(header))
		for i, h := range header {
			if i < len(row) {
				record[h] = row[i]
			} else {
				record[h] = nil
			}
		}

		records = append(records, record)
	}

	return records
}

// Normalise pads every row to the width of the header row with empty strings.
func Normalise(rows [][]any) [][]string {
	if len(rows) == 0 {
		return [][]string{}
	}

	width := len(rows[0])
	table := make([][]string, 0, len(rows))

	for _, row := range rows {
		record := make([]string, width)
		for i := 0; i < width && i < len(row); i++ {
			record[i] = clean(row[i])
		}

		table = append(table, record)
	}

	return table
}

func clean(v any) string {
	if v == nil {
		return ""
	}

	return strings.TrimSpace(fmt.Sprintf("%v", v))
}
