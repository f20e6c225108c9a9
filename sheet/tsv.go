package sheet

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
)

// WriteTSV writes the rows as tab separated values, padded to the header width.
func WriteTSV(f io.Writer, rows [][]any) error {
	if len(rows) == 0 {
		return fmt.Errorf("empty sheet")
	}

	if len(rows[0]) == 0 {
		return fmt.Errorf("missing/invalid header row")
	}

	w := csv.NewWriter(f)
	w.Comma = '\t'

	for _, record := range Normalise(rows) {
		if err := w.Write(record); err != nil {
			return err
		}
	}

	w.Flush()

	return w.Error()
}

// WriteJSON writes the rows as an indented JSON array of header-keyed records.
func WriteJSON(f io.Writer, rows [][]any) error {
	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")

	return encoder.Encode(ToRecords(rows))
}
