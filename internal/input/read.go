package input

import (
	"encoding/csv"
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// readCSV returns every record with fields trimmed. Rows may have varying
// widths.
func readCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return nil, eris.Wrap(err, "input: read csv row")
		}
		for i, field := range record {
			record[i] = strings.TrimSpace(field)
		}
		rows = append(rows, record)
	}
}

// readXLSX returns the rows of the first sheet, or of sheet when named.
func readXLSX(path, sheet string) ([][]string, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "input: open xlsx")
	}

	var s *xlsx.Sheet
	if sheet != "" {
		var ok bool
		if s, ok = f.Sheet[sheet]; !ok {
			return nil, eris.Errorf("input: sheet %q not found", sheet)
		}
	} else {
		if len(f.Sheets) == 0 {
			return nil, eris.New("input: workbook has no sheets")
		}
		s = f.Sheets[0]
	}

	rows := make([][]string, 0, len(s.Rows))
	for _, row := range s.Rows {
		cells := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			cells[j] = strings.TrimSpace(cell.String())
		}
		rows = append(rows, cells)
	}
	return rows, nil
}
