package export

import (
	"encoding/csv"
	"io"
)

func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(t.header()); err != nil {
		return err
	}
	for _, row := range t.Rows {
		record := append([]string{row.EmployeeName}, row.Cells...)
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
