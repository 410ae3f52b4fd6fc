package export

import (
	"io"

	"github.com/xuri/excelize/v2"
)

func (t *Table) WriteExcel(w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := t.TargetMonth
	index, err := f.NewSheet(sheet)
	if err != nil {
		return err
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return err
	}

	writeRow := func(rowIdx int, values []string) error {
		for colIdx, value := range values {
			cell, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx)
			if err != nil {
				return err
			}
			if err := f.SetCellStr(sheet, cell, value); err != nil {
				return err
			}
		}
		return nil
	}

	if err := writeRow(1, t.header()); err != nil {
		return err
	}
	for i, row := range t.Rows {
		record := append([]string{row.EmployeeName}, row.Cells...)
		if err := writeRow(i+2, record); err != nil {
			return err
		}
	}

	return f.Write(w)
}
