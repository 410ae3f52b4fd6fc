package export

import (
	"io"

	"github.com/jung-kurt/gofpdf"
)

// WritePDF 渲染横版日历表格。内置字体不含 CJK 字形，
// 生产环境需要通过 fontPath 注册一个 UTF-8 TTF 字体
func (t *Table) WritePDF(w io.Writer, fontPath string) error {
	pdf := gofpdf.New("L", "mm", "A3", "")

	family := "Helvetica"
	if fontPath != "" {
		family = "custom"
		pdf.AddUTF8Font(family, "", fontPath)
	}

	pdf.AddPage()
	pdf.SetFont(family, "", 14)
	pdf.Cell(60, 10, t.TargetMonth)
	pdf.Ln(12)

	nameWidth := 28.0
	cellWidth := (400.0 - nameWidth) / float64(len(t.Dates))
	rowHeight := 7.0

	pdf.SetFont(family, "", 8)
	pdf.CellFormat(nameWidth, rowHeight, "", "1", 0, "C", false, 0, "")
	for _, header := range t.header()[1:] {
		pdf.CellFormat(cellWidth, rowHeight, header, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(rowHeight)

	for _, row := range t.Rows {
		pdf.CellFormat(nameWidth, rowHeight, row.EmployeeName, "1", 0, "L", false, 0, "")
		for _, cell := range row.Cells {
			pdf.CellFormat(cellWidth, rowHeight, cell, "1", 0, "C", false, 0, "")
		}
		pdf.Ln(rowHeight)
	}

	return pdf.Output(w)
}
