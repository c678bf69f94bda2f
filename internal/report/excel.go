package report

import (
	"bytes"
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"reportmill/internal/layout"
	"reportmill/pkg/apperror"
)

// ExcelGenerator writes the dataset as an xlsx workbook with the same
// header and alternating-row styling as the PDF table.
type ExcelGenerator struct{}

// NewExcelGenerator creates an Excel generator.
func NewExcelGenerator() *ExcelGenerator {
	return &ExcelGenerator{}
}

// Format returns the generator format.
func (g *ExcelGenerator) Format() Format {
	return FormatExcel
}

// Generate writes the spec's dataset into a single-sheet workbook.
func (g *ExcelGenerator) Generate(ctx context.Context, spec *Spec) (*Artifact, error) {
	if spec == nil {
		return nil, apperror.New(apperror.CodeNilInput, "spec is nil")
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, apperror.Wrap(err, apperror.CodeInternal, "generation cancelled")
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Report"
	if spec.Title != "" {
		sheet = spec.Title
	}
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeRenderFailed, "failed to create sheet")
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	style := spec.Style

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: excelHex(style.HeaderText)},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{excelHex(style.HeaderBackground)}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	evenStyle, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{excelHex(style.EvenRow)}, Pattern: 1},
	})

	for c, col := range spec.Dataset.Columns {
		cell, err := excelize.CoordinatesToCellName(c+1, 1)
		if err != nil {
			return nil, apperror.Wrap(err, apperror.CodeRenderFailed, "bad cell coordinates")
		}
		f.SetCellValue(sheet, cell, col.Name)
	}

	lastCol, _ := excelize.CoordinatesToCellName(len(spec.Dataset.Columns), 1)
	f.SetCellStyle(sheet, "A1", lastCol, headerStyle)

	rows := spec.Dataset.RowCount()
	for r := 0; r < rows; r++ {
		for c, col := range spec.Dataset.Columns {
			value := ""
			if r < len(col.Cells) {
				value = col.Cells[r]
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return nil, apperror.Wrap(err, apperror.CodeRenderFailed, "bad cell coordinates")
			}
			f.SetCellValue(sheet, cell, value)
		}

		// Even data rows carry the alternate fill, matching the PDF table.
		if (r+1)%2 == 0 {
			first, _ := excelize.CoordinatesToCellName(1, r+2)
			last, _ := excelize.CoordinatesToCellName(len(spec.Dataset.Columns), r+2)
			f.SetCellStyle(sheet, first, last, evenStyle)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, apperror.Wrap(err, apperror.CodeRenderFailed, "failed to write workbook")
	}

	return &Artifact{
		Bytes:       buf.Bytes(),
		Pages:       1,
		ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		Extension:   ".xlsx",
	}, nil
}

// excelHex formats a color as the RRGGBB form excelize expects.
func excelHex(c layout.Color) string {
	return fmt.Sprintf("%02X%02X%02X", c.R, c.G, c.B)
}
