// Package dataset loads tabular datasets from Excel workbooks.
package dataset

import (
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"reportmill/internal/layout"
	"reportmill/pkg/apperror"
)

// ParseWorkbook reads the first sheet of an xlsx workbook into a dataset.
// Row 1 carries the column names; every following row is a data row. Column
// order follows the sheet. Fully empty trailing rows are dropped.
func ParseWorkbook(r io.Reader) (layout.Dataset, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return layout.Dataset{}, apperror.Wrap(err, apperror.CodeInvalidInput, "not a readable xlsx workbook")
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return layout.Dataset{}, apperror.New(apperror.CodeInvalidInput, "workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return layout.Dataset{}, apperror.Wrap(err, apperror.CodeInvalidInput, "failed to read sheet rows")
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return layout.Dataset{}, apperror.ErrEmptyDataset
	}

	rows = trimTrailingEmpty(rows)

	header := rows[0]
	columns := make([]layout.Column, len(header))
	for c, name := range header {
		columns[c] = layout.Column{
			Name:  strings.TrimSpace(name),
			Cells: make([]string, 0, len(rows)-1),
		}
	}

	for _, row := range rows[1:] {
		for c := range columns {
			value := ""
			if c < len(row) {
				value = row[c]
			}
			columns[c].Cells = append(columns[c].Cells, value)
		}
	}

	return layout.Dataset{Columns: columns}, nil
}

func trimTrailingEmpty(rows [][]string) [][]string {
	end := len(rows)
	for end > 1 && isEmptyRow(rows[end-1]) {
		end--
	}
	return rows[:end]
}

func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
