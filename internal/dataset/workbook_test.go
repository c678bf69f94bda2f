package dataset

import (
	"bytes"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"reportmill/pkg/apperror"
)

func workbookBytes(t *testing.T, rows [][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for i, row := range rows {
		for j, value := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				t.Fatalf("cell name: %v", err)
			}
			if err := f.SetCellValue("Sheet1", cell, value); err != nil {
				t.Fatalf("set cell: %v", err)
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buf.Bytes()
}

func TestParseWorkbook(t *testing.T) {
	data := workbookBytes(t, [][]any{
		{"Name", "Score"},
		{"Alice", 90},
		{"Bob", 85},
	})

	ds, err := ParseWorkbook(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("ParseWorkbook: %v", err)
	}

	if len(ds.Columns) != 2 {
		t.Fatalf("columns = %d, want 2", len(ds.Columns))
	}
	if ds.Columns[0].Name != "Name" || ds.Columns[1].Name != "Score" {
		t.Errorf("column names = %q, %q", ds.Columns[0].Name, ds.Columns[1].Name)
	}
	if ds.RowCount() != 2 {
		t.Errorf("rows = %d, want 2", ds.RowCount())
	}
	if ds.Columns[0].Cells[0] != "Alice" || ds.Columns[1].Cells[1] != "85" {
		t.Errorf("cells = %v / %v", ds.Columns[0].Cells, ds.Columns[1].Cells)
	}
}

func TestParseWorkbookShortRowsPadded(t *testing.T) {
	data := workbookBytes(t, [][]any{
		{"A", "B", "C"},
		{"1"},
		{"2", "x"},
	})

	ds, err := ParseWorkbook(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("ParseWorkbook: %v", err)
	}

	if got := ds.Columns[2].Cells[0]; got != "" {
		t.Errorf("padded cell = %q, want empty", got)
	}
	if got := ds.Columns[1].Cells[1]; got != "x" {
		t.Errorf("cell = %q, want x", got)
	}
}

func TestParseWorkbookHeaderOnly(t *testing.T) {
	data := workbookBytes(t, [][]any{{"Only", "Header"}})

	ds, err := ParseWorkbook(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("ParseWorkbook: %v", err)
	}
	if ds.RowCount() != 0 {
		t.Errorf("rows = %d, want 0", ds.RowCount())
	}
}

func TestParseWorkbookNotXLSX(t *testing.T) {
	_, err := ParseWorkbook(strings.NewReader("this is not a workbook"))
	if err == nil {
		t.Fatal("expected error")
	}
	if apperror.Code(err) != apperror.CodeInvalidInput {
		t.Errorf("code = %s, want %s", apperror.Code(err), apperror.CodeInvalidInput)
	}
}

func TestParseWorkbookEmptySheet(t *testing.T) {
	f := excelize.NewFile()
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	f.Close()

	_, err := ParseWorkbook(&buf)
	if apperror.Code(err) != apperror.CodeEmptyDataset {
		t.Errorf("code = %s, want %s", apperror.Code(err), apperror.CodeEmptyDataset)
	}
}
