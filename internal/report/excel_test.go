package report

import (
	"bytes"
	"context"
	"testing"

	"github.com/xuri/excelize/v2"

	"reportmill/pkg/apperror"
)

func TestExcelGeneratorGenerate(t *testing.T) {
	g := NewExcelGenerator()
	if g.Format() != FormatExcel {
		t.Errorf("format = %s", g.Format())
	}

	artifact, err := g.Generate(context.Background(), validSpec())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if artifact.Extension != ".xlsx" {
		t.Errorf("extension = %s", artifact.Extension)
	}

	f, err := excelize.OpenReader(bytes.NewReader(artifact.Bytes))
	if err != nil {
		t.Fatalf("artifact is not a readable workbook: %v", err)
	}
	defer f.Close()

	sheet := f.GetSheetList()[0]
	if sheet != "Monthly Report" {
		t.Errorf("sheet = %q, want spec title", sheet)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want header + 2 data", len(rows))
	}
	if rows[0][0] != "Name" || rows[0][1] != "Score" {
		t.Errorf("header = %v", rows[0])
	}
	if rows[1][0] != "Alice" || rows[2][1] != "85" {
		t.Errorf("data = %v / %v", rows[1], rows[2])
	}
}

func TestExcelGeneratorInvalidSpec(t *testing.T) {
	spec := validSpec()
	spec.Page.Width = 0

	_, err := NewExcelGenerator().Generate(context.Background(), spec)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if apperror.Code(err) != apperror.CodeInvalidInput {
		t.Errorf("code = %s", apperror.Code(err))
	}
}
