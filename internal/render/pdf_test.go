package render

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"strconv"
	"testing"

	"reportmill/internal/layout"
	"reportmill/pkg/apperror"
)

func testOptions() Options {
	return Options{
		Page:        layout.PageSize{Width: 612, Height: 792},
		Margins:     layout.Margins{Top: 36, Bottom: 36, Left: 36, Right: 36},
		HeaderBand:  50,
		FooterBand:  20,
		FontFamily:  "Helvetica",
		HeaderTexts: []string{"Monthly Report"},
		FooterText:  "Confidential",
		Style:       layout.DefaultStyle(),
	}
}

func scoreDataset(rows int) layout.Dataset {
	names := make([]string, rows)
	scores := make([]string, rows)
	for i := range names {
		names[i] = "Person " + strconv.Itoa(i+1)
		scores[i] = strconv.Itoa((i + 1) * 10)
	}
	return layout.Dataset{Columns: []layout.Column{
		{Name: "Name", Cells: names},
		{Name: "Score", Cells: scores},
	}}
}

func renderRows(t *testing.T, rows int) *Document {
	t.Helper()
	doc, err := renderDataset(testOptions(), scoreDataset(rows))
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	return doc
}

func renderDataset(opts Options, ds layout.Dataset) (*Document, error) {
	r, err := NewPDF(opts)
	if err != nil {
		return nil, err
	}
	grid, err := layout.BuildGrid(ds, r.ContentArea().Width, nil, opts.Style, r.Measure)
	if err != nil {
		return nil, err
	}
	return r.Render(grid)
}

func TestRenderProducesPDF(t *testing.T) {
	doc := renderRows(t, 5)

	if !bytes.HasPrefix(doc.Bytes, []byte("%PDF-")) {
		t.Errorf("output does not start with PDF signature")
	}
	if doc.Pages != 1 {
		t.Errorf("pages = %d, want 1", doc.Pages)
	}
}

// Page capacity with the test geometry: content height is
// 792 - 72 - 50 - 20 = 650pt; the header row and each data row take the
// 20pt minimum, so a page holds 31 data rows below the repeated header.
func TestRenderPageCount(t *testing.T) {
	tests := []struct {
		rows  int
		pages int
	}{
		{0, 1},
		{1, 1},
		{31, 1},
		{32, 2},
		{62, 2},
		{63, 3},
	}

	for _, tt := range tests {
		doc := renderRows(t, tt.rows)
		if doc.Pages != tt.pages {
			t.Errorf("rows=%d: pages = %d, want %d", tt.rows, doc.Pages, tt.pages)
		}
	}
}

func TestRenderEmptyDatasetIsOnePage(t *testing.T) {
	doc := renderRows(t, 0)
	if doc.Pages != 1 {
		t.Errorf("pages = %d, want 1 for header-only document", doc.Pages)
	}
}

// The same input must produce byte-identical output.
func TestRenderDeterministic(t *testing.T) {
	a := renderRows(t, 10)
	b := renderRows(t, 10)
	if !bytes.Equal(a.Bytes, b.Bytes) {
		t.Error("two renders of the same input differ")
	}
}

// With compression off, literal text survives into the content stream.
func TestRenderContainsLiteralText(t *testing.T) {
	opts := testOptions()
	opts.Page = layout.PageSize{Width: 595.28, Height: 841.89} // A4

	r, err := NewPDF(opts)
	if err != nil {
		t.Fatalf("NewPDF: %v", err)
	}
	r.pdf.SetCompression(false)

	grid, err := layout.BuildGrid(scoreDataset(5), r.ContentArea().Width, nil, opts.Style, r.Measure)
	if err != nil {
		t.Fatalf("BuildGrid: %v", err)
	}
	doc, err := r.Render(grid)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	for _, want := range []string{"Monthly Report", "Confidential", "Name", "Score", "Person 1", "Person 5", "50"} {
		if !bytes.Contains(doc.Bytes, []byte(want)) {
			t.Errorf("output missing literal %q", want)
		}
	}
}

func TestRenderWithLogo(t *testing.T) {
	opts := testOptions()
	opts.Logo = testPNG(t)

	doc, err := renderDataset(opts, scoreDataset(3))
	if err != nil {
		t.Fatalf("render with logo: %v", err)
	}
	if doc.Pages != 1 {
		t.Errorf("pages = %d, want 1", doc.Pages)
	}
}

func TestRenderRejectsBadLogo(t *testing.T) {
	opts := testOptions()
	opts.Logo = []byte("definitely not an image")

	_, err := renderDataset(opts, scoreDataset(3))
	if err == nil {
		t.Fatal("expected error for invalid logo bytes")
	}
	if apperror.Code(err) != apperror.CodeRenderFailed {
		t.Errorf("code = %s, want %s", apperror.Code(err), apperror.CodeRenderFailed)
	}
}

func TestRenderEmptyGrid(t *testing.T) {
	r, err := NewPDF(testOptions())
	if err != nil {
		t.Fatalf("NewPDF: %v", err)
	}

	for _, grid := range []*layout.Grid{nil, {}} {
		doc, err := r.Render(grid)
		if err == nil {
			t.Fatal("expected error for a grid without rows")
		}
		if apperror.Code(err) != apperror.CodeInvalidInput {
			t.Errorf("code = %s, want %s", apperror.Code(err), apperror.CodeInvalidInput)
		}
		if doc != nil {
			t.Error("no document expected on failure")
		}
	}
}

func TestRenderChartPage(t *testing.T) {
	opts := testOptions()
	opts.Chart = testPNG(t)

	doc, err := renderDataset(opts, scoreDataset(3))
	if err != nil {
		t.Fatalf("render with chart: %v", err)
	}
	if doc.Pages != 2 {
		t.Errorf("pages = %d, want 2 (table page plus chart page)", doc.Pages)
	}
}

func TestRenderRejectsBadChart(t *testing.T) {
	opts := testOptions()
	opts.Chart = []byte("not an image")

	_, err := renderDataset(opts, scoreDataset(3))
	if err == nil {
		t.Fatal("expected error for invalid chart bytes")
	}
	if apperror.Code(err) != apperror.CodeRenderFailed {
		t.Errorf("code = %s, want %s", apperror.Code(err), apperror.CodeRenderFailed)
	}
}

func TestRenderInfeasibleLayout(t *testing.T) {
	opts := testOptions()
	opts.Page = layout.PageSize{Width: 100, Height: 100}

	_, err := NewPDF(opts)
	if err == nil {
		t.Fatal("expected error for infeasible geometry")
	}
	if apperror.Code(err) != apperror.CodeLayoutInfeasible {
		t.Errorf("code = %s, want %s", apperror.Code(err), apperror.CodeLayoutInfeasible)
	}
}

func TestDetectImageType(t *testing.T) {
	if typ, err := detectImageType(testPNG(t)); err != nil || typ != "PNG" {
		t.Errorf("png: type=%q err=%v", typ, err)
	}
	if typ, err := detectImageType([]byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00}); err != nil || typ != "JPG" {
		t.Errorf("jpeg: type=%q err=%v", typ, err)
	}
	if typ, err := detectImageType([]byte("GIF89a...")); err != nil || typ != "GIF" {
		t.Errorf("gif89a: type=%q err=%v", typ, err)
	}
	if typ, err := detectImageType([]byte("GIF87a...")); err != nil || typ != "GIF" {
		t.Errorf("gif87a: type=%q err=%v", typ, err)
	}
	if _, err := detectImageType([]byte("BM: not a raster we accept")); err == nil {
		t.Error("bmp: expected error")
	}
}

func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			img.Set(x, y, color.RGBA{R: 0, G: 32, B: 96, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}
