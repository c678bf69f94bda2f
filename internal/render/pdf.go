// Package render draws laid-out report grids into PDF documents.
package render

import (
	"bytes"
	"time"

	"github.com/phpdave11/gofpdf"

	"reportmill/internal/layout"
	"reportmill/pkg/apperror"
)

// Options configures a PDF rendering pass. Page geometry is in points.
type Options struct {
	Page       layout.PageSize
	Margins    layout.Margins
	HeaderBand float64
	FooterBand float64

	FontFamily  string
	HeaderTexts []string
	FooterText  string

	// Logo holds the raw image bytes (PNG, JPEG or GIF); nil means no logo.
	Logo []byte

	// Chart holds a rendered chart image placed on its own page after the
	// table; nil means no chart page.
	Chart []byte

	Style layout.Style
}

// Document is a rendered report.
type Document struct {
	Bytes []byte
	Pages int
}

// PDF renders grids into PDF documents. A renderer is single-use: build it,
// measure, render once.
type PDF struct {
	pdf  *gofpdf.Fpdf
	opts Options
	area layout.ContentArea
}

// NewPDF prepares a renderer for the given options. The content area is
// computed up front so callers can size the grid before rendering.
func NewPDF(opts Options) (*PDF, error) {
	area, err := layout.ComputeContentArea(opts.Page, opts.Margins, opts.HeaderBand, opts.FooterBand)
	if err != nil {
		return nil, err
	}

	if opts.FontFamily == "" {
		opts.FontFamily = "Helvetica"
	}

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: opts.Page.Width, Ht: opts.Page.Height},
	})
	pdf.SetMargins(opts.Margins.Left, opts.Margins.Top, opts.Margins.Right)
	pdf.SetAutoPageBreak(false, 0)

	// Identical input must produce identical bytes: pin the creation date
	// and sort catalog objects so font ordering does not depend on map
	// iteration order.
	pdf.SetCreationDate(time.Unix(0, 0).UTC())
	pdf.SetCatalogSort(true)

	return &PDF{pdf: pdf, opts: opts, area: area}, nil
}

// ContentArea returns the per-page area available to the table.
func (r *PDF) ContentArea() layout.ContentArea {
	return r.area
}

// Measure reports the rendered width of text at a font size, using the
// document's font metrics. It satisfies layout.MeasureFunc.
func (r *PDF) Measure(text string, fontSize float64) float64 {
	r.pdf.SetFont(r.opts.FontFamily, "", fontSize)
	return r.pdf.GetStringWidth(text)
}

// Render draws the grid into a paginated document. The header row repeats
// at the top of every page and data rows are never split across pages.
func (r *PDF) Render(grid *layout.Grid) (*Document, error) {
	if grid == nil || len(grid.Rows) == 0 {
		return nil, apperror.New(apperror.CodeInvalidInput, "grid has no rows")
	}

	logo, err := r.registerLogo()
	if err != nil {
		return nil, err
	}

	r.pdf.SetHeaderFunc(func() { r.drawHeaderBand(logo) })
	r.pdf.SetFooterFunc(func() { r.drawFooterBand() })

	r.pdf.AddPage()
	y := r.area.Y
	y = r.drawRow(grid, 0, y)

	limit := r.area.Y + r.area.Height
	for row := 1; row < len(grid.Rows); row++ {
		if y+grid.RowHeights[row] > limit+heightTolerance {
			r.pdf.AddPage()
			y = r.area.Y
			y = r.drawRow(grid, 0, y)
		}
		y = r.drawRow(grid, row, y)
	}

	if len(r.opts.Chart) > 0 {
		if err := r.drawChartPage(); err != nil {
			return nil, err
		}
	}

	if err := r.pdf.Error(); err != nil {
		return nil, apperror.Wrap(err, apperror.CodeRenderFailed, "pdf generation failed")
	}

	var buf bytes.Buffer
	if err := r.pdf.Output(&buf); err != nil {
		return nil, apperror.Wrap(err, apperror.CodeRenderFailed, "pdf output failed")
	}

	return &Document{Bytes: buf.Bytes(), Pages: r.pdf.PageCount()}, nil
}

// heightTolerance absorbs float drift when a row exactly fills the page.
const heightTolerance = 0.01

// drawRow paints one grid row at vertical position y and returns the
// position below it.
func (r *PDF) drawRow(grid *layout.Grid, row int, y float64) float64 {
	style := r.opts.Style
	height := grid.RowHeights[row]
	x := r.area.X

	for col, cell := range grid.Rows[row] {
		width := grid.ColumnWidths[col]

		r.pdf.SetFillColor(cell.Fill.R, cell.Fill.G, cell.Fill.B)
		r.pdf.SetDrawColor(style.Border.R, style.Border.G, style.Border.B)
		r.pdf.SetLineWidth(1)
		r.pdf.Rect(x, y, width, height, "FD")

		fontStyle := ""
		if cell.Bold {
			fontStyle = "B"
		}
		r.pdf.SetFont(r.opts.FontFamily, fontStyle, cell.FontSize)
		r.pdf.SetTextColor(cell.TextColor.R, cell.TextColor.G, cell.TextColor.B)

		lineHeight := style.LineHeight(cell.FontSize)
		for i, line := range cell.Lines {
			r.pdf.SetXY(x+style.CellPadding, y+style.CellPadding+float64(i)*lineHeight)
			r.pdf.CellFormat(width-2*style.CellPadding, lineHeight, line,
				"", 0, alignString(cell.Align), false, 0, "")
		}

		x += width
	}

	return y + height
}

func alignString(a layout.Align) string {
	switch a {
	case layout.AlignCenter:
		return "C"
	case layout.AlignRight:
		return "R"
	default:
		return "L"
	}
}
