package report

import (
	"context"

	"reportmill/internal/chart"
	"reportmill/internal/layout"
	"reportmill/internal/render"
	"reportmill/pkg/apperror"
)

// Format identifies an output artifact format.
type Format string

const (
	FormatPDF   Format = "pdf"
	FormatExcel Format = "excel"
)

// Artifact is one generated report document.
type Artifact struct {
	Bytes       []byte
	Pages       int
	ContentType string
	Extension   string
}

// Generator turns a spec into one artifact format.
type Generator interface {
	Generate(ctx context.Context, spec *Spec) (*Artifact, error)
	Format() Format
}

// PDFGenerator renders the paginated PDF artifact.
type PDFGenerator struct{}

// NewPDFGenerator creates a PDF generator. Generators are stateless; one
// instance serves concurrent callers, each call renders independently.
func NewPDFGenerator() *PDFGenerator {
	return &PDFGenerator{}
}

// Format returns the generator format.
func (g *PDFGenerator) Format() Format {
	return FormatPDF
}

// Generate validates the spec and renders it. Any failure returns before
// bytes exist; there is never a partial artifact.
func (g *PDFGenerator) Generate(ctx context.Context, spec *Spec) (*Artifact, error) {
	if spec == nil {
		return nil, apperror.New(apperror.CodeNilInput, "spec is nil")
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, apperror.Wrap(err, apperror.CodeInternal, "generation cancelled")
	}

	logo, aerr := spec.resolveLogo()
	if aerr != nil {
		return nil, aerr
	}

	var chartPNG []byte
	if spec.IncludeChart {
		png, err := chart.BarPNG(spec.Dataset, chart.Options{
			Title: spec.Title,
			Bar:   spec.Style.HeaderBackground,
		})
		if err != nil {
			return nil, err
		}
		chartPNG = png
	}

	r, err := render.NewPDF(render.Options{
		Page:        spec.Page,
		Margins:     spec.Margins,
		HeaderBand:  spec.HeaderBand,
		FooterBand:  spec.FooterBand,
		FontFamily:  spec.FontFamily,
		HeaderTexts: spec.HeaderTexts,
		FooterText:  spec.FooterText,
		Logo:        logo,
		Chart:       chartPNG,
		Style:       spec.Style,
	})
	if err != nil {
		return nil, err
	}

	grid, err := layout.BuildGrid(spec.Dataset, r.ContentArea().Width, spec.ColumnWidths, spec.Style, r.Measure)
	if err != nil {
		return nil, err
	}

	doc, err := r.Render(grid)
	if err != nil {
		return nil, err
	}

	return &Artifact{
		Bytes:       doc.Bytes,
		Pages:       doc.Pages,
		ContentType: "application/pdf",
		Extension:   ".pdf",
	}, nil
}
