package render

import (
	"bytes"

	"github.com/phpdave11/gofpdf"

	"reportmill/pkg/apperror"
)

// logoImage is a registered logo scaled to fit the header band.
type logoImage struct {
	name   string
	opts   gofpdf.ImageOptions
	width  float64
	height float64
}

// bandInset keeps band content off the page edge and table.
const bandInset = 4.0

// registerLogo registers the logo bytes with the document and computes its
// placement size: full band height (minus inset), width preserving the
// image aspect ratio.
func (r *PDF) registerLogo() (*logoImage, error) {
	if len(r.opts.Logo) == 0 {
		return nil, nil
	}

	imgType, err := detectImageType(r.opts.Logo)
	if err != nil {
		return nil, err
	}

	opts := gofpdf.ImageOptions{ImageType: imgType}
	info := r.pdf.RegisterImageOptionsReader("logo", opts, bytes.NewReader(r.opts.Logo))
	if err := r.pdf.Error(); err != nil {
		return nil, apperror.Wrap(err, apperror.CodeRenderFailed, "logo image rejected")
	}

	height := r.opts.HeaderBand - 2*bandInset
	if height <= 0 {
		height = r.opts.HeaderBand
	}
	width := height * info.Width() / info.Height()

	return &logoImage{name: "logo", opts: opts, width: width, height: height}, nil
}

// detectImageType sniffs PNG, JPEG and GIF magic bytes.
func detectImageType(data []byte) (string, error) {
	switch {
	case len(data) >= 8 && bytes.Equal(data[:8], []byte("\x89PNG\r\n\x1a\n")):
		return "PNG", nil
	case len(data) >= 3 && bytes.Equal(data[:3], []byte{0xFF, 0xD8, 0xFF}):
		return "JPG", nil
	case len(data) >= 6 && (bytes.Equal(data[:6], []byte("GIF87a")) || bytes.Equal(data[:6], []byte("GIF89a"))):
		return "GIF", nil
	default:
		return "", apperror.New(apperror.CodeRenderFailed, "image must be PNG, JPEG or GIF")
	}
}

// drawChartPage appends one page holding the chart image, scaled to the
// content area preserving its aspect ratio and centered horizontally. The
// page keeps the regular header and footer bands.
func (r *PDF) drawChartPage() error {
	imgType, err := detectImageType(r.opts.Chart)
	if err != nil {
		return err
	}

	opts := gofpdf.ImageOptions{ImageType: imgType}
	info := r.pdf.RegisterImageOptionsReader("chart", opts, bytes.NewReader(r.opts.Chart))
	if err := r.pdf.Error(); err != nil {
		return apperror.Wrap(err, apperror.CodeRenderFailed, "chart image rejected")
	}

	width := r.area.Width
	height := width * info.Height() / info.Width()
	if height > r.area.Height {
		height = r.area.Height
		width = height * info.Width() / info.Height()
	}

	r.pdf.AddPage()
	x := r.area.X + (r.area.Width-width)/2
	r.pdf.ImageOptions("chart", x, r.area.Y, width, height, false, opts, 0, "")

	return nil
}

// drawHeaderBand paints the repeating page header: the logo left-aligned in
// the band, the header lines stacked and centered across the page.
func (r *PDF) drawHeaderBand(logo *logoImage) {
	if logo != nil {
		y := r.opts.Margins.Top + (r.opts.HeaderBand-logo.height)/2
		r.pdf.ImageOptions(logo.name, r.opts.Margins.Left, y,
			logo.width, logo.height, false, logo.opts, 0, "")
	}

	texts := r.opts.HeaderTexts
	if len(texts) == 0 {
		return
	}

	style := r.opts.Style
	size := style.HeaderFontSize
	if size <= 0 {
		size = 12
	}
	lineHeight := style.LineHeight(size)

	r.pdf.SetFont(r.opts.FontFamily, "B", size)
	r.pdf.SetTextColor(style.Text.R, style.Text.G, style.Text.B)

	y := r.opts.Margins.Top + bandInset
	for _, text := range texts {
		r.pdf.SetXY(r.area.X, y)
		r.pdf.CellFormat(r.area.Width, lineHeight, text, "", 0, "C", false, 0, "")
		y += lineHeight
	}
}

// drawFooterBand paints the footer band: the configured text centered.
// Every page gets identical footer content.
func (r *PDF) drawFooterBand() {
	text := r.opts.FooterText
	if text == "" {
		return
	}

	style := r.opts.Style
	size := style.FontSize
	if size <= 0 {
		size = 10
	}

	r.pdf.SetFont(r.opts.FontFamily, "", size-2)
	r.pdf.SetTextColor(style.Text.R, style.Text.G, style.Text.B)

	y := r.opts.Page.Height - r.opts.Margins.Bottom - r.opts.FooterBand
	r.pdf.SetXY(r.area.X, y)
	r.pdf.CellFormat(r.area.Width, r.opts.FooterBand, text, "", 0, "C", false, 0, "")
}
