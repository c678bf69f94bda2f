// Package report assembles report specifications and turns them into
// rendered artifacts.
package report

import (
	"os"

	"reportmill/internal/layout"
	"reportmill/pkg/apperror"
)

// Spec is the full description of one report. It is constructed once and
// never mutated; generators only read it.
type Spec struct {
	Title   string
	Dataset layout.Dataset

	HeaderTexts []string
	FooterText  string

	// LogoBytes wins over LogoPath when both are set.
	LogoPath  string
	LogoBytes []byte

	Page       layout.PageSize
	Margins    layout.Margins
	HeaderBand float64
	FooterBand float64

	FontFamily string
	Style      layout.Style

	// ColumnWidths fixes the width of specific columns by index, in points.
	// Columns without an entry share the remaining content width.
	ColumnWidths map[int]float64

	// IncludeChart appends a bar-chart page of the first numeric column
	// after the table.
	IncludeChart bool
}

// Validate checks the spec shape and aggregates every problem found.
// A configured logo that cannot be read is fatal here, before any
// rendering starts.
func (s *Spec) Validate() error {
	ve := apperror.NewValidationErrors()

	if s.Page.Width <= 0 {
		ve.AddErrorWithField(apperror.CodeInvalidInput, "page width must be positive", "page.width")
	}
	if s.Page.Height <= 0 {
		ve.AddErrorWithField(apperror.CodeInvalidInput, "page height must be positive", "page.height")
	}
	if s.Margins.Top < 0 || s.Margins.Bottom < 0 || s.Margins.Left < 0 || s.Margins.Right < 0 {
		ve.AddErrorWithField(apperror.CodeInvalidInput, "margins must be non-negative", "margins")
	}
	if s.HeaderBand < 0 {
		ve.AddErrorWithField(apperror.CodeInvalidInput, "header band height must be non-negative", "header_band")
	}
	if s.FooterBand < 0 {
		ve.AddErrorWithField(apperror.CodeInvalidInput, "footer band height must be non-negative", "footer_band")
	}
	if len(s.Dataset.Columns) == 0 {
		ve.Add(apperror.ErrEmptyDataset)
	}
	for i, w := range s.ColumnWidths {
		if w <= 0 {
			ve.Add(apperror.NewWithField(apperror.CodeInvalidColumnWidths,
				"explicit column widths must be positive", "column_widths"))
		}
		if i < 0 || i >= len(s.Dataset.Columns) {
			ve.Add(apperror.NewWithField(apperror.CodeInvalidColumnWidths,
				"explicit column width refers to a column that does not exist", "column_widths"))
		}
	}

	if _, err := s.resolveLogo(); err != nil {
		ve.Add(err)
	}

	if ve.HasErrors() {
		return ve
	}
	return nil
}

// resolveLogo returns the logo bytes, reading LogoPath when no raw bytes
// were supplied. A nil result means the report has no logo.
func (s *Spec) resolveLogo() ([]byte, *apperror.Error) {
	if len(s.LogoBytes) > 0 {
		return s.LogoBytes, nil
	}
	if s.LogoPath == "" {
		return nil, nil
	}

	data, err := os.ReadFile(s.LogoPath)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeLogoNotFound, "logo file is not readable").
			WithDetails("path", s.LogoPath)
	}
	return data, nil
}
