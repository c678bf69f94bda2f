// Package layout computes page geometry and table grids for the report
// renderer. Everything here is pure math over the report specification;
// nothing touches a rendering backend.
package layout

import (
	"fmt"
	"strconv"
	"strings"

	"reportmill/pkg/apperror"
)

// PageSize is the physical page size in points.
type PageSize struct {
	Width  float64
	Height float64
}

// Margins are the page margins in points.
type Margins struct {
	Top    float64
	Bottom float64
	Left   float64
	Right  float64
}

// ContentArea is the rectangle available for the table after subtracting
// margins and the header/footer bands. The origin is the top-left corner of
// the page, y growing downward.
type ContentArea struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// ComputeContentArea derives the content rectangle from page geometry.
// The header band is reserved below the top margin, the footer band above
// the bottom margin.
func ComputeContentArea(page PageSize, m Margins, headerBand, footerBand float64) (ContentArea, error) {
	if page.Width <= 0 || page.Height <= 0 {
		return ContentArea{}, apperror.NewWithField(apperror.CodeInvalidInput,
			"page dimensions must be positive", "page_size")
	}
	if m.Top < 0 || m.Bottom < 0 || m.Left < 0 || m.Right < 0 {
		return ContentArea{}, apperror.NewWithField(apperror.CodeInvalidInput,
			"margins must be non-negative", "margins")
	}
	if headerBand < 0 || footerBand < 0 {
		return ContentArea{}, apperror.NewWithField(apperror.CodeInvalidInput,
			"band heights must be non-negative", "bands")
	}

	area := ContentArea{
		X:      m.Left,
		Y:      m.Top + headerBand,
		Width:  page.Width - m.Left - m.Right,
		Height: page.Height - m.Top - m.Bottom - headerBand - footerBand,
	}

	if area.Width <= 0 || area.Height <= 0 {
		return ContentArea{}, apperror.New(apperror.CodeLayoutInfeasible,
			fmt.Sprintf("content area %.1fx%.1f is not positive", area.Width, area.Height)).
			WithDetails("width", area.Width).
			WithDetails("height", area.Height)
	}

	return area, nil
}

// Color is an RGB color.
type Color struct {
	R int
	G int
	B int
}

// ParseHexColor parses "#RRGGBB" (the leading '#' is optional).
func ParseHexColor(s string) (Color, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) != 6 {
		return Color{}, fmt.Errorf("invalid hex color %q", s)
	}

	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("invalid hex color %q: %w", s, err)
	}

	return Color{
		R: int(v >> 16 & 0xFF),
		G: int(v >> 8 & 0xFF),
		B: int(v & 0xFF),
	}, nil
}

// MustHexColor parses a hex color or panics. For static style tables.
func MustHexColor(s string) Color {
	c, err := ParseHexColor(s)
	if err != nil {
		panic(err)
	}
	return c
}
