// Package chart renders dataset columns into chart images for the report's
// dashboard page.
package chart

import (
	"bytes"
	"image/color"
	"strconv"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"reportmill/internal/layout"
	"reportmill/pkg/apperror"
)

// Options configures the chart image.
type Options struct {
	Title string
	Bar   layout.Color

	// Width and Height are in points. Zero means the 432x288 default.
	Width  float64
	Height float64
}

const (
	defaultWidth  = 432
	defaultHeight = 288
)

// BarPNG renders a bar chart of the dataset's first numeric column as a PNG.
// Bars are labeled from the first non-numeric column, or by row number when
// every column is numeric. A dataset with no numeric column cannot be
// charted and fails with CodeInvalidInput.
func BarPNG(ds layout.Dataset, opts Options) ([]byte, error) {
	values, valueCol, err := numericColumn(ds)
	if err != nil {
		return nil, err
	}
	labels := barLabels(ds, valueCol, len(values))

	p := plot.New()
	p.Title.Text = opts.Title
	p.Y.Label.Text = ds.Columns[valueCol].Name
	p.NominalX(labels...)

	bars, err := plotter.NewBarChart(plotter.Values(values), vg.Points(20))
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeRenderFailed, "failed to build bar chart")
	}
	bars.LineStyle.Width = 0
	bars.Color = color.RGBA{R: uint8(opts.Bar.R), G: uint8(opts.Bar.G), B: uint8(opts.Bar.B), A: 255}
	p.Add(bars)

	width, height := opts.Width, opts.Height
	if width <= 0 {
		width = defaultWidth
	}
	if height <= 0 {
		height = defaultHeight
	}

	w, err := p.WriterTo(vg.Points(width), vg.Points(height), "png")
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeRenderFailed, "failed to render chart image")
	}

	var buf bytes.Buffer
	if _, err := w.WriteTo(&buf); err != nil {
		return nil, apperror.Wrap(err, apperror.CodeRenderFailed, "failed to write chart image")
	}
	return buf.Bytes(), nil
}

// numericColumn returns the values and index of the first column whose
// non-empty cells all parse as numbers.
func numericColumn(ds layout.Dataset) ([]float64, int, error) {
	if len(ds.Columns) == 0 {
		return nil, 0, apperror.ErrEmptyDataset
	}

	for i, col := range ds.Columns {
		values, ok := parseColumn(col.Cells)
		if ok && len(values) > 0 {
			return values, i, nil
		}
	}

	return nil, 0, apperror.New(apperror.CodeInvalidInput, "dataset has no numeric column to chart")
}

func parseColumn(cells []string) ([]float64, bool) {
	values := make([]float64, 0, len(cells))
	for _, cell := range cells {
		cell = strings.TrimSpace(cell)
		if cell == "" {
			values = append(values, 0)
			continue
		}
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return nil, false
		}
		values = append(values, v)
	}
	return values, true
}

// barLabels picks the first column other than the charted one, padding with
// row numbers so the label count always matches the value count.
func barLabels(ds layout.Dataset, valueCol, count int) []string {
	var source []string
	for i, col := range ds.Columns {
		if i != valueCol {
			source = col.Cells
			break
		}
	}

	labels := make([]string, count)
	for i := range labels {
		if i < len(source) && strings.TrimSpace(source[i]) != "" {
			labels[i] = source[i]
		} else {
			labels[i] = strconv.Itoa(i + 1)
		}
	}
	return labels
}
