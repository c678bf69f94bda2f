package layout

import (
	"fmt"
	"strings"

	"reportmill/pkg/apperror"
)

// Align is horizontal text alignment inside a cell.
type Align string

const (
	AlignLeft   Align = "left"
	AlignCenter Align = "center"
	AlignRight  Align = "right"
)

// Column is one named dataset column with its cell values.
type Column struct {
	Name  string
	Cells []string
}

// Dataset is an ordered, fully materialized tabular dataset.
type Dataset struct {
	Columns []Column
}

// RowCount returns the number of data rows (the longest column wins; short
// columns are padded with empty cells during grid construction).
func (d Dataset) RowCount() int {
	max := 0
	for _, col := range d.Columns {
		if len(col.Cells) > max {
			max = len(col.Cells)
		}
	}
	return max
}

// Style describes table styling.
type Style struct {
	HeaderBackground Color
	HeaderText       Color
	OddRow           Color
	EvenRow          Color
	Border           Color
	Text             Color

	FontSize       float64
	HeaderFontSize float64
	LineSpacing    float64 // multiple of font size, 0 means 1.2
	CellPadding    float64 // per side, points
	MinRowHeight   float64

	// ColumnAlign overrides data cell alignment per column index.
	// Header labels are always centered.
	ColumnAlign map[int]Align
}

// DefaultStyle mirrors the classic report look: dark blue header, white odd
// rows, light blue even rows, black 1pt grid.
func DefaultStyle() Style {
	return Style{
		HeaderBackground: MustHexColor("#002060"),
		HeaderText:       MustHexColor("#FFFFFF"),
		OddRow:           MustHexColor("#FFFFFF"),
		EvenRow:          MustHexColor("#D9E2F3"),
		Border:           MustHexColor("#000000"),
		Text:             MustHexColor("#000000"),
		FontSize:         10,
		HeaderFontSize:   12,
		LineSpacing:      1.2,
		CellPadding:      2,
		MinRowHeight:     20,
	}
}

func (s Style) LineHeight(fontSize float64) float64 {
	spacing := s.LineSpacing
	if spacing <= 0 {
		spacing = 1.2
	}
	return fontSize * spacing
}

func (s Style) alignFor(col int) Align {
	if a, ok := s.ColumnAlign[col]; ok {
		return a
	}
	return AlignLeft
}

// MeasureFunc returns the rendered width of text at a font size. The
// renderer supplies real font metrics; tests use a fixed-width stand-in.
type MeasureFunc func(text string, fontSize float64) float64

// Cell is one laid-out table cell.
type Cell struct {
	Lines     []string
	Align     Align
	Fill      Color
	TextColor Color
	FontSize  float64
	Bold      bool
}

// Grid is the fully laid-out table prior to drawing. Row 0 is the header
// row; rows 1..N carry the dataset values.
type Grid struct {
	ColumnWidths []float64
	RowHeights   []float64
	Rows         [][]Cell
}

// HeaderHeight returns the height of the repeating header row.
func (g *Grid) HeaderHeight() float64 {
	if len(g.RowHeights) == 0 {
		return 0
	}
	return g.RowHeights[0]
}

// DataRowCount returns the number of data rows.
func (g *Grid) DataRowCount() int {
	if len(g.Rows) == 0 {
		return 0
	}
	return len(g.Rows) - 1
}

// ComputeColumnWidths distributes contentWidth over the columns. Explicit
// widths (by column index) are used verbatim; the remaining width is shared
// equally by the columns without one.
func ComputeColumnWidths(columnCount int, contentWidth float64, explicit map[int]float64) ([]float64, error) {
	if columnCount <= 0 {
		return nil, apperror.ErrEmptyDataset
	}

	explicitSum := 0.0
	unspecified := 0
	for i := 0; i < columnCount; i++ {
		if w, ok := explicit[i]; ok {
			if w <= 0 {
				return nil, apperror.NewWithField(apperror.CodeInvalidColumnWidths,
					fmt.Sprintf("explicit width for column %d must be positive", i), "column_widths")
			}
			explicitSum += w
		} else {
			unspecified++
		}
	}

	remaining := contentWidth - explicitSum
	if remaining < -widthTolerance || (unspecified > 0 && remaining <= 0) {
		return nil, apperror.New(apperror.CodeInvalidColumnWidths,
			fmt.Sprintf("explicit widths (%.1f) exceed content width (%.1f)", explicitSum, contentWidth)).
			WithDetails("explicit_sum", explicitSum).
			WithDetails("content_width", contentWidth)
	}

	// With every column pinned there is no column left to absorb the
	// remainder, so the widths must fill the content width themselves.
	if unspecified == 0 && remaining > widthTolerance {
		return nil, apperror.New(apperror.CodeInvalidColumnWidths,
			fmt.Sprintf("explicit widths (%.1f) leave %.1f of the content width (%.1f) unfilled", explicitSum, remaining, contentWidth)).
			WithDetails("explicit_sum", explicitSum).
			WithDetails("content_width", contentWidth)
	}

	widths := make([]float64, columnCount)
	share := 0.0
	if unspecified > 0 {
		share = remaining / float64(unspecified)
	}
	for i := 0; i < columnCount; i++ {
		if w, ok := explicit[i]; ok {
			widths[i] = w
		} else {
			widths[i] = share
		}
	}

	return widths, nil
}

const widthTolerance = 0.5

// BuildGrid lays out the dataset into a styled grid that fills contentWidth.
// Row 0 holds the column names; data rows alternate odd/even fill colors
// starting with the odd color at row index 1.
func BuildGrid(ds Dataset, contentWidth float64, explicit map[int]float64, style Style, measure MeasureFunc) (*Grid, error) {
	if len(ds.Columns) == 0 {
		return nil, apperror.ErrEmptyDataset
	}

	widths, err := ComputeColumnWidths(len(ds.Columns), contentWidth, explicit)
	if err != nil {
		return nil, err
	}

	rowCount := ds.RowCount() + 1 // header row included
	grid := &Grid{
		ColumnWidths: widths,
		RowHeights:   make([]float64, rowCount),
		Rows:         make([][]Cell, rowCount),
	}

	for r := 0; r < rowCount; r++ {
		cells := make([]Cell, len(ds.Columns))
		rowHeight := style.MinRowHeight

		for c := range ds.Columns {
			cell := buildCell(ds, r, c, style)
			textWidth := widths[c] - 2*style.CellPadding
			cell.Lines = wrapText(cellText(ds, r, c), textWidth, cell.FontSize, measure)

			needed := float64(len(cell.Lines))*style.LineHeight(cell.FontSize) + 2*style.CellPadding
			if needed > rowHeight {
				rowHeight = needed
			}

			cells[c] = cell
		}

		grid.Rows[r] = cells
		grid.RowHeights[r] = rowHeight
	}

	return grid, nil
}

func cellText(ds Dataset, row, col int) string {
	if row == 0 {
		return ds.Columns[col].Name
	}
	cells := ds.Columns[col].Cells
	if row-1 < len(cells) {
		return cells[row-1]
	}
	return ""
}

// buildCell applies the styling rules for one cell position.
func buildCell(ds Dataset, row, col int, style Style) Cell {
	if row == 0 {
		return Cell{
			Align:     AlignCenter,
			Fill:      style.HeaderBackground,
			TextColor: style.HeaderText,
			FontSize:  style.HeaderFontSize,
			Bold:      true,
		}
	}

	fill := style.OddRow
	if row%2 == 0 {
		fill = style.EvenRow
	}

	return Cell{
		Align:     style.alignFor(col),
		Fill:      fill,
		TextColor: style.Text,
		FontSize:  style.FontSize,
	}
}

// wrapText greedily wraps text to the given width. A word that fits on a
// blank line is never split; longer words are hard-broken.
func wrapText(text string, width float64, fontSize float64, measure MeasureFunc) []string {
	if text == "" {
		return []string{""}
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{""}
	}

	var lines []string
	current := ""

	flush := func() {
		if current != "" {
			lines = append(lines, current)
			current = ""
		}
	}

	for _, word := range words {
		candidate := word
		if current != "" {
			candidate = current + " " + word
		}

		if measure(candidate, fontSize) <= width {
			current = candidate
			continue
		}

		flush()

		if measure(word, fontSize) <= width {
			current = word
			continue
		}

		// Word does not fit even alone: hard-break it.
		for _, chunk := range hardBreak(word, width, fontSize, measure) {
			lines = append(lines, chunk)
		}
		if len(lines) > 0 {
			// The last chunk may still have room for following words.
			current = lines[len(lines)-1]
			lines = lines[:len(lines)-1]
		}
	}

	flush()

	if len(lines) == 0 {
		return []string{""}
	}
	return lines
}

// hardBreak splits a single oversized word into width-sized chunks.
func hardBreak(word string, width float64, fontSize float64, measure MeasureFunc) []string {
	var chunks []string
	runes := []rune(word)

	for len(runes) > 0 {
		n := len(runes)
		for n > 1 && measure(string(runes[:n]), fontSize) > width {
			n--
		}
		chunks = append(chunks, string(runes[:n]))
		runes = runes[n:]
	}

	return chunks
}
