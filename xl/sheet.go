package xl

import (
	"strconv"
	"strings"

	"github.com/valyala/bytebufferpool"
)

// Sheet is a worksheet being streamed to its temp file.
type Sheet struct {
	Name        string // key used by callers
	DisplayName string // sanitized tab name

	partName string // sheetN.xml
	w        *BufferedWriter

	rowCount int
	columns  []Column
	merges   []string

	autoFilter    bool
	freezeRows    int
	freezeColumns int

	// Reserved bytes of the <dimension> placeholder.
	dimOffset int64
	dimWidth  int

	headerDone bool
	finalized  bool
	err        error // sticky finalize failure
}

// Column holds per-column formatting state.
type Column struct {
	NumberFormat string
	FormatType   FormatType
	DefaultStyle int
}

// ColumnOptions configure a sheet when it is first created. They are
// ignored for a sheet that already exists.
type ColumnOptions struct {
	Widths        []float64
	AutoFilter    bool
	FreezeRows    int
	FreezeColumns int
}

// HeaderColumn declares a column label and its format (a vocabulary name
// such as "date" or a raw format code).
type HeaderColumn struct {
	Label  string
	Format string
}

type HeaderOptions struct {
	ColumnOptions

	// SuppressRow sets up column formats without writing the label row.
	SuppressRow bool

	// Style applies to every header cell; Styles, when non-empty, is
	// indexed by column and wins over Style.
	Style  *Style
	Styles []*Style
}

type RowOptions struct {
	Height    float64 // points, 0 keeps the default
	Hidden    bool
	Collapsed bool

	// Style applies to every cell of the row; Styles, when non-empty, is
	// indexed by column and wins over Style. Cells without an override use
	// their column's default style.
	Style  *Style
	Styles []*Style

	// Formats redeclares the column formats from this row on.
	Formats []string
}

const defaultRowHeight = 12.1

// Columns past the explicit widths get the default width up to here.
const maxDefaultColumn = 1024

// placeholderDimension reserves room for the largest possible used range.
var placeholderDimension = `<dimension ref="A1:` + CellRef(MaxRows, MaxColumns) + `"/>`

// RowCount returns the number of rows written, header included.
func (s *Sheet) RowCount() int { return s.rowCount }

// Columns returns the column state.
func (s *Sheet) Columns() []Column { return s.columns }

// Finalized reports whether the sheet has been closed for writing.
func (s *Sheet) Finalized() bool { return s.finalized }

// MergeRanges returns the recorded merge ranges.
func (s *Sheet) MergeRanges() []string { return s.merges }

func (s *Sheet) writePreamble(widths []float64, rightToLeft, tabSelected bool) {
	w := s.w
	w.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n")
	w.WriteString(`<worksheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships">`)
	w.WriteString(`<sheetPr filterMode="false"><pageSetUpPr fitToPage="false"/></sheetPr>`)

	s.dimOffset = w.Tell()
	w.WriteString(placeholderDimension)
	s.dimWidth = len(placeholderDimension)

	w.WriteString(`<sheetViews>`)
	w.WriteString(`<sheetView colorId="64" defaultGridColor="true" rightToLeft="` + boolString(rightToLeft) +
		`" showFormulas="false" showGridLines="true" showOutlineSymbols="true" showRowColHeaders="true" showZeros="true" tabSelected="` +
		boolString(tabSelected) + `" topLeftCell="A1" view="normal" windowProtection="false" workbookViewId="0" zoomScale="100" zoomScaleNormal="100" zoomScalePageLayoutView="100">`)
	fr, fc := s.freezeRows, s.freezeColumns
	switch {
	case fr > 0 && fc > 0:
		w.WriteString(`<pane ySplit="` + strconv.Itoa(fr) + `" xSplit="` + strconv.Itoa(fc) + `" topLeftCell="` + CellRef(fr, fc) + `" activePane="bottomRight" state="frozen"/>`)
		writeSelection(w, CellRef(fr, 0), "topRight")
		writeSelection(w, CellRef(0, fc), "bottomLeft")
		writeSelection(w, CellRef(fr, fc), "bottomRight")
	case fr > 0:
		w.WriteString(`<pane ySplit="` + strconv.Itoa(fr) + `" topLeftCell="` + CellRef(fr, 0) + `" activePane="bottomLeft" state="frozen"/>`)
		writeSelection(w, CellRef(fr, 0), "bottomLeft")
	case fc > 0:
		w.WriteString(`<pane xSplit="` + strconv.Itoa(fc) + `" topLeftCell="` + CellRef(0, fc) + `" activePane="topRight" state="frozen"/>`)
		writeSelection(w, CellRef(0, fc), "topRight")
	default:
		writeSelection(w, "A1", "topLeft")
	}
	w.WriteString(`</sheetView></sheetViews>`)

	w.WriteString(`<cols>`)
	for i, width := range widths {
		n := strconv.Itoa(i + 1)
		w.WriteString(`<col collapsed="false" hidden="false" max="` + n + `" min="` + n +
			`" style="0" customWidth="true" width="` + formatFloat(width+0.725) + `"/>`)
	}
	if len(widths) < maxDefaultColumn {
		w.WriteString(`<col collapsed="false" hidden="false" max="` + strconv.Itoa(maxDefaultColumn) + `" min="` + strconv.Itoa(len(widths)+1) +
			`" style="0" customWidth="false" width="11.5"/>`)
	}
	w.WriteString(`</cols>`)
	w.WriteString(`<sheetData>`)
}

func writeSelection(w *BufferedWriter, cell, pane string) {
	w.WriteString(`<selection activeCell="` + cell + `" activeCellId="0" pane="` + pane + `" sqref="` + cell + `"/>`)
}

// setFormats replaces the column list with one column per format.
func (s *Sheet) setFormats(reg *StyleRegistry, formats []string) {
	cols := make([]Column, 0, len(formats))
	for _, f := range formats {
		if f == "" {
			f = FormatGeneral
		}
		code := StandardizeNumberFormat(f)
		cols = append(cols, Column{
			NumberFormat: code,
			FormatType:   DetermineFormatType(code),
			DefaultStyle: reg.AddCellStyle(code, nil),
		})
	}
	s.columns = cols
}

// extendColumns pads the column list with General columns up to n.
func (s *Sheet) extendColumns(reg *StyleRegistry, n int) {
	for len(s.columns) < n {
		s.columns = append(s.columns, Column{
			NumberFormat: FormatGeneral,
			FormatType:   FormatAuto,
			DefaultStyle: reg.AddCellStyle(FormatGeneral, nil),
		})
	}
}

func (s *Sheet) writeHeader(reg *StyleRegistry, cols []HeaderColumn, opts *HeaderOptions) {
	formats := make([]string, len(cols))
	for i, c := range cols {
		formats[i] = c.Format
	}
	s.setFormats(reg, formats)
	s.headerDone = true
	if opts != nil && opts.SuppressRow {
		return
	}

	b := bytebufferpool.Get()
	defer bytebufferpool.Put(b)
	writeRowOpen(b, s.rowCount, nil)
	for c, col := range cols {
		style := s.columns[c].DefaultStyle
		if opts != nil {
			if st, ok := pickStyle(opts.Style, opts.Styles, c); ok {
				style = reg.AddCellStyle(FormatGeneral, st)
			}
		}
		writeCell(b, s.rowCount, c, col.Label, FormatString, style)
	}
	b.WriteString(`</row>`)
	s.w.Write(b.B)
	s.rowCount++
}

func (s *Sheet) writeRow(reg *StyleRegistry, values []any, opts *RowOptions) {
	if opts != nil && len(opts.Formats) > 0 {
		s.setFormats(reg, opts.Formats)
	}
	s.extendColumns(reg, len(values))

	b := bytebufferpool.Get()
	defer bytebufferpool.Put(b)
	writeRowOpen(b, s.rowCount, opts)
	for c, v := range values {
		col := s.columns[c]
		style := col.DefaultStyle
		if opts != nil {
			if st, ok := pickStyle(opts.Style, opts.Styles, c); ok {
				style = reg.AddCellStyle(col.NumberFormat, st)
			}
		}
		writeCell(b, s.rowCount, c, v, col.FormatType, style)
	}
	b.WriteString(`</row>`)
	s.w.Write(b.B)
	s.rowCount++
}

// pickStyle returns the override for column c, if any.
func pickStyle(shared *Style, perColumn []*Style, c int) (*Style, bool) {
	if len(perColumn) > 0 {
		if c < len(perColumn) && perColumn[c] != nil {
			return perColumn[c], true
		}
		return nil, false
	}
	return shared, shared != nil
}

func writeRowOpen(b *bytebufferpool.ByteBuffer, row int, opts *RowOptions) {
	ht, custom, hidden, collapsed := defaultRowHeight, false, false, false
	if opts != nil {
		if opts.Height > 0 {
			ht, custom = opts.Height, true
		}
		hidden, collapsed = opts.Hidden, opts.Collapsed
	}
	b.WriteString(`<row collapsed="`)
	b.WriteString(boolString(collapsed))
	b.WriteString(`" customFormat="false" customHeight="`)
	b.WriteString(boolString(custom))
	b.WriteString(`" hidden="`)
	b.WriteString(boolString(hidden))
	b.WriteString(`" ht="`)
	b.WriteString(formatFloat(ht))
	b.WriteString(`" outlineLevel="0" r="`)
	b.WriteString(strconv.Itoa(row + 1))
	b.WriteString(`">`)
}

// usedRange returns the bottom-right cell of the written area.
func (s *Sheet) usedRange() string {
	return CellRef(max(s.rowCount-1, 0), max(len(s.columns)-1, 0))
}

// finalize writes the closing elements, patches the dimension placeholder
// in place and releases the writer. Calling it again does nothing.
func (s *Sheet) finalize() error {
	if s.finalized {
		return s.err
	}
	w := s.w
	w.WriteString(`</sheetData>`)

	maxCell := s.usedRange()
	if s.autoFilter {
		w.WriteString(`<autoFilter ref="A1:` + maxCell + `"/>`)
	}

	if len(s.merges) > 0 {
		w.WriteString(`<mergeCells>`)
		for _, r := range s.merges {
			w.WriteString(`<mergeCell ref="` + r + `"/>`)
		}
		w.WriteString(`</mergeCells>`)
	}

	w.WriteString(`<printOptions headings="false" gridLines="false" gridLinesSet="true" horizontalCentered="false" verticalCentered="false"/>`)
	w.WriteString(`<pageMargins left="0.5" right="0.5" top="1.0" bottom="1.0" header="0.5" footer="0.5"/>`)
	w.WriteString(`<pageSetup blackAndWhite="false" cellComments="none" copies="1" draft="false" firstPageNumber="1" fitToHeight="1" fitToWidth="1" horizontalDpi="300" orientation="portrait" pageOrder="downThenOver" paperSize="1" scale="100" useFirstPageNumber="true" usePrinterDefaults="false" verticalDpi="300"/>`)
	w.WriteString(`<headerFooter differentFirst="false" differentOddEven="false">`)
	w.WriteString(`<oddHeader>&amp;C&amp;&quot;Times New Roman,Regular&quot;&amp;12&amp;A</oddHeader>`)
	w.WriteString(`<oddFooter>&amp;C&amp;&quot;Times New Roman,Regular&quot;&amp;12Page &amp;P</oddFooter>`)
	w.WriteString(`</headerFooter>`)
	w.WriteString(`</worksheet>`)

	var err error
	if s.dimOffset >= 0 {
		tag := `<dimension ref="A1:` + maxCell + `"/>`
		if len(tag) > s.dimWidth {
			err = ErrDimensionOverflow
		} else if err = w.Seek(s.dimOffset); err == nil {
			w.WriteString(tag + strings.Repeat(" ", s.dimWidth-len(tag)))
		}
	}
	if cerr := w.Close(); err == nil {
		err = cerr
	}
	s.finalized = true
	s.err = err
	return err
}
