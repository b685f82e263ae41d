package report

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"slices"

	"github.com/adnsv/xlstream/xl"
)

// Builder turns a report definition into a workbook.
type Builder struct {
	Config  *Config
	DB      *sql.DB // required when a sheet uses a query
	TempDir string
	Logger  *slog.Logger
}

func (b *Builder) log() *slog.Logger {
	if b.Logger != nil {
		return b.Logger
	}
	return slog.Default()
}

// Build writes every sheet of the report. The caller saves the result or
// closes it.
func (b *Builder) Build(ctx context.Context) (*xl.Workbook, error) {
	return b.build(ctx, b.Config.Sheets)
}

// BuildSheet writes a workbook holding only the named sheet.
func (b *Builder) BuildSheet(ctx context.Context, name string) (*xl.Workbook, error) {
	sheet, ok := b.Config.Sheet(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", xl.ErrUnknownSheet, name)
	}
	return b.build(ctx, []SheetConfig{sheet})
}

func (b *Builder) build(ctx context.Context, sheets []SheetConfig) (*xl.Workbook, error) {
	wc := b.Config.Workbook
	wb := xl.NewWorkbook()
	wb.Title = wc.Title
	wb.Subject = wc.Subject
	wb.Author = wc.Author
	wb.Company = wc.Company
	wb.Description = wc.Description
	wb.Keywords = wc.Keywords
	wb.RightToLeft = wc.RightToLeft
	wb.AppName = "xlreport"
	wb.TempDir = b.TempDir
	wb.Logger = b.log()

	for _, sheet := range sheets {
		if err := b.writeSheet(ctx, wb, sheet); err != nil {
			wb.Close()
			return nil, fmt.Errorf("sheet '%s': %w", sheet.Name, err)
		}
	}
	return wb, nil
}

// defaultColumnWidth renders like a column without a custom width.
const defaultColumnWidth = 11.5 - 0.725

// columnWidths returns nil when no column sets a width. Otherwise unset
// widths fall back to defaultColumnWidth.
func columnWidths(cols []ColumnConfig) []float64 {
	if !slices.ContainsFunc(cols, func(c ColumnConfig) bool { return c.Width > 0 }) {
		return nil
	}
	widths := make([]float64, len(cols))
	for i, c := range cols {
		widths[i] = c.Width
		if c.Width <= 0 {
			widths[i] = defaultColumnWidth
		}
	}
	return widths
}

func (b *Builder) writeSheet(ctx context.Context, wb *xl.Workbook, sheet SheetConfig) error {
	src, err := sourceFor(b.Config, sheet, b.DB)
	if err != nil {
		return err
	}

	opts := xl.ColumnOptions{
		AutoFilter:    sheet.AutoFilter,
		FreezeRows:    sheet.FreezeRows,
		FreezeColumns: sheet.FreezeColumns,
	}
	opts.Widths = columnWidths(sheet.Columns)
	header := make([]xl.HeaderColumn, len(sheet.Columns))
	var styles []*xl.Style
	for i, c := range sheet.Columns {
		header[i] = xl.HeaderColumn{Label: c.Label, Format: c.Format}
		if c.Style != nil {
			if styles == nil {
				styles = make([]*xl.Style, len(sheet.Columns))
			}
			styles[i] = c.Style
		}
	}
	if err := wb.SetColumnOptions(sheet.Name, opts); err != nil {
		return err
	}
	if len(header) > 0 {
		err := wb.WriteHeader(sheet.Name, header, &xl.HeaderOptions{
			SuppressRow: sheet.NoHeader,
			Style:       sheet.HeaderStyle,
		})
		if err != nil {
			return err
		}
	}

	rowOpts := &xl.RowOptions{Style: sheet.RowStyle}
	if styles != nil {
		for i := range styles {
			if styles[i] == nil {
				styles[i] = sheet.RowStyle
			}
		}
		rowOpts = &xl.RowOptions{Styles: styles}
	}
	err = src.Each(ctx, func(row []any) error {
		return wb.WriteRow(sheet.Name, row, rowOpts)
	})
	if err != nil {
		return err
	}

	for _, m := range sheet.Merges {
		if err := wb.MarkMerge(sheet.Name, m.FromRow, m.FromCol, m.ToRow, m.ToCol); err != nil {
			return err
		}
	}
	if err := wb.FinalizeSheet(sheet.Name); err != nil {
		return err
	}
	b.log().Debug("sheet written", "sheet", sheet.Name, "rows", wb.CountRows(sheet.Name))
	return nil
}
