package xl

import (
	"cmp"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Workbook streams worksheets to temp files and assembles them into an
// .xlsx package on Save. A Workbook is not safe for concurrent use.
type Workbook struct {
	Title       string
	Subject     string
	Author      string
	Company     string
	Description string
	Keywords    []string
	AppName     string
	Created     time.Time // zero means the time of saving

	RightToLeft bool
	TempDir     string // empty means os.TempDir()
	Logger      *slog.Logger

	Sheets []*Sheet

	sheetMap map[string]*Sheet
	styles   *StyleRegistry
	closed   bool
}

func NewWorkbook() *Workbook {
	return &Workbook{
		sheetMap: map[string]*Sheet{},
		styles:   NewStyleRegistry(),
	}
}

// Styles returns the workbook's style registry.
func (wb *Workbook) Styles() *StyleRegistry { return wb.styles }

func (wb *Workbook) log() *slog.Logger {
	if wb.Logger != nil {
		return wb.Logger
	}
	return slog.Default()
}

// Sheet looks up a sheet by the name it was created with.
func (wb *Workbook) Sheet(name string) (*Sheet, bool) {
	s, ok := wb.sheetMap[name]
	return s, ok
}

// ensureSheet returns the named sheet, creating it with opts on first use.
func (wb *Workbook) ensureSheet(name string, opts *ColumnOptions) *Sheet {
	if s, ok := wb.sheetMap[name]; ok {
		return s
	}
	if opts == nil {
		opts = &ColumnOptions{}
	}

	n := len(wb.Sheets) + 1
	sheet := &Sheet{
		Name:          name,
		DisplayName:   wb.uniqueDisplayName(sanitizeSheetName(name)),
		partName:      "sheet" + strconv.Itoa(n) + ".xml",
		autoFilter:    opts.AutoFilter,
		freezeRows:    max(opts.FreezeRows, 0),
		freezeColumns: max(opts.FreezeColumns, 0),
	}
	sheet.w = NewBufferedWriter(wb.tempFile(), wb.log())
	sheet.writePreamble(opts.Widths, wb.RightToLeft, n == 1)

	wb.Sheets = append(wb.Sheets, sheet)
	wb.sheetMap[name] = sheet
	wb.log().Debug("sheet created", "sheet", sheet.DisplayName, "part", sheet.partName)
	return sheet
}

func (wb *Workbook) tempFile() string {
	f, err := os.CreateTemp(wb.TempDir, "xlsx_writer_*.xml")
	if err != nil {
		wb.log().Error("unable to create temp file", "dir", wb.TempDir, "error", err)
		return filepath.Join(cmp.Or(wb.TempDir, os.TempDir()), "xlsx_writer_"+uuid.NewString()+".xml")
	}
	f.Close()
	return f.Name()
}

// writableSheet returns the sheet for a write, creating it if needed.
func (wb *Workbook) writableSheet(name string, opts *ColumnOptions) (*Sheet, error) {
	if wb.closed {
		return nil, ErrClosed
	}
	s := wb.ensureSheet(name, opts)
	if s.finalized {
		return nil, fmt.Errorf("%w: %s", ErrSheetFinalized, strconv.Quote(name))
	}
	return s, nil
}

// SetColumnOptions creates the sheet with the given widths, auto-filter and
// freeze panes. It has no effect on a sheet that already exists.
func (wb *Workbook) SetColumnOptions(name string, opts ColumnOptions) error {
	_, err := wb.writableSheet(name, &opts)
	return err
}

// WriteHeader declares the columns of a sheet and writes the label row.
// It is allowed once per sheet, before any data row.
func (wb *Workbook) WriteHeader(name string, cols []HeaderColumn, opts *HeaderOptions) error {
	if len(cols) == 0 {
		return nil
	}
	var colOpts *ColumnOptions
	if opts != nil {
		colOpts = &opts.ColumnOptions
	}
	s, err := wb.writableSheet(name, colOpts)
	if err != nil {
		return err
	}
	if s.headerDone || s.rowCount > 0 {
		return fmt.Errorf("%w: %s", ErrHeaderWritten, strconv.Quote(name))
	}
	s.writeHeader(wb.styles, cols, opts)
	return nil
}

// WriteRow appends one row. Columns beyond the declared ones are added as
// General columns.
func (wb *Workbook) WriteRow(name string, values []any, opts *RowOptions) error {
	s, err := wb.writableSheet(name, nil)
	if err != nil {
		return err
	}
	s.writeRow(wb.styles, values, opts)
	return nil
}

// MarkMerge records a merged range; coordinates are zero-based and
// inclusive.
func (wb *Workbook) MarkMerge(name string, r1, c1, r2, c2 int) error {
	if r1 < 0 || c1 < 0 || r2 < 0 || c2 < 0 {
		return fmt.Errorf("xl: invalid merge range (%d,%d)-(%d,%d)", r1, c1, r2, c2)
	}
	s, err := wb.writableSheet(name, nil)
	if err != nil {
		return err
	}
	s.merges = append(s.merges, RangeRef(r1, c1, r2, c2))
	return nil
}

// FinalizeSheet closes the sheet for writing. Finalizing twice does
// nothing.
func (wb *Workbook) FinalizeSheet(name string) error {
	s, ok := wb.sheetMap[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSheet, strconv.Quote(name))
	}
	if err := s.finalize(); err != nil {
		wb.log().Error("finalize failed", "sheet", s.DisplayName, "error", err)
		return err
	}
	return nil
}

// CountRows returns the rows written so far, or 0 for an unknown sheet.
func (wb *Workbook) CountRows(name string) int {
	if s, ok := wb.sheetMap[name]; ok {
		return s.rowCount
	}
	return 0
}

// WriteSheet writes a whole sheet in one call and finalizes it.
func (wb *Workbook) WriteSheet(name string, rows [][]any, header []HeaderColumn) error {
	if err := wb.SetColumnOptions(name, ColumnOptions{}); err != nil {
		return err
	}
	if err := wb.WriteHeader(name, header, nil); err != nil {
		return err
	}
	for _, row := range rows {
		if err := wb.WriteRow(name, row, nil); err != nil {
			return err
		}
	}
	return wb.FinalizeSheet(name)
}

func (wb *Workbook) finalizeAll() error {
	var errs []error
	for _, s := range wb.Sheets {
		if err := s.finalize(); err != nil {
			wb.log().Error("finalize failed", "sheet", s.DisplayName, "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// prepare finalizes every sheet and checks there is something to write.
func (wb *Workbook) prepare() error {
	if wb.closed {
		return ErrClosed
	}
	if err := wb.finalizeAll(); err != nil {
		return err
	}
	if len(wb.Sheets) == 0 {
		wb.log().Error("no worksheets defined")
		return ErrNoSheets
	}
	return nil
}

func (wb *Workbook) assemble(out io.Writer) error {
	zs := NewZipStorage(out)
	err := NewWriter(zs).Write(wb)
	if cerr := zs.Close(); err == nil {
		err = cerr
	}
	return err
}

// Save writes the package to path. The archive is built in a staging file
// next to path and renamed into place, so a failed save leaves no partial
// file behind. A successful save closes the workbook.
func (wb *Workbook) Save(path string) error {
	if err := wb.prepare(); err != nil {
		return err
	}
	if fi, err := os.Stat(path); err == nil {
		if !isWritable(path, fi) {
			wb.log().Error("output file is not writable", "file", path)
			return fmt.Errorf("%w: %s", ErrNotWritable, path)
		}
	}

	staging := filepath.Join(filepath.Dir(path), "."+filepath.Base(path)+"."+uuid.NewString()+".tmp")
	f, err := os.OpenFile(staging, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		wb.log().Error("unable to create output file", "file", staging, "error", err)
		return err
	}
	err = wb.assemble(f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Rename(staging, path)
	}
	if err != nil {
		os.Remove(staging)
		wb.log().Error("save failed", "file", path, "error", err)
		return err
	}

	wb.log().Info("workbook saved", "file", path, "sheets", len(wb.Sheets))
	return wb.Close()
}

func isWritable(path string, fi os.FileInfo) bool {
	if fi.IsDir() {
		return false
	}
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return false
	}
	f.Close()
	return true
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// WriteTo streams the package to w. A successful write closes the workbook.
func (wb *Workbook) WriteTo(w io.Writer) (int64, error) {
	if err := wb.prepare(); err != nil {
		return 0, err
	}
	cw := &countingWriter{w: w}
	if err := wb.assemble(cw); err != nil {
		wb.log().Error("write failed", "error", err)
		return cw.n, err
	}
	return cw.n, wb.Close()
}

// SaveDir writes the parts unzipped below dir. The workbook stays open.
func (wb *Workbook) SaveDir(dir string) error {
	if err := wb.prepare(); err != nil {
		return err
	}
	if err := NewWriter(NewDirStorage(dir)).Write(wb); err != nil {
		wb.log().Error("save failed", "dir", dir, "error", err)
		return err
	}
	return nil
}

// Close releases the sheet writers and removes their temp files. It is safe
// to call more than once.
func (wb *Workbook) Close() error {
	if wb.closed {
		return nil
	}
	wb.closed = true
	var errs []error
	for _, s := range wb.Sheets {
		s.w.Close()
		s.finalized = true
		if err := os.Remove(s.w.Path()); err != nil && !errors.Is(err, os.ErrNotExist) {
			wb.log().Warn("unable to remove temp file", "file", s.w.Path(), "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// uniqueDisplayName appends a counter when another sheet already uses the
// tab name; tab names compare case-insensitively.
func (wb *Workbook) uniqueDisplayName(name string) string {
	taken := func(n string) bool {
		for _, s := range wb.Sheets {
			if strings.EqualFold(s.DisplayName, n) {
				return true
			}
		}
		return false
	}
	if !taken(name) {
		return name
	}
	for i := 2; ; i++ {
		suffix := " (" + strconv.Itoa(i) + ")"
		base := []rune(name)
		if keep := 31 - len(suffix); len(base) > keep {
			base = base[:keep]
		}
		if n := string(base) + suffix; !taken(n) {
			return n
		}
	}
}

// sanitizeSheetName turns an arbitrary key into a legal tab name.
func sanitizeSheetName(s string) string {
	s = strings.Map(func(r rune) rune {
		if strings.ContainsRune(`\/?*:[]`, r) {
			return ' '
		}
		return r
	}, s)
	if r := []rune(s); len(r) > 31 {
		s = string(r[:31])
	}
	s = strings.Trim(strings.Trim(strings.TrimSpace(s), "'"), " ")
	if s == "" {
		s = "Sheet" + strconv.Itoa(int(uuid.New().ID()%900+100))
	}
	return s
}
