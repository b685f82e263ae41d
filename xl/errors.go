package xl

import "errors"

var (
	ErrNoSheets       = errors.New("xl: no worksheets defined")
	ErrSheetFinalized = errors.New("xl: sheet is already finalized")
	ErrHeaderWritten  = errors.New("xl: header must be written once, before any data row")
	ErrUnknownSheet   = errors.New("xl: unknown sheet")
	ErrNotWritable    = errors.New("xl: output file is not writable")
	ErrClosed         = errors.New("xl: workbook is closed")

	// ErrDimensionOverflow means the final dimension text does not fit the
	// placeholder reserved when the sheet was opened.
	ErrDimensionOverflow = errors.New("xl: dimension exceeds reserved placeholder")
)
