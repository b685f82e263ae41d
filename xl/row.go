package xl

import "strconv"

// Spreadsheet limits for the 2007+ file format.
const (
	MaxRows    = 1048576
	MaxColumns = 16384
)

// ColumnLetters converts a zero-based column index to its letter label:
// 0 → "A", 25 → "Z", 26 → "AA".
func ColumnLetters(col int) string {
	if col < 0 {
		panic("invalid column index")
	}
	var buf [8]byte
	i := len(buf)
	for n := col; n >= 0; n = n/26 - 1 {
		i--
		buf[i] = byte('A' + n%26)
	}
	return string(buf[i:])
}

// CellRef returns the A1-style label of a zero-based (row, col) pair.
func CellRef(row, col int) string {
	if row < 0 {
		panic("invalid row index")
	}
	return ColumnLetters(col) + strconv.Itoa(row+1)
}

// AbsCellRef is CellRef with both parts anchored, e.g. "$B$6".
func AbsCellRef(row, col int) string {
	if row < 0 {
		panic("invalid row index")
	}
	return "$" + ColumnLetters(col) + "$" + strconv.Itoa(row+1)
}

// RangeRef returns an inclusive "A1:C3" range.
func RangeRef(r1, c1, r2, c2 int) string {
	return CellRef(r1, c1) + ":" + CellRef(r2, c2)
}
