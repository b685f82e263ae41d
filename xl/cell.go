package xl

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/valyala/bytebufferpool"
)

// numericLiteral accepts plain integers and decimals without a leading
// zero, except for the value 0 itself.
var numericLiteral = regexp.MustCompile(`^-?(0|[1-9][0-9]*)(\.[0-9]+)?$`)

// ClassifyValue decides how an auto-typed text value is stored:
// FormatNumeric for numeric literals, FormatString for everything else.
func ClassifyValue(s string) FormatType {
	if numericLiteral.MatchString(s) {
		return FormatNumeric
	}
	return FormatString
}

// scalarText renders a Go scalar as cell text. ok is false for nil,
// non-scalar values, NaN and infinities, which all become empty cells.
func scalarText(v any) (text string, isString bool, ok bool) {
	switch x := v.(type) {
	case string:
		return x, true, true
	case bool:
		if x {
			return "1", false, true
		}
		return "0", false, true
	case int:
		return strconv.Itoa(x), false, true
	case int8:
		return strconv.FormatInt(int64(x), 10), false, true
	case int16:
		return strconv.FormatInt(int64(x), 10), false, true
	case int32:
		return strconv.FormatInt(int64(x), 10), false, true
	case int64:
		return strconv.FormatInt(x, 10), false, true
	case uint:
		return strconv.FormatUint(uint64(x), 10), false, true
	case uint8:
		return strconv.FormatUint(uint64(x), 10), false, true
	case uint16:
		return strconv.FormatUint(uint64(x), 10), false, true
	case uint32:
		return strconv.FormatUint(uint64(x), 10), false, true
	case uint64:
		return strconv.FormatUint(x, 10), false, true
	case float32:
		if math.IsNaN(float64(x)) || math.IsInf(float64(x), 0) {
			return "", false, false
		}
		return strconv.FormatFloat(float64(x), 'f', -1, 32), false, true
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return "", false, false
		}
		return strconv.FormatFloat(x, 'f', -1, 64), false, true
	case time.Time:
		return x.Format(time.DateTime), true, true
	}
	return "", false, false
}

// writeCell appends exactly one <c> element for v.
//
// Strings starting with "=" are written as formulas tagged t="s" without a
// cached value. Consumers do not recalculate such cells on open; the shape
// is kept for compatibility with existing reports.
func writeCell(b *bytebufferpool.ByteBuffer, row, col int, v any, ft FormatType, style int) {
	b.WriteString(`<c r="`)
	b.WriteString(CellRef(row, col))
	b.WriteString(`" s="`)
	b.WriteString(strconv.Itoa(style))
	b.WriteString(`"`)

	text, isString, ok := scalarText(v)
	if !ok || text == "" {
		b.WriteString(`/>`)
		return
	}
	if isString && strings.HasPrefix(text, "=") {
		b.WriteString(` t="s"><f>`)
		b.WriteString(escapeXML(text))
		b.WriteString(`</f></c>`)
		return
	}

	switch ft {
	case FormatDate:
		writeNumber(b, strconv.Itoa(int(dateValue(v, text, isString))))
	case FormatDateTime:
		writeNumber(b, formatFloat(dateValue(v, text, isString)))
	case FormatNumeric:
		writeNumber(b, escapeXML(text))
	case FormatString:
		writeInlineString(b, text)
	default:
		if !isString || ClassifyValue(text) == FormatNumeric {
			writeNumber(b, escapeXML(text))
		} else {
			writeInlineString(b, text)
		}
	}
}

// dateValue converts a date cell value to its serial. Numbers are taken to
// be serials already.
func dateValue(v any, text string, isString bool) float64 {
	if t, ok := v.(time.Time); ok {
		return TimeSerial(t)
	}
	if isString {
		return ParseDateSerial(text)
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0
	}
	return f
}

func writeNumber(b *bytebufferpool.ByteBuffer, v string) {
	b.WriteString(` t="n"><v>`)
	b.WriteString(v)
	b.WriteString(`</v></c>`)
}

func writeInlineString(b *bytebufferpool.ByteBuffer, v string) {
	b.WriteString(` t="inlineStr"><is><t>`)
	b.WriteString(escapeXML(v))
	b.WriteString(`</t></is></c>`)
}
