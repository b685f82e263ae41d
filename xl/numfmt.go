package xl

import (
	"regexp"
	"strings"

	"github.com/xuri/nfp"
)

// FormatType selects how a column's values are serialized.
type FormatType int

const (
	FormatAuto FormatType = iota
	FormatString
	FormatNumeric
	FormatDate
	FormatDateTime
)

func (t FormatType) String() string {
	switch t {
	case FormatString:
		return "string"
	case FormatNumeric:
		return "numeric"
	case FormatDate:
		return "date"
	case FormatDateTime:
		return "datetime"
	}
	return "auto"
}

// Column format vocabulary. Any other value is taken as a raw format code.
const (
	FormatGeneral      = "GENERAL"
	FormatText         = "string"
	FormatInteger      = "integer"
	FormatNumber       = "number"
	FormatDateCode     = "date"
	FormatDateTimeCode = "datetime"
	FormatTime         = "time"
	FormatPrice        = "price"
	FormatDollar       = "dollar"
	FormatMoney        = "money"
	FormatEuro         = "euro"
)

var namedFormats = map[string]string{
	FormatText:         "@",
	FormatInteger:      "0",
	FormatDateCode:     "YYYY-MM-DD",
	FormatDateTimeCode: "YYYY-MM-DD HH:MM:SS",
	FormatTime:         "HH:MM:SS",
	FormatPrice:        "#,##0.00",
	FormatDollar:       "[$$-1009]#,##0.00;[RED]-[$$-1009]#,##0.00",
	FormatEuro:         "#,##0.00 [$€-407];[RED]-#,##0.00 [$€-407]",
}

var colorSection = regexp.MustCompile(`(?i)\[(Black|Blue|Cyan|Green|Magenta|Red|White|Yellow)\]`)

// StandardizeNumberFormat maps a vocabulary name to its format code and
// escapes literal spaces, dashes and parentheses that are outside brackets
// and quotes and not preceded by an underscore.
func StandardizeNumberFormat(format string) string {
	switch format {
	case FormatMoney:
		format = FormatDollar
	case FormatNumber:
		format = FormatInteger
	}
	if code, ok := namedFormats[format]; ok {
		format = code
	}

	var b strings.Builder
	b.Grow(len(format) + 8)
	var until byte
	for i := 0; i < len(format); i++ {
		c := format[i]
		switch {
		case until == 0 && c == '[':
			until = ']'
		case until == 0 && c == '"':
			until = '"'
		case until == c:
			until = 0
		}
		if until == 0 && (c == ' ' || c == '-' || c == '(' || c == ')') && (i == 0 || format[i-1] != '_') {
			b.WriteByte('\\')
		}
		b.WriteByte(c)
	}
	return b.String()
}

// DetermineFormatType derives the serialization type from a standardized
// format code. Codes with hour, second or AM/PM tokens are datetimes, codes
// with only calendar tokens are dates, anything else but General and text
// is numeric.
func DetermineFormatType(format string) FormatType {
	format = colorSection.ReplaceAllString(format, "")
	switch {
	case strings.EqualFold(format, FormatGeneral):
		return FormatAuto
	case format == "@":
		return FormatString
	case format == "0":
		return FormatNumeric
	}

	var hasDate, hasTime bool
	ps := nfp.NumberFormatParser()
	for _, sec := range ps.Parse(format) {
		for _, tok := range sec.Items {
			switch tok.TType {
			case nfp.TokenTypeElapsedDateTimes:
				hasTime = true
			case nfp.TokenTypeDateTimes:
				upper := strings.ToUpper(tok.TValue)
				switch {
				case strings.HasPrefix(upper, "H"), strings.HasPrefix(upper, "S"),
					upper == "AM/PM", upper == "A/P":
					hasTime = true
				default:
					hasDate = true
				}
			}
		}
	}
	switch {
	case hasTime:
		return FormatDateTime
	case hasDate:
		return FormatDate
	}
	return FormatNumeric
}
