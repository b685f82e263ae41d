package xl

import "strings"

// Font is the font part of a cell style as it appears in the fonts table.
type Font struct {
	Name      string
	Family    int
	Size      float64 // points
	Bold      bool
	Italic    bool
	Underline UnderlineType
	Strike    bool
	Color     string // ARGB, empty for automatic
}

// UnderlineType represents the type of underline formatting.
type UnderlineType string

const (
	UnderlineNone   UnderlineType = ""
	UnderlineSingle UnderlineType = "single"
)

// DefaultFont is the baseline font of the stylesheet (fonts 0..3).
var DefaultFont = Font{Name: "Arial", Family: 2, Size: 10}

// IsDefault reports whether f is identical to the baseline font.
func (f Font) IsDefault() bool {
	return f == DefaultFont
}

// fontFamilies maps a few well known faces to their OOXML family class.
var fontFamilies = map[string]int{
	"Times New Roman": 1,
	"Courier New":     3,
	"Comic Sans MS":   4,
}

func fontFromStyle(s *Style) Font {
	f := DefaultFont
	if s.FontSize > 0 {
		f.Size = s.FontSize
	}
	if s.Font != "" {
		if fam, ok := fontFamilies[s.Font]; ok {
			f.Family = fam
		}
		f.Name = s.Font
	}
	if s.FontStyle != "" {
		f.Bold = strings.Contains(s.FontStyle, "bold")
		f.Italic = strings.Contains(s.FontStyle, "italic")
		f.Strike = strings.Contains(s.FontStyle, "strike")
		if strings.Contains(s.FontStyle, "underline") {
			f.Underline = UnderlineSingle
		}
	}
	if c, ok := normalizeColor(s.Color); ok {
		f.Color = c
	}
	return f
}

// normalizeColor turns "#RGB" or "#RRGGBB" into opaque upper-case ARGB.
func normalizeColor(s string) (string, bool) {
	if len(s) < 2 || s[0] != '#' {
		return "", false
	}
	v := s[1:]
	if len(v) > 6 {
		v = v[:6]
	}
	if len(v) == 3 {
		v = string([]byte{v[0], v[0], v[1], v[1], v[2], v[2]})
	}
	return "FF" + strings.ToUpper(v), true
}
