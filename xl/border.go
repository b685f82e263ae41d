package xl

import (
	"slices"
	"strings"
)

// BorderSide configures one edge in Style.Borders.
type BorderSide struct {
	Style string `json:"style,omitempty" yaml:"style,omitempty"`
	Color string `json:"color,omitempty" yaml:"color,omitempty"`
}

var (
	borderSides      = []string{"left", "right", "top", "bottom"}
	borderLineStyles = []string{
		"thin", "medium", "thick", "dashDot", "dashDotDot", "dashed", "dotted",
		"double", "hair", "mediumDashDot", "mediumDashDotDot", "mediumDashed",
		"slantDashDot",
	}
)

const defaultBorderLine = "hair"

type borderLine struct {
	Set   bool
	Style string
	Color string // ARGB, empty for automatic
}

// borderSpec is one entry of the borders table.
type borderSpec struct {
	Left, Right, Top, Bottom borderLine
}

func (b *borderSpec) side(name string) *borderLine {
	switch name {
	case "left":
		return &b.Left
	case "right":
		return &b.Right
	case "top":
		return &b.Top
	case "bottom":
		return &b.Bottom
	}
	return nil
}

func makeBorderLine(style, color string) borderLine {
	l := borderLine{Set: true, Style: defaultBorderLine}
	if slices.Contains(borderLineStyles, style) {
		l.Style = style
	}
	if c, ok := normalizeColor(color); ok {
		l.Color = c
	}
	return l
}

// borderFromStyle returns the border requested by s. The second result is
// false when s asks for no border at all.
func borderFromStyle(s *Style) (borderSpec, bool) {
	var b borderSpec
	switch {
	case s.Border != "":
		line := makeBorderLine(s.BorderStyle, s.BorderColor)
		for _, name := range strings.Split(s.Border, ",") {
			if slices.Contains(borderSides, name) {
				*b.side(name) = line
			}
		}
		return b, true
	case s.Borders != nil:
		for name, side := range s.Borders {
			if slices.Contains(borderSides, name) {
				*b.side(name) = makeBorderLine(side.Style, side.Color)
			}
		}
		return b, true
	}
	return b, false
}
