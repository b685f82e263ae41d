package xl

import (
	"encoding/json"
	"io"
	"slices"
	"strconv"

	"github.com/adnsv/srw/xml"
)

// Style is the per cell, row or header style override. Zero fields are
// unset; pointer fields distinguish "unset" from an explicit zero value.
type Style struct {
	Font      string  `json:"font,omitempty" yaml:"font,omitempty"`
	FontSize  float64 `json:"font-size,omitempty" yaml:"font-size,omitempty"`
	FontStyle string  `json:"font-style,omitempty" yaml:"font-style,omitempty"` // any of bold, italic, strike, underline
	Color     string  `json:"color,omitempty" yaml:"color,omitempty"`           // "#RRGGBB" or "#RGB"
	Fill      string  `json:"fill,omitempty" yaml:"fill,omitempty"`

	// Border lists sides ("left,right,top,bottom") sharing BorderStyle and
	// BorderColor. Borders configures sides independently; Border wins when
	// both are set.
	Border      string                `json:"border,omitempty" yaml:"border,omitempty"`
	BorderStyle string                `json:"border-style,omitempty" yaml:"border-style,omitempty"`
	BorderColor string                `json:"border-color,omitempty" yaml:"border-color,omitempty"`
	Borders     map[string]BorderSide `json:"borders,omitempty" yaml:"borders,omitempty"`

	HAlign       string `json:"halign,omitempty" yaml:"halign,omitempty"`
	VAlign       string `json:"valign,omitempty" yaml:"valign,omitempty"`
	TextRotation *int   `json:"text_rotation,omitempty" yaml:"text_rotation,omitempty"`
	Indent       *int   `json:"indent,omitempty" yaml:"indent,omitempty"`
	WrapText     *bool  `json:"wrap_text,omitempty" yaml:"wrap_text,omitempty"`
	ShrinkToFit  *bool  `json:"shrink_to_fit,omitempty" yaml:"shrink_to_fit,omitempty"`
}

var (
	horizontalAlignments = []string{"general", "left", "right", "justify", "center", "distributed"}
	verticalAlignments   = []string{"bottom", "center", "distributed", "top"}
)

// customNumFmtBase is the first numFmtId available to custom formats.
const customNumFmtBase = 164

type cellStyle struct {
	key    string
	numFmt int
	style  *Style
}

// StyleRegistry interns number formats and cell styles. Indices are
// assigned in insertion order and never reused; index 0 of both lists is
// the General format with no style attributes.
type StyleRegistry struct {
	numberFormats []string
	cellStyles    []cellStyle
}

func NewStyleRegistry() *StyleRegistry {
	r := &StyleRegistry{}
	r.AddCellStyle(FormatGeneral, nil)
	return r
}

// InternNumberFormat returns the index of format, appending it if unseen.
func (r *StyleRegistry) InternNumberFormat(format string) int {
	return internValue(&r.numberFormats, format)
}

// InternStyle returns the cellXfs index for the (number format, style)
// pair, appending it if unseen.
func (r *StyleRegistry) InternStyle(numFmt int, s *Style) int {
	attrs, err := json.Marshal(s)
	if err != nil {
		attrs = []byte("null")
	}
	key := strconv.Itoa(numFmt) + ";" + string(attrs)
	for i, cs := range r.cellStyles {
		if cs.key == key {
			return i
		}
	}
	var own *Style
	if s != nil {
		cp := *s
		own = &cp
	}
	r.cellStyles = append(r.cellStyles, cellStyle{key: key, numFmt: numFmt, style: own})
	return len(r.cellStyles) - 1
}

// AddCellStyle interns format and then the (format, style) pair.
func (r *StyleRegistry) AddCellStyle(format string, s *Style) int {
	return r.InternStyle(r.InternNumberFormat(format), s)
}

// Len returns the number of interned cell styles.
func (r *StyleRegistry) Len() int { return len(r.cellStyles) }

// NumberFormats returns the interned format codes in index order.
func (r *StyleRegistry) NumberFormats() []string {
	return slices.Clone(r.numberFormats)
}

type xfEntry struct {
	numFmt, font, fill, border int

	applyBorder    bool
	applyAlignment bool
	halign, valign string
	rotation       int
	indent         int
	wrap, shrink   bool
}

// styleTable is the resolved form of the registry, ready for styles.xml.
type styleTable struct {
	numFmts []string
	fonts   []Font
	fills   []string
	borders []borderSpec
	xfs     []xfEntry
}

// Number of baseline entries written ahead of the registered ones.
const (
	baselineFonts   = 4
	baselineFills   = 2
	baselineBorders = 1
)

// resolve extracts fonts, fills and borders referenced by the cell styles
// and interns each into its own table.
func (r *StyleRegistry) resolve() *styleTable {
	t := &styleTable{
		numFmts: r.NumberFormats(),
		fonts:   make([]Font, baselineFonts),
		fills:   make([]string, baselineFills),
		borders: make([]borderSpec, baselineBorders),
		xfs:     make([]xfEntry, 0, len(r.cellStyles)),
	}
	for _, cs := range r.cellStyles {
		xf := xfEntry{numFmt: cs.numFmt, halign: "general", valign: "bottom"}
		if s := cs.style; s != nil {
			if b, ok := borderFromStyle(s); ok {
				xf.applyBorder = true
				xf.border = internValue(&t.borders, b)
			}
			if c, ok := normalizeColor(s.Fill); ok {
				xf.fill = internValue(&t.fills, c)
			}
			if slices.Contains(horizontalAlignments, s.HAlign) {
				xf.applyAlignment = true
				xf.halign = s.HAlign
			}
			if slices.Contains(verticalAlignments, s.VAlign) {
				xf.applyAlignment = true
				xf.valign = s.VAlign
			}
			if s.TextRotation != nil {
				xf.applyAlignment = true
				xf.rotation = *s.TextRotation
			}
			if s.Indent != nil {
				xf.applyAlignment = true
				xf.indent = *s.Indent
			}
			if s.WrapText != nil {
				xf.applyAlignment = true
				xf.wrap = *s.WrapText
			}
			if s.ShrinkToFit != nil {
				xf.applyAlignment = true
				xf.shrink = *s.ShrinkToFit
			}
			if f := fontFromStyle(s); !f.IsDefault() {
				xf.font = internValue(&t.fonts, f)
			}
		}
		t.xfs = append(t.xfs, xf)
	}
	return t
}

// internValue is a linear-scan interner: equal values share one index.
func internValue[T comparable](list *[]T, v T) int {
	if i := slices.Index(*list, v); i >= 0 {
		return i
	}
	*list = append(*list, v)
	return len(*list) - 1
}

// builtin cellStyleXfs after the Normal entry: font and numFmt ids.
var baselineStyleXfs = [][2]int{
	{1, 0}, {1, 0}, {2, 0}, {2, 0},
	{0, 0}, {0, 0}, {0, 0}, {0, 0}, {0, 0}, {0, 0}, {0, 0}, {0, 0}, {0, 0}, {0, 0},
	{1, 43}, {1, 41}, {1, 44}, {1, 42}, {1, 9},
}

var builtinCellStyles = []struct {
	name      string
	builtinID int
	xfID      int
}{
	{"Normal", 0, 0},
	{"Comma", 3, 15},
	{"Comma [0]", 6, 16},
	{"Currency", 4, 17},
	{"Currency [0]", 7, 18},
	{"Percent", 5, 19},
}

// encode writes the styles part.
func (t *styleTable) encode(out io.Writer) {
	x := xml.NewWriter(out, xml.WriterConfig{Indent: xml.Indent2Spaces})
	x.XmlStandaloneDecl()

	x.OTag("styleSheet")
	x.Attr("xmlns", "http://schemas.openxmlformats.org/spreadsheetml/2006/main")

	x.OTag("+numFmts").Attr("count", len(t.numFmts))
	for i, f := range t.numFmts {
		x.OTag("+numFmt").Attr("numFmtId", customNumFmtBase+i).Attr("formatCode", f).CTag()
	}
	x.CTag()

	x.OTag("+fonts").Attr("count", len(t.fonts))
	x.OTag("+font")
	x.OTag("name").Attr("val", DefaultFont.Name).CTag()
	x.OTag("charset").Attr("val", 1).CTag()
	x.OTag("family").Attr("val", DefaultFont.Family).CTag()
	x.OTag("sz").Attr("val", formatFloat(DefaultFont.Size)).CTag()
	x.CTag()
	for i := 1; i < baselineFonts; i++ {
		x.OTag("+font")
		x.OTag("name").Attr("val", DefaultFont.Name).CTag()
		x.OTag("family").Attr("val", 0).CTag()
		x.OTag("sz").Attr("val", formatFloat(DefaultFont.Size)).CTag()
		x.CTag()
	}
	for _, f := range t.fonts[baselineFonts:] {
		x.OTag("+font")
		x.OTag("name").Attr("val", f.Name).CTag()
		x.OTag("charset").Attr("val", 1).CTag()
		x.OTag("family").Attr("val", f.Family).CTag()
		x.OTag("sz").Attr("val", formatFloat(f.Size)).CTag()
		if f.Color != "" {
			x.OTag("color").Attr("rgb", f.Color).CTag()
		}
		if f.Bold {
			x.OTag("b").Attr("val", "true").CTag()
		}
		if f.Italic {
			x.OTag("i").Attr("val", "true").CTag()
		}
		if f.Underline != UnderlineNone {
			x.OTag("u").Attr("val", string(f.Underline)).CTag()
		}
		if f.Strike {
			x.OTag("strike").Attr("val", "true").CTag()
		}
		x.CTag()
	}
	x.CTag() // fonts

	x.OTag("+fills").Attr("count", len(t.fills))
	x.OTag("+fill")
	x.OTag("patternFill").Attr("patternType", "none").CTag()
	x.CTag()
	x.OTag("+fill")
	x.OTag("patternFill").Attr("patternType", "gray125").CTag()
	x.CTag()
	for _, rgb := range t.fills[baselineFills:] {
		x.OTag("+fill")
		x.OTag("patternFill").Attr("patternType", "solid")
		x.OTag("fgColor").Attr("rgb", rgb).CTag()
		x.OTag("bgColor").Attr("indexed", 64).CTag()
		x.CTag() // patternFill
		x.CTag()
	}
	x.CTag() // fills

	x.OTag("+borders").Attr("count", len(t.borders))
	for _, b := range t.borders {
		x.OTag("+border").Attr("diagonalDown", "false").Attr("diagonalUp", "false")
		x.OTag("left")
		writeBorderLine(x, b.Left)
		x.OTag("right")
		writeBorderLine(x, b.Right)
		x.OTag("top")
		writeBorderLine(x, b.Top)
		x.OTag("bottom")
		writeBorderLine(x, b.Bottom)
		x.OTag("diagonal").CTag()
		x.CTag()
	}
	x.CTag() // borders

	x.OTag("+cellStyleXfs").Attr("count", len(baselineStyleXfs)+1)
	x.OTag("+xf")
	x.Attr("applyAlignment", "true").Attr("applyBorder", "true").Attr("applyFont", "true").Attr("applyProtection", "true")
	x.Attr("borderId", 0).Attr("fillId", 0).Attr("fontId", 0).Attr("numFmtId", customNumFmtBase)
	x.OTag("+alignment")
	x.Attr("horizontal", "general").Attr("indent", 0).Attr("shrinkToFit", "false")
	x.Attr("textRotation", 0).Attr("vertical", "bottom").Attr("wrapText", "false")
	x.CTag()
	x.OTag("+protection").Attr("hidden", "false").Attr("locked", "true").CTag()
	x.CTag()
	for _, e := range baselineStyleXfs {
		x.OTag("+xf")
		x.Attr("applyAlignment", "false").Attr("applyBorder", "false").Attr("applyFont", "true").Attr("applyProtection", "false")
		x.Attr("borderId", 0).Attr("fillId", 0).Attr("fontId", e[0]).Attr("numFmtId", e[1])
		x.CTag()
	}
	x.CTag() // cellStyleXfs

	x.OTag("+cellXfs").Attr("count", len(t.xfs))
	for _, xf := range t.xfs {
		x.OTag("+xf")
		x.Attr("applyAlignment", boolString(xf.applyAlignment))
		x.Attr("applyBorder", boolString(xf.applyBorder))
		x.Attr("applyFont", "true")
		x.Attr("applyProtection", "false")
		x.Attr("borderId", xf.border).Attr("fillId", xf.fill).Attr("fontId", xf.font)
		x.Attr("numFmtId", customNumFmtBase+xf.numFmt).Attr("xfId", 0)
		x.OTag("+alignment")
		x.Attr("horizontal", xf.halign).Attr("vertical", xf.valign)
		x.Attr("textRotation", xf.rotation).Attr("wrapText", boolString(xf.wrap))
		x.Attr("indent", xf.indent).Attr("shrinkToFit", boolString(xf.shrink))
		x.CTag()
		x.OTag("+protection").Attr("locked", "true").Attr("hidden", "false").CTag()
		x.CTag()
	}
	x.CTag() // cellXfs

	x.OTag("+cellStyles").Attr("count", len(builtinCellStyles))
	for _, cs := range builtinCellStyles {
		x.OTag("+cellStyle")
		x.Attr("builtinId", cs.builtinID).Attr("customBuiltin", "false")
		x.Attr("name", cs.name).Attr("xfId", cs.xfID)
		x.CTag()
	}
	x.CTag()

	x.CTag() // styleSheet
}

// writeBorderLine completes an already opened side element.
func writeBorderLine(x *xml.Writer, line borderLine) {
	if line.Set {
		x.Attr("style", line.Style)
		if line.Color == "" {
			x.OTag("color").Attr("auto", 1).CTag()
		} else {
			x.OTag("color").Attr("rgb", line.Color).CTag()
		}
	}
	x.CTag()
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
