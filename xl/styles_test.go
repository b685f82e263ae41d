package xl

import (
	"bytes"
	"encoding/xml"
	"slices"
	"testing"
)

func TestStyleRegistryInterning(t *testing.T) {
	r := NewStyleRegistry()
	if r.Len() != 1 {
		t.Fatalf("fresh registry has %d styles, want 1", r.Len())
	}
	if got := r.AddCellStyle(FormatGeneral, nil); got != 0 {
		t.Errorf("General/nil = %d, want 0", got)
	}
	text := r.AddCellStyle("@", nil)
	if text != 1 {
		t.Errorf("text style = %d, want 1", text)
	}
	if again := r.AddCellStyle("@", nil); again != text {
		t.Errorf("re-adding text style gave %d, want %d", again, text)
	}

	bold := r.AddCellStyle("@", &Style{FontStyle: "bold"})
	if bold != 2 {
		t.Errorf("bold style = %d, want 2", bold)
	}
	if again := r.AddCellStyle("@", &Style{FontStyle: "bold"}); again != bold {
		t.Errorf("equal style under a new pointer gave %d, want %d", again, bold)
	}
	if other := r.AddCellStyle(FormatGeneral, &Style{FontStyle: "bold"}); other == bold {
		t.Error("same style with another format must be a distinct entry")
	}

	if got := r.NumberFormats(); !slices.Equal(got, []string{FormatGeneral, "@"}) {
		t.Errorf("NumberFormats = %q", got)
	}
}

func TestStyleRegistryCopiesStyle(t *testing.T) {
	r := NewStyleRegistry()
	s := &Style{Fill: "#00ff00"}
	i := r.AddCellStyle(FormatGeneral, s)
	s.Fill = "#ff0000"
	if got := r.AddCellStyle(FormatGeneral, &Style{Fill: "#00ff00"}); got != i {
		t.Errorf("mutating the caller's style changed the interned entry")
	}
}

func TestNormalizeColor(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"#abc", "FFAABBCC", true},
		{"#112233", "FF112233", true},
		{"#aabbccdd", "FFAABBCC", true},
		{"112233", "", false},
		{"", "", false},
		{"#", "", false},
	}
	for _, tt := range tests {
		got, ok := normalizeColor(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("normalizeColor(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestBorderFromStyle(t *testing.T) {
	b, ok := borderFromStyle(&Style{Border: "left,bogus,bottom", BorderStyle: "thick", BorderColor: "#f00"})
	if !ok {
		t.Fatal("expected a border")
	}
	want := borderLine{Set: true, Style: "thick", Color: "FFFF0000"}
	if b.Left != want || b.Bottom != want {
		t.Errorf("left/bottom = %+v / %+v, want %+v", b.Left, b.Bottom, want)
	}
	if b.Right.Set || b.Top.Set {
		t.Errorf("unexpected sides set: %+v", b)
	}

	b, _ = borderFromStyle(&Style{Borders: map[string]BorderSide{
		"top":   {Style: "wavy"},
		"right": {Style: "double", Color: "#0000ff"},
		"inner": {Style: "thin"},
	}})
	if b.Top != (borderLine{Set: true, Style: "hair"}) {
		t.Errorf("unknown line style should fall back to hair, got %+v", b.Top)
	}
	if b.Right != (borderLine{Set: true, Style: "double", Color: "FF0000FF"}) {
		t.Errorf("right = %+v", b.Right)
	}

	if _, ok := borderFromStyle(&Style{}); ok {
		t.Error("empty style should have no border")
	}
}

func TestResolveTables(t *testing.T) {
	r := NewStyleRegistry()
	r.AddCellStyle("@", &Style{Font: "Times New Roman", FontStyle: "bold"})
	r.AddCellStyle("0", &Style{Font: "Times New Roman", FontStyle: "bold", Fill: "#ff0000"})
	r.AddCellStyle("0", &Style{Color: "", FontSize: 10, HAlign: "center", VAlign: "sideways"})
	r.AddCellStyle("0", &Style{Border: "top"})

	tbl := r.resolve()
	if len(tbl.fonts) != baselineFonts+1 {
		t.Fatalf("fonts = %d, want %d", len(tbl.fonts), baselineFonts+1)
	}
	if f := tbl.fonts[baselineFonts]; f.Family != 1 || !f.Bold || f.Name != "Times New Roman" {
		t.Errorf("font = %+v", f)
	}
	if len(tbl.fills) != baselineFills+1 || tbl.fills[baselineFills] != "FFFF0000" {
		t.Errorf("fills = %q", tbl.fills)
	}
	if len(tbl.borders) != baselineBorders+1 {
		t.Errorf("borders = %d, want %d", len(tbl.borders), baselineBorders+1)
	}
	if len(tbl.xfs) != r.Len() {
		t.Fatalf("xfs = %d, want %d", len(tbl.xfs), r.Len())
	}

	if xf := tbl.xfs[1]; xf.font != baselineFonts || xf.fill != 0 || xf.numFmt != 1 {
		t.Errorf("xf[1] = %+v", xf)
	}
	if xf := tbl.xfs[2]; xf.font != baselineFonts || xf.fill != baselineFills {
		t.Errorf("xf[2] = %+v", xf)
	}
	xf := tbl.xfs[3]
	if xf.font != 0 {
		t.Errorf("baseline font should not be registered, got font %d", xf.font)
	}
	if !xf.applyAlignment || xf.halign != "center" || xf.valign != "bottom" {
		t.Errorf("alignment = %+v", xf)
	}
	if xf := tbl.xfs[4]; !xf.applyBorder || xf.border != baselineBorders {
		t.Errorf("border xf = %+v", xf)
	}
}

type styleSheetDoc struct {
	NumFmts struct {
		Count int `xml:"count,attr"`
		Items []struct {
			ID   int    `xml:"numFmtId,attr"`
			Code string `xml:"formatCode,attr"`
		} `xml:"numFmt"`
	} `xml:"numFmts"`
	Fonts struct {
		Count int        `xml:"count,attr"`
		Items []struct{} `xml:"font"`
	} `xml:"fonts"`
	Fills struct {
		Count int        `xml:"count,attr"`
		Items []struct{} `xml:"fill"`
	} `xml:"fills"`
	Borders struct {
		Count int        `xml:"count,attr"`
		Items []struct{} `xml:"border"`
	} `xml:"borders"`
	CellStyleXfs struct {
		Count int        `xml:"count,attr"`
		Items []struct{} `xml:"xf"`
	} `xml:"cellStyleXfs"`
	CellXfs struct {
		Count int `xml:"count,attr"`
		Items []struct {
			NumFmtID int `xml:"numFmtId,attr"`
			FontID   int `xml:"fontId,attr"`
		} `xml:"xf"`
	} `xml:"cellXfs"`
	CellStyles struct {
		Count int        `xml:"count,attr"`
		Items []struct{} `xml:"cellStyle"`
	} `xml:"cellStyles"`
}

func TestStylesPartParses(t *testing.T) {
	r := NewStyleRegistry()
	r.AddCellStyle(StandardizeNumberFormat("date"), nil)
	r.AddCellStyle(FormatGeneral, &Style{FontStyle: "italic", Fill: "#eee", Border: "bottom"})

	var bb bytes.Buffer
	r.resolve().encode(&bb)

	var doc styleSheetDoc
	if err := xml.Unmarshal(bb.Bytes(), &doc); err != nil {
		t.Fatalf("styles part does not parse: %v\n%s", err, bb.String())
	}

	checks := []struct {
		name         string
		count, items int
		want         int
	}{
		{"numFmts", doc.NumFmts.Count, len(doc.NumFmts.Items), 2},
		{"fonts", doc.Fonts.Count, len(doc.Fonts.Items), baselineFonts + 1},
		{"fills", doc.Fills.Count, len(doc.Fills.Items), baselineFills + 1},
		{"borders", doc.Borders.Count, len(doc.Borders.Items), baselineBorders + 1},
		{"cellStyleXfs", doc.CellStyleXfs.Count, len(doc.CellStyleXfs.Items), 20},
		{"cellXfs", doc.CellXfs.Count, len(doc.CellXfs.Items), 3},
		{"cellStyles", doc.CellStyles.Count, len(doc.CellStyles.Items), 6},
	}
	for _, c := range checks {
		if c.count != c.want || c.items != c.want {
			t.Errorf("%s: count=%d items=%d, want %d", c.name, c.count, c.items, c.want)
		}
	}

	if doc.NumFmts.Items[1].ID != 165 || doc.NumFmts.Items[1].Code != `YYYY\-MM\-DD` {
		t.Errorf("numFmt[1] = %+v", doc.NumFmts.Items[1])
	}
	if got := doc.CellXfs.Items[1].NumFmtID; got != 165 {
		t.Errorf("cellXfs[1] numFmtId = %d, want 165", got)
	}
	if got := doc.CellXfs.Items[2].FontID; got != baselineFonts {
		t.Errorf("cellXfs[2] fontId = %d, want %d", got, baselineFonts)
	}
}
