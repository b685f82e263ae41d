package xl

import (
	"bytes"
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/adnsv/srw/xml"

	"golang.org/x/exp/constraints"
	"golang.org/x/exp/maps"
)

// Writer assembles the package parts of a workbook into a Storage.
type Writer struct {
	out            Storage
	lastGlobalId   int
	lastWorkbookId int

	GlobalRels          map[string]RelInfo // maps id to absolute path
	WorkbookRels        map[string]RelInfo // maps id to absolute paths
	DefaultContentTypes map[string]string  // maps path extension to content-type
	PartContentTypes    map[string]string  // maps path partname to content-type
}

type RelInfo struct {
	Type   string // url to schema type
	Target string // relative path
}

func NewWriter(s Storage) *Writer {
	w := &Writer{
		out:                 s,
		GlobalRels:          map[string]RelInfo{},
		WorkbookRels:        map[string]RelInfo{},
		DefaultContentTypes: map[string]string{},
		PartContentTypes:    map[string]string{},
	}

	w.DefaultContentTypes["xml"] = "application/xml"
	w.DefaultContentTypes["rels"] = "application/vnd.openxmlformats-package.relationships+xml"

	return w
}

func (w *Writer) nextGlobalID() (int, string) {
	w.lastGlobalId++
	return w.lastGlobalId, fmt.Sprintf("rId%d", w.lastGlobalId)
}
func (w *Writer) nextWorkbookID() (int, string) {
	w.lastWorkbookId++
	return w.lastWorkbookId, fmt.Sprintf("rId%d", w.lastWorkbookId)
}

// Write emits every part of wb. All sheets must be finalized.
func (w *Writer) Write(wb *Workbook) error {
	var err error

	err = w.writeCoreProperties(wb)
	if err != nil {
		return err
	}
	err = w.writeExtendedProperties(wb)
	if err != nil {
		return err
	}

	err = w.writeWorkbook(wb)
	if err != nil {
		return err
	}

	err = w.writeStyles(wb.styles)
	if err != nil {
		return err
	}

	err = w.writeRels("/xl/_rels/workbook.xml.rels", w.WorkbookRels)
	if err != nil {
		return err
	}

	err = w.writeRels("/_rels/.rels", w.GlobalRels)
	if err != nil {
		return err
	}

	err = w.writeContentTypes()
	if err != nil {
		return err
	}

	return nil
}

// coreTimeLayout is the W3CDTF form used for dcterms:created.
const coreTimeLayout = "2006-01-02T15:04:05.00Z"

func (w *Writer) writeCoreProperties(wb *Workbook) error {
	_, rid := w.nextGlobalID()

	relpath := "docProps/core.xml"
	abspath := "/" + relpath

	w.PartContentTypes[abspath] = "application/vnd.openxmlformats-package.core-properties+xml"
	w.GlobalRels[rid] = RelInfo{
		Type:   "http://schemas.openxmlformats.org/package/2006/relationships/metadata/core-properties",
		Target: relpath,
	}

	created := wb.Created
	if created.IsZero() {
		created = time.Now()
	}

	bb := bytes.Buffer{}
	x := xml.NewWriter(&bb, xml.WriterConfig{Indent: xml.Indent2Spaces})

	x.XmlStandaloneDecl()
	x.OTag("cp:coreProperties")
	x.Attr("xmlns:cp", "http://schemas.openxmlformats.org/package/2006/metadata/core-properties")
	x.Attr("xmlns:dc", "http://purl.org/dc/elements/1.1/")
	x.Attr("xmlns:dcterms", "http://purl.org/dc/terms/")
	x.Attr("xmlns:dcmitype", "http://purl.org/dc/dcmitype/")
	x.Attr("xmlns:xsi", "http://www.w3.org/2001/XMLSchema-instance")

	x.OTag("+dcterms:created")
	x.Attr("xsi:type", "dcterms:W3CDTF")
	x.Write(created.UTC().Format(coreTimeLayout))
	x.CTag()

	x.OTag("+dc:title").Write(wb.Title).CTag()
	x.OTag("+dc:subject").Write(wb.Subject).CTag()
	x.OTag("+dc:creator").Write(wb.Author).CTag()
	if len(wb.Keywords) > 0 {
		x.OTag("+cp:keywords").Write(strings.Join(wb.Keywords, ", ")).CTag()
	}
	x.OTag("+dc:description").Write(wb.Description).CTag()
	x.OTag("+cp:revision").Write(0).CTag()

	x.CTag()

	return w.out.WriteBlob(abspath, bb.Bytes())
}

func (w *Writer) writeExtendedProperties(wb *Workbook) error {
	_, rid := w.nextGlobalID()

	relpath := "docProps/app.xml"
	abspath := "/" + relpath

	w.PartContentTypes[abspath] = "application/vnd.openxmlformats-officedocument.extended-properties+xml"
	w.GlobalRels[rid] = RelInfo{
		Type:   "http://schemas.openxmlformats.org/officeDocument/2006/relationships/extended-properties",
		Target: relpath,
	}

	bb := bytes.Buffer{}
	x := xml.NewWriter(&bb, xml.WriterConfig{Indent: xml.Indent2Spaces})
	x.XmlStandaloneDecl()

	x.OTag("Properties")
	x.Attr("xmlns", "http://schemas.openxmlformats.org/officeDocument/2006/extended-properties")
	x.Attr("xmlns:vt", "http://schemas.openxmlformats.org/officeDocument/2006/docPropsVTypes")

	if wb.AppName != "" {
		x.OTag("+Application").String(wb.AppName).CTag()
	}
	x.OTag("+TotalTime").Write(0).CTag()
	x.OTag("+Company").Write(wb.Company).CTag()

	x.CTag()

	return w.out.WriteBlob(abspath, bb.Bytes())
}

func (w *Writer) writeContentTypes() error {
	bb := bytes.Buffer{}
	x := xml.NewWriter(&bb, xml.WriterConfig{Indent: xml.Indent2Spaces})

	x.XmlStandaloneDecl()
	x.OTag("Types")
	x.Attr("xmlns", "http://schemas.openxmlformats.org/package/2006/content-types")
	enumerate(w.DefaultContentTypes, func(ext, ctype string) error {
		x.OTag("+Default").Attr("Extension", ext).Attr("ContentType", ctype).CTag()
		return nil
	})
	enumerate(w.PartContentTypes, func(abspath, ctype string) error {
		x.OTag("+Override").Attr("PartName", abspath).Attr("ContentType", ctype).CTag()
		return nil
	})

	x.CTag()

	return w.out.WriteBlob("[Content_Types].xml", bb.Bytes())
}

func (w *Writer) writeStyles(reg *StyleRegistry) error {
	_, rid := w.nextWorkbookID()

	relpath := "styles.xml"
	abspath := "/xl/" + relpath

	w.PartContentTypes[abspath] = "application/vnd.openxmlformats-officedocument.spreadsheetml.styles+xml"
	w.WorkbookRels[rid] = RelInfo{
		Type:   "http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles",
		Target: relpath,
	}

	bb := bytes.Buffer{}
	reg.resolve().encode(&bb)

	return w.out.WriteBlob(abspath, bb.Bytes())
}

func (w *Writer) writeWorkbook(wb *Workbook) error {
	_, rid := w.nextGlobalID()

	relpath := "xl/workbook.xml"
	abspath := "/" + relpath

	w.PartContentTypes[abspath] = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet.main+xml"
	w.GlobalRels[rid] = RelInfo{
		Type:   "http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument",
		Target: relpath,
	}

	bb := bytes.Buffer{}
	x := xml.NewWriter(&bb, xml.WriterConfig{Indent: xml.Indent2Spaces})
	x.XmlStandaloneDecl()

	x.OTag("workbook")
	x.Attr("xmlns", "http://schemas.openxmlformats.org/spreadsheetml/2006/main")
	x.Attr("xmlns:r", "http://schemas.openxmlformats.org/officeDocument/2006/relationships")

	x.OTag("+fileVersion")
	x.Attr("appName", "Calc")
	x.CTag()

	x.OTag("+workbookPr")
	x.Attr("backupFile", "false")
	x.Attr("showObjects", "all")
	x.Attr("date1904", "false")
	x.CTag()

	x.OTag("+workbookProtection")
	x.CTag()

	x.OTag("+bookViews")
	{
		x.OTag("+workbookView")
		x.Attr("activeTab", 0)
		x.Attr("firstSheet", 0)
		x.Attr("showHorizontalScroll", "true")
		x.Attr("showSheetTabs", "true")
		x.Attr("showVerticalScroll", "true")
		x.Attr("tabRatio", 212)
		x.Attr("windowHeight", 8192)
		x.Attr("windowWidth", 16384)
		x.Attr("xWindow", 0)
		x.Attr("yWindow", 0)
		x.CTag()
	}
	x.CTag()

	x.OTag("+sheets")
	for _, sheet := range wb.Sheets {
		sheet_id, sheet_rid := w.nextWorkbookID()
		{
			x.OTag("+sheet")
			x.Attr("name", sheet.DisplayName)
			x.Attr("sheetId", sheet_id)
			x.Attr("state", "visible")
			x.Attr("r:id", sheet_rid)
			x.CTag()
		}

		err := w.writeSheet(sheet, sheet_rid)
		if err != nil {
			return err
		}
	}
	x.CTag()

	if slices.ContainsFunc(wb.Sheets, func(s *Sheet) bool { return s.autoFilter }) {
		x.OTag("+definedNames")
		for i, sheet := range wb.Sheets {
			if !sheet.autoFilter {
				continue
			}
			x.OTag("+definedName")
			x.Attr("name", "_xlnm._FilterDatabase")
			x.Attr("localSheetId", i)
			x.Attr("hidden", 1)
			x.Write(filterDatabaseRef(sheet))
			x.CTag()
		}
		x.CTag()
	}

	x.OTag("+calcPr")
	x.Attr("iterateCount", 100)
	x.Attr("refMode", "A1")
	x.Attr("iterate", "false")
	x.Attr("iterateDelta", "0.001")
	x.CTag()

	x.CTag()

	return w.out.WriteBlob(abspath, bb.Bytes())
}

// filterDatabaseRef returns the absolute reference covering the sheet's
// used range, e.g. 'Data'!$A$1:$C$10.
func filterDatabaseRef(sh *Sheet) string {
	last := AbsCellRef(max(sh.rowCount-1, 0), max(len(sh.columns)-1, 0))
	name := strings.ReplaceAll(sh.DisplayName, "'", "''")
	return "'" + name + "'!$A$1:" + last
}

func (w *Writer) writeSheet(sh *Sheet, rid string) error {
	if err := cmp.Or(sh.err, sh.w.Err()); err != nil {
		return fmt.Errorf("sheet %s: %w", strconv.Quote(sh.Name), err)
	}

	relpath := "worksheets/" + sh.partName
	abspath := "/xl/" + relpath

	w.PartContentTypes[abspath] = "application/vnd.openxmlformats-officedocument.spreadsheetml.worksheet+xml"
	w.WorkbookRels[rid] = RelInfo{
		Type:   "http://schemas.openxmlformats.org/officeDocument/2006/relationships/worksheet",
		Target: relpath,
	}

	return w.out.WriteFile(abspath, sh.w.Path())
}

func (w *Writer) writeRels(path string, rels map[string]RelInfo) error {
	bb := bytes.Buffer{}
	x := xml.NewWriter(&bb, xml.WriterConfig{Indent: xml.Indent2Spaces})
	x.XmlStandaloneDecl()

	x.OTag("Relationships")
	x.Attr("xmlns", "http://schemas.openxmlformats.org/package/2006/relationships")
	err := enumerate(rels, func(rid string, info RelInfo) error {
		x.OTag("+Relationship").Attr("Id", rid).Attr("Type", info.Type).Attr("Target", info.Target)
		x.CTag()

		return nil
	})
	if err != nil {
		return err
	}
	x.CTag()

	return w.out.WriteBlob(path, bb.Bytes())
}

func enumerate[M ~map[K]V, K constraints.Ordered, V any](m M, callback func(k K, v V) error) error {
	keys := maps.Keys(m)
	slices.Sort(keys)
	for _, k := range keys {
		err := callback(k, m[k])
		if err != nil {
			return err
		}
	}
	return nil
}
