// Package wordml provides a typed model of the WordprocessingML fragments
// the composition engine edits: the document body, section properties, and
// the style sheet. Elements the engine does not rewrite are carried as raw
// byte slices of the source part, so untouched markup survives verbatim.
package wordml

import (
	"bytes"
	"encoding/xml"
	"fmt"
)

// ParseError indicates a part could not be decoded as WordprocessingML.
type ParseError struct {
	Part  string
	Cause error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse %s: %v", e.Part, e.Cause)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

// BodyElement is any child of the document body.
type BodyElement interface {
	// XML returns the element's serialized form. For elements parsed from a
	// source part this is the original byte slice.
	XML() []byte
}

// RawElement is a body child the engine passes through without
// interpretation (bookmarks, structured document tags, ...).
type RawElement struct {
	Name string
	Raw  []byte
}

func (e *RawElement) XML() []byte { return e.Raw }

// Run is a span of text with uniform formatting. Props holds the raw
// <w:rPr> element verbatim; Text uses "\n" for explicit line breaks and
// "\t" for tabs.
type Run struct {
	Props []byte
	Text  string
}

// Paragraph is a body paragraph. Unsupported is set when the paragraph
// contains content that cannot be re-authored from text and runs alone
// (drawings, fields, hyperlinks, embedded objects, math).
type Paragraph struct {
	Raw         []byte
	Style       string
	Runs        []Run
	Unsupported bool
}

func (p *Paragraph) XML() []byte { return p.Raw }

// Table is a body table: rows of cells of paragraphs.
type Table struct {
	Raw         []byte
	Rows        []TableRow
	Unsupported bool
}

func (t *Table) XML() []byte { return t.Raw }

// TableRow is one row of a table.
type TableRow struct {
	Cells []TableCell
}

// TableCell holds the cell's paragraphs.
type TableCell struct {
	Paragraphs []*Paragraph
}

// Body is the document body: ordered child elements plus the trailing
// section properties, which are modeled separately because the engine
// rebuilds them.
type Body struct {
	Elements []BodyElement
	SectPr   *SectionProperties
}

// Document is one parsed document part. The markup before and after the
// body content is kept verbatim so a spliced document preserves the source
// part's XML declaration, root attributes, and namespace declarations.
type Document struct {
	prefix []byte // through the end of the <w:body> start tag
	suffix []byte // from the start of </w:body> to EOF
	Body   *Body
}

// unsupportedInline lists paragraph content the primary merge strategy
// refuses to re-author. Hitting one of these forces the fallback strategy,
// which leaves the original body untouched.
var unsupportedInline = map[string]bool{
	"drawing":   true,
	"object":    true,
	"pict":      true,
	"fldChar":   true,
	"fldSimple": true,
	"hyperlink": true,
	"oMath":     true,
	"oMathPara": true,
}

// ParseDocument decodes a document part, preserving element order and the
// raw bytes of every body child.
func ParseDocument(src []byte) (*Document, error) {
	d := xml.NewDecoder(bytes.NewReader(src))

	doc := &Document{Body: &Body{}}
	inBody := false
	var bodyClose []byte
	for {
		off := d.InputOffset()
		tok, err := d.Token()
		if err != nil {
			return nil, &ParseError{Part: "document body", Cause: err}
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if !inBody {
				if t.Name.Local == "body" {
					inBody = true
					doc.prefix = src[:d.InputOffset()]
					if bytes.HasSuffix(doc.prefix, []byte("/>")) {
						// A self-closed body tag would leave spliced content
						// after the body. Rewrite it into an open/close pair.
						tag := src[off:d.InputOffset()]
						doc.prefix = append(append([]byte{}, doc.prefix[:len(doc.prefix)-2]...), '>')
						bodyClose = []byte("</" + tagName(tag) + ">")
					}
				}
				continue
			}
			raw, err := rawSlice(d, src, off)
			if err != nil {
				return nil, &ParseError{Part: "document body", Cause: err}
			}
			switch t.Name.Local {
			case "p":
				para, err := parseParagraph(raw)
				if err != nil {
					return nil, err
				}
				doc.Body.Elements = append(doc.Body.Elements, para)
			case "tbl":
				table, err := parseTable(raw)
				if err != nil {
					return nil, err
				}
				doc.Body.Elements = append(doc.Body.Elements, table)
			case "sectPr":
				sectPr, err := ParseSectionProperties(raw)
				if err != nil {
					return nil, err
				}
				doc.Body.SectPr = sectPr
			default:
				doc.Body.Elements = append(doc.Body.Elements, &RawElement{Name: t.Name.Local, Raw: raw})
			}
		case xml.EndElement:
			if inBody && t.Name.Local == "body" {
				doc.suffix = src[off:]
				if bodyClose != nil {
					doc.suffix = append(bodyClose, doc.suffix...)
				}
				return doc, nil
			}
		}
	}
}

// tagName extracts the qualified element name from a raw start tag.
func tagName(tag []byte) string {
	name := bytes.TrimLeft(tag, "<")
	if i := bytes.IndexAny(name, " \t\r\n/>"); i >= 0 {
		name = name[:i]
	}
	return string(name)
}

// rawSlice consumes the element whose start tag begins at startOff and
// returns its exact source bytes, start tag through end tag.
func rawSlice(d *xml.Decoder, src []byte, startOff int64) ([]byte, error) {
	if err := d.Skip(); err != nil {
		return nil, err
	}
	return src[startOff:d.InputOffset()], nil
}

// Splice rebuilds the document part around new body content. The sectPr, if
// non-nil, is appended as the body's final child per the schema.
func (doc *Document) Splice(elements []BodyElement, sectPr *SectionProperties) []byte {
	var buf bytes.Buffer
	buf.Write(doc.prefix)
	for _, el := range elements {
		buf.Write(el.XML())
	}
	if sectPr != nil {
		buf.Write(sectPr.Marshal())
	}
	buf.Write(doc.suffix)
	return buf.Bytes()
}

// relationshipsNSDecl is the xmlns:r declaration header/footer references
// depend on.
const relationshipsNSDecl = ` xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"`

// EnsureRelationshipNamespace declares the r namespace on the document root
// when absent. A converted document that never referenced another part may
// omit it, and an r:id attribute would then be unresolvable.
func (doc *Document) EnsureRelationshipNamespace() {
	if bytes.Contains(doc.prefix, []byte("xmlns:r=")) {
		return
	}
	root := bytes.Index(doc.prefix, []byte("<w:document"))
	if root < 0 {
		return
	}
	insert := root + len("<w:document")
	prefix := make([]byte, 0, len(doc.prefix)+len(relationshipsNSDecl))
	prefix = append(prefix, doc.prefix[:insert]...)
	prefix = append(prefix, relationshipsNSDecl...)
	prefix = append(prefix, doc.prefix[insert:]...)
	doc.prefix = prefix
}

// parseParagraph decodes one <w:p> element from its raw bytes.
func parseParagraph(raw []byte) (*Paragraph, error) {
	d := xml.NewDecoder(bytes.NewReader(raw))
	para := &Paragraph{Raw: raw}

	depth := 0
	for {
		off := d.InputOffset()
		tok, err := d.Token()
		if err != nil {
			return nil, &ParseError{Part: "paragraph", Cause: err}
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch {
			case depth == 0 && t.Name.Local == "p":
				depth++
			case depth == 1 && t.Name.Local == "pPr":
				style, err := parseParagraphProps(d)
				if err != nil {
					return nil, err
				}
				para.Style = style
			case depth == 1 && t.Name.Local == "r":
				run, unsupported, err := parseRun(d, raw)
				if err != nil {
					return nil, err
				}
				if unsupported {
					para.Unsupported = true
				}
				para.Runs = append(para.Runs, run)
			case depth == 1 && unsupportedInline[t.Name.Local]:
				para.Unsupported = true
				if _, err := rawSlice(d, raw, off); err != nil {
					return nil, &ParseError{Part: "paragraph", Cause: err}
				}
			default:
				if err := d.Skip(); err != nil {
					return nil, &ParseError{Part: "paragraph", Cause: err}
				}
			}
		case xml.EndElement:
			if t.Name.Local == "p" {
				return para, nil
			}
		}
	}
}

// parseParagraphProps scans a <w:pPr> element for the paragraph style id.
func parseParagraphProps(d *xml.Decoder) (string, error) {
	style := ""
	depth := 1
	for depth > 0 {
		tok, err := d.Token()
		if err != nil {
			return "", &ParseError{Part: "paragraph properties", Cause: err}
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			if t.Name.Local == "pStyle" {
				style = attrValue(t, "val")
			}
		case xml.EndElement:
			depth--
		}
	}
	return style, nil
}

// parseRun decodes one <w:r> element. The decoder is positioned just past
// the run's start tag; src is the enclosing element's raw bytes, needed to
// slice out the run's <w:rPr>.
func parseRun(d *xml.Decoder, src []byte) (Run, bool, error) {
	run := Run{}
	unsupported := false
	for {
		off := d.InputOffset()
		tok, err := d.Token()
		if err != nil {
			return run, unsupported, &ParseError{Part: "run", Cause: err}
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "rPr":
				raw, err := rawSlice(d, src, off)
				if err != nil {
					return run, unsupported, &ParseError{Part: "run properties", Cause: err}
				}
				run.Props = raw
			case "t":
				var text string
				if err := d.DecodeElement(&text, &t); err != nil {
					return run, unsupported, &ParseError{Part: "run text", Cause: err}
				}
				run.Text += text
			case "br", "cr":
				run.Text += "\n"
				if err := d.Skip(); err != nil {
					return run, unsupported, &ParseError{Part: "run", Cause: err}
				}
			case "tab":
				run.Text += "\t"
				if err := d.Skip(); err != nil {
					return run, unsupported, &ParseError{Part: "run", Cause: err}
				}
			default:
				if unsupportedInline[t.Name.Local] {
					unsupported = true
				}
				if err := d.Skip(); err != nil {
					return run, unsupported, &ParseError{Part: "run", Cause: err}
				}
			}
		case xml.EndElement:
			if t.Name.Local == "r" {
				return run, unsupported, nil
			}
		}
	}
}

// parseTable decodes one <w:tbl> element from its raw bytes. Nested tables
// are not re-authorable and mark the table unsupported.
func parseTable(raw []byte) (*Table, error) {
	d := xml.NewDecoder(bytes.NewReader(raw))
	table := &Table{Raw: raw}

	depth := 0
	for {
		tok, err := d.Token()
		if err != nil {
			return nil, &ParseError{Part: "table", Cause: err}
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch {
			case depth == 0 && t.Name.Local == "tbl":
				depth++
			case depth == 1 && t.Name.Local == "tr":
				row, unsupported, err := parseTableRow(d, raw)
				if err != nil {
					return nil, err
				}
				if unsupported {
					table.Unsupported = true
				}
				table.Rows = append(table.Rows, row)
			default:
				if err := d.Skip(); err != nil {
					return nil, &ParseError{Part: "table", Cause: err}
				}
			}
		case xml.EndElement:
			if t.Name.Local == "tbl" {
				return table, nil
			}
		}
	}
}

// parseTableRow decodes one <w:tr> element.
func parseTableRow(d *xml.Decoder, src []byte) (TableRow, bool, error) {
	row := TableRow{}
	unsupported := false
	for {
		tok, err := d.Token()
		if err != nil {
			return row, unsupported, &ParseError{Part: "table row", Cause: err}
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "tc" {
				cell, cellUnsupported, err := parseTableCell(d, src)
				if err != nil {
					return row, unsupported, err
				}
				if cellUnsupported {
					unsupported = true
				}
				row.Cells = append(row.Cells, cell)
				continue
			}
			if err := d.Skip(); err != nil {
				return row, unsupported, &ParseError{Part: "table row", Cause: err}
			}
		case xml.EndElement:
			if t.Name.Local == "tr" {
				return row, unsupported, nil
			}
		}
	}
}

// parseTableCell decodes one <w:tc> element.
func parseTableCell(d *xml.Decoder, src []byte) (TableCell, bool, error) {
	cell := TableCell{}
	unsupported := false
	for {
		off := d.InputOffset()
		tok, err := d.Token()
		if err != nil {
			return cell, unsupported, &ParseError{Part: "table cell", Cause: err}
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				raw, err := rawSlice(d, src, off)
				if err != nil {
					return cell, unsupported, &ParseError{Part: "table cell", Cause: err}
				}
				para, err := parseParagraph(raw)
				if err != nil {
					return cell, unsupported, err
				}
				if para.Unsupported {
					unsupported = true
				}
				cell.Paragraphs = append(cell.Paragraphs, para)
			case "tbl":
				unsupported = true
				if err := d.Skip(); err != nil {
					return cell, unsupported, &ParseError{Part: "table cell", Cause: err}
				}
			default:
				if err := d.Skip(); err != nil {
					return cell, unsupported, &ParseError{Part: "table cell", Cause: err}
				}
			}
		case xml.EndElement:
			if t.Name.Local == "tc" {
				return cell, unsupported, nil
			}
		}
	}
}

// attrValue returns the named attribute's value, matching on local name so
// both w:val and val forms resolve.
func attrValue(el xml.StartElement, local string) string {
	for _, a := range el.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}
