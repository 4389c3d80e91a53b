package wordml

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strconv"
)

// Header/footer reference kinds.
const (
	RefHeader = "header"
	RefFooter = "footer"
)

// Header/footer reference placements.
const (
	PlacementDefault = "default"
	PlacementFirst   = "first"
	PlacementEven    = "even"
)

// HeaderFooterReference wires one header or footer part into a section via a
// relationship id owned by the document part.
type HeaderFooterReference struct {
	Kind      string // RefHeader or RefFooter
	Placement string // PlacementDefault, PlacementFirst, PlacementEven
	ID        string // relationship id, valid in the referencing document's collection
}

// PageSize is the section's page geometry in twentieths of a point.
type PageSize struct {
	W      int
	H      int
	Orient string
}

// PageMargins are the section's margins in twentieths of a point.
type PageMargins struct {
	Top    int
	Right  int
	Bottom int
	Left   int
	Header int
	Footer int
	Gutter int
}

// A4 geometry with one-inch margins and half-inch header/footer distance.
// Output geometry is normalized to these values when the template declares
// none.
func DefaultPageSize() *PageSize {
	return &PageSize{W: 11906, H: 16838, Orient: "portrait"}
}

func DefaultPageMargins() *PageMargins {
	return &PageMargins{Top: 1440, Right: 1440, Bottom: 1440, Left: 1440, Header: 720, Footer: 720}
}

// SectionProperties models one sectPr block as fixed slots. Marshal emits
// the slots in one category order no matter how the source arranged them or
// in what order callers filled them, so a misordered insertion cannot be
// expressed: section type, page size, page margins, header references,
// footer references, title page, columns, document grid, then any
// pass-through children.
type SectionProperties struct {
	Type       string
	PageSize   *PageSize
	Margins    *PageMargins
	HeaderRefs []HeaderFooterReference
	FooterRefs []HeaderFooterReference
	TitlePage  bool

	colsRaw    []byte
	docGridRaw []byte
	extras     [][]byte
}

// NewSectionProperties returns an empty block.
func NewSectionProperties() *SectionProperties {
	return &SectionProperties{}
}

// ParseSectionProperties decodes a raw <w:sectPr> element.
func ParseSectionProperties(raw []byte) (*SectionProperties, error) {
	d := xml.NewDecoder(bytes.NewReader(raw))
	sp := NewSectionProperties()

	depth := 0
	for {
		off := d.InputOffset()
		tok, err := d.Token()
		if err != nil {
			return nil, &ParseError{Part: "section properties", Cause: err}
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if depth == 0 {
				if t.Name.Local != "sectPr" {
					return nil, &ParseError{Part: "section properties", Cause: fmt.Errorf("unexpected root element %s", t.Name.Local)}
				}
				depth++
				continue
			}
			switch t.Name.Local {
			case "type":
				sp.Type = attrValue(t, "val")
				if err := d.Skip(); err != nil {
					return nil, &ParseError{Part: "section properties", Cause: err}
				}
			case "pgSz":
				sp.PageSize = &PageSize{
					W:      attrInt(t, "w"),
					H:      attrInt(t, "h"),
					Orient: attrValue(t, "orient"),
				}
				if err := d.Skip(); err != nil {
					return nil, &ParseError{Part: "section properties", Cause: err}
				}
			case "pgMar":
				sp.Margins = &PageMargins{
					Top:    attrInt(t, "top"),
					Right:  attrInt(t, "right"),
					Bottom: attrInt(t, "bottom"),
					Left:   attrInt(t, "left"),
					Header: attrInt(t, "header"),
					Footer: attrInt(t, "footer"),
					Gutter: attrInt(t, "gutter"),
				}
				if err := d.Skip(); err != nil {
					return nil, &ParseError{Part: "section properties", Cause: err}
				}
			case "headerReference", "footerReference":
				kind := RefHeader
				if t.Name.Local == "footerReference" {
					kind = RefFooter
				}
				placement := attrValue(t, "type")
				if placement == "" {
					placement = PlacementDefault
				}
				ref := HeaderFooterReference{Kind: kind, Placement: placement, ID: attrValue(t, "id")}
				if kind == RefHeader {
					sp.HeaderRefs = append(sp.HeaderRefs, ref)
				} else {
					sp.FooterRefs = append(sp.FooterRefs, ref)
				}
				if err := d.Skip(); err != nil {
					return nil, &ParseError{Part: "section properties", Cause: err}
				}
			case "titlePg":
				sp.TitlePage = true
				if err := d.Skip(); err != nil {
					return nil, &ParseError{Part: "section properties", Cause: err}
				}
			case "cols":
				rawChild, err := rawSlice(d, raw, off)
				if err != nil {
					return nil, &ParseError{Part: "section properties", Cause: err}
				}
				sp.colsRaw = rawChild
			case "docGrid":
				rawChild, err := rawSlice(d, raw, off)
				if err != nil {
					return nil, &ParseError{Part: "section properties", Cause: err}
				}
				sp.docGridRaw = rawChild
			default:
				rawChild, err := rawSlice(d, raw, off)
				if err != nil {
					return nil, &ParseError{Part: "section properties", Cause: err}
				}
				sp.extras = append(sp.extras, rawChild)
			}
		case xml.EndElement:
			if t.Name.Local == "sectPr" {
				return sp, nil
			}
		}
	}
}

// References returns header and footer references in emit order.
func (sp *SectionProperties) References() []HeaderFooterReference {
	refs := make([]HeaderFooterReference, 0, len(sp.HeaderRefs)+len(sp.FooterRefs))
	refs = append(refs, sp.HeaderRefs...)
	refs = append(refs, sp.FooterRefs...)
	return refs
}

// AddReference appends a header or footer reference to its slot.
func (sp *SectionProperties) AddReference(ref HeaderFooterReference) {
	if ref.Kind == RefFooter {
		sp.FooterRefs = append(sp.FooterRefs, ref)
		return
	}
	sp.HeaderRefs = append(sp.HeaderRefs, ref)
}

// CopyGeometry copies section type, page size, and margins from src,
// synthesizing the A4 defaults for anything src does not declare.
func (sp *SectionProperties) CopyGeometry(src *SectionProperties) {
	sp.Type = "nextPage"
	sp.PageSize = DefaultPageSize()
	sp.Margins = DefaultPageMargins()
	if src == nil {
		return
	}
	if src.Type != "" {
		sp.Type = src.Type
	}
	if src.PageSize != nil {
		size := *src.PageSize
		sp.PageSize = &size
	}
	if src.Margins != nil {
		margins := *src.Margins
		sp.Margins = &margins
	}
	if src.colsRaw != nil {
		sp.colsRaw = src.colsRaw
	}
	if src.docGridRaw != nil {
		sp.docGridRaw = src.docGridRaw
	}
}

// Marshal serializes the block. Omitted slots are skipped entirely, never
// emitted empty.
func (sp *SectionProperties) Marshal() []byte {
	var buf bytes.Buffer
	buf.WriteString("<w:sectPr>")
	if sp.Type != "" {
		fmt.Fprintf(&buf, `<w:type w:val="%s"/>`, escapeAttr(sp.Type))
	}
	if sp.PageSize != nil {
		buf.WriteString(`<w:pgSz w:w="` + strconv.Itoa(sp.PageSize.W) + `" w:h="` + strconv.Itoa(sp.PageSize.H) + `"`)
		if sp.PageSize.Orient != "" {
			buf.WriteString(` w:orient="` + escapeAttr(sp.PageSize.Orient) + `"`)
		}
		buf.WriteString("/>")
	}
	if sp.Margins != nil {
		m := sp.Margins
		fmt.Fprintf(&buf,
			`<w:pgMar w:top="%d" w:right="%d" w:bottom="%d" w:left="%d" w:header="%d" w:footer="%d" w:gutter="%d"/>`,
			m.Top, m.Right, m.Bottom, m.Left, m.Header, m.Footer, m.Gutter)
	}
	for _, ref := range sp.HeaderRefs {
		fmt.Fprintf(&buf, `<w:headerReference w:type="%s" r:id="%s"/>`, escapeAttr(ref.Placement), escapeAttr(ref.ID))
	}
	for _, ref := range sp.FooterRefs {
		fmt.Fprintf(&buf, `<w:footerReference w:type="%s" r:id="%s"/>`, escapeAttr(ref.Placement), escapeAttr(ref.ID))
	}
	if sp.TitlePage {
		buf.WriteString("<w:titlePg/>")
	}
	if sp.colsRaw != nil {
		buf.Write(sp.colsRaw)
	}
	if sp.docGridRaw != nil {
		buf.Write(sp.docGridRaw)
	}
	for _, extra := range sp.extras {
		buf.Write(extra)
	}
	buf.WriteString("</w:sectPr>")
	return buf.Bytes()
}

func attrInt(el xml.StartElement, local string) int {
	n, _ := strconv.Atoi(attrValue(el, local))
	return n
}

// escapeAttr escapes a string for use inside a double-quoted XML attribute.
func escapeAttr(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
