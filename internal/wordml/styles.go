package wordml

import (
	"bytes"
	"encoding/xml"
)

// styleChild classifies one top-level child of <w:styles>.
type styleChild struct {
	kind string // "docDefaults", "style", or "" for pass-through
	id   string // styleId, for kind "style"
	raw  []byte
}

// Styles models a styles part: the document-default block plus named styles
// keyed by id, with every child carried as raw bytes. Merging appends
// missing children; it never rewrites an existing one, so the target's own
// definitions always survive a merge intact.
type Styles struct {
	prefix   []byte // through the end of the <w:styles> start tag
	suffix   []byte // from the start of </w:styles> to EOF
	children []styleChild
}

// ParseStyles decodes a styles part.
func ParseStyles(src []byte) (*Styles, error) {
	d := xml.NewDecoder(bytes.NewReader(src))
	st := &Styles{}

	inRoot := false
	for {
		off := d.InputOffset()
		tok, err := d.Token()
		if err != nil {
			return nil, &ParseError{Part: "styles", Cause: err}
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if !inRoot {
				if t.Name.Local == "styles" {
					inRoot = true
					st.prefix = src[:d.InputOffset()]
				}
				continue
			}
			raw, err := rawSlice(d, src, off)
			if err != nil {
				return nil, &ParseError{Part: "styles", Cause: err}
			}
			child := styleChild{raw: raw}
			switch t.Name.Local {
			case "docDefaults":
				child.kind = "docDefaults"
			case "style":
				child.kind = "style"
				child.id = attrValue(t, "styleId")
			}
			st.children = append(st.children, child)
		case xml.EndElement:
			if inRoot && t.Name.Local == "styles" {
				st.suffix = src[off:]
				return st, nil
			}
		}
	}
}

// HasDocDefaults reports whether a docDefaults block exists.
func (st *Styles) HasDocDefaults() bool {
	for _, c := range st.children {
		if c.kind == "docDefaults" {
			return true
		}
	}
	return false
}

// DocDefaults returns the raw docDefaults block, or nil.
func (st *Styles) DocDefaults() []byte {
	for _, c := range st.children {
		if c.kind == "docDefaults" {
			return c.raw
		}
	}
	return nil
}

// HasStyle reports whether a named style with the given id exists.
func (st *Styles) HasStyle(id string) bool {
	for _, c := range st.children {
		if c.kind == "style" && c.id == id {
			return true
		}
	}
	return false
}

// StyleIDs returns the ids of all named styles in part order.
func (st *Styles) StyleIDs() []string {
	var ids []string
	for _, c := range st.children {
		if c.kind == "style" {
			ids = append(ids, c.id)
		}
	}
	return ids
}

// StyleRaw returns the raw element of the named style.
func (st *Styles) StyleRaw(id string) []byte {
	for _, c := range st.children {
		if c.kind == "style" && c.id == id {
			return c.raw
		}
	}
	return nil
}

// SetDocDefaults inserts a docDefaults block at the front of the part if
// none exists. Returns true when the block was added.
func (st *Styles) SetDocDefaults(raw []byte) bool {
	if st.HasDocDefaults() {
		return false
	}
	child := styleChild{kind: "docDefaults", raw: raw}
	st.children = append([]styleChild{child}, st.children...)
	return true
}

// AppendStyle appends a named style unless the id is already taken. Returns
// true when the style was added. Id uniqueness within the collection is
// preserved by construction.
func (st *Styles) AppendStyle(id string, raw []byte) bool {
	if st.HasStyle(id) {
		return false
	}
	st.children = append(st.children, styleChild{kind: "style", id: id, raw: raw})
	return true
}

// Marshal reassembles the styles part.
func (st *Styles) Marshal() []byte {
	var buf bytes.Buffer
	buf.Write(st.prefix)
	for _, c := range st.children {
		buf.Write(c.raw)
	}
	buf.Write(st.suffix)
	return buf.Bytes()
}
