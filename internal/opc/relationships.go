package opc

import (
	"encoding/xml"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// relationshipsNS is the package-relationships namespace.
const relationshipsNS = "http://schemas.openxmlformats.org/package/2006/relationships"

// Well-known relationship type URIs used by the composition engine.
const (
	RelTypeOfficeDocument = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument"
	RelTypeHeader         = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/header"
	RelTypeFooter         = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/footer"
	RelTypeImage          = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/image"
	RelTypeStyles         = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles"
	RelTypeTheme          = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/theme"
)

// Relationship is one edge in a package's relationship graph: a unique id
// within its owning collection, a type URI, and a target (part path relative
// to the owning part, or an external URI).
type Relationship struct {
	ID         string `xml:"Id,attr"`
	Type       string `xml:"Type,attr"`
	Target     string `xml:"Target,attr"`
	TargetMode string `xml:"TargetMode,attr,omitempty"`
}

// Relationships is the relationship collection owned by one source part.
type Relationships struct {
	rels []Relationship
}

// IDMapping records how relationship ids were reassigned during an import:
// source-collection id -> id valid in the destination collection.
type IDMapping map[string]string

type relationshipsXML struct {
	XMLName      xml.Name       `xml:"Relationships"`
	Namespace    string         `xml:"xmlns,attr"`
	Relationship []Relationship `xml:"Relationship"`
}

// NewRelationships returns an empty collection.
func NewRelationships() *Relationships {
	return &Relationships{}
}

// ParseRelationships decodes a .rels part.
func ParseRelationships(data []byte) (*Relationships, error) {
	var doc relationshipsXML
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse relationships XML: %w", err)
	}
	return &Relationships{rels: doc.Relationship}, nil
}

// Marshal serializes the collection as a .rels part.
func (r *Relationships) Marshal() ([]byte, error) {
	doc := relationshipsXML{
		Namespace:    relationshipsNS,
		Relationship: r.rels,
	}
	body, err := xml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize relationships XML: %w", err)
	}
	return append([]byte(xml.Header), body...), nil
}

// All returns a copy of the relationships in collection order.
func (r *Relationships) All() []Relationship {
	out := make([]Relationship, len(r.rels))
	copy(out, r.rels)
	return out
}

// Len returns the number of relationships in the collection.
func (r *Relationships) Len() int {
	return len(r.rels)
}

// ByID returns the relationship with the given id.
func (r *Relationships) ByID(id string) (Relationship, bool) {
	for _, rel := range r.rels {
		if rel.ID == id {
			return rel, true
		}
	}
	return Relationship{}, false
}

// find locates an existing relationship with the same type and target.
func (r *Relationships) find(relType, target string) (Relationship, bool) {
	for _, rel := range r.rels {
		if rel.Type == relType && rel.Target == target {
			return rel, true
		}
	}
	return Relationship{}, false
}

// maxNumericSuffix returns the largest N across ids of the form rIdN.
// Ids not matching that form are ignored for allocation purposes.
func (r *Relationships) maxNumericSuffix() int {
	max := 0
	for _, rel := range r.rels {
		if !strings.HasPrefix(rel.ID, "rId") {
			continue
		}
		n, err := strconv.Atoi(rel.ID[len("rId"):])
		if err != nil {
			continue
		}
		if n > max {
			max = n
		}
	}
	return max
}

// NextID allocates the next free id as rId(max numeric suffix + 1).
func (r *Relationships) NextID() string {
	return "rId" + strconv.Itoa(r.maxNumericSuffix()+1)
}

// Add inserts a relationship, allocating a fresh id when rel.ID is empty.
// It fails if the id is already taken: ids must stay unique within their
// owning collection.
func (r *Relationships) Add(rel Relationship) (Relationship, error) {
	if rel.ID == "" {
		rel.ID = r.NextID()
	} else if _, ok := r.ByID(rel.ID); ok {
		return Relationship{}, fmt.Errorf("relationship id %s already exists in collection", rel.ID)
	}
	r.rels = append(r.rels, rel)
	return rel, nil
}

// Ensure returns the id of a relationship with the given type and target,
// adding one with a fresh id only when no such relationship exists yet.
func (r *Relationships) Ensure(relType, target string) string {
	if rel, ok := r.find(relType, target); ok {
		return rel.ID
	}
	rel, _ := r.Add(Relationship{Type: relType, Target: target})
	return rel.ID
}

// Import copies every relationship from src matching keep into the
// collection and returns the id mapping callers use to rewrite references
// elsewhere. Ids are allocated monotonically from max+1, so repeated imports
// never collide. An existing relationship with the same (type, target) is
// reused rather than duplicated, which makes re-running a merge against an
// already-merged package a no-op.
func (r *Relationships) Import(src *Relationships, keep func(Relationship) bool) IDMapping {
	mapping := make(IDMapping)
	// Deterministic import order regardless of source collection layout.
	incoming := src.All()
	sort.SliceStable(incoming, func(i, j int) bool { return incoming[i].ID < incoming[j].ID })

	for _, rel := range incoming {
		if keep != nil && !keep(rel) {
			continue
		}
		if existing, ok := r.find(rel.Type, rel.Target); ok {
			mapping[rel.ID] = existing.ID
			continue
		}
		added, _ := r.Add(Relationship{
			Type:       rel.Type,
			Target:     rel.Target,
			TargetMode: rel.TargetMode,
		})
		mapping[rel.ID] = added.ID
	}
	return mapping
}

// RewriteTargets applies a target-path substitution (old part path -> new
// part path) to every relationship, used after media parts are renamed to
// avoid collisions.
func (r *Relationships) RewriteTargets(renames map[string]string) {
	if len(renames) == 0 {
		return
	}
	for i, rel := range r.rels {
		if nw, ok := renames[rel.Target]; ok {
			r.rels[i].Target = nw
		}
	}
}
