package compose

import (
	"github.com/cybergen/docbrand/internal/opc"
	"github.com/cybergen/docbrand/internal/wordml"
)

// fallbackMerge operates on the target package directly: the template's
// style, theme, media, and header/footer parts are imported around the
// target's body, which is left untouched. Only the section properties are
// rebuilt, referencing the imported parts through ids allocated in the
// target's own relationship collection.
func fallbackMerge(input, template *opc.Package) (*opc.Package, []string, error) {
	target := input.Clone()
	var notes []string

	styleNotes, err := MergeStyleParts(target, template)
	if err != nil {
		return nil, nil, &CompositionError{Strategy: "fallback", Message: "style merge failed", Cause: err}
	}
	notes = append(notes, styleNotes...)

	renames, err := CopyMedia(target, template)
	if err != nil {
		return nil, nil, &CompositionError{Strategy: "fallback", Message: "media copy failed", Cause: err}
	}

	copied, err := CopyHeaderFooterParts(target, template, renames)
	if err != nil {
		return nil, nil, &CompositionError{Strategy: "fallback", Message: "header/footer copy failed", Cause: err}
	}
	if len(copied) == 0 {
		notes = append(notes, "template has no header or footer parts; branding degrades to geometry only")
	}

	mapping, err := importHeaderFooterRels(target, template)
	if err != nil {
		return nil, nil, &CompositionError{Strategy: "fallback", Message: "relationship import failed", Cause: err}
	}

	docPart, err := target.Part(DocumentPart)
	if err != nil {
		return nil, nil, &CompositionError{Strategy: "fallback", Message: "target has no main document part", Cause: err}
	}
	doc, err := wordml.ParseDocument(docPart.Data)
	if err != nil {
		return nil, nil, &CompositionError{Strategy: "fallback", Message: "target document is not parseable", Cause: err}
	}

	templateSectPr, err := templateSectionProperties(template)
	if err != nil {
		return nil, nil, &CompositionError{Strategy: "fallback", Message: "template section properties are not parseable", Cause: err}
	}

	// Any pre-existing sectPr is discarded; the engine supports exactly one
	// body section and rebuilds it whole.
	sectPr, sectionNotes := RebuildSectionProperties(templateSectPr, mapping)
	notes = append(notes, sectionNotes...)

	if len(sectPr.References()) > 0 {
		doc.EnsureRelationshipNamespace()
	}
	target.SetPart(DocumentPart, doc.Splice(doc.Body.Elements, sectPr))

	return target, notes, nil
}

// importHeaderFooterRels copies the template's document-level header and
// footer relationships into the target's document collection, allocating
// fresh non-colliding ids, and returns the template-id to target-id mapping.
func importHeaderFooterRels(target, template *opc.Package) (opc.IDMapping, error) {
	templateRels, err := template.Rels(DocumentPart)
	if err != nil {
		return nil, err
	}
	targetRels, err := target.Rels(DocumentPart)
	if err != nil {
		return nil, err
	}

	mapping := targetRels.Import(templateRels, func(rel opc.Relationship) bool {
		return rel.Type == opc.RelTypeHeader || rel.Type == opc.RelTypeFooter
	})

	if err := target.SetRels(DocumentPart, targetRels); err != nil {
		return nil, err
	}
	return mapping, nil
}

// templateSectionProperties extracts the template body's sectPr, or nil when
// the template has none.
func templateSectionProperties(template *opc.Package) (*wordml.SectionProperties, error) {
	part, err := template.Part(DocumentPart)
	if err != nil {
		return nil, nil
	}
	doc, err := wordml.ParseDocument(part.Data)
	if err != nil {
		return nil, err
	}
	return doc.Body.SectPr, nil
}
