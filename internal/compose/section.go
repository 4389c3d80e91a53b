package compose

import (
	"github.com/cybergen/docbrand/internal/opc"
	"github.com/cybergen/docbrand/internal/wordml"
)

// RebuildSectionProperties produces the single section-properties block for
// the output body: the template's page geometry (A4 synthesized when the
// template declares none) plus the template's header/footer references
// rewritten through the relationship id mapping produced by the import into
// the target's collection. Template ids are never carried over raw.
//
// A reference whose id has no mapping is dropped rather than emitted
// dangling; the caller records the reduced branding.
func RebuildSectionProperties(templateSectPr *wordml.SectionProperties, mapping opc.IDMapping) (*wordml.SectionProperties, []string) {
	sp := wordml.NewSectionProperties()
	sp.CopyGeometry(templateSectPr)

	var notes []string
	if templateSectPr == nil {
		return sp, notes
	}
	for _, ref := range templateSectPr.References() {
		newID, ok := mapping[ref.ID]
		if !ok {
			notes = append(notes, "dropped "+ref.Kind+" reference with unmapped id "+ref.ID)
			continue
		}
		sp.AddReference(wordml.HeaderFooterReference{
			Kind:      ref.Kind,
			Placement: ref.Placement,
			ID:        newID,
		})
	}
	return sp, notes
}
