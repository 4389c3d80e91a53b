package compose

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cybergen/docbrand/internal/opc"
	"github.com/cybergen/docbrand/internal/wordml"
)

func TestRebuildSectionProperties_MapsReferenceIDs(t *testing.T) {
	templateSectPr, err := wordml.ParseSectionProperties([]byte(`<w:sectPr>` +
		`<w:headerReference w:type="default" r:id="rId3"/>` +
		`<w:footerReference w:type="default" r:id="rId4"/>` +
		`<w:pgSz w:w="11906" w:h="16838"/>` +
		`</w:sectPr>`))
	require.NoError(t, err)

	mapping := opc.IDMapping{"rId3": "rId7", "rId4": "rId8"}
	sp, notes := RebuildSectionProperties(templateSectPr, mapping)

	assert.Empty(t, notes)
	require.Len(t, sp.HeaderRefs, 1)
	assert.Equal(t, "rId7", sp.HeaderRefs[0].ID)
	require.Len(t, sp.FooterRefs, 1)
	assert.Equal(t, "rId8", sp.FooterRefs[0].ID)
	assert.Equal(t, 11906, sp.PageSize.W)
}

func TestRebuildSectionProperties_DropsUnmappedReferences(t *testing.T) {
	templateSectPr, err := wordml.ParseSectionProperties([]byte(`<w:sectPr>` +
		`<w:headerReference w:type="default" r:id="rId3"/>` +
		`<w:headerReference w:type="even" r:id="rId9"/>` +
		`</w:sectPr>`))
	require.NoError(t, err)

	sp, notes := RebuildSectionProperties(templateSectPr, opc.IDMapping{"rId3": "rId5"})

	require.Len(t, sp.HeaderRefs, 1)
	assert.Equal(t, "rId5", sp.HeaderRefs[0].ID)
	require.Len(t, notes, 1)
	assert.Contains(t, notes[0], "rId9")
}

func TestRebuildSectionProperties_NilTemplateSynthesizesGeometry(t *testing.T) {
	sp, notes := RebuildSectionProperties(nil, nil)

	assert.Empty(t, notes)
	assert.Equal(t, wordml.DefaultPageSize(), sp.PageSize)
	assert.Equal(t, wordml.DefaultPageMargins(), sp.Margins)
	assert.Equal(t, "nextPage", sp.Type)
	assert.Empty(t, sp.References())
}

func TestIsHeaderFooterPart(t *testing.T) {
	assert.True(t, isHeaderFooterPart("word/header1.xml"))
	assert.True(t, isHeaderFooterPart("word/footer12.xml"))
	assert.False(t, isHeaderFooterPart("word/document.xml"))
	assert.False(t, isHeaderFooterPart("word/_rels/header1.xml.rels"), "rels parts travel with their owner")
	assert.False(t, isHeaderFooterPart("header1.xml"))
}

func TestDocRelTargetRoundTrip(t *testing.T) {
	assert.Equal(t, "media/image1.png", docRelTarget("word/media/image1.png"))
	assert.Equal(t, "word/media/image1.png", docRelPart("media/image1.png"))
	assert.Equal(t, "https://example.com/x", docRelPart("https://example.com/x"))
	assert.Equal(t, "customXml/item1.xml", docRelPart("/customXml/item1.xml"))
}
