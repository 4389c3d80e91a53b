package compose

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cybergen/docbrand/internal/opc"
)

const inputManifest = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
  <Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
  <Default Extension="xml" ContentType="application/xml"/>
  <Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
  <Override PartName="/word/styles.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.styles+xml"/>
</Types>`

const templateManifest = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
  <Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
  <Default Extension="xml" ContentType="application/xml"/>
  <Default Extension="png" ContentType="image/png"/>
  <Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
  <Override PartName="/word/styles.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.styles+xml"/>
  <Override PartName="/word/theme/theme1.xml" ContentType="application/vnd.openxmlformats-officedocument.theme+xml"/>
  <Override PartName="/word/header1.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.header+xml"/>
  <Override PartName="/word/footer1.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.footer+xml"/>
</Types>`

const rootRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
  <Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`

const inputDocRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
  <Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles" Target="styles.xml"/>
</Relationships>`

const templateDocRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
  <Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles" Target="styles.xml"/>
  <Relationship Id="rId2" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/theme" Target="theme/theme1.xml"/>
  <Relationship Id="rId3" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/header" Target="header1.xml"/>
  <Relationship Id="rId4" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/footer" Target="footer1.xml"/>
</Relationships>`

const headerRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
  <Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/image" Target="media/logo.png"/>
</Relationships>`

const documentXMLDecl = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships">`

const inputDocument = documentXMLDecl + `<w:body>` +
	`<w:p><w:pPr><w:pStyle w:val="Heading1"/></w:pPr><w:r><w:t>Quarterly Report</w:t></w:r></w:p>` +
	`<w:p><w:r><w:rPr><w:b/></w:rPr><w:t>Revenue grew in every region.</w:t></w:r></w:p>` +
	`<w:sectPr><w:pgSz w:w="12240" w:h="15840"/></w:sectPr>` +
	`</w:body></w:document>`

const unsupportedInputDocument = documentXMLDecl + `<w:body>` +
	`<w:p><w:r><w:t>Chart follows.</w:t></w:r></w:p>` +
	`<w:p><w:r><w:drawing><wp:inline xmlns:wp="ns"><a:blip xmlns:a="ns2" r:embed="rId2"/></wp:inline></w:drawing></w:r></w:p>` +
	`<w:sectPr><w:pgSz w:w="12240" w:h="15840"/></w:sectPr>` +
	`</w:body></w:document>`

const templateDocument = documentXMLDecl + `<w:body>` +
	`<w:p><w:r><w:t>Replace me</w:t></w:r></w:p>` +
	`<w:sectPr>` +
	`<w:headerReference w:type="default" r:id="rId3"/>` +
	`<w:footerReference w:type="default" r:id="rId4"/>` +
	`<w:pgSz w:w="11906" w:h="16838" w:orient="portrait"/>` +
	`<w:pgMar w:top="1440" w:right="1440" w:bottom="1440" w:left="1440" w:header="720" w:footer="720" w:gutter="0"/>` +
	`<w:titlePg/>` +
	`</w:sectPr>` +
	`</w:body></w:document>`

const inputStyles = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:styles xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">` +
	`<w:style w:type="paragraph" w:styleId="Normal"><w:name w:val="Normal"/></w:style>` +
	`<w:style w:type="paragraph" w:styleId="Heading1"><w:name w:val="target heading"/></w:style>` +
	`</w:styles>`

const templateStyles = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:styles xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">` +
	`<w:docDefaults><w:rPrDefault><w:rPr><w:sz w:val="22"/></w:rPr></w:rPrDefault></w:docDefaults>` +
	`<w:style w:type="paragraph" w:styleId="Normal"><w:name w:val="Normal"/></w:style>` +
	`<w:style w:type="paragraph" w:styleId="Heading1"><w:name w:val="brand heading"/></w:style>` +
	`<w:style w:type="paragraph" w:styleId="BrandTitle"><w:name w:val="Brand Title"/></w:style>` +
	`</w:styles>`

const templateHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:hdr xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships">` +
	`<w:p><w:r><w:t>Acme Corporation</w:t></w:r><w:r><w:drawing><a:blip xmlns:a="ns" r:embed="rId1"/></w:drawing></w:r></w:p></w:hdr>`

const templateFooter = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:ftr xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">` +
	`<w:p><w:r><w:t>Confidential</w:t></w:r></w:p></w:ftr>`

const templateTheme = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<a:theme xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" name="Acme"/>`

const templateLogo = "\x89PNG-acme-logo-bytes"

func inputEntries() map[string]string {
	return map[string]string{
		opc.ContentTypesPartName:       inputManifest,
		"_rels/.rels":                  rootRels,
		"word/_rels/document.xml.rels": inputDocRels,
		"word/document.xml":            inputDocument,
		"word/styles.xml":              inputStyles,
	}
}

func templateEntries() map[string]string {
	return map[string]string{
		opc.ContentTypesPartName:       templateManifest,
		"_rels/.rels":                  rootRels,
		"word/_rels/document.xml.rels": templateDocRels,
		"word/_rels/header1.xml.rels":  headerRels,
		"word/document.xml":            templateDocument,
		"word/styles.xml":              templateStyles,
		"word/theme/theme1.xml":        templateTheme,
		"word/header1.xml":             templateHeader,
		"word/footer1.xml":             templateFooter,
		"word/media/logo.png":          templateLogo,
	}
}

// zipBytes assembles a zip container in memory.
func zipBytes(t *testing.T, entries map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range entries {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func openEntries(t *testing.T, entries map[string]string) *opc.Package {
	t.Helper()
	data := zipBytes(t, entries)
	pkg, err := opc.OpenReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	return pkg
}

func writeDocx(t *testing.T, dir, name string, entries map[string]string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, zipBytes(t, entries), 0o644))
	return path
}

func docString(t *testing.T, pkg *opc.Package, partName string) string {
	t.Helper()
	part, err := pkg.Part(partName)
	require.NoError(t, err)
	return string(part.Data)
}
