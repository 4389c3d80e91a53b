package opc

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalManifest = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
  <Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
  <Default Extension="xml" ContentType="application/xml"/>
  <Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`

const minimalRootRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
  <Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`

const minimalDocument = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"><w:body><w:p/></w:body></w:document>`

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

func minimalEntries() map[string]string {
	return map[string]string{
		ContentTypesPartName: minimalManifest,
		"_rels/.rels":        minimalRootRels,
		"word/document.xml":  minimalDocument,
	}
}

func writePackageFile(t *testing.T, entries map[string]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pkg.docx")
	require.NoError(t, os.WriteFile(path, zipBytes(t, entries), 0o644))
	return path
}

func TestOpen_ValidPackage(t *testing.T) {
	pkg, err := Open(writePackageFile(t, minimalEntries()))
	require.NoError(t, err)

	assert.True(t, pkg.HasPart("word/document.xml"))
	assert.True(t, pkg.HasPart("_rels/.rels"))
	assert.False(t, pkg.HasPart(ContentTypesPartName), "manifest is modeled separately from parts")

	part, err := pkg.Part("word/document.xml")
	require.NoError(t, err)
	assert.Equal(t, []byte(minimalDocument), part.Data)
}

func TestOpen_NotZip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.docx")
	require.NoError(t, os.WriteFile(path, []byte("this is not a zip container"), 0o644))

	_, err := Open(path)
	require.Error(t, err)
	var corrupt *CorruptPackageError
	assert.ErrorAs(t, err, &corrupt)
	assert.Equal(t, path, corrupt.Path)
}

func TestOpen_MissingManifest(t *testing.T) {
	entries := minimalEntries()
	delete(entries, ContentTypesPartName)

	_, err := Open(writePackageFile(t, entries))
	require.Error(t, err)
	var corrupt *CorruptPackageError
	assert.ErrorAs(t, err, &corrupt)
}

func TestOpen_MissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "absent.docx"))
	assert.Error(t, err)
}

func TestPart_Missing(t *testing.T) {
	pkg, err := Open(writePackageFile(t, minimalEntries()))
	require.NoError(t, err)

	_, err = pkg.Part("word/nope.xml")
	var missing *MissingPartError
	assert.ErrorAs(t, err, &missing)
	assert.Equal(t, "word/nope.xml", missing.PartName)
}

func TestRoundTrip_NoOp(t *testing.T) {
	pkg, err := Open(writePackageFile(t, minimalEntries()))
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "out.docx")
	require.NoError(t, pkg.Save(out))

	reloaded, err := Open(out)
	require.NoError(t, err)

	want := pkg.PartNames()
	got := reloaded.PartNames()
	sort.Strings(want)
	sort.Strings(got)
	assert.Equal(t, want, got, "part set must survive a structural no-op")

	assert.Equal(t, pkg.Types().Defaults, reloaded.Types().Defaults)
	assert.Equal(t, pkg.Types().Overrides, reloaded.Types().Overrides)

	for _, name := range want {
		orig, err := pkg.Part(name)
		require.NoError(t, err)
		copied, err := reloaded.Part(name)
		require.NoError(t, err)
		assert.Equal(t, orig.Data, copied.Data, name)
	}
}

func TestSave_OutputIsWorldReadable(t *testing.T) {
	pkg, err := Open(writePackageFile(t, minimalEntries()))
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "out.docx")
	require.NoError(t, pkg.Save(out))

	info, err := os.Stat(out)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm(),
		"output must not inherit the temporary file's owner-only mode")
}

func TestSave_RefusesUndeclaredPart(t *testing.T) {
	pkg, err := Open(writePackageFile(t, minimalEntries()))
	require.NoError(t, err)
	pkg.SetPart("word/media/logo.png", []byte{0x89, 0x50})

	out := filepath.Join(t.TempDir(), "out.docx")
	err = pkg.Save(out)
	require.Error(t, err)
	var undeclared *UndeclaredPartTypeError
	assert.ErrorAs(t, err, &undeclared)
	assert.Equal(t, "word/media/logo.png", undeclared.PartName)

	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr), "failed save must not leave an output file")
}

func TestSave_NeverClobbersExistingOutputOnFailure(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.docx")
	require.NoError(t, os.WriteFile(out, []byte("previous output"), 0o644))

	pkg, err := Open(writePackageFile(t, minimalEntries()))
	require.NoError(t, err)
	pkg.SetPart("word/media/logo.png", []byte{0x89}) // undeclared, save will fail

	require.Error(t, pkg.Save(out))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, []byte("previous output"), data)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary files left behind")
}

func TestSave_ReplacesExistingOutput(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.docx")
	require.NoError(t, os.WriteFile(out, []byte("stale"), 0o644))

	pkg, err := Open(writePackageFile(t, minimalEntries()))
	require.NoError(t, err)
	require.NoError(t, pkg.Save(out))

	_, err = Open(out)
	assert.NoError(t, err)
}

func TestRels_MissingCollectionIsEmpty(t *testing.T) {
	pkg, err := Open(writePackageFile(t, minimalEntries()))
	require.NoError(t, err)

	rels, err := pkg.Rels("word/document.xml")
	require.NoError(t, err)
	assert.Equal(t, 0, rels.Len())
}

func TestRels_RootCollection(t *testing.T) {
	pkg, err := Open(writePackageFile(t, minimalEntries()))
	require.NoError(t, err)

	rels, err := pkg.Rels("")
	require.NoError(t, err)
	require.Equal(t, 1, rels.Len())
	rel, ok := rels.ByID("rId1")
	require.True(t, ok)
	assert.Equal(t, RelTypeOfficeDocument, rel.Type)
	assert.Equal(t, "word/document.xml", rel.Target)
}

func TestSetRels_RoundTrip(t *testing.T) {
	pkg, err := Open(writePackageFile(t, minimalEntries()))
	require.NoError(t, err)

	rels := NewRelationships()
	_, err = rels.Add(Relationship{Type: RelTypeHeader, Target: "header1.xml"})
	require.NoError(t, err)
	require.NoError(t, pkg.SetRels("word/document.xml", rels))

	reparsed, err := pkg.Rels("word/document.xml")
	require.NoError(t, err)
	require.Equal(t, 1, reparsed.Len())
	rel, ok := reparsed.ByID("rId1")
	require.True(t, ok)
	assert.Equal(t, "header1.xml", rel.Target)
}

func TestClone_Independent(t *testing.T) {
	pkg, err := Open(writePackageFile(t, minimalEntries()))
	require.NoError(t, err)

	clone := pkg.Clone()
	clone.SetPart("word/extra.xml", []byte("<x/>"))
	clone.Types().EnsureDefault("png", "image/png")

	assert.False(t, pkg.HasPart("word/extra.xml"))
	assert.False(t, pkg.Types().Covers("word/media/a.png"))
	assert.True(t, clone.Types().Covers("word/media/a.png"))
}

func TestRemovePart(t *testing.T) {
	pkg, err := Open(writePackageFile(t, minimalEntries()))
	require.NoError(t, err)

	pkg.RemovePart("word/document.xml")
	assert.False(t, pkg.HasPart("word/document.xml"))
	assert.NotContains(t, pkg.PartNames(), "word/document.xml")
}
