package opc

import (
	"encoding/xml"
	"fmt"
	"path"
	"strings"
)

// contentTypesNS is the content-types manifest namespace.
const contentTypesNS = "http://schemas.openxmlformats.org/package/2006/content-types"

// Content types the composition engine declares itself.
const (
	ContentTypeRelationships = "application/vnd.openxmlformats-package.relationships+xml"
	ContentTypeXML           = "application/xml"
	ContentTypeMainDocument  = "application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"
	ContentTypeHeader        = "application/vnd.openxmlformats-officedocument.wordprocessingml.header+xml"
	ContentTypeFooter        = "application/vnd.openxmlformats-officedocument.wordprocessingml.footer+xml"
	ContentTypeStyles        = "application/vnd.openxmlformats-officedocument.wordprocessingml.styles+xml"
	ContentTypeTheme         = "application/vnd.openxmlformats-officedocument.theme+xml"
)

// imageDefaults maps media extensions to their MIME types. Seeded into the
// output manifest for imported media so headers with logos stay readable.
var imageDefaults = map[string]string{
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"gif":  "image/gif",
	"bmp":  "image/bmp",
	"tif":  "image/tiff",
	"tiff": "image/tiff",
	"wmf":  "image/x-wmf",
	"emf":  "image/x-emf",
}

// ImageContentType returns the MIME type for a media extension, or false if
// the extension is not a known image format.
func ImageContentType(ext string) (string, bool) {
	ct, ok := imageDefaults[strings.ToLower(strings.TrimPrefix(ext, "."))]
	return ct, ok
}

// DefaultRule declares the content type for every part with a given
// extension, unless an Override shadows it.
type DefaultRule struct {
	Extension   string `xml:"Extension,attr"`
	ContentType string `xml:"ContentType,attr"`
}

// OverrideRule declares the content type for one exact part path. Part names
// in Override rules carry a leading slash.
type OverrideRule struct {
	PartName    string `xml:"PartName,attr"`
	ContentType string `xml:"ContentType,attr"`
}

// ContentTypes is the package's content-type manifest.
type ContentTypes struct {
	Defaults  []DefaultRule
	Overrides []OverrideRule
}

type contentTypesXML struct {
	XMLName   xml.Name       `xml:"Types"`
	Namespace string         `xml:"xmlns,attr"`
	Defaults  []DefaultRule  `xml:"Default"`
	Overrides []OverrideRule `xml:"Override"`
}

// NewContentTypes returns an empty manifest.
func NewContentTypes() *ContentTypes {
	return &ContentTypes{}
}

// ParseContentTypes decodes a [Content_Types].xml part.
func ParseContentTypes(data []byte) (*ContentTypes, error) {
	var doc contentTypesXML
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse content types XML: %w", err)
	}
	return &ContentTypes{Defaults: doc.Defaults, Overrides: doc.Overrides}, nil
}

// Marshal serializes the manifest.
func (ct *ContentTypes) Marshal() ([]byte, error) {
	doc := contentTypesXML{
		Namespace: contentTypesNS,
		Defaults:  ct.Defaults,
		Overrides: ct.Overrides,
	}
	body, err := xml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize content types XML: %w", err)
	}
	return append([]byte(xml.Header), body...), nil
}

// Clone returns a deep copy of the manifest.
func (ct *ContentTypes) Clone() *ContentTypes {
	out := &ContentTypes{
		Defaults:  make([]DefaultRule, len(ct.Defaults)),
		Overrides: make([]OverrideRule, len(ct.Overrides)),
	}
	copy(out.Defaults, ct.Defaults)
	copy(out.Overrides, ct.Overrides)
	return out
}

// overridePartName normalizes a part name to Override form (leading slash).
func overridePartName(partName string) string {
	return "/" + strings.TrimPrefix(partName, "/")
}

// Lookup resolves the content type applicable to a part. An Override takes
// precedence over a Default for the same part.
func (ct *ContentTypes) Lookup(partName string) (string, bool) {
	want := overridePartName(partName)
	for _, o := range ct.Overrides {
		if o.PartName == want {
			return o.ContentType, true
		}
	}
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(partName), "."))
	if ext != "" {
		for _, d := range ct.Defaults {
			if strings.EqualFold(d.Extension, ext) {
				return d.ContentType, true
			}
		}
	}
	return "", false
}

// Covers reports whether any rule applies to the part.
func (ct *ContentTypes) Covers(partName string) bool {
	_, ok := ct.Lookup(partName)
	return ok
}

// EnsureDefault adds a Default rule only when no Default for the extension
// exists yet. Returns true when a rule was added.
func (ct *ContentTypes) EnsureDefault(ext, contentType string) bool {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	for _, d := range ct.Defaults {
		if strings.EqualFold(d.Extension, ext) {
			return false
		}
	}
	ct.Defaults = append(ct.Defaults, DefaultRule{Extension: ext, ContentType: contentType})
	return true
}

// EnsureOverride adds an Override only when no existing Override or matching
// Default already covers the part. Returns true when a rule was added. Two
// Overrides never target the same part path.
func (ct *ContentTypes) EnsureOverride(partName, contentType string) bool {
	if existing, ok := ct.Lookup(partName); ok && existing == contentType {
		return false
	}
	want := overridePartName(partName)
	for _, o := range ct.Overrides {
		if o.PartName == want {
			return false
		}
	}
	ct.Overrides = append(ct.Overrides, OverrideRule{PartName: want, ContentType: contentType})
	return true
}

// Validate checks that every part in the package is covered by at least one
// rule. It must pass before serialization; a single uncovered part makes
// readers reject the whole package.
func (ct *ContentTypes) Validate(pkg *Package) error {
	for _, name := range pkg.PartNames() {
		if !ct.Covers(name) {
			return &UndeclaredPartTypeError{PartName: name}
		}
	}
	return nil
}
