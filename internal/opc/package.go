package opc

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/flate"
)

// ContentTypesPartName is the zip entry holding the content-type manifest.
// It is modeled separately from ordinary parts because it describes them.
const ContentTypesPartName = "[Content_Types].xml"

// Part is a single named entry in an OOXML package. Names use forward
// slashes and carry no leading slash ("word/document.xml").
type Part struct {
	Name string
	Data []byte
}

// Package is the in-memory form of one OOXML package. It is constructed
// fresh per composition request and never shared between requests.
type Package struct {
	parts map[string]*Part
	order []string
	types *ContentTypes
}

// NewPackage returns an empty package with an empty content-type manifest.
func NewPackage() *Package {
	return &Package{
		parts: make(map[string]*Part),
		types: NewContentTypes(),
	}
}

// Open reads an OOXML package from disk. The input file is fully loaded into
// memory; no part content is mutated during load.
func Open(path string) (*Package, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read package file: %w", err)
	}
	pkg, err := OpenReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		if ce, ok := err.(*CorruptPackageError); ok {
			ce.Path = path
		}
		return nil, err
	}
	return pkg, nil
}

// OpenReader reads an OOXML package from an in-memory zip container.
func OpenReader(r io.ReaderAt, size int64) (*Package, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, &CorruptPackageError{Message: "not a zip container", Cause: err}
	}

	pkg := &Package{parts: make(map[string]*Part)}
	for _, f := range zr.File {
		if strings.HasSuffix(f.Name, "/") {
			continue // directory entry
		}
		rc, err := f.Open()
		if err != nil {
			return nil, &CorruptPackageError{Message: fmt.Sprintf("cannot open entry %s", f.Name), Cause: err}
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, &CorruptPackageError{Message: fmt.Sprintf("cannot read entry %s", f.Name), Cause: err}
		}
		name := strings.TrimPrefix(f.Name, "/")
		if name == ContentTypesPartName {
			types, err := ParseContentTypes(data)
			if err != nil {
				return nil, &CorruptPackageError{Message: "invalid content-type manifest", Cause: err}
			}
			pkg.types = types
			continue
		}
		pkg.setPart(name, data)
	}

	if pkg.types == nil {
		return nil, &CorruptPackageError{Message: "missing " + ContentTypesPartName}
	}
	return pkg, nil
}

// Part returns the named part, or a MissingPartError.
func (p *Package) Part(name string) (*Part, error) {
	part, ok := p.parts[name]
	if !ok {
		return nil, &MissingPartError{PartName: name}
	}
	return part, nil
}

// HasPart reports whether the named part exists.
func (p *Package) HasPart(name string) bool {
	_, ok := p.parts[name]
	return ok
}

// SetPart adds or replaces a part's content.
func (p *Package) SetPart(name string, data []byte) {
	p.setPart(name, data)
}

func (p *Package) setPart(name string, data []byte) {
	if _, ok := p.parts[name]; !ok {
		p.order = append(p.order, name)
	}
	p.parts[name] = &Part{Name: name, Data: data}
}

// RemovePart deletes a part if present.
func (p *Package) RemovePart(name string) {
	if _, ok := p.parts[name]; !ok {
		return
	}
	delete(p.parts, name)
	for i, n := range p.order {
		if n == name {
			p.order = append(p.order[:i], p.order[i+1:]...)
			break
		}
	}
}

// PartNames returns all part names in load order.
func (p *Package) PartNames() []string {
	names := make([]string, len(p.order))
	copy(names, p.order)
	return names
}

// Types returns the package's content-type manifest.
func (p *Package) Types() *ContentTypes {
	return p.types
}

// Clone returns a deep copy of the package. The template package is opened
// once per request and cloned into the output shell, so the source is never
// mutated.
func (p *Package) Clone() *Package {
	out := &Package{
		parts: make(map[string]*Part, len(p.parts)),
		order: make([]string, len(p.order)),
		types: p.types.Clone(),
	}
	copy(out.order, p.order)
	for name, part := range p.parts {
		data := make([]byte, len(part.Data))
		copy(data, part.Data)
		out.parts[name] = &Part{Name: name, Data: data}
	}
	return out
}

// relsPartName maps a part name to its relationship collection's part name.
// The package root ("") maps to _rels/.rels.
func relsPartName(source string) string {
	if source == "" {
		return "_rels/.rels"
	}
	dir, base := filepath.Split(source)
	return dir + "_rels/" + base + ".rels"
}

// Rels returns the relationship collection owned by the given source part
// (or the package root for ""). A missing .rels part yields an empty
// collection, not an error.
func (p *Package) Rels(source string) (*Relationships, error) {
	part, ok := p.parts[relsPartName(source)]
	if !ok {
		return NewRelationships(), nil
	}
	rels, err := ParseRelationships(part.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse relationships for %q: %w", source, err)
	}
	return rels, nil
}

// SetRels serializes and stores the relationship collection for a source part.
func (p *Package) SetRels(source string, rels *Relationships) error {
	data, err := rels.Marshal()
	if err != nil {
		return fmt.Errorf("failed to serialize relationships for %q: %w", source, err)
	}
	p.setPart(relsPartName(source), data)
	return nil
}

// saveOrder gives the zip a deterministic layout: manifest first, root
// relationships next, then everything else lexicographically.
func (p *Package) saveOrder() []string {
	names := make([]string, 0, len(p.order))
	for _, n := range p.order {
		if n != "_rels/.rels" {
			names = append(names, n)
		}
	}
	sort.Strings(names)
	if p.HasPart("_rels/.rels") {
		names = append([]string{"_rels/.rels"}, names...)
	}
	return names
}

// WriteTo serializes the package as a zip container. Every part must be
// covered by a content-type rule; violating that is the most common way to
// produce a package readers reject, so it fails here rather than emitting a
// broken file.
func (p *Package) WriteTo(w io.Writer) error {
	if err := p.types.Validate(p); err != nil {
		return err
	}

	zw := zip.NewWriter(w)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, flate.DefaultCompression)
	})

	manifest, err := p.types.Marshal()
	if err != nil {
		return fmt.Errorf("failed to serialize content-type manifest: %w", err)
	}
	entry, err := zw.Create(ContentTypesPartName)
	if err != nil {
		return fmt.Errorf("failed to create manifest entry: %w", err)
	}
	if _, err := entry.Write(manifest); err != nil {
		return fmt.Errorf("failed to write manifest entry: %w", err)
	}

	for _, name := range p.saveOrder() {
		entry, err := zw.Create(name)
		if err != nil {
			return fmt.Errorf("failed to create entry %s: %w", name, err)
		}
		if _, err := entry.Write(p.parts[name].Data); err != nil {
			return fmt.Errorf("failed to write entry %s: %w", name, err)
		}
	}
	return zw.Close()
}

// Save writes the package to path atomically: the zip is built in a sibling
// temporary file and renamed over the destination only on full success, so a
// failed save never leaves a partial or truncated output behind.
func (p *Package) Save(path string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".docbrand-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary output in %s: %w", dir, err)
	}
	tmpPath := tmp.Name()

	if err := p.WriteTo(tmp); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to sync output: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close output: %w", err)
	}
	// CreateTemp opens the file 0600; widen it so the rename does not hand
	// the caller an owner-only output.
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to set output permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to move output into place: %w", err)
	}
	return nil
}
