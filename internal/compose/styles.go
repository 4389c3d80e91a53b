package compose

import (
	"bytes"
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/cybergen/docbrand/internal/opc"
	"github.com/cybergen/docbrand/internal/wordml"
)

// onlyIfAbsentParts are copied from the template wholesale only when the
// target lacks them; when both packages carry one, the target's wins so its
// own content never changes behavior. The theme part is the exception and is
// handled separately: branding colors and fonts always come from the
// template.
var onlyIfAbsentParts = []string{NumberingPart, FontTablePart, SettingsPart, WebSettingsPart}

// MergeStyleParts brings the template's typographic identity into the target
// package: the document-default style block only if the target declares
// none, named styles only for ids the target does not define, the theme
// always, and the remaining support parts only when absent. Returns notes
// describing reduced branding (missing template parts).
func MergeStyleParts(target, template *opc.Package) ([]string, error) {
	var notes []string

	note, err := mergeStylesPart(target, template)
	if err != nil {
		return nil, err
	}
	notes = append(notes, note...)

	if templatePart, err := template.Part(ThemePart); err == nil {
		target.SetPart(ThemePart, templatePart.Data)
		if err := declarePart(target, template, ThemePart, opc.RelTypeTheme); err != nil {
			return nil, err
		}
	} else {
		notes = append(notes, (&MissingTemplatePartError{PartName: ThemePart}).Error())
	}

	for _, name := range onlyIfAbsentParts {
		templatePart, err := template.Part(name)
		if err != nil {
			continue
		}
		if target.HasPart(name) {
			continue
		}
		target.SetPart(name, templatePart.Data)
		if err := declarePart(target, template, name, ""); err != nil {
			return nil, err
		}
	}

	return notes, nil
}

// mergeStylesPart merges word/styles.xml per the collision rules: the
// target's definition always wins for a shared style id.
func mergeStylesPart(target, template *opc.Package) ([]string, error) {
	templatePart, err := template.Part(StylesPart)
	if err != nil {
		return []string{(&MissingTemplatePartError{PartName: StylesPart}).Error()}, nil
	}

	targetPart, err := target.Part(StylesPart)
	if err != nil {
		// No style sheet to preserve; take the template's outright.
		target.SetPart(StylesPart, templatePart.Data)
		return nil, declarePart(target, template, StylesPart, opc.RelTypeStyles)
	}

	templateStyles, err := wordml.ParseStyles(templatePart.Data)
	if err != nil {
		return nil, fmt.Errorf("template styles: %w", err)
	}
	targetStyles, err := wordml.ParseStyles(targetPart.Data)
	if err != nil {
		return nil, fmt.Errorf("target styles: %w", err)
	}

	changed := false
	if defaults := templateStyles.DocDefaults(); defaults != nil {
		if targetStyles.SetDocDefaults(defaults) {
			changed = true
		}
	}
	for _, id := range templateStyles.StyleIDs() {
		if targetStyles.AppendStyle(id, templateStyles.StyleRaw(id)) {
			changed = true
		}
	}
	if changed {
		target.SetPart(StylesPart, targetStyles.Marshal())
	}
	return nil, nil
}

// declarePart registers a copied part in the target's content-type manifest
// and, when relType is non-empty or discoverable from the template's
// document relationships, wires a document-level relationship to it.
func declarePart(target, template *opc.Package, partName, relType string) error {
	if ct, ok := template.Types().Lookup(partName); ok {
		target.Types().EnsureOverride(partName, ct)
	}

	if relType == "" {
		templateRels, err := template.Rels(DocumentPart)
		if err != nil {
			return err
		}
		for _, rel := range templateRels.All() {
			if docRelPart(rel.Target) == partName {
				relType = rel.Type
				break
			}
		}
		if relType == "" {
			return nil
		}
	}

	targetRels, err := target.Rels(DocumentPart)
	if err != nil {
		return err
	}
	targetRels.Ensure(relType, docRelTarget(partName))
	return target.SetRels(DocumentPart, targetRels)
}

// CopyMedia copies every media part from the template into the target,
// renaming only on content collision, and registers each extension in the
// content-type manifest. The returned map holds renames in
// document-relative target form ("media/image1.png" -> "media/image3.png")
// for relationship rewriting.
func CopyMedia(target, template *opc.Package) (map[string]string, error) {
	renames := make(map[string]string)
	for _, name := range template.PartNames() {
		if !isMediaPart(name) {
			continue
		}
		templatePart, _ := template.Part(name)

		destName := name
		if existing, err := target.Part(name); err == nil && !bytes.Equal(existing.Data, templatePart.Data) {
			destName = freeMediaName(target, name)
			renames[docRelTarget(name)] = docRelTarget(destName)
		}
		target.SetPart(destName, templatePart.Data)

		ext := strings.TrimPrefix(path.Ext(destName), ".")
		if ct, ok := template.Types().Lookup(destName); ok {
			target.Types().EnsureDefault(ext, ct)
		} else if ct, ok := opc.ImageContentType(ext); ok {
			target.Types().EnsureDefault(ext, ct)
		}
	}
	return renames, nil
}

// freeMediaName finds an unused media part name by bumping a numeric suffix
// on the base name.
func freeMediaName(target *opc.Package, name string) string {
	ext := path.Ext(name)
	base := strings.TrimSuffix(name, ext)
	base = strings.TrimRightFunc(base, func(r rune) bool { return r >= '0' && r <= '9' })
	for i := 1; ; i++ {
		candidate := base + strconv.Itoa(i) + ext
		if !target.HasPart(candidate) {
			return candidate
		}
	}
}

// CopyHeaderFooterParts copies every header and footer part from the
// template into the target, overwriting any same-named part, together with
// each part's own relationship collection (media targets rewritten per the
// rename map). Returns the copied part names.
func CopyHeaderFooterParts(target, template *opc.Package, renames map[string]string) ([]string, error) {
	var copied []string
	for _, name := range template.PartNames() {
		if !isHeaderFooterPart(name) {
			continue
		}
		part, _ := template.Part(name)
		target.SetPart(name, part.Data)
		copied = append(copied, name)

		if ct, ok := template.Types().Lookup(name); ok {
			target.Types().EnsureOverride(name, ct)
		}

		rels, err := template.Rels(name)
		if err != nil {
			return nil, err
		}
		if rels.Len() == 0 {
			continue
		}
		rels.RewriteTargets(renames)
		if err := target.SetRels(name, rels); err != nil {
			return nil, err
		}
	}
	return copied, nil
}
