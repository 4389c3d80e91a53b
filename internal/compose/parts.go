package compose

import (
	"path"
	"strings"
)

// Well-known part names within a wordprocessing package.
const (
	DocumentPart    = "word/document.xml"
	StylesPart      = "word/styles.xml"
	ThemePart       = "word/theme/theme1.xml"
	NumberingPart   = "word/numbering.xml"
	FontTablePart   = "word/fontTable.xml"
	SettingsPart    = "word/settings.xml"
	WebSettingsPart = "word/webSettings.xml"
	MediaDir        = "word/media/"
)

// isHeaderFooterPart matches word/header1.xml, word/footer2.xml, and so on.
// Relationship parts are handled alongside their owning part, never matched
// directly.
func isHeaderFooterPart(name string) bool {
	if !strings.HasPrefix(name, "word/") || strings.Contains(name, "_rels/") {
		return false
	}
	base := path.Base(name)
	return strings.HasPrefix(base, "header") || strings.HasPrefix(base, "footer")
}

func isMediaPart(name string) bool {
	return strings.HasPrefix(name, MediaDir)
}

// docRelTarget converts a part name to a target relative to the document
// part ("word/media/image1.png" -> "media/image1.png").
func docRelTarget(partName string) string {
	return strings.TrimPrefix(partName, "word/")
}

// docRelPart converts a document-relative relationship target back to a part
// name. External targets and absolute targets are returned unchanged.
func docRelPart(target string) string {
	if strings.Contains(target, "://") {
		return target
	}
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(target, "/")
	}
	return "word/" + target
}
