package compose

import (
	"fmt"

	"github.com/cybergen/docbrand/internal/opc"
	"github.com/cybergen/docbrand/internal/wordml"
)

// skippableBodyElements are body children dropped without consequence when
// re-authoring content into the template shell.
var skippableBodyElements = map[string]bool{
	"bookmarkStart": true,
	"bookmarkEnd":   true,
	"proofErr":      true,
}

// primaryMerge builds the output inside a clone of the template package: the
// shell keeps its own header/footer wiring, styles, and theme, and the
// target's paragraphs and tables are re-authored into its body. This is the
// cleanest strategy because nothing in the shell's relationship graph needs
// remapping, but it only works when the target's content model can be
// expressed as text, run formatting, and basic style assignment.
func primaryMerge(input, template *opc.Package) (*opc.Package, []string, error) {
	shell := template.Clone()

	inputDocPart, err := input.Part(DocumentPart)
	if err != nil {
		return nil, nil, &CompositionError{Strategy: "primary", Message: "input has no main document part", Cause: err}
	}
	inputDoc, err := wordml.ParseDocument(inputDocPart.Data)
	if err != nil {
		return nil, nil, &CompositionError{Strategy: "primary", Message: "input document is not parseable", Cause: err}
	}

	shellDocPart, err := shell.Part(DocumentPart)
	if err != nil {
		return nil, nil, &CompositionError{Strategy: "primary", Message: "template has no main document part", Cause: err}
	}
	shellDoc, err := wordml.ParseDocument(shellDocPart.Data)
	if err != nil {
		return nil, nil, &CompositionError{Strategy: "primary", Message: "template document is not parseable", Cause: err}
	}

	shellStyles := shellStyleIDs(shell)

	elements := make([]wordml.BodyElement, 0, len(inputDoc.Body.Elements))
	paragraphs, tables := 0, 0
	for _, el := range inputDoc.Body.Elements {
		switch e := el.(type) {
		case *wordml.Paragraph:
			if e.Unsupported {
				return nil, nil, &CompositionError{Strategy: "primary", Message: "paragraph content cannot be re-authored"}
			}
			style := e.Style
			if style != "" && !shellStyles[style] {
				style = ""
			}
			elements = append(elements, &wordml.RawElement{Raw: wordml.BuildParagraph(style, e.Runs)})
			paragraphs++
		case *wordml.Table:
			if e.Unsupported {
				return nil, nil, &CompositionError{Strategy: "primary", Message: "table content cannot be re-authored"}
			}
			elements = append(elements, &wordml.RawElement{Raw: wordml.BuildTable(e)})
			tables++
		case *wordml.RawElement:
			if skippableBodyElements[e.Name] {
				continue
			}
			return nil, nil, &CompositionError{Strategy: "primary", Message: fmt.Sprintf("unsupported body element %s", e.Name)}
		default:
			return nil, nil, &CompositionError{Strategy: "primary", Message: "unsupported body element"}
		}
	}

	sectPr := shellDoc.Body.SectPr
	if sectPr == nil {
		sectPr = wordml.NewSectionProperties()
		sectPr.CopyGeometry(nil)
	}
	// A branded batch gets one uniform header/footer set; first-page
	// variants from the template are flattened.
	sectPr.TitlePage = false

	shell.SetPart(DocumentPart, shellDoc.Splice(elements, sectPr))

	notes := []string{fmt.Sprintf("re-authored %d paragraphs and %d tables into template shell", paragraphs, tables)}
	return shell, notes, nil
}

// shellStyleIDs returns the style ids defined in the shell's style sheet.
// Style assignments the shell cannot resolve are dropped during re-authoring.
func shellStyleIDs(shell *opc.Package) map[string]bool {
	ids := make(map[string]bool)
	part, err := shell.Part(StylesPart)
	if err != nil {
		return ids
	}
	styles, err := wordml.ParseStyles(part.Data)
	if err != nil {
		return ids
	}
	for _, id := range styles.StyleIDs() {
		ids[id] = true
	}
	return ids
}
