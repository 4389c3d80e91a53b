package wordml

import (
	"bytes"
	"encoding/xml"
)

// BuildParagraph serializes a re-authored paragraph: the style reference,
// then each run with its original formatting properties and text. Explicit
// line breaks and tabs in run text come back out as <w:br/> and <w:tab/>.
func BuildParagraph(style string, runs []Run) []byte {
	var buf bytes.Buffer
	buf.WriteString("<w:p>")
	if style != "" {
		buf.WriteString(`<w:pPr><w:pStyle w:val="` + escapeAttr(style) + `"/></w:pPr>`)
	}
	for _, run := range runs {
		writeRun(&buf, run)
	}
	buf.WriteString("</w:p>")
	return buf.Bytes()
}

func writeRun(buf *bytes.Buffer, run Run) {
	buf.WriteString("<w:r>")
	if len(run.Props) > 0 {
		buf.Write(run.Props)
	}
	writeRunText(buf, run.Text)
	buf.WriteString("</w:r>")
}

// writeRunText emits the text content of a run, translating "\n" and "\t"
// back into break and tab elements.
func writeRunText(buf *bytes.Buffer, text string) {
	start := 0
	flush := func(end int) {
		if end > start {
			buf.WriteString(`<w:t xml:space="preserve">`)
			_ = xml.EscapeText(buf, []byte(text[start:end]))
			buf.WriteString(`</w:t>`)
		}
	}
	for i, r := range text {
		switch r {
		case '\n':
			flush(i)
			buf.WriteString("<w:br/>")
			start = i + 1
		case '\t':
			flush(i)
			buf.WriteString("<w:tab/>")
			start = i + 1
		}
	}
	flush(len(text))
}

// BuildTable serializes a re-authored table: a plain auto-width grid
// carrying the source cells' paragraphs. Cell-level shading, spans, and
// widths are not preserved; a table whose appearance depends on them should
// have been flagged unsupported before reaching this point.
func BuildTable(t *Table) []byte {
	cols := 0
	for _, row := range t.Rows {
		if len(row.Cells) > cols {
			cols = len(row.Cells)
		}
	}

	var buf bytes.Buffer
	buf.WriteString("<w:tbl>")
	buf.WriteString(`<w:tblPr><w:tblW w:w="0" w:type="auto"/></w:tblPr>`)
	buf.WriteString("<w:tblGrid>")
	for i := 0; i < cols; i++ {
		buf.WriteString("<w:gridCol/>")
	}
	buf.WriteString("</w:tblGrid>")
	for _, row := range t.Rows {
		buf.WriteString("<w:tr>")
		for _, cell := range row.Cells {
			buf.WriteString("<w:tc><w:tcPr/>")
			if len(cell.Paragraphs) == 0 {
				// A cell must hold at least one paragraph to be valid.
				buf.WriteString("<w:p/>")
			}
			for _, para := range cell.Paragraphs {
				buf.Write(BuildParagraph(para.Style, para.Runs))
			}
			buf.WriteString("</w:tc>")
		}
		buf.WriteString("</w:tr>")
	}
	buf.WriteString("</w:tbl>")
	return buf.Bytes()
}
