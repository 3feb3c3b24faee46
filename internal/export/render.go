package export

import (
	"strconv"
	"strings"
)

// Render serializes a composed document to XML. Every value goes through
// Escape; tags come from the kind config tables and are emitted as-is.
func Render(doc *Document) []byte {
	var b strings.Builder

	b.WriteString("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	b.WriteString("<" + doc.RootTag + ">\n")

	h := doc.Header
	b.WriteString("  <header>\n")
	writeTag(&b, 4, "title", h.Title)
	writeTag(&b, 4, h.SubjectTag, h.SubjectName)
	writeTag(&b, 4, "exported_at", h.ExportedAt)
	writeTag(&b, 4, h.CountTag, strconv.Itoa(h.Total))
	b.WriteString("    <period>\n")
	writeTag(&b, 6, "start", h.PeriodStart)
	writeTag(&b, 6, "end", h.PeriodEnd)
	b.WriteString("    </period>\n")
	b.WriteString("  </header>\n")

	b.WriteString("  <weeks>\n")
	for _, w := range doc.Weeks {
		b.WriteString("    <week range=\"" + Escape(w.Range) + "\">\n")
		for _, fields := range w.Items {
			b.WriteString("      <" + doc.ItemTag + ">\n")
			for _, f := range fields {
				writeTag(&b, 8, f.Tag, f.Value)
			}
			b.WriteString("      </" + doc.ItemTag + ">\n")
		}
		b.WriteString("    </week>\n")
	}
	b.WriteString("  </weeks>\n")

	b.WriteString("</" + doc.RootTag + ">\n")

	return []byte(b.String())
}

func writeTag(b *strings.Builder, indent int, tag, value string) {
	b.WriteString(strings.Repeat(" ", indent))
	b.WriteString("<" + tag + ">" + Escape(value) + "</" + tag + ">\n")
}
