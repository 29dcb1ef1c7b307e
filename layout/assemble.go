package layout

import (
	"strings"

	"golang.org/x/net/html"
)

// Assemble wraps concatenated page fragments into a complete document.
// The result carries its stylesheet inline and references nothing
// external, so it is viewable as a standalone file.
func Assemble(body, styles, title string) string {
	var sb strings.Builder
	sb.Grow(len(body) + len(styles) + 256)
	sb.WriteString("<!DOCTYPE html>\n<html>\n<head>\n")
	sb.WriteString(`<meta charset="utf-8">` + "\n")
	sb.WriteString(`<meta name="viewport" content="width=device-width, initial-scale=1">` + "\n")
	sb.WriteString("<title>")
	sb.WriteString(html.EscapeString(title))
	sb.WriteString("</title>\n<style>")
	sb.WriteString(styles)
	sb.WriteString("</style>\n</head>\n<body>\n")
	sb.WriteString(body)
	sb.WriteString("</body>\n</html>\n")
	return sb.String()
}
