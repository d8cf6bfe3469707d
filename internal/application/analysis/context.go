package analysis

import (
	"fmt"
	"net/url"
	"strings"
)

// ExtractContext derives a human-readable label and a minimal context snippet
// from a URL alone. Used when the crawler gave us nothing richer (no anchor
// text, no surrounding HTML). It never fails; unparseable input yields "Link".
func ExtractContext(raw string) (linkText, htmlContext string) {
	u, err := url.Parse(raw)
	if err != nil {
		return "Link", ""
	}

	segment := ""
	for _, part := range strings.Split(u.Path, "/") {
		if part != "" {
			segment = part
		}
	}
	if segment == "" {
		segment = "Home"
	}

	for _, ext := range []string{".html", ".htm", ".php"} {
		if strings.HasSuffix(strings.ToLower(segment), ext) {
			segment = segment[:len(segment)-len(ext)]
			break
		}
	}

	segment = strings.ReplaceAll(segment, "-", " ")
	segment = strings.ReplaceAll(segment, "_", " ")
	linkText = titleCase(segment)
	if linkText == "" {
		linkText = "Link"
	}

	htmlContext = fmt.Sprintf(`<a href="%s">%s</a>`, raw, linkText)
	return linkText, htmlContext
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(w)
		words[i] = strings.ToUpper(string(r[0])) + string(r[1:])
	}
	return strings.Join(words, " ")
}
