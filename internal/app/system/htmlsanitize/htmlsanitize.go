// Package htmlsanitize cleans user and model supplied rich text before it
// reaches a template as template.HTML.
package htmlsanitize

import (
	"html"
	"html/template"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var policy = newPolicy()

func newPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("class").OnElements("table", "tr", "td", "th", "p", "span")
	p.AllowElements("mark", "u", "s")
	return p
}

// Sanitize strips scripts, event handlers, unsafe URLs and any element
// not allowed in project notes or document analyses.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	return policy.Sanitize(s)
}

// SanitizeToHTML is Sanitize typed for templates.
func SanitizeToHTML(s string) template.HTML {
	return template.HTML(Sanitize(s))
}

// IsPlainText reports whether s contains no markup.
func IsPlainText(s string) bool {
	return !strings.ContainsAny(s, "<>")
}

// PlainTextToHTML escapes s and turns blank-line separated blocks into
// paragraphs and single newlines into <br>.
func PlainTextToHTML(s string) template.HTML {
	s = strings.TrimSpace(strings.ReplaceAll(s, "\r\n", "\n"))
	if s == "" {
		return ""
	}
	var b strings.Builder
	for _, para := range strings.Split(s, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		lines := strings.Split(para, "\n")
		for i := range lines {
			lines[i] = html.EscapeString(lines[i])
		}
		b.WriteString("<p>")
		b.WriteString(strings.Join(lines, "<br>"))
		b.WriteString("</p>")
	}
	return template.HTML(b.String())
}

// PrepareForDisplay renders plain text as paragraphs and sanitizes markup.
func PrepareForDisplay(s string) template.HTML {
	if IsPlainText(s) {
		return PlainTextToHTML(s)
	}
	return SanitizeToHTML(s)
}
