// Package render turns decoded console markup into terminal text.
package render

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/net/html"
)

// Markup renders the span/br markup produced by console.Decoder. With a nil
// renderer the styles are dropped and only the text is kept. Entities are
// unescaped and unclosed spans style the rest of the text.
func Markup(markup string, r *lipgloss.Renderer) string {
	var out strings.Builder
	var stack []lipgloss.Style
	if r != nil {
		stack = append(stack, r.NewStyle())
	}

	z := html.NewTokenizer(strings.NewReader(markup))
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			// io.EOF; a strings.Reader has no other failure.
			return out.String()
		case html.TextToken:
			text := string(z.Text())
			if len(stack) > 0 {
				text = stack[len(stack)-1].Render(text)
			}
			out.WriteString(text)
		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			switch string(name) {
			case "br":
				out.WriteByte('\n')
			case "span":
				if tt == html.SelfClosingTagToken || len(stack) == 0 {
					continue
				}
				style := stack[len(stack)-1]
				for hasAttr {
					var key, val []byte
					key, val, hasAttr = z.TagAttr()
					if string(key) == "style" {
						style = applyDeclarations(style, string(val))
					}
				}
				stack = append(stack, style)
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if string(name) == "span" && len(stack) > 1 {
				stack = stack[:len(stack)-1]
			}
		}
	}
}

// Plain renders markup without any style.
func Plain(markup string) string {
	return Markup(markup, nil)
}

// applyDeclarations maps the CSS declarations used by the code tables onto
// terminal attributes. Unknown declarations are ignored.
func applyDeclarations(style lipgloss.Style, css string) lipgloss.Style {
	for _, decl := range strings.Split(css, ";") {
		prop, value, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		prop = strings.ToLower(strings.TrimSpace(prop))
		value = strings.ToLower(strings.TrimSpace(value))
		switch prop {
		case "color":
			style = style.Foreground(lipgloss.Color(value))
		case "font-weight":
			style = style.Bold(value == "bold" || value == "700")
		case "font-style":
			style = style.Italic(value == "italic")
		case "text-decoration":
			if strings.Contains(value, "underline") {
				style = style.Underline(true)
			}
			if strings.Contains(value, "line-through") {
				style = style.Strikethrough(true)
			}
		case "filter":
			// Obfuscated text has no terminal equivalent.
			style = style.Faint(strings.HasPrefix(value, "blur"))
		}
	}
	return style
}
