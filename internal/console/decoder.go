package console

import (
	"html"
	"maps"
	"regexp"
	"strings"
)

// EscapeMarker prefixes every formatting code in a reply.
const EscapeMarker = "§"

var (
	colorCodePattern = regexp.MustCompile(`§([0-9a-f])`)
	styleCodePattern = regexp.MustCompile(`§([k-o])`)
	resetCodePattern = regexp.MustCompile(`§r`)
)

// ColorCodes lists the recognized color codes in display order.
const ColorCodes = "0123456789abcdef"

// StyleCodes lists the recognized style codes.
const StyleCodes = "klmno"

// Decoder turns a raw reply into HTML markup.
type Decoder struct {
	colors map[string]string
	styles map[string]string
}

// NewDecoder builds a Decoder from the color and style tables, both keyed by
// their single character code. The tables are copied.
func NewDecoder(colors, styles map[string]string) *Decoder {
	return &Decoder{colors: maps.Clone(colors), styles: maps.Clone(styles)}
}

// Decode converts raw into markup. Text is HTML-escaped first, then each
// kind of code is rewritten in its own pass. Spans left open by a missing
// reset stay open. Unrecognized codes are kept verbatim.
func (d *Decoder) Decode(raw string) string {
	text := html.EscapeString(raw)
	text = strings.ReplaceAll(text, "\n", "<br>")

	text = colorCodePattern.ReplaceAllStringFunc(text, func(match string) string {
		color, ok := d.colors[strings.TrimPrefix(match, EscapeMarker)]
		if !ok {
			return match
		}
		return `<span style="color: ` + html.EscapeString(color) + `;">`
	})

	text = styleCodePattern.ReplaceAllStringFunc(text, func(match string) string {
		style, ok := d.styles[strings.TrimPrefix(match, EscapeMarker)]
		if !ok {
			return match
		}
		return `<span style="` + html.EscapeString(style) + `;">`
	})

	return resetCodePattern.ReplaceAllString(text, "</span>")
}

// Strip removes every recognized formatting code from raw, leaving plain text.
func Strip(raw string) string {
	text := colorCodePattern.ReplaceAllString(raw, "")
	text = styleCodePattern.ReplaceAllString(text, "")
	return resetCodePattern.ReplaceAllString(text, "")
}
