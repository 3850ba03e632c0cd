package richtext

import (
	"html"
	"html/template"
	"regexp"
	"sort"
	"strings"
	"unicode/utf16"

	"github.com/microcosm-cc/bluemonday"
)

var sanitizer = newSanitizer()

func newSanitizer() *bluemonday.Policy {
	policy := bluemonday.UGCPolicy()
	policy.AllowAttrs("class").Matching(bluemonday.SpaceSeparatedTokens).OnElements("p", "span", "div")
	policy.AllowAttrs("target").Matching(regexp.MustCompile(`^_blank$`)).OnElements("a")
	policy.AllowAttrs("data-oembed").OnElements("div")
	return policy
}

// AsHTML renders the blocks as HTML and runs the result through the UGC
// sanitizer, so the output is safe to inject into a page as-is. Embeds of
// known video players are rendered as iframes under their own policy.
func (b Blocks) AsHTML() template.HTML {
	var out, pending strings.Builder
	flush := func() {
		if pending.Len() == 0 {
			return
		}
		out.WriteString(sanitizer.Sanitize(pending.String()))
		pending.Reset()
	}

	for i := 0; i < len(b); i++ {
		block := b[i]
		switch block.Type {
		case TypeListItem, TypeOListItem:
			tag := "ul"
			if block.Type == TypeOListItem {
				tag = "ol"
			}
			pending.WriteString("<" + tag + ">")
			for ; i < len(b) && b[i].Type == block.Type; i++ {
				pending.WriteString("<li>")
				pending.WriteString(renderSpans(b[i].Text, b[i].Spans, true))
				pending.WriteString("</li>")
			}
			i--
			pending.WriteString("</" + tag + ">")
		case TypeEmbed:
			if block.Oembed != nil {
				if video, ok := ParseVideoURL(block.Oembed.EmbedURL); ok {
					flush()
					out.WriteString(video.HTML())
					continue
				}
			}
			pending.WriteString(renderBlock(block))
		default:
			pending.WriteString(renderBlock(block))
		}
	}
	flush()
	return template.HTML(out.String())
}

func renderBlock(block Block) string {
	switch block.Type {
	case TypeHeading1, TypeHeading2, TypeHeading3, TypeHeading4, TypeHeading5, TypeHeading6:
		tag := "h" + strings.TrimPrefix(block.Type, "heading")
		return "<" + tag + ">" + renderSpans(block.Text, block.Spans, true) + "</" + tag + ">"
	case TypePreformatted:
		return "<pre>" + renderSpans(block.Text, block.Spans, false) + "</pre>"
	case TypeImage:
		if strings.TrimSpace(block.URL) == "" {
			return ""
		}
		return `<p class="block-img"><img src="` + html.EscapeString(block.URL) + `" alt="` + html.EscapeString(block.Alt) + `" /></p>`
	case TypeEmbed:
		if block.Oembed == nil {
			return ""
		}
		return `<div data-oembed="` + html.EscapeString(block.Oembed.EmbedURL) + `">` + block.Oembed.HTML + `</div>`
	default:
		if block.Text == "" && block.Type != TypeParagraph {
			return ""
		}
		return "<p>" + renderSpans(block.Text, block.Spans, true) + "</p>"
	}
}

// renderSpans wraps the ranges covered by spans in their tags, reopening
// tags where spans overlap so the output stays well-formed.
func renderSpans(text string, spans []Span, breakLines bool) string {
	units := utf16.Encode([]rune(text))
	n := len(units)

	valid := make([]Span, 0, len(spans))
	bounds := []int{0, n}
	for _, span := range spans {
		start := clamp(span.Start, 0, n)
		end := clamp(span.End, 0, n)
		if end <= start {
			continue
		}
		span.Start, span.End = start, end
		valid = append(valid, span)
		bounds = append(bounds, start, end)
	}
	sort.SliceStable(valid, func(i, j int) bool {
		if valid[i].Start != valid[j].Start {
			return valid[i].Start < valid[j].Start
		}
		return valid[i].End > valid[j].End
	})
	bounds = uniqueSorted(bounds)

	var out strings.Builder
	var stack []int
	for i := 0; i+1 < len(bounds); i++ {
		segStart, segEnd := bounds[i], bounds[i+1]

		active := make([]int, 0, len(valid))
		for idx, span := range valid {
			if span.Start <= segStart && span.End >= segEnd {
				active = append(active, idx)
			}
		}

		common := 0
		for common < len(stack) && common < len(active) && stack[common] == active[common] {
			common++
		}
		for j := len(stack) - 1; j >= common; j-- {
			out.WriteString(closeTag(valid[stack[j]]))
		}
		for _, idx := range active[common:] {
			out.WriteString(openTag(valid[idx]))
		}
		stack = append(stack[:common:common], active[common:]...)

		out.WriteString(escapeText(string(utf16.Decode(units[segStart:segEnd])), breakLines))
	}
	for j := len(stack) - 1; j >= 0; j-- {
		out.WriteString(closeTag(valid[stack[j]]))
	}
	return out.String()
}

func openTag(span Span) string {
	switch span.Type {
	case SpanStrong:
		return "<strong>"
	case SpanEm:
		return "<em>"
	case SpanHyperlink:
		if span.Data == nil || strings.TrimSpace(span.Data.URL) == "" {
			return "<span>"
		}
		tag := `<a href="` + html.EscapeString(span.Data.URL) + `"`
		if span.Data.Target == "_blank" {
			tag += ` target="_blank" rel="noopener noreferrer"`
		}
		return tag + ">"
	case SpanLabel:
		label := ""
		if span.Data != nil {
			label = span.Data.Label
		}
		return `<span class="` + html.EscapeString(label) + `">`
	default:
		return "<span>"
	}
}

func closeTag(span Span) string {
	switch span.Type {
	case SpanStrong:
		return "</strong>"
	case SpanEm:
		return "</em>"
	case SpanHyperlink:
		if span.Data == nil || strings.TrimSpace(span.Data.URL) == "" {
			return "</span>"
		}
		return "</a>"
	default:
		return "</span>"
	}
}

func escapeText(text string, breakLines bool) string {
	escaped := html.EscapeString(text)
	if breakLines {
		escaped = strings.ReplaceAll(escaped, "\n", "<br />")
	}
	return escaped
}

func uniqueSorted(values []int) []int {
	sort.Ints(values)
	out := values[:0]
	for i, v := range values {
		if i > 0 && v == values[i-1] {
			continue
		}
		out = append(out, v)
	}
	return out
}

func clamp(value, lo, hi int) int {
	if value < lo {
		return lo
	}
	if value > hi {
		return hi
	}
	return value
}
