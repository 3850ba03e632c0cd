package richtext

import (
	"strconv"
	"strings"
	"unicode/utf16"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

var markdownEngine = goldmark.New(
	goldmark.WithExtensions(extension.GFM, extension.Linkify),
)

// FromMarkdown converts Markdown source into rich text blocks. Nested block
// structures (quotes, nested lists) are flattened because the block format
// has no nesting.
func FromMarkdown(source []byte) Blocks {
	doc := markdownEngine.Parser().Parse(text.NewReader(source))
	conv := &markdownConverter{source: source}
	for node := doc.FirstChild(); node != nil; node = node.NextSibling() {
		conv.block(node)
	}
	return conv.blocks
}

type markdownConverter struct {
	source []byte
	blocks Blocks
}

func (m *markdownConverter) block(node ast.Node) {
	switch n := node.(type) {
	case *ast.Heading:
		level := n.Level
		if level < 1 {
			level = 1
		}
		if level > 6 {
			level = 6
		}
		m.inlineBlock("heading"+strconv.Itoa(level), n)
	case *ast.Paragraph, *ast.TextBlock:
		if image, ok := soleImage(n); ok {
			m.blocks = append(m.blocks, Block{
				Type: TypeImage,
				URL:  string(image.Destination),
				Alt:  m.plainText(image),
			})
			return
		}
		if source, ok := m.soleVideoLink(n); ok {
			m.blocks = append(m.blocks, Block{Type: TypeEmbed, Oembed: &Embed{EmbedURL: source}})
			return
		}
		m.inlineBlock(TypeParagraph, n)
	case *ast.List:
		itemType := TypeListItem
		if n.IsOrdered() {
			itemType = TypeOListItem
		}
		for item := n.FirstChild(); item != nil; item = item.NextSibling() {
			m.listItem(itemType, item)
		}
	case *ast.FencedCodeBlock, *ast.CodeBlock:
		m.blocks = append(m.blocks, Block{Type: TypePreformatted, Text: m.codeText(n)})
	case *ast.Blockquote:
		for child := n.FirstChild(); child != nil; child = child.NextSibling() {
			m.block(child)
		}
	case *ast.ThematicBreak, *ast.HTMLBlock:
		// no rich text equivalent
	default:
		for child := n.FirstChild(); child != nil; child = child.NextSibling() {
			m.block(child)
		}
	}
}

func (m *markdownConverter) listItem(itemType string, item ast.Node) {
	for child := item.FirstChild(); child != nil; child = child.NextSibling() {
		switch c := child.(type) {
		case *ast.Paragraph, *ast.TextBlock:
			m.inlineBlock(itemType, c)
		default:
			m.block(c)
		}
	}
}

func (m *markdownConverter) inlineBlock(blockType string, node ast.Node) {
	b := &inlineBuilder{source: m.source}
	b.children(node)
	m.blocks = append(m.blocks, Block{
		Type:  blockType,
		Text:  strings.TrimRight(b.text.String(), "\n"),
		Spans: b.spans,
	})
}

func (m *markdownConverter) plainText(node ast.Node) string {
	b := &inlineBuilder{source: m.source}
	b.children(node)
	return b.text.String()
}

func (m *markdownConverter) codeText(node ast.Node) string {
	var out strings.Builder
	lines := node.Lines()
	for i := 0; i < lines.Len(); i++ {
		segment := lines.At(i)
		out.Write(segment.Value(m.source))
	}
	return strings.TrimRight(out.String(), "\n")
}

func soleImage(node ast.Node) (*ast.Image, bool) {
	if node.ChildCount() != 1 {
		return nil, false
	}
	image, ok := node.FirstChild().(*ast.Image)
	return image, ok
}

// soleVideoLink 识别独占一段的视频链接，转为 embed 块。
func (m *markdownConverter) soleVideoLink(node ast.Node) (string, bool) {
	if node.ChildCount() != 1 {
		return "", false
	}
	var target string
	switch link := node.FirstChild().(type) {
	case *ast.AutoLink:
		target = string(link.URL(m.source))
	case *ast.Link:
		target = string(link.Destination)
	default:
		return "", false
	}
	if _, ok := ParseVideoURL(target); !ok {
		return "", false
	}
	return target, true
}

// inlineBuilder flattens inline nodes into text plus spans, tracking
// offsets in UTF-16 code units.
type inlineBuilder struct {
	source []byte
	text   strings.Builder
	length int
	spans  []Span
}

func (b *inlineBuilder) write(value string) {
	b.text.WriteString(value)
	b.length += len(utf16.Encode([]rune(value)))
}

func (b *inlineBuilder) children(node ast.Node) {
	for child := node.FirstChild(); child != nil; child = child.NextSibling() {
		b.inline(child)
	}
}

func (b *inlineBuilder) inline(node ast.Node) {
	switch n := node.(type) {
	case *ast.Text:
		b.write(string(n.Segment.Value(b.source)))
		switch {
		case n.HardLineBreak():
			b.write("\n")
		case n.SoftLineBreak():
			b.write(" ")
		}
	case *ast.String:
		b.write(string(n.Value))
	case *ast.Emphasis:
		spanType := SpanEm
		if n.Level >= 2 {
			spanType = SpanStrong
		}
		b.wrap(n, Span{Type: spanType})
	case *ast.Link:
		b.wrap(n, Span{Type: SpanHyperlink, Data: &SpanData{LinkType: "Web", URL: string(n.Destination)}})
	case *ast.AutoLink:
		url := string(n.URL(b.source))
		start := b.length
		b.write(string(n.Label(b.source)))
		b.spans = append(b.spans, Span{Start: start, End: b.length, Type: SpanHyperlink, Data: &SpanData{LinkType: "Web", URL: url}})
	case *ast.CodeSpan:
		b.wrap(n, Span{Type: SpanLabel, Data: &SpanData{Label: "code"}})
	case *ast.Image:
		b.children(n)
	case *ast.RawHTML:
		// dropped; the sanitizer would strip it anyway
	default:
		b.children(n)
	}
}

func (b *inlineBuilder) wrap(node ast.Node, span Span) {
	start := b.length
	b.children(node)
	if b.length == start {
		return
	}
	span.Start = start
	span.End = b.length
	b.spans = append(b.spans, span)
}
