package richtext

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	blocks, err := Decode(json.RawMessage(`[{"type":"paragraph","text":"Olá mundo","spans":[]}]`))
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	require.Equal(t, "Olá mundo", blocks[0].Text)

	blocks, err = Decode(json.RawMessage(`null`))
	require.NoError(t, err)
	require.Nil(t, blocks)

	_, err = Decode(json.RawMessage(`"just a string"`))
	require.ErrorIs(t, err, ErrNotRichText)

	_, err = Decode(json.RawMessage(`[{"type": 3}]`))
	require.Error(t, err)
}

func TestAsTextAndWordCount(t *testing.T) {
	blocks := Blocks{
		{Type: TypeHeading2, Text: "Cosmos"},
		{Type: TypeParagraph, Text: "  viagem   pelo espaço "},
		{Type: TypeImage, URL: "https://images.example.com/nebula.png", Alt: "nebulosa"},
		{Type: TypeListItem, Text: "foguete"},
	}

	require.Equal(t, "Cosmos   viagem   pelo espaço  foguete", blocks.AsText())
	require.Equal(t, 5, blocks.WordCount())
	require.Equal(t, 0, Blocks(nil).WordCount())
	require.True(t, Blocks{{Type: TypeParagraph, Text: "  "}}.IsEmpty())
	require.False(t, blocks.IsEmpty())
}

func TestAsHTMLRendersBlocks(t *testing.T) {
	blocks := Blocks{
		{Type: TypeHeading2, Text: "Título"},
		{Type: TypeParagraph, Text: "linha um\nlinha dois"},
		{Type: TypeListItem, Text: "a"},
		{Type: TypeListItem, Text: "b"},
		{Type: TypeOListItem, Text: "primeiro"},
		{Type: TypePreformatted, Text: "go run .\ngo test ./..."},
		{Type: TypeImage, URL: "https://images.example.com/a.png", Alt: "banner"},
	}

	got := string(blocks.AsHTML())

	require.Contains(t, got, "<h2>Título</h2>")
	require.Contains(t, got, "<p>linha um<br/>linha dois</p>")
	require.Contains(t, got, "<ul><li>a</li><li>b</li></ul>")
	require.Contains(t, got, "<ol><li>primeiro</li></ol>")
	require.Contains(t, got, "<pre>go run .\ngo test ./...</pre>")
	require.Contains(t, got, `<img src="https://images.example.com/a.png" alt="banner"/>`)
}

func TestAsHTMLNestsOverlappingSpans(t *testing.T) {
	blocks := Blocks{{
		Type: TypeParagraph,
		Text: "Hello world",
		Spans: []Span{
			{Start: 0, End: 5, Type: SpanStrong},
			{Start: 3, End: 11, Type: SpanEm},
		},
	}}

	require.Equal(t, "<p><strong>Hel<em>lo</em></strong><em> world</em></p>", string(blocks.AsHTML()))
}

func TestAsHTMLUsesUTF16Offsets(t *testing.T) {
	// the rocket emoji takes two UTF-16 code units
	blocks := Blocks{{
		Type:  TypeParagraph,
		Text:  "🚀 launch",
		Spans: []Span{{Start: 3, End: 9, Type: SpanStrong}},
	}}

	require.Equal(t, "<p>🚀 <strong>launch</strong></p>", string(blocks.AsHTML()))
}

func TestAsHTMLSanitizes(t *testing.T) {
	blocks := Blocks{
		{Type: TypeParagraph, Text: "<script>alert(1)</script>"},
		{
			Type:  TypeParagraph,
			Text:  "clique",
			Spans: []Span{{Start: 0, End: 6, Type: SpanHyperlink, Data: &SpanData{URL: "javascript:alert(1)"}}},
		},
		{Type: TypeEmbed, Oembed: &Embed{EmbedURL: "https://video.example.com/1", HTML: `<iframe src="https://video.example.com/1"></iframe><b>ok</b>`}},
	}

	got := string(blocks.AsHTML())

	require.NotContains(t, got, "<script>")
	require.Contains(t, got, "&lt;script&gt;")
	require.NotContains(t, got, "javascript:")
	require.NotContains(t, got, "<iframe")
	require.Contains(t, got, "<b>ok</b>")
}

func TestAsHTMLKeepsSafeLinks(t *testing.T) {
	blocks := Blocks{{
		Type:  TypeParagraph,
		Text:  "veja o site",
		Spans: []Span{{Start: 7, End: 11, Type: SpanHyperlink, Data: &SpanData{URL: "https://example.com", Target: "_blank"}}},
	}}

	got := string(blocks.AsHTML())
	require.Contains(t, got, `href="https://example.com"`)
	require.Contains(t, got, `target="_blank"`)
	require.True(t, strings.HasPrefix(got, "<p>veja o <a "))
}

func TestAsHTMLIgnoresInvalidSpans(t *testing.T) {
	blocks := Blocks{{
		Type:  TypeParagraph,
		Text:  "abc",
		Spans: []Span{{Start: 2, End: 1, Type: SpanStrong}, {Start: 1, End: 40, Type: SpanEm}},
	}}

	require.Equal(t, "<p>a<em>bc</em></p>", string(blocks.AsHTML()))
}
