package richtext

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestFromMarkdown(t *testing.T) {
	source := []byte(`## Decolagem

Um **foguete** com *estilo*.

- um
- dois

1. primeiro

` + "```" + `
go run .
` + "```" + `

![nebulosa](https://images.example.com/nebula.png)

Visite [o site](https://example.com).
`)

	want := Blocks{
		{Type: TypeHeading2, Text: "Decolagem"},
		{Type: TypeParagraph, Text: "Um foguete com estilo.", Spans: []Span{
			{Start: 3, End: 10, Type: SpanStrong},
			{Start: 15, End: 21, Type: SpanEm},
		}},
		{Type: TypeListItem, Text: "um"},
		{Type: TypeListItem, Text: "dois"},
		{Type: TypeOListItem, Text: "primeiro"},
		{Type: TypePreformatted, Text: "go run ."},
		{Type: TypeImage, URL: "https://images.example.com/nebula.png", Alt: "nebulosa"},
		{Type: TypeParagraph, Text: "Visite o site.", Spans: []Span{
			{Start: 7, End: 13, Type: SpanHyperlink, Data: &SpanData{LinkType: "Web", URL: "https://example.com"}},
		}},
	}

	got := FromMarkdown(source)
	if diff := cmp.Diff(want, got, cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("unexpected blocks (-want +got):\n%s", diff)
	}
}

func TestFromMarkdownSoftBreaksBecomeSpaces(t *testing.T) {
	got := FromMarkdown([]byte("linha um\nlinha dois\n"))
	if len(got) != 1 {
		t.Fatalf("expected a single paragraph, got %d blocks", len(got))
	}
	if got[0].Text != "linha um linha dois" {
		t.Fatalf("unexpected text %q", got[0].Text)
	}
}

func TestFromMarkdownRoundTripsThroughHTML(t *testing.T) {
	got := string(FromMarkdown([]byte("Um **foguete**.")).AsHTML())
	if got != "<p>Um <strong>foguete</strong>.</p>" {
		t.Fatalf("unexpected html %q", got)
	}
}
