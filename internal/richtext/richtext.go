// Package richtext models the structured text format served by the CMS and
// renders it as plain text or sanitized HTML.
package richtext

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
)

// Block types understood by the renderer.
const (
	TypeHeading1     = "heading1"
	TypeHeading2     = "heading2"
	TypeHeading3     = "heading3"
	TypeHeading4     = "heading4"
	TypeHeading5     = "heading5"
	TypeHeading6     = "heading6"
	TypeParagraph    = "paragraph"
	TypePreformatted = "preformatted"
	TypeListItem     = "list-item"
	TypeOListItem    = "o-list-item"
	TypeImage        = "image"
	TypeEmbed        = "embed"
)

// Span types.
const (
	SpanStrong    = "strong"
	SpanEm        = "em"
	SpanHyperlink = "hyperlink"
	SpanLabel     = "label"
)

var ErrNotRichText = errors.New("value is not rich text")

// SpanData carries the payload of hyperlink and label spans.
type SpanData struct {
	LinkType string `json:"link_type,omitempty"`
	URL      string `json:"url,omitempty"`
	Target   string `json:"target,omitempty"`
	Label    string `json:"label,omitempty"`
}

// Span marks a range of a block's text. Start and End count UTF-16 code
// units, matching the offsets the CMS produces.
type Span struct {
	Start int       `json:"start"`
	End   int       `json:"end"`
	Type  string    `json:"type"`
	Data  *SpanData `json:"data,omitempty"`
}

// Embed is the oEmbed payload of an embed block.
type Embed struct {
	HTML     string `json:"html,omitempty"`
	EmbedURL string `json:"embed_url,omitempty"`
	Title    string `json:"title,omitempty"`
}

// Block is one structured text element.
type Block struct {
	Type   string `json:"type"`
	Text   string `json:"text,omitempty"`
	Spans  []Span `json:"spans,omitempty"`
	URL    string `json:"url,omitempty"`
	Alt    string `json:"alt,omitempty"`
	Oembed *Embed `json:"oembed,omitempty"`
}

// Blocks is an ordered rich text value.
type Blocks []Block

// Decode parses a raw rich text field. null or empty input yields no blocks.
func Decode(raw json.RawMessage) (Blocks, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	if trimmed[0] != '[' {
		return nil, ErrNotRichText
	}
	var blocks Blocks
	if err := json.Unmarshal(trimmed, &blocks); err != nil {
		return nil, err
	}
	return blocks, nil
}

// AsText joins the text of every block with a single space.
func (b Blocks) AsText() string {
	parts := make([]string, 0, len(b))
	for _, block := range b {
		switch block.Type {
		case TypeImage:
			continue
		case TypeEmbed:
			continue
		}
		parts = append(parts, block.Text)
	}
	return strings.Join(parts, " ")
}

// WordCount counts whitespace separated words of the plain-text rendering.
func (b Blocks) WordCount() int {
	return len(strings.Fields(b.AsText()))
}

// IsEmpty reports whether the value renders to nothing.
func (b Blocks) IsEmpty() bool {
	for _, block := range b {
		if strings.TrimSpace(block.Text) != "" || block.URL != "" || block.Oembed != nil {
			return false
		}
	}
	return true
}
