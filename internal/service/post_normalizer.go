package service

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/spacetraveling/internal/cms"
	"github.com/spacetraveling/internal/richtext"
)

// PostDocumentType 是文章在 CMS 中的文档类型。
const PostDocumentType = "posts"

// WordsPerMinute 用于估算阅读时长。
const WordsPerMinute = 200

var errUnexpectedShape = errors.New("unexpected field shape")

// Banner 是文章头图。
type Banner struct {
	URL string
	Alt string
}

// ContentSection 是正文中的一个小节。
type ContentSection struct {
	Heading string
	Body    richtext.Blocks
}

// HTML 将小节正文渲染为已净化的 HTML。
func (s ContentSection) HTML() template.HTML {
	return s.Body.AsHTML()
}

// Post 是页面使用的文章视图模型，由 CMS 文档规范化得到后不再修改。
// 发布时间保留 CMS 原始字符串，仅在渲染时格式化。
type Post struct {
	UID                  string
	FirstPublicationDate string
	LastPublicationDate  string
	Title                string
	Subtitle             string
	Author               string
	Banner               Banner
	Content              []ContentSection

	// Malformed lists the fields that could not be decoded and were left empty.
	Malformed []string
}

// FirstPublishedAt 解析首次发布时间。
func (p Post) FirstPublishedAt() (time.Time, bool) {
	return parsePublicationDate(p.FirstPublicationDate)
}

// LastPublishedAt 解析最近一次发布时间。
func (p Post) LastPublishedAt() (time.Time, bool) {
	return parsePublicationDate(p.LastPublicationDate)
}

// Edited 表示文章在首次发布后又被重新发布过。
func (p Post) Edited() bool {
	last, ok := p.LastPublishedAt()
	if !ok {
		return false
	}
	first, ok := p.FirstPublishedAt()
	return !ok || last.After(first)
}

// WordCount 统计所有小节正文纯文本的词数。
func (p Post) WordCount() int {
	total := 0
	for _, section := range p.Content {
		total += section.Body.WordCount()
	}
	return total
}

// ReadingTime 返回估算的阅读分钟数。
func (p Post) ReadingTime() int {
	return ReadingTime(p.WordCount())
}

// ReadingTime 按每分钟 200 词向上取整，0 词为 0 分钟。
func ReadingTime(words int) int {
	if words <= 0 {
		return 0
	}
	return (words + WordsPerMinute - 1) / WordsPerMinute
}

func parsePublicationDate(value string) (time.Time, bool) {
	if strings.TrimSpace(value) == "" {
		return time.Time{}, false
	}
	parsed, err := cms.ParseDate(value)
	if err != nil {
		return time.Time{}, false
	}
	return parsed, true
}

type postFields struct {
	Title    json.RawMessage `json:"title"`
	Subtitle json.RawMessage `json:"subtitle"`
	Author   json.RawMessage `json:"author"`
	Banner   json.RawMessage `json:"banner"`
	Content  json.RawMessage `json:"content"`
}

type bannerField struct {
	URL string `json:"url"`
	Alt string `json:"alt"`
}

type sectionField struct {
	Heading json.RawMessage `json:"heading"`
	Body    json.RawMessage `json:"body"`
}

// NormalizePost 将原始 CMS 文档转换为 Post。每个字段独立解码，
// 缺失或格式错误的字段回退为空值并记录在 Malformed 中，不会让整页失败。
func NormalizePost(doc cms.Document) Post {
	post := Post{UID: doc.UID}
	if doc.FirstPublicationDate != nil {
		post.FirstPublicationDate = *doc.FirstPublicationDate
	}
	if doc.LastPublicationDate != nil {
		post.LastPublicationDate = *doc.LastPublicationDate
	}

	var fields postFields
	if err := decodeObject(doc.Data, &fields); err != nil {
		post.Malformed = append(post.Malformed, "data")
		return post
	}

	var err error
	if post.Title, err = decodeText(fields.Title); err != nil {
		post.Malformed = append(post.Malformed, "title")
	}
	if post.Subtitle, err = decodeText(fields.Subtitle); err != nil {
		post.Malformed = append(post.Malformed, "subtitle")
	}
	if post.Author, err = decodeText(fields.Author); err != nil {
		post.Malformed = append(post.Malformed, "author")
	}
	if post.Banner, err = decodeBanner(fields.Banner); err != nil {
		post.Malformed = append(post.Malformed, "banner")
	}

	var problems []string
	post.Content, problems = decodeContent(fields.Content)
	post.Malformed = append(post.Malformed, problems...)
	return post
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func decodeObject(raw json.RawMessage, dst interface{}) error {
	trimmed := bytes.TrimSpace(raw)
	if isNull(trimmed) {
		return nil
	}
	if trimmed[0] != '{' {
		return errUnexpectedShape
	}
	return json.Unmarshal(trimmed, dst)
}

// decodeText 接受纯字符串或富文本数组两种形态。
func decodeText(raw json.RawMessage) (string, error) {
	trimmed := bytes.TrimSpace(raw)
	if isNull(trimmed) {
		return "", nil
	}
	switch trimmed[0] {
	case '"':
		var value string
		if err := json.Unmarshal(trimmed, &value); err != nil {
			return "", err
		}
		return strings.TrimSpace(value), nil
	case '[':
		blocks, err := richtext.Decode(trimmed)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(blocks.AsText()), nil
	default:
		return "", errUnexpectedShape
	}
}

func decodeBanner(raw json.RawMessage) (Banner, error) {
	var field bannerField
	if err := decodeObject(raw, &field); err != nil {
		return Banner{}, err
	}
	return Banner{URL: strings.TrimSpace(field.URL), Alt: strings.TrimSpace(field.Alt)}, nil
}

func decodeContent(raw json.RawMessage) ([]ContentSection, []string) {
	trimmed := bytes.TrimSpace(raw)
	if isNull(trimmed) {
		return nil, nil
	}
	var items []json.RawMessage
	if trimmed[0] != '[' || json.Unmarshal(trimmed, &items) != nil {
		return nil, []string{"content"}
	}

	var problems []string
	sections := make([]ContentSection, 0, len(items))
	for i, item := range items {
		var field sectionField
		if err := decodeObject(item, &field); err != nil {
			problems = append(problems, fmt.Sprintf("content[%d]", i))
			continue
		}

		section := ContentSection{}
		heading, err := decodeText(field.Heading)
		if err != nil {
			problems = append(problems, fmt.Sprintf("content[%d].heading", i))
		}
		section.Heading = heading

		body, err := richtext.Decode(field.Body)
		if err != nil {
			problems = append(problems, fmt.Sprintf("content[%d].body", i))
		}
		section.Body = body

		sections = append(sections, section)
	}
	return sections, problems
}
