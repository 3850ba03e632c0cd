// Package importer loads Markdown and YAML files from a content directory
// into the local content store.
package importer

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/adrg/frontmatter"
	"github.com/spacetraveling/internal/db"
	"github.com/spacetraveling/internal/richtext"
	"github.com/spacetraveling/internal/service"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

var ErrMissingUID = errors.New("document has no uid")

// yamlFrontMatter 使用 yaml.v3 解析 --- 包围的前置元数据。
var yamlFrontMatter = frontmatter.NewFormat("---", "---", yaml.Unmarshal)

// Store is the write side of the content store.
type Store interface {
	Upsert(input service.DocumentInput) (*db.Document, error)
}

// Importer 将内容目录中的文件写入本地内容库。
type Importer struct {
	store  Store
	logger *zap.Logger
	mu     sync.Mutex
}

// Result 汇总一次导入。
type Result struct {
	Imported int
	Skipped  int
}

// New creates an Importer.
func New(store Store, logger *zap.Logger) *Importer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Importer{store: store, logger: logger}
}

// ImportDir 导入目录下所有 .md 与 .yaml 文件。单个文件失败不会中断其余文件，
// 所有错误合并后返回。
func (im *Importer) ImportDir(ctx context.Context, dir string) (Result, error) {
	im.mu.Lock()
	defer im.mu.Unlock()

	var result Result
	var errs []error
	walkErr := filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if entry.IsDir() {
			if path != dir && strings.HasPrefix(entry.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !isContentFile(path) {
			result.Skipped++
			return nil
		}

		if err := im.importFile(path); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", path, err))
			return nil
		}
		result.Imported++
		return nil
	})
	if walkErr != nil {
		errs = append(errs, walkErr)
	}
	return result, errors.Join(errs...)
}

func isContentFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown", ".yaml", ".yml":
		return !strings.HasPrefix(filepath.Base(path), ".")
	default:
		return false
	}
}

func (im *Importer) importFile(path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var input service.DocumentInput
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		input, err = ParseYAML(content)
	default:
		input, err = ParseMarkdown(path, content)
	}
	if err != nil {
		return err
	}

	doc, err := im.store.Upsert(input)
	if err != nil {
		return err
	}
	im.logger.Info("imported document",
		zap.String("path", path),
		zap.String("type", doc.Type),
		zap.String("uid", doc.UID),
		zap.Bool("draft", input.Draft))
	return nil
}

type bannerMatter struct {
	URL string `yaml:"url" json:"url"`
	Alt string `yaml:"alt" json:"alt"`
}

// UnmarshalYAML 允许 banner 直接写成 URL 字符串。
func (b *bannerMatter) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		b.URL = strings.TrimSpace(value.Value)
		return nil
	}
	type plain bannerMatter
	var decoded plain
	if err := value.Decode(&decoded); err != nil {
		return err
	}
	*b = bannerMatter(decoded)
	return nil
}

type postMatter struct {
	UID         string       `yaml:"uid"`
	Title       string       `yaml:"title"`
	Subtitle    string       `yaml:"subtitle"`
	Author      string       `yaml:"author"`
	Banner      bannerMatter `yaml:"banner"`
	Lang        string       `yaml:"lang"`
	Tags        []string     `yaml:"tags"`
	Draft       bool         `yaml:"draft"`
	PublishedAt *time.Time   `yaml:"published_at"`
}

type sectionData struct {
	Heading string          `json:"heading"`
	Body    richtext.Blocks `json:"body"`
}

type postData struct {
	Title    string        `json:"title"`
	Subtitle string        `json:"subtitle"`
	Author   string        `json:"author"`
	Banner   bannerMatter  `json:"banner"`
	Content  []sectionData `json:"content"`
}

// ParseMarkdown 将带前置元数据的 Markdown 转为 posts 文档，每个 ## 标题开启一个小节。
// 未写 uid 时使用文件名。
func ParseMarkdown(path string, content []byte) (service.DocumentInput, error) {
	var matter postMatter
	body, err := frontmatter.Parse(bytes.NewReader(content), &matter, yamlFrontMatter)
	if err != nil {
		return service.DocumentInput{}, fmt.Errorf("parse front matter: %w", err)
	}

	uid := strings.TrimSpace(matter.UID)
	if uid == "" {
		uid = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if uid == "" || uid == "." {
		return service.DocumentInput{}, ErrMissingUID
	}

	data := postData{
		Title:    strings.TrimSpace(matter.Title),
		Subtitle: strings.TrimSpace(matter.Subtitle),
		Author:   strings.TrimSpace(matter.Author),
		Banner:   matter.Banner,
		Content:  splitSections(body),
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return service.DocumentInput{}, err
	}

	return service.DocumentInput{
		Type:        service.PostDocumentType,
		UID:         uid,
		Lang:        matter.Lang,
		Tags:        matter.Tags,
		Data:        raw,
		Draft:       matter.Draft,
		PublishedAt: matter.PublishedAt,
	}, nil
}

// splitSections 在代码块之外的 "## " 行处切分正文。
func splitSections(body []byte) []sectionData {
	var (
		sections []sectionData
		heading  string
		buf      bytes.Buffer
		inFence  bool
		started  bool
	)
	flush := func() {
		if !started && strings.TrimSpace(buf.String()) == "" {
			buf.Reset()
			return
		}
		sections = append(sections, sectionData{Heading: heading, Body: richtext.FromMarkdown(buf.Bytes())})
		buf.Reset()
	}

	scanner := bufio.NewScanner(bytes.NewReader(body))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			inFence = !inFence
		}
		if !inFence && strings.HasPrefix(line, "## ") {
			flush()
			heading = strings.TrimSpace(strings.TrimPrefix(line, "## "))
			started = true
			continue
		}
		buf.WriteString(line)
		buf.WriteByte('\n')
	}
	flush()
	return sections
}

type yamlDocument struct {
	UID         string                 `yaml:"uid"`
	Type        string                 `yaml:"type"`
	Lang        string                 `yaml:"lang"`
	Tags        []string               `yaml:"tags"`
	Draft       bool                   `yaml:"draft"`
	PublishedAt *time.Time             `yaml:"published_at"`
	Data        map[string]interface{} `yaml:"data"`
}

// ParseYAML 读取原样保存的文档。
func ParseYAML(content []byte) (service.DocumentInput, error) {
	var doc yamlDocument
	if err := yaml.Unmarshal(content, &doc); err != nil {
		return service.DocumentInput{}, fmt.Errorf("parse yaml document: %w", err)
	}
	if strings.TrimSpace(doc.UID) == "" {
		return service.DocumentInput{}, ErrMissingUID
	}
	if strings.TrimSpace(doc.Type) == "" {
		doc.Type = service.PostDocumentType
	}
	if doc.Data == nil {
		doc.Data = map[string]interface{}{}
	}
	raw, err := json.Marshal(doc.Data)
	if err != nil {
		return service.DocumentInput{}, fmt.Errorf("encode document data: %w", err)
	}
	return service.DocumentInput{
		Type:        doc.Type,
		UID:         doc.UID,
		Lang:        doc.Lang,
		Tags:        doc.Tags,
		Data:        raw,
		Draft:       doc.Draft,
		PublishedAt: doc.PublishedAt,
	}, nil
}
