package main

import (
	"bytes"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// 示例内容生成器：写出可被 seed 命令导入的 Markdown 文章
func main() {
	dir := flag.String("dir", "content", "output directory")
	count := flag.Int("count", len(samplePosts), "number of posts to write")
	force := flag.Bool("force", false, "overwrite existing files")
	flag.Parse()

	fmt.Println("开始生成示例文章...")

	written, err := writeSamplePosts(*dir, *count, *force, time.Date(2021, 3, 25, 19, 25, 28, 0, time.UTC))
	if err != nil {
		log.Fatal("生成示例文章失败:", err)
	}

	fmt.Printf("示例文章生成完成: %d 篇 -> %s\n", written, *dir)
	fmt.Println("导入: server seed " + *dir)
}

type sampleSection struct {
	heading    string
	paragraphs []string
}

type samplePost struct {
	uid      string
	title    string
	subtitle string
	author   string
	banner   string
	sections []sampleSection
}

type sampleMatter struct {
	UID         string    `yaml:"uid"`
	Title       string    `yaml:"title"`
	Subtitle    string    `yaml:"subtitle"`
	Author      string    `yaml:"author"`
	Banner      string    `yaml:"banner,omitempty"`
	PublishedAt time.Time `yaml:"published_at"`
}

var lorem = []string{
	"Lorem ipsum dolor sit amet, consectetur adipiscing elit. Nullam dolor sapien, vulputate eu diam at, condimentum hendrerit tellus. Nam facilisis sodales felis, pharetra pharetra lectus auctor sed.",
	"Ut venenatis mauris vel libero pretium, et pretium ligula faucibus. Morbi nibh felis, elementum a posuere et, vulputate et erat. Nam venenatis pharetra est, ut varius nisi facilisis in.",
	"Pellentesque habitant morbi tristique senectus et netus et malesuada fames ac turpis egestas. Proin et varius nibh, **vel commodo** nulla. Aenean a [tempor](https://example.com) massa.",
}

var samplePosts = []samplePost{
	{
		uid:      "como-utilizar-hooks",
		title:    "Como utilizar Hooks",
		subtitle: "Pensando em sincronização em vez de ciclos de vida",
		author:   "Joseph Oliveira",
		banner:   "https://images.unsplash.com/photo-1555066931-4365d14bab8c?auto=format&fit=crop&w=1600&q=80",
		sections: []sampleSection{
			{heading: "Proin et varius", paragraphs: lorem},
			{heading: "Cras laoreet mi", paragraphs: lorem[:2]},
		},
	},
	{
		uid:      "criando-um-app-cra-do-zero",
		title:    "Criando um app CRA do zero",
		subtitle: "Tudo sobre como criar a sua primeira aplicação utilizando Create React App",
		author:   "Danilo Vieira",
		banner:   "https://images.unsplash.com/photo-1517430816045-df4b7de11d1d?auto=format&fit=crop&w=1600&q=80",
		sections: []sampleSection{
			{heading: "Instalação", paragraphs: lorem[1:]},
			{heading: "Primeiros passos", paragraphs: lorem},
		},
	},
	{
		uid:      "mapas-com-react-usando-leaflet",
		title:    "Mapas com React usando Leaflet",
		subtitle: "Aprenda a criar um mapa no React utilizando Leaflet",
		author:   "Thiago Marinho",
		sections: []sampleSection{
			{heading: "Leaflet", paragraphs: lorem[:1]},
			{heading: "Marcadores", paragraphs: lorem},
		},
	},
	{
		uid:      "estrategias-de-cache-no-next",
		title:    "Estratégias de cache no Next.js",
		subtitle: "Geração estática, revalidação e quando renderizar sob demanda",
		author:   "Diego Fernandes",
		banner:   "https://images.unsplash.com/photo-1518770660439-4636190af475?auto=format&fit=crop&w=1600&q=80",
		sections: []sampleSection{
			{heading: "Páginas estáticas", paragraphs: lorem},
			{heading: "Revalidação", paragraphs: lorem[2:]},
			{heading: "Conclusão", paragraphs: lorem[:1]},
		},
	},
	{
		uid:      "prismic-como-cms-headless",
		title:    "Prismic como CMS headless",
		subtitle: "Modelando documentos e consultando a API de conteúdo",
		author:   "Mayk Brito",
		sections: []sampleSection{
			{heading: "Custom types", paragraphs: lorem[:2]},
			{heading: "Predicados", paragraphs: lorem},
		},
	},
}

// writeSamplePosts 写出前 count 篇示例文章，发布时间从 start 起每篇间隔一天。
// 已存在的文件默认跳过。
func writeSamplePosts(dir string, count int, force bool, start time.Time) (int, error) {
	if count < 0 || count > len(samplePosts) {
		count = len(samplePosts)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, err
	}

	written := 0
	for i, post := range samplePosts[:count] {
		path := filepath.Join(dir, post.uid+".md")
		if !force {
			if _, err := os.Stat(path); err == nil {
				fmt.Println("文件已存在，跳过:", path)
				continue
			}
		}
		content, err := renderSamplePost(post, start.Add(time.Duration(i)*24*time.Hour))
		if err != nil {
			return written, fmt.Errorf("render %s: %w", post.uid, err)
		}
		if err := os.WriteFile(path, content, 0o644); err != nil {
			return written, err
		}
		written++
	}
	return written, nil
}

func renderSamplePost(post samplePost, publishedAt time.Time) ([]byte, error) {
	matter, err := yaml.Marshal(sampleMatter{
		UID:         post.uid,
		Title:       post.title,
		Subtitle:    post.subtitle,
		Author:      post.author,
		Banner:      post.banner,
		PublishedAt: publishedAt.UTC(),
	})
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.WriteString("---\n")
	buf.Write(matter)
	buf.WriteString("---\n")
	for _, section := range post.sections {
		buf.WriteString("\n## " + section.heading + "\n\n")
		buf.WriteString(strings.Join(section.paragraphs, "\n\n"))
		buf.WriteString("\n")
	}
	return buf.Bytes(), nil
}
