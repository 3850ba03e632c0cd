package handler

import (
	"encoding/xml"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/feeds"
	"github.com/spacetraveling/internal/locale"
	"github.com/spacetraveling/internal/service"
	"go.uber.org/zap"
)

// feedLimit 是 RSS 中保留的最近文章数量。
const feedLimit = 20

type sitemapURL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq,omitempty"`
	Priority   string `xml:"priority,omitempty"`
}

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"http://www.sitemaps.org/schemas/sitemap/0.9 urlset"`
	URLs    []sitemapURL `xml:"url"`
}

// Feed renders the RSS feed of the most recent published posts.
func (a *API) Feed(c *gin.Context) {
	posts, err := a.articles.ListAll(c.Request.Context(), "")
	if err != nil {
		c.Error(err)
		a.logger.Error("build feed failed", zap.Error(err))
		c.String(http.StatusInternalServerError, "failed to generate feed")
		return
	}

	posts = newestFirst(posts)
	if len(posts) > feedLimit {
		posts = posts[:feedLimit]
	}

	baseURL := a.baseURL(c)
	pref := a.requestLocale(c)
	feed := &feeds.Feed{
		Title:       a.site.Title,
		Link:        &feeds.Link{Href: baseURL + "/"},
		Description: locale.T(pref.Language, "feed"),
		Created:     time.Now().UTC(),
	}
	if len(posts) > 0 {
		if published, ok := posts[0].FirstPublishedAt(); ok {
			feed.Created = published
		}
	}

	for _, post := range posts {
		item := &feeds.Item{
			Id:          baseURL + service.PostPath(post.UID),
			Title:       post.Title,
			Link:        &feeds.Link{Href: baseURL + service.PostPath(post.UID)},
			Description: post.Subtitle,
		}
		if item.Title == "" {
			item.Title = locale.T(pref.Language, "untitled")
		}
		if post.Author != "" {
			item.Author = &feeds.Author{Name: post.Author}
		}
		if published, ok := post.FirstPublishedAt(); ok {
			item.Created = published
		}
		if post.Edited() {
			if edited, ok := post.LastPublishedAt(); ok {
				item.Updated = edited
			}
		}
		feed.Items = append(feed.Items, item)
	}

	rss, err := feed.ToRss()
	if err != nil {
		c.Error(err)
		c.String(http.StatusInternalServerError, "failed to generate feed")
		return
	}
	c.Data(http.StatusOK, "application/rss+xml; charset=utf-8", []byte(rss))
}

// Sitemap renders sitemap.xml covering the listing page and every post.
func (a *API) Sitemap(c *gin.Context) {
	posts, err := a.articles.ListAll(c.Request.Context(), "")
	if err != nil {
		c.Error(err)
		a.logger.Error("build sitemap failed", zap.Error(err))
		c.String(http.StatusInternalServerError, "failed to generate sitemap")
		return
	}

	baseURL := a.baseURL(c)
	urls := []sitemapURL{{
		Loc:        baseURL + "/",
		ChangeFreq: "daily",
		Priority:   "1.0",
	}}
	for _, post := range posts {
		entry := sitemapURL{
			Loc:        baseURL + service.PostPath(post.UID),
			ChangeFreq: "weekly",
			Priority:   "0.8",
		}
		if modified, ok := post.LastPublishedAt(); ok {
			entry.LastMod = modified.Format("2006-01-02")
		} else if published, ok := post.FirstPublishedAt(); ok {
			entry.LastMod = published.Format("2006-01-02")
		}
		urls = append(urls, entry)
	}

	body, err := xml.MarshalIndent(sitemapURLSet{URLs: urls}, "", "  ")
	if err != nil {
		c.Error(err)
		c.String(http.StatusInternalServerError, "failed to generate sitemap")
		return
	}
	c.Data(http.StatusOK, "application/xml; charset=utf-8", append([]byte(xml.Header), body...))
}

// newestFirst 按首次发布时间倒序排列，未发布的排在最后；原切片不变。
func newestFirst(posts []service.Post) []service.Post {
	sorted := make([]service.Post, len(posts))
	copy(sorted, posts)
	sort.SliceStable(sorted, func(i, j int) bool {
		left, lok := sorted[i].FirstPublishedAt()
		right, rok := sorted[j].FirstPublishedAt()
		if lok != rok {
			return lok
		}
		return left.After(right)
	})
	return sorted
}

// baseURL 优先使用配置的站点地址，否则从请求推导。
func (a *API) baseURL(c *gin.Context) string {
	if a.site.BaseURL != "" {
		return a.site.BaseURL
	}
	return requestScheme(c) + "://" + c.Request.Host
}
