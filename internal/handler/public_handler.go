package handler

import (
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spacetraveling/internal/locale"
	"github.com/spacetraveling/internal/service"
	"go.uber.org/zap"
)

// postCardView 是列表页中的一项。
type postCardView struct {
	UID      string
	URL      string
	Title    string
	Subtitle string
	Author   string
	Date     string
}

type sectionView struct {
	Heading string
	Body    template.HTML
}

// articleView 是文章页使用的数据。
type articleView struct {
	UID         string
	Title       string
	Subtitle    string
	Author      string
	BannerURL   string
	BannerAlt   string
	Date        string
	EditedAt    string
	ReadingTime int
	Sections    []sectionView
	Previous    *service.PostLink
	Next        *service.PostLink
}

// commentsView 是评论组件（utterances）的参数，每个文章页渲染一次。
type commentsView struct {
	Repo      string
	IssueTerm string
	Theme     string
	Label     string
}

// postJSON 是 /api/posts 的单条结果。
type postJSON struct {
	UID                  string `json:"uid"`
	FirstPublicationDate string `json:"first_publication_date,omitempty"`
	Title                string `json:"title"`
	Subtitle             string `json:"subtitle"`
	Author               string `json:"author"`
	Date                 string `json:"date,omitempty"`
}

func buildPostCards(language string, posts []service.Post) []postCardView {
	cards := make([]postCardView, 0, len(posts))
	for _, post := range posts {
		card := postCardView{
			UID:      post.UID,
			URL:      service.PostPath(post.UID),
			Title:    post.Title,
			Subtitle: post.Subtitle,
			Author:   post.Author,
		}
		if card.Title == "" {
			card.Title = locale.T(language, "untitled")
		}
		if published, ok := post.FirstPublishedAt(); ok {
			card.Date = locale.FormatLongDate(language, published)
		}
		cards = append(cards, card)
	}
	return cards
}

func buildArticleView(language string, article *service.Article) articleView {
	post := article.Post
	view := articleView{
		UID:         post.UID,
		Title:       post.Title,
		Subtitle:    post.Subtitle,
		Author:      post.Author,
		BannerURL:   post.Banner.URL,
		BannerAlt:   post.Banner.Alt,
		ReadingTime: article.ReadingTime,
		Previous:    article.Navigation.Previous,
		Next:        article.Navigation.Next,
	}
	if view.Title == "" {
		view.Title = locale.T(language, "untitled")
	}
	if view.BannerAlt == "" {
		view.BannerAlt = view.Title
	}
	if published, ok := post.FirstPublishedAt(); ok {
		view.Date = locale.FormatShortDate(language, published)
	}
	if post.Edited() {
		if edited, ok := post.LastPublishedAt(); ok {
			view.EditedAt = locale.FormatDateTime(language, edited)
		}
	}
	view.Sections = make([]sectionView, 0, len(post.Content))
	for _, section := range post.Content {
		view.Sections = append(view.Sections, sectionView{Heading: section.Heading, Body: section.HTML()})
	}
	return view
}

// ShowHome renders the listing page with the first page of posts.
func (a *API) ShowHome(c *gin.Context) {
	pref := a.requestLocale(c)

	page, err := a.listing.LoadInitial(c.Request.Context(), previewRef(c))
	if err != nil {
		a.renderFailure(c, err)
		return
	}

	a.renderHTML(c, http.StatusOK, "home.html", gin.H{
		"title":      localizeFixedTitle(pref.Language, "Início"),
		"posts":      buildPostCards(pref.Language, page.Results),
		"hasMore":    page.HasMore(),
		"nextCursor": page.NextCursor,
		"year":       time.Now().Year(),
	})
}

// LoadMorePosts returns the next page of post cards for the HTMX "load more" control.
func (a *API) LoadMorePosts(c *gin.Context) {
	cursor := strings.TrimSpace(c.Query("cursor"))
	if cursor == "" {
		c.String(http.StatusBadRequest, "")
		return
	}

	page, err := a.listing.LoadMore(c.Request.Context(), cursor)
	if err != nil {
		status := statusForError(err)
		if status >= http.StatusInternalServerError {
			c.Error(err)
		}
		c.String(status, "")
		return
	}

	pref := a.requestLocale(c)
	a.renderHTML(c, http.StatusOK, "post_cards.html", gin.H{
		"posts":      buildPostCards(pref.Language, page.Results),
		"hasMore":    page.HasMore(),
		"nextCursor": page.NextCursor,
	})
}

// ListPosts 返回 JSON 形式的分页结果；无 cursor 时返回第一页。
func (a *API) ListPosts(c *gin.Context) {
	ctx := c.Request.Context()
	cursor := strings.TrimSpace(c.Query("cursor"))

	var (
		page service.PostPage
		err  error
	)
	if cursor == "" {
		page, err = a.listing.LoadInitial(ctx, previewRef(c))
	} else {
		page, err = a.listing.LoadMore(ctx, cursor)
	}
	if err != nil {
		status := statusForError(err)
		if status >= http.StatusInternalServerError {
			c.Error(err)
			respondError(c, status, "failed to load posts")
			return
		}
		respondError(c, status, err.Error())
		return
	}

	pref := a.requestLocale(c)
	results := make([]postJSON, 0, len(page.Results))
	for _, post := range page.Results {
		item := postJSON{
			UID:                  post.UID,
			FirstPublicationDate: post.FirstPublicationDate,
			Title:                post.Title,
			Subtitle:             post.Subtitle,
			Author:               post.Author,
		}
		if published, ok := post.FirstPublishedAt(); ok {
			item.Date = locale.FormatLongDate(pref.Language, published)
		}
		results = append(results, item)
	}

	var next *string
	if page.HasMore() {
		next = &page.NextCursor
	}
	c.JSON(http.StatusOK, gin.H{"results": results, "next_page": next})
}

// ShowPost renders a single article with navigation and the comment widget.
func (a *API) ShowPost(c *gin.Context) {
	slug := strings.TrimSpace(c.Param("slug"))
	ref := previewRef(c)

	article, err := a.articles.GetArticle(c.Request.Context(), slug, ref)
	if err != nil {
		a.renderFailure(c, err)
		return
	}

	pref := a.requestLocale(c)
	view := buildArticleView(pref.Language, article)

	payload := gin.H{
		"title":   view.Title,
		"article": view,
		"year":    time.Now().Year(),
	}
	if a.site.Comments.Enabled() {
		payload["comments"] = commentsView{
			Repo:      a.site.Comments.Repo,
			IssueTerm: a.site.Comments.IssueTerm,
			Theme:     a.site.Comments.Theme,
			Label:     locale.T(pref.Language, "comments"),
		}
	}
	a.renderHTML(c, http.StatusOK, "post_detail.html", payload)
}

// NotFound renders the 404 page for unmatched routes.
func (a *API) NotFound(c *gin.Context) {
	pref := a.requestLocale(c)
	a.renderHTML(c, http.StatusNotFound, "not_found.html", gin.H{
		"title": localizeFixedTitle(pref.Language, "Página não encontrada"),
		"year":  time.Now().Year(),
	})
}

// renderFailure 按错误类型渲染 404 或 500 页面。
func (a *API) renderFailure(c *gin.Context, err error) {
	if statusForError(err) == http.StatusNotFound {
		a.NotFound(c)
		return
	}

	c.Error(err)
	a.logger.Error("render page failed", zap.String("path", c.Request.URL.Path), zap.Error(err))

	pref := a.requestLocale(c)
	a.renderHTML(c, http.StatusInternalServerError, "error.html", gin.H{
		"title": localizeFixedTitle(pref.Language, "Algo deu errado"),
		"year":  time.Now().Year(),
	})
}
