package handler

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/spacetraveling/internal/cms"
	"github.com/spacetraveling/internal/config"
	"github.com/spacetraveling/internal/service"
	"go.uber.org/zap"
)

// ContentClient 是前台处理器需要的 CMS 能力。
type ContentClient interface {
	service.ContentSource
	GetByID(ctx context.Context, id string, opts cms.QueryOptions) (*cms.Document, error)
}

// SiteSettings 是渲染页面时使用的站点信息。
type SiteSettings struct {
	Title           string
	BaseURL         string
	DefaultLanguage string
	Comments        config.CommentsConfig
}

// API bundles shared dependencies for HTTP handlers.
type API struct {
	client   ContentClient
	listing  *service.ListingService
	articles *service.ArticleService
	site     SiteSettings
	logger   *zap.Logger
}

// NewAPI constructs a handler set with shared services.
func NewAPI(client ContentClient, pageSize int, site SiteSettings, logger *zap.Logger) *API {
	if logger == nil {
		logger = zap.NewNop()
	}
	if strings.TrimSpace(site.Title) == "" {
		site.Title = "spacetraveling"
	}
	site.BaseURL = strings.TrimRight(strings.TrimSpace(site.BaseURL), "/")

	return &API{
		client:   client,
		listing:  service.NewListingService(client, pageSize, logger),
		articles: service.NewArticleService(client, logger),
		site:     site,
		logger:   logger,
	}
}

// SiteFromConfig 从应用配置提取站点信息。
func SiteFromConfig(cfg config.AppConfig) SiteSettings {
	return SiteSettings{
		Title:           cfg.SiteTitle,
		BaseURL:         cfg.SiteBaseURL,
		DefaultLanguage: cfg.DefaultLanguage,
		Comments:        cfg.Comments,
	}
}

// Articles exposes the article service, used by the static builder to
// enumerate routes.
func (a *API) Articles() *service.ArticleService {
	return a.articles
}

func (a *API) renderHTML(c *gin.Context, status int, template string, data gin.H) {
	pref := a.requestLocale(c)

	payload := gin.H{}
	for key, value := range data {
		payload[key] = value
	}

	if _, exists := payload["site"]; !exists {
		payload["site"] = gin.H{
			"title":   a.site.Title,
			"baseUrl": a.site.BaseURL,
		}
	}
	if _, exists := payload["siteTitle"]; !exists {
		payload["siteTitle"] = a.site.Title
	}
	if _, exists := payload["lang"]; !exists {
		payload["lang"] = pref.Language
	}
	if _, exists := payload["htmlLang"]; !exists {
		payload["htmlLang"] = pref.HTMLLang
	}
	if _, exists := payload["languageSwitch"]; !exists {
		payload["languageSwitch"] = buildLanguageSwitch(c)
	}
	if _, exists := payload["preview"]; !exists {
		payload["preview"] = previewRef(c) != ""
	}

	c.HTML(status, template, payload)
}
