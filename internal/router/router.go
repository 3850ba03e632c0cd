package router

import (
	"html/template"
	"net/http"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/spacetraveling/internal/handler"
	"github.com/spacetraveling/internal/locale"
	"github.com/spacetraveling/internal/logging"
	"github.com/spacetraveling/web"
	"go.uber.org/zap"
)

const (
	sessionName       = "spacetraveling_session"
	defaultSessionKey = "spacetraveling-dev-secret"
)

// Options 汇总前台路由的可选配置。
type Options struct {
	SessionSecret string
	// OutputDir 为 build 命令的输出目录，为空时不提供预构建页面。
	OutputDir string
	Logger    *zap.Logger
}

// SetupRouter 配置前台 Gin 引擎和路由
func SetupRouter(api *handler.API, opts Options) *gin.Engine {
	r := gin.New()
	r.Use(logging.Middleware(opts.Logger), gin.Recovery())

	// 配置会话中间件，预览令牌保存在会话中
	secret := strings.TrimSpace(opts.SessionSecret)
	if secret == "" {
		secret = defaultSessionKey
	}
	store := cookie.NewStore([]byte(secret))
	store.Options(sessions.Options{
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(sessionName, store))
	r.Use(api.LocaleMiddleware())

	r.SetHTMLTemplate(LoadTemplates())
	r.StaticFS("/static", http.FS(web.Static()))

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})

	// 页面路由优先使用预构建结果
	pages := r.Group("/", api.ServePrebuilt(opts.OutputDir))
	{
		pages.GET("/", api.ShowHome)
		pages.GET("/post/:slug", api.ShowPost)
		pages.GET("/feed.xml", api.Feed)
		pages.GET("/sitemap.xml", api.Sitemap)
	}

	r.GET("/posts/more", api.LoadMorePosts)

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/posts", api.ListPosts)
		apiGroup.GET("/preview", api.EnterPreview)
		apiGroup.GET("/exit-preview", api.ExitPreview)
	}

	r.NoRoute(api.NotFound)

	return r
}

// SetupContentRouter 配置本地内容 API 的路由。
func SetupContentRouter(api *handler.ContentAPI, logger *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(logging.Middleware(logger), gin.Recovery())

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})

	v2 := r.Group("/api/v2", api.RequireToken())
	{
		v2.GET("", api.Root)
		v2.GET("/documents/search", api.Search)
	}

	return r
}

// LoadTemplates 解析内嵌模板并注册模板函数。
func LoadTemplates() *template.Template {
	return template.Must(template.New("").Funcs(funcMap()).ParseFS(web.Templates(), "*.html"))
}

func funcMap() template.FuncMap {
	return template.FuncMap{
		"t": locale.T,
	}
}
