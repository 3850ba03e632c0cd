package handler

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/spacetraveling/internal/locale"
)

// PrebuiltFile 将请求路径映射为构建输出目录中的相对文件路径。
// 不可能由构建产生的路径返回空字符串。
func PrebuiltFile(requestPath string) string {
	cleaned := path.Clean("/" + strings.TrimSpace(requestPath))
	switch {
	case cleaned == "/":
		return "index.html"
	case strings.HasSuffix(cleaned, ".xml"):
		return strings.TrimPrefix(cleaned, "/")
	case strings.Contains(path.Base(cleaned), "."):
		return ""
	default:
		return path.Join(strings.TrimPrefix(cleaned, "/"), "index.html")
	}
}

// ServePrebuilt 优先返回 build 命令生成的静态页面，缺失时交给后续处理器按需渲染。
// 预览会话或非默认语言的请求总是按需渲染。
func (a *API) ServePrebuilt(outputDir string) gin.HandlerFunc {
	root := strings.TrimSpace(outputDir)
	return func(c *gin.Context) {
		if root == "" || (c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead) {
			c.Next()
			return
		}
		if PreviewActive(c) || a.requestLocale(c).Language != a.defaultLanguage() {
			c.Next()
			return
		}

		rel := PrebuiltFile(c.Request.URL.Path)
		if rel == "" {
			c.Next()
			return
		}
		full := filepath.Join(root, filepath.FromSlash(rel))
		info, err := os.Stat(full)
		if err != nil || !info.Mode().IsRegular() {
			c.Next()
			return
		}

		c.Header("X-Prebuilt", "1")
		c.File(full)
		c.Abort()
	}
}

func (a *API) defaultLanguage() string {
	if language := locale.NormalizeLanguage(a.site.DefaultLanguage); language != "" {
		return language
	}
	return locale.LanguagePortuguese
}
