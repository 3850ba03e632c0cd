package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/spacetraveling/internal/cms"
	"github.com/spacetraveling/internal/service"
)

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

// statusForError 将服务层错误映射为 HTTP 状态码。
func statusForError(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, service.ErrArticleNotFound), errors.Is(err, cms.ErrDocumentNotFound):
		return http.StatusNotFound
	case errors.Is(err, cms.ErrForeignCursor):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// requestScheme 识别反向代理转发的协议。
func requestScheme(c *gin.Context) string {
	if forwarded := strings.TrimSpace(c.GetHeader("X-Forwarded-Proto")); forwarded != "" {
		return strings.ToLower(strings.TrimSpace(strings.Split(forwarded, ",")[0]))
	}
	if c.Request.TLS != nil {
		return "https"
	}
	return "http"
}
