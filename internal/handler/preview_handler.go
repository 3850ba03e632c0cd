package handler

import (
	"net/http"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/spacetraveling/internal/cms"
	"github.com/spacetraveling/internal/service"
	"go.uber.org/zap"
)

// 会话中保存预览令牌的键
const previewSessionKey = "preview_ref"

// previewRef 返回当前会话中的预览令牌；未安装会话中间件时视为未预览。
func previewRef(c *gin.Context) string {
	if _, ok := c.Get(sessions.DefaultKey); !ok {
		return ""
	}
	ref, _ := sessions.Default(c).Get(previewSessionKey).(string)
	return strings.TrimSpace(ref)
}

// PreviewActive reports whether the request carries a preview session.
func PreviewActive(c *gin.Context) bool {
	return previewRef(c) != ""
}

// EnterPreview 处理 CMS 的预览回调：保存令牌并跳转到被预览的文档。
func (a *API) EnterPreview(c *gin.Context) {
	token := strings.TrimSpace(c.Query("token"))
	if token == "" {
		respondError(c, http.StatusUnauthorized, "missing preview token")
		return
	}
	documentID := strings.TrimSpace(c.Query("documentId"))

	location := "/"
	if documentID != "" {
		doc, err := a.client.GetByID(c.Request.Context(), documentID, cms.QueryOptions{Ref: token})
		if err != nil {
			status := statusForError(err)
			if status >= http.StatusInternalServerError {
				c.Error(err)
				a.logger.Error("resolve preview document failed", zap.String("documentId", documentID), zap.Error(err))
				respondError(c, status, "failed to resolve preview document")
				return
			}
			respondError(c, status, "preview document not found")
			return
		}
		if doc.Type == service.PostDocumentType && doc.UID != "" {
			location = service.PostPath(doc.UID)
		}
	}

	session := sessions.Default(c)
	session.Set(previewSessionKey, token)
	if err := session.Save(); err != nil {
		c.Error(err)
		respondError(c, http.StatusInternalServerError, "failed to save preview session")
		return
	}

	c.Redirect(http.StatusFound, location)
}

// ExitPreview 清除预览令牌并回到首页。
func (a *API) ExitPreview(c *gin.Context) {
	session := sessions.Default(c)
	session.Delete(previewSessionKey)
	if err := session.Save(); err != nil {
		c.Error(err)
	}
	c.Redirect(http.StatusFound, "/")
}
