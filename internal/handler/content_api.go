package handler

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spacetraveling/internal/cms"
	"github.com/spacetraveling/internal/db"
	"github.com/spacetraveling/internal/service"
	"go.uber.org/zap"
)

// ContentAPI 以 Prismic 兼容的格式对外提供本地内容库。
type ContentAPI struct {
	documents   *service.DocumentService
	accessToken string
	logger      *zap.Logger
}

// NewContentAPI creates the local content API handlers. An empty
// accessToken leaves the API open.
func NewContentAPI(documents *service.DocumentService, accessToken string, logger *zap.Logger) *ContentAPI {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContentAPI{
		documents:   documents,
		accessToken: strings.TrimSpace(accessToken),
		logger:      logger,
	}
}

// RequireToken 在配置了访问令牌时校验 access_token 参数。
func (api *ContentAPI) RequireToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		if api.accessToken == "" {
			c.Next()
			return
		}
		supplied := strings.TrimSpace(c.Query("access_token"))
		if subtle.ConstantTimeCompare([]byte(supplied), []byte(api.accessToken)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "invalid access token"})
			return
		}
		c.Next()
	}
}

// Root 返回 API 入口信息，目前只有 master 一个 ref。
func (api *ContentAPI) Root(c *gin.Context) {
	c.JSON(http.StatusOK, cms.APIInfo{
		Refs: []cms.Ref{{
			ID:          "master",
			Ref:         db.MasterRef,
			Label:       "Master",
			IsMasterRef: true,
		}},
	})
}

// Search 处理 documents/search 查询。
func (api *ContentAPI) Search(c *gin.Context) {
	filter := service.DocumentFilter{
		Ref:  strings.TrimSpace(c.Query("ref")),
		Lang: strings.TrimSpace(c.Query("lang")),
	}

	if err := service.ParsePredicates(c.Query("q"), &filter); err != nil {
		api.respondSearchError(c, err)
		return
	}
	orderings, err := service.ParseOrderings(c.Query("orderings"))
	if err != nil {
		api.respondSearchError(c, err)
		return
	}
	filter.Orderings = orderings

	for _, field := range strings.Split(c.Query("fetch"), ",") {
		if trimmed := strings.TrimSpace(field); trimmed != "" {
			filter.Fetch = append(filter.Fetch, trimmed)
		}
	}

	if filter.Page, err = positiveQueryInt(c, "page"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "page must be a positive integer"})
		return
	}
	if filter.PageSize, err = positiveQueryInt(c, "pageSize"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "pageSize must be a positive integer"})
		return
	}

	result, err := api.documents.Search(filter)
	if err != nil {
		api.respondSearchError(c, err)
		return
	}

	resp := cms.Response{
		Page:             result.Page,
		ResultsPerPage:   result.PageSize,
		ResultsSize:      len(result.Documents),
		TotalResultsSize: int(result.Total),
		TotalPages:       result.TotalPages,
		Results:          make([]cms.Document, 0, len(result.Documents)),
	}
	if result.HasNext() {
		resp.NextPage = searchPageLink(c, result.Page+1)
	}
	if result.Page > 1 {
		resp.PrevPage = searchPageLink(c, result.Page-1)
	}
	for _, visible := range result.Documents {
		resp.Results = append(resp.Results, toCMSDocument(c, filter.Ref, visible))
	}

	c.JSON(http.StatusOK, resp)
}

func (api *ContentAPI) respondSearchError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidRef):
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid ref"})
	case errors.Is(err, service.ErrInvalidQuery):
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
	default:
		c.Error(err)
		api.logger.Error("content search failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "internal error"})
	}
}

// positiveQueryInt 读取可选的正整数参数，缺省时返回 0。
func positiveQueryInt(c *gin.Context, key string) (int, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return 0, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, err
	}
	if value < 1 {
		return 0, strconv.ErrRange
	}
	return value, nil
}

// searchPageLink 基于当前请求构造指向另一页的绝对地址。
func searchPageLink(c *gin.Context, page int) *string {
	values := c.Request.URL.Query()
	values.Set("page", strconv.Itoa(page))
	u := url.URL{
		Scheme:   requestScheme(c),
		Host:     c.Request.Host,
		Path:     c.Request.URL.Path,
		RawQuery: values.Encode(),
	}
	link := u.String()
	return &link
}

func toCMSDocument(c *gin.Context, ref string, visible service.VisibleDocument) cms.Document {
	document := visible.Document
	if ref == "" {
		ref = db.MasterRef
	}

	values := url.Values{}
	values.Set("ref", ref)
	values.Set("q", cms.Query(cms.At("document.id", document.ID)))
	href := url.URL{
		Scheme:   requestScheme(c),
		Host:     c.Request.Host,
		Path:     c.Request.URL.Path,
		RawQuery: values.Encode(),
	}

	return cms.Document{
		ID:                   document.ID,
		UID:                  document.UID,
		Type:                 document.Type,
		Href:                 href.String(),
		Lang:                 document.Lang,
		Tags:                 document.TagList(),
		FirstPublicationDate: formatPublicationDate(document.FirstPublicationDate),
		LastPublicationDate:  formatPublicationDate(document.LastPublicationDate),
		Data:                 visible.Data,
	}
}

func formatPublicationDate(value *time.Time) *string {
	if value == nil {
		return nil
	}
	formatted := value.UTC().Format(cms.DateLayout)
	return &formatted
}
