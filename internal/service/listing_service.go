package service

import (
	"context"
	"fmt"

	"github.com/spacetraveling/internal/cms"
	"go.uber.org/zap"
)

// DefaultListingPageSize 是首页每次加载的文章数。
const DefaultListingPageSize = 1

// listingFetch 是列表页需要的字段投影。
var listingFetch = []string{"posts.title", "posts.subtitle", "posts.author"}

// ContentSource is the part of the CMS client the blog reads through.
type ContentSource interface {
	Query(ctx context.Context, predicates []cms.Predicate, opts cms.QueryOptions) (*cms.Response, error)
	FetchPage(ctx context.Context, cursor string) (*cms.Response, error)
	GetByUID(ctx context.Context, docType, uid string, opts cms.QueryOptions) (*cms.Document, error)
}

// PostPage 是列表页的分页状态。NextCursor 为空表示没有更多文章。
type PostPage struct {
	Results    []Post
	NextCursor string
}

// HasMore 决定是否渲染“加载更多”。
func (p PostPage) HasMore() bool {
	return p.NextCursor != ""
}

// Append 追加下一页结果并替换游标，已有结果的顺序保持不变。
func (p PostPage) Append(next PostPage) PostPage {
	results := make([]Post, 0, len(p.Results)+len(next.Results))
	results = append(results, p.Results...)
	results = append(results, next.Results...)
	return PostPage{Results: results, NextCursor: next.NextCursor}
}

// ListingService 负责首页的首屏加载与“加载更多”。
type ListingService struct {
	source   ContentSource
	pageSize int
	logger   *zap.Logger
}

// NewListingService creates a ListingService instance.
func NewListingService(source ContentSource, pageSize int, logger *zap.Logger) *ListingService {
	if pageSize <= 0 {
		pageSize = DefaultListingPageSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ListingService{source: source, pageSize: pageSize, logger: logger}
}

// PageSize returns the configured listing page size.
func (s *ListingService) PageSize() int {
	return s.pageSize
}

// LoadInitial 查询第一页文章。ref 为空时使用已发布内容。
func (s *ListingService) LoadInitial(ctx context.Context, ref string) (PostPage, error) {
	resp, err := s.source.Query(ctx,
		[]cms.Predicate{cms.At("document.type", PostDocumentType)},
		cms.QueryOptions{
			Ref:      ref,
			PageSize: s.pageSize,
			Page:     1,
			Fetch:    listingFetch,
		})
	if err != nil {
		return PostPage{}, fmt.Errorf("load posts: %w", err)
	}
	return s.toPage(resp), nil
}

// LoadMore 直接请求游标地址，游标本身已编码了查询条件。
func (s *ListingService) LoadMore(ctx context.Context, cursor string) (PostPage, error) {
	resp, err := s.source.FetchPage(ctx, cursor)
	if err != nil {
		return PostPage{}, fmt.Errorf("load more posts: %w", err)
	}
	return s.toPage(resp), nil
}

func (s *ListingService) toPage(resp *cms.Response) PostPage {
	page := PostPage{Results: make([]Post, 0, len(resp.Results)), NextCursor: resp.Next()}
	for _, doc := range resp.Results {
		post := NormalizePost(doc)
		logMalformed(s.logger, post)
		page.Results = append(page.Results, post)
	}
	return page
}

func logMalformed(logger *zap.Logger, post Post) {
	if len(post.Malformed) == 0 {
		return
	}
	logger.Warn("malformed post fields",
		zap.String("uid", post.UID),
		zap.Strings("fields", post.Malformed))
}
