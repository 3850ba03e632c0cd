package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/spacetraveling/internal/cms"
	"go.uber.org/zap"
)

// ErrArticleNotFound 表示 slug 没有对应的文章。
var ErrArticleNotFound = errors.New("article not found")

// 枚举全部文章时的单页大小。
const enumeratePageSize = 100

// PostLink 是上一篇/下一篇导航中的一项。
type PostLink struct {
	Title string
	Slug  string
}

// Navigation 由完整列表中的位置相邻关系推导，不持久化。
type Navigation struct {
	Previous *PostLink
	Next     *PostLink
}

// Article 是文章详情页的视图模型。
type Article struct {
	Post        Post
	Navigation  Navigation
	ReadingTime int
	Preview     bool
}

// ArticleService 组装文章详情页。
type ArticleService struct {
	source ContentSource
	logger *zap.Logger
}

// NewArticleService creates an ArticleService instance.
func NewArticleService(source ContentSource, logger *zap.Logger) *ArticleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ArticleService{source: source, logger: logger}
}

// ResolvePaths 返回所有已发布文章的 /post/{uid} 路径，用于预渲染。
func (s *ArticleService) ResolvePaths(ctx context.Context) ([]string, error) {
	posts, err := s.ListAll(ctx, "")
	if err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(posts))
	for _, post := range posts {
		paths = append(paths, PostPath(post.UID))
	}
	return paths, nil
}

// PostPath 返回文章的站内路径。
func PostPath(uid string) string {
	return "/post/" + uid
}

// GetArticle 读取 slug 对应的文章，并按同一 ref 下完整列表的位置推导上一篇/下一篇。
func (s *ArticleService) GetArticle(ctx context.Context, slug, ref string) (*Article, error) {
	if slug == "" {
		return nil, ErrArticleNotFound
	}

	doc, err := s.source.GetByUID(ctx, PostDocumentType, slug, cms.QueryOptions{Ref: ref})
	if err != nil {
		if errors.Is(err, cms.ErrDocumentNotFound) {
			return nil, ErrArticleNotFound
		}
		return nil, fmt.Errorf("get article %s: %w", slug, err)
	}

	post := NormalizePost(*doc)
	logMalformed(s.logger, post)

	listing, err := s.ListAll(ctx, ref)
	if err != nil {
		return nil, err
	}

	return &Article{
		Post:        post,
		Navigation:  navigationFor(listing, post.UID),
		ReadingTime: post.ReadingTime(),
		Preview:     ref != "",
	}, nil
}

// ListAll 沿 next_page 读取全部文章（仅列表字段），保持 CMS 返回的顺序。
func (s *ArticleService) ListAll(ctx context.Context, ref string) ([]Post, error) {
	resp, err := s.source.Query(ctx,
		[]cms.Predicate{cms.At("document.type", PostDocumentType)},
		cms.QueryOptions{
			Ref:      ref,
			PageSize: enumeratePageSize,
			Page:     1,
			Fetch:    listingFetch,
		})
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}

	var posts []Post
	seen := make(map[string]struct{})
	for {
		for _, doc := range resp.Results {
			if doc.UID == "" {
				continue
			}
			posts = append(posts, NormalizePost(doc))
		}

		cursor := resp.Next()
		if cursor == "" {
			return posts, nil
		}
		if _, ok := seen[cursor]; ok {
			return nil, fmt.Errorf("list posts: cursor %s repeated", cursor)
		}
		seen[cursor] = struct{}{}

		if resp, err = s.source.FetchPage(ctx, cursor); err != nil {
			return nil, fmt.Errorf("list posts: %w", err)
		}
	}
}

func navigationFor(posts []Post, uid string) Navigation {
	for i, post := range posts {
		if post.UID != uid {
			continue
		}
		nav := Navigation{}
		if i > 0 {
			nav.Previous = &PostLink{Title: posts[i-1].Title, Slug: posts[i-1].UID}
		}
		if i < len(posts)-1 {
			nav.Next = &PostLink{Title: posts[i+1].Title, Slug: posts[i+1].UID}
		}
		return nav
	}
	return Navigation{}
}
