// Package site pre-renders the blog into static files.
package site

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/spacetraveling/internal/handler"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// 无论文章列表如何都会生成的页面
var fixedRoutes = []string{"/", "/feed.xml", "/sitemap.xml"}

// PathResolver 列出需要预渲染的文章路径。
type PathResolver interface {
	ResolvePaths(ctx context.Context) ([]string, error)
}

// Result 汇总一次构建。
type Result struct {
	Pages    []string
	Duration time.Duration
}

// Builder 通过前台 HTTP 处理器渲染页面并写入输出目录。
type Builder struct {
	handler     http.Handler
	paths       PathResolver
	outputDir   string
	concurrency int
	logger      *zap.Logger
}

// NewBuilder creates a Builder. concurrency below 1 renders one page at a time.
func NewBuilder(h http.Handler, paths PathResolver, outputDir string, concurrency int, logger *zap.Logger) *Builder {
	if concurrency < 1 {
		concurrency = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{
		handler:     h,
		paths:       paths,
		outputDir:   strings.TrimSpace(outputDir),
		concurrency: concurrency,
		logger:      logger,
	}
}

// Build 渲染全部页面。任一页面失败则整个构建失败，之前的输出目录保持不变；
// 成功后新目录整体替换旧目录，已删除文章的页面不会残留。
func (b *Builder) Build(ctx context.Context) (Result, error) {
	start := time.Now()
	if b.outputDir == "" {
		return Result{}, errors.New("build: output dir is required")
	}

	postPaths, err := b.paths.ResolvePaths(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("build: resolve paths: %w", err)
	}
	routes := append(append([]string{}, fixedRoutes...), postPaths...)

	target, err := filepath.Abs(b.outputDir)
	if err != nil {
		return Result{}, fmt.Errorf("build: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return Result{}, fmt.Errorf("build: %w", err)
	}
	staging, err := os.MkdirTemp(filepath.Dir(target), ".build-*")
	if err != nil {
		return Result{}, fmt.Errorf("build: create staging dir: %w", err)
	}
	defer os.RemoveAll(staging)

	var (
		mu    sync.Mutex
		pages []string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)
	for _, route := range routes {
		route := route
		g.Go(func() error {
			rel, err := b.renderPage(gctx, staging, route)
			if err != nil {
				return err
			}
			mu.Lock()
			pages = append(pages, rel)
			mu.Unlock()
			b.logger.Debug("page rendered", zap.String("route", route), zap.String("file", rel))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	if err := os.Chmod(staging, 0o755); err != nil {
		return Result{}, fmt.Errorf("build: %w", err)
	}
	if err := os.RemoveAll(target); err != nil {
		return Result{}, fmt.Errorf("build: clear output dir: %w", err)
	}
	if err := os.Rename(staging, target); err != nil {
		return Result{}, fmt.Errorf("build: publish output dir: %w", err)
	}

	sort.Strings(pages)
	result := Result{Pages: pages, Duration: time.Since(start)}
	b.logger.Info("site built",
		zap.String("output", target),
		zap.Int("pages", len(pages)),
		zap.Duration("duration", result.Duration))
	return result, nil
}

func (b *Builder) renderPage(ctx context.Context, root, route string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	rel := handler.PrebuiltFile(route)
	if rel == "" {
		return "", fmt.Errorf("render %s: route has no output file", route)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://localhost"+route, nil)
	if err != nil {
		return "", fmt.Errorf("render %s: %w", route, err)
	}
	rec := httptest.NewRecorder()
	b.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		return "", fmt.Errorf("render %s: status %d", route, rec.Code)
	}

	full := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("render %s: %w", route, err)
	}
	if err := os.WriteFile(full, rec.Body.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("render %s: %w", route, err)
	}
	return rel, nil
}
