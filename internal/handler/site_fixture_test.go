package handler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spacetraveling/internal/cms"
	"github.com/spacetraveling/internal/config"
	"github.com/spacetraveling/internal/db"
	"github.com/spacetraveling/internal/handler"
	"github.com/spacetraveling/internal/router"
	"github.com/spacetraveling/internal/service"
)

var ginOnce sync.Once

// testSite 把本地内容 API、CMS 客户端与前台路由串成一个完整站点。
type testSite struct {
	router  *gin.Engine
	docs    *service.DocumentService
	content *httptest.Server
}

type siteOptions struct {
	pageSize    int
	accessToken string
	outputDir   string
	comments    config.CommentsConfig
}

var firstPublished = time.Date(2021, 3, 25, 19, 25, 28, 0, time.UTC)

func newTestSite(t *testing.T, opts siteOptions) *testSite {
	t.Helper()

	ginOnce.Do(func() {
		gin.SetMode(gin.TestMode)
	})

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	gdb, err := db.Open("file:" + name + "?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})

	docs := service.NewDocumentService(gdb)
	content := httptest.NewServer(router.SetupContentRouter(handler.NewContentAPI(docs, opts.accessToken, nil), nil))
	t.Cleanup(content.Close)

	client, err := cms.NewClient(content.URL+"/api/v2", opts.accessToken, 5*time.Second)
	if err != nil {
		t.Fatalf("failed to create cms client: %v", err)
	}

	pageSize := opts.pageSize
	if pageSize == 0 {
		pageSize = 1
	}
	api := handler.NewAPI(client, pageSize, handler.SiteSettings{
		Title:           "spacetraveling",
		BaseURL:         "https://blog.test",
		DefaultLanguage: "pt",
		Comments:        opts.comments,
	}, nil)

	return &testSite{
		router:  router.SetupRouter(api, router.Options{SessionSecret: "test-secret", OutputDir: opts.outputDir}),
		docs:    docs,
		content: content,
	}
}

type sectionFixture struct {
	heading string
	body    string
}

func postData(t *testing.T, title string, sections ...sectionFixture) json.RawMessage {
	t.Helper()

	content := make([]map[string]interface{}, 0, len(sections))
	for _, section := range sections {
		content = append(content, map[string]interface{}{
			"heading": section.heading,
			"body": []map[string]interface{}{
				{"type": "paragraph", "text": section.body, "spans": []interface{}{}},
			},
		})
	}
	raw, err := json.Marshal(map[string]interface{}{
		"title":    title,
		"subtitle": "Subtítulo de " + title,
		"author":   "Joseph Oliveira",
		"banner":   map[string]string{"url": "https://images.prismic.io/banner.png", "alt": ""},
		"content":  content,
	})
	if err != nil {
		t.Fatalf("failed to encode post data: %v", err)
	}
	return raw
}

// seedPost 发布一篇文章，published 决定列表顺序。
func (s *testSite) seedPost(t *testing.T, uid, title string, published time.Time) *db.Document {
	t.Helper()

	document, err := s.docs.Upsert(service.DocumentInput{
		Type:        service.PostDocumentType,
		UID:         uid,
		Data:        postData(t, title, sectionFixture{heading: "Introdução", body: "Lorem ipsum dolor sit amet"}),
		PublishedAt: &published,
	})
	if err != nil {
		t.Fatalf("failed to seed post %s: %v", uid, err)
	}
	return document
}

func (s *testSite) seedThreePosts(t *testing.T) {
	t.Helper()
	s.seedPost(t, "como-utilizar-hooks", "Como utilizar Hooks", firstPublished)
	s.seedPost(t, "criando-um-app-cra-do-zero", "Criando um app CRA do zero", firstPublished.Add(24*time.Hour))
	s.seedPost(t, "mapas-com-react", "Mapas com React usando Leaflet", firstPublished.Add(48*time.Hour))
}

func (s *testSite) get(t *testing.T, target string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	req := httptestRequest(target)
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}
	return s.serve(req)
}

func (s *testSite) serve(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func httptestRequest(target string) *http.Request {
	return httptest.NewRequest(http.MethodGet, target, nil)
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()

	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == "spacetraveling_session" {
			return cookie
		}
	}
	t.Fatalf("expected a session cookie to be set")
	return nil
}
