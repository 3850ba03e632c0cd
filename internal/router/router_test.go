package router

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/spacetraveling/internal/cms"
	"github.com/spacetraveling/internal/handler"
)

// emptyClient 是没有任何文档的内容源。
type emptyClient struct{}

func (emptyClient) Query(context.Context, []cms.Predicate, cms.QueryOptions) (*cms.Response, error) {
	return &cms.Response{Page: 1, TotalPages: 1}, nil
}

func (emptyClient) FetchPage(context.Context, string) (*cms.Response, error) {
	return nil, cms.ErrForeignCursor
}

func (emptyClient) GetByUID(context.Context, string, string, cms.QueryOptions) (*cms.Document, error) {
	return nil, cms.ErrDocumentNotFound
}

func (emptyClient) GetByID(context.Context, string, cms.QueryOptions) (*cms.Document, error) {
	return nil, cms.ErrDocumentNotFound
}

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	api := handler.NewAPI(emptyClient{}, 1, handler.SiteSettings{Title: "spacetraveling"}, nil)
	return SetupRouter(api, Options{SessionSecret: "test-secret"})
}

func TestLoadTemplatesDefinesPages(t *testing.T) {
	tmpl := LoadTemplates()
	for _, name := range []string{"home.html", "post_cards.html", "post_detail.html", "not_found.html", "error.html", "head", "foot"} {
		if tmpl.Lookup(name) == nil {
			t.Fatalf("expected template %q to be defined", name)
		}
	}
}

func TestTranslateFunc(t *testing.T) {
	tmpl := LoadTemplates()
	clone, err := tmpl.Clone()
	if err != nil {
		t.Fatalf("clone templates: %v", err)
	}
	if _, err := clone.New("probe").Parse(`{{t .lang "load_more"}}`); err != nil {
		t.Fatalf("parse probe: %v", err)
	}

	var buf bytes.Buffer
	if err := clone.ExecuteTemplate(&buf, "probe", map[string]string{"lang": "en"}); err != nil {
		t.Fatalf("execute probe: %v", err)
	}
	if buf.String() != "Load more posts" {
		t.Fatalf("unexpected translation %q", buf.String())
	}
}

func TestSetupRouterServesPingAndStatic(t *testing.T) {
	r := newTestRouter()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "pong") {
		t.Fatalf("unexpected ping response %d %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/static/css/app.css", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), ".post-card") {
		t.Fatalf("expected stylesheet, got %d", w.Code)
	}
}

func TestSetupRouterRendersEmptyHome(t *testing.T) {
	r := newTestRouter()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, `<html lang="pt-BR">`) {
		t.Fatalf("expected portuguese layout, got %s", body)
	}
	if strings.Contains(body, "Carregar mais posts") {
		t.Fatalf("empty listing should not offer load more")
	}
	if w.Header().Get("Content-Language") != "pt-BR" {
		t.Fatalf("expected Content-Language header")
	}
}

func TestSetupRouterUnknownPathIsNotFound(t *testing.T) {
	r := newTestRouter()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/post/nao-existe", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", w.Code)
	}
}
