package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/spacetraveling/internal/db"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupDocumentServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:document-service-%d?mode=memory&cache=shared", time.Now().UnixNano())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return gdb
}

func seedPost(t *testing.T, svc *DocumentService, uid, title string, publishedAt time.Time) {
	t.Helper()
	data := json.RawMessage(fmt.Sprintf(`{"title":%q,"subtitle":"sub %s","author":"Ana"}`, title, uid))
	if _, err := svc.Upsert(DocumentInput{Type: "posts", UID: uid, Data: data, PublishedAt: &publishedAt}); err != nil {
		t.Fatalf("seed %s: %v", uid, err)
	}
}

func TestDocumentService_SearchPaginatesInPublicationOrder(t *testing.T) {
	svc := NewDocumentService(setupDocumentServiceTestDB(t))
	base := time.Date(2021, 3, 1, 10, 0, 0, 0, time.UTC)
	seedPost(t, svc, "terceiro", "Terceiro", base.Add(48*time.Hour))
	seedPost(t, svc, "primeiro", "Primeiro", base)
	seedPost(t, svc, "segundo", "Segundo", base.Add(24*time.Hour))

	filter := DocumentFilter{PageSize: 2}
	if err := ParsePredicates(`[[at(document.type, "posts")]]`, &filter); err != nil {
		t.Fatalf("parse predicates: %v", err)
	}

	first, err := svc.Search(filter)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if first.Total != 3 || first.TotalPages != 2 || !first.HasNext() {
		t.Fatalf("unexpected paging: total=%d pages=%d", first.Total, first.TotalPages)
	}
	if got := []string{first.Documents[0].Document.UID, first.Documents[1].Document.UID}; got[0] != "primeiro" || got[1] != "segundo" {
		t.Fatalf("unexpected order %v", got)
	}

	filter.Page = 2
	second, err := svc.Search(filter)
	if err != nil {
		t.Fatalf("search page 2: %v", err)
	}
	if len(second.Documents) != 1 || second.Documents[0].Document.UID != "terceiro" || second.HasNext() {
		t.Fatalf("unexpected second page: %+v", second)
	}

	filter.Page = 1
	filter.Orderings = []DocumentOrdering{{Field: "first_publication_date", Desc: true}}
	desc, err := svc.Search(filter)
	if err != nil {
		t.Fatalf("search desc: %v", err)
	}
	if desc.Documents[0].Document.UID != "terceiro" {
		t.Fatalf("expected newest first, got %s", desc.Documents[0].Document.UID)
	}
}

func TestDocumentService_SearchProjectsFetchedFields(t *testing.T) {
	svc := NewDocumentService(setupDocumentServiceTestDB(t))
	seedPost(t, svc, "primeiro", "Primeiro", time.Now())

	result, err := svc.Search(DocumentFilter{Type: "posts", Fetch: []string{"posts.title", "other.title"}})
	if err != nil {
		t.Fatalf("search: %v", err)
	}

	var data map[string]interface{}
	if err := json.Unmarshal(result.Documents[0].Data, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if len(data) != 1 || data["title"] != "Primeiro" {
		t.Fatalf("expected only title to be projected, got %v", data)
	}
}

func TestDocumentService_PreviewRefIncludesDrafts(t *testing.T) {
	svc := NewDocumentService(setupDocumentServiceTestDB(t))
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.SetClock(func() time.Time { return now })

	seedPost(t, svc, "publicado", "Publicado", now.Add(-time.Hour))
	if _, err := svc.Upsert(DocumentInput{Type: "posts", UID: "publicado", Data: json.RawMessage(`{"title":"Revisado"}`), Draft: true}); err != nil {
		t.Fatalf("draft revision: %v", err)
	}
	if _, err := svc.Upsert(DocumentInput{Type: "posts", UID: "rascunho", Data: json.RawMessage(`{"title":"Rascunho"}`), Draft: true}); err != nil {
		t.Fatalf("draft: %v", err)
	}

	master, err := svc.Search(DocumentFilter{Ref: db.MasterRef, Type: "posts"})
	if err != nil {
		t.Fatalf("master search: %v", err)
	}
	if len(master.Documents) != 1 || string(master.Documents[0].Data) != `{"author":"Ana","subtitle":"sub publicado","title":"Publicado"}` {
		t.Fatalf("master ref should only expose the published revision, got %+v", master.Documents)
	}

	session, err := svc.CreatePreviewSession("review", 10*time.Minute)
	if err != nil {
		t.Fatalf("create preview session: %v", err)
	}

	preview, err := svc.Search(DocumentFilter{Ref: session.Token, Type: "posts"})
	if err != nil {
		t.Fatalf("preview search: %v", err)
	}
	if len(preview.Documents) != 2 {
		t.Fatalf("expected drafts to be visible in preview, got %d", len(preview.Documents))
	}
	if string(preview.Documents[0].Data) != `{"title":"Revisado"}` {
		t.Fatalf("expected draft revision to win in preview, got %s", preview.Documents[0].Data)
	}
	if preview.Documents[1].Document.UID != "rascunho" {
		t.Fatalf("expected unpublished draft to sort last, got %s", preview.Documents[1].Document.UID)
	}

	now = now.Add(11 * time.Minute)
	if _, err := svc.Search(DocumentFilter{Ref: session.Token}); !errors.Is(err, ErrInvalidRef) {
		t.Fatalf("expected expired token to be rejected, got %v", err)
	}
	if _, err := svc.Search(DocumentFilter{Ref: "made-up"}); !errors.Is(err, ErrInvalidRef) {
		t.Fatalf("expected unknown ref to be rejected, got %v", err)
	}
}

func TestDocumentService_UpsertKeepsPublicationDates(t *testing.T) {
	svc := NewDocumentService(setupDocumentServiceTestDB(t))
	first := time.Date(2021, 3, 1, 10, 0, 0, 0, time.UTC)
	now := first
	svc.SetClock(func() time.Time { return now })

	data := json.RawMessage(`{"title":"A"}`)
	doc, err := svc.Upsert(DocumentInput{Type: "posts", UID: "a", Data: data})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}

	now = first.Add(24 * time.Hour)
	same, err := svc.Upsert(DocumentInput{Type: "posts", UID: "a", Data: json.RawMessage(` { "title" : "A" } `)})
	if err != nil {
		t.Fatalf("re-upsert: %v", err)
	}
	if same.ID != doc.ID || !same.LastPublicationDate.Equal(first) {
		t.Fatalf("unchanged content should not bump last publication date, got %v", same.LastPublicationDate)
	}

	edited, err := svc.Upsert(DocumentInput{Type: "posts", UID: "a", Data: json.RawMessage(`{"title":"B"}`)})
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if !edited.FirstPublicationDate.Equal(first) || !edited.LastPublicationDate.Equal(now) {
		t.Fatalf("unexpected dates first=%v last=%v", edited.FirstPublicationDate, edited.LastPublicationDate)
	}

	if _, err := svc.Upsert(DocumentInput{Type: "posts", Data: data}); !errors.Is(err, ErrInvalidDocument) {
		t.Fatalf("expected missing uid to be rejected, got %v", err)
	}
	if _, err := svc.Upsert(DocumentInput{Type: "posts", UID: "b", Data: json.RawMessage(`[1,2]`)}); err == nil {
		t.Fatalf("expected non-object data to be rejected")
	}
}

func TestParsePredicates(t *testing.T) {
	tests := []struct {
		name    string
		q       string
		want    DocumentFilter
		wantErr bool
	}{
		{name: "empty", q: "", want: DocumentFilter{}},
		{name: "type", q: `[[at(document.type, "posts")]]`, want: DocumentFilter{Type: "posts"}},
		{name: "uid", q: `[[at(my.posts.uid, "hello-world")]]`, want: DocumentFilter{Type: "posts", UID: "hello-world"}},
		{name: "id and type", q: `[[at(document.type,"posts")][at(document.id, "abc")]]`, want: DocumentFilter{Type: "posts", ID: "abc"}},
		{name: "escaped quote", q: `[[at(my.posts.uid, "a\"b")]]`, want: DocumentFilter{Type: "posts", UID: `a"b`}},
		{name: "contradiction", q: `[[at(document.type, "posts")][at(my.pages.uid, "x")]]`, want: DocumentFilter{Type: "pages", UID: "x", impossible: true}},
		{name: "unsupported path", q: `[[at(document.tags, "go")]]`, wantErr: true},
		{name: "garbage", q: `[[fulltext(document, "x")]]`, wantErr: true},
		{name: "missing brackets", q: `at(document.type, "posts")`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got DocumentFilter
			err := ParsePredicates(tt.q, &got)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidQuery) {
					t.Fatalf("expected ErrInvalidQuery, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if got.Type != tt.want.Type || got.UID != tt.want.UID || got.ID != tt.want.ID || got.impossible != tt.want.impossible {
				t.Fatalf("expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestParseOrderings(t *testing.T) {
	orderings, err := ParseOrderings("[document.last_publication_date desc, document.first_publication_date]")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(orderings) != 2 || orderings[0].Field != "last_publication_date" || !orderings[0].Desc || orderings[1].Desc {
		t.Fatalf("unexpected orderings %+v", orderings)
	}

	if _, err := ParseOrderings("[my.posts.title]"); !errors.Is(err, ErrInvalidQuery) {
		t.Fatalf("expected unsupported field to fail, got %v", err)
	}
}
