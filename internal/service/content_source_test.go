package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"sync"

	"github.com/spacetraveling/internal/cms"
)

const fakeSearchURL = "https://cms.test/api/v2/documents/search"

// fakeSource serves documents from memory with the same paging and cursor
// behaviour as the content API.
type fakeSource struct {
	mu      sync.Mutex
	docs    []cms.Document
	preview map[string][]cms.Document
	queries []cms.QueryOptions
	fetched []string
	err     error
	loop    bool
}

func (f *fakeSource) docsFor(ref string) []cms.Document {
	if docs, ok := f.preview[ref]; ok && ref != "" {
		return docs
	}
	return f.docs
}

func (f *fakeSource) Query(_ context.Context, _ []cms.Predicate, opts cms.QueryOptions) (*cms.Response, error) {
	f.mu.Lock()
	f.queries = append(f.queries, opts)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	page := opts.Page
	if page <= 0 {
		page = 1
	}
	return f.page(opts.Ref, opts.PageSize, page), nil
}

func (f *fakeSource) FetchPage(_ context.Context, cursor string) (*cms.Response, error) {
	f.mu.Lock()
	f.fetched = append(f.fetched, cursor)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	u, err := url.Parse(cursor)
	if err != nil || u.Scheme+"://"+u.Host+u.Path != fakeSearchURL {
		return nil, cms.ErrForeignCursor
	}
	values := u.Query()
	page, _ := strconv.Atoi(values.Get("page"))
	size, _ := strconv.Atoi(values.Get("pageSize"))
	return f.page(values.Get("ref"), size, page), nil
}

func (f *fakeSource) GetByUID(_ context.Context, docType, uid string, opts cms.QueryOptions) (*cms.Document, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, doc := range f.docsFor(opts.Ref) {
		if doc.Type == docType && doc.UID == uid {
			found := doc
			return &found, nil
		}
	}
	return nil, cms.ErrDocumentNotFound
}

func (f *fakeSource) page(ref string, size, page int) *cms.Response {
	docs := f.docsFor(ref)
	if size <= 0 {
		size = 20
	}
	start := (page - 1) * size
	if start > len(docs) {
		start = len(docs)
	}
	end := start + size
	if end > len(docs) {
		end = len(docs)
	}

	resp := &cms.Response{
		Page:             page,
		ResultsPerPage:   size,
		ResultsSize:      end - start,
		TotalResultsSize: len(docs),
		Results:          append([]cms.Document(nil), docs[start:end]...),
	}
	if end < len(docs) || f.loop {
		nextPage := page + 1
		if f.loop {
			nextPage = page
		}
		values := url.Values{}
		values.Set("ref", ref)
		values.Set("page", strconv.Itoa(nextPage))
		values.Set("pageSize", strconv.Itoa(size))
		next := fakeSearchURL + "?" + values.Encode()
		resp.NextPage = &next
	}
	return resp
}

func postDoc(uid, title string, body string) cms.Document {
	first := "2021-03-25T19:25:28+0000"
	data := map[string]interface{}{
		"title":    title,
		"subtitle": "Subtítulo de " + title,
		"author":   "Joseph Oliveira",
		"banner":   map[string]string{"url": "https://images.test/" + uid + ".png", "alt": title},
	}
	if body != "" {
		data["content"] = []map[string]json.RawMessage{{
			"heading": json.RawMessage(`"Introdução"`),
			"body":    json.RawMessage(fmt.Sprintf(`[{"type":"paragraph","text":%q,"spans":[]}]`, body)),
		}}
	}
	raw, _ := json.Marshal(data)
	return cms.Document{
		ID:                   "id-" + uid,
		UID:                  uid,
		Type:                 PostDocumentType,
		FirstPublicationDate: &first,
		LastPublicationDate:  &first,
		Data:                 raw,
	}
}
