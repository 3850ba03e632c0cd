// Package cms is a client for a Prismic-style headless content API.
package cms

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrForeignCursor    = errors.New("cursor does not point at the configured content api")
	ErrNoMasterRef      = errors.New("content api did not advertise a master ref")
)

// DateLayout is the timestamp layout used by the content API.
const DateLayout = "2006-01-02T15:04:05-0700"

// Document is a raw CMS document. Data stays undecoded until a caller
// validates it against the shape it expects.
type Document struct {
	ID                   string          `json:"id"`
	UID                  string          `json:"uid,omitempty"`
	Type                 string          `json:"type"`
	Href                 string          `json:"href,omitempty"`
	Lang                 string          `json:"lang,omitempty"`
	Tags                 []string        `json:"tags"`
	FirstPublicationDate *string         `json:"first_publication_date"`
	LastPublicationDate  *string         `json:"last_publication_date"`
	Data                 json.RawMessage `json:"data"`
}

// Response is one page of a query.
type Response struct {
	Page             int        `json:"page"`
	ResultsPerPage   int        `json:"results_per_page"`
	ResultsSize      int        `json:"results_size"`
	TotalResultsSize int        `json:"total_results_size"`
	TotalPages       int        `json:"total_pages"`
	NextPage         *string    `json:"next_page"`
	PrevPage         *string    `json:"prev_page"`
	Results          []Document `json:"results"`
}

// Next returns the next page cursor, or "" when the listing is exhausted.
func (r *Response) Next() string {
	if r == nil || r.NextPage == nil {
		return ""
	}
	return strings.TrimSpace(*r.NextPage)
}

// Ref is a content release advertised by the API root.
type Ref struct {
	ID          string `json:"id"`
	Ref         string `json:"ref"`
	Label       string `json:"label"`
	IsMasterRef bool   `json:"isMasterRef"`
}

// APIInfo is the payload of the API root endpoint.
type APIInfo struct {
	Refs []Ref `json:"refs"`
}

// QueryOptions are the pagination and projection parameters of a query.
type QueryOptions struct {
	// Ref selects the content release; empty means the master ref. A
	// preview token is passed here as-is.
	Ref       string
	PageSize  int
	Page      int
	Fetch     []string
	Orderings []string
	Lang      string
}

// Predicate is one query filter, rendered in the API's query syntax.
type Predicate string

// At matches documents whose path equals value.
func At(path, value string) Predicate {
	return Predicate(fmt.Sprintf("[at(%s, %q)]", path, value))
}

// Query joins predicates into the q parameter.
func Query(predicates ...Predicate) string {
	var b strings.Builder
	b.WriteString("[")
	for _, p := range predicates {
		b.WriteString(string(p))
	}
	b.WriteString("]")
	return b.String()
}

// ParseDate parses a timestamp in the API's layout, accepting RFC 3339 too.
func ParseDate(value string) (time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if t, err := time.Parse(DateLayout, trimmed); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, trimmed)
}
