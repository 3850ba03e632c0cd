package cms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	searchPath       = "/documents/search"
	maxResponseBytes = 8 << 20
)

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to the content API rooted at an endpoint such as
// https://repo.cdn.prismic.io/api/v2.
type Client struct {
	endpoint    *url.URL
	accessToken string
	http        httpDoer
	logger      *zap.Logger
}

type apiError struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// NewClient validates the endpoint and builds a client.
func NewClient(endpoint, accessToken string, timeout time.Duration) (*Client, error) {
	parsed, err := url.Parse(strings.TrimRight(strings.TrimSpace(endpoint), "/"))
	if err != nil {
		return nil, fmt.Errorf("parse cms endpoint: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("cms endpoint must be an http(s) url, got %q", endpoint)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("cms endpoint is missing a host: %q", endpoint)
	}
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Client{
		endpoint:    parsed,
		accessToken: strings.TrimSpace(accessToken),
		http:        &http.Client{Timeout: timeout},
		logger:      zap.NewNop(),
	}, nil
}

// SetHTTPClient replaces the transport, mainly for tests.
func (c *Client) SetHTTPClient(client httpDoer) {
	if client == nil {
		c.http = &http.Client{Timeout: 20 * time.Second}
		return
	}
	c.http = client
}

// SetLogger attaches a logger; nil disables logging.
func (c *Client) SetLogger(logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	c.logger = logger
}

// Endpoint returns the API root the client is bound to.
func (c *Client) Endpoint() string {
	return c.endpoint.String()
}

// MasterRef returns the ref of the currently published release.
func (c *Client) MasterRef(ctx context.Context) (string, error) {
	u := *c.endpoint
	c.withToken(&u)

	var info APIInfo
	if err := c.getJSON(ctx, &u, &info); err != nil {
		return "", err
	}
	for _, ref := range info.Refs {
		if ref.IsMasterRef && strings.TrimSpace(ref.Ref) != "" {
			return ref.Ref, nil
		}
	}
	return "", ErrNoMasterRef
}

// Query runs a predicate query. An empty opts.Ref resolves to the master ref.
func (c *Client) Query(ctx context.Context, predicates []Predicate, opts QueryOptions) (*Response, error) {
	ref := strings.TrimSpace(opts.Ref)
	if ref == "" {
		master, err := c.MasterRef(ctx)
		if err != nil {
			return nil, err
		}
		ref = master
	}

	values := url.Values{}
	values.Set("ref", ref)
	if len(predicates) > 0 {
		values.Set("q", Query(predicates...))
	}
	if opts.PageSize > 0 {
		values.Set("pageSize", strconv.Itoa(opts.PageSize))
	}
	if opts.Page > 0 {
		values.Set("page", strconv.Itoa(opts.Page))
	}
	if len(opts.Fetch) > 0 {
		values.Set("fetch", strings.Join(opts.Fetch, ","))
	}
	if len(opts.Orderings) > 0 {
		values.Set("orderings", "["+strings.Join(opts.Orderings, ",")+"]")
	}
	if lang := strings.TrimSpace(opts.Lang); lang != "" {
		values.Set("lang", lang)
	}

	u := c.searchURL()
	u.RawQuery = values.Encode()
	c.withToken(u)
	return c.search(ctx, u)
}

// GetByUID fetches the single document of docType with the given uid.
func (c *Client) GetByUID(ctx context.Context, docType, uid string, opts QueryOptions) (*Document, error) {
	return c.single(ctx, At(fmt.Sprintf("my.%s.uid", docType), uid), opts)
}

// GetByID fetches a document by its id regardless of type.
func (c *Client) GetByID(ctx context.Context, id string, opts QueryOptions) (*Document, error) {
	return c.single(ctx, At("document.id", id), opts)
}

func (c *Client) single(ctx context.Context, predicate Predicate, opts QueryOptions) (*Document, error) {
	opts.PageSize = 1
	opts.Page = 1
	resp, err := c.Query(ctx, []Predicate{predicate}, opts)
	if err != nil {
		return nil, err
	}
	if len(resp.Results) == 0 {
		return nil, ErrDocumentNotFound
	}
	doc := resp.Results[0]
	return &doc, nil
}

// FetchPage follows a next_page cursor verbatim. Only cursors pointing at
// the configured search endpoint are accepted.
func (c *Client) FetchPage(ctx context.Context, cursor string) (*Response, error) {
	u, err := c.checkCursor(cursor)
	if err != nil {
		return nil, err
	}
	c.withToken(u)
	return c.search(ctx, u)
}

func (c *Client) checkCursor(cursor string) (*url.URL, error) {
	trimmed := strings.TrimSpace(cursor)
	if trimmed == "" {
		return nil, ErrForeignCursor
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrForeignCursor, err)
	}
	expected := c.searchURL()
	if !strings.EqualFold(u.Scheme, expected.Scheme) ||
		!strings.EqualFold(u.Host, expected.Host) ||
		strings.TrimRight(u.Path, "/") != expected.Path {
		return nil, ErrForeignCursor
	}
	return u, nil
}

func (c *Client) search(ctx context.Context, u *url.URL) (*Response, error) {
	var resp Response
	if err := c.getJSON(ctx, u, &resp); err != nil {
		return nil, err
	}
	resp.NextPage = stripToken(resp.NextPage)
	resp.PrevPage = stripToken(resp.PrevPage)
	return &resp, nil
}

func (c *Client) getJSON(ctx context.Context, u *url.URL, dst interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("build cms request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "spacetraveling/1.0")

	client := c.http
	if client == nil {
		client = http.DefaultClient
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request cms %s: %w", u.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("read cms response: %w", err)
	}

	c.logger.Debug("cms request",
		zap.String("path", u.Path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)))

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr apiError
		_ = json.Unmarshal(body, &apiErr)
		message := strings.TrimSpace(apiErr.Message)
		if message == "" {
			message = strings.TrimSpace(apiErr.Error)
		}
		if message == "" {
			message = resp.Status
		}
		return &StatusError{StatusCode: resp.StatusCode, Message: message}
	}

	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("decode cms response: %w", err)
	}
	return nil
}

// StatusError is returned when the API answers with a 4xx/5xx status.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("cms returned %d: %s", e.StatusCode, e.Message)
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.StatusCode == code
}

func (c *Client) searchURL() *url.URL {
	u := *c.endpoint
	u.Path = strings.TrimRight(u.Path, "/") + searchPath
	u.RawQuery = ""
	return &u
}

func (c *Client) withToken(u *url.URL) {
	if c.accessToken == "" {
		return
	}
	values := u.Query()
	values.Set("access_token", c.accessToken)
	u.RawQuery = values.Encode()
}

// stripToken removes access_token from cursors so they can be handed to
// browsers; FetchPage adds it back.
func stripToken(cursor *string) *string {
	if cursor == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*cursor)
	if trimmed == "" {
		return nil
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return &trimmed
	}
	values := u.Query()
	if !values.Has("access_token") {
		return &trimmed
	}
	values.Del("access_token")
	u.RawQuery = values.Encode()
	stripped := u.String()
	return &stripped
}
