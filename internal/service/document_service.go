package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spacetraveling/internal/db"
	"gorm.io/gorm"
)

var (
	ErrInvalidRef       = errors.New("invalid ref")
	ErrInvalidQuery     = errors.New("invalid query")
	ErrInvalidDocument  = errors.New("document is missing type or uid")
	ErrDocumentNotFound = errors.New("document not found")
)

const (
	defaultDocumentPageSize = 20
	maxDocumentPageSize     = 100
)

var (
	predicatePattern = regexp.MustCompile(`\[\s*at\(\s*([A-Za-z0-9_.\-]+)\s*,\s*"((?:[^"\\]|\\.)*)"\s*\)\s*\]`)
	uidPathPattern   = regexp.MustCompile(`^my\.([A-Za-z0-9_\-]+)\.uid$`)
)

// DocumentService 提供本地内容库的查询与写入。
type DocumentService struct {
	db  *gorm.DB
	now func() time.Time
}

// DocumentOrdering 描述一个排序字段。
type DocumentOrdering struct {
	Field string
	Desc  bool
}

// DocumentFilter describes a search against the local content store.
type DocumentFilter struct {
	Ref       string
	Type      string
	UID       string
	ID        string
	Lang      string
	Fetch     []string
	Orderings []DocumentOrdering
	Page      int
	PageSize  int

	// impossible is set when predicates contradict each other.
	impossible bool
}

// VisibleDocument 是某个 ref 下可见的文档及其对应版本的数据。
type VisibleDocument struct {
	Document db.Document
	Data     json.RawMessage
}

// DocumentListResult aggregates a page of documents.
type DocumentListResult struct {
	Documents  []VisibleDocument
	Total      int64
	TotalPages int
	Page       int
	PageSize   int
}

// HasNext reports whether a further page exists.
func (r *DocumentListResult) HasNext() bool {
	return r.Page < r.TotalPages
}

// DocumentInput 是导入或写入文档时接受的字段。
type DocumentInput struct {
	Type        string
	UID         string
	Lang        string
	Tags        []string
	Data        json.RawMessage
	Draft       bool
	PublishedAt *time.Time
}

// NewDocumentService creates a DocumentService instance.
func NewDocumentService(gdb *gorm.DB) *DocumentService {
	return &DocumentService{db: gdb, now: time.Now}
}

// SetClock 覆盖当前时间来源，便于测试。
func (s *DocumentService) SetClock(now func() time.Time) {
	if now == nil {
		now = time.Now
	}
	s.now = now
}

// ParsePredicates 解析 q 参数中的 at(...) 谓词并合并到 filter。
func ParsePredicates(q string, filter *DocumentFilter) error {
	trimmed := strings.TrimSpace(q)
	if trimmed == "" {
		return nil
	}
	if !strings.HasPrefix(trimmed, "[") || !strings.HasSuffix(trimmed, "]") {
		return fmt.Errorf("%w: %s", ErrInvalidQuery, q)
	}
	inner := strings.TrimSpace(trimmed[1 : len(trimmed)-1])

	matches := predicatePattern.FindAllStringSubmatchIndex(inner, -1)
	cursor := 0
	for _, m := range matches {
		if strings.TrimSpace(inner[cursor:m[0]]) != "" {
			return fmt.Errorf("%w: unexpected %q", ErrInvalidQuery, inner[cursor:m[0]])
		}
		cursor = m[1]

		path := inner[m[2]:m[3]]
		value, err := strconv.Unquote(`"` + inner[m[4]:m[5]] + `"`)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidQuery, err)
		}
		if err := applyPredicate(filter, path, value); err != nil {
			return err
		}
	}
	if strings.TrimSpace(inner[cursor:]) != "" {
		return fmt.Errorf("%w: unexpected %q", ErrInvalidQuery, inner[cursor:])
	}
	return nil
}

func applyPredicate(filter *DocumentFilter, path, value string) error {
	switch {
	case path == "document.type":
		if filter.Type != "" && filter.Type != value {
			filter.impossible = true
		}
		filter.Type = value
	case path == "document.id":
		if filter.ID != "" && filter.ID != value {
			filter.impossible = true
		}
		filter.ID = value
	case uidPathPattern.MatchString(path):
		docType := uidPathPattern.FindStringSubmatch(path)[1]
		if filter.Type != "" && filter.Type != docType {
			filter.impossible = true
		}
		if filter.UID != "" && filter.UID != value {
			filter.impossible = true
		}
		filter.Type = docType
		filter.UID = value
	default:
		return fmt.Errorf("%w: unsupported path %s", ErrInvalidQuery, path)
	}
	return nil
}

// ParseOrderings 解析形如 [document.first_publication_date desc] 的排序参数。
func ParseOrderings(raw string) ([]DocumentOrdering, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, nil
	}
	trimmed = strings.TrimSuffix(strings.TrimPrefix(trimmed, "["), "]")

	orderings := make([]DocumentOrdering, 0)
	for _, part := range strings.Split(trimmed, ",") {
		fields := strings.Fields(part)
		if len(fields) == 0 {
			continue
		}
		ordering := DocumentOrdering{}
		switch fields[0] {
		case "document.first_publication_date":
			ordering.Field = "first_publication_date"
		case "document.last_publication_date":
			ordering.Field = "last_publication_date"
		default:
			return nil, fmt.Errorf("%w: unsupported ordering %s", ErrInvalidQuery, fields[0])
		}
		if len(fields) > 1 {
			switch strings.ToLower(fields[1]) {
			case "desc":
				ordering.Desc = true
			case "asc":
			default:
				return nil, fmt.Errorf("%w: unsupported direction %s", ErrInvalidQuery, fields[1])
			}
		}
		orderings = append(orderings, ordering)
	}
	return orderings, nil
}

// Search 返回 ref 下可见的文档分页结果。主 ref 只返回已发布内容，
// 有效的预览令牌会带出草稿修订。
func (s *DocumentService) Search(filter DocumentFilter) (*DocumentListResult, error) {
	includeDrafts, err := s.resolveRef(filter.Ref)
	if err != nil {
		return nil, err
	}

	result := &DocumentListResult{Page: filter.Page, PageSize: filter.PageSize}
	if result.Page <= 0 {
		result.Page = 1
	}
	if result.PageSize <= 0 {
		result.PageSize = defaultDocumentPageSize
	}
	if result.PageSize > maxDocumentPageSize {
		result.PageSize = maxDocumentPageSize
	}

	if filter.impossible {
		result.TotalPages = 1
		result.Documents = []VisibleDocument{}
		return result, nil
	}

	countQuery := s.applyDocumentFilters(s.db.Model(&db.Document{}), filter, includeDrafts)
	if err := countQuery.Count(&result.Total).Error; err != nil {
		return nil, err
	}

	var documents []db.Document
	dataQuery := s.applyDocumentFilters(s.db.Model(&db.Document{}), filter, includeDrafts)
	for _, order := range documentOrder(filter.Orderings) {
		dataQuery = dataQuery.Order(order)
	}
	offset := (result.Page - 1) * result.PageSize
	if err := dataQuery.Limit(result.PageSize).Offset(offset).Find(&documents).Error; err != nil {
		return nil, err
	}

	if result.Total == 0 {
		result.TotalPages = 1
	} else {
		result.TotalPages = int((result.Total + int64(result.PageSize) - 1) / int64(result.PageSize))
	}

	result.Documents = make([]VisibleDocument, 0, len(documents))
	for _, document := range documents {
		raw := document.Data
		if includeDrafts && document.HasDraft() {
			raw = document.DraftData
		}
		data, err := projectFields(raw, document.Type, filter.Fetch)
		if err != nil {
			return nil, fmt.Errorf("document %s: %w", document.ID, err)
		}
		result.Documents = append(result.Documents, VisibleDocument{Document: document, Data: data})
	}
	return result, nil
}

func (s *DocumentService) resolveRef(ref string) (bool, error) {
	trimmed := strings.TrimSpace(ref)
	if trimmed == "" || trimmed == db.MasterRef {
		return false, nil
	}

	var session db.PreviewSession
	if err := s.db.Where("token = ?", trimmed).First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, ErrInvalidRef
		}
		return false, err
	}
	if !session.Active(s.now()) {
		return false, ErrInvalidRef
	}
	return true, nil
}

func (s *DocumentService) applyDocumentFilters(query *gorm.DB, filter DocumentFilter, includeDrafts bool) *gorm.DB {
	if !includeDrafts {
		query = query.Where("documents.first_publication_date IS NOT NULL AND documents.data <> ''")
	}
	if filter.Type != "" {
		query = query.Where("documents.type = ?", filter.Type)
	}
	if filter.UID != "" {
		query = query.Where("documents.uid = ?", filter.UID)
	}
	if filter.ID != "" {
		query = query.Where("documents.id = ?", filter.ID)
	}
	if filter.Lang != "" && filter.Lang != "*" {
		query = query.Where("documents.lang = ?", filter.Lang)
	}
	return query
}

func documentOrder(orderings []DocumentOrdering) []string {
	if len(orderings) == 0 {
		orderings = []DocumentOrdering{{Field: "first_publication_date"}}
	}
	clauses := make([]string, 0, len(orderings)*2+2)
	for _, ordering := range orderings {
		direction := "asc"
		if ordering.Desc {
			direction = "desc"
		}
		clauses = append(clauses,
			fmt.Sprintf("documents.%s IS NULL", ordering.Field),
			fmt.Sprintf("documents.%s %s", ordering.Field, direction))
	}
	return append(clauses, "documents.created_at asc", "documents.id asc")
}

// projectFields 只保留 fetch 中列出的 <type>.<field> 字段。
func projectFields(raw, docType string, fetch []string) (json.RawMessage, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return json.RawMessage(`{}`), nil
	}
	if len(fetch) == 0 {
		return json.RawMessage(trimmed), nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(trimmed), &fields); err != nil {
		// 非对象数据原样返回，由调用方的规范化逻辑处理
		return json.RawMessage(trimmed), nil
	}

	projected := make(map[string]json.RawMessage)
	prefix := docType + "."
	for _, item := range fetch {
		name := strings.TrimSpace(item)
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		key := strings.TrimPrefix(name, prefix)
		if value, ok := fields[key]; ok {
			projected[key] = value
		}
	}
	return json.Marshal(projected)
}

// Get 按 type 与 uid 读取文档，不区分发布状态。
func (s *DocumentService) Get(docType, uid string) (*db.Document, error) {
	var document db.Document
	if err := s.db.Where("type = ? AND uid = ?", docType, uid).First(&document).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDocumentNotFound
		}
		return nil, err
	}
	return &document, nil
}

// Upsert 按 (type, uid) 创建或更新文档。草稿只写入 DraftData，
// 发布会覆盖 Data 并清空草稿；内容未变化时不刷新发布时间。
func (s *DocumentService) Upsert(input DocumentInput) (*db.Document, error) {
	docType := strings.TrimSpace(input.Type)
	uid := strings.TrimSpace(input.UID)
	if docType == "" || uid == "" {
		return nil, ErrInvalidDocument
	}

	data, err := compactJSON(input.Data)
	if err != nil {
		return nil, err
	}

	var document db.Document
	err = s.db.Transaction(func(tx *gorm.DB) error {
		findErr := tx.Where("type = ? AND uid = ?", docType, uid).First(&document).Error
		switch {
		case errors.Is(findErr, gorm.ErrRecordNotFound):
			document = db.Document{ID: uuid.NewString(), Type: docType, UID: uid}
		case findErr != nil:
			return findErr
		}

		document.Lang = strings.TrimSpace(input.Lang)
		document.Tags = strings.Join(input.Tags, ",")

		if input.Draft {
			document.DraftData = data
			return tx.Save(&document).Error
		}

		publishTime := s.now().UTC()
		if input.PublishedAt != nil && !input.PublishedAt.IsZero() {
			publishTime = input.PublishedAt.UTC()
		}

		unchanged := document.Published() && document.Data == data
		document.Data = data
		document.DraftData = ""
		if document.FirstPublicationDate == nil {
			first := publishTime
			document.FirstPublicationDate = &first
		}
		if !unchanged || document.LastPublicationDate == nil {
			last := publishTime
			if last.Before(*document.FirstPublicationDate) {
				last = *document.FirstPublicationDate
			}
			document.LastPublicationDate = &last
		}
		return tx.Save(&document).Error
	})
	if err != nil {
		return nil, err
	}
	return &document, nil
}

// CreatePreviewSession 生成一个新的预览令牌，并顺带清理过期令牌。
func (s *DocumentService) CreatePreviewSession(label string, ttl time.Duration) (*db.PreviewSession, error) {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	now := s.now()
	if err := s.db.Where("expires_at <= ?", now).Delete(&db.PreviewSession{}).Error; err != nil {
		return nil, err
	}

	session := db.PreviewSession{
		Token:     uuid.NewString(),
		Label:     strings.TrimSpace(label),
		ExpiresAt: now.Add(ttl),
	}
	if err := s.db.Create(&session).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

func compactJSON(raw json.RawMessage) (string, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" {
		return "{}", nil
	}
	var value interface{}
	if err := json.Unmarshal([]byte(trimmed), &value); err != nil {
		return "", fmt.Errorf("document data is not valid json: %w", err)
	}
	if _, ok := value.(map[string]interface{}); !ok {
		return "", fmt.Errorf("document data must be a json object")
	}
	compacted, err := json.Marshal(value)
	if err != nil {
		return "", err
	}
	return string(compacted), nil
}
