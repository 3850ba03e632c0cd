package db

import (
	"strings"
	"time"
)

// Document 是本地内容库中的一篇 CMS 文档，Data 为已发布版本的 JSON，
// DraftData 为尚未发布的修订。
type Document struct {
	ID                   string `gorm:"primaryKey;size:36"`
	UID                  string `gorm:"size:191;not null;uniqueIndex:idx_documents_type_uid"`
	Type                 string `gorm:"size:64;not null;uniqueIndex:idx_documents_type_uid"`
	Lang                 string `gorm:"size:16"`
	Tags                 string
	Data                 string `gorm:"type:text"`
	DraftData            string `gorm:"type:text"`
	FirstPublicationDate *time.Time
	LastPublicationDate  *time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// TableName 自定义表名以保持命名一致。
func (Document) TableName() string {
	return "documents"
}

// Published 表示文档至少发布过一次。
func (d Document) Published() bool {
	return d.FirstPublicationDate != nil && strings.TrimSpace(d.Data) != ""
}

// HasDraft 表示存在待发布的修订。
func (d Document) HasDraft() bool {
	return strings.TrimSpace(d.DraftData) != ""
}

// TagList 将逗号分隔的标签拆分为切片。
func (d Document) TagList() []string {
	tags := make([]string, 0)
	for _, tag := range strings.Split(d.Tags, ",") {
		if trimmed := strings.TrimSpace(tag); trimmed != "" {
			tags = append(tags, trimmed)
		}
	}
	return tags
}
