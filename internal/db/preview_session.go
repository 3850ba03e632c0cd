package db

import "time"

// MasterRef 是本地内容库中已发布内容对应的 ref。
const MasterRef = "master"

// PreviewSession 记录一个预览令牌，令牌在有效期内可作为 ref 读取草稿。
type PreviewSession struct {
	Token     string    `gorm:"primaryKey;size:64"`
	Label     string    `gorm:"size:191"`
	ExpiresAt time.Time `gorm:"index"`
	CreatedAt time.Time
}

// TableName 自定义表名。
func (PreviewSession) TableName() string {
	return "preview_sessions"
}

// Active 判断令牌在 now 时刻是否仍然有效。
func (s PreviewSession) Active(now time.Time) bool {
	return now.Before(s.ExpiresAt)
}
