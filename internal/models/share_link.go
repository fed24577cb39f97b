package models

import (
	"time"
)

// ShareLink 对应 share_links 表，是分享链接的核心实体
type ShareLink struct {
	ID     uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	Token  string `gorm:"type:varchar(32);unique;not null" json:"token"` // 唯一分享令牌，用于生成链接
	UserID uint64 `gorm:"not null;index" json:"user_id"`                 // 创建者ID

	// OwnerCredential 是创建链接时快照的所有者上游令牌（加密存储），
	// 匿名访问者通过它读取私有仓库内容
	OwnerCredential string `gorm:"type:varchar(512);not null" json:"-"`

	RepoFullName string  `gorm:"type:varchar(255);not null" json:"repo_full_name"` // owner/repo
	Branch       string  `gorm:"type:varchar(255);not null" json:"branch"`
	Path         *string `gorm:"type:varchar(512);default:null" json:"path,omitempty"` // 为空表示整个仓库根目录

	ExpiresAt    *time.Time `gorm:"index;default:null" json:"expires_at,omitempty"`       // 为空表示永不过期
	MaxViews     *uint32    `gorm:"type:int unsigned;default:null" json:"max_views"`      // 为空表示不限次数
	CurrentViews uint32     `gorm:"type:int unsigned;not null;default:0" json:"current_views"`
	IsActive     bool       `gorm:"not null;default:true" json:"is_active"` // 创建者可随时开关

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 指定 GORM 使用的表名
func (ShareLink) TableName() string {
	return "share_links"
}

// IsExpired 判断链接是否已过期，ExpiresAt 为空表示永不过期
func (l *ShareLink) IsExpired() bool {
	if l.ExpiresAt == nil {
		return false
	}
	return time.Now().After(*l.ExpiresAt)
}

// IsExhausted 判断链接的访问次数是否已用尽，MaxViews 为空表示不限次数
func (l *ShareLink) IsExhausted() bool {
	if l.MaxViews == nil {
		return false
	}
	return l.CurrentViews >= *l.MaxViews
}

// RemainingViews 返回剩余可访问次数，不限次数时返回 nil
func (l *ShareLink) RemainingViews() *uint32 {
	if l.MaxViews == nil {
		return nil
	}
	var remaining uint32
	if l.CurrentViews < *l.MaxViews {
		remaining = *l.MaxViews - l.CurrentViews
	}
	return &remaining
}
