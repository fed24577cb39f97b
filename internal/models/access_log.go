package models

import "time"

// 访问结果常量，记录在 access_logs.result 字段
const (
	AccessResultGranted     = "granted"
	AccessResultNotFound    = "not_found"
	AccessResultDeactivated = "deactivated"
	AccessResultExpired     = "expired"
	AccessResultViewLimit   = "view_limit_reached"
)

// AccessLog 对应 access_logs 表，记录分享链接的每次访问判定
type AccessLog struct {
	ID uint64 `gorm:"primaryKey;autoIncrement" json:"id"`

	Token       string `gorm:"type:varchar(32);not null;index" json:"token"`
	OwnerUserID uint64 `gorm:"not null;index" json:"owner_user_id"`

	// ViewerUserID 为空表示匿名访问者
	ViewerUserID *uint64 `gorm:"default:null" json:"viewer_user_id,omitempty"`
	ViewerIP     string  `gorm:"type:varchar(64);not null;default:''" json:"viewer_ip"`
	UserAgent    string  `gorm:"type:text" json:"user_agent"`

	Result string `gorm:"type:varchar(32);not null;index" json:"result"`

	AccessedAt time.Time `gorm:"not null;index" json:"accessed_at"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName 指定 GORM 使用的表名
func (AccessLog) TableName() string {
	return "access_logs"
}
