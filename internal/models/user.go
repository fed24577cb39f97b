package models

import (
	"time"

	"gorm.io/gorm"
)

// User 对应 users 表
type User struct {
	ID           uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	UUID         string `gorm:"type:varchar(36);not null;uniqueIndex" json:"uuid"`
	Username     string `gorm:"type:varchar(64);unique;not null" json:"username"`
	PasswordHash string `gorm:"type:varchar(255);not null" json:"-"` // - 表示不输出到 JSON
	Email        string `gorm:"type:varchar(255);unique;not null" json:"email"`

	// GithubCredential 是用户绑定的上游访问令牌（GitHub PAT），
	// 使用 chacha20poly1305 加密后落库，绝不输出到 JSON
	GithubCredential string `gorm:"type:varchar(512);not null;default:''" json:"-"`

	Status uint8 `gorm:"type:tinyint unsigned;not null;default:1" json:"status"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

// TableName 指定 GORM 使用的表名
func (User) TableName() string {
	return "users"
}

// HasCredential 判断用户是否已绑定上游访问令牌
func (u *User) HasCredential() bool {
	return u.GithubCredential != ""
}
