package models

import "time"

// AccessEvent 是访问闸门产生的审计事件，经 MQ 投递给后台 Worker
type AccessEvent struct {
	Token        string    `json:"token"`
	OwnerUserID  uint64    `json:"owner_user_id"`
	ViewerUserID *uint64   `json:"viewer_user_id,omitempty"`
	ViewerIP     string    `json:"viewer_ip"`
	UserAgent    string    `json:"user_agent"`
	Result       string    `json:"result"`   // 见 AccessResult* 常量
	Consumed     bool      `json:"consumed"` // 本次判定是否消耗了访问次数
	AccessedAt   time.Time `json:"accessed_at"`
}
