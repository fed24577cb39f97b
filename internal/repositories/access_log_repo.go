package repositories

import (
	"fmt"

	"github.com/privolio/privolio/internal/models"
	"gorm.io/gorm"
)

type AccessLogRepository interface {
	Create(entry *models.AccessLog) error
	// FindAllByToken 按访问时间倒序列出某条链接最近的访问记录
	FindAllByToken(token string, limit int) ([]models.AccessLog, error)
}

type accessLogRepository struct {
	db *gorm.DB
}

var _ AccessLogRepository = (*accessLogRepository)(nil)

// NewAccessLogRepository 创建新的 accessLogRepository 实例
func NewAccessLogRepository(db *gorm.DB) AccessLogRepository {
	return &accessLogRepository{db: db}
}

func (r *accessLogRepository) Create(entry *models.AccessLog) error {
	if err := r.db.Create(entry).Error; err != nil {
		return fmt.Errorf("写入访问记录失败: %w", err)
	}
	return nil
}

func (r *accessLogRepository) FindAllByToken(token string, limit int) ([]models.AccessLog, error) {
	var entries []models.AccessLog
	err := r.db.Where("token = ?", token).
		Order("accessed_at desc").Limit(limit).Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("查询访问记录失败: %w", err)
	}
	return entries, nil
}
