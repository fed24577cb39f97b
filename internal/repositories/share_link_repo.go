package repositories

import (
	"errors"
	"fmt"
	"time"

	"github.com/privolio/privolio/internal/models"
	"github.com/privolio/privolio/internal/pkg/xerr"
	"gorm.io/gorm"
)

// ShareLinkRepository 是分享链接的存储抽象
// 引擎只依赖这个接口，底层可以是 MySQL，也可以是测试用的内存实现
type ShareLinkRepository interface {
	// Create 持久化一条新的链接记录，令牌重复时返回 xerr.ErrTokenConflict
	Create(link *models.ShareLink) error
	// FindByToken 根据令牌查找记录，记录不存在时返回 (nil, nil)
	FindByToken(token string) (*models.ShareLink, error)
	// FindAllByUserID 分页列出指定用户创建的所有链接
	FindAllByUserID(userID uint64, page, pageSize int) ([]models.ShareLink, int64, error)
	// SetActive 由创建者开关链接，非创建者返回 xerr.ErrPermissionDenied
	SetActive(token string, userID uint64, active bool) (*models.ShareLink, error)
	// ConsumeView 在单个原子操作内完成"校验策略并消耗一次访问"：
	// 仅当链接处于激活、未过期且次数未用尽时计数器加一并返回 true，
	// 否则不做任何修改返回 false。绝不允许读出计数器再另行写回。
	ConsumeView(token string, now time.Time) (bool, error)
	// Delete 由创建者彻底删除链接，非创建者返回 xerr.ErrPermissionDenied
	Delete(token string, userID uint64) error
}

type shareLinkRepository struct {
	db *gorm.DB
}

var _ ShareLinkRepository = (*shareLinkRepository)(nil)

// NewShareLinkRepository 创建新的 shareLinkRepository 实例
func NewShareLinkRepository(db *gorm.DB) ShareLinkRepository {
	return &shareLinkRepository{db: db}
}

func (r *shareLinkRepository) Create(link *models.ShareLink) error {
	err := r.db.Create(link).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return xerr.ErrTokenConflict
		}
		return fmt.Errorf("创建分享链接记录失败: %w", err)
	}
	return nil
}

func (r *shareLinkRepository) FindByToken(token string) (*models.ShareLink, error) {
	var link models.ShareLink
	err := r.db.Where("token = ?", token).First(&link).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("查询分享链接失败: %w", err)
	}
	return &link, nil
}

func (r *shareLinkRepository) FindAllByUserID(userID uint64, page, pageSize int) ([]models.ShareLink, int64, error) {
	var links []models.ShareLink
	var total int64

	offset := (page - 1) * pageSize
	query := r.db.Model(&models.ShareLink{}).Where("user_id = ?", userID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("统计分享链接总数失败: %w", err)
	}

	err := query.Order("created_at desc").Offset(offset).Limit(pageSize).Find(&links).Error
	if err != nil {
		return nil, 0, fmt.Errorf("查询分享链接列表失败: %w", err)
	}
	return links, total, nil
}

func (r *shareLinkRepository) SetActive(token string, userID uint64, active bool) (*models.ShareLink, error) {
	link, err := r.FindByToken(token)
	if err != nil {
		return nil, err
	}
	if link == nil {
		return nil, xerr.ErrLinkNotFound
	}
	if link.UserID != userID {
		return nil, xerr.ErrPermissionDenied
	}

	err = r.db.Model(&models.ShareLink{}).Where("token = ?", token).
		Update("is_active", active).Error
	if err != nil {
		return nil, fmt.Errorf("更新分享链接状态失败: %w", err)
	}
	link.IsActive = active
	return link, nil
}

// ConsumeView 通过一条带策略前置条件的条件 UPDATE 完成原子计数，
// 并发请求在数据库的行锁上串行化，受影响行数为 0 即表示策略不通过
func (r *shareLinkRepository) ConsumeView(token string, now time.Time) (bool, error) {
	res := r.db.Model(&models.ShareLink{}).
		Where("token = ? AND is_active = ?", token, true).
		Where("expires_at IS NULL OR expires_at > ?", now).
		Where("max_views IS NULL OR current_views < max_views").
		UpdateColumn("current_views", gorm.Expr("current_views + 1"))
	if res.Error != nil {
		return false, fmt.Errorf("消耗访问次数失败: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *shareLinkRepository) Delete(token string, userID uint64) error {
	link, err := r.FindByToken(token)
	if err != nil {
		return err
	}
	if link == nil {
		return xerr.ErrLinkNotFound
	}
	if link.UserID != userID {
		return xerr.ErrPermissionDenied
	}
	err = r.db.Where("token = ?", token).Delete(&models.ShareLink{}).Error
	if err != nil {
		return fmt.Errorf("删除分享链接失败: %w", err)
	}
	return nil
}
