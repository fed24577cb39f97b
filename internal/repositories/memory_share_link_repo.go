package repositories

import (
	"sync"
	"time"

	"github.com/privolio/privolio/internal/models"
	"github.com/privolio/privolio/internal/pkg/xerr"
)

// memoryShareLinkRepository 是 ShareLinkRepository 的进程内实现
// 用于测试和无持久化依赖的单机部署，互斥锁保证 ConsumeView 的原子性
type memoryShareLinkRepository struct {
	mu     sync.Mutex
	links  map[string]*models.ShareLink
	nextID uint64
}

var _ ShareLinkRepository = (*memoryShareLinkRepository)(nil)

// NewMemoryShareLinkRepository 创建内存版的分享链接存储
func NewMemoryShareLinkRepository() ShareLinkRepository {
	return &memoryShareLinkRepository{
		links:  make(map[string]*models.ShareLink),
		nextID: 1,
	}
}

func (r *memoryShareLinkRepository) Create(link *models.ShareLink) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.links[link.Token]; exists {
		return xerr.ErrTokenConflict
	}
	link.ID = r.nextID
	r.nextID++
	now := time.Now()
	link.CreatedAt = now
	link.UpdatedAt = now

	stored := *link
	r.links[link.Token] = &stored
	return nil
}

func (r *memoryShareLinkRepository) FindByToken(token string) (*models.ShareLink, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	link, exists := r.links[token]
	if !exists {
		return nil, nil
	}
	snapshot := *link
	return &snapshot, nil
}

func (r *memoryShareLinkRepository) FindAllByUserID(userID uint64, page, pageSize int) ([]models.ShareLink, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var all []models.ShareLink
	for _, link := range r.links {
		if link.UserID == userID {
			all = append(all, *link)
		}
	}
	// 与数据库实现一致，按创建时间倒序
	for i := 0; i < len(all); i++ {
		for j := i + 1; j < len(all); j++ {
			if all[j].CreatedAt.After(all[i].CreatedAt) {
				all[i], all[j] = all[j], all[i]
			}
		}
	}

	total := int64(len(all))
	start := (page - 1) * pageSize
	if start >= len(all) {
		return nil, total, nil
	}
	end := start + pageSize
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func (r *memoryShareLinkRepository) SetActive(token string, userID uint64, active bool) (*models.ShareLink, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	link, exists := r.links[token]
	if !exists {
		return nil, xerr.ErrLinkNotFound
	}
	if link.UserID != userID {
		return nil, xerr.ErrPermissionDenied
	}
	link.IsActive = active
	link.UpdatedAt = time.Now()
	snapshot := *link
	return &snapshot, nil
}

func (r *memoryShareLinkRepository) ConsumeView(token string, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	link, exists := r.links[token]
	if !exists {
		return false, nil
	}
	if !link.IsActive {
		return false, nil
	}
	if link.ExpiresAt != nil && !link.ExpiresAt.After(now) {
		return false, nil
	}
	if link.MaxViews != nil && link.CurrentViews >= *link.MaxViews {
		return false, nil
	}
	link.CurrentViews++
	link.UpdatedAt = now
	return true, nil
}

func (r *memoryShareLinkRepository) Delete(token string, userID uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	link, exists := r.links[token]
	if !exists {
		return xerr.ErrLinkNotFound
	}
	if link.UserID != userID {
		return xerr.ErrPermissionDenied
	}
	delete(r.links, token)
	return nil
}
