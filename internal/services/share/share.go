package share

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/privolio/privolio/internal/models"
	"github.com/privolio/privolio/internal/pkg/github"
	"github.com/privolio/privolio/internal/pkg/logger"
	"github.com/privolio/privolio/internal/pkg/utils"
	"github.com/privolio/privolio/internal/pkg/xerr"
	"github.com/privolio/privolio/internal/repositories"
	"go.uber.org/zap"
)

// maxTokenAttempts 是令牌冲突时的重试上限
const maxTokenAttempts = 5

// CreateLinkParams 是创建分享链接的入参
type CreateLinkParams struct {
	RepoFullName     string
	Branch           string  // 为空时解析仓库默认分支
	Path             *string // 为空表示分享整个仓库
	ExpiresInMinutes *int    // 为空表示永不过期
	MaxViews         *uint32 // 为空表示不限次数
}

// ShareLinkService 定义了分享链接管理服务需要实现的接口
type ShareLinkService interface {
	// CreateLink 为指定仓库创建一个新的分享链接
	CreateLink(ctx context.Context, userID uint64, params CreateLinkParams) (*models.ShareLink, error)
	// ListUserLinks 列出指定用户创建的所有分享链接
	ListUserLinks(userID uint64, page, pageSize int) ([]models.ShareLink, int64, error)
	// DeleteLink 彻底删除一个分享链接
	DeleteLink(userID uint64, token string) error
	// ToggleLink 开关一个分享链接的激活状态
	ToggleLink(userID uint64, token string) (*models.ShareLink, error)
	// GetLinkAudit 列出某条链接最近的访问记录
	GetLinkAudit(userID uint64, token string, limit int) ([]models.AccessLog, error)
}

// shareLinkService 是 ShareLinkService 接口的具体实现
type shareLinkService struct {
	linkRepo      repositories.ShareLinkRepository
	userRepo      repositories.UserRepository
	accessLogRepo repositories.AccessLogRepository
	upstream      *github.Client
	sealer        *utils.CredentialSealer
}

var _ ShareLinkService = (*shareLinkService)(nil)

// NewShareLinkService 创建一个新的 ShareLinkService 实例
func NewShareLinkService(
	linkRepo repositories.ShareLinkRepository,
	userRepo repositories.UserRepository,
	accessLogRepo repositories.AccessLogRepository,
	upstream *github.Client,
	sealer *utils.CredentialSealer,
) ShareLinkService {
	return &shareLinkService{
		linkRepo:      linkRepo,
		userRepo:      userRepo,
		accessLogRepo: accessLogRepo,
		upstream:      upstream,
		sealer:        sealer,
	}
}

// CreateLink 处理创建分享链接的业务逻辑
func (s *shareLinkService) CreateLink(ctx context.Context, userID uint64, params CreateLinkParams) (*models.ShareLink, error) {
	if params.RepoFullName == "" {
		return nil, xerr.ErrMissingRepo
	}

	user, err := s.userRepo.GetUserByID(userID)
	if err != nil {
		return nil, fmt.Errorf("查询用户失败: %w", err)
	}
	if user == nil {
		return nil, xerr.ErrUserNotFound
	}
	// 匿名访问者要借用创建者的凭证读取私有仓库，凭证缺失时直接拒绝创建
	if !user.HasCredential() {
		return nil, xerr.ErrCredentialMissing
	}

	branch := params.Branch
	if branch == "" {
		credential, err := s.sealer.Open(user.GithubCredential)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", xerr.ErrCryptoError, err)
		}
		repo, err := s.upstream.GetRepository(ctx, credential, params.RepoFullName)
		if err != nil {
			return nil, err
		}
		branch = repo.DefaultBranch
	}

	link := &models.ShareLink{
		UserID: userID,
		// 创建时快照所有者的加密凭证，链接的生命周期内不再跟随用户变化
		OwnerCredential: user.GithubCredential,
		RepoFullName:    params.RepoFullName,
		Branch:          branch,
		Path:            params.Path,
		MaxViews:        params.MaxViews,
		IsActive:        true,
	}
	if params.ExpiresInMinutes != nil && *params.ExpiresInMinutes > 0 {
		expiresAt := time.Now().Add(time.Duration(*params.ExpiresInMinutes) * time.Minute)
		link.ExpiresAt = &expiresAt
	}

	// 令牌冲突概率极低，但仍按有限次数重试，用尽后视为创建失败
	for attempt := 1; attempt <= maxTokenAttempts; attempt++ {
		token, err := utils.GenerateShareToken()
		if err != nil {
			return nil, fmt.Errorf("生成分享令牌失败: %w", err)
		}
		link.Token = token

		err = s.linkRepo.Create(link)
		if err == nil {
			logger.Info("分享链接创建成功",
				zap.String("token", link.Token),
				zap.Uint64("userID", userID),
				zap.String("repo", link.RepoFullName))
			return link, nil
		}
		if !errors.Is(err, xerr.ErrTokenConflict) {
			return nil, err
		}
		logger.Warn("分享令牌冲突，重新生成",
			zap.Int("attempt", attempt), zap.Int("maxAttempts", maxTokenAttempts))
	}

	return nil, fmt.Errorf("%w: 连续 %d 次令牌冲突", xerr.ErrTokenConflict, maxTokenAttempts)
}

// ListUserLinks 获取指定用户创建的所有分享链接列表（分页）
func (s *shareLinkService) ListUserLinks(userID uint64, page, pageSize int) ([]models.ShareLink, int64, error) {
	links, total, err := s.linkRepo.FindAllByUserID(userID, page, pageSize)
	if err != nil {
		logger.Error("查询用户分享链接列表失败", zap.Uint64("userID", userID), zap.Error(err))
		return nil, 0, err
	}
	return links, total, nil
}

// DeleteLink 彻底删除一个分享链接，仅创建者可操作
func (s *shareLinkService) DeleteLink(userID uint64, token string) error {
	if err := s.linkRepo.Delete(token, userID); err != nil {
		return err
	}
	logger.Info("分享链接已删除", zap.String("token", token), zap.Uint64("userID", userID))
	return nil
}

// ToggleLink 翻转链接的激活状态，仅创建者可操作
func (s *shareLinkService) ToggleLink(userID uint64, token string) (*models.ShareLink, error) {
	link, err := s.linkRepo.FindByToken(token)
	if err != nil {
		return nil, err
	}
	if link == nil {
		return nil, xerr.ErrLinkNotFound
	}
	if link.UserID != userID {
		return nil, xerr.ErrPermissionDenied
	}

	updated, err := s.linkRepo.SetActive(token, userID, !link.IsActive)
	if err != nil {
		return nil, err
	}
	logger.Info("分享链接状态已切换",
		zap.String("token", token), zap.Bool("isActive", updated.IsActive))
	return updated, nil
}

// GetLinkAudit 列出某条链接最近的访问记录，仅创建者可查看
func (s *shareLinkService) GetLinkAudit(userID uint64, token string, limit int) ([]models.AccessLog, error) {
	link, err := s.linkRepo.FindByToken(token)
	if err != nil {
		return nil, err
	}
	if link == nil {
		return nil, xerr.ErrLinkNotFound
	}
	if link.UserID != userID {
		return nil, xerr.ErrPermissionDenied
	}
	return s.accessLogRepo.FindAllByToken(token, limit)
}
