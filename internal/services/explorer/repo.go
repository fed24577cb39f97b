package explorer

import (
	"context"
	"fmt"

	"github.com/privolio/privolio/internal/pkg/github"
	"github.com/privolio/privolio/internal/pkg/utils"
	"github.com/privolio/privolio/internal/pkg/xerr"
	"github.com/privolio/privolio/internal/repositories"
)

// RepoService 定义了创建链接前的仓库浏览服务
// 使用用户自己绑定的上游凭证，供创建分享链接时选择仓库和分支
type RepoService interface {
	ListRepos(ctx context.Context, userID uint64) ([]github.Repository, error)
	ListBranches(ctx context.Context, userID uint64, repoFullName string) ([]github.Branch, error)
}

type repoService struct {
	userRepo repositories.UserRepository
	upstream *github.Client
	sealer   *utils.CredentialSealer
}

var _ RepoService = (*repoService)(nil)

// NewRepoService 创建一个新的 RepoService 实例
func NewRepoService(userRepo repositories.UserRepository, upstream *github.Client, sealer *utils.CredentialSealer) RepoService {
	return &repoService{
		userRepo: userRepo,
		upstream: upstream,
		sealer:   sealer,
	}
}

// credentialFor 取出并解密用户绑定的上游凭证
func (s *repoService) credentialFor(userID uint64) (string, error) {
	user, err := s.userRepo.GetUserByID(userID)
	if err != nil {
		return "", fmt.Errorf("查询用户失败: %w", err)
	}
	if user == nil {
		return "", xerr.ErrUserNotFound
	}
	if !user.HasCredential() {
		return "", xerr.ErrCredentialMissing
	}
	credential, err := s.sealer.Open(user.GithubCredential)
	if err != nil {
		return "", fmt.Errorf("%w: %v", xerr.ErrCryptoError, err)
	}
	return credential, nil
}

func (s *repoService) ListRepos(ctx context.Context, userID uint64) ([]github.Repository, error) {
	credential, err := s.credentialFor(userID)
	if err != nil {
		return nil, err
	}
	return s.upstream.ListUserRepos(ctx, credential)
}

func (s *repoService) ListBranches(ctx context.Context, userID uint64, repoFullName string) ([]github.Branch, error) {
	credential, err := s.credentialFor(userID)
	if err != nil {
		return nil, err
	}
	return s.upstream.ListBranches(ctx, credential, repoFullName)
}
