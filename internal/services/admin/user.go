package admin

import (
	"fmt"

	"github.com/privolio/privolio/internal/models"
	"github.com/privolio/privolio/internal/pkg/utils"
	"github.com/privolio/privolio/internal/pkg/xerr"
	"github.com/privolio/privolio/internal/repositories"
)

type UserService interface {
	GetUserByID(userID uint64) (*models.User, error)
	// SetUpstreamCredential 绑定用户的 GitHub 访问令牌，加密后落库
	SetUpstreamCredential(userID uint64, credential string) error
}

type userService struct {
	userRepo repositories.UserRepository
	sealer   *utils.CredentialSealer
}

var _ UserService = (*userService)(nil)

func NewUserService(userRepo repositories.UserRepository, sealer *utils.CredentialSealer) UserService {
	return &userService{
		userRepo: userRepo,
		sealer:   sealer,
	}
}

func (s *userService) GetUserByID(userID uint64) (*models.User, error) {
	user, err := s.userRepo.GetUserByID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	if user == nil {
		return nil, xerr.ErrUserNotFound
	}
	return user, nil
}

func (s *userService) SetUpstreamCredential(userID uint64, credential string) error {
	user, err := s.GetUserByID(userID)
	if err != nil {
		return err
	}

	sealed, err := s.sealer.Seal(credential)
	if err != nil {
		return fmt.Errorf("%w: %v", xerr.ErrCryptoError, err)
	}
	user.GithubCredential = sealed

	if err := s.userRepo.UpdateUser(user); err != nil {
		return fmt.Errorf("failed to update user credential: %w", err)
	}
	return nil
}
