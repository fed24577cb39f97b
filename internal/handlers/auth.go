package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/privolio/privolio/internal/config"
	"github.com/privolio/privolio/internal/pkg/logger"
	"github.com/privolio/privolio/internal/pkg/utils"
	"github.com/privolio/privolio/internal/pkg/xerr"
	"github.com/privolio/privolio/internal/services/admin"
	"go.uber.org/zap"
)

type AuthHandler struct {
	authService admin.AuthService
	cfg         *config.Config
}

func NewAuthHandler(authService admin.AuthService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		cfg:         cfg,
	}
}

type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=32"`
	Password string `json:"password" binding:"required,min=8"`
	Email    string `json:"email" binding:"required,email"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Register handles creation of a new account.
// @Summary 用户注册
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "注册信息"
// @Success 200 {object} xerr.Response "注册成功"
// @Failure 400 {object} xerr.Response "请求参数无效"
// @Failure 409 {object} xerr.Response "用户名或邮箱已存在"
// @Router /api/v1/auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, "请求参数解析失败: "+err.Error())
		return
	}

	user, err := h.authService.RegisterUser(req.Username, req.Password, req.Email)
	if err != nil {
		if errors.Is(err, xerr.ErrUserAlreadyExists) {
			xerr.Error(c, http.StatusConflict, xerr.UserAlreadyExistsCode, err.Error())
		} else if errors.Is(err, xerr.ErrEmailAlreadyExists) {
			xerr.Error(c, http.StatusConflict, xerr.EmailAlreadyExistsCode, err.Error())
		} else {
			logger.Error("Register: 用户注册失败", zap.Error(err))
			xerr.Error(c, http.StatusInternalServerError, xerr.InternalServerErrorCode, "用户注册失败")
		}
		return
	}

	xerr.Success(c, http.StatusOK, "注册成功", gin.H{"user": user})
}

// Login handles user authentication.
// @Summary 用户登录
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body LoginRequest true "登录信息"
// @Success 200 {object} xerr.Response "登录成功，返回 Token"
// @Failure 401 {object} xerr.Response "用户名或密码错误"
// @Router /api/v1/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, "请求参数解析失败: "+err.Error())
		return
	}

	token, err := h.authService.LoginUser(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, xerr.ErrInvalidCredentials) {
			xerr.Error(c, http.StatusUnauthorized, xerr.InvalidCredentialsCode, err.Error())
		} else {
			logger.Error("Login: 用户登录失败", zap.Error(err))
			xerr.Error(c, http.StatusInternalServerError, xerr.InternalServerErrorCode, "用户登录失败")
		}
		return
	}

	xerr.Success(c, http.StatusOK, "登录成功", gin.H{"token": token})
}

// RefreshToken issues a fresh token for the authenticated user.
// @Summary 刷新 Token
// @Tags 认证
// @Produce json
// @Security BearerAuth
// @Success 200 {object} xerr.Response "刷新成功，返回新 Token"
// @Failure 401 {object} xerr.Response "Token 无效"
// @Router /api/v1/auth/refresh [post]
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	userID, ok := utils.GetUserIDFromContext(c)
	if !ok {
		return
	}
	username := c.GetString("username")

	token, err := utils.GenerateToken(userID, username,
		h.cfg.JWT.SecretKey, h.cfg.JWT.Issuer, h.cfg.JWT.ExpiresIn)
	if err != nil {
		logger.Error("RefreshToken: 生成新 Token 失败", zap.Uint64("userID", userID), zap.Error(err))
		xerr.Error(c, http.StatusInternalServerError, xerr.InternalServerErrorCode, "刷新 Token 失败")
		return
	}

	xerr.Success(c, http.StatusOK, "刷新成功", gin.H{"token": token})
}
