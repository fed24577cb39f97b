package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/privolio/privolio/internal/pkg/logger"
	"github.com/privolio/privolio/internal/pkg/utils"
	"github.com/privolio/privolio/internal/pkg/xerr"
	"github.com/privolio/privolio/internal/services/admin"
	"go.uber.org/zap"
)

type UserHandler struct {
	userService admin.UserService
}

func NewUserHandler(userService admin.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

type SetCredentialRequest struct {
	Credential string `json:"credential" binding:"required,min=8"`
}

// GetCurrentUser returns the authenticated user's profile.
// @Summary 获取当前用户信息
// @Tags 用户
// @Produce json
// @Security BearerAuth
// @Success 200 {object} xerr.Response "用户信息"
// @Failure 404 {object} xerr.Response "用户不存在"
// @Router /api/v1/users/me [get]
func (h *UserHandler) GetCurrentUser(c *gin.Context) {
	userID, ok := utils.GetUserIDFromContext(c)
	if !ok {
		return
	}

	user, err := h.userService.GetUserByID(userID)
	if err != nil {
		handleBusinessError(c, err)
		return
	}

	xerr.Success(c, http.StatusOK, "获取成功", gin.H{
		"user":           user,
		"has_credential": user.HasCredential(),
	})
}

// SetCredential binds the user's GitHub access token.
// @Summary 绑定 GitHub 访问令牌
// @Description 令牌加密存储，用于读取私有仓库内容和委托给匿名访问者
// @Tags 用户
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body SetCredentialRequest true "GitHub 访问令牌"
// @Success 200 {object} xerr.Response "绑定成功"
// @Failure 400 {object} xerr.Response "请求参数无效"
// @Router /api/v1/users/me/credential [put]
func (h *UserHandler) SetCredential(c *gin.Context) {
	userID, ok := utils.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req SetCredentialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, "请求参数解析失败: "+err.Error())
		return
	}

	if err := h.userService.SetUpstreamCredential(userID, req.Credential); err != nil {
		logger.Error("SetCredential: 绑定上游令牌失败", zap.Uint64("userID", userID), zap.Error(err))
		handleBusinessError(c, err)
		return
	}

	xerr.Success(c, http.StatusOK, "访问令牌绑定成功", nil)
}
