package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/privolio/privolio/internal/pkg/utils"
	"github.com/privolio/privolio/internal/pkg/xerr"
	"github.com/privolio/privolio/internal/services/share"
)

type LinkHandler struct {
	shareLinkService share.ShareLinkService
}

func NewLinkHandler(shareLinkService share.ShareLinkService) *LinkHandler {
	return &LinkHandler{shareLinkService: shareLinkService}
}

type CreateLinkRequest struct {
	RepoFullName     string  `json:"repo_full_name" binding:"required"`
	Branch           string  `json:"branch"`             // 为空时使用仓库默认分支
	Path             *string `json:"path"`               // 为空表示分享整个仓库
	ExpiresInMinutes *int    `json:"expires_in_minutes"` // 为空表示永不过期
	MaxViews         *uint32 `json:"max_views"`          // 为空表示不限次数
}

// CreateLink creates a new share link for the authenticated user.
// @Summary 创建分享链接
// @Tags 分享链接
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateLinkRequest true "链接参数"
// @Success 201 {object} xerr.Response "创建成功，返回链接信息"
// @Failure 400 {object} xerr.Response "缺少目标仓库"
// @Failure 403 {object} xerr.Response "尚未绑定访问令牌"
// @Router /api/v1/links [post]
func (h *LinkHandler) CreateLink(c *gin.Context) {
	userID, ok := utils.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req CreateLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, "请求参数解析失败: "+err.Error())
		return
	}
	if req.MaxViews != nil && *req.MaxViews == 0 {
		xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, "max_views 必须大于 0")
		return
	}
	if req.ExpiresInMinutes != nil && *req.ExpiresInMinutes <= 0 {
		xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, "expires_in_minutes 必须大于 0")
		return
	}

	link, err := h.shareLinkService.CreateLink(c.Request.Context(), userID, share.CreateLinkParams{
		RepoFullName:     req.RepoFullName,
		Branch:           req.Branch,
		Path:             req.Path,
		ExpiresInMinutes: req.ExpiresInMinutes,
		MaxViews:         req.MaxViews,
	})
	if err != nil {
		handleBusinessError(c, err)
		return
	}

	xerr.Success(c, http.StatusCreated, "分享链接创建成功", gin.H{"link": link})
}

// ListLinks lists the authenticated user's share links.
// @Summary 分享链接列表
// @Tags 分享链接
// @Produce json
// @Security BearerAuth
// @Param page query int false "页码，默认 1"
// @Param page_size query int false "每页数量，默认 20"
// @Success 200 {object} xerr.Response "链接列表"
// @Router /api/v1/links [get]
func (h *LinkHandler) ListLinks(c *gin.Context) {
	userID, ok := utils.GetUserIDFromContext(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	links, total, err := h.shareLinkService.ListUserLinks(userID, page, pageSize)
	if err != nil {
		handleBusinessError(c, err)
		return
	}

	xerr.Success(c, http.StatusOK, "获取成功", gin.H{
		"links": links,
		"total": total,
		"page":  page,
	})
}

// DeleteLink removes a share link permanently.
// @Summary 删除分享链接
// @Tags 分享链接
// @Produce json
// @Security BearerAuth
// @Param token path string true "分享令牌"
// @Success 204 "删除成功"
// @Failure 403 {object} xerr.Response "非创建者操作"
// @Failure 404 {object} xerr.Response "链接不存在"
// @Router /api/v1/links/{token} [delete]
func (h *LinkHandler) DeleteLink(c *gin.Context) {
	userID, ok := utils.GetUserIDFromContext(c)
	if !ok {
		return
	}
	token := c.Param("token")

	if err := h.shareLinkService.DeleteLink(userID, token); err != nil {
		handleBusinessError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ToggleLink flips a link's active state.
// @Summary 开关分享链接
// @Description 停用后匿名访问立即失效，重新激活后按剩余策略继续生效
// @Tags 分享链接
// @Produce json
// @Security BearerAuth
// @Param token path string true "分享令牌"
// @Success 200 {object} xerr.Response "切换后的链接信息"
// @Failure 403 {object} xerr.Response "非创建者操作"
// @Failure 404 {object} xerr.Response "链接不存在"
// @Router /api/v1/links/{token}/toggle [patch]
func (h *LinkHandler) ToggleLink(c *gin.Context) {
	userID, ok := utils.GetUserIDFromContext(c)
	if !ok {
		return
	}
	token := c.Param("token")

	link, err := h.shareLinkService.ToggleLink(userID, token)
	if err != nil {
		handleBusinessError(c, err)
		return
	}

	xerr.Success(c, http.StatusOK, "分享链接状态已切换", gin.H{"link": link})
}

// GetLinkAudit returns recent access records of a link.
// @Summary 链接访问记录
// @Tags 分享链接
// @Produce json
// @Security BearerAuth
// @Param token path string true "分享令牌"
// @Param limit query int false "返回条数，默认 50"
// @Success 200 {object} xerr.Response "访问记录列表"
// @Failure 403 {object} xerr.Response "非创建者操作"
// @Router /api/v1/links/{token}/audit [get]
func (h *LinkHandler) GetLinkAudit(c *gin.Context) {
	userID, ok := utils.GetUserIDFromContext(c)
	if !ok {
		return
	}
	token := c.Param("token")

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if limit < 1 || limit > 500 {
		limit = 50
	}

	logs, err := h.shareLinkService.GetLinkAudit(userID, token, limit)
	if err != nil {
		handleBusinessError(c, err)
		return
	}

	xerr.Success(c, http.StatusOK, "获取成功", gin.H{"records": logs})
}
