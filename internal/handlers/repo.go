package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/privolio/privolio/internal/pkg/utils"
	"github.com/privolio/privolio/internal/pkg/xerr"
	"github.com/privolio/privolio/internal/services/explorer"
)

type RepoHandler struct {
	repoService explorer.RepoService
}

func NewRepoHandler(repoService explorer.RepoService) *RepoHandler {
	return &RepoHandler{repoService: repoService}
}

// ListRepos lists repositories reachable with the user's credential.
// @Summary 列出可分享的仓库
// @Tags 仓库浏览
// @Produce json
// @Security BearerAuth
// @Success 200 {object} xerr.Response "仓库列表"
// @Failure 403 {object} xerr.Response "尚未绑定访问令牌"
// @Router /api/v1/github/repos [get]
func (h *RepoHandler) ListRepos(c *gin.Context) {
	userID, ok := utils.GetUserIDFromContext(c)
	if !ok {
		return
	}

	repos, err := h.repoService.ListRepos(c.Request.Context(), userID)
	if err != nil {
		handleBusinessError(c, err)
		return
	}

	xerr.Success(c, http.StatusOK, "获取成功", gin.H{"repos": repos})
}

// ListBranches lists branches of one repository.
// @Summary 列出仓库分支
// @Tags 仓库浏览
// @Produce json
// @Security BearerAuth
// @Param owner path string true "仓库所有者"
// @Param repo path string true "仓库名"
// @Success 200 {object} xerr.Response "分支列表"
// @Failure 404 {object} xerr.Response "仓库不存在"
// @Router /api/v1/github/repos/{owner}/{repo}/branches [get]
func (h *RepoHandler) ListBranches(c *gin.Context) {
	userID, ok := utils.GetUserIDFromContext(c)
	if !ok {
		return
	}
	fullName := c.Param("owner") + "/" + c.Param("repo")

	branches, err := h.repoService.ListBranches(c.Request.Context(), userID, fullName)
	if err != nil {
		handleBusinessError(c, err)
		return
	}

	xerr.Success(c, http.StatusOK, "获取成功", gin.H{"branches": branches})
}
