package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/privolio/privolio/internal/models"
	"github.com/privolio/privolio/internal/pkg/logger"
	"github.com/privolio/privolio/internal/pkg/utils"
	"github.com/privolio/privolio/internal/pkg/xerr"
	"github.com/privolio/privolio/internal/repositories"
	"github.com/privolio/privolio/internal/services/explorer"
	"github.com/privolio/privolio/internal/services/share"
	"go.uber.org/zap"
)

// ShareHandler 承载所有匿名可达的分享访问入口
type ShareHandler struct {
	gate           *share.AccessGate
	contentService explorer.ContentService
	userRepo       repositories.UserRepository
}

func NewShareHandler(gate *share.AccessGate, contentService explorer.ContentService, userRepo repositories.UserRepository) *ShareHandler {
	return &ShareHandler{
		gate:           gate,
		contentService: contentService,
		userRepo:       userRepo,
	}
}

// requestMeta 提取本次访问的来源信息，供审计使用
func (h *ShareHandler) requestMeta(c *gin.Context) share.RequestMeta {
	return share.RequestMeta{
		ViewerUserID: utils.GetViewerIDFromContext(c),
		ViewerIP:     c.ClientIP(),
		UserAgent:    c.Request.UserAgent(),
	}
}

// viewer 加载已登录访问者的用户实体，匿名或加载失败时返回 nil
func (h *ShareHandler) viewer(c *gin.Context) *models.User {
	viewerID := utils.GetViewerIDFromContext(c)
	if viewerID == nil {
		return nil
	}
	user, err := h.userRepo.GetUserByID(*viewerID)
	if err != nil {
		logger.Warn("加载访问者信息失败，按匿名处理",
			zap.Uint64("viewerID", *viewerID), zap.Error(err))
		return nil
	}
	return user
}

// linkView 是返回给访问者的链接视图，不暴露凭证和创建者内部信息
func linkView(link *models.ShareLink) gin.H {
	return gin.H{
		"token":           link.Token,
		"repo_full_name":  link.RepoFullName,
		"branch":          link.Branch,
		"path":            link.Path,
		"expires_at":      link.ExpiresAt,
		"remaining_views": link.RemainingViews(),
	}
}

// AccessShare is the share entry point; a successful call consumes one view.
// @Summary 访问分享链接
// @Description 校验链接策略并消耗一次访问，返回分享目标的元信息和 README（如有）
// @Tags 分享访问
// @Produce json
// @Param token path string true "分享令牌"
// @Success 200 {object} xerr.Response "分享元信息"
// @Failure 404 {object} xerr.Response "链接不存在"
// @Failure 410 {object} xerr.Response "链接已过期/次数用尽/已停用，业务码区分"
// @Router /api/v1/share/{token} [get]
func (h *ShareHandler) AccessShare(c *gin.Context) {
	token := c.Param("token")

	link, err := h.gate.EvaluateAndConsume(c.Request.Context(), token, h.requestMeta(c))
	if err != nil {
		handleBusinessError(c, err)
		return
	}

	data := gin.H{"share": linkView(link)}
	// README 是分享页首屏内容，取不到（不存在/二进制/过大）不影响访问结果
	if readme, err := h.contentService.GetFile(c.Request.Context(), link, h.viewer(c), "README.md"); err == nil {
		data["readme"] = readme
	}

	xerr.Success(c, http.StatusOK, "访问成功", data)
}

// GetShareTree lists one level of the shared subtree.
// @Summary 浏览分享文件树
// @Description 只校验链接策略，不消耗访问次数
// @Tags 分享访问
// @Produce json
// @Param token path string true "分享令牌"
// @Param path query string false "相对分享根的子路径"
// @Success 200 {object} xerr.Response "文件树"
// @Failure 404 {object} xerr.Response "链接或路径不存在"
// @Failure 410 {object} xerr.Response "链接不可用"
// @Router /api/v1/share/{token}/tree [get]
func (h *ShareHandler) GetShareTree(c *gin.Context) {
	token := c.Param("token")

	link, err := h.gate.Evaluate(c.Request.Context(), token)
	if err != nil {
		handleBusinessError(c, err)
		return
	}

	nodes, err := h.contentService.ListTree(c.Request.Context(), link, h.viewer(c), c.Query("path"))
	if err != nil {
		handleBusinessError(c, err)
		return
	}

	xerr.Success(c, http.StatusOK, "获取成功", gin.H{"entries": nodes})
}

// GetShareFile returns a text file's content from the shared subtree.
// @Summary 查看分享文件内容
// @Description 只校验链接策略，不消耗访问次数；二进制与超大文件拒绝展示
// @Tags 分享访问
// @Produce json
// @Param token path string true "分享令牌"
// @Param path query string true "相对分享根的文件路径"
// @Success 200 {object} xerr.Response "文件内容"
// @Failure 413 {object} xerr.Response "文件过大"
// @Failure 422 {object} xerr.Response "二进制内容"
// @Router /api/v1/share/{token}/file [get]
func (h *ShareHandler) GetShareFile(c *gin.Context) {
	token := c.Param("token")
	filePath := c.Query("path")
	if filePath == "" {
		xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, "缺少 path 参数")
		return
	}

	link, err := h.gate.Evaluate(c.Request.Context(), token)
	if err != nil {
		handleBusinessError(c, err)
		return
	}

	content, err := h.contentService.GetFile(c.Request.Context(), link, h.viewer(c), filePath)
	if err != nil {
		handleBusinessError(c, err)
		return
	}

	xerr.Success(c, http.StatusOK, "获取成功", gin.H{"file": content})
}

// DownloadShareArchive streams the shared subtree as a zip; consumes one view.
// @Summary 下载分享归档
// @Description 校验链接策略并消耗一次访问，把分享子树打包为 zip 流式返回
// @Tags 分享访问
// @Produce application/zip
// @Param token path string true "分享令牌"
// @Param path query string false "相对分享根的子路径"
// @Success 200 {file} binary "zip 归档"
// @Failure 410 {object} xerr.Response "链接不可用"
// @Router /api/v1/share/{token}/archive [get]
func (h *ShareHandler) DownloadShareArchive(c *gin.Context) {
	token := c.Param("token")

	link, err := h.gate.EvaluateAndConsume(c.Request.Context(), token, h.requestMeta(c))
	if err != nil {
		handleBusinessError(c, err)
		return
	}

	archiveName := strings.ReplaceAll(link.RepoFullName, "/", "-") + ".zip"
	c.Header("Content-Type", "application/zip")
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, archiveName))

	err = h.contentService.StreamArchive(c.Request.Context(), link, h.viewer(c), c.Query("path"), c.Writer)
	if err != nil {
		// 响应头可能已经写出，只能记日志并中断连接
		logger.Error("归档流写出失败", zap.String("token", token), zap.Error(err))
		c.Abort()
	}
}
