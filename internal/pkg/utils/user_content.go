package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/privolio/privolio/internal/pkg/xerr"
)

// GetUserIDFromContext 从 Gin 上下文中获取并验证用户ID
// 如果获取失败或类型不正确，会中止请求并返回错误
func GetUserIDFromContext(c *gin.Context) (uint64, bool) {
	userID, exists := c.Get("userID")
	if !exists {
		xerr.AbortWithError(c, http.StatusInternalServerError, xerr.InternalServerErrorCode, "User ID not found in context")
		return 0, false
	}
	currentUserID, ok := userID.(uint64)
	if !ok {
		xerr.AbortWithError(c, http.StatusInternalServerError, xerr.InternalServerErrorCode, "Invalid user ID type in context")
		return 0, false
	}
	return currentUserID, true
}

// GetViewerIDFromContext 获取可选的访问者用户ID
// 分享访问路由上未登录的访问者是合法的，返回 nil 表示匿名
func GetViewerIDFromContext(c *gin.Context) *uint64 {
	userID, exists := c.Get("userID")
	if !exists {
		return nil
	}
	viewerID, ok := userID.(uint64)
	if !ok {
		return nil
	}
	return &viewerID
}
