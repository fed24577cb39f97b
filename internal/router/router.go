package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/privolio/privolio/internal/config"
	"github.com/privolio/privolio/internal/handlers"
	"github.com/privolio/privolio/internal/middlewares"
	"github.com/privolio/privolio/internal/pkg/xerr"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/privolio/privolio/docs"
)

// Handlers 聚合了初始化路由所需的全部处理器
type Handlers struct {
	Auth  *handlers.AuthHandler
	User  *handlers.UserHandler
	Link  *handlers.LinkHandler
	Share *handlers.ShareHandler
	Repo  *handlers.RepoHandler
}

func InitRouter(cfg *config.Config, h *Handlers) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default() // 使用默认的 Gin 引擎，包含 Logger 和 Recovery 中间件

	// Health Check 路由
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := router.Group("/api/v1")
	{
		// 认证相关路由 (无需认证)
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/register", h.Auth.Register)
			authGroup.POST("/login", h.Auth.Login)
			authGroup.POST("/refresh", middlewares.AuthMiddleware(cfg), h.Auth.RefreshToken)
		}

		// 分享访问路由，匿名可达；带有效 Token 时识别访问者身份
		shareGroup := v1.Group("/share")
		shareGroup.Use(middlewares.OptionalAuthMiddleware(cfg))
		{
			shareGroup.GET("/:token", h.Share.AccessShare)
			shareGroup.GET("/:token/tree", h.Share.GetShareTree)
			shareGroup.GET("/:token/file", h.Share.GetShareFile)
			shareGroup.GET("/:token/archive", h.Share.DownloadShareArchive)
		}

		// 需要认证的路由组
		authenticated := v1.Group("/")
		authenticated.Use(middlewares.AuthMiddleware(cfg))

		// 用户相关路由
		userGroup := authenticated.Group("/users")
		{
			userGroup.GET("/me", h.User.GetCurrentUser)
			userGroup.PUT("/me/credential", h.User.SetCredential)
		}

		// 上游仓库浏览路由，创建链接前选择仓库和分支
		githubGroup := authenticated.Group("/github")
		{
			githubGroup.GET("/repos", h.Repo.ListRepos)
			githubGroup.GET("/repos/:owner/:repo/branches", h.Repo.ListBranches)
		}

		// 分享链接管理路由
		linkGroup := authenticated.Group("/links")
		{
			linkGroup.POST("", h.Link.CreateLink)
			linkGroup.GET("", h.Link.ListLinks)
			linkGroup.DELETE("/:token", h.Link.DeleteLink)
			linkGroup.PATCH("/:token/toggle", h.Link.ToggleLink)
			linkGroup.GET("/:token/audit", h.Link.GetLinkAudit)
		}
	}

	router.NoRoute(func(c *gin.Context) {
		xerr.Error(c, http.StatusNotFound, xerr.NotFoundCode, "Route not found")
	})

	return router
}
