package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/privolio/privolio/internal/config"
	"github.com/privolio/privolio/internal/handlers"
	"github.com/privolio/privolio/internal/pkg/cache"
	"github.com/privolio/privolio/internal/pkg/github"
	"github.com/privolio/privolio/internal/pkg/logger"
	"github.com/privolio/privolio/internal/pkg/mq"
	"github.com/privolio/privolio/internal/pkg/mq/worker"
	"github.com/privolio/privolio/internal/pkg/utils"
	"github.com/privolio/privolio/internal/repositories"
	"github.com/privolio/privolio/internal/router"
	"github.com/privolio/privolio/internal/services/admin"
	"github.com/privolio/privolio/internal/services/explorer"
	"github.com/privolio/privolio/internal/services/share"
	"github.com/privolio/privolio/internal/setup"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Server struct {
	router         *gin.Engine
	httpServer     *http.Server
	db             *gorm.DB
	redisClient    *redis.Client
	rabbitMQClient *mq.RabbitMQClient
}

// NewServer 负责构建所有依赖
func NewServer(cfg *config.Config) (*Server, error) {
	// 初始化数据库连接
	mysqlDB, err := setup.InitMySQL(&cfg.MySQL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize MySQL: %w", err)
	}

	// 初始化 Redis 连接
	redisClient, err := setup.InitRedis(context.Background(), &cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Redis: %w", err)
	}

	// 初始化 Elasticsearch，未配置时返回 nil，审计 Worker 只落库不建索引
	esClient, err := setup.InitElasticsearch(&cfg.Elasticsearch)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Elasticsearch: %w", err)
	}

	// 初始化 RabbitMQ
	rabbitMQClient, err := mq.NewRabbitMQClient(cfg.RabbitMQ.URL)
	if err != nil {
		logger.Fatal("Failed to connect to RabbitMQ", zap.Any("err", err))
	}

	// 初始化凭证加密器
	sealer, err := utils.NewCredentialSealer(cfg.Crypto.CredentialKey)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize credential sealer: %w", err)
	}

	// 初始化 Repositories
	userRepo := repositories.NewUserRepository(mysqlDB)
	linkRepo := repositories.NewShareLinkRepository(mysqlDB)
	accessLogRepo := repositories.NewAccessLogRepository(mysqlDB)

	// 初始化其他服务
	cacheService := cache.NewRedisCache(redisClient)
	upstream := github.NewClient(&cfg.GitHub)

	// 初始化 Services
	authService := admin.NewAuthService(userRepo, &cfg.JWT)
	userService := admin.NewUserService(userRepo, sealer)
	shareLinkService := share.NewShareLinkService(linkRepo, userRepo, accessLogRepo, upstream, sealer)
	gate := share.NewAccessGate(linkRepo, rabbitMQClient)
	contentService := explorer.NewContentService(upstream, cacheService, sealer, cfg)
	repoService := explorer.NewRepoService(userRepo, upstream, sealer)

	// 初始化 Handlers
	h := &router.Handlers{
		Auth:  handlers.NewAuthHandler(authService, cfg),
		User:  handlers.NewUserHandler(userService),
		Link:  handlers.NewLinkHandler(shareLinkService),
		Share: handlers.NewShareHandler(gate, contentService, userRepo),
		Repo:  handlers.NewRepoHandler(repoService),
	}

	// 启动所有后台 Worker
	worker.StartAllWorkers(rabbitMQClient, accessLogRepo, esClient, cfg.Elasticsearch.Index)

	// 初始化 Gin 引擎和注册路由
	engine := router.InitRouter(cfg, h)

	// 启动 HTTP 服务器
	addr := ":" + cfg.Server.Port
	logger.Info(fmt.Sprintf("Server is running on %s", cfg.Server.Port))
	httpServer := &http.Server{
		Addr:    addr,
		Handler: engine,
	}

	return &Server{
		router:         engine,
		httpServer:     httpServer,
		db:             mysqlDB,
		redisClient:    redisClient,
		rabbitMQClient: rabbitMQClient,
	}, nil
}

// Run 启动服务器和 Worker，并处理优雅关机
func (s *Server) Run(ctx context.Context, stopChan chan os.Signal) {
	// 确保在应用关闭时，所有连接都被释放
	// GORM v2 依赖连接池，通常不需要手动关闭。Redis和MQ需要
	defer s.rabbitMQClient.Close()
	defer s.redisClient.Close()

	// 启动 HTTP 服务器
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// 等待停止信号
	<-stopChan
	logger.Info("Shutting down server...")

	// 优雅关机
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}
	logger.Info("Server exited gracefully")
}
