package worker

import (
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/privolio/privolio/internal/pkg/logger"
	"github.com/privolio/privolio/internal/pkg/mq"
	"github.com/privolio/privolio/internal/repositories"
)

// StartAllWorkers 启动应用中所有定义的后台 Worker
func StartAllWorkers(
	mqClient *mq.RabbitMQClient,
	accessLogRepo repositories.AccessLogRepository,
	esClient *elasticsearch.Client,
	esIndex string,
) {
	// --- 启动访问审计 Worker ---
	auditWorker := NewAuditWorker(mqClient, accessLogRepo, esClient, esIndex)
	go auditWorker.Start()

	// --- 在这里启动其他 Worker ---

	logger.Info("所有后台工作进程已启动。")
}
