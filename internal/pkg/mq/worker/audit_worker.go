package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/privolio/privolio/internal/models"
	"github.com/privolio/privolio/internal/pkg/logger"
	"github.com/privolio/privolio/internal/pkg/mq"
	"github.com/privolio/privolio/internal/repositories"
	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

// AccessAuditQueueName 是访问审计事件队列名
const AccessAuditQueueName = "access_audit_queue"

// AuditWorker 消费访问审计事件：落库到 access_logs，并索引到 Elasticsearch
type AuditWorker struct {
	mqClient      *mq.RabbitMQClient
	accessLogRepo repositories.AccessLogRepository
	esClient      *elasticsearch.Client // 可以为 nil，此时跳过索引
	esIndex       string
}

func NewAuditWorker(
	mqClient *mq.RabbitMQClient,
	accessLogRepo repositories.AccessLogRepository,
	esClient *elasticsearch.Client,
	esIndex string,
) *AuditWorker {
	return &AuditWorker{
		mqClient:      mqClient,
		accessLogRepo: accessLogRepo,
		esClient:      esClient,
		esIndex:       esIndex,
	}
}

func (w *AuditWorker) Start() {
	_, err := w.mqClient.DeclareQueue(AccessAuditQueueName)
	if err != nil {
		log.Fatalf("Failed to declare queue: %s", err)
	}
	err = w.mqClient.Consume(AccessAuditQueueName, w.HandleAccessEvent)
	if err != nil {
		log.Fatalf("Failed to start consuming from queue: %s", err)
	}
	logger.Info("访问审计 Worker 已启动")
}

// HandleAccessEvent 处理单条审计事件
func (w *AuditWorker) HandleAccessEvent(msg amqp.Delivery) {
	var event models.AccessEvent
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		logger.Error("解析审计事件失败", zap.Error(err))
		_ = msg.Nack(false, false) // 解析失败,直接抛弃
		return
	}

	entry := &models.AccessLog{
		Token:        event.Token,
		OwnerUserID:  event.OwnerUserID,
		ViewerUserID: event.ViewerUserID,
		ViewerIP:     event.ViewerIP,
		UserAgent:    event.UserAgent,
		Result:       event.Result,
		AccessedAt:   event.AccessedAt,
	}
	if err := w.accessLogRepo.Create(entry); err != nil {
		logger.Error("写入访问记录失败", zap.String("token", event.Token), zap.Error(err))
		_ = msg.Nack(false, true) // 数据库暂时不可用,重新入队
		return
	}

	w.indexEvent(&event)
	_ = msg.Ack(false)
}

// indexEvent 将事件索引到 Elasticsearch，索引失败只记日志不影响落库
func (w *AuditWorker) indexEvent(event *models.AccessEvent) {
	if w.esClient == nil {
		return
	}

	doc, err := json.Marshal(event)
	if err != nil {
		logger.Error("序列化审计事件失败", zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	res, err := w.esClient.Index(
		w.esIndex,
		bytes.NewReader(doc),
		w.esClient.Index.WithContext(ctx),
	)
	if err != nil {
		logger.Error("索引审计事件失败", zap.String("token", event.Token), zap.Error(err))
		return
	}
	defer res.Body.Close()

	if res.IsError() {
		logger.Error("Elasticsearch 返回错误",
			zap.String("token", event.Token), zap.String("status", res.Status()))
	}
}
