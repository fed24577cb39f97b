package share

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/privolio/privolio/internal/models"
	"github.com/privolio/privolio/internal/pkg/logger"
	"github.com/privolio/privolio/internal/pkg/mq/worker"
	"github.com/privolio/privolio/internal/pkg/xerr"
	"github.com/privolio/privolio/internal/repositories"
	"go.uber.org/zap"
)

// EventPublisher 是审计事件的投递端，由 mq.RabbitMQClient 实现
type EventPublisher interface {
	Publish(queueName string, body []byte) error
}

// RequestMeta 描述一次访问请求的来源，用于审计
type RequestMeta struct {
	ViewerUserID *uint64 // nil 表示匿名访问者
	ViewerIP     string
	UserAgent    string
}

// AccessGate 是分享链接的访问闸门
// 所有公开入口（访问、浏览、归档下载）共用这一个组件做策略判定，
// 闸门自身无状态，读写全部落在 ShareLinkRepository 上
type AccessGate struct {
	linkRepo  repositories.ShareLinkRepository
	publisher EventPublisher // 可以为 nil，此时不产生审计事件
}

// NewAccessGate 创建访问闸门
func NewAccessGate(linkRepo repositories.ShareLinkRepository, publisher EventPublisher) *AccessGate {
	return &AccessGate{
		linkRepo:  linkRepo,
		publisher: publisher,
	}
}

// EvaluateAndConsume 判定链接策略并在通过时消耗一次访问
// 判定与计数由存储层的条件更新在单个原子步骤内完成，
// 两个并发请求打在 max_views=1 的链接上只会有一个拿到授权。
// 返回的快照中 CurrentViews 已反映本次消耗。
func (g *AccessGate) EvaluateAndConsume(ctx context.Context, token string, meta RequestMeta) (*models.ShareLink, error) {
	now := time.Now()

	link, err := g.linkRepo.FindByToken(token)
	if err != nil {
		return nil, fmt.Errorf("查询分享链接失败: %w", err)
	}
	if link == nil {
		g.audit(token, 0, meta, models.AccessResultNotFound, false, now)
		return nil, xerr.ErrLinkNotFound
	}

	if denial := classify(link, now); denial != nil {
		g.audit(token, link.UserID, meta, denialResult(denial), false, now)
		return nil, denial
	}

	consumed, err := g.linkRepo.ConsumeView(token, now)
	if err != nil {
		return nil, err
	}
	if !consumed {
		// 在查找和消耗之间输掉了并发竞争，重新读取并归类拒绝原因
		link, err = g.linkRepo.FindByToken(token)
		if err != nil {
			return nil, fmt.Errorf("查询分享链接失败: %w", err)
		}
		denial := xerr.ErrViewLimitReached
		if link == nil {
			denial = xerr.ErrLinkNotFound
		} else if d := classify(link, now); d != nil {
			denial = d
		}
		ownerID := uint64(0)
		if link != nil {
			ownerID = link.UserID
		}
		g.audit(token, ownerID, meta, denialResult(denial), false, now)
		return nil, denial
	}

	// 快照反映已消耗的计数
	link.CurrentViews++
	g.audit(token, link.UserID, meta, models.AccessResultGranted, true, now)

	logger.Info("分享链接访问已授权",
		zap.String("token", token),
		zap.Uint32("currentViews", link.CurrentViews))
	return link, nil
}

// Evaluate 只做策略判定，不消耗访问次数
// 供已进入分享页的浏览操作（文件树、文件内容）复用同一套策略，
// 避免浏览行为把访问预算烧光
func (g *AccessGate) Evaluate(ctx context.Context, token string) (*models.ShareLink, error) {
	link, err := g.linkRepo.FindByToken(token)
	if err != nil {
		return nil, fmt.Errorf("查询分享链接失败: %w", err)
	}
	if link == nil {
		return nil, xerr.ErrLinkNotFound
	}
	if denial := classify(link, time.Now()); denial != nil {
		return nil, denial
	}
	return link, nil
}

// classify 按固定优先级归类链接的拒绝原因，nil 表示链接可用
// 优先级：停用 > 过期 > 次数用尽
func classify(link *models.ShareLink, now time.Time) error {
	if !link.IsActive {
		return xerr.ErrLinkDeactivated
	}
	if link.ExpiresAt != nil && now.After(*link.ExpiresAt) {
		return xerr.ErrLinkExpired
	}
	if link.IsExhausted() {
		return xerr.ErrViewLimitReached
	}
	return nil
}

// denialResult 把拒绝错误映射为审计结果常量
func denialResult(denial error) string {
	switch denial {
	case xerr.ErrLinkNotFound:
		return models.AccessResultNotFound
	case xerr.ErrLinkDeactivated:
		return models.AccessResultDeactivated
	case xerr.ErrLinkExpired:
		return models.AccessResultExpired
	case xerr.ErrViewLimitReached:
		return models.AccessResultViewLimit
	}
	return models.AccessResultNotFound
}

// audit 异步投递审计事件，投递失败只记日志，不影响访问判定
func (g *AccessGate) audit(token string, ownerID uint64, meta RequestMeta, result string, consumed bool, at time.Time) {
	if g.publisher == nil {
		return
	}

	event := models.AccessEvent{
		Token:        token,
		OwnerUserID:  ownerID,
		ViewerUserID: meta.ViewerUserID,
		ViewerIP:     meta.ViewerIP,
		UserAgent:    meta.UserAgent,
		Result:       result,
		Consumed:     consumed,
		AccessedAt:   at,
	}
	body, err := json.Marshal(event)
	if err != nil {
		logger.Error("序列化审计事件失败", zap.Error(err))
		return
	}
	if err := g.publisher.Publish(worker.AccessAuditQueueName, body); err != nil {
		logger.Error("投递审计事件失败", zap.String("token", token), zap.Error(err))
	}
}
