package share

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/privolio/privolio/internal/models"
	"github.com/privolio/privolio/internal/pkg/xerr"
	"github.com/privolio/privolio/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// capturePublisher 把审计事件留在内存里供断言
type capturePublisher struct {
	mu     sync.Mutex
	events []models.AccessEvent
}

func (p *capturePublisher) Publish(queueName string, body []byte) error {
	var event models.AccessEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *capturePublisher) all() []models.AccessEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]models.AccessEvent(nil), p.events...)
}

func uint32Ptr(v uint32) *uint32 { return &v }

func seedLink(t *testing.T, repo repositories.ShareLinkRepository, link *models.ShareLink) *models.ShareLink {
	t.Helper()
	if link.Token == "" {
		link.Token = "tok-" + t.Name()
	}
	require.NoError(t, repo.Create(link))
	return link
}

func TestEvaluateAndConsumeGrantsUntilLimit(t *testing.T) {
	repo := repositories.NewMemoryShareLinkRepository()
	gate := NewAccessGate(repo, nil)
	link := seedLink(t, repo, &models.ShareLink{
		UserID:       1,
		RepoFullName: "alice/secrets",
		Branch:       "main",
		MaxViews:     uint32Ptr(2),
		IsActive:     true,
	})

	got, err := gate.EvaluateAndConsume(context.Background(), link.Token, RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, uint32(1), got.CurrentViews)

	got, err = gate.EvaluateAndConsume(context.Background(), link.Token, RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, uint32(2), got.CurrentViews)

	_, err = gate.EvaluateAndConsume(context.Background(), link.Token, RequestMeta{})
	assert.ErrorIs(t, err, xerr.ErrViewLimitReached)
}

func TestEvaluateAndConsumeConcurrent(t *testing.T) {
	const (
		maxViews = 10
		requests = 50
	)
	repo := repositories.NewMemoryShareLinkRepository()
	gate := NewAccessGate(repo, nil)
	link := seedLink(t, repo, &models.ShareLink{
		UserID:       1,
		RepoFullName: "alice/secrets",
		Branch:       "main",
		MaxViews:     uint32Ptr(maxViews),
		IsActive:     true,
	})

	var wg sync.WaitGroup
	results := make(chan error, requests)
	for i := 0; i < requests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := gate.EvaluateAndConsume(context.Background(), link.Token, RequestMeta{})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	granted, denied := 0, 0
	for err := range results {
		if err == nil {
			granted++
		} else {
			assert.ErrorIs(t, err, xerr.ErrViewLimitReached)
			denied++
		}
	}
	assert.Equal(t, maxViews, granted, "授权次数必须精确等于 maxViews")
	assert.Equal(t, requests-maxViews, denied)

	stored, err := repo.FindByToken(link.Token)
	require.NoError(t, err)
	assert.Equal(t, uint32(maxViews), stored.CurrentViews, "计数不能超过上限")
}

func TestEvaluateAndConsumeUnknownToken(t *testing.T) {
	repo := repositories.NewMemoryShareLinkRepository()
	gate := NewAccessGate(repo, nil)

	_, err := gate.EvaluateAndConsume(context.Background(), "no-such-token", RequestMeta{})
	assert.ErrorIs(t, err, xerr.ErrLinkNotFound)
}

func TestDenialClassificationPrecedence(t *testing.T) {
	past := time.Now().Add(-time.Hour)

	t.Run("停用优先于过期", func(t *testing.T) {
		repo := repositories.NewMemoryShareLinkRepository()
		gate := NewAccessGate(repo, nil)
		link := seedLink(t, repo, &models.ShareLink{
			UserID:       1,
			RepoFullName: "alice/secrets",
			Branch:       "main",
			ExpiresAt:    &past,
			IsActive:     false,
		})

		_, err := gate.EvaluateAndConsume(context.Background(), link.Token, RequestMeta{})
		assert.ErrorIs(t, err, xerr.ErrLinkDeactivated)
	})

	t.Run("过期优先于次数用尽", func(t *testing.T) {
		repo := repositories.NewMemoryShareLinkRepository()
		gate := NewAccessGate(repo, nil)
		link := seedLink(t, repo, &models.ShareLink{
			UserID:       1,
			RepoFullName: "alice/secrets",
			Branch:       "main",
			ExpiresAt:    &past,
			MaxViews:     uint32Ptr(1),
			CurrentViews: 1,
			IsActive:     true,
		})

		_, err := gate.EvaluateAndConsume(context.Background(), link.Token, RequestMeta{})
		assert.ErrorIs(t, err, xerr.ErrLinkExpired)
	})
}

func TestExpiredLinkStaysExpired(t *testing.T) {
	repo := repositories.NewMemoryShareLinkRepository()
	gate := NewAccessGate(repo, nil)
	past := time.Now().Add(-time.Minute)
	link := seedLink(t, repo, &models.ShareLink{
		UserID:       1,
		RepoFullName: "alice/secrets",
		Branch:       "main",
		ExpiresAt:    &past,
		IsActive:     true,
	})

	// 终态不随重复访问漂移
	for i := 0; i < 5; i++ {
		_, err := gate.EvaluateAndConsume(context.Background(), link.Token, RequestMeta{})
		assert.ErrorIs(t, err, xerr.ErrLinkExpired)
	}

	stored, err := repo.FindByToken(link.Token)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), stored.CurrentViews)
}

func TestFutureExpiryStillGranted(t *testing.T) {
	repo := repositories.NewMemoryShareLinkRepository()
	gate := NewAccessGate(repo, nil)
	future := time.Now().Add(time.Hour)
	link := seedLink(t, repo, &models.ShareLink{
		UserID:       1,
		RepoFullName: "alice/secrets",
		Branch:       "main",
		ExpiresAt:    &future,
		IsActive:     true,
	})

	_, err := gate.EvaluateAndConsume(context.Background(), link.Token, RequestMeta{})
	assert.NoError(t, err)
}

func TestDeactivationAndReactivation(t *testing.T) {
	repo := repositories.NewMemoryShareLinkRepository()
	gate := NewAccessGate(repo, nil)
	link := seedLink(t, repo, &models.ShareLink{
		UserID:       1,
		RepoFullName: "alice/secrets",
		Branch:       "main",
		IsActive:     true,
	})

	_, err := gate.EvaluateAndConsume(context.Background(), link.Token, RequestMeta{})
	require.NoError(t, err)

	_, err = repo.SetActive(link.Token, 1, false)
	require.NoError(t, err)
	_, err = gate.EvaluateAndConsume(context.Background(), link.Token, RequestMeta{})
	assert.ErrorIs(t, err, xerr.ErrLinkDeactivated)

	// 重新激活后按剩余策略继续生效
	_, err = repo.SetActive(link.Token, 1, true)
	require.NoError(t, err)
	got, err := gate.EvaluateAndConsume(context.Background(), link.Token, RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, uint32(2), got.CurrentViews)
}

func TestEvaluateDoesNotConsume(t *testing.T) {
	repo := repositories.NewMemoryShareLinkRepository()
	gate := NewAccessGate(repo, nil)
	link := seedLink(t, repo, &models.ShareLink{
		UserID:       1,
		RepoFullName: "alice/secrets",
		Branch:       "main",
		MaxViews:     uint32Ptr(1),
		IsActive:     true,
	})

	for i := 0; i < 10; i++ {
		_, err := gate.Evaluate(context.Background(), link.Token)
		require.NoError(t, err)
	}

	stored, err := repo.FindByToken(link.Token)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), stored.CurrentViews, "浏览操作不消耗访问次数")
}

func TestAuditEventsPublished(t *testing.T) {
	repo := repositories.NewMemoryShareLinkRepository()
	publisher := &capturePublisher{}
	gate := NewAccessGate(repo, publisher)
	viewerID := uint64(42)
	link := seedLink(t, repo, &models.ShareLink{
		UserID:       1,
		RepoFullName: "alice/secrets",
		Branch:       "main",
		MaxViews:     uint32Ptr(1),
		IsActive:     true,
	})

	meta := RequestMeta{ViewerUserID: &viewerID, ViewerIP: "10.0.0.8", UserAgent: "test-agent"}
	_, err := gate.EvaluateAndConsume(context.Background(), link.Token, meta)
	require.NoError(t, err)
	_, err = gate.EvaluateAndConsume(context.Background(), link.Token, meta)
	require.ErrorIs(t, err, xerr.ErrViewLimitReached)

	events := publisher.all()
	require.Len(t, events, 2)

	assert.Equal(t, models.AccessResultGranted, events[0].Result)
	assert.True(t, events[0].Consumed)
	assert.Equal(t, link.Token, events[0].Token)
	assert.Equal(t, uint64(1), events[0].OwnerUserID)
	require.NotNil(t, events[0].ViewerUserID)
	assert.Equal(t, viewerID, *events[0].ViewerUserID)
	assert.Equal(t, "10.0.0.8", events[0].ViewerIP)

	assert.Equal(t, models.AccessResultViewLimit, events[1].Result)
	assert.False(t, events[1].Consumed)
}
