package middlewares

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/privolio/privolio/internal/config"
	"github.com/privolio/privolio/internal/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testJWTConfig() *config.Config {
	return &config.Config{
		JWT: config.JWTConfig{
			SecretKey: "test-secret",
			Issuer:    "privolio",
			ExpiresIn: time.Hour,
		},
	}
}

func viewerEcho(c *gin.Context) {
	viewerID := utils.GetViewerIDFromContext(c)
	if viewerID == nil {
		c.JSON(http.StatusOK, gin.H{"viewer": "anonymous"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"viewer": *viewerID})
}

func TestAuthMiddlewareRejectsMissingToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := testJWTConfig()

	r := gin.New()
	r.GET("/protected", AuthMiddleware(cfg), viewerEcho)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddlewareAcceptsValidToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := testJWTConfig()
	token, err := utils.GenerateToken(7, "alice", cfg.JWT.SecretKey, cfg.JWT.Issuer, cfg.JWT.ExpiresIn)
	require.NoError(t, err)

	r := gin.New()
	r.GET("/protected", AuthMiddleware(cfg), viewerEcho)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"viewer":7`)
}

func TestOptionalAuthAllowsAnonymous(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := testJWTConfig()

	r := gin.New()
	r.GET("/share", OptionalAuthMiddleware(cfg), viewerEcho)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/share", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "anonymous")
}

func TestOptionalAuthIdentifiesViewer(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := testJWTConfig()
	token, err := utils.GenerateToken(42, "bob", cfg.JWT.SecretKey, cfg.JWT.Issuer, cfg.JWT.ExpiresIn)
	require.NoError(t, err)

	r := gin.New()
	r.GET("/share", OptionalAuthMiddleware(cfg), viewerEcho)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/share", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"viewer":42`)
}

func TestOptionalAuthTreatsInvalidTokenAsAnonymous(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := testJWTConfig()

	r := gin.New()
	r.GET("/share", OptionalAuthMiddleware(cfg), viewerEcho)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/share", nil)
	req.Header.Set("Authorization", "Bearer garbage.token.value")
	r.ServeHTTP(w, req)

	// 无效 Token 不拒绝访问，按匿名处理
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "anonymous")
}
