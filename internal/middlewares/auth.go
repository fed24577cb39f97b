package middlewares

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/privolio/privolio/internal/config"
	"github.com/privolio/privolio/internal/pkg/utils"
	"github.com/privolio/privolio/internal/pkg/xerr"
)

// AuthMiddleware 要求请求携带合法的 Bearer Token，否则中止请求
func AuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := parseBearerToken(c, cfg)
		if err != nil {
			xerr.AbortWithError(c, http.StatusUnauthorized, xerr.UnauthorizedCode, err.Error())
			return
		}

		// 将用户信息存储到 Gin Context 中，以便后续 Handler 使用
		c.Set("userID", claims.UserID)
		c.Set("username", claims.Username)

		c.Next()
	}
}

// OptionalAuthMiddleware 用于分享访问路由：匿名访问者是合法的，
// 但携带了合法 Token 的访问者会被识别出来，以便用其自己的上游凭证取内容
func OptionalAuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") != "" {
			if claims, err := parseBearerToken(c, cfg); err == nil {
				c.Set("userID", claims.UserID)
				c.Set("username", claims.Username)
			}
			// Token 无效时按匿名处理，不拒绝访问
		}
		c.Next()
	}
}

func parseBearerToken(c *gin.Context, cfg *config.Config) (*utils.Claims, error) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return nil, errors.New("Authorization header is required")
	}

	// Token 格式通常是 "Bearer <token>"
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return nil, errors.New("Invalid Authorization header format")
	}
	tokenString := parts[1]

	claims := &utils.Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(cfg.JWT.SecretKey), nil
	})
	if err != nil {
		return nil, errors.New("Invalid or malformed token: " + err.Error())
	}
	if !token.Valid {
		return nil, errors.New("Invalid token")
	}
	return claims, nil
}
