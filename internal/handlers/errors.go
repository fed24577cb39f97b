package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/privolio/privolio/internal/pkg/logger"
	"github.com/privolio/privolio/internal/pkg/xerr"
	"go.uber.org/zap"
)

// businessStatus 把业务哨兵错误映射为 HTTP 状态码和业务码
// 链接的三种终态统一用 410 Gone，业务码区分具体原因
var businessStatus = map[error]struct {
	httpStatus int
	code       int
}{
	xerr.ErrInvalidParams:       {http.StatusBadRequest, xerr.InvalidParamsCode},
	xerr.ErrMissingRepo:         {http.StatusBadRequest, xerr.MissingRepoCode},
	xerr.ErrContentTooLarge:     {http.StatusRequestEntityTooLarge, xerr.ContentTooLargeCode},
	xerr.ErrBinaryContent:       {http.StatusUnprocessableEntity, xerr.BinaryContentCode},
	xerr.ErrUnauthorized:        {http.StatusUnauthorized, xerr.UnauthorizedCode},
	xerr.ErrTokenInvalid:        {http.StatusUnauthorized, xerr.TokenInvalidCode},
	xerr.ErrInvalidCredentials:  {http.StatusUnauthorized, xerr.InvalidCredentialsCode},
	xerr.ErrPermissionDenied:    {http.StatusForbidden, xerr.PermissionDeniedCode},
	xerr.ErrUpstreamForbidden:   {http.StatusForbidden, xerr.UpstreamForbiddenCode},
	xerr.ErrCredentialMissing:   {http.StatusForbidden, xerr.CredentialMissingCode},
	xerr.ErrUserNotFound:        {http.StatusNotFound, xerr.UserNotFoundCode},
	xerr.ErrLinkNotFound:        {http.StatusNotFound, xerr.LinkNotFoundCode},
	xerr.ErrUpstreamNotFound:    {http.StatusNotFound, xerr.UpstreamNotFoundCode},
	xerr.ErrUserAlreadyExists:   {http.StatusConflict, xerr.UserAlreadyExistsCode},
	xerr.ErrEmailAlreadyExists:  {http.StatusConflict, xerr.EmailAlreadyExistsCode},
	xerr.ErrTokenConflict:       {http.StatusConflict, xerr.TokenConflictCode},
	xerr.ErrLinkExpired:         {http.StatusGone, xerr.LinkExpiredCode},
	xerr.ErrViewLimitReached:    {http.StatusGone, xerr.ViewLimitCode},
	xerr.ErrLinkDeactivated:     {http.StatusGone, xerr.LinkDeactivatedCode},
	xerr.ErrCryptoError:         {http.StatusInternalServerError, xerr.CryptoErrorCode},
	xerr.ErrUpstreamUnavailable: {http.StatusBadGateway, xerr.UpstreamUnavailableCode},
}

// handleBusinessError 按哨兵错误回写统一响应，未识别的错误按 500 处理
func handleBusinessError(c *gin.Context, err error) {
	for sentinel, status := range businessStatus {
		if errors.Is(err, sentinel) {
			xerr.Error(c, status.httpStatus, status.code, sentinel.Error())
			return
		}
	}
	logger.Error("未预期的业务错误",
		zap.String("path", c.Request.URL.Path), zap.Error(err))
	xerr.Error(c, http.StatusInternalServerError, xerr.InternalServerErrorCode, "服务器内部错误")
}
