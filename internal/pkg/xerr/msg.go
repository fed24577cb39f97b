package xerr

import "errors"

var (
	// 通用错误
	ErrInternalServer = errors.New("服务器内部错误")

	// 客户端请求错误
	ErrInvalidParams   = errors.New("无效的请求参数")
	ErrMissingRepo     = errors.New("缺少目标仓库 (owner/repo)")
	ErrContentTooLarge = errors.New("文件内容过大，无法在线展示")
	ErrBinaryContent   = errors.New("二进制文件内容，不支持文本解码")

	// 认证与授权错误
	ErrUnauthorized       = errors.New("用户未授权")
	ErrTokenInvalid       = errors.New("认证 Token 无效或已过期")
	ErrInvalidCredentials = errors.New("用户名或密码不正确")
	ErrUserAlreadyExists  = errors.New("该用户名已被注册")
	ErrEmailAlreadyExists = errors.New("邮箱已被注册")

	// 权限错误
	ErrPermissionDenied  = errors.New("您没有操作此分享链接的权限")
	ErrUpstreamForbidden = errors.New("上游凭证无权访问该仓库")
	ErrCredentialMissing = errors.New("尚未绑定 GitHub 访问令牌")

	// 资源未找到错误
	ErrUserNotFound     = errors.New("用户不存在")
	ErrLinkNotFound     = errors.New("分享链接不存在")
	ErrUpstreamNotFound = errors.New("上游仓库、分支或路径不存在")

	// 链接终态错误，每种拒绝原因必须单独可区分，前端据此渲染不同提示
	ErrLinkExpired      = errors.New("分享链接已过期")
	ErrViewLimitReached = errors.New("分享链接访问次数已用尽")
	ErrLinkDeactivated  = errors.New("分享链接已被创建者停用")

	// 业务逻辑冲突
	ErrTokenConflict = errors.New("分享令牌已存在")

	// 数据库与外部服务错误
	ErrDatabaseError       = errors.New("数据库操作失败")
	ErrMQError             = errors.New("消息队列操作失败")
	ErrCryptoError         = errors.New("凭证加解密失败")
	ErrUpstreamUnavailable = errors.New("上游仓库服务暂时不可用")
)
