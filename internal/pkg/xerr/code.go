package xerr

// 定义了统一的业务错误码
const (
	SuccessCode = 20000 // 通用成功码

	// --- 客户端请求错误系列 (400xx) ---
	InvalidParamsCode   = 40000 // 无效的请求参数
	MissingRepoCode     = 40001 // 创建链接缺少目标仓库
	ContentTooLargeCode = 40002 // 文件内容超出可展示大小
	BinaryContentCode   = 40003 // 二进制内容，不做文本解码

	// --- 认证与授权错误系列 (401xx) ---
	UnauthorizedCode       = 40100 // 通用未授权
	TokenInvalidCode       = 40101 // Token 无效或过期
	InvalidCredentialsCode = 40102 // 用户名或密码错误

	// --- 权限错误系列 (403xx) ---
	ForbiddenCode         = 40300 // 通用无权限
	PermissionDeniedCode  = 40301 // 非链接创建者操作他人链接
	UpstreamForbiddenCode = 40302 // 上游凭证无权访问目标仓库
	CredentialMissingCode = 40303 // 用户未绑定上游访问令牌

	// --- 资源未找到错误系列 (404xx) ---
	NotFoundCode         = 40400 // 通用资源未找到
	UserNotFoundCode     = 40401 // 用户不存在
	LinkNotFoundCode     = 40402 // 分享链接不存在
	UpstreamNotFoundCode = 40403 // 上游仓库/分支/路径不存在

	// --- 业务逻辑冲突系列 (409xx) ---
	UserAlreadyExistsCode  = 40900 // 用户名已存在
	EmailAlreadyExistsCode = 40901 // 邮箱已存在
	TokenConflictCode      = 40902 // 分享令牌冲突（内部重试后仍失败）

	// --- 链接终态系列 (410xx)，每种拒绝原因单独成码 ---
	LinkExpiredCode     = 41000 // 分享链接已过期
	ViewLimitCode       = 41001 // 分享链接访问次数已用尽
	LinkDeactivatedCode = 41002 // 分享链接已被创建者停用

	// --- 服务器内部错误系列 (500xx) ---
	InternalServerErrorCode = 50000 // 服务器内部通用错误
	DatabaseErrorCode       = 50001 // 数据库操作失败
	MQErrorCode             = 50002 // 消息队列操作失败
	CryptoErrorCode         = 50003 // 凭证加解密失败

	// --- 上游服务错误系列 (502xx) ---
	UpstreamUnavailableCode = 50200 // 上游仓库服务不可用
)
