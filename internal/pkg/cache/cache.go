package cache

import (
	"context"
	"fmt"
	"time"
)

// Cache 缓存通用接口
// 内容提供方的响应按 (repo, branch, path) 维度缓存，同一 commit 下内容不可变
type Cache interface {
	// Set 在缓存中设置一个值，并指定过期时间。
	// value 应该是一个可以被 JSON 封送的结构体或指向结构体的指针。
	Set(ctx context.Context, key string, value any, expiration time.Duration) error

	// Get 从缓存中检索一个值，并将其解编组到 target。
	// target 应该是一个指针，指向希望解编组成的类型。
	Get(ctx context.Context, key string, target any) error

	// Del 删除一个或多个key
	Del(ctx context.Context, keys ...string) error

	// Exists 检查key是否存在
	Exists(ctx context.Context, key string) (bool, error)

	Expire(ctx context.Context, key string, expiration time.Duration) error
	TTL(ctx context.Context, key string) (time.Duration, error)
}

// GenerateTreeKey 目录列表的缓存键
func GenerateTreeKey(repoFullName, branch, path string) string {
	return fmt.Sprintf("upstream:tree:%s:%s:%s", repoFullName, branch, path)
}

// GenerateFileKey 文件内容的缓存键
func GenerateFileKey(repoFullName, branch, path string) string {
	return fmt.Sprintf("upstream:file:%s:%s:%s", repoFullName, branch, path)
}

// GenerateRepoKey 仓库元信息（默认分支）的缓存键
func GenerateRepoKey(repoFullName string) string {
	return fmt.Sprintf("upstream:repo:%s", repoFullName)
}
