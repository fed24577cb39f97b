package explorer

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/privolio/privolio/internal/config"
	"github.com/privolio/privolio/internal/models"
	"github.com/privolio/privolio/internal/pkg/cache"
	"github.com/privolio/privolio/internal/pkg/github"
	"github.com/privolio/privolio/internal/pkg/logger"
	"github.com/privolio/privolio/internal/pkg/utils"
	"github.com/privolio/privolio/internal/pkg/xerr"
	"go.uber.org/zap"
)

// ContentService 定义了已授权访问下的内容获取服务
// 所有方法都要求调用方先通过访问闸门拿到链接快照
type ContentService interface {
	// ListTree 列出分享目标下指定子路径的一层文件树
	ListTree(ctx context.Context, link *models.ShareLink, viewer *models.User, subpath string) ([]FileNode, error)
	// GetFile 获取分享目标下指定文件的文本内容
	// 二进制内容和超大文件分别以 ErrBinaryContent / ErrContentTooLarge 拒绝
	GetFile(ctx context.Context, link *models.ShareLink, viewer *models.User, path string) (*FileContent, error)
	// StreamArchive 把分享目标的指定子树打包为 zip 并写入 w
	StreamArchive(ctx context.Context, link *models.ShareLink, viewer *models.User, subpath string, w io.Writer) error
}

// contentService 是 ContentService 接口的具体实现
type contentService struct {
	upstream    *github.Client
	cacheStore  cache.Cache // 可以为 nil，此时每次直连上游
	sealer      *utils.CredentialSealer
	cfg         *config.Config
}

var _ ContentService = (*contentService)(nil)

// NewContentService 创建一个新的 ContentService 实例
func NewContentService(upstream *github.Client, cacheStore cache.Cache, sealer *utils.CredentialSealer, cfg *config.Config) ContentService {
	return &contentService{
		upstream:   upstream,
		cacheStore: cacheStore,
		sealer:     sealer,
		cfg:        cfg,
	}
}

// resolveCredential 解析本次请求使用的上游凭证
// 已登录且绑定了自己令牌的访问者用自己的凭证，
// 匿名访问者使用链接创建时快照的所有者凭证（受委托授权）
func (s *contentService) resolveCredential(link *models.ShareLink, viewer *models.User) (string, error) {
	sealed := link.OwnerCredential
	if viewer != nil && viewer.HasCredential() {
		sealed = viewer.GithubCredential
	}
	credential, err := s.sealer.Open(sealed)
	if err != nil {
		return "", fmt.Errorf("%w: %v", xerr.ErrCryptoError, err)
	}
	return credential, nil
}

// resolvePath 把访问者请求的子路径拼到链接的分享根之下
// 分享根之外的路径不可达，".." 之类的逃逸直接拒绝
func resolvePath(link *models.ShareLink, subpath string) (string, error) {
	subpath = strings.Trim(subpath, "/")
	for _, seg := range strings.Split(subpath, "/") {
		if seg == ".." {
			return "", xerr.ErrInvalidParams
		}
	}

	root := ""
	if link.Path != nil {
		root = strings.Trim(*link.Path, "/")
	}
	switch {
	case root == "":
		return subpath, nil
	case subpath == "":
		return root, nil
	default:
		return root + "/" + subpath, nil
	}
}

func (s *contentService) ListTree(ctx context.Context, link *models.ShareLink, viewer *models.User, subpath string) ([]FileNode, error) {
	path, err := resolvePath(link, subpath)
	if err != nil {
		return nil, err
	}

	cacheKey := cache.GenerateTreeKey(link.RepoFullName, link.Branch, path)
	if s.cacheStore != nil {
		var cached []FileNode
		if err := s.cacheStore.Get(ctx, cacheKey, &cached); err == nil {
			return cached, nil
		}
	}

	credential, err := s.resolveCredential(link, viewer)
	if err != nil {
		return nil, err
	}

	entries, err := s.upstream.ListDirectory(ctx, credential, link.RepoFullName, path, link.Branch)
	if err != nil {
		return nil, err
	}

	nodes := make([]FileNode, 0, len(entries))
	for _, entry := range entries {
		if entry.Type != "file" && entry.Type != "dir" {
			continue
		}
		node := FileNode{
			Name: entry.Name,
			Path: entry.Path,
			Type: entry.Type,
		}
		if entry.Type == "file" {
			size := entry.Size
			node.Size = &size
		}
		nodes = append(nodes, node)
	}

	if s.cacheStore != nil {
		if err := s.cacheStore.Set(ctx, cacheKey, nodes, s.cfg.GitHub.CacheTTL); err != nil {
			logger.Warn("缓存文件树失败", zap.String("key", cacheKey), zap.Error(err))
		}
	}
	return nodes, nil
}

func (s *contentService) GetFile(ctx context.Context, link *models.ShareLink, viewer *models.User, filePath string) (*FileContent, error) {
	path, err := resolvePath(link, filePath)
	if err != nil {
		return nil, err
	}

	cacheKey := cache.GenerateFileKey(link.RepoFullName, link.Branch, path)
	if s.cacheStore != nil {
		var cached FileContent
		if err := s.cacheStore.Get(ctx, cacheKey, &cached); err == nil {
			return &cached, nil
		}
	}

	credential, err := s.resolveCredential(link, viewer)
	if err != nil {
		return nil, err
	}

	entry, err := s.upstream.GetFileEntry(ctx, credential, link.RepoFullName, path, link.Branch)
	if err != nil {
		return nil, err
	}
	if entry.Type != "file" {
		return nil, xerr.ErrUpstreamNotFound
	}

	content, err := s.decodeEntry(entry)
	if err != nil {
		return nil, err
	}

	if s.cacheStore != nil {
		if err := s.cacheStore.Set(ctx, cacheKey, content, s.cfg.GitHub.CacheTTL); err != nil {
			logger.Warn("缓存文件内容失败", zap.String("key", cacheKey), zap.Error(err))
		}
	}
	return content, nil
}

// decodeEntry 把 contents API 的 base64 载荷解码为文本
// 上游超过 1MB 的文件 encoding 为 "none" 不携带内容；解码后的字节
// 不是合法 UTF-8 时按二进制拒绝，绝不强行转成文本
func (s *contentService) decodeEntry(entry *github.ContentEntry) (*FileContent, error) {
	if entry.Encoding == "none" || entry.Size > s.cfg.Share.MaxFileSize {
		return nil, xerr.ErrContentTooLarge
	}
	if entry.Encoding != "base64" {
		return nil, fmt.Errorf("%w: 未知的内容编码 %q", xerr.ErrUpstreamUnavailable, entry.Encoding)
	}

	data, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(entry.Content, "\n", ""))
	if err != nil {
		return nil, fmt.Errorf("%w: 解码文件内容失败: %v", xerr.ErrUpstreamUnavailable, err)
	}
	if !utf8.Valid(data) {
		return nil, xerr.ErrBinaryContent
	}

	return &FileContent{
		Path:     entry.Path,
		Content:  string(data),
		Encoding: "utf-8",
		Size:     entry.Size,
	}, nil
}
