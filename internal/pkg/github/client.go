package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/go-querystring/query"
	"github.com/privolio/privolio/internal/config"
	"github.com/privolio/privolio/internal/pkg/logger"
	"github.com/privolio/privolio/internal/pkg/xerr"
	"go.uber.org/zap"
)

// Client 封装对上游内容提供方 (GitHub REST API) 的访问
// 所有方法都接受调用方解析好的凭证，自身不保存任何用户令牌
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient 创建上游客户端，超时由配置决定，默认 10s
func NewClient(cfg *config.GitHubConfig) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(cfg.APIBaseURL, "/"),
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// doJSON 执行一次上游请求并将 2xx 响应体解码到 target
// 上游错误被映射到 xerr 的哨兵错误，网络错误统一归为上游不可用
func (c *Client) doJSON(ctx context.Context, credential, rawURL string, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("构造上游请求失败: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if credential != "" {
		req.Header.Set("Authorization", "token "+credential)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Warn("上游请求失败", zap.String("url", rawURL), zap.Error(err))
		return fmt.Errorf("%w: %v", xerr.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		// fallthrough to decode
	case resp.StatusCode == http.StatusNotFound:
		return xerr.ErrUpstreamNotFound
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return xerr.ErrUpstreamForbidden
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		logger.Warn("上游返回异常状态码",
			zap.String("url", rawURL), zap.Int("status", resp.StatusCode), zap.ByteString("body", body))
		return fmt.Errorf("%w: 上游状态码 %d", xerr.ErrUpstreamUnavailable, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("%w: 解析上游响应失败: %v", xerr.ErrUpstreamUnavailable, err)
	}
	return nil
}

// GetRepository 获取仓库元信息，用于解析默认分支
func (c *Client) GetRepository(ctx context.Context, credential, fullName string) (*Repository, error) {
	var repo Repository
	u := fmt.Sprintf("%s/repos/%s", c.baseURL, fullName)
	if err := c.doJSON(ctx, credential, u, &repo); err != nil {
		return nil, err
	}
	return &repo, nil
}

// ListUserRepos 列出凭证所属用户自己的仓库（含私有）
func (c *Client) ListUserRepos(ctx context.Context, credential string) ([]Repository, error) {
	opts := listReposOptions{Visibility: "all", Affiliation: "owner", PerPage: 100}
	qs, err := query.Values(opts)
	if err != nil {
		return nil, fmt.Errorf("构造查询参数失败: %w", err)
	}

	var repos []Repository
	u := fmt.Sprintf("%s/user/repos?%s", c.baseURL, qs.Encode())
	if err := c.doJSON(ctx, credential, u, &repos); err != nil {
		return nil, err
	}
	return repos, nil
}

// ListBranches 列出仓库分支
func (c *Client) ListBranches(ctx context.Context, credential, fullName string) ([]Branch, error) {
	var branches []Branch
	u := fmt.Sprintf("%s/repos/%s/branches", c.baseURL, fullName)
	if err := c.doJSON(ctx, credential, u, &branches); err != nil {
		return nil, err
	}
	return branches, nil
}

// ListDirectory 列出指定路径下的一层目录内容
func (c *Client) ListDirectory(ctx context.Context, credential, fullName, path, ref string) ([]ContentEntry, error) {
	var entries []ContentEntry
	u := c.contentsURL(fullName, path, ref)
	if err := c.doJSON(ctx, credential, u, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// GetFileEntry 获取单个文件的 contents API 响应（含 base64 内容）
func (c *Client) GetFileEntry(ctx context.Context, credential, fullName, path, ref string) (*ContentEntry, error) {
	var entry ContentEntry
	u := c.contentsURL(fullName, path, ref)
	if err := c.doJSON(ctx, credential, u, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// GetTreeRecursive 获取指定引用下的完整文件树
func (c *Client) GetTreeRecursive(ctx context.Context, credential, fullName, ref string) (*Tree, error) {
	var tree Tree
	u := fmt.Sprintf("%s/repos/%s/git/trees/%s?recursive=1", c.baseURL, fullName, url.PathEscape(ref))
	if err := c.doJSON(ctx, credential, u, &tree); err != nil {
		return nil, err
	}
	return &tree, nil
}

// GetBlob 按 SHA 获取 blob 的原始字节
func (c *Client) GetBlob(ctx context.Context, credential, fullName, sha string) ([]byte, error) {
	var blob blobResponse
	u := fmt.Sprintf("%s/repos/%s/git/blobs/%s", c.baseURL, fullName, sha)
	if err := c.doJSON(ctx, credential, u, &blob); err != nil {
		return nil, err
	}
	if blob.Encoding != "base64" {
		return nil, fmt.Errorf("%w: 未知的 blob 编码 %q", xerr.ErrUpstreamUnavailable, blob.Encoding)
	}
	// GitHub 的 base64 内容带换行
	data, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(blob.Content, "\n", ""))
	if err != nil {
		return nil, fmt.Errorf("%w: 解码 blob 内容失败: %v", xerr.ErrUpstreamUnavailable, err)
	}
	return data, nil
}

func (c *Client) contentsURL(fullName, path, ref string) string {
	u := fmt.Sprintf("%s/repos/%s/contents", c.baseURL, fullName)
	if path != "" {
		escaped := make([]string, 0, 8)
		for _, seg := range strings.Split(path, "/") {
			escaped = append(escaped, url.PathEscape(seg))
		}
		u += "/" + strings.Join(escaped, "/")
	}
	if ref != "" {
		qs, _ := query.Values(refOption{Ref: ref})
		u += "?" + qs.Encode()
	}
	return u
}
