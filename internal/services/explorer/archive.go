package explorer

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/zip"
	"github.com/privolio/privolio/internal/models"
	"github.com/privolio/privolio/internal/pkg/logger"
	"github.com/privolio/privolio/internal/pkg/xerr"
	"go.uber.org/zap"
)

// maxArchiveEntries 限制单次归档打包的文件数，防止超大仓库拖垮服务
const maxArchiveEntries = 2000

// StreamArchive 把分享子树打包为 zip 流式写入 w
// 树结构一次性从上游拉取，blob 逐个获取并边取边写，
// 整个过程不持有任何链接相关的锁
func (s *contentService) StreamArchive(ctx context.Context, link *models.ShareLink, viewer *models.User, subpath string, w io.Writer) error {
	root, err := resolvePath(link, subpath)
	if err != nil {
		return err
	}

	credential, err := s.resolveCredential(link, viewer)
	if err != nil {
		return err
	}

	tree, err := s.upstream.GetTreeRecursive(ctx, credential, link.RepoFullName, link.Branch)
	if err != nil {
		return err
	}
	if tree.Truncated {
		logger.Warn("上游文件树被截断，归档内容不完整",
			zap.String("repo", link.RepoFullName), zap.String("branch", link.Branch))
	}

	prefix := ""
	if root != "" {
		prefix = root + "/"
	}

	zw := zip.NewWriter(w)
	count := 0
	for _, entry := range tree.Tree {
		if entry.Type != "blob" {
			continue
		}
		if root != "" && entry.Path != root && !strings.HasPrefix(entry.Path, prefix) {
			continue
		}
		if count >= maxArchiveEntries {
			logger.Warn("归档文件数达到上限，截断输出",
				zap.String("repo", link.RepoFullName), zap.Int("limit", maxArchiveEntries))
			break
		}

		data, err := s.upstream.GetBlob(ctx, credential, link.RepoFullName, entry.SHA)
		if err != nil {
			zw.Close()
			return fmt.Errorf("获取归档文件失败 %s: %w", entry.Path, err)
		}

		name := strings.TrimPrefix(entry.Path, prefix)
		fw, err := zw.Create(name)
		if err != nil {
			zw.Close()
			return fmt.Errorf("写入归档条目失败 %s: %w", name, err)
		}
		if _, err := fw.Write(data); err != nil {
			zw.Close()
			return fmt.Errorf("写入归档内容失败 %s: %w", name, err)
		}
		count++
	}

	if count == 0 {
		zw.Close()
		return xerr.ErrUpstreamNotFound
	}
	return zw.Close()
}
