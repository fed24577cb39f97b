package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// ShareTokenBytes 是分享令牌的熵字节数，hex 编码后长度为其两倍
const ShareTokenBytes = 16

// GenerateShareToken 生成一个不可猜测的分享令牌
// 使用 crypto/rand 读取 16 字节熵并做 hex 编码，令牌中不携带任何
// 关于创建者或目标仓库的信息
func GenerateShareToken() (string, error) {
	buf := make([]byte, ShareTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("读取系统随机源失败: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
