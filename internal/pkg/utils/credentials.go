package utils

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

// CredentialSealer 负责上游访问令牌的落库加密与解密
// 使用 chacha20poly1305 (AEAD)，密文格式为 base64(nonce || ciphertext)
type CredentialSealer struct {
	aeadKey []byte
}

// NewCredentialSealer 从 hex 编码的 32 字节密钥创建 CredentialSealer
func NewCredentialSealer(hexKey string) (*CredentialSealer, error) {
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("凭证密钥不是合法的 hex 编码: %w", err)
	}
	if len(key) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("凭证密钥长度必须为 %d 字节，实际 %d 字节", chacha20poly1305.KeySize, len(key))
	}
	return &CredentialSealer{aeadKey: key}, nil
}

// Seal 加密一个明文凭证，返回可落库的字符串
func (s *CredentialSealer) Seal(plaintext string) (string, error) {
	aead, err := chacha20poly1305.NewX(s.aeadKey)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("读取系统随机源失败: %w", err)
	}
	sealed := aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Open 解密一个落库的凭证密文
func (s *CredentialSealer) Open(sealed string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return "", fmt.Errorf("凭证密文不是合法的 base64 编码: %w", err)
	}
	aead, err := chacha20poly1305.NewX(s.aeadKey)
	if err != nil {
		return "", err
	}
	if len(raw) < aead.NonceSize() {
		return "", errors.New("凭证密文长度不足")
	}
	nonce, ciphertext := raw[:aead.NonceSize()], raw[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("凭证解密失败: %w", err)
	}
	return string(plaintext), nil
}
