package session

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// TokenStorage 会话令牌的持久化存储
// 登录时写入，登出或校验失败时清除
type TokenStorage interface {
	Load() (string, error)
	Save(token string) error
	Clear() error
}

// FileStorage 基于本地文件的令牌存储（固定路径，权限 0600）
type FileStorage struct {
	path string
}

// NewFileStorage 创建文件令牌存储
func NewFileStorage(path string) *FileStorage {
	return &FileStorage{path: path}
}

// Load 读取持久化令牌（文件不存在视为无令牌，不报错）
func (f *FileStorage) Load() (string, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read token file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// Save 写入令牌
func (f *FileStorage) Save(token string) error {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}
	if err := os.WriteFile(f.path, []byte(token), 0o600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}

// Clear 删除持久化令牌（文件不存在视为已清除）
func (f *FileStorage) Clear() error {
	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove token file: %w", err)
	}
	return nil
}

// MemoryStorage 内存令牌存储（测试用）
type MemoryStorage struct {
	token string
}

// NewMemoryStorage 创建内存令牌存储
func NewMemoryStorage(token string) *MemoryStorage {
	return &MemoryStorage{token: token}
}

func (m *MemoryStorage) Load() (string, error) {
	return m.token, nil
}

func (m *MemoryStorage) Save(token string) error {
	m.token = token
	return nil
}

func (m *MemoryStorage) Clear() error {
	m.token = ""
	return nil
}
