package session

import (
	"context"
	"fmt"
	"sync"

	"vitalwatch-client/internal/models"
	"vitalwatch-client/internal/transport"

	"go.uber.org/zap"
)

// AuthAPI 认证后端接口（单元测试中可替换）
type AuthAPI interface {
	Login(ctx context.Context, username, password string) (*transport.LoginResult, error)
	Logout(ctx context.Context) error
	Verify(ctx context.Context, token string) (*transport.VerifyResult, error)
}

// Store 会话存储
// 持有当前令牌与用户身份；有效性 = 令牌存在且最近一次校验成功
// 所有需要认证的传输层调用在请求时读取当前令牌（实现 transport.TokenSource）
type Store struct {
	auth    AuthAPI
	storage TokenStorage
	logger  *zap.Logger

	mu    sync.RWMutex
	token string
	user  models.User
	valid bool

	restoreOnce sync.Once
	restored    chan struct{}

	listenerMu sync.Mutex
	listeners  []func()
}

// NewStore 创建会话存储
func NewStore(auth AuthAPI, storage TokenStorage, logger *zap.Logger) *Store {
	return &Store{
		auth:     auth,
		storage:  storage,
		logger:   logger,
		restored: make(chan struct{}),
	}
}

// Restore 启动时恢复持久化会话
// 读取持久化令牌并向后端校验；失败或无令牌时清除持久化状态并保持未认证
// 恢复过程中的错误只记录日志，不向调用方抛出
func (s *Store) Restore(ctx context.Context) {
	defer s.restoreOnce.Do(func() { close(s.restored) })

	token, err := s.storage.Load()
	if err != nil {
		s.logger.Warn("Failed to load persisted token, starting unauthenticated", zap.Error(err))
		s.clearLocked(false)
		return
	}
	if token == "" {
		s.clearLocked(false)
		return
	}

	result, err := s.auth.Verify(ctx, token)
	if err != nil {
		s.logger.Warn("Session verification failed, starting unauthenticated", zap.Error(err))
		if err := s.storage.Clear(); err != nil {
			s.logger.Warn("Failed to clear persisted token", zap.Error(err))
		}
		s.clearLocked(false)
		return
	}
	if !result.Valid {
		s.logger.Info("Persisted session is no longer valid")
		if err := s.storage.Clear(); err != nil {
			s.logger.Warn("Failed to clear persisted token", zap.Error(err))
		}
		s.clearLocked(false)
		return
	}

	s.mu.Lock()
	s.token = token
	s.user = result.User
	s.valid = true
	s.mu.Unlock()

	s.logger.Info("Session restored",
		zap.String("username", result.User.Username),
		zap.String("role", result.User.Role),
	)
}

// Restored 恢复完成信号（其他组件在恢复结束前渲染加载状态）
func (s *Store) Restored() <-chan struct{} {
	return s.restored
}

// Login 用户登录
// 成功时持久化令牌并填充会话；失败时返回分类错误且不改动会话状态
func (s *Store) Login(ctx context.Context, username, password string) error {
	result, err := s.auth.Login(ctx, username, password)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	if err := s.storage.Save(result.AccessToken); err != nil {
		// 持久化失败不阻断登录，重启后需要重新认证
		s.logger.Warn("Failed to persist session token", zap.Error(err))
	}

	s.mu.Lock()
	s.token = result.AccessToken
	s.user = result.User
	s.valid = true
	s.mu.Unlock()

	s.logger.Info("User logged in", zap.String("username", result.User.Username))
	return nil
}

// Logout 登出
// 尽力通知后端（失败忽略），随后同步清除持久化令牌与会话状态
func (s *Store) Logout(ctx context.Context) {
	if err := s.auth.Logout(ctx); err != nil {
		s.logger.Debug("Backend logout notification failed", zap.Error(err))
	}
	if err := s.storage.Clear(); err != nil {
		s.logger.Warn("Failed to clear persisted token", zap.Error(err))
	}
	s.clearLocked(true)
	s.logger.Info("User logged out")
}

// Invalidate 会话被外部判定失效时调用（如传输层收到 401）
func (s *Store) Invalidate() {
	if err := s.storage.Clear(); err != nil {
		s.logger.Warn("Failed to clear persisted token", zap.Error(err))
	}
	s.clearLocked(true)
}

// Token 当前令牌（实现 transport.TokenSource，每次请求时读取）
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// User 当前用户身份
func (s *Store) User() (models.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user, s.valid
}

// IsValid 会话是否有效
func (s *Store) IsValid() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.valid
}

// OnInvalidate 注册会话失效监听器
// 有效性从 true 变为 false 时回调（登出或被判定失效）
func (s *Store) OnInvalidate(fn func()) {
	s.listenerMu.Lock()
	defer s.listenerMu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// clearLocked 清除会话状态，notify 为真且此前有效时触发失效监听器
func (s *Store) clearLocked(notify bool) {
	s.mu.Lock()
	wasValid := s.valid
	s.token = ""
	s.user = models.User{}
	s.valid = false
	s.mu.Unlock()

	if !notify || !wasValid {
		return
	}
	s.listenerMu.Lock()
	listeners := make([]func(), len(s.listeners))
	copy(listeners, s.listeners)
	s.listenerMu.Unlock()
	for _, fn := range listeners {
		fn()
	}
}
