package transport

import (
	"context"
	"net/url"
	"time"

	"vitalwatch-client/internal/models"

	"go.uber.org/zap"
)

// AuthClient 认证服务客户端
type AuthClient struct {
	*client
}

// NewAuthClient 创建认证服务客户端
func NewAuthClient(baseURL string, timeout time.Duration, tokens TokenSource, logger *zap.Logger) *AuthClient {
	return &AuthClient{
		client: newClient(baseURL, timeout, tokens, logger),
	}
}

// LoginResult 登录响应
type LoginResult struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	ExpiresIn   int         `json:"expires_in"`
	User        models.User `json:"user"`
}

// loginRequest 登录请求体
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login 用户登录
// 凭证错误返回 ErrAuthInvalid（后端返回 401）
func (c *AuthClient) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	req := loginRequest{Username: username, Password: password}
	var result LoginResult
	if err := c.postJSON(ctx, "/api/auth/login", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Logout 通知后端登出（尽力而为，失败由调用方忽略）
func (c *AuthClient) Logout(ctx context.Context) error {
	return c.postJSON(ctx, "/api/auth/logout", struct{}{}, nil)
}

// VerifyResult 令牌校验响应
type VerifyResult struct {
	Valid bool        `json:"valid"`
	User  models.User `json:"user"`
}

// Verify 校验持久化令牌是否仍然有效
func (c *AuthClient) Verify(ctx context.Context, token string) (*VerifyResult, error) {
	var result VerifyResult
	path := "/api/auth/verify?token=" + url.QueryEscape(token)
	if err := c.getJSON(ctx, path, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Health 探测服务存活状态
func (c *AuthClient) Health(ctx context.Context) (string, error) {
	return c.health(ctx)
}
