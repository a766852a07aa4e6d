package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// TokenSource 在每次请求时读取当前令牌
// 令牌不在订阅/创建时缓存，登出后后续请求立即失效
type TokenSource interface {
	Token() string
}

// TokenSourceFunc 函数适配器
type TokenSourceFunc func() string

func (f TokenSourceFunc) Token() string { return f() }

// NoToken 匿名调用（不附加认证头）
type NoToken struct{}

func (NoToken) Token() string { return "" }

// client 三个后端客户端共用的请求基础
type client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	logger     *zap.Logger
}

func newClient(baseURL string, timeout time.Duration, tokens TokenSource, logger *zap.Logger) *client {
	if tokens == nil {
		tokens = NoToken{}
	}
	return &client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		tokens:     tokens,
		logger:     logger,
	}
}

// getJSON 发起 GET 请求并解析 JSON 响应
func (c *client) getJSON(ctx context.Context, path string, out interface{}) error {
	return c.doJSON(ctx, http.MethodGet, path, nil, out)
}

// postJSON 发起 POST 请求（JSON 请求体）并解析 JSON 响应
func (c *client) postJSON(ctx context.Context, path string, body interface{}, out interface{}) error {
	return c.doJSON(ctx, http.MethodPost, path, body, out)
}

func (c *client) doJSON(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	// 每次调用时读取当前令牌，而不是在创建客户端时缓存
	if token := c.tokens.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return classifyTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail := readErrorDetail(resp.Body)
		return classifyStatus(resp.StatusCode, detail)
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", ErrParse, err)
	}
	return nil
}

// healthResponse 健康检查响应
type healthResponse struct {
	Status string `json:"status"`
}

// health 探测单个后端的存活状态
func (c *client) health(ctx context.Context) (string, error) {
	var resp healthResponse
	if err := c.getJSON(ctx, "/health", &resp); err != nil {
		return "", err
	}
	return resp.Status, nil
}

// readErrorDetail 尽量从错误响应体里提取 detail 字段
func readErrorDetail(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil || len(data) == 0 {
		return ""
	}
	var payload struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(data, &payload) == nil && payload.Detail != "" {
		return payload.Detail
	}
	return strings.TrimSpace(string(data))
}
